// Package sched drives the periodic background tasks named in spec.md
// §4.4/§4.8/§5 — the expiration sweep, AOF fsync-on-timer, and RDB/AOF
// eligibility checks — via github.com/go-co-op/gocron/v2, grounded in
// cc-backend's internal/taskmanager (one gocron.Scheduler, one NewJob
// call per periodic concern, registered at startup and stopped on
// Shutdown). The teacher has no equivalent: its background RDB save
// loop is a raw time.Ticker in internal/server/redis_server.go.
package sched

import (
	"time"

	"github.com/go-co-op/gocron/v2"

	"kvprotod/internal/log"
)

// Scheduler owns the gocron instance and the jobs registered onto it.
type Scheduler struct {
	s      gocron.Scheduler
	log    *log.Logger
}

// New creates a stopped Scheduler. Call Start once every RegisterX call
// has run.
func New(logger *log.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = log.Nop()
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Scheduler{s: s, log: logger}, nil
}

// Start begins running registered jobs on their configured cadence.
func (sch *Scheduler) Start() {
	sch.s.Start()
}

// Shutdown stops the scheduler, waiting for any in-flight job to finish.
func (sch *Scheduler) Shutdown() error {
	return sch.s.Shutdown()
}

// RegisterExpirationSweep runs fn (store.DB.Sweep wrapped by the caller)
// every interval, implementing spec.md §4.4's active-expiration pass. A
// zero/negative interval disables it (some deployments may prefer
// lazy-only expiration).
func (sch *Scheduler) RegisterExpirationSweep(interval time.Duration, fn func()) error {
	if interval <= 0 {
		return nil
	}
	_, err := sch.s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(fn),
	)
	return err
}

// RegisterAOFSync runs the AOF fsync-on-timer task (SyncEverySecond)
// every interval.
func (sch *Scheduler) RegisterAOFSync(interval time.Duration, fn func() error) error {
	if interval <= 0 {
		return nil
	}
	_, err := sch.s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if err := fn(); err != nil {
				sch.log.Warnw("aof sync failed", "error", err)
			}
		}),
	)
	return err
}

// RegisterAutoSave checks the coordinator's auto-save eligibility every
// interval and triggers a background save when it fires, per spec.md
// §4.8's two-counter rule.
func (sch *Scheduler) RegisterAutoSave(interval time.Duration, eligible func() bool, save func() error) error {
	if interval <= 0 {
		return nil
	}
	_, err := sch.s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if !eligible() {
				return
			}
			if err := save(); err != nil {
				sch.log.Warnw("background save failed", "error", err)
			}
		}),
	)
	return err
}

// RegisterAOFRewriteCheck checks AOF rewrite eligibility every interval
// and triggers a rewrite when the AOF has grown past the configured
// threshold, per spec.md §4.8.
func (sch *Scheduler) RegisterAOFRewriteCheck(interval time.Duration, eligible func() bool, rewrite func() error) error {
	if interval <= 0 {
		return nil
	}
	_, err := sch.s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if !eligible() {
				return
			}
			if err := rewrite(); err != nil {
				sch.log.Warnw("aof rewrite failed", "error", err)
			}
		}),
	)
	return err
}

package sched

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kvprotod/internal/log"
)

func TestRegisterExpirationSweepRunsOnSchedule(t *testing.T) {
	sch, err := New(log.Nop())
	require.NoError(t, err)

	var calls int32
	require.NoError(t, sch.RegisterExpirationSweep(20*time.Millisecond, func() {
		atomic.AddInt32(&calls, 1)
	}))
	sch.Start()
	defer sch.Shutdown()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestRegisterExpirationSweepZeroIntervalIsNoop(t *testing.T) {
	sch, err := New(log.Nop())
	require.NoError(t, err)
	defer sch.Shutdown()

	require.NoError(t, sch.RegisterExpirationSweep(0, func() {
		t.Fatal("should never run")
	}))
	sch.Start()
	time.Sleep(20 * time.Millisecond)
}

func TestRegisterAutoSaveSkipsWhenNotEligible(t *testing.T) {
	sch, err := New(log.Nop())
	require.NoError(t, err)

	var saved int32
	require.NoError(t, sch.RegisterAutoSave(10*time.Millisecond,
		func() bool { return false },
		func() error { atomic.AddInt32(&saved, 1); return nil },
	))
	sch.Start()
	defer sch.Shutdown()

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(0), atomic.LoadInt32(&saved))
}

func TestRegisterAOFRewriteCheckRunsWhenEligible(t *testing.T) {
	sch, err := New(log.Nop())
	require.NoError(t, err)

	var rewrote int32
	require.NoError(t, sch.RegisterAOFRewriteCheck(10*time.Millisecond,
		func() bool { return true },
		func() error { atomic.AddInt32(&rewrote, 1); return nil },
	))
	sch.Start()
	defer sch.Shutdown()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&rewrote) >= 1
	}, time.Second, 5*time.Millisecond)
}

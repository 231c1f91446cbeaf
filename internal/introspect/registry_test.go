package introspect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRegistryCountersStartAtZero(t *testing.T) {
	r := New()
	assert.Equal(t, float64(0), readCounter(r.ExpiredKeys))
	assert.Equal(t, float64(0), readCounter(r.ConnectionsTotal))
	assert.Equal(t, float64(0), readGauge(r.ConnectedClients))
}

func TestRegistryUptimeAdvances(t *testing.T) {
	r := New()
	time.Sleep(time.Millisecond)
	assert.Greater(t, r.Uptime(), time.Duration(0))
}

func TestCommandsProcessedSumsAcrossLabels(t *testing.T) {
	r := New()
	r.CommandsProcessed.WithLabelValues("GET").Inc()
	r.CommandsProcessed.WithLabelValues("GET").Inc()
	r.CommandsProcessed.WithLabelValues("SET").Inc()
	assert.Equal(t, float64(3), sumCounterVec(r.CommandsProcessed))
}

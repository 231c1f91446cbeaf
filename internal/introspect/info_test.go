package introspect

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildINFOIncludesAllSections(t *testing.T) {
	r := New()
	r.ConnectedClients.Inc()
	r.ConnectionsTotal.Inc()

	out := r.BuildINFO(Params{
		Keys:           3,
		MemoryBytes:    1024,
		MaxMemoryBytes: 2048,
		RDBEnabled:     true,
		LastSave:       time.Unix(1700000000, 0),
		AOFEnabled:     true,
	})

	for _, section := range []string{"# Server", "# Clients", "# Memory", "# Persistence", "# Stats", "# Keyspace"} {
		assert.Contains(t, out, section)
	}
	assert.Contains(t, out, "used_memory:1024")
	assert.Contains(t, out, "maxmemory:2048")
	assert.Contains(t, out, "db0:keys=3")
	assert.Contains(t, out, "rdb_last_bgsave_status:ok")
}

func TestBuildINFOReportsLastSaveError(t *testing.T) {
	r := New()
	out := r.BuildINFO(Params{LastSaveErr: errors.New("disk full")})
	assert.Contains(t, out, "rdb_last_bgsave_status:err")
}

func TestBuildINFOZeroMaxMemoryMeansUnbounded(t *testing.T) {
	r := New()
	out := r.BuildINFO(Params{})
	assert.Contains(t, out, "maxmemory:0")
}

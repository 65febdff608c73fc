package monitor

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealease/backend/internal/infrastructure/buffer"
)

type upRecorder map[string]bool

func (r upRecorder) SetBackendUp(backend string, up bool) { r[backend] = up }

func TestMonitor_OnlyConfiguredBackendsCount(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	buf, err := buffer.Open(filepath.Join(t.TempDir(), "buffer.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = buf.Close() })
	require.NoError(t, buf.Enqueue(buffer.Item{Entity: buffer.EntityDocument, Kind: "match"}))

	m := New(nil, client, buf, 0, nil)
	observed := upRecorder{}
	m.Observe(observed)
	var changes []bool
	m.OnChange(func(online bool) { changes = append(changes, online) })

	status := m.Check()
	assert.True(t, status.Redis)
	assert.False(t, status.PostgreSQL)
	assert.True(t, status.Buffer)
	assert.Equal(t, 1, status.BufferSize)
	assert.Equal(t, map[string]int{"match": 1}, status.BufferByKind)
	assert.False(t, status.Stale(time.Now(), time.Minute))
	assert.True(t, Status{}.Stale(time.Now(), time.Minute))
	assert.True(t, m.IsOnline())
	assert.Equal(t, upRecorder{BackendRedis: true, BackendBuffer: true}, observed)
	assert.Empty(t, changes, "the first check only establishes a baseline")

	mr.Close()
	status = m.Check()
	assert.False(t, status.Redis)
	assert.False(t, m.IsOnline())
	assert.False(t, observed[BackendRedis])
	assert.Equal(t, []bool{false}, changes)

	m.Check()
	assert.Equal(t, []bool{false}, changes, "listeners fire on transitions only")
}

func TestMonitor_NothingConfigured(t *testing.T) {
	m := New(nil, nil, nil, 0, nil)
	m.Stop()
	m.Check()
	assert.True(t, m.IsOnline())
	pg, redis := m.Configured()
	assert.False(t, pg)
	assert.False(t, redis)

	m.Start()
	m.Stop()
	m.Stop()
}

package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linker-backend/pkg/config"
	"linker-backend/pkg/logger"
)

func TestNewStoreSelectsBackend(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	tests := []struct {
		name string
		cfg  *config.Config
		want string
	}{
		{"memory by default", &config.Config{}, "memory"},
		{"sqlite path", &config.Config{SQLitePath: filepath.Join(t.TempDir(), "linker.db")}, "sqlite"},
		{"redis url", &config.Config{RedisURL: "redis://" + mr.Addr(), RedisPrefix: "pool"}, "redis"},
		{"explicit supabase", &config.Config{StoreBackend: config.BackendSupabase, SupabaseURL: "http://127.0.0.1:1", SupabaseKey: "k"}, "supabase"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewStore(ctx, tt.cfg, logger.Nop())
			require.NoError(t, err)
			defer store.Close()
			assert.Equal(t, tt.want, store.Name())
		})
	}
}

func TestNewStoreMigratesSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{SQLitePath: filepath.Join(t.TempDir(), "linker.db")}

	store, err := NewStore(ctx, cfg, logger.Nop())
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Collection(CollectionLinks).InsertOne(ctx, Document{FieldOwner: "u1"})
	assert.NoError(t, err)
}

func TestNewStoreUnknownBackend(t *testing.T) {
	_, err := NewStore(context.Background(), &config.Config{StoreBackend: "mongo"}, logger.Nop())
	assert.ErrorContains(t, err, `unknown store backend "mongo"`)
}

func TestGetStoreReusesInstance(t *testing.T) {
	ctx := context.Background()
	ResetStore()
	t.Cleanup(ResetStore)

	cfg := &config.Config{}
	first, err := GetStore(ctx, cfg, logger.Nop())
	require.NoError(t, err)
	second, err := GetStore(ctx, cfg, logger.Nop())
	require.NoError(t, err)
	assert.Same(t, first, second)

	changed := &config.Config{DataDir: t.TempDir()}
	third, err := GetStore(ctx, changed, logger.Nop())
	require.NoError(t, err)
	assert.NotSame(t, first, third)

	ResetStore()
	fourth, err := GetStore(ctx, changed, logger.Nop())
	require.NoError(t, err)
	assert.NotSame(t, third, fourth)
}

// agePool 把存储池的时间戳往前拨
func agePool(idle, sinceCheck time.Duration) {
	poolMutex.Lock()
	defer poolMutex.Unlock()
	globalPool.lastUsed = time.Now().Add(-idle)
	globalPool.lastChecked = time.Now().Add(-sinceCheck)
}

func TestGetStoreRecreatesUnhealthyStore(t *testing.T) {
	ctx := context.Background()
	ResetStore()
	t.Cleanup(ResetStore)

	mr := miniredis.RunT(t)
	cfg := &config.Config{RedisURL: "redis://" + mr.Addr()}

	first, err := GetStore(ctx, cfg, logger.Nop())
	require.NoError(t, err)

	// 模拟连接失效
	poolMutex.Lock()
	globalPool.instance.Close()
	poolMutex.Unlock()

	// 距上次检查不足一分钟，不会 ping
	again, err := GetStore(ctx, cfg, logger.Nop())
	require.NoError(t, err)
	assert.Same(t, first, again)

	agePool(0, 2*time.Minute)
	second, err := GetStore(ctx, cfg, logger.Nop())
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.NoError(t, second.HealthCheck(ctx))
}

func TestGetStoreRecreatesIdleConnectedStore(t *testing.T) {
	ctx := context.Background()
	ResetStore()
	t.Cleanup(ResetStore)

	cfg := &config.Config{SQLitePath: filepath.Join(t.TempDir(), "linker.db")}
	first, err := GetStore(ctx, cfg, logger.Nop())
	require.NoError(t, err)

	agePool(31*time.Minute, 31*time.Minute)
	second, err := GetStore(ctx, cfg, logger.Nop())
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestGetStoreKeepsInMemoryData(t *testing.T) {
	ctx := context.Background()

	for _, metrics := range []bool{false, true} {
		ResetStore()
		cfg := &config.Config{MetricsEnabled: metrics}

		first, err := GetStore(ctx, cfg, logger.Nop())
		require.NoError(t, err)
		_, err = first.Collection(CollectionLinks).InsertOne(ctx, Document{FieldOwner: "u1", "title": "kept"})
		require.NoError(t, err)

		agePool(31*time.Minute, 31*time.Minute)
		second, err := GetStore(ctx, cfg, logger.Nop())
		require.NoError(t, err)
		assert.Same(t, first, second)

		docs, err := second.Collection(CollectionLinks).Find(ctx, Filter{FieldOwner: "u1"}, 0)
		require.NoError(t, err)
		assert.Len(t, docs, 1)
	}
	ResetStore()
}

func TestIsVolatile(t *testing.T) {
	mem, err := NewLocalStore("")
	require.NoError(t, err)
	persisted, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	assert.True(t, isVolatile(mem))
	assert.True(t, isVolatile(WithMetrics(mem, NewStoreMetrics(prometheus.NewRegistry()))))
	assert.False(t, isVolatile(persisted))
}

func TestGetStoreWrapsWithMetrics(t *testing.T) {
	ResetStore()
	t.Cleanup(ResetStore)

	store, err := GetStore(context.Background(), &config.Config{MetricsEnabled: true}, logger.Nop())
	require.NoError(t, err)
	_, ok := store.(*metricsStore)
	assert.True(t, ok)
	assert.Equal(t, "memory", store.Name())
}

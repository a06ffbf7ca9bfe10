package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"linker-backend/pkg/config"
	"linker-backend/pkg/logger"
)

// NewStore 根据配置创建存储实例；SQL 后端会先执行建表
func NewStore(ctx context.Context, cfg *config.Config, log logger.Logger) (Store, error) {
	backend := cfg.ResolveStoreBackend()

	var store Store
	switch backend {
	case config.BackendMemory:
		local, err := NewLocalStore(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		store = local
	case config.BackendPostgres:
		pg, err := NewPostgresStore(cfg.PostgresDSN, log)
		if err != nil {
			return nil, err
		}
		store = pg
	case config.BackendSQLite:
		lite, err := NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		store = lite
	case config.BackendRedis:
		client, err := ConnectRedis(ctx, DefaultRedisConnectOptions(cfg.RedisURL), log)
		if err != nil {
			return nil, err
		}
		store = NewRedisStore(client, cfg.RedisPrefix)
	case config.BackendSupabase:
		store = NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}

	if m, ok := store.(Migrator); ok {
		if err := m.Migrate(ctx); err != nil {
			store.Close()
			return nil, err
		}
	}

	log.Info("document store ready", logger.String("backend", store.Name()))
	return store, nil
}

// 存储池的重建与健康检查节奏
const (
	storeIdleTimeout    = 30 * time.Minute
	healthCheckInterval = time.Minute
)

// storePool 进程级存储单例（无服务器环境下跨请求复用连接）
type storePool struct {
	instance    Store
	key         string
	lastUsed    time.Time
	lastChecked time.Time
}

var (
	globalPool *storePool
	poolMutex  sync.Mutex
)

// GetStore 获取存储实例（单例 + 健康检查）
// 配置变化、空闲超过30分钟或健康检查失败时重建；健康检查每分钟最多一次
// 纯内存存储只在配置变化时重建
func GetStore(ctx context.Context, cfg *config.Config, log logger.Logger) (Store, error) {
	poolMutex.Lock()
	defer poolMutex.Unlock()

	key := configKey(cfg)
	now := time.Now()
	if globalPool != nil && !shouldRecreate(ctx, globalPool, key, now, log) {
		globalPool.lastUsed = now
		return globalPool.instance, nil
	}

	if globalPool != nil && globalPool.instance != nil {
		globalPool.instance.Close()
	}
	globalPool = nil

	store, err := NewStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if cfg.MetricsEnabled {
		store = WithMetrics(store, DefaultStoreMetrics())
	}

	globalPool = &storePool{instance: store, key: key, lastUsed: now, lastChecked: now}
	return store, nil
}

// shouldRecreate 判断是否需要重新创建存储实例
func shouldRecreate(ctx context.Context, pool *storePool, key string, now time.Time, log logger.Logger) bool {
	if pool.instance == nil {
		return true
	}
	if pool.key != key {
		log.Info("store configuration changed, recreating")
		return true
	}
	// 数据只在进程内存中，重建等于清空
	if isVolatile(pool.instance) {
		return false
	}
	if now.Sub(pool.lastUsed) > storeIdleTimeout {
		log.Info("store connection idle too long, recreating")
		return true
	}
	if now.Sub(pool.lastChecked) < healthCheckInterval {
		return false
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool.lastChecked = now
	if err := pool.instance.HealthCheck(pingCtx); err != nil {
		log.Warn("store health check failed, recreating", logger.Error(err))
		return true
	}
	return false
}

// isVolatile 存储是否只保存在进程内存中
func isVolatile(store Store) bool {
	if m, ok := store.(*metricsStore); ok {
		store = m.Store
	}
	local, ok := store.(*LocalStore)
	return ok && local.Volatile()
}

// configKey 影响存储实例的配置项
func configKey(cfg *config.Config) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s|%s|%t",
		cfg.ResolveStoreBackend(), cfg.PostgresDSN, cfg.SQLitePath, cfg.RedisURL,
		cfg.RedisPrefix, cfg.SupabaseURL, cfg.SupabaseKey, cfg.DataDir, cfg.MetricsEnabled)
}

// ResetStore 关闭并清空进程级存储实例
func ResetStore() {
	poolMutex.Lock()
	defer poolMutex.Unlock()

	if globalPool != nil && globalPool.instance != nil {
		globalPool.instance.Close()
	}
	globalPool = nil
}

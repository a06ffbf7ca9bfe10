package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"linker-backend/pkg/config"
	"linker-backend/pkg/database"
	"linker-backend/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	// 命令行参数覆盖 POSTGRES_DSN
	if len(os.Args) > 1 {
		cfg.StoreBackend = config.BackendPostgres
		cfg.PostgresDSN = os.Args[1]
	}

	backend := cfg.ResolveStoreBackend()
	if backend == config.BackendSupabase {
		// Supabase 通过 PostgREST 访问，无法在这里建表
		fmt.Println("📄 Run the following SQL in the Supabase SQL editor:")
		fmt.Print(database.SupabaseSchema)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	fmt.Printf("🔗 Connecting to %s store: %s\n", backend, describe(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// NewStore 会对 SQL 后端执行建表
	store, err := database.NewStore(ctx, cfg, logger.New(cfg.LogLevel, cfg.PrettyLog))
	if err != nil {
		log.Fatalf("❌ Failed to initialize store: %v", err)
	}
	defer store.Close()

	if err := store.HealthCheck(ctx); err != nil {
		log.Fatalf("❌ Store health check failed: %v", err)
	}
	fmt.Println("✅ Store connection successful")

	// 验证集合是否可读
	fmt.Println("🔍 Verifying collections...")
	for _, name := range database.Collections() {
		docs, err := store.Collection(name).Find(ctx, database.Filter{}, 0)
		if err != nil {
			log.Printf("⚠️  Warning: Failed to query collection %s: %v", name, err)
			continue
		}
		fmt.Printf("✅ Collection %s: %d documents\n", name, len(docs))
	}

	fmt.Println("🎉 Store setup completed!")
}

// describe 隐藏连接字符串中的密码
func describe(cfg *config.Config) string {
	switch cfg.ResolveStoreBackend() {
	case config.BackendPostgres:
		return maskPassword(cfg.PostgresDSN)
	case config.BackendRedis:
		return maskPassword(cfg.RedisURL)
	case config.BackendSQLite:
		return cfg.SQLitePath
	case config.BackendSupabase:
		return cfg.SupabaseURL
	default:
		if cfg.DataDir == "" {
			return "in-memory"
		}
		return cfg.DataDir
	}
}

// maskPassword 隐藏连接字符串中的密码
func maskPassword(dsn string) string {
	if len(dsn) > 50 {
		return dsn[:20] + "***" + dsn[len(dsn)-20:]
	}
	if len(dsn) > 10 {
		return dsn[:10] + "***"
	}
	return "***"
}

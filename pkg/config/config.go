package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// 存储后端名称
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendSupabase = "supabase"
)

// 身份解析模式
const (
	AuthModeUnverified = "unverified"
	AuthModeHS256      = "hs256"
	AuthModeRS256      = "rs256"
)

// Config 应用配置结构
type Config struct {
	// 环境配置
	Environment string
	Port        string

	// 日志配置
	LogLevel  string
	PrettyLog bool

	// 存储配置
	StoreBackend string
	PostgresDSN  string
	SQLitePath   string
	RedisURL     string
	RedisPrefix  string
	SupabaseURL  string
	SupabaseKey  string
	DataDir      string

	// 身份配置
	AuthMode       string
	ClerkSecretKey string
	AuthPublicKey  string

	// CORS配置
	FrontendURL    string
	AllowedOrigins []string

	// 请求限制
	RequestTimeout time.Duration
	RateLimitRPM   int
	MaxBodyBytes   int64

	MetricsEnabled bool

	// 调试配置
	Debug bool
}

// LoadConfig 加载配置（环境变量优先于 .env 文件）
func LoadConfig() *Config {
	v := viper.New()

	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("PORT", "8000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PRETTY_LOG", true)
	v.SetDefault("REDIS_PREFIX", "linker")
	v.SetDefault("DATA_DIR", "")
	v.SetDefault("AUTH_MODE", AuthModeUnverified)
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")
	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("REQUEST_TIMEOUT", 25*time.Second)
	v.SetDefault("RATE_LIMIT_RPM", 0)
	v.SetDefault("MAX_BODY_BYTES", 1<<20)
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("DEBUG", false)

	// 根据环境加载对应的 .env 文件
	env := os.Getenv("ENVIRONMENT")
	switch env {
	case "production":
		loadEnvFile(v, ".env.production")
	default:
		loadEnvFile(v, ".env.local")
	}
	v.AutomaticEnv()

	cfg := &Config{
		Environment: v.GetString("ENVIRONMENT"),
		Port:        v.GetString("PORT"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		PrettyLog:   v.GetBool("PRETTY_LOG"),

		// Trim whitespace to avoid trailing spaces/newlines from env sources
		StoreBackend: strings.ToLower(strings.TrimSpace(v.GetString("STORE_BACKEND"))),
		PostgresDSN:  strings.TrimSpace(v.GetString("POSTGRES_DSN")),
		SQLitePath:   strings.TrimSpace(v.GetString("SQLITE_PATH")),
		RedisURL:     strings.TrimSpace(v.GetString("REDIS_URL")),
		RedisPrefix:  v.GetString("REDIS_PREFIX"),
		SupabaseURL:  strings.TrimSpace(v.GetString("SUPABASE_URL")),
		SupabaseKey:  strings.TrimSpace(v.GetString("SUPABASE_SERVICE_KEY")),
		DataDir:      strings.TrimSpace(v.GetString("DATA_DIR")),

		AuthMode:       strings.ToLower(strings.TrimSpace(v.GetString("AUTH_MODE"))),
		ClerkSecretKey: strings.TrimSpace(v.GetString("CLERK_SECRET_KEY")),
		AuthPublicKey:  strings.TrimSpace(v.GetString("AUTH_PUBLIC_KEY")),

		FrontendURL: strings.TrimSpace(v.GetString("FRONTEND_URL")),

		RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
		RateLimitRPM:   v.GetInt("RATE_LIMIT_RPM"),
		MaxBodyBytes:   v.GetInt64("MAX_BODY_BYTES"),
		MetricsEnabled: v.GetBool("METRICS_ENABLED"),
		Debug:          v.GetBool("DEBUG"),
	}

	cfg.AllowedOrigins = buildAllowedOrigins(cfg.FrontendURL, v.GetString("ALLOWED_ORIGINS"))

	// 生产环境关闭调试
	if cfg.IsProduction() {
		cfg.Debug = false
		cfg.PrettyLog = false
	}

	return cfg
}

// Cached config (initialized once per cold start)
var (
	cachedConfig *Config
	configOnce   sync.Once
)

// GetCached returns the process-wide cached Config.
func GetCached() *Config {
	configOnce.Do(func() {
		cachedConfig = LoadConfig()
	})
	return cachedConfig
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.ResolveStoreBackend() {
	case BackendMemory:
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for the postgres store")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis store")
		}
	case BackendSupabase:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY are required for the supabase store")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.AuthMode {
	case AuthModeUnverified:
	case AuthModeHS256:
		if c.ClerkSecretKey == "" {
			return fmt.Errorf("CLERK_SECRET_KEY is required when AUTH_MODE=hs256")
		}
	case AuthModeRS256:
		if c.AuthPublicKey == "" {
			return fmt.Errorf("AUTH_PUBLIC_KEY is required when AUTH_MODE=rs256")
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.AuthMode)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be > 0, got %v", c.RequestTimeout)
	}
	if c.RateLimitRPM < 0 {
		return fmt.Errorf("RATE_LIMIT_RPM must be >= 0, got %d", c.RateLimitRPM)
	}

	return nil
}

// ResolveStoreBackend 返回实际使用的存储后端
// 未显式配置时按 PostgreSQL > Supabase > SQLite > Redis > 内存 的顺序推断
func (c *Config) ResolveStoreBackend() string {
	if c.StoreBackend != "" {
		return c.StoreBackend
	}
	switch {
	case c.PostgresDSN != "":
		return BackendPostgres
	case c.SupabaseURL != "" && c.SupabaseKey != "":
		return BackendSupabase
	case c.SQLitePath != "":
		return BackendSQLite
	case c.RedisURL != "":
		return BackendRedis
	default:
		return BackendMemory
	}
}

// Warnings 返回需要在启动时提示的配置问题
func (c *Config) Warnings() []string {
	var warnings []string
	if c.AuthMode == AuthModeUnverified {
		warnings = append(warnings, "AUTH_MODE=unverified: bearer token signatures are NOT verified; the identity provider and transport are trusted")
	}
	if c.IsProduction() && c.ResolveStoreBackend() == BackendMemory {
		warnings = append(warnings, "production environment using the in-memory store; configure POSTGRES_DSN, SQLITE_PATH, REDIS_URL or SUPABASE_URL")
	}
	return warnings
}

// IsProduction 检查是否为生产环境
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment 检查是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// buildAllowedOrigins 合并前端地址与额外的来源列表，去重
func buildAllowedOrigins(frontendURL, extra string) []string {
	seen := make(map[string]bool)
	var origins []string
	add := func(o string) {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" || seen[o] {
			return
		}
		seen[o] = true
		origins = append(origins, o)
	}

	add(frontendURL)
	for _, o := range strings.Split(extra, ",") {
		add(o)
	}
	return origins
}

// loadEnvFile 加载 .env 文件；文件不存在时静默返回
func loadEnvFile(v *viper.Viper, filename string) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return
	}

	v.SetConfigFile(filename)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to read %s: %v\n", filename, err)
	}
}

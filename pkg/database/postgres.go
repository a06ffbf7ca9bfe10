package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"linker-backend/pkg/logger"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS documents (
	seq        BIGSERIAL PRIMARY KEY,
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	body       JSONB NOT NULL,
	UNIQUE (collection, id)
);
CREATE INDEX IF NOT EXISTS idx_documents_owner ON documents (collection, (body->>'user_id'));
`

var postgresDialect = sqlDialect{
	name:        "postgres",
	placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	field:       func(arg string) string { return "body->>(" + arg + "::text)" },
	fieldArg:    func(field string) string { return field },
	value:       func(arg string) string { return arg + "::jsonb" },
	merge:       func(arg string) string { return "body || " + arg + "::jsonb" },
	schema:      postgresSchema,
}

// NewPostgresStore 创建PostgreSQL文档存储
// links 与 categories 存在同一张 JSONB 表中，按 collection 区分
func NewPostgresStore(dsn string, log logger.Logger) (*SQLStore, error) {
	// Sanitize DSN to avoid stray CR/LF from env values
	dsn = strings.TrimSpace(dsn)
	// 依次尝试多种连接参数（无服务器环境下的 IPv6/SSL 问题）
	strategies := []string{
		addConnectionParams(dsn, "connect_timeout=10"),
		addConnectionParams(dsn, "sslmode=require&connect_timeout=10"),
		dsn, // 最后尝试原始DSN
	}

	var lastErr error
	for i, strategy := range strategies {
		log.Debug("trying postgres connection strategy", logger.Int("strategy", i+1))

		db, err := sql.Open("postgres", strategy)
		if err != nil {
			lastErr = err
			log.Warn("postgres strategy failed to open", logger.Int("strategy", i+1), logger.Error(err))
			continue
		}

		// 连接池参数，适合无服务器环境
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err = db.Ping(); err != nil {
			lastErr = err
			log.Warn("postgres strategy failed to ping", logger.Int("strategy", i+1), logger.Error(err))
			db.Close()
			continue
		}

		log.Info("postgres connection established", logger.Int("strategy", i+1))
		return &SQLStore{db: db, dialect: postgresDialect}, nil
	}

	return nil, fmt.Errorf("failed to connect to PostgreSQL with all strategies: %w", lastErr)
}

// addConnectionParams 添加连接参数到DSN；key=value 格式的DSN用空格拼接
func addConnectionParams(dsn, params string) string {
	if params == "" {
		return dsn
	}

	if !strings.Contains(dsn, "://") {
		return dsn + " " + strings.ReplaceAll(params, "&", " ")
	}

	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}
	return dsn + separator + params
}

package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	body       TEXT NOT NULL,
	UNIQUE (collection, id)
);
CREATE INDEX IF NOT EXISTS idx_documents_owner ON documents (collection, json_extract(body, '$.user_id'));
`

var sqliteDialect = sqlDialect{
	name:        "sqlite",
	placeholder: func(int) string { return "?" },
	field:       func(arg string) string { return "json_extract(body, " + arg + ")" },
	fieldArg:    func(field string) string { return "$." + field },
	value:       func(arg string) string { return "json(" + arg + ")" },
	// json_patch 按 RFC 7396 合并；值为 null 的字段会被移除，读取时等同于 null
	merge:  func(arg string) string { return "json_patch(body, " + arg + ")" },
	schema: sqliteSchema,
}

// NewSQLiteStore 创建SQLite文档存储；path 可以是文件路径或 ":memory:"
func NewSQLiteStore(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// SQLite 单写者；:memory: 在多个连接之间不共享数据
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	return &SQLStore{db: db, dialect: sqliteDialect}, nil
}

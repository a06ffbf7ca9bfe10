package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// sqlDialect 描述 PostgreSQL 与 SQLite 在 JSON 文档表上的语法差异
type sqlDialect struct {
	name string
	// placeholder 第 n 个参数的占位符（从1开始）
	placeholder func(n int) string
	// field 读取 body 中某字段文本值的表达式；arg 为字段参数的占位符
	field func(arg string) string
	// fieldArg 字段名作为参数传入时的取值
	fieldArg func(field string) string
	// value 写入 body 的JSON参数表达式
	value func(arg string) string
	// merge 将 patch 合并进 body 的表达式
	merge func(arg string) string
	schema string
}

// SQLStore 基于单表 documents(seq, collection, id, body) 的文档存储
// seq 保证自然顺序即插入顺序
type SQLStore struct {
	db      *sql.DB
	dialect sqlDialect
}

func (s *SQLStore) Name() string { return s.dialect.name }

func (s *SQLStore) Collection(name string) Collection {
	return &sqlCollection{store: s, name: name}
}

// HealthCheck 健康检查
func (s *SQLStore) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close 关闭连接
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Migrate 创建 documents 表及索引
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.schema); err != nil {
		return fmt.Errorf("failed to migrate %s schema: %w", s.dialect.name, err)
	}
	return nil
}

type sqlCollection struct {
	store *SQLStore
	name  string
}

// where 生成 "collection = ? AND ..." 条件及参数；args 的占位符从 offset+1 开始编号
func (c *sqlCollection) where(filter Filter, offset int) (string, []interface{}) {
	d := c.store.dialect
	args := []interface{}{c.name}
	n := offset + 1
	clauses := []string{"collection = " + d.placeholder(n)}

	for _, field := range filter.sortedKeys() {
		if field == FieldID {
			n++
			clauses = append(clauses, "id = "+d.placeholder(n))
			args = append(args, filter[field])
			continue
		}
		fieldPH := d.placeholder(n + 1)
		valuePH := d.placeholder(n + 2)
		n += 2
		clauses = append(clauses, d.field(fieldPH)+" = "+valuePH)
		args = append(args, d.fieldArg(field), filter[field])
	}
	return strings.Join(clauses, " AND "), args
}

func (c *sqlCollection) check() error {
	if !isKnownCollection(c.name) {
		return fmt.Errorf("%w: %s", ErrUnknownCollection, c.name)
	}
	return nil
}

func (c *sqlCollection) InsertOne(ctx context.Context, doc Document) (string, error) {
	if err := c.check(); err != nil {
		return "", err
	}

	body, err := json.Marshal(doc.withoutID())
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %w", err)
	}

	d := c.store.dialect
	id := uuid.New().String()
	query := fmt.Sprintf(`INSERT INTO documents (collection, id, body) VALUES (%s, %s, %s)`,
		d.placeholder(1), d.placeholder(2), d.value(d.placeholder(3)))

	if _, err := c.store.db.ExecContext(ctx, query, c.name, id, string(body)); err != nil {
		return "", fmt.Errorf("failed to insert into %s: %w", c.name, err)
	}
	return id, nil
}

func (c *sqlCollection) Find(ctx context.Context, filter Filter, limit int) ([]Document, error) {
	if err := c.check(); err != nil {
		return nil, err
	}

	where, args := c.where(filter, 0)
	query := "SELECT id, body FROM documents WHERE " + where + " ORDER BY seq"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := c.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", c.name, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var id string
		var body []byte
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", c.name, err)
		}
		doc := Document{}
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode %s document %s: %w", c.name, id, err)
		}
		doc[FieldID] = id
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", c.name, err)
	}
	return docs, nil
}

func (c *sqlCollection) UpdateOne(ctx context.Context, filter Filter, set Document) (UpdateResult, error) {
	return c.update(ctx, filter, set, true)
}

func (c *sqlCollection) UpdateMany(ctx context.Context, filter Filter, set Document) (UpdateResult, error) {
	return c.update(ctx, filter, set, false)
}

// update 的 Modified 等于 Matched：SQL 后端不区分值是否实际变化
func (c *sqlCollection) update(ctx context.Context, filter Filter, set Document, one bool) (UpdateResult, error) {
	var result UpdateResult
	if err := c.check(); err != nil {
		return result, err
	}

	patch, err := json.Marshal(set.withoutID())
	if err != nil {
		return result, fmt.Errorf("failed to marshal update: %w", err)
	}

	d := c.store.dialect
	where, args := c.where(filter, 1)
	query := "UPDATE documents SET body = " + d.merge(d.placeholder(1)) + " WHERE "
	if one {
		query += "seq = (SELECT seq FROM documents WHERE " + where + " ORDER BY seq LIMIT 1)"
	} else {
		query += where
	}
	args = append([]interface{}{string(patch)}, args...)

	res, err := c.store.db.ExecContext(ctx, query, args...)
	if err != nil {
		return result, fmt.Errorf("failed to update %s: %w", c.name, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return result, fmt.Errorf("failed to get rows affected: %w", err)
	}

	result.Matched = affected
	result.Modified = affected
	return result, nil
}

func (c *sqlCollection) DeleteOne(ctx context.Context, filter Filter) (int64, error) {
	if err := c.check(); err != nil {
		return 0, err
	}

	where, args := c.where(filter, 0)
	query := "DELETE FROM documents WHERE seq = (SELECT seq FROM documents WHERE " + where + " ORDER BY seq LIMIT 1)"

	res, err := c.store.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", c.name, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected, nil
}

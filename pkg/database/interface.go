package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// 集合名称
const (
	CollectionLinks      = "links"
	CollectionCategories = "categories"
)

// 文档中的保留字段
const (
	FieldID    = "_id"
	FieldOwner = "user_id"
)

// ErrUnknownCollection 访问了未定义的集合
var ErrUnknownCollection = errors.New("unknown collection")

// Document 一条文档记录（字段名 -> 标量值）
type Document map[string]interface{}

// Filter 等值条件的合取；空 Filter 匹配所有文档
type Filter map[string]string

// UpdateResult 更新结果
type UpdateResult struct {
	Matched  int64
	Modified int64
}

// Collection 单个集合的访问接口
type Collection interface {
	// InsertOne 插入文档并返回存储分配的ID；文档中已有的 _id 会被忽略
	InsertOne(ctx context.Context, doc Document) (string, error)
	// Find 按插入顺序返回匹配的文档，最多 limit 条（limit<=0 表示不限制）
	Find(ctx context.Context, filter Filter, limit int) ([]Document, error)
	// UpdateOne 对第一条匹配文档执行字段覆盖（$set 语义）
	UpdateOne(ctx context.Context, filter Filter, set Document) (UpdateResult, error)
	// UpdateMany 对所有匹配文档执行字段覆盖
	UpdateMany(ctx context.Context, filter Filter, set Document) (UpdateResult, error)
	// DeleteOne 删除第一条匹配文档，返回删除数量
	DeleteOne(ctx context.Context, filter Filter) (int64, error)
}

// Store 文档存储网关：暴露 links 与 categories 两个集合
// 不提供跨集合事务
type Store interface {
	Name() string
	Collection(name string) Collection
	HealthCheck(ctx context.Context) error
	Close() error
}

// Migrator 需要初始化表结构的存储实现
type Migrator interface {
	Migrate(ctx context.Context) error
}

// Collections 返回所有已知集合
func Collections() []string {
	return []string{CollectionLinks, CollectionCategories}
}

func isKnownCollection(name string) bool {
	return name == CollectionLinks || name == CollectionCategories
}

// Matches 判断文档是否满足所有等值条件
func (f Filter) Matches(doc Document) bool {
	for field, want := range f {
		got, ok := doc[field].(string)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// sortedKeys 返回按字母排序的字段名，保证生成的查询稳定
func (f Filter) sortedKeys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String 用于日志
func (f Filter) String() string {
	s := "{"
	for i, k := range f.sortedKeys() {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s=%q", k, f[k])
	}
	return s + "}"
}

// Clone 浅拷贝文档
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// withoutID 去掉 _id 字段后的拷贝
func (d Document) withoutID() Document {
	out := d.Clone()
	delete(out, FieldID)
	return out
}

// apply 把 set 中的字段写入文档，返回是否有字段发生变化
func (d Document) apply(set Document) bool {
	changed := false
	for k, v := range set {
		if k == FieldID {
			continue
		}
		if old, ok := d[k]; !ok || old != v {
			changed = true
		}
		d[k] = v
	}
	return changed
}

// String 读取字符串字段，不存在或为 null 时返回空串
func (d Document) String(field string) string {
	s, _ := d[field].(string)
	return s
}

// OptionalString 读取可空的字符串字段
func (d Document) OptionalString(field string) *string {
	s, ok := d[field].(string)
	if !ok {
		return nil
	}
	return &s
}

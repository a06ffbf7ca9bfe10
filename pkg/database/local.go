package database

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// LocalStore 本地存储实现：内存中的有序文档列表
// dataDir 非空时，每次写操作后把集合落盘为 <dataDir>/<collection>.json
type LocalStore struct {
	dataDir     string
	mu          sync.RWMutex
	collections map[string][]Document
}

// NewLocalStore 创建本地存储实例；dataDir 为空表示纯内存
func NewLocalStore(dataDir string) (*LocalStore, error) {
	s := &LocalStore{
		dataDir:     dataDir,
		collections: make(map[string][]Document),
	}

	if dataDir == "" {
		return s, nil
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	for _, name := range Collections() {
		docs, err := s.loadCollection(name)
		if err != nil {
			return nil, err
		}
		s.collections[name] = docs
	}
	return s, nil
}

// Name 返回后端名称
func (s *LocalStore) Name() string { return "memory" }

// Collection 返回集合访问器
func (s *LocalStore) Collection(name string) Collection {
	return &localCollection{store: s, name: name}
}

// HealthCheck 健康检查
func (s *LocalStore) HealthCheck(ctx context.Context) error {
	if s.dataDir == "" {
		return nil
	}
	// 检查数据目录是否可访问
	if _, err := os.Stat(s.dataDir); err != nil {
		return fmt.Errorf("data directory not accessible: %w", err)
	}
	return nil
}

// Volatile 未配置数据目录时数据只在内存中
func (s *LocalStore) Volatile() bool { return s.dataDir == "" }

// Close 本地存储无需关闭
func (s *LocalStore) Close() error { return nil }

func (s *LocalStore) filePath(collection string) string {
	return filepath.Join(s.dataDir, collection+".json")
}

func (s *LocalStore) loadCollection(collection string) ([]Document, error) {
	data, err := os.ReadFile(s.filePath(collection))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", collection, err)
	}

	var docs []Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", collection, err)
	}
	return docs, nil
}

// persist 落盘，调用方必须持有写锁
func (s *LocalStore) persist(collection string) error {
	if s.dataDir == "" {
		return nil
	}

	data, err := json.MarshalIndent(s.collections[collection], "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", collection, err)
	}

	// 先写临时文件再重命名，避免中途失败留下半个文件
	tmp := s.filePath(collection) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", collection, err)
	}
	return os.Rename(tmp, s.filePath(collection))
}

type localCollection struct {
	store *LocalStore
	name  string
}

func (c *localCollection) check(ctx context.Context) error {
	if !isKnownCollection(c.name) {
		return fmt.Errorf("%w: %s", ErrUnknownCollection, c.name)
	}
	return ctx.Err()
}

func (c *localCollection) InsertOne(ctx context.Context, doc Document) (string, error) {
	if err := c.check(ctx); err != nil {
		return "", err
	}

	stored := doc.withoutID()
	id := uuid.New().String()
	stored[FieldID] = id

	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[c.name] = append(s.collections[c.name], stored)
	if err := s.persist(c.name); err != nil {
		return "", err
	}
	return id, nil
}

func (c *localCollection) Find(ctx context.Context, filter Filter, limit int) ([]Document, error) {
	if err := c.check(ctx); err != nil {
		return nil, err
	}

	s := c.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Document
	for _, doc := range s.collections[c.name] {
		if limit > 0 && len(out) >= limit {
			break
		}
		if filter.Matches(doc) {
			out = append(out, doc.Clone())
		}
	}
	return out, nil
}

func (c *localCollection) UpdateOne(ctx context.Context, filter Filter, set Document) (UpdateResult, error) {
	return c.update(ctx, filter, set, 1)
}

func (c *localCollection) UpdateMany(ctx context.Context, filter Filter, set Document) (UpdateResult, error) {
	return c.update(ctx, filter, set, 0)
}

func (c *localCollection) update(ctx context.Context, filter Filter, set Document, max int) (UpdateResult, error) {
	var result UpdateResult
	if err := c.check(ctx); err != nil {
		return result, err
	}

	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range s.collections[c.name] {
		if max > 0 && result.Matched >= int64(max) {
			break
		}
		if !filter.Matches(doc) {
			continue
		}
		result.Matched++
		if doc.apply(set) {
			result.Modified++
		}
	}

	if result.Modified > 0 {
		if err := s.persist(c.name); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (c *localCollection) DeleteOne(ctx context.Context, filter Filter) (int64, error) {
	if err := c.check(ctx); err != nil {
		return 0, err
	}

	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collections[c.name]
	for i, doc := range docs {
		if !filter.Matches(doc) {
			continue
		}
		s.collections[c.name] = append(docs[:i:i], docs[i+1:]...)
		if err := s.persist(c.name); err != nil {
			return 0, err
		}
		return 1, nil
	}
	return 0, nil
}

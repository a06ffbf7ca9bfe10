package database

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SupabaseSchema 在 Supabase SQL 编辑器中执行的建表语句
// 每个集合一张表；id 为文本以便任意ID过滤都不会触发类型错误
const SupabaseSchema = `
CREATE TABLE IF NOT EXISTS links (
	seq         BIGSERIAL,
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	title       TEXT,
	url         TEXT,
	category    TEXT,
	project     TEXT,
	description TEXT,
	created_at  TEXT
);
CREATE INDEX IF NOT EXISTS idx_links_user ON links (user_id, category);
CREATE TABLE IF NOT EXISTS categories (
	seq     BIGSERIAL,
	id      TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	name    TEXT,
	icon    TEXT,
	color   TEXT
);
CREATE INDEX IF NOT EXISTS idx_categories_user ON categories (user_id);
`

// SupabaseStore 通过 PostgREST 接口访问 Supabase 的文档存储
type SupabaseStore struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewSupabaseStore 创建Supabase存储实例
func NewSupabaseStore(baseURL, key string) *SupabaseStore {
	// 确保URL格式正确
	if !strings.HasPrefix(baseURL, "http") {
		baseURL = "https://" + baseURL
	}

	return &SupabaseStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  key,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (s *SupabaseStore) Name() string { return "supabase" }

func (s *SupabaseStore) Collection(name string) Collection {
	return &supabaseCollection{store: s, name: name}
}

// HealthCheck 请求 REST 根路径
func (s *SupabaseStore) HealthCheck(ctx context.Context) error {
	_, _, err := s.makeRequest(ctx, http.MethodGet, "/", nil, "")
	return err
}

// Close 无长连接需要关闭
func (s *SupabaseStore) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}

// makeRequest 发送HTTP请求到 PostgREST，返回响应体与状态码
func (s *SupabaseStore) makeRequest(ctx context.Context, method, endpoint string, body interface{}, prefer string) ([]byte, int, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+"/rest/v1"+endpoint, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, resp.StatusCode, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
	}
	return respBody, resp.StatusCode, nil
}

type supabaseCollection struct {
	store *SupabaseStore
	name  string
}

func (c *supabaseCollection) check() error {
	if !isKnownCollection(c.name) {
		return fmt.Errorf("%w: %s", ErrUnknownCollection, c.name)
	}
	return nil
}

// postgrestColumn 文档字段到表列的映射
func postgrestColumn(field string) string {
	if field == FieldID {
		return "id"
	}
	return field
}

// postgrestQuery 把 Filter 编码为 PostgREST 的 eq 过滤参数
func postgrestQuery(filter Filter) url.Values {
	q := url.Values{}
	for _, field := range filter.sortedKeys() {
		q.Set(postgrestColumn(field), "eq."+filter[field])
	}
	return q
}

// toRow 文档转表行
func toRow(doc Document) map[string]interface{} {
	row := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		row[postgrestColumn(k)] = v
	}
	return row
}

// fromRow 表行转文档，去掉内部列
func fromRow(row map[string]interface{}) Document {
	doc := make(Document, len(row))
	for k, v := range row {
		switch k {
		case "seq":
			continue
		case "id":
			doc[FieldID] = v
		default:
			doc[k] = v
		}
	}
	return doc
}

func (c *supabaseCollection) decodeRows(data []byte) ([]Document, error) {
	var rows []map[string]interface{}
	if len(data) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode %s rows: %w", c.name, err)
	}
	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, fromRow(row))
	}
	return docs, nil
}

func (c *supabaseCollection) InsertOne(ctx context.Context, doc Document) (string, error) {
	if err := c.check(); err != nil {
		return "", err
	}

	row := toRow(doc.withoutID())
	id := uuid.New().String()
	row["id"] = id
	if _, _, err := c.store.makeRequest(ctx, http.MethodPost, "/"+c.name, row, "return=minimal"); err != nil {
		return "", fmt.Errorf("failed to insert into %s: %w", c.name, err)
	}
	return id, nil
}

func (c *supabaseCollection) Find(ctx context.Context, filter Filter, limit int) ([]Document, error) {
	if err := c.check(); err != nil {
		return nil, err
	}

	q := postgrestQuery(filter)
	q.Set("select", "*")
	q.Set("order", "seq.asc")
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}

	data, _, err := c.store.makeRequest(ctx, http.MethodGet, "/"+c.name+"?"+q.Encode(), nil, "")
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", c.name, err)
	}
	return c.decodeRows(data)
}

// narrowToFirst 把过滤条件收窄到第一条匹配文档的ID；没有匹配时返回 false
func (c *supabaseCollection) narrowToFirst(ctx context.Context, filter Filter) (Filter, bool, error) {
	docs, err := c.Find(ctx, filter, 1)
	if err != nil || len(docs) == 0 {
		return nil, false, err
	}
	narrowed := Filter{}
	for k, v := range filter {
		narrowed[k] = v
	}
	narrowed[FieldID] = docs[0].String(FieldID)
	return narrowed, true, nil
}

func (c *supabaseCollection) UpdateOne(ctx context.Context, filter Filter, set Document) (UpdateResult, error) {
	if err := c.check(); err != nil {
		return UpdateResult{}, err
	}
	narrowed, ok, err := c.narrowToFirst(ctx, filter)
	if err != nil || !ok {
		return UpdateResult{}, err
	}
	return c.patch(ctx, narrowed, set)
}

func (c *supabaseCollection) UpdateMany(ctx context.Context, filter Filter, set Document) (UpdateResult, error) {
	if err := c.check(); err != nil {
		return UpdateResult{}, err
	}
	return c.patch(ctx, filter, set)
}

func (c *supabaseCollection) patch(ctx context.Context, filter Filter, set Document) (UpdateResult, error) {
	endpoint := "/" + c.name + "?" + postgrestQuery(filter).Encode()
	data, _, err := c.store.makeRequest(ctx, http.MethodPatch, endpoint, toRow(set.withoutID()), "return=representation")
	if err != nil {
		return UpdateResult{}, fmt.Errorf("failed to update %s: %w", c.name, err)
	}
	docs, err := c.decodeRows(data)
	if err != nil {
		return UpdateResult{}, err
	}
	n := int64(len(docs))
	return UpdateResult{Matched: n, Modified: n}, nil
}

func (c *supabaseCollection) DeleteOne(ctx context.Context, filter Filter) (int64, error) {
	if err := c.check(); err != nil {
		return 0, err
	}
	narrowed, ok, err := c.narrowToFirst(ctx, filter)
	if err != nil || !ok {
		return 0, err
	}

	endpoint := "/" + c.name + "?" + postgrestQuery(narrowed).Encode()
	data, _, err := c.store.makeRequest(ctx, http.MethodDelete, endpoint, nil, "return=representation")
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", c.name, err)
	}
	docs, err := c.decodeRows(data)
	if err != nil {
		return 0, err
	}
	return int64(len(docs)), nil
}

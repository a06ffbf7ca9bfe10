package database

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePostgREST 内存中的 PostgREST 子集：eq 过滤、order=seq.asc、limit、return=representation
type fakePostgREST struct {
	mu     sync.Mutex
	seq    int
	tables map[string][]map[string]interface{}
	apiKey string
	calls  []string
}

func newFakePostgREST(apiKey string) *fakePostgREST {
	return &fakePostgREST{
		tables: map[string][]map[string]interface{}{"links": nil, "categories": nil},
		apiKey: apiKey,
	}
}

func (f *fakePostgREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	if r.Header.Get("apikey") != f.apiKey || r.Header.Get("Authorization") != "Bearer "+f.apiKey {
		http.Error(w, `{"message":"invalid api key"}`, http.StatusUnauthorized)
		return
	}

	table := strings.TrimPrefix(r.URL.Path, "/rest/v1/")
	if table == "" {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
		return
	}
	rows, ok := f.tables[table]
	if !ok {
		http.Error(w, `{"message":"relation does not exist"}`, http.StatusNotFound)
		return
	}

	filters := map[string]string{}
	limit := 0
	for key, values := range r.URL.Query() {
		switch key {
		case "select", "order":
		case "limit":
			limit, _ = strconv.Atoi(values[0])
		default:
			filters[key] = strings.TrimPrefix(values[0], "eq.")
		}
	}
	matches := func(row map[string]interface{}) bool {
		for k, v := range filters {
			if s, ok := row[k].(string); !ok || s != v {
				return false
			}
		}
		return true
	}

	var out []map[string]interface{}
	switch r.Method {
	case http.MethodPost:
		var row map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.seq++
		row["seq"] = f.seq
		f.tables[table] = append(rows, row)
		w.WriteHeader(http.StatusCreated)
		return
	case http.MethodGet:
		for _, row := range rows {
			if limit > 0 && len(out) >= limit {
				break
			}
			if matches(row) {
				out = append(out, row)
			}
		}
	case http.MethodPatch:
		var patch map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, row := range rows {
			if !matches(row) {
				continue
			}
			for k, v := range patch {
				row[k] = v
			}
			out = append(out, row)
		}
	case http.MethodDelete:
		var kept []map[string]interface{}
		for _, row := range rows {
			if matches(row) {
				out = append(out, row)
				continue
			}
			kept = append(kept, row)
		}
		f.tables[table] = kept
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if out == nil {
		out = []map[string]interface{}{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func newFakeSupabaseStore(t *testing.T) (*SupabaseStore, *fakePostgREST) {
	fake := newFakePostgREST("service-key")
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return NewSupabaseStore(srv.URL, "service-key"), fake
}

func TestSupabaseStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		store, _ := newFakeSupabaseStore(t)
		return store
	})
}

func TestSupabaseStoreUsesIDColumn(t *testing.T) {
	ctx := context.Background()
	store, fake := newFakeSupabaseStore(t)

	id, err := store.Collection(CollectionCategories).InsertOne(ctx, Document{FieldOwner: "u1", "name": "work"})
	require.NoError(t, err)

	fake.mu.Lock()
	row := fake.tables["categories"][0]
	fake.mu.Unlock()
	assert.Equal(t, id, row["id"])
	assert.NotContains(t, row, FieldID)

	docs, err := store.Collection(CollectionCategories).Find(ctx, Filter{FieldID: id}, 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, id, docs[0].String(FieldID))
	assert.NotContains(t, docs[0], "seq")
	assert.NotContains(t, docs[0], "id")
}

func TestSupabaseStoreRejectedKey(t *testing.T) {
	fake := newFakePostgREST("service-key")
	srv := httptest.NewServer(fake)
	defer srv.Close()

	store := NewSupabaseStore(srv.URL, "wrong-key")
	err := store.HealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")

	_, err = store.Collection(CollectionLinks).Find(context.Background(), Filter{}, 1)
	assert.ErrorContains(t, err, "failed to query links")
}

func TestNewSupabaseStoreNormalizesURL(t *testing.T) {
	store := NewSupabaseStore("project.supabase.co/", "k")
	assert.Equal(t, "https://project.supabase.co", store.baseURL)
}

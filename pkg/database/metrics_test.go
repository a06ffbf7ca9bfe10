package database

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue 从注册表中读取带标签的计数器值
func counterValue(t *testing.T, reg *prometheus.Registry, name, collection, op string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["collection"] == collection && labels["op"] == op {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestStoreMetrics(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	metrics := NewStoreMetrics(reg)

	local, err := NewLocalStore("")
	require.NoError(t, err)
	store := WithMetrics(local, metrics)
	assert.Equal(t, "memory", store.Name())

	links := store.Collection(CollectionLinks)
	id, err := links.InsertOne(ctx, Document{FieldOwner: "u1"})
	require.NoError(t, err)
	_, err = links.Find(ctx, Filter{FieldOwner: "u1"}, 10)
	require.NoError(t, err)
	_, err = links.Find(ctx, Filter{FieldOwner: "u1"}, 10)
	require.NoError(t, err)
	_, err = links.UpdateOne(ctx, Filter{FieldID: id}, Document{"title": "x"})
	require.NoError(t, err)
	_, err = links.UpdateMany(ctx, Filter{FieldOwner: "u1"}, Document{"title": "y"})
	require.NoError(t, err)
	_, err = links.DeleteOne(ctx, Filter{FieldID: id})
	require.NoError(t, err)
	_, err = store.Collection("bogus").Find(ctx, Filter{}, 1)
	require.Error(t, err)

	assert.Equal(t, 1.0, counterValue(t, reg, "linker_store_call_total", "links", "insert_one"))
	assert.Equal(t, 2.0, counterValue(t, reg, "linker_store_call_total", "links", "find"))
	assert.Equal(t, 1.0, counterValue(t, reg, "linker_store_call_total", "links", "update_one"))
	assert.Equal(t, 1.0, counterValue(t, reg, "linker_store_call_total", "links", "update_many"))
	assert.Equal(t, 1.0, counterValue(t, reg, "linker_store_call_total", "links", "delete_one"))
	assert.Equal(t, 0.0, counterValue(t, reg, "linker_store_error_total", "links", "find"))
	assert.Equal(t, 1.0, counterValue(t, reg, "linker_store_error_total", "bogus", "find"))
}

func TestDefaultStoreMetricsIsSingleton(t *testing.T) {
	assert.Same(t, DefaultStoreMetrics(), DefaultStoreMetrics())
}

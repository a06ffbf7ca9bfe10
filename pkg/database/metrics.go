package database

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics 文档存储的 RED 指标（调用数、错误数、耗时）
type StoreMetrics struct {
	reqs *prometheus.CounterVec
	errs *prometheus.CounterVec
	durs *prometheus.HistogramVec
}

// NewStoreMetrics 创建并注册存储指标
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	const namespace = "linker"
	const subsystem = "store"

	m := &StoreMetrics{
		reqs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "call_total",
			Help:      "Number of calls to the document store",
		}, []string{"collection", "op"}),
		errs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "error_total",
			Help:      "Number of errors returned by the document store",
		}, []string{"collection", "op"}),
		durs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "duration_seconds",
			Help:      "Duration of document store calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"collection", "op"}),
	}

	reg.MustRegister(m.reqs, m.errs, m.durs)
	return m
}

var (
	defaultMetrics     *StoreMetrics
	defaultMetricsOnce sync.Once
)

// DefaultStoreMetrics 注册到 prometheus 默认注册表的单例
func DefaultStoreMetrics() *StoreMetrics {
	defaultMetricsOnce.Do(func() {
		defaultMetrics = NewStoreMetrics(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// observe 返回在调用结束时记录指标的函数
func (m *StoreMetrics) observe(collection, op string) func(error) error {
	start := time.Now()
	return func(err error) error {
		labels := prometheus.Labels{"collection": collection, "op": op}
		m.reqs.With(labels).Inc()
		if err != nil {
			m.errs.With(labels).Inc()
		}
		m.durs.With(labels).Observe(time.Since(start).Seconds())
		return err
	}
}

// WithMetrics 给存储加上指标中间层
func WithMetrics(store Store, m *StoreMetrics) Store {
	return &metricsStore{Store: store, metrics: m}
}

type metricsStore struct {
	Store
	metrics *StoreMetrics
}

func (s *metricsStore) Collection(name string) Collection {
	return &metricsCollection{next: s.Store.Collection(name), name: name, metrics: s.metrics}
}

type metricsCollection struct {
	next    Collection
	name    string
	metrics *StoreMetrics
}

func (c *metricsCollection) InsertOne(ctx context.Context, doc Document) (string, error) {
	done := c.metrics.observe(c.name, "insert_one")
	id, err := c.next.InsertOne(ctx, doc)
	return id, done(err)
}

func (c *metricsCollection) Find(ctx context.Context, filter Filter, limit int) ([]Document, error) {
	done := c.metrics.observe(c.name, "find")
	docs, err := c.next.Find(ctx, filter, limit)
	return docs, done(err)
}

func (c *metricsCollection) UpdateOne(ctx context.Context, filter Filter, set Document) (UpdateResult, error) {
	done := c.metrics.observe(c.name, "update_one")
	res, err := c.next.UpdateOne(ctx, filter, set)
	return res, done(err)
}

func (c *metricsCollection) UpdateMany(ctx context.Context, filter Filter, set Document) (UpdateResult, error) {
	done := c.metrics.observe(c.name, "update_many")
	res, err := c.next.UpdateMany(ctx, filter, set)
	return res, done(err)
}

func (c *metricsCollection) DeleteOne(ctx context.Context, filter Filter) (int64, error) {
	done := c.metrics.observe(c.name, "delete_one")
	n, err := c.next.DeleteOne(ctx, filter)
	return n, done(err)
}

package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus implements every hook interface on top of Prometheus collectors.
type Prometheus struct {
	layouts        *prometheus.CounterVec
	layoutDuration *prometheus.HistogramVec
	layoutNodes    *prometheus.GaugeVec
	published      prometheus.Counter
	stale          prometheus.Counter
	lastSeq        prometheus.Gauge

	loads        *prometheus.CounterVec
	loadDuration *prometheus.HistogramVec

	cache *prometheus.CounterVec

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

var (
	_ LayoutHooks = (*Prometheus)(nil)
	_ SourceHooks = (*Prometheus)(nil)
	_ CacheHooks  = (*Prometheus)(nil)
	_ HTTPHooks   = (*Prometheus)(nil)
)

// NewPrometheus creates the collectors and registers them with reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		layouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "worldloom",
			Name:      "layouts_total",
			Help:      "Layout computations by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		layoutDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "worldloom",
			Name:      "layout_duration_seconds",
			Help:      "Layout computation latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"strategy"}),
		layoutNodes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "worldloom",
			Name:      "layout_nodes",
			Help:      "Node count of the most recent layout per strategy.",
		}, []string{"strategy"}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "worldloom",
			Name:      "snapshots_published_total",
			Help:      "Snapshots published by the coordinator.",
		}),
		stale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "worldloom",
			Name:      "snapshots_stale_total",
			Help:      "Snapshots discarded because a later request had already published.",
		}),
		lastSeq: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "worldloom",
			Name:      "snapshot_sequence",
			Help:      "Sequence number of the published snapshot.",
		}),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "worldloom",
			Name:      "world_loads_total",
			Help:      "World loads by source kind and outcome.",
		}, []string{"kind", "outcome"}),
		loadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "worldloom",
			Name:      "world_load_duration_seconds",
			Help:      "World load latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "worldloom",
			Name:      "cache_events_total",
			Help:      "Cache hits, misses and writes by key type.",
		}, []string{"key_type", "event"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "worldloom",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "worldloom",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		p.layouts, p.layoutDuration, p.layoutNodes,
		p.published, p.stale, p.lastSeq,
		p.loads, p.loadDuration,
		p.cache,
		p.requests, p.requestDuration,
	)
	return p
}

// Install registers p as the global layout, source, cache and HTTP hooks.
func (p *Prometheus) Install() {
	SetLayoutHooks(p)
	SetSourceHooks(p)
	SetCacheHooks(p)
	SetHTTPHooks(p)
}

func (p *Prometheus) OnLayoutStart(context.Context, string, int) {}

func (p *Prometheus) OnLayoutComplete(_ context.Context, strategy string, nodeCount, _ int, duration time.Duration, err error) {
	p.layouts.WithLabelValues(strategy, outcome(err)).Inc()
	if err != nil {
		return
	}
	p.layoutDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	p.layoutNodes.WithLabelValues(strategy).Set(float64(nodeCount))
}

func (p *Prometheus) OnSnapshotPublished(_ context.Context, seq uint64) {
	p.published.Inc()
	p.lastSeq.Set(float64(seq))
}

func (p *Prometheus) OnSnapshotStale(context.Context, uint64) {
	p.stale.Inc()
}

func (p *Prometheus) OnLoadStart(context.Context, string, string) {}

func (p *Prometheus) OnLoadComplete(_ context.Context, kind, _ string, _, _ int, duration time.Duration, err error) {
	p.loads.WithLabelValues(kind, outcome(err)).Inc()
	p.loadDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.cache.WithLabelValues(keyType, "hit").Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.cache.WithLabelValues(keyType, "miss").Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, _ int) {
	p.cache.WithLabelValues(keyType, "set").Inc()
}

func (p *Prometheus) OnRequest(context.Context, string, string) {}

func (p *Prometheus) OnResponse(_ context.Context, method, route string, statusCode int, duration time.Duration) {
	p.requests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	p.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mindweb"

// PromHooks exports graph, cache and HTTP events as Prometheus metrics.
type PromHooks struct {
	toggles   *prometheus.CounterVec
	mutations *prometheus.CounterVec
	imports   *prometheus.CounterVec
	importDur prometheus.Histogram
	nodes     prometheus.Gauge
	edges     prometheus.Gauge
	exports   prometheus.Counter

	cacheOps   *prometheus.CounterVec
	cacheBytes prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewPromHooks creates the metrics and registers them with reg. It returns
// an error if any metric is already registered there.
func NewPromHooks(reg prometheus.Registerer) (*PromHooks, error) {
	h := &PromHooks{
		toggles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "toggles_total",
				Help:      "Total number of collapse and expand operations",
			},
			[]string{"direction"},
		),
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mutations_total",
				Help:      "Total number of graph mutations",
			},
			[]string{"op", "status"},
		),
		imports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "imports_total",
				Help:      "Total number of snapshot imports",
			},
			[]string{"status"},
		),
		importDur: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "import_duration_seconds",
				Help:      "Snapshot import duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		nodes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "graph_nodes",
				Help:      "Number of nodes after the last import or export",
			},
		),
		edges: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "graph_edges",
				Help:      "Number of edges after the last import or export",
			},
		),
		exports: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exports_total",
				Help:      "Total number of snapshot exports",
			},
		),
		cacheOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_operations_total",
				Help:      "Total number of render cache lookups and writes",
			},
			[]string{"key_type", "result"},
		),
		cacheBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_written_bytes_total",
				Help:      "Total bytes written to the render cache",
			},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	for _, c := range []prometheus.Collector{
		h.toggles, h.mutations, h.imports, h.importDur, h.nodes, h.edges, h.exports,
		h.cacheOps, h.cacheBytes, h.httpRequests, h.httpDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *PromHooks) OnToggle(_ context.Context, _ int, collapsed bool) {
	dir := "expand"
	if collapsed {
		dir = "collapse"
	}
	h.toggles.WithLabelValues(dir).Inc()
}

func (h *PromHooks) OnMutation(_ context.Context, op string, err error) {
	h.mutations.WithLabelValues(op, status(err)).Inc()
}

func (h *PromHooks) OnImport(_ context.Context, nodes, edges int, d time.Duration, err error) {
	h.imports.WithLabelValues(status(err)).Inc()
	if err != nil {
		return
	}
	h.importDur.Observe(d.Seconds())
	h.nodes.Set(float64(nodes))
	h.edges.Set(float64(edges))
}

func (h *PromHooks) OnExport(_ context.Context, nodes, edges int) {
	h.exports.Inc()
	h.nodes.Set(float64(nodes))
	h.edges.Set(float64(edges))
}

func (h *PromHooks) OnCacheHit(_ context.Context, keyType string) {
	h.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (h *PromHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (h *PromHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.cacheOps.WithLabelValues(keyType, "set").Inc()
	h.cacheBytes.Add(float64(size))
}

func (h *PromHooks) OnResponse(_ context.Context, method, route string, code int, d time.Duration) {
	h.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	h.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

var (
	_ GraphHooks = (*PromHooks)(nil)
	_ CacheHooks = (*PromHooks)(nil)
	_ HTTPHooks  = (*PromHooks)(nil)
)

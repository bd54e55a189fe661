// Package promhooks implements the observability hooks with Prometheus metrics.
//
// Register one [Metrics] value for every hook category at startup and expose
// the registry on /metrics:
//
//	reg := prometheus.NewRegistry()
//	m := promhooks.New(reg)
//	observability.SetPipelineHooks(m)
//	observability.SetCacheHooks(m)
//	observability.SetHTTPHooks(m)
//
// All metric operations are safe for concurrent use.
package promhooks

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/pangraph/pkg/observability"
)

const namespace = "pangraph"

// Metrics holds the Prometheus collectors fed by the hooks.
type Metrics struct {
	IngestTotal      *prometheus.CounterVec
	IngestDuration   prometheus.Histogram
	IngestLines      prometheus.Counter
	IngestIssues     prometheus.Counter
	GraphNodes       prometheus.Gauge
	GraphEdges       prometheus.Gauge
	SnapshotTotal    *prometheus.CounterVec
	SnapshotDuration *prometheus.HistogramVec
	LayoutTotal      *prometheus.CounterVec
	LayoutDuration   prometheus.Histogram
	LayoutDummies    prometheus.Gauge
	CacheOps         *prometheus.CounterVec
	CacheBytes       prometheus.Counter
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	HTTPInFlight     prometheus.Gauge
}

// New creates the collectors and registers them with reg.
// It panics if a collector is already registered, like promauto.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		IngestTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "runs_total",
			Help:      "Ingestion runs by outcome",
		}, []string{"status"}),
		IngestDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "duration_seconds",
			Help:      "Wall time of ingestion runs",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
		IngestLines: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "lines_total",
			Help:      "Input lines processed",
		}),
		IngestIssues: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "format_issues_total",
			Help:      "Records skipped because they did not parse",
		}),
		GraphNodes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "nodes",
			Help:      "Node count of the most recently produced graph",
		}),
		GraphEdges: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "edges",
			Help:      "Edge count of the most recently ingested graph",
		}),
		SnapshotTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "ops_total",
			Help:      "Snapshot loads and writes by outcome",
		}, []string{"op", "status"}),
		SnapshotDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "duration_seconds",
			Help:      "Wall time of snapshot loads and writes",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"op"}),
		LayoutTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "layout",
			Name:      "runs_total",
			Help:      "Layout computations by outcome",
		}, []string{"status"}),
		LayoutDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "layout",
			Name:      "duration_seconds",
			Help:      "Wall time of layout computations",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		LayoutDummies: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "layout",
			Name:      "dummy_nodes",
			Help:      "Dummy routing nodes in the most recent layout",
		}),
		CacheOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "ops_total",
			Help:      "Result cache operations by key type and result",
		}, []string{"key_type", "result"}),
		CacheBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "written_bytes_total",
			Help:      "Bytes written to the result cache",
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"method", "route", "code"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		HTTPInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "HTTP requests currently being served",
		}),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// OnIngestStart implements observability.PipelineHooks.
func (m *Metrics) OnIngestStart(context.Context, string) {}

// OnIngestComplete implements observability.PipelineHooks.
func (m *Metrics) OnIngestComplete(_ context.Context, _ string, stats observability.IngestStats, d time.Duration, err error) {
	m.IngestTotal.WithLabelValues(status(err)).Inc()
	m.IngestDuration.Observe(d.Seconds())
	m.IngestLines.Add(float64(stats.Lines))
	m.IngestIssues.Add(float64(stats.Issues))
	if err == nil {
		m.GraphNodes.Set(float64(stats.Nodes))
		m.GraphEdges.Set(float64(stats.Edges))
	}
}

// OnSnapshotLoad implements observability.PipelineHooks.
func (m *Metrics) OnSnapshotLoad(_ context.Context, _ string, nodes int, d time.Duration, err error) {
	m.SnapshotTotal.WithLabelValues("load", status(err)).Inc()
	m.SnapshotDuration.WithLabelValues("load").Observe(d.Seconds())
	if err == nil {
		m.GraphNodes.Set(float64(nodes))
	}
}

// OnSnapshotWrite implements observability.PipelineHooks.
func (m *Metrics) OnSnapshotWrite(_ context.Context, _ string, d time.Duration, err error) {
	m.SnapshotTotal.WithLabelValues("write", status(err)).Inc()
	m.SnapshotDuration.WithLabelValues("write").Observe(d.Seconds())
}

// OnLayoutStart implements observability.PipelineHooks.
func (m *Metrics) OnLayoutStart(context.Context, int) {}

// OnLayoutComplete implements observability.PipelineHooks.
func (m *Metrics) OnLayoutComplete(_ context.Context, dummies int, d time.Duration, err error) {
	m.LayoutTotal.WithLabelValues(status(err)).Inc()
	m.LayoutDuration.Observe(d.Seconds())
	if err == nil {
		m.LayoutDummies.Set(float64(dummies))
	}
}

// OnCacheHit implements observability.CacheHooks.
func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.CacheOps.WithLabelValues(keyType, "hit").Inc()
}

// OnCacheMiss implements observability.CacheHooks.
func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.CacheOps.WithLabelValues(keyType, "miss").Inc()
}

// OnCacheSet implements observability.CacheHooks.
func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.CacheOps.WithLabelValues(keyType, "set").Inc()
	m.CacheBytes.Add(float64(size))
}

// OnRequest implements observability.HTTPHooks.
func (m *Metrics) OnRequest(context.Context, string, string) {
	m.HTTPInFlight.Inc()
}

// OnResponse implements observability.HTTPHooks.
func (m *Metrics) OnResponse(_ context.Context, method, route string, code int, d time.Duration) {
	m.HTTPInFlight.Dec()
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ observability.PipelineHooks = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
	_ observability.HTTPHooks     = (*Metrics)(nil)
)

package promhooks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/pangraph/pkg/observability"
)

func TestMetrics_Pipeline(t *testing.T) {
	m := New(prometheus.NewRegistry())
	ctx := context.Background()

	m.OnIngestComplete(ctx, "a.gfa", observability.IngestStats{Lines: 10, Nodes: 4, Edges: 3, Issues: 2}, time.Second, nil)
	m.OnIngestComplete(ctx, "b.gfa", observability.IngestStats{Lines: 5}, time.Second, errors.New("boom"))

	if got := testutil.ToFloat64(m.IngestTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("ingest success = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.IngestTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("ingest error = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.IngestLines); got != 15 {
		t.Errorf("lines = %v, want 15", got)
	}
	if got := testutil.ToFloat64(m.GraphNodes); got != 4 {
		t.Errorf("nodes = %v, want 4 (failed run must not overwrite)", got)
	}

	m.OnLayoutComplete(ctx, 7, time.Millisecond, nil)
	if got := testutil.ToFloat64(m.LayoutDummies); got != 7 {
		t.Errorf("dummies = %v, want 7", got)
	}
}

func TestMetrics_CacheAndHTTP(t *testing.T) {
	m := New(prometheus.NewRegistry())
	ctx := context.Background()

	m.OnCacheMiss(ctx, "layout")
	m.OnCacheSet(ctx, "layout", 512)
	m.OnCacheHit(ctx, "layout")
	m.OnCacheHit(ctx, "layout")

	if got := testutil.ToFloat64(m.CacheOps.WithLabelValues("layout", "hit")); got != 2 {
		t.Errorf("hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CacheBytes); got != 512 {
		t.Errorf("bytes = %v, want 512", got)
	}

	m.OnRequest(ctx, "GET", "/api/window")
	if got := testutil.ToFloat64(m.HTTPInFlight); got != 1 {
		t.Errorf("in flight = %v, want 1", got)
	}
	m.OnResponse(ctx, "GET", "/api/window", 200, time.Millisecond)
	if got := testutil.ToFloat64(m.HTTPInFlight); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/window", "200")); got != 1 {
		t.Errorf("requests = %v, want 1", got)
	}
}

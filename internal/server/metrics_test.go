package server

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewServerMetrics_RegistersAll(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := newServerMetrics(reg, func() float64 { return 2 })

	m.queryRequestsTotal.WithLabelValues("ok").Inc()
	m.ingestRequestsTotal.WithLabelValues("accepted").Inc()
	m.httpRequestsTotal.WithLabelValues("GET", "GET /api/health", "200").Inc()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	want := map[string]bool{
		"documind_query_requests_total":  false,
		"documind_ingest_requests_total": false,
		"documind_ingest_active":         false,
		"documind_http_requests_total":   false,
	}
	for _, fam := range families {
		if _, ok := want[fam.GetName()]; ok {
			want[fam.GetName()] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("metric %s not registered", name)
		}
	}
}

func TestNewServerMetrics_GaugeSamplesCallback(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	active := 0.0
	m := newServerMetrics(reg, func() float64 { return active })

	active = 3
	if got := testutil.ToFloat64(m.activeIngests); got != 3 {
		t.Errorf("expected gauge 3, got %v", got)
	}
}

func TestNewServerMetrics_CountersIncrement(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := newServerMetrics(reg, func() float64 { return 0 })

	m.queryRequestsTotal.WithLabelValues("error").Inc()
	m.queryRequestsTotal.WithLabelValues("error").Inc()

	if got := testutil.ToFloat64(m.queryRequestsTotal.WithLabelValues("error")); got != 2 {
		t.Errorf("expected counter 2, got %v", got)
	}
}

func TestNewServerMetrics_SeparateRegistriesStayHermetic(t *testing.T) {
	t.Parallel()

	// Registering the same metric names twice must not panic because each
	// instance targets its own registry.
	a := newServerMetrics(prometheus.NewRegistry(), func() float64 { return 0 })
	b := newServerMetrics(prometheus.NewRegistry(), func() float64 { return 0 })

	a.queryRequestsTotal.WithLabelValues("ok").Inc()
	if got := testutil.ToFloat64(b.queryRequestsTotal.WithLabelValues("ok")); got != 0 {
		t.Errorf("expected fresh counter 0, got %v", got)
	}
}

func TestMetricNames_CarryNamespace(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := newServerMetrics(reg, func() float64 { return 0 })
	m.queryDurationSeconds.WithLabelValues("ok").Observe(0.5)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, fam := range families {
		if !strings.HasPrefix(fam.GetName(), "documind_") {
			t.Errorf("metric %s missing documind namespace", fam.GetName())
		}
	}
}

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewWithRegistererRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := NewWithRegisterer(registry)

	if m.TransactionsMutated == nil || m.HTTPRequests == nil || m.OrphanedDeltas == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.TransactionsMutated.WithLabelValues("create", "INCOME").Inc()
	m.VersionConflicts.Inc()

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}

	if got := testutil.ToFloat64(m.TransactionsMutated.WithLabelValues("create", "INCOME")); got != 1 {
		t.Fatalf("expected counter 1, got %v", got)
	}
}

func TestNewWithRegistererIsolated(t *testing.T) {
	// Two registries must not collide on metric names.
	a := NewWithRegisterer(prometheus.NewRegistry())
	b := NewWithRegisterer(prometheus.NewRegistry())

	a.Compensations.Inc()
	if got := testutil.ToFloat64(b.Compensations); got != 0 {
		t.Fatalf("expected isolated counters, got %v", got)
	}
}

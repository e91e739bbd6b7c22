package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
)

func TestNewWithRegistryRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := NewWithRegistry(registry)

	if m.EntriesAdded == nil || m.HTTPRequests == nil || m.StoreDuration == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.AddEntries(1)
	m.ObserveStore("list", time.Now(), nil)

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics

	m.AddEntries(3)
	m.UpdateEntries(1)
	m.DeleteEntries(2)
	m.RecordValidationError("name")
	m.RecordReconcile("noop")
	m.RecordExport()
	m.RecordPublishError()
	m.SetLedgerState(4, decimal.NewFromInt(20))
	m.ObserveStore("create", time.Now(), errors.New("boom"))
}

func TestCountersAndGauges(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.AddEntries(2)
	m.AddEntries(0)
	m.DeleteEntries(1)
	m.RecordValidationError("amount")
	m.RecordValidationError("amount")
	m.RecordReconcile("edited")
	m.SetLedgerState(3, decimal.RequireFromString("15.5"))
	m.ObserveStore("update", time.Now(), errors.New("disk full"))

	if got := testutil.ToFloat64(m.EntriesAdded); got != 2 {
		t.Fatalf("expected 2 added, got %v", got)
	}
	if got := testutil.ToFloat64(m.EntriesDeleted); got != 1 {
		t.Fatalf("expected 1 deleted, got %v", got)
	}
	if got := testutil.ToFloat64(m.ValidationErrors.WithLabelValues("amount")); got != 2 {
		t.Fatalf("expected 2 amount validation errors, got %v", got)
	}
	if got := testutil.ToFloat64(m.ReconcileOutcomes.WithLabelValues("edited")); got != 1 {
		t.Fatalf("expected 1 edited outcome, got %v", got)
	}
	if got := testutil.ToFloat64(m.Entries); got != 3 {
		t.Fatalf("expected entries gauge 3, got %v", got)
	}
	if got := testutil.ToFloat64(m.AmountTotal); got != 15.5 {
		t.Fatalf("expected amount gauge 15.5, got %v", got)
	}
	if got := testutil.ToFloat64(m.StoreErrors.WithLabelValues("update")); got != 1 {
		t.Fatalf("expected 1 store error, got %v", got)
	}
}

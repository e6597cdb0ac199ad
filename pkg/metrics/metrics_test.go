// Copyright 2025 RGB Core Project

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatal(err)
	}
	return m.GetCounter().GetValue()
}

func TestObserveRunRecordsOutcomeAndCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.ObserveRun(true, 0, 2)
	r.ObserveRun(false, 3, 1)

	if got := counterValue(t, r.failures); got != 3 {
		t.Fatalf("expected 3 failures recorded, got %v", got)
	}
	if got := counterValue(t, r.warnings); got != 3 {
		t.Fatalf("expected 3 warnings recorded, got %v", got)
	}

	validCounter, err := r.runs.GetMetricWithLabelValues("valid")
	if err != nil {
		t.Fatal(err)
	}
	if got := counterValue(t, validCounter); got != 1 {
		t.Fatalf("expected 1 valid run, got %v", got)
	}
	invalidCounter, err := r.runs.GetMetricWithLabelValues("invalid")
	if err != nil {
		t.Fatal(err)
	}
	if got := counterValue(t, invalidCounter); got != 1 {
		t.Fatalf("expected 1 invalid run, got %v", got)
	}
}

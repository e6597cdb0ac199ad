// Copyright 2025 RGB Core Project

// Package metrics implements pkg/validator.MetricsRecorder over
// Prometheus counters, tracking validation-run outcomes for operators.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder observes validator runs via Prometheus metrics. It
// implements pkg/validator.MetricsRecorder.
type Recorder struct {
	runs     *prometheus.CounterVec
	failures prometheus.Counter
	warnings prometheus.Counter
}

// NewRecorder registers the recorder's metrics against reg. Passing a
// nil registry registers against the default global registry.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	r := &Recorder{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rgbcore",
			Subsystem: "validator",
			Name:      "runs_total",
			Help:      "Validation runs, labeled by outcome (valid/invalid).",
		}, []string{"outcome"}),
		failures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "rgbcore",
			Subsystem: "validator",
			Name:      "failures_total",
			Help:      "Failure-severity Status entries emitted across all runs.",
		}),
		warnings: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "rgbcore",
			Subsystem: "validator",
			Name:      "warnings_total",
			Help:      "Warning-severity Status entries emitted across all runs.",
		}),
	}
	return r
}

// ObserveRun records the outcome of one completed validation run.
func (r *Recorder) ObserveRun(valid bool, failures, warnings int) {
	outcome := "invalid"
	if valid {
		outcome = "valid"
	}
	r.runs.WithLabelValues(outcome).Inc()
	r.failures.Add(float64(failures))
	r.warnings.Add(float64(warnings))
}

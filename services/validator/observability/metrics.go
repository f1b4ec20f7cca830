// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the validator
// service: verdict outcomes, finding counts by kind and severity, price
// check results, and validation latency.
//
// Metrics are exposed via the /metrics endpoint. All operations are
// thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AleutianAI/AleutianSentry/services/validator/datatypes"
)

// Namespace for all metrics
const metricsNamespace = "aleutian"

// Subsystem for validation metrics
const validationSubsystem = "validation"

// ValidationMetrics holds all Prometheus metrics for validation runs.
//
// Initialize once at startup via InitMetrics, or with NewValidationMetrics
// and a private registry in tests.
type ValidationMetrics struct {
	// VerdictsTotal counts completed validations by outcome.
	// Labels: status (pass, fail)
	VerdictsTotal *prometheus.CounterVec

	// FindingsTotal counts hallucination findings.
	// Labels: kind (outdated_language, uncited_data, ...), severity
	FindingsTotal *prometheus.CounterVec

	// PriceChecksTotal counts per-symbol price checks by outcome.
	// Labels: status (valid, invalid)
	PriceChecksTotal *prometheus.CounterVec

	// ToolCallsObserved counts tool calls seen in validated ledgers.
	ToolCallsObserved prometheus.Counter

	// ValidationDurationSeconds measures end-to-end validation latency,
	// dominated by live price lookups.
	ValidationDurationSeconds prometheus.Histogram
}

// NewValidationMetrics creates and registers all metrics on the given
// registerer. Use a fresh prometheus.NewRegistry() in tests to avoid
// duplicate-registration panics.
func NewValidationMetrics(reg prometheus.Registerer) *ValidationMetrics {
	factory := promauto.With(reg)

	return &ValidationMetrics{
		VerdictsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: validationSubsystem,
				Name:      "verdicts_total",
				Help:      "Completed validations by outcome",
			},
			[]string{"status"},
		),

		FindingsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: validationSubsystem,
				Name:      "findings_total",
				Help:      "Hallucination findings by kind and severity",
			},
			[]string{"kind", "severity"},
		),

		PriceChecksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: validationSubsystem,
				Name:      "price_checks_total",
				Help:      "Per-symbol price checks by outcome",
			},
			[]string{"status"},
		),

		ToolCallsObserved: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: validationSubsystem,
				Name:      "tool_calls_observed_total",
				Help:      "Tool calls seen in validated ledgers",
			},
		),

		ValidationDurationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: validationSubsystem,
				Name:      "duration_seconds",
				Help:      "End-to-end validation latency in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
		),
	}
}

// InitMetrics initializes metrics on the default Prometheus registry.
// Call once at application startup; calling twice panics on duplicate
// registration.
func InitMetrics() *ValidationMetrics {
	return NewValidationMetrics(prometheus.DefaultRegisterer)
}

// ObserveVerdict records all counters derived from one completed verdict.
func (m *ValidationMetrics) ObserveVerdict(verdict *datatypes.ValidationVerdict, durationSeconds float64) {
	status := "fail"
	if verdict.OverallValid {
		status = "pass"
	}
	m.VerdictsTotal.WithLabelValues(status).Inc()

	for _, finding := range verdict.Findings {
		m.FindingsTotal.WithLabelValues(string(finding.Kind), string(finding.Severity)).Inc()
	}

	m.PriceChecksTotal.WithLabelValues("valid").Add(float64(verdict.ValidPriceChecks))
	m.PriceChecksTotal.WithLabelValues("invalid").Add(float64(verdict.InvalidPriceChecks))

	m.ToolCallsObserved.Add(float64(verdict.ToolUsage.TotalCalls))
	m.ValidationDurationSeconds.Observe(durationSeconds)
}

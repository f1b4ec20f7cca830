// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/AleutianAI/AleutianSentry/services/validator/datatypes"
)

// newTestMetrics creates a ValidationMetrics instance on a private registry.
// This avoids conflicts with the global Prometheus registry and allows
// parallel testing.
func newTestMetrics(t *testing.T) *ValidationMetrics {
	t.Helper()
	return NewValidationMetrics(prometheus.NewRegistry())
}

func TestObserveVerdict_PassingVerdict(t *testing.T) {
	m := newTestMetrics(t)

	verdict := &datatypes.ValidationVerdict{
		Timestamp:    time.Now(),
		OverallValid: true,
		ToolUsage: datatypes.ToolUsageSummary{
			TotalCalls: 3,
		},
		ValidPriceChecks:   2,
		InvalidPriceChecks: 0,
	}

	m.ObserveVerdict(verdict, 0.25)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.VerdictsTotal.WithLabelValues("pass")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.VerdictsTotal.WithLabelValues("fail")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PriceChecksTotal.WithLabelValues("valid")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.PriceChecksTotal.WithLabelValues("invalid")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ToolCallsObserved))
}

func TestObserveVerdict_FailingVerdictWithFindings(t *testing.T) {
	m := newTestMetrics(t)

	verdict := &datatypes.ValidationVerdict{
		Timestamp:    time.Now(),
		OverallValid: false,
		Findings: []datatypes.HallucinationFinding{
			{Kind: datatypes.FindingOutdatedLanguage, Severity: datatypes.SeverityWarning},
			{Kind: datatypes.FindingUncitedData, Severity: datatypes.SeverityCritical},
			{Kind: datatypes.FindingUncitedData, Severity: datatypes.SeverityCritical},
		},
		ValidPriceChecks:   1,
		InvalidPriceChecks: 2,
	}

	m.ObserveVerdict(verdict, 1.5)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.VerdictsTotal.WithLabelValues("fail")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FindingsTotal.WithLabelValues("outdated_language", "warning")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FindingsTotal.WithLabelValues("uncited_data", "critical")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PriceChecksTotal.WithLabelValues("valid")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PriceChecksTotal.WithLabelValues("invalid")))
}

func TestObserveVerdict_Accumulates(t *testing.T) {
	m := newTestMetrics(t)

	verdict := &datatypes.ValidationVerdict{
		Timestamp:    time.Now(),
		OverallValid: true,
		ToolUsage:    datatypes.ToolUsageSummary{TotalCalls: 1},
	}

	for i := 0; i < 5; i++ {
		m.ObserveVerdict(verdict, 0.1)
	}

	assert.Equal(t, 5.0, testutil.ToFloat64(m.VerdictsTotal.WithLabelValues("pass")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.ToolCallsObserved))
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package hallucination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianSentry/services/validator/datatypes"
)

// staticCalls is a CallCounter with a fixed call count.
type staticCalls int

func (s staticCalls) Len() int { return int(s) }

func findingsOfKind(findings []datatypes.HallucinationFinding, kind datatypes.FindingKind) []datatypes.HallucinationFinding {
	var out []datatypes.HallucinationFinding
	for _, f := range findings {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

func TestOutdatedLanguageRule(t *testing.T) {
	rule := NewOutdatedLanguageRule()

	tests := []struct {
		name         string
		text         string
		wantFindings int
	}{
		{"clean text", "Per tool-verified data, BTC is trading at $119,800.", 0},
		{"single phrase", "As of my last update, BTC was strong.", 1},
		{"case insensitive", "BASED ON MY TRAINING DATA, prices vary.", 1},
		{"multiple phrases", "Historically, BTC typically trades at approximately $60,000.", 3},
		{"empty text", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := rule.Evaluate(tt.text, staticCalls(0))
			assert.Len(t, findings, tt.wantFindings)
			for _, f := range findings {
				assert.Equal(t, datatypes.FindingOutdatedLanguage, f.Kind)
				assert.Equal(t, datatypes.SeverityWarning, f.Severity)
			}
		})
	}
}

func TestUncitedDataRule(t *testing.T) {
	rule := &UncitedDataRule{}

	t.Run("prices without tool calls", func(t *testing.T) {
		findings := rule.Evaluate("BTC at $119,856.45 and ETH at $3,987.23", staticCalls(0))

		require.Len(t, findings, 1)
		assert.Equal(t, datatypes.FindingUncitedData, findings[0].Kind)
		assert.Equal(t, datatypes.SeverityCritical, findings[0].Severity)
		assert.Contains(t, findings[0].Detail, "2 prices")
	})

	t.Run("same text with a recorded call yields none", func(t *testing.T) {
		findings := rule.Evaluate("BTC at $119,856.45 and ETH at $3,987.23", staticCalls(1))
		assert.Empty(t, findings)
	})

	t.Run("no prices yields none", func(t *testing.T) {
		findings := rule.Evaluate("Markets are quiet today.", staticCalls(0))
		assert.Empty(t, findings)
	})
}

func TestStaleValueRule(t *testing.T) {
	rule := NewStaleValueRule()

	t.Run("stale btc figure", func(t *testing.T) {
		findings := rule.Evaluate("BTC was around $60,000 last I checked.", staticCalls(0))

		require.Len(t, findings, 1)
		assert.Equal(t, datatypes.FindingOutdatedPrice, findings[0].Kind)
		assert.Equal(t, datatypes.SeverityCritical, findings[0].Severity)
	})

	t.Run("amount without asset token", func(t *testing.T) {
		findings := rule.Evaluate("Gold moved $60 today.", staticCalls(0))
		assert.Empty(t, findings)
	})

	t.Run("asset token without amount", func(t *testing.T) {
		findings := rule.Evaluate("BTC is trading at $119,800.", staticCalls(0))
		assert.Empty(t, findings)
	})
}

// TestDetect_KnownBadResponse runs the canonical hallucinated response
// through the default rule set: it must trip all three rule families.
func TestDetect_KnownBadResponse(t *testing.T) {
	detector := NewDetector()

	findings := detector.Detect("As of my last update, BTC was around $60,000", staticCalls(0))

	assert.NotEmpty(t, findingsOfKind(findings, datatypes.FindingOutdatedLanguage))
	assert.NotEmpty(t, findingsOfKind(findings, datatypes.FindingUncitedData))
	assert.NotEmpty(t, findingsOfKind(findings, datatypes.FindingOutdatedPrice))
	assert.GreaterOrEqual(t, len(findings), 3)
}

// TestDetect_CleanResponse verifies a tool-backed response produces no
// findings and an empty, non-nil list.
func TestDetect_CleanResponse(t *testing.T) {
	detector := NewDetector()

	findings := detector.Detect("Per tool-verified data, BTC is $119,800", staticCalls(1))

	require.NotNil(t, findings)
	assert.Empty(t, findings)
}

// TestDetect_ArbitraryText verifies the detector never panics on unusual
// input.
func TestDetect_ArbitraryText(t *testing.T) {
	detector := NewDetector()

	for _, text := range []string{
		"",
		"$",
		"$$$$",
		"\x00\xff binary-ish",
		"深圳 BTC 世界 $60",
		"a very long run of dollars $1,2,3,4,5.....",
	} {
		assert.NotPanics(t, func() {
			detector.Detect(text, staticCalls(0))
		})
	}
}

// TestDetector_CustomRules verifies the registry accepts caller-supplied
// rules without touching the built-ins.
func TestDetector_CustomRules(t *testing.T) {
	custom := NewStaleValueRule(StaleValue{
		AmountPrefix: "$2,000",
		AssetToken:   "ETH",
		Detail:       "ETH price appears outdated",
	})
	detector := NewDetector(custom)

	findings := detector.Detect("ETH is worth $2,000 these days", staticCalls(5))

	require.Len(t, findings, 1)
	assert.Equal(t, datatypes.FindingOutdatedPrice, findings[0].Kind)
}

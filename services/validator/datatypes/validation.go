// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes defines the shared data structures of the validator
// service: tool-call records, price checks, hallucination findings, and the
// aggregate verdict returned by the orchestrator.
package datatypes

import "time"

// ========== TOOL CALL STRUCTURES ==========

// ToolCallRecord is one completed tool invocation observed during response
// generation. Records are immutable once appended to the ledger.
type ToolCallRecord struct {
	// CallID uniquely identifies the invocation within one validation cycle
	CallID string `json:"call_id"`

	// Tool is the capability name, e.g. "web_search" or "browse_page".
	// The set is open; unrecognized tools are counted but contribute no
	// data sources.
	Tool string `json:"tool"`

	// Params is the opaque argument payload. The only contractually read
	// key is "url" for page-fetch tools.
	Params map[string]any `json:"params"`

	// Result is the opaque result payload. The only contractually read
	// shape is a "results" list of objects with "url" for search tools.
	Result any `json:"result"`

	// Timestamp is the wall-clock completion time
	Timestamp time.Time `json:"timestamp"`

	// DurationMS is the elapsed time between StartCall and RecordCall.
	// Nil when the call was recorded without a matching start.
	DurationMS *float64 `json:"duration_ms,omitempty"`
}

// ToolUsageSummary is derived from the ledger on demand and never stored.
type ToolUsageSummary struct {
	TotalCalls    int      `json:"total_calls"`
	ToolsUsed     []string `json:"tools_used"`
	DataSources   []string `json:"data_sources"`
	AvgDurationMS float64  `json:"avg_duration_ms"`
}

// ========== VALIDATION RESULT STRUCTURES ==========

// PriceCheckResult is the outcome of comparing one AI-cited price against
// live ground truth. Created once per validation run, never mutated.
type PriceCheckResult struct {
	Symbol     string `json:"symbol"`
	CitedPrice float64 `json:"cited_price"`

	// LivePrice is nil when the live lookup failed or was unavailable
	LivePrice *float64 `json:"live_price,omitempty"`

	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// Severity classifies how damaging a hallucination finding is.
type Severity string

const (
	// SeverityWarning flags suspicious but non-fatal content
	SeverityWarning Severity = "warning"

	// SeverityCritical flags content that invalidates the whole response
	SeverityCritical Severity = "critical"
)

// FindingKind identifies which detection rule produced a finding.
type FindingKind string

const (
	// FindingOutdatedLanguage marks training-data phrasing like
	// "as of my last update"
	FindingOutdatedLanguage FindingKind = "outdated_language"

	// FindingUncitedData marks price-like figures cited without any
	// recorded tool calls
	FindingUncitedData FindingKind = "uncited_data"

	// FindingOutdatedPrice marks a known-stale figure for a specific asset
	FindingOutdatedPrice FindingKind = "outdated_price"

	// FindingPriceOutOfRange marks a cited price outside the expected band
	// for a well-known instrument
	FindingPriceOutOfRange FindingKind = "price_out_of_range"
)

// HallucinationFinding is one detected anomaly in the response prose.
// A response may carry any number of findings; ordering is not significant.
type HallucinationFinding struct {
	Kind     FindingKind `json:"kind"`
	Severity Severity    `json:"severity"`
	Detail   string      `json:"detail"`
}

// IsCritical reports whether the finding alone invalidates the response.
func (f HallucinationFinding) IsCritical() bool {
	return f.Severity == SeverityCritical
}

// ========== VERDICT STRUCTURES ==========

// VerdictSummary holds the headline counters of one validation run.
type VerdictSummary struct {
	ToolsCalled int `json:"tools_called"`

	// PriceAccuracyRate is valid/total price checks, or 0 when no checks ran
	PriceAccuracyRate float64 `json:"price_accuracy_rate"`

	HallucinationCount int `json:"hallucination_count"`
	CriticalIssues     int `json:"critical_issues"`
}

// ValidationVerdict is the sole output of the orchestrator: one immutable
// aggregate per validated response.
//
// OverallValid is false iff at least one price check failed or at least one
// finding has critical severity.
type ValidationVerdict struct {
	Timestamp time.Time        `json:"timestamp"`
	ToolUsage ToolUsageSummary `json:"tool_usage"`

	PriceChecks        []PriceCheckResult `json:"price_checks"`
	ValidPriceChecks   int                `json:"valid_price_checks"`
	InvalidPriceChecks int                `json:"invalid_price_checks"`

	Findings []HallucinationFinding `json:"findings"`

	OverallValid bool           `json:"overall_valid"`
	Summary      VerdictSummary `json:"summary"`
}

// CriticalFindings returns the subset of findings with critical severity.
func (v *ValidationVerdict) CriticalFindings() []HallucinationFinding {
	var critical []HallucinationFinding
	for _, f := range v.Findings {
		if f.IsCritical() {
			critical = append(critical, f)
		}
	}
	return critical
}

// ========== RECOMMENDATION TABLE ==========

// RecommendationRow is one parsed row of the model's trade table. Parsing the
// markdown table is the host application's job; the validator only reads the
// fields below and ignores anything else the host parsed out.
type RecommendationRow struct {
	Symbol string `json:"symbol" binding:"required"`
	Action string `json:"action"`

	// EntryPrice is the AI-cited entry price. Nil means the model left the
	// cell empty; such rows are skipped by price validation.
	EntryPrice *float64 `json:"entry_price,omitempty"`
}

// ========== REQUEST/RESPONSE STRUCTURES ==========

// ToolStartRequest marks a tool call as in-flight.
type ToolStartRequest struct {
	CallID string         `json:"call_id" binding:"required"`
	Tool   string         `json:"tool" binding:"required"`
	Params map[string]any `json:"params"`
}

// ToolRecordRequest finalizes a tool call. CallID may be empty, in which
// case the ledger assigns one and the call carries no duration.
type ToolRecordRequest struct {
	CallID string         `json:"call_id"`
	Tool   string         `json:"tool" binding:"required"`
	Params map[string]any `json:"params"`
	Result any            `json:"result"`
}

// ValidateRequest asks the service to validate one model response against
// the ledger accumulated since the last reset.
type ValidateRequest struct {
	ResponseText    string              `json:"response_text" binding:"required"`
	Recommendations []RecommendationRow `json:"recommendations,omitempty"`
}

// ValidateResponse wraps the verdict together with its rendered report.
type ValidateResponse struct {
	Verdict *ValidationVerdict `json:"verdict"`
	Report  string             `json:"report"`
}

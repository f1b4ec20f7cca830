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
	"fmt"
	"regexp"
	"strings"

	"github.com/AleutianAI/AleutianSentry/services/validator/datatypes"
)

// CallCounter is the slice of the ledger the rules need: how many tool
// calls were actually recorded. Keeping the dependency this narrow lets
// tests drive rules without a full ledger.
type CallCounter interface {
	Len() int
}

// Rule is one independent detection heuristic. Rules must tolerate
// arbitrary text: a non-match yields an empty finding list, never an error
// or panic.
type Rule interface {
	// Name identifies the rule in logs.
	Name() string

	// Evaluate scans the response text and returns zero or more findings.
	Evaluate(responseText string, calls CallCounter) []datatypes.HallucinationFinding
}

// =============================================================================
// Outdated Language Rule
// =============================================================================

// defaultOutdatedPhrases are training-data tells: phrasing a model uses when
// reciting memorized knowledge instead of fetched data.
var defaultOutdatedPhrases = []string{
	"as of my last update",
	"based on my training data",
	"historically",
	"typically",
	"usually around",
	"approximately",
	"last known",
}

// OutdatedLanguageRule flags case-insensitive occurrences of phrases from a
// fixed list. Each matched phrase yields one warning-severity finding of
// kind outdated_language.
type OutdatedLanguageRule struct {
	phrases []string
}

// NewOutdatedLanguageRule creates the rule with the built-in phrase list.
// Pass phrases to override, e.g. for non-English responses.
func NewOutdatedLanguageRule(phrases ...string) *OutdatedLanguageRule {
	if len(phrases) == 0 {
		phrases = defaultOutdatedPhrases
	}
	return &OutdatedLanguageRule{phrases: phrases}
}

func (r *OutdatedLanguageRule) Name() string { return "outdated_language" }

func (r *OutdatedLanguageRule) Evaluate(responseText string, _ CallCounter) []datatypes.HallucinationFinding {
	lowered := strings.ToLower(responseText)

	var findings []datatypes.HallucinationFinding
	for _, phrase := range r.phrases {
		if strings.Contains(lowered, strings.ToLower(phrase)) {
			findings = append(findings, datatypes.HallucinationFinding{
				Kind:     datatypes.FindingOutdatedLanguage,
				Severity: datatypes.SeverityWarning,
				Detail:   fmt.Sprintf("Response contains outdated-language indicator %q", phrase),
			})
		}
	}
	return findings
}

// =============================================================================
// Uncited Data Rule
// =============================================================================

// dollarAmountPattern matches price-like tokens: $ followed by digits with
// optional thousands separators and an optional decimal part.
var dollarAmountPattern = regexp.MustCompile(`\$[\d,]+\.?\d*`)

// UncitedDataRule flags dollar amounts cited without any recorded tool
// calls. When the response contains at least one price-like token and the
// ledger is empty, it emits a single critical uncited_data finding carrying
// the token count.
type UncitedDataRule struct{}

func (r *UncitedDataRule) Name() string { return "uncited_data" }

func (r *UncitedDataRule) Evaluate(responseText string, calls CallCounter) []datatypes.HallucinationFinding {
	prices := dollarAmountPattern.FindAllString(responseText, -1)
	if len(prices) == 0 || calls.Len() > 0 {
		return nil
	}

	return []datatypes.HallucinationFinding{{
		Kind:     datatypes.FindingUncitedData,
		Severity: datatypes.SeverityCritical,
		Detail:   fmt.Sprintf("Found %d prices but no tool calls", len(prices)),
	}}
}

// =============================================================================
// Stale Value Rule
// =============================================================================

// StaleValue pins a known-outdated figure to an asset token. The rule is
// deliberately narrow and era-specific: it exists to catch one known failure
// mode, not to be a general fact-checker.
type StaleValue struct {
	// AmountPrefix is the literal dollar-amount prefix to look for, e.g. "$60"
	AmountPrefix string

	// AssetToken is the co-occurring asset mention, e.g. "BTC"
	AssetToken string

	// Detail is the finding text emitted on match
	Detail string
}

// DefaultStaleValues returns the built-in stale-figure table: BTC quoted
// around $60k, roughly half of where it trades now.
func DefaultStaleValues() []StaleValue {
	return []StaleValue{
		{
			AmountPrefix: "$60",
			AssetToken:   "BTC",
			Detail:       "BTC price appears outdated (~$60k instead of ~$120k)",
		},
	}
}

// StaleValueRule flags responses that pair a known-outdated dollar figure
// with its asset token. Each matched entry yields one critical
// outdated_price finding.
type StaleValueRule struct {
	values []StaleValue
}

// NewStaleValueRule creates the rule with the given entries, defaulting to
// DefaultStaleValues when none are supplied.
func NewStaleValueRule(values ...StaleValue) *StaleValueRule {
	if len(values) == 0 {
		values = DefaultStaleValues()
	}
	return &StaleValueRule{values: values}
}

func (r *StaleValueRule) Name() string { return "outdated_price" }

func (r *StaleValueRule) Evaluate(responseText string, _ CallCounter) []datatypes.HallucinationFinding {
	var findings []datatypes.HallucinationFinding
	for _, v := range r.values {
		if strings.Contains(responseText, v.AmountPrefix) && strings.Contains(responseText, v.AssetToken) {
			findings = append(findings, datatypes.HallucinationFinding{
				Kind:     datatypes.FindingOutdatedPrice,
				Severity: datatypes.SeverityCritical,
				Detail:   v.Detail,
			})
		}
	}
	return findings
}

var (
	_ Rule = (*OutdatedLanguageRule)(nil)
	_ Rule = (*UncitedDataRule)(nil)
	_ Rule = (*StaleValueRule)(nil)
)

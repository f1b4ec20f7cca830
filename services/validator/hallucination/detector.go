// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package hallucination flags prose-level evidence that a model recited
// memorized or stale knowledge instead of using fetched data.
//
// Detection is a registry of independent substring/regex heuristics (see
// Rule). The heuristics are inherently approximate; new ones are added by
// registering another Rule, not by touching the detector.
package hallucination

import (
	"log/slog"

	"github.com/AleutianAI/AleutianSentry/services/validator/datatypes"
)

// Detector runs an ordered list of rules over a response and unions their
// findings. Finding order follows rule registration order but carries no
// meaning.
//
// Detector holds only its rule list and is safe for concurrent use as long
// as the registered rules are.
type Detector struct {
	rules []Rule
}

// NewDetector creates a Detector with the given rules, defaulting to the
// built-in set (outdated language, uncited data, stale values) when none
// are supplied.
func NewDetector(rules ...Rule) *Detector {
	if len(rules) == 0 {
		rules = []Rule{
			NewOutdatedLanguageRule(),
			&UncitedDataRule{},
			NewStaleValueRule(),
		}
	}
	return &Detector{rules: rules}
}

// Detect scans responseText with every registered rule.
//
// The returned slice is never nil; an uneventful response yields an empty
// list. Detect never errors on arbitrary text, and calls must be non-nil
// (a nil ledger is a programming error in the caller).
func (d *Detector) Detect(responseText string, calls CallCounter) []datatypes.HallucinationFinding {
	findings := []datatypes.HallucinationFinding{}

	for _, rule := range d.rules {
		matched := rule.Evaluate(responseText, calls)
		if len(matched) > 0 {
			slog.Debug("hallucination: rule matched",
				"rule", rule.Name(),
				"findings", len(matched),
			)
		}
		findings = append(findings, matched...)
	}

	return findings
}

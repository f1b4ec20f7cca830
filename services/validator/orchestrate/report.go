// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package orchestrate

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/AleutianSentry/services/validator/datatypes"
)

// Report renders a verdict as a deterministic, human-readable text report.
//
// Purely a formatting function: identical verdicts always render to
// identical strings, and nothing is mutated. The layout is markdown-ish so
// hosts can drop it into chat UIs or terminal output unchanged.
func Report(verdict *datatypes.ValidationVerdict) string {
	var b strings.Builder

	status := "❌ FAIL"
	if verdict.OverallValid {
		status = "✅ PASS"
	}

	fmt.Fprintf(&b, "# Validation Report\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", verdict.Timestamp.Format("2006-01-02T15:04:05Z07:00"))

	fmt.Fprintf(&b, "## Summary\n")
	fmt.Fprintf(&b, "- Overall Valid: %s\n", status)
	fmt.Fprintf(&b, "- Tools Called: %d\n", verdict.Summary.ToolsCalled)
	fmt.Fprintf(&b, "- Price Accuracy: %.1f%%\n", verdict.Summary.PriceAccuracyRate*100)
	fmt.Fprintf(&b, "- Hallucinations: %d\n", verdict.Summary.HallucinationCount)
	fmt.Fprintf(&b, "- Critical Issues: %d\n\n", verdict.Summary.CriticalIssues)

	fmt.Fprintf(&b, "## Tool Usage\n")
	fmt.Fprintf(&b, "Total Calls: %d\n", verdict.ToolUsage.TotalCalls)
	fmt.Fprintf(&b, "Tools Used: %s\n", strings.Join(verdict.ToolUsage.ToolsUsed, ", "))
	fmt.Fprintf(&b, "Data Sources: %d\n", len(verdict.ToolUsage.DataSources))

	if len(verdict.PriceChecks) > 0 {
		fmt.Fprintf(&b, "\n## Price Validation\n")
		for _, check := range verdict.PriceChecks {
			marker := "❌"
			if check.Valid {
				marker = "✅"
			}
			fmt.Fprintf(&b, "%s %s: %s\n", marker, check.Symbol, check.Message)
		}
	}

	if len(verdict.Findings) > 0 {
		fmt.Fprintf(&b, "\n## Potential Hallucinations\n")
		for _, finding := range verdict.Findings {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", strings.ToUpper(string(finding.Severity)), finding.Kind, finding.Detail)
		}
	}

	return b.String()
}

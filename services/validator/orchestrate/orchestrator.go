// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package orchestrate composes the ledger summary, hallucination detection,
// and price checks into a single ValidationVerdict, and renders verdicts as
// human-readable reports.
//
// The Orchestrator is stateless across calls: each Validate invocation is
// independent, and the ledger — the only stateful collaborator — is owned by
// the caller and passed in explicitly. Many orchestrators may run
// concurrently against independent ledgers without coordination.
package orchestrate

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/AleutianSentry/services/validator/datatypes"
	"github.com/AleutianAI/AleutianSentry/services/validator/hallucination"
	"github.com/AleutianAI/AleutianSentry/services/validator/ledger"
	"github.com/AleutianAI/AleutianSentry/services/validator/pricecheck"
)

// ErrNilLedger is returned when Validate is called without a ledger. This
// is a programming error in the caller, surfaced loudly instead of silently
// producing a misleadingly valid verdict.
var ErrNilLedger = errors.New("orchestrate: nil ledger")

// DefaultMaxParallelChecks bounds concurrent live-price lookups per
// validation run.
const DefaultMaxParallelChecks = 4

// Orchestrator runs all validation checks over one model response.
//
// It holds only read-only configuration (checker, detector, expected-range
// table) and is safe for concurrent use.
type Orchestrator struct {
	checker        *pricecheck.Checker
	detector       *hallucination.Detector
	expectedRanges map[string]pricecheck.PriceRange
	maxParallel    int

	// now is injectable for tests
	now func() time.Time
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithExpectedRanges overrides the built-in expected-price-range table.
func WithExpectedRanges(ranges map[string]pricecheck.PriceRange) Option {
	return func(o *Orchestrator) { o.expectedRanges = ranges }
}

// WithMaxParallelChecks bounds the number of concurrent price checks.
func WithMaxParallelChecks(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxParallel = n
		}
	}
}

// WithClock injects the timestamp source (used by tests for deterministic
// verdicts).
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an Orchestrator over the given checker and detector.
func New(checker *pricecheck.Checker, detector *hallucination.Detector, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		checker:        checker,
		detector:       detector,
		expectedRanges: pricecheck.DefaultExpectedRanges(),
		maxParallel:    DefaultMaxParallelChecks,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Validate runs every check over one model response and aggregates the
// outcome.
//
// The recommendation table may be nil or empty; rows without an entry price
// are skipped. Live-price lookups for the remaining rows run in parallel,
// each independently cancellable through ctx; a failed lookup degrades to
// an invalid price check rather than aborting the run.
//
// Validate returns an error only for programming errors (nil ledger). For
// any syntactically reasonable input it returns a verdict — possibly one
// with OverallValid=false and findings explaining why.
func (o *Orchestrator) Validate(ctx context.Context, responseText string, rows []datatypes.RecommendationRow, led *ledger.Ledger) (*datatypes.ValidationVerdict, error) {
	if led == nil {
		return nil, ErrNilLedger
	}

	verdict := &datatypes.ValidationVerdict{
		Timestamp:    o.now(),
		ToolUsage:    led.Summary(),
		PriceChecks:  []datatypes.PriceCheckResult{},
		OverallValid: true,
	}

	verdict.Findings = o.detector.Detect(responseText, led)

	verdict.PriceChecks = o.runPriceChecks(ctx, rows, verdict)

	for _, check := range verdict.PriceChecks {
		if check.Valid {
			verdict.ValidPriceChecks++
		} else {
			verdict.InvalidPriceChecks++
			verdict.OverallValid = false
		}
	}

	critical := verdict.CriticalFindings()
	if len(critical) > 0 {
		verdict.OverallValid = false
	}

	totalChecks := verdict.ValidPriceChecks + verdict.InvalidPriceChecks
	accuracy := 0.0
	if totalChecks > 0 {
		accuracy = float64(verdict.ValidPriceChecks) / float64(totalChecks)
	}

	verdict.Summary = datatypes.VerdictSummary{
		ToolsCalled:        verdict.ToolUsage.TotalCalls,
		PriceAccuracyRate:  accuracy,
		HallucinationCount: len(verdict.Findings),
		CriticalIssues:     len(critical),
	}

	slog.Info("orchestrate: validation complete",
		"overall_valid", verdict.OverallValid,
		"tool_calls", verdict.Summary.ToolsCalled,
		"price_checks", totalChecks,
		"findings", verdict.Summary.HallucinationCount,
		"critical", verdict.Summary.CriticalIssues,
	)

	return verdict, nil
}

// runPriceChecks validates every row carrying an entry price, appending
// range-check failures to the verdict's findings as warnings.
//
// Accuracy checks run in parallel (bounded by maxParallel) because each may
// block on a live lookup; range checks are pure and run inline afterwards
// to keep finding order deterministic.
func (o *Orchestrator) runPriceChecks(ctx context.Context, rows []datatypes.RecommendationRow, verdict *datatypes.ValidationVerdict) []datatypes.PriceCheckResult {
	var candidates []datatypes.RecommendationRow
	for _, row := range rows {
		if row.EntryPrice == nil {
			slog.Debug("orchestrate: row has no entry price, skipping", "symbol", row.Symbol)
			continue
		}
		candidates = append(candidates, row)
	}
	if len(candidates) == 0 {
		return []datatypes.PriceCheckResult{}
	}

	results := make([]datatypes.PriceCheckResult, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.maxParallel)
	for i, row := range candidates {
		i, row := i, row
		g.Go(func() error {
			results[i] = o.checker.CheckPrice(gctx, row.Symbol, *row.EntryPrice, nil)
			return nil
		})
	}
	// Workers never return errors; failures become invalid results
	_ = g.Wait()

	for _, row := range candidates {
		rangeValid, rangeMsg := o.checker.CheckPriceRange(row.Symbol, *row.EntryPrice, o.expectedRanges)
		if !rangeValid {
			verdict.Findings = append(verdict.Findings, datatypes.HallucinationFinding{
				Kind:     datatypes.FindingPriceOutOfRange,
				Severity: datatypes.SeverityWarning,
				Detail:   rangeMsg,
			})
		}
	}

	return results
}

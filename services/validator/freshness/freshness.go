// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package freshness decides whether cited data points are recent enough to
// trust and whether search queries were properly date-scoped.
//
// Unparseable input is never an error here: a timestamp that matches no
// accepted format is simply not fresh, and a query without date filters is
// simply not scoped. See the package tests for the accepted formats.
package freshness

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// DefaultMaxAge is the default freshness window for cited data points.
const DefaultMaxAge = 5 * time.Minute

// timestampLayouts are the accepted timestamp formats, tried in order.
// RFC3339 covers ISO-8601 with timezone (including trailing Z); the
// remaining layouts cover timezone-naive variants and the long-form
// month-name dates some sources embed in snippets.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"January 2, 2006 15:04:05",
	"January 2, 2006",
}

// Validator checks data-point freshness against a configurable age window.
//
// Validator holds only read-only configuration and is safe for concurrent
// use.
type Validator struct {
	maxAge time.Duration
}

// New creates a Validator with the given freshness window.
// A non-positive maxAge falls back to DefaultMaxAge.
func New(maxAge time.Duration) *Validator {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Validator{maxAge: maxAge}
}

// IsTimestampFresh reports whether timestampText parses under one of the
// accepted formats and is no older than the configured window relative to
// reference.
//
// Both sides are normalized to UTC before subtracting; timezone-naive
// timestamps are taken as UTC. Timestamps in the future relative to the
// reference count as fresh. Returns false, never an error, when no accepted
// format matches.
func (v *Validator) IsTimestampFresh(timestampText string, reference time.Time) bool {
	parsed, ok := parseTimestamp(timestampText)
	if !ok {
		slog.Debug("freshness: unparseable timestamp", "timestamp", timestampText)
		return false
	}

	age := reference.UTC().Sub(parsed.UTC())
	return age <= v.maxAge
}

// parseTimestamp tries each accepted layout in order.
func parseTimestamp(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, text); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// CheckSearchQueryDateScope reports whether a search query carries the date
// filters that pin its results to the current day.
//
// A query is properly scoped only if it contains BOTH an "after:" token
// equal to currentDate (format 2006-01-02) and a "before:" token. The
// before check accepts the bare "before:" substring without validating its
// date value, which is weaker than the after check; callers relying on
// strict next-day scoping should inspect the query themselves.
//
// The returned message names the missing filter(s) to support reporting.
// An empty currentDate defaults to today (UTC).
func CheckSearchQueryDateScope(query, currentDate string) (bool, string) {
	if currentDate == "" {
		currentDate = time.Now().UTC().Format("2006-01-02")
	}

	hasAfter := strings.Contains(query, "after:"+currentDate)

	hasBefore := strings.Contains(query, "before:")
	if parsed, err := time.Parse("2006-01-02", currentDate); err == nil {
		nextDay := parsed.AddDate(0, 0, 1).Format("2006-01-02")
		hasBefore = strings.Contains(query, "before:"+nextDay) || hasBefore
	}

	switch {
	case hasAfter && hasBefore:
		return true, "Query has proper date filters"
	case hasAfter:
		return false, "Query missing 'before' date filter"
	case hasBefore:
		return false, "Query missing 'after' date filter"
	default:
		return false, "Query missing both date filters"
	}
}

// MaxAge returns the configured freshness window.
func (v *Validator) MaxAge() time.Duration {
	return v.maxAge
}

// String implements fmt.Stringer for log output.
func (v *Validator) String() string {
	return fmt.Sprintf("freshness.Validator(maxAge=%s)", v.maxAge)
}

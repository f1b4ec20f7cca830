// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ledger records the tool calls a model actually made before
// answering.
//
// The ledger is the only stateful collaborator of the validation core. Its
// lifetime matches one response-validation cycle: the host creates (or
// resets) a ledger when it starts processing a model response, feeds every
// observed tool invocation into it, and hands it to the orchestrator once
// the response is complete.
//
// # Thread Safety
//
// All methods are safe for concurrent use. Multiple in-flight tool calls may
// record concurrently; records are append-only and insertion-ordered.
package ledger

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianSentry/services/validator/datatypes"
)

// Ledger accumulates ToolCallRecords for one validation cycle.
//
// The zero value is not usable; create instances with New.
type Ledger struct {
	mu         sync.Mutex
	records    []datatypes.ToolCallRecord
	startTimes map[string]time.Time

	// now is injectable for tests
	now func() time.Time
}

// New creates an empty Ledger.
func New() *Ledger {
	return &Ledger{
		startTimes: make(map[string]time.Time),
		now:        time.Now,
	}
}

// StartCall marks a call as in-flight so that RecordCall can compute its
// duration. Calling StartCall twice with the same ID overwrites the earlier
// start time.
func (l *Ledger) StartCall(callID, tool string, params map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.startTimes[callID] = l.now()

	slog.Debug("ledger: call started", "call_id", callID, "tool", tool, "param_count", len(params))
}

// RecordCall finalizes a tool call and appends an immutable record.
//
// If a matching StartCall exists, the elapsed duration is attached and the
// start entry cleared; otherwise the record carries no duration. Recording
// without a prior start is legal. An empty callID gets a generated UUID so
// every record stays individually addressable.
func (l *Ledger) RecordCall(callID, tool string, params map[string]any, result any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if callID == "" {
		callID = uuid.NewString()
	}

	completed := l.now()

	var durationMS *float64
	if started, ok := l.startTimes[callID]; ok {
		ms := float64(completed.Sub(started)) / float64(time.Millisecond)
		durationMS = &ms
		delete(l.startTimes, callID)
	}

	l.records = append(l.records, datatypes.ToolCallRecord{
		CallID:     callID,
		Tool:       tool,
		Params:     params,
		Result:     result,
		Timestamp:  completed,
		DurationMS: durationMS,
	})

	slog.Debug("ledger: call recorded", "call_id", callID, "tool", tool, "has_duration", durationMS != nil)
}

// Len returns the number of recorded calls.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Records returns a copy of all records in insertion order.
func (l *Ledger) Records() []datatypes.ToolCallRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]datatypes.ToolCallRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Reset discards all records and pending start times, returning the ledger
// to its initial empty state for the next validation cycle.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = nil
	l.startTimes = make(map[string]time.Time)
}

// Summary derives a ToolUsageSummary from the current records.
//
// An empty ledger yields a summary with zero calls, never an error. Distinct
// tool names and data sources are returned sorted so that reports render
// deterministically.
func (l *Ledger) Summary() datatypes.ToolUsageSummary {
	l.mu.Lock()
	defer l.mu.Unlock()

	summary := datatypes.ToolUsageSummary{
		ToolsUsed:   []string{},
		DataSources: []string{},
	}
	if len(l.records) == 0 {
		return summary
	}

	summary.TotalCalls = len(l.records)

	toolSet := make(map[string]struct{})
	sourceSet := make(map[string]struct{})
	var totalDuration float64

	for _, rec := range l.records {
		toolSet[rec.Tool] = struct{}{}
		if rec.DurationMS != nil {
			totalDuration += *rec.DurationMS
		}
		for _, src := range extractDataSources(rec) {
			sourceSet[src] = struct{}{}
		}
	}

	summary.AvgDurationMS = totalDuration / float64(len(l.records))

	for tool := range toolSet {
		summary.ToolsUsed = append(summary.ToolsUsed, tool)
	}
	sort.Strings(summary.ToolsUsed)

	for src := range sourceSet {
		summary.DataSources = append(summary.DataSources, src)
	}
	sort.Strings(summary.DataSources)

	return summary
}

// extractDataSources pulls referenced URLs out of a single record.
//
// Page-fetch tools contribute their "url" argument; search tools contribute
// every "url" inside a "results" list in the result payload. Tools that are
// neither, and payloads that don't match these shapes, contribute nothing.
func extractDataSources(rec datatypes.ToolCallRecord) []string {
	var sources []string

	switch {
	case isPageFetchTool(rec.Tool):
		if url, ok := rec.Params["url"].(string); ok && url != "" {
			sources = append(sources, url)
		}

	case isSearchTool(rec.Tool):
		resultMap, ok := rec.Result.(map[string]any)
		if !ok {
			return nil
		}
		results, ok := resultMap["results"].([]any)
		if !ok {
			return nil
		}
		for _, entry := range results {
			entryMap, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			if url, ok := entryMap["url"].(string); ok && url != "" {
				sources = append(sources, url)
			}
		}
	}

	return sources
}

// isPageFetchTool reports whether a tool name denotes a page fetch.
// The capability set is open, so this matches by naming convention rather
// than an exact list.
func isPageFetchTool(tool string) bool {
	return containsAny(tool, "browse", "fetch", "open_page")
}

// isSearchTool reports whether a tool name denotes a search.
func isSearchTool(tool string) bool {
	return containsAny(tool, "search")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

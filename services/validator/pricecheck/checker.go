// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package pricecheck catches price hallucinations by comparing model-cited
// prices against live ground truth, with a coarse expected-range sanity net
// for when live lookups are unavailable.
package pricecheck

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/AleutianAI/AleutianSentry/services/validator/datatypes"
)

// DefaultTolerancePct is the maximum allowed deviation between a cited and
// live price, in percent.
const DefaultTolerancePct = 1.0

// PriceRange is an inclusive (Min, Max) band a cited price must fall into.
type PriceRange struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Checker validates cited prices. It holds only read-only configuration and
// a PriceSource reference, so concurrent checks for different symbols are
// fully independent.
type Checker struct {
	source       PriceSource
	tolerancePct float64
}

// NewChecker creates a Checker backed by the given source.
// A non-positive tolerance falls back to DefaultTolerancePct.
func NewChecker(source PriceSource, tolerancePct float64) *Checker {
	if tolerancePct <= 0 {
		tolerancePct = DefaultTolerancePct
	}
	return &Checker{source: source, tolerancePct: tolerancePct}
}

// TolerancePct returns the configured deviation tolerance.
func (c *Checker) TolerancePct() float64 {
	return c.tolerancePct
}

// CheckPrice compares a cited price against live ground truth.
//
// When livePrice is nil the checker resolves it through its PriceSource; a
// failed lookup yields an invalid result with an explanatory message rather
// than an error. A live price of exactly zero is invalid. Otherwise the
// check passes iff |cited-live|/live*100 is within the tolerance.
//
// A NaN or infinite cited price short-circuits to invalid without any
// lookup. The method never panics on malformed input.
func (c *Checker) CheckPrice(ctx context.Context, symbol string, citedPrice float64, livePrice *float64) datatypes.PriceCheckResult {
	result := datatypes.PriceCheckResult{
		Symbol:     symbol,
		CitedPrice: citedPrice,
	}

	if math.IsNaN(citedPrice) || math.IsInf(citedPrice, 0) {
		result.Message = "Cited price is not a number, no comparison possible"
		return result
	}

	if livePrice == nil {
		fetched, err := c.source.GetPrice(ctx, symbol)
		if err != nil {
			slog.Debug("pricecheck: live lookup failed", "symbol", symbol, "error", err)
			result.Message = fmt.Sprintf("Could not fetch live price: %v", err)
			return result
		}
		livePrice = &fetched
	}
	result.LivePrice = livePrice

	if *livePrice == 0 {
		result.Message = "Invalid live price (0)"
		return result
	}

	diffPct := math.Abs(citedPrice-*livePrice) / *livePrice * 100

	if diffPct <= c.tolerancePct {
		result.Valid = true
		result.Message = fmt.Sprintf("Price within tolerance: %.2f%% (cited: $%.2f, live: $%.2f)",
			diffPct, citedPrice, *livePrice)
	} else {
		result.Message = fmt.Sprintf("Price difference too large: %.2f%% (cited: $%.2f, live: $%.2f)",
			diffPct, citedPrice, *livePrice)
	}
	return result
}

// CheckPriceRange validates a cited price against an expected band.
//
// A symbol absent from expectedRanges passes with "no expected range
// defined" (the checker has no opinion). This secondary net catches grossly
// stale citations, e.g. a $60,000 Bitcoin long after the asset traded above
// $100,000, even when the live lookup is unavailable.
func (c *Checker) CheckPriceRange(symbol string, citedPrice float64, expectedRanges map[string]PriceRange) (bool, string) {
	band, ok := expectedRanges[symbol]
	if !ok {
		return true, "No expected range defined"
	}

	if citedPrice >= band.Min && citedPrice <= band.Max {
		return true, fmt.Sprintf("Price $%.2f within expected range $%g-$%g", citedPrice, band.Min, band.Max)
	}
	return false, fmt.Sprintf("Price $%.2f outside expected range $%g-$%g", citedPrice, band.Min, band.Max)
}

// DefaultExpectedRanges returns the built-in band table for well-known
// instruments. The bands are era-specific and meant to be overridden from
// configuration as markets move.
func DefaultExpectedRanges() map[string]PriceRange {
	return map[string]PriceRange{
		"BTC-USD": {Min: 115000, Max: 125000},
		"ETH-USD": {Min: 3800, Max: 4200},
		"NVDA":    {Min: 450, Max: 550},
		"TSLA":    {Min: 380, Max: 420},
		"AAPL":    {Min: 195, Max: 205},
		"GC=F":    {Min: 2050, Max: 2150},
	}
}

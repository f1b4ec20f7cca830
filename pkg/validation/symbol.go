// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for instrument symbols.
//
// This package contains validators for symbols that end up in outbound quote
// API URLs. Using these validators prevents URL/query injection from
// model-generated recommendation tables, which are untrusted input.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// symbolPattern matches valid instrument symbols after normalization.
// Allows: uppercase letters, digits, dots (BRK.A), hyphens (BTC-USD),
// equals (EURUSD=X, GC=F). Max length: 12 characters.
var symbolPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-=]{0,11}$`)

// forexPairPattern matches slash-form forex pairs such as EUR/USD.
var forexPairPattern = regexp.MustCompile(`^[A-Z]{3}/[A-Z]{3}$`)

// ValidateSymbol validates an instrument symbol to prevent URL injection.
//
// Valid symbols:
//   - 1-12 characters
//   - Uppercase letters A-Z and digits 0-9
//   - Dots (.) for class shares like BRK.A
//   - Hyphens (-) for crypto pairs like BTC-USD
//   - Equals (=) for Yahoo forex/futures forms like EURUSD=X, GC=F
//
// Returns an error if the symbol is invalid.
//
// Example:
//
//	if err := validation.ValidateSymbol(symbol); err != nil {
//	    return nil, fmt.Errorf("invalid symbol: %w", err)
//	}
//	// Safe to interpolate into a quote API path
func ValidateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}

	if !symbolPattern.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format: %q (must be 1-12 uppercase alphanumeric chars, dots, hyphens, or equals)", symbol)
	}

	return nil
}

// SanitizeSymbol normalizes and validates an instrument symbol.
// Returns the uppercase, slash-normalized symbol if valid, or an error.
//
// Slash-form forex pairs are converted to the Yahoo Finance identifier
// format before validation:
//
//	EUR/USD -> EURUSD=X
//	gbp/usd -> GBPUSD=X
//
// Use this when you need both validation and normalization:
//
//	safeSymbol, err := validation.SanitizeSymbol(row.Symbol)
//	if err != nil {
//	    return err
//	}
func SanitizeSymbol(symbol string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	if forexPairPattern.MatchString(normalized) {
		normalized = strings.ReplaceAll(normalized, "/", "") + "=X"
	}
	if err := ValidateSymbol(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}

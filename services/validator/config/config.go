// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads validator settings from the environment, with an
// optional YAML file for the expected-price-range table.
//
// Every setting has a working default so the service starts with no
// configuration at all. Invalid values fail loudly at startup instead of
// being silently replaced.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianSentry/services/validator/pricecheck"
)

// Environment variables read by Load.
const (
	EnvPort          = "PORT"
	EnvTolerancePct  = "VALIDATOR_TOLERANCE_PCT"
	EnvMaxAge        = "VALIDATOR_MAX_DATA_AGE"
	EnvMaxParallel   = "VALIDATOR_MAX_PARALLEL_CHECKS"
	EnvLookupTimeout = "VALIDATOR_LOOKUP_TIMEOUT"
	EnvRangesFile    = "VALIDATOR_RANGES_FILE"
)

// Config holds all runtime settings for the validator service.
type Config struct {
	// Port is the HTTP listen port.
	Port string

	// TolerancePct is the allowed deviation between cited and live prices,
	// in percent.
	TolerancePct float64

	// MaxDataAge is the freshness window for cited timestamps.
	MaxDataAge time.Duration

	// MaxParallelChecks bounds concurrent live-price lookups per run.
	MaxParallelChecks int

	// LookupTimeout bounds each live-price HTTP request.
	LookupTimeout time.Duration

	// ExpectedRanges maps symbols to sanity-check price ranges. Loaded
	// from EnvRangesFile when set, otherwise the built-in table.
	ExpectedRanges map[string]pricecheck.PriceRange
}

// Load reads configuration from the environment, applying defaults for
// anything unset. Returns an error for malformed values or an unreadable
// ranges file.
func Load() (*Config, error) {
	cfg := &Config{
		Port:              "8004",
		TolerancePct:      pricecheck.DefaultTolerancePct,
		MaxDataAge:        5 * time.Minute,
		MaxParallelChecks: 4,
		LookupTimeout:     10 * time.Second,
		ExpectedRanges:    pricecheck.DefaultExpectedRanges(),
	}

	if port := os.Getenv(EnvPort); port != "" {
		cfg.Port = port
	}

	if raw := os.Getenv(EnvTolerancePct); raw != "" {
		pct, err := strconv.ParseFloat(raw, 64)
		if err != nil || pct <= 0 {
			return nil, fmt.Errorf("config: invalid %s %q", EnvTolerancePct, raw)
		}
		cfg.TolerancePct = pct
	}

	if raw := os.Getenv(EnvMaxAge); raw != "" {
		age, err := time.ParseDuration(raw)
		if err != nil || age <= 0 {
			return nil, fmt.Errorf("config: invalid %s %q", EnvMaxAge, raw)
		}
		cfg.MaxDataAge = age
	}

	if raw := os.Getenv(EnvMaxParallel); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("config: invalid %s %q", EnvMaxParallel, raw)
		}
		cfg.MaxParallelChecks = n
	}

	if raw := os.Getenv(EnvLookupTimeout); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("config: invalid %s %q", EnvLookupTimeout, raw)
		}
		cfg.LookupTimeout = d
	}

	if path := os.Getenv(EnvRangesFile); path != "" {
		ranges, err := LoadRangesFile(path)
		if err != nil {
			return nil, err
		}
		cfg.ExpectedRanges = ranges
	}

	return cfg, nil
}

// rangesFile is the YAML document shape for an expected-ranges override.
//
//	ranges:
//	  BTC-USD: {min: 115000, max: 125000}
//	  NVDA:    {min: 450, max: 550}
type rangesFile struct {
	Ranges map[string]pricecheck.PriceRange `yaml:"ranges"`
}

// LoadRangesFile reads an expected-price-range table from a YAML file.
func LoadRangesFile(path string) (map[string]pricecheck.PriceRange, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read ranges file: %w", err)
	}

	var doc rangesFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parse ranges file %s: %w", path, err)
	}
	if len(doc.Ranges) == 0 {
		return nil, fmt.Errorf("config: ranges file %s defines no ranges", path)
	}

	for symbol, r := range doc.Ranges {
		if r.Min >= r.Max {
			return nil, fmt.Errorf("config: range for %s has min %.2f >= max %.2f", symbol, r.Min, r.Max)
		}
	}

	return doc.Ranges, nil
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{EnvPort, EnvTolerancePct, EnvMaxAge, EnvMaxParallel, EnvLookupTimeout, EnvRangesFile} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8004", cfg.Port)
	assert.Equal(t, 1.0, cfg.TolerancePct)
	assert.Equal(t, 5*time.Minute, cfg.MaxDataAge)
	assert.Equal(t, 4, cfg.MaxParallelChecks)
	assert.Equal(t, 10*time.Second, cfg.LookupTimeout)
	assert.Contains(t, cfg.ExpectedRanges, "BTC-USD")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv(EnvPort, "9090")
	t.Setenv(EnvTolerancePct, "2.5")
	t.Setenv(EnvMaxAge, "10m")
	t.Setenv(EnvMaxParallel, "8")
	t.Setenv(EnvLookupTimeout, "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 2.5, cfg.TolerancePct)
	assert.Equal(t, 10*time.Minute, cfg.MaxDataAge)
	assert.Equal(t, 8, cfg.MaxParallelChecks)
	assert.Equal(t, 30*time.Second, cfg.LookupTimeout)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric tolerance", EnvTolerancePct, "abc"},
		{"negative tolerance", EnvTolerancePct, "-1"},
		{"bad duration", EnvMaxAge, "five minutes"},
		{"zero parallel", EnvMaxParallel, "0"},
		{"bad timeout", EnvLookupTimeout, "-3s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadRangesFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "ranges.yaml")
		content := "ranges:\n  BTC-USD: {min: 100000, max: 130000}\n  NVDA: {min: 400, max: 600}\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		ranges, err := LoadRangesFile(path)
		require.NoError(t, err)

		require.Len(t, ranges, 2)
		assert.Equal(t, 100000.0, ranges["BTC-USD"].Min)
		assert.Equal(t, 600.0, ranges["NVDA"].Max)
	})

	t.Run("inverted range rejected", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		content := "ranges:\n  TSLA: {min: 500, max: 400}\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		_, err := LoadRangesFile(path)
		assert.ErrorContains(t, err, "TSLA")
	})

	t.Run("empty document rejected", func(t *testing.T) {
		path := filepath.Join(dir, "empty.yaml")
		require.NoError(t, os.WriteFile(path, []byte("ranges: {}\n"), 0o644))

		_, err := LoadRangesFile(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRangesFile(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("env wiring", func(t *testing.T) {
		path := filepath.Join(dir, "wired.yaml")
		content := "ranges:\n  ETH-USD: {min: 3000, max: 5000}\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		t.Setenv(EnvRangesFile, path)

		cfg, err := Load()
		require.NoError(t, err)

		require.Len(t, cfg.ExpectedRanges, 1)
		assert.Equal(t, 3000.0, cfg.ExpectedRanges["ETH-USD"].Min)
	})
}

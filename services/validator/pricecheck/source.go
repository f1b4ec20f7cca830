// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pricecheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/AleutianAI/AleutianSentry/pkg/validation"
)

// ErrPriceUnavailable indicates the source has no current price for the
// symbol. The checker treats this as a data point (an invalid check), not a
// fatal error.
var ErrPriceUnavailable = errors.New("price unavailable")

// PriceSource resolves a current numeric price for an instrument symbol.
//
// Implementations must be safe for concurrent use; the orchestrator issues
// one lookup per recommendation row in parallel.
type PriceSource interface {
	// GetPrice returns the latest price for symbol. It must honor ctx
	// cancellation and wrap "no such symbol" conditions in
	// ErrPriceUnavailable.
	GetPrice(ctx context.Context, symbol string) (float64, error)
}

// HTTPClient interface allows injecting mock HTTP clients for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// --- Yahoo Finance Structs ---

type yahooChartResponse struct {
	Chart struct {
		Result []yahooResult `json:"result"`
		Error  interface{}   `json:"error"`
	} `json:"chart"`
}

type yahooResult struct {
	Meta struct {
		Currency string `json:"currency"`
		Symbol   string `json:"symbol"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

// YahooPriceSource fetches live prices from the Yahoo Finance chart API.
//
// The zero value is not usable; create instances with NewYahooPriceSource.
// Requests are rate limited so a burst of parallel lookups cannot trip
// Yahoo's throttling, and each call carries its own timeout so one
// unreachable lookup cannot stall a validation run.
type YahooPriceSource struct {
	client  HTTPClient
	limiter *rate.Limiter
	timeout time.Duration
}

// YahooOption customizes a YahooPriceSource.
type YahooOption func(*YahooPriceSource)

// WithHTTPClient injects a custom HTTP client (used by tests to mock the
// Yahoo API).
func WithHTTPClient(client HTTPClient) YahooOption {
	return func(s *YahooPriceSource) { s.client = client }
}

// WithLookupTimeout bounds each individual price lookup.
func WithLookupTimeout(timeout time.Duration) YahooOption {
	return func(s *YahooPriceSource) { s.timeout = timeout }
}

// WithRateLimit overrides the request rate limit (requests per second).
func WithRateLimit(rps float64, burst int) YahooOption {
	return func(s *YahooPriceSource) { s.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// NewYahooPriceSource creates a source with sane defaults: a 10-second
// per-lookup timeout and 5 requests/second with a burst of 10.
func NewYahooPriceSource(opts ...YahooOption) *YahooPriceSource {
	s := &YahooPriceSource{
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(5), 10),
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetPrice returns the latest 1-minute close for symbol.
//
// The symbol is sanitized before it is interpolated into the request URL;
// forex pairs like EUR/USD are converted to Yahoo's EURUSD=X form. Missing
// data for a valid-looking symbol surfaces as ErrPriceUnavailable.
func (s *YahooPriceSource) GetPrice(ctx context.Context, symbol string) (float64, error) {
	safeSymbol, err := validation.SanitizeSymbol(symbol)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limit wait: %w", err)
	}

	end := time.Now().Unix()
	start := end - 24*60*60

	url := fmt.Sprintf(
		"https://query1.finance.yahoo.com/v8/finance/chart/%s?period1=%d&period2=%d&interval=1m&events=history",
		safeSymbol, start, end,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to call Yahoo API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, fmt.Errorf("%w: no instrument %s", ErrPriceUnavailable, safeSymbol)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("Yahoo API returned status %s", resp.Status)
	}

	var chartData yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chartData); err != nil {
		return 0, fmt.Errorf("failed to decode Yahoo JSON: %w", err)
	}

	if chartData.Chart.Error != nil {
		return 0, fmt.Errorf("%w: Yahoo API error: %v", ErrPriceUnavailable, chartData.Chart.Error)
	}
	if len(chartData.Chart.Result) == 0 {
		return 0, fmt.Errorf("%w: no results for %s", ErrPriceUnavailable, safeSymbol)
	}

	quotes := chartData.Chart.Result[0].Indicators.Quote
	if len(quotes) == 0 || len(quotes[0].Close) == 0 {
		return 0, fmt.Errorf("%w: no close prices for %s", ErrPriceUnavailable, safeSymbol)
	}

	// Latest non-zero close; Yahoo pads trailing minutes with zeros while
	// the current bar is still forming
	closes := quotes[0].Close
	for i := len(closes) - 1; i >= 0; i-- {
		if closes[i] != 0 {
			return closes[i], nil
		}
	}
	return 0, fmt.Errorf("%w: only zero closes for %s", ErrPriceUnavailable, safeSymbol)
}

// StaticPriceSource serves prices from a fixed map. Used by tests and by
// offline CLI runs where live lookups are undesirable.
type StaticPriceSource struct {
	Prices map[string]float64
}

// GetPrice returns the mapped price or ErrPriceUnavailable. Symbols are
// sanitized with the same rules as the live source so EUR/USD and EURUSD=X
// resolve identically.
func (s *StaticPriceSource) GetPrice(_ context.Context, symbol string) (float64, error) {
	safeSymbol, err := validation.SanitizeSymbol(symbol)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}
	price, ok := s.Prices[safeSymbol]
	if !ok {
		return 0, fmt.Errorf("%w: no price for %s", ErrPriceUnavailable, safeSymbol)
	}
	return price, nil
}

var (
	_ PriceSource = (*YahooPriceSource)(nil)
	_ PriceSource = (*StaticPriceSource)(nil)
)

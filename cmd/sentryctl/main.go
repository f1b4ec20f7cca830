// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// sentryctl validates recorded trading-assistant sessions offline.
//
// A session file carries the model's response text, the parsed
// recommendation table, and the tool calls recorded while the response was
// generated. Validation runs the same pipeline as the HTTP service; pass
// --prices to pin live prices instead of querying Yahoo Finance.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianSentry/pkg/logging"
	"github.com/AleutianAI/AleutianSentry/services/validator/config"
	"github.com/AleutianAI/AleutianSentry/services/validator/datatypes"
	"github.com/AleutianAI/AleutianSentry/services/validator/freshness"
	"github.com/AleutianAI/AleutianSentry/services/validator/hallucination"
	"github.com/AleutianAI/AleutianSentry/services/validator/ledger"
	"github.com/AleutianAI/AleutianSentry/services/validator/orchestrate"
	"github.com/AleutianAI/AleutianSentry/services/validator/pricecheck"
)

// SessionFile is one recorded assistant session.
type SessionFile struct {
	ResponseText    string                        `json:"response_text"`
	Recommendations []datatypes.RecommendationRow `json:"recommendations"`
	ToolCalls       []SessionToolCall             `json:"tool_calls"`
}

// SessionToolCall is one tool invocation replayed into the ledger.
type SessionToolCall struct {
	CallID string         `json:"call_id"`
	Tool   string         `json:"tool"`
	Params map[string]any `json:"params"`
	Result any            `json:"result"`
}

var (
	pricesPath   string
	rangesPath   string
	tolerancePct float64
	jsonOutput   bool

	currentDate string

	rootCmd = &cobra.Command{
		Use:   "sentryctl",
		Short: "A cli to validate AI trading-assistant responses",
		Long: `Sentryctl runs the Aleutian Sentry validation pipeline over
				recorded assistant sessions: tool usage, price accuracy,
				and hallucination detection.`,
	}

	validateCmd = &cobra.Command{
		Use:   "validate [session file]",
		Short: "Validate a recorded session and print the report",
		Args:  cobra.ExactArgs(1),
		Run:   runValidate,
	}

	queryScopeCmd = &cobra.Command{
		Use:   "query-scope [query]",
		Short: "Check whether a search query is date-scoped to the current trading day",
		Args:  cobra.ExactArgs(1),
		Run:   runQueryScope,
	}
)

func init() {
	validateCmd.Flags().StringVar(&pricesPath, "prices", "", "JSON file of symbol->price overrides (skips live lookups)")
	validateCmd.Flags().StringVar(&rangesPath, "ranges", "", "YAML file overriding the expected-price-range table")
	validateCmd.Flags().Float64Var(&tolerancePct, "tolerance", pricecheck.DefaultTolerancePct, "Allowed price deviation in percent")
	validateCmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the full verdict as JSON instead of the text report")

	queryScopeCmd.Flags().StringVar(&currentDate, "date", "", "Current trading day as YYYY-MM-DD (required)")
	queryScopeCmd.MarkFlagRequired("date")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(queryScopeCmd)
}

func main() {
	logging.Setup(logging.Config{Service: "sentryctl", Format: logging.FormatText})
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func runValidate(cmd *cobra.Command, args []string) {
	session, err := loadSession(args[0])
	if err != nil {
		log.Fatalf("Failed to load session: %v", err)
	}

	led := ledger.New()
	for _, call := range session.ToolCalls {
		led.RecordCall(call.CallID, call.Tool, call.Params, call.Result)
	}

	source, err := buildSource()
	if err != nil {
		log.Fatalf("Failed to build price source: %v", err)
	}

	opts := []orchestrate.Option{}
	if rangesPath != "" {
		ranges, err := config.LoadRangesFile(rangesPath)
		if err != nil {
			log.Fatalf("Failed to load ranges: %v", err)
		}
		opts = append(opts, orchestrate.WithExpectedRanges(ranges))
	}

	orch := orchestrate.New(
		pricecheck.NewChecker(source, tolerancePct),
		hallucination.NewDetector(),
		opts...,
	)

	verdict, err := orch.Validate(context.Background(), session.ResponseText, session.Recommendations, led)
	if err != nil {
		log.Fatalf("Validation failed: %v", err)
	}

	if jsonOutput {
		encoded, err := json.MarshalIndent(verdict, "", "  ")
		if err != nil {
			log.Fatalf("Failed to encode verdict: %v", err)
		}
		fmt.Println(string(encoded))
	} else {
		fmt.Print(orchestrate.Report(verdict))
	}

	if !verdict.OverallValid {
		os.Exit(1)
	}
}

func runQueryScope(cmd *cobra.Command, args []string) {
	scoped, message := freshness.CheckSearchQueryDateScope(args[0], currentDate)

	fmt.Println(message)
	if !scoped {
		os.Exit(1)
	}
}

func loadSession(path string) (*SessionFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var session SessionFile
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if session.ResponseText == "" {
		return nil, fmt.Errorf("%s has no response_text", path)
	}
	return &session, nil
}

// buildSource returns a static source when --prices is set, otherwise the
// live Yahoo Finance source.
func buildSource() (pricecheck.PriceSource, error) {
	if pricesPath == "" {
		return pricecheck.NewYahooPriceSource(), nil
	}

	data, err := os.ReadFile(pricesPath)
	if err != nil {
		return nil, err
	}

	var prices map[string]float64
	if err := json.Unmarshal(data, &prices); err != nil {
		return nil, fmt.Errorf("parse %s: %w", pricesPath, err)
	}
	return &pricecheck.StaticPriceSource{Prices: prices}, nil
}

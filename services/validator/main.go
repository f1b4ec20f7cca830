// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Aleutian Sentry validator service.
//
// Exposes the tool-call ledger and validation orchestrator over HTTP so the
// trading assistant can record tool activity during response generation and
// validate the finished response in one call.
package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/AleutianSentry/pkg/logging"
	"github.com/AleutianAI/AleutianSentry/services/validator/config"
	"github.com/AleutianAI/AleutianSentry/services/validator/datatypes"
	"github.com/AleutianAI/AleutianSentry/services/validator/freshness"
	"github.com/AleutianAI/AleutianSentry/services/validator/hallucination"
	"github.com/AleutianAI/AleutianSentry/services/validator/ledger"
	"github.com/AleutianAI/AleutianSentry/services/validator/observability"
	"github.com/AleutianAI/AleutianSentry/services/validator/orchestrate"
	"github.com/AleutianAI/AleutianSentry/services/validator/pricecheck"
)

// Server holds the per-process validation state: one ledger accumulating
// tool calls between validations, plus the stateless orchestrator.
type Server struct {
	Ledger       *ledger.Ledger
	Orchestrator *orchestrate.Orchestrator
	Freshness    *freshness.Validator
	Metrics      *observability.ValidationMetrics
}

func main() {
	logging.Setup(logging.Config{Service: "validator", Format: logging.FormatJSON})

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting Aleutian Sentry validator",
		"tolerance_pct", cfg.TolerancePct,
		"max_data_age", cfg.MaxDataAge.String(),
		"max_parallel_checks", cfg.MaxParallelChecks,
		"expected_ranges", len(cfg.ExpectedRanges))

	source := pricecheck.NewYahooPriceSource(
		pricecheck.WithLookupTimeout(cfg.LookupTimeout),
	)
	checker := pricecheck.NewChecker(source, cfg.TolerancePct)
	detector := hallucination.NewDetector()

	server := &Server{
		Ledger: ledger.New(),
		Orchestrator: orchestrate.New(checker, detector,
			orchestrate.WithExpectedRanges(cfg.ExpectedRanges),
			orchestrate.WithMaxParallelChecks(cfg.MaxParallelChecks),
		),
		Freshness: freshness.New(cfg.MaxDataAge),
		Metrics:   observability.InitMetrics(),
	}

	router := gin.Default()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "aleutian-sentry-validator"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Ledger endpoints
	router.POST("/v1/tools/start", server.handleToolStart)
	router.POST("/v1/tools/record", server.handleToolRecord)
	router.GET("/v1/tools/summary", server.handleToolSummary)
	router.POST("/v1/tools/reset", server.handleToolReset)

	// Freshness endpoints
	router.POST("/v1/freshness/timestamp", server.handleFreshnessTimestamp)
	router.POST("/v1/freshness/query", server.handleFreshnessQuery)

	// Validation endpoints
	router.POST("/v1/validate", server.handleValidate)

	port := cfg.Port
	slog.Info("Starting validator API server", "port", port)
	if err := router.Run(":" + port); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// handleToolStart marks a tool call as in-flight so its duration can be
// measured when the matching record arrives.
func (s *Server) handleToolStart(c *gin.Context) {
	var req datatypes.ToolStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	s.Ledger.StartCall(req.CallID, req.Tool, req.Params)
	c.JSON(http.StatusOK, gin.H{"status": "started", "call_id": req.CallID})
}

// handleToolRecord appends a completed tool call to the ledger.
func (s *Server) handleToolRecord(c *gin.Context) {
	var req datatypes.ToolRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	s.Ledger.RecordCall(req.CallID, req.Tool, req.Params, req.Result)
	c.JSON(http.StatusOK, gin.H{"status": "recorded", "total_calls": s.Ledger.Len()})
}

// handleToolSummary returns the usage summary of the current ledger.
func (s *Server) handleToolSummary(c *gin.Context) {
	c.JSON(http.StatusOK, s.Ledger.Summary())
}

// handleToolReset clears the ledger for the next validation cycle.
func (s *Server) handleToolReset(c *gin.Context) {
	s.Ledger.Reset()
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

// FreshnessTimestampRequest checks whether a cited timestamp is recent
// enough to trust. Reference defaults to now when omitted.
type FreshnessTimestampRequest struct {
	Timestamp string     `json:"timestamp" binding:"required"`
	Reference *time.Time `json:"reference,omitempty"`
}

// FreshnessQueryRequest checks whether a search query is date-scoped to the
// given current date (YYYY-MM-DD).
type FreshnessQueryRequest struct {
	Query       string `json:"query" binding:"required"`
	CurrentDate string `json:"current_date" binding:"required"`
}

// handleFreshnessTimestamp reports whether a cited timestamp falls inside
// the configured freshness window.
func (s *Server) handleFreshnessTimestamp(c *gin.Context) {
	var req FreshnessTimestampRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	reference := time.Now()
	if req.Reference != nil {
		reference = *req.Reference
	}

	fresh := s.Freshness.IsTimestampFresh(req.Timestamp, reference)
	c.JSON(http.StatusOK, gin.H{"fresh": fresh, "max_age": s.Freshness.MaxAge().String()})
}

// handleFreshnessQuery reports whether a search query carries proper date
// filters for the given trading day.
func (s *Server) handleFreshnessQuery(c *gin.Context) {
	var req FreshnessQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	scoped, message := freshness.CheckSearchQueryDateScope(req.Query, req.CurrentDate)
	c.JSON(http.StatusOK, gin.H{"scoped": scoped, "message": message})
}

// handleValidate runs the full validation pipeline over one model response
// and the ledger accumulated since the last reset.
func (s *Server) handleValidate(c *gin.Context) {
	var req datatypes.ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	started := time.Now()
	verdict, err := s.Orchestrator.Validate(c.Request.Context(), req.ResponseText, req.Recommendations, s.Ledger)
	if err != nil {
		slog.Error("Validation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Validation failed", "details": err.Error()})
		return
	}

	s.Metrics.ObserveVerdict(verdict, time.Since(started).Seconds())

	c.JSON(http.StatusOK, datatypes.ValidateResponse{
		Verdict: verdict,
		Report:  orchestrate.Report(verdict),
	})
}

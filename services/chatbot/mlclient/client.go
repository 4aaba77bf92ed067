// Copyright (C) 2026 FintechIQ (opensource@fintechiq.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package mlclient is the HTTP client for the external ML prediction
// service. The chatbot forwards the first extracted symbol and the resolved
// algorithm entity; prediction itself happens out of process.
package mlclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var (
	mlRequestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finsight",
		Subsystem: "mlclient",
		Name:      "request_total",
		Help:      "ML service calls by operation and outcome",
	}, []string{"operation", "outcome"})

	mlRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "finsight",
		Subsystem: "mlclient",
		Name:      "request_latency_seconds",
		Help:      "ML service call latency by operation",
		Buckets:   []float64{0.05, 0.1, 0.5, 1.0, 5.0, 15.0, 60.0},
	}, []string{"operation"})
)

// =============================================================================
// OTel Tracer
// =============================================================================

var tracer = otel.Tracer("finsight.chatbot.mlclient")

// =============================================================================
// Wire Types
// =============================================================================

// Algorithms accepted by the ML service. "best" lets the service pick the
// lowest-error model it has for the symbol.
var Algorithms = []string{"lstm", "ann", "arima", "gru", "cnn_lstm", "xgboost", "prophet", "best"}

// DefaultAlgorithm is used when the utterance carries no algorithm entity.
const DefaultAlgorithm = "best"

// PredictRequest is the POST /predict payload.
type PredictRequest struct {
	Ticker    string `json:"ticker"`
	InputDays int    `json:"input_days"`
	Algorithm string `json:"algorithm"`
}

// PredictResponse is the prediction result for one symbol.
type PredictResponse struct {
	Ticker         string  `json:"ticker"`
	Algorithm      string  `json:"algorithm"`
	CurrentPrice   float64 `json:"current_price"`
	PredictedPrice float64 `json:"predicted_price"`
	ChangePercent  float64 `json:"change_percent"`
	Currency       string  `json:"currency"`
	ModelError     float64 `json:"model_error,omitempty"`
}

// TrainRequest is the POST /train payload.
type TrainRequest struct {
	Tickers    []string `json:"tickers"`
	Algorithms []string `json:"algorithms"`
	Epochs     int      `json:"epochs,omitempty"`
}

// TrainResponse acknowledges a training job.
type TrainResponse struct {
	JobID   string   `json:"job_id"`
	Status  string   `json:"status"`
	Tickers []string `json:"tickers"`
}

// ModelInfo describes one trained model known to the service.
type ModelInfo struct {
	Ticker    string  `json:"ticker"`
	Algorithm string  `json:"algorithm"`
	TrainedAt string  `json:"trained_at"`
	ErrorRate float64 `json:"error_rate"`
}

// HistoryPoint is one close price in a symbol's history.
type HistoryPoint struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// Advice is the investment-advice summary for one symbol.
type Advice struct {
	Ticker         string  `json:"ticker"`
	Recommendation string  `json:"recommendation"`
	ChangePercent  float64 `json:"change_percent"`
	Volatility     float64 `json:"volatility"`
	Summary        string  `json:"summary"`
}

type serviceError struct {
	Error string `json:"error"`
}

// ErrUnavailable reports that the ML service could not be reached or
// returned a non-success status. Callers fall back to a canned reply.
var ErrUnavailable = errors.New("mlclient: prediction service unavailable")

// =============================================================================
// Client
// =============================================================================

// Client talks to the ML prediction service.
//
// Thread Safety: Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// New creates a Client for the given base URL (e.g. "http://ml:8000").
func New(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		// Training and cold predictions can be slow; the per-call context
		// carries the real deadline.
		httpClient: &http.Client{Timeout: 120 * time.Second},
		baseURL:    baseURL,
		logger:     logger,
	}
}

// Predict requests a next-close prediction for one ticker.
func (c *Client) Predict(ctx context.Context, req PredictRequest) (*PredictResponse, error) {
	if req.Algorithm == "" {
		req.Algorithm = DefaultAlgorithm
	}
	if req.InputDays <= 0 {
		req.InputDays = 60
	}
	var out PredictResponse
	if err := c.post(ctx, "predict", "/predict", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Train submits a training job for one or more tickers.
func (c *Client) Train(ctx context.Context, req TrainRequest) (*TrainResponse, error) {
	if len(req.Algorithms) == 0 {
		req.Algorithms = []string{DefaultAlgorithm}
	}
	var out TrainResponse
	if err := c.post(ctx, "train", "/train", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Models lists all trained models.
func (c *Client) Models(ctx context.Context) ([]ModelInfo, error) {
	var out []ModelInfo
	if err := c.get(ctx, "models", "/models", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// History returns the recent close-price history for a symbol.
func (c *Client) History(ctx context.Context, symbol string) ([]HistoryPoint, error) {
	var out []HistoryPoint
	if err := c.get(ctx, "history", "/history/"+symbol, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// InvestmentAdvice returns the advice summary for a symbol.
func (c *Client) InvestmentAdvice(ctx context.Context, symbol string) (*Advice, error) {
	var out Advice
	if err := c.get(ctx, "advice", "/investment-advice/"+symbol, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, op, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("mlclient: marshal %s request: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("mlclient: build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, op, out)
}

func (c *Client) get(ctx context.Context, op, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("mlclient: build %s request: %w", op, err)
	}
	return c.do(req, op, out)
}

func (c *Client) do(req *http.Request, op string, out any) error {
	ctx, span := tracer.Start(req.Context(), "mlclient."+op)
	defer span.End()
	span.SetAttributes(
		attribute.String("operation", op),
		attribute.String("url", req.URL.String()),
	)
	req = req.WithContext(ctx)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	mlRequestLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		mlRequestTotal.WithLabelValues(op, "error").Inc()
		c.logger.Warn("ml service request failed",
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		mlRequestTotal.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("%w: read %s response: %v", ErrUnavailable, op, err)
	}

	if resp.StatusCode != http.StatusOK {
		var svcErr serviceError
		_ = json.Unmarshal(raw, &svcErr)
		span.SetStatus(codes.Error, svcErr.Error)
		mlRequestTotal.WithLabelValues(op, "error").Inc()
		c.logger.Warn("ml service returned error status",
			slog.String("operation", op),
			slog.Int("status", resp.StatusCode),
			slog.String("error", svcErr.Error),
		)
		return fmt.Errorf("%w: %s: status %d", ErrUnavailable, op, resp.StatusCode)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		mlRequestTotal.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("mlclient: decode %s response: %w", op, err)
	}
	mlRequestTotal.WithLabelValues(op, "success").Inc()
	return nil
}

// Copyright (C) 2026 FintechIQ (opensource@fintechiq.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package market is the HTTP client for the live price service: per-symbol
// quotes and the gold rate. Symbol normalization follows the price service's
// convention that bare symbols default to the Indian exchange.
package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var marketRequestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "finsight",
	Subsystem: "market",
	Name:      "request_total",
	Help:      "Price service calls by operation and outcome",
}, []string{"operation", "outcome"})

// =============================================================================
// OTel Tracer
// =============================================================================

var tracer = otel.Tracer("finsight.chatbot.market")

// =============================================================================
// Wire Types
// =============================================================================

// Quote is one live price snapshot.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Currency      string  `json:"currency"`
	ChangePercent float64 `json:"change_percent"`
	Exchange      string  `json:"exchange"`
}

// GoldRate is the current gold price in INR per 10 grams, derived from the
// USD gold spot and the USD/INR rate.
type GoldRate struct {
	PricePerTenGramINR float64 `json:"price_per_10g_inr"`
	SpotUSD            float64 `json:"spot_usd"`
	USDINR             float64 `json:"usd_inr"`
}

type fxResponse struct {
	Rate float64 `json:"rate"`
}

type spotResponse struct {
	PriceUSD float64 `json:"price_usd"`
}

// ErrUnavailable reports that the price service could not be reached or
// returned a non-success status.
var ErrUnavailable = errors.New("market: price service unavailable")

// gramsPerOunce converts the per-ounce spot quote to the Indian per-10g
// retail convention.
const gramsPerOunce = 31.1035

// =============================================================================
// Client
// =============================================================================

// Client talks to the live price service.
//
// Thread Safety: Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	usSymbols  map[string]bool
	logger     *slog.Logger
}

// New creates a Client. usSymbols lists the symbols that never receive the
// .NS suffix; everything else defaults to the Indian exchange.
func New(baseURL string, usSymbols []string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
		usSymbols:  make(map[string]bool, len(usSymbols)),
		logger:     logger,
	}
	for _, s := range usSymbols {
		c.usSymbols[strings.ToUpper(s)] = true
	}
	return c
}

// NormalizeSymbol applies the exchange-suffix convention: a bare symbol not
// in the US registry gets ".NS"; suffixed symbols pass through unchanged.
func (c *Client) NormalizeSymbol(symbol string) string {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	if sym == "" || strings.Contains(sym, ".") || c.usSymbols[sym] {
		return sym
	}
	return sym + ".NS"
}

// Price fetches the live quote for one symbol.
func (c *Client) Price(ctx context.Context, symbol string) (*Quote, error) {
	sym := c.NormalizeSymbol(symbol)
	var out Quote
	if err := c.get(ctx, "price", "/price/"+sym, &out); err != nil {
		return nil, err
	}
	if out.Symbol == "" {
		out.Symbol = sym
	}
	return &out, nil
}

// Gold fetches the gold spot and the USD/INR rate concurrently and derives
// the INR per-10g price.
func (c *Client) Gold(ctx context.Context) (*GoldRate, error) {
	ctx, span := tracer.Start(ctx, "market.Gold")
	defer span.End()

	var (
		spot spotResponse
		fx   fxResponse
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.get(gctx, "gold_spot", "/spot/gold", &spot)
	})
	g.Go(func() error {
		return c.get(gctx, "usd_inr", "/fx/usdinr", &fx)
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if spot.PriceUSD <= 0 || fx.Rate <= 0 {
		return nil, fmt.Errorf("%w: non-positive gold spot or fx rate", ErrUnavailable)
	}
	rate := &GoldRate{
		SpotUSD: spot.PriceUSD,
		USDINR:  fx.Rate,
	}
	rate.PricePerTenGramINR = spot.PriceUSD / gramsPerOunce * 10 * fx.Rate
	span.SetAttributes(attribute.Float64("gold.inr_per_10g", rate.PricePerTenGramINR))
	return rate, nil
}

func (c *Client) get(ctx context.Context, op, path string, out any) error {
	ctx, span := tracer.Start(ctx, "market."+op)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("market: build %s request: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		marketRequestTotal.WithLabelValues(op, "error").Inc()
		c.logger.Warn("price service request failed",
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		marketRequestTotal.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("%w: read %s response: %v", ErrUnavailable, op, err)
	}
	if resp.StatusCode != http.StatusOK {
		span.SetStatus(codes.Error, resp.Status)
		marketRequestTotal.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("%w: %s: status %d", ErrUnavailable, op, resp.StatusCode)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		marketRequestTotal.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("market: decode %s response: %w", op, err)
	}
	marketRequestTotal.WithLabelValues(op, "success").Inc()
	return nil
}

// Copyright (C) 2026 FintechIQ (opensource@fintechiq.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package llm is the best-effort fallback for allowed utterances the rule
// pipeline could not resolve. It talks to any OpenAI-compatible chat
// completions endpoint using raw net/http. A failure here never fails the
// chat request; the caller falls back to a canned reply.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

// =============================================================================
// Wire Types
// =============================================================================

const defaultBaseURL = "https://api.openai.com/v1/chat/completions"

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// systemPrompt keeps the fallback on-domain; the topic guard has already
// allowed the utterance, so this only constrains tone and scope.
const systemPrompt = "You are a concise stock market assistant for Indian and US markets. " +
	"Answer in the language of the question (English or Tamil). " +
	"If the question is not about markets, investing, or personal finance, say you can only help with stock market topics."

// ErrNotConfigured reports that no API key is present; the fallback is
// simply disabled, not broken.
var ErrNotConfigured = errors.New("llm: fallback not configured")

// ErrThrottled reports that the local rate limiter rejected the call.
var ErrThrottled = errors.New("llm: fallback rate limit exceeded")

// =============================================================================
// OTel Tracer
// =============================================================================

var tracer = otel.Tracer("finsight.llm")

// =============================================================================
// Client
// =============================================================================

// Client calls an OpenAI-compatible chat completions API.
//
// Description:
//
//	The fallback is strictly best-effort and sits behind a local rate
//	limiter so a burst of unknown-intent traffic cannot run up an API
//	bill. User text is scrubbed of obvious personal identifiers before it
//	leaves the process.
//
// Thread Safety: Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	apiKey     string
	model      string
	baseURL    string
	logger     *slog.Logger
}

// NewFromEnv builds a Client from FINSIGHT_LLM_API_KEY, FINSIGHT_LLM_MODEL,
// and FINSIGHT_LLM_BASE_URL. A missing key returns ErrNotConfigured.
func NewFromEnv(logger *slog.Logger) (*Client, error) {
	apiKey := os.Getenv("FINSIGHT_LLM_API_KEY")
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	model := os.Getenv("FINSIGHT_LLM_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}
	baseURL := os.Getenv("FINSIGHT_LLM_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		// One sustained call per second with a small burst headroom.
		limiter: rate.NewLimiter(rate.Limit(1), 3),
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		logger:  logger,
	}, nil
}

// Fallback answers one user message. respLang is a hint only; the system
// prompt instructs the model to mirror the question's language.
func (c *Client) Fallback(ctx context.Context, message, respLang string) (string, error) {
	if !c.limiter.Allow() {
		return "", ErrThrottled
	}

	ctx, span := tracer.Start(ctx, "llm.Fallback")
	defer span.End()
	span.SetAttributes(
		attribute.String("model", c.model),
		attribute.String("response_language", respLang),
	)

	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: ScrubPII(message)},
		},
		Temperature: 0.3,
		MaxTokens:   300,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("llm: fallback request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("llm: read response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("llm: decode response: %w", err)
	}
	if parsed.Error != nil {
		span.SetStatus(codes.Error, parsed.Error.Message)
		c.logger.Warn("llm fallback returned API error",
			slog.String("type", parsed.Error.Type),
			slog.String("message", parsed.Error.Message),
		)
		return "", fmt.Errorf("llm: api error: %s", parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK || len(parsed.Choices) == 0 {
		return "", fmt.Errorf("llm: unexpected response: status %d, %d choices",
			resp.StatusCode, len(parsed.Choices))
	}
	return parsed.Choices[0].Message.Content, nil
}

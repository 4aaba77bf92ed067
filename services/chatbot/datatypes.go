// Copyright (C) 2026 FintechIQ (opensource@fintechiq.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package chatbot is the HTTP surface of the stock chat service. It binds
// the nlp pipeline, the ML and price service clients, the history store,
// and the LLM fallback into the /v1/chat API.
package chatbot

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fintechiq/finsight/services/chatbot/storage/badger"
)

// =============================================================================
// Wire Types
// =============================================================================

// ChatRequest is the POST /v1/chat payload.
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
	UserID  string `json:"user_id"`

	// Lang forces the response language ("en" or "ta"). Empty means the
	// detected language decides.
	Lang string `json:"lang,omitempty"`
}

// FAQPayload is the matched FAQ entry carried on a faq-intent response.
type FAQPayload struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category"`
}

// ChatResponse is the full structured chat reply.
type ChatResponse struct {
	Reply        string            `json:"reply"`
	Intent       string            `json:"intent"`
	Confidence   int               `json:"confidence"`
	Symbols      []string          `json:"symbols"`
	Entities     map[string]string `json:"entities"`
	Sentiment    string            `json:"sentiment"`
	Language     string            `json:"language"`
	Suggestions  []string          `json:"suggestions"`
	FAQ          *FAQPayload       `json:"faq,omitempty"`
	GuardBlocked bool              `json:"guard_blocked,omitempty"`
}

// HistoryResponse is the GET /v1/chat/history/:session payload.
type HistoryResponse struct {
	SessionID string           `json:"session_id"`
	Messages  []badger.Message `json:"messages"`
}

// PurgeResponse acknowledges a history purge.
type PurgeResponse struct {
	SessionID string `json:"session_id"`
	Removed   int    `json:"removed"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// getOrCreateRequestID returns the X-Request-ID header, minting one when the
// caller did not send it, and stores it on the gin context for middleware.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set("request_id", requestID)
	return requestID
}

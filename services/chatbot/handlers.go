// Copyright (C) 2026 FintechIQ (opensource@fintechiq.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package chatbot

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var chatRequestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "finsight",
	Subsystem: "chatbot",
	Name:      "chat_request_total",
	Help:      "Chat requests by resolved intent and guard outcome",
}, []string{"intent", "guarded"})

// =============================================================================
// Handlers
// =============================================================================

// Handlers holds the HTTP handlers for the chat service.
type Handlers struct {
	svc *Service
}

// NewHandlers creates the handler set.
func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

// HandleChat handles POST /v1/chat.
//
// Description:
//
//	Resolves one chat message through the nlp pipeline, routes the intent
//	to the backing services, and returns the composed reply. A guard
//	denial is still a 200; the denial text is the reply.
//
// Response:
//
//	200 OK: ChatResponse
//	400 Bad Request: Missing or malformed message
//
// Thread Safety: This method is safe for concurrent use.
func (h *Handlers) HandleChat(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleChat")

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "message is required",
			Code:  "MISSING_MESSAGE",
		})
		return
	}

	resp := h.svc.Chat(c.Request.Context(), req)

	guarded := "allowed"
	if resp.GuardBlocked {
		guarded = "denied"
	}
	chatRequestTotal.WithLabelValues(resp.Intent, guarded).Inc()

	logger.Info("chat turn completed",
		slog.String("user_id", req.UserID),
		slog.String("intent", resp.Intent),
		slog.String("language", resp.Language),
		slog.Bool("guard_blocked", resp.GuardBlocked),
	)
	c.JSON(http.StatusOK, resp)
}

// HandleHistory handles GET /v1/chat/history/:session.
//
// Query Parameters:
//
//	limit: Maximum messages to return, default 50 (optional)
//
// Response:
//
//	200 OK: HistoryResponse (empty message list for an unknown session)
//	500 Internal Server Error: Storage failure
func (h *Handlers) HandleHistory(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleHistory")

	sessionID := c.Param("session")
	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	messages, err := h.svc.History(sessionID, limit)
	if err != nil {
		logger.Error("history lookup failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "failed to read chat history",
			Code:  "HISTORY_READ_FAILED",
		})
		return
	}
	c.JSON(http.StatusOK, HistoryResponse{SessionID: sessionID, Messages: messages})
}

// HandlePurgeHistory handles DELETE /v1/chat/history/:session.
//
// Response:
//
//	200 OK: PurgeResponse with the number of removed messages
//	500 Internal Server Error: Storage failure
func (h *Handlers) HandlePurgeHistory(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandlePurgeHistory")

	sessionID := c.Param("session")
	removed, err := h.svc.PurgeHistory(sessionID)
	if err != nil {
		logger.Error("history purge failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "failed to purge chat history",
			Code:  "HISTORY_PURGE_FAILED",
		})
		return
	}
	logger.Info("purged chat history",
		slog.String("session_id", sessionID),
		slog.Int("removed", removed),
	)
	c.JSON(http.StatusOK, PurgeResponse{SessionID: sessionID, Removed: removed})
}

// HandleHealth handles GET /v1/chat/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

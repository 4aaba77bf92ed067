// Copyright (C) 2026 FintechIQ (opensource@fintechiq.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package chatbot

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all chat routes with the router.
//
// Description:
//
//	Registers all /v1/chat* endpoints with the given Gin router group.
//	The router group should already have any required middleware applied.
//
// Endpoints:
//
//	POST   /v1/chat - Resolve a message and reply
//	GET    /v1/chat/history/:session - List a session's messages
//	DELETE /v1/chat/history/:session - Purge a session's messages
//	GET    /v1/chat/health - Liveness check
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	chat := rg.Group("/chat")
	{
		chat.POST("", handlers.HandleChat)
		chat.GET("/history/:session", handlers.HandleHistory)
		chat.DELETE("/history/:session", handlers.HandlePurgeHistory)
		chat.GET("/health", handlers.HandleHealth)
	}
}

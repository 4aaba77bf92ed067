// Copyright (C) 2026 FintechIQ (opensource@fintechiq.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command chatbot starts the FinSight chat API server.
//
// FinSight answers stock market questions in English, Tamil, and Tanglish:
//   - Rule-based intent and entity resolution (no per-request model calls)
//   - Price predictions and training via the external ML service
//   - Live quotes and gold rates via the price service
//   - Per-session chat history with TTL
//
// Usage:
//
//	go run ./cmd/chatbot
//	go run ./cmd/chatbot -port 9090 -debug
//
// With backing services:
//
//	FINSIGHT_ML_URL=http://localhost:8000 FINSIGHT_PRICE_URL=http://localhost:8100 go run ./cmd/chatbot
//
// With the LLM fallback for unknown intents:
//
//	FINSIGHT_LLM_API_KEY=sk-... go run ./cmd/chatbot
//
// Example requests:
//
//	# Health check
//	curl http://localhost:8080/v1/chat/health
//
//	# Chat
//	curl -X POST http://localhost:8080/v1/chat \
//	  -H "Content-Type: application/json" \
//	  -d '{"message": "predict AAPL", "user_id": "u1"}'
//
//	# Session history
//	curl http://localhost:8080/v1/chat/history/u1
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/fintechiq/finsight/services/chatbot"
	"github.com/fintechiq/finsight/services/chatbot/config"
	"github.com/fintechiq/finsight/services/chatbot/market"
	"github.com/fintechiq/finsight/services/chatbot/mlclient"
	badgerstore "github.com/fintechiq/finsight/services/chatbot/storage/badger"
	"github.com/fintechiq/finsight/services/llm"
)

func main() {
	port := flag.Int("port", 8080, "Port to listen on")
	debug := flag.Bool("debug", false, "Enable debug mode")
	trace := flag.Bool("trace", false, "Export spans to stdout")
	historyDir := flag.String("history-dir", "", "Chat history directory (empty = in-memory)")
	historyTTL := flag.Duration("history-ttl", 7*24*time.Hour, "Chat history retention")
	flag.Parse()

	if *debug {
		gin.SetMode(gin.DebugMode)
		slog.SetLogLoggerLevel(slog.LevelDebug)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	if *trace {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			slog.Error("Failed to create trace exporter", slog.String("error", err.Error()))
			os.Exit(1)
		}
		otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter)))
	}

	rules, err := config.Load()
	if err != nil {
		slog.Error("Failed to load rule tables", slog.String("error", err.Error()))
		os.Exit(1)
	}

	mlURL := os.Getenv("FINSIGHT_ML_URL")
	if mlURL == "" {
		mlURL = "http://localhost:8000"
	}
	priceURL := os.Getenv("FINSIGHT_PRICE_URL")
	if priceURL == "" {
		priceURL = "http://localhost:8100"
	}

	history, err := badgerstore.Open(badgerstore.Options{
		Dir: *historyDir,
		TTL: *historyTTL,
	})
	if err != nil {
		slog.Error("Failed to open history store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var fallback chatbot.Fallback
	llmClient, err := llm.NewFromEnv(nil)
	switch {
	case err == nil:
		fallback = llmClient
		slog.Info("LLM fallback enabled")
	case errors.Is(err, llm.ErrNotConfigured):
		slog.Info("LLM fallback disabled (set FINSIGHT_LLM_API_KEY to enable)")
	default:
		slog.Warn("LLM fallback unavailable", slog.String("error", err.Error()))
	}

	svc, err := chatbot.NewService(rules,
		mlclient.New(mlURL, nil),
		market.New(priceURL, rules.Symbols.USSymbols, nil),
		history, fallback, nil)
	if err != nil {
		slog.Error("Failed to build chat service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("finsight-chatbot"))
	if *debug {
		router.Use(gin.Logger())
	}
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	chatbot.RegisterRoutes(v1, chatbot.NewHandlers(svc))

	printBanner(*port, fallback != nil)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		slog.Info("Shutting down FinSight chat server")
		if err := history.Close(); err != nil {
			slog.Warn("Failed to close history store", slog.String("error", err.Error()))
		}
		os.Exit(0)
	}()

	addr := fmt.Sprintf(":%d", *port)
	slog.Info("Starting FinSight chat server", slog.String("address", addr))
	if err := router.Run(addr); err != nil {
		slog.Error("Failed to start server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func printBanner(port int, fallbackEnabled bool) {
	fallbackStatus := "DISABLED (set FINSIGHT_LLM_API_KEY to enable)"
	if fallbackEnabled {
		fallbackStatus = "ENABLED"
	}

	banner := `
╔═══════════════════════════════════════════════════════════╗
║                 FinSight Chat API Server                  ║
║     stock chat in English, Tamil, and Tanglish            ║
╚═══════════════════════════════════════════════════════════╝
`
	fmt.Print(banner)
	fmt.Printf("  Listening:     http://localhost:%d\n", port)
	fmt.Printf("  Chat:          POST /v1/chat\n")
	fmt.Printf("  History:       GET  /v1/chat/history/:session\n")
	fmt.Printf("  Metrics:       GET  /metrics\n")
	fmt.Printf("  LLM fallback:  %s\n\n", fallbackStatus)
}

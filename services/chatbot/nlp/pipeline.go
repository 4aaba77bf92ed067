// Copyright (C) 2026 FintechIQ (opensource@fintechiq.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package nlp

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fintechiq/finsight/services/chatbot/config"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var (
	pipelineLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "finsight",
		Subsystem: "nlp",
		Name:      "resolve_latency_seconds",
		Help:      "End-to-end utterance resolution latency",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	})

	pipelineResolvedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finsight",
		Subsystem: "nlp",
		Name:      "resolved_total",
		Help:      "Resolved utterances by intent and guard outcome",
	}, []string{"intent", "guarded"})
)

// =============================================================================
// OTel Tracer
// =============================================================================

var pipelineTracer = otel.Tracer("finsight.chatbot.nlp")

// =============================================================================
// Pipeline
// =============================================================================

// Pipeline wires the resolution components into one call chain.
//
// Description:
//
//	Resolve runs: Detect on the raw text, Guard on the raw text (denial
//	short-circuits everything downstream), Normalize, Classify, symbol and
//	entity extraction on the appropriate surfaces, sentiment on the raw
//	text, FAQ retrieval when the intent is definitional, and suggestion
//	generation last with the full resolved context.
//
//	Every stage is a pure function of the utterance plus the rule tables,
//	so a Resolution is fully deterministic and concurrent calls need no
//	coordination.
//
// Thread Safety: Immutable after construction; safe for concurrent use.
type Pipeline struct {
	detector   *Detector
	normalizer *Normalizer
	extractor  *Extractor
	classifier *Classifier
	guard      *Guard
	faq        *FAQMatcher
	sentiment  *Tagger
	suggester  *Suggester
	logger     *slog.Logger
}

// NewPipeline constructs every component from the rule set. Any table that
// fails to compile is a fatal initialization error.
func NewPipeline(rs *config.RuleSet, logger *slog.Logger) (*Pipeline, error) {
	detector, err := NewDetector(rs.Language, logger)
	if err != nil {
		return nil, err
	}
	normalizer, err := NewNormalizer(rs.Normalizer)
	if err != nil {
		return nil, err
	}
	extractor, err := NewExtractor(rs.Symbols, rs.Intents)
	if err != nil {
		return nil, err
	}
	classifier, err := NewClassifier(rs.Intents)
	if err != nil {
		return nil, err
	}
	guard, err := NewGuard(rs.Guard)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		detector:   detector,
		normalizer: normalizer,
		extractor:  extractor,
		classifier: classifier,
		guard:      guard,
		faq:        NewFAQMatcher(rs.FAQ),
		sentiment:  NewTagger(rs.Sentiment),
		suggester:  NewSuggester(rs.Replies),
		logger:     logger,
	}, nil
}

// Resolve processes one utterance end to end.
//
// Outputs:
//
//	Resolution - The full structured result. When Guard.Allowed is false
//	only Language, Sentiment, and Guard are meaningful; Intent is unknown
//	and the extraction fields are empty.
func (p *Pipeline) Resolve(ctx context.Context, utt Utterance) Resolution {
	start := time.Now()
	_, span := pipelineTracer.Start(ctx, "Pipeline.Resolve")
	defer span.End()
	defer func() {
		pipelineLatency.Observe(time.Since(start).Seconds())
	}()

	span.SetAttributes(
		attribute.String("user_id", utt.UserID),
		attribute.String("query_preview", truncateForLog(utt.Text, 100)),
	)

	res := Resolution{
		Entities: map[EntityKind]string{},
		Symbols:  []Symbol{},
	}

	res.Language = p.detector.Detect(utt.Text)
	respLang := res.Language.ResponseLanguage()

	res.Guard = p.guard.Guard(utt.Text, respLang)
	if !res.Guard.Allowed {
		res.Intent = IntentResult{Intent: IntentUnknown}
		res.Sentiment = p.sentiment.Tag(utt.Text)
		span.SetAttributes(
			attribute.Bool("guard.allowed", false),
			attribute.String("guard.topic", res.Guard.Topic),
		)
		pipelineResolvedTotal.WithLabelValues(string(IntentUnknown), "denied").Inc()
		p.logger.Info("utterance denied by topic guard",
			slog.String("user_id", utt.UserID),
			slog.String("topic", res.Guard.Topic),
			slog.String("language", string(res.Language)),
		)
		return res
	}

	res.Normalized = p.normalizer.Normalize(utt.Text)
	res.Intent = p.classifier.Classify(res.Normalized)

	res.Symbols = p.extractor.Symbols(res.Normalized)
	if res.Intent.Intent == IntentCompare {
		if pair := p.extractor.CompareSymbols(utt.Text); pair != nil {
			res.Symbols = pair
		}
	}
	res.Entities = p.extractor.Entities(res.Normalized)

	res.Sentiment = p.sentiment.Tag(utt.Text)

	if res.Intent.Intent == IntentFAQ {
		res.FAQ = p.faq.Match(res.Normalized, respLang)
	}

	res.Suggestions = p.suggester.Suggest(res.Intent.Intent, res.Symbols, respLang)

	span.SetAttributes(
		attribute.Bool("guard.allowed", true),
		attribute.String("intent", string(res.Intent.Intent)),
		attribute.Int("intent.confidence", res.Intent.Confidence),
		attribute.Int("symbols.count", len(res.Symbols)),
		attribute.String("language", string(res.Language)),
	)
	pipelineResolvedTotal.WithLabelValues(string(res.Intent.Intent), "allowed").Inc()

	p.logger.Debug("utterance resolved",
		slog.String("user_id", utt.UserID),
		slog.String("language", string(res.Language)),
		slog.String("intent", string(res.Intent.Intent)),
		slog.Int("confidence", res.Intent.Confidence),
		slog.Int("symbols", len(res.Symbols)),
		slog.String("sentiment", string(res.Sentiment)),
	)

	return res
}

// truncateForLog bounds free-text fields in spans and log lines. The cut is
// made on a rune boundary so Tamil text stays valid UTF-8.
func truncateForLog(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

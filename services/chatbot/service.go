// Copyright (C) 2026 FintechIQ (opensource@fintechiq.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package chatbot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fintechiq/finsight/services/chatbot/config"
	"github.com/fintechiq/finsight/services/chatbot/market"
	"github.com/fintechiq/finsight/services/chatbot/mlclient"
	"github.com/fintechiq/finsight/services/chatbot/nlp"
	"github.com/fintechiq/finsight/services/chatbot/storage/badger"
)

// =============================================================================
// OTel Tracer
// =============================================================================

var tracer = otel.Tracer("finsight.chatbot")

// =============================================================================
// Service
// =============================================================================

// Fallback answers utterances the rule pipeline could not classify. The LLM
// client satisfies it; a nil Fallback disables the feature.
type Fallback interface {
	Fallback(ctx context.Context, message, respLang string) (string, error)
}

// Service orchestrates one chat turn: resolve the utterance, route the
// resolved intent to the right collaborator, compose a bilingual reply, and
// record the exchange in the history store.
//
// Description:
//
//	All language for replies comes from the loaded reply tables or is
//	composed here from collaborator responses; the pipeline itself never
//	produces user-facing text except guard denials. Collaborator failures
//	degrade to canned replies, never to HTTP errors.
//
// Thread Safety: Safe for concurrent use.
type Service struct {
	pipeline *nlp.Pipeline
	replies  config.ReplyTables
	ml       *mlclient.Client
	market   *market.Client
	history  *badger.Store
	fallback Fallback
	logger   *slog.Logger
}

// NewService builds the pipeline from the rule set and wires the
// collaborators. fallback may be nil. history may be nil to disable
// persistence.
func NewService(rs *config.RuleSet, ml *mlclient.Client, mkt *market.Client, history *badger.Store, fallback Fallback, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pipeline, err := nlp.NewPipeline(rs, logger)
	if err != nil {
		return nil, fmt.Errorf("chatbot: build pipeline: %w", err)
	}
	return &Service{
		pipeline: pipeline,
		replies:  rs.Replies,
		ml:       ml,
		market:   mkt,
		history:  history,
		fallback: fallback,
		logger:   logger,
	}, nil
}

// Chat resolves one message and composes the reply.
func (s *Service) Chat(ctx context.Context, req ChatRequest) *ChatResponse {
	ctx, span := tracer.Start(ctx, "chatbot.Chat")
	defer span.End()

	res := s.pipeline.Resolve(ctx, nlp.Utterance{
		Text:      req.Message,
		UserID:    req.UserID,
		Timestamp: time.Now().UTC(),
	})

	respLang := res.Language.ResponseLanguage()
	if req.Lang == "en" || req.Lang == "ta" {
		respLang = req.Lang
	}

	resp := &ChatResponse{
		Intent:      string(res.Intent.Intent),
		Confidence:  res.Intent.Confidence,
		Symbols:     symbolStrings(res.Symbols),
		Entities:    entityStrings(res.Entities),
		Sentiment:   string(res.Sentiment),
		Language:    string(res.Language),
		Suggestions: res.Suggestions,
	}

	if !res.Guard.Allowed {
		resp.Reply = res.Guard.DenialMessage
		resp.GuardBlocked = true
		span.SetAttributes(attribute.String("guard.topic", res.Guard.Topic))
		s.record(req, resp)
		return resp
	}

	resp.Reply = s.composeReply(ctx, res, respLang)
	if res.FAQ.Found {
		resp.FAQ = &FAQPayload{
			Question: res.FAQ.Question,
			Answer:   res.FAQ.Answer,
			Category: res.FAQ.Category,
		}
	}

	span.SetAttributes(
		attribute.String("intent", resp.Intent),
		attribute.String("response_language", respLang),
	)
	s.record(req, resp)
	return resp
}

// History lists the stored messages for a session, oldest first.
func (s *Service) History(sessionID string, limit int) ([]badger.Message, error) {
	if s.history == nil {
		return []badger.Message{}, nil
	}
	return s.history.List(sessionID, limit)
}

// PurgeHistory removes every stored message for a session.
func (s *Service) PurgeHistory(sessionID string) (int, error) {
	if s.history == nil {
		return 0, nil
	}
	return s.history.Purge(sessionID)
}

// =============================================================================
// Reply Composition
// =============================================================================

func (s *Service) composeReply(ctx context.Context, res nlp.Resolution, respLang string) string {
	switch res.Intent.Intent {
	case nlp.IntentPredict:
		return s.replyPredict(ctx, res, respLang)
	case nlp.IntentAnalyze, nlp.IntentBuySell:
		return s.replyAdvice(ctx, res, respLang)
	case nlp.IntentTrain:
		return s.replyTrain(ctx, res, respLang)
	case nlp.IntentCompare:
		return s.replyCompare(ctx, res, respLang)
	case nlp.IntentPrice:
		return s.replyPrice(ctx, res, respLang)
	case nlp.IntentFAQ:
		if res.FAQ.Found {
			return res.FAQ.Answer
		}
		return s.canned("unknown", respLang)
	case nlp.IntentGreeting, nlp.IntentHelp, nlp.IntentInvest:
		return s.canned(string(res.Intent.Intent), respLang)
	default:
		return s.replyUnknown(ctx, res, respLang)
	}
}

func (s *Service) replyPredict(ctx context.Context, res nlp.Resolution, respLang string) string {
	if len(res.Symbols) == 0 {
		return s.canned("ask_symbol", respLang)
	}
	sym := s.market.NormalizeSymbol(string(res.Symbols[0]))
	pred, err := s.ml.Predict(ctx, mlclient.PredictRequest{
		Ticker:    sym,
		Algorithm: res.Entities[nlp.EntityAlgorithm],
	})
	if err != nil {
		s.logger.Warn("prediction unavailable", slog.String("symbol", sym), slog.String("error", err.Error()))
		return s.canned("service_error", respLang)
	}
	if respLang == "ta" {
		return fmt.Sprintf("%s: தற்போதைய விலை %.2f %s, கணிக்கப்பட்ட அடுத்த விலை %.2f %s (%+.2f%%).",
			pred.Ticker, pred.CurrentPrice, pred.Currency, pred.PredictedPrice, pred.Currency, pred.ChangePercent)
	}
	return fmt.Sprintf("%s: current %.2f %s, predicted next close %.2f %s (%+.2f%%), model: %s.",
		pred.Ticker, pred.CurrentPrice, pred.Currency, pred.PredictedPrice, pred.Currency, pred.ChangePercent, pred.Algorithm)
}

func (s *Service) replyAdvice(ctx context.Context, res nlp.Resolution, respLang string) string {
	if len(res.Symbols) == 0 {
		return s.canned("ask_symbol", respLang)
	}
	sym := s.market.NormalizeSymbol(string(res.Symbols[0]))
	advice, err := s.ml.InvestmentAdvice(ctx, sym)
	if err != nil {
		s.logger.Warn("advice unavailable", slog.String("symbol", sym), slog.String("error", err.Error()))
		return s.canned("service_error", respLang)
	}
	if respLang == "ta" {
		return fmt.Sprintf("%s: பரிந்துரை %s. மாற்றம் %+.2f%%, ஏற்ற இறக்கம் %.2f.",
			advice.Ticker, strings.ToUpper(advice.Recommendation), advice.ChangePercent, advice.Volatility)
	}
	reply := fmt.Sprintf("%s: recommendation %s. Change %+.2f%%, volatility %.2f.",
		advice.Ticker, strings.ToUpper(advice.Recommendation), advice.ChangePercent, advice.Volatility)
	if advice.Summary != "" {
		reply += " " + advice.Summary
	}
	return reply
}

func (s *Service) replyTrain(ctx context.Context, res nlp.Resolution, respLang string) string {
	if len(res.Symbols) == 0 {
		return s.canned("ask_symbol", respLang)
	}
	tickers := make([]string, 0, len(res.Symbols))
	for _, sym := range res.Symbols {
		tickers = append(tickers, s.market.NormalizeSymbol(string(sym)))
	}
	var algorithms []string
	if alg := res.Entities[nlp.EntityAlgorithm]; alg != "" {
		algorithms = []string{alg}
	}
	job, err := s.ml.Train(ctx, mlclient.TrainRequest{Tickers: tickers, Algorithms: algorithms})
	if err != nil {
		s.logger.Warn("training unavailable", slog.String("error", err.Error()))
		return s.canned("service_error", respLang)
	}
	if respLang == "ta" {
		return fmt.Sprintf("%s பயிற்சி தொடங்கியது (நிலை: %s).", strings.Join(job.Tickers, ", "), job.Status)
	}
	return fmt.Sprintf("Training started for %s (job %s, status: %s).",
		strings.Join(job.Tickers, ", "), job.JobID, job.Status)
}

func (s *Service) replyCompare(ctx context.Context, res nlp.Resolution, respLang string) string {
	if len(res.Symbols) < 2 {
		return s.canned("ask_symbol", respLang)
	}
	var (
		parts    []string
		bestSym  string
		bestPct  float64
		haveBest bool
	)
	for _, symbol := range res.Symbols {
		sym := s.market.NormalizeSymbol(string(symbol))
		pred, err := s.ml.Predict(ctx, mlclient.PredictRequest{Ticker: sym})
		if err != nil {
			s.logger.Warn("comparison leg unavailable", slog.String("symbol", sym), slog.String("error", err.Error()))
			return s.canned("service_error", respLang)
		}
		parts = append(parts, fmt.Sprintf("%s %+.2f%%", pred.Ticker, pred.ChangePercent))
		if !haveBest || pred.ChangePercent > bestPct {
			bestSym, bestPct, haveBest = pred.Ticker, pred.ChangePercent, true
		}
	}
	if respLang == "ta" {
		return fmt.Sprintf("ஒப்பீடு: %s. %s சிறப்பாக தெரிகிறது.", strings.Join(parts, ", "), bestSym)
	}
	return fmt.Sprintf("Comparison: %s. %s looks stronger.", strings.Join(parts, ", "), bestSym)
}

func (s *Service) replyPrice(ctx context.Context, res nlp.Resolution, respLang string) string {
	if len(res.Symbols) == 0 {
		// After normalization Tamil and Tanglish gold terms surface as
		// the English word.
		if strings.Contains(strings.ToLower(res.Normalized), "gold") {
			return s.replyGold(ctx, respLang)
		}
		return s.canned("ask_symbol", respLang)
	}
	sym := s.market.NormalizeSymbol(string(res.Symbols[0]))
	quote, err := s.market.Price(ctx, sym)
	if err != nil {
		s.logger.Warn("quote unavailable", slog.String("symbol", sym), slog.String("error", err.Error()))
		return s.canned("service_error", respLang)
	}
	if respLang == "ta" {
		return fmt.Sprintf("%s: %.2f %s (%+.2f%%).", quote.Symbol, quote.Price, quote.Currency, quote.ChangePercent)
	}
	return fmt.Sprintf("%s is trading at %.2f %s (%+.2f%%).", quote.Symbol, quote.Price, quote.Currency, quote.ChangePercent)
}

func (s *Service) replyGold(ctx context.Context, respLang string) string {
	rate, err := s.market.Gold(ctx)
	if err != nil {
		s.logger.Warn("gold rate unavailable", slog.String("error", err.Error()))
		return s.canned("service_error", respLang)
	}
	if respLang == "ta" {
		return fmt.Sprintf("தங்கம்: 10 கிராமுக்கு ₹%.0f (ஸ்பாட் %.2f USD, USD/INR %.2f).",
			rate.PricePerTenGramINR, rate.SpotUSD, rate.USDINR)
	}
	return fmt.Sprintf("Gold: ₹%.0f per 10g (spot %.2f USD, USD/INR %.2f).",
		rate.PricePerTenGramINR, rate.SpotUSD, rate.USDINR)
}

func (s *Service) replyUnknown(ctx context.Context, res nlp.Resolution, respLang string) string {
	if s.fallback != nil {
		reply, err := s.fallback.Fallback(ctx, res.Normalized, respLang)
		if err == nil && reply != "" {
			return reply
		}
		if err != nil {
			s.logger.Debug("llm fallback declined", slog.String("error", err.Error()))
		}
	}
	return s.canned("unknown", respLang)
}

func (s *Service) canned(key, respLang string) string {
	return s.replies.Canned[key].Pick(respLang)
}

// =============================================================================
// History Recording
// =============================================================================

// record appends both turns of the exchange. History is best effort; a
// storage failure is logged, never surfaced to the user.
func (s *Service) record(req ChatRequest, resp *ChatResponse) {
	if s.history == nil || req.UserID == "" {
		return
	}
	_, err := s.history.Append(badger.Message{
		SessionID: req.UserID,
		Role:      "user",
		Text:      req.Message,
		Intent:    resp.Intent,
		Language:  resp.Language,
	})
	if err == nil {
		_, err = s.history.Append(badger.Message{
			SessionID: req.UserID,
			Role:      "bot",
			Text:      resp.Reply,
			Intent:    resp.Intent,
		})
	}
	if err != nil {
		s.logger.Warn("failed to record chat history",
			slog.String("session_id", req.UserID),
			slog.String("error", err.Error()),
		)
	}
}

func symbolStrings(symbols []nlp.Symbol) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, string(s))
	}
	return out
}

func entityStrings(entities map[nlp.EntityKind]string) map[string]string {
	out := make(map[string]string, len(entities))
	for k, v := range entities {
		out[string(k)] = v
	}
	return out
}

// Copyright (C) 2026 FintechIQ (opensource@fintechiq.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package nlp implements the multilingual intent and entity resolution
// pipeline: script/language detection, Tanglish normalization, symbol and
// entity extraction, intent classification, topic guarding, FAQ retrieval,
// sentiment tagging, and follow-up suggestion generation.
//
// Every component is a pure function over its input and the immutable rule
// tables loaded at startup; there is no cross-request state anywhere in this
// package, so concurrent utterances need no coordination.
package nlp

import "time"

// =============================================================================
// Language
// =============================================================================

// LanguageTag classifies the script/language of an utterance.
type LanguageTag string

const (
	// LangNative is Tamil written in Tamil script.
	LangNative LanguageTag = "native"

	// LangTransliterated is Tanglish: Tamil in Latin script, usually
	// code-mixed with English.
	LangTransliterated LanguageTag = "transliterated"

	// LangLatin is plain English.
	LangLatin LanguageTag = "latin"
)

// ResponseLanguage maps a detected tag to the language replies should use.
// Transliterated input gets native-language replies; Latin maps to itself.
func (t LanguageTag) ResponseLanguage() string {
	switch t {
	case LangNative, LangTransliterated:
		return "ta"
	default:
		return "en"
	}
}

// =============================================================================
// Intent
// =============================================================================

// Intent is one label of the closed intent taxonomy.
type Intent string

const (
	IntentPredict  Intent = "predict"
	IntentAnalyze  Intent = "analyze"
	IntentTrain    Intent = "train"
	IntentCompare  Intent = "compare"
	IntentPrice    Intent = "price"
	IntentBuySell  Intent = "buy_sell"
	IntentFAQ      Intent = "faq"
	IntentHelp     Intent = "help"
	IntentInvest   Intent = "invest"
	IntentGreeting Intent = "greeting"
	IntentUnknown  Intent = "unknown"
)

// Alternative is a runner-up intent with its score, exposed for diagnostics.
type Alternative struct {
	Intent Intent `json:"intent"`
	Score  int    `json:"score"`
}

// IntentResult is the classifier output. Confidence is an additive evidence
// score, not a probability.
type IntentResult struct {
	Intent       Intent        `json:"intent"`
	Confidence   int           `json:"confidence"`
	Alternatives []Alternative `json:"alternatives,omitempty"`
}

// =============================================================================
// Entities and Symbols
// =============================================================================

// EntityKind names a structured modifier extracted from text.
type EntityKind string

const (
	EntityAlgorithm EntityKind = "algorithm"
	EntityTimeframe EntityKind = "timeframe"
	EntityAction    EntityKind = "action"
)

// Symbol is a canonical ticker identifier, always upper-case, optionally
// carrying an exchange suffix (e.g. RELIANCE.NS).
type Symbol string

// =============================================================================
// Verdicts and Results
// =============================================================================

// GuardVerdict is the topic guard's decision. Intent and entity results are
// only meaningful to callers when Allowed is true.
type GuardVerdict struct {
	Allowed       bool   `json:"allowed"`
	Topic         string `json:"topic,omitempty"`
	DenialMessage string `json:"denial_message,omitempty"`
}

// FAQResult is the FAQ matcher output. Found=false is a normal outcome, not
// an error.
type FAQResult struct {
	Found    bool   `json:"found"`
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer,omitempty"`
	Category string `json:"category,omitempty"`
	Score    int    `json:"score,omitempty"`
}

// SentimentTag is the polarity of an utterance.
type SentimentTag string

const (
	SentimentPositive SentimentTag = "positive"
	SentimentNeutral  SentimentTag = "neutral"
	SentimentNegative SentimentTag = "negative"
)

// =============================================================================
// Pipeline Input and Output
// =============================================================================

// Utterance is the immutable pipeline input: one incoming message. Session
// state (e.g. "last mentioned stock") belongs to the caller, never here.
type Utterance struct {
	Text      string
	UserID    string
	Timestamp time.Time
}

// Resolution is the full structured result of resolving one utterance. It is
// a pure function of the Utterance plus the static rule tables.
type Resolution struct {
	Language    LanguageTag           `json:"language"`
	Normalized  string                `json:"normalized"`
	Intent      IntentResult          `json:"intent"`
	Symbols     []Symbol              `json:"symbols"`
	Entities    map[EntityKind]string `json:"entities"`
	Sentiment   SentimentTag          `json:"sentiment"`
	Guard       GuardVerdict          `json:"guard"`
	FAQ         FAQResult             `json:"faq"`
	Suggestions []string              `json:"suggestions"`
}

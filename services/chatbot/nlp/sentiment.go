// Copyright (C) 2026 FintechIQ (opensource@fintechiq.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package nlp

import (
	"strings"

	"github.com/jonreiter/govader"

	"github.com/fintechiq/finsight/services/chatbot/config"
)

// Tagger assigns a polarity tag to the raw utterance.
//
// Description:
//
//	A general-purpose VADER pass produces the base compound score, then each
//	hit against the positive domain lexicon adds 1 and each hit against the
//	negative lexicon subtracts 1. The lexicons carry English, native-script,
//	and transliterated forms, which is why this runs on the raw text rather
//	than the normalized text. The sign of the adjusted score maps to the
//	tag; zero is neutral.
//
// Thread Safety: govader's analyzer is read-only after construction; safe
// for concurrent use.
type Tagger struct {
	analyzer *govader.SentimentIntensityAnalyzer
	positive []string
	negative []string
}

// NewTagger builds the VADER analyzer and lowers the lexicons.
func NewTagger(lex config.SentimentLexicon) *Tagger {
	t := &Tagger{analyzer: govader.NewSentimentIntensityAnalyzer()}
	for _, w := range lex.Positive {
		t.positive = append(t.positive, strings.ToLower(w))
	}
	for _, w := range lex.Negative {
		t.negative = append(t.negative, strings.ToLower(w))
	}
	return t
}

// Tag scores the raw text.
func (t *Tagger) Tag(raw string) SentimentTag {
	score := t.analyzer.PolarityScores(raw).Compound

	lower := strings.ToLower(raw)
	for _, w := range t.positive {
		if strings.Contains(lower, w) {
			score++
		}
	}
	for _, w := range t.negative {
		if strings.Contains(lower, w) {
			score--
		}
	}

	switch {
	case score > 0:
		return SentimentPositive
	case score < 0:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

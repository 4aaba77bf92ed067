// Copyright (C) 2026 FintechIQ (opensource@fintechiq.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package nlp

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pemistahl/lingua-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fintechiq/finsight/services/chatbot/config"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var detectedLanguageTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "finsight",
	Subsystem: "nlp",
	Name:      "detected_language_total",
	Help:      "Utterances by detected language tag and deciding signal",
}, []string{"tag", "signal"})

// =============================================================================
// Detector
// =============================================================================

// Tamil Unicode block boundaries (U+0B80..U+0BFF).
const (
	tamilBlockLo = 0x0B80
	tamilBlockHi = 0x0BFF
)

// Detector classifies an utterance as native Tamil, Tanglish, or English.
//
// Description:
//
//	Implements a 4-step priority chain:
//	1. Any Tamil code point => native (short-circuits; strongest signal).
//	2. Any Tanglish lexical/morphological pattern match => transliterated.
//	3. Statistical identifier reporting Tamil => native (best effort).
//	4. Otherwise => latin.
//
//	Empty or whitespace-only input always classifies as latin and never
//	reaches the statistical identifier (some identifiers misbehave on
//	degenerate input).
//
// Thread Safety: Safe for concurrent use; the statistical model is built
// once under a sync.Once.
type Detector struct {
	patterns []*regexp.Regexp
	minRunes int
	logger   *slog.Logger

	// The lingua model allocates noticeable memory, so it is built lazily
	// on the first utterance that reaches step 3, exactly once across all
	// goroutines.
	linguaOnce sync.Once
	lingua     lingua.LanguageDetector
}

// NewDetector compiles the Tanglish pattern list.
//
// Outputs:
//
//	*Detector - The constructed detector.
//	error - Non-nil if any pattern fails to compile (fatal at startup).
func NewDetector(rules config.LanguageRules, logger *slog.Logger) (*Detector, error) {
	if logger == nil {
		logger = slog.Default()
	}
	patterns := make([]*regexp.Regexp, 0, len(rules.TanglishPatterns))
	for _, p := range rules.TanglishPatterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("nlp: tanglish pattern %q: %w", p, err)
		}
		patterns = append(patterns, re)
	}
	return &Detector{
		patterns: patterns,
		minRunes: rules.MinStatisticalRunes,
		logger:   logger,
	}, nil
}

// Detect classifies the script/language of text.
func (d *Detector) Detect(text string) LanguageTag {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		detectedLanguageTotal.WithLabelValues(string(LangLatin), "empty").Inc()
		return LangLatin
	}

	for _, r := range trimmed {
		if r >= tamilBlockLo && r <= tamilBlockHi {
			detectedLanguageTotal.WithLabelValues(string(LangNative), "script").Inc()
			return LangNative
		}
	}

	lower := strings.ToLower(trimmed)
	for _, re := range d.patterns {
		if re.MatchString(lower) {
			detectedLanguageTotal.WithLabelValues(string(LangTransliterated), "pattern").Inc()
			return LangTransliterated
		}
	}

	if utf8.RuneCountInString(trimmed) >= d.minRunes && d.statisticalTamil(trimmed) {
		detectedLanguageTotal.WithLabelValues(string(LangNative), "statistical").Inc()
		return LangNative
	}

	detectedLanguageTotal.WithLabelValues(string(LangLatin), "fallback").Inc()
	return LangLatin
}

// statisticalTamil consults the lingua identifier. It is a secondary signal:
// any internal failure is swallowed and reported as "no opinion".
func (d *Detector) statisticalTamil(text string) (isTamil bool) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("language identifier panicked, treating as no match",
				slog.Any("panic", r),
			)
			isTamil = false
		}
	}()

	d.linguaOnce.Do(func() {
		d.lingua = lingua.NewLanguageDetectorBuilder().
			FromLanguages(lingua.English, lingua.Tamil).
			Build()
	})

	lang, ok := d.lingua.DetectLanguageOf(text)
	return ok && lang == lingua.Tamil
}

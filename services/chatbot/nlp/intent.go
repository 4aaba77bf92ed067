// Copyright (C) 2026 FintechIQ (opensource@fintechiq.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package nlp

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fintechiq/finsight/services/chatbot/config"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var classifiedIntentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "finsight",
	Subsystem: "nlp",
	Name:      "classified_intent_total",
	Help:      "Primary intent decisions by label",
}, []string{"intent"})

// =============================================================================
// Classifier
// =============================================================================

// maxAlternatives is how many non-zero runners-up the classifier exposes.
const maxAlternatives = 2

// compiledIntent is one taxonomy entry with its patterns pre-compiled and
// keywords pre-lowered.
type compiledIntent struct {
	name     Intent
	patterns []*regexp.Regexp
	keywords []string
}

// Classifier scores an utterance against the fixed intent taxonomy.
//
// Description:
//
//	Additive evidence scoring: each matching regex pattern contributes
//	PatternWeight, each keyword found as a substring of the lower-cased
//	text contributes KeywordWeight. Ties at the top are broken by the
//	taxonomy declaration order — deterministic and documented, not an
//	accident of map iteration. The scheme stays simple on purpose so the
//	tables can grow without re-deriving weights; utterances that genuinely
//	straddle two intents may be scored wrong, an accepted trade-off.
//
// Thread Safety: Immutable after construction; safe for concurrent use.
type Classifier struct {
	patternWeight int
	keywordWeight int
	intents       []compiledIntent
}

// NewClassifier compiles the intent taxonomy. Any pattern that fails to
// compile is a fatal initialization error.
func NewClassifier(rules config.IntentRules) (*Classifier, error) {
	c := &Classifier{
		patternWeight: rules.PatternWeight,
		keywordWeight: rules.KeywordWeight,
		intents:       make([]compiledIntent, 0, len(rules.Intents)),
	}
	for _, spec := range rules.Intents {
		ci := compiledIntent{name: Intent(spec.Name)}
		for _, p := range spec.Patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("nlp: intent %q pattern %q: %w", spec.Name, p, err)
			}
			ci.patterns = append(ci.patterns, re)
		}
		for _, kw := range spec.Keywords {
			ci.keywords = append(ci.keywords, strings.ToLower(kw))
		}
		c.intents = append(c.intents, ci)
	}
	return c, nil
}

// Classify scores normalized text against every intent and returns the
// winner plus up to two non-zero alternatives.
func (c *Classifier) Classify(normalized string) IntentResult {
	lower := strings.ToLower(normalized)

	type scored struct {
		intent Intent
		score  int
	}
	scores := make([]scored, 0, len(c.intents))
	for _, ci := range c.intents {
		s := 0
		for _, re := range ci.patterns {
			if re.MatchString(lower) {
				s += c.patternWeight
			}
		}
		for _, kw := range ci.keywords {
			if strings.Contains(lower, kw) {
				s += c.keywordWeight
			}
		}
		scores = append(scores, scored{intent: ci.name, score: s})
	}

	// Stable sort keeps declaration order for equal scores (the tie-break).
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	result := IntentResult{Intent: IntentUnknown}
	if scores[0].score > 0 {
		result.Intent = scores[0].intent
		result.Confidence = scores[0].score
		for _, s := range scores[1:] {
			if s.score <= 0 || len(result.Alternatives) >= maxAlternatives {
				break
			}
			result.Alternatives = append(result.Alternatives, Alternative{Intent: s.intent, Score: s.score})
		}
	}

	classifiedIntentTotal.WithLabelValues(string(result.Intent)).Inc()
	return result
}

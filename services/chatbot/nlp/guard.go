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
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fintechiq/finsight/services/chatbot/config"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var guardVerdictTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "finsight",
	Subsystem: "nlp",
	Name:      "guard_verdict_total",
	Help:      "Guard decisions by outcome and topic (topic empty when allowed)",
}, []string{"outcome", "topic"})

// =============================================================================
// Guard
// =============================================================================

// guardTickerRE is the ticker-like shape accepted when the whole message is
// one token; a lone short word is a lookup in any case ("aapl").
var guardTickerRE = regexp.MustCompile(`^[A-Za-z]{2,5}(\.(?:NS|BO|ns|bo))?$`)

// guardStrictTickerRE is required once a second token is present: upper-case,
// or any case with an explicit exchange suffix. Without it two-word small
// talk ("lunch soon") would pass as a ticker.
var guardStrictTickerRE = regexp.MustCompile(`^(?:[A-Z]{2,5}|[A-Za-z]{2,5}\.(?:NS|BO|ns|bo))$`)

// maxBareTickerTokens is the message length (in whitespace tokens) up to
// which a ticker-shaped token alone is enough to pass the guard.
const maxBareTickerTokens = 2

// compiledTopic is one blocked category with compiled trigger patterns.
type compiledTopic struct {
	topic    string
	patterns []*regexp.Regexp
	denial   config.Bilingual
}

// Guard is the independent policy gate deciding whether an utterance is
// in-domain.
//
// Description:
//
//	Runs on the raw utterance, before any caller trusts the classifier, and
//	never depends on the normalizer: the keyword tables carry English,
//	native-script, and transliterated forms so the same containment checks
//	work on all three. Decision order:
//	1. Greeting/courtesy/help allow-list.
//	2. Blocked-topic patterns — overridden when a domain keyword is also
//	   present (a sentence with both "cricket" and "stock" is allowed).
//	3. Any domain keyword anywhere => allowed.
//	4. Short ticker-shaped messages => allowed (bare lookups must not be
//	   rejected for being too short to recognize). One-token messages accept
//	   any case; with a second token the ticker must be upper-case or carry
//	   an exchange suffix.
//	5. Deny with a topic-specific or default message.
//
//	A blank message is always denied with the default message; that is a
//	guard decision, not an upstream validation error.
//
// Thread Safety: Immutable after construction; safe for concurrent use.
type Guard struct {
	allowPatterns  []*regexp.Regexp
	allowLiterals  []string
	blocked        []compiledTopic
	domainKeywords []string
	defaultDenial  config.Bilingual
}

// NewGuard compiles the policy tables. Any bad pattern is fatal at startup.
func NewGuard(rules config.GuardRules) (*Guard, error) {
	g := &Guard{
		allowLiterals: rules.AllowLiterals,
		defaultDenial: rules.DefaultDenial,
	}
	for _, p := range rules.AllowPatterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("nlp: guard allow pattern %q: %w", p, err)
		}
		g.allowPatterns = append(g.allowPatterns, re)
	}
	for _, bt := range rules.BlockedTopics {
		ct := compiledTopic{topic: bt.Topic, denial: bt.Denial}
		for _, p := range bt.Patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("nlp: guard topic %q pattern %q: %w", bt.Topic, p, err)
			}
			ct.patterns = append(ct.patterns, re)
		}
		g.blocked = append(g.blocked, ct)
	}
	for _, kw := range rules.DomainKeywords {
		g.domainKeywords = append(g.domainKeywords, strings.ToLower(kw))
	}
	return g, nil
}

// Guard evaluates the raw utterance. respLang selects the denial message
// language ("en" or "ta").
func (g *Guard) Guard(raw, respLang string) GuardVerdict {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		guardVerdictTotal.WithLabelValues("denied", "empty").Inc()
		return GuardVerdict{Allowed: false, DenialMessage: g.defaultDenial.Pick(respLang)}
	}

	lower := strings.ToLower(trimmed)

	// Step 1: allow-list.
	for _, re := range g.allowPatterns {
		if re.MatchString(lower) {
			guardVerdictTotal.WithLabelValues("allowed", "").Inc()
			return GuardVerdict{Allowed: true}
		}
	}
	for _, lit := range g.allowLiterals {
		if strings.Contains(trimmed, lit) {
			guardVerdictTotal.WithLabelValues("allowed", "").Inc()
			return GuardVerdict{Allowed: true}
		}
	}

	// Step 2: blocked topics, rescued by domain keywords.
	for _, ct := range g.blocked {
		for _, re := range ct.patterns {
			if !re.MatchString(lower) {
				continue
			}
			if g.containsDomainKeyword(trimmed, lower) {
				guardVerdictTotal.WithLabelValues("allowed", ct.topic).Inc()
				return GuardVerdict{Allowed: true, Topic: ct.topic}
			}
			guardVerdictTotal.WithLabelValues("denied", ct.topic).Inc()
			return GuardVerdict{
				Allowed:       false,
				Topic:         ct.topic,
				DenialMessage: ct.denial.Pick(respLang),
			}
		}
	}

	// Step 3: domain keyword presence.
	if g.containsDomainKeyword(trimmed, lower) {
		guardVerdictTotal.WithLabelValues("allowed", "").Inc()
		return GuardVerdict{Allowed: true}
	}

	// Step 4: bare ticker-shaped short messages.
	tokens := strings.Fields(trimmed)
	if len(tokens) <= maxBareTickerTokens {
		shape := guardTickerRE
		if len(tokens) > 1 {
			shape = guardStrictTickerRE
		}
		for _, tok := range tokens {
			if shape.MatchString(tok) {
				guardVerdictTotal.WithLabelValues("allowed", "ticker").Inc()
				return GuardVerdict{Allowed: true}
			}
		}
	}

	guardVerdictTotal.WithLabelValues("denied", "default").Inc()
	return GuardVerdict{Allowed: false, DenialMessage: g.defaultDenial.Pick(respLang)}
}

// containsDomainKeyword checks both the raw text (native-script keywords)
// and the lower-cased text (Latin keywords) by plain containment.
func (g *Guard) containsDomainKeyword(raw, lower string) bool {
	for _, kw := range g.domainKeywords {
		if strings.Contains(lower, kw) || strings.Contains(raw, kw) {
			return true
		}
	}
	return false
}

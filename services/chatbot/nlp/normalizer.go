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

	"github.com/fintechiq/finsight/services/chatbot/config"
)

// phraseRule is a compiled Tanglish phrase substitution.
type phraseRule struct {
	re      *regexp.Regexp
	replace string
}

// Normalizer rewrites Tamil-Unicode and Tanglish tokens into their English
// equivalents so downstream matchers operate on a single vocabulary.
//
// Description:
//
//	Two ordered passes:
//	(a) literal substring replacement of native-script domain terms —
//	    Tamil has no reliable word boundary, so no anchoring is used;
//	(b) whitespace-tolerant, case-insensitive Tanglish phrase rewrites.
//
//	Rule order within each pass is the registration order of the rule table;
//	config.Load has already verified that specific phrases precede generic
//	ones. Normalization is idempotent on already-normalized text.
//
// Thread Safety: Immutable after construction; safe for concurrent use.
type Normalizer struct {
	tamil   []config.Substitution
	phrases []phraseRule
}

// NewNormalizer compiles the Tanglish phrase table.
func NewNormalizer(rules config.NormalizerRules) (*Normalizer, error) {
	n := &Normalizer{
		tamil:   rules.TamilTerms,
		phrases: make([]phraseRule, 0, len(rules.TanglishPhrases)),
	}
	for _, sub := range rules.TanglishPhrases {
		re, err := compilePhrase(sub.Match)
		if err != nil {
			return nil, fmt.Errorf("nlp: tanglish phrase %q: %w", sub.Match, err)
		}
		n.phrases = append(n.phrases, phraseRule{re: re, replace: sub.Replace})
	}
	return n, nil
}

// compilePhrase turns a literal phrase into a case-insensitive, word-bounded
// regex where any run of whitespace matches the phrase's literal spacing.
// Phrase entries are literals, never regex fragments; an empty phrase is
// rejected because a zero-width rule would rewrite every position in the text.
func compilePhrase(phrase string) (*regexp.Regexp, error) {
	words := strings.Fields(phrase)
	if len(words) == 0 {
		return nil, fmt.Errorf("empty phrase")
	}
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return regexp.Compile(`(?i)\b` + strings.Join(words, `\s+`) + `\b`)
}

// Normalize rewrites text into the shared English-equivalent vocabulary.
func (n *Normalizer) Normalize(text string) string {
	for _, sub := range n.tamil {
		text = strings.ReplaceAll(text, sub.Match, sub.Replace)
	}
	for _, rule := range n.phrases {
		text = rule.re.ReplaceAllString(text, rule.replace)
	}
	return text
}

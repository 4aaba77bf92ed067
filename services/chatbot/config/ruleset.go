// Copyright (C) 2026 FintechIQ (opensource@fintechiq.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Embedded Default Rule Tables
// =============================================================================

//go:embed language.yaml
var defaultLanguageYAML []byte

//go:embed normalizer.yaml
var defaultNormalizerYAML []byte

//go:embed intents.yaml
var defaultIntentsYAML []byte

//go:embed guard.yaml
var defaultGuardYAML []byte

//go:embed symbols.yaml
var defaultSymbolsYAML []byte

//go:embed faq.yaml
var defaultFAQYAML []byte

//go:embed sentiment.yaml
var defaultSentimentYAML []byte

//go:embed replies.yaml
var defaultRepliesYAML []byte

// =============================================================================
// Rule Table Types
// =============================================================================

// LanguageRules configures the script/language detector.
//
// Thread Safety: Immutable after loading; safe for concurrent use.
type LanguageRules struct {
	// MinStatisticalRunes is the minimum rune count before the statistical
	// identifier is consulted. Shorter inputs skip it entirely.
	MinStatisticalRunes int `yaml:"min_statistical_runes" validate:"min=1"`

	// TanglishPatterns are ordered regex patterns; any match classifies the
	// utterance as transliterated Tamil.
	TanglishPatterns []string `yaml:"tanglish_patterns" validate:"min=1,dive,required"`
}

// Substitution is a single normalization rewrite.
type Substitution struct {
	// Match is the phrase to find. Tamil entries are matched as literal
	// substrings; Tanglish entries as whitespace-tolerant phrases.
	Match string `yaml:"match" validate:"required"`

	// Replace is the English-equivalent replacement text.
	Replace string `yaml:"replace" validate:"required"`
}

// NormalizerRules holds the two ordered substitution passes.
//
// Ordering is a hard contract: a phrase containing another listed phrase must
// appear before it. Load rejects tables that violate this so a generic rule
// can never consume text a specific rule should have matched.
type NormalizerRules struct {
	TamilTerms      []Substitution `yaml:"tamil_terms" validate:"min=1,dive"`
	TanglishPhrases []Substitution `yaml:"tanglish_phrases" validate:"min=1,dive"`
}

// IntentSpec declares one intent of the taxonomy: its regex patterns and its
// plain keywords. Slice position in IntentRules.Intents is the tie-break
// order.
type IntentSpec struct {
	Name     string   `yaml:"name" validate:"required"`
	Patterns []string `yaml:"patterns" validate:"min=1,dive,required"`
	Keywords []string `yaml:"keywords"`
}

// EntitySpec declares the ordered pattern list for one entity kind.
type EntitySpec struct {
	Kind     string   `yaml:"kind" validate:"required"`
	Patterns []string `yaml:"patterns" validate:"min=1,dive,required"`
}

// IntentRules is the full intent taxonomy plus entity extraction patterns.
type IntentRules struct {
	// PatternWeight is the score added per matching regex pattern.
	PatternWeight int `yaml:"pattern_weight" validate:"min=1"`

	// KeywordWeight is the score added per keyword found as a substring.
	// Pattern matches are the stronger signal, so PatternWeight must exceed
	// KeywordWeight; Load enforces this.
	KeywordWeight int `yaml:"keyword_weight" validate:"min=1"`

	Intents  []IntentSpec `yaml:"intents" validate:"min=1,dive"`
	Entities []EntitySpec `yaml:"entities" validate:"min=1,dive"`
}

// Bilingual is a message pair keyed by response language.
type Bilingual struct {
	EN string `yaml:"en" validate:"required"`
	TA string `yaml:"ta" validate:"required"`
}

// Pick returns the message for the given response language ("ta" selects the
// Tamil text, anything else the English text).
func (b Bilingual) Pick(lang string) string {
	if lang == "ta" {
		return b.TA
	}
	return b.EN
}

// BlockedTopic is one denied category: its trigger patterns and the denial
// message used when no domain keyword rescues the utterance.
type BlockedTopic struct {
	Topic    string    `yaml:"topic" validate:"required"`
	Patterns []string  `yaml:"patterns" validate:"min=1,dive,required"`
	Denial   Bilingual `yaml:"denial"`
}

// GuardRules is the topic-guard policy table.
type GuardRules struct {
	// AllowPatterns are regex allow-list entries for Latin-script text.
	AllowPatterns []string `yaml:"allow_patterns" validate:"min=1,dive,required"`

	// AllowLiterals are native-script allow-list entries matched by plain
	// substring containment (\b is unreliable on Tamil Unicode).
	AllowLiterals []string `yaml:"allow_literals"`

	BlockedTopics  []BlockedTopic `yaml:"blocked_topics" validate:"min=1,dive"`
	DomainKeywords []string       `yaml:"domain_keywords" validate:"min=1,dive,required"`
	DefaultDenial  Bilingual      `yaml:"default_denial"`
}

// SymbolRules holds the company-name lookup tables, the extraction stop-list,
// and the US symbol registry used for exchange-suffix normalization.
type SymbolRules struct {
	NativeNames map[string]string `yaml:"native_names" validate:"min=1"`
	LatinNames  map[string]string `yaml:"latin_names" validate:"min=1"`
	Stoplist    []string          `yaml:"stoplist" validate:"min=1,dive,required"`
	USSymbols   []string          `yaml:"us_symbols" validate:"min=1,dive,required"`
}

// FAQScoring holds the hand-tuned retrieval knobs. Treat these as tunable
// configuration, not values with intrinsic meaning.
type FAQScoring struct {
	TagWeight          int `yaml:"tag_weight" validate:"min=1"`
	MultiWordTagWeight int `yaml:"multi_word_tag_weight" validate:"min=1"`
	QuestionWordWeight int `yaml:"question_word_weight" validate:"min=1"`
	QueryWordWeight    int `yaml:"query_word_weight" validate:"min=1"`
	GenericCap         int `yaml:"generic_cap" validate:"min=0"`
	MinScore           int `yaml:"min_score" validate:"min=1"`
}

// FAQRecord is one canned question/answer pair. Records are static reference
// data, loaded once and read-only at request time.
type FAQRecord struct {
	Question string   `yaml:"question" validate:"required"`
	Category string   `yaml:"category" validate:"required"`
	Tags     []string `yaml:"tags" validate:"min=1,dive,required"`
	AnswerEN string   `yaml:"answer_en" validate:"required"`
	AnswerTA string   `yaml:"answer_ta" validate:"required"`
}

// FAQCorpus is the retrieval configuration plus the record set. First-seen
// order breaks score ties.
type FAQCorpus struct {
	Scoring FAQScoring  `yaml:"scoring"`
	Records []FAQRecord `yaml:"records" validate:"min=1,dive"`
}

// SentimentLexicon lists domain terms that shift the base polarity score.
type SentimentLexicon struct {
	Positive []string `yaml:"positive" validate:"min=1,dive,required"`
	Negative []string `yaml:"negative" validate:"min=1,dive,required"`
}

// SuggestionPair holds suggestion lists for the with/without-symbol cases.
type SuggestionPair struct {
	WithSymbol    BilingualList `yaml:"with_symbol"`
	WithoutSymbol BilingualList `yaml:"without_symbol"`
}

// BilingualList is a suggestion list pair keyed by response language.
type BilingualList struct {
	EN []string `yaml:"en"`
	TA []string `yaml:"ta"`
}

// Pick returns the list for the given response language.
func (b BilingualList) Pick(lang string) []string {
	if lang == "ta" {
		return b.TA
	}
	return b.EN
}

// ReplyTables holds follow-up suggestions keyed by intent name and the canned
// replies used by the transport layer.
type ReplyTables struct {
	Suggestions map[string]SuggestionPair `yaml:"suggestions" validate:"min=1"`
	Canned      map[string]Bilingual      `yaml:"canned" validate:"min=1"`
}

// RuleSet aggregates every static reference table the pipeline consumes.
//
// Description:
//
//	A RuleSet is loaded once at process start and passed by reference into
//	the pure pipeline functions. Nothing mutates it after Load returns.
//
// Thread Safety: Immutable after loading; safe for concurrent use.
type RuleSet struct {
	Language   LanguageRules
	Normalizer NormalizerRules
	Intents    IntentRules
	Guard      GuardRules
	Symbols    SymbolRules
	FAQ        FAQCorpus
	Sentiment  SentimentLexicon
	Replies    ReplyTables
}

// =============================================================================
// Loading
// =============================================================================

// Load parses and validates the embedded rule tables.
//
// Description:
//
//	Reference-data corruption is a fatal initialization error: any parse or
//	validation failure is returned so the process can refuse to start. A
//	silently-skipped rule would degrade classification accuracy with no
//	visible symptom, so nothing here degrades gracefully.
//
// Outputs:
//
//	*RuleSet - The immutable rule set.
//	error - Non-nil on any parse, validation, or ordering violation.
func Load() (*RuleSet, error) {
	rs := &RuleSet{}

	sources := []struct {
		name string
		data []byte
		dst  interface{}
	}{
		{"language.yaml", defaultLanguageYAML, &rs.Language},
		{"normalizer.yaml", defaultNormalizerYAML, &rs.Normalizer},
		{"intents.yaml", defaultIntentsYAML, &rs.Intents},
		{"guard.yaml", defaultGuardYAML, &rs.Guard},
		{"symbols.yaml", defaultSymbolsYAML, &rs.Symbols},
		{"faq.yaml", defaultFAQYAML, &rs.FAQ},
		{"sentiment.yaml", defaultSentimentYAML, &rs.Sentiment},
		{"replies.yaml", defaultRepliesYAML, &rs.Replies},
	}
	for _, src := range sources {
		if err := yaml.Unmarshal(src.data, src.dst); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", src.name, err)
		}
	}

	v := validator.New()
	if err := v.Struct(rs); err != nil {
		return nil, fmt.Errorf("config: validate rule tables: %w", err)
	}

	if rs.Intents.PatternWeight <= rs.Intents.KeywordWeight {
		return nil, fmt.Errorf("config: pattern_weight (%d) must exceed keyword_weight (%d)",
			rs.Intents.PatternWeight, rs.Intents.KeywordWeight)
	}

	if err := checkSubstitutionOrder("tamil_terms", rs.Normalizer.TamilTerms); err != nil {
		return nil, err
	}
	if err := checkSubstitutionOrder("tanglish_phrases", rs.Normalizer.TanglishPhrases); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(rs.Intents.Intents))
	for _, spec := range rs.Intents.Intents {
		if seen[spec.Name] {
			return nil, fmt.Errorf("config: duplicate intent %q in taxonomy", spec.Name)
		}
		seen[spec.Name] = true
	}

	return rs, nil
}

// checkSubstitutionOrder enforces the longest-first registration contract: a
// phrase that contains an earlier, more generic phrase would never be reached
// because the generic rule consumes its text first.
func checkSubstitutionOrder(table string, subs []Substitution) error {
	for i := 0; i < len(subs); i++ {
		for j := i + 1; j < len(subs); j++ {
			if strings.Contains(subs[j].Match, subs[i].Match) {
				return fmt.Errorf(
					"config: %s ordering violation: %q (index %d) is shadowed by earlier generic rule %q (index %d)",
					table, subs[j].Match, j, subs[i].Match, i)
			}
		}
	}
	return nil
}

// Copyright (C) 2026 FintechIQ (opensource@fintechiq.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package nlp

import (
	"strings"
	"unicode/utf8"

	"github.com/fintechiq/finsight/services/chatbot/config"
)

// minOverlapRunes filters out short incidental words ("is", "the", "rsi")
// from overlap scoring in both directions.
const minOverlapRunes = 4

// indexedRecord is one FAQ record with its pre-tokenized match surfaces.
type indexedRecord struct {
	record        config.FAQRecord
	questionLower string
	questionWords []string
	tags          []string
}

// FAQMatcher retrieves canned answers by lexical overlap scoring.
//
// Description:
//
//	Scoring per record: each tag appearing as a substring of the lower-cased
//	query adds TagWeight (MultiWordTagWeight for multi-word tags), each
//	question word found in the query adds QuestionWordWeight, and each query
//	word found in the question adds QueryWordWeight; only words longer than
//	three runes participate. If no query word overlaps the question or the
//	tags at all, the accumulated score is capped at GenericCap so a broad
//	record cannot win on incidental overlap. The best score is returned only
//	when it clears MinScore; ties go to the earlier record.
//
// Thread Safety: Immutable after construction; safe for concurrent use.
type FAQMatcher struct {
	scoring config.FAQScoring
	records []indexedRecord
}

// NewFAQMatcher pre-tokenizes the corpus.
func NewFAQMatcher(corpus config.FAQCorpus) *FAQMatcher {
	m := &FAQMatcher{scoring: corpus.Scoring}
	for _, rec := range corpus.Records {
		ir := indexedRecord{
			record:        rec,
			questionLower: strings.ToLower(rec.Question),
		}
		ir.questionWords = longWords(ir.questionLower)
		for _, tag := range rec.Tags {
			ir.tags = append(ir.tags, strings.ToLower(tag))
		}
		m.records = append(m.records, ir)
	}
	return m
}

// Match scores the normalized query against every record. respLang selects
// the answer language. Found=false is a normal outcome.
func (m *FAQMatcher) Match(normalized, respLang string) FAQResult {
	queryLower := strings.ToLower(normalized)
	queryWords := longWords(queryLower)
	if len(queryWords) == 0 {
		return FAQResult{Found: false}
	}

	best := -1
	bestScore := 0
	for i, ir := range m.records {
		score := m.score(queryLower, queryWords, ir)
		if score > bestScore {
			best, bestScore = i, score
		}
	}

	if best < 0 || bestScore < m.scoring.MinScore {
		return FAQResult{Found: false}
	}

	rec := m.records[best].record
	answer := rec.AnswerEN
	if respLang == "ta" {
		answer = rec.AnswerTA
	}
	return FAQResult{
		Found:    true,
		Question: rec.Question,
		Answer:   answer,
		Category: rec.Category,
		Score:    bestScore,
	}
}

func (m *FAQMatcher) score(queryLower string, queryWords []string, ir indexedRecord) int {
	score := 0

	for _, tag := range ir.tags {
		if utf8.RuneCountInString(tag) < minOverlapRunes || !strings.Contains(queryLower, tag) {
			continue
		}
		if strings.Contains(tag, " ") {
			score += m.scoring.MultiWordTagWeight
		} else {
			score += m.scoring.TagWeight
		}
	}

	for _, w := range ir.questionWords {
		if strings.Contains(queryLower, w) {
			score += m.scoring.QuestionWordWeight
		}
	}

	anchored := false
	for _, w := range queryWords {
		if strings.Contains(ir.questionLower, w) {
			score += m.scoring.QueryWordWeight
			anchored = true
			continue
		}
		for _, tag := range ir.tags {
			if strings.Contains(tag, w) {
				anchored = true
				break
			}
		}
	}
	if !anchored && score > m.scoring.GenericCap {
		score = m.scoring.GenericCap
	}

	return score
}

// longWords splits on non-word runes and keeps words of at least
// minOverlapRunes runes, preserving order with duplicates removed.
func longWords(s string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, w := range strings.FieldsFunc(s, func(r rune) bool { return !isWordRune(r) }) {
		if utf8.RuneCountInString(w) < minOverlapRunes || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

func isWordRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r >= 0x0B80 && r <= 0x0BFF
}

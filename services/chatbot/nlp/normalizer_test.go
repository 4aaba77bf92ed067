// Copyright (C) 2026 FintechIQ (opensource@fintechiq.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package nlp

import (
	"testing"

	"github.com/fintechiq/finsight/services/chatbot/config"
)

func makeTestNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	n, err := NewNormalizer(makeTestRules(t).Normalizer)
	if err != nil {
		t.Fatalf("building normalizer: %v", err)
	}
	return n
}

func TestNormalizer_TamilTerms(t *testing.T) {
	n := makeTestNormalizer(t)

	cases := []struct {
		in   string
		want string
	}{
		{"பங்கு விலை என்ன", "stock what is the price"},
		{"தங்கம் விலை", "gold price"},
		{"AAPL வாங்கலாமா", "AAPL should i buy"},
		{"பங்குச்சந்தை நல்லா இருக்கா", "stock market நல்லா இருக்கா"},
	}
	for _, tc := range cases {
		if got := n.Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizer_TanglishPhrases(t *testing.T) {
	n := makeTestNormalizer(t)

	cases := []struct {
		in   string
		want string
	}{
		{"TSLA epdi pogudu", "TSLA how will it go"},
		{"apple vilai enna", "apple what is the price"},
		{"INFY vangalama", "INFY should i buy"},
		{"TCS pathi sollunga", "TCS tell about"},
	}
	for _, tc := range cases {
		if got := n.Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizer_WhitespaceTolerantPhrases(t *testing.T) {
	n := makeTestNormalizer(t)

	if got := n.Normalize("TSLA epdi   pogudu"); got != "TSLA how will it go" {
		t.Errorf("multi-space phrase not matched, got %q", got)
	}
}

func TestNormalizer_SpecificPhraseBeatsGeneric(t *testing.T) {
	n := makeTestNormalizer(t)

	// "pathi sollunga" must rewrite as a unit; a bare "sollunga" rule firing
	// first would leave "pathi tell" behind.
	if got := n.Normalize("reliance pathi sollunga"); got != "reliance tell about" {
		t.Errorf("specific phrase consumed by generic rule, got %q", got)
	}
}

func TestNormalizer_Idempotent(t *testing.T) {
	n := makeTestNormalizer(t)

	inputs := []string{
		"பங்கு விலை என்ன",
		"TSLA epdi pogudu",
		"predict AAPL price tomorrow",
		"apple vilai enna sollunga",
	}
	for _, in := range inputs {
		once := n.Normalize(in)
		twice := n.Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestNormalizer_PassesThroughEnglish(t *testing.T) {
	n := makeTestNormalizer(t)

	in := "predict AAPL for next week"
	if got := n.Normalize(in); got != in {
		t.Errorf("English text altered: %q -> %q", in, got)
	}
}

func TestNewNormalizer_EmptyPhraseFailsFast(t *testing.T) {
	rules := config.NormalizerRules{
		TamilTerms:      []config.Substitution{{Match: "x", Replace: "y"}},
		TanglishPhrases: []config.Substitution{{Match: "   ", Replace: "c"}},
	}
	if _, err := NewNormalizer(rules); err == nil {
		t.Fatal("expected error for empty phrase, got nil")
	}
}

func TestNormalizer_PhraseMetacharactersAreLiteral(t *testing.T) {
	rules := config.NormalizerRules{
		TanglishPhrases: []config.Substitution{{Match: "a(b", Replace: "c"}},
	}
	n, err := NewNormalizer(rules)
	if err != nil {
		t.Fatalf("phrase with metacharacters rejected: %v", err)
	}
	if got := n.Normalize("x a(b y"); got != "x c y" {
		t.Errorf("literal phrase not rewritten, got %q", got)
	}
	// The parenthesis is text, not grouping: "ab" must not match.
	if got := n.Normalize("ab"); got != "ab" {
		t.Errorf("phrase treated as regex, got %q", got)
	}
}

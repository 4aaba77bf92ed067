// Copyright (C) 2026 FintechIQ (opensource@fintechiq.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package nlp

import (
	"log/slog"
	"testing"

	"github.com/fintechiq/finsight/services/chatbot/config"
)

// makeTestRules loads the embedded rule tables once per test.
func makeTestRules(t *testing.T) *config.RuleSet {
	t.Helper()
	rs, err := config.Load()
	if err != nil {
		t.Fatalf("loading rule tables: %v", err)
	}
	return rs
}

func makeTestDetector(t *testing.T) *Detector {
	t.Helper()
	d, err := NewDetector(makeTestRules(t).Language, slog.Default())
	if err != nil {
		t.Fatalf("building detector: %v", err)
	}
	return d
}

func TestDetector_NativeScriptShortCircuits(t *testing.T) {
	d := makeTestDetector(t)

	cases := []string{
		"பங்கு விலை என்ன?",
		"AAPL விலை என்ன",   // Latin + Tamil mixed: native still wins
		"predict பங்கு now", // single Tamil word among English
	}
	for _, text := range cases {
		if got := d.Detect(text); got != LangNative {
			t.Errorf("Detect(%q) = %q, want %q", text, got, LangNative)
		}
	}
}

func TestDetector_TanglishPatterns(t *testing.T) {
	d := makeTestDetector(t)

	cases := []string{
		"TSLA future epdi pogudu?",
		"apple stock vilai enna",
		"idha vaanga venuma",
		"TCS pathi sollunga",
		"vanakkam",
	}
	for _, text := range cases {
		if got := d.Detect(text); got != LangTransliterated {
			t.Errorf("Detect(%q) = %q, want %q", text, got, LangTransliterated)
		}
	}
}

func TestDetector_PlainEnglish(t *testing.T) {
	d := makeTestDetector(t)

	cases := []string{
		"predict AAPL",
		"what is the price of TSLA?",
		"should I buy MSFT today",
	}
	for _, text := range cases {
		if got := d.Detect(text); got != LangLatin {
			t.Errorf("Detect(%q) = %q, want %q", text, got, LangLatin)
		}
	}
}

func TestDetector_EmptyInputIsLatin(t *testing.T) {
	d := makeTestDetector(t)

	for _, text := range []string{"", "   ", "\t\n"} {
		if got := d.Detect(text); got != LangLatin {
			t.Errorf("Detect(%q) = %q, want %q", text, got, LangLatin)
		}
	}
}

func TestDetector_ShortInputSkipsStatisticalIdentifier(t *testing.T) {
	// Below the minimum rune count the statistical identifier must not be
	// consulted; a short unknown token falls through to latin.
	rules := config.LanguageRules{
		MinStatisticalRunes: 100,
		TanglishPatterns:    []string{`\bzzzz\b`},
	}
	d, err := NewDetector(rules, slog.Default())
	if err != nil {
		t.Fatalf("building detector: %v", err)
	}

	if got := d.Detect("ok"); got != LangLatin {
		t.Errorf("Detect(short) = %q, want %q", got, LangLatin)
	}
	if d.lingua != nil {
		t.Error("statistical identifier was built for input below the minimum length")
	}
}

func TestDetector_BadPatternFailsFast(t *testing.T) {
	rules := config.LanguageRules{
		MinStatisticalRunes: 4,
		TanglishPatterns:    []string{`[unclosed`},
	}
	if _, err := NewDetector(rules, slog.Default()); err == nil {
		t.Fatal("expected error for invalid pattern, got nil")
	}
}

func TestLanguageTag_ResponseLanguage(t *testing.T) {
	cases := map[LanguageTag]string{
		LangNative:         "ta",
		LangTransliterated: "ta",
		LangLatin:          "en",
	}
	for tag, want := range cases {
		if got := tag.ResponseLanguage(); got != want {
			t.Errorf("ResponseLanguage(%q) = %q, want %q", tag, got, want)
		}
	}
}

// Copyright (C) 2026 FintechIQ (opensource@fintechiq.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package nlp

import "testing"

func makeTestTagger(t *testing.T) *Tagger {
	t.Helper()
	return NewTagger(makeTestRules(t).Sentiment)
}

func TestTagger_Positive(t *testing.T) {
	tg := makeTestTagger(t)

	cases := []string{
		"TSLA is in a great rally, huge gains",
		"bullish breakout on INFY",
		"லாபம் நல்லா இருக்கு",
		"nalla profit da",
	}
	for _, in := range cases {
		if got := tg.Tag(in); got != SentimentPositive {
			t.Errorf("Tag(%q) = %q, want positive", in, got)
		}
	}
}

func TestTagger_Negative(t *testing.T) {
	tg := makeTestTagger(t)

	cases := []string{
		"market crash wiped out my savings",
		"bearish selloff, terrible losses",
		"நஷ்டம் ஆச்சு",
		"nashtam romba jasthi",
	}
	for _, in := range cases {
		if got := tg.Tag(in); got != SentimentNegative {
			t.Errorf("Tag(%q) = %q, want negative", in, got)
		}
	}
}

func TestTagger_NeutralQueries(t *testing.T) {
	tg := makeTestTagger(t)

	cases := []string{
		"what is the price of AAPL",
		"predict TSLA for next week",
		"",
	}
	for _, in := range cases {
		if got := tg.Tag(in); got != SentimentNeutral {
			t.Errorf("Tag(%q) = %q, want neutral", in, got)
		}
	}
}

func TestTagger_DomainLexiconOverridesBase(t *testing.T) {
	tg := makeTestTagger(t)

	// "bull" and "surge" are neutral to a general-purpose scorer; the
	// domain lexicon must tip them positive.
	if got := tg.Tag("bull run surge expected"); got != SentimentPositive {
		t.Errorf("Tag(domain positive) = %q, want positive", got)
	}
	if got := tg.Tag("downtrend and selloff expected"); got != SentimentNegative {
		t.Errorf("Tag(domain negative) = %q, want negative", got)
	}
}

// Copyright (C) 2026 FintechIQ (opensource@fintechiq.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"regexp"
	"strings"
	"testing"
)

func TestLoad_EmbeddedTables(t *testing.T) {
	rs, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(rs.Intents.Intents) == 0 {
		t.Fatal("expected a non-empty intent taxonomy")
	}
	if rs.Intents.Intents[0].Name != "predict" {
		t.Errorf("expected 'predict' first in taxonomy (tie-break order), got %q", rs.Intents.Intents[0].Name)
	}
	if len(rs.FAQ.Records) == 0 {
		t.Error("expected FAQ records")
	}
	if rs.FAQ.Scoring.MinScore <= 0 {
		t.Error("expected a positive FAQ minimum score")
	}
}

func TestLoad_AllPatternsCompile(t *testing.T) {
	rs, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	compile := func(table, p string) {
		t.Helper()
		if _, err := regexp.Compile("(?i)" + p); err != nil {
			t.Errorf("%s: pattern %q does not compile: %v", table, p, err)
		}
	}
	for _, p := range rs.Language.TanglishPatterns {
		compile("language", p)
	}
	for _, spec := range rs.Intents.Intents {
		for _, p := range spec.Patterns {
			compile("intent:"+spec.Name, p)
		}
	}
	for _, spec := range rs.Intents.Entities {
		for _, p := range spec.Patterns {
			compile("entity:"+spec.Kind, p)
		}
	}
	for _, p := range rs.Guard.AllowPatterns {
		compile("guard.allow", p)
	}
	for _, bt := range rs.Guard.BlockedTopics {
		for _, p := range bt.Patterns {
			compile("guard.blocked:"+bt.Topic, p)
		}
	}
}

func TestLoad_PatternWeightDominatesKeywordWeight(t *testing.T) {
	rs, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if rs.Intents.PatternWeight <= rs.Intents.KeywordWeight {
		t.Errorf("pattern weight %d must exceed keyword weight %d",
			rs.Intents.PatternWeight, rs.Intents.KeywordWeight)
	}
}

func TestCheckSubstitutionOrder_RejectsShadowedPhrase(t *testing.T) {
	subs := []Substitution{
		{Match: "tell", Replace: "tell"},
		{Match: "tell about", Replace: "tell about"},
	}
	if err := checkSubstitutionOrder("test", subs); err == nil {
		t.Error("expected ordering violation when generic rule precedes specific one")
	}
}

func TestCheckSubstitutionOrder_AcceptsSpecificFirst(t *testing.T) {
	subs := []Substitution{
		{Match: "tell about", Replace: "tell about"},
		{Match: "tell", Replace: "tell"},
	}
	if err := checkSubstitutionOrder("test", subs); err != nil {
		t.Errorf("unexpected ordering error: %v", err)
	}
}

func TestLoad_StoplistIsUpperCase(t *testing.T) {
	rs, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	for _, w := range rs.Symbols.Stoplist {
		if w != strings.ToUpper(w) {
			t.Errorf("stoplist entry %q is not upper-case; extraction compares upper-cased tokens", w)
		}
	}
}

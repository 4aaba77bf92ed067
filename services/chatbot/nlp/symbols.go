// Copyright (C) 2026 FintechIQ (opensource@fintechiq.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package nlp

import (
	"regexp"
	"sort"
	"strings"

	"github.com/fintechiq/finsight/services/chatbot/config"
)

// =============================================================================
// Ticker Shape Patterns
// =============================================================================

// The pattern passes run in order; every candidate is filtered through the
// stop-list before it joins the result set. The bare permissive pattern is
// last on purpose — without the stop-list it would flood results with
// interrogatives and currency codes.
var (
	// Whole-message bare ticker ("TSLA", "INFY.NS") — a one-token lookup
	// must never be missed for being "too short to recognize".
	bareTickerRE = regexp.MustCompile(`^([A-Z]{2,5})(\.(?:NS|BO))?$`)

	// Explicit exchange-suffix form anywhere in the text.
	suffixedTickerRE = regexp.MustCompile(`\b([A-Z][A-Z&-]{1,11}\.(?:NS|BO))\b`)

	// "SYMBOL stock" / "SYMBOL shares".
	tickerStockRE = regexp.MustCompile(`\b([A-Z]{2,6})\s+(?:stock|stocks|share|shares)\b`)

	// Preposition-led: "for/of/about SYMBOL". Only the preposition is
	// case-insensitive; the symbol itself must be upper-case.
	prepositionTickerRE = regexp.MustCompile(`\b(?i:for|of|about)\s+([A-Z]{2,6})\b`)

	// Permissive last-resort: any 3-5 letter upper-case word.
	permissiveTickerRE = regexp.MustCompile(`\b([A-Z]{3,5})\b`)
)

// comparePairRE captures one "A vs/and/, B" pair of upper-case tokens.
var comparePairRE = regexp.MustCompile(`\b([A-Z]{2,6}(?:\.NS|\.BO)?)\s*(?:[Vv][Ss]\.?|versus|and|,)\s+([A-Z]{2,6}(?:\.NS|\.BO)?)\b`)

// =============================================================================
// Extractor
// =============================================================================

// Extractor finds stock symbols and auxiliary entities in utterances.
//
// Description:
//
//	Symbol extraction unions three independent passes — native-script name
//	lookup, Latin/Tanglish name lookup, and ticker shape patterns — then
//	de-duplicates and upper-cases. A ticker the user typed explicitly wins
//	over the name tables' exchange-suffixed mapping for the same base, so
//	"WIPRO" stays "WIPRO" while a lower-case "wipro" still resolves to
//	WIPRO.NS. The stop-list is applied after every pass; it is load-bearing,
//	not cosmetic.
//
// Thread Safety: Immutable after construction; safe for concurrent use.
type Extractor struct {
	nativeNames map[string]string
	latinNames  map[string]string
	stoplist    map[string]bool
	entities    []entityMatcher
}

// entityMatcher is one entity kind with its compiled, ordered pattern list.
type entityMatcher struct {
	kind     EntityKind
	patterns []*regexp.Regexp
}

// NewExtractor compiles entity patterns and indexes the lookup tables.
func NewExtractor(symbols config.SymbolRules, intents config.IntentRules) (*Extractor, error) {
	e := &Extractor{
		nativeNames: symbols.NativeNames,
		latinNames:  make(map[string]string, len(symbols.LatinNames)),
		stoplist:    make(map[string]bool, len(symbols.Stoplist)),
	}
	for name, sym := range symbols.LatinNames {
		e.latinNames[strings.ToLower(name)] = sym
	}
	for _, w := range symbols.Stoplist {
		e.stoplist[strings.ToUpper(w)] = true
	}

	for _, spec := range intents.Entities {
		m := entityMatcher{kind: EntityKind(spec.Kind)}
		for _, p := range spec.Patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, err
			}
			m.patterns = append(m.patterns, re)
		}
		e.entities = append(e.entities, m)
	}
	return e, nil
}

// Symbols extracts the de-duplicated, upper-cased symbol set from raw text.
// The result is sorted for deterministic output.
func (e *Extractor) Symbols(text string) []Symbol {
	mapped := make(map[Symbol]bool)
	explicit := make(map[Symbol]bool)

	// Pass 1: native-script company names (literal containment).
	for name, sym := range e.nativeNames {
		if strings.Contains(text, name) {
			e.add(mapped, sym)
		}
	}

	// Pass 2: Latin/Tanglish company names (case-insensitive containment).
	lower := strings.ToLower(text)
	for name, sym := range e.latinNames {
		if strings.Contains(lower, name) {
			e.add(mapped, sym)
		}
	}

	// Pass 3: ticker shape patterns. These are tokens the user typed
	// verbatim, collected separately so they outrank the name tables.
	trimmed := strings.TrimSpace(text)
	if m := bareTickerRE.FindStringSubmatch(trimmed); m != nil {
		e.add(explicit, m[1]+m[2])
	}
	for _, m := range suffixedTickerRE.FindAllStringSubmatch(text, -1) {
		e.add(explicit, m[1])
	}
	for _, m := range tickerStockRE.FindAllStringSubmatch(text, -1) {
		e.add(explicit, m[1])
	}
	for _, m := range prepositionTickerRE.FindAllStringSubmatch(text, -1) {
		e.add(explicit, m[1])
	}
	for _, m := range permissiveTickerRE.FindAllStringSubmatch(text, -1) {
		e.add(explicit, m[1])
	}

	// Merge: a name-table mapping is dropped when the user already typed a
	// ticker with the same base, suffixed or not.
	out := make([]Symbol, 0, len(explicit)+len(mapped))
	bases := make(map[string]bool, len(explicit))
	for sym := range explicit {
		bases[symbolBase(string(sym))] = true
		out = append(out, sym)
	}
	for sym := range mapped {
		if bases[symbolBase(string(sym))] {
			continue
		}
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// symbolBase strips an exchange suffix ("INFY.NS" -> "INFY").
func symbolBase(sym string) string {
	if i := strings.IndexByte(sym, '.'); i > 0 {
		return sym[:i]
	}
	return sym
}

// add applies upper-casing and the stop-list, then records the symbol. The
// stop-list is checked against the base token, without any exchange suffix.
// An unsuffixed candidate whose suffixed form was already found is dropped
// so "INFY.NS" does not also yield a bare "INFY".
func (e *Extractor) add(found map[Symbol]bool, candidate string) {
	sym := strings.ToUpper(strings.TrimSpace(candidate))
	if sym == "" {
		return
	}
	base := symbolBase(sym)
	if e.stoplist[base] {
		return
	}
	if base == sym && (found[Symbol(sym+".NS")] || found[Symbol(sym+".BO")]) {
		return
	}
	found[Symbol(sym)] = true
}

// CompareSymbols re-extracts symbols from the raw text using the pairwise
// "A vs/and/, B" pattern.
//
// Description:
//
//	Comparison utterances often chain bare upper-case tokens ("AAPL vs TSLA
//	vs MSFT") that the generic extractor can miss or misorder. When the
//	pairwise pattern matches, the caller replaces — not merges — the generic
//	result with this one. Returns nil when no pair is found.
//
//	Matching restarts at each pair's second symbol so chains of comparisons
//	are walked left to right.
func (e *Extractor) CompareSymbols(text string) []Symbol {
	var out []Symbol
	seen := make(map[Symbol]bool)

	add := func(candidate string) {
		sym := Symbol(strings.ToUpper(candidate))
		if e.stoplist[symbolBase(string(sym))] || seen[sym] {
			return
		}
		seen[sym] = true
		out = append(out, sym)
	}

	rest := text
	for {
		loc := comparePairRE.FindStringSubmatchIndex(rest)
		if loc == nil {
			break
		}
		add(rest[loc[2]:loc[3]])
		add(rest[loc[4]:loc[5]])
		// Continue from the second symbol so "A vs B vs C" yields all three.
		rest = rest[loc[4]:]
		if loc[4] == 0 {
			break
		}
	}
	return out
}

// Entities scans normalized text for algorithm, timeframe, and action
// entities. First match per kind wins; unmatched kinds are absent from the
// map — never nil placeholders.
func (e *Extractor) Entities(normalized string) map[EntityKind]string {
	result := make(map[EntityKind]string)
	for _, m := range e.entities {
		for _, re := range m.patterns {
			match := re.FindStringSubmatch(normalized)
			if match == nil {
				continue
			}
			value := match[0]
			if len(match) > 1 && match[1] != "" {
				value = match[1]
			}
			result[m.kind] = strings.ToLower(strings.TrimSpace(value))
			break
		}
	}
	return result
}

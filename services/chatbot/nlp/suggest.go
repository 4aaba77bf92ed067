// Copyright (C) 2026 FintechIQ (opensource@fintechiq.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package nlp

import (
	"strings"

	"github.com/fintechiq/finsight/services/chatbot/config"
)

// maxSuggestions caps the follow-up list per response.
const maxSuggestions = 2

// Suggester produces follow-up prompt strings from a pure lookup table keyed
// by (intent, hasSymbol). No randomness, no state: identical input always
// yields identical output.
type Suggester struct {
	table map[string]config.SuggestionPair
}

// NewSuggester wraps the reply tables.
func NewSuggester(replies config.ReplyTables) *Suggester {
	return &Suggester{table: replies.Suggestions}
}

// Suggest returns up to two language-appropriate follow-ups. The first
// extracted symbol, when present, is interpolated for the {symbol}
// placeholder.
func (s *Suggester) Suggest(intent Intent, symbols []Symbol, respLang string) []string {
	pair, ok := s.table[string(intent)]
	if !ok {
		return nil
	}

	var templates []string
	if len(symbols) > 0 {
		templates = pair.WithSymbol.Pick(respLang)
	} else {
		templates = pair.WithoutSymbol.Pick(respLang)
	}
	if len(templates) > maxSuggestions {
		templates = templates[:maxSuggestions]
	}

	out := make([]string, 0, len(templates))
	for _, tpl := range templates {
		if len(symbols) > 0 {
			tpl = strings.ReplaceAll(tpl, "{symbol}", string(symbols[0]))
		}
		out = append(out, tpl)
	}
	return out
}

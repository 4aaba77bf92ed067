// Copyright (C) 2026 FintechIQ (opensource@fintechiq.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import "regexp"

// redactionPattern pairs a compiled regex with a labeled replacement so a
// reader knows what class of identifier was removed.
type redactionPattern struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// piiPatterns are the ordered identifier classes scrubbed from user text
// before it leaves the process. Order matters: the longer numeric formats
// must run before the bare phone pattern so a 12-digit identifier is not
// half-matched as a phone number.
var piiPatterns = []redactionPattern{
	// Indian PAN: five letters, four digits, one letter.
	{
		Pattern:     regexp.MustCompile(`\b[A-Z]{5}[0-9]{4}[A-Z]\b`),
		Replacement: "[REDACTED:pan]",
	},
	// 12-digit national identifier, with or without spacing groups.
	{
		Pattern:     regexp.MustCompile(`\b\d{4}[ -]?\d{4}[ -]?\d{4}\b`),
		Replacement: "[REDACTED:id_number]",
	},
	// Phone numbers: optional country code, 10 digits.
	{
		Pattern:     regexp.MustCompile(`(\+91[ -]?)?\b[6-9]\d{9}\b`),
		Replacement: "[REDACTED:phone]",
	},
	// Email addresses.
	{
		Pattern:     regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`),
		Replacement: "[REDACTED:email]",
	},
	// Bearer tokens pasted into chat.
	{
		Pattern:     regexp.MustCompile(`Bearer\s+[A-Za-z0-9._-]{10,}`),
		Replacement: "[REDACTED:token]",
	},
}

// ScrubPII removes personal identifiers from text bound for the external
// LLM. Pattern-based only: it catches the common formats, not every
// possible identifier.
func ScrubPII(s string) string {
	for _, p := range piiPatterns {
		s = p.Pattern.ReplaceAllString(s, p.Replacement)
	}
	return s
}

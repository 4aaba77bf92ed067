// Copyright (C) 2026 FintechIQ (opensource@fintechiq.in)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"strings"
	"testing"
)

func TestScrubPII_Email(t *testing.T) {
	got := ScrubPII("contact me at ravi.kumar@example.com about TCS")
	if strings.Contains(got, "ravi.kumar@example.com") {
		t.Fatalf("email survived scrubbing: %q", got)
	}
	if !strings.Contains(got, "[REDACTED:email]") {
		t.Errorf("expected email label, got %q", got)
	}
	if !strings.Contains(got, "TCS") {
		t.Errorf("non-PII content was altered: %q", got)
	}
}

func TestScrubPII_Phone(t *testing.T) {
	cases := []string{
		"call me on 9876543210",
		"call me on +91 9876543210",
		"call me on +91-9876543210",
	}
	for _, in := range cases {
		got := ScrubPII(in)
		if strings.Contains(got, "9876543210") {
			t.Errorf("ScrubPII(%q) left phone digits: %q", in, got)
		}
		if !strings.Contains(got, "[REDACTED:phone]") {
			t.Errorf("ScrubPII(%q) missing phone label: %q", in, got)
		}
	}
}

func TestScrubPII_PAN(t *testing.T) {
	got := ScrubPII("my pan is ABCDE1234F")
	if strings.Contains(got, "ABCDE1234F") {
		t.Fatalf("PAN survived scrubbing: %q", got)
	}
	if !strings.Contains(got, "[REDACTED:pan]") {
		t.Errorf("expected pan label, got %q", got)
	}
}

func TestScrubPII_IDNumberBeforePhone(t *testing.T) {
	// A 12-digit identifier must be consumed whole, not matched in part
	// as a 10-digit phone number.
	got := ScrubPII("id 1234 5678 9012")
	if !strings.Contains(got, "[REDACTED:id_number]") {
		t.Errorf("expected id_number label, got %q", got)
	}
	if strings.Contains(got, "[REDACTED:phone]") {
		t.Errorf("identifier mislabeled as phone: %q", got)
	}
}

func TestScrubPII_BearerToken(t *testing.T) {
	got := ScrubPII("Bearer sk-abc123def456ghi789 leaked")
	if strings.Contains(got, "sk-abc123def456ghi789") {
		t.Fatalf("token survived scrubbing: %q", got)
	}
}

func TestScrubPII_CleanTextUnchanged(t *testing.T) {
	in := "what is the price of RELIANCE.NS today?"
	if got := ScrubPII(in); got != in {
		t.Errorf("clean text was modified: %q", got)
	}
}

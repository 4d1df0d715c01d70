// Package source provides shared normalization helpers for listing adapters.
package source

import (
	"strings"
	"time"

	"github.com/JakeFAU/rfp-radar/internal/rfp"
)

// Date layouts seen across procurement sites, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
}

// NormalizeDate parses a raw deadline string into the canonical 2006-01-02
// form. Empty input becomes the TBD sentinel; an unrecognized format is
// passed through untouched so the scorer can still ignore it safely.
func NormalizeDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return rfp.DeadlineTBD
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return raw
}

// NormalizeValue cleans up a free-text budget descriptor. Empty input becomes
// the "Not specified" sentinel; anything that looks monetary gets a leading
// dollar sign.
func NormalizeValue(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return rfp.ValueNotSpecified
	}
	v = strings.ReplaceAll(v, ",", "")
	if strings.ContainsAny(v, "0123456789") && !strings.HasPrefix(v, "$") {
		v = "$" + v
	}
	return v
}

// NormalizeContact substitutes the sentinel for a missing contact.
func NormalizeContact(raw string) string {
	c := strings.TrimSpace(raw)
	if c == "" {
		return rfp.ContactSeePosting
	}
	return c
}

// techTerms is the vocabulary adapters tag opportunities with. Distinct from
// the scoring vocabulary, which is configured separately.
var techTerms = []string{
	"software", "technology", "digital", "cloud", "api",
	"payment", "fintech", "database", "security", "ai",
	"machine learning", "analytics", "mobile", "web",
}

// ExtractKeywords returns the tech terms present in text, in vocabulary
// order, without duplicates.
func ExtractKeywords(text string) []string {
	lower := strings.ToLower(text)
	var keywords []string
	for _, term := range techTerms {
		if strings.Contains(lower, term) {
			keywords = append(keywords, term)
		}
	}
	return keywords
}

// TruncateDescription caps a description at the shared rune limit.
func TruncateDescription(raw string) string {
	runes := []rune(strings.TrimSpace(raw))
	if len(runes) <= rfp.MaxDescriptionRunes {
		return string(runes)
	}
	return string(runes[:rfp.MaxDescriptionRunes])
}

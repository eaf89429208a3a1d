package services

import (
	"strings"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var ligatures = strings.NewReplacer(
	"ﬁ", "fi",
	"ﬂ", "fl",
	"ﬀ", "ff",
	"ﬃ", "ffi",
	"ﬄ", "ffl",
	"ﬆ", "st",
)

// NormalizeText führt NFC-Normalisierung durch, ersetzt Ligaturen und trimmt.
func NormalizeText(s string) string {
	s = ligatures.Replace(s)
	normalized, _, err := transform.String(norm.NFC, s)
	if err != nil {
		normalized = s
	}
	return strings.TrimSpace(normalized)
}

// NormalizeName ist der Schlüssel, unter dem Namen gespeichert und gesucht werden.
func NormalizeName(s string) string {
	return strings.ToLower(NormalizeText(s))
}

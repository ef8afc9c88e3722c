package chem

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName removes every whitespace rune and folds the name to NFC so
// that "A TP" and "ATP" (or composed and decomposed accents) resolve alike.
func NormalizeName(name string) string {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, name)
	return norm.NFC.String(stripped)
}

package textfilter

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Fold lower-cases text using language-neutral casing rules so that player
// input and rule keywords fold the same way regardless of host locale.
// Folding is per rune: a Greek capital sigma always becomes σ, never the
// word-final ς, so a folded keyword is found inside folded input.
func Fold(text string) string {
	// A Caser carries state between calls, so each call gets its own.
	return cases.Lower(language.Und, cases.HandleFinalSigma(false)).String(text)
}

// Normalize trims surrounding whitespace and, when caseInsensitive is set,
// folds the result to lower case.
func Normalize(text string, caseInsensitive bool) string {
	text = strings.TrimSpace(text)
	if caseInsensitive {
		text = Fold(text)
	}
	return text
}

// FoldIf folds text only when caseInsensitive is set. Unlike Normalize it
// leaves whitespace untouched, which is what keyword comparison needs.
func FoldIf(text string, caseInsensitive bool) string {
	if caseInsensitive {
		return Fold(text)
	}
	return text
}

// IsBlank reports whether text is empty or whitespace only.
func IsBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

// Package engine implements the Pandora dialogue decision engine: per-turn
// dispatch between the crisis interrupt, menu and flow-graph traversal,
// guided sub-dialogues, deterministic topic triage, and the probabilistic
// intent fallback.
package engine

import (
	"regexp"
	"strings"
)

var (
	reWhitespace = regexp.MustCompile(`\s+`)
	reWordToken  = regexp.MustCompile(`[a-zA-Z']+`)
	reNonWord    = regexp.MustCompile(`[^\w\s]`)
)

// Normalize collapses whitespace runs to single spaces and trims the ends.
func Normalize(text string) string {
	return reWhitespace.ReplaceAllString(strings.TrimSpace(text), " ")
}

// Lower returns the normalized, lowercased form of text.
func Lower(text string) string {
	return strings.ToLower(Normalize(text))
}

// Tokenize extracts maximal runs of letters and apostrophes, lowercased.
func Tokenize(text string) []string {
	return reWordToken.FindAllString(Lower(text), -1)
}

// stripSymbols removes every non-word, non-space character. Used when
// comparing user input against flow-graph option labels, which routinely
// carry emoji.
func stripSymbols(text string) string {
	return strings.TrimSpace(reNonWord.ReplaceAllString(text, ""))
}

// Similarity returns a symmetric similarity ratio in [0,1] between two
// strings: twice the number of characters in common (per Ratcliff/Obershelp
// longest-matching-block decomposition) over the total length.
func Similarity(a, b string) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1.0
	}
	return 2.0 * float64(matchingChars(a, b)) / float64(total)
}

// matchingChars counts characters in matching blocks: it finds the longest
// common substring, then recurses on the unmatched pieces to either side.
func matchingChars(a, b string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	aStart, bStart, size := longestMatch(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchingChars(a[:aStart], b[:bStart]) +
		matchingChars(a[aStart+size:], b[bStart+size:])
}

// longestMatch locates the longest common substring of a and b, preferring
// the earliest occurrence in a, then in b.
func longestMatch(a, b string) (aStart, bStart, size int) {
	// lengths[j] is the length of the common suffix ending at a[i-1], b[j-1].
	lengths := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		prev := 0
		for j := 1; j <= len(b); j++ {
			cur := lengths[j]
			if a[i-1] == b[j-1] {
				lengths[j] = prev + 1
				if lengths[j] > size {
					size = lengths[j]
					aStart = i - size
					bStart = j - size
				}
			} else {
				lengths[j] = 0
			}
			prev = cur
		}
	}
	return aStart, bStart, size
}

// FuzzyWordInText reports whether any token of text has similarity to
// target at or above thresh.
func FuzzyWordInText(text, target string, thresh float64) bool {
	for _, tok := range Tokenize(text) {
		if Similarity(tok, target) >= thresh {
			return true
		}
	}
	return false
}

// ContainsAnyPhrase reports whether any phrase in the set is a substring of
// the lowercased, normalized text.
func ContainsAnyPhrase(text string, phrases map[string]bool) bool {
	t := Lower(text)
	for p := range phrases {
		if strings.Contains(t, p) {
			return true
		}
	}
	return false
}

package analyzer

import (
	"strings"
	"unicode"
)

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"of": true, "to": true, "in": true, "on": true, "for": true, "with": true,
	"is": true, "are": true, "was": true, "were": true, "be": true, "been": true,
	"this": true, "that": true, "it": true, "as": true, "at": true, "by": true,
	"from": true, "i": true, "you": true, "we": true, "he": true, "she": true,
	"they": true, "my": true, "your": true, "our": true, "their": true,
}

// WordFrequency computes a deterministic word-frequency map and unique-word
// count over text (§4.5). Tokenization is lowercase, punctuation-stripped,
// whitespace-split; single-letter tokens and a small stop-word list are
// excluded so the result is useful for a word-cloud visualization rather
// than dominated by filler words.
func WordFrequency(text string) (map[string]int, int) {
	freq := make(map[string]int)

	for _, raw := range strings.Fields(text) {
		word := strings.TrimFunc(raw, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		word = strings.ToLower(word)
		if len(word) <= 1 || stopWords[word] {
			continue
		}
		freq[word]++
	}

	return freq, len(freq)
}

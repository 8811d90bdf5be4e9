package dispatch

import (
	"strings"
	"unicode"
)

const ContinuedLabel = "(continued)"

// SplitWords splits text into sequential chunks of at most limit words,
// preserving internal whitespace so Markdown structure survives. A
// non-positive limit disables chunking.
func SplitWords(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if limit <= 0 || text == "" {
		return []string{text}
	}

	var chunks []string
	remaining := text
	for remaining != "" {
		chunk, rest := takeWords(remaining, limit)
		chunks = append(chunks, chunk)
		remaining = strings.TrimSpace(rest)
	}

	return chunks
}

// LabelChunks prefixes every chunk after the first so recipients can
// tell a continuation from a fresh delivery.
func LabelChunks(chunks []string) []string {
	labeled := make([]string, len(chunks))
	for i, chunk := range chunks {
		if i == 0 {
			labeled[i] = chunk
			continue
		}
		labeled[i] = ContinuedLabel + "\n\n" + chunk
	}
	return labeled
}

// takeWords returns the prefix of s holding at most n words and the
// unconsumed remainder.
func takeWords(s string, n int) (string, string) {
	inWord := false
	words := 0

	for i, r := range s {
		if unicode.IsSpace(r) {
			inWord = false
			continue
		}
		if !inWord {
			words++
			inWord = true
			if words > n {
				return strings.TrimRightFunc(s[:i], unicode.IsSpace), s[i:]
			}
		}
	}

	return s, ""
}

// CountWords reports the number of whitespace-separated words in text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

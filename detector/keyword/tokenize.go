// Package keyword implements text tokenization for the comment analyzers.
// It lower-cases, strips punctuation, and applies unicode normalization and
// accent folding so that downstream frequency counts and n-gram comparisons
// behave consistently across scripts.
package keyword

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonTokenChars = regexp.MustCompile(`[^\pL\pN\s]+`)

// TokenizeText splits free-form comment text into normalized word tokens.
func TokenizeText(text string) []string {
	// the transform chain is stateful and must not be shared across calls
	normFunc := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	bare := strings.ToLower(nonTokenChars.ReplaceAllString(text, " "))
	folded, _, err := transform.String(normFunc, bare)
	if err != nil {
		slog.Warn("unicode normalization error", "err", err)
		folded = bare
	}
	return strings.Fields(folded)
}

func splitWordRune(c rune) bool {
	return !unicode.IsLetter(c) && !unicode.IsNumber(c)
}

// TokenizeIdentifier splits a username or subreddit name into tokens,
// dropping single-character fragments. For example "Best_Deals99" becomes
// ["best", "deals99"].
func TokenizeIdentifier(orig string) []string {
	fields := strings.FieldsFunc(strings.ToLower(orig), splitWordRune)
	out := make([]string, 0, len(fields))
	for _, v := range fields {
		if len(v) > 1 {
			out = append(out, v)
		}
	}
	return out
}

// NGrams returns all consecutive n-token windows joined by single spaces.
func NGrams(tokens []string, n int) []string {
	if n < 1 || len(tokens) < n {
		return nil
	}
	out := make([]string, 0, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		out = append(out, strings.Join(tokens[i:i+n], " "))
	}
	return out
}

package related

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Tokenize lowercases text and splits it into tokens made of letters,
// digits, underscores and hyphens. Every other rune separates tokens.
// Input is NFC-normalized first so decomposed accents match precomposed ones.
func Tokenize(text string) []string {
	text = strings.ToLower(norm.NFC.String(text))
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, text)
	return strings.Fields(cleaned)
}

// Bigrams joins each adjacent token pair with a single space.
func Bigrams(tokens []string) []string {
	if len(tokens) < 2 {
		return nil
	}
	out := make([]string, 0, len(tokens)-1)
	for i := 0; i < len(tokens)-1; i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
	}
	return out
}

// Expand appends the expansion of every concept whose keyword occurs in
// text, in rule order. Matching is a case-insensitive substring test, so a
// keyword fires even inside a longer word.
func Expand(text string) string {
	lower := strings.ToLower(norm.NFC.String(text))
	var expansions []string
	for _, c := range concepts {
		if strings.Contains(lower, c.keyword) {
			expansions = append(expansions, c.expansion)
		}
	}
	return text + " " + strings.Join(expansions, " ")
}

// Package tokenize implements the normative tokenization shared by BM25
// indexing and the deterministic embedding function (§4.4). It must be
// byte-reproducible: any two readers that exchange a file must tokenize
// identically, so this is the single place the rule is implemented.
package tokenize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// stopWords is the small, fixed English stop-word list. It is part of
// the format contract (§4.4): changing it changes every BM25 posting
// list and every embedding vector, so it is enumerated here once and
// never derived from a locale-sensitive source.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "but": true, "by": true, "for": true, "if": true, "in": true,
	"into": true, "is": true, "it": true, "no": true, "not": true, "of": true,
	"on": true, "or": true, "such": true, "that": true, "the": true,
	"their": true, "then": true, "there": true, "these": true, "they": true,
	"this": true, "to": true, "was": true, "will": true, "with": true,
}

// Tokens normalizes text with NFKC, lowercases it, splits on any Unicode
// character that is not a letter, digit, or underscore, and discards
// tokens shorter than two runes or present in the stop-word list.
func Tokens(text string) []string {
	normalized := norm.NFKC.String(text)
	lower := strings.ToLower(normalized)

	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() == 0 {
			return
		}
		tok := cur.String()
		cur.Reset()
		if len([]rune(tok)) < 2 {
			return
		}
		if stopWords[tok] {
			return
		}
		tokens = append(tokens, tok)
	}
	for _, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

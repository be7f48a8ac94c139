package utils

import (
	"strings"
	"unicode"
)

// stopwords never count as search terms. Search and analysis verbs are
// included so "show me loads from Swift" searches for "swift" only.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "of": true,
	"to": true, "in": true, "on": true, "at": true, "for": true, "from": true,
	"with": true, "by": true, "me": true, "my": true, "i": true, "we": true,
	"our": true, "you": true, "your": true, "is": true, "are": true, "was": true,
	"be": true, "it": true, "this": true, "that": true, "these": true, "those": true,
	"what": true, "which": true, "where": true, "when": true, "who": true,
	"all": true, "any": true, "some": true, "please": true, "can": true,
	"could": true, "would": true, "do": true, "does": true, "did": true,
	"have": true, "has": true, "there": true, "about": true, "get": true,
	"give": true, "tell": true, "need": true, "want": true, "one": true,
	"load": true, "loads": true, "shipment": true, "shipments": true,
	"order": true, "orders": true,
	"search": true, "find": true, "show": true, "list": true, "lookup": true,
	"status": true, "broker": true, "brokers": true, "id": true, "number": true,
	"analyze": true, "compare": true, "recommend": true, "why": true, "how": true,
	"explain": true, "advice": true, "help": true, "best": true, "worst": true,
}

// SearchTerms splits a query into lowercased search terms with stopwords removed.
// '#', '$', '.' and ',' are kept inside tokens so ids and amounts survive; a
// leading '#' is then dropped.
func SearchTerms(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '#' || r == '$' || r == '.' || r == ',')
	})

	seen := make(map[string]bool, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,")
		f = strings.TrimPrefix(f, "#")
		if len(f) < 2 || stopwords[f] || seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, f)
	}
	return terms
}

// NumericTerm strips '$' and ',' from a term and reports whether what is
// left is a plain number (digits with at most one '.')
func NumericTerm(term string) (string, bool) {
	cleaned := strings.NewReplacer("$", "", ",", "").Replace(term)
	if cleaned == "" {
		return "", false
	}
	dots := 0
	for _, r := range cleaned {
		switch {
		case r == '.':
			dots++
			if dots > 1 {
				return "", false
			}
		case r < '0' || r > '9':
			return "", false
		}
	}
	if cleaned == "." {
		return "", false
	}
	return cleaned, true
}

// ContainsWord reports whether text contains phrase on word boundaries,
// case-insensitively
func ContainsWord(text, phrase string) bool {
	text = strings.ToLower(text)
	phrase = strings.ToLower(strings.TrimSpace(phrase))
	if phrase == "" {
		return false
	}
	for start := 0; start <= len(text)-len(phrase); {
		idx := strings.Index(text[start:], phrase)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(phrase)
		if isBoundary(text, idx-1) && isBoundary(text, end) {
			return true
		}
		start = idx + 1
	}
	return false
}

func isBoundary(text string, i int) bool {
	if i < 0 || i >= len(text) {
		return true
	}
	c := text[i]
	return !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_')
}

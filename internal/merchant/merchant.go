// Package merchant derives stable grouping keys and display names from raw
// statement narrations.
//
// Bank narrations mix the merchant with volatile material: UPI/NEFT channel
// prefixes, reference numbers, VPA handles and dates. Key strips all of it so
// that two charges from the same merchant in different months share a key.
package merchant

import (
	"strings"
	"unicode"
)

// maxKeyTokens bounds how much of the narration becomes the grouping key.
const maxKeyTokens = 3

// noise are channel prefixes and filler words that never identify a merchant.
var noise = map[string]bool{
	"upi": true, "neft": true, "imps": true, "rtgs": true, "ach": true, "nach": true,
	"pos": true, "ecom": true, "atm": true, "dr": true, "cr": true, "debit": true,
	"credit": true, "card": true, "txn": true, "trf": true, "transfer": true,
	"ref": true, "payment": true, "purchase": true, "to": true, "from": true,
	"by": true, "via": true, "the": true, "of": true, "at": true, "in": true,
	"on": true, "for": true, "mb": true, "ib": true, "bil": true, "onl": true,
}

// Tokens returns the significant lowercase tokens of a narration in order,
// de-duplicated. Tokens containing digits are treated as reference IDs.
func Tokens(description string) []string {
	fields := strings.FieldsFunc(strings.ToLower(description), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < 2 || noise[f] || seen[f] || hasDigit(f) {
			continue
		}
		seen[f] = true
		tokens = append(tokens, f)
	}
	return tokens
}

// Key returns the normalized grouping key for a narration, or "" when the
// narration has no significant tokens.
func Key(description string) string {
	tokens := Tokens(description)
	if len(tokens) > maxKeyTokens {
		tokens = tokens[:maxKeyTokens]
	}
	return strings.Join(tokens, " ")
}

// DisplayName returns a best-effort title-cased merchant name built from the
// first n significant tokens.
func DisplayName(description string, n int) string {
	tokens := Tokens(description)
	if len(tokens) > n {
		tokens = tokens[:n]
	}
	for i, t := range tokens {
		r := []rune(t)
		r[0] = unicode.ToUpper(r[0])
		tokens[i] = string(r)
	}
	return strings.Join(tokens, " ")
}

func hasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

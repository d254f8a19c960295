// Package conditions parses human-authored road weather conditions into
// validated expression trees of primary and secondary blocks.
package conditions

import (
	"strconv"
	"strings"
)

// Identifier length limits. Postgres caps identifiers at 63 bytes; the
// default stays at 40 so that identifiers concatenated from site and
// alias still fit.
const (
	DefaultMaxIdentifierLen = 40
	PgMaxIdentifierLen      = 63
)

// Rules configures identifier validation and block value parsing.
type Rules struct {
	// MaxIdentifierLen caps normalized identifier length.
	MaxIdentifierLen int
	// Reserved lists storage relation names that identifiers must not collide
	// with, normally supplied by the observation store.
	Reserved map[string]struct{}
	// AllowTextValues relaxes the numeric-literal requirement on primary
	// block values.
	AllowTextValues bool
}

// DefaultRules returns rules with the stock limits and reserved words.
func DefaultRules() Rules {
	return Rules{
		MaxIdentifierLen: DefaultMaxIdentifierLen,
		Reserved:         defaultReserved(),
	}
}

// WithReserved returns a copy of the rules with extra reserved words added.
func (r Rules) WithReserved(words []string) Rules {
	reserved := make(map[string]struct{}, len(r.Reserved)+len(words))
	for w := range r.Reserved {
		reserved[w] = struct{}{}
	}
	for _, w := range words {
		reserved[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	r.Reserved = reserved
	return r
}

func defaultReserved() map[string]struct{} {
	return map[string]struct{}{
		"stations": {},
		"statobs":  {},
		"sensors":  {},
		"seobs":    {},
	}
}

// EliminateUmlauts converts ä and ö into a and o. No other transliteration
// is performed.
func EliminateUmlauts(s string) string {
	replacer := strings.NewReplacer("ä", "a", "Ä", "A", "ö", "o", "Ö", "O")
	return replacer.Replace(s)
}

// NormalizeIdentifier converts free text into a safe lowercase identifier:
// whitespace is trimmed, the string is lowercased, umlauts map to their
// base letters and internal spaces become underscores. The result must be
// non-empty, not start with a digit, stay within the configured length,
// contain only ASCII alphanumerics or underscore, and not collide with a
// reserved relation name.
func NormalizeIdentifier(text string, rules Rules) (string, error) {
	trimmed := strings.TrimSpace(text)
	normalized := strings.ToLower(trimmed)
	normalized = EliminateUmlauts(normalized)
	normalized = strings.ReplaceAll(normalized, " ", "_")

	if normalized == "" {
		return "", &IdentifierError{Input: trimmed, Index: -1, Reason: "empty identifier"}
	}
	if normalized[0] >= '0' && normalized[0] <= '9' {
		return "", &IdentifierError{Input: trimmed, Index: 0, Reason: "identifier starts with a digit"}
	}
	maxLen := rules.MaxIdentifierLen
	if maxLen <= 0 {
		maxLen = DefaultMaxIdentifierLen
	}
	if len(normalized) > maxLen {
		return "", &IdentifierError{
			Input:  trimmed,
			Index:  -1,
			Reason: "identifier longer than maximum of " + strconv.Itoa(maxLen) + " characters",
		}
	}
	for i := 0; i < len(normalized); i++ {
		c := normalized[i]
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			continue
		}
		return "", &IdentifierError{Input: trimmed, Index: i, Reason: "invalid character"}
	}
	if _, ok := rules.Reserved[normalized]; ok {
		return "", &IdentifierError{Input: trimmed, Index: -1, Reason: "identifier collides with a reserved relation name"}
	}
	return normalized, nil
}

package conditions

import (
	"strconv"
	"strings"
)

// TokenKind classifies condition tokens.
type TokenKind int

const (
	TokenOpenParen TokenKind = iota
	TokenCloseParen
	TokenAndOr
	TokenNot
	TokenLeaf
)

func (k TokenKind) String() string {
	switch k {
	case TokenOpenParen:
		return "open_paren"
	case TokenCloseParen:
		return "close_paren"
	case TokenAndOr:
		return "and_or"
	case TokenNot:
		return "not"
	case TokenLeaf:
		return "leaf"
	default:
		return "unknown"
	}
}

// Token is one syntactic element of a condition string.
type Token struct {
	Kind TokenKind
	Text string
}

// Tokenize splits a raw condition string into typed tokens and validates
// their order against the condition grammar. Keywords are case-insensitive;
// the returned tokens are lowercase.
func Tokenize(raw string) ([]Token, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	value = EliminateUmlauts(value)

	nOpen := strings.Count(value, "(")
	nClose := strings.Count(value, ")")
	if nOpen != nClose {
		return nil, &SyntaxError{
			Reason: "unequal number of opening and closing parentheses: " +
				strconv.Itoa(nOpen) + " opening and " + strconv.Itoa(nClose) + " closing",
		}
	}

	// Collapse whitespace runs to single spaces.
	value = strings.Join(strings.Fields(value), " ")
	if value == "" {
		return nil, &SyntaxError{Reason: "empty condition"}
	}

	pieces := splitPieces(value)
	pieces = mergeInTuples(pieces)

	tokens := make([]Token, 0, len(pieces))
	for _, p := range pieces {
		switch p {
		case "(":
			tokens = append(tokens, Token{Kind: TokenOpenParen, Text: p})
		case ")":
			tokens = append(tokens, Token{Kind: TokenCloseParen, Text: p})
		case "and", "or":
			tokens = append(tokens, Token{Kind: TokenAndOr, Text: p})
		case "not":
			tokens = append(tokens, Token{Kind: TokenNot, Text: p})
		default:
			tokens = append(tokens, Token{Kind: TokenLeaf, Text: p})
		}
	}

	if err := validateOrder(tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

// splitPieces cuts the collapsed string on parentheses anywhere and on the
// words and, or, not when surrounded by whitespace (not also at string
// start). Pieces come back trimmed with empties dropped.
func splitPieces(value string) []string {
	var pieces []string
	var buf strings.Builder

	flush := func() {
		piece := strings.TrimSpace(buf.String())
		if piece != "" {
			pieces = append(pieces, piece)
		}
		buf.Reset()
	}

	isWordAt := func(i int, word string) bool {
		if !strings.HasPrefix(value[i:], word) {
			return false
		}
		end := i + len(word)
		if end >= len(value) || value[end] != ' ' {
			return false
		}
		if i == 0 {
			return word == "not"
		}
		return value[i-1] == ' '
	}

	for i := 0; i < len(value); {
		c := value[i]
		if c == '(' || c == ')' {
			flush()
			pieces = append(pieces, string(c))
			i++
			continue
		}
		matched := ""
		for _, word := range []string{"and", "or", "not"} {
			if isWordAt(i, word) {
				matched = word
				break
			}
		}
		if matched != "" {
			flush()
			pieces = append(pieces, matched)
			i += len(matched)
			continue
		}
		buf.WriteByte(c)
		i++
	}
	flush()
	return pieces
}

// mergeInTuples re-joins tuple fragments after the "in" operator that the
// parenthesis rule split apart, e.g. "a#x in", "(", "1, 2", ")" becomes the
// single leaf "a#x in (1, 2)". Malformed tuples surface later as block
// errors.
func mergeInTuples(pieces []string) []string {
	var merged []string
	for _, piece := range pieces {
		if len(merged) == 0 {
			merged = append(merged, piece)
			continue
		}
		last := merged[len(merged)-1]
		switch {
		case strings.HasSuffix(last, " in") && len(last) > 3:
			merged[len(merged)-1] = last + " " + piece
		case strings.Contains(last, " in ") && !strings.HasSuffix(last, ")"):
			merged[len(merged)-1] = last + piece
		default:
			merged = append(merged, piece)
		}
	}
	return merged
}

// validateOrder checks token adjacency against the grammar table. The
// grammar has no operator precedence beyond explicit parentheses; not binds
// only to the immediately following term or parenthesized group.
func validateOrder(tokens []Token) error {
	allowedFirst := map[TokenKind]bool{
		TokenOpenParen: true,
		TokenNot:       true,
		TokenLeaf:      true,
	}
	allowedLast := map[TokenKind]bool{
		TokenCloseParen: true,
		TokenLeaf:       true,
	}
	allowedPairs := map[TokenKind]map[TokenKind]bool{
		TokenOpenParen:  {TokenOpenParen: true, TokenNot: true, TokenLeaf: true},
		TokenCloseParen: {TokenCloseParen: true, TokenAndOr: true},
		TokenAndOr:      {TokenOpenParen: true, TokenNot: true, TokenLeaf: true},
		TokenNot:        {TokenOpenParen: true, TokenLeaf: true},
		TokenLeaf:       {TokenCloseParen: true, TokenAndOr: true},
	}

	if len(tokens) == 0 {
		return &SyntaxError{Reason: "empty condition"}
	}
	if !allowedFirst[tokens[0].Kind] {
		return &SyntaxError{Left: tokens[0].Text, Reason: "not allowed as first element"}
	}
	if !allowedLast[tokens[len(tokens)-1].Kind] {
		return &SyntaxError{Left: tokens[len(tokens)-1].Text, Reason: "not allowed as last element"}
	}
	for i := 0; i+1 < len(tokens); i++ {
		if !allowedPairs[tokens[i].Kind][tokens[i+1].Kind] {
			return &SyntaxError{Left: tokens[i].Text, Right: tokens[i+1].Text}
		}
	}
	return nil
}

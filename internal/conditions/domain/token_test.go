package conditions

import (
	"errors"
	"testing"
)

func kinds(tokens []Token) []TokenKind {
	out := make([]TokenKind, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Kind
	}
	return out
}

func TestTokenize_SimpleLeaf(t *testing.T) {
	tokens, err := Tokenize("s1122#kitka3_luku >= 0.30")
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if len(tokens) != 1 || tokens[0].Kind != TokenLeaf {
		t.Fatalf("expected single leaf, got %v", tokens)
	}
	if tokens[0].Text != "s1122#kitka3_luku >= 0.30" {
		t.Fatalf("unexpected leaf text %q", tokens[0].Text)
	}
}

func TestTokenize_ParensAndKeywords(t *testing.T) {
	tokens, err := Tokenize("(A#x = 1 OR not B#y > 2) and c#z < 3")
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	want := []TokenKind{
		TokenOpenParen, TokenLeaf, TokenAndOr, TokenNot, TokenLeaf,
		TokenCloseParen, TokenAndOr, TokenLeaf,
	}
	got := kinds(tokens)
	if len(got) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(got), tokens)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	if tokens[1].Text != "a#x = 1" {
		t.Fatalf("expected lowercased leaf, got %q", tokens[1].Text)
	}
}

func TestTokenize_InTupleStaysOneLeaf(t *testing.T) {
	tokens, err := Tokenize("a#x in (1, 2, 3) and b#y = 4")
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if len(tokens) != 3 {
		t.Fatalf("expected 3 tokens, got %d: %v", len(tokens), tokens)
	}
	if tokens[0].Text != "a#x in (1, 2, 3)" {
		t.Fatalf("expected tuple merged into leaf, got %q", tokens[0].Text)
	}
}

func TestTokenize_UnbalancedParens(t *testing.T) {
	_, err := Tokenize("(a#x = 1 and b#y = 2")
	if err == nil {
		t.Fatal("expected error")
	}
	var synErr *SyntaxError
	if !errors.As(err, &synErr) {
		t.Fatalf("expected SyntaxError, got %T", err)
	}
}

func TestTokenize_AdjacencyViolations(t *testing.T) {
	cases := []string{
		"a#x = 1 not b#y = 2",
		"a#x = 1 and or b#y = 2",
		"not not a#x = 1",
		"not and a#x = 1",
		"( and a#x = 1 )",
		"()",
		"",
	}
	for _, raw := range cases {
		if _, err := Tokenize(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestTokenize_KeywordInsideWordNotSplit(t *testing.T) {
	tokens, err := Tokenize("s1122#suunta_and_osoite = 1")
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if len(tokens) != 1 {
		t.Fatalf("expected identifier containing \"and\" to stay one leaf, got %v", tokens)
	}
}

func TestTokenize_WhitespaceCollapsed(t *testing.T) {
	tokens, err := Tokenize("  a#x   =  1   and   b#y  =  2 ")
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	if len(tokens) != 3 {
		t.Fatalf("expected 3 tokens, got %v", tokens)
	}
	if tokens[0].Text != "a#x = 1" {
		t.Fatalf("expected collapsed whitespace, got %q", tokens[0].Text)
	}
}

package conditions

import (
	"errors"
	"testing"
)

func TestNewCondition_AliasExpression(t *testing.T) {
	raw := "(s1122#tienpinnan_tila3 = 8 or (s1122#kitka3_luku >= 0.30 and s1122#kitka3_luku < 0.4)) and s1115#tie_1 < 2"
	cond, err := NewCondition("Ylöjärvi etelään", "E4", raw, DefaultRules())
	if err != nil {
		t.Fatalf("new condition: %v", err)
	}
	if cond.ID != "ylojarvi_etelaan_e4" {
		t.Fatalf("unexpected id %q", cond.ID)
	}
	if cond.AliasExpression != "(e4_0 or (e4_1 and e4_2)) and e4_3" {
		t.Fatalf("unexpected alias expression %q", cond.AliasExpression)
	}
	if len(cond.Blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(cond.Blocks))
	}
	if cond.Secondary {
		t.Fatal("expected primary condition")
	}
}

func TestNewCondition_DedupesRepeatedBlocks(t *testing.T) {
	cond, err := NewCondition("site", "c1", "s1122#tila = 1 and s1122#tila = 1", DefaultRules())
	if err != nil {
		t.Fatalf("new condition: %v", err)
	}
	if len(cond.Blocks) != 1 {
		t.Fatalf("expected repeated leaf to collapse to one block, got %d", len(cond.Blocks))
	}
	if cond.AliasExpression != "c1_0 and c1_0" {
		t.Fatalf("unexpected alias expression %q", cond.AliasExpression)
	}
}

func TestNewCondition_SecondaryReferences(t *testing.T) {
	cond, err := NewCondition("ylojarvi", "yhdistelma", "perusehto and pirkkala#yleisehto", DefaultRules())
	if err != nil {
		t.Fatalf("new condition: %v", err)
	}
	if !cond.Secondary {
		t.Fatal("expected secondary condition")
	}
	refs := cond.References()
	if len(refs) != 2 || refs[0] != "ylojarvi_perusehto" || refs[1] != "pirkkala_yleisehto" {
		t.Fatalf("unexpected references %v", refs)
	}
}

func TestNewCondition_BlockLookup(t *testing.T) {
	cond, err := NewCondition("site", "c1", "s1#a = 1 and s2#b = 2", DefaultRules())
	if err != nil {
		t.Fatalf("new condition: %v", err)
	}
	block := cond.Block("c1_1")
	if block == nil || block.Station != "s2" {
		t.Fatalf("unexpected block %v", block)
	}
	if cond.Block("c1_9") != nil {
		t.Fatal("expected nil for unknown alias")
	}
}

func TestNewCondition_InvalidSite(t *testing.T) {
	_, err := NewCondition("123bad", "c1", "s1#a = 1", DefaultRules())
	if err == nil {
		t.Fatal("expected error")
	}
	var idErr *IdentifierError
	if !errors.As(err, &idErr) {
		t.Fatalf("expected wrapped IdentifierError, got %T", err)
	}
}

func TestNewCondition_SyntaxErrorWrapped(t *testing.T) {
	_, err := NewCondition("site", "c1", "(s1#a = 1", DefaultRules())
	var synErr *SyntaxError
	if !errors.As(err, &synErr) {
		t.Fatalf("expected wrapped SyntaxError, got %T", err)
	}
}

func TestAliasTokens_ReturnsCopy(t *testing.T) {
	cond, err := NewCondition("site", "c1", "s1#a = 1", DefaultRules())
	if err != nil {
		t.Fatalf("new condition: %v", err)
	}
	tokens := cond.AliasTokens()
	tokens[0].Text = "mutated"
	if cond.AliasTokens()[0].Text != "c1_0" {
		t.Fatal("expected AliasTokens to return a copy")
	}
}

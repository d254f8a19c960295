package conditions

import (
	"fmt"
	"strings"
)

// Condition is one full boolean expression tied to a site and a master
// alias. It is immutable after construction; evaluation results are kept
// separately by the analysis layer.
type Condition struct {
	// Site and MasterAlias are normalized identifiers; ID is their
	// underscore-joined combination, unique within a collection.
	Site        string
	MasterAlias string
	ID          string
	// Raw is the normalized condition string the blocks were parsed from.
	Raw string
	// Blocks lists the unique blocks in first-occurrence order.
	Blocks []*Block
	// AliasExpression is the condition rebuilt with block aliases in place
	// of raw leaf text.
	AliasExpression string
	// Secondary is true when any block references another condition.
	Secondary bool
	// SourceRow is the ingest row the condition came from, 0 if none.
	SourceRow int

	aliasTokens []Token
}

// NewCondition parses a raw condition string into a validated Condition.
func NewCondition(site, masterAlias, raw string, rules Rules) (*Condition, error) {
	normSite, err := NormalizeIdentifier(site, rules)
	if err != nil {
		return nil, fmt.Errorf("site %q: %w", site, err)
	}
	normMaster, err := NormalizeIdentifier(masterAlias, rules)
	if err != nil {
		return nil, fmt.Errorf("master alias %q: %w", masterAlias, err)
	}

	cond := &Condition{
		Site:        normSite,
		MasterAlias: normMaster,
		ID:          normSite + "_" + normMaster,
	}

	tokens, err := Tokenize(raw)
	if err != nil {
		return nil, fmt.Errorf("condition %s: %w", cond.ID, err)
	}
	cond.Raw = renderTokens(tokens, nil)

	// Build blocks, collapsing repeated leaf text onto the first block
	// instance so the same subcondition keeps one alias throughout.
	byRaw := make(map[string]*Block)
	aliasTokens := make([]Token, len(tokens))
	for i, tok := range tokens {
		if tok.Kind != TokenLeaf {
			aliasTokens[i] = tok
			continue
		}
		block, ok := byRaw[tok.Text]
		if !ok {
			block, err = parseBlock(normMaster, normSite, len(cond.Blocks), tok.Text, rules)
			if err != nil {
				return nil, fmt.Errorf("condition %s: %w", cond.ID, err)
			}
			byRaw[tok.Text] = block
			cond.Blocks = append(cond.Blocks, block)
		}
		aliasTokens[i] = Token{Kind: TokenLeaf, Text: block.Alias}
	}

	cond.aliasTokens = aliasTokens
	cond.AliasExpression = renderTokens(aliasTokens, nil)
	for _, b := range cond.Blocks {
		if b.Secondary {
			cond.Secondary = true
			break
		}
	}
	return cond, nil
}

// AliasTokens returns the token sequence with leaf text replaced by block
// aliases, for expression compilation.
func (c *Condition) AliasTokens() []Token {
	out := make([]Token, len(c.aliasTokens))
	copy(out, c.aliasTokens)
	return out
}

// Block returns the block with the given alias, nil if absent.
func (c *Condition) Block(alias string) *Block {
	for _, b := range c.Blocks {
		if b.Alias == alias {
			return b
		}
	}
	return nil
}

// References lists the unique condition ids this condition's secondary
// blocks point at, in block order.
func (c *Condition) References() []string {
	var refs []string
	seen := make(map[string]struct{})
	for _, b := range c.Blocks {
		if !b.Secondary {
			continue
		}
		id := b.SourceID()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		refs = append(refs, id)
	}
	return refs
}

func (c *Condition) String() string {
	kind := "primary"
	if c.Secondary {
		kind = "secondary"
	}
	return fmt.Sprintf("%s condition %s: %s ALIAS: %s", kind, c.ID, c.Raw, c.AliasExpression)
}

// renderTokens joins tokens back into a condition string with single-space
// separation; parentheses hug their contents. With a non-nil substitution
// map, leaf text is replaced through it.
func renderTokens(tokens []Token, subst map[string]string) string {
	var b strings.Builder
	prevOpen := false
	for i, tok := range tokens {
		text := tok.Text
		if subst != nil {
			if s, ok := subst[text]; ok {
				text = s
			}
		}
		if i > 0 && !prevOpen && tok.Kind != TokenCloseParen {
			b.WriteByte(' ')
		}
		b.WriteString(text)
		prevOpen = tok.Kind == TokenOpenParen
	}
	return b.String()
}

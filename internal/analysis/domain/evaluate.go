package analysis

import (
	"errors"
	"fmt"

	conditions "github.com/webbidevaajat/tsatool-app/internal/conditions/domain"
)

// Expr is a compiled boolean expression over block aliases, evaluated per
// partition slice under three-valued logic.
type Expr interface {
	Eval(values map[string]Tristate) Tristate
}

type leafExpr struct{ alias string }

func (e leafExpr) Eval(values map[string]Tristate) Tristate { return values[e.alias] }

type notExpr struct{ inner Expr }

func (e notExpr) Eval(values map[string]Tristate) Tristate { return e.inner.Eval(values).Not() }

type andExpr struct{ left, right Expr }

func (e andExpr) Eval(values map[string]Tristate) Tristate {
	return e.left.Eval(values).And(e.right.Eval(values))
}

type orExpr struct{ left, right Expr }

func (e orExpr) Eval(values map[string]Tristate) Tristate {
	return e.left.Eval(values).Or(e.right.Eval(values))
}

// Compile turns an alias token sequence into an evaluatable expression.
// Operator precedence follows SQL booleans: NOT binds tightest, then AND,
// then OR.
func Compile(tokens []conditions.Token) (Expr, error) {
	p := &exprParser{tokens: tokens}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.tokens) {
		return nil, fmt.Errorf("analysis: unexpected token %q", p.tokens[p.pos].Text)
	}
	return expr, nil
}

type exprParser struct {
	tokens []conditions.Token
	pos    int
}

func (p *exprParser) peek() (conditions.Token, bool) {
	if p.pos >= len(p.tokens) {
		return conditions.Token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *exprParser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok || tok.Kind != conditions.TokenAndOr || tok.Text != "or" {
			return left, nil
		}
		p.pos++
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orExpr{left: left, right: right}
	}
}

func (p *exprParser) parseAnd() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok || tok.Kind != conditions.TokenAndOr || tok.Text != "and" {
			return left, nil
		}
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = andExpr{left: left, right: right}
	}
}

func (p *exprParser) parseUnary() (Expr, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, errors.New("analysis: expression ends unexpectedly")
	}
	switch tok.Kind {
	case conditions.TokenNot:
		p.pos++
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notExpr{inner: inner}, nil
	case conditions.TokenOpenParen:
		p.pos++
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		closing, ok := p.peek()
		if !ok || closing.Kind != conditions.TokenCloseParen {
			return nil, errors.New("analysis: missing closing parenthesis")
		}
		p.pos++
		return inner, nil
	case conditions.TokenLeaf:
		p.pos++
		return leafExpr{alias: tok.Text}, nil
	default:
		return nil, fmt.Errorf("analysis: unexpected token %q", tok.Text)
	}
}

// Evaluate fills in each slice's master value from the expression.
func Evaluate(expr Expr, slices []PartitionSlice) {
	for i := range slices {
		slices[i].Master = expr.Eval(slices[i].Values)
	}
}

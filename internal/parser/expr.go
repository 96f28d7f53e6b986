// Copyright 2015 Google Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package parser

import (
	"strconv"
	"strings"

	"github.com/aplbrain/grand-cypher/internal/ast"
	"github.com/aplbrain/grand-cypher/internal/lexer"
)

var aggregateFns = map[string]string{
	"count": "COUNT",
	"sum":   "SUM",
	"min":   "MIN",
	"max":   "MAX",
	"avg":   "AVG",
}

// parseExpr parses a full expression, ignoring minPrec (kept for call-site
// symmetry with the rest of the parser); the grammar ladder below encodes
// precedence structurally rather than via a generic climbing loop, which
// keeps each level's semantics (short-circuit-free three-valued ops,
// spec §9) easy to read off the function that implements it.
func (p *parser) parseExpr(_ int) (ast.Expr, error) { return p.parseOr() }

func (p *parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.accept(lexer.ItemOr); !ok {
			return left, nil
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: "OR", Left: left, Right: right}
	}
}

func (p *parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.accept(lexer.ItemAnd); !ok {
			return left, nil
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: "AND", Left: left, Right: right}
	}
}

func (p *parser) parseNot() (ast.Expr, error) {
	if _, ok := p.accept(lexer.ItemNot); ok {
		e, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: "NOT", Expr: e}, nil
	}
	return p.parseComparison()
}

var compareOps = map[lexer.TokenType]string{
	lexer.ItemEq:  "=",
	lexer.ItemNeq: "<>",
	lexer.ItemLt:  "<",
	lexer.ItemLe:  "<=",
	lexer.ItemGt:  ">",
	lexer.ItemGe:  ">=",
}

func (p *parser) parseComparison() (ast.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.at(lexer.ItemIs):
			p.advance()
			neg := false
			if _, ok := p.accept(lexer.ItemNot); ok {
				neg = true
			}
			if _, err := p.expect(lexer.ItemNull); err != nil {
				return nil, err
			}
			op := "IS NULL"
			if neg {
				op = "IS NOT NULL"
			}
			left = &ast.UnaryOp{Op: op, Expr: left}
		case p.at(lexer.ItemIn):
			p.advance()
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = &ast.BinaryOp{Op: "IN", Left: left, Right: right}
		case p.at(lexer.ItemContains):
			p.advance()
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = &ast.BinaryOp{Op: "CONTAINS", Left: left, Right: right}
		case p.at(lexer.ItemStartsWith):
			p.advance()
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = &ast.BinaryOp{Op: "STARTS WITH", Left: left, Right: right}
		case p.at(lexer.ItemEndsWith):
			p.advance()
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = &ast.BinaryOp{Op: "ENDS WITH", Left: left, Right: right}
		default:
			op, ok := compareOps[p.cur().Type]
			if !ok {
				return left, nil
			}
			p.advance()
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = &ast.BinaryOp{Op: op, Left: left, Right: right}
		}
	}
}

func (p *parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch {
		case p.at(lexer.ItemPlus):
			op = "+"
		case p.at(lexer.ItemDash):
			op = "-"
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseMultiplicative() (ast.Expr, error) {
	left, err := p.parseUnaryMinus()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch {
		case p.at(lexer.ItemStar):
			op = "*"
		case p.at(lexer.ItemSlash):
			op = "/"
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseUnaryMinus()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseUnaryMinus() (ast.Expr, error) {
	if _, ok := p.accept(lexer.ItemDash); ok {
		e, err := p.parseUnaryMinus()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: "NEG", Expr: e}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (ast.Expr, error) {
	switch {
	case p.at(lexer.ItemInt):
		t := p.advance()
		n, err := strconv.ParseInt(t.Text, 10, 64)
		if err != nil {
			return nil, p.errf("invalid integer %q", t.Text)
		}
		return &ast.Literal{Kind: "int", Int: n}, nil
	case p.at(lexer.ItemFloat):
		t := p.advance()
		f, err := strconv.ParseFloat(t.Text, 64)
		if err != nil {
			return nil, p.errf("invalid float %q", t.Text)
		}
		return &ast.Literal{Kind: "float", Flt: f}, nil
	case p.at(lexer.ItemString):
		t := p.advance()
		return &ast.Literal{Kind: "string", Str: lexer.Unquote(t.Text)}, nil
	case p.at(lexer.ItemTrue):
		p.advance()
		return &ast.Literal{Kind: "bool", Bool: true}, nil
	case p.at(lexer.ItemFalse):
		p.advance()
		return &ast.Literal{Kind: "bool", Bool: false}, nil
	case p.at(lexer.ItemNull):
		p.advance()
		return &ast.Literal{Kind: "null"}, nil
	case p.at(lexer.ItemLBracket):
		return p.parseListLiteral()
	case p.at(lexer.ItemLParen):
		p.advance()
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.ItemRParen); err != nil {
			return nil, err
		}
		return e, nil
	case p.at(lexer.ItemIdent):
		return p.parseIdentExpr()
	}
	return nil, p.errf("unexpected token %q in expression", p.cur().Text)
}

func (p *parser) parseListLiteral() (ast.Expr, error) {
	if _, err := p.expect(lexer.ItemLBracket); err != nil {
		return nil, err
	}
	lit := &ast.Literal{Kind: "list"}
	for !p.at(lexer.ItemRBracket) {
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		lit.List = append(lit.List, e)
		if _, ok := p.accept(lexer.ItemComma); !ok {
			break
		}
	}
	if _, err := p.expect(lexer.ItemRBracket); err != nil {
		return nil, err
	}
	return lit, nil
}

// parseIdentExpr disambiguates a variable reference, a property access
// (`var.attr`), and an aggregate call (`COUNT(expr)`, `COUNT(*)`) — all of
// which start with an identifier (spec §3 Expression).
func (p *parser) parseIdentExpr() (ast.Expr, error) {
	name := p.advance().Text
	if p.at(lexer.ItemLParen) {
		fn, ok := aggregateFns[strings.ToLower(name)]
		if !ok {
			return nil, p.errf("unknown function %q", name)
		}
		p.advance()
		call := &ast.AggregateCall{Fn: fn}
		if fn == "COUNT" && p.at(lexer.ItemStar) {
			p.advance()
			call.Star = true
		} else {
			arg, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			call.Arg = arg
		}
		if _, err := p.expect(lexer.ItemRParen); err != nil {
			return nil, err
		}
		return call, nil
	}
	if _, ok := p.accept(lexer.ItemDot); ok {
		attr, err := p.expect(lexer.ItemIdent)
		if err != nil {
			return nil, err
		}
		return &ast.PropAccess{Var: name, Attr: attr.Text}, nil
	}
	return &ast.VarRef{Name: name}, nil
}

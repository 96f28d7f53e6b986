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

// Package parser implements a recursive-descent LL(k) parser over the
// GrandCypher grammar (spec §4.1), built on top of internal/lexer the same
// way BadWolf's bql/grammar builds a lookahead parser (grammar.LLk) on top
// of bql/lexer. Operator precedence in expressions is encoded by a ladder
// of one parse function per precedence level (expr.go) rather than
// BadWolf's clause grammar, since Cypher expressions are recursive in a way
// BQL's single-triple clauses are not.
package parser

import (
	"fmt"
	"strconv"

	"github.com/aplbrain/grand-cypher/internal/ast"
	"github.com/aplbrain/grand-cypher/internal/lexer"
)

// ParseError pinpoints a malformed query by line/column (spec §4.1, §7).
type ParseError struct {
	Line, Col int
	Msg       string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("grandcypher: parse error at line %d, column %d: %s", e.Line, e.Col, e.Msg)
}

// Parse tokenizes and parses a full Cypher query, returning a ParseError
// (never a partial AST) on any malformed input (spec §4.1 "Failure").
func Parse(query string) (*ast.Query, error) {
	toks, err := drain(query)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	q, err := p.parseQuery()
	if err != nil {
		return nil, err
	}
	if !p.at(lexer.ItemEOF) {
		return nil, p.errf("unexpected trailing input %q", p.cur().Text)
	}
	return q, nil
}

func drain(query string) ([]lexer.Token, error) {
	var toks []lexer.Token
	for t := range lexer.Lex(query) {
		if t.Type == lexer.ItemError {
			return nil, &ParseError{Line: t.Line, Col: t.Col, Msg: t.ErrorMessage}
		}
		toks = append(toks, t)
		if t.Type == lexer.ItemEOF {
			break
		}
	}
	return toks, nil
}

type parser struct {
	toks   []lexer.Token
	pos    int
	anonID int
}

func (p *parser) cur() lexer.Token { return p.toks[p.pos] }

func (p *parser) peek(n int) lexer.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) at(tt lexer.TokenType) bool { return p.cur().Type == tt }

func (p *parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) accept(tt lexer.TokenType) (lexer.Token, bool) {
	if p.at(tt) {
		return p.advance(), true
	}
	return lexer.Token{}, false
}

func (p *parser) expect(tt lexer.TokenType) (lexer.Token, error) {
	if !p.at(tt) {
		return lexer.Token{}, p.errf("expected %s, got %q", tt, p.cur().Text)
	}
	return p.advance(), nil
}

func (p *parser) errf(format string, args ...interface{}) error {
	t := p.cur()
	return &ParseError{Line: t.Line, Col: t.Col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) anonVar(prefix string) string {
	p.anonID++
	return fmt.Sprintf(" %s%d", prefix, p.anonID) // leading space: unreachable from query text.
}

// parseQuery implements: MATCH+ WHERE? RETURN (ORDER BY)? SKIP? LIMIT?
func (p *parser) parseQuery() (*ast.Query, error) {
	q := &ast.Query{}
	if !p.at(lexer.ItemMatch) {
		return nil, p.errf("expected MATCH, got %q", p.cur().Text)
	}
	for p.at(lexer.ItemMatch) {
		m, err := p.parseMatchClause()
		if err != nil {
			return nil, err
		}
		q.Matches = append(q.Matches, m)
	}
	if _, ok := p.accept(lexer.ItemWhere); ok {
		where, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		q.Where = where
	}
	ret, err := p.parseReturnClause()
	if err != nil {
		return nil, err
	}
	q.Return = ret

	if _, ok := p.accept(lexer.ItemOrder); ok {
		if _, err := p.expect(lexer.ItemBy); err != nil {
			return nil, err
		}
		for {
			e, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			desc := false
			if _, ok := p.accept(lexer.ItemDesc); ok {
				desc = true
			} else {
				p.accept(lexer.ItemAsc)
			}
			q.OrderBy = append(q.OrderBy, ast.OrderKey{Expr: e, Desc: desc})
			if _, ok := p.accept(lexer.ItemComma); !ok {
				break
			}
		}
	}
	if _, ok := p.accept(lexer.ItemSkip); ok {
		n, err := p.parseIntLiteral()
		if err != nil {
			return nil, err
		}
		q.Skip, q.HasSkip = n, true
	}
	if _, ok := p.accept(lexer.ItemLimit); ok {
		n, err := p.parseIntLiteral()
		if err != nil {
			return nil, err
		}
		q.Limit, q.HasLimit = n, true
	}
	return q, nil
}

func (p *parser) parseIntLiteral() (int64, error) {
	t, err := p.expect(lexer.ItemInt)
	if err != nil {
		return 0, err
	}
	n, perr := strconv.ParseInt(t.Text, 10, 64)
	if perr != nil {
		return 0, p.errf("invalid integer %q", t.Text)
	}
	return n, nil
}

// parseMatchClause implements: MATCH NodePattern (EdgePattern NodePattern)*
func (p *parser) parseMatchClause() (*ast.MatchClause, error) {
	if _, err := p.expect(lexer.ItemMatch); err != nil {
		return nil, err
	}
	m := &ast.MatchClause{}
	first, err := p.parseNodePattern()
	if err != nil {
		return nil, err
	}
	m.Nodes = append(m.Nodes, first)
	for p.at(lexer.ItemDash) || p.at(lexer.ItemArrowLeft) {
		edge, err := p.parseEdgePattern()
		if err != nil {
			return nil, err
		}
		node, err := p.parseNodePattern()
		if err != nil {
			return nil, err
		}
		edge.From = m.Nodes[len(m.Nodes)-1].Var
		edge.To = node.Var
		m.Edges = append(m.Edges, edge)
		m.Nodes = append(m.Nodes, node)
	}
	return m, nil
}

// parseNodePattern implements: `(` IDENT? (`:` LabelDNF)? PropsMap? `)`
func (p *parser) parseNodePattern() (*ast.NodePattern, error) {
	if _, err := p.expect(lexer.ItemLParen); err != nil {
		return nil, err
	}
	n := &ast.NodePattern{}
	if p.at(lexer.ItemIdent) {
		n.Var = p.advance().Text
	} else {
		n.Var = p.anonVar("n")
		n.Anon = true
	}
	if _, ok := p.accept(lexer.ItemColon); ok {
		dnf, err := p.parseLabelDNF()
		if err != nil {
			return nil, err
		}
		n.Labels = dnf
	}
	if p.at(lexer.ItemLBrace) {
		props, err := p.parsePropsMap()
		if err != nil {
			return nil, err
		}
		n.Props = props
	}
	if _, err := p.expect(lexer.ItemRParen); err != nil {
		return nil, err
	}
	return n, nil
}

// parseEdgePattern implements: (`<-` | `-`) (`[` ... `]`)? (`-` | `->`)
func (p *parser) parseEdgePattern() (*ast.EdgePattern, error) {
	e := &ast.EdgePattern{HopMin: 1, HopMax: 1}
	leftArrow := false
	if _, ok := p.accept(lexer.ItemArrowLeft); ok {
		leftArrow = true
	} else if _, err := p.expect(lexer.ItemDash); err != nil {
		return nil, err
	}

	hasBracket := false
	if _, ok := p.accept(lexer.ItemLBracket); ok {
		hasBracket = true
		if p.at(lexer.ItemIdent) {
			e.Var = p.advance().Text
		}
		if e.Var == "" {
			e.Var = p.anonVar("e")
			e.Anon = true
		}
		if _, ok := p.accept(lexer.ItemColon); ok {
			dnf, err := p.parseLabelDNF()
			if err != nil {
				return nil, err
			}
			e.Labels = dnf
		}
		if p.at(lexer.ItemStar) {
			if err := p.parseHopRange(e); err != nil {
				return nil, err
			}
		}
		if p.at(lexer.ItemLBrace) {
			props, err := p.parsePropsMap()
			if err != nil {
				return nil, err
			}
			e.Props = props
		}
		if _, err := p.expect(lexer.ItemRBracket); err != nil {
			return nil, err
		}
	} else {
		e.Var = p.anonVar("e")
		e.Anon = true
	}

	rightArrow := false
	if _, ok := p.accept(lexer.ItemArrowRight); ok {
		rightArrow = true
	} else if _, err := p.expect(lexer.ItemDash); err != nil {
		return nil, err
	}
	_ = hasBracket

	switch {
	case leftArrow && rightArrow:
		return nil, p.errf("an edge cannot point both directions")
	case leftArrow:
		e.Direction = ast.Reverse
	case rightArrow:
		e.Direction = ast.Forward
	default:
		e.Direction = ast.Either
	}
	return e, nil
}

// parseHopRange implements `*`, `*n`, `*..m`, `*n..`, `*n..m` (spec §4.1).
func (p *parser) parseHopRange(e *ast.EdgePattern) error {
	if _, err := p.expect(lexer.ItemStar); err != nil {
		return err
	}
	e.VarLength = true
	e.HopMin, e.HopMax = 1, ast.Unbounded

	if p.at(lexer.ItemInt) {
		lo, err := p.parseIntLiteral()
		if err != nil {
			return err
		}
		e.HopMin = int(lo)
		e.HopMax = int(lo)
	}
	if _, ok := p.accept(lexer.ItemDotDot); ok {
		if p.at(lexer.ItemInt) {
			hi, err := p.parseIntLiteral()
			if err != nil {
				return err
			}
			e.HopMax = int(hi)
		} else {
			e.HopMax = ast.Unbounded
		}
	}
	return nil
}

// parseLabelDNF implements `A|B|C` (spec §9).
func (p *parser) parseLabelDNF() (ast.LabelDNF, error) {
	var dnf ast.LabelDNF
	for {
		t, err := p.expect(lexer.ItemIdent)
		if err != nil {
			return nil, err
		}
		dnf = append(dnf, []string{t.Text})
		if _, ok := p.accept(lexer.ItemPipe); !ok {
			break
		}
	}
	return dnf, nil
}

// parsePropsMap implements `{ k: v, ... }`.
func (p *parser) parsePropsMap() (map[string]ast.Expr, error) {
	if _, err := p.expect(lexer.ItemLBrace); err != nil {
		return nil, err
	}
	props := map[string]ast.Expr{}
	for !p.at(lexer.ItemRBrace) {
		key, err := p.expect(lexer.ItemIdent)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.ItemColon); err != nil {
			return nil, err
		}
		val, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		props[key.Text] = val
		if _, ok := p.accept(lexer.ItemComma); !ok {
			break
		}
	}
	if _, err := p.expect(lexer.ItemRBrace); err != nil {
		return nil, err
	}
	return props, nil
}

// parseReturnClause implements: RETURN DISTINCT? ReturnItem (, ReturnItem)*
func (p *parser) parseReturnClause() (*ast.ReturnClause, error) {
	if _, err := p.expect(lexer.ItemReturn); err != nil {
		return nil, err
	}
	rc := &ast.ReturnClause{}
	if _, ok := p.accept(lexer.ItemDistinct); ok {
		rc.Distinct = true
	}
	for {
		start := p.pos
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		text := p.sourceText(start, p.pos)
		item := ast.ReturnItem{Expr: e, Text: text}
		if _, ok := p.accept(lexer.ItemAs); ok {
			alias, err := p.expect(lexer.ItemIdent)
			if err != nil {
				return nil, err
			}
			item.Alias = alias.Text
		}
		rc.Items = append(rc.Items, item)
		if _, ok := p.accept(lexer.ItemComma); !ok {
			break
		}
	}
	return rc, nil
}

// sourceText reconstructs the token span [start,end) as the query would
// have written it, used as the default RETURN column label (spec §3 Row),
// e.g. "n.age" or "COUNT(r.amount)" rather than "n . age".
func (p *parser) sourceText(start, end int) string {
	out := ""
	for i := start; i < end; i++ {
		tok := p.toks[i]
		if i > start && needsSpaceBefore(p.toks[i-1].Type, tok.Type) {
			out += " "
		}
		out += tok.Text
	}
	return out
}

func needsSpaceBefore(prev, cur lexer.TokenType) bool {
	switch cur {
	case lexer.ItemDot, lexer.ItemLParen, lexer.ItemRParen, lexer.ItemComma:
		return false
	}
	switch prev {
	case lexer.ItemDot, lexer.ItemLParen:
		return false
	}
	return true
}

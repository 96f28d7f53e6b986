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

// Package ast declares the abstract syntax tree produced by
// internal/parser, mirroring the shape of the typed clause structures in
// BadWolf's bql/semantic (Statement, GraphClause, Projection) but recast
// for Cypher's MATCH/WHERE/RETURN surface (spec §3).
package ast

import "math"

// Unbounded marks an open-ended hop range (`*n..`), i.e. hop_max = ∞.
const Unbounded = math.MaxInt32

// Query is the full parsed statement (spec §3 Query).
type Query struct {
	Matches  []*MatchClause
	Where    Expr // nil if absent.
	Return   *ReturnClause
	OrderBy  []OrderKey
	Skip     int64
	HasSkip  bool
	Limit    int64
	HasLimit bool
}

// MatchClause is one path pattern: a chain of nodes connected by edges
// (spec §3 MatchClause).
type MatchClause struct {
	Nodes []*NodePattern // len(Nodes) == len(Edges)+1
	Edges []*EdgePattern
}

// NodePattern is `(var:LabelA|LabelB {k: v, ...})` (spec §3).
type NodePattern struct {
	Var    string // for an anonymous node, a unique name the parser synthesizes.
	Anon   bool
	Labels LabelDNF // nil means "accepts any label set".
	Props  map[string]Expr
}

// Direction is the edge arrow orientation written in the query text.
type Direction int8

// The three edge directions a pattern edge can request (spec §3, §4.3.5).
const (
	Forward Direction = iota // -[]->
	Reverse                  // <-[]-
	Either                   // -[]-
)

// EdgePattern is `-[var:Label {k: v}]->`, with an optional variable-length
// hop range (spec §3).
type EdgePattern struct {
	Var       string
	Anon      bool
	Labels    LabelDNF
	Props     map[string]Expr
	Direction Direction
	HopMin    int
	HopMax    int // Unbounded for "∞".
	VarLength bool // true if a `*` range was written at all.

	// From/To are pattern-node variable names, filled in by the parser
	// when desugaring a chained path (spec §4.1 "chained patterns").
	From, To string
}

// LabelDNF is a union of alternative required-atom sets: `A|B` (spec §9
// "Label DNF"). It matches iff the host label set is a superset of any one
// member set.
type LabelDNF [][]string

// Matches reports whether labels (a host label set, exposed as a lookup
// function to avoid importing the graph package from ast) satisfies the
// DNF: at least one alternative's atoms are all present.
func (d LabelDNF) Matches(has func(atom string) bool) bool {
	if len(d) == 0 {
		return true
	}
	for _, alt := range d {
		all := true
		for _, atom := range alt {
			if !has(atom) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

// ReturnClause is the projection list plus DISTINCT (spec §3).
type ReturnClause struct {
	Distinct bool
	Items    []ReturnItem
}

// ReturnItem is one `expr [AS alias]` entry.
type ReturnItem struct {
	Expr  Expr
	Alias string // "" if no AS; Label() falls back to source text.
	Text  string // original expression source text, used as the default column label.
}

// Label returns the column label for this item: the alias if given,
// otherwise the expression's source text (spec §3 Row).
func (r ReturnItem) Label() string {
	if r.Alias != "" {
		return r.Alias
	}
	return r.Text
}

// OrderKey is one `ORDER BY` comparator (spec §4.1).
type OrderKey struct {
	Expr Expr
	Desc bool
}

// Expr is the tagged-variant expression tree (spec §3 Expression, §9 "AST
// polymorphism"). Concrete types below implement it as a marker interface;
// the evaluator type-switches on the concrete type.
type Expr interface {
	exprNode()
}

// Literal is a constant scalar or list literal.
type Literal struct {
	// Kind is one of "int", "float", "string", "bool", "null", "list".
	Kind string
	Int  int64
	Flt  float64
	Str  string
	Bool bool
	List []Expr
}

// VarRef is a bare variable reference, e.g. `n` in `RETURN n`.
type VarRef struct {
	Name string
}

// PropAccess is `var.attr`.
type PropAccess struct {
	Var  string
	Attr string
}

// UnaryOp is `NOT expr`, `-expr`, `IS NULL`/`IS NOT NULL`.
type UnaryOp struct {
	Op   string // "NOT", "NEG", "IS NULL", "IS NOT NULL"
	Expr Expr
}

// BinaryOp covers comparison, boolean connectives, arithmetic, IN,
// CONTAINS/STARTS WITH/ENDS WITH.
type BinaryOp struct {
	Op          string
	Left, Right Expr
}

// AggregateCall is `COUNT(x)`, `COUNT(*)`, `SUM(x)`, `MIN(x)`, `MAX(x)`,
// `AVG(x)`.
type AggregateCall struct {
	Fn   string // "COUNT", "SUM", "MIN", "MAX", "AVG"
	Arg  Expr   // nil for COUNT(*).
	Star bool
}

func (*Literal) exprNode()       {}
func (*VarRef) exprNode()        {}
func (*PropAccess) exprNode()    {}
func (*UnaryOp) exprNode()       {}
func (*BinaryOp) exprNode()      {}
func (*AggregateCall) exprNode() {}

// ExprEqual reports whether a and b are the same expression, structurally
// (same shape and same literal/variable/operator values at every node).
// The pipeline uses this to decide whether an ORDER BY key names a RETURN
// item outright, so aggregate queries can order by an aggregate or
// grouping expression already present in RETURN without re-evaluating it
// against a row the grouping stage no longer carries (spec §4.5 step 3,
// supplemented from original_source's ORDER BY-after-aggregation tests).
func ExprEqual(a, b Expr) bool {
	switch x := a.(type) {
	case *Literal:
		y, ok := b.(*Literal)
		if !ok || x.Kind != y.Kind {
			return false
		}
		switch x.Kind {
		case "int":
			return x.Int == y.Int
		case "float":
			return x.Flt == y.Flt
		case "string":
			return x.Str == y.Str
		case "bool":
			return x.Bool == y.Bool
		case "null":
			return true
		case "list":
			if len(x.List) != len(y.List) {
				return false
			}
			for i := range x.List {
				if !ExprEqual(x.List[i], y.List[i]) {
					return false
				}
			}
			return true
		}
		return false
	case *VarRef:
		y, ok := b.(*VarRef)
		return ok && x.Name == y.Name
	case *PropAccess:
		y, ok := b.(*PropAccess)
		return ok && x.Var == y.Var && x.Attr == y.Attr
	case *UnaryOp:
		y, ok := b.(*UnaryOp)
		return ok && x.Op == y.Op && ExprEqual(x.Expr, y.Expr)
	case *BinaryOp:
		y, ok := b.(*BinaryOp)
		return ok && x.Op == y.Op && ExprEqual(x.Left, y.Left) && ExprEqual(x.Right, y.Right)
	case *AggregateCall:
		y, ok := b.(*AggregateCall)
		if !ok || x.Fn != y.Fn || x.Star != y.Star {
			return false
		}
		if x.Star {
			return true
		}
		return ExprEqual(x.Arg, y.Arg)
	}
	return false
}

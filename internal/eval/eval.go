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

// Package eval evaluates WHERE predicates and RETURN expressions against a
// bound Row (spec §4.4), generalizing the Evaluator interface and OP enum
// of BadWolf's bql/semantic/expression.go from BQL's fixed triple-clause
// comparisons to Cypher's full expression tree.
package eval

import (
	"fmt"
	"sort"

	"github.com/aplbrain/grand-cypher/graph"
	"github.com/aplbrain/grand-cypher/internal/ast"
	"github.com/aplbrain/grand-cypher/value"
)

// Row is the joined variable bindings a single result row carries: a
// host-node id per bound node variable, and the realizing host edges per
// bound edge variable (spec §3 "Embedding", generalized to the
// cross-clause join the pipeline performs).
type Row struct {
	Nodes map[string]graph.NodeID
	Edges map[string][]graph.Edge
}

// Context is everything the evaluator needs to resolve a variable
// reference: the row's bindings, and the host graph to fetch node
// attributes (edge attributes already travel with the Row's edges).
type Context struct {
	Host graph.Host
	Row  *Row
}

// UnknownVariable reports a WHERE/RETURN/ORDER BY expression naming a
// variable no MATCH clause bound (spec §7).
type UnknownVariable struct {
	Name string
}

func (e *UnknownVariable) Error() string {
	return fmt.Sprintf("grandcypher: unknown variable %q", e.Name)
}

// TypeError reports an operator applied to an operand of the wrong type
// (spec §7); value.TypeError covers arithmetic/string operators, this
// covers evaluator-level mistakes such as indexing a property off a
// variable that resolves to neither a node nor an edge.
type TypeError struct {
	Detail string
}

func (e *TypeError) Error() string { return "grandcypher: type error: " + e.Detail }

// Eval evaluates expr against ctx, returning the scalar (or list/map)
// Value (spec §4.4). Three-valued logic results are represented as
// value.Bool(true/false) or value.Null (Unknown); only the final WHERE
// gate (EvalWhere) coerces null to false (spec §9).
func Eval(ctx *Context, expr ast.Expr) (value.Value, error) {
	switch n := expr.(type) {
	case *ast.Literal:
		return evalLiteral(ctx, n)
	case *ast.VarRef:
		return evalVarRef(ctx, n)
	case *ast.PropAccess:
		v, _, err := evalPropAccess(ctx, n)
		return v, err
	case *ast.UnaryOp:
		return evalUnary(ctx, n)
	case *ast.BinaryOp:
		return evalBinary(ctx, n)
	case *ast.AggregateCall:
		return value.Null, fmt.Errorf("grandcypher: aggregate %s used outside RETURN grouping", n.Fn)
	default:
		return value.Null, fmt.Errorf("grandcypher: unsupported expression %T", expr)
	}
}

// EvalWhere evaluates a WHERE predicate, treating null (Unknown) and
// false identically: only rows whose predicate is exactly true survive
// (spec §4.5 step 2, §8 "rows where WHERE is null or false are excluded").
func EvalWhere(ctx *Context, expr ast.Expr) (bool, error) {
	v, err := Eval(ctx, expr)
	if err != nil {
		return false, err
	}
	if v.IsNull() {
		return false, nil
	}
	b, ok := v.AsBool()
	if !ok {
		return false, nil
	}
	return b, nil
}

func evalLiteral(ctx *Context, n *ast.Literal) (value.Value, error) {
	switch n.Kind {
	case "int":
		return value.Int(n.Int), nil
	case "float":
		return value.Float(n.Flt), nil
	case "string":
		return value.Str(n.Str), nil
	case "bool":
		return value.Bool(n.Bool), nil
	case "null":
		return value.Null, nil
	case "list":
		vs := make([]value.Value, len(n.List))
		for i, e := range n.List {
			v, err := Eval(ctx, e)
			if err != nil {
				return value.Null, err
			}
			vs[i] = v
		}
		return value.List(vs), nil
	}
	return value.Null, fmt.Errorf("grandcypher: unknown literal kind %q", n.Kind)
}

func evalVarRef(ctx *Context, n *ast.VarRef) (value.Value, error) {
	if id, ok := ctx.Row.Nodes[n.Name]; ok {
		attrs := ctx.Host.NodeAttrs(id)
		return nodeDict(id, attrs), nil
	}
	if edges, ok := ctx.Row.Edges[n.Name]; ok {
		return edgeDict(edges), nil
	}
	return value.Null, &UnknownVariable{Name: n.Name}
}

// nodeDict renders a bare node-variable reference as its attribute
// dictionary plus its host id under a conventional key (spec §4.4).
func nodeDict(id graph.NodeID, attrs map[string]value.Value) value.Value {
	b := value.NewMapBuilder()
	b.Set("id", idValue(id))
	keys := sortedKeys(attrs)
	for _, k := range keys {
		b.Set(k, attrs[k])
	}
	return b.Build()
}

// edgeDict renders a bare edge-variable reference: for a single bound
// edge, its attributes plus endpoints and key; for a multi-edge bundle (a
// multigraph parallel-edge match), a list of such dictionaries, one per
// bound edge (spec §6.3 "an edge column yields list of per-edge-key
// mappings in the multigraph case").
func edgeDict(edges []graph.Edge) value.Value {
	if len(edges) == 1 {
		return oneEdgeDict(edges[0])
	}
	vs := make([]value.Value, len(edges))
	for i, e := range edges {
		vs[i] = oneEdgeDict(e)
	}
	return value.List(vs)
}

func oneEdgeDict(e graph.Edge) value.Value {
	b := value.NewMapBuilder()
	b.Set("from", idValue(e.From))
	b.Set("to", idValue(e.To))
	b.Set("key", value.Int(int64(e.Key)))
	for _, k := range sortedKeys(e.Attrs) {
		b.Set(k, e.Attrs[k])
	}
	return b.Build()
}

func idValue(id graph.NodeID) value.Value {
	switch v := id.(type) {
	case string:
		return value.Str(v)
	case int:
		return value.Int(int64(v))
	case int64:
		return value.Int(v)
	default:
		return value.Str(fmt.Sprint(v))
	}
}

func sortedKeys(m map[string]value.Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		if k == graph.LabelsAttr {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// evalPropAccess implements `var.attr` (spec §4.4). The bool return
// reports whether var resolved to an edge binding (used by the aggregate
// pipeline to decide whether to decompose per-edge before reducing).
func evalPropAccess(ctx *Context, n *ast.PropAccess) (value.Value, bool, error) {
	if id, ok := ctx.Row.Nodes[n.Var]; ok {
		attrs := ctx.Host.NodeAttrs(id)
		if n.Attr == "id" {
			return idValue(id), false, nil
		}
		v, ok := attrs[n.Attr]
		if !ok {
			return value.Null, false, nil
		}
		return v, false, nil
	}
	if edges, ok := ctx.Row.Edges[n.Var]; ok {
		entries := EdgeAttrEntries(edges, n.Attr)
		if len(entries) == 0 {
			return value.Null, true, nil
		}
		if len(entries) == 1 {
			return entries[0].Val, true, nil
		}
		b := value.NewMapBuilder()
		for _, en := range entries {
			b.Set(fmt.Sprintf("%d:%s", en.Key, en.Label), en.Val)
		}
		return b.Build(), true, nil
	}
	return value.Null, false, &UnknownVariable{Name: n.Var}
}

// EdgeAttrEntry is one edge's contribution to a multi-edge attribute
// access, tagged with the edge's key and primary label so the aggregate
// pipeline can group by primary label (spec §4.4, §9 "Multi-edge
// aggregate semantics").
type EdgeAttrEntry struct {
	Key   graph.EdgeKey
	Label string
	Val   value.Value
}

// EdgeAttrEntries extracts attr from every edge in edges, tagging each
// with its key and primary label. Edges lacking attr contribute a null
// value (not omitted) so SUM/AVG/MIN/MAX can apply their own
// empty/null-skipping rules (spec §4.4).
func EdgeAttrEntries(edges []graph.Edge, attr string) []EdgeAttrEntry {
	out := make([]EdgeAttrEntry, 0, len(edges))
	for _, e := range edges {
		var v value.Value
		if attr == "key" {
			v = value.Int(int64(e.Key))
		} else if got, ok := e.Attrs[attr]; ok {
			v = got
		} else {
			v = value.Null
		}
		out = append(out, EdgeAttrEntry{Key: e.Key, Label: graph.PrimaryLabel(e.Labels()), Val: v})
	}
	return out
}

func evalUnary(ctx *Context, n *ast.UnaryOp) (value.Value, error) {
	switch n.Op {
	case "NOT":
		v, err := Eval(ctx, n.Expr)
		if err != nil {
			return value.Null, err
		}
		return triToValue(value.Not(valueToTri(v))), nil
	case "NEG":
		v, err := Eval(ctx, n.Expr)
		if err != nil {
			return value.Null, err
		}
		return value.Sub(value.Int(0), v)
	case "IS NULL":
		v, err := Eval(ctx, n.Expr)
		if err != nil {
			return value.Null, err
		}
		return value.Bool(v.IsNull()), nil
	case "IS NOT NULL":
		v, err := Eval(ctx, n.Expr)
		if err != nil {
			return value.Null, err
		}
		return value.Bool(!v.IsNull()), nil
	}
	return value.Null, fmt.Errorf("grandcypher: unknown unary operator %q", n.Op)
}

func evalBinary(ctx *Context, n *ast.BinaryOp) (value.Value, error) {
	switch n.Op {
	case "AND", "OR":
		l, err := Eval(ctx, n.Left)
		if err != nil {
			return value.Null, err
		}
		r, err := Eval(ctx, n.Right)
		if err != nil {
			return value.Null, err
		}
		if n.Op == "AND" {
			return triToValue(value.And(valueToTri(l), valueToTri(r))), nil
		}
		return triToValue(value.Or(valueToTri(l), valueToTri(r))), nil
	}

	l, err := Eval(ctx, n.Left)
	if err != nil {
		return value.Null, err
	}

	if n.Op == "IN" {
		list, err := evalListOperand(ctx, n.Right)
		if err != nil {
			return value.Null, err
		}
		return triToValue(value.In(l, list)), nil
	}

	r, err := Eval(ctx, n.Right)
	if err != nil {
		return value.Null, err
	}

	switch n.Op {
	case "=":
		return triToValue(value.Equals(l, r)), nil
	case "<>":
		return triToValue(value.NotEquals(l, r)), nil
	case "<":
		return triToValue(value.Less(l, r)), nil
	case "<=":
		return triToValue(value.LessEqual(l, r)), nil
	case ">":
		return triToValue(value.Greater(l, r)), nil
	case ">=":
		return triToValue(value.GreaterEqual(l, r)), nil
	case "CONTAINS":
		t, err := value.Contains(l, r)
		return triToValue(t), err
	case "STARTS WITH":
		t, err := value.StartsWith(l, r)
		return triToValue(t), err
	case "ENDS WITH":
		t, err := value.EndsWith(l, r)
		return triToValue(t), err
	case "+":
		return value.Add(l, r)
	case "-":
		return value.Sub(l, r)
	case "*":
		return value.Mul(l, r)
	case "/":
		return value.Div(l, r)
	}
	return value.Null, fmt.Errorf("grandcypher: unknown binary operator %q", n.Op)
}

// evalListOperand evaluates the right-hand side of IN, which spec §4.1
// restricts to a list literal.
func evalListOperand(ctx *Context, e ast.Expr) ([]value.Value, error) {
	v, err := Eval(ctx, e)
	if err != nil {
		return nil, err
	}
	list, ok := v.AsList()
	if !ok {
		return nil, &TypeError{Detail: "right-hand side of IN must be a list"}
	}
	return list, nil
}

func valueToTri(v value.Value) value.Tri {
	if v.IsNull() {
		return value.Unknown
	}
	b, ok := v.AsBool()
	if !ok {
		return value.Unknown
	}
	return value.ToTri(b)
}

func triToValue(t value.Tri) value.Value {
	switch t {
	case value.True:
		return value.Bool(true)
	case value.False:
		return value.Bool(false)
	default:
		return value.Null
	}
}

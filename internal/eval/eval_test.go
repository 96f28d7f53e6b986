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

package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aplbrain/grand-cypher/graph"
	"github.com/aplbrain/grand-cypher/internal/parser"
	"github.com/aplbrain/grand-cypher/value"
)

func buildCtx(host graph.Host, row *Row) *Context {
	return &Context{Host: host, Row: row}
}

func TestEvalVarRefRendersNodeDict(t *testing.T) {
	m := graph.NewMemory(true, false)
	m.AddNode("a", map[string]value.Value{"name": value.Str("Alice")})

	q, err := parser.Parse("MATCH (n) RETURN n")
	require.NoError(t, err)

	ctx := buildCtx(m, &Row{Nodes: map[string]graph.NodeID{"n": "a"}, Edges: map[string][]graph.Edge{}})
	v, err := Eval(ctx, q.Return.Items[0].Expr)
	require.NoError(t, err)
	mp, keys, ok := v.AsMap()
	require.True(t, ok)
	assert.Contains(t, keys, "id")
	assert.Equal(t, value.Str("Alice"), mp["name"])
}

func TestEvalPropAccessMissingAttrIsNull(t *testing.T) {
	m := graph.NewMemory(true, false)
	m.AddNode("a", map[string]value.Value{"name": value.Str("Alice")})

	q, err := parser.Parse("MATCH (n) RETURN n.age")
	require.NoError(t, err)
	ctx := buildCtx(m, &Row{Nodes: map[string]graph.NodeID{"n": "a"}, Edges: map[string][]graph.Edge{}})
	v, err := Eval(ctx, q.Return.Items[0].Expr)
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}

func TestEvalUnknownVariableErrors(t *testing.T) {
	m := graph.NewMemory(true, false)
	q, err := parser.Parse("MATCH (n) RETURN m.x")
	require.NoError(t, err)
	ctx := buildCtx(m, &Row{Nodes: map[string]graph.NodeID{"n": "a"}, Edges: map[string][]graph.Edge{}})
	_, err = Eval(ctx, q.Return.Items[0].Expr)
	require.Error(t, err)
	_, ok := err.(*UnknownVariable)
	assert.True(t, ok)
}

func TestEvalWhereTreatsNullAsFalse(t *testing.T) {
	m := graph.NewMemory(true, false)
	m.AddNode("a", map[string]value.Value{"name": value.Str("Alice")})
	q, err := parser.Parse("MATCH (n) WHERE n.age > 10 RETURN n")
	require.NoError(t, err)
	ctx := buildCtx(m, &Row{Nodes: map[string]graph.NodeID{"n": "a"}, Edges: map[string][]graph.Edge{}})
	ok, err := EvalWhere(ctx, q.Where)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvalAndOrThreeValued(t *testing.T) {
	m := graph.NewMemory(true, false)
	m.AddNode("a", map[string]value.Value{})
	q, err := parser.Parse("MATCH (n) WHERE n.missing = 1 OR true RETURN n")
	require.NoError(t, err)
	ctx := buildCtx(m, &Row{Nodes: map[string]graph.NodeID{"n": "a"}, Edges: map[string][]graph.Edge{}})
	ok, err := EvalWhere(ctx, q.Where)
	require.NoError(t, err)
	assert.True(t, ok, "null OR true is true")
}

func TestEvalArithmeticAndComparison(t *testing.T) {
	m := graph.NewMemory(true, false)
	m.AddNode("a", map[string]value.Value{"x": value.Int(4)})
	q, err := parser.Parse("MATCH (n) RETURN n.x + 1, n.x * 2 > 5")
	require.NoError(t, err)
	ctx := buildCtx(m, &Row{Nodes: map[string]graph.NodeID{"n": "a"}, Edges: map[string][]graph.Edge{}})

	v0, err := Eval(ctx, q.Return.Items[0].Expr)
	require.NoError(t, err)
	assert.Equal(t, value.Int(5), v0)

	v1, err := Eval(ctx, q.Return.Items[1].Expr)
	require.NoError(t, err)
	b, ok := v1.AsBool()
	require.True(t, ok)
	assert.True(t, b)
}

func TestEvalEdgeDictSingleVsMulti(t *testing.T) {
	m := graph.NewMemory(true, true)
	m.AddNode("a", nil)
	m.AddNode("b", nil)

	q, err := parser.Parse("MATCH (a)-[r]->(b) RETURN r")
	require.NoError(t, err)

	single := []graph.Edge{{From: "a", To: "b", Key: 0, Attrs: map[string]value.Value{"amount": value.Int(5)}}}
	ctx := buildCtx(m, &Row{Nodes: map[string]graph.NodeID{}, Edges: map[string][]graph.Edge{"r": single}})
	v, err := Eval(ctx, q.Return.Items[0].Expr)
	require.NoError(t, err)
	_, _, ok := v.AsMap()
	assert.True(t, ok, "a single bound edge renders as one dict")

	multi := []graph.Edge{
		{From: "a", To: "b", Key: 0, Attrs: map[string]value.Value{"amount": value.Int(5)}},
		{From: "a", To: "b", Key: 1, Attrs: map[string]value.Value{"amount": value.Int(6)}},
	}
	ctx2 := buildCtx(m, &Row{Nodes: map[string]graph.NodeID{}, Edges: map[string][]graph.Edge{"r": multi}})
	v2, err := Eval(ctx2, q.Return.Items[0].Expr)
	require.NoError(t, err)
	list, ok := v2.AsList()
	require.True(t, ok)
	assert.Len(t, list, 2)
}

func TestEdgeAttrEntriesTagsPrimaryLabel(t *testing.T) {
	edges := []graph.Edge{
		{From: "a", To: "b", Key: 0, Attrs: map[string]value.Value{
			"amount":         value.Int(10),
			graph.LabelsAttr: value.List([]value.Value{value.Str("paid")}),
		}},
		{From: "a", To: "b", Key: 1, Attrs: map[string]value.Value{
			graph.LabelsAttr: value.List([]value.Value{value.Str("refunded")}),
		}},
	}
	entries := EdgeAttrEntries(edges, "amount")
	require.Len(t, entries, 2)
	assert.Equal(t, "paid", entries[0].Label)
	assert.Equal(t, value.Int(10), entries[0].Val)
	assert.Equal(t, "refunded", entries[1].Label)
	assert.True(t, entries[1].Val.IsNull())
}

func TestVarRefsCollectsAllReferencedNames(t *testing.T) {
	q, err := parser.Parse("MATCH (a)-[r]->(b) WHERE a.x > b.y RETURN a.x AS ax, count(r)")
	require.NoError(t, err)
	refs := map[string]bool{}
	VarRefs(q.Where, refs)
	for _, it := range q.Return.Items {
		VarRefs(it.Expr, refs)
	}
	assert.True(t, refs["a"])
	assert.True(t, refs["b"])
	assert.True(t, refs["r"])
}

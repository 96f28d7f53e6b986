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

package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aplbrain/grand-cypher/graph"
	"github.com/aplbrain/grand-cypher/internal/motif"
	"github.com/aplbrain/grand-cypher/internal/parser"
	"github.com/aplbrain/grand-cypher/table"
	"github.com/aplbrain/grand-cypher/value"
)

func labels(ls ...string) value.Value {
	vs := make([]value.Value, len(ls))
	for i, l := range ls {
		vs[i] = value.Str(l)
	}
	return value.List(vs)
}

func run(t *testing.T, host graph.Host, query string) *table.Columnar {
	t.Helper()
	q, err := parser.Parse(query)
	require.NoError(t, err)
	motifs := make([]*motif.Motif, len(q.Matches))
	for i, mc := range q.Matches {
		mo, err := motif.Compile(mc)
		require.NoError(t, err)
		motifs[i] = mo
	}
	opts := Options{
		Motifs:   motifs,
		Where:    q.Where,
		Return:   q.Return,
		OrderBy:  q.OrderBy,
		Skip:     q.Skip,
		HasSkip:  q.HasSkip,
		Limit:    q.Limit,
		HasLimit: q.HasLimit,
	}
	tab, err := Run(host, opts, nil)
	require.NoError(t, err)
	return tab.ToColumnar()
}

func peopleGraph() *graph.Memory {
	m := graph.NewMemory(true, false)
	m.AddNode("alice", map[string]value.Value{"name": value.Str("Alice"), "age": value.Int(30), graph.LabelsAttr: labels("Person")})
	m.AddNode("bob", map[string]value.Value{"name": value.Str("Bob"), "age": value.Int(25), graph.LabelsAttr: labels("Person")})
	m.AddNode("carol", map[string]value.Value{"name": value.Str("Carol"), "age": value.Int(40), graph.LabelsAttr: labels("Person")})
	m.AddEdge("alice", "bob", nil, map[string]value.Value{graph.LabelsAttr: labels("knows")})
	m.AddEdge("alice", "carol", nil, map[string]value.Value{graph.LabelsAttr: labels("knows")})
	return m
}

func TestRunProjectsSimpleReturn(t *testing.T) {
	cols := run(t, peopleGraph(), "MATCH (n:Person) RETURN n.name AS name ORDER BY name")
	names := cols.Values["name"]
	require.Len(t, names, 3)
	s0, _ := names[0].AsString()
	s1, _ := names[1].AsString()
	s2, _ := names[2].AsString()
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, []string{s0, s1, s2})
}

func TestRunWhereFilters(t *testing.T) {
	cols := run(t, peopleGraph(), "MATCH (n:Person) WHERE n.age > 28 RETURN n.name AS name ORDER BY name")
	assert.Len(t, cols.Values["name"], 2)
}

func TestRunLimitAndSkip(t *testing.T) {
	cols := run(t, peopleGraph(), "MATCH (n:Person) RETURN n.name AS name ORDER BY name SKIP 1 LIMIT 1")
	require.Len(t, cols.Values["name"], 1)
	s, _ := cols.Values["name"][0].AsString()
	assert.Equal(t, "Bob", s)
}

func TestRunDistinct(t *testing.T) {
	m := peopleGraph()
	cols := run(t, m, "MATCH (n:Person) RETURN DISTINCT n.age > 26 AS adult")
	assert.Len(t, cols.Values["adult"], 2)
}

func TestRunDistinctWithLimitDedupsBeforeTruncating(t *testing.T) {
	m := graph.NewMemory(true, false)
	// Three nodes share age 30 before a fourth, distinct age 40 appears.
	// A LIMIT fast path that stops the join after Skip+Limit raw rows
	// would only ever see 30,30 and never reach 40.
	m.AddNode("a", map[string]value.Value{"age": value.Int(30), graph.LabelsAttr: labels("Person")})
	m.AddNode("b", map[string]value.Value{"age": value.Int(30), graph.LabelsAttr: labels("Person")})
	m.AddNode("c", map[string]value.Value{"age": value.Int(30), graph.LabelsAttr: labels("Person")})
	m.AddNode("d", map[string]value.Value{"age": value.Int(40), graph.LabelsAttr: labels("Person")})

	cols := run(t, m, "MATCH (n:Person) RETURN DISTINCT n.age AS age LIMIT 2")
	require.Len(t, cols.Values["age"], 2)
	assert.ElementsMatch(t, []value.Value{value.Int(30), value.Int(40)}, cols.Values["age"])
}

func TestRunAggregateCount(t *testing.T) {
	cols := run(t, peopleGraph(), "MATCH (n:Person) RETURN count(*) AS total")
	require.Len(t, cols.Values["total"], 1)
	assert.Equal(t, value.Int(3), cols.Values["total"][0])
}

func TestRunAggregateGroupedBySharedVariable(t *testing.T) {
	cols := run(t, peopleGraph(), "MATCH (a:Person)-[:knows]->(b:Person) RETURN a.name AS name, count(b) AS n ORDER BY name")
	names := cols.Values["name"]
	counts := cols.Values["n"]
	require.Len(t, names, 1)
	s, _ := names[0].AsString()
	assert.Equal(t, "Alice", s)
	assert.Equal(t, value.Int(2), counts[0])
}

func TestRunMultiEdgeAggregateDecomposesByLabel(t *testing.T) {
	m := graph.NewMemory(true, true)
	m.AddNode("a", nil)
	m.AddNode("b", nil)
	m.AddEdge("a", "b", nil, map[string]value.Value{graph.LabelsAttr: labels("paid"), "amount": value.Int(10)})
	m.AddEdge("a", "b", nil, map[string]value.Value{graph.LabelsAttr: labels("paid"), "amount": value.Int(42)})
	m.AddEdge("a", "b", nil, map[string]value.Value{graph.LabelsAttr: labels("refunded"), "amount": value.Int(6)})

	cols := run(t, m, "MATCH (x)-[r]->(y) RETURN sum(r.amount) AS total")
	require.Len(t, cols.Values["total"], 1)
	mp, keys, ok := cols.Values["total"][0].AsMap()
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"paid", "refunded"}, keys)
	assert.Equal(t, value.Int(52), mp["paid"])
	assert.Equal(t, value.Int(6), mp["refunded"])
}

func TestRunOrderByOnNonReturnedField(t *testing.T) {
	cols := run(t, peopleGraph(), "MATCH (n:Person) RETURN n.name AS name ORDER BY n.age DESC")
	names := cols.Values["name"]
	require.Len(t, names, 3)
	first, _ := names[0].AsString()
	assert.Equal(t, "Carol", first, "Carol has the highest age")
}

func TestRunOrderByAggregationFailsIfNotInReturn(t *testing.T) {
	q, err := parser.Parse("MATCH (n:Person) RETURN count(*) AS total ORDER BY n.age")
	require.NoError(t, err)
	motifs := []*motif.Motif{}
	for _, mc := range q.Matches {
		mo, err := motif.Compile(mc)
		require.NoError(t, err)
		motifs = append(motifs, mo)
	}
	opts := Options{Motifs: motifs, Return: q.Return, OrderBy: q.OrderBy}
	_, err = Run(peopleGraph(), opts, nil)
	require.Error(t, err)
	_, ok := err.(*OrderByNotReturned)
	assert.True(t, ok)
}

func TestRunDistinctWithOrderByOnUnreturnedFieldErrors(t *testing.T) {
	q, err := parser.Parse("MATCH (n:Person) RETURN DISTINCT n.name AS name ORDER BY n.age")
	require.NoError(t, err)
	motifs := []*motif.Motif{}
	for _, mc := range q.Matches {
		mo, err := motif.Compile(mc)
		require.NoError(t, err)
		motifs = append(motifs, mo)
	}
	opts := Options{Motifs: motifs, Return: q.Return, OrderBy: q.OrderBy}
	_, err = Run(peopleGraph(), opts, nil)
	require.Error(t, err)
	_, ok := err.(*OrderByNotReturned)
	assert.True(t, ok)
}

func TestRunEmptyResultHasDeclaredColumns(t *testing.T) {
	cols := run(t, peopleGraph(), "MATCH (n:Spaceship) RETURN n.name AS name")
	assert.Equal(t, []string{"name"}, cols.Columns)
	assert.Empty(t, cols.Values["name"])
}

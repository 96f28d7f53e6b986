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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aplbrain/grand-cypher/internal/ast"
)

func TestParseSimpleMatchReturn(t *testing.T) {
	q, err := Parse("MATCH (a:Person)-[r:friends]->(b:Person) RETURN a, b")
	require.NoError(t, err)
	require.Len(t, q.Matches, 1)

	mc := q.Matches[0]
	require.Len(t, mc.Nodes, 2)
	require.Len(t, mc.Edges, 1)
	assert.Equal(t, "a", mc.Nodes[0].Var)
	assert.Equal(t, "b", mc.Nodes[1].Var)
	assert.Equal(t, ast.LabelDNF{{"Person"}}, mc.Nodes[0].Labels)
	assert.Equal(t, "r", mc.Edges[0].Var)
	assert.Equal(t, ast.Forward, mc.Edges[0].Direction)
	assert.Equal(t, ast.LabelDNF{{"friends"}}, mc.Edges[0].Labels)

	require.Len(t, q.Return.Items, 2)
	assert.Equal(t, "a", q.Return.Items[0].Label())
	assert.Equal(t, "b", q.Return.Items[1].Label())
}

func TestParseAnonymousNodesGetSyntheticNames(t *testing.T) {
	q, err := Parse("MATCH ()-->() RETURN 1")
	require.NoError(t, err)
	mc := q.Matches[0]
	assert.True(t, mc.Nodes[0].Anon)
	assert.NotEmpty(t, mc.Nodes[0].Var)
	assert.NotEqual(t, mc.Nodes[0].Var, mc.Nodes[1].Var)
}

func TestParseReverseAndEitherDirection(t *testing.T) {
	q, err := Parse("MATCH (a)<-[:knows]-(b) RETURN a")
	require.NoError(t, err)
	assert.Equal(t, ast.Reverse, q.Matches[0].Edges[0].Direction)

	q, err = Parse("MATCH (a)-[:knows]-(b) RETURN a")
	require.NoError(t, err)
	assert.Equal(t, ast.Either, q.Matches[0].Edges[0].Direction)
}

func TestParseVariableLengthHop(t *testing.T) {
	q, err := Parse("MATCH (a)-[:knows*1..3]->(b) RETURN a")
	require.NoError(t, err)
	ep := q.Matches[0].Edges[0]
	assert.True(t, ep.VarLength)
	assert.Equal(t, 1, ep.HopMin)
	assert.Equal(t, 3, ep.HopMax)
}

func TestParseUnboundedHop(t *testing.T) {
	q, err := Parse("MATCH (a)-[:knows*2..]->(b) RETURN a")
	require.NoError(t, err)
	ep := q.Matches[0].Edges[0]
	assert.Equal(t, 2, ep.HopMin)
	assert.Equal(t, ast.Unbounded, ep.HopMax)
}

func TestParseWhereOrderBySkipLimit(t *testing.T) {
	q, err := Parse("MATCH (a) WHERE a.age > 21 RETURN a.name AS name ORDER BY a.age DESC SKIP 2 LIMIT 10")
	require.NoError(t, err)
	require.NotNil(t, q.Where)
	require.Len(t, q.OrderBy, 1)
	assert.True(t, q.OrderBy[0].Desc)
	assert.True(t, q.HasSkip)
	assert.EqualValues(t, 2, q.Skip)
	assert.True(t, q.HasLimit)
	assert.EqualValues(t, 10, q.Limit)
	assert.Equal(t, "name", q.Return.Items[0].Label())
}

func TestParseLabelDisjunction(t *testing.T) {
	q, err := Parse("MATCH (a:Person|Company) RETURN a")
	require.NoError(t, err)
	assert.Equal(t, ast.LabelDNF{{"Person"}, {"Company"}}, q.Matches[0].Nodes[0].Labels)
}

func TestParseNodeProps(t *testing.T) {
	q, err := Parse("MATCH (a {name: 'Alice', age: 30}) RETURN a")
	require.NoError(t, err)
	props := q.Matches[0].Nodes[0].Props
	require.Contains(t, props, "name")
	require.Contains(t, props, "age")
	lit, ok := props["name"].(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, "Alice", lit.Str)
}

func TestParseDistinctAndAggregate(t *testing.T) {
	q, err := Parse("MATCH (a) RETURN DISTINCT count(a) AS total")
	require.NoError(t, err)
	assert.True(t, q.Return.Distinct)
	call, ok := q.Return.Items[0].Expr.(*ast.AggregateCall)
	require.True(t, ok)
	assert.Equal(t, "COUNT", call.Fn)
	assert.Equal(t, "total", q.Return.Items[0].Label())
}

func TestParseCountStar(t *testing.T) {
	q, err := Parse("MATCH (a) RETURN count(*)")
	require.NoError(t, err)
	call, ok := q.Return.Items[0].Expr.(*ast.AggregateCall)
	require.True(t, ok)
	assert.True(t, call.Star)
	assert.Nil(t, call.Arg)
}

func TestParseMultipleMatchClauses(t *testing.T) {
	q, err := Parse("MATCH (a) MATCH (b) RETURN a, b")
	require.NoError(t, err)
	assert.Len(t, q.Matches, 2)
}

func TestParseTrailingInputIsError(t *testing.T) {
	_, err := Parse("MATCH (a) RETURN a GARBAGE")
	require.Error(t, err)
	_, ok := err.(*ParseError)
	assert.True(t, ok)
}

func TestParseMissingReturnIsError(t *testing.T) {
	_, err := Parse("MATCH (a)")
	require.Error(t, err)
}

func TestParseUnterminatedStringPropagatesLexError(t *testing.T) {
	_, err := Parse("MATCH (a {name: 'oops}) RETURN a")
	require.Error(t, err)
}

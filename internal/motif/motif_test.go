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

package motif

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aplbrain/grand-cypher/internal/parser"
	"github.com/aplbrain/grand-cypher/value"
)

func compileFirst(t *testing.T, query string) *Motif {
	t.Helper()
	q, err := parser.Parse(query)
	require.NoError(t, err)
	mo, err := Compile(q.Matches[0])
	require.NoError(t, err)
	return mo
}

func TestCompileResolvesEdgeEndpoints(t *testing.T) {
	mo := compileFirst(t, "MATCH (a)-[r:knows]->(b) RETURN a")
	require.Len(t, mo.NodeVars, 2)
	require.Len(t, mo.EdgeVars, 1)

	aIdx, ok := mo.NodeIndex("a")
	require.True(t, ok)
	bIdx, ok := mo.NodeIndex("b")
	require.True(t, ok)
	assert.Equal(t, aIdx, mo.EdgeFrom[0])
	assert.Equal(t, bIdx, mo.EdgeTo[0])
	assert.Equal(t, bIdx, mo.OtherEndpoint(0, aIdx))
	assert.Equal(t, aIdx, mo.OtherEndpoint(0, bIdx))
}

func TestCompileConstantFoldsProps(t *testing.T) {
	mo := compileFirst(t, "MATCH (a {age: 30, name: 'Alice', active: true}) RETURN a")
	props := mo.NodeProps[0]
	assert.Equal(t, value.Int(30), props["age"])
	assert.Equal(t, value.Str("Alice"), props["name"])
	assert.Equal(t, value.Bool(true), props["active"])
}

func TestCompileFoldsNegativeLiteral(t *testing.T) {
	mo := compileFirst(t, "MATCH (a {balance: -5}) RETURN a")
	assert.Equal(t, value.Int(-5), mo.NodeProps[0]["balance"])
}

func TestCompileRejectsNonLiteralProp(t *testing.T) {
	q, err := parser.Parse("MATCH (a)-->(b {x: a.age}) RETURN a")
	require.NoError(t, err)
	_, err = Compile(q.Matches[0])
	assert.Error(t, err)
}

func TestCompileSharesRepeatedNodeVariable(t *testing.T) {
	mo := compileFirst(t, "MATCH (a)-->(b)-->(a) RETURN a")
	assert.Len(t, mo.NodeVars, 2)
	assert.Len(t, mo.EdgeVars, 2)
}

func TestCompileVariableLengthHopFields(t *testing.T) {
	mo := compileFirst(t, "MATCH (a)-[:knows*2..4]->(b) RETURN a")
	assert.True(t, mo.EdgeVarLength[0])
	assert.Equal(t, 2, mo.EdgeHopMin[0])
	assert.Equal(t, 4, mo.EdgeHopMax[0])
}

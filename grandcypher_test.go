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

package grandcypher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aplbrain/grand-cypher/graph"
	"github.com/aplbrain/grand-cypher/value"
)

func smallSocialGraph() *graph.Memory {
	m := graph.NewMemory(true, false)
	lbl := func(s string) value.Value { return value.List([]value.Value{value.Str(s)}) }
	m.AddNode("alice", map[string]value.Value{"name": value.Str("Alice"), graph.LabelsAttr: lbl("Person")})
	m.AddNode("bob", map[string]value.Value{"name": value.Str("Bob"), graph.LabelsAttr: lbl("Person")})
	m.AddEdge("alice", "bob", nil, map[string]value.Value{graph.LabelsAttr: lbl("knows")})
	return m
}

func TestEngineRunBasicQuery(t *testing.T) {
	e := New(smallSocialGraph())
	cols, err := e.Run("MATCH (a:Person)-[:knows]->(b:Person) RETURN a.name AS from, b.name AS to")
	require.NoError(t, err)
	require.Len(t, cols.Values["from"], 1)
	s, _ := cols.Values["from"][0].AsString()
	assert.Equal(t, "Alice", s)
}

func TestEngineRunEmptyMatchYieldsEmptyColumnarNotError(t *testing.T) {
	e := New(smallSocialGraph())
	cols, err := e.Run("MATCH (a:Nonexistent) RETURN a")
	require.NoError(t, err)
	assert.Empty(t, cols.Values["a"])
}

func TestEngineRunUnknownVariableIsError(t *testing.T) {
	e := New(smallSocialGraph())
	_, err := e.Run("MATCH (a) RETURN b")
	require.Error(t, err)
	_, ok := err.(*UnknownVariable)
	assert.True(t, ok)
}

func TestEngineRunParseErrorIsError(t *testing.T) {
	e := New(smallSocialGraph())
	_, err := e.Run("MATCH (a RETURN a")
	require.Error(t, err)
	_, ok := err.(*ParseError)
	assert.True(t, ok)
}

func TestEngineRunHintRestrictsBinding(t *testing.T) {
	e := New(smallSocialGraph())
	cols, err := e.Run("MATCH (a:Person) RETURN a.name AS name", Hint{"a": graph.NodeID("bob")})
	require.NoError(t, err)
	require.Len(t, cols.Values["name"], 1)
	s, _ := cols.Values["name"][0].AsString()
	assert.Equal(t, "Bob", s)
}

func TestEngineRunInvalidHintVariableIsError(t *testing.T) {
	e := New(smallSocialGraph())
	_, err := e.Run("MATCH (a:Person) RETURN a.name", Hint{"nope": graph.NodeID("bob")})
	require.Error(t, err)
	_, ok := err.(*InvalidHint)
	assert.True(t, ok)
}

func TestEngineRunHintListIsOrAcrossMaps(t *testing.T) {
	e := New(smallSocialGraph())
	cols, err := e.Run(
		"MATCH (a:Person) RETURN a.name AS name ORDER BY name",
		Hint{"a": graph.NodeID("alice")},
		Hint{"a": graph.NodeID("bob")},
	)
	require.NoError(t, err)
	require.Len(t, cols.Values["name"], 2)
}

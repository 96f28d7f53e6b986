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

// Package motif compiles a parsed MATCH clause (internal/ast.MatchClause)
// into the small, index-addressed graph structure the matcher searches
// over (spec §3 "Motif", §9 "Motif representation"). This generalizes the
// single-triple clause BadWolf's bql/semantic.GraphClause represents into
// an arbitrary chain of pattern nodes and edges.
package motif

import (
	"fmt"

	"github.com/aplbrain/grand-cypher/internal/ast"
	"github.com/aplbrain/grand-cypher/value"
)

// Motif is the compiled form of one MatchClause: pattern nodes and edges
// addressed by integer index (spec §9), each carrying a compiled label
// predicate and property predicate.
type Motif struct {
	NodeVars   []string
	NodeAnon   []bool
	NodeLabels []ast.LabelDNF
	NodeProps  []map[string]value.Value

	EdgeVars      []string
	EdgeAnon      []bool
	EdgeLabels    []ast.LabelDNF
	EdgeProps     []map[string]value.Value
	EdgeDir       []ast.Direction
	EdgeHopMin    []int
	EdgeHopMax    []int
	EdgeVarLength []bool
	EdgeFrom      []int // pattern-node index
	EdgeTo        []int

	NameIdx map[string]int // node var -> index
}

// NodeIndex returns the pattern-node index bound to var, and whether it
// exists in this motif.
func (m *Motif) NodeIndex(v string) (int, bool) {
	i, ok := m.NameIdx[v]
	return i, ok
}

// OtherEndpoint returns the index of the pattern node at the opposite end
// of edge ei from idx.
func (m *Motif) OtherEndpoint(ei, idx int) int {
	if m.EdgeFrom[ei] == idx {
		return m.EdgeTo[ei]
	}
	return m.EdgeFrom[ei]
}

// Compile converts one parsed MatchClause into a Motif, resolving each
// edge's From/To variable names to pattern-node indices and constant-
// folding property-map expressions into Values (spec §3, §4.1 property
// maps are literal-valued).
func Compile(mc *ast.MatchClause) (*Motif, error) {
	m := &Motif{NameIdx: map[string]int{}}

	addNode := func(np *ast.NodePattern) (int, error) {
		if idx, ok := m.NameIdx[np.Var]; ok {
			return idx, nil
		}
		props, err := compileProps(np.Props)
		if err != nil {
			return 0, fmt.Errorf("motif.Compile: node %q: %w", np.Var, err)
		}
		idx := len(m.NodeVars)
		m.NodeVars = append(m.NodeVars, np.Var)
		m.NodeAnon = append(m.NodeAnon, np.Anon)
		m.NodeLabels = append(m.NodeLabels, np.Labels)
		m.NodeProps = append(m.NodeProps, props)
		m.NameIdx[np.Var] = idx
		return idx, nil
	}

	for _, np := range mc.Nodes {
		if _, err := addNode(np); err != nil {
			return nil, err
		}
	}
	for _, ep := range mc.Edges {
		fromIdx, ok := m.NameIdx[ep.From]
		if !ok {
			return nil, fmt.Errorf("motif.Compile: edge references unknown node %q", ep.From)
		}
		toIdx, ok := m.NameIdx[ep.To]
		if !ok {
			return nil, fmt.Errorf("motif.Compile: edge references unknown node %q", ep.To)
		}
		props, err := compileProps(ep.Props)
		if err != nil {
			return nil, fmt.Errorf("motif.Compile: edge %q: %w", ep.Var, err)
		}
		m.EdgeVars = append(m.EdgeVars, ep.Var)
		m.EdgeAnon = append(m.EdgeAnon, ep.Anon)
		m.EdgeLabels = append(m.EdgeLabels, ep.Labels)
		m.EdgeProps = append(m.EdgeProps, props)
		m.EdgeDir = append(m.EdgeDir, ep.Direction)
		m.EdgeHopMin = append(m.EdgeHopMin, ep.HopMin)
		m.EdgeHopMax = append(m.EdgeHopMax, ep.HopMax)
		m.EdgeVarLength = append(m.EdgeVarLength, ep.VarLength)
		m.EdgeFrom = append(m.EdgeFrom, fromIdx)
		m.EdgeTo = append(m.EdgeTo, toIdx)
	}
	return m, nil
}

// compileProps constant-folds a property map's expressions into Values.
// Pattern property values are literals (spec §3 NodePattern/EdgePattern
// "props?: map<string,Value>"). The parser accepts any expression as a
// props map value; this folder covers literals and negated literals and
// rejects every other expression with an error.
func compileProps(props map[string]ast.Expr) (map[string]value.Value, error) {
	if len(props) == 0 {
		return nil, nil
	}
	out := make(map[string]value.Value, len(props))
	for k, e := range props {
		v, err := foldConst(e)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

func foldConst(e ast.Expr) (value.Value, error) {
	switch n := e.(type) {
	case *ast.Literal:
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
			for i, el := range n.List {
				v, err := foldConst(el)
				if err != nil {
					return value.Null, err
				}
				vs[i] = v
			}
			return value.List(vs), nil
		}
	case *ast.UnaryOp:
		if n.Op == "NEG" {
			inner, err := foldConst(n.Expr)
			if err != nil {
				return value.Null, err
			}
			return value.Sub(value.Int(0), inner)
		}
	}
	return value.Null, fmt.Errorf("pattern property must be a literal, got %T", e)
}

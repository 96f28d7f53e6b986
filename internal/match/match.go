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

// Package match implements the subgraph-isomorphism search described in
// spec §4.3: it walks a compiled internal/motif.Motif with backtracking,
// honoring hints, hop ranges, and direction semantics, and streams the
// resulting Embeddings lazily so a LIMIT-bound pipeline can stop early
// (spec §4.3.8, §5) — the generalization of BadWolf's single-triple
// bql/planner/data_access.go lookup to arbitrary pattern graphs.
package match

import (
	"fmt"
	"sort"

	"github.com/aplbrain/grand-cypher/internal/ast"
	"github.com/aplbrain/grand-cypher/internal/motif"
	"github.com/aplbrain/grand-cypher/graph"
	"github.com/aplbrain/grand-cypher/value"
)

// Embedding is a total mapping from pattern-node names to host-node ids,
// plus, for each pattern edge, the host edges realizing it (spec §3).
type Embedding struct {
	Nodes map[string]graph.NodeID
	Edges map[string][]graph.Edge
}

// Hint is a caller-supplied partial binding of pattern-node variables to
// host-node ids (spec §6.1).
type Hint map[string]graph.NodeID

// Seq streams Embeddings to yield, stopping as soon as yield returns
// false (spec §4.3.8 "honors an external enough signal").
type Seq func(yield func(*Embedding) bool)

// Search enumerates all embeddings of mo in host. hints, if non-empty,
// restrict the search to embeddings consistent with at least one hint map
// (OR across the list, AND across keys within one map — spec §6.1); this
// is implemented by running one restricted search per hint map and
// unioning the (deduplicated) results, which is equivalent to the OR/AND
// semantics because an embedding satisfies the hint list iff it satisfies
// at least one map outright.
func Search(host graph.Host, mo *motif.Motif, hints []Hint) Seq {
	return func(yield func(*Embedding) bool) {
		pinSets := hints
		if len(pinSets) == 0 {
			pinSets = []Hint{nil}
		}
		seen := map[string]bool{}
		cont := true
		for _, pins := range pinSets {
			if !cont {
				return
			}
			searchOne(host, mo, pins, func(e *Embedding) bool {
				key := embeddingKey(e)
				if seen[key] {
					return true
				}
				seen[key] = true
				cont = yield(e)
				return cont
			})
		}
	}
}

type edgeHop struct {
	Edge graph.Edge
	Next graph.NodeID
}

// searchOne runs one backtracking search with a single (possibly nil) pin
// map, returning false if the consumer asked to stop.
func searchOne(host graph.Host, mo *motif.Motif, pins Hint, yield func(*Embedding) bool) bool {
	n := len(mo.NodeVars)
	if n == 0 {
		return true
	}
	candidates := make([][]graph.NodeID, n)
	for i := range mo.NodeVars {
		candidates[i] = candidatesFor(host, mo, i, pins)
	}
	order := searchOrder(mo, candidates)

	incident := make([][]int, n)
	for ei := range mo.EdgeFrom {
		incident[mo.EdgeFrom[ei]] = append(incident[mo.EdgeFrom[ei]], ei)
		incident[mo.EdgeTo[ei]] = append(incident[mo.EdgeTo[ei]], ei)
	}

	assignment := make([]graph.NodeID, n)
	assigned := make([]bool, n)
	usedIDs := map[interface{}]bool{}
	edgeBound := make([][]graph.Edge, len(mo.EdgeVars))
	edgeResolved := make([]bool, len(mo.EdgeVars))
	usedEdges := map[string]bool{}

	var backtrack func(pos int) bool
	backtrack = func(pos int) bool {
		if pos == n {
			return yield(buildEmbedding(mo, assignment, edgeBound))
		}
		idx := order[pos]
		for _, cand := range candidates[idx] {
			if usedIDs[cand] {
				continue
			}
			assignment[idx] = cand
			assigned[idx] = true
			usedIDs[cand] = true

			var toResolve []int
			for _, ei := range incident[idx] {
				if edgeResolved[ei] {
					continue
				}
				other := mo.OtherEndpoint(ei, idx)
				if assigned[other] {
					toResolve = append(toResolve, ei)
				}
			}

			ok := resolveEdgesThen(host, mo, toResolve, 0, assignment, edgeBound, edgeResolved, usedEdges, func() bool {
				return backtrack(pos + 1)
			})

			assigned[idx] = false
			usedIDs[cand] = false

			if !ok {
				return false
			}
		}
		return true
	}
	return backtrack(0)
}

func resolveEdgesThen(host graph.Host, mo *motif.Motif, list []int, i int, assignment []graph.NodeID, edgeBound [][]graph.Edge, edgeResolved []bool, used map[string]bool, then func() bool) bool {
	if i == len(list) {
		return then()
	}
	ei := list[i]
	from, to := assignment[mo.EdgeFrom[ei]], assignment[mo.EdgeTo[ei]]
	alternatives := candidateEdgeSets(host, mo, ei, from, to, used)
	for _, alt := range alternatives {
		for _, e := range alt {
			used[instKey(e)] = true
		}
		edgeBound[ei] = alt
		edgeResolved[ei] = true

		cont := resolveEdgesThen(host, mo, list, i+1, assignment, edgeBound, edgeResolved, used, then)

		edgeResolved[ei] = false
		edgeBound[ei] = nil
		for _, e := range alt {
			delete(used, instKey(e))
		}
		if !cont {
			return false
		}
	}
	return true
}

func buildEmbedding(mo *motif.Motif, assignment []graph.NodeID, edgeBound [][]graph.Edge) *Embedding {
	e := &Embedding{
		Nodes: make(map[string]graph.NodeID, len(mo.NodeVars)),
		Edges: make(map[string][]graph.Edge, len(mo.EdgeVars)),
	}
	for i, v := range mo.NodeVars {
		e.Nodes[v] = assignment[i]
	}
	for i, v := range mo.EdgeVars {
		cp := make([]graph.Edge, len(edgeBound[i]))
		copy(cp, edgeBound[i])
		e.Edges[v] = cp
	}
	return e
}

// searchOrder picks pattern-node processing order favoring small candidate
// sets first, ties broken by connectivity to already-ordered nodes (spec
// §4.3.2) — a recommendation, not a requirement, so any correct order is
// acceptable; this is a reasonable greedy one.
func searchOrder(mo *motif.Motif, candidates [][]graph.NodeID) []int {
	n := len(mo.NodeVars)
	placed := make([]bool, n)
	order := make([]int, 0, n)
	for len(order) < n {
		best := -1
		for i := 0; i < n; i++ {
			if placed[i] {
				continue
			}
			if best == -1 {
				best = i
				continue
			}
			ci, cb := len(candidates[i]), len(candidates[best])
			switch {
			case ci < cb:
				best = i
			case ci == cb && connectivity(mo, i, placed) > connectivity(mo, best, placed):
				best = i
			}
		}
		order = append(order, best)
		placed[best] = true
	}
	return order
}

func connectivity(mo *motif.Motif, idx int, placed []bool) int {
	c := 0
	for ei := range mo.EdgeFrom {
		if mo.EdgeFrom[ei] == idx && placed[mo.EdgeTo[ei]] {
			c++
		}
		if mo.EdgeTo[ei] == idx && placed[mo.EdgeFrom[ei]] {
			c++
		}
	}
	return c
}

func candidatesFor(host graph.Host, mo *motif.Motif, idx int, pins Hint) []graph.NodeID {
	name := mo.NodeVars[idx]
	if pins != nil {
		if pinned, ok := pins[name]; ok {
			if nodeMatches(host, mo, idx, pinned) {
				return []graph.NodeID{pinned}
			}
			return nil
		}
	}
	if idxer, ok := host.(graph.AttributeIndex); ok {
		for k, v := range mo.NodeProps[idx] {
			if ids, ok2 := idxer.IndexedAttr(k, "=", v); ok2 {
				var out []graph.NodeID
				for _, id := range ids {
					if nodeMatches(host, mo, idx, id) {
						out = append(out, id)
					}
				}
				return out
			}
		}
	}
	var out []graph.NodeID
	host.Nodes()(func(id graph.NodeID) bool {
		if nodeMatches(host, mo, idx, id) {
			out = append(out, id)
		}
		return true
	})
	return out
}

func nodeMatches(host graph.Host, mo *motif.Motif, idx int, id graph.NodeID) bool {
	attrs := host.NodeAttrs(id)
	if attrs == nil {
		return false
	}
	labels := graph.NodeLabels(attrs)
	if !mo.NodeLabels[idx].Matches(labels.Has) {
		return false
	}
	for k, want := range mo.NodeProps[idx] {
		got, ok := attrs[k]
		if !ok || value.Equals(got, want) != value.True {
			return false
		}
	}
	return true
}

func edgeMatches(mo *motif.Motif, ei int, e graph.Edge) bool {
	labels := e.Labels()
	if !mo.EdgeLabels[ei].Matches(labels.Has) {
		return false
	}
	for k, want := range mo.EdgeProps[ei] {
		got, ok := e.Attrs[k]
		if !ok || value.Equals(got, want) != value.True {
			return false
		}
	}
	return true
}

// effectiveDirection applies spec §4.3.5: Forward/Reverse on an undirected
// host is accepted as Either with no direction constraint.
func effectiveDirection(host graph.Host, d ast.Direction) ast.Direction {
	if !host.IsDirected() {
		return ast.Either
	}
	return d
}

// candidateEdgeSets returns the alternative bindings for pattern edge ei
// between already-bound hosts from/to: for a fixed single-hop edge, a
// single alternative containing every qualifying parallel edge (so
// aggregates see the whole multi-edge bundle, spec §4.3.3); for a
// variable-length edge, one alternative per qualifying simple path (spec
// §4.3.4), each a separate embedding.
func candidateEdgeSets(host graph.Host, mo *motif.Motif, ei int, from, to graph.NodeID, used map[string]bool) [][]graph.Edge {
	dir := effectiveDirection(host, mo.EdgeDir[ei])
	if !mo.EdgeVarLength[ei] && mo.EdgeHopMin[ei] == 1 && mo.EdgeHopMax[ei] == 1 {
		var qualifying []graph.Edge
		for _, e := range rawFixedEdges(host, dir, from, to) {
			if used[instKey(e)] {
				continue
			}
			if edgeMatches(mo, ei, e) {
				qualifying = append(qualifying, e)
			}
		}
		if len(qualifying) == 0 {
			return nil
		}
		return [][]graph.Edge{qualifying}
	}
	return variablePaths(host, mo, ei, dir, from, to, used)
}

func rawFixedEdges(host graph.Host, dir ast.Direction, a, b graph.NodeID) []graph.Edge {
	if !host.IsDirected() {
		return collectEdges(host.EdgesBetween(a, b))
	}
	switch dir {
	case ast.Forward:
		return collectEdges(host.EdgesBetween(a, b))
	case ast.Reverse:
		return collectEdges(host.EdgesBetween(b, a))
	default:
		out := collectEdges(host.EdgesBetween(a, b))
		out = append(out, collectEdges(host.EdgesBetween(b, a))...)
		return out
	}
}

func collectEdges(it graph.EdgeIter) []graph.Edge {
	var out []graph.Edge
	it(func(e graph.Edge) bool {
		out = append(out, e)
		return true
	})
	return out
}

// variablePaths performs the bounded depth-limited simple-path search of
// spec §4.3.4: every simple path (no repeated host node) of length k with
// lo <= k <= hi becomes one alternative/embedding.
func variablePaths(host graph.Host, mo *motif.Motif, ei int, dir ast.Direction, from, to graph.NodeID, used map[string]bool) [][]graph.Edge {
	lo, hi := mo.EdgeHopMin[ei], mo.EdgeHopMax[ei]
	var results [][]graph.Edge
	visited := map[interface{}]bool{from: true}
	var path []graph.Edge

	var dfs func(cur graph.NodeID, depth int)
	dfs = func(cur graph.NodeID, depth int) {
		if depth >= lo && cur == to {
			cp := make([]graph.Edge, len(path))
			copy(cp, path)
			results = append(results, cp)
		}
		if depth >= hi {
			return
		}
		for _, h := range neighborHops(host, dir, cur) {
			if used[instKey(h.Edge)] {
				continue
			}
			if !edgeMatches(mo, ei, h.Edge) {
				continue
			}
			if visited[h.Next] {
				continue
			}
			visited[h.Next] = true
			path = append(path, h.Edge)
			dfs(h.Next, depth+1)
			path = path[:len(path)-1]
			visited[h.Next] = false
		}
	}
	dfs(from, 0)
	return results
}

func neighborHops(host graph.Host, dir ast.Direction, cur graph.NodeID) []edgeHop {
	var hops []edgeHop
	if !host.IsDirected() {
		host.OutEdges(cur)(func(e graph.Edge) bool {
			hops = append(hops, edgeHop{e, e.To})
			return true
		})
		return hops
	}
	switch dir {
	case ast.Forward:
		host.OutEdges(cur)(func(e graph.Edge) bool {
			hops = append(hops, edgeHop{e, e.To})
			return true
		})
	case ast.Reverse:
		host.InEdges(cur)(func(e graph.Edge) bool {
			hops = append(hops, edgeHop{e, e.From})
			return true
		})
	default:
		host.OutEdges(cur)(func(e graph.Edge) bool {
			hops = append(hops, edgeHop{e, e.To})
			return true
		})
		host.InEdges(cur)(func(e graph.Edge) bool {
			hops = append(hops, edgeHop{e, e.From})
			return true
		})
	}
	return hops
}

func instKey(e graph.Edge) string {
	return fmt.Sprintf("%v\x00%v\x00%d", e.From, e.To, e.Key)
}

// embeddingKey renders a stable identity for an embedding, used to
// deduplicate results across the per-hint-map searches Search fans out to.
func embeddingKey(e *Embedding) string {
	nodeVars := make([]string, 0, len(e.Nodes))
	for v := range e.Nodes {
		nodeVars = append(nodeVars, v)
	}
	sort.Strings(nodeVars)
	s := ""
	for _, v := range nodeVars {
		s += fmt.Sprintf("%s=%v;", v, e.Nodes[v])
	}
	edgeVars := make([]string, 0, len(e.Edges))
	for v := range e.Edges {
		edgeVars = append(edgeVars, v)
	}
	sort.Strings(edgeVars)
	for _, v := range edgeVars {
		es := append([]graph.Edge{}, e.Edges[v]...)
		sort.Slice(es, func(i, j int) bool { return instKey(es[i]) < instKey(es[j]) })
		s += v + "=["
		for _, ed := range es {
			s += instKey(ed) + ","
		}
		s += "];"
	}
	return s
}

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

// Package graph defines the capability surface GrandCypher requires from a
// host graph (spec §4.2) and provides a default in-memory implementation.
// The core query engine never depends on a concrete backend: it consumes
// only the Host interface declared here, the same way
// badwolf/storage.Store/Graph decouples BQL from its storage drivers.
package graph

import "github.com/aplbrain/grand-cypher/value"

// NodeID is an opaque host node identifier.
type NodeID interface{}

// EdgeKey disambiguates parallel edges between the same ordered pair of
// nodes. On a simple graph it is always 0; on a multigraph it is a
// caller-assigned integer preserved verbatim in aggregate output (spec §6.2).
type EdgeKey int

// LabelSet is the conventional `__labels__` attribute value: an unordered
// set of label strings carried by a node or an edge.
type LabelSet map[string]bool

// NewLabelSet builds a LabelSet from a slice of label strings.
func NewLabelSet(labels ...string) LabelSet {
	ls := make(LabelSet, len(labels))
	for _, l := range labels {
		ls[l] = true
	}
	return ls
}

// Has reports whether the label set contains atom.
func (ls LabelSet) Has(atom string) bool { return ls[atom] }

// LabelsAttr is the reserved attribute name exposing a node's or edge's
// label set (spec §3, §6.2).
const LabelsAttr = "__labels__"

// Edge describes one realized host edge between two nodes.
type Edge struct {
	From, To NodeID
	Key      EdgeKey
	Attrs    map[string]value.Value
}

// Labels returns the edge's label set, or an empty set if it carries none.
func (e Edge) Labels() LabelSet {
	return labelsOf(e.Attrs)
}

// NodeIter is a read-only, single-pass sequence of node ids, mirroring
// badwolf's storage.Nodes channel-of-results idiom but expressed as a
// pull-based iterator so the matcher can stop early without leaking a
// goroutine (spec §4.3.8, §5).
type NodeIter func(yield func(NodeID) bool)

// EdgeIter is a read-only, single-pass sequence of edges.
type EdgeIter func(yield func(Edge) bool)

// Host is the capability set the engine requires from any host graph
// (spec §4.2). All sequences it returns are read-only snapshots for the
// duration of one query (spec §5): the engine performs no locking and
// makes no defensive copies.
type Host interface {
	// Nodes enumerates every node id in the host graph.
	Nodes() NodeIter

	// NodeAttrs returns the attribute map for a node, which may include
	// LabelsAttr. A nonexistent node returns a nil map.
	NodeAttrs(id NodeID) map[string]value.Value

	// OutEdges enumerates edges leaving id. On an undirected host this
	// returns the same edges as InEdges.
	OutEdges(id NodeID) EdgeIter

	// InEdges enumerates edges entering id.
	InEdges(id NodeID) EdgeIter

	// EdgesBetween enumerates the edges from a to b, in that order, for a
	// given ordered pair.
	EdgesBetween(a, b NodeID) EdgeIter

	// IsDirected reports whether the host graph is directed.
	IsDirected() bool

	// IsMultigraph reports whether the host graph may hold parallel edges
	// between the same ordered pair of nodes.
	IsMultigraph() bool
}

// AttributeIndex is an optional capability (spec SPEC_FULL.md "Supplemented
// features") a Host may implement to accelerate candidate-set generation
// (spec §4.3 step 1) for property-equality and range predicates, mirroring
// the upstream Python implementation's ArrayAttributeIndexer. The engine
// always falls back to a full scan when a host does not implement this.
type AttributeIndex interface {
	// IndexedAttr returns the node ids whose attribute key compares to val
	// using op ("=", "<", "<=", ">", ">=", "<>"), and true if the
	// attribute is indexed and the operator is supported. A false result
	// tells the caller to fall back to scanning Nodes().
	IndexedAttr(key string, op string, val value.Value) (ids []NodeID, ok bool)
}

func labelsOf(attrs map[string]value.Value) LabelSet {
	raw, ok := attrs[LabelsAttr]
	if !ok {
		return nil
	}
	list, ok := raw.AsList()
	if !ok {
		return nil
	}
	ls := make(LabelSet, len(list))
	for _, v := range list {
		if s, ok := v.AsString(); ok {
			ls[s] = true
		}
	}
	return ls
}

// NodeLabels returns the label set carried by a node's attribute map.
func NodeLabels(attrs map[string]value.Value) LabelSet { return labelsOf(attrs) }

// PrimaryLabel returns an arbitrary but stable member of a label set, used
// to key per-edge aggregate maps (spec §4.4). Empty sets return "".
func PrimaryLabel(ls LabelSet) string {
	best := ""
	for l := range ls {
		if best == "" || l < best {
			best = l
		}
	}
	return best
}

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

package graph

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/aplbrain/grand-cypher/value"
)

// Memory is a volatile, in-memory Host implementation, modeled after
// badwolf/storage/memory's index-backed graph: adjacency is held in plain
// maps guarded by a single RWMutex, since the engine only ever reads from a
// Host during a query (spec §5) while construction happens up front.
type Memory struct {
	mu         sync.RWMutex
	directed   bool
	multigraph bool

	attrs map[NodeID]map[string]value.Value
	order []NodeID // insertion order, for deterministic Nodes() enumeration.

	out map[NodeID][]Edge
	in  map[NodeID][]Edge

	nextKey map[pairKey]EdgeKey

	index map[string][]indexEntry // lazily built by BuildIndex.
}

type pairKey struct {
	from, to NodeID
}

type indexEntry struct {
	id  NodeID
	val value.Value
}

// NewMemory returns an empty in-memory host graph. directed and multigraph
// fix the semantics described in spec §3/§4.2 for the lifetime of the graph.
func NewMemory(directed, multigraph bool) *Memory {
	return &Memory{
		directed:   directed,
		multigraph: multigraph,
		attrs:      make(map[NodeID]map[string]value.Value),
		out:        make(map[NodeID][]Edge),
		in:         make(map[NodeID][]Edge),
		nextKey:    make(map[pairKey]EdgeKey),
	}
}

// AddNode registers a node with the given id and attributes. Re-adding an
// existing id overwrites its attributes. A nil attrs is stored as an empty
// map, so NodeAttrs returns nil only for nodes that do not exist.
func (m *Memory) AddNode(id NodeID, attrs map[string]value.Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if attrs == nil {
		attrs = map[string]value.Value{}
	}
	if _, exists := m.attrs[id]; !exists {
		m.order = append(m.order, id)
	}
	m.attrs[id] = attrs
	m.index = nil
}

// AddNodeAuto registers a node with attributes and a freshly generated id,
// returning the id. Used by callers that don't care about id assignment.
func (m *Memory) AddNodeAuto(attrs map[string]value.Value) NodeID {
	id := uuid.New().String()
	m.AddNode(id, attrs)
	return id
}

// AddEdge adds a directed edge from -> to with the given attributes. If key
// is nil and the graph is a multigraph, the next unused integer key for
// that ordered pair is allocated automatically (mirroring how a caller
// would let a database assign a relationship id). On an undirected graph
// the edge is also indexed as to -> from so InEdges/OutEdges agree (spec
// §4.2: "for undirected hosts, both return the same set").
func (m *Memory) AddEdge(from, to NodeID, key *EdgeKey, attrs map[string]value.Value) EdgeKey {
	m.mu.Lock()
	defer m.mu.Unlock()

	pk := pairKey{from, to}
	var k EdgeKey
	if key != nil {
		k = *key
	} else {
		k = m.nextKey[pk]
	}
	if k >= m.nextKey[pk] {
		m.nextKey[pk] = k + 1
	}

	e := Edge{From: from, To: to, Key: k, Attrs: attrs}
	m.out[from] = append(m.out[from], e)
	m.in[to] = append(m.in[to], e)

	if !m.directed && from != to {
		rev := Edge{From: to, To: from, Key: k, Attrs: attrs}
		m.out[to] = append(m.out[to], rev)
		m.in[from] = append(m.in[from], rev)
	}
	return k
}

// Nodes implements Host.
func (m *Memory) Nodes() NodeIter {
	m.mu.RLock()
	snapshot := append([]NodeID{}, m.order...)
	m.mu.RUnlock()
	return func(yield func(NodeID) bool) {
		for _, id := range snapshot {
			if !yield(id) {
				return
			}
		}
	}
}

// NodeAttrs implements Host.
func (m *Memory) NodeAttrs(id NodeID) map[string]value.Value {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.attrs[id]
}

// OutEdges implements Host.
func (m *Memory) OutEdges(id NodeID) EdgeIter {
	m.mu.RLock()
	snapshot := append([]Edge{}, m.out[id]...)
	m.mu.RUnlock()
	return sliceIter(snapshot)
}

// InEdges implements Host.
func (m *Memory) InEdges(id NodeID) EdgeIter {
	m.mu.RLock()
	snapshot := append([]Edge{}, m.in[id]...)
	m.mu.RUnlock()
	return sliceIter(snapshot)
}

// EdgesBetween implements Host.
func (m *Memory) EdgesBetween(a, b NodeID) EdgeIter {
	m.mu.RLock()
	var out []Edge
	for _, e := range m.out[a] {
		if e.To == b {
			out = append(out, e)
		}
	}
	m.mu.RUnlock()
	return sliceIter(out)
}

// IsDirected implements Host.
func (m *Memory) IsDirected() bool { return m.directed }

// IsMultigraph implements Host.
func (m *Memory) IsMultigraph() bool { return m.multigraph }

// BuildIndex builds a sorted index over the given attribute keys, enabling
// the AttributeIndex fast path for candidate-set generation (see
// SPEC_FULL.md "Supplemented features"), the same way the upstream Python
// implementation's ArrayAttributeIndexer.create_indices does.
func (m *Memory) BuildIndex(keys ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.index == nil {
		m.index = make(map[string][]indexEntry)
	}
	for _, k := range keys {
		var entries []indexEntry
		for _, id := range m.order {
			v, ok := m.attrs[id][k]
			if !ok {
				continue
			}
			entries = append(entries, indexEntry{id: id, val: v})
		}
		sort.SliceStable(entries, func(i, j int) bool {
			return value.OrderLess(entries[i].val, entries[j].val)
		})
		m.index[k] = entries
	}
}

// IndexedAttr implements AttributeIndex.
func (m *Memory) IndexedAttr(key string, op string, val value.Value) ([]NodeID, bool) {
	m.mu.RLock()
	entries, ok := m.index[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	lo := sort.Search(len(entries), func(i int) bool { return !value.OrderLess(entries[i].val, val) })
	hi := sort.Search(len(entries), func(i int) bool { return value.OrderLess(val, entries[i].val) })

	var ids []NodeID
	switch op {
	case "=", "==":
		for i := lo; i < hi; i++ {
			ids = append(ids, entries[i].id)
		}
	case "<":
		for i := 0; i < lo; i++ {
			ids = append(ids, entries[i].id)
		}
	case "<=":
		for i := 0; i < hi; i++ {
			ids = append(ids, entries[i].id)
		}
	case ">":
		for i := hi; i < len(entries); i++ {
			ids = append(ids, entries[i].id)
		}
	case ">=":
		for i := lo; i < len(entries); i++ {
			ids = append(ids, entries[i].id)
		}
	case "<>", "!=":
		for i, e := range entries {
			if i < lo || i >= hi {
				ids = append(ids, e.id)
			}
		}
	default:
		return nil, false
	}
	return ids, true
}

func sliceIter(s []Edge) EdgeIter {
	return func(yield func(Edge) bool) {
		for _, e := range s {
			if !yield(e) {
				return
			}
		}
	}
}

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

// Package pipeline runs the result stages of spec §4.5: joining the
// embeddings produced by each MATCH clause, applying WHERE, grouping and
// evaluating RETURN (including aggregates), DISTINCT, ORDER BY, SKIP, and
// LIMIT, before shaping the surviving rows into a table.Table. It plays
// the role BadWolf's bql/planner.queryPlan.Execute plays for BQL: the
// stage after parsing/matching that turns bindings into a result,
// generalized from a single fetch-filter-project chain to Cypher's
// multi-clause join plus grouping pipeline.
package pipeline

import (
	"fmt"
	"sort"

	"github.com/aplbrain/grand-cypher/graph"
	"github.com/aplbrain/grand-cypher/internal/ast"
	"github.com/aplbrain/grand-cypher/internal/eval"
	"github.com/aplbrain/grand-cypher/internal/match"
	"github.com/aplbrain/grand-cypher/internal/motif"
	"github.com/aplbrain/grand-cypher/table"
	"github.com/aplbrain/grand-cypher/value"
)

// orderCol renders the synthetic column name the i-th ORDER BY key is
// stashed under in a row, alongside the declared RETURN columns. The
// leading control byte keeps it outside any name a Cypher identifier can
// spell, so it never collides with a real column label.
func orderCol(i int) string { return fmt.Sprintf("\x01order%d", i) }

// clauseHints splits a flat hint map list keyed by variable name into the
// subset relevant to one motif (spec §6.1: hints apply across clauses by
// variable name, regardless of which MATCH declared it).
func clauseHints(hints []match.Hint, mo *motif.Motif) []match.Hint {
	if len(hints) == 0 {
		return nil
	}
	out := make([]match.Hint, 0, len(hints))
	for _, h := range hints {
		sub := match.Hint{}
		for k, v := range h {
			if _, ok := mo.NodeIndex(k); ok {
				sub[k] = v
			}
		}
		out = append(out, sub)
	}
	return out
}

// joinedRow is one candidate row after joining across MATCH clauses: the
// union of every motif's bound node and edge variables (spec §4.3.7).
type joinedRow struct {
	Nodes map[string]graph.NodeID
	Edges map[string][]graph.Edge
}

func (r *joinedRow) clone() *joinedRow {
	nodes := make(map[string]graph.NodeID, len(r.Nodes))
	for k, v := range r.Nodes {
		nodes[k] = v
	}
	edges := make(map[string][]graph.Edge, len(r.Edges))
	for k, v := range r.Edges {
		edges[k] = v
	}
	return &joinedRow{Nodes: nodes, Edges: edges}
}

// consistent reports whether e agrees with r on every node variable they
// share (spec §4.3.7 "rows whose variable assignments are consistent on
// shared variable names").
func (r *joinedRow) consistent(e *match.Embedding) bool {
	for v, id := range e.Nodes {
		if existing, ok := r.Nodes[v]; ok && existing != id {
			return false
		}
	}
	return true
}

func (r *joinedRow) merge(e *match.Embedding) *joinedRow {
	out := r.clone()
	for v, id := range e.Nodes {
		out.Nodes[v] = id
	}
	for v, edges := range e.Edges {
		out.Edges[v] = edges
	}
	return out
}

// joinMotifs streams the cross-product/join of every motif's embedding
// stream, honoring hints per motif and stopping as soon as want returns
// false (spec §4.3.7-8). Implemented as nested loops with an on-the-fly
// consistency check, the "implementation freedom" spec §4.3.7 names
// explicitly.
func joinMotifs(host graph.Host, motifs []*motif.Motif, hints []match.Hint, want func(*joinedRow) bool) {
	var rec func(i int, acc *joinedRow) bool
	rec = func(i int, acc *joinedRow) bool {
		if i == len(motifs) {
			// Each motif was searched against its own slice of every hint
			// map; the joined row must satisfy one whole map.
			if len(hints) > 0 {
				satisfied := false
				for _, h := range hints {
					all := true
					for k, v := range h {
						if acc.Nodes[k] != v {
							all = false
							break
						}
					}
					if all {
						satisfied = true
						break
					}
				}
				if !satisfied {
					return true
				}
			}
			return want(acc)
		}
		cont := true
		match.Search(host, motifs[i], clauseHints(hints, motifs[i]))(func(e *match.Embedding) bool {
			if !acc.consistent(e) {
				return true
			}
			cont = rec(i+1, acc.merge(e))
			return cont
		})
		return cont
	}
	rec(0, &joinedRow{Nodes: map[string]graph.NodeID{}, Edges: map[string][]graph.Edge{}})
}

// Options carries the compiled query shape the pipeline executes over.
type Options struct {
	Motifs   []*motif.Motif
	Where    ast.Expr
	Return   *ast.ReturnClause
	OrderBy  []ast.OrderKey
	Skip     int64
	HasSkip  bool
	Limit    int64
	HasLimit bool
}

// OrderByNotReturned reports an ORDER BY key that names neither a RETURN
// item nor (for a non-aggregate query) a resolvable row expression —
// spec.md leaves this as an implementation detail; original_source's
// ORDER BY tests show aggregate queries and DISTINCT queries rejecting an
// order key absent from RETURN, so this repo surfaces that as a semantic
// error rather than silently accepting ambiguous output.
type OrderByNotReturned struct {
	Reason string
}

func (e *OrderByNotReturned) Error() string {
	return "grandcypher: ORDER BY expression must appear in RETURN: " + e.Reason
}

func hasAggregate(items []ast.ReturnItem) bool {
	found := false
	var walk func(ast.Expr)
	walk = func(e ast.Expr) {
		if e == nil {
			return
		}
		switch n := e.(type) {
		case *ast.AggregateCall:
			found = true
		case *ast.UnaryOp:
			walk(n.Expr)
		case *ast.BinaryOp:
			walk(n.Left)
			walk(n.Right)
		}
	}
	for _, it := range items {
		walk(it.Expr)
	}
	return found
}

// returnIndexOf returns the index of the RETURN item that key names, and
// whether one was found: a bare variable matching an item's alias, or an
// expression structurally equal to an item's expression.
func returnIndexOf(items []ast.ReturnItem, key ast.Expr) (int, bool) {
	if v, ok := key.(*ast.VarRef); ok {
		for i, it := range items {
			if it.Alias != "" && it.Alias == v.Name {
				return i, true
			}
		}
	}
	for i, it := range items {
		if ast.ExprEqual(it.Expr, key) {
			return i, true
		}
	}
	return -1, false
}

// Run executes the full spec §4.5 pipeline and returns the shaped result
// table.
func Run(host graph.Host, opts Options, hints []match.Hint) (*table.Table, error) {
	columns := make([]string, len(opts.Return.Items))
	for i, it := range opts.Return.Items {
		columns[i] = it.Label()
	}
	tab, err := table.New(columns)
	if err != nil {
		return nil, err
	}

	if hasAggregate(opts.Return.Items) {
		if err := runAggregated(host, opts, hints, tab, columns); err != nil {
			return nil, err
		}
		return finish(tab, opts)
	}
	if err := runSimple(host, opts, hints, tab, columns); err != nil {
		return nil, err
	}
	return finish(tab, opts)
}

// runSimple handles the non-aggregate path: stream joined rows, apply
// WHERE, project RETURN, and stash ORDER BY key values alongside each row
// so finish can sort without re-joining. When no ORDER BY/DISTINCT/
// aggregate is present and a LIMIT is set, stop pulling from the join as
// soon as SKIP+LIMIT rows have been produced (spec §4.5 step 7, §4.3.8,
// §5). DISTINCT must see every joined row before LIMIT applies, or a
// duplicate-laden prefix of the join would be truncated before dedup.
func runSimple(host graph.Host, opts Options, hints []match.Hint, tab *table.Table, columns []string) error {
	mustMaterialize := len(opts.OrderBy) > 0 || opts.Return.Distinct
	var stopAfter int64 = -1
	if !mustMaterialize && opts.HasLimit {
		stopAfter = opts.Limit
		if opts.HasSkip {
			stopAfter += opts.Skip
		}
	}

	produced := int64(0)
	var rowErr error
	joinMotifs(host, opts.Motifs, hints, func(jr *joinedRow) bool {
		row := &eval.Row{Nodes: jr.Nodes, Edges: jr.Edges}
		ctx := &eval.Context{Host: host, Row: row}
		if opts.Where != nil {
			ok, err := eval.EvalWhere(ctx, opts.Where)
			if err != nil {
				rowErr = err
				return false
			}
			if !ok {
				return true
			}
		}
		out := table.Row{}
		for i, it := range opts.Return.Items {
			v, err := eval.Eval(ctx, it.Expr)
			if err != nil {
				rowErr = err
				return false
			}
			out[columns[i]] = v
		}
		for i, k := range opts.OrderBy {
			if idx, ok := returnIndexOf(opts.Return.Items, k.Expr); ok {
				out[orderCol(i)] = out[columns[idx]]
				continue
			}
			v, err := eval.Eval(ctx, k.Expr)
			if err != nil {
				rowErr = err
				return false
			}
			out[orderCol(i)] = v
		}
		tab.AddRow(out)
		produced++
		if stopAfter >= 0 && produced >= stopAfter {
			return false
		}
		return true
	})
	return rowErr
}

// aggGroup accumulates one grouping-set bucket: the non-aggregate RETURN
// values that define the group, plus one accumulator per aggregate
// RETURN item (spec §4.4, §4.5 step 3).
type aggGroup struct {
	values []value.Value // one per RETURN item; non-aggregate slots are final, aggregate slots fill in at Result() time
	accs   []aggAcc
}

// runAggregated implements spec §4.5 step 3 when any RETURN item is an
// aggregate: group by the distinct tuple of non-aggregate return values,
// accumulate each aggregate incrementally per group, then emit one row
// per group in first-seen order.
func runAggregated(host graph.Host, opts Options, hints []match.Hint, tab *table.Table, columns []string) error {
	groups := map[string]*aggGroup{}
	var order []string

	var rowErr error
	joinMotifs(host, opts.Motifs, hints, func(jr *joinedRow) bool {
		row := &eval.Row{Nodes: jr.Nodes, Edges: jr.Edges}
		ctx := &eval.Context{Host: host, Row: row}
		if opts.Where != nil {
			ok, err := eval.EvalWhere(ctx, opts.Where)
			if err != nil {
				rowErr = err
				return false
			}
			if !ok {
				return true
			}
		}

		nonAgg := make([]value.Value, 0, len(opts.Return.Items))
		for _, it := range opts.Return.Items {
			if _, ok := it.Expr.(*ast.AggregateCall); ok {
				continue
			}
			v, err := eval.Eval(ctx, it.Expr)
			if err != nil {
				rowErr = err
				return false
			}
			nonAgg = append(nonAgg, v)
		}
		key := value.GroupKey(nonAgg)
		g, ok := groups[key]
		if !ok {
			g = &aggGroup{values: make([]value.Value, len(opts.Return.Items)), accs: newAggAccs(opts.Return.Items)}
			ni := 0
			for i, it := range opts.Return.Items {
				if _, ok := it.Expr.(*ast.AggregateCall); ok {
					continue
				}
				g.values[i] = nonAgg[ni]
				ni++
			}
			groups[key] = g
			order = append(order, key)
		}
		for i, it := range opts.Return.Items {
			if call, ok := it.Expr.(*ast.AggregateCall); ok {
				if err := g.accs[i].Add(ctx, call); err != nil {
					rowErr = err
					return false
				}
			}
		}
		return true
	})
	if rowErr != nil {
		return rowErr
	}

	// Resolve ORDER BY keys against RETURN items up front: grouped rows no
	// longer carry a joinedRow to evaluate an arbitrary expression against.
	orderIdx := make([]int, len(opts.OrderBy))
	for i, k := range opts.OrderBy {
		idx, ok := returnIndexOf(opts.Return.Items, k.Expr)
		if !ok {
			return &OrderByNotReturned{Reason: "aggregate queries can only order by a RETURN item"}
		}
		orderIdx[i] = idx
	}

	for _, key := range order {
		g := groups[key]
		out := table.Row{}
		for i, it := range opts.Return.Items {
			if call, ok := it.Expr.(*ast.AggregateCall); ok {
				out[columns[i]] = g.accs[i].Result(call)
				continue
			}
			out[columns[i]] = g.values[i]
		}
		for i, idx := range orderIdx {
			out[orderCol(i)] = out[columns[idx]]
		}
		tab.AddRow(out)
	}
	return nil
}

// finish applies DISTINCT, ORDER BY, SKIP, and LIMIT, in that order
// (spec §4.5 steps 4-6), then strips the synthetic ORDER BY columns
// before returning.
func finish(tab *table.Table, opts Options) (*table.Table, error) {
	if opts.Return.Distinct && len(opts.OrderBy) > 0 {
		for _, k := range opts.OrderBy {
			if _, ok := returnIndexOf(opts.Return.Items, k.Expr); !ok {
				return nil, &OrderByNotReturned{Reason: "DISTINCT queries can only order by a RETURN item"}
			}
		}
	}
	if opts.Return.Distinct {
		applyDistinct(tab)
	}
	if len(opts.OrderBy) > 0 {
		applyOrderBy(tab, opts.OrderBy)
	}
	if opts.HasSkip {
		tab.DropFirst(int(opts.Skip))
	}
	if opts.HasLimit {
		tab.Truncate(int(opts.Limit))
	}
	stripOrderColumns(tab, len(opts.OrderBy))
	return tab, nil
}

// applyDistinct deduplicates by the tuple of all return values, preserving
// first-seen order (spec §4.5 step 4). A combination with ORDER BY over a
// key absent from RETURN is rejected by finish before this runs: the
// surviving row's stashed order value would otherwise be an arbitrary
// pick among the collapsed duplicates' order values (supplemented from
// original_source's DISTINCT+ORDER BY tests).
func applyDistinct(tab *table.Table) {
	cols := tab.Columns()
	seen := map[string]bool{}
	var kept []table.Row
	for _, r := range tab.Rows() {
		vs := make([]value.Value, len(cols))
		for i, c := range cols {
			vs[i] = r[c]
		}
		key := value.GroupKey(vs)
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, r)
	}
	tab.Replace(kept)
}

// applyOrderBy stable-sorts by each key in turn, from last to first (so
// the first key is the primary sort), ASC/DESC, nulls last regardless of
// direction (spec §4.5 step 5, §3), using the synthetic order columns
// runSimple/runAggregated already populated.
func applyOrderBy(tab *table.Table, keys []ast.OrderKey) {
	rows := tab.Rows()
	for i := len(keys) - 1; i >= 0; i-- {
		col := orderCol(i)
		desc := keys[i].Desc
		sort.SliceStable(rows, func(a, b int) bool {
			va, vb := rows[a][col], rows[b][col]
			if va.IsNull() || vb.IsNull() {
				// Nulls sort last regardless of direction (spec §3): the
				// ascending order already does this, so DESC must not
				// invert a comparison involving a null.
				return value.OrderLess(va, vb)
			}
			if desc {
				return value.OrderLess(vb, va)
			}
			return value.OrderLess(va, vb)
		})
	}
	tab.Replace(rows)
}

func stripOrderColumns(tab *table.Table, n int) {
	if n == 0 {
		return
	}
	rows := tab.Rows()
	for _, r := range rows {
		for i := 0; i < n; i++ {
			delete(r, orderCol(i))
		}
	}
}

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
	"sort"

	"github.com/aplbrain/grand-cypher/internal/ast"
	"github.com/aplbrain/grand-cypher/internal/eval"
	"github.com/aplbrain/grand-cypher/value"
)

// aggAcc accumulates one aggregate RETURN item's value across every row of
// a group (spec §4.4). Aggregates over a plain scalar expression reduce to
// a single bucket; aggregates over an edge-variable attribute decompose
// into one bucket per contributing primary label, since the bound edge
// variable itself carries a whole multi-edge bundle per row (spec §4.4,
// §9 "Multi-edge aggregate semantics") rather than one scalar.
type aggAcc struct {
	isEdge     bool
	scalar     *bucket
	perLabel   map[string]*bucket
	labelOrder []string
}

// bucket tracks the running SUM/COUNT/MIN/MAX/AVG state for one scalar
// series of contributing values.
type bucket struct {
	rows        int64 // every contributing row/entry, including null ones (for COUNT(*))
	nonNull     int64
	sumInt      int64
	sumFloat    float64
	sawFloat    bool
	min, max    value.Value
	haveMinMax  bool
}

func newAggAccs(items []ast.ReturnItem) []aggAcc {
	accs := make([]aggAcc, len(items))
	for i, it := range items {
		if _, ok := it.Expr.(*ast.AggregateCall); ok {
			accs[i] = aggAcc{scalar: &bucket{}}
		}
	}
	return accs
}

func (a *aggAcc) bucketFor(label string) *bucket {
	if a.perLabel == nil {
		a.perLabel = map[string]*bucket{}
	}
	b, ok := a.perLabel[label]
	if !ok {
		b = &bucket{}
		a.perLabel[label] = b
		a.labelOrder = append(a.labelOrder, label)
	}
	return b
}

// Add folds one row's contribution to call into the accumulator.
func (a *aggAcc) Add(ctx *eval.Context, call *ast.AggregateCall) error {
	if call.Fn == "COUNT" && call.Star {
		a.scalar.rows++
		return nil
	}

	if pa, ok := call.Arg.(*ast.PropAccess); ok {
		if edges, ok := ctx.Row.Edges[pa.Var]; ok {
			a.isEdge = true
			for _, en := range eval.EdgeAttrEntries(edges, pa.Attr) {
				b := a.bucketFor(en.Label)
				b.rows++
				if !en.Val.IsNull() {
					b.add(call.Fn, en.Val)
				}
			}
			return nil
		}
	}

	v, err := eval.Eval(ctx, call.Arg)
	if err != nil {
		return err
	}
	a.scalar.rows++
	if !v.IsNull() {
		a.scalar.add(call.Fn, v)
	}
	return nil
}

// Result finalizes the accumulated value for call (spec §4.4: AVG over no
// values is null, SUM over no values is 0, MIN/MAX over no values is
// null).
func (a *aggAcc) Result(call *ast.AggregateCall) value.Value {
	if call.Fn == "COUNT" && call.Star {
		return value.Int(a.scalar.rows)
	}
	if a.isEdge {
		sort.Strings(a.labelOrder)
		b := value.NewMapBuilder()
		for _, label := range a.labelOrder {
			b.Set(label, a.perLabel[label].result(call.Fn))
		}
		return b.Build()
	}
	return a.scalar.result(call.Fn)
}

func (b *bucket) add(fn string, v value.Value) {
	switch fn {
	case "SUM", "AVG":
		f, _ := v.AsFloat()
		b.sumFloat += f
		if i, ok := v.AsInt(); ok {
			b.sumInt += i
		} else {
			b.sawFloat = true
		}
		b.nonNull++
	case "MIN":
		if !b.haveMinMax || value.OrderLess(v, b.min) {
			b.min = v
		}
		b.haveMinMax = true
		b.nonNull++
	case "MAX":
		if !b.haveMinMax || value.OrderLess(b.max, v) {
			b.max = v
		}
		b.haveMinMax = true
		b.nonNull++
	case "COUNT":
		b.nonNull++
	}
}

func (b *bucket) result(fn string) value.Value {
	switch fn {
	case "SUM":
		if b.nonNull == 0 {
			return value.Int(0)
		}
		if b.sawFloat {
			return value.Float(b.sumFloat)
		}
		return value.Int(b.sumInt)
	case "AVG":
		if b.nonNull == 0 {
			return value.Null
		}
		return value.Float(b.sumFloat / float64(b.nonNull))
	case "MIN":
		if !b.haveMinMax {
			return value.Null
		}
		return b.min
	case "MAX":
		if !b.haveMinMax {
			return value.Null
		}
		return b.max
	case "COUNT":
		return value.Int(b.nonNull)
	}
	return value.Null
}

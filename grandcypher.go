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

// Package grandcypher is the query façade described in spec §2 item 7: a
// single entrypoint that parses Cypher text, compiles it against a host
// graph, and runs the matcher/evaluator/pipeline chain to a columnar
// result. It plays the role tools/vcli/bw/command.go plays wiring
// storage.Store and bql together for BadWolf, minus the REPL: here the
// wiring is a tiny library type instead of a CLI command tree, since the
// CLI itself (cmd/grandcypher) is a separate consumer of this package.
package grandcypher

import (
	"fmt"

	"github.com/aplbrain/grand-cypher/graph"
	"github.com/aplbrain/grand-cypher/internal/ast"
	"github.com/aplbrain/grand-cypher/internal/eval"
	"github.com/aplbrain/grand-cypher/internal/match"
	"github.com/aplbrain/grand-cypher/internal/motif"
	"github.com/aplbrain/grand-cypher/internal/parser"
	"github.com/aplbrain/grand-cypher/internal/pipeline"
	"github.com/aplbrain/grand-cypher/table"
)

// Hint is a caller-supplied partial binding of pattern-node variables to
// host-node ids (spec §6.1). A query may pass several; a row must satisfy
// at least one hint map outright (OR across the list, AND across keys
// within one map).
type Hint map[string]graph.NodeID

// InvalidHint reports a hint whose variable name is not declared by any
// MATCH clause (spec §7).
type InvalidHint struct {
	Name string
}

func (e *InvalidHint) Error() string {
	return fmt.Sprintf("grandcypher: hint references unknown variable %q", e.Name)
}

// ParseError re-exports internal/parser's error type so callers can
// type-switch on it without importing an internal package (spec §4.1,
// §7).
type ParseError = parser.ParseError

// UnknownVariable re-exports internal/eval's error type (spec §7).
type UnknownVariable = eval.UnknownVariable

// Engine evaluates GrandCypher queries against one host graph (spec §6.1
// "engine(host_graph)").
type Engine struct {
	host graph.Host
}

// New constructs an Engine bound to host. The engine never mutates host
// and assumes it is stable for the duration of every query it runs
// (spec §5).
func New(host graph.Host) *Engine {
	return &Engine{host: host}
}

// Run parses and executes query against the engine's host graph,
// returning the result shaped into a columnar table (spec §6.1
// "engine.run(query_text, hints?)", §6.3). A missing or unbindable hint
// yields an empty result, not an error; a malformed query or an
// out-of-scope variable reference is an error, raised before any
// matching work begins (spec §7).
func (e *Engine) Run(query string, hints ...Hint) (*table.Columnar, error) {
	q, err := parser.Parse(query)
	if err != nil {
		return nil, err
	}

	motifs := make([]*motif.Motif, len(q.Matches))
	declared := map[string]bool{}
	for i, mc := range q.Matches {
		mo, err := motif.Compile(mc)
		if err != nil {
			return nil, err
		}
		motifs[i] = mo
		for _, v := range mo.NodeVars {
			declared[v] = true
		}
		for _, v := range mo.EdgeVars {
			declared[v] = true
		}
	}

	if err := validateRefs(q, declared); err != nil {
		return nil, err
	}
	matchHints, err := compileHints(hints, declared)
	if err != nil {
		return nil, err
	}

	opts := pipeline.Options{
		Motifs:   motifs,
		Where:    q.Where,
		Return:   q.Return,
		OrderBy:  q.OrderBy,
		Skip:     q.Skip,
		HasSkip:  q.HasSkip,
		Limit:    q.Limit,
		HasLimit: q.HasLimit,
	}
	tab, err := pipeline.Run(e.host, opts, matchHints)
	if err != nil {
		return nil, err
	}
	return tab.ToColumnar(), nil
}

// validateRefs checks every variable named in WHERE, RETURN, and ORDER BY
// against the variables declared across all MATCH clauses (spec §7
// "UnknownVariable", "Parse and semantic errors abort the query before
// any matching work"). A bare ORDER BY name that is a RETURN alias is
// accepted.
func validateRefs(q *ast.Query, declared map[string]bool) error {
	refs := map[string]bool{}
	eval.VarRefs(q.Where, refs)
	aliases := map[string]bool{}
	for _, it := range q.Return.Items {
		eval.VarRefs(it.Expr, refs)
		if it.Alias != "" {
			aliases[it.Alias] = true
		}
	}
	for _, k := range q.OrderBy {
		if v, ok := k.Expr.(*ast.VarRef); ok && aliases[v.Name] {
			continue
		}
		eval.VarRefs(k.Expr, refs)
	}
	for name := range refs {
		if !declared[name] {
			return &eval.UnknownVariable{Name: name}
		}
	}
	return nil
}

// compileHints validates each hint's variable names against declared and
// converts the caller-facing Hint type to the internal match.Hint type
// (spec §6.1, §7 "InvalidHint").
func compileHints(hints []Hint, declared map[string]bool) ([]match.Hint, error) {
	if len(hints) == 0 {
		return nil, nil
	}
	out := make([]match.Hint, len(hints))
	for i, h := range hints {
		mh := match.Hint{}
		for name, id := range h {
			if !declared[name] {
				return nil, &InvalidHint{Name: name}
			}
			mh[name] = id
		}
		out[i] = mh
	}
	return out, nil
}

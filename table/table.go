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

// Package table holds the result of a GrandCypher query: an ordered list
// of rows keyed by RETURN column label, shaped into the columnar form
// spec §6.3 describes. It plays the role BadWolf's bql/table.Table plays
// for BQL, recast around value.Value cells instead of triple/literal.
package table

import (
	"fmt"

	"github.com/aplbrain/grand-cypher/value"
)

// Row is one result row: a mapping from RETURN column label to value
// (spec §3 "Row").
type Row map[string]value.Value

// Table holds query results in row-major form, with Columns() fixing the
// declared RETURN order used when shaping to columnar output. Table is
// not safe for concurrent use, matching the single-threaded engine model
// (spec §5).
type Table struct {
	columns []string
	seen    map[string]bool
	rows    []Row
}

// New returns an empty Table with the given column labels, in RETURN
// declaration order. Duplicate labels are rejected, mirroring
// bql/table.New's duplicate-binding check.
func New(columns []string) (*Table, error) {
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if seen[c] {
			return nil, fmt.Errorf("table.New: duplicate column %q", c)
		}
		seen[c] = true
	}
	return &Table{columns: columns, seen: seen}, nil
}

// Columns returns the declared RETURN column order.
func (t *Table) Columns() []string { return t.columns }

// AddRow appends r, which must carry a value for every declared column.
func (t *Table) AddRow(r Row) {
	t.rows = append(t.rows, r)
}

// NumRows reports how many rows the table holds.
func (t *Table) NumRows() int { return len(t.rows) }

// Row returns the i-th row.
func (t *Table) Row(i int) Row { return t.rows[i] }

// Rows returns the table's rows in current order.
func (t *Table) Rows() []Row { return t.rows }

// Replace swaps the table's row set, used by DISTINCT/ORDER BY to install
// a deduplicated or resorted slice built from Rows() (spec §4.5 steps 4-5).
func (t *Table) Replace(rows []Row) { t.rows = rows }

// Truncate drops every row beyond the first n (used to apply LIMIT after
// sorting, spec §4.5 step 6).
func (t *Table) Truncate(n int) {
	if n < len(t.rows) {
		t.rows = t.rows[:n]
	}
}

// DropFirst removes the first n rows (used to apply SKIP, spec §4.5 step 6).
func (t *Table) DropFirst(n int) {
	if n >= len(t.rows) {
		t.rows = nil
		return
	}
	t.rows = t.rows[n:]
}

// Columnar is the caller-facing result shape (spec §6.3): one list per
// RETURN item, in declared order, all lists the same length.
type Columnar struct {
	Columns []string
	Values  map[string][]value.Value
}

// ToColumnar shapes the table's rows into the columnar form §6.3
// specifies. An empty table still reports every declared column with an
// empty list (spec §7 "No match failures are errors; they yield empty
// columnar tables").
func (t *Table) ToColumnar() *Columnar {
	out := &Columnar{Columns: t.columns, Values: make(map[string][]value.Value, len(t.columns))}
	for _, c := range t.columns {
		out.Values[c] = make([]value.Value, 0, len(t.rows))
	}
	for _, r := range t.rows {
		for _, c := range t.columns {
			out.Values[c] = append(out.Values[c], r[c])
		}
	}
	return out
}

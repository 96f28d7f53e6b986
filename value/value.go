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

// Package value implements the GrandCypher scalar value model and its
// three-valued (true/false/null) logic, as consumed by the expression
// evaluator and the result table.
package value

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the boxed type held by a Value.
type Kind int8

// The kinds of value a Cypher expression can evaluate to.
const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
	KindList
	// KindMap boxes an entity attribute dictionary (for a bare node/edge
	// variable) or a per-label aggregate map (spec §4.4, §9).
	KindMap
)

// Value is a tagged union over the scalar types GrandCypher operates on,
// plus list and map compounds used to shape RETURN output.
type Value struct {
	kind Kind
	i    int64
	f    float64
	b    bool
	s    string
	list []Value
	m    map[string]Value
	// keys preserves map insertion order for deterministic output; m alone
	// (a Go map) does not.
	keys []string
}

// Null is the singular null value.
var Null = Value{kind: KindNull}

// Int boxes an integer.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float boxes a floating point number.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Bool boxes a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Str boxes a string.
func Str(s string) Value { return Value{kind: KindString, s: s} }

// List boxes a list of values.
func List(vs []Value) Value { return Value{kind: KindList, list: vs} }

// NewMap boxes an ordered string-keyed map of values.
func NewMap(keys []string, m map[string]Value) Value {
	return Value{kind: KindMap, keys: append([]string{}, keys...), m: m}
}

// MapBuilder assembles an ordered map.Value incrementally.
type MapBuilder struct {
	keys []string
	m    map[string]Value
}

// NewMapBuilder returns an empty MapBuilder.
func NewMapBuilder() *MapBuilder {
	return &MapBuilder{m: make(map[string]Value)}
}

// Set assigns key to v, recording first-seen key order.
func (b *MapBuilder) Set(key string, v Value) *MapBuilder {
	if _, ok := b.m[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.m[key] = v
	return b
}

// Build finalizes the map value.
func (b *MapBuilder) Build() Value {
	return NewMap(b.keys, b.m)
}

// Kind reports the value's kind.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsInt returns the boxed integer and whether v held one.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat returns v as a float64, coercing an integer if needed.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	default:
		return 0, false
	}
}

// AsBool returns the boxed boolean and whether v held one.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsString returns the boxed string and whether v held one.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsList returns the boxed list and whether v held one.
func (v Value) AsList() ([]Value, bool) { return v.list, v.kind == KindList }

// AsMap returns the boxed map, its key order, and whether v held one.
func (v Value) AsMap() (map[string]Value, []string, bool) { return v.m, v.keys, v.kind == KindMap }

// isNumeric reports whether v is an int or a float.
func (v Value) isNumeric() bool { return v.kind == KindInt || v.kind == KindFloat }

// Native unboxes v into the plain Go value (nil/int64/float64/bool/string/
// []interface{}/map[string]interface{}) that encoding/json renders the way
// callers of the MCP surface expect (internal/mcpserver).
func (v Value) Native() interface{} {
	switch v.kind {
	case KindNull:
		return nil
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindString:
		return v.s
	case KindList:
		out := make([]interface{}, len(v.list))
		for i, e := range v.list {
			out[i] = e.Native()
		}
		return out
	case KindMap:
		out := make(map[string]interface{}, len(v.keys))
		for _, k := range v.keys {
			out[k] = v.m[k].Native()
		}
		return out
	}
	return nil
}

// String renders v for diagnostics and text output.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindString:
		return v.s
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		parts := make([]string, 0, len(v.keys))
		for _, k := range v.keys {
			parts = append(parts, fmt.Sprintf("%s: %s", k, v.m[k].String()))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return "<unknown>"
	}
}

// comparableKey renders a stable textual key for a value, used for DISTINCT
// dedup and GROUP BY keys where structural equality (not display text)
// must decide membership.
func (v Value) comparableKey() string {
	switch v.kind {
	case KindNull:
		return "\x00null"
	case KindInt:
		return "\x00i" + strconv.FormatFloat(float64(v.i), 'g', -1, 64)
	case KindFloat:
		return "\x00i" + strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		return "\x00b" + strconv.FormatBool(v.b)
	case KindString:
		return "\x00s" + v.s
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.comparableKey()
		}
		return "\x00l[" + strings.Join(parts, "\x01") + "]"
	case KindMap:
		sorted := append([]string{}, v.keys...)
		sort.Strings(sorted)
		parts := make([]string, len(sorted))
		for i, k := range sorted {
			parts[i] = k + "\x02" + v.m[k].comparableKey()
		}
		return "\x00m{" + strings.Join(parts, "\x01") + "}"
	default:
		return "\x00?"
	}
}

// GroupKey returns a stable string key for a tuple of values, suitable for
// DISTINCT and GROUP BY bucketing (spec §4.5 steps 3-4).
func GroupKey(vs []Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.comparableKey()
	}
	return strings.Join(parts, "\x03")
}

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

package value

import "strings"

// Tri is a three-valued logic result: true, false, or null/unknown.
type Tri int8

// The three truth values of Kleene logic.
const (
	False Tri = iota
	True
	Unknown
)

// ToTri converts a two-valued bool into Tri.
func ToTri(b bool) Tri {
	if b {
		return True
	}
	return False
}

// AsBool collapses Tri to a plain bool, treating Unknown (null) as false —
// the one place spec §9 allows null to be coerced: the final WHERE gate.
func (t Tri) AsBool() bool { return t == True }

// And implements Kleene AND.
func And(a, b Tri) Tri {
	if a == False || b == False {
		return False
	}
	if a == Unknown || b == Unknown {
		return Unknown
	}
	return True
}

// Or implements Kleene OR.
func Or(a, b Tri) Tri {
	if a == True || b == True {
		return True
	}
	if a == Unknown || b == Unknown {
		return Unknown
	}
	return False
}

// Not implements Kleene NOT.
func Not(a Tri) Tri {
	switch a {
	case True:
		return False
	case False:
		return True
	default:
		return Unknown
	}
}

// Equals implements Cypher equality: null compared to anything, including
// null, yields Unknown; otherwise strict value equality with numeric
// coercion between integer and float (spec §3).
func Equals(a, b Value) Tri {
	if a.kind == KindNull || b.kind == KindNull {
		return Unknown
	}
	if a.isNumeric() && b.isNumeric() {
		af, _ := a.AsFloat()
		bf, _ := b.AsFloat()
		return ToTri(af == bf)
	}
	if a.kind != b.kind {
		return False
	}
	switch a.kind {
	case KindBool:
		return ToTri(a.b == b.b)
	case KindString:
		return ToTri(a.s == b.s)
	case KindList:
		if len(a.list) != len(b.list) {
			return False
		}
		for i := range a.list {
			if Equals(a.list[i], b.list[i]) != True {
				return False
			}
		}
		return True
	case KindMap:
		return ToTri(a.comparableKey() == b.comparableKey())
	default:
		return False
	}
}

// NotEquals is the logical negation of Equals, preserving Unknown.
func NotEquals(a, b Value) Tri { return Not(Equals(a, b)) }

// Less implements Cypher ordering comparison (<, <=, >, >=): null on either
// side yields Unknown; numerics compare naturally; strings compare
// lexicographically; mixed non-numeric types are Unknown (spec §3).
func Less(a, b Value) Tri {
	if a.kind == KindNull || b.kind == KindNull {
		return Unknown
	}
	if a.isNumeric() && b.isNumeric() {
		af, _ := a.AsFloat()
		bf, _ := b.AsFloat()
		return ToTri(af < bf)
	}
	if a.kind == KindString && b.kind == KindString {
		return ToTri(a.s < b.s)
	}
	return Unknown
}

// LessEqual is `a <= b`.
func LessEqual(a, b Value) Tri { return Or(Less(a, b), Equals(a, b)) }

// Greater is `a > b`.
func Greater(a, b Value) Tri { return Less(b, a) }

// GreaterEqual is `a >= b`.
func GreaterEqual(a, b Value) Tri { return Or(Greater(a, b), Equals(a, b)) }

// orderRank buckets kinds for the ORDER BY total order: numerics (natural
// order), then strings (lexicographic), then booleans, then lists and maps
// (which tie with each other), then null last (spec §3). Values of
// different kinds are ordered by this rank rather than tied.
func orderRank(v Value) int {
	switch v.kind {
	case KindNull:
		return 4
	case KindInt, KindFloat:
		return 0
	case KindString:
		return 1
	case KindBool:
		return 2
	default:
		return 3
	}
}

// OrderLess provides the total order used by ORDER BY: nulls sort last
// regardless of ASC/DESC (the caller negates non-null comparisons only).
func OrderLess(a, b Value) bool {
	ra, rb := orderRank(a), orderRank(b)
	if ra != rb {
		return ra < rb
	}
	switch a.kind {
	case KindNull:
		return false
	case KindInt, KindFloat:
		af, _ := a.AsFloat()
		bf, _ := b.AsFloat()
		return af < bf
	case KindString:
		return a.s < b.s
	case KindBool:
		return !a.b && b.b
	default:
		return false // lists and maps: tie.
	}
}

// Add implements Cypher `+`: numeric addition promoting mixed int/float to
// float, string concatenation, or null propagation.
func Add(a, b Value) (Value, error) {
	if a.kind == KindNull || b.kind == KindNull {
		return Null, nil
	}
	if a.kind == KindString && b.kind == KindString {
		return Str(a.s + b.s), nil
	}
	return arith(a, b, func(x, y float64) float64 { return x + y }, func(x, y int64) int64 { return x + y })
}

// Sub implements Cypher `-`.
func Sub(a, b Value) (Value, error) {
	if a.kind == KindNull || b.kind == KindNull {
		return Null, nil
	}
	return arith(a, b, func(x, y float64) float64 { return x - y }, func(x, y int64) int64 { return x - y })
}

// Mul implements Cypher `*`.
func Mul(a, b Value) (Value, error) {
	if a.kind == KindNull || b.kind == KindNull {
		return Null, nil
	}
	return arith(a, b, func(x, y float64) float64 { return x * y }, func(x, y int64) int64 { return x * y })
}

// Div implements Cypher `/`: division by zero yields null rather than an
// error (spec §4.4).
func Div(a, b Value) (Value, error) {
	if a.kind == KindNull || b.kind == KindNull {
		return Null, nil
	}
	if !a.isNumeric() || !b.isNumeric() {
		return Null, &TypeError{Op: "/", Detail: "arithmetic requires numeric operands"}
	}
	if a.kind == KindInt && b.kind == KindInt {
		if b.i == 0 {
			return Null, nil
		}
		return Int(a.i / b.i), nil
	}
	bf, _ := b.AsFloat()
	if bf == 0 {
		return Null, nil
	}
	af, _ := a.AsFloat()
	return Float(af / bf), nil
}

// TypeError reports a non-numeric/non-string operand to an operator that
// requires one (spec §7).
type TypeError struct {
	Op     string
	Detail string
}

func (e *TypeError) Error() string { return "grandcypher: type error in " + e.Op + ": " + e.Detail }

func arith(a, b Value, ff func(float64, float64) float64, fi func(int64, int64) int64) (Value, error) {
	if !a.isNumeric() || !b.isNumeric() {
		return Null, &TypeError{Op: "arithmetic", Detail: "operands must be numeric"}
	}
	if a.kind == KindInt && b.kind == KindInt {
		return Int(fi(a.i, b.i)), nil
	}
	af, _ := a.AsFloat()
	bf, _ := b.AsFloat()
	return Float(ff(af, bf)), nil
}

// In implements the `IN` operator: membership in a list literal. Strings
// match by equality; mixed-type lists are allowed (spec §4.4).
func In(needle Value, haystack []Value) Tri {
	if needle.kind == KindNull {
		return Unknown
	}
	sawUnknown := false
	for _, h := range haystack {
		switch Equals(needle, h) {
		case True:
			return True
		case Unknown:
			sawUnknown = true
		}
	}
	if sawUnknown {
		return Unknown
	}
	return False
}

// Contains implements the string-only CONTAINS operator.
func Contains(a, b Value) (Tri, error) {
	return stringOp(a, b, "CONTAINS", strings.Contains)
}

// StartsWith implements the string-only STARTS WITH operator.
func StartsWith(a, b Value) (Tri, error) {
	return stringOp(a, b, "STARTS WITH", strings.HasPrefix)
}

// EndsWith implements the string-only ENDS WITH operator.
func EndsWith(a, b Value) (Tri, error) {
	return stringOp(a, b, "ENDS WITH", strings.HasSuffix)
}

func stringOp(a, b Value, op string, f func(string, string) bool) (Tri, error) {
	if a.kind == KindNull || b.kind == KindNull {
		return Unknown, nil
	}
	if a.kind != KindString || b.kind != KindString {
		return Unknown, &TypeError{Op: op, Detail: "operands must be strings"}
	}
	return ToTri(f(a.s, b.s)), nil
}

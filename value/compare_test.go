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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqualsNullPropagation(t *testing.T) {
	assert.Equal(t, Unknown, Equals(Null, Null))
	assert.Equal(t, Unknown, Equals(Int(1), Null))
	assert.Equal(t, Unknown, Equals(Null, Str("x")))
}

func TestEqualsNumericCoercion(t *testing.T) {
	assert.Equal(t, True, Equals(Int(2), Float(2.0)))
	assert.Equal(t, False, Equals(Int(2), Float(2.5)))
}

func TestEqualsTypeMismatch(t *testing.T) {
	assert.Equal(t, False, Equals(Str("1"), Int(1)))
	assert.Equal(t, False, Equals(Bool(true), Int(1)))
}

func TestThreeValuedLogic(t *testing.T) {
	assert.Equal(t, False, And(True, False))
	assert.Equal(t, Unknown, And(True, Unknown))
	assert.Equal(t, False, And(False, Unknown))
	assert.Equal(t, True, Or(False, True))
	assert.Equal(t, Unknown, Or(False, Unknown))
	assert.Equal(t, True, Or(True, Unknown))
	assert.Equal(t, Unknown, Not(Unknown))
	assert.Equal(t, False, Not(True))
}

func TestWhereCoercesNullToFalse(t *testing.T) {
	assert.False(t, Unknown.AsBool())
	assert.False(t, False.AsBool())
	assert.True(t, True.AsBool())
}

func TestOrderLessNullsLast(t *testing.T) {
	assert.True(t, OrderLess(Int(1), Null))
	assert.False(t, OrderLess(Null, Int(1)))
	assert.False(t, OrderLess(Null, Null))
}

func TestOrderLessNumericAndString(t *testing.T) {
	assert.True(t, OrderLess(Int(1), Int(2)))
	assert.True(t, OrderLess(Float(1.5), Int(2)))
	assert.True(t, OrderLess(Str("a"), Str("b")))
}

func TestArithmeticPromotion(t *testing.T) {
	v, err := Add(Int(1), Float(2.5))
	require.NoError(t, err)
	f, ok := v.AsFloat()
	require.True(t, ok)
	assert.Equal(t, 3.5, f)

	v, err = Add(Int(1), Int(2))
	require.NoError(t, err)
	i, ok := v.AsInt()
	require.True(t, ok)
	assert.Equal(t, int64(3), i)
}

func TestDivisionByZeroYieldsNull(t *testing.T) {
	v, err := Div(Int(1), Int(0))
	require.NoError(t, err)
	assert.True(t, v.IsNull())

	v, err = Div(Float(1), Float(0))
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}

func TestArithmeticTypeError(t *testing.T) {
	_, err := Add(Str("a"), Int(1))
	require.Error(t, err)
	var te *TypeError
	assert.ErrorAs(t, err, &te)
}

func TestStringConcatenation(t *testing.T) {
	v, err := Add(Str("foo"), Str("bar"))
	require.NoError(t, err)
	s, ok := v.AsString()
	require.True(t, ok)
	assert.Equal(t, "foobar", s)
}

func TestInMembership(t *testing.T) {
	list := []Value{Int(1), Str("x"), Null}
	assert.Equal(t, True, In(Int(1), list))
	assert.Equal(t, Unknown, In(Int(2), list)) // null present, no match found
	assert.Equal(t, Unknown, In(Null, list))
}

func TestStringOnlyOperators(t *testing.T) {
	r, err := Contains(Str("hello world"), Str("world"))
	require.NoError(t, err)
	assert.Equal(t, True, r)

	r, err = StartsWith(Str("hello"), Str("he"))
	require.NoError(t, err)
	assert.Equal(t, True, r)

	r, err = EndsWith(Str("hello"), Str("lo"))
	require.NoError(t, err)
	assert.Equal(t, True, r)

	r, err = Contains(Null, Str("x"))
	require.NoError(t, err)
	assert.Equal(t, Unknown, r)

	_, err = Contains(Int(1), Str("x"))
	require.Error(t, err)
}

func TestGroupKeyStability(t *testing.T) {
	a := GroupKey([]Value{Int(1), Str("x")})
	b := GroupKey([]Value{Int(1), Str("x")})
	c := GroupKey([]Value{Int(2), Str("x")})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

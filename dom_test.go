/*
 * jetjson, (C) 2024 The jetjson Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package jetjson

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBorrowedTree(t *testing.T) {
	input := []byte(`{"some":["key","value",2]}`)
	v, doc, err := ToBorrowedTree(input)
	require.NoError(t, err)
	require.Equal(t, KindObject, v.Kind())

	arr := v.Get("some")
	require.NotNil(t, arr)
	elems, err := arr.Array()
	require.NoError(t, err)
	require.Len(t, elems, 3)

	// The strings must alias the document's message buffer.
	sb, err := elems[0].StringBytes()
	require.NoError(t, err)
	require.Equal(t, "key", string(sb))
	inside := func(b []byte) bool {
		if len(b) == 0 {
			return true
		}
		for i := range doc.Message {
			if &doc.Message[i] == &b[0] {
				return true
			}
		}
		return false
	}
	assert.True(t, inside(sb), "borrowed string should point into the message buffer")
}

func TestOwnedTreeIndependent(t *testing.T) {
	input := []byte(`{"key":"value with some length"}`)
	v, err := ToOwnedTree(input)
	require.NoError(t, err)

	// Clobber the input; the owned tree must be unaffected.
	for i := range input {
		input[i] = 'x'
	}
	s, err := v.Get("key").String()
	require.NoError(t, err)
	assert.Equal(t, "value with some length", s)
}

func TestDetach(t *testing.T) {
	input := []byte(`{"a":["deep",{"b":"nested"}]}`)
	borrowed, doc, err := ToBorrowedTree(input)
	require.NoError(t, err)

	owned := borrowed.Detach()
	require.True(t, borrowed.Equal(owned))

	// Wipe the backing buffers.
	for i := range doc.Message {
		doc.Message[i] = 0
	}
	for i := range doc.Strings {
		doc.Strings[i] = 0
	}
	s, err := owned.Get("a").Index(0).String()
	require.NoError(t, err)
	assert.Equal(t, "deep", s)
}

func TestObjectOrderPreserved(t *testing.T) {
	input := []byte(`{"z":1,"a":2,"m":3,"b":4}`)
	v, err := ToOwnedTree(input)
	require.NoError(t, err)
	obj, err := v.Object()
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a", "m", "b"}, obj.Keys())
}

func TestDuplicateKeys(t *testing.T) {
	input := `{"k":1,"k":2,"k":3}`

	// Default: all pairs retained, lookup resolves to the last.
	v, err := ToOwnedTree([]byte(input))
	require.NoError(t, err)
	obj, err := v.Object()
	require.NoError(t, err)
	assert.Equal(t, 3, obj.Len())
	last, ok := obj.Get("k")
	require.True(t, ok)
	n, err := last.Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	// Optional rejection.
	_, err = ToOwnedTree([]byte(input), WithRejectDuplicateKeys(true))
	var pe *ParseError
	require.True(t, errors.As(err, &pe), "expected ParseError, got %v", err)
	assert.Equal(t, DuplicateKey, pe.Kind())
}

func TestValueAccessors(t *testing.T) {
	v, err := ToOwnedTree([]byte(`{"i":-5,"u":18446744073709551615,"f":2.5,"b":true,"n":null,"s":"x"}`))
	require.NoError(t, err)

	i, err := v.Get("i").Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(-5), i)

	u, err := v.Get("u").Uint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(18446744073709551615), u)

	f, err := v.Get("f").Float64()
	require.NoError(t, err)
	assert.Equal(t, 2.5, f)

	b, err := v.Get("b").Bool()
	require.NoError(t, err)
	assert.True(t, b)

	assert.True(t, v.Get("n").IsNull())

	s, err := v.Get("s").String()
	require.NoError(t, err)
	assert.Equal(t, "x", s)

	// Mismatches surface the Expected* kinds.
	_, err = v.Get("s").Int64()
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, ExpectedNumber, pe.Kind())

	_, err = v.Get("i").Object()
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, ExpectedMap, pe.Kind())
}

func TestTreeRoundtrip(t *testing.T) {
	inputs := []string{
		`{}`,
		`[]`,
		`{"some":["key","value",2]}`,
		`[0.25,-17,"x",null,true,[],{}]`,
		`{"nested":{"a":[1,2,3],"b":{"c":"d"}}}`,
	}
	for _, input := range inputs {
		v1, err := ToOwnedTree([]byte(input))
		require.NoError(t, err, input)

		out, err := v1.MarshalJSON()
		require.NoError(t, err, input)

		v2, err := ToOwnedTree(out)
		require.NoError(t, err, input)
		assert.True(t, v1.Equal(v2), "roundtrip mismatch for %s: %s", input, out)

		// And through plain Go values.
		i1, err := v1.Interface()
		require.NoError(t, err)
		i2, err := v2.Interface()
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(i1, i2))
	}
}

func TestBorrowedOwnedEqual(t *testing.T) {
	input := `{"a":["x","y"],"b":{"c":1.5},"d":"é"}`
	bv, _, err := ToBorrowedTree([]byte(input))
	require.NoError(t, err)
	ov, err := ToOwnedTree([]byte(input))
	require.NoError(t, err)
	assert.True(t, bv.Equal(ov))
}

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

// Array streams the elements of one array on the tape. The element
// count packed into the start word sizes the As* result slices in one
// allocation.
type Array struct {
	elems Cursor
	n     int
}

// Array interprets the token as an array.
func (t Token) Array() (*Array, error) {
	if t.tag != TagArrayStart {
		return nil, parseError(ExpectedArray, 0, 0)
	}
	n, _ := t.Len()
	return &Array{elems: t.Enter(), n: n}, nil
}

// Len returns the element count.
func (a *Array) Len() int { return a.n }

// Next consumes and returns the next element.
func (a *Array) Next() (Token, bool) {
	return a.elems.Next()
}

// Interface materializes the array as a slice of plain Go values.
// See Token.Interface for the element types. The array is consumed.
func (a *Array) Interface() ([]interface{}, error) {
	dst := make([]interface{}, 0, a.n)
	for {
		t, ok := a.Next()
		if !ok {
			return dst, nil
		}
		v, err := t.Interface()
		if err != nil {
			return nil, err
		}
		dst = append(dst, v)
	}
}

// AsInt64 returns the elements as int64, converting uints and
// integral floats in range. The array is consumed.
func (a *Array) AsInt64() ([]int64, error) {
	dst := make([]int64, 0, a.n)
	for {
		t, ok := a.Next()
		if !ok {
			return dst, nil
		}
		v, err := t.Int()
		if err != nil {
			return nil, err
		}
		dst = append(dst, v)
	}
}

// AsUint64 returns the elements as uint64, converting ints and
// integral floats in range. The array is consumed.
func (a *Array) AsUint64() ([]uint64, error) {
	dst := make([]uint64, 0, a.n)
	for {
		t, ok := a.Next()
		if !ok {
			return dst, nil
		}
		v, err := t.Uint()
		if err != nil {
			return nil, err
		}
		dst = append(dst, v)
	}
}

// AsFloat returns the elements as float64, converting integers.
// The array is consumed.
func (a *Array) AsFloat() ([]float64, error) {
	dst := make([]float64, 0, a.n)
	for {
		t, ok := a.Next()
		if !ok {
			return dst, nil
		}
		v, err := t.Float()
		if err != nil {
			return nil, err
		}
		dst = append(dst, v)
	}
}

// AsString returns the elements as strings. No conversion is done.
// The array is consumed.
func (a *Array) AsString() ([]string, error) {
	dst := make([]string, 0, a.n)
	for {
		t, ok := a.Next()
		if !ok {
			return dst, nil
		}
		v, err := t.String()
		if err != nil {
			return nil, err
		}
		dst = append(dst, v)
	}
}

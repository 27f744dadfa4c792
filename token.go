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
	"math"
)

// Token is one tape entry: a primitive value or the start of a
// container. A container token carries both its element count and the
// tape extent of its body (packed into the start word by Stage 2), so
// consumers can descend into it or step over it in constant time.
//
// Tokens are plain values; they stay valid as long as the Doc does.
type Token struct {
	doc *Doc
	tag Tag
	pos int // tape index of the tag word
}

// Tag returns the raw tape tag.
func (t Token) Tag() Tag { return t.tag }

// Type returns the value type.
func (t Token) Type() Type { return TagToType[t.tag] }

// IsNull reports whether the token is JSON null.
func (t Token) IsNull() bool { return t.tag == TagNull }

func (t Token) payload() uint64 {
	return t.doc.Tape[t.pos] & valueMask
}

// second returns the word following the tag word (the value of a
// number, or the byte length of a string).
func (t Token) second() (uint64, bool) {
	if t.doc == nil || t.pos+1 >= len(t.doc.Tape) {
		return 0, false
	}
	return t.doc.Tape[t.pos+1], true
}

// end returns the tape index one past the token, its body and end
// word included. This is what makes sibling iteration O(1) per
// element regardless of nesting.
func (t Token) end() int {
	switch t.tag {
	case TagObjectStart, TagArrayStart:
		return int(t.payload() & scopeEndMask)
	case TagInteger, TagUint, TagFloat, TagString:
		return t.pos + 2
	default:
		return t.pos + 1
	}
}

// Len returns the element count of a container (pairs for objects)
// and whether the count is exact; scopes beyond the 24-bit packing
// limit saturate. Non-containers report 0, false.
func (t Token) Len() (int, bool) {
	switch t.tag {
	case TagObjectStart, TagArrayStart:
		n := int(t.payload() >> countShift & countSaturated)
		return n, n != countSaturated
	}
	return 0, false
}

// Enter returns a cursor over the children of a container token.
// The container's end word is excluded, so the cursor drains exactly
// Len elements (or key/value pairs for objects).
func (t Token) Enter() Cursor {
	switch t.tag {
	case TagObjectStart, TagArrayStart:
		return Cursor{doc: t.doc, pos: t.pos + 1, end: t.end() - 1}
	}
	return Cursor{}
}

// Bool returns the boolean value.
func (t Token) Bool() (bool, error) {
	switch t.tag {
	case TagBoolTrue:
		return true, nil
	case TagBoolFalse:
		return false, nil
	}
	return false, parseError(ExpectedBoolean, 0, 0)
}

// Int returns the value as int64. Uints and integral floats within
// range are converted.
func (t Token) Int() (int64, error) {
	v, ok := t.second()
	if !ok {
		return 0, parseError(InternalError, 0, 0)
	}
	switch t.tag {
	case TagInteger:
		return int64(v), nil
	case TagUint:
		if v > math.MaxInt64 {
			return 0, parseError(NumberOutOfRange, 0, 0)
		}
		return int64(v), nil
	case TagFloat:
		f := math.Float64frombits(v)
		if f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
			return 0, parseError(NumberOutOfRange, 0, 0)
		}
		return int64(f), nil
	}
	return 0, parseError(ExpectedNumber, 0, 0)
}

// Uint returns the value as uint64. Non-negative ints and integral
// floats within range are converted.
func (t Token) Uint() (uint64, error) {
	v, ok := t.second()
	if !ok {
		return 0, parseError(InternalError, 0, 0)
	}
	switch t.tag {
	case TagUint:
		return v, nil
	case TagInteger:
		if int64(v) < 0 {
			return 0, parseError(NumberOutOfRange, 0, 0)
		}
		return v, nil
	case TagFloat:
		f := math.Float64frombits(v)
		if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
			return 0, parseError(NumberOutOfRange, 0, 0)
		}
		return uint64(f), nil
	}
	return 0, parseError(ExpectedNumber, 0, 0)
}

// Float returns the value as float64. Integers are converted.
func (t Token) Float() (float64, error) {
	v, ok := t.second()
	if !ok {
		return 0, parseError(InternalError, 0, 0)
	}
	switch t.tag {
	case TagFloat:
		return math.Float64frombits(v), nil
	case TagInteger:
		return float64(int64(v)), nil
	case TagUint:
		return float64(v), nil
	}
	return 0, parseError(ExpectedNumber, 0, 0)
}

// FloatFlags returns the flags recorded while parsing a float token.
func (t Token) FloatFlags() FloatFlags {
	if t.tag != TagFloat {
		return 0
	}
	return FloatFlags(t.payload())
}

// StringBytes returns the string payload, a slice of the document's
// buffers.
func (t Token) StringBytes() ([]byte, error) {
	if t.tag != TagString {
		return nil, parseError(ExpectedString, 0, 0)
	}
	length, ok := t.second()
	if !ok {
		return nil, parseError(InternalError, 0, 0)
	}
	return t.doc.stringSlice(t.payload(), length)
}

// String returns the string value as a copy.
func (t Token) String() (string, error) {
	b, err := t.StringBytes()
	return string(b), err
}

// Interface converts the token to plain Go types: int64/uint64/
// float64 for numbers, string, bool, nil, []interface{} and
// map[string]interface{} (last value wins for duplicate keys).
func (t Token) Interface() (interface{}, error) {
	switch t.tag {
	case TagNull:
		return nil, nil
	case TagBoolTrue:
		return true, nil
	case TagBoolFalse:
		return false, nil
	case TagInteger:
		return t.Int()
	case TagUint:
		return t.Uint()
	case TagFloat:
		return t.Float()
	case TagString:
		return t.String()
	case TagArrayStart:
		arr, err := t.Array()
		if err != nil {
			return nil, err
		}
		return arr.Interface()
	case TagObjectStart:
		obj, err := t.Object()
		if err != nil {
			return nil, err
		}
		return obj.Map(nil)
	}
	return nil, parseError(InternalError, 0, byte(t.tag))
}

// Cursor walks one scope of the tape, forward only. The zero Cursor
// is empty. Copies iterate independently.
type Cursor struct {
	doc *Doc
	pos int
	end int
}

// Cursor returns a cursor over the document's top-level value(s).
func (d *Doc) Cursor() Cursor {
	if len(d.Tape) < 2 {
		return Cursor{}
	}
	// The first and last words are the root markers.
	return Cursor{doc: d, pos: 1, end: len(d.Tape) - 1}
}

// Next pulls the next value on the cursor's level. Containers are
// returned as a single token; use Enter to descend. ok is false when
// the scope is drained.
func (c *Cursor) Next() (Token, bool) {
	if c.doc == nil || c.pos >= c.end {
		return Token{}, false
	}
	t := Token{
		doc: c.doc,
		tag: Tag(c.doc.Tape[c.pos] >> tagShift),
		pos: c.pos,
	}
	next := t.end()
	if next <= c.pos || next > c.end {
		// Corrupt extents; stop rather than loop.
		c.pos = c.end
		return Token{}, false
	}
	c.pos = next
	return t, true
}

// Peek reports the type of the next value without consuming it.
func (c *Cursor) Peek() Type {
	if c.doc == nil || c.pos >= c.end {
		return TypeNone
	}
	return TagToType[Tag(c.doc.Tape[c.pos]>>tagShift)]
}

// Remaining reports whether the cursor has more values.
func (c *Cursor) Remaining() bool {
	return c.doc != nil && c.pos < c.end
}

// First returns the document's single top-level value.
func (d *Doc) First() (Token, error) {
	c := d.Cursor()
	t, ok := c.Next()
	if !ok {
		return Token{}, parseError(InternalError, 0, 0)
	}
	return t, nil
}

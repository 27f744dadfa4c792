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
	"bytes"
	"errors"
	"math"
	"strconv"
)

// Kind is the type of a tree value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindUint
	KindFloat
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}
	return "(invalid)"
}

// Value is one node of a materialized tree. In a borrowed tree the
// string payloads are slices of the source document's buffers; a
// detached (owned) tree holds private copies. The zero Value is null.
type Value struct {
	kind Kind
	num  uint64
	str  []byte
	arr  []Value
	obj  *Fields
}

// Kind returns the value type.
func (v *Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is JSON null.
func (v *Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the boolean value.
func (v *Value) Bool() (bool, error) {
	if v.kind != KindBool {
		return false, parseError(ExpectedBoolean, 0, 0)
	}
	return v.num != 0, nil
}

// Int64 returns the value as int64. Uints and integral floats within
// range are converted.
func (v *Value) Int64() (int64, error) {
	switch v.kind {
	case KindInt:
		return int64(v.num), nil
	case KindUint:
		if v.num > math.MaxInt64 {
			return 0, parseError(NumberOutOfRange, 0, 0)
		}
		return int64(v.num), nil
	case KindFloat:
		f := math.Float64frombits(v.num)
		if f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
			return 0, parseError(NumberOutOfRange, 0, 0)
		}
		return int64(f), nil
	}
	return 0, parseError(ExpectedNumber, 0, 0)
}

// Uint64 returns the value as uint64. Non-negative ints and integral
// floats within range are converted.
func (v *Value) Uint64() (uint64, error) {
	switch v.kind {
	case KindUint:
		return v.num, nil
	case KindInt:
		if int64(v.num) < 0 {
			return 0, parseError(NumberOutOfRange, 0, 0)
		}
		return v.num, nil
	case KindFloat:
		f := math.Float64frombits(v.num)
		if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
			return 0, parseError(NumberOutOfRange, 0, 0)
		}
		return uint64(f), nil
	}
	return 0, parseError(ExpectedNumber, 0, 0)
}

// Float64 returns the value as float64. Integers are converted.
func (v *Value) Float64() (float64, error) {
	switch v.kind {
	case KindFloat:
		return math.Float64frombits(v.num), nil
	case KindInt:
		return float64(int64(v.num)), nil
	case KindUint:
		return float64(v.num), nil
	}
	return 0, parseError(ExpectedNumber, 0, 0)
}

// String returns the string value. The returned string copies the
// payload; use StringBytes to avoid the copy.
func (v *Value) String() (string, error) {
	if v.kind != KindString {
		return "", parseError(ExpectedString, 0, 0)
	}
	return string(v.str), nil
}

// StringBytes returns the string payload. For borrowed trees the
// slice aliases the source document.
func (v *Value) StringBytes() ([]byte, error) {
	if v.kind != KindString {
		return nil, parseError(ExpectedString, 0, 0)
	}
	return v.str, nil
}

// Array returns the elements of an array value.
func (v *Value) Array() ([]Value, error) {
	if v.kind != KindArray {
		return nil, parseError(ExpectedArray, 0, 0)
	}
	return v.arr, nil
}

// Object returns the fields of an object value.
func (v *Value) Object() (*Fields, error) {
	if v.kind != KindObject {
		return nil, parseError(ExpectedMap, 0, 0)
	}
	return v.obj, nil
}

// Len returns the number of elements (arrays) or members (objects).
func (v *Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return v.obj.Len()
	}
	return 0
}

// Get returns the member value for key in an object, nil otherwise.
// Duplicate keys resolve to the last occurrence.
func (v *Value) Get(key string) *Value {
	if v.kind != KindObject {
		return nil
	}
	val, ok := v.obj.Get(key)
	if !ok {
		return nil
	}
	return val
}

// Index returns element i of an array, nil when out of range.
func (v *Value) Index(i int) *Value {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return nil
	}
	return &v.arr[i]
}

// Equal reports deep equality. Numbers compare by kind and bits.
func (v *Value) Equal(other *Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool, KindInt, KindUint, KindFloat:
		return v.num == other.num
	case KindString:
		return bytes.Equal(v.str, other.str)
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(&other.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if v.obj.Len() != other.obj.Len() {
			return false
		}
		for i := range v.obj.fields {
			a, b := &v.obj.fields[i], &other.obj.fields[i]
			if !bytes.Equal(a.Key, b.Key) || !a.Value.Equal(&b.Value) {
				return false
			}
		}
		return true
	}
	return false
}

// Detach deep-copies the value into a self-contained tree that no
// longer references the source document.
func (v *Value) Detach() *Value {
	out := &Value{kind: v.kind, num: v.num}
	switch v.kind {
	case KindString:
		out.str = append([]byte(nil), v.str...)
	case KindArray:
		out.arr = make([]Value, len(v.arr))
		for i := range v.arr {
			out.arr[i] = *v.arr[i].Detach()
		}
	case KindObject:
		out.obj = v.obj.detach()
	}
	return out
}

// Interface converts the value to plain Go types, mirroring
// Token.Interface.
func (v *Value) Interface() (interface{}, error) {
	switch v.kind {
	case KindNull:
		return nil, nil
	case KindBool:
		return v.num != 0, nil
	case KindInt:
		return int64(v.num), nil
	case KindUint:
		return v.num, nil
	case KindFloat:
		return math.Float64frombits(v.num), nil
	case KindString:
		return string(v.str), nil
	case KindArray:
		dst := make([]interface{}, len(v.arr))
		for i := range v.arr {
			e, err := v.arr[i].Interface()
			if err != nil {
				return nil, err
			}
			dst[i] = e
		}
		return dst, nil
	case KindObject:
		dst := make(map[string]interface{}, v.obj.Len())
		for i := range v.obj.fields {
			f := &v.obj.fields[i]
			e, err := f.Value.Interface()
			if err != nil {
				return nil, err
			}
			dst[string(f.Key)] = e
		}
		return dst, nil
	}
	return nil, errors.New("unknown value kind")
}

// MarshalJSON serializes the value.
func (v *Value) MarshalJSON() ([]byte, error) {
	return v.AppendJSON(nil)
}

// AppendJSON serializes the value, appending to dst.
func (v *Value) AppendJSON(dst []byte) ([]byte, error) {
	var err error
	switch v.kind {
	case KindNull:
		return append(dst, "null"...), nil
	case KindBool:
		if v.num != 0 {
			return append(dst, "true"...), nil
		}
		return append(dst, "false"...), nil
	case KindInt:
		return strconv.AppendInt(dst, int64(v.num), 10), nil
	case KindUint:
		return strconv.AppendUint(dst, v.num, 10), nil
	case KindFloat:
		return appendFloat(dst, math.Float64frombits(v.num))
	case KindString:
		return appendQuoted(dst, v.str), nil
	case KindArray:
		dst = append(dst, '[')
		for i := range v.arr {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst, err = v.arr[i].AppendJSON(dst)
			if err != nil {
				return nil, err
			}
		}
		return append(dst, ']'), nil
	case KindObject:
		dst = append(dst, '{')
		for i := range v.obj.fields {
			f := &v.obj.fields[i]
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = appendQuoted(dst, f.Key)
			dst = append(dst, ':')
			dst, err = f.Value.AppendJSON(dst)
			if err != nil {
				return nil, err
			}
		}
		return append(dst, '}'), nil
	}
	return nil, errors.New("unknown value kind")
}

// Field is one member of an object.
type Field struct {
	Key   []byte
	Value Value
}

// Fields is an insertion-ordered object. All pairs are retained,
// duplicates included; keyed lookups resolve to the last occurrence.
type Fields struct {
	fields []Field
	index  map[string]int
}

// Len returns the number of members, duplicates included.
func (f *Fields) Len() int { return len(f.fields) }

// At returns member i in insertion order.
func (f *Fields) At(i int) *Field { return &f.fields[i] }

// Get returns the value for key and whether it was present.
func (f *Fields) Get(key string) (*Value, bool) {
	i, ok := f.index[key]
	if !ok {
		return nil, false
	}
	return &f.fields[i].Value, true
}

// Keys returns all keys in insertion order.
func (f *Fields) Keys() []string {
	keys := make([]string, len(f.fields))
	for i := range f.fields {
		keys[i] = string(f.fields[i].Key)
	}
	return keys
}

func (f *Fields) detach() *Fields {
	out := &Fields{
		fields: make([]Field, len(f.fields)),
		index:  make(map[string]int, len(f.index)),
	}
	for i := range f.fields {
		out.fields[i] = Field{
			Key:   append([]byte(nil), f.fields[i].Key...),
			Value: *f.fields[i].Value.Detach(),
		}
	}
	for k, v := range f.index {
		out.index[k] = v
	}
	return out
}

// BorrowedTree materializes the document as a tree whose string
// payloads alias the document buffers. The Doc must outlive the tree.
func (d *Doc) BorrowedTree() (*Value, error) {
	return d.tree(false)
}

// OwnedTree materializes the document as a self-contained tree.
func (d *Doc) OwnedTree() (*Value, error) {
	return d.tree(true)
}

func (d *Doc) tree(owned bool) (*Value, error) {
	reject := false
	if d.internal != nil {
		reject = d.internal.rejectDuplicates
	}
	if len(d.Tape) < 3 {
		return nil, errors.New("empty tape")
	}
	if Tag(d.Tape[0]>>tagShift) != TagRoot {
		return nil, errors.New("corrupt tape: no root node")
	}
	b := treeBuilder{doc: d, owned: owned, rejectDuplicates: reject}
	v, end, err := b.value(1)
	if err != nil {
		return nil, err
	}
	if Tag(d.Tape[end]>>tagShift) != TagRoot {
		return nil, errors.New("corrupt tape: trailing entries after root value")
	}
	return &v, nil
}

type treeBuilder struct {
	doc              *Doc
	owned            bool
	rejectDuplicates bool
}

// value decodes the tape entry at pos, returning the node and the
// position one past it.
func (b *treeBuilder) value(pos int) (Value, int, error) {
	tape := b.doc.Tape
	if pos >= len(tape) {
		return Value{}, pos, errors.New("corrupt tape: truncated value")
	}
	word := tape[pos]
	tag := Tag(word >> tagShift)
	payload := word & valueMask
	switch tag {
	case TagNull:
		return Value{kind: KindNull}, pos + 1, nil
	case TagBoolTrue:
		return Value{kind: KindBool, num: 1}, pos + 1, nil
	case TagBoolFalse:
		return Value{kind: KindBool, num: 0}, pos + 1, nil
	case TagInteger:
		if pos+1 >= len(tape) {
			return Value{}, pos, errors.New("corrupt tape: integer value missing")
		}
		return Value{kind: KindInt, num: tape[pos+1]}, pos + 2, nil
	case TagUint:
		if pos+1 >= len(tape) {
			return Value{}, pos, errors.New("corrupt tape: uint value missing")
		}
		return Value{kind: KindUint, num: tape[pos+1]}, pos + 2, nil
	case TagFloat:
		if pos+1 >= len(tape) {
			return Value{}, pos, errors.New("corrupt tape: float value missing")
		}
		return Value{kind: KindFloat, num: tape[pos+1]}, pos + 2, nil
	case TagString:
		s, next, err := b.str(pos)
		if err != nil {
			return Value{}, pos, err
		}
		return Value{kind: KindString, str: s}, next, nil
	case TagArrayStart:
		end := int(payload & scopeEndMask)
		count := int(payload >> countShift & countSaturated)
		if end > len(tape) {
			return Value{}, pos, errors.New("corrupt tape: array extends beyond tape")
		}
		if count > end-pos {
			count = end - pos
		}
		arr := make([]Value, 0, count)
		cur := pos + 1
		for cur < end-1 {
			elem, next, err := b.value(cur)
			if err != nil {
				return Value{}, pos, err
			}
			arr = append(arr, elem)
			cur = next
		}
		return Value{kind: KindArray, arr: arr}, end, nil
	case TagObjectStart:
		end := int(payload & scopeEndMask)
		count := int(payload >> countShift & countSaturated)
		if end > len(tape) {
			return Value{}, pos, errors.New("corrupt tape: object extends beyond tape")
		}
		if count > end-pos {
			count = end - pos
		}
		obj := &Fields{
			fields: make([]Field, 0, count),
			index:  make(map[string]int, count),
		}
		cur := pos + 1
		for cur < end-1 {
			key, next, err := b.str(cur)
			if err != nil {
				return Value{}, pos, err
			}
			elem, next, err := b.value(next)
			if err != nil {
				return Value{}, pos, err
			}
			if _, dup := obj.index[string(key)]; dup && b.rejectDuplicates {
				return Value{}, pos, parseError(DuplicateKey, 0, 0)
			}
			obj.index[string(key)] = len(obj.fields)
			obj.fields = append(obj.fields, Field{Key: key, Value: elem})
			cur = next
		}
		return Value{kind: KindObject, obj: obj}, end, nil
	}
	return Value{}, pos, errors.New("corrupt tape: unexpected tag " + tag.String())
}

func (b *treeBuilder) str(pos int) ([]byte, int, error) {
	tape := b.doc.Tape
	if pos+1 >= len(tape) {
		return nil, pos, errors.New("corrupt tape: string length missing")
	}
	word := tape[pos]
	if Tag(word>>tagShift) != TagString {
		return nil, pos, errors.New("corrupt tape: expected string")
	}
	s, err := b.doc.stringSlice(word&valueMask, tape[pos+1])
	if err != nil {
		return nil, pos, err
	}
	if b.owned {
		s = append([]byte(nil), s...)
	}
	return s, pos + 2, nil
}

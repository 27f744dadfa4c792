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
	"math"
	"strconv"
)

// Re-encoding walks the tape recursively: the count-packed container
// words make every scope's extent known up front, so no state stack
// is needed; a comma goes before every element but the first.

// ErrNonFinite is returned when a NaN or infinity has to be encoded;
// JSON has no representation for them.
var ErrNonFinite = errors.New("cannot encode non-finite number")

// MarshalJSON re-encodes the parsed document.
func (d *Doc) MarshalJSON() ([]byte, error) {
	return d.AppendJSON(nil)
}

// AppendJSON re-encodes the parsed document, appending to dst.
func (d *Doc) AppendJSON(dst []byte) ([]byte, error) {
	t, err := d.First()
	if err != nil {
		return nil, err
	}
	return t.AppendJSON(dst)
}

// MarshalJSON encodes the token's value (subtree included).
func (t Token) MarshalJSON() ([]byte, error) {
	return t.AppendJSON(nil)
}

// AppendJSON encodes the token's value, appending to dst.
func (t Token) AppendJSON(dst []byte) ([]byte, error) {
	switch t.tag {
	case TagNull:
		return append(dst, "null"...), nil
	case TagBoolTrue:
		return append(dst, "true"...), nil
	case TagBoolFalse:
		return append(dst, "false"...), nil
	case TagInteger:
		v, err := t.Int()
		if err != nil {
			return nil, err
		}
		return strconv.AppendInt(dst, v, 10), nil
	case TagUint:
		v, err := t.Uint()
		if err != nil {
			return nil, err
		}
		return strconv.AppendUint(dst, v, 10), nil
	case TagFloat:
		v, err := t.Float()
		if err != nil {
			return nil, err
		}
		return appendFloat(dst, v)
	case TagString:
		b, err := t.StringBytes()
		if err != nil {
			return nil, err
		}
		return appendQuoted(dst, b), nil
	case TagArrayStart:
		dst = append(dst, '[')
		c := t.Enter()
		var err error
		for n := 0; ; n++ {
			elem, ok := c.Next()
			if !ok {
				break
			}
			if n > 0 {
				dst = append(dst, ',')
			}
			dst, err = elem.AppendJSON(dst)
			if err != nil {
				return nil, err
			}
		}
		return append(dst, ']'), nil
	case TagObjectStart:
		dst = append(dst, '{')
		c := t.Enter()
		for n := 0; ; n++ {
			key, ok := c.Next()
			if !ok {
				break
			}
			kb, err := key.StringBytes()
			if err != nil {
				return nil, err
			}
			val, ok := c.Next()
			if !ok {
				return nil, errors.New("object member without value on tape")
			}
			if n > 0 {
				dst = append(dst, ',')
			}
			dst = appendQuoted(dst, kb)
			dst = append(dst, ':')
			dst, err = val.AppendJSON(dst)
			if err != nil {
				return nil, err
			}
		}
		return append(dst, '}'), nil
	}
	return nil, errors.New("cannot encode tape tag " + t.tag.String())
}

const hexChars = "0123456789abcdef"

// stringEscapes maps each byte to its handling when encoding string
// content: 0 passes through verbatim, 'u' needs a \u00XX escape, any
// other value is the letter of a two-character escape.
var stringEscapes = [256]byte{
	'"':  '"',
	'\\': '\\',
	'\b': 'b',
	'\f': 'f',
	'\n': 'n',
	'\r': 'r',
	'\t': 't',
}

func init() {
	for c := 0; c < 0x20; c++ {
		if stringEscapes[c] == 0 {
			stringEscapes[c] = 'u'
		}
	}
}

// appendQuoted appends src as a quoted JSON string. Clean runs are
// copied in one append; only bytes that need escaping break the run.
func appendQuoted(dst, src []byte) []byte {
	dst = append(dst, '"')
	start := 0
	for i := 0; i < len(src); i++ {
		e := stringEscapes[src[i]]
		if e == 0 {
			continue
		}
		dst = append(dst, src[start:i]...)
		if e == 'u' {
			c := src[i]
			dst = append(dst, '\\', 'u', '0', '0', hexChars[c>>4], hexChars[c&0xf])
		} else {
			dst = append(dst, '\\', e)
		}
		start = i + 1
	}
	dst = append(dst, src[start:]...)
	return append(dst, '"')
}

// appendFloat writes f in the shortest notation that round-trips.
func appendFloat(dst []byte, f float64) ([]byte, error) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, ErrNonFinite
	}
	return strconv.AppendFloat(dst, f, 'g', -1, 64), nil
}

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
	"fmt"
)

// ErrPathNotFound is returned by Path when an element is missing.
var ErrPathNotFound = errors.New("path not found")

// Object streams the members of one object on the tape. Next consumes
// pairs in document order; Get and Path work on a private cursor and
// leave the stream untouched. Lookups resolve duplicate keys to the
// last occurrence, matching the materialized tree.
type Object struct {
	members Cursor
	n       int
}

// Object interprets the token as an object.
func (t Token) Object() (*Object, error) {
	if t.tag != TagObjectStart {
		return nil, parseError(ExpectedMap, 0, 0)
	}
	n, _ := t.Len()
	return &Object{members: t.Enter(), n: n}, nil
}

// Len returns the member count, duplicates included.
func (o *Object) Len() int { return o.n }

// Next consumes and returns the next key/value pair.
// ok is false once the object is drained.
func (o *Object) Next() (key []byte, val Token, ok bool, err error) {
	k, more := o.members.Next()
	if !more {
		return nil, Token{}, false, nil
	}
	key, err = k.StringBytes()
	if err != nil {
		return nil, Token{}, false, fmt.Errorf("reading object key: %w", err)
	}
	val, more = o.members.Next()
	if !more {
		return nil, Token{}, false, fmt.Errorf("object member %q has no value on tape", key)
	}
	return key, val, true, nil
}

// Get scans the object for key without consuming the stream.
// Duplicate keys resolve to the last occurrence.
func (o *Object) Get(key string) (Token, bool) {
	scan := Object{members: o.members, n: o.n}
	var found Token
	ok := false
	for {
		k, v, more, err := scan.Next()
		if err != nil || !more {
			return found, ok
		}
		if string(k) == key {
			found, ok = v, true
		}
	}
}

// Path descends nested objects along keys and returns the value of
// the final one. ErrPathNotFound is returned when no keys are given or
// a key is missing; an intermediate value that is not an object gives
// a separate error naming its key.
func (o *Object) Path(keys ...string) (Token, error) {
	if len(keys) == 0 {
		return Token{}, ErrPathNotFound
	}
	cur := o
	for {
		key := keys[0]
		t, ok := cur.Get(key)
		if !ok {
			return Token{}, ErrPathNotFound
		}
		keys = keys[1:]
		if len(keys) == 0 {
			return t, nil
		}
		next, err := t.Object()
		if err != nil {
			return Token{}, fmt.Errorf("value of key %q is not an object", key)
		}
		cur = next
	}
}

// ForEach calls fn for every member in document order.
// The object is consumed.
func (o *Object) ForEach(fn func(key []byte, val Token) error) error {
	for {
		k, v, more, err := o.Next()
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		if err := fn(k, v); err != nil {
			return err
		}
	}
}

// Map materializes the object into a map[string]interface{}.
// See Token.Interface for the value types. Duplicate keys resolve to
// the last value. The object is consumed.
func (o *Object) Map(dst map[string]interface{}) (map[string]interface{}, error) {
	if dst == nil {
		dst = make(map[string]interface{}, o.n)
	}
	err := o.ForEach(func(key []byte, val Token) error {
		v, err := val.Interface()
		if err != nil {
			return fmt.Errorf("member %q: %w", key, err)
		}
		dst[string(key)] = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dst, nil
}

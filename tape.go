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
	"fmt"
	"io"
	"math"
)

// Tape layout. Each entry is a 64-bit word with the tag in the top
// byte and a 56-bit payload below it. Numbers and strings are followed
// by one extra word (the value, or the payload length). Container
// start words pack the tape offset one past the matching end into the
// low 32 bits and the element count into the 24 bits above it; the
// count saturates at countSaturated for pathologically large scopes.
const (
	tagShift  = 56
	valueMask = 1<<tagShift - 1

	scopeEndMask   = 1<<32 - 1
	countShift     = 32
	countSaturated = 1<<24 - 1

	// String payload offsets with stringBufBit set point into the
	// Strings arena; without it they point into Message.
	stringBufBit  = 1 << 55
	stringBufMask = stringBufBit - 1
)

// Tag indicates the type of a tape entry.
type Tag uint8

const (
	TagString      = Tag('"')
	TagInteger     = Tag('l')
	TagUint        = Tag('u')
	TagFloat       = Tag('d')
	TagNull        = Tag('n')
	TagBoolTrue    = Tag('t')
	TagBoolFalse   = Tag('f')
	TagObjectStart = Tag('{')
	TagObjectEnd   = Tag('}')
	TagArrayStart  = Tag('[')
	TagArrayEnd    = Tag(']')
	TagRoot        = Tag('r')
	TagEnd         = Tag(0)
)

func (t Tag) String() string {
	return string([]byte{byte(t)})
}

// Type is a JSON value type.
type Type uint8

const (
	TypeNone Type = iota
	TypeNull
	TypeString
	TypeInt
	TypeUint
	TypeFloat
	TypeBool
	TypeObject
	TypeArray
	TypeRoot
)

var typeNames = [...]string{
	TypeNone:   "(no type)",
	TypeNull:   "null",
	TypeString: "string",
	TypeInt:    "int",
	TypeUint:   "uint",
	TypeFloat:  "float",
	TypeBool:   "bool",
	TypeObject: "object",
	TypeArray:  "array",
	TypeRoot:   "root",
}

// String returns the type as a string.
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "(invalid)"
}

// TagToType converts a tag to a type. For arrays and objects only the
// start tag maps to a type; all other tags map to TypeNone.
var TagToType = [256]Type{
	TagString:      TypeString,
	TagInteger:     TypeInt,
	TagUint:        TypeUint,
	TagFloat:       TypeFloat,
	TagNull:        TypeNull,
	TagBoolTrue:    TypeBool,
	TagBoolFalse:   TypeBool,
	TagObjectStart: TypeObject,
	TagArrayStart:  TypeArray,
	TagRoot:        TypeRoot,
}

// Type converts a tag to a type.
func (t Tag) Type() Type {
	return TagToType[t]
}

// FloatFlags are recorded in a float token's tag word.
type FloatFlags uint64

const (
	// FloatOverflowedInteger marks a number in integer notation that
	// under/overflowed both int64 and uint64 and was parsed as float.
	FloatOverflowedInteger FloatFlags = 1 << iota
)

// Contains reports whether all bits of flag are set in f.
func (f FloatFlags) Contains(flag FloatFlags) bool {
	return f&flag == flag
}

// Doc is a parsed document: the (padded) message, the typed token
// tape, and the string arena for decoded payloads. String slices
// handed out by tokens and borrowed trees point into Message or
// Strings; both must stay alive and unmodified while those slices are
// in use.
type Doc struct {
	Message []byte
	Tape    []uint64
	Strings []byte

	// allows reuse of the internal structures without exposing them.
	internal *parser
}

// Reset drops all parsed content, keeping the buffers for reuse.
func (d *Doc) Reset() {
	d.Tape = d.Tape[:0]
	d.Strings = d.Strings[:0]
	d.Message = d.Message[:0]
}

// stringSlice resolves a tape string payload. The arena bit selects
// between the message buffer (zero-copy strings) and the Strings
// arena (escaped or copied strings).
func (d *Doc) stringSlice(offset, length uint64) ([]byte, error) {
	buf := d.Message
	if offset&stringBufBit != 0 {
		buf = d.Strings
		offset &= stringBufMask
	}
	end := offset + length
	if end < offset || end > uint64(len(buf)) {
		return nil, fmt.Errorf("string payload [%d:%d] outside buffer (%d bytes)", offset, end, len(buf))
	}
	return buf[offset:end], nil
}

func (d *Doc) currentLoc() uint64 {
	return uint64(len(d.Tape))
}

func (d *Doc) writeTape(val uint64, c byte) {
	d.Tape = append(d.Tape, val|uint64(c)<<tagShift)
}

func (d *Doc) writeTapeTagVal(tag Tag, val uint64) {
	d.Tape = append(d.Tape, uint64(tag)<<tagShift, val)
}

func (d *Doc) writeTapeTagValFlags(tag Tag, val, flags uint64) {
	d.Tape = append(d.Tape, uint64(tag)<<tagShift|flags, val)
}

func (d *Doc) writeTapeString(offset, length uint64) {
	d.Tape = append(d.Tape, offset|uint64(TagString)<<tagShift, length)
}

// annotateScope closes a container: the start word receives the end
// offset and the (saturated) element count, the end word points back
// at the start.
func (d *Doc) annotateScope(start, end uint64, count int) {
	if count > countSaturated {
		count = countSaturated
	}
	d.Tape[start] |= end&scopeEndMask | uint64(count)<<countShift
}

func (d *Doc) annotateRoot(start, end uint64) {
	d.Tape[start] |= end & valueMask
}

// DumpRawTape writes a one-line-per-word description of the tape to
// w. Intended for debugging.
func (d *Doc) DumpRawTape(w io.Writer) error {
	skipNext := false
	for pos, word := range d.Tape {
		if skipNext {
			skipNext = false
			continue
		}
		tag := Tag(word >> tagShift)
		payload := word & valueMask
		var err error
		switch tag {
		case TagRoot:
			_, err = fmt.Fprintf(w, "%d : r\t// scope %d\n", pos, payload)
		case TagString:
			var s []byte
			if pos+1 < len(d.Tape) {
				s, err = d.stringSlice(payload, d.Tape[pos+1])
			}
			if err == nil {
				_, err = fmt.Fprintf(w, "%d : string %q\n", pos, s)
			}
			skipNext = true
		case TagInteger:
			if pos+1 < len(d.Tape) {
				_, err = fmt.Fprintf(w, "%d : integer %d\n", pos, int64(d.Tape[pos+1]))
			}
			skipNext = true
		case TagUint:
			if pos+1 < len(d.Tape) {
				_, err = fmt.Fprintf(w, "%d : uint %d\n", pos, d.Tape[pos+1])
			}
			skipNext = true
		case TagFloat:
			if pos+1 < len(d.Tape) {
				_, err = fmt.Fprintf(w, "%d : float %v\n", pos, math.Float64frombits(d.Tape[pos+1]))
			}
			skipNext = true
		case TagNull:
			_, err = fmt.Fprintf(w, "%d : null\n", pos)
		case TagBoolTrue:
			_, err = fmt.Fprintf(w, "%d : true\n", pos)
		case TagBoolFalse:
			_, err = fmt.Fprintf(w, "%d : false\n", pos)
		case TagObjectStart, TagArrayStart:
			_, err = fmt.Fprintf(w, "%d : %s\t// end %d, count %d\n",
				pos, tag, payload&scopeEndMask, payload>>countShift&countSaturated)
		case TagObjectEnd, TagArrayEnd:
			_, err = fmt.Fprintf(w, "%d : %s\t// start %d\n", pos, tag, payload)
		default:
			err = fmt.Errorf("unexpected tag %q at %d", byte(tag), pos)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

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
	"encoding/binary"
	"math"
)

// Stage 2 walks the structural indexes once with a small grammar
// state machine and emits the tape. The machine is written in the
// classic goto style: each container keeps its return state in the
// low bits of the saved scope offset. Element counts are tallied on a
// parallel stack and patched into the container's start word when its
// scope closes, so DOM builders can allocate exactly once.

// DefaultMaxDepth is the nesting bound used when no WithMaxDepth
// option is given.
const DefaultMaxDepth = 1024

const (
	retAddressShift = 2
	retAddressRoot  = 1
	retAddressObj   = 2
	retAddressArr   = 3
)

func isValidTrueAtom(buf []byte) bool {
	if len(buf) >= 8 {
		tv := uint64(0x0000000065757274) // "true"
		mask4 := uint64(0x00000000ffffffff)
		locval := binary.LittleEndian.Uint64(buf)
		err := locval&mask4 ^ tv
		err |= uint64(isNotStructuralOrWhitespace(buf[4]))
		return err == 0
	}
	if len(buf) >= 5 {
		return bytes.Equal(buf[:4], []byte("true")) && isNotStructuralOrWhitespace(buf[4]) == 0
	}
	return len(buf) == 4 && bytes.Equal(buf, []byte("true"))
}

func isValidFalseAtom(buf []byte) bool {
	if len(buf) >= 8 {
		fv := uint64(0x00000065736c6166) // "false"
		mask5 := uint64(0x000000ffffffffff)
		locval := binary.LittleEndian.Uint64(buf)
		err := locval&mask5 ^ fv
		err |= uint64(isNotStructuralOrWhitespace(buf[5]))
		return err == 0
	}
	if len(buf) >= 6 {
		return bytes.Equal(buf[:5], []byte("false")) && isNotStructuralOrWhitespace(buf[5]) == 0
	}
	return len(buf) == 5 && bytes.Equal(buf, []byte("false"))
}

func isValidNullAtom(buf []byte) bool {
	if len(buf) >= 8 {
		nv := uint64(0x000000006c6c756e) // "null"
		mask4 := uint64(0x00000000ffffffff)
		locval := binary.LittleEndian.Uint64(buf)
		err := locval&mask4 ^ nv
		err |= uint64(isNotStructuralOrWhitespace(buf[4]))
		return err == 0
	}
	if len(buf) >= 5 {
		return bytes.Equal(buf[:4], []byte("null")) && isNotStructuralOrWhitespace(buf[4]) == 0
	}
	return len(buf) == 4 && bytes.Equal(buf, []byte("null"))
}

// writeNumber parses the number at buf and writes its tape entry.
func (p *parser) writeNumber(buf []byte) ErrorKind {
	tag, ival, fval, flags, errKind := parseNumber(buf)
	switch tag {
	case TagInteger, TagUint:
		p.writeTapeTagVal(tag, ival)
	case TagFloat:
		p.writeTapeTagValFlags(TagFloat, math.Float64bits(fval), uint64(flags))
	default:
		return errKind
	}
	return errNone
}

// buildTape is the Stage 2 machine.
func (p *parser) buildTape() *ParseError {
	var (
		buf      = p.Message
		indexes  = p.indexes
		i        int // cursor into the structural index vector
		idx      int // byte offset of the current structural
		offset   uint64
		count    uint32
		errKind  ErrorKind
		maxDepth = p.maxDepth
	)
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	update := func() bool {
		if i >= len(indexes) {
			return false
		}
		idx = int(indexes[i])
		i++
		return true
	}
	fail := func(kind ErrorKind) *ParseError {
		if kind == EarlyEnd {
			// The index vector ran out: the failure is the end of the buffer.
			return &ParseError{Offset: len(buf), Structural: i, kind: kind}
		}
		c := byte(0)
		if idx < len(buf) {
			c = buf[idx]
		}
		return &ParseError{Offset: idx, Structural: i, Char: c, kind: kind}
	}

	p.scopes = append(p.scopes[:0], p.currentLoc()<<retAddressShift|retAddressRoot)
	p.counts = append(p.counts[:0], 0)
	p.writeTape(0, 'r') // the root captures the size of the tape

	if !update() {
		return fail(EarlyEnd)
	}
	switch buf[idx] {
	case '{':
		p.scopes = append(p.scopes, p.currentLoc()<<retAddressShift|retAddressRoot)
		p.counts = append(p.counts, 0)
		p.writeTape(0, buf[idx])
		goto objectBegin
	case '[':
		p.scopes = append(p.scopes, p.currentLoc()<<retAddressShift|retAddressRoot)
		p.counts = append(p.counts, 0)
		p.writeTape(0, buf[idx])
		goto arrayBegin
	case '"':
		if err := p.parseString(idx); err != nil {
			err.Structural = i
			return err
		}
	case 't':
		if !isValidTrueAtom(buf[idx:]) {
			return fail(ExpectedBoolean)
		}
		p.writeTape(0, buf[idx])
	case 'f':
		if !isValidFalseAtom(buf[idx:]) {
			return fail(ExpectedBoolean)
		}
		p.writeTape(0, buf[idx])
	case 'n':
		if !isValidNullAtom(buf[idx:]) {
			return fail(ExpectedNull)
		}
		p.writeTape(0, buf[idx])
	case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '-':
		if errKind = p.writeNumber(buf[idx:]); errKind != errNone {
			return fail(errKind)
		}
	default:
		return fail(Syntax)
	}

startContinue:
	// Back at document level: nothing may follow the value.
	if update() {
		return fail(TrailingContent)
	}
	goto succeed

	//////////////////////////////// OBJECT STATES /////////////////////////////

objectBegin:
	if !update() {
		return fail(EarlyEnd)
	}
	switch buf[idx] {
	case '"':
		p.counts[len(p.counts)-1]++
		if err := p.parseString(idx); err != nil {
			err.Structural = i
			return err
		}
		goto objectKeyState
	case '}':
		goto scopeEnd
	default:
		return fail(ExpectedObjectKey)
	}

objectKeyState:
	if !update() {
		return fail(EarlyEnd)
	}
	if buf[idx] != ':' {
		return fail(ExpectedColon)
	}
	if !update() {
		return fail(EarlyEnd)
	}
	switch buf[idx] {
	case '"':
		if err := p.parseString(idx); err != nil {
			err.Structural = i
			return err
		}
	case 't':
		if !isValidTrueAtom(buf[idx:]) {
			return fail(ExpectedBoolean)
		}
		p.writeTape(0, buf[idx])
	case 'f':
		if !isValidFalseAtom(buf[idx:]) {
			return fail(ExpectedBoolean)
		}
		p.writeTape(0, buf[idx])
	case 'n':
		if !isValidNullAtom(buf[idx:]) {
			return fail(ExpectedNull)
		}
		p.writeTape(0, buf[idx])
	case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '-':
		if errKind = p.writeNumber(buf[idx:]); errKind != errNone {
			return fail(errKind)
		}
	case '{':
		if len(p.scopes) > maxDepth {
			return fail(MaxDepthExceeded)
		}
		p.scopes = append(p.scopes, p.currentLoc()<<retAddressShift|retAddressObj)
		p.counts = append(p.counts, 0)
		p.writeTape(0, buf[idx])
		goto objectBegin
	case '[':
		if len(p.scopes) > maxDepth {
			return fail(MaxDepthExceeded)
		}
		p.scopes = append(p.scopes, p.currentLoc()<<retAddressShift|retAddressObj)
		p.counts = append(p.counts, 0)
		p.writeTape(0, buf[idx])
		goto arrayBegin
	default:
		return fail(ExpectedObjectContent)
	}

objectContinue:
	if !update() {
		return fail(EarlyEnd)
	}
	switch buf[idx] {
	case ',':
		if !update() {
			return fail(EarlyEnd)
		}
		if buf[idx] != '"' {
			return fail(ExpectedObjectKey)
		}
		p.counts[len(p.counts)-1]++
		if err := p.parseString(idx); err != nil {
			err.Structural = i
			return err
		}
		goto objectKeyState
	case '}':
		goto scopeEnd
	default:
		return fail(ExpectedObjectComma)
	}

	////////////////////////////// COMMON STATE /////////////////////////////

scopeEnd:
	offset = p.scopes[len(p.scopes)-1]
	p.scopes = p.scopes[:len(p.scopes)-1]
	count = p.counts[len(p.counts)-1]
	p.counts = p.counts[:len(p.counts)-1]

	p.writeTape(offset>>retAddressShift, buf[idx])
	p.annotateScope(offset>>retAddressShift, p.currentLoc(), int(count))

	switch offset & (1<<retAddressShift - 1) {
	case retAddressArr:
		goto arrayContinue
	case retAddressObj:
		goto objectContinue
	default:
		goto startContinue
	}

	////////////////////////////// ARRAY STATES /////////////////////////////

arrayBegin:
	if !update() {
		return fail(EarlyEnd)
	}
	if buf[idx] == ']' {
		goto scopeEnd
	}

mainArraySwitch:
	// All paths in call update, so a closing bracket is handled on the
	// paths that can accept one (at the start and after a comma).
	p.counts[len(p.counts)-1]++
	switch buf[idx] {
	case '"':
		if err := p.parseString(idx); err != nil {
			err.Structural = i
			return err
		}
	case 't':
		if !isValidTrueAtom(buf[idx:]) {
			return fail(ExpectedBoolean)
		}
		p.writeTape(0, buf[idx])
	case 'f':
		if !isValidFalseAtom(buf[idx:]) {
			return fail(ExpectedBoolean)
		}
		p.writeTape(0, buf[idx])
	case 'n':
		if !isValidNullAtom(buf[idx:]) {
			return fail(ExpectedNull)
		}
		p.writeTape(0, buf[idx])
	case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '-':
		if errKind = p.writeNumber(buf[idx:]); errKind != errNone {
			return fail(errKind)
		}
	case '{':
		if len(p.scopes) > maxDepth {
			return fail(MaxDepthExceeded)
		}
		p.scopes = append(p.scopes, p.currentLoc()<<retAddressShift|retAddressArr)
		p.counts = append(p.counts, 0)
		p.writeTape(0, buf[idx])
		goto objectBegin
	case '[':
		if len(p.scopes) > maxDepth {
			return fail(MaxDepthExceeded)
		}
		p.scopes = append(p.scopes, p.currentLoc()<<retAddressShift|retAddressArr)
		p.counts = append(p.counts, 0)
		p.writeTape(0, buf[idx])
		goto arrayBegin
	default:
		return fail(ExpectedArrayContent)
	}

arrayContinue:
	if !update() {
		return fail(EarlyEnd)
	}
	switch buf[idx] {
	case ',':
		if !update() {
			return fail(EarlyEnd)
		}
		goto mainArraySwitch
	case ']':
		goto scopeEnd
	default:
		return fail(ExpectedArrayComma)
	}

	////////////////////////////// FINAL STATE /////////////////////////////

succeed:
	offset = p.scopes[len(p.scopes)-1]
	p.scopes = p.scopes[:len(p.scopes)-1]
	p.counts = p.counts[:len(p.counts)-1]
	if len(p.scopes) != 0 {
		return fail(InternalError)
	}

	p.annotateRoot(offset>>retAddressShift, p.currentLoc()+1)
	p.writeTape(offset>>retAddressShift, 'r')
	return nil
}

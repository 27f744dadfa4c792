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
	"math/bits"
)

// Stage 1 locates every structural byte and validates UTF-8 in a
// single forward pass over 64-byte chunks. Carried state between
// chunks is three scalars (odd-backslash end, inside-quote, pseudo-
// structural predecessor) plus the UTF-8 checker lanes.

const paddingSpaces = "                                                                "

// Documents of 4 GiB or more are rejected: structural indexes are 32-bit.
const maxDocumentSize = 1 << 32

const (
	evenBits = 0x5555555555555555
	oddBits  = ^uint64(evenBits)
)

// findOddBackslashSequences classifies runs of consecutive backslashes
// as odd or even length and returns the mask of positions immediately
// following an odd-length run. Those positions are escaped and must be
// excluded from quote classification. prevIterEndsOddBackslash carries
// a run that straddles the chunk boundary.
func findOddBackslashSequences(in *input64, prevIterEndsOddBackslash *uint64) uint64 {
	bsBits := in.cmpMask('\\')
	startEdges := bsBits &^ (bsBits << 1)

	evenStartMask := uint64(evenBits) ^ *prevIterEndsOddBackslash
	evenStarts := startEdges & evenStartMask
	oddStarts := startEdges &^ evenStartMask

	evenCarries := bsBits + evenStarts
	oddCarries, endsOdd := bits.Add64(bsBits, oddStarts, 0)
	oddCarries |= *prevIterEndsOddBackslash
	*prevIterEndsOddBackslash = endsOdd

	evenCarryEnds := evenCarries &^ bsBits
	oddCarryEnds := oddCarries &^ bsBits
	evenStartOddEnd := evenCarryEnds & oddBits
	oddStartEvenEnd := oddCarryEnds & evenBits
	return evenStartOddEnd | oddStartEvenEnd
}

// findQuoteMaskAndBits returns the quote mask: bits set between each
// pair of unescaped quotes, including the opener and excluding the
// closer. Unescaped control characters inside the mask are recorded
// in errorMask. prevIterInsideQuote is all-ones when the previous
// chunk ended inside a string.
func findQuoteMaskAndBits(in *input64, oddEnds uint64, prevIterInsideQuote, quoteBits, errorMask *uint64) (quoteMask uint64) {
	*quoteBits = in.cmpMask('"') &^ oddEnds
	quoteMask = prefixXor(*quoteBits) ^ *prevIterInsideQuote

	unescaped := in.leMask(0x1f)
	*errorMask |= quoteMask & unescaped

	*prevIterInsideQuote = uint64(int64(quoteMask) >> 63)
	return
}

// findWhitespaceAndStructurals classifies the chunk through the two
// nibble tables.
func findWhitespaceAndStructurals(in *input64, whitespace, structurals *uint64) {
	*whitespace, *structurals = in.classify()
}

// finalizeStructurals drops structurals inside strings and adds
// pseudo-structurals: the first byte of every primitive, plus the
// opening quote of each string, so that Stage 2 never has to skip
// whitespace.
func finalizeStructurals(structurals, whitespace, quoteMask, quoteBits uint64, prevIterEndsPseudoPred *uint64) uint64 {
	structurals &^= quoteMask
	structurals |= quoteBits

	pseudoPredecessor := structurals | whitespace
	shifted := pseudoPredecessor<<1 | *prevIterEndsPseudoPred
	*prevIterEndsPseudoPred = pseudoPredecessor >> 63

	pseudoStructurals := shifted &^ whitespace &^ quoteMask
	structurals |= pseudoStructurals

	// Drop the closing quotes; the opener carries the string.
	structurals &^= quoteBits &^ quoteMask
	return structurals
}

// flattenBits appends the position of every set bit in mask, offset by
// base, to dst. Stores are amortized four per step; the slice is grown
// in whole groups so the inner loop writes without bounds checks, then
// truncated to the true count.
func flattenBits(dst []uint32, base uint32, mask uint64) []uint32 {
	if mask == 0 {
		return dst
	}
	cnt := bits.OnesCount64(mask)
	l := len(dst)
	need := (cnt + 3) &^ 3
	if cap(dst)-l < need {
		grown := make([]uint32, l, cap(dst)*2+need)
		copy(grown, dst)
		dst = grown
	}
	dst = dst[: l+need : cap(dst)]
	for j := l; j < l+need; j += 4 {
		dst[j] = base + uint32(bits.TrailingZeros64(mask))
		mask &= mask - 1
		dst[j+1] = base + uint32(bits.TrailingZeros64(mask))
		mask &= mask - 1
		dst[j+2] = base + uint32(bits.TrailingZeros64(mask))
		mask &= mask - 1
		dst[j+3] = base + uint32(bits.TrailingZeros64(mask))
		mask &= mask - 1
	}
	return dst[:l+cnt]
}

type stage1State struct {
	prevIterEndsOddBackslash uint64
	prevIterInsideQuote      uint64
	prevIterEndsPseudoPred   uint64

	checker utf8Checker

	controlOffset int // first unescaped control char inside a string
	utf8Offset    int // chunk where UTF-8 validation first failed
}

// findStructuralIndexes runs Stage 1 over p.Message, filling
// p.indexes with the offset of every structural byte.
func (p *parser) findStructuralIndexes() *ParseError {
	buf := p.Message
	n := len(buf)
	if n == 0 {
		return parseError(EarlyEnd, 0, 0)
	}
	if uint64(n) >= maxDocumentSize {
		return parseError(DocumentTooLarge, 0, 0)
	}

	// Heuristic reservation; flattenBits grows in the rare case the
	// document is denser than one structural per six bytes.
	needed := n/6 + 64
	if cap(p.indexes) < needed {
		p.indexes = make([]uint32, 0, needed)
	} else {
		p.indexes = p.indexes[:0]
	}

	s := stage1State{
		prevIterEndsPseudoPred: 1, // the first byte follows "whitespace"
		controlOffset:          -1,
		utf8Offset:             -1,
	}

	idx := 0
	if wideScan {
		for ; idx+2*chunkSize <= n; idx += 2 * chunkSize {
			p.scanChunk(buf[idx:idx+chunkSize], idx, &s)
			p.scanChunk(buf[idx+chunkSize:idx+2*chunkSize], idx+chunkSize, &s)
		}
	}
	for ; idx+chunkSize <= n; idx += chunkSize {
		p.scanChunk(buf[idx:idx+chunkSize], idx, &s)
	}
	if idx < n {
		// The remainder is padded out with spaces so the quote and
		// UTF-8 state machines see a clean tail.
		var tmp [chunkSize]byte
		remain := copy(tmp[:], buf[idx:])
		copy(tmp[remain:], paddingSpaces)
		p.scanChunk(tmp[:], idx, &s)
	}
	s.checker.finish()

	if s.checker.hasError {
		off := s.utf8Offset
		if off < 0 {
			off = 0
		}
		return parseError(Utf8Error, off, buf[off])
	}
	if s.controlOffset >= 0 {
		return parseError(UnescapedControlInString, s.controlOffset, buf[s.controlOffset])
	}
	if s.prevIterInsideQuote != 0 {
		return parseError(EarlyEnd, n, 0)
	}
	if len(p.indexes) == 0 {
		// Whitespace only.
		return parseError(EarlyEnd, n, 0)
	}
	return nil
}

func (p *parser) scanChunk(chunk []byte, base int, s *stage1State) {
	in := loadInput64(chunk)

	ascii := in.highBits() == 0
	hadUtf8Error := s.checker.hasError
	s.checker.check64(chunk, ascii)
	if !hadUtf8Error && s.checker.hasError && s.utf8Offset < 0 {
		s.utf8Offset = base
	}

	oddEnds := findOddBackslashSequences(&in, &s.prevIterEndsOddBackslash)

	var quoteBits, errorMask uint64
	quoteMask := findQuoteMaskAndBits(&in, oddEnds, &s.prevIterInsideQuote, &quoteBits, &errorMask)
	if errorMask != 0 && s.controlOffset < 0 {
		s.controlOffset = base + bits.TrailingZeros64(errorMask)
	}

	var whitespace, structurals uint64
	findWhitespaceAndStructurals(&in, &whitespace, &structurals)

	structurals = finalizeStructurals(structurals, whitespace, quoteMask, quoteBits, &s.prevIterEndsPseudoPred)
	p.indexes = flattenBits(p.indexes, uint32(base), structurals)
}

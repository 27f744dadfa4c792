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
	"strconv"
)

// Exact powers of ten in float64. Multiplying or dividing an exactly
// representable significand by one of these rounds correctly, which
// makes the common case a single multiply or divide.
var pow10Table = [23]float64{
	1e0, 1e1, 1e2, 1e3, 1e4, 1e5, 1e6, 1e7, 1e8, 1e9, 1e10, 1e11,
	1e12, 1e13, 1e14, 1e15, 1e16, 1e17, 1e18, 1e19, 1e20, 1e21, 1e22,
}

// These are the only bytes that may follow a number (or atom):
// structural characters, whitespace and the padding zero byte.
var structuralOrWhitespaceNegated = [256]byte{
	0, 1, 1, 1, 1, 1, 1, 1, 1, 0, 0, 1, 1, 0, 1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0, 1, 1, 1, 1, 1,

	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 0, 1, 0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0, 1, 0, 1, 1,

	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,

	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
}

func isNotStructuralOrWhitespace(c byte) byte {
	return structuralOrWhitespaceNegated[c]
}

// parseNumber parses the JSON number beginning at buf[0] per RFC 8259.
// It returns the tape tag of the parsed value: TagInteger with i set,
// TagUint for values above the int64 range, or TagFloat with f set.
// tag is TagEnd on failure, with the failure classified in errKind.
// Integer notation that under/overflows both int64 and uint64 is
// converted to a float and flagged.
func parseNumber(buf []byte) (tag Tag, i uint64, f float64, flags FloatFlags, errKind ErrorKind) {
	pos := 0
	neg := false
	if len(buf) == 0 {
		return TagEnd, 0, 0, 0, InvalidNumber
	}
	if buf[0] == '-' {
		neg = true
		pos = 1
	}
	if pos >= len(buf) || buf[pos] < '0' || buf[pos] > '9' {
		return TagEnd, 0, 0, 0, InvalidNumber
	}

	// Integer part. Leading zeros are forbidden.
	var mantissa uint64
	intStart := pos
	if buf[pos] == '0' {
		pos++
		if pos < len(buf) && buf[pos] >= '0' && buf[pos] <= '9' {
			return TagEnd, 0, 0, 0, InvalidNumber
		}
	} else {
		for pos < len(buf) && buf[pos] >= '0' && buf[pos] <= '9' {
			mantissa = mantissa*10 + uint64(buf[pos]-'0')
			pos++
		}
	}
	intDigits := pos - intStart

	isFloat := false
	fracDigits := 0
	if pos < len(buf) && buf[pos] == '.' {
		isFloat = true
		pos++
		fracStart := pos
		for pos < len(buf) && buf[pos] >= '0' && buf[pos] <= '9' {
			mantissa = mantissa*10 + uint64(buf[pos]-'0')
			pos++
		}
		fracDigits = pos - fracStart
		if fracDigits == 0 {
			return TagEnd, 0, 0, 0, InvalidNumber
		}
	}

	exp := 0
	if pos < len(buf) && (buf[pos] == 'e' || buf[pos] == 'E') {
		isFloat = true
		pos++
		expNeg := false
		if pos < len(buf) && (buf[pos] == '+' || buf[pos] == '-') {
			expNeg = buf[pos] == '-'
			pos++
		}
		if pos >= len(buf) || buf[pos] < '0' || buf[pos] > '9' {
			return TagEnd, 0, 0, 0, InvalidNumber
		}
		for pos < len(buf) && buf[pos] >= '0' && buf[pos] <= '9' {
			if exp < 1<<20 {
				exp = exp*10 + int(buf[pos]-'0')
			}
			pos++
		}
		if expNeg {
			exp = -exp
		}
	}

	if pos < len(buf) && isNotStructuralOrWhitespace(buf[pos]) != 0 {
		return TagEnd, 0, 0, 0, InvalidNumber
	}

	digits := intDigits + fracDigits

	if !isFloat {
		// Up to 18 digits cannot overflow the accumulator.
		if digits <= 18 {
			if neg {
				return TagInteger, uint64(-int64(mantissa)), 0, 0, errNone
			}
			if mantissa > math.MaxInt64 {
				return TagUint, mantissa, 0, 0, errNone
			}
			return TagInteger, mantissa, 0, 0, errNone
		}
		// Reparse carefully; the accumulator may have wrapped.
		v, err := strconv.ParseUint(string(buf[intStart:pos]), 10, 64)
		if err == nil {
			if neg {
				if v <= -math.MinInt64 {
					return TagInteger, uint64(-int64(v)), 0, 0, errNone
				}
			} else {
				if v <= math.MaxInt64 {
					return TagInteger, v, 0, 0, errNone
				}
				return TagUint, v, 0, 0, errNone
			}
		}
		// Integer notation beyond 64 bits: fall back to a float.
		f, errKind = parseFloatSlow(buf[:pos])
		if errKind != errNone {
			return TagEnd, 0, 0, 0, errKind
		}
		return TagFloat, 0, f, FloatOverflowedInteger, errNone
	}

	effExp := exp - fracDigits
	if digits <= 15 && effExp >= -22 && effExp <= 22 {
		// The significand is exact in a float64 and the scale is an
		// exact power of ten, so a single multiply (or divide, for
		// negative exponents) rounds correctly.
		f = float64(mantissa)
		if effExp < 0 {
			f /= pow10Table[-effExp]
		} else {
			f *= pow10Table[effExp]
		}
		if neg {
			f = -f
		}
		return TagFloat, 0, f, 0, errNone
	}

	f, errKind = parseFloatSlow(buf[:pos])
	if errKind != errNone {
		return TagEnd, 0, 0, 0, errKind
	}
	return TagFloat, 0, f, 0, errNone
}

// parseFloatSlow is the precise fallback: correctly rounded
// (round-nearest-even) decimal to binary conversion via the
// Eisel-Lemire path in strconv, bit-identical to the IEEE-754
// reference conversion.
func parseFloatSlow(buf []byte) (float64, ErrorKind) {
	f, err := strconv.ParseFloat(string(buf), 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			// Underflow rounds to zero (or a denormal) and is accepted;
			// values beyond the float64 range are not.
			if !math.IsInf(f, 0) {
				return f, errNone
			}
			return 0, NumberOutOfRange
		}
		return 0, InvalidNumber
	}
	return f, errNone
}

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
)

// ErrorKind classifies a parse failure.
type ErrorKind uint8

const (
	errNone ErrorKind = iota

	// Syntax is an unexpected token at the current position.
	Syntax
	// EarlyEnd means the buffer ended in the middle of a value.
	EarlyEnd
	// TrailingContent means non-whitespace followed the top-level value.
	TrailingContent

	// ExpectedBoolean through ExpectedMap are context-sensitive mismatches
	// raised while consuming the tape or building a tree.
	ExpectedBoolean
	ExpectedNull
	ExpectedString
	ExpectedNumber
	ExpectedArray
	ExpectedMap

	// Grammar violations inside containers.
	ExpectedArrayComma
	ExpectedObjectComma
	ExpectedColon
	ExpectedObjectKey
	ExpectedArrayContent
	ExpectedObjectContent

	// String-level failures.
	InvalidEscape
	InvalidUnicodeCodepoint

	// Number-level failures.
	InvalidNumber
	NumberOutOfRange

	// Detected during the structural scan.
	UnescapedControlInString
	Utf8Error

	// MaxDepthExceeded is returned when nesting passes the configured bound.
	MaxDepthExceeded
	// DocumentTooLarge is returned for inputs of 4 GiB or more.
	// Structural indexes are 32-bit, so this is a hard limit.
	DocumentTooLarge
	// DuplicateKey is returned when duplicate object keys are rejected
	// via WithRejectDuplicateKeys.
	DuplicateKey
	// InternalError indicates a broken invariant, i.e. a bug.
	InternalError
)

var errorKindNames = map[ErrorKind]string{
	Syntax:                   "syntax error",
	EarlyEnd:                 "unexpected end of input",
	TrailingContent:          "trailing content after top-level value",
	ExpectedBoolean:          "expected boolean",
	ExpectedNull:             "expected null",
	ExpectedString:           "expected string",
	ExpectedNumber:           "expected number",
	ExpectedArray:            "expected array",
	ExpectedMap:              "expected object",
	ExpectedArrayComma:       "expected comma between array elements",
	ExpectedObjectComma:      "expected comma between object members",
	ExpectedColon:            "expected colon after object key",
	ExpectedObjectKey:        "expected object key",
	ExpectedArrayContent:     "expected array element",
	ExpectedObjectContent:    "expected object value",
	InvalidEscape:            "invalid escape sequence",
	InvalidUnicodeCodepoint:  "invalid unicode codepoint",
	InvalidNumber:            "invalid number",
	NumberOutOfRange:         "number out of range",
	UnescapedControlInString: "unescaped control character in string",
	Utf8Error:                "invalid UTF-8",
	MaxDepthExceeded:         "maximum nesting depth exceeded",
	DocumentTooLarge:         "document too large",
	DuplicateKey:             "duplicate object key",
	InternalError:            "internal error",
}

// String returns a human readable description of the kind.
func (k ErrorKind) String() string {
	if s, ok := errorKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("unknown error kind (%d)", uint8(k))
}

// ParseError is the error type returned for malformed documents.
// It carries the byte offset of the failure, the 1-based structural
// index at which it occurred (0 when the failure precedes Stage 2)
// and the byte found at the offending position.
type ParseError struct {
	// Offset is the byte offset into the input.
	Offset int
	// Structural is the 1-based structural index, 0 if not applicable.
	Structural int
	// Char is the byte at the failure position.
	Char byte
	kind ErrorKind
}

// Kind returns the error classification.
func (e *ParseError) Kind() ErrorKind { return e.kind }

func (e *ParseError) Error() string {
	if e.Char == 0 {
		return fmt.Sprintf("%v at offset %d", e.kind, e.Offset)
	}
	return fmt.Sprintf("%v at offset %d (%q)", e.kind, e.Offset, e.Char)
}

// Is reports kind equality so callers can match with errors.Is
// against a bare &ParseError{kind: ...}.
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)
	return ok && t.kind == e.kind
}

func parseError(kind ErrorKind, offset int, c byte) *ParseError {
	return &ParseError{Offset: offset, Char: c, kind: kind}
}

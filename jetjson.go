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

// Package jetjson is a high-throughput JSON parser. A branch-light
// structural scan locates every structural byte and validates UTF-8
// at near memory speed; a second pass walks the structural indexes
// and emits a typed token tape without ever re-examining whitespace.
// The tape can be pulled token by token through Cursor/Token (with
// Object and Array views over container scopes), or materialized into
// a borrowed or owned value tree.
//
// A parser instance is single-threaded; independent parses may run
// concurrently since they share no state.
package jetjson

import (
	"fmt"
)

// parser holds the per-parse state: the document being built plus the
// structural index vector and the Stage 2 scope stacks. It is
// recycled across parses through the reuse argument of Parse.
type parser struct {
	Doc

	indexes []uint32
	scopes  []uint64
	counts  []uint32

	copyStrings      bool
	maxDepth         int
	rejectDuplicates bool
}

// Parse parses a block of JSON and returns the document tape.
// A previously returned *Doc can be supplied to reduce allocations.
//
// If b has at least 32 bytes of spare capacity it is parsed in place
// and must not be modified by the caller while the result is alive;
// otherwise it is copied into a padded internal buffer.
func Parse(b []byte, reuse *Doc, opts ...Option) (*Doc, error) {
	var p *parser
	if reuse != nil && reuse.internal != nil {
		p = reuse.internal
		p.Doc = *reuse
		p.Doc.internal = nil
	}
	if p == nil {
		p = &parser{}
	}
	p.copyStrings = true
	p.maxDepth = DefaultMaxDepth
	p.rejectDuplicates = false
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	if err := p.parseMessage(b); err != nil {
		return nil, err
	}
	parsed := &p.Doc
	parsed.internal = p
	return parsed, nil
}

// ToBorrowedTree parses b and materializes the borrowed value tree:
// string payloads are slices of the returned document's buffers, so
// the Doc must outlive the tree. The input is consumed per the Parse
// contract.
func ToBorrowedTree(b []byte, opts ...Option) (*Value, *Doc, error) {
	opts = append(opts, WithCopyStrings(false))
	d, err := Parse(b, nil, opts...)
	if err != nil {
		return nil, nil, err
	}
	v, err := d.BorrowedTree()
	if err != nil {
		return nil, nil, err
	}
	return v, d, nil
}

// ToOwnedTree parses b and materializes a self-contained value tree;
// b may be reused or discarded afterwards.
func ToOwnedTree(b []byte, opts ...Option) (*Value, error) {
	d, err := Parse(b, nil, opts...)
	if err != nil {
		return nil, err
	}
	return d.OwnedTree()
}

// parseMessage runs both stages over b.
func (p *parser) parseMessage(b []byte) error {
	p.initialize(b)

	if err := p.findStructuralIndexes(); err != nil {
		return err
	}
	if err := p.buildTape(); err != nil {
		return err
	}
	return nil
}

// initialize takes ownership of the input and sizes the buffers.
// Inputs without enough spare capacity for the padding contract are
// copied into an internal scratch buffer.
func (p *parser) initialize(b []byte) {
	if cap(b)-len(b) >= padding {
		p.Message = b
	} else {
		if cap(p.Message) >= len(b)+padding {
			p.Message = p.Message[:len(b)]
		} else {
			p.Message = make([]byte, len(b), len(b)+padding)
		}
		copy(p.Message, b)
	}

	// Dense documents (e.g. arrays of one-digit numbers, two words per
	// number) need more than one tape entry per input byte; start lower
	// and let append grow them.
	if cap(p.Tape) < len(b)/8+8 {
		p.Tape = make([]uint64, 0, len(b)/8+8)
	} else {
		p.Tape = p.Tape[:0]
	}

	stringsCap := len(b)/16 + 32
	if p.copyStrings {
		stringsCap = len(b) + padding
	}
	if cap(p.Strings) < stringsCap {
		p.Strings = make([]byte, 0, stringsCap)
	} else {
		p.Strings = p.Strings[:0]
	}

	p.scopes = p.scopes[:0]
	p.counts = p.counts[:0]
}

// Option configures a parse.
type Option func(*parser) error

// WithCopyStrings controls whether string payloads are copied into
// the separate Strings arena. Pointing back into the message buffer
// is faster and allocation-free, but ties every string to the input;
// the default is to copy.
func WithCopyStrings(copy bool) Option {
	return func(p *parser) error {
		p.copyStrings = copy
		return nil
	}
}

// WithMaxDepth overrides the container nesting bound.
// The default is DefaultMaxDepth.
func WithMaxDepth(n int) Option {
	return func(p *parser) error {
		if n <= 0 {
			return fmt.Errorf("max depth must be positive, got %d", n)
		}
		p.maxDepth = n
		return nil
	}
}

// WithRejectDuplicateKeys makes tree materialization fail with a
// DuplicateKey error when an object repeats a key. By default all
// pairs are retained in order and lookups return the last value.
func WithRejectDuplicateKeys(reject bool) Option {
	return func(p *parser) error {
		p.rejectDuplicates = reject
		return nil
	}
}

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
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
)

// Serializer persists a parsed document (tape, string arena and
// message) as a compact blob and reads it back. A Serializer can be
// reused, but not used concurrently.
type Serializer struct {
	mode CompressMode

	// scratch for the packed tape words
	tapeBuf []byte
	compBuf []byte

	zEnc *zstd.Encoder
	zDec *zstd.Decoder
}

// CompressMode sets the serialization compression.
type CompressMode uint8

const (
	// CompressNone stores sections raw.
	CompressNone CompressMode = iota
	// CompressFast compresses with s2 at default speed.
	CompressFast
	// CompressDefault compresses with s2 at better compression.
	CompressDefault
	// CompressBest compresses with zstd.
	CompressBest
)

const (
	serializedVersion = 1
)

var serializedMagic = [4]byte{'j', 't', 'a', 'p'}

// NewSerializer returns a Serializer using CompressDefault.
func NewSerializer() *Serializer {
	return &Serializer{mode: CompressDefault}
}

// CompressMode changes the compression of subsequent Serialize calls.
func (s *Serializer) CompressMode(mode CompressMode) {
	if mode > CompressBest {
		panic("unknown compression mode")
	}
	s.mode = mode
}

func (s *Serializer) compress(raw []byte) ([]byte, CompressMode) {
	switch s.mode {
	case CompressNone:
		return raw, CompressNone
	case CompressFast:
		s.compBuf = s2.Encode(s.compBuf[:0], raw)
	case CompressDefault:
		s.compBuf = s2.EncodeBetter(s.compBuf[:0], raw)
	case CompressBest:
		if s.zEnc == nil {
			enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression), zstd.WithEncoderConcurrency(1))
			if err != nil {
				// Should not happen with fixed options; keep the
				// output readable by falling back to s2.
				s.compBuf = s2.EncodeBetter(s.compBuf[:0], raw)
				if len(s.compBuf) < len(raw) {
					return s.compBuf, CompressDefault
				}
				return raw, CompressNone
			}
			s.zEnc = enc
		}
		s.compBuf = s.zEnc.EncodeAll(raw, s.compBuf[:0])
	}
	if len(s.compBuf) >= len(raw) {
		// Incompressible; store raw.
		return raw, CompressNone
	}
	return s.compBuf, s.mode
}

func appendSection(dst, payload []byte, rawLen int, mode CompressMode) []byte {
	dst = append(dst, byte(mode))
	dst = binary.AppendUvarint(dst, uint64(rawLen))
	dst = binary.AppendUvarint(dst, uint64(len(payload)))
	return append(dst, payload...)
}

// Serialize appends the serialized document to dst and returns it.
func (s *Serializer) Serialize(dst []byte, d Doc) []byte {
	dst = append(dst, serializedMagic[:]...)
	dst = append(dst, serializedVersion)

	if cap(s.tapeBuf) < len(d.Tape)*8 {
		s.tapeBuf = make([]byte, len(d.Tape)*8)
	}
	s.tapeBuf = s.tapeBuf[:len(d.Tape)*8]
	for i, v := range d.Tape {
		binary.LittleEndian.PutUint64(s.tapeBuf[i*8:], v)
	}

	for _, raw := range [][]byte{s.tapeBuf, d.Strings, d.Message} {
		payload, mode := s.compress(raw)
		dst = appendSection(dst, payload, len(raw), mode)
	}
	return dst
}

func (s *Serializer) decompress(dst, payload []byte, rawLen int, mode CompressMode) ([]byte, error) {
	switch mode {
	case CompressNone:
		if len(payload) != rawLen {
			return nil, errors.New("raw section length mismatch")
		}
		return append(dst[:0], payload...), nil
	case CompressFast, CompressDefault:
		if cap(dst) < rawLen {
			dst = make([]byte, rawLen)
		}
		out, err := s2.Decode(dst[:rawLen], payload)
		if err != nil {
			return nil, err
		}
		return out, nil
	case CompressBest:
		if s.zDec == nil {
			dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
			if err != nil {
				return nil, err
			}
			s.zDec = dec
		}
		out, err := s.zDec.DecodeAll(payload, dst[:0])
		if err != nil {
			return nil, err
		}
		if len(out) != rawLen {
			return nil, errors.New("decompressed section length mismatch")
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown section compression (%d)", mode)
}

func readSection(src []byte) (payload []byte, rawLen int, mode CompressMode, rest []byte, err error) {
	if len(src) < 1 {
		return nil, 0, 0, nil, errors.New("truncated section header")
	}
	mode = CompressMode(src[0])
	src = src[1:]
	raw, n := binary.Uvarint(src)
	if n <= 0 {
		return nil, 0, 0, nil, errors.New("truncated section length")
	}
	src = src[n:]
	compLen, n := binary.Uvarint(src)
	if n <= 0 {
		return nil, 0, 0, nil, errors.New("truncated section length")
	}
	src = src[n:]
	if uint64(len(src)) < compLen {
		return nil, 0, 0, nil, errors.New("truncated section payload")
	}
	return src[:compLen], int(raw), mode, src[compLen:], nil
}

// Deserialize reads a serialized document. An optional destination
// can be given to reuse buffers.
func (s *Serializer) Deserialize(src []byte, dst *Doc) (*Doc, error) {
	if len(src) < 5 || string(src[:4]) != string(serializedMagic[:]) {
		return nil, errors.New("not a serialized document")
	}
	if src[4] != serializedVersion {
		return nil, fmt.Errorf("unknown serialized version (%d)", src[4])
	}
	src = src[5:]
	if dst == nil {
		dst = &Doc{}
	}

	tapeRaw, rawLen, mode, src, err := readSection(src)
	if err != nil {
		return nil, err
	}
	if rawLen&7 != 0 {
		return nil, errors.New("unexpected tape length, should be modulo 8 bytes")
	}
	s.tapeBuf, err = s.decompress(s.tapeBuf, tapeRaw, rawLen, mode)
	if err != nil {
		return nil, err
	}
	if cap(dst.Tape) < rawLen/8 {
		dst.Tape = make([]uint64, rawLen/8)
	}
	dst.Tape = dst.Tape[:rawLen/8]
	for i := range dst.Tape {
		dst.Tape[i] = binary.LittleEndian.Uint64(s.tapeBuf[i*8:])
	}

	strRaw, rawLen, mode, src, err := readSection(src)
	if err != nil {
		return nil, err
	}
	dst.Strings, err = s.decompress(dst.Strings, strRaw, rawLen, mode)
	if err != nil {
		return nil, err
	}

	msgRaw, rawLen, mode, _, err := readSection(src)
	if err != nil {
		return nil, err
	}
	dst.Message, err = s.decompress(dst.Message, msgRaw, rawLen, mode)
	if err != nil {
		return nil, err
	}
	return dst, nil
}

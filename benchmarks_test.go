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
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
)

// benchDoc builds a representative document: an array of records with
// mixed strings, numbers and booleans.
func benchDoc(records int) []byte {
	var sb strings.Builder
	sb.WriteByte('[')
	for i := 0; i < records; i++ {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(`{"id":`)
		sb.WriteString(strconv.Itoa(i))
		sb.WriteString(`,"name":"user-`)
		sb.WriteString(strconv.Itoa(i))
		sb.WriteString(`","score":`)
		sb.WriteString(strconv.FormatFloat(float64(i)*1.25, 'g', -1, 64))
		sb.WriteString(`,"active":`)
		if i%2 == 0 {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
		sb.WriteString(`,"tags":["a","b","c"]}`)
	}
	sb.WriteByte(']')
	return []byte(sb.String())
}

func BenchmarkParse(b *testing.B) {
	msg := benchDoc(1000)
	b.SetBytes(int64(len(msg)))
	b.ReportAllocs()
	var reuse *Doc
	var err error
	for i := 0; i < b.N; i++ {
		reuse, err = Parse(msg, reuse)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParseNoCopyStrings(b *testing.B) {
	msg := benchDoc(1000)
	b.SetBytes(int64(len(msg)))
	b.ReportAllocs()
	var reuse *Doc
	var err error
	for i := 0; i < b.N; i++ {
		reuse, err = Parse(msg, reuse, WithCopyStrings(false))
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkOwnedTree(b *testing.B) {
	msg := benchDoc(1000)
	b.SetBytes(int64(len(msg)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := ToOwnedTree(msg); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEncodingJson(b *testing.B) {
	msg := benchDoc(1000)
	b.SetBytes(int64(len(msg)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		var v interface{}
		if err := json.Unmarshal(msg, &v); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkJsoniter(b *testing.B) {
	msg := benchDoc(1000)
	b.SetBytes(int64(len(msg)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		var v interface{}
		if err := jsoniter.Unmarshal(msg, &v); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkStage1(b *testing.B) {
	msg := benchDoc(1000)
	b.SetBytes(int64(len(msg)))
	b.ReportAllocs()
	p := &parser{copyStrings: true}
	for i := 0; i < b.N; i++ {
		p.initialize(msg)
		if err := p.findStructuralIndexes(); err != nil {
			b.Fatal(err)
		}
	}
}

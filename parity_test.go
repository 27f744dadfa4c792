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
	"testing"

	"github.com/google/go-cmp/cmp"
	jsoniter "github.com/json-iterator/go"
)

var parityCorpus = []string{
	`{}`,
	`[]`,
	`null`,
	`true`,
	`false`,
	`0`,
	`-0.5`,
	`"string"`,
	`{"a":1,"b":2.5,"c":"three","d":[1,2,3],"e":{"f":null}}`,
	`[[[[[]]]]]`,
	`{"esc":"quote \" backslash \\ slash \/ tab \t newline \n"}`,
	`{"uni":"é中𝄞"}`,
	`[1e10,1e-10,123456789.123456789,-9876.54321]`,
	`[9223372036854775807,-9223372036854775808]`,
	`{"deep":{"nested":{"structure":{"with":["mixed",1,true,null,2.5]}}}}`,
	`"héllo wörld 日本語"`,
	`[0.1,0.2,0.3,0.4,0.5,0.6,0.7,0.8,0.9]`,
	demoJSON,
}

// canonical re-parses any JSON text with the stdlib so number
// representation differences wash out.
func canonical(t *testing.T, data []byte) interface{} {
	t.Helper()
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("canonicalize %s: %v", data, err)
	}
	return v
}

func TestParityWithStdlib(t *testing.T) {
	for _, input := range parityCorpus {
		doc, err := Parse([]byte(input), nil)
		if err != nil {
			t.Errorf("%s: %v", input, err)
			continue
		}
		out, err := doc.MarshalJSON()
		if err != nil {
			t.Errorf("%s: %v", input, err)
			continue
		}
		if diff := cmp.Diff(canonical(t, []byte(input)), canonical(t, out)); diff != "" {
			t.Errorf("%s: mismatch (-stdlib +jetjson):\n%s", input, diff)
		}
	}
}

func TestParityWithJsoniter(t *testing.T) {
	for _, input := range parityCorpus {
		v, err := ToOwnedTree([]byte(input))
		if err != nil {
			t.Errorf("%s: %v", input, err)
			continue
		}
		out, err := v.MarshalJSON()
		if err != nil {
			t.Errorf("%s: %v", input, err)
			continue
		}
		var want, got interface{}
		if err := jsoniter.Unmarshal([]byte(input), &want); err != nil {
			t.Fatalf("jsoniter rejects %s: %v", input, err)
		}
		if err := jsoniter.Unmarshal(out, &got); err != nil {
			t.Fatalf("jsoniter rejects re-encoded %s: %v", out, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%s: mismatch (-jsoniter +jetjson):\n%s", input, diff)
		}
	}
}

func TestParityErrors(t *testing.T) {
	// Documents the stdlib rejects should be rejected here too.
	inputs := []string{
		``,
		`{`,
		`[`,
		`"`,
		`{]`,
		`[}`,
		`[1,]`,
		`{"a":}`,
		`{"a":1,}`,
		`tru`,
		`nulll`,
		`01`,
		`1.`,
		`+1`,
		`.5`,
		`[1 2]`,
		`"\q"`,
		"\"tab\there\"",
	}
	for _, input := range inputs {
		var v interface{}
		if err := json.Unmarshal([]byte(input), &v); err == nil {
			t.Fatalf("test expectation wrong: stdlib accepts %q", input)
		}
		if _, err := Parse([]byte(input), nil); err == nil {
			t.Errorf("%q: expected error", input)
		}
	}
}

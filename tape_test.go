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
	"strings"
	"testing"
)

const demoJSON = `{
	"Image": {
		"Width": 800,
		"Height": 600,
		"Title": "View from 15th Floor",
		"Thumbnail": {
			"Url": "http://www.example.com/image/481989943",
			"Height": 125,
			"Width": 100
		},
		"Animated": false,
		"IDs": [116, 943, 234, 38793]
	}
}`

func TestTokenWalk(t *testing.T) {
	doc, err := Parse([]byte(demoJSON), nil)
	if err != nil {
		t.Fatal(err)
	}
	root, err := doc.First()
	if err != nil {
		t.Fatal(err)
	}
	if root.Type() != TypeObject {
		t.Fatalf("expected object, got %v", root.Type())
	}
	if n, exact := root.Len(); n != 1 || !exact {
		t.Fatalf("expected 1 member, got %d (exact %v)", n, exact)
	}
	obj, err := root.Object()
	if err != nil {
		t.Fatal(err)
	}

	img, ok := obj.Get("Image")
	if !ok {
		t.Fatal("Image not found")
	}
	imgObj, err := img.Object()
	if err != nil {
		t.Fatal(err)
	}
	width, ok := imgObj.Get("Width")
	if !ok {
		t.Fatal("Width not found")
	}
	if v, err := width.Int(); err != nil || v != 800 {
		t.Fatalf("Width: got %d, %v", v, err)
	}

	url, err := obj.Path("Image", "Thumbnail", "Url")
	if err != nil {
		t.Fatal(err)
	}
	if s, err := url.String(); err != nil || s != "http://www.example.com/image/481989943" {
		t.Fatalf("path: got %q, %v", s, err)
	}
	if _, err := obj.Path("Image", "Missing"); err != ErrPathNotFound {
		t.Fatalf("expected ErrPathNotFound, got %v", err)
	}

	ids, err := obj.Path("Image", "IDs")
	if err != nil {
		t.Fatal(err)
	}
	arr, err := ids.Array()
	if err != nil {
		t.Fatal(err)
	}
	if arr.Len() != 4 {
		t.Fatalf("expected 4 IDs, got %d", arr.Len())
	}
	got, err := arr.AsInt64()
	if err != nil {
		t.Fatal(err)
	}
	want := []int64{116, 943, 234, 38793}
	for j := range want {
		if got[j] != want[j] {
			t.Fatalf("IDs: got %v want %v", got, want)
		}
	}
}

func TestObjectNext(t *testing.T) {
	doc, err := Parse([]byte(`{"a":1,"b":"two","c":[3]}`), nil)
	if err != nil {
		t.Fatal(err)
	}
	root, err := doc.First()
	if err != nil {
		t.Fatal(err)
	}
	obj, err := root.Object()
	if err != nil {
		t.Fatal(err)
	}
	var keys []string
	var types []Type
	for {
		k, v, ok, err := obj.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		keys = append(keys, string(k))
		types = append(types, v.Type())
	}
	if strings.Join(keys, ",") != "a,b,c" {
		t.Fatalf("keys: %v", keys)
	}
	wantTypes := []Type{TypeInt, TypeString, TypeArray}
	for i := range wantTypes {
		if types[i] != wantTypes[i] {
			t.Fatalf("types: %v", types)
		}
	}
}

// reencode parses input and marshals it back.
func reencode(t *testing.T, input []byte) []byte {
	t.Helper()
	doc, err := Parse(input, nil)
	if err != nil {
		t.Fatalf("parse %q: %v", input, err)
	}
	out, err := doc.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal %q: %v", input, err)
	}
	return out
}

func TestReencodeIdempotent(t *testing.T) {
	inputs := []string{
		`{}`,
		`[]`,
		`[1,2,3]`,
		`{"a":1,"b":[true,false,null],"c":"str"}`,
		`{"esc":"a\"b\\c\nd"}`,
		`-1.25e3`,
		`"plain"`,
		`18446744073709551615`,
		`{"nested":{"a":{"b":{"c":[{}]}}}}`,
		demoJSON,
	}
	for _, input := range inputs {
		once := reencode(t, []byte(input))
		twice := reencode(t, once)
		if !bytes.Equal(once, twice) {
			t.Errorf("re-encode not idempotent:\nfirst:  %s\nsecond: %s", once, twice)
		}
	}
}

func TestTokenInterface(t *testing.T) {
	doc, err := Parse([]byte(`{"a":[1,2.5,"x"],"b":null}`), nil)
	if err != nil {
		t.Fatal(err)
	}
	root, err := doc.First()
	if err != nil {
		t.Fatal(err)
	}
	v, err := root.Interface()
	if err != nil {
		t.Fatal(err)
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		t.Fatalf("expected map, got %T", v)
	}
	arr, ok := m["a"].([]interface{})
	if !ok || len(arr) != 3 {
		t.Fatalf("unexpected a: %#v", m["a"])
	}
	if arr[0] != int64(1) || arr[1] != 2.5 || arr[2] != "x" {
		t.Fatalf("unexpected values: %#v", arr)
	}
	if m["b"] != nil {
		t.Fatalf("expected nil, got %#v", m["b"])
	}
}

func TestTokenConversions(t *testing.T) {
	doc, err := Parse([]byte(`[1,2.5,18446744073709551615,-3]`), nil)
	if err != nil {
		t.Fatal(err)
	}
	root, err := doc.First()
	if err != nil {
		t.Fatal(err)
	}
	arr, err := root.Array()
	if err != nil {
		t.Fatal(err)
	}

	one, _ := arr.Next()
	if f, err := one.Float(); err != nil || f != 1.0 {
		t.Fatalf("int as float: %v, %v", f, err)
	}
	half, _ := arr.Next()
	if _, err := half.Int(); err == nil {
		t.Fatal("2.5 as int should fail")
	}
	big, _ := arr.Next()
	if big.Type() != TypeUint {
		t.Fatalf("expected uint, got %v", big.Type())
	}
	if _, err := big.Int(); err == nil {
		t.Fatal("max uint64 as int64 should fail")
	}
	neg, _ := arr.Next()
	if _, err := neg.Uint(); err == nil {
		t.Fatal("-3 as uint should fail")
	}
	if v, err := neg.Int(); err != nil || v != -3 {
		t.Fatalf("got %d, %v", v, err)
	}
	if _, ok := arr.Next(); ok {
		t.Fatal("array should be drained")
	}
}

func TestDumpRawTape(t *testing.T) {
	doc, err := Parse([]byte(`{"a":[1,2.5,"x"]}`), nil)
	if err != nil {
		t.Fatal(err)
	}
	var sb strings.Builder
	if err := doc.DumpRawTape(&sb); err != nil {
		t.Fatal(err)
	}
	out := sb.String()
	for _, want := range []string{"integer 1", "float 2.5", `string "a"`, "{", "["} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
}

func TestAppendQuoted(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{``, `""`},
		{`plain`, `"plain"`},
		{"with \"quotes\"", `"with \"quotes\""`},
		{"back\\slash", `"back\\slash"`},
		{"tab\tnewline\n", `"tab\tnewline\n"`},
		{string([]byte{0x01, 0x1f}), `"\u0001\u001f"`},
		{"é€", `"é€"`},
	}
	for i, tc := range testCases {
		got := appendQuoted(nil, []byte(tc.in))
		if string(got) != tc.want {
			t.Errorf("TestAppendQuoted(%d): got %s want %s", i, got, tc.want)
		}
	}
}

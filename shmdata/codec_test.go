/*
 * Copyright 2025 The elegant-threading Authors.
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

package shmdata

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestCodecRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
	}{
		{"null", nil},
		{"bool", true},
		{"number", 1.5},
		{"negative", -42.0},
		{"string", "héllo <world> & \"quotes\""},
		{"array", []any{1.0, "x", false, nil}},
		{"object", map[string]any{"v": 1.0, "nested": map[string]any{"list": []any{"a", 2.0}}}},
		{"empty object", map[string]any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.doc)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			got, err := Decode(data)
			if err != nil {
				t.Fatalf("Decode(%s) error = %v", data, err)
			}
			if !reflect.DeepEqual(got, tt.doc) {
				t.Errorf("Decode(Encode(%#v)) = %#v", tt.doc, got)
			}
		})
	}
}

func TestEncodeFormat(t *testing.T) {
	tests := []struct {
		doc  Document
		want string
	}{
		{nil, "null"},
		{map[string]any{"v": 1}, `{"v":1}`},
		{"<a&b>", `"<a&b>"`},
		{[]int{1, 2}, "[1,2]"},
	}
	for _, tt := range tests {
		got, err := Encode(tt.doc)
		if err != nil {
			t.Fatalf("Encode(%#v) error = %v", tt.doc, err)
		}
		if string(got) != tt.want {
			t.Errorf("Encode(%#v) = %s, want %s", tt.doc, got, tt.want)
		}
	}
}

func TestEncodeUnrepresentable(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
	}{
		{"channel", make(chan int)},
		{"func", func() {}},
		{"nan", math.NaN()},
		{"inf in object", map[string]any{"x": math.Inf(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.doc)
			var encErr *EncodingError
			if !errors.As(err, &encErr) {
				t.Fatalf("Encode() error = %v, want *EncodingError", err)
			}
		})
	}
}

func TestDecodeEmptyIsAbsent(t *testing.T) {
	doc, err := Decode(nil)
	if err != nil || doc != nil {
		t.Errorf("Decode(nil) = %v, %v; want nil, nil", doc, err)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{"truncated", []byte(`{"v":`)},
		{"garbage", []byte(`not json`)},
		{"trailing", []byte(`{} {}`)},
		{"invalid utf8", []byte{'"', 0xff, 0xfe, '"'}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.raw)
			var decErr *DecodeError
			if !errors.As(err, &decErr) {
				t.Fatalf("Decode(%q) error = %v, want *DecodeError", tt.raw, err)
			}
			if string(decErr.Raw) != string(tt.raw) {
				t.Errorf("DecodeError.Raw = %q, want %q", decErr.Raw, tt.raw)
			}
		})
	}
}

func TestDecodeErrorCopiesRaw(t *testing.T) {
	raw := []byte(`{bad`)
	_, err := Decode(raw)
	var decErr *DecodeError
	if !errors.As(err, &decErr) {
		t.Fatalf("Decode() error = %v, want *DecodeError", err)
	}
	raw[0] = 'X'
	if string(decErr.Raw) != `{bad` {
		t.Errorf("DecodeError.Raw aliases the input: %q", decErr.Raw)
	}
}

func TestOutcome(t *testing.T) {
	if Keep().IsReplace() {
		t.Error("Keep().IsReplace() = true")
	}
	o := Replace(nil)
	if !o.IsReplace() || o.Document() != nil {
		t.Errorf("Replace(nil) = %+v, want a replace of nil", o)
	}
	if Replace("x").Document() != "x" {
		t.Error("Replace(\"x\").Document() != \"x\"")
	}
}

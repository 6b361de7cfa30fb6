/*
 *
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
 *
 */

package shmdata

import (
	"bytes"
	"encoding/json"
	"errors"
	"unicode/utf8"
)

var errInvalidUTF8 = errors.New("invalid UTF-8")

// Document is a decoded JSON value: nil, bool, float64, string, []any or
// map[string]any, or any other value encoding/json can marshal. An empty
// region decodes to nil.
type Document = any

// Encode serializes doc to UTF-8 JSON text without HTML escaping and without
// a trailing newline.
func Encode(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, &EncodingError{Err: err}
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

// Decode parses a stored payload. An empty payload is the absent document and
// decodes to nil without error.
func Decode(raw []byte) (Document, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var doc Document
	if err := DecodeInto(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// DecodeInto parses raw into v. Unlike Decode, an empty payload is an error,
// since there is no value to store into v.
func DecodeInto(raw []byte, v any) error {
	if !utf8.Valid(raw) {
		return &DecodeError{Raw: bytes.Clone(raw), Err: errInvalidUTF8}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &DecodeError{Raw: bytes.Clone(raw), Err: err}
	}
	return nil
}

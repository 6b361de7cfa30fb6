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

	"github.com/finom/elegant-threading/internal/shm"
)

// Read is the function form of Region.Read.
func Read(r *Region) (Document, error) {
	return r.Read()
}

// Read decodes the stored document without taking the lock and without
// blocking. It is meant for callers that must never wait.
//
// Read is not ordered with respect to Transact: it may return the document
// from before or after a concurrent write, or a *DecodeError if it observed a
// write half done. Callers should treat such a DecodeError as a lost race and
// not as corruption.
func (r *Region) Read() (Document, error) {
	raw, err := r.ReadRaw()
	if err != nil {
		return nil, err
	}
	return Decode(raw)
}

// ReadRaw copies the stored payload bytes without taking the lock. It has the
// same consistency caveats as Read.
func (r *Region) ReadRaw() ([]byte, error) {
	var raw []byte
	err := r.view(func(seg *shm.Segment) error {
		stored, err := storedPayload(seg)
		if err != nil {
			return err
		}
		raw = bytes.Clone(stored)
		return nil
	})
	return raw, err
}

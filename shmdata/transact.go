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
	"context"

	"github.com/finom/elegant-threading/internal/shm"
)

// Transact is the function form of Region.Transact.
func Transact(ctx context.Context, r *Region, handler Handler) (previous, next Document, err error) {
	return r.Transact(ctx, handler)
}

// Transact locks the region, decodes the stored document and, if handler is
// not nil, applies the handler's outcome before unlocking. It returns the
// document before and after the transaction. With a nil handler it is a
// consistent read and previous == next.
//
// A Replace outcome whose encoding does not fit fails with *CapacityError and
// leaves the region unchanged. A Replace that encodes to the bytes already
// stored skips the write. The lock is released on every return, and before a
// handler panic propagates.
//
// ctx bounds only the wait for the lock; once held, the transaction runs to
// completion.
func (r *Region) Transact(ctx context.Context, handler Handler) (previous, next Document, err error) {
	err = r.withLock(ctx, func(seg *shm.Segment) error {
		stored, err := storedPayload(seg)
		if err != nil {
			return err
		}
		previous, err = Decode(stored)
		if err != nil {
			return err
		}
		if handler == nil {
			next = previous
			return nil
		}

		outcome, err := handler(previous)
		if err != nil {
			return &HandlerError{Err: err}
		}
		if !outcome.replace {
			next = previous
			return nil
		}
		data, err := Encode(outcome.doc)
		if err != nil {
			return err
		}
		if err := commit(seg, stored, data); err != nil {
			return err
		}
		next = outcome.doc
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return previous, next, nil
}

// commit stores the encoded document data unless it is identical to stored.
// It must be called with the lock held. The payload is written before the
// length word, and nothing is written when data does not fit.
func commit(seg *shm.Segment, stored, data []byte) error {
	payload := seg.Payload()
	if len(data) > len(payload) {
		return &CapacityError{Size: len(data), Limit: len(payload)}
	}

	if bytes.Equal(data, stored) {
		return nil
	}
	copy(payload, data)
	seg.H.SetLength(uint32(len(data)))
	return nil
}

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
	"context"

	"github.com/finom/elegant-threading/internal/shm"
)

// ValueHandler is a Handler over a typed document. ok is false when the
// region is empty, in which case prev is the zero value.
type ValueHandler[T any] func(prev T, ok bool) (Outcome, error)

// ReadValue is Read decoding into T. ok is false when the region is empty.
func ReadValue[T any](r *Region) (v T, ok bool, err error) {
	raw, err := r.ReadRaw()
	if err != nil || len(raw) == 0 {
		return v, false, err
	}
	if err := DecodeInto(raw, &v); err != nil {
		return v, false, err
	}
	return v, true, nil
}

// TransactValue is Transact decoding the stored document into T. A Replace
// outcome may carry a T or any other value that encodes to a T; next is the
// replacement decoded back into T when it is not already one. A replacement
// that does not decode into T fails with *DecodeError and writes nothing.
func TransactValue[T any](ctx context.Context, r *Region, handler ValueHandler[T]) (previous, next T, err error) {
	err = r.withLock(ctx, func(seg *shm.Segment) error {
		stored, err := storedPayload(seg)
		if err != nil {
			return err
		}
		ok := len(stored) > 0
		if ok {
			if err := DecodeInto(stored, &previous); err != nil {
				return err
			}
		}
		if handler == nil {
			next = previous
			return nil
		}

		outcome, err := handler(previous, ok)
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
		// The replacement must read back as a T before anything is written.
		if v, isT := outcome.doc.(T); isT {
			next = v
		} else if err := DecodeInto(data, &next); err != nil {
			return err
		}
		return commit(seg, stored, data)
	})
	if err != nil {
		var zero T
		return zero, zero, err
	}
	return previous, next, nil
}

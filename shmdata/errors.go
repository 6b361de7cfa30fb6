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
	"errors"
	"fmt"

	"github.com/finom/elegant-threading/internal/shm"
)

// Error definitions for region operations
var (
	// ErrLockTimeout is returned when the lock could not be acquired before the
	// context expired. The caller may retry.
	ErrLockTimeout = shm.ErrLockTimeout

	// ErrCapacityExceeded is matched by *CapacityError.
	ErrCapacityExceeded = errors.New("shmdata: capacity exceeded")

	// ErrClosed is returned by operations on a closed Region.
	ErrClosed = errors.New("shmdata: region closed")

	// ErrInvalidCapacity is returned when a region is allocated with a
	// capacity that cannot hold the header.
	ErrInvalidCapacity = errors.New("shmdata: invalid capacity")
)

// DecodeError reports stored or read bytes that are not valid UTF-8 JSON.
// Raw holds a copy of the offending bytes.
type DecodeError struct {
	Raw []byte
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("shmdata: decode %d bytes: %v: %s", len(e.Raw), e.Err, e.Raw)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// EncodingError reports a document with no JSON representation.
type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("shmdata: encode document: %v", e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// CapacityError reports a replacement document whose encoding does not fit
// the region's payload area. Nothing is written when it is returned.
type CapacityError struct {
	Size  int // encoded size of the rejected document
	Limit int // payload capacity of the region
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("shmdata: capacity exceeded: document is %d bytes, region holds %d", e.Size, e.Limit)
}

// Is makes errors.Is(err, ErrCapacityExceeded) match.
func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacityExceeded
}

// HandlerError wraps an error returned by a transaction handler. The lock has
// already been released when the caller sees it.
type HandlerError struct {
	Err error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("shmdata: handler failed: %v", e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

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

package shm

//go:generate go tool stringer -type=LockState -trimprefix=LockState

import (
	"fmt"
	"math"
	"sync/atomic"
	"unsafe"
)

// Memory layout constants
const (
	// WordSize is the width of each header field in bytes
	WordSize = 4

	// LockOffset is the offset of the lock word
	LockOffset = 0

	// LengthOffset is the offset of the payload length word
	LengthOffset = WordSize

	// DataOffset is the offset of the first payload byte
	DataOffset = 2 * WordSize

	// HeaderSize is the size of the region header
	HeaderSize = DataOffset

	// MaxCapacity is the largest region whose payload length fits the length word
	MaxCapacity = math.MaxUint32
)

// LockState is the value held in the lock word.
type LockState uint32

const (
	LockStateUnlocked LockState = 0
	LockStateLocked   LockState = 1
)

// Header represents the region header at the start of the shared memory.
type Header struct {
	lock   uint32 // 0x00: LockState
	length uint32 // 0x04: payload length in bytes (0 = empty)
	// payload starts at offset 0x08
}

// HeaderAt returns the header view over mem. mem must be at least HeaderSize
// bytes and 4-byte aligned, which holds for any page-aligned mapping.
func HeaderAt(mem []byte) *Header {
	return (*Header)(unsafe.Pointer(&mem[0]))
}

// Lock returns the current lock word
func (h *Header) Lock() LockState {
	return LockState(atomic.LoadUint32(&h.lock))
}

// Length returns the payload length
func (h *Header) Length() uint32 {
	return atomic.LoadUint32(&h.length)
}

// SetLength sets the payload length. Only the lock holder may call it.
func (h *Header) SetLength(n uint32) {
	atomic.StoreUint32(&h.length, n)
}

// lockWord exposes the lock word address for futex and CAS operations.
func (h *Header) lockWord() *uint32 {
	return &h.lock
}

// reset puts the header into its freshly allocated state.
func (h *Header) reset() {
	atomic.StoreUint32(&h.length, 0)
	atomic.StoreUint32(&h.lock, uint32(LockStateUnlocked))
}

// PayloadCapacity returns the number of payload bytes a region of the given
// capacity can hold.
func PayloadCapacity(capacity int) int {
	return capacity - HeaderSize
}

// ValidateCapacity checks that capacity can hold a header and that every
// payload length fits the length word.
func ValidateCapacity(capacity int) error {
	if capacity < HeaderSize {
		return fmt.Errorf("capacity %d is below header size %d", capacity, HeaderSize)
	}
	if uint64(capacity) > MaxCapacity {
		return fmt.Errorf("capacity %d exceeds maximum %d", capacity, uint64(MaxCapacity))
	}
	return nil
}

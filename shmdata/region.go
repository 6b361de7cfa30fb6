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
	"errors"
	"fmt"
	"sync"

	"github.com/finom/elegant-threading/internal/shm"
)

// HeaderSize is the number of bytes at the start of a region reserved for the
// lock and length words.
const HeaderSize = shm.HeaderSize

// Region is a handle to a shared memory region holding one JSON document.
// Share the *Region between goroutines; share the segment name between
// processes. A Region is safe for concurrent use.
type Region struct {
	mu   sync.RWMutex // guards seg against Close; held shared by every operation
	seg  *shm.Segment
	lock *shm.Lock
	name string

	done     context.Context // cancelled by Close to stop lock waits
	shutdown context.CancelFunc
}

// Allocate maps an anonymous region of capacity bytes, shared by reference
// with every goroutine that holds the returned handle.
func Allocate(capacity int) (*Region, error) {
	if err := shm.ValidateCapacity(capacity); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCapacity, err)
	}
	seg, err := shm.CreateAnonymousSegment(capacity)
	if err != nil {
		return nil, fmt.Errorf("shmdata: allocate region: %w", err)
	}
	return newRegion(seg, ""), nil
}

// Create makes a named region that other processes can map with Open. It
// fails if a region with that name already exists.
func Create(name string, capacity int) (*Region, error) {
	if err := shm.ValidateCapacity(capacity); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCapacity, err)
	}
	seg, err := shm.CreateSegment(name, capacity)
	if err != nil {
		return nil, fmt.Errorf("shmdata: create region %q: %w", name, err)
	}
	return newRegion(seg, name), nil
}

// Open maps an existing named region.
func Open(name string) (*Region, error) {
	seg, err := shm.OpenSegment(name)
	if err != nil {
		return nil, fmt.Errorf("shmdata: open region %q: %w", name, err)
	}
	return newRegion(seg, name), nil
}

// Remove unlinks a named region. Processes that already mapped it keep their
// view until they Close it.
func Remove(name string) error {
	if err := shm.RemoveSegment(name); err != nil {
		return fmt.Errorf("shmdata: remove region %q: %w", name, err)
	}
	return nil
}

// Exists reports whether a named region exists.
func Exists(name string) bool {
	return shm.SegmentExists(name)
}

// Path returns the file backing a named region.
func Path(name string) string {
	return shm.SegmentPath(name)
}

func newRegion(seg *shm.Segment, name string) *Region {
	done, shutdown := context.WithCancel(context.Background())
	return &Region{
		seg:      seg,
		lock:     shm.NewLock(seg.H),
		name:     name,
		done:     done,
		shutdown: shutdown,
	}
}

// Name returns the region's name, or "" for an anonymous region.
func (r *Region) Name() string {
	return r.name
}

// Capacity returns the total region size in bytes, header included.
func (r *Region) Capacity() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.seg == nil {
		return 0
	}
	return r.seg.Capacity()
}

// PayloadCapacity returns the largest encoded document the region can hold.
func (r *Region) PayloadCapacity() int {
	if c := r.Capacity(); c > 0 {
		return shm.PayloadCapacity(c)
	}
	return 0
}

// Close unmaps this process's view of the region. The shared bytes are not
// affected.
//
// Operations on this handle still waiting for the lock return ErrClosed.
// Close then waits for operations already holding the lock to finish. A
// Handler that calls Close deadlocks, as does one that calls back into its
// region while a Close is pending.
func (r *Region) Close() error {
	r.shutdown()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seg == nil {
		return nil
	}
	err := r.seg.Close()
	r.seg = nil
	return err
}

// view runs fn with the mapping pinned open.
func (r *Region) view(fn func(seg *shm.Segment) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.seg == nil {
		return ErrClosed
	}
	return fn(r.seg)
}

// withLock runs fn while holding the region lock. The lock is released on
// every exit path, including a panic in fn. A Close while waiting for the
// lock ends the wait with ErrClosed.
func (r *Region) withLock(ctx context.Context, fn func(seg *shm.Segment) error) error {
	return r.view(func(seg *shm.Segment) (err error) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		stop := context.AfterFunc(r.done, cancel)
		defer stop()

		if err := r.lock.Acquire(ctx); err != nil {
			if r.done.Err() != nil {
				return ErrClosed
			}
			return fmt.Errorf("shmdata: %w", err)
		}
		defer func() {
			if rerr := r.lock.Release(); rerr != nil {
				err = errors.Join(err, rerr)
			}
		}()
		return fn(seg)
	})
}

// storedPayload returns the current payload bytes, aliasing shared memory.
func storedPayload(seg *shm.Segment) ([]byte, error) {
	n := int(seg.H.Length())
	payload := seg.Payload()
	if n > len(payload) {
		return nil, &DecodeError{Err: fmt.Errorf("length word %d exceeds payload capacity %d", n, len(payload))}
	}
	return payload[:n], nil
}

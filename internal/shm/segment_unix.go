//go:build unix

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

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

func init() {
	unmapMemory = munmapImpl
}

// CreateAnonymousSegment maps a fresh shared anonymous region of capacity
// bytes with the header in its initial Unlocked, empty state.
func CreateAnonymousSegment(capacity int) (*Segment, error) {
	if err := ValidateCapacity(capacity); err != nil {
		return nil, err
	}

	mem, err := unix.Mmap(-1, 0, capacity, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("mmap failed: %w", err)
	}

	seg := newSegment(mem, nil, "")
	seg.H.reset()
	return seg, nil
}

// CreateSegment creates a named segment that other processes can open with
// OpenSegment. It fails if the segment already exists.
func CreateSegment(name string, capacity int) (*Segment, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := ValidateCapacity(capacity); err != nil {
		return nil, err
	}

	path := SegmentPath(name)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create segment file %s: %w", path, err)
	}

	cleanup := func() {
		file.Close()
		os.Remove(path)
	}

	if err := file.Truncate(int64(capacity)); err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to resize segment file: %w", err)
	}

	mem, err := mmapFile(file, capacity)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to mmap segment: %w", err)
	}

	seg := newSegment(mem, file, path)
	seg.H.reset()
	return seg, nil
}

// OpenSegment maps an existing named segment. The capacity is the size of
// the backing file.
func OpenSegment(name string) (*Segment, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	var (
		file *os.File
		path string
		err  error
	)
	for _, p := range candidatePaths(name) {
		file, err = os.OpenFile(p, os.O_RDWR, 0)
		if err == nil {
			path = p
			break
		}
	}
	if file == nil {
		return nil, fmt.Errorf("failed to open segment %s: %w", name, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat segment file: %w", err)
	}

	size := info.Size()
	if size < HeaderSize || size > MaxCapacity {
		file.Close()
		return nil, fmt.Errorf("segment file has invalid size: %d bytes", size)
	}

	mem, err := mmapFile(file, int(size))
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to mmap segment: %w", err)
	}

	seg := newSegment(mem, file, path)
	if n := seg.H.Length(); int(n) > PayloadCapacity(len(mem)) {
		seg.Close()
		return nil, fmt.Errorf("segment header length %d exceeds payload capacity %d", n, PayloadCapacity(len(mem)))
	}
	return seg, nil
}

// mmapFile memory maps a file
func mmapFile(file *os.File, size int) ([]byte, error) {
	data, err := unix.Mmap(int(file.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap failed: %w", err)
	}
	return data, nil
}

// munmapImpl unmaps a memory-mapped region
func munmapImpl(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("munmap failed: %w", err)
	}
	return nil
}

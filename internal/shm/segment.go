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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// segmentPrefix is prepended to segment names to form the backing file name.
const segmentPrefix = "shmdata_"

// ErrInvalidName is returned for segment names that cannot name a file.
var ErrInvalidName = errors.New("invalid segment name")

// Platform-specific functions (implemented in platform-specific files)
var (
	// unmapMemory unmaps a memory-mapped region
	unmapMemory func([]byte) error
)

// Segment is a mapped shared memory region: an 8-byte header followed by the
// payload area. Anonymous segments have no File or Path and are shared only
// with goroutines of this process and children that inherit the mapping.
type Segment struct {
	File *os.File // backing file, nil for anonymous segments
	Mem  []byte   // the mapped region, len(Mem) == capacity
	H    *Header  // typed view of the header
	Path string   // backing file path, empty for anonymous segments
}

// Capacity returns the total size of the region in bytes
func (s *Segment) Capacity() int {
	return len(s.Mem)
}

// Payload returns the payload area following the header
func (s *Segment) Payload() []byte {
	return s.Mem[DataOffset:]
}

// Close unmaps the memory and closes the file. The shared bytes survive for
// other mappings; use RemoveSegment to unlink a named segment.
func (s *Segment) Close() error {
	var firstErr error

	if s.Mem != nil {
		if err := unmapMemory(s.Mem); err != nil && firstErr == nil {
			firstErr = err
		}
		s.Mem = nil
		s.H = nil
	}

	if s.File != nil {
		if err := s.File.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.File = nil
	}

	return firstErr
}

func newSegment(mem []byte, file *os.File, path string) *Segment {
	return &Segment{
		File: file,
		Mem:  mem,
		H:    HeaderAt(mem),
		Path: path,
	}
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// SegmentPath returns the file path backing the named segment.
func SegmentPath(name string) string {
	// Prefer /dev/shm (tmpfs) on Linux
	if isDevShmAvailable() {
		return filepath.Join("/dev/shm", segmentPrefix+name)
	}
	return filepath.Join(os.TempDir(), segmentPrefix+name)
}

// isDevShmAvailable checks if /dev/shm is available
func isDevShmAvailable() bool {
	info, err := os.Stat("/dev/shm")
	if err != nil {
		return false
	}
	return info.IsDir()
}

// candidatePaths lists every location a named segment may live in.
func candidatePaths(name string) []string {
	return []string{
		filepath.Join("/dev/shm", segmentPrefix+name),
		filepath.Join(os.TempDir(), segmentPrefix+name),
	}
}

// RemoveSegment removes a named segment's backing file. Existing mappings stay
// valid until closed.
func RemoveSegment(name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	var lastErr error
	for _, path := range candidatePaths(name) {
		if err := os.Remove(path); err == nil {
			return nil
		} else if !os.IsNotExist(err) {
			lastErr = err
		}
	}

	if lastErr != nil {
		return lastErr
	}
	return os.ErrNotExist
}

// SegmentExists checks if a named segment exists
func SegmentExists(name string) bool {
	if validateName(name) != nil {
		return false
	}
	for _, path := range candidatePaths(name) {
		if _, err := os.Stat(path); err == nil {
			return true
		}
	}
	return false
}

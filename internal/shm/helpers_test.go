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

package shm

import (
	"fmt"
	"os"
	"testing"
	"time"
)

// createTestSegment creates a named test segment with a unique name and
// registers cleanup with t.Cleanup so it is removed even if the test fails.
func createTestSegment(t *testing.T, baseName string, capacity int) (*Segment, string) {
	t.Helper()

	name := fmt.Sprintf("%s-%d-%d", baseName, os.Getpid(), time.Now().UnixNano())

	RemoveSegment(name)

	seg, err := CreateSegment(name, capacity)
	if err != nil {
		t.Fatalf("Failed to create test segment %s: %v", name, err)
	}

	t.Cleanup(func() {
		seg.Close()
		RemoveSegment(name)
	})

	return seg, name
}

// createAnonymousTestSegment maps an anonymous segment closed on cleanup.
func createAnonymousTestSegment(t *testing.T, capacity int) *Segment {
	t.Helper()

	seg, err := CreateAnonymousSegment(capacity)
	if err != nil {
		t.Fatalf("CreateAnonymousSegment(%d) error = %v", capacity, err)
	}
	t.Cleanup(func() { seg.Close() })
	return seg
}

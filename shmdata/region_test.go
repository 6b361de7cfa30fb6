//go:build unix

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

package shmdata

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"reflect"
	"strconv"
	"testing"
	"time"
)

const helperIncrement = "-test.run=HelperIncrement"

func TestMain(m *testing.M) {
	if len(os.Args) >= 5 && os.Args[1] == helperIncrement {
		iterations, err := strconv.Atoi(os.Args[4])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Helper bad iteration count: %v\n", err)
			os.Exit(1)
		}
		os.Exit(runHelperIncrement(os.Args[3], iterations))
	}

	os.Exit(m.Run())
}

// runHelperIncrement opens the named region and increments its counter.
func runHelperIncrement(name string, iterations int) int {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	r, err := Open(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open region %s: %v\n", name, err)
		return 1
	}
	defer r.Close()

	for i := 0; i < iterations; i++ {
		if _, _, err := r.Transact(ctx, increment); err != nil {
			fmt.Fprintf(os.Stderr, "Helper transact failed: %v\n", err)
			return 1
		}
	}
	return 0
}

// createTestRegion creates a uniquely named region removed on cleanup.
func createTestRegion(t *testing.T, baseName string, capacity int) (*Region, string) {
	t.Helper()

	name := fmt.Sprintf("%s-%d-%d", baseName, os.Getpid(), time.Now().UnixNano())
	Remove(name)

	r, err := Create(name, capacity)
	if err != nil {
		t.Fatalf("Create(%q) error = %v", name, err)
	}
	t.Cleanup(func() {
		r.Close()
		Remove(name)
	})
	return r, name
}

func TestCreateOpenShareDocument(t *testing.T) {
	ctx := context.Background()
	r, name := createTestRegion(t, "test_share", 128)

	if r.Name() != name {
		t.Errorf("Name() = %q, want %q", r.Name(), name)
	}
	if !Exists(name) {
		t.Errorf("Exists(%q) = false", name)
	}
	if _, err := os.Stat(Path(name)); err != nil {
		t.Errorf("backing file %s: %v", Path(name), err)
	}

	if _, _, err := r.Transact(ctx, replaceWith(map[string]any{"from": "creator"})); err != nil {
		t.Fatalf("Transact() error = %v", err)
	}

	other, err := Open(name)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer other.Close()

	if other.Capacity() != 128 {
		t.Errorf("opened Capacity() = %d, want 128", other.Capacity())
	}
	want := map[string]any{"from": "creator"}
	if doc, err := other.Read(); err != nil || !reflect.DeepEqual(doc, want) {
		t.Errorf("opened Read() = %v, %v; want %v", doc, err, want)
	}

	if _, _, err := other.Transact(ctx, replaceWith("from opener")); err != nil {
		t.Fatalf("Transact() through second mapping error = %v", err)
	}
	if doc, err := r.Read(); err != nil || doc != "from opener" {
		t.Errorf("creator Read() = %v, %v; want \"from opener\"", doc, err)
	}
}

func TestCreateExisting(t *testing.T) {
	_, name := createTestRegion(t, "test_dup", 64)
	if r, err := Create(name, 64); err == nil {
		r.Close()
		t.Fatal("Create() of an existing region should fail")
	}
}

func TestOpenMissing(t *testing.T) {
	name := fmt.Sprintf("test_missing-%d", os.Getpid())
	Remove(name)
	if r, err := Open(name); err == nil {
		r.Close()
		t.Fatal("Open() of a missing region should fail")
	}
	if err := Remove(name); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Remove() of a missing region error = %v, want os.ErrNotExist", err)
	}
}

func TestCreateInvalidCapacity(t *testing.T) {
	if _, err := Create(fmt.Sprintf("test_badcap-%d", os.Getpid()), 4); !errors.Is(err, ErrInvalidCapacity) {
		t.Errorf("Create() error = %v, want ErrInvalidCapacity", err)
	}
}

// TestCrossProcessCounter runs increments from child processes and from this
// process against one named region; no update may be lost.
func TestCrossProcessCounter(t *testing.T) {
	const children = 3
	const iterations = 200

	r, name := createTestRegion(t, "test_xproc", 64)

	cmds := make([]*exec.Cmd, 0, children)
	for i := 0; i < children; i++ {
		cmd := exec.Command(os.Args[0], helperIncrement, "--", name, strconv.Itoa(iterations))
		cmd.Stderr = os.Stderr
		if err := cmd.Start(); err != nil {
			t.Fatalf("Failed to start helper: %v", err)
		}
		cmds = append(cmds, cmd)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for i := 0; i < iterations; i++ {
		if _, _, err := r.Transact(ctx, increment); err != nil {
			t.Fatalf("Transact() error = %v", err)
		}
	}

	for i, cmd := range cmds {
		if err := cmd.Wait(); err != nil {
			t.Fatalf("helper %d failed: %v", i, err)
		}
	}

	want := map[string]any{"n": float64((children + 1) * iterations)}
	if doc, err := r.Read(); err != nil || !reflect.DeepEqual(doc, want) {
		t.Errorf("final Read() = %v, %v; want %v", doc, err, want)
	}
	assertUnlocked(t, r)
}

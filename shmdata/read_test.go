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
	"strings"
	"sync"
	"testing"
	"time"
)

func TestReadEmpty(t *testing.T) {
	r := newTestRegion(t, 64)
	doc, err := r.Read()
	if err != nil || doc != nil {
		t.Errorf("Read() = %v, %v; want nil, nil", doc, err)
	}
	raw, err := r.ReadRaw()
	if err != nil || len(raw) != 0 {
		t.Errorf("ReadRaw() = %q, %v; want empty", raw, err)
	}
}

func TestReadDoesNotBlockOnLock(t *testing.T) {
	r := newTestRegion(t, 64)
	if _, _, err := r.Transact(context.Background(), replaceWith("visible")); err != nil {
		t.Fatalf("Transact() error = %v", err)
	}

	entered := make(chan struct{})
	unblock := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Transact(context.Background(), func(Document) (Outcome, error) {
			close(entered)
			<-unblock
			return Keep(), nil
		})
	}()
	<-entered

	readDone := make(chan Document, 1)
	go func() {
		doc, _ := r.Read()
		readDone <- doc
	}()

	select {
	case doc := <-readDone:
		if doc != "visible" {
			t.Errorf("Read() = %v while locked, want \"visible\"", doc)
		}
	case <-time.After(time.Second):
		t.Fatal("Read() blocked while the lock was held")
	}

	close(unblock)
	<-done
}

func TestReadReturnsCopy(t *testing.T) {
	r := newTestRegion(t, 64)
	if _, _, err := r.Transact(context.Background(), replaceWith("abc")); err != nil {
		t.Fatalf("Transact() error = %v", err)
	}
	raw, err := r.ReadRaw()
	if err != nil {
		t.Fatalf("ReadRaw() error = %v", err)
	}
	raw[1] = 'X'
	if doc, _ := r.Read(); doc != "abc" {
		t.Errorf("Read() = %v after mutating ReadRaw result, want \"abc\"", doc)
	}
}

// TestReadDuringWrites races unlocked reads against transactions. Every read
// must either decode to a string or fail with *DecodeError; nothing else is
// acceptable.
func TestReadDuringWrites(t *testing.T) {
	r := newTestRegion(t, 4096)
	docs := []string{strings.Repeat("a", 1000), strings.Repeat("b", 3000), "c"}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ctx.Err() == nil; i++ {
			if _, _, err := r.Transact(context.Background(), replaceWith(docs[i%len(docs)])); err != nil {
				t.Errorf("Transact() error = %v", err)
				return
			}
		}
	}()

	var torn int
	for ctx.Err() == nil {
		doc, err := r.Read()
		if err != nil {
			var decErr *DecodeError
			if !errors.As(err, &decErr) {
				t.Fatalf("Read() error = %v, want nil or *DecodeError", err)
			}
			torn++
			continue
		}
		if _, ok := doc.(string); doc != nil && !ok {
			t.Fatalf("Read() = %T, want string", doc)
		}
	}
	wg.Wait()
	t.Logf("%d reads observed a write in progress", torn)
}

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

// Command debug-capacity reports which document sizes fit a region of a
// given capacity, then fills a document gradually until the region rejects it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/finom/elegant-threading/shmdata"
)

var sizes = []int{10, 20, 30, 40, 50, 100, 200, 500, 1000, 5000, 10000, 32768, 65000, 65536}

func main() {
	capacity := flag.Int("capacity", 65536, "Region capacity in bytes, header included")
	chunk := flag.Int("chunk", 1000, "Bytes added per step of the fill test")
	flag.Parse()

	r, err := shmdata.Allocate(*capacity)
	if err != nil {
		log.Fatalf("Failed to allocate region: %v", err)
	}
	defer r.Close()

	fmt.Printf("=== Region Capacity Analysis ===\n")
	fmt.Printf("Configured capacity: %d bytes\n", r.Capacity())
	fmt.Printf("Payload capacity: %d bytes\n", r.PayloadCapacity())

	fmt.Printf("\n=== Single Write Tests ===\n")
	if err := probeSizes(context.Background(), r, sizes, os.Stdout); err != nil {
		log.Fatalf("Probe failed: %v", err)
	}

	fmt.Printf("\n=== Fill Test ===\n")
	n, err := fill(context.Background(), r, *chunk, os.Stdout)
	if err != nil {
		log.Fatalf("Fill failed: %v", err)
	}
	fmt.Printf("Largest stored document: %d bytes\n", n)
}

// stringOfSize returns a document whose encoding is exactly n bytes.
func stringOfSize(n int) shmdata.Document {
	return strings.Repeat("x", max(n-2, 0))
}

// probeSizes stores a document of each encoded size and reports whether it fit.
// Only capacity errors are reported inline; anything else aborts the probe.
func probeSizes(ctx context.Context, r *shmdata.Region, sizes []int, w io.Writer) error {
	for _, size := range sizes {
		doc := stringOfSize(size)
		_, _, err := r.Transact(ctx, func(shmdata.Document) (shmdata.Outcome, error) {
			return shmdata.Replace(doc), nil
		})
		switch {
		case errors.Is(err, shmdata.ErrCapacityExceeded):
			fmt.Fprintf(w, "Size %d bytes: FAIL (%v)\n", size, err)
		case err != nil:
			return err
		default:
			fmt.Fprintf(w, "Size %d bytes: OK\n", size)
		}
	}
	return nil
}

// fill grows an array document by chunk bytes per transaction until the
// region rejects it, and returns the length of the last stored encoding.
func fill(ctx context.Context, r *shmdata.Region, chunk int, w io.Writer) (int, error) {
	if chunk < 1 {
		return 0, fmt.Errorf("chunk must be positive, got %d", chunk)
	}
	if _, _, err := r.Transact(ctx, func(shmdata.Document) (shmdata.Outcome, error) {
		return shmdata.Replace([]any{}), nil
	}); err != nil {
		return 0, err
	}

	for i := 0; ; i++ {
		_, next, err := r.Transact(ctx, func(prev shmdata.Document) (shmdata.Outcome, error) {
			items, _ := prev.([]any)
			return shmdata.Replace(append(items, stringOfSize(chunk))), nil
		})
		if errors.Is(err, shmdata.ErrCapacityExceeded) {
			st, serr := r.Stats()
			if serr != nil {
				return 0, serr
			}
			fmt.Fprintf(w, "Rejected after %d chunks: %v\n", i, err)
			return int(st.Length), nil
		}
		if err != nil {
			return 0, err
		}
		fmt.Fprintf(w, "Stored %d chunks (%d items)\n", i+1, len(next.([]any)))
	}
}

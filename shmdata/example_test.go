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

package shmdata_test

import (
	"context"
	"fmt"
	"log"

	"github.com/finom/elegant-threading/shmdata"
)

func Example() {
	r, err := shmdata.Allocate(64)
	if err != nil {
		log.Fatal(err)
	}
	defer r.Close()

	ctx := context.Background()
	prev, next, err := r.Transact(ctx, func(shmdata.Document) (shmdata.Outcome, error) {
		return shmdata.Replace(map[string]any{"v": 1}), nil
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(prev, next)

	doc, err := r.Read()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(doc)
	// Output:
	// <nil> map[v:1]
	// map[v:1]
}

func ExampleRegion_Transact_keep() {
	r, err := shmdata.Allocate(64)
	if err != nil {
		log.Fatal(err)
	}
	defer r.Close()

	ctx := context.Background()
	r.Transact(ctx, func(shmdata.Document) (shmdata.Outcome, error) {
		return shmdata.Replace("first"), nil
	})
	prev, next, _ := r.Transact(ctx, func(d shmdata.Document) (shmdata.Outcome, error) {
		if d == "first" {
			return shmdata.Keep(), nil
		}
		return shmdata.Replace("second"), nil
	})
	fmt.Println(prev, next)
	// Output: first first
}

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

// Package shmdata shares one mutable JSON document between goroutines and
// processes through a fixed-size shared memory region.
//
// # Layout
//
// A region starts with two 32-bit words: the lock word (0 unlocked, 1 locked)
// and the length of the stored payload. The payload, UTF-8 JSON text, follows
// at offset 8. A length of zero means no document has been stored yet.
//
// # Transactions
//
// [Region.Transact] takes the region lock, decodes the current document and
// hands it to a [Handler], which answers with [Replace] or [Keep]. All
// transactions on a region are linearizable. The lock blocks in the kernel on
// the lock word (futex on Linux) and is released on every exit path.
//
//	prev, next, err := r.Transact(ctx, func(d shmdata.Document) (shmdata.Outcome, error) {
//		m, _ := d.(map[string]any)
//		n, _ := m["n"].(float64)
//		return shmdata.Replace(map[string]any{"n": n + 1}), nil
//	})
//
// # Unlocked reads
//
// [Region.Read] never blocks. It may observe a write in progress and return a
// [DecodeError]; callers that use it must tolerate that.
//
// # Sharing
//
// [Allocate] maps an anonymous region shared by every goroutine holding the
// handle. [Create] and [Open] map a named region under /dev/shm so separate
// processes can share it.
package shmdata

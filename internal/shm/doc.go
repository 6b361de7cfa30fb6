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

// Package shm provides the low-level pieces of a shared memory document
// region: the header layout, the mapped segment lifecycle, and a futex-based
// lock that works across goroutines and across processes.
//
// A region is a memory-mapped buffer that starts with two 32-bit words, the
// lock word and the payload length, followed by the payload bytes. Segments
// are either anonymous (shared within a process tree) or backed by a named
// file under /dev/shm so that unrelated processes can map the same bytes.
//
// The lock blocks in the kernel on the lock word rather than spinning, and
// claims it with a compare-and-swap after every wakeup.
package shm

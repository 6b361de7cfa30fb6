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
	"github.com/finom/elegant-threading/internal/shm"
)

// LockState is the value of a region's lock word.
type LockState = shm.LockState

const (
	Unlocked = shm.LockStateUnlocked
	Locked   = shm.LockStateLocked
)

// Stats is a lock-free snapshot of a region header for diagnostics. Fields are
// loaded independently and may not describe a single instant.
type Stats struct {
	Capacity        int       // total size in bytes, header included
	PayloadCapacity int       // largest encoded document that fits
	Length          int       // encoded size of the stored document, 0 if empty
	Lock            LockState // lock word at the time of the load
}

// Stats returns a snapshot of the region header.
func (r *Region) Stats() (Stats, error) {
	var st Stats
	err := r.view(func(seg *shm.Segment) error {
		st = Stats{
			Capacity:        seg.Capacity(),
			PayloadCapacity: shm.PayloadCapacity(seg.Capacity()),
			Length:          int(seg.H.Length()),
			Lock:            seg.H.Lock(),
		}
		return nil
	})
	return st, err
}

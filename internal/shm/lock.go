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
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// ErrLockTimeout is returned by Acquire when the context expires before the
// lock could be taken.
var ErrLockTimeout = errors.New("lock timeout")

// cancelPollInterval bounds a single futex wait when the context can be
// cancelled, since a futex sleeper cannot observe ctx.Done directly.
const cancelPollInterval = 10 * time.Millisecond

// Lock is a cross-process spinlock over a region header's lock word.
//
// Acquire waits in the kernel until the word is observed Unlocked and then
// claims it with a compare-and-swap. Waiting and storing Locked in two steps
// is not enough: another waiter may wake on the same release, so the CAS
// re-validates the word and the loser goes back to waiting.
type Lock struct {
	h *Header
}

// NewLock returns the lock controller for h.
func NewLock(h *Header) *Lock {
	return &Lock{h: h}
}

// Acquire blocks until the lock is held by the caller or ctx is done. A
// context without a deadline or cancellation waits forever.
func (l *Lock) Acquire(ctx context.Context) error {
	word := l.h.lockWord()
	for {
		timeout, ok := waitTimeout(ctx)
		if !ok {
			return lockTimeoutError(ctx)
		}
		if err := futexWait(word, uint32(LockStateLocked), timeout); err != nil && !errors.Is(err, ErrFutexTimeout) {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if atomic.CompareAndSwapUint32(word, uint32(LockStateUnlocked), uint32(LockStateLocked)) {
			return nil
		}
	}
}

// TryAcquire takes the lock if it is free, without waiting.
func (l *Lock) TryAcquire() bool {
	return atomic.CompareAndSwapUint32(l.h.lockWord(), uint32(LockStateUnlocked), uint32(LockStateLocked))
}

// Release unlocks and wakes at most one waiter. The lock word is stored
// before the wake, so an error only means a waiter may not be woken promptly.
func (l *Lock) Release() error {
	word := l.h.lockWord()
	atomic.StoreUint32(word, uint32(LockStateUnlocked))
	if _, err := futexWake(word, 1); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

// State returns the current lock word.
func (l *Lock) State() LockState {
	return l.h.Lock()
}

// waitTimeout returns how long the next futex wait may last (0 = forever) and
// false if ctx is already done or past its deadline.
func waitTimeout(ctx context.Context) (time.Duration, bool) {
	if ctx.Err() != nil {
		return 0, false
	}
	var d time.Duration
	if deadline, ok := ctx.Deadline(); ok {
		d = time.Until(deadline)
		if d <= 0 {
			return 0, false
		}
	}
	if ctx.Done() != nil && (d == 0 || d > cancelPollInterval) {
		d = cancelPollInterval
	}
	return d, true
}

func lockTimeoutError(ctx context.Context) error {
	cause := ctx.Err()
	if cause == nil {
		cause = context.DeadlineExceeded
	}
	return fmt.Errorf("%w: %w", ErrLockTimeout, cause)
}

//go:build linux

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
	"fmt"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Linux futex operations. The PRIVATE variants are not used because the lock
// word may live in a MAP_SHARED file mapping seen by several processes.
const (
	futexWaitOp = 0 // FUTEX_WAIT
	futexWakeOp = 1 // FUTEX_WAKE
)

// futexWait waits for the value at addr to change from val, or for timeout to
// elapse when timeout > 0. It returns when either:
//   - The value at addr is no longer equal to val
//   - Another thread or process calls futexWake on the same address
//   - The system call is interrupted
//
// Callers must re-check their condition after it returns.
func futexWait(addr *uint32, val uint32, timeout time.Duration) error {
	// Re-check before entering the kernel so a release that happened after the
	// caller's snapshot is not slept through.
	if atomic.LoadUint32(addr) != val {
		return nil
	}

	var tsPtr unsafe.Pointer
	if timeout > 0 {
		ts := unix.NsecToTimespec(timeout.Nanoseconds())
		tsPtr = unsafe.Pointer(&ts)
	}

	_, _, errno := unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)), // uaddr
		futexWaitOp,                   // futex_op
		uintptr(val),                  // val - expected value
		uintptr(tsPtr),                // timeout - relative, NULL for infinite
		0,                             // uaddr2 - unused
		0,                             // val3 - unused
	)

	switch errno {
	case 0, unix.EAGAIN, unix.EINTR:
		// woken, value already changed, or interrupted by a signal
		return nil
	case unix.ETIMEDOUT:
		return ErrFutexTimeout
	default:
		return fmt.Errorf("futex wait failed: %w", errno)
	}
}

// futexWake wakes up to n waiters blocked on addr and returns how many woke.
func futexWake(addr *uint32, n int) (int, error) {
	r1, _, errno := unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		futexWakeOp,
		uintptr(n),
		0, 0, 0,
	)
	if errno != 0 {
		return 0, fmt.Errorf("futex wake failed: %w", errno)
	}
	return int(r1), nil
}

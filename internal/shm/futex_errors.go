package shm

import "errors"

// ErrFutexTimeout is returned by futexWait when the wait times out.
var ErrFutexTimeout = errors.New("futex timeout")

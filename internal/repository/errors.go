// Package repository defines error values that are reused across
// repositories. These sentinel values allow higher layers such as the
// reservation service to distinguish between failure scenarios without
// inspecting driver-specific error codes.
package repository

import "errors"

// ErrEventNotFound is returned when the referenced event row does not
// exist. This is a configuration problem, not a stock problem, and is
// surfaced distinctly from an exhausted tier.
var ErrEventNotFound = errors.New("event not found")

// ErrLockWaitTimeout is returned when the capacity lock could not be
// acquired within the storage engine's lock wait budget. Callers treat
// it as a transient persistence failure; the whole operation is safe to
// retry because the transaction rolled back.
var ErrLockWaitTimeout = errors.New("lock wait timeout")

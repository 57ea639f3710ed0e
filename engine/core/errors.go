package core

import (
	"github.com/cockroachdb/errors"
)

// Configuration errors.
var (
	ErrInvalidConfig        = errors.New("invalid integration config")
	ErrFloatPolicyConflict  = errors.New("float16 promotion and float32 demotion are mutually exclusive")
	ErrZeroQueuedFrames     = errors.New("queued frame count must be at least 1")
	ErrZeroResourceSize     = errors.New("resource width and height must be non-zero")
	ErrNameTooLong          = errors.New("instance name exceeds 63 bytes")
	ErrIncompatibleVersion  = errors.New("incompatible interface or library version")
	ErrResourceSizeMismatch = errors.New("resource size differs from the size the instance was created with")
)

// Usage precondition violations.
var (
	ErrNotInitialized          = errors.New("integration is not initialized")
	ErrInvalidRole             = errors.New("resource role is not an external role")
	ErrSnapshotFull            = errors.New("resource snapshot has no free unique slot")
	ErrResourceMismatch        = errors.New("same native resource registered with a different state or tag")
	ErrUnresolvedResource      = errors.New("resource role is not set in the snapshot")
	ErrFrameIndexNotSequential = errors.New("frame index must advance by one per frame unless history is reset")
	ErrNormalEncodingMismatch  = errors.New("normal-roughness format does not match the library normal encoding")
)

// Runtime failures.
var (
	ErrDispatchFailed = errors.New("denoise dispatch failed")
	ErrDeviceLost     = errors.New("device lost")
)

// Precondition builds an assertion failure marked with the given sentinel so callers can match it
// with errors.Is while still carrying a stack trace. The assertion wrapper is outermost, so
// errors.IsAssertionFailure holds until the error is wrapped further; after that use
// errors.HasAssertionFailure.
func Precondition(sentinel error, format string, args ...interface{}) error {
	return errors.WithAssertionFailure(errors.Mark(errors.Newf(format, args...), sentinel))
}

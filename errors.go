package rwguard

import "errors"

// Every operation reports failure with exactly one of these values and
// leaves the Region and the handle untouched. Compare with errors.Is.
var (
	// ErrInvalidArgument reports a nil receiver or handle, a handle that is
	// already in use, empty or oversized data, or a buffer shorter than
	// the guarded region.
	ErrInvalidArgument = errors.New("rwguard: invalid argument")

	// ErrNotInitialized reports a Region that was never initialized (or was
	// Reset), or a handle that does not hold a lock.
	ErrNotInitialized = errors.New("rwguard: not initialized")

	// ErrConflict reports that the requested access is incompatible with
	// the current state: a writer is present for a shared request, any
	// holder is present for an exclusive request, or the Region is already
	// initialized.
	ErrConflict = errors.New("rwguard: conflicting lock state")

	// ErrBusy reports that the mutation guard was held at the time of the
	// call: Init or Reset is running, or an exclusive data operation is
	// copying.
	ErrBusy = errors.New("rwguard: busy")

	// ErrMismatch reports that a comparison ran and found the buffer
	// differs from the guarded region.
	ErrMismatch = errors.New("rwguard: data mismatch")
)

// retryable reports whether a failed acquisition may succeed later without
// the caller changing anything.
func retryable(err error) bool {
	return err == ErrConflict || err == ErrBusy
}

package rwguard

import "context"

// RLock acquires r for shared access into h, retrying TryRLock with backoff
// until it succeeds or ctx is done.
//
// Only ErrConflict and ErrBusy are retried; any other error is returned
// immediately. When ctx ends first, RLock returns ctx.Err() and h is left
// empty. There is no queue: a retrying reader has no priority over a new
// caller.
func RLock(ctx context.Context, r *Region, h *Shared) error {
	var spins int
	for {
		err := r.TryRLock(h)
		if !retryable(err) {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		delay(&spins)
	}
}

// Lock acquires r for exclusive access into h, retrying TryLock with
// backoff until it succeeds or ctx is done. It follows the same rules as
// RLock.
func Lock(ctx context.Context, r *Region, h *Exclusive) error {
	var spins int
	for {
		err := r.TryLock(h)
		if !retryable(err) {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		delay(&spins)
	}
}

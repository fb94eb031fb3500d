package rwguard

import (
	"time"
	_ "unsafe" // for linkname
)

// noCopy marks Region, the handles and Table so `go vet -copylocks`
// flags copies. Held as a named field, never embedded.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

func trySpin(spins *int) bool {
	if runtime_canSpin(*spins) {
		*spins++
		runtime_doSpin()
		return true
	}
	return false
}

// delay is the pause RLock and Lock take after TryRLock or TryLock
// reports ErrConflict or ErrBusy. Holders of a Region only copy at most
// MaxSize bytes, so a few active spins usually outlast them; past that
// the holder is likely descheduled and a sleep yields the core.
func delay(spins *int) {
	if trySpin(spins) {
		return
	}
	*spins = 0
	time.Sleep(retrySleep)
}

// retrySleep follows folly's Sleeper.
const retrySleep = 500 * time.Microsecond

// nolint:all
//
//go:linkname runtime_canSpin sync.runtime_canSpin
//goland:noinspection ALL
func runtime_canSpin(i int) bool

// nolint:all
//
//go:linkname runtime_doSpin sync.runtime_doSpin
//goland:noinspection ALL
func runtime_doSpin()

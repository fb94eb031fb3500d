package rwguard

import (
	"sync/atomic"
	"unsafe"
)

// MaxSize is the largest region, in bytes, a Region can guard.
const MaxSize = 255

// Region is a non-blocking reader/writer lock over a caller-owned byte
// region of 1 to MaxSize bytes.
//
// Access to the region goes through handles: TryRLock fills a Shared
// handle, TryLock fills an Exclusive handle. Acquisition never waits; a
// request that is incompatible with the current state fails immediately
// and the caller decides whether to retry (see RLock and Lock for a
// blocking layer).
//
// States:
//   - Idle: no holders.
//   - Shared(n): n Shared handles hold the lock.
//   - Exclusive: one Exclusive handle holds the lock.
//
// Region does not own the guarded memory and never allocates. The zero
// value is uninitialized; call Init exactly once.
//
// A Region must not be copied after first use.
//
// Size: 2 pointers (16 bytes on 64-bit).
type Region struct {
	_ noCopy
	// data points at the first guarded byte. It is written only while the
	// busy bit is held by Init or Reset and published by the store that
	// clears it.
	data unsafe.Pointer
	// state 32-bit:
	//   Bit 11-31: Reader Count
	//   Bit 3-10:  Region Size
	//   Bit 2:     Initialized
	//   Bit 1:     Writer
	//   Bit 0:     Busy (mutation guard)
	state atomic.Uint32
}

const (
	rgBusyBit    = 1 << 0
	rgWriterBit  = 1 << 1
	rgInitBit    = 1 << 2
	rgSizeShift  = 3
	rgSizeMask   = MaxSize << rgSizeShift
	rgReadShift  = 11
	rgReadUnit   = 1 << rgReadShift
	rgMaxReaders = 1<<(32-rgReadShift) - 1
)

//go:nosplit
func rgSize(s uint32) int {
	return int(s&rgSizeMask) >> rgSizeShift
}

//go:nosplit
func rgReaders(s uint32) uint32 {
	return s >> rgReadShift
}

// uninitErr classifies a state without the initialized bit.
//
//go:nosplit
func uninitErr(s uint32) error {
	if s&rgBusyBit != 0 {
		return ErrBusy
	}
	return ErrNotInitialized
}

// canShare returns nil if s admits one more reader.
func canShare(s uint32) error {
	switch {
	case s&rgInitBit == 0:
		return uninitErr(s)
	case s&rgWriterBit != 0:
		return ErrConflict
	case s&rgBusyBit != 0:
		return ErrBusy
	case rgReaders(s) == rgMaxReaders:
		return ErrConflict
	}
	return nil
}

// isIdle returns nil if s has no holders and no mutation in progress.
func isIdle(s uint32) error {
	switch {
	case s&rgInitBit == 0:
		return uninitErr(s)
	case s&rgWriterBit != 0 || rgReaders(s) != 0:
		return ErrConflict
	case s&rgBusyBit != 0:
		return ErrBusy
	}
	return nil
}

// Init points r at data and leaves it Idle. The region size is len(data)
// and is fixed until Reset. Init never reads or writes the region itself.
//
// Init fails with ErrInvalidArgument for empty data or data longer than
// MaxSize, ErrConflict if r is already initialized, and ErrBusy if another
// Init or Reset is in progress.
func (r *Region) Init(data []byte) error {
	if r == nil || len(data) == 0 || len(data) > MaxSize {
		return ErrInvalidArgument
	}
	if !r.state.CompareAndSwap(0, rgBusyBit) {
		s := r.state.Load()
		if s&rgBusyBit == 0 && s&rgInitBit != 0 {
			return ErrConflict
		}
		return ErrBusy
	}
	r.data = unsafe.Pointer(unsafe.SliceData(data))
	r.state.Store(rgInitBit | uint32(len(data))<<rgSizeShift)
	return nil
}

// TryRLock acquires r for shared access and stores the reference in h.
//
// It fails without waiting: ErrConflict while an Exclusive handle holds r,
// ErrNotInitialized before Init, ErrBusy while Init or Reset runs, and
// ErrInvalidArgument if h is nil or already holds a lock. On failure h is
// left empty.
func (r *Region) TryRLock(h *Shared) error {
	if r == nil || h == nil || h.ref.r != nil {
		return ErrInvalidArgument
	}
	for {
		s := r.state.Load()
		if err := canShare(s); err != nil {
			return err
		}
		// A lost CAS means another reader moved the count; re-evaluate.
		if r.state.CompareAndSwap(s, s+rgReadUnit) {
			h.ref.r = r
			return nil
		}
	}
}

// TryLock acquires r for exclusive access and stores the reference in h.
//
// It fails without waiting: ErrConflict while any handle holds r,
// ErrNotInitialized before Init, ErrBusy while Init or Reset runs, and
// ErrInvalidArgument if h is nil or already holds a lock. On failure h is
// left empty.
func (r *Region) TryLock(h *Exclusive) error {
	if r == nil || h == nil || h.ref.r != nil {
		return ErrInvalidArgument
	}
	for {
		s := r.state.Load()
		if err := isIdle(s); err != nil {
			return err
		}
		if r.state.CompareAndSwap(s, s|rgWriterBit) {
			h.ref.r = r
			return nil
		}
	}
}

// Reset returns an Idle r to the uninitialized state so its storage can be
// reused or initialized over a different region. It fails with ErrConflict
// while any handle holds r.
func (r *Region) Reset() error {
	if r == nil {
		return ErrInvalidArgument
	}
	for {
		s := r.state.Load()
		if err := isIdle(s); err != nil {
			return err
		}
		if r.state.CompareAndSwap(s, s|rgBusyBit) {
			r.data = nil
			r.state.Store(0)
			return nil
		}
	}
}

// Len returns the size of the guarded region, or 0 if r is not initialized.
//
//go:nosplit
func (r *Region) Len() int {
	if r == nil {
		return 0
	}
	s := r.state.Load()
	if s&rgInitBit == 0 {
		return 0
	}
	return rgSize(s)
}

// bytes views the guarded region. The caller must hold a lock on r.
//
//go:nosplit
func (r *Region) bytes(s uint32) []byte {
	return unsafe.Slice((*byte)(r.data), rgSize(s))
}

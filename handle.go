package rwguard

import "bytes"

// ReadHandle is the capability to read a locked Region.
// Both *Shared and *Exclusive implement it.
type ReadHandle interface {
	// Len returns the size of the guarded region, or 0 if the handle
	// holds nothing.
	Len() int
	// Read copies the whole region into dst.
	Read(dst []byte) error
	// Compare reports ErrMismatch if the first Len bytes of buf differ
	// from the region.
	Compare(buf []byte) error
	// Equal is Compare with the outcome as a bool.
	Equal(buf []byte) (bool, error)
}

// WriteHandle is the capability to overwrite a locked Region.
// Only *Exclusive implements it.
type WriteHandle interface {
	ReadHandle
	// Write copies the first Len bytes of src over the region.
	Write(src []byte) error
}

var (
	_ ReadHandle  = (*Shared)(nil)
	_ WriteHandle = (*Exclusive)(nil)
)

// lockRef is the reference carried by both handle kinds.
// It is nil while the handle holds nothing.
type lockRef struct {
	r *Region
}

//go:nosplit
func (l lockRef) len() int {
	if l.r == nil {
		return 0
	}
	return l.r.Len()
}

// Shared is a handle for shared (read) access to a Region, filled by
// Region.TryRLock and cleared by RUnlock. Any number of Shared handles may
// hold the same Region at once.
//
// The zero value holds nothing. A Shared must not be copied while it holds
// a lock.
//
// Size: 1 pointer.
type Shared struct {
	_   noCopy
	ref lockRef
}

// Held reports whether h currently holds a shared lock.
func (h *Shared) Held() bool {
	return h != nil && h.ref.r != nil
}

// Len returns the size of the locked region, or 0 if h holds nothing.
func (h *Shared) Len() int {
	if h == nil {
		return 0
	}
	return h.ref.len()
}

// RUnlock releases the shared lock held by h and clears h.
//
// Releasing an empty handle fails with ErrNotInitialized and changes
// nothing, so a double release can never drive the reader count below
// zero.
func (h *Shared) RUnlock() error {
	if h == nil {
		return ErrInvalidArgument
	}
	r := h.ref.r
	if r == nil {
		return ErrNotInitialized
	}
	for {
		s := r.state.Load()
		if err := sharedHeld(s); err != nil {
			return err
		}
		if r.state.CompareAndSwap(s, s-rgReadUnit) {
			h.ref.r = nil
			return nil
		}
	}
}

// Read copies the whole region into dst. It fails with ErrInvalidArgument
// and leaves dst untouched if len(dst) < Len().
func (h *Shared) Read(dst []byte) error {
	b, err := h.view(len(dst))
	if err != nil {
		return err
	}
	copy(dst, b)
	return nil
}

// Compare returns nil if the first Len bytes of buf equal the region and
// ErrMismatch if they differ. A buffer shorter than the region fails with
// ErrInvalidArgument.
func (h *Shared) Compare(buf []byte) error {
	b, err := h.view(len(buf))
	if err != nil {
		return err
	}
	if !bytes.Equal(buf[:len(b)], b) {
		return ErrMismatch
	}
	return nil
}

// Equal reports whether the first Len bytes of buf equal the region.
// The error is non-nil only if the comparison could not run.
func (h *Shared) Equal(buf []byte) (bool, error) {
	return equalResult(h.Compare(buf))
}

// view returns the region for a caller buffer of n bytes. Shared holders
// only read, so no guard is taken.
func (h *Shared) view(n int) ([]byte, error) {
	if h == nil {
		return nil, ErrInvalidArgument
	}
	r := h.ref.r
	if r == nil {
		return nil, ErrNotInitialized
	}
	s := r.state.Load()
	if err := sharedHeld(s); err != nil {
		return nil, err
	}
	if n < rgSize(s) {
		return nil, ErrInvalidArgument
	}
	return r.bytes(s), nil
}

// Exclusive is a handle for exclusive (read/write) access to a Region,
// filled by Region.TryLock and cleared by Unlock. At most one Exclusive
// handle holds a Region, and never together with Shared handles.
//
// Data operations through an Exclusive take the Region's mutation guard
// for the duration of the copy; a concurrent data operation through the
// same handle fails with ErrBusy.
//
// The zero value holds nothing. An Exclusive must not be copied while it
// holds a lock.
//
// Size: 1 pointer.
type Exclusive struct {
	_   noCopy
	ref lockRef
}

// Held reports whether h currently holds the exclusive lock.
func (h *Exclusive) Held() bool {
	return h != nil && h.ref.r != nil
}

// Len returns the size of the locked region, or 0 if h holds nothing.
func (h *Exclusive) Len() int {
	if h == nil {
		return 0
	}
	return h.ref.len()
}

// Unlock releases the exclusive lock held by h and clears h. The Region
// becomes Idle.
func (h *Exclusive) Unlock() error {
	if h == nil {
		return ErrInvalidArgument
	}
	r := h.ref.r
	if r == nil {
		return ErrNotInitialized
	}
	for {
		s := r.state.Load()
		if err := exclusiveHeld(s); err != nil {
			return err
		}
		if r.state.CompareAndSwap(s, s&^rgWriterBit) {
			h.ref.r = nil
			return nil
		}
	}
}

// Read copies the whole region into dst. It fails with ErrInvalidArgument
// and leaves dst untouched if len(dst) < Len(), and with ErrBusy while a
// Write through h is still copying.
func (h *Exclusive) Read(dst []byte) error {
	r, s, err := h.enter(len(dst))
	if err != nil {
		return err
	}
	copy(dst, r.bytes(s))
	r.state.Store(s)
	return nil
}

// Compare returns nil if the first Len bytes of buf equal the region and
// ErrMismatch if they differ.
func (h *Exclusive) Compare(buf []byte) error {
	r, s, err := h.enter(len(buf))
	if err != nil {
		return err
	}
	eq := bytes.Equal(buf[:rgSize(s)], r.bytes(s))
	r.state.Store(s)
	if !eq {
		return ErrMismatch
	}
	return nil
}

// Equal reports whether the first Len bytes of buf equal the region.
func (h *Exclusive) Equal(buf []byte) (bool, error) {
	return equalResult(h.Compare(buf))
}

// Write copies the first Len bytes of src over the region. A source shorter
// than the region fails with ErrInvalidArgument and the region is left
// untouched; there are no partial writes.
func (h *Exclusive) Write(src []byte) error {
	r, s, err := h.enter(len(src))
	if err != nil {
		return err
	}
	copy(r.bytes(s), src)
	r.state.Store(s)
	return nil
}

// enter takes the mutation guard for a data operation with an n-byte
// buffer. It returns the state to store back when the operation is done.
func (h *Exclusive) enter(n int) (*Region, uint32, error) {
	if h == nil {
		return nil, 0, ErrInvalidArgument
	}
	r := h.ref.r
	if r == nil {
		return nil, 0, ErrNotInitialized
	}
	for {
		s := r.state.Load()
		if err := exclusiveHeld(s); err != nil {
			return nil, 0, err
		}
		if n < rgSize(s) {
			return nil, 0, ErrInvalidArgument
		}
		if r.state.CompareAndSwap(s, s|rgBusyBit) {
			return r, s, nil
		}
	}
}

// sharedHeld returns nil if s is consistent with a Shared holder.
func sharedHeld(s uint32) error {
	switch {
	case s&rgInitBit == 0:
		return ErrNotInitialized
	case s&rgWriterBit != 0 || rgReaders(s) == 0:
		return ErrConflict
	}
	return nil
}

// exclusiveHeld returns nil if s is consistent with an idle Exclusive
// holder.
func exclusiveHeld(s uint32) error {
	switch {
	case s&rgInitBit == 0:
		return ErrNotInitialized
	case s&rgBusyBit != 0:
		return ErrBusy
	case s&rgWriterBit == 0 || rgReaders(s) != 0:
		return ErrConflict
	}
	return nil
}

func equalResult(err error) (bool, error) {
	switch err {
	case nil:
		return true, nil
	case ErrMismatch:
		return false, nil
	}
	return false, err
}

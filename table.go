package rwguard

import (
	"github.com/llxisdsh/pb"
)

// Table keeps named Regions so unrelated goroutines can find and lock
// them by key.
//
// Features:
//   - Register/Remove are atomic per key.
//   - TryRLock/TryLock by key keep the non-blocking contract of Region.
//   - Remove refuses to drop a Region that is still held.
//
// Usage:
//
//	var t rwguard.Table[string]
//	_, _ = t.Register("config", buf)
//
//	var h rwguard.Shared
//	if err := t.TryRLock("config", &h); err == nil {
//		_ = h.Read(out)
//		_ = h.RUnlock()
//	}
//
// The zero value is ready to use. Unlike Region, Table allocates one Region
// per key.
type Table[K comparable] struct {
	_ noCopy
	m pb.MapOf[K, *Region]
}

// Register creates an Idle Region over data under key. It fails with
// ErrConflict if key is already registered, or with the error of
// Region.Init if data is not a valid region.
func (t *Table[K]) Register(key K, data []byte) (*Region, error) {
	var err error
	r, _ := t.m.ProcessEntry(
		key,
		func(l *pb.EntryOf[K, *Region]) (*pb.EntryOf[K, *Region], *Region, bool) {
			if l != nil {
				err = ErrConflict
				return l, nil, true
			}
			r := &Region{}
			if err = r.Init(data); err != nil {
				return nil, nil, false
			}
			return &pb.EntryOf[K, *Region]{Value: r}, r, false
		},
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Region returns the Region registered under key.
func (t *Table[K]) Region(key K) (*Region, bool) {
	return t.m.Load(key)
}

// TryRLock acquires the Region under key for shared access. An unknown key
// fails with ErrNotInitialized.
func (t *Table[K]) TryRLock(key K, h *Shared) error {
	r, ok := t.m.Load(key)
	if !ok {
		return ErrNotInitialized
	}
	return r.TryRLock(h)
}

// TryLock acquires the Region under key for exclusive access. An unknown
// key fails with ErrNotInitialized.
func (t *Table[K]) TryLock(key K, h *Exclusive) error {
	r, ok := t.m.Load(key)
	if !ok {
		return ErrNotInitialized
	}
	return r.TryLock(h)
}

// Remove resets the Region under key and forgets it. It fails with
// ErrConflict or ErrBusy while the Region is held, and with
// ErrNotInitialized if key is unknown. A caller that looked the Region up
// before Remove sees ErrNotInitialized on its next acquisition.
func (t *Table[K]) Remove(key K) error {
	err := ErrNotInitialized
	t.m.ProcessEntry(
		key,
		func(l *pb.EntryOf[K, *Region]) (*pb.EntryOf[K, *Region], *Region, bool) {
			if l == nil {
				return nil, nil, false
			}
			if err = l.Value.Reset(); err != nil {
				return l, l.Value, true
			}
			return nil, l.Value, true
		},
	)
	return err
}

// Len returns the number of registered Regions.
func (t *Table[K]) Len() int {
	return t.m.Size()
}

// Range calls yield for each registered Region until yield returns false.
// It does not lock the Regions.
func (t *Table[K]) Range(yield func(key K, r *Region) bool) {
	t.m.Range(yield)
}

package rwguard

import (
	"reflect"
	"unsafe"

	"github.com/llxisdsh/pb"
)

// InitValue initializes r over the memory of *p. Its size must be between
// 1 and MaxSize bytes. A T that holds pointers, strings, slices, maps,
// channels, funcs or interfaces fails with ErrInvalidArgument, here and in
// LoadValue, StoreValue and EqualValue: copying raw bytes over such memory
// would hide pointers from the garbage collector.
//
// Usage:
//
//	var (
//		n int32 = 42
//		r rwguard.Region
//		h rwguard.Shared
//	)
//	_ = rwguard.InitValue(&r, &n)
//	_ = r.TryRLock(&h)
//	var got int32
//	_ = rwguard.LoadValue(&h, &got)
//	_ = h.RUnlock()
func InitValue[T any](r *Region, p *T) error {
	if p == nil || !pointerFree[T]() {
		return ErrInvalidArgument
	}
	return r.Init(valueBytes(p))
}

// LoadValue reads the region held by h into *out. The region must be
// exactly the size of T.
func LoadValue[T any](h ReadHandle, out *T) error {
	if h == nil || out == nil {
		return ErrInvalidArgument
	}
	if err := sizeMatches[T](h); err != nil {
		return err
	}
	return h.Read(valueBytes(out))
}

// StoreValue overwrites the region held by h with *v. The region must be
// exactly the size of T.
func StoreValue[T any](h WriteHandle, v *T) error {
	if h == nil || v == nil {
		return ErrInvalidArgument
	}
	if err := sizeMatches[T](h); err != nil {
		return err
	}
	return h.Write(valueBytes(v))
}

// EqualValue reports whether the region held by h equals *v byte for byte.
func EqualValue[T any](h ReadHandle, v *T) (bool, error) {
	if h == nil || v == nil {
		return false, ErrInvalidArgument
	}
	if err := sizeMatches[T](h); err != nil {
		return false, err
	}
	return h.Equal(valueBytes(v))
}

// sizeMatches rejects a T whose size differs from the held region. A
// larger T would otherwise be silently truncated.
func sizeMatches[T any](h ReadHandle) error {
	if !pointerFree[T]() {
		return ErrInvalidArgument
	}
	n := h.Len()
	if n == 0 {
		return ErrNotInitialized
	}
	if uintptr(n) != unsafe.Sizeof(*new(T)) {
		return ErrInvalidArgument
	}
	return nil
}

// pointerFreeTypes caches pointerFree per type. Built eagerly so the first
// lookups do not race on lazy initialization.
var pointerFreeTypes = pb.NewMapOf[reflect.Type, bool]()

func pointerFree[T any]() bool {
	t := reflect.TypeFor[T]()
	ok, _ := pointerFreeTypes.LoadOrCompute(t, func() (bool, bool) {
		return !hasPointers(t), false
	})
	return ok
}

func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	case reflect.Pointer, reflect.UnsafePointer, reflect.Map, reflect.Chan,
		reflect.Func, reflect.Interface, reflect.Slice, reflect.String:
		return true
	default:
		return false
	}
}

//go:nosplit
func valueBytes[T any](p *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), unsafe.Sizeof(*p))
}

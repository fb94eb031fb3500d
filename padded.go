package rwguard

import (
	"unsafe"

	"github.com/llxisdsh/rwguard/internal/opt"
)

// PaddedRegion is a Region padded to the cache line size, for arrays of
// descriptors that are locked from different cores.
//
// Padding is enabled by default on 64-bit architectures other than amd64
// and can be forced with the rwguard_enable_padding or
// rwguard_disable_padding build tags.
//
// Usage:
//
//	var slots [8]rwguard.PaddedRegion
//	_ = slots[i].Init(buf[i*4 : i*4+4])
type PaddedRegion struct {
	// The pad leads so a zero-length pad never ends the struct.
	_ [(opt.PadLine_ - unsafe.Sizeof(Region{})%opt.PadLine_) % opt.PadLine_]byte
	Region
}

package rwguard

import (
	"testing"
	"unsafe"

	"github.com/llxisdsh/rwguard/internal/opt"
)

func TestPaddedRegion_Size(t *testing.T) {
	size := unsafe.Sizeof(PaddedRegion{})
	if size%opt.PadLine_ != 0 {
		t.Fatalf("PaddedRegion size=%d is not a multiple of %d", size, opt.PadLine_)
	}
	if size-unsafe.Sizeof(Region{}) >= opt.PadLine_ {
		t.Fatalf("PaddedRegion size=%d over-padded", size)
	}
	if opt.PadLine_ == 1 && size != unsafe.Sizeof(Region{}) {
		t.Fatalf("PaddedRegion size=%d with padding off, want %d", size, unsafe.Sizeof(Region{}))
	}
	var arr [2]PaddedRegion
	if step := uintptr(unsafe.Pointer(&arr[1].Region)) - uintptr(unsafe.Pointer(&arr[0].Region)); step != size {
		t.Fatalf("array stride=%d want %d", step, size)
	}
}

func TestPaddedRegion_Array(t *testing.T) {
	var buf [8 * 4]byte
	var slots [8]PaddedRegion
	for i := range slots {
		if err := slots[i].Init(buf[i*4 : i*4+4]); err != nil {
			t.Fatal(err)
		}
	}
	var w Exclusive
	if err := slots[3].TryLock(&w); err != nil {
		t.Fatal(err)
	}
	if err := w.Write([]byte{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	_ = w.Unlock()
	if buf[12] != 1 || buf[15] != 4 || buf[11] != 0 || buf[16] != 0 {
		t.Fatalf("write landed outside its slot: %v", buf)
	}
	var s Shared
	if err := slots[4].TryRLock(&s); err != nil {
		t.Fatalf("neighbour slot: %v", err)
	}
	_ = s.RUnlock()
}

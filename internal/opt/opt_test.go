package opt

import "testing"

func TestPadLine(t *testing.T) {
	if PadLine_ != 1 && PadLine_ != CacheLineSize_ {
		t.Fatalf("PadLine_=%d, want 1 or %d", PadLine_, CacheLineSize_)
	}
	if CacheLineSize_ == 0 || CacheLineSize_&(CacheLineSize_-1) != 0 {
		t.Fatalf("CacheLineSize_=%d is not a power of two", CacheLineSize_)
	}
}

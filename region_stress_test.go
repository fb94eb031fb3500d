package rwguard

import (
	"encoding/binary"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/llxisdsh/rwguard/internal/opt"
)

func stressLoops() int {
	if opt.Race_ || testing.Short() {
		return 200
	}
	return 5000
}

// TestRegion_TryLockRace checks that racing acquisitions never admit two
// writers, or a writer together with readers.
func TestRegion_TryLockRace(t *testing.T) {
	var d Region
	_ = d.Init(make([]byte, 8))

	var readers, writers atomic.Int32
	loops := stressLoops()
	readerN := runtime.GOMAXPROCS(0)
	writerN := 4

	var g errgroup.Group
	for range readerN {
		g.Go(func() error {
			var h Shared
			for range loops {
				if err := d.TryRLock(&h); err != nil {
					if !errors.Is(err, ErrConflict) {
						return err
					}
					runtime.Gosched()
					continue
				}
				readers.Add(1)
				if writers.Load() != 0 {
					t.Errorf("reader observed active writer")
				}
				readers.Add(-1)
				if err := h.RUnlock(); err != nil {
					return err
				}
			}
			return nil
		})
	}
	for range writerN {
		g.Go(func() error {
			var h Exclusive
			for range loops {
				if err := d.TryLock(&h); err != nil {
					if !errors.Is(err, ErrConflict) {
						return err
					}
					runtime.Gosched()
					continue
				}
				if writers.Add(1) != 1 {
					t.Errorf("multiple writers active")
				}
				if readers.Load() != 0 {
					t.Errorf("writer observed active readers")
				}
				writers.Add(-1)
				if err := h.Unlock(); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if s := d.state.Load(); s != rgInitBit|8<<rgSizeShift {
		t.Fatalf("state=%#x after stress, want Idle", s)
	}
}

// TestRegion_NoTornRead writes values whose halves mirror each other and
// checks readers only ever see whole values.
func TestRegion_NoTornRead(t *testing.T) {
	var d Region
	data := make([]byte, 64)
	mirror(data, 0)
	_ = d.Init(data)

	loops := stressLoops()
	var torn atomic.Int64
	var wg sync.WaitGroup

	wg.Add(2)
	for w := range 2 {
		go func(id int) {
			defer wg.Done()
			var h Exclusive
			src := make([]byte, 64)
			for i := range loops {
				if d.TryLock(&h) != nil {
					runtime.Gosched()
					continue
				}
				mirror(src, uint64(i)*0x9e3779b97f4a7bb1^uint64(id))
				_ = h.Write(src)
				_ = h.Unlock()
			}
		}(w)
	}

	readerN := runtime.GOMAXPROCS(0)
	wg.Add(readerN)
	for range readerN {
		go func() {
			defer wg.Done()
			var h Shared
			out := make([]byte, 64)
			for range loops {
				if d.TryRLock(&h) != nil {
					runtime.Gosched()
					continue
				}
				_ = h.Read(out)
				_ = h.RUnlock()
				if !mirrored(out) {
					torn.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	if n := torn.Load(); n != 0 {
		t.Fatalf("observed %d torn reads", n)
	}
}

// mirror fills b (64 bytes) with four copies of x followed by four of ^x.
func mirror(b []byte, x uint64) {
	for j := 0; j < 32; j += 8 {
		binary.LittleEndian.PutUint64(b[j:], x)
		binary.LittleEndian.PutUint64(b[32+j:], ^x)
	}
}

func mirrored(b []byte) bool {
	x := binary.LittleEndian.Uint64(b)
	for j := 0; j < 32; j += 8 {
		if binary.LittleEndian.Uint64(b[j:]) != x ||
			binary.LittleEndian.Uint64(b[32+j:]) != ^x {
			return false
		}
	}
	return true
}

package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"golang.org/x/sync/errgroup"

	"github.com/llxisdsh/rwguard"
)

var contendArgs struct {
	readers  int
	writers  int
	size     int
	duration time.Duration
}

func contendCmd() *ffcli.Command {
	fs := newFlagSet("contend")
	fs.IntVar(&contendArgs.readers, "readers", 4, "number of reader goroutines")
	fs.IntVar(&contendArgs.writers, "writers", 1, "number of writer goroutines")
	fs.IntVar(&contendArgs.size, "size", 64, "guarded region size in bytes (16..255, multiple of 16)")
	fs.DurationVar(&contendArgs.duration, "duration", time.Second, "how long to run")
	return &ffcli.Command{
		Name:       "contend",
		ShortUsage: "rwguard contend [-readers N] [-writers M] [-size B] [-duration D]",
		ShortHelp:  "Hammer one region with readers and writers and check for torn reads",
		FlagSet:    fs,
		Options:    []ff.Option{ff.WithEnvVarPrefix("RWGUARD")},
		Exec:       runContend,
	}
}

type contendStats struct {
	reads, writes       atomic.Int64
	readMiss, writeMiss atomic.Int64
	torn                atomic.Int64
}

func runContend(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %q", args)
	}
	a := contendArgs
	if a.size < 16 || a.size > rwguard.MaxSize || a.size%16 != 0 {
		return fmt.Errorf("invalid -size %d", a.size)
	}
	if a.readers < 0 || a.writers < 0 || a.readers+a.writers == 0 {
		return fmt.Errorf("need at least one reader or writer")
	}

	ctx, cancel := context.WithTimeout(ctx, a.duration)
	defer cancel()

	data := make([]byte, a.size)
	fill(data, 0)
	var r rwguard.Region
	if err := r.Init(data); err != nil {
		return err
	}

	var st contendStats
	g, ctx := errgroup.WithContext(ctx)
	for i := range a.writers {
		g.Go(func() error { return writeLoop(ctx, &r, uint64(i), &st) })
	}
	for range a.readers {
		g.Go(func() error { return readLoop(ctx, &r, &st) })
	}
	if err := g.Wait(); err != nil {
		return err
	}

	printf("reads=%d writes=%d read-retries=%d write-retries=%d torn=%d\n",
		st.reads.Load(), st.writes.Load(), st.readMiss.Load(), st.writeMiss.Load(), st.torn.Load())
	if n := st.torn.Load(); n > 0 {
		return fmt.Errorf("%d torn reads", n)
	}
	return nil
}

// writeLoop stores values in which every 8-byte word of the first half is
// x and every word of the second half is ^x.
func writeLoop(ctx context.Context, r *rwguard.Region, id uint64, st *contendStats) error {
	var h rwguard.Exclusive
	src := make([]byte, r.Len())
	for n := uint64(1); ctx.Err() == nil; n++ {
		if err := r.TryLock(&h); err != nil {
			st.writeMiss.Add(1)
			if err := rwguard.Lock(ctx, r, &h); err != nil {
				return ignoreDone(err)
			}
		}
		fill(src, n<<8|id)
		err := h.Write(src)
		if uerr := h.Unlock(); err == nil {
			err = uerr
		}
		if err != nil {
			return err
		}
		st.writes.Add(1)
	}
	return nil
}

func readLoop(ctx context.Context, r *rwguard.Region, st *contendStats) error {
	var h rwguard.Shared
	out := make([]byte, r.Len())
	for ctx.Err() == nil {
		if err := r.TryRLock(&h); err != nil {
			st.readMiss.Add(1)
			if err := rwguard.RLock(ctx, r, &h); err != nil {
				return ignoreDone(err)
			}
		}
		err := h.Read(out)
		if uerr := h.RUnlock(); err == nil {
			err = uerr
		}
		if err != nil {
			return err
		}
		st.reads.Add(1)
		if !filled(out) {
			st.torn.Add(1)
		}
	}
	return nil
}

func ignoreDone(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func fill(b []byte, x uint64) {
	half := len(b) / 2
	for i := 0; i+8 <= half; i += 8 {
		binary.LittleEndian.PutUint64(b[i:], x)
		binary.LittleEndian.PutUint64(b[half+i:], ^x)
	}
}

func filled(b []byte) bool {
	half := len(b) / 2
	x := binary.LittleEndian.Uint64(b)
	for i := 0; i+8 <= half; i += 8 {
		if binary.LittleEndian.Uint64(b[i:]) != x || binary.LittleEndian.Uint64(b[half+i:]) != ^x {
			return false
		}
	}
	return true
}

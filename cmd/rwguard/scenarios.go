package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/llxisdsh/rwguard"
)

func scenariosCmd() *ffcli.Command {
	return &ffcli.Command{
		Name:       "scenarios",
		ShortUsage: "rwguard scenarios",
		ShortHelp:  "Run the reference lock scenarios and print PASSED/FAILED",
		FlagSet:    newFlagSet("scenarios"),
		Exec:       runScenarios,
	}
}

type scenario struct {
	name string
	fn   func() error
}

var scenarios = []scenario{
	{"init", scenarioInit},
	{"read lock", scenarioReadLock},
	{"write lock", scenarioWriteLock},
	{"read after write", scenarioReadAfterWrite},
	{"compare", scenarioCompare},
}

func runScenarios(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %q", args)
	}
	failed := 0
	for _, s := range scenarios {
		if err := s.fn(); err != nil {
			failed++
			printf("%s: FAILED (%v)\n", s.name, err)
			continue
		}
		printf("%s: PASSED\n", s.name)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(scenarios))
	}
	return nil
}

func encode(v int32) []byte {
	b := make([]byte, 4)
	binary.NativeEndian.PutUint32(b, uint32(v))
	return b
}

func decode(b []byte) int32 {
	return int32(binary.NativeEndian.Uint32(b))
}

func scenarioInit() error {
	var r rwguard.Region
	return r.Init(encode(42))
}

func scenarioReadLock() error {
	var r rwguard.Region
	var h rwguard.Shared
	if err := r.Init(encode(42)); err != nil {
		return err
	}
	if err := r.TryRLock(&h); err != nil {
		return fmt.Errorf("TryRLock: %w", err)
	}
	buf := make([]byte, 4)
	if err := h.Read(buf); err != nil {
		return fmt.Errorf("Read: %w", err)
	}
	if got := decode(buf); got != 42 {
		return fmt.Errorf("read %d, want 42", got)
	}
	return h.RUnlock()
}

func scenarioWriteLock() error {
	var r rwguard.Region
	var h rwguard.Exclusive
	if err := r.Init(encode(42)); err != nil {
		return err
	}
	if err := r.TryLock(&h); err != nil {
		return fmt.Errorf("TryLock: %w", err)
	}
	if err := h.Write(encode(100)); err != nil {
		return fmt.Errorf("Write: %w", err)
	}
	buf := make([]byte, 4)
	if err := h.Read(buf); err != nil {
		return fmt.Errorf("Read: %w", err)
	}
	if got := decode(buf); got != 100 {
		return fmt.Errorf("read %d, want 100", got)
	}
	return h.Unlock()
}

func scenarioReadAfterWrite() error {
	var r rwguard.Region
	var w rwguard.Exclusive
	var h rwguard.Shared
	if err := r.Init(encode(42)); err != nil {
		return err
	}
	if err := r.TryLock(&w); err != nil {
		return fmt.Errorf("TryLock: %w", err)
	}
	if err := w.Write(encode(100)); err != nil {
		return fmt.Errorf("Write: %w", err)
	}
	if err := w.Unlock(); err != nil {
		return fmt.Errorf("Unlock: %w", err)
	}
	if err := r.TryRLock(&h); err != nil {
		return fmt.Errorf("TryRLock: %w", err)
	}
	buf := make([]byte, 4)
	if err := h.Read(buf); err != nil {
		return fmt.Errorf("Read: %w", err)
	}
	if got := decode(buf); got != 100 {
		return fmt.Errorf("read %d, want 100", got)
	}
	return h.RUnlock()
}

func scenarioCompare() error {
	var r rwguard.Region
	var w rwguard.Exclusive
	var h rwguard.Shared
	if err := r.Init(encode(12345)); err != nil {
		return err
	}
	if err := r.TryRLock(&h); err != nil {
		return fmt.Errorf("TryRLock: %w", err)
	}
	if err := h.Compare(encode(12345)); err != nil {
		return fmt.Errorf("Compare(12345): %w", err)
	}
	if err := h.RUnlock(); err != nil {
		return err
	}

	if err := r.TryLock(&w); err != nil {
		return fmt.Errorf("TryLock: %w", err)
	}
	if err := w.Write(encode(54321)); err != nil {
		return fmt.Errorf("Write: %w", err)
	}
	if err := w.Compare(encode(54321)); err != nil {
		return fmt.Errorf("Compare(54321): %w", err)
	}
	if err := w.Compare(encode(12345)); !errors.Is(err, rwguard.ErrMismatch) {
		return fmt.Errorf("Compare(12345) after write = %v, want %v", err, rwguard.ErrMismatch)
	}
	return w.Unlock()
}

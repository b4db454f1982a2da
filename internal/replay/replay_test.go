package replay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hoedur-go/hoedur/pkg/emulator"
	"github.com/hoedur-go/hoedur/pkg/inputfile"
	"github.com/hoedur-go/hoedur/pkg/streamctx"
)

func quietOptions(workers int) Options {
	opts := DefaultOptions()
	opts.Workers = workers
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return opts
}

func referenceFactory() (emulator.Emulator, error) {
	return emulator.NewReference(8, 4), nil
}

func TestNewPool_CreatesOneEmulatorPerWorker(t *testing.T) {
	pool, err := NewPool(quietOptions(3), referenceFactory)
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	if got := len(pool.free); got != 3 {
		t.Fatalf("free list has %d emulators, want 3", got)
	}
}

func TestNewPool_PropagatesFactoryError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewPool(quietOptions(2), func() (emulator.Emulator, error) {
		return nil, boom
	})
	if err == nil {
		t.Fatal("NewPool should fail when the factory fails")
	}
}

func TestRun_ReplaysEveryFileInOrder(t *testing.T) {
	pool, err := NewPool(quietOptions(4), referenceFactory)
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}

	files := make([]*inputfile.File, 6)
	for i := range files {
		files[i] = &inputfile.File{ID: streamctx.InputID(i)}
	}

	outcomes, err := pool.Run(context.Background(), files)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(outcomes) != len(files) {
		t.Fatalf("got %d outcomes, want %d", len(outcomes), len(files))
	}
	for i, o := range outcomes {
		if o.File != files[i] {
			t.Errorf("outcome %d carries a different File than input %d, order was not preserved", i, i)
		}
		if o.Err != nil {
			t.Errorf("outcome %d: unexpected error %v", i, o.Err)
		}
	}
}

func TestRun_EmptyInput(t *testing.T) {
	pool, err := NewPool(quietOptions(2), referenceFactory)
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	outcomes, err := pool.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(outcomes) != 0 {
		t.Errorf("Run(nil) returned %d outcomes, want 0", len(outcomes))
	}
}

// Package replay batch-executes a set of stored input files against an
// emulator factory, for the run/run-corpus/run-cov CLI subcommands.
package replay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/time/rate"

	"github.com/hoedur-go/hoedur/internal/errorkind"
	"github.com/hoedur-go/hoedur/pkg/chrono"
	"github.com/hoedur-go/hoedur/pkg/coverage"
	"github.com/hoedur-go/hoedur/pkg/emulator"
	"github.com/hoedur-go/hoedur/pkg/inputfile"
	"github.com/hoedur-go/hoedur/pkg/stopreason"
)

// Options configures a replay run.
type Options struct {
	Workers int
	// RPS throttles executions per second; 0 means unlimited.
	RPS    int
	Logger *slog.Logger
}

// DefaultOptions returns sensible batch-replay defaults.
func DefaultOptions() Options {
	return Options{Workers: 8, Logger: slog.Default()}
}

// EmulatorFactory builds a fresh emulator instance for one worker. Emulators
// are not assumed goroutine-safe, so the pool owns one per worker rather
// than sharing a single instance.
type EmulatorFactory func() (emulator.Emulator, error)

// Outcome is one input's replay result.
type Outcome struct {
	File       *inputfile.File
	StopReason stopreason.StopReason
	Category   stopreason.Category
	Coverage   *coverage.Bitmap
	Chrono     *chrono.Stream
	Err        error
}

// Pool batch-replays input files across a bounded set of emulator workers.
// Emulator instances are lent out through a buffered channel so no two
// goroutines ever drive the same instance concurrently.
type Pool struct {
	opts    Options
	factory EmulatorFactory
	limiter *rate.Limiter
	free    chan emulator.Emulator
}

// NewPool builds a replay Pool and eagerly creates opts.Workers emulator
// instances via factory.
func NewPool(opts Options, factory EmulatorFactory) (*Pool, error) {
	if opts.Workers <= 0 {
		opts = DefaultOptions()
	}
	var limiter *rate.Limiter
	if opts.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), opts.RPS)
	}

	free := make(chan emulator.Emulator, opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		e, err := factory()
		if err != nil {
			return nil, errorkind.Wrap(errorkind.Emulator, fmt.Errorf("replay: create worker emulator: %w", err))
		}
		free <- e
	}

	return &Pool{opts: opts, factory: factory, limiter: limiter, free: free}, nil
}

// Run replays every file in files concurrently, bounded by opts.Workers, and
// returns one Outcome per input in input order.
func (p *Pool) Run(ctx context.Context, files []*inputfile.File) ([]Outcome, error) {
	outcomes := make([]Outcome, len(files))

	var wg sync.WaitGroup
	pool, err := ants.NewPoolWithFunc(p.opts.Workers, func(i interface{}) {
		defer wg.Done()
		idx := i.(int)
		outcomes[idx] = p.replayOne(ctx, files[idx])
	})
	if err != nil {
		return nil, errorkind.Wrap(errorkind.Internal, fmt.Errorf("replay: build pool: %w", err))
	}
	defer pool.Release()

	for idx := range files {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		if err := pool.Invoke(idx); err != nil {
			wg.Done()
			outcomes[idx] = Outcome{File: files[idx], Err: err}
		}
	}
	wg.Wait()

	return outcomes, nil
}

func (p *Pool) replayOne(ctx context.Context, f *inputfile.File) Outcome {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return Outcome{File: f, Err: err}
		}
	}

	emu := <-p.free
	defer func() { p.free <- emu }()

	start := time.Now()
	res, err := emu.Run(f)
	if err != nil {
		p.opts.Logger.Warn("replay failed", "input_id", f.ID, "error", err, "elapsed", time.Since(start))
		return Outcome{File: f, Err: errorkind.Wrap(errorkind.Emulator, err)}
	}

	return Outcome{
		File:       f,
		StopReason: res.StopReason,
		Category:   stopreason.CategoryOf(res.StopReason),
		Coverage:   res.Coverage,
		Chrono:     chrono.Build(res.Hardware.AccessLog),
	}
}

// Package fuzzer orchestrates the single-threaded core loop: pick a base
// input from the corpus, mutate it, execute it against the emulator,
// classify and (if interesting) admit the result.
package fuzzer

import (
	"fmt"

	"github.com/hoedur-go/hoedur/pkg/chrono"
	"github.com/hoedur-go/hoedur/pkg/corpus"
	"github.com/hoedur-go/hoedur/pkg/dictionary"
	"github.com/hoedur-go/hoedur/pkg/emulator"
	"github.com/hoedur-go/hoedur/pkg/inputfile"
	"github.com/hoedur-go/hoedur/pkg/mutation"
	"github.com/hoedur-go/hoedur/pkg/prng"
	"github.com/hoedur-go/hoedur/pkg/streamctx"
	"github.com/hoedur-go/hoedur/pkg/stopreason"
)

// Sink receives accepted inputs for archival, the external collaborator
// described in §6.3. The fuzzer core never opens files itself.
type Sink interface {
	WriteInput(category stopreason.Category, f *inputfile.File) error
}

// Config holds the tunables that are process-wide rather than per-input.
type Config struct {
	Seed              uint64
	Snapshots         bool
	RemoveUnread      bool
	RandomChanceInput int // 1/N chance of forcing add_random_count after a step
}

// DefaultConfig mirrors the source's fuzzer-level defaults.
func DefaultConfig(seed uint64) Config {
	return Config{
		Seed:              seed,
		Snapshots:         false,
		RemoveUnread:      true,
		RandomChanceInput: 4,
	}
}

const maxMutatorRetry = 100
const snapshotRoundsPerPrefix = 100

// Fuzzer drives exactly one emulator instance against exactly one corpus.
type Fuzzer struct {
	cfg     Config
	emu     emulator.Emulator
	corpus  *corpus.Corpus
	dict    *dictionary.Dictionary
	sink    Sink
	rng     *prng.Source
	counter streamctx.Counter

	mutatorAlias *prng.AliasTable
	mutatorOrder []mutation.Kind

	exitRequested bool
}

// New builds a Fuzzer. If the corpus is empty, it bootstraps it with a
// single empty input, establishing the dictionary against the emulator's
// reported read-only memory blocks.
func New(cfg Config, emu emulator.Emulator, c *corpus.Corpus, sink Sink) *Fuzzer {
	dict := dictionary.Build(emu.MemoryBlocks())

	weights := make([]float64, len(mutation.DefaultDistribution))
	order := make([]mutation.Kind, len(mutation.DefaultDistribution))
	for i, w := range mutation.DefaultDistribution {
		weights[i] = w
		order[i] = mutation.Kind(i)
	}

	f := &Fuzzer{
		cfg:          cfg,
		emu:          emu,
		corpus:       c,
		dict:         dict,
		sink:         sink,
		rng:          prng.New(cfg.Seed),
		mutatorAlias: prng.NewAliasTable(weights),
		mutatorOrder: order,
	}

	if c.Len() == 0 {
		f.bootstrap(inputfile.New(&f.counter))
	}

	return f
}

// bootstrap runs an input for the first time and hands the result to the
// corpus without updating its bookkeeping; the corpus schedules it only if it
// classifies the result as NewCoverage.
func (f *Fuzzer) bootstrap(in *inputfile.File) {
	in.SetRandomSeed(mutation.DeriveRandomSeed(f.cfg.Seed, in.ID))
	res, err := f.emu.Run(in)
	if err != nil {
		return
	}
	f.corpus.ProcessResult(nil, corpus.Result{
		File:       in,
		Chrono:     chrono.Build(res.Hardware.AccessLog),
		Bitmap:     res.Coverage,
		StopReason: res.StopReason,
	}, false)
}

// RequestExit asks the loop to stop cleanly after the current input.
func (f *Fuzzer) RequestExit() { f.exitRequested = true }

// Run drives the loop until an exit is requested or an unrecoverable error
// occurs.
func (f *Fuzzer) Run() error {
	for !f.exitRequested {
		var err error
		if f.cfg.Snapshots {
			err = f.runSnapshotRound()
		} else {
			err = f.runPlainRound()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (f *Fuzzer) runPlainRound() error {
	base := f.corpus.RandomInput(f.rng)
	if base == nil {
		return fmt.Errorf("fuzzer: corpus is empty")
	}
	in := base.File.Fork(&f.counter)
	in.SetRandomSeed(mutation.DeriveRandomSeed(f.cfg.Seed, in.ID))
	return f.runMutations(base, in)
}

// runSnapshotRound truncates an input to a random read prefix, executes it
// once to establish a CPU snapshot at that point, then runs several mutation
// rounds against that snapshot before restoring emulator state.
func (f *Fuzzer) runSnapshotRound() error {
	base := f.corpus.RandomInput(f.rng)
	if base == nil {
		return fmt.Errorf("fuzzer: corpus is empty")
	}

	preFuzz := f.emu.SnapshotCreate()
	defer f.emu.SnapshotRestore(preFuzz)

	prefix := base.File.Clone()
	if base.ReadCount > 0 {
		prefix.SetReadLimit(f.rng.UintnRange(0, base.ReadCount))
	}
	prefix.SetRandomSeed(mutation.DeriveRandomSeed(f.cfg.Seed, prefix.ID))

	if _, err := f.emu.Run(prefix); err != nil {
		return err
	}
	snapshot := f.emu.SnapshotCreate()

	for i := 0; i < snapshotRoundsPerPrefix; i++ {
		f.emu.SnapshotRestore(snapshot)
		in := prefix.Fork(&f.counter)
		in.SetRandomSeed(mutation.DeriveRandomSeed(f.cfg.Seed, in.ID))
		if err := f.runMutations(base, in); err != nil {
			return err
		}
		if f.exitRequested {
			break
		}
	}
	return nil
}

// runMutations builds a mutation stack of a random power-of-two size,
// applying one mutation per step and executing the emulator once the stack
// has produced a change, as the havoc loop does.
func (f *Fuzzer) runMutations(base *corpus.InputInfo, in *inputfile.File) error {
	stackSize := 1 << f.rng.UintnRange(2, 5)

	var touched []streamctx.InputContext
	mutated := false

	for step := 0; step < stackSize; step++ {
		ctx, ok := base.Distribution.RandomStreamIndex(base, corpus.Success, f.rng)
		if !ok {
			continue
		}
		applied, err := f.mutateOnce(in, base.Chrono, ctx)
		if err != nil {
			return err
		}
		if applied {
			mutated = true
			touched = append(touched, ctx)
		}
	}

	random := false
	if !mutated || f.rng.OneIn(f.cfg.RandomChanceInput) {
		random = mutation.NewRandom(f.rng).Apply(in)
	}
	if !mutated && !random {
		return nil
	}

	return f.runFuzzerInput(base, in, touched)
}

// mutateOnce picks a mutator kind by the fixed weighted distribution and
// applies it against ctx, retrying on an ineffective pick.
func (f *Fuzzer) mutateOnce(in *inputfile.File, cs *chrono.Stream, ctx streamctx.InputContext) (bool, error) {
	fork := &mutation.Fork{File: in, Chrono: cs}

	randomInput := func() *mutation.CrossOverSource {
		info := f.corpus.RandomInput(f.rng)
		if info == nil {
			return nil
		}
		return &mutation.CrossOverSource{File: info.File, Chrono: info.Chrono}
	}

	for attempt := 0; attempt < maxMutatorRetry; attempt++ {
		stream, ok := in.Streams[ctx]
		index := 0
		if ok && stream.Len() > 0 {
			index = f.rng.Intn(stream.Len() + 1)
		}
		target := chrono.StreamIndex{Context: ctx, Index: index}

		kind := f.mutatorOrder[f.mutatorAlias.Sample(f.rng)]
		m, err := mutation.Create(kind, target, fork, f.dict, randomInput, f.rng)
		if err != nil {
			return false, err
		}
		if m == nil {
			continue
		}
		changed, err := m.Apply(fork)
		if err != nil {
			return false, err
		}
		if changed {
			return true, nil
		}
	}
	return false, nil
}

// runFuzzerInput executes the mutated input against the emulator and
// processes the result, archiving it when the corpus finds it interesting.
func (f *Fuzzer) runFuzzerInput(base *corpus.InputInfo, in *inputfile.File, touched []streamctx.InputContext) error {
	res, err := f.emu.Run(in)
	if err != nil {
		return fmt.Errorf("fuzzer: run: %w", err)
	}
	if res.StopReason.Kind == stopreason.UserExitRequest {
		f.exitRequested = true
		return nil
	}

	result := corpus.Result{
		File:            in,
		Chrono:          chrono.Build(res.Hardware.AccessLog),
		Bitmap:          res.Coverage,
		StopReason:      res.StopReason,
		MutatedContexts: touched,
	}

	switch f.corpus.ProcessResult(base, result, true) {
	case corpus.NewCoverage:
		f.admit(result)
	case corpus.ShorterInput:
		if f.cfg.RemoveUnread {
			result.File.RemoveUnreadValues()
			result.File.RemoveEmptyStreams()
		}
		if corpus.ReplaceWithShorterInput {
			f.corpus.ReplaceInput(base, result)
		}
	}
	return nil
}

func (f *Fuzzer) admit(res corpus.Result) {
	if f.cfg.RemoveUnread {
		res.File.RemoveUnreadValues()
		res.File.RemoveEmptyStreams()
	}
	if f.sink == nil {
		return
	}
	_ = f.sink.WriteInput(stopreason.CategoryOf(res.StopReason), res.File)
}

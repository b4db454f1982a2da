// Package emulator defines the contract the fuzzer core consumes from the
// CPU emulator (§6.1), and ships a reference emulator — a tiny synthetic
// firmware stand-in — so the core is exercisable without a real
// architecture-specific emulator.
package emulator

import (
	"github.com/hoedur-go/hoedur/pkg/coverage"
	"github.com/hoedur-go/hoedur/pkg/inputfile"
	"github.com/hoedur-go/hoedur/pkg/streamctx"
	"github.com/hoedur-go/hoedur/pkg/stopreason"
)

// Limit names one of the four execution resource caps.
type Limit = stopreason.Limit

// Limits bounds a single execution. A zero value in a field disables that
// cap: the reference emulator checks BasicBlocks, MmioRead and
// InputReadOverdue only when they are non-zero, and does not check Interrupts.
type Limits struct {
	BasicBlocks       uint64
	Interrupts        uint64
	MmioRead          uint64
	InputReadOverdue  uint64
}

// DefaultLimits mirrors the source's emulator::limits defaults.
func DefaultLimits() Limits {
	return Limits{
		BasicBlocks:      3_000_000,
		Interrupts:       3_000,
		MmioRead:         0,
		InputReadOverdue: 150_000,
	}
}

// Counts records the resource consumption of one execution, compared
// against Limits to decide whether a cap was exceeded.
type Counts struct {
	BasicBlocks      uint64
	Interrupts       uint64
	MmioRead         uint64
	InputReadOverdue uint64
}

// Hardware bundles the input consumed and the access log produced by one
// execution — the raw material for building a chrono.Stream.
type Hardware struct {
	Input     *inputfile.File
	AccessLog []streamctx.InputContext
}

// ExecutionResult is what one emulator run reports back to the fuzzer loop.
type ExecutionResult struct {
	Counts        Counts
	Hardware      Hardware
	Coverage      *coverage.Bitmap
	ExecutionTime int64 // nanoseconds
	StopReason    stopreason.StopReason
}

// MemoryBlock describes one region of loaded firmware memory, for dictionary
// extraction.
type MemoryBlock struct {
	ReadOnly bool
	Start    uint32
	Bytes    []byte
}

// Snapshot is an opaque, emulator-specific execution-state checkpoint.
type Snapshot interface {
	emulatorSnapshot()
}

// Emulator is the minimal surface the fuzzer core consumes. Implementations
// are responsible for calling back into the input file's Read method for
// every MMIO access that has no concrete hardware model, and for appending
// the resolved InputContext to the access log when that happens.
type Emulator interface {
	SnapshotCreate() Snapshot
	SnapshotRestore(Snapshot)

	Run(input *inputfile.File) (ExecutionResult, error)

	MemoryBlocks() []MemoryBlock

	GetCoverageBitmap() *coverage.Bitmap

	SetNextInputLimits(Limits)
	OffsetLimits(Limits)
	Counts() Counts
}

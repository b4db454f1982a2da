package emulator

import (
	"fmt"

	"github.com/hoedur-go/hoedur/pkg/coverage"
	"github.com/hoedur-go/hoedur/pkg/inputfile"
	"github.com/hoedur-go/hoedur/pkg/streamctx"
	"github.com/hoedur-go/hoedur/pkg/stopreason"
	"github.com/hoedur-go/hoedur/pkg/value"
)

// Reference is a software stand-in for a real CPU emulator: a small
// synthetic firmware model driven entirely by bytes read over MMIO. It
// implements the exact Emulator contract so the fuzzer core can be built and
// tested without any architecture-specific dependency. It is not, and is
// never meant to resemble, a real instruction-level emulator.
type Reference struct {
	blocks   int              // number of synthetic basic blocks in the firmware model
	branches int              // outgoing transitions per block
	mmioAddr uint32

	limits Limits
	counts Counts

	bitmap coverage.Bitmap
}

// NewReference builds a reference emulator with a firmware model of the
// given size. blocks and branches must be >= 1.
func NewReference(blocks, branches int) *Reference {
	if blocks < 1 {
		blocks = 1
	}
	if branches < 1 {
		branches = 1
	}
	return &Reference{
		blocks:   blocks,
		branches: branches,
		mmioAddr: 0x4000_1000,
		limits:   DefaultLimits(),
	}
}

type referenceSnapshot struct {
	counts Counts
	bitmap coverage.Bitmap
}

func (referenceSnapshot) emulatorSnapshot() {}

func (r *Reference) SnapshotCreate() Snapshot {
	return referenceSnapshot{counts: r.counts, bitmap: r.bitmap}
}

func (r *Reference) SnapshotRestore(s Snapshot) {
	rs, ok := s.(referenceSnapshot)
	if !ok {
		panic("emulator: SnapshotRestore called with a snapshot from a different emulator")
	}
	r.counts = rs.counts
	r.bitmap = rs.bitmap
}

func (r *Reference) MemoryBlocks() []MemoryBlock {
	firmware := make([]byte, 0, r.blocks*4)
	for b := 0; b < r.blocks; b++ {
		firmware = append(firmware, byte(b), byte(b>>8), 0x00, 0xff)
	}
	return []MemoryBlock{
		{ReadOnly: true, Start: 0x0800_0000, Bytes: firmware},
	}
}

func (r *Reference) GetCoverageBitmap() *coverage.Bitmap { return &r.bitmap }

func (r *Reference) SetNextInputLimits(l Limits) { r.limits = l }

func (r *Reference) OffsetLimits(l Limits) {
	r.limits.BasicBlocks += l.BasicBlocks
	r.limits.Interrupts += l.Interrupts
	r.limits.MmioRead += l.MmioRead
	r.limits.InputReadOverdue += l.InputReadOverdue
}

func (r *Reference) Counts() Counts { return r.counts }

// edgeHash folds a (previous block, current block) transition into a bitmap
// index, mirroring the "hash of previous block ID x current block ID" idiom
// from the source.
func edgeHash(prev, cur int) uint16 {
	h := uint32(prev)*2654435761 ^ uint32(cur)
	return uint16(h % coverage.Size)
}

// mmioContext is the fixed context under which the firmware model reads its
// driving byte stream.
func (r *Reference) mmioContext(pc uint32) streamctx.InputContext {
	return streamctx.InputContext{
		Stream: streamctx.AccessContext(pc, r.mmioAddr),
		Type:   value.ByteType(),
	}
}

// Run executes the synthetic firmware model against input until it reaches
// a terminal block, hits a modeled crash condition, or exceeds its limits.
func (r *Reference) Run(input *inputfile.File) (ExecutionResult, error) {
	r.counts = Counts{}
	r.bitmap.Reset()

	var accessLog []streamctx.InputContext
	state := 0
	prev := 0
	sinceInput := uint64(0)

	stop := stopreason.StopReason{Kind: stopreason.EndOfInput}

runLoop:
	for {
		if r.limits.BasicBlocks != 0 && r.counts.BasicBlocks >= r.limits.BasicBlocks {
			stop = stopreason.StopReason{Kind: stopreason.LimitReached, Limit: stopreason.LimitBasicBlocks}
			break
		}
		if r.limits.InputReadOverdue != 0 && sinceInput >= r.limits.InputReadOverdue {
			stop = stopreason.StopReason{Kind: stopreason.LimitReached, Limit: stopreason.LimitInputReadOverdue}
			break
		}

		edge := edgeHash(prev, state)
		if r.bitmap[edge] < 0xff {
			r.bitmap[edge]++
		}
		r.counts.BasicBlocks++

		if state == r.blocks-1 {
			stop = stopreason.StopReason{Kind: stopreason.EndOfInput}
			break
		}

		ctx := r.mmioContext(uint32(state))
		v, err := input.Read(ctx)
		if err != nil {
			if err == inputfile.ErrEndOfStream {
				stop = stopreason.StopReason{Kind: stopreason.EndOfInput}
				break
			}
			return ExecutionResult{}, fmt.Errorf("emulator: reference run: %w", err)
		}
		accessLog = append(accessLog, ctx)
		r.counts.MmioRead++
		if r.limits.MmioRead != 0 && r.counts.MmioRead >= r.limits.MmioRead {
			stop = stopreason.StopReason{Kind: stopreason.LimitReached, Limit: stopreason.LimitMmioRead}
			break runLoop
		}
		sinceInput = 0

		b := v.Byte()

		// Modeled crash condition: a terminal-adjacent block reading 0xff
		// dereferences a bad pointer.
		if b == 0xff && state == r.blocks-2 {
			stop = stopreason.StopReason{Kind: stopreason.Crash, PC: uint32(state), RA: uint32(prev), Exception: 0x4}
			break
		}

		prev = state
		state = int(b) % r.branches
		if state >= r.blocks {
			state %= r.blocks
		}
		sinceInput++
	}

	bitmapCopy := r.bitmap

	return ExecutionResult{
		Counts: r.counts,
		Hardware: Hardware{
			Input:     input,
			AccessLog: accessLog,
		},
		Coverage:   &bitmapCopy,
		StopReason: stop,
	}, nil
}

package mutation

import (
	"fmt"

	"github.com/hoedur-go/hoedur/pkg/chrono"
	"github.com/hoedur-go/hoedur/pkg/inputstream"
	"github.com/hoedur-go/hoedur/pkg/prng"
	"github.com/hoedur-go/hoedur/pkg/streamctx"
	"github.com/hoedur-go/hoedur/pkg/value"
)

// --- Splice ---

// splice copies a chronological slab from a donor input, splitting it back
// across streams by the donor's own chrono stream, and inserts or overwrites
// it at the target's chronological position in the destination.
type splice struct {
	insert bool
	data   map[streamctx.InputContext][]value.Value
}

func newSplice(r *prng.Source, donor *CrossOverSource, context streamctx.InputContext) (Mutator, error) {
	targetIndex := 0
	if _, hi, ok := donor.Chrono.StreamRange(context, 0, donor.Chrono.Len()); ok && hi > 0 {
		targetIndex = r.Intn(hi)
	}
	target := chrono.StreamIndex{Context: context, Index: targetIndex}

	start, ok := donor.Chrono.ChronoIndex(target)
	if !ok {
		return nil, fmt.Errorf("mutation: splice: donor has no chrono entry for target")
	}
	count, err := randomBlockLen(r, 1, donor.Chrono.Len()-start)
	if err != nil {
		return nil, err
	}
	chronoLo, chronoHi := start, start+count

	data := make(map[streamctx.InputContext][]value.Value)
	for ctx, s := range donor.File.Streams {
		lo, hi, ok := donor.Chrono.StreamRange(ctx, chronoLo, chronoHi)
		if !ok || lo >= hi {
			continue
		}
		lo, hi = chrono.Clamp(lo, hi, s.Len())
		if lo >= hi {
			continue
		}
		data[ctx] = append([]value.Value(nil), s.Values()[lo:hi]...)
	}

	return splice{insert: r.OneIn(2), data: data}, nil
}

func (m splice) Kind() Kind { return Splice }
func (m splice) Variant() MutatorVariant {
	return MutatorVariant{Kind: VariantInsert, Insert: m.insert}
}

func (m splice) destRange(cs *chrono.Stream, target chrono.StreamIndex) (int, int, bool) {
	start, ok := cs.ChronoIndex(target)
	if !ok {
		return 0, 0, false
	}
	if m.insert {
		return start, start, true
	}
	total := 0
	for _, vs := range m.data {
		total += len(vs)
	}
	return start, start + total, true
}

func (m splice) IsValidAndEffective(fork *Fork, target chrono.StreamIndex) bool {
	if m.insert {
		_, ok := fork.Chrono.ChronoIndex(target)
		return ok && len(m.data) > 0
	}

	chronoLo, chronoHi, ok := m.destRange(fork.Chrono, target)
	if !ok {
		return false
	}
	for ctx, vs := range m.data {
		s, haveStream := fork.File.Streams[ctx]
		lo, hi, haveRange := fork.Chrono.StreamRange(ctx, chronoLo, chronoHi)
		if !haveStream || !haveRange {
			return false
		}
		lo, hi = chrono.Clamp(lo, hi, s.Len())
		existing := s.Values()[lo:hi]
		if !equalValues(vs, existing) {
			return true
		}
	}
	return false
}

func (m splice) Mutate(fork *Fork, target chrono.StreamIndex) error {
	chronoLo, chronoHi, ok := m.destRange(fork.Chrono, target)
	if !ok {
		return fmt.Errorf("mutation: splice: invalid target")
	}
	for ctx, vs := range m.data {
		s, ok := fork.File.Streams[ctx]
		if !ok {
			s = inputstream.New(vs[0].Type)
			fork.File.Streams[ctx] = s
			s.Splice(0, 0, vs)
			continue
		}
		lo, hi, ok := fork.Chrono.StreamRange(ctx, chronoLo, chronoHi)
		if !ok {
			continue
		}
		lo, hi = chrono.Clamp(lo, hi, s.Len())
		s.Splice(lo, hi, vs)
	}
	return nil
}

func equalValues(a, b []value.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// --- ChronoEraseValues ---

type chronoEraseValues struct{ count int }

func newChronoEraseValues(count int) Mutator { return chronoEraseValues{count} }

func (m chronoEraseValues) Kind() Kind              { return ChronoEraseValues }
func (m chronoEraseValues) Variant() MutatorVariant { return noneVariant() }

func (m chronoEraseValues) IsValidAndEffective(fork *Fork, target chrono.StreamIndex) bool {
	_, ok := fork.Chrono.ChronoIndex(target)
	return ok
}

func (m chronoEraseValues) Mutate(fork *Fork, target chrono.StreamIndex) error {
	start, ok := fork.Chrono.ChronoIndex(target)
	if !ok {
		return fmt.Errorf("mutation: chrono erase: invalid target")
	}
	chronoLo, chronoHi := start, start+m.count

	for ctx, s := range fork.File.Streams {
		if s.Len() == 0 {
			continue
		}
		lo, hi, ok := fork.Chrono.StreamRange(ctx, chronoLo, chronoHi)
		if !ok {
			continue
		}
		lo, hi = chrono.Clamp(lo, hi, s.Len())
		s.EraseRange(lo, hi)
	}
	return nil
}

// --- ChronoCopyValuePart ---

type chronoCopyValuePart struct {
	index, count int
	insert       bool
}

func newChronoCopyValuePart(r *prng.Source, fileLen int) (Mutator, error) {
	count, err := randomBlockLen(r, 1, fileLen)
	if err != nil {
		return nil, err
	}
	maxIndex := fileLen - count
	if maxIndex < 0 {
		maxIndex = 0
	}
	index := r.UintnRange(0, maxIndex)
	return chronoCopyValuePart{index: index, count: count, insert: r.OneIn(2)}, nil
}

func (m chronoCopyValuePart) Kind() Kind { return ChronoCopyValuePart }
func (m chronoCopyValuePart) Variant() MutatorVariant {
	return MutatorVariant{Kind: VariantInsert, Insert: m.insert}
}

func (m chronoCopyValuePart) sourceRange() (int, int) { return m.index, m.index + m.count }

func (m chronoCopyValuePart) destRange(cs *chrono.Stream, target chrono.StreamIndex) (int, int, bool) {
	start, ok := cs.ChronoIndex(target)
	if !ok {
		return 0, 0, false
	}
	if m.insert {
		return start, start, true
	}
	return start, start + m.count, true
}

func (m chronoCopyValuePart) IsValidAndEffective(fork *Fork, target chrono.StreamIndex) bool {
	chronoDstLo, chronoDstHi, ok := m.destRange(fork.Chrono, target)
	if !ok {
		return false
	}
	if m.insert {
		return true
	}
	chronoSrcLo, chronoSrcHi := m.sourceRange()
	for ctx, s := range fork.File.Streams {
		if s.Len() == 0 {
			continue
		}
		srcLo, srcHi, okSrc := fork.Chrono.StreamRange(ctx, chronoSrcLo, chronoSrcHi)
		dstLo, dstHi, okDst := fork.Chrono.StreamRange(ctx, chronoDstLo, chronoDstHi)
		if !okSrc || !okDst {
			continue
		}
		srcLo, srcHi = chrono.Clamp(srcLo, srcHi, s.Len())
		dstLo, dstHi = chrono.Clamp(dstLo, dstHi, s.Len())
		if !equalValues(s.Values()[srcLo:srcHi], s.Values()[dstLo:dstHi]) {
			return true
		}
	}
	return false
}

func (m chronoCopyValuePart) Mutate(fork *Fork, target chrono.StreamIndex) error {
	chronoDstLo, chronoDstHi, ok := m.destRange(fork.Chrono, target)
	if !ok {
		return fmt.Errorf("mutation: chrono copy: invalid target")
	}
	chronoSrcLo, chronoSrcHi := m.sourceRange()

	for ctx, s := range fork.File.Streams {
		if s.Len() == 0 {
			continue
		}
		srcLo, srcHi, okSrc := fork.Chrono.StreamRange(ctx, chronoSrcLo, chronoSrcHi)
		dstLo, dstHi, okDst := fork.Chrono.StreamRange(ctx, chronoDstLo, chronoDstHi)
		if !okSrc || !okDst {
			continue
		}
		srcLo, srcHi = chrono.Clamp(srcLo, srcHi, s.Len())
		dstLo, dstHi = chrono.Clamp(dstLo, dstHi, s.Len())
		data := append([]value.Value(nil), s.Values()[srcLo:srcHi]...)
		s.Splice(dstLo, dstHi, data)
	}
	return nil
}

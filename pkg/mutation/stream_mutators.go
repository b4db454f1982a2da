package mutation

import (
	"fmt"

	"github.com/hoedur-go/hoedur/pkg/chrono"
	"github.com/hoedur-go/hoedur/pkg/inputstream"
	"github.com/hoedur-go/hoedur/pkg/prng"
	"github.com/hoedur-go/hoedur/pkg/value"
)

// streamImpl is the minimal per-kind behavior a stream-local mutator
// implements; streamAdapter wires it up to the Mutator interface by looking
// up the target's stream from the fork.
type streamImpl interface {
	kind() Kind
	variant() MutatorVariant
	isValid(s *inputstream.Stream, index int) bool
	isEffective(s *inputstream.Stream, index int) bool
	mutate(s *inputstream.Stream, index int)
}

type streamAdapter struct{ impl streamImpl }

func (a streamAdapter) Kind() Kind                 { return a.impl.kind() }
func (a streamAdapter) Variant() MutatorVariant     { return a.impl.variant() }

func (a streamAdapter) IsValidAndEffective(fork *Fork, target chrono.StreamIndex) bool {
	s, ok := fork.File.Streams[target.Context]
	if !ok {
		return false
	}
	return a.impl.isValid(s, target.Index) && a.impl.isEffective(s, target.Index)
}

func (a streamAdapter) Mutate(fork *Fork, target chrono.StreamIndex) error {
	s, ok := fork.File.Streams[target.Context]
	if !ok {
		return fmt.Errorf("mutation: target stream missing")
	}
	a.impl.mutate(s, target.Index)
	return nil
}

func noneVariant() MutatorVariant { return MutatorVariant{Kind: VariantNone} }

// --- EraseValues ---

type eraseValues struct{ count int }

func newEraseValues(count int) Mutator { return streamAdapter{eraseValues{count}} }

func (m eraseValues) kind() Kind                 { return EraseValues }
func (m eraseValues) variant() MutatorVariant    { return noneVariant() }
func (m eraseValues) isValid(s *inputstream.Stream, i int) bool    { return i < s.Len() }
func (m eraseValues) isEffective(s *inputstream.Stream, i int) bool { return i < s.Len() }
func (m eraseValues) mutate(s *inputstream.Stream, i int) {
	end := i + m.count
	if end > s.Len() {
		end = s.Len()
	}
	s.EraseRange(i, end)
}

// --- InsertValue ---

type insertValue struct{ v value.Value }

func newInsertValue(v value.Value) Mutator { return streamAdapter{insertValue{v}} }

func (m insertValue) kind() Kind              { return InsertValue }
func (m insertValue) variant() MutatorVariant { return noneVariant() }
func (m insertValue) isValid(s *inputstream.Stream, i int) bool    { return i <= s.Len() }
func (m insertValue) isEffective(*inputstream.Stream, int) bool    { return true }
func (m insertValue) mutate(s *inputstream.Stream, i int)          { s.InsertAt(i, m.v) }

// --- InsertRepeatedValue ---

type insertRepeatedValue struct {
	count int
	v     value.Value
}

func newInsertRepeatedValue(count int, v value.Value) Mutator {
	return streamAdapter{insertRepeatedValue{count, v}}
}

func (m insertRepeatedValue) kind() Kind              { return InsertRepeatedValue }
func (m insertRepeatedValue) variant() MutatorVariant { return noneVariant() }
func (m insertRepeatedValue) isValid(s *inputstream.Stream, i int) bool { return i <= s.Len() }
func (m insertRepeatedValue) isEffective(*inputstream.Stream, int) bool { return true }
func (m insertRepeatedValue) mutate(s *inputstream.Stream, i int) {
	repeated := make([]value.Value, m.count)
	for j := range repeated {
		repeated[j] = m.v
	}
	s.Splice(i, i, repeated)
}

// --- ChangeValue ---

type changeValue struct{ v value.Value }

func newChangeValue(v value.Value) Mutator { return streamAdapter{changeValue{v}} }

func (m changeValue) kind() Kind              { return ChangeValue }
func (m changeValue) variant() MutatorVariant { return noneVariant() }
func (m changeValue) isValid(s *inputstream.Stream, i int) bool { return i < s.Len() }
func (m changeValue) isEffective(s *inputstream.Stream, i int) bool {
	return i < s.Len() && !m.v.Equal(s.At(i))
}
func (m changeValue) mutate(s *inputstream.Stream, i int) { s.Set(i, m.v) }

// --- InvertValueBit ---

type invertValueBit struct{ bit uint8 }

func newInvertValueBit(t value.Type, r *prng.Source) Mutator {
	return streamAdapter{invertValueBit{bit: uint8(r.Intn(int(t.BitWidth())))}}
}

func (m invertValueBit) kind() Kind              { return InvertValueBit }
func (m invertValueBit) variant() MutatorVariant { return noneVariant() }
func (m invertValueBit) isValid(s *inputstream.Stream, i int) bool { return i < s.Len() }
func (m invertValueBit) isEffective(s *inputstream.Stream, i int) bool {
	if i >= s.Len() {
		return false
	}
	old := s.At(i)
	if old.Type.Kind != value.Choice {
		return true
	}
	return !old.InvertBit(m.bit).Equal(old)
}
func (m invertValueBit) mutate(s *inputstream.Stream, i int) { s.Set(i, s.At(i).InvertBit(m.bit)) }

// --- OffsetValue ---

type offsetValue struct {
	offset           int8
	overflow         Overflow
	invertEndianness bool
}

func newOffsetValue(t value.Type, r *prng.Source) Mutator {
	var offset int8
	if r.OneIn(2) {
		offset = int8(r.UintnRange(1, 10))
	} else {
		offset = -int8(r.UintnRange(1, 10))
	}
	overflow := OverflowNone
	if t.IsBitTransparent() {
		overflow = Overflow(r.Intn(3))
	}
	return streamAdapter{offsetValue{offset: offset, overflow: overflow, invertEndianness: r.OneIn(2)}}
}

func (m offsetValue) kind() Kind { return OffsetValue }
func (m offsetValue) variant() MutatorVariant {
	return MutatorVariant{Kind: VariantOffset, Overflow: m.overflow, InvertEndianness: m.invertEndianness}
}
func (m offsetValue) isValid(s *inputstream.Stream, i int) bool {
	return i+m.overflow.Items() <= s.Len()
}
func (m offsetValue) isEffective(s *inputstream.Stream, i int) bool {
	if m.overflow != OverflowNone {
		return true
	}
	if i >= s.Len() {
		return false
	}
	old := s.At(i)
	switch old.Type.Kind {
	case value.Bits, value.Choice:
		return !applyValueOffset(old, m.offset, m.invertEndianness).Equal(old)
	default:
		return true
	}
}
func (m offsetValue) mutate(s *inputstream.Stream, i int) {
	items := m.overflow.Items()
	vals := make([]value.Value, items)
	for j := 0; j < items; j++ {
		vals[j] = s.At(i + j)
	}
	applyOffset(m.overflow, vals, m.offset, m.invertEndianness)
	for j := 0; j < items; j++ {
		s.Set(i+j, vals[j])
	}
}

func applyValueOffset(v value.Value, offset int8, invertEndianness bool) value.Value {
	if invertEndianness {
		v = v.InvertEndianness()
	}
	v = v.OffsetValue(offset)
	if invertEndianness {
		v = v.InvertEndianness()
	}
	return v
}

// applyOverflowOffset regroups len(items) bit-transparent values column-wise
// into a value of targetType, applies the offset once to that wider value,
// then splits the result back across the original items byte-by-byte.
func applyOverflowOffset(targetType value.Type, items []value.Value, offset int8, invertEndianness bool) {
	if len(items) == 0 {
		return
	}
	sourceType := items[0].Type
	itemBytes := make([][]byte, len(items))
	for j, it := range items {
		itemBytes[j] = it.ToBytes()
	}
	srcWidth := sourceType.ByteWidth()
	for i := 0; i < srcWidth; i++ {
		column := make([]byte, len(items))
		for j := range items {
			column[j] = itemBytes[j][i]
		}
		overflow, err := value.FromBytes(targetType, column)
		if err != nil {
			continue
		}
		overflow = applyValueOffset(overflow, offset, invertEndianness)
		ob := overflow.ToBytes()
		for j := range items {
			if j < len(ob) {
				itemBytes[j][i] = ob[j]
			}
		}
	}
	for j := range items {
		nv, err := value.FromBytes(sourceType, itemBytes[j])
		if err == nil {
			items[j] = nv
		}
	}
}

func applyOffset(overflow Overflow, items []value.Value, offset int8, invertEndianness bool) {
	switch overflow {
	case OverflowNone:
		items[0] = applyValueOffset(items[0], offset, invertEndianness)
	case OverflowWord:
		applyOverflowOffset(value.WordType(), items, offset, invertEndianness)
	case OverflowDWord:
		applyOverflowOffset(value.DWordType(), items, offset, invertEndianness)
	}
}

// --- ShuffleValues ---

const shuffleRangeMin, shuffleRangeMax = 2, 8

type shuffleValues struct{ permutation [][2]int }

func newShuffleValues(r *prng.Source) Mutator {
	count := r.UintnRange(shuffleRangeMin, shuffleRangeMax)
	perm := make([][2]int, 0, count)
	for i := count - 1; i >= 1; i-- {
		perm = append(perm, [2]int{i, r.Intn(i)})
	}
	return streamAdapter{shuffleValues{perm}}
}

func (m shuffleValues) kind() Kind              { return ShuffleValues }
func (m shuffleValues) variant() MutatorVariant { return noneVariant() }
func (m shuffleValues) isValid(*inputstream.Stream, int) bool { return true }
func (m shuffleValues) isEffective(s *inputstream.Stream, index int) bool {
	for _, ab := range m.permutation {
		a, b := ab[0], ab[1]
		if max(index+a, index*b) >= s.Len() {
			continue
		}
		if !s.At(index + a).Equal(s.At(index + b)) {
			return true
		}
	}
	return false
}
func (m shuffleValues) mutate(s *inputstream.Stream, index int) {
	for _, ab := range m.permutation {
		a, b := ab[0], ab[1]
		if max(index+a, index*b) >= s.Len() {
			continue
		}
		va, vb := s.At(index+a), s.At(index+b)
		s.Set(index+a, vb)
		s.Set(index+b, va)
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// --- CopyValuePart ---

type copyValuePart struct {
	count, source int
	insert        bool
}

func newCopyValuePart(r *prng.Source, streamLen int) (Mutator, error) {
	count, err := randomBlockLen(r, 1, streamLen)
	if err != nil {
		return nil, err
	}
	maxSource := streamLen - count
	if maxSource < 0 {
		maxSource = 0
	}
	source := r.UintnRange(0, maxSource)
	return streamAdapter{copyValuePart{count: count, source: source, insert: r.OneIn(2)}}, nil
}

func (m copyValuePart) kind() Kind { return CopyValuePart }
func (m copyValuePart) variant() MutatorVariant {
	return MutatorVariant{Kind: VariantInsert, Insert: m.insert}
}

func (m copyValuePart) sourceRange(s *inputstream.Stream) (int, int) {
	end := m.source + m.count
	if end > s.Len() {
		end = s.Len()
	}
	return m.source, end
}

func (m copyValuePart) destRange(s *inputstream.Stream, index int) (int, int) {
	if m.insert {
		return index, index
	}
	end := index + m.count
	if end > s.Len() {
		end = s.Len()
	}
	return index, end
}

func (m copyValuePart) isValid(s *inputstream.Stream, index int) bool {
	return index <= s.Len() && m.source < s.Len()
}
func (m copyValuePart) isEffective(s *inputstream.Stream, index int) bool {
	if m.insert {
		return true
	}
	srcLo, srcHi := m.sourceRange(s)
	dstLo, dstHi := m.destRange(s, index)
	for off := 0; off < srcHi-srcLo; off++ {
		dst := dstLo + off
		var dstVal value.Value
		haveDst := dst < dstHi && dst < s.Len()
		if haveDst {
			dstVal = s.At(dst)
		}
		srcVal := s.At(srcLo + off)
		if !haveDst || !srcVal.Equal(dstVal) {
			return true
		}
	}
	return false
}
func (m copyValuePart) mutate(s *inputstream.Stream, index int) {
	srcLo, srcHi := m.sourceRange(s)
	data := append([]value.Value(nil), s.Values()[srcLo:srcHi]...)
	dstLo, dstHi := m.destRange(s, index)
	s.Splice(dstLo, dstHi, data)
}

// --- CrossOverValuePart ---

type crossOverValuePart struct {
	insert bool
	data   []value.Value
}

func newCrossOverValuePart(r *prng.Source, donor []value.Value) (Mutator, error) {
	count, err := randomBlockLen(r, 1, len(donor))
	if err != nil {
		return nil, err
	}
	maxSource := len(donor) - count
	if maxSource < 0 {
		maxSource = 0
	}
	source := r.UintnRange(0, maxSource)
	data := append([]value.Value(nil), donor[source:source+count]...)
	return streamAdapter{crossOverValuePart{insert: r.OneIn(2), data: data}}, nil
}

func (m crossOverValuePart) kind() Kind { return CrossOverValuePart }
func (m crossOverValuePart) variant() MutatorVariant {
	return MutatorVariant{Kind: VariantInsert, Insert: m.insert}
}
func (m crossOverValuePart) destRange(s *inputstream.Stream, index int) (int, int) {
	if m.insert {
		return index, index
	}
	end := index + len(m.data)
	if end > s.Len() {
		end = s.Len()
	}
	return index, end
}
func (m crossOverValuePart) isValid(s *inputstream.Stream, index int) bool { return index <= s.Len() }
func (m crossOverValuePart) isEffective(s *inputstream.Stream, index int) bool {
	if m.insert {
		return len(m.data) > 0
	}
	lo, hi := m.destRange(s, index)
	for off := 0; off < len(m.data); off++ {
		dst := lo + off
		var dstVal value.Value
		haveDst := dst < hi && dst < s.Len()
		if haveDst {
			dstVal = s.At(dst)
		}
		if !haveDst || !m.data[off].Equal(dstVal) {
			return true
		}
	}
	return false
}
func (m crossOverValuePart) mutate(s *inputstream.Stream, index int) {
	lo, hi := m.destRange(s, index)
	s.Splice(lo, hi, m.data)
}

// --- Dictionary ---

func newDictionary(t value.Type, entry []byte, r *prng.Source) Mutator {
	data := make([]value.Value, len(entry))
	for i, b := range entry {
		data[i] = value.FromRepeatedByte(t, b)
	}
	return streamAdapter{dictionaryMutator{crossOverValuePart{insert: r.OneIn(2), data: data}}}
}

type dictionaryMutator struct{ inner crossOverValuePart }

func (m dictionaryMutator) kind() Kind                 { return Dictionary }
func (m dictionaryMutator) variant() MutatorVariant    { return m.inner.variant() }
func (m dictionaryMutator) isValid(s *inputstream.Stream, i int) bool    { return m.inner.isValid(s, i) }
func (m dictionaryMutator) isEffective(s *inputstream.Stream, i int) bool { return m.inner.isEffective(s, i) }
func (m dictionaryMutator) mutate(s *inputstream.Stream, i int)          { m.inner.mutate(s, i) }

// --- InterestingValue ---

func newInterestingValue(t value.Type, r *prng.Source) (Mutator, error) {
	var data []value.Value
	var err error
	switch t.Kind {
	case value.Choice:
		if r.OneIn(2) {
			data, err = choicePatternABAB(t.Count, r)
		} else {
			data, err = choicePatternABCD(t.Count, r)
		}
	default:
		data = interestingValueOverflow(t, r)
	}
	if err != nil {
		return nil, err
	}
	return streamAdapter{interestingValue{crossOverValuePart{insert: r.OneIn(2), data: data}}}, nil
}

func interestingValueOverflow(t value.Type, r *prng.Source) []value.Value {
	wide := value.WordType()
	if r.OneIn(2) {
		wide = value.DWordType()
	}
	v := wide.Interesting(r.Intn(1 << 16))
	bytes := v.ToBytes()
	data := make([]value.Value, len(bytes))
	for i, b := range bytes {
		data[i] = value.FromRepeatedByte(t, b)
	}
	return data
}

func choicePatternABAB(count uint16, r *prng.Source) ([]value.Value, error) {
	a := uint16(r.Intn(int(count)))
	b := a
	if count > 1 {
		tmp := uint16(r.Intn(int(count) - 1))
		b = tmp
		if tmp >= a {
			b = tmp + 1
		}
	}
	n, err := randomBlockLen(r, 4, 1<<20)
	if err != nil {
		return nil, err
	}
	data := make([]value.Value, n)
	for i := range data {
		if i%2 == 0 {
			data[i] = value.NewChoice(count, a)
		} else {
			data[i] = value.NewChoice(count, b)
		}
	}
	return data, nil
}

func choicePatternABCD(count uint16, r *prng.Source) ([]value.Value, error) {
	n, err := randomBlockLen(r, int(count), 1<<20)
	if err != nil {
		return nil, err
	}
	data := make([]value.Value, n)
	for i := range data {
		data[i] = value.NewChoice(count, uint16(i)%count)
	}
	return data, nil
}

type interestingValue struct{ inner crossOverValuePart }

func (m interestingValue) kind() Kind                 { return InterestingValue }
func (m interestingValue) variant() MutatorVariant    { return m.inner.variant() }
func (m interestingValue) isValid(s *inputstream.Stream, i int) bool    { return m.inner.isValid(s, i) }
func (m interestingValue) isEffective(s *inputstream.Stream, i int) bool { return m.inner.isEffective(s, i) }
func (m interestingValue) mutate(s *inputstream.Stream, i int)          { m.inner.mutate(s, i) }

// Package mutation implements the typed mutator library that the fuzzer
// loop applies to a forked input file: stream-local mutators operating on a
// single stream and index, and cross-stream mutators that reason about the
// chrono stream.
package mutation

import (
	"fmt"

	"github.com/hoedur-go/hoedur/pkg/chrono"
	"github.com/hoedur-go/hoedur/pkg/dictionary"
	"github.com/hoedur-go/hoedur/pkg/inputfile"
	"github.com/hoedur-go/hoedur/pkg/prng"
	"github.com/hoedur-go/hoedur/pkg/streamctx"
)

// Kind enumerates the 14 mutator kinds, in the order the weighted mutator
// selection distribution is indexed by.
type Kind uint8

const (
	EraseValues Kind = iota
	InsertValue
	InsertRepeatedValue
	ChangeValue
	OffsetValue
	InvertValueBit
	ShuffleValues
	CopyValuePart
	CrossOverValuePart
	Splice
	ChronoEraseValues
	ChronoCopyValuePart
	Dictionary
	InterestingValue
	kindCount
)

func (k Kind) String() string {
	names := [...]string{
		"EraseValues", "InsertValue", "InsertRepeatedValue", "ChangeValue",
		"OffsetValue", "InvertValueBit", "ShuffleValues", "CopyValuePart",
		"CrossOverValuePart", "Splice", "ChronoEraseValues", "ChronoCopyValuePart",
		"Dictionary", "InterestingValue",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "Unknown"
}

// DefaultDistribution is the fixed mutator-selection weight table: all
// mutators enabled except EraseValues and Dictionary, matching the source's
// MUTATOR_DISTRIBUTION (MUTATOR_ERASE_VALUES=false, MUTATOR_DICTIONARY=false).
var DefaultDistribution = [kindCount]float64{
	EraseValues:         0,
	InsertValue:         1,
	InsertRepeatedValue: 1,
	ChangeValue:         1,
	OffsetValue:         1,
	InvertValueBit:      1,
	ShuffleValues:       1,
	CopyValuePart:       1,
	CrossOverValuePart:  1,
	Splice:              1,
	ChronoEraseValues:   1,
	ChronoCopyValuePart: 1,
	Dictionary:          0,
	InterestingValue:    1,
}

// VariantKind discriminates the observable "shape" of a mutator instance,
// used purely for statistics/logging.
type VariantKind uint8

const (
	VariantNone VariantKind = iota
	VariantInsert
	VariantOffset
)

// MutatorVariant is the logged shape of one mutator instance.
type MutatorVariant struct {
	Kind             VariantKind
	Insert           bool
	Overflow         Overflow
	InvertEndianness bool
}

// Overflow selects how OffsetValue groups bit-transparent values into a
// wider column before applying a wrapping offset.
type Overflow uint8

const (
	OverflowNone Overflow = iota
	OverflowWord
	OverflowDWord
)

// Items is the number of consecutive stream values this overflow mode spans.
func (o Overflow) Items() int {
	switch o {
	case OverflowWord:
		return 2
	case OverflowDWord:
		return 4
	default:
		return 1
	}
}

// Fork bundles the input being mutated with the chrono stream of the
// execution it descends from — the chrono stream is needed by cross-stream
// mutators (Splice, ChronoEraseValues, ChronoCopyValuePart) to translate a
// StreamIndex target into chronological ranges.
type Fork struct {
	File   *inputfile.File
	Chrono *chrono.Stream
}

// CrossOverSource is the minimal view of another corpus input a mutator
// needs to draw cross-over material from.
type CrossOverSource struct {
	File   *inputfile.File
	Chrono *chrono.Stream
}

// Mutator is one configured mutation, ready to be checked and applied
// against a specific target.
type Mutator interface {
	Kind() Kind
	Variant() MutatorVariant
	IsValidAndEffective(fork *Fork, target chrono.StreamIndex) bool
	Mutate(fork *Fork, target chrono.StreamIndex) error
}

// Mutation pairs a configured Mutator with the StreamIndex it targets.
type Mutation struct {
	Target  chrono.StreamIndex
	Mutator Mutator
}

// Apply applies the mutation iff valid and effective, reporting whether it
// changed the input.
func (m Mutation) Apply(fork *Fork) (bool, error) {
	if !m.Mutator.IsValidAndEffective(fork, m.Target) {
		return false, nil
	}
	if err := m.Mutator.Mutate(fork, m.Target); err != nil {
		return false, fmt.Errorf("mutation: apply %v: %w", m.Mutator.Kind(), err)
	}
	return true, nil
}

const maxCrossOverRetry = 10

// Create builds a Mutator of the given kind targeting target, drawing
// whatever randomness and cross-over/dictionary material it needs. It
// returns (nil, nil) when no valid mutator of this kind can be constructed
// (e.g. no cross-over donor has a non-empty matching stream).
func Create(kind Kind, target chrono.StreamIndex, fork *Fork, dict *dictionary.Dictionary, randomInput func() *CrossOverSource, r *prng.Source) (*Mutation, error) {
	stream, ok := fork.File.Streams[target.Context]
	streamLen := 0
	if ok {
		streamLen = stream.Len()
	}

	searchCrossOver := func(chronoMode bool) *CrossOverSource {
		for i := 0; i < maxCrossOverRetry; i++ {
			src := randomInput()
			if src == nil {
				return nil
			}
			var nonEmpty bool
			if chronoMode {
				_, _, ok := src.Chrono.StreamRange(target.Context, 0, src.Chrono.Len())
				nonEmpty = ok
			} else {
				s, ok := src.File.Streams[target.Context]
				nonEmpty = ok && s.Len() > 0
			}
			if nonEmpty {
				return src
			}
		}
		return nil
	}

	var mutator Mutator
	switch kind {
	case EraseValues:
		if !ok {
			return nil, nil
		}
		count, err := randomBlockLen(r, 1, streamLen)
		if err != nil {
			return nil, err
		}
		mutator = newEraseValues(count)
	case InsertValue:
		if !ok {
			return nil, nil
		}
		mutator = newInsertValue(inputfile.BiasedRandom(stream.Type(), r))
	case InsertRepeatedValue:
		if !ok {
			return nil, nil
		}
		count, err := randomBlockLen(r, 3, 1<<31)
		if err != nil {
			return nil, err
		}
		mutator = newInsertRepeatedValue(count, inputfile.BiasedRandom(stream.Type(), r))
	case ChangeValue:
		if !ok {
			return nil, nil
		}
		mutator = newChangeValue(inputfile.BiasedRandom(stream.Type(), r))
	case OffsetValue:
		if !ok {
			return nil, nil
		}
		mutator = newOffsetValue(stream.Type(), r)
	case InvertValueBit:
		if !ok {
			return nil, nil
		}
		mutator = newInvertValueBit(stream.Type(), r)
	case ShuffleValues:
		mutator = newShuffleValues(r)
	case CopyValuePart:
		if !ok {
			return nil, nil
		}
		m, err := newCopyValuePart(r, streamLen)
		if err != nil {
			return nil, err
		}
		mutator = m
	case CrossOverValuePart:
		src := searchCrossOver(false)
		if src == nil {
			return nil, nil
		}
		donor := src.File.Streams[target.Context]
		m, err := newCrossOverValuePart(r, donor.Values())
		if err != nil {
			return nil, err
		}
		mutator = m
	case Splice:
		src := searchCrossOver(true)
		if src == nil {
			return nil, nil
		}
		m, err := newSplice(r, src, target.Context)
		if err != nil {
			return nil, err
		}
		mutator = m
	case ChronoEraseValues:
		count, err := randomBlockLen(r, 1, fork.File.Len())
		if err != nil {
			return nil, err
		}
		mutator = newChronoEraseValues(count)
	case ChronoCopyValuePart:
		m, err := newChronoCopyValuePart(r, fork.File.Len())
		if err != nil {
			return nil, err
		}
		mutator = m
	case Dictionary:
		if !ok || !stream.Type().IsBitTransparent() {
			return nil, nil
		}
		entry := dict.RandomEntry(r)
		if entry == nil {
			return nil, nil
		}
		m := newDictionary(stream.Type(), entry, r)
		if m == nil {
			return nil, nil
		}
		mutator = m
	case InterestingValue:
		if !ok {
			return nil, nil
		}
		m, err := newInterestingValue(stream.Type(), r)
		if err != nil {
			return nil, err
		}
		mutator = m
	default:
		return nil, fmt.Errorf("mutation: unknown kind %v", kind)
	}

	return &Mutation{Target: target, Mutator: mutator}, nil
}

// blockSizeWeights and blockSizePow2 form the fixed power-of-two block-length picker: 2^5
// with 35% weight, 2^7 35%, 2^11 25%, 2^15 5%.
var blockSizeWeights = []float64{35, 35, 25, 5}
var blockSizePow2 = []int{5, 7, 11, 15}
var blockSizeAlias = prng.NewAliasTable(blockSizeWeights)

// randomBlockLen picks a block length in [min, max] per the fixed
// power-of-two size distribution.
func randomBlockLen(r *prng.Source, minLen, maxLen int) (int, error) {
	if minLen > maxLen {
		minLen = maxLen
	}
	idx := blockSizeAlias.Sample(r)
	cap := 1 << blockSizePow2[idx]
	if cap < minLen {
		cap = minLen
	}
	if cap > maxLen {
		cap = maxLen
	}
	return r.UintnRange(minLen, cap), nil
}

// Random is the independent "random_count" mutation: sets the input's
// random_count to 2^k, forcing 2^k further biased-random reads even past the
// end of recorded streams.
type Random struct {
	count uint32
}

// NewRandom picks k in [5,8] and a matching random count.
func NewRandom(r *prng.Source) *Random {
	k := r.UintnRange(5, 8)
	return &Random{count: uint32(1) << uint(k)}
}

func (m *Random) Apply(f *inputfile.File) bool {
	if f.RandomCount != nil {
		return false
	}
	f.SetRandomCount(m.count)
	return true
}

// DeriveRandomSeed derives the per-run PRNG seed for a fuzzed input, from
// the fuzzer's process seed and the input's own ID, so a replay with the
// same fuzzer seed reproduces identical mutation decisions.
func DeriveRandomSeed(fuzzerSeed uint64, id streamctx.InputID) uint64 {
	return prng.Derive(fuzzerSeed, uint64(id))
}

// Package inputfile implements the structured, multi-stream input container
// consumed by MMIO reads (the "hardware input protocol" of the fuzzer core),
// and its binary on-disk encoding.
package inputfile

import (
	"fmt"

	"github.com/hoedur-go/hoedur/pkg/inputstream"
	"github.com/hoedur-go/hoedur/pkg/prng"
	"github.com/hoedur-go/hoedur/pkg/streamctx"
	"github.com/hoedur-go/hoedur/pkg/value"
)

// Policy knobs controlling the read protocol, set once at fuzzer startup.
// These mirror the source's RANDOM_NEW_STREAM / RANDOM_EMPTY_STREAM config
// constants, both true by default.
var (
	AllowRandomNewStream   = true
	AllowRandomEmptyStream = true
)

// ErrEndOfStream is returned by Read when no value can be produced for a
// context — either because a read_limit/exhausted stream forbids it, or
// because this is a replay input (no RandomSeed) whose streams ran dry.
var ErrEndOfStream = fmt.Errorf("inputfile: end of stream")

// File is the structured input: an ID, optional parent, a map of streams
// keyed by InputContext, and three optional fields valid only during a
// fuzzed execution (never persisted to disk).
type File struct {
	ID      streamctx.InputID
	Parent  *streamctx.InputID
	Streams map[streamctx.InputContext]*inputstream.Stream

	RandomSeed  *uint64
	RandomCount *uint32
	ReadLimit   *int
}

// New returns an empty input file with a freshly reserved ID.
func New(counter *streamctx.Counter) *File {
	if counter == nil {
		counter = &streamctx.DefaultCounter
	}
	return &File{
		ID:      counter.Reserve(),
		Streams: make(map[streamctx.InputContext]*inputstream.Stream),
	}
}

// Len returns the total number of stored values across every stream — the
// upper bound for ReadLimit during minimization.
func (f *File) Len() int {
	n := 0
	for _, s := range f.Streams {
		n += s.Len()
	}
	return n
}

// SetRandomSeed, SetRandomCount and SetReadLimit install the optional
// per-execution fields.
func (f *File) SetRandomSeed(seed uint64)  { f.RandomSeed = &seed }
func (f *File) SetRandomCount(count uint32) { f.RandomCount = &count }
func (f *File) SetReadLimit(limit int)     { f.ReadLimit = &limit }

// Fork returns a child File: a fresh ID, Parent set to f.ID, every stream
// forked (shared backing slice, cursor reset to 0), and the optional fields
// cleared.
func (f *File) Fork(counter *streamctx.Counter) *File {
	if counter == nil {
		counter = &streamctx.DefaultCounter
	}
	parent := f.ID
	child := &File{
		ID:      counter.Reserve(),
		Parent:  &parent,
		Streams: make(map[streamctx.InputContext]*inputstream.Stream, len(f.Streams)),
	}
	for ctx, s := range f.Streams {
		child.Streams[ctx] = s.Fork()
	}
	return child
}

// ReplaceID copies the source input's ID and Parent onto f, used when
// reimporting a corpus archive input under a new process-wide ID space.
func (f *File) ReplaceID(like *File) {
	f.ID = like.ID
	f.Parent = like.Parent
}

// Read implements the §4.1 hardware input protocol for one MMIO read
// against context c.
func (f *File) Read(c streamctx.InputContext) (value.Value, error) {
	if f.ReadLimit != nil {
		if *f.ReadLimit == 0 {
			return value.Value{}, ErrEndOfStream
		}
		*f.ReadLimit--
	}

	s, ok := f.Streams[c]
	if !ok {
		if f.RandomSeed != nil && AllowRandomNewStream {
			s = inputstream.New(c.Type)
			f.Streams[c] = s
		} else {
			return value.Value{}, ErrEndOfStream
		}
	}

	if s.Cursor() < s.Len() {
		v := s.At(s.Cursor())
		if v.Type != c.Type {
			return value.Value{}, fmt.Errorf("inputfile: stream type mismatch at %s: stream has %s, context wants %s", c, v.Type.Kind, c.Type.Kind)
		}
		s.SetCursor(s.Cursor() + 1)
		return v, nil
	}

	// cursor at end: only generate a random value under specific conditions.
	allowRandom := false
	if s.Len() == 0 && AllowRandomEmptyStream {
		allowRandom = true
	} else if f.RandomCount != nil && *f.RandomCount > 0 {
		allowRandom = true
		*f.RandomCount--
	}
	if !allowRandom {
		return value.Value{}, ErrEndOfStream
	}

	seed := uint64(0)
	if f.RandomSeed != nil {
		seed = *f.RandomSeed
	} else {
		// replay input with no seed: exhausted streams always end.
		return value.Value{}, ErrEndOfStream
	}

	derived := prng.Derive(seed, uint64(c.Stream.Kind), uint64(c.Stream.PC), uint64(c.Stream.Addr), uint64(c.Stream.ID), uint64(s.Cursor()))
	v := BiasedRandom(c.Type, prng.New(derived))
	s.Push(v)
	s.SetCursor(s.Cursor() + 1)
	return v, nil
}

// BiasedRandom produces a value of type t: 25% zero, 25% an interesting
// constant (endian-swapped at random for >=16-bit types), 50% uniform. For
// Choice it falls back to a uniform index.
func BiasedRandom(t value.Type, r *prng.Source) value.Value {
	if t.Kind == value.Choice {
		return value.NewChoice(t.Count, uint16(r.Intn(int(t.Count))))
	}

	switch r.Intn(4) {
	case 0:
		return value.NewBitsOrByteOrWide(t, 0)
	case 1:
		v := t.Interesting(r.Intn(1 << 16))
		if r.OneIn(2) {
			v = v.InvertEndianness()
		}
		return v
	default:
		bits := t.BitWidth()
		max := uint64(1) << bits
		raw := uint32(uint64(r.Uint64()) % max)
		return value.NewBitsOrByteOrWide(t, raw)
	}
}

// Merge appends other's streams onto f's, per matching context.
func (f *File) Merge(other *File) {
	for ctx, s := range other.Streams {
		if existing, ok := f.Streams[ctx]; ok {
			existing.Merge(s)
		} else {
			f.Streams[ctx] = s.Clone()
		}
	}
}

// Split returns a new File whose streams contain only the suffix after f's
// current per-stream cursor.
func (f *File) Split() *File {
	out := &File{Streams: make(map[streamctx.InputContext]*inputstream.Stream, len(f.Streams))}
	for ctx, s := range f.Streams {
		out.Streams[ctx] = s.Split()
	}
	return out
}

// SetCursor aligns f's per-context cursors to those of other, leaving
// contexts absent from other untouched.
func (f *File) SetCursor(other *File) {
	for ctx, s := range other.Streams {
		if mine, ok := f.Streams[ctx]; ok {
			mine.SetCursor(s.Cursor())
		}
	}
}

// ResetCursor zeros every stream's cursor.
func (f *File) ResetCursor() {
	for _, s := range f.Streams {
		s.ResetCursor()
	}
}

// RemoveUnreadValues truncates every stream to its cursor.
func (f *File) RemoveUnreadValues() {
	for _, s := range f.Streams {
		s.Truncate(s.Cursor())
	}
}

// RemoveEmptyStreams deletes every stream that became empty.
func (f *File) RemoveEmptyStreams() {
	for ctx, s := range f.Streams {
		if s.Len() == 0 {
			delete(f.Streams, ctx)
		}
	}
}

// Clone deep-copies f, including every stream's backing values, preserving
// ID/Parent/optional fields.
func (f *File) Clone() *File {
	out := &File{
		ID:      f.ID,
		Parent:  f.Parent,
		Streams: make(map[streamctx.InputContext]*inputstream.Stream, len(f.Streams)),
	}
	if f.RandomSeed != nil {
		v := *f.RandomSeed
		out.RandomSeed = &v
	}
	if f.RandomCount != nil {
		v := *f.RandomCount
		out.RandomCount = &v
	}
	if f.ReadLimit != nil {
		v := *f.ReadLimit
		out.ReadLimit = &v
	}
	for ctx, s := range f.Streams {
		out.Streams[ctx] = s.Clone()
	}
	return out
}

// Filename is the on-disk filename convention for this input.
func (f *File) Filename() string {
	return fmt.Sprintf("input-%d.bin", f.ID)
}

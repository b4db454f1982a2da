// Package inputstream implements the copy-on-write value stream: an ordered
// sequence of same-typed values plus a read cursor, shareable by reference
// across forks until first mutated.
package inputstream

import "github.com/hoedur-go/hoedur/pkg/value"

// Stream is an ordered sequence of values of a single Type, plus a cursor.
// The backing slice is shared across forks (shared == true) until a
// mutating call triggers copy-on-write.
type Stream struct {
	typ    value.Type
	values []value.Value
	cursor int
	shared bool
}

// New creates an empty stream of the given type.
func New(t value.Type) *Stream {
	return &Stream{typ: t}
}

// FromValues creates a stream owning the given values outright (not shared).
func FromValues(t value.Type, values []value.Value) *Stream {
	return &Stream{typ: t, values: values}
}

func (s *Stream) Type() value.Type  { return s.typ }
func (s *Stream) Len() int          { return len(s.values) }
func (s *Stream) Cursor() int       { return s.cursor }
func (s *Stream) Values() []value.Value { return s.values }

// SetCursor sets the cursor, clamped to [0, len].
func (s *Stream) SetCursor(c int) {
	if c < 0 {
		c = 0
	}
	if c > len(s.values) {
		c = len(s.values)
	}
	s.cursor = c
}

// ResetCursor zeros the cursor.
func (s *Stream) ResetCursor() { s.cursor = 0 }

// At returns the value at index i.
func (s *Stream) At(i int) value.Value { return s.values[i] }

// own ensures the backing slice is exclusively owned by this stream,
// copying it first if it is currently shared with a fork sibling.
func (s *Stream) own() {
	if s.shared {
		cp := make([]value.Value, len(s.values))
		copy(cp, s.values)
		s.values = cp
		s.shared = false
	}
}

// Fork returns a new Stream sharing this stream's backing slice by
// reference, with its cursor reset to 0. The original and the fork both
// become "shared"; the next mutating call on either copies first.
func (s *Stream) Fork() *Stream {
	s.shared = true
	return &Stream{typ: s.typ, values: s.values, shared: true}
}

// Push appends v, copying the backing slice first if shared.
func (s *Stream) Push(v value.Value) {
	s.own()
	s.values = append(s.values, v)
}

// Set overwrites the value at index i.
func (s *Stream) Set(i int, v value.Value) {
	s.own()
	s.values[i] = v
}

// InsertAt inserts v at index i (0 <= i <= len), shifting the tail right.
func (s *Stream) InsertAt(i int, v value.Value) {
	s.own()
	s.values = append(s.values, value.Value{})
	copy(s.values[i+1:], s.values[i:])
	s.values[i] = v
	if s.cursor >= i {
		s.cursor++
	}
}

// EraseRange removes values[lo:hi), clamped to the stream length.
func (s *Stream) EraseRange(lo, hi int) {
	s.own()
	if lo < 0 {
		lo = 0
	}
	if hi > len(s.values) {
		hi = len(s.values)
	}
	if lo >= hi {
		return
	}
	s.values = append(s.values[:lo], s.values[hi:]...)
	removed := hi - lo
	switch {
	case s.cursor >= hi:
		s.cursor -= removed
	case s.cursor > lo:
		s.cursor = lo
	}
}

// Splice replaces values[lo:hi) with replacement, shifting the tail and
// adjusting the cursor the same way EraseRange/InsertAt would in sequence.
// lo and hi are clamped to the stream length; lo is clamped to hi.
func (s *Stream) Splice(lo, hi int, replacement []value.Value) {
	s.own()
	if lo < 0 {
		lo = 0
	}
	if hi > len(s.values) {
		hi = len(s.values)
	}
	if lo > hi {
		lo = hi
	}

	removed := hi - lo
	tail := append([]value.Value(nil), s.values[hi:]...)
	s.values = append(s.values[:lo], replacement...)
	s.values = append(s.values, tail...)

	delta := len(replacement) - removed
	switch {
	case s.cursor >= hi:
		s.cursor += delta
	case s.cursor > lo:
		s.cursor = lo
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

// Truncate shortens the stream to at most n values, used by RemoveUnreadValues.
func (s *Stream) Truncate(n int) {
	if n >= len(s.values) {
		return
	}
	s.own()
	s.values = s.values[:n]
	if s.cursor > n {
		s.cursor = n
	}
}

// Clone returns a deep, independently-owned copy.
func (s *Stream) Clone() *Stream {
	cp := make([]value.Value, len(s.values))
	copy(cp, s.values)
	return &Stream{typ: s.typ, values: cp, cursor: s.cursor}
}

// Merge appends other's values after this stream's own values.
func (s *Stream) Merge(other *Stream) {
	s.own()
	s.values = append(s.values, other.values...)
}

// Split returns a new Stream containing the suffix after this stream's
// cursor, leaving this stream untouched (used by InputFile.Split).
func (s *Stream) Split() *Stream {
	suffix := make([]value.Value, len(s.values)-s.cursor)
	copy(suffix, s.values[s.cursor:])
	return &Stream{typ: s.typ, values: suffix}
}

// ScaleKind selects how ScaledSize weighs a stream's "size" for success
// distribution scaling.
type ScaleKind uint8

const (
	ScaleBits ScaleKind = iota
	ScaleBitValues
	ScaleBitValuesPow2
	ScaleBytes
	ScaleValues
)

// ScaledSize returns this stream's size under the given scale, used to
// weight success-rate-based stream selection by how much entropy a stream
// actually carries.
func (s *Stream) ScaledSize(scale ScaleKind) float64 {
	n := len(s.values)
	bitWidth := float64(s.typ.BitWidth())
	switch scale {
	case ScaleBits:
		return bitWidth
	case ScaleBitValues:
		return bitWidth * float64(n)
	case ScaleBitValuesPow2:
		v := bitWidth * float64(n)
		p := 1.0
		for p < v {
			p *= 2
		}
		return p
	case ScaleBytes:
		return float64(s.typ.ByteWidth() * n)
	case ScaleValues:
		return float64(n)
	}
	return float64(n)
}

// Package chrono builds, from one execution's MMIO access log, the
// chronological index used by cross-stream mutations (Splice, ChronoErase,
// ChronoCopyValuePart) to reason about time rather than per-stream position.
package chrono

import "github.com/hoedur-go/hoedur/pkg/streamctx"

// StreamIndex names one read: the stream it came from and its position
// within that stream at the time of the read.
type StreamIndex struct {
	Context streamctx.InputContext
	Index   int
}

// entry records, for one chronological position, which stream read happened
// and at what position within that stream.
type entry struct {
	context streamctx.InputContext
	index   int
}

// Stream is the built chrono index for one execution's access log. It is
// immutable after Build and safe to share read-only across mutators.
type Stream struct {
	log        []entry
	reverse    map[StreamIndex]int
	perContext map[streamctx.InputContext][]int // chronological positions, ascending
}

// Build constructs a Stream from an access log: the ordered list of
// InputContexts read during one execution, in program order.
func Build(accessLog []streamctx.InputContext) *Stream {
	s := &Stream{
		log:        make([]entry, 0, len(accessLog)),
		reverse:    make(map[StreamIndex]int, len(accessLog)),
		perContext: make(map[streamctx.InputContext][]int),
	}
	counts := make(map[streamctx.InputContext]int)
	for i, c := range accessLog {
		idx := counts[c]
		counts[c] = idx + 1
		s.log = append(s.log, entry{context: c, index: idx})
		s.reverse[StreamIndex{Context: c, Index: idx}] = i
		s.perContext[c] = append(s.perContext[c], i)
	}
	return s
}

// Len returns the number of reads recorded — the input's read_count.
func (s *Stream) Len() int { return len(s.log) }

// ChronoIndex returns the chronological position of the read identified by
// target, if that read happened during this execution.
func (s *Stream) ChronoIndex(target StreamIndex) (int, bool) {
	i, ok := s.reverse[target]
	return i, ok
}

// At returns the (context, per-stream index) pair for chronological
// position i.
func (s *Stream) At(i int) (StreamIndex, bool) {
	if i < 0 || i >= len(s.log) {
		return StreamIndex{}, false
	}
	e := s.log[i]
	return StreamIndex{Context: e.context, Index: e.index}, true
}

// StreamRange returns the smallest per-stream half-open range [lo, hi) such
// that every read from context whose chronological position lies in
// [chronoLo, chronoHi) lies inside the returned range. Returns ok=false if
// no such read exists. The caller is responsible for clamping the result to
// the stream's current length before use (streams may have grown/shrunk
// since the execution that produced this chrono stream).
func (s *Stream) StreamRange(context streamctx.InputContext, chronoLo, chronoHi int) (lo, hi int, ok bool) {
	positions := s.perContext[context]
	if len(positions) == 0 {
		return 0, 0, false
	}

	first, last := -1, -1
	for _, pos := range positions {
		if pos >= chronoLo && pos < chronoHi {
			if first == -1 {
				first = pos
			}
			last = pos
		}
	}
	if first == -1 {
		return 0, 0, false
	}

	loIdx := s.log[first].index
	hiIdx := s.log[last].index + 1
	return loIdx, hiIdx, true
}

// Clamp bounds [lo, hi) into [0, streamLen].
func Clamp(lo, hi, streamLen int) (int, int) {
	if lo < 0 {
		lo = 0
	}
	if hi > streamLen {
		hi = streamLen
	}
	if lo > hi {
		lo = hi
	}
	return lo, hi
}

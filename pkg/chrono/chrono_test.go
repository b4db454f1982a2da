package chrono

import (
	"testing"

	"github.com/hoedur-go/hoedur/pkg/streamctx"
	"github.com/hoedur-go/hoedur/pkg/value"
)

func ctx(addr uint32) streamctx.InputContext {
	return streamctx.NewInputContext(streamctx.MmioContext(addr), value.ByteType())
}

func TestBuild_LenMatchesAccessLog(t *testing.T) {
	log := []streamctx.InputContext{ctx(1), ctx(2), ctx(1), ctx(1)}
	s := Build(log)
	if got := s.Len(); got != len(log) {
		t.Fatalf("Len() = %d, want %d", got, len(log))
	}
}

func TestBuild_PerStreamIndicesIncrement(t *testing.T) {
	log := []streamctx.InputContext{ctx(1), ctx(2), ctx(1), ctx(1)}
	s := Build(log)

	want := []StreamIndex{
		{Context: ctx(1), Index: 0},
		{Context: ctx(2), Index: 0},
		{Context: ctx(1), Index: 1},
		{Context: ctx(1), Index: 2},
	}
	for i, w := range want {
		got, ok := s.At(i)
		if !ok {
			t.Fatalf("At(%d) not found", i)
		}
		if got != w {
			t.Errorf("At(%d) = %+v, want %+v", i, got, w)
		}
	}
}

func TestChronoIndex_RoundTrip(t *testing.T) {
	log := []streamctx.InputContext{ctx(1), ctx(2), ctx(1)}
	s := Build(log)

	target := StreamIndex{Context: ctx(1), Index: 1}
	pos, ok := s.ChronoIndex(target)
	if !ok {
		t.Fatal("ChronoIndex did not find a read that exists in the log")
	}
	if pos != 2 {
		t.Errorf("ChronoIndex(%+v) = %d, want 2", target, pos)
	}
}

func TestChronoIndex_Missing(t *testing.T) {
	s := Build([]streamctx.InputContext{ctx(1)})
	if _, ok := s.ChronoIndex(StreamIndex{Context: ctx(99), Index: 0}); ok {
		t.Error("ChronoIndex found a read that was never logged")
	}
}

func TestAt_OutOfRange(t *testing.T) {
	s := Build([]streamctx.InputContext{ctx(1)})
	if _, ok := s.At(-1); ok {
		t.Error("At(-1) should fail")
	}
	if _, ok := s.At(1); ok {
		t.Error("At(len) should fail")
	}
}

func TestStreamRange_CoversExactReads(t *testing.T) {
	log := []streamctx.InputContext{ctx(1), ctx(2), ctx(1), ctx(2), ctx(1)}
	s := Build(log)

	lo, hi, ok := s.StreamRange(ctx(1), 1, 4)
	if !ok {
		t.Fatal("StreamRange reported no match, expected one")
	}
	// Of ctx(1)'s chronological positions (0, 2, 4), only 2 falls in [1, 4),
	// which is ctx(1)'s per-stream index 1.
	if lo != 1 || hi != 2 {
		t.Errorf("StreamRange = (%d, %d), want (1, 2)", lo, hi)
	}
}

func TestStreamRange_NoOverlap(t *testing.T) {
	s := Build([]streamctx.InputContext{ctx(1), ctx(1)})
	if _, _, ok := s.StreamRange(ctx(2), 0, 2); ok {
		t.Error("StreamRange found a match for a context never read")
	}
}

func TestClamp(t *testing.T) {
	cases := []struct {
		lo, hi, streamLen, wantLo, wantHi int
	}{
		{-5, 10, 8, 0, 8},
		{2, 4, 8, 2, 4},
		{6, 3, 8, 3, 3},
		{0, 0, 0, 0, 0},
	}
	for _, c := range cases {
		lo, hi := Clamp(c.lo, c.hi, c.streamLen)
		if lo != c.wantLo || hi != c.wantHi {
			t.Errorf("Clamp(%d, %d, %d) = (%d, %d), want (%d, %d)",
				c.lo, c.hi, c.streamLen, lo, hi, c.wantLo, c.wantHi)
		}
	}
}

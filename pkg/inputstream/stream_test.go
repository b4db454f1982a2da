package inputstream

import (
	"testing"

	"github.com/hoedur-go/hoedur/pkg/value"
)

func vals(n int) []value.Value {
	out := make([]value.Value, n)
	for i := range out {
		out[i] = value.NewByte(byte(i))
	}
	return out
}

func TestPush_AppendsAndGrowsLen(t *testing.T) {
	s := New(value.ByteType())
	s.Push(value.NewByte(1))
	s.Push(value.NewByte(2))
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	if s.At(0).Byte() != 1 || s.At(1).Byte() != 2 {
		t.Error("values not stored in push order")
	}
}

func TestFork_SharesUntilMutated(t *testing.T) {
	s := FromValues(value.ByteType(), vals(3))
	fork := s.Fork()

	if fork.Len() != s.Len() {
		t.Fatalf("forked stream len = %d, want %d", fork.Len(), s.Len())
	}
	if fork.Cursor() != 0 {
		t.Error("forked stream cursor should reset to 0")
	}

	fork.Push(value.NewByte(99))
	if s.Len() != 3 {
		t.Errorf("mutating the fork should not affect the original, original len = %d", s.Len())
	}
}

func TestInsertAt_ShiftsTailAndCursor(t *testing.T) {
	s := FromValues(value.ByteType(), vals(3))
	s.SetCursor(2)
	s.InsertAt(1, value.NewByte(200))

	if s.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", s.Len())
	}
	if s.At(1).Byte() != 200 {
		t.Error("InsertAt did not place the value at the requested index")
	}
	if s.Cursor() != 3 {
		t.Errorf("cursor = %d, want 3 (shifted past the insertion point)", s.Cursor())
	}
}

func TestEraseRange_AdjustsCursor(t *testing.T) {
	s := FromValues(value.ByteType(), vals(5))
	s.SetCursor(4)
	s.EraseRange(1, 3)

	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	if s.Cursor() != 2 {
		t.Errorf("cursor = %d, want 2 (shifted left by removed count)", s.Cursor())
	}
}

func TestEraseRange_CursorInsideErasedRangeClampsToLo(t *testing.T) {
	s := FromValues(value.ByteType(), vals(5))
	s.SetCursor(2)
	s.EraseRange(1, 4)
	if s.Cursor() != 1 {
		t.Errorf("cursor = %d, want 1 (clamped to lo)", s.Cursor())
	}
}

func TestSplice_ReplacesRangeAndShiftsCursor(t *testing.T) {
	s := FromValues(value.ByteType(), vals(4))
	s.SetCursor(3)
	s.Splice(1, 2, []value.Value{value.NewByte(9), value.NewByte(8), value.NewByte(7)})

	if s.Len() != 6 {
		t.Fatalf("Len() = %d, want 6", s.Len())
	}
	if s.At(1).Byte() != 9 || s.At(2).Byte() != 8 || s.At(3).Byte() != 7 {
		t.Error("Splice did not insert the replacement values at the right position")
	}
	if s.Cursor() != 5 {
		t.Errorf("cursor = %d, want 5 (shifted right by the net size delta)", s.Cursor())
	}
}

func TestTruncate_ClampsCursor(t *testing.T) {
	s := FromValues(value.ByteType(), vals(5))
	s.SetCursor(4)
	s.Truncate(2)
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	if s.Cursor() != 2 {
		t.Errorf("cursor = %d, want 2 (clamped to new length)", s.Cursor())
	}
}

func TestTruncate_NoOpWhenNNotSmaller(t *testing.T) {
	s := FromValues(value.ByteType(), vals(3))
	s.Truncate(10)
	if s.Len() != 3 {
		t.Error("Truncate(n) with n >= len should be a no-op")
	}
}

func TestClone_IsIndependent(t *testing.T) {
	s := FromValues(value.ByteType(), vals(2))
	clone := s.Clone()
	clone.Push(value.NewByte(77))
	if s.Len() != 2 {
		t.Error("mutating a clone should not affect the original")
	}
}

func TestSplit_ReturnsSuffixAfterCursor(t *testing.T) {
	s := FromValues(value.ByteType(), vals(5))
	s.SetCursor(3)
	suffix := s.Split()
	if suffix.Len() != 2 {
		t.Fatalf("Split() suffix len = %d, want 2", suffix.Len())
	}
	if suffix.At(0).Byte() != 3 || suffix.At(1).Byte() != 4 {
		t.Error("Split() suffix did not start at the cursor")
	}
	if s.Len() != 5 {
		t.Error("Split should not mutate the original stream")
	}
}

func TestMerge_AppendsOtherValues(t *testing.T) {
	a := FromValues(value.ByteType(), vals(2))
	b := FromValues(value.ByteType(), vals(3))
	a.Merge(b)
	if a.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", a.Len())
	}
}

func TestScaledSize_Kinds(t *testing.T) {
	s := FromValues(value.WordType(), vals(4))
	if got := s.ScaledSize(ScaleBits); got != 16 {
		t.Errorf("ScaleBits = %v, want 16", got)
	}
	if got := s.ScaledSize(ScaleValues); got != 4 {
		t.Errorf("ScaleValues = %v, want 4", got)
	}
	if got := s.ScaledSize(ScaleBytes); got != 8 {
		t.Errorf("ScaleBytes = %v, want 8", got)
	}
}

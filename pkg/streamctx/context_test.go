package streamctx

import (
	"testing"

	"github.com/hoedur-go/hoedur/pkg/value"
)

func TestLess_OrdersByAddrThenPcThenKind(t *testing.T) {
	a := AccessContext(0x100, 0x10)
	b := AccessContext(0x100, 0x20)
	if !a.Less(b) {
		t.Error("lower addr should sort first")
	}

	c := AccessContext(0x100, 0x10)
	d := AccessContext(0x200, 0x10)
	if !c.Less(d) {
		t.Error("equal addr, lower pc should sort first")
	}
}

func TestLess_Irreflexive(t *testing.T) {
	a := MmioContext(0x10)
	if a.Less(a) {
		t.Error("a value should never be Less than itself")
	}
}

func TestStreamContext_String_Distinguishable(t *testing.T) {
	seen := map[string]bool{}
	contexts := []StreamContext{
		AccessContext(1, 2),
		MmioContext(2),
		CustomContext(3),
		NoneContext(),
		InterruptContext(),
	}
	for _, c := range contexts {
		s := c.String()
		if seen[s] {
			t.Errorf("StreamContext.String() collision for %v: %q", c, s)
		}
		seen[s] = true
	}
}

func TestCounter_ReserveIsMonotonicAndUnique(t *testing.T) {
	c := Counter{}
	seen := map[InputID]bool{}
	for i := 0; i < 100; i++ {
		id := c.Reserve()
		if seen[id] {
			t.Fatalf("Reserve produced duplicate id %d", id)
		}
		seen[id] = true
	}
}

func TestInputContext_Equality(t *testing.T) {
	a := NewInputContext(MmioContext(4), value.ByteType())
	b := NewInputContext(MmioContext(4), value.ByteType())
	c := NewInputContext(MmioContext(5), value.ByteType())

	if a != b {
		t.Error("identical (stream, type) pairs should compare equal")
	}
	if a == c {
		t.Error("different stream contexts should not compare equal")
	}
}

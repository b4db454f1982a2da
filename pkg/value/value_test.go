package value

import "testing"

func TestToBytesFromBytes_RoundTrip(t *testing.T) {
	cases := []Value{
		NewByte(0xab),
		NewWord(0xbeef),
		NewDWord(0xdeadbeef),
		NewBits(5, 0x17),
		NewChoice(10, 3),
	}
	for _, v := range cases {
		b := v.ToBytes()
		got, err := FromBytes(v.Type, b)
		if err != nil {
			t.Fatalf("FromBytes(%v, %v) failed: %v", v.Type, b, err)
		}
		if !got.Equal(v) {
			t.Errorf("round-trip mismatch: got %+v, want %+v", got, v)
		}
	}
}

func TestFromBytes_TooShort(t *testing.T) {
	if _, err := FromBytes(WordType(), []byte{1}); err == nil {
		t.Error("FromBytes should fail when given fewer bytes than ByteWidth requires")
	}
}

func TestInvertBit_Scalar(t *testing.T) {
	v := NewByte(0)
	flipped := v.InvertBit(0)
	if flipped.Byte() != 1 {
		t.Errorf("InvertBit(0) on zero byte = %d, want 1", flipped.Byte())
	}
	back := flipped.InvertBit(0)
	if back.Byte() != 0 {
		t.Errorf("InvertBit(0) twice should restore original value, got %d", back.Byte())
	}
}

func TestInvertBit_ChoiceStaysInRange(t *testing.T) {
	v := NewChoice(5, 0)
	for bit := uint8(0); bit < 8; bit++ {
		flipped := v.InvertBit(bit)
		if flipped.Index >= 5 {
			t.Fatalf("InvertBit(%d) on a Choice(5) produced out-of-range index %d", bit, flipped.Index)
		}
	}
}

func TestInvertEndianness_Word(t *testing.T) {
	v := NewWord(0x1234)
	got := v.InvertEndianness().Word()
	if got != 0x3412 {
		t.Errorf("InvertEndianness() = %#x, want 0x3412", got)
	}
}

func TestInvertEndianness_DWord(t *testing.T) {
	v := NewDWord(0x11223344)
	got := v.InvertEndianness().DWord()
	if got != 0x44332211 {
		t.Errorf("InvertEndianness() = %#x, want 0x44332211", got)
	}
}

func TestOffsetValue_WrapsWithinBitWidth(t *testing.T) {
	v := NewByte(0xff)
	got := v.OffsetValue(1)
	if got.Byte() != 0 {
		t.Errorf("OffsetValue(1) on 0xff byte = %d, want 0 (wrap)", got.Byte())
	}
}

func TestOffsetValue_ChoiceWrapsBothWays(t *testing.T) {
	v := NewChoice(4, 0)
	down := v.OffsetValue(-1)
	if down.Index != 3 {
		t.Errorf("OffsetValue(-1) on Choice index 0 = %d, want 3", down.Index)
	}
	up := NewChoice(4, 3).OffsetValue(1)
	if up.Index != 0 {
		t.Errorf("OffsetValue(1) on Choice index 3 (count 4) = %d, want 0", up.Index)
	}
}

func TestEqual_DifferentTypesNeverEqual(t *testing.T) {
	if NewByte(1).Equal(NewWord(1)) {
		t.Error("values of different Type should never be Equal")
	}
}

func TestByteWidth_MatchesKind(t *testing.T) {
	cases := []struct {
		t    Type
		want int
	}{
		{ByteType(), 1},
		{WordType(), 2},
		{DWordType(), 4},
		{BitsType(7), 1},
		{ChoiceType(20), 1},
	}
	for _, c := range cases {
		if got := c.t.ByteWidth(); got != c.want {
			t.Errorf("ByteWidth(%v) = %d, want %d", c.t.Kind, got, c.want)
		}
	}
}

func TestBitsType_PanicsOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("BitsType(0) should panic")
		}
	}()
	BitsType(0)
}

func TestChoiceType_PanicsOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("ChoiceType(0) should panic")
		}
	}()
	ChoiceType(0)
}

func TestInteresting_StaysWithinTableBounds(t *testing.T) {
	byteVal := ByteType().Interesting(2)
	if byteVal.Type.Kind != Byte {
		t.Errorf("Interesting on ByteType produced Kind %v", byteVal.Type.Kind)
	}

	choiceVal := ChoiceType(3).Interesting(100)
	if choiceVal.Index >= 3 {
		t.Errorf("Interesting on Choice(3) produced out-of-range index %d", choiceVal.Index)
	}
}

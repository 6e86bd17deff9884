package sdnv

import "testing"

func TestEncodedLen(t *testing.T) {
	cases := []struct {
		value uint64
		want  int
	}{
		{0, 1},
		{127, 1},
		{128, 2},
		{16383, 2},
		{16384, 3},
		{1 << 35, 6},
	}

	for _, c := range cases {
		if got := EncodedLen(c.value); got != c.want {
			t.Errorf("EncodedLen(%d) = %d, want %d", c.value, got, c.want)
		}
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 300, 16383, 16384, 1 << 40, ^uint64(0)}

	for _, v := range values {
		block := make([]byte, 16)
		wf := Field{Value: v, Index: 0}
		var flags Flags

		next := Write(block, &wf, &flags)
		if flags.Has(FlagOverflow) {
			t.Fatalf("unexpected overflow writing %d", v)
		}

		rf := Field{Index: 0}
		var rflags Flags
		rnext := Read(block, &rf, &rflags)

		if rnext != next {
			t.Errorf("value %d: write consumed %d bytes, read consumed %d", v, next, rnext)
		}
		if rf.Value != v {
			t.Errorf("value %d: round-trip got %d", v, rf.Value)
		}
		if rflags != 0 {
			t.Errorf("value %d: unexpected read flags %v", v, rflags)
		}
	}
}

func TestWriteFixedWidthFreezesOffset(t *testing.T) {
	block := make([]byte, 16)

	f := Field{Value: 5, Index: 2, Width: 4}
	var flags Flags
	next := Write(block, &f, &flags)

	if next != 6 {
		t.Fatalf("expected fixed width to consume 4 bytes, got next=%d", next)
	}
	if f.Width != 4 {
		t.Fatalf("expected width to stay frozen at 4, got %d", f.Width)
	}

	// Rewriting a larger value in the same fixed width must not move next.
	f.Value = 200
	next2 := Write(block, &f, &flags)
	if next2 != next {
		t.Fatalf("rewrite shifted the field's end: %d != %d", next2, next)
	}
}

func TestWriteOverflowSetsFlagAndTruncates(t *testing.T) {
	block := make([]byte, 16)
	f := Field{Value: 1000, Index: 0, Width: 1} // 1 byte SDNV max value is 127
	var flags Flags

	Write(block, &f, &flags)
	if !flags.Has(FlagOverflow) {
		t.Fatalf("expected overflow flag to be set")
	}

	rf := Field{Index: 0}
	var rflags Flags
	Read(block, &rf, &rflags)
	if rf.Value != maxForWidth(1) {
		t.Fatalf("expected truncated value %d, got %d", maxForWidth(1), rf.Value)
	}
}

func TestReadIncompleteSetsFlag(t *testing.T) {
	block := []byte{0x81, 0x82} // both continuation bits set, no terminator
	f := Field{Index: 0}
	var flags Flags

	Read(block, &f, &flags)
	if !flags.Has(FlagIncomplete) {
		t.Fatalf("expected incomplete flag to be set")
	}
}

func TestMask(t *testing.T) {
	f := Field{Value: 300, Width: 1}
	Mask(&f)
	if f.Value != maxForWidth(1) {
		t.Fatalf("Mask did not truncate: got %d", f.Value)
	}

	f2 := Field{Value: 300, Width: 0}
	Mask(&f2)
	if f2.Value != 300 {
		t.Fatalf("Mask should be a no-op for width 0, got %d", f2.Value)
	}
}

func TestReadNilFlagsDoesNotPanic(t *testing.T) {
	block := []byte{0x81} // incomplete
	f := Field{Index: 0}
	Read(block, &f, nil)
}

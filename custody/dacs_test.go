package custody

import "testing"

func TestDACSWriteReadRoundTrip(t *testing.T) {
	var tree RangeTree
	for _, cid := range []uint64{0, 1, 2, 3, 4, 10, 11, 20} {
		tree.Add(cid)
	}

	buf := make([]byte, 64)
	n, truncated := WriteDACS(buf, 10, &tree)
	if truncated {
		t.Fatalf("WriteDACS reported truncated for a buffer with ample room")
	}
	if !tree.Empty() {
		t.Fatalf("WriteDACS should drain every emitted range from the tree")
	}

	var acked []uint64
	numAcks, err := ReadDACS(buf[:n], func(parm interface{}, cid uint64, flags uint32) {
		acked = append(acked, cid)
	}, nil, 0)
	if err != nil {
		t.Fatalf("ReadDACS: unexpected error: %v", err)
	}
	if numAcks != 8 {
		t.Fatalf("ReadDACS numAcks = %d, want 8", numAcks)
	}

	want := []uint64{0, 1, 2, 3, 4, 10, 11, 20}
	if len(acked) != len(want) {
		t.Fatalf("acked = %v, want %v", acked, want)
	}
	for i := range want {
		if acked[i] != want[i] {
			t.Fatalf("acked[%d] = %d, want %d", i, acked[i], want[i])
		}
	}
}

func TestDACSWriteTruncatesOnMaxFills(t *testing.T) {
	var tree RangeTree
	tree.Add(0)
	tree.Add(5)
	tree.Add(10)

	buf := make([]byte, 64)
	n, truncated := WriteDACS(buf, 2, &tree)
	if !truncated {
		t.Fatalf("WriteDACS with maxFills=2 over 3 ranges should report truncated")
	}

	remaining := tree.Ranges()
	if len(remaining) != 1 || remaining[0].Lo != 10 {
		t.Fatalf("remaining ranges after truncation = %+v, want one range starting at 10", remaining)
	}

	numAcks, err := ReadDACS(buf[:n], func(interface{}, uint64, uint32) {}, nil, 0)
	if err != nil {
		t.Fatalf("ReadDACS: unexpected error: %v", err)
	}
	if numAcks != 2 {
		t.Fatalf("ReadDACS numAcks = %d, want 2", numAcks)
	}
}

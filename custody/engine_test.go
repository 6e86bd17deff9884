package custody

import "testing"

// TestCustodyACSCycle mirrors spec.md's example scenario: channel A sends
// 5 bundles with CIDs 0..4, channel B acknowledges them all in one DACS,
// and channel A's active buffer empties out after ingesting it.
func TestCustodyACSCycle(t *testing.T) {
	a := NewEngine(16)
	b := NewEngine(16)

	for cid := uint64(0); cid < 5; cid++ {
		dup, err := a.Track(ActiveBundle{StorageID: cid + 1000, CustodyID: cid})
		if err != nil || dup {
			t.Fatalf("A.Track(cid=%d): dup=%v err=%v", cid, dup, err)
		}
		b.Acknowledge(cid)
	}

	buf := make([]byte, 64)
	n, truncated := WriteDACS(buf, 10, &b.Pending)
	if truncated {
		t.Fatalf("WriteDACS: unexpected truncation")
	}

	numAcks, err := a.ReceiveAcknowledgment(buf[:n])
	if err != nil {
		t.Fatalf("ReceiveAcknowledgment: unexpected error: %v", err)
	}
	if numAcks != 5 {
		t.Fatalf("numAcks = %d, want 5", numAcks)
	}

	if got := a.Active.Count(); got != 0 {
		t.Fatalf("A.Active.Count() after full ack = %d, want 0", got)
	}

	if _, found := a.FindByStorageID(1000); found {
		t.Fatalf("FindByStorageID(1000) after ack: want not found")
	}
}

func TestCustodyTrackDuplicate(t *testing.T) {
	e := NewEngine(8)

	if dup, err := e.Track(ActiveBundle{StorageID: 1, CustodyID: 3}); dup || err != nil {
		t.Fatalf("first Track: dup=%v err=%v", dup, err)
	}
	if dup, err := e.Track(ActiveBundle{StorageID: 2, CustodyID: 3}); !dup || err != nil {
		t.Fatalf("second Track with same cid: dup=%v err=%v, want dup=true", dup, err)
	}
	if got, want := e.Active.Count(), 1; got != want {
		t.Fatalf("Active.Count() = %d, want %d", got, want)
	}
}

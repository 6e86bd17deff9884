package custody

import "testing"

func TestActiveBufferAddRemove(t *testing.T) {
	buf := NewActiveBuffer(8)

	for cid := uint64(0); cid < 5; cid++ {
		dup, err := buf.Add(ActiveBundle{StorageID: cid + 100, CustodyID: cid}, false)
		if err != nil {
			t.Fatalf("cid %d: unexpected error: %v", cid, err)
		}
		if dup {
			t.Fatalf("cid %d: unexpected duplicate", cid)
		}
	}

	if got, want := buf.Count(), 5; got != want {
		t.Fatalf("Count() = %d, want %d", got, want)
	}
	if got, want := buf.NewestCID(), uint64(5); got != want {
		t.Fatalf("NewestCID() = %d, want %d", got, want)
	}

	if dup, err := buf.Add(ActiveBundle{StorageID: 100, CustodyID: 0}, false); err != nil || !dup {
		t.Fatalf("re-adding cid 0 without overwrite: dup=%v err=%v, want dup=true", dup, err)
	}

	for cid := uint64(0); cid < 5; cid++ {
		entry, gotCID, timedOut := buf.Next()
		if timedOut {
			t.Fatalf("cid %d: unexpected timeout", cid)
		}
		if gotCID != cid {
			t.Fatalf("Next() cid = %d, want %d", gotCID, cid)
		}
		if !buf.Remove(entry.CustodyID) {
			t.Fatalf("cid %d: Remove reported not found", cid)
		}
	}

	if got, want := buf.Count(), 0; got != want {
		t.Fatalf("Count() after drain = %d, want %d", got, want)
	}

	if _, _, timedOut := buf.Next(); !timedOut {
		t.Fatalf("Next() on empty buffer: want timeout")
	}
}

func TestActiveBufferRemoveWrongCID(t *testing.T) {
	buf := NewActiveBuffer(4)
	buf.Add(ActiveBundle{StorageID: 1, CustodyID: 4}, false)

	if buf.Remove(0) {
		t.Fatalf("Remove(0) should not match slot occupied by cid 4 (4 mod 4 == 0 mod 4)")
	}
	if buf.Available(0) {
		t.Fatalf("Available(0) should be false: slot 0 is occupied by cid 4")
	}
}

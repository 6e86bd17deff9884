package custody

import "testing"

func TestStorageMapInsertGetRemove(t *testing.T) {
	m := NewStorageMap(16)

	for i := uint64(1); i <= 10; i++ {
		if err := m.Insert(i, ActiveBundle{StorageID: i, CustodyID: i * 2}); err != nil {
			t.Fatalf("Insert(%d): unexpected error: %v", i, err)
		}
	}

	if got, want := m.Len(), 10; got != want {
		t.Fatalf("Len() = %d, want %d", got, want)
	}

	for i := uint64(1); i <= 10; i++ {
		v, ok := m.Get(i)
		if !ok {
			t.Fatalf("Get(%d): not found", i)
		}
		if v.CustodyID != i*2 {
			t.Fatalf("Get(%d).CustodyID = %d, want %d", i, v.CustodyID, i*2)
		}
	}

	if _, ok := m.Get(999); ok {
		t.Fatalf("Get(999): want not found")
	}

	if !m.Remove(5) {
		t.Fatalf("Remove(5): want true")
	}
	if _, ok := m.Get(5); ok {
		t.Fatalf("Get(5) after Remove: want not found")
	}
	if got, want := m.Len(), 9; got != want {
		t.Fatalf("Len() after Remove = %d, want %d", got, want)
	}

	for i := uint64(1); i <= 10; i++ {
		if i == 5 {
			continue
		}
		if _, ok := m.Get(i); !ok {
			t.Fatalf("Get(%d) after removing key 5: want still found", i)
		}
	}
}

func TestStorageMapRefusesOverLoad(t *testing.T) {
	m := NewStorageMap(4)

	if err := m.Insert(1, ActiveBundle{}); err != nil {
		t.Fatalf("Insert(1): unexpected error: %v", err)
	}
	if err := m.Insert(2, ActiveBundle{}); err != nil {
		t.Fatalf("Insert(2): unexpected error: %v", err)
	}
	if err := m.Insert(3, ActiveBundle{}); err != nil {
		t.Fatalf("Insert(3): unexpected error: %v", err)
	}
	// capacity 4, load factor 0.75 -> at most 3 entries.
	if err := m.Insert(4, ActiveBundle{}); err == nil {
		t.Fatalf("Insert(4): want error exceeding load factor")
	}

	// Overwriting an existing key must still succeed past the bound.
	if err := m.Insert(1, ActiveBundle{CustodyID: 42}); err != nil {
		t.Fatalf("Insert(1) overwrite: unexpected error: %v", err)
	}
	v, _ := m.Get(1)
	if v.CustodyID != 42 {
		t.Fatalf("Get(1).CustodyID = %d, want 42", v.CustodyID)
	}
}

package custody

import "testing"

func ranges(t *RangeTree) []struct{ Lo, Hi uint64 } {
	return t.Ranges()
}

func TestRangeTreeMergeAndSplit(t *testing.T) {
	var tree RangeTree

	for _, cid := range []uint64{0, 1, 2, 3, 4} {
		tree.Add(cid)
	}

	got := ranges(&tree)
	if len(got) != 1 || got[0].Lo != 0 || got[0].Hi != 4 {
		t.Fatalf("sequential adds 0..4 = %+v, want single range [0,4]", got)
	}

	tree.Add(10)
	got = ranges(&tree)
	if len(got) != 2 || got[1].Lo != 10 || got[1].Hi != 10 {
		t.Fatalf("disjoint add = %+v, want second range [10,10]", got)
	}

	tree.Add(9)
	tree.Add(8)
	tree.Add(6)
	got = ranges(&tree)
	want := []struct{ Lo, Hi uint64 }{{0, 4}, {6, 6}, {8, 10}}
	if len(got) != len(want) {
		t.Fatalf("ranges after partial fill = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ranges[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}

	tree.Add(7)
	got = ranges(&tree)
	if len(got) != 2 || got[0] != (struct{ Lo, Hi uint64 }{0, 4}) || got[1] != (struct{ Lo, Hi uint64 }{6, 10}) {
		t.Fatalf("bridging add(7) = %+v, want [0,4] [6,10]", got)
	}
}

func TestRangeTreeIdempotent(t *testing.T) {
	var tree RangeTree
	tree.Add(5)
	tree.Add(5)
	tree.Add(5)

	got := ranges(&tree)
	if len(got) != 1 || got[0].Lo != 5 || got[0].Hi != 5 {
		t.Fatalf("repeated Add(5) = %+v, want single range [5,5]", got)
	}
}

// TestRangeTreeBridgeDeletesTwoChildNode reproduces a bridge-merge whose
// ceiling node has been rebalanced to the tree's root with two children:
// [0,1], [3,4], [6,7] rb-balance so [3,4] sits at the root; Add(2) bridges
// [0,1] and [3,4] and must delete the [3,4] node without losing [6,7] out
// of its right subtree.
func TestRangeTreeBridgeDeletesTwoChildNode(t *testing.T) {
	var tree RangeTree
	for _, cid := range []uint64{0, 1, 3, 4, 6, 7, 2} {
		tree.Add(cid)
	}

	got := ranges(&tree)
	want := []struct{ Lo, Hi uint64 }{{0, 4}, {6, 7}}
	if len(got) != len(want) {
		t.Fatalf("ranges = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ranges[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestRangeTreeAscendingOrder(t *testing.T) {
	var tree RangeTree
	for _, cid := range []uint64{50, 10, 30, 0, 20, 40} {
		tree.Add(cid)
	}

	got := ranges(&tree)
	for i := 1; i < len(got); i++ {
		if got[i-1].Hi >= got[i].Lo {
			t.Fatalf("ranges not ascending/disjoint: %+v", got)
		}
	}
}

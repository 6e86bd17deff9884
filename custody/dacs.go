package custody

import (
	"github.com/dtn7/dtn7-bp6/sdnv"
)

// RemoveFunc is invoked once per acknowledged custody id while reading a
// DACS record (spec section 4.5: "invokes remove_fn(parm, cid, flags) for
// each acknowledged CID so the caller can clear the active buffer and
// free the stored bundle").
type RemoveFunc func(parm interface{}, cid uint64, flags uint32)

// acsRecType is the administrative-record type byte a DACS record is
// tagged with (RFC 5050 section 6.1's record-type field, as extended by
// the aggregate-custody-signal draft this engine implements). A receiver
// reads this same byte, via bpv6.Receive's record-type switch, to tell an
// ACS apart from a legacy per-bundle custody signal or status report
// before ever reaching ReadDACS.
const acsRecType byte = 4

// WriteDACS serializes tree's ranges, in ascending order, as a sequence
// of SDNV (start, length) fills into buf, preceded by the admin-record
// type byte (spec section 4.5, "write"). Length is hi-lo+1, the count of
// custody ids the fill covers, not the inclusive endpoint. Emission stops
// once maxFills fills have been written or buf runs out of room; any
// ranges left unwritten remain in tree for a later DACS to cover, and
// truncated reports that.
func WriteDACS(buf []byte, maxFills int, tree *RangeTree) (n int, truncated bool) {
	if len(buf) < 1 {
		return 0, true
	}
	buf[0] = acsRecType

	var sflags sdnv.Flags
	index := 1
	fills := 0

	for _, r := range tree.Ranges() {
		if fills >= maxFills {
			return index, true
		}

		startField := sdnv.Field{Value: r.Lo, Index: index}
		next := sdnv.Write(buf, &startField, &sflags)
		if sflags.Has(sdnv.FlagIncomplete) {
			return index, true
		}

		lengthField := sdnv.Field{Value: r.Hi - r.Lo + 1, Index: next}
		next = sdnv.Write(buf, &lengthField, &sflags)
		if sflags.Has(sdnv.FlagIncomplete) {
			return index, true
		}

		index = next
		fills++

		deleteRange(tree, r.Lo, r.Hi)
	}

	return index, false
}

// deleteRange removes the node holding exactly the closed range [lo,hi]
// from tree; it does nothing if no node matches both bounds. WriteDACS
// calls this once a range has actually been emitted.
func deleteRange(tree *RangeTree, lo, hi uint64) {
	n := tree.find(lo)
	if n == nil {
		return
	}
	if n.lo == lo && n.hi == hi {
		tree.delete(n)
		return
	}
	// Partial deletion never occurs here: WriteDACS always removes a whole
	// range as it was iterated, never a sub-range of one still in the tree.
}

// ReadDACS parses a DACS record's leading record-type byte followed by its
// (start, length) fills from buf, and invokes remove(parm, cid, flags)
// once per acknowledged custody id in ascending order (spec section 4.5,
// "read"). Returns the number of acknowledged custody ids found. Callers
// only reach ReadDACS once bpv6.Receive has already recognised the
// payload's first byte as acsRecType, but it is checked again here so a
// caller driving the decoder directly off stored bytes can't feed it a
// CS/STAT record by mistake.
func ReadDACS(buf []byte, remove RemoveFunc, parm interface{}, flags uint32) (numAcks int, err error) {
	if len(buf) < 1 || buf[0] != acsRecType {
		return 0, newCustodyError("DACS: missing or wrong admin-record-type byte")
	}

	index := 1
	var sflags sdnv.Flags

	for index < len(buf) {
		startField := sdnv.Field{Index: index}
		index = sdnv.Read(buf, &startField, &sflags)

		lengthField := sdnv.Field{Index: index}
		index = sdnv.Read(buf, &lengthField, &sflags)

		if sflags.Has(sdnv.FlagIncomplete) {
			return numAcks, newCustodyError("DACS: buffer ran out mid-fill")
		}

		for cid := startField.Value; cid < startField.Value+lengthField.Value; cid++ {
			remove(parm, cid, flags)
			numAcks++
		}
	}

	return numAcks, nil
}

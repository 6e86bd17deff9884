// Package custody implements the BPv6 custody tracking engine (spec
// section 4.5-4.6): the active-bundle circular buffer, the red-black ACS
// range tree, the DACS codec built on top of it, and a robin-hood
// storage-id lookup table. None of this has a direct analog in the
// teacher (dtn7-dtn7-gold is a BPv7 engine with no custody-transfer
// concept); the package idiom - private xxxError struct, logrus
// structured logging, table-driven tests - is grounded on the teacher's
// bpa/bundle packages, while the algorithms themselves come from spec.md.
package custody

import (
	log "github.com/sirupsen/logrus"
)

// vacantStorageID is the sentinel marking an unoccupied active-buffer
// slot (spec section 3, "a vacant slot is marked by a sentinel
// storage-id").
const vacantStorageID uint64 = 0

// ActiveBundle is the (storage-id, retransmit-time, custody-id) triple
// spec section 3 names "Active bundle".
type ActiveBundle struct {
	StorageID    uint64
	RetransmitAt int64
	CustodyID    uint64
}

// custodyError is this package's error struct, the same shape as
// bpv6.bpv6Error.
type custodyError struct {
	msg string
}

func (e custodyError) Error() string { return e.msg }

func newCustodyError(msg string) *custodyError { return &custodyError{msg} }

// ActiveBuffer is the fixed-size, custody-id-indexed circular buffer of
// outstanding custody (spec section 4.5, "Active circular buffer"): slot
// index is cid mod size, a slot is occupied iff its storage-id is not the
// vacant sentinel, and oldest_cid <= newest_cid always holds.
type ActiveBuffer struct {
	slots      []ActiveBundle
	numEntries int
	oldestCID  uint64
	newestCID  uint64
}

// NewActiveBuffer allocates a buffer sized to the caller's worst-case
// outstanding custody window; size must be large enough that no two
// simultaneously-outstanding custody ids collide modulo size.
func NewActiveBuffer(size int) *ActiveBuffer {
	return &ActiveBuffer{slots: make([]ActiveBundle, size)}
}

func (b *ActiveBuffer) index(cid uint64) int {
	return int(cid % uint64(len(b.slots)))
}

// Count returns the current occupancy.
func (b *ActiveBuffer) Count() int {
	return b.numEntries
}

// Available reports whether cid's slot is vacant.
func (b *ActiveBuffer) Available(cid uint64) bool {
	return b.slots[b.index(cid)].StorageID == vacantStorageID
}

// Add writes bundle into its cid-indexed slot. Unless overwrite is set, a
// slot already occupied by the same cid is reported as a duplicate and
// left untouched; otherwise the slot is written, num_entries incremented
// if the slot was vacant (replacing an occupied slot leaves it unchanged),
// and, when not overwriting, newest_cid advanced to cid+1 (spec section
// 4.5, "add(bundle, overwrite)").
func (b *ActiveBuffer) Add(bundle ActiveBundle, overwrite bool) (duplicate bool, err error) {
	idx := b.index(bundle.CustodyID)
	slot := &b.slots[idx]

	if !overwrite && slot.StorageID != vacantStorageID && slot.CustodyID == bundle.CustodyID {
		return true, nil
	}

	wasVacant := slot.StorageID == vacantStorageID
	*slot = bundle

	if wasVacant {
		b.numEntries++
	}
	if !overwrite {
		if b.numEntries == 1 {
			b.oldestCID = bundle.CustodyID
		}
		b.newestCID = bundle.CustodyID + 1
	}

	log.WithFields(log.Fields{
		"cid":       bundle.CustodyID,
		"storageId": bundle.StorageID,
		"entries":   b.numEntries,
	}).Debug("Active buffer: custody id added")

	return false, nil
}

// Remove clears the slot at cid mod size iff it currently holds that cid,
// decrementing num_entries.
func (b *ActiveBuffer) Remove(cid uint64) bool {
	idx := b.index(cid)
	slot := &b.slots[idx]

	if slot.StorageID == vacantStorageID || slot.CustodyID != cid {
		return false
	}

	*slot = ActiveBundle{}
	b.numEntries--

	log.WithFields(log.Fields{"cid": cid, "entries": b.numEntries}).Debug("Active buffer: custody id removed")
	return true
}

// Next advances oldest_cid past vacant slots until it reaches newest_cid,
// returning the first occupied slot found. timedOut is true if no
// occupied slot exists between the (possibly advanced) oldest_cid and
// newest_cid (spec section 4.5, "next()").
func (b *ActiveBuffer) Next() (entry ActiveBundle, cid uint64, timedOut bool) {
	for b.oldestCID < b.newestCID {
		idx := b.index(b.oldestCID)
		if b.slots[idx].StorageID != vacantStorageID && b.slots[idx].CustodyID == b.oldestCID {
			return b.slots[idx], b.oldestCID, false
		}
		b.oldestCID++
	}
	return ActiveBundle{}, 0, true
}

// OldestCID and NewestCID expose the buffer's ordering bounds.
func (b *ActiveBuffer) OldestCID() uint64 { return b.oldestCID }
func (b *ActiveBuffer) NewestCID() uint64 { return b.newestCID }

package custody

import (
	log "github.com/sirupsen/logrus"
)

// Engine is a single channel's custody tracking state: the active
// circular buffer, its storage-id index, and the range tree accumulating
// acknowledgments to be flushed into a DACS. Spec section 5's
// shared-resource policy requires the active buffer and range tree be
// guarded by the channel's own lock; Engine itself holds no lock, that is
// the caller's responsibility via the osapi package.
type Engine struct {
	Active  *ActiveBuffer
	ByStore *StorageMap
	Pending RangeTree
}

// NewEngine builds an Engine sized for a channel's custody window.
func NewEngine(windowSize int) *Engine {
	return &Engine{
		Active:  NewActiveBuffer(windowSize),
		ByStore: NewStorageMap(windowSize),
	}
}

// Track records a freshly-sent bundle under custody, indexing it both by
// custody id (the active buffer) and by storage id (for a retransmit scan
// that does not have the custody id at hand).
func (e *Engine) Track(entry ActiveBundle) (duplicate bool, err error) {
	duplicate, err = e.Active.Add(entry, false)
	if err != nil || duplicate {
		return duplicate, err
	}
	if indexErr := e.ByStore.Insert(entry.StorageID, entry); indexErr != nil {
		log.WithFields(log.Fields{"storageId": entry.StorageID}).Warn(
			"Custody engine: storage-id index full, falling back to active-buffer-only lookup")
	}
	return false, nil
}

// FindByStorageID looks an outstanding custody entry up by storage id
// without knowing its custody id, the retransmit-scan path spec section
// 4.6 calls out.
func (e *Engine) FindByStorageID(storageID uint64) (ActiveBundle, bool) {
	return e.ByStore.Get(storageID)
}

// Acknowledge records a cid this channel will acknowledge to its peer,
// folding it into the pending range tree. Callers flush Pending into a
// DACS (via WriteDACS) on whatever schedule the channel's policy calls
// for.
func (e *Engine) Acknowledge(cid uint64) {
	e.Pending.Add(cid)
}

// ReceiveAcknowledgment parses an incoming DACS record and retires every
// acknowledged custody id from both the active buffer and the storage-id
// index (spec section 4.5, "remove_fn(parm, cid, flags)").
func (e *Engine) ReceiveAcknowledgment(record []byte) (numAcks int, err error) {
	return ReadDACS(record, func(_ interface{}, cid uint64, _ uint32) {
		if entry, found := e.entryForCID(cid); found {
			e.ByStore.Remove(entry.StorageID)
		}
		e.Active.Remove(cid)
	}, nil, 0)
}

// entryForCID reads the active buffer's slot for cid without mutating it.
func (e *Engine) entryForCID(cid uint64) (ActiveBundle, bool) {
	idx := e.Active.index(cid)
	slot := e.Active.slots[idx]
	if slot.StorageID == vacantStorageID || slot.CustodyID != cid {
		return ActiveBundle{}, false
	}
	return slot, true
}

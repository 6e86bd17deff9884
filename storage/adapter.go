// Package storage declares the storage-adapter interface spec.md section 6
// names (create/enqueue/dequeue/retrieve/release/relinquish/getcount) and
// ships one reference backend, an in-memory RAM queue, grounded on the
// teacher's own storage/store.go shape (a small struct wrapping a backing
// store, constructed with a NewXxx function, returning a programmer error
// type on failure). Persistent backends (file, flash) are named in the
// spec but are explicitly out of scope here; only the interface and the
// RAM reference implementation are concrete.
package storage

import (
	log "github.com/sirupsen/logrus"
)

// storageError is this package's error struct, the same shape as
// bpv6.bpv6Error and custody.custodyError.
type storageError struct {
	msg string
}

func (e storageError) Error() string { return e.msg }

func newStorageError(msg string) *storageError { return &storageError{msg} }

// Adapter is the storage-adapter interface spec.md section 6 requires:
// opaque storage ids returned from Create, with Enqueue/Dequeue/Retrieve/
// Release/Relinquish all indexed by that id, plus GetCount. timeoutMS
// follows the OS abstraction's waiton convention (-1 infinite, 0
// immediate, >0 milliseconds) since a backed-by-disk implementation's
// Create may need to block on free space.
type Adapter interface {
	// Create persists bytes (a record — e.g. a DACS — if isRecord, a
	// bundle's wire frame otherwise) and returns an opaque storage id.
	Create(parm interface{}, isRecord bool, data []byte, timeoutMS int) (ID, error)

	// Enqueue marks a previously created id ready for dequeue ordering.
	Enqueue(id ID) error

	// Dequeue returns the next enqueued id in FIFO order, or ErrEmpty.
	Dequeue() (ID, error)

	// Retrieve returns the bytes stored under id.
	Retrieve(id ID) ([]byte, error)

	// Release returns id's bytes to the backend without freeing the slot,
	// for a caller that wants to re-enqueue the same id later.
	Release(id ID) error

	// Relinquish frees id and its bytes permanently.
	Relinquish(id ID) error

	// GetCount reports how many ids are currently stored.
	GetCount() int
}

// ErrEmpty is returned by Dequeue when nothing is enqueued.
var ErrEmpty = newStorageError("storage: queue is empty")

// ErrNotFound is returned by Retrieve/Release/Relinquish for an unknown id.
var ErrNotFound = newStorageError("storage: unknown storage id")

func logCreate(id ID, isRecord bool, size int) {
	log.WithFields(log.Fields{
		"storageId": id,
		"isRecord":  isRecord,
		"size":      size,
	}).Debug("Storage: entry created")
}

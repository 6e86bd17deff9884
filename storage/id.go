package storage

import (
	"encoding/binary"

	"github.com/rs/xid"
)

// ID is an opaque storage id (spec.md section 6: "indexed by opaque
// storage id"), backed by a globally unique, creation-time-sortable
// github.com/rs/xid value rather than a bare incrementing counter.
type ID struct {
	x xid.ID
}

// NewID mints a fresh, globally unique storage id.
func NewID() ID {
	return ID{x: xid.New()}
}

// IsZero reports whether id is the zero value (never returned by NewID).
func (id ID) IsZero() bool {
	return id.x.IsZero()
}

func (id ID) String() string {
	return id.x.String()
}

// CustodyKey derives the uint64 key custody.ActiveBundle.StorageID and
// custody.StorageMap expect from this id's last 8 bytes (machine id,
// process id and xid's per-process counter). The counter advances on
// every NewID, so ids minted by one process do not collide until that
// 3-byte counter wraps.
func (id ID) CustodyKey() uint64 {
	b := id.x.Bytes()
	return binary.BigEndian.Uint64(b[4:12])
}

// Package crc is the integrity subsystem's CRC engine (spec section 4.3):
// CRC-16/X.25 and CRC-32/Castagnoli, table-driven, built once at init time
// from a parameter struct and shared read-only across channels.
//
// The table construction mirrors the teacher's bpa/crc.go and bundle/crc.go:
// CRC-16 via github.com/howeyc/crc16's CCITT table (Bundle Protocol version
// 7 mandates CRC-16/X.25 for its "CRC-16" type, so the teacher's
// crc16.MakeTable(crc16.CCITT) call already produces the X.25
// polynomial/reflection this engine needs) and CRC-32 via the standard
// library's crc32.Castagnoli table.
package crc

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"

	"github.com/howeyc/crc16"
)

// Suite identifies a cipher suite usable by a Bundle Integrity Block.
type Suite int

const (
	// CRC16X25 is CRC-16/X.25: poly 0x1021, init 0xFFFF, reflected in/out,
	// xor-out 0xFFFF, 2-byte result.
	CRC16X25 Suite = iota

	// CRC32Castagnoli is CRC-32C: poly 0x1EDC6F41, init 0xFFFFFFFF, reflected
	// in/out, xor-out 0xFFFFFFFF, 4-byte result.
	CRC32Castagnoli
)

func (s Suite) String() string {
	switch s {
	case CRC16X25:
		return "crc16-x25"
	case CRC32Castagnoli:
		return "crc32-castagnoli"
	default:
		return "unknown"
	}
}

// ResultWidth returns the encoded length of this suite's result: 2 bytes for
// CRC16X25, 4 bytes for CRC32Castagnoli.
func (s Suite) ResultWidth() int {
	switch s {
	case CRC16X25:
		return 2
	case CRC32Castagnoli:
		return 4
	default:
		return 0
	}
}

// Valid reports whether s is one of the two supported cipher suites.
func (s Suite) Valid() bool {
	return s == CRC16X25 || s == CRC32Castagnoli
}

// Engine holds both CRC tables, built once. Tables are immutable after
// construction and may be shared freely across goroutines, per the
// concurrency model's "CRC tables are immutable after init and freely
// shared" policy. The zero value is not usable; use NewEngine.
type Engine struct {
	table16 *crc16.Table
	table32 *crc32.Table
}

// NewEngine builds both CRC tables once. Callers should keep a single
// Engine instance as part of their process-wide module handle rather than
// rebuilding tables per channel.
func NewEngine() *Engine {
	return &Engine{
		table16: crc16.MakeTable(crc16.CCITT),
		table32: crc32.MakeTable(crc32.Castagnoli),
	}
}

// Compute returns the CRC of data under the given suite, as a big-endian
// byte slice of ResultWidth() length.
func (e *Engine) Compute(suite Suite, data []byte) []byte {
	switch suite {
	case CRC16X25:
		out := make([]byte, 2)
		binary.BigEndian.PutUint16(out, crc16.Checksum(data, e.table16))
		return out

	case CRC32Castagnoli:
		out := make([]byte, 4)
		binary.BigEndian.PutUint32(out, crc32.Checksum(data, e.table32))
		return out

	default:
		return nil
	}
}

// Update computes the CRC over data and writes it into the BIB's
// security-result field at its pre-laid-out offset, via the caller-supplied
// destination slice. dst must have exactly suite.ResultWidth() bytes of
// room; Update panics otherwise, the same way block codecs in this module
// treat a mis-sized fixed-width field as a programmer error rather than a
// runtime anomaly.
func (e *Engine) Update(suite Suite, dst []byte, data []byte) {
	if len(dst) != suite.ResultWidth() {
		panic("crc: destination has wrong width for suite")
	}
	copy(dst, e.Compute(suite, data))
}

// Verify recomputes the CRC over data and compares it against want,
// returning false on mismatch (the caller sets FAILED_INTEGRITY_CHECK).
func (e *Engine) Verify(suite Suite, data []byte, want []byte) bool {
	return bytes.Equal(e.Compute(suite, data), want)
}

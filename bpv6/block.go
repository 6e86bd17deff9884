package bpv6

// BlockType identifies the kind of an extension (canonical) block. The
// primary block is implicit and carries no type byte of its own. Values
// follow the canonical ION/BPv6-community assignments named in spec
// section 6.
type BlockType uint8

const (
	BlockTypePayload BlockType = 0x01

	// BlockTypeBIB is the Bundle Integrity Block (formerly the "Payload
	// Integrity Block" of the pre-BPSec bundle security extensions).
	BlockTypeBIB BlockType = 0x03

	// BlockTypeCTEB is the Custody Transfer Extension Block.
	BlockTypeCTEB BlockType = 0x0A
)

func (t BlockType) String() string {
	switch t {
	case BlockTypePayload:
		return "payload"
	case BlockTypeBIB:
		return "bib"
	case BlockTypeCTEB:
		return "cteb"
	default:
		return "unknown"
	}
}

package bpv6

import "github.com/dtn7/dtn7-bp6/crc"

// ClassOfService is a channel's forwarding priority (spec section 3).
type ClassOfService uint8

const (
	ClassNormal ClassOfService = iota
	ClassExpedited
	ClassExtended
)

func (c ClassOfService) String() string {
	switch c {
	case ClassNormal:
		return "normal"
	case ClassExpedited:
		return "expedited"
	case ClassExtended:
		return "extended"
	default:
		return "unknown"
	}
}

// Attributes is a channel's per-bundle policy (spec section 3, "Attributes").
type Attributes struct {
	Lifetime           uint64
	RequestCustody     bool
	IntegrityCheck     bool
	AllowFragmentation bool
	AdminRecord        bool
	IgnoreExpiration   bool
	ClassOfService     ClassOfService
	CipherSuite        crc.Suite
	MaxBundleLength    uint64
}

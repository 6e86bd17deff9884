package bpv6

import (
	log "github.com/sirupsen/logrus"
)

// Build lays out this Bundle's pre-serialized header (spec section 4.4,
// "build"). On the originate path forwarded is nil and a fresh primary
// block is synthesized from Route/Attributes (Prebuilt becomes true); on
// the forwarding path forwarded carries the already-parsed primary block
// (Prebuilt becomes false) and carryRegions holds the concatenated,
// non-excluded extension-block bytes copied over from the received
// bundle.
//
// Build may be called once and the resulting Bundle reused across many
// Send calls: Send rewrites the creation timestamp, lifetime, processing
// flags, fragment offset/total length, custody id, payload length and CRC
// in place afterwards, each at the offset Build laid out.
func (b *Bundle) Build(forwarded *PrimaryBlock, carryRegions []byte) (Flags, error) {
	b.Data = BundleData{}
	b.excludes = excludeRegions{}

	if forwarded != nil {
		b.Primary = *forwarded
		b.Prebuilt = false
	} else {
		b.Primary = NewPrimaryBlock(b.Route, b.Attributes)
		b.Prebuilt = true
	}

	if b.Attributes.AllowFragmentation {
		b.Primary.ReserveFragmentFields()
	}
	b.Primary.FreezeMutableWidths(b.Attributes.MaxBundleLength)

	header := b.Data.Header[:]

	index, flags := b.Primary.Write(header, true)
	if index < 0 {
		log.WithFields(log.Fields{"route": b.Route}).Warn("Bundle too large while laying out primary block")
		return flags | BundleTooLarge, newBPv6Error("Bundle: build failed, header too large for primary block")
	}

	if b.Attributes.RequestCustody {
		b.CTEB = &CTEB{
			CustodianNode:    b.Route.Local.Node,
			CustodianService: b.Route.Local.Service,
		}
		b.CTEB.FreezeCIDWidth(b.Attributes.MaxBundleLength)
		b.Data.CTEBOffset = index

		n, f := b.CTEB.Write(header, index, true)
		flags |= f
		if n < 0 {
			return flags | BundleTooLarge, newBPv6Error("Bundle: build failed, header too large for CTEB")
		}
		index = n
	} else {
		b.CTEB = nil
		b.Data.CTEBOffset = 0
	}

	if b.Attributes.IntegrityCheck {
		bib := NewBIB(b.Attributes.CipherSuite)
		b.BIB = &bib
		b.Data.BIBOffset = index

		n, f := b.BIB.Write(header, index, true)
		flags |= f
		if n < 0 {
			return flags | BundleTooLarge, newBPv6Error("Bundle: build failed, header too large for BIB")
		}
		index = n
	} else {
		b.BIB = nil
		b.Data.BIBOffset = 0
	}

	if len(carryRegions) > 0 {
		if index+len(carryRegions) > len(header) {
			return flags | BundleTooLarge, newBPv6Error("Bundle: build failed, header too large for carried extension blocks")
		}
		copy(header[index:], carryRegions)
		index += len(carryRegions)
	}

	b.Data.PayOffset = index
	b.Payload.FreezeLengthWidth(b.Attributes.MaxBundleLength)

	n, f := b.Payload.WriteHeader(header, index, true, 0)
	flags |= f
	if n < 0 || n > HeaderBufferSize {
		log.WithFields(log.Fields{"route": b.Route, "size": n}).Warn("Bundle too large, header exceeds fixed buffer")
		return flags | BundleTooLarge, newBPv6Error("Bundle: build failed, header exceeds fixed header buffer")
	}

	b.Data.HeaderSize = n

	log.WithFields(log.Fields{
		"destination": b.Route.Destination,
		"headerSize":  b.Data.HeaderSize,
		"prebuilt":    b.Prebuilt,
	}).Debug("Bundle built")

	return flags, nil
}

package bpv6

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/dtn7/dtn7-bp6/sdnv"
)

// dtnVersion is the only version this engine accepts (spec section 4.2:
// "the primary block read fails if the version is not 6").
const dtnVersion uint8 = 6

// primary block field ordering. DictionaryLength is always zero (no
// compressed EID dictionaries, spec section 4.2); FragmentOffset and
// TotalPayloadLength are only present when the bundle is a fragment.
const (
	pfPCF = iota
	pfDstNode
	pfDstService
	pfSrcNode
	pfSrcService
	pfRptNode
	pfRptService
	pfCstNode
	pfCstService
	pfCreationSec
	pfCreationSeq
	pfLifetime
	pfDictLen
	pfFragOffset
	pfTotalPayLen
	numPrimaryFields
)

// PrimaryBlock is the BPv6 primary bundle block (spec section 3).
type PrimaryBlock struct {
	Version            uint8
	Destination        EndpointID
	Source             EndpointID
	ReportTo           EndpointID
	Custodian          EndpointID
	CreationTimestamp  CreationTimestamp
	Lifetime           uint64
	DictionaryLength   uint64
	FragmentOffset     uint64
	TotalPayloadLength uint64

	IsAdminRec         bool
	IsFragment         bool
	AllowFragmentation bool
	CustodyRequested   bool
	AckRequested       bool
	ClassOfService     ClassOfService

	fields [numPrimaryFields]sdnv.Field

	// reserveFragFields keeps the fragment-offset/total-length fields laid
	// out even on a send where IsFragment happens to be false, so a channel
	// that allows fragmentation can flip IsFragment on a later send (once
	// AllowFragmentation forces a split) without reflowing every offset
	// after the primary block. Set once by Build, via ReserveFragmentFields.
	reserveFragFields bool
}

// ReserveFragmentFields marks the fragment-offset/total-length fields as
// always-laid-out, regardless of IsFragment's value on any particular
// Write. Build calls this whenever a channel's Attributes allow
// fragmentation.
func (pb *PrimaryBlock) ReserveFragmentFields() {
	pb.reserveFragFields = true
}

// NewPrimaryBlock builds a fresh primary block from a Route and Attributes,
// the way build() synthesizes one on the originate path (spec section 4.4).
func NewPrimaryBlock(route Route, attrs Attributes) PrimaryBlock {
	return PrimaryBlock{
		Version:            dtnVersion,
		Destination:        route.Destination,
		Source:             route.Local,
		ReportTo:           route.ReportTo,
		Custodian:          route.Local,
		Lifetime:           attrs.Lifetime,
		AllowFragmentation: attrs.AllowFragmentation,
		CustodyRequested:   attrs.RequestCustody,
		IsAdminRec:         attrs.AdminRecord,
		ClassOfService:     attrs.ClassOfService,
	}
}

// FreezeMutableWidths sizes the SDNV fields that get rewritten in place
// after the header has been laid out (creation timestamp, lifetime,
// fragment offset/total length) so a later index-follow re-write through
// Write(block, false) never shifts the offset of a following field. This is
// the width-freeze property spec section 4.1 calls load-bearing.
//
// maxPayload bounds the fragment-offset/total-length fields; callers pass
// the full (unfragmented) payload size. The lifetime field is sized to
// cover BestEffortLifetime as well as the channel's configured lifetime,
// since Send may force the former in place of the latter when the clock
// is unreliable, after this width has already been frozen.
func (pb *PrimaryBlock) FreezeMutableWidths(maxPayload uint64) {
	const minTimeWidth = 5 // comfortably covers decades of DTN-epoch seconds
	const minSeqWidth = 3

	if w := sdnv.EncodedLen(uint64(pb.CreationTimestamp.Seconds)); w > minTimeWidth {
		pb.fields[pfCreationSec].Width = w
	} else {
		pb.fields[pfCreationSec].Width = minTimeWidth
	}

	if w := sdnv.EncodedLen(pb.CreationTimestamp.Sequence); w > minSeqWidth {
		pb.fields[pfCreationSeq].Width = w
	} else {
		pb.fields[pfCreationSeq].Width = minSeqWidth
	}

	lifetimeWidth := sdnv.EncodedLen(pb.Lifetime)
	if w := sdnv.EncodedLen(BestEffortLifetime); w > lifetimeWidth {
		lifetimeWidth = w
	}
	pb.fields[pfLifetime].Width = lifetimeWidth

	fragWidth := sdnv.EncodedLen(maxPayload)
	pb.fields[pfFragOffset].Width = fragWidth
	pb.fields[pfTotalPayLen].Width = fragWidth
}

// pcf packs this block's decoded booleans into a ProcessingControlFlags
// value.
func (pb PrimaryBlock) pcf() ProcessingControlFlags {
	return encodePCF(decodedPCF{
		IsAdminRec:         pb.IsAdminRec,
		IsFragment:         pb.IsFragment,
		AllowFragmentation: pb.AllowFragmentation,
		CustodyRequested:   pb.CustodyRequested,
		AckRequested:       pb.AckRequested,
		ClassOfService:     pb.ClassOfService,
	})
}

func (pb *PrimaryBlock) applyPCF(f ProcessingControlFlags) {
	d := decodePCF(f)
	pb.IsAdminRec = d.IsAdminRec
	pb.IsFragment = d.IsFragment
	pb.AllowFragmentation = d.AllowFragmentation
	pb.CustodyRequested = d.CustodyRequested
	pb.AckRequested = d.AckRequested
	pb.ClassOfService = d.ClassOfService
}

// Write serializes the primary block into block starting at byte 0. If
// updateIndices is true (index-update mode: initial layout or parsing an
// unknown bundle) each field's byte offset is recomputed as the codec
// walks the buffer. If false (index-follow mode: re-encoding an
// already-laid-out block in place) each field.Index is authoritative and
// only field.Value is rewritten.
//
// Returns the number of bytes written, or a negative value on error.
func (pb *PrimaryBlock) Write(block []byte, updateIndices bool) (n int, flags Flags) {
	if len(block) < 1 {
		return -1, Incomplete
	}
	block[0] = pb.Version

	pb.fields[pfPCF].Value = uint64(pb.pcf())
	pb.fields[pfDstNode].Value = pb.Destination.Node
	pb.fields[pfDstService].Value = pb.Destination.Service
	pb.fields[pfSrcNode].Value = pb.Source.Node
	pb.fields[pfSrcService].Value = pb.Source.Service
	pb.fields[pfRptNode].Value = pb.ReportTo.Node
	pb.fields[pfRptService].Value = pb.ReportTo.Service
	pb.fields[pfCstNode].Value = pb.Custodian.Node
	pb.fields[pfCstService].Value = pb.Custodian.Service
	pb.fields[pfCreationSec].Value = uint64(pb.CreationTimestamp.Seconds)
	pb.fields[pfCreationSeq].Value = pb.CreationTimestamp.Sequence
	pb.fields[pfLifetime].Value = pb.Lifetime
	pb.fields[pfDictLen].Value = pb.DictionaryLength
	pb.fields[pfFragOffset].Value = pb.FragmentOffset
	pb.fields[pfTotalPayLen].Value = pb.TotalPayloadLength

	index := 1
	var sflags sdnv.Flags

	order := []int{pfPCF, pfDstNode, pfDstService, pfSrcNode, pfSrcService,
		pfRptNode, pfRptService, pfCstNode, pfCstService,
		pfCreationSec, pfCreationSeq, pfLifetime, pfDictLen}
	if pb.IsFragment || pb.reserveFragFields {
		order = append(order, pfFragOffset, pfTotalPayLen)
	}

	for _, fi := range order {
		if updateIndices {
			pb.fields[fi].Index = index
		}
		index = sdnv.Write(block, &pb.fields[fi], &sflags)
	}

	flags = sdnvFlagsToBPv6(sflags)
	return index, flags
}

// Read parses a primary block from block, always in index-update mode
// (parsing an unknown bundle always recomputes offsets). Fails with
// FailedToParse if the version is not 6 or the dictionary length is
// non-zero (spec section 4.2).
func (pb *PrimaryBlock) Read(block []byte) (n int, flags Flags, err error) {
	if len(block) < 1 {
		return -1, Incomplete, newBPv6Error("PrimaryBlock: empty buffer")
	}

	pb.Version = block[0]
	if pb.Version != dtnVersion {
		return -1, FailedToParse, newBPv6Error(fmt.Sprintf(
			"PrimaryBlock: wrong version %d, want %d", pb.Version, dtnVersion))
	}

	index := 1
	var sflags sdnv.Flags

	readField := func(fi int) uint64 {
		pb.fields[fi] = sdnv.Field{Index: index}
		index = sdnv.Read(block, &pb.fields[fi], &sflags)
		return pb.fields[fi].Value
	}

	pcf := ProcessingControlFlags(readField(pfPCF))
	pb.applyPCF(pcf)

	pb.Destination.Node = readField(pfDstNode)
	pb.Destination.Service = readField(pfDstService)
	pb.Source.Node = readField(pfSrcNode)
	pb.Source.Service = readField(pfSrcService)
	pb.ReportTo.Node = readField(pfRptNode)
	pb.ReportTo.Service = readField(pfRptService)
	pb.Custodian.Node = readField(pfCstNode)
	pb.Custodian.Service = readField(pfCstService)

	pb.CreationTimestamp.Seconds = DTNTime(readField(pfCreationSec))
	pb.CreationTimestamp.Sequence = readField(pfCreationSeq)
	pb.Lifetime = readField(pfLifetime)
	pb.DictionaryLength = readField(pfDictLen)

	flags = sdnvFlagsToBPv6(sflags)

	if pb.DictionaryLength != 0 {
		return -1, flags | FailedToParse, newBPv6Error(
			"PrimaryBlock: dictionary length must be 0, compressed EID dictionaries are unsupported")
	}

	if pb.IsFragment {
		pb.FragmentOffset = readField(pfFragOffset)
		pb.TotalPayloadLength = readField(pfTotalPayLen)
		flags = sdnvFlagsToBPv6(sflags)
	}

	if sflags.Has(sdnv.FlagIncomplete) {
		return -1, flags, newBPv6Error("PrimaryBlock: SDNV ran past end of buffer")
	}

	return index, flags, nil
}

func sdnvFlagsToBPv6(f sdnv.Flags) (out Flags) {
	if f.Has(sdnv.FlagOverflow) {
		out |= SDNVOverflow
	}
	if f.Has(sdnv.FlagIncomplete) {
		out |= SDNVIncomplete
	}
	return
}

// checkValid reports structural problems with the primary block.
func (pb PrimaryBlock) checkValid() (errs error) {
	if pb.Version != dtnVersion {
		errs = multierror.Append(errs, newBPv6Error(fmt.Sprintf(
			"PrimaryBlock: wrong version %d, want %d", pb.Version, dtnVersion)))
	}
	if pb.DictionaryLength != 0 {
		errs = multierror.Append(errs, newBPv6Error("PrimaryBlock: dictionary length must be 0"))
	}
	return
}

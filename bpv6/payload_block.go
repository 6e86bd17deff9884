package bpv6

import (
	"github.com/dtn7/dtn7-bp6/sdnv"
)

// PayloadBlock is the BPv6 payload block (spec section 3). Data is a
// borrowed view into whatever buffer it was parsed from; the implementer
// must keep that buffer alive until the payload has been consumed or
// copied (spec section 4.2).
type PayloadBlock struct {
	BlockFlags  BlockControlFlags
	BlockLength uint64
	Data        []byte

	lenField sdnv.Field
}

// FreezeLengthWidth sizes the block-length SDNV wide enough to represent
// the largest fragment this bundle could emit, so rewriting it once per
// fragment (spec section 4.4, step 4) never shifts the payload bytes that
// follow in the final wire buffer.
func (p *PayloadBlock) FreezeLengthWidth(maxPayload uint64) {
	p.lenField.Width = sdnv.EncodedLen(maxPayload)
}

// WriteHeader serializes only the payload block's header (type, flags,
// length) into block starting at index; the payload bytes themselves are
// never copied into the fixed header buffer; send() concatenates them
// separately per fragment.
func (p *PayloadBlock) WriteHeader(block []byte, index int, updateIndices bool, payloadLen uint64) (n int, flags Flags) {
	if index >= len(block) {
		return -1, Incomplete
	}
	block[index] = byte(BlockTypePayload)
	index++

	var sflags sdnv.Flags

	flagsField := sdnv.Field{Value: uint64(p.BlockFlags), Index: index}
	index = sdnv.Write(block, &flagsField, &sflags)

	if updateIndices {
		p.lenField.Index = index
	}
	p.BlockLength = payloadLen
	p.lenField.Value = payloadLen
	index = sdnv.Write(block, &p.lenField, &sflags)

	return index, sdnvFlagsToBPv6(sflags)
}

// UpdateLength rewrites only the block-length field in place, for the next
// fragment's payload size.
func (p *PayloadBlock) UpdateLength(block []byte, payloadLen uint64) Flags {
	p.BlockLength = payloadLen
	p.lenField.Value = payloadLen
	var sflags sdnv.Flags
	sdnv.Write(block, &p.lenField, &sflags)
	return sdnvFlagsToBPv6(sflags)
}

// Read parses a payload block header whose type byte has already been
// consumed, starting at index, and returns a borrowed slice of source
// covering the payload bytes.
func (p *PayloadBlock) Read(source []byte, index int) (n int, flags Flags, err error) {
	var sflags sdnv.Flags

	flagsField := sdnv.Field{Index: index}
	index = sdnv.Read(source, &flagsField, &sflags)
	p.BlockFlags = BlockControlFlags(flagsField.Value)

	lenField := sdnv.Field{Index: index}
	index = sdnv.Read(source, &lenField, &sflags)
	p.BlockLength = lenField.Value

	flags = sdnvFlagsToBPv6(sflags)
	paySize := int(p.BlockLength)
	if sflags.Has(sdnv.FlagIncomplete) || index+paySize > len(source) {
		return -1, flags | Incomplete, newBPv6Error("PayloadBlock: buffer ran out while reading payload")
	}

	p.Data = source[index : index+paySize]
	index += paySize

	return index, flags, nil
}

package bpv6

import (
	"fmt"

	"github.com/dtn7/dtn7-bp6/sdnv"
)

// CTEB is the Custody Transfer Extension Block (spec section 3): the
// currently outstanding custody id plus the custodian's endpoint id,
// carried both as text (for interoperability with implementations that
// never resolve CBHE numbers) and as the already-parsed node/service pair.
type CTEB struct {
	BlockFlags       BlockControlFlags
	BlockLength      uint64
	CustodyID        uint64
	CustodianNode    uint64
	CustodianService uint64

	cidField sdnv.Field
}

// FreezeCIDWidth sizes the custody-id SDNV wide enough that later
// in-place custody-id updates (spec section 3, "bundle-data... the CID
// SDNV field used for in-place custody-id updates") cannot overflow and
// shift the payload block that follows. hint should be the largest custody
// id this channel's active buffer could plausibly assign.
func (c *CTEB) FreezeCIDWidth(hint uint64) {
	const minWidth = 5
	if w := sdnv.EncodedLen(hint); w > minWidth {
		c.cidField.Width = w
	} else {
		c.cidField.Width = minWidth
	}
}

// Write serializes the CTEB, type byte first, into block starting at
// index. Behaves like PrimaryBlock.Write:
// updateIndices true recomputes offsets, false reuses existing ones so the
// custody id can be rewritten without moving the payload block.
func (c *CTEB) Write(block []byte, index int, updateIndices bool) (n int, flags Flags) {
	if index >= len(block) {
		return -1, Incomplete
	}
	block[index] = byte(BlockTypeCTEB)
	index++

	var sflags sdnv.Flags

	flagsField := sdnv.Field{Value: uint64(c.BlockFlags), Index: index}
	index = sdnv.Write(block, &flagsField, &sflags)

	lenField := sdnv.Field{Index: index}
	lenIndex := index
	index = sdnv.Write(block, &lenField, &sflags) // placeholder, patched below
	bodyStart := index

	if updateIndices {
		c.cidField.Index = index
	}
	c.cidField.Value = c.CustodyID
	index = sdnv.Write(block, &c.cidField, &sflags)

	eidStr := NewEndpointID(c.CustodianNode, c.CustodianService).String()
	eidLenField := sdnv.Field{Value: uint64(len(eidStr)), Index: index}
	index = sdnv.Write(block, &eidLenField, &sflags)

	if index+len(eidStr) > len(block) {
		return -1, Incomplete
	}
	copy(block[index:], eidStr)
	index += len(eidStr)

	c.BlockLength = uint64(index - bodyStart)
	lenField.Value = c.BlockLength
	lenField.Index = lenIndex
	sdnv.Write(block, &lenField, &sflags)

	flags = sdnvFlagsToBPv6(sflags)
	return index, flags
}

// Read parses a CTEB whose type byte has already been consumed by the
// caller, starting at index.
func (c *CTEB) Read(block []byte, index int) (n int, flags Flags, err error) {
	var sflags sdnv.Flags

	flagsField := sdnv.Field{Index: index}
	index = sdnv.Read(block, &flagsField, &sflags)
	c.BlockFlags = BlockControlFlags(flagsField.Value)

	lenField := sdnv.Field{Index: index}
	index = sdnv.Read(block, &lenField, &sflags)
	c.BlockLength = lenField.Value

	c.cidField = sdnv.Field{Index: index}
	index = sdnv.Read(block, &c.cidField, &sflags)
	c.CustodyID = c.cidField.Value

	eidLenField := sdnv.Field{Index: index}
	index = sdnv.Read(block, &eidLenField, &sflags)
	eidLen := int(eidLenField.Value)

	flags = sdnvFlagsToBPv6(sflags)
	if sflags.Has(sdnv.FlagIncomplete) || index+eidLen > len(block) {
		return -1, flags | Incomplete, newBPv6Error("CTEB: buffer ran out while reading custodian EID")
	}

	eidStr := string(block[index : index+eidLen])
	index += eidLen

	eid, parseErr := ParseEndpointID(eidStr)
	if parseErr != nil {
		return -1, flags | FailedToParse, fmt.Errorf("CTEB: %w", parseErr)
	}
	c.CustodianNode = eid.Node
	c.CustodianService = eid.Service

	return index, flags, nil
}

// UpdateCustodyID rewrites only the custody-id field in place, at its
// already-laid-out offset, without touching anything else in the header.
func (c *CTEB) UpdateCustodyID(block []byte, cid uint64) Flags {
	c.CustodyID = cid
	c.cidField.Value = cid
	var sflags sdnv.Flags
	sdnv.Write(block, &c.cidField, &sflags)
	return sdnvFlagsToBPv6(sflags)
}

package bpv6

import (
	"fmt"

	"github.com/dtn7/dtn7-bp6/crc"
	"github.com/dtn7/dtn7-bp6/sdnv"
)

// securityResultTypeIntegritySignature is the only security-result-type
// this engine accepts (spec section 3, "security-result-type (= integrity
// signature)").
const securityResultTypeIntegritySignature uint64 = 1

// BIB is the Bundle Integrity Block (spec section 3): a CRC over the
// payload block, computed and verified by the crc package.
type BIB struct {
	BlockFlags         BlockControlFlags
	BlockLength        uint64
	SecurityTargetType BlockType
	CipherSuite        crc.Suite
	CipherSuiteFlags   uint64
	CompoundLength     uint64
	SecurityResultType uint64
	ResultData         []byte

	resultField sdnv.Field // tracks the byte-string's payload offset for in-place CRC rewrite
}

// NewBIB builds a fresh BIB targeting the payload block under the given
// cipher suite.
func NewBIB(suite crc.Suite) BIB {
	return BIB{
		SecurityTargetType: BlockTypePayload,
		CipherSuite:        suite,
		SecurityResultType: securityResultTypeIntegritySignature,
		ResultData:         make([]byte, suite.ResultWidth()),
	}
}

// Write serializes the BIB, type byte first, into block starting at index.
// Mirrors CTEB.Write's updateIndices convention.
func (b *BIB) Write(block []byte, index int, updateIndices bool) (n int, flags Flags) {
	if index >= len(block) {
		return -1, Incomplete
	}
	block[index] = byte(BlockTypeBIB)
	index++

	var sflags sdnv.Flags

	flagsField := sdnv.Field{Value: uint64(b.BlockFlags), Index: index}
	index = sdnv.Write(block, &flagsField, &sflags)

	lenField := sdnv.Field{Index: index}
	lenIndex := index
	index = sdnv.Write(block, &lenField, &sflags)
	bodyStart := index

	targetCountField := sdnv.Field{Value: 1, Index: index}
	index = sdnv.Write(block, &targetCountField, &sflags)

	targetTypeField := sdnv.Field{Value: uint64(b.SecurityTargetType), Index: index}
	index = sdnv.Write(block, &targetTypeField, &sflags)

	cipherIDField := sdnv.Field{Value: uint64(b.CipherSuite), Index: index}
	index = sdnv.Write(block, &cipherIDField, &sflags)

	cipherFlagsField := sdnv.Field{Value: b.CipherSuiteFlags, Index: index}
	index = sdnv.Write(block, &cipherFlagsField, &sflags)

	compoundLenField := sdnv.Field{Index: index}
	compoundLenIndex := index
	index = sdnv.Write(block, &compoundLenField, &sflags)
	compoundStart := index

	resultTypeField := sdnv.Field{Value: b.SecurityResultType, Index: index}
	index = sdnv.Write(block, &resultTypeField, &sflags)

	resultLenField := sdnv.Field{Value: uint64(len(b.ResultData)), Index: index}
	index = sdnv.Write(block, &resultLenField, &sflags)

	if updateIndices {
		b.resultField.Index = index
	}
	if index+len(b.ResultData) > len(block) {
		return -1, Incomplete
	}
	copy(block[index:], b.ResultData)
	index += len(b.ResultData)

	b.CompoundLength = uint64(index - compoundStart)
	compoundLenField.Value = b.CompoundLength
	compoundLenField.Index = compoundLenIndex
	sdnv.Write(block, &compoundLenField, &sflags)

	b.BlockLength = uint64(index - bodyStart)
	lenField.Value = b.BlockLength
	lenField.Index = lenIndex
	sdnv.Write(block, &lenField, &sflags)

	flags = sdnvFlagsToBPv6(sflags)
	return index, flags
}

// Read parses a BIB whose type byte has already been consumed, starting at
// index. Fails if the security target is not the payload block, if the
// result type is not the integrity signature, or if the cipher suite is
// unknown (spec section 4.2).
func (b *BIB) Read(block []byte, index int) (n int, flags Flags, err error) {
	var sflags sdnv.Flags

	flagsField := sdnv.Field{Index: index}
	index = sdnv.Read(block, &flagsField, &sflags)
	b.BlockFlags = BlockControlFlags(flagsField.Value)

	lenField := sdnv.Field{Index: index}
	index = sdnv.Read(block, &lenField, &sflags)
	b.BlockLength = lenField.Value

	targetCountField := sdnv.Field{Index: index}
	index = sdnv.Read(block, &targetCountField, &sflags)
	if targetCountField.Value != 1 {
		return -1, NonCompliant, newBPv6Error("BIB: security-target-count must be 1")
	}

	targetTypeField := sdnv.Field{Index: index}
	index = sdnv.Read(block, &targetTypeField, &sflags)
	b.SecurityTargetType = BlockType(targetTypeField.Value)
	if b.SecurityTargetType != BlockTypePayload {
		return -1, InvalidBIBTargetType, newBPv6Error(fmt.Sprintf(
			"BIB: security-target-type %d != payload block type", b.SecurityTargetType))
	}

	cipherIDField := sdnv.Field{Index: index}
	index = sdnv.Read(block, &cipherIDField, &sflags)
	b.CipherSuite = crc.Suite(cipherIDField.Value)
	if !b.CipherSuite.Valid() {
		return -1, InvalidCipherSuiteID, newBPv6Error(fmt.Sprintf(
			"BIB: unknown cipher-suite-id %d", cipherIDField.Value))
	}

	cipherFlagsField := sdnv.Field{Index: index}
	index = sdnv.Read(block, &cipherFlagsField, &sflags)
	b.CipherSuiteFlags = cipherFlagsField.Value

	compoundLenField := sdnv.Field{Index: index}
	index = sdnv.Read(block, &compoundLenField, &sflags)
	b.CompoundLength = compoundLenField.Value

	resultTypeField := sdnv.Field{Index: index}
	index = sdnv.Read(block, &resultTypeField, &sflags)
	b.SecurityResultType = resultTypeField.Value
	if b.SecurityResultType != securityResultTypeIntegritySignature {
		return -1, InvalidBIBResultType, newBPv6Error(fmt.Sprintf(
			"BIB: security-result-type %d != integrity signature", b.SecurityResultType))
	}

	resultLenField := sdnv.Field{Index: index}
	index = sdnv.Read(block, &resultLenField, &sflags)
	resultLen := int(resultLenField.Value)

	flags = sdnvFlagsToBPv6(sflags)
	if sflags.Has(sdnv.FlagIncomplete) || index+resultLen > len(block) {
		return -1, flags | Incomplete, newBPv6Error("BIB: buffer ran out while reading security-result-data")
	}
	if resultLen != b.CipherSuite.ResultWidth() {
		return -1, flags | NonCompliant, newBPv6Error(fmt.Sprintf(
			"BIB: security-result-length %d does not match suite %v", resultLen, b.CipherSuite))
	}

	b.resultField.Index = index
	b.ResultData = append([]byte(nil), block[index:index+resultLen]...)
	index += resultLen

	return index, flags, nil
}

// UpdateResult recomputes the CRC over payload with engine and rewrites
// only the security-result-data bytes in place.
func (b *BIB) UpdateResult(block []byte, engine *crc.Engine, payload []byte) {
	engine.Update(b.CipherSuite, b.ResultData, payload)
	copy(block[b.resultField.Index:b.resultField.Index+len(b.ResultData)], b.ResultData)
}

// Verify recomputes the CRC over payload and compares it to ResultData.
func (b *BIB) Verify(engine *crc.Engine, payload []byte) bool {
	return engine.Verify(b.CipherSuite, payload, b.ResultData)
}

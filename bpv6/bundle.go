package bpv6

// HeaderBufferSize is the fixed size of a pre-serialized BPv6 header (spec
// section 3, "Bundle data"): version + primary block + CTEB + BIB + payload
// block header, everything except the payload bytes themselves.
const HeaderBufferSize = 128

// BundleData is the pre-serialized header and bookkeeping spec section 3
// names "bundle data": the header buffer itself, its used size, the total
// (header+payload) size of the most recently emitted fragment, the
// computed expiration time, and the byte offsets of each optional block.
type BundleData struct {
	Header         [HeaderBufferSize]byte
	HeaderSize     int
	BundleSize     int
	ExpirationTime DTNTime

	ExtStart   int
	CTEBOffset int
	BIBOffset  int
	PayOffset  int
}

// Bundle is a channel's in-flight unit of work: its Route, its Attributes,
// the pre-serialized BundleData, whether the primary block was synthesized
// here (Prebuilt) or supplied by a caller on the forwarding path, and the
// owned block-state arena (spec section 3, "Bundle").
type Bundle struct {
	Route      Route
	Attributes Attributes
	Data       BundleData
	Prebuilt   bool

	Primary PrimaryBlock
	CTEB    *CTEB
	BIB     *BIB
	Payload PayloadBlock

	excludes excludeRegions
}

// Create allocates a new Bundle for a channel's Route and Attributes. It
// must be followed by Build before Send.
func Create(route Route, attrs Attributes) *Bundle {
	return &Bundle{
		Route:      route,
		Attributes: attrs,
	}
}

// CarryRegions copies this received bundle's extension-block region
// (everything between the primary block and the payload block) out of
// source, skipping whatever DropNoProc marked for exclusion, for Build's
// carryRegions parameter on the forwarding path.
func (b *Bundle) CarryRegions(source []byte) []byte {
	region := source[b.Data.ExtStart:b.Data.PayOffset]
	dst := make([]byte, len(region))
	n := b.excludes.copyExcluding(dst, region)
	return dst[:n]
}

// Destroy releases this Bundle's owned state. The core never aliases a
// destroyed Bundle's buffers, matching spec section 3's "destroyed
// explicitly" lifecycle note; in Go this is an explicit zeroing rather
// than a free, kept for symmetry with the lifecycle the spec describes.
func (b *Bundle) Destroy() {
	b.Data = BundleData{}
	b.CTEB = nil
	b.BIB = nil
	b.Payload = PayloadBlock{}
	b.excludes = excludeRegions{}
}

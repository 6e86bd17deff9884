package bpv6

// maxExcludeRegions bounds the exclude-region list; exceeding it fails the
// receive with NonCompliant (spec section 4.4, step 4).
const maxExcludeRegions = 16

// excludeRegion is a byte range [Start, End) of the source header buffer
// that must not be copied into a forwarded bundle, because the block it
// covered asked to be dropped (DropNoProc) rather than carried through.
type excludeRegion struct {
	Start, End int
}

// excludeRegions is the bounded list of regions to skip when rebuilding a
// forwarded bundle's header.
type excludeRegions struct {
	regions []excludeRegion
}

// add appends a region, reporting NonCompliant if the list is already at
// capacity.
func (e *excludeRegions) add(start, end int) Flags {
	if len(e.regions) >= maxExcludeRegions {
		return NonCompliant
	}
	e.regions = append(e.regions, excludeRegion{Start: start, End: end})
	return 0
}

// copyExcluding copies src into dst, skipping every recorded region, and
// returns the number of bytes written.
func (e *excludeRegions) copyExcluding(dst []byte, src []byte) int {
	n := 0
	pos := 0

	for _, r := range e.regions {
		if r.Start > pos {
			n += copy(dst[n:], src[pos:r.Start])
		}
		if r.End > pos {
			pos = r.End
		}
	}
	if pos < len(src) {
		n += copy(dst[n:], src[pos:])
	}

	return n
}

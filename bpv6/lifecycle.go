package bpv6

import (
	log "github.com/sirupsen/logrus"

	"github.com/dtn7/dtn7-bp6/crc"
	"github.com/dtn7/dtn7-bp6/sdnv"
)

// Disposition is the dispatch outcome of a receive (spec section 4.4's
// dispatch-disposition state machine). It is
// carried as a distinct result field rather than an error, the way the
// teacher's cla.ConvergenceStatus is a value a caller switches on instead of
// an error path.
type Disposition int

const (
	// DispositionForward means the bundle is not addressed to the local
	// endpoint and is not a wrong-channel case (a same-node destination with
	// service 0 lands here too), whether or not it is an admin record; the
	// caller's routing layer owns it next.
	DispositionForward Disposition = iota

	// DispositionWrongChannel means the bundle's destination shares this
	// node's CBHE node number but names a different service number: the
	// caller must hand it to that other channel.
	DispositionWrongChannel

	// DispositionAdminRecordLocal means the bundle is an administrative
	// record (e.g. a DACS) addressed to this node; the custody engine
	// consumes it, it is never handed to an application.
	DispositionAdminRecordLocal

	// DispositionUserPayloadLocal means the bundle is addressed to this
	// node's application and ready for delivery.
	DispositionUserPayloadLocal

	// DispositionExpired means the bundle's lifetime had already elapsed by
	// the time it was received; it is silently discarded (no status report,
	// an explicit Non-goal).
	DispositionExpired

	// DispositionDropped means the bundle was removed from further
	// processing: a block failed to parse, the payload block was missing,
	// the integrity check failed, an admin record's payload was too short,
	// or the exclude-region list overflowed. A DropNoProc block on its own
	// only excludes that block, not the bundle.
	DispositionDropped

	// DispositionDeleted means an unrecognised extension block carried
	// DeleteNoProc, which discards the whole bundle rather than just the
	// one block.
	DispositionDeleted
)

func (d Disposition) String() string {
	switch d {
	case DispositionForward:
		return "forward"
	case DispositionWrongChannel:
		return "wrong-channel"
	case DispositionAdminRecordLocal:
		return "admin-record-local"
	case DispositionUserPayloadLocal:
		return "user-payload-local"
	case DispositionExpired:
		return "expired"
	case DispositionDropped:
		return "dropped"
	case DispositionDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Administrative record type values occupy an admin record payload's first
// byte (spec section 4.4, receive step 6). acsRecType is the only one this
// engine understands as a custody signal; custody/dacs.go's WriteDACS
// stamps it as the leading byte of every DACS record it emits, so a
// receiver recognises its own engine's ACS records by this same constant.
// csRecType and statRecType are legacy per-bundle custody/status-report
// record types this engine never emits (both are explicit Non-goals) but
// must still recognise on receipt, well enough to flag them non-compliant
// rather than silently accepting or misparsing them.
const (
	acsRecType  byte = 4
	csRecType   byte = 2
	statRecType byte = 1
)

// Outcome is the result of a lifecycle operation: the disposition a caller
// must act on, any anomaly flags accumulated along the way, and a non-nil
// Err only for conditions the caller cannot recover from (spec section 7's
// two-channel error design, collapsed into one Go result type).
type Outcome struct {
	Disposition Disposition
	Flags       Flags
	Err         error
}

// expirationDeadline computes the DTNTime after which a bundle is expired.
// UnknownCreationTime and TTLCreationTime (spec section 6) both mean "the
// creator's clock could not be trusted"; this engine has no TTL extension
// block (an explicit Non-goal), so both sentinels fall back to measuring
// lifetime from the receiving node's own clock instead of from creation
// time. The deadline is computed once per receive; the sentinel itself stays
// unchanged in the parsed creation timestamp.
func expirationDeadline(ts CreationTimestamp, lifetime uint64, receivedAt DTNTime) DTNTime {
	if ts.Seconds == UnknownCreationTime || ts.Seconds == TTLCreationTime {
		return receivedAt + DTNTime(lifetime)
	}
	return ts.Seconds + DTNTime(lifetime)
}

// Expired reports whether this bundle's lifetime has elapsed as of now.
func (b *Bundle) Expired(now DTNTime) bool {
	if b.Attributes.IgnoreExpiration {
		return false
	}
	return now >= b.Data.ExpirationTime
}

// Send stamps a fresh creation timestamp, custody id, and CRC into the
// already-built header (spec section 4.4, "send") and returns one wire
// frame per fragment. On the originate path (Prebuilt true) a payload
// larger than this channel's per-bundle capacity is split into successive
// fragments when Attributes.AllowFragmentation is set, each consuming one
// custody id starting at startCID, and fails with BundleTooLarge otherwise; on the
// forwarding path (Prebuilt false) payload is sent exactly as received, in
// one frame, preserving whatever fragment-offset/total-length the original
// sender stamped.
//
// clockUnreliable reports that the caller's clock (typically
// osapi.OSAPI.Now's second return) cannot be trusted. When set, ts is
// replaced with UnknownCreationTime, this channel's configured lifetime is
// overridden with BestEffortLifetime so a receiver with a working clock
// doesn't treat the bundle as already expired, and UnreliableTime is
// raised in the returned flags (spec section 4.4, send step 2).
func (b *Bundle) Send(engine *crc.Engine, ts CreationTimestamp, startCID uint64, payload []byte, clockUnreliable bool) (frames [][]byte, flags Flags, err error) {
	if clockUnreliable {
		ts = CreationTimestamp{Seconds: UnknownCreationTime, Sequence: ts.Sequence}
		b.Primary.Lifetime = BestEffortLifetime
		flags |= UnreliableTime
	}
	b.Primary.CreationTimestamp = ts

	capacity := int(b.Attributes.MaxBundleLength) - b.Data.HeaderSize
	if capacity <= 0 {
		return nil, flags | BundleTooLarge, newBPv6Error("Bundle: send failed, no room left for payload after header")
	}
	if b.Prebuilt && !b.Attributes.AllowFragmentation && len(payload) > capacity {
		return nil, flags | BundleTooLarge, newBPv6Error("Bundle: send failed, payload exceeds capacity and fragmentation is not allowed")
	}

	if !b.Prebuilt || !b.Attributes.AllowFragmentation || len(payload) <= capacity {
		frame, f, sendErr := b.sendOne(engine, startCID, payload)
		flags |= f
		if sendErr != nil {
			return nil, flags, sendErr
		}
		return [][]byte{frame}, flags, nil
	}

	total := uint64(len(payload))
	cid := startCID
	offset := 0

	for offset < len(payload) {
		end := offset + capacity
		if end > len(payload) {
			end = len(payload)
		}
		chunk := payload[offset:end]

		b.Primary.IsFragment = true
		b.Primary.FragmentOffset = uint64(offset)
		b.Primary.TotalPayloadLength = total

		frame, f, sendErr := b.sendOne(engine, cid, chunk)
		flags |= f
		if sendErr != nil {
			return nil, flags, sendErr
		}
		frames = append(frames, frame)

		offset = end
		if b.Attributes.RequestCustody {
			cid++
		}
	}

	log.WithFields(log.Fields{
		"destination": b.Route.Destination,
		"fragments":   len(frames),
	}).Debug("Bundle sent as fragments")

	return frames, flags, nil
}

// sendOne rewrites this Bundle's frozen-width fields in place for a single
// fragment's worth of payload and concatenates the resulting header with
// chunk into one wire frame.
func (b *Bundle) sendOne(engine *crc.Engine, cid uint64, chunk []byte) (frame []byte, flags Flags, err error) {
	header := b.Data.Header[:]

	n, pflags := b.Primary.Write(header, false)
	flags |= pflags
	if n < 0 {
		return nil, flags | BundleTooLarge, newBPv6Error("Bundle: send failed rewriting primary block")
	}

	if b.CTEB != nil {
		flags |= b.CTEB.UpdateCustodyID(header, cid)
	}

	payFlags := b.Payload.UpdateLength(header, uint64(len(chunk)))
	flags |= payFlags

	if b.BIB != nil {
		b.BIB.UpdateResult(header, engine, chunk)
	}

	frame = make([]byte, b.Data.HeaderSize+len(chunk))
	copy(frame, header[:b.Data.HeaderSize])
	copy(frame[b.Data.HeaderSize:], chunk)

	b.Data.BundleSize = len(frame)

	return frame, flags, nil
}

// Receive parses a wire frame into a fresh Bundle, validates expiration and
// integrity, walks its extension blocks applying DropNoProc/DeleteNoProc
// policy to anything this engine does not recognise, and reports which
// disposition the caller must act on (spec section 4.4, "receive"). An
// unrecognised block that is neither dropped nor deleted gets ForwardNoProc
// set in place in source.
func Receive(source []byte, local EndpointID, engine *crc.Engine, now DTNTime) (*Bundle, Outcome) {
	b := &Bundle{}

	index, flags, err := b.Primary.Read(source)
	if err != nil {
		return b, Outcome{DispositionDropped, flags | Dropped, err}
	}
	b.Data.ExtStart = index

	b.Data.ExpirationTime = expirationDeadline(b.Primary.CreationTimestamp, b.Primary.Lifetime, now)
	if b.Expired(now) {
		log.WithFields(log.Fields{"source": b.Primary.Source}).Debug("Bundle expired on receipt")
		return b, Outcome{DispositionExpired, flags | Dropped, nil}
	}

	for index < len(source) {
		blockType := BlockType(source[index])
		typeIndex := index
		bodyIndex := index + 1

		switch blockType {
		case BlockTypeCTEB:
			b.CTEB = &CTEB{}
			n, f, e := b.CTEB.Read(source, bodyIndex)
			flags |= f
			if e != nil {
				return b, Outcome{DispositionDropped, flags | Dropped, e}
			}
			b.Data.CTEBOffset = typeIndex
			index = n

		case BlockTypeBIB:
			b.BIB = &BIB{}
			n, f, e := b.BIB.Read(source, bodyIndex)
			flags |= f
			if e != nil {
				return b, Outcome{DispositionDropped, flags | Dropped, e}
			}
			b.Data.BIBOffset = typeIndex
			index = n

		case BlockTypePayload:
			n, f, e := b.Payload.Read(source, bodyIndex)
			flags |= f
			if e != nil {
				return b, Outcome{DispositionDropped, flags | Dropped, e}
			}
			b.Data.PayOffset = typeIndex
			index = n
			goto walked

		default:
			blockFlags, next, f, e := skipUnknownBlock(source, bodyIndex)
			flags |= f
			if e != nil {
				return b, Outcome{DispositionDropped, flags | Dropped, e}
			}

			if blockFlags.Has(DeleteNoProc) {
				log.WithFields(log.Fields{"blockType": blockType}).Warn("Unrecognised block requested bundle deletion")
				return b, Outcome{DispositionDeleted, flags | NonCompliant | Dropped, nil}
			}
			if blockFlags.Has(NotifyNoProc) {
				flags |= NonCompliant
			}
			if blockFlags.Has(DropNoProc) {
				if f := b.excludes.add(typeIndex-b.Data.ExtStart, next-b.Data.ExtStart); f != 0 {
					return b, Outcome{DispositionDropped, flags | f | Dropped, newBPv6Error(
						"Bundle: receive failed, too many dropped extension blocks")}
				}
			} else {
				// The flags SDNV's last byte carries its low 7 bits, ForwardNoProc among them.
				last := bodyIndex
				for source[last]&0x80 != 0 {
					last++
				}
				source[last] |= byte(ForwardNoProc)
			}
			index = next
		}
	}

	return b, Outcome{DispositionDropped, flags | NonCompliant | Dropped, newBPv6Error(
		"Bundle: receive failed, no payload block found")}

walked:
	if b.BIB != nil {
		if !b.BIB.Verify(engine, b.Payload.Data) {
			log.WithFields(log.Fields{"source": b.Primary.Source}).Warn("Bundle failed integrity check")
			return b, Outcome{DispositionDropped, flags | FailedIntegrityCheck | Dropped, nil}
		}
	}

	if b.Primary.IsAdminRec && len(b.Payload.Data) < 2 {
		log.WithFields(log.Fields{"source": b.Primary.Source}).Warn("Administrative record payload too short")
		return b, Outcome{DispositionDropped, flags | NonCompliant | Dropped, nil}
	}

	disposition := dispatchDisposition(b.Primary, local)

	if disposition == DispositionAdminRecordLocal {
		switch b.Payload.Data[0] {
		case acsRecType:
			// Recognised as a DACS; the caller decodes it via custody.ReadDACS.
		case csRecType, statRecType:
			flags |= NonCompliant
		default:
			flags |= UnknownRec
		}
	}

	return b, Outcome{disposition, flags, nil}
}

func dispatchDisposition(pb PrimaryBlock, local EndpointID) Disposition {
	switch {
	case pb.Destination == local && pb.IsAdminRec:
		return DispositionAdminRecordLocal
	case pb.Destination == local:
		return DispositionUserPayloadLocal
	case pb.Destination.Node == local.Node && pb.Destination.Service != 0:
		return DispositionWrongChannel
	default:
		return DispositionForward
	}
}

// skipUnknownBlock reads the flags and length of an extension block this
// engine does not recognise and returns the index of the byte following it,
// so the receive walk can carry or drop it per its control flags without
// understanding its payload.
func skipUnknownBlock(source []byte, index int) (blockFlags BlockControlFlags, next int, flags Flags, err error) {
	var sflags sdnv.Flags

	flagsField := sdnv.Field{Index: index}
	index = sdnv.Read(source, &flagsField, &sflags)
	blockFlags = BlockControlFlags(flagsField.Value)

	lenField := sdnv.Field{Index: index}
	index = sdnv.Read(source, &lenField, &sflags)

	flags = sdnvFlagsToBPv6(sflags)
	bodyLen := int(lenField.Value)
	if sflags.Has(sdnv.FlagIncomplete) || index+bodyLen > len(source) {
		return 0, -1, flags | Incomplete, newBPv6Error("Bundle: buffer ran out while skipping an unrecognised block")
	}

	return blockFlags, index + bodyLen, flags, nil
}

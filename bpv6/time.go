package bpv6

import "time"

// seconds1970To2k is the offset between the Unix epoch and the DTN epoch
// (2000-01-01 00:00:00 UTC), spec section 6. Same constant and role as the
// teacher's bundle/time.go and bpa/time.go.
const seconds1970To2k = 946684800

// DTNTime counts seconds since the DTN epoch.
type DTNTime uint64

const (
	// UnknownCreationTime is the sentinel written when the system clock is
	// unreliable (spec section 4.4, step 2). It propagates through
	// expiration calculations unchanged.
	UnknownCreationTime DTNTime = 0

	// TTLCreationTime is the sentinel requesting a TTL-extension-block based
	// expiration instead of an absolute one. It also propagates unchanged.
	TTLCreationTime DTNTime = ^DTNTime(0)

	// BestEffortLifetime is forced in place of a channel's configured
	// lifetime whenever UnknownCreationTime is stamped, so a receiver with a
	// reliable clock does not treat the bundle as already expired.
	BestEffortLifetime uint64 = 3600 * 24
)

// Unix returns the Unix timestamp for this DTNTime.
func (t DTNTime) Unix() int64 {
	return int64(t) + seconds1970To2k
}

// Time returns a UTC time.Time for this DTNTime.
func (t DTNTime) Time() time.Time {
	return time.Unix(t.Unix(), 0).UTC()
}

// DTNTimeFromTime converts a time.Time to a DTNTime.
func DTNTimeFromTime(t time.Time) DTNTime {
	return DTNTime(t.UTC().Unix() - seconds1970To2k)
}

// DTNTimeNow returns the current time as a DTNTime.
func DTNTimeNow() DTNTime {
	return DTNTimeFromTime(time.Now())
}

// CreationTimestamp is a (DTNTime, sequence) pair disambiguating bundles
// that share a second from the same source (spec section 3).
type CreationTimestamp struct {
	Seconds  DTNTime
	Sequence uint64
}

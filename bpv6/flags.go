package bpv6

import "strings"

// Flags is the error/anomaly bitmask carried alongside every operation,
// accumulated through a call and inspected by the caller afterwards (spec
// section 6, "Error flags", and section 7's error handling design).
type Flags uint32

const (
	NonCompliant Flags = 1 << iota
	Dropped
	BundleTooLarge
	UnknownRec
	InvalidCipherSuiteID
	InvalidBIBResultType
	InvalidBIBTargetType
	FailedToParse
	APIError
	SDNVOverflow
	SDNVIncomplete
	UnreliableTime
	StoreFailure
	FailedIntegrityCheck
	RouteNeeded
	Incomplete
	Diagnostic
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{NonCompliant, "NONCOMPLIANT"},
	{Dropped, "DROPPED"},
	{BundleTooLarge, "BUNDLE_TOO_LARGE"},
	{UnknownRec, "UNKNOWNREC"},
	{InvalidCipherSuiteID, "INVALID_CIPHER_SUITEID"},
	{InvalidBIBResultType, "INVALID_BIB_RESULT_TYPE"},
	{InvalidBIBTargetType, "INVALID_BIB_TARGET_TYPE"},
	{FailedToParse, "FAILED_TO_PARSE"},
	{APIError, "API_ERROR"},
	{SDNVOverflow, "SDNV_OVERFLOW"},
	{SDNVIncomplete, "SDNV_INCOMPLETE"},
	{UnreliableTime, "UNRELIABLE_TIME"},
	{StoreFailure, "STORE_FAILURE"},
	{FailedIntegrityCheck, "FAILED_INTEGRITY_CHECK"},
	{RouteNeeded, "ROUTE_NEEDED"},
	{Incomplete, "INCOMPLETE"},
	{Diagnostic, "DIAGNOSTIC"},
}

// Has reports whether f contains every bit of mask.
func (f Flags) Has(mask Flags) bool {
	return f&mask == mask
}

func (f Flags) String() string {
	if f == 0 {
		return "none"
	}

	var names []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			names = append(names, fn.name)
		}
	}
	return strings.Join(names, "|")
}

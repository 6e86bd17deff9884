package bpv6

// bpv6Error is a simple error-struct, the same shape as the teacher's
// bpa/error.go and bundle/bundle_error.go: one private struct per package
// for programmer-facing error values, kept separate from the accumulated
// Flags word that travels alongside every operation.
type bpv6Error struct {
	msg string
}

func newBPv6Error(msg string) *bpv6Error {
	return &bpv6Error{msg}
}

func (e bpv6Error) Error() string {
	return e.msg
}

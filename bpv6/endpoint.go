package bpv6

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// EndpointID is a CBHE/IPN endpoint identifier: a (node, service) pair of
// non-negative integers, textual form "ipn:<node>.<service>" (spec
// section 3, "Endpoint identifier"). No dictionary compression is
// supported, so both numbers always travel as raw SDNVs in the primary
// block.
type EndpointID struct {
	Node    uint64
	Service uint64
}

// NewEndpointID builds an EndpointID from a node/service pair.
func NewEndpointID(node, service uint64) EndpointID {
	return EndpointID{Node: node, Service: service}
}

// NoneEndpoint is the null endpoint "ipn:0.0", used for report-to when no
// status reporting endpoint applies.
var NoneEndpoint = EndpointID{}

// IsNone reports whether this is the null endpoint.
func (e EndpointID) IsNone() bool {
	return e == NoneEndpoint
}

func (e EndpointID) String() string {
	return fmt.Sprintf("ipn:%d.%d", e.Node, e.Service)
}

// ParseEndpointID parses the textual form "ipn:<node>.<service>".
func ParseEndpointID(s string) (EndpointID, error) {
	rest := strings.TrimPrefix(s, "ipn:")
	if rest == s {
		return EndpointID{}, newBPv6Error(fmt.Sprintf("endpoint %q: missing ipn: scheme", s))
	}

	parts := strings.SplitN(rest, ".", 2)
	if len(parts) != 2 {
		return EndpointID{}, newBPv6Error(fmt.Sprintf("endpoint %q: expected node.service", s))
	}

	node, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return EndpointID{}, newBPv6Error(fmt.Sprintf("endpoint %q: bad node number: %v", s, err))
	}

	service, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return EndpointID{}, newBPv6Error(fmt.Sprintf("endpoint %q: bad service number: %v", s, err))
	}

	return EndpointID{Node: node, Service: service}, nil
}

// Route is a channel's addressing: local, destination, and report-to
// endpoints (spec section 3, "Route").
type Route struct {
	Local       EndpointID
	Destination EndpointID
	ReportTo    EndpointID
}

// checkValid reports structural problems with a Route, accumulating more
// than one error the way the teacher's bpa.PrimaryBlock.checkValid does.
func (r Route) checkValid() (errs error) {
	if r.Local.IsNone() {
		errs = multierror.Append(errs, newBPv6Error("Route: local endpoint must not be the null endpoint"))
	}
	if r.Destination.IsNone() {
		errs = multierror.Append(errs, newBPv6Error("Route: destination endpoint must not be the null endpoint"))
	}
	return
}

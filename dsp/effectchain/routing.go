package effectchain

import (
	"fmt"
	"strings"
)

// Routing selects how slots are combined.
type Routing int

const (
	// RoutingSerial runs every slot in order on one buffer.
	RoutingSerial Routing = iota
	// RoutingParallel runs slots 0-1 and 2-3 on independent copies and
	// averages the branches.
	RoutingParallel
	// RoutingMidSide runs slots 0-1 on the mid and 2-3 on the side signal.
	RoutingMidSide
	// RoutingFeedback adds the damped previous block output to the input
	// before a serial pass.
	RoutingFeedback
	numRoutings
)

var routingNames = [numRoutings]string{"serial", "parallel", "midside", "feedback"}

// String returns the lowercase routing name.
func (r Routing) String() string {
	if r < 0 || r >= numRoutings {
		return fmt.Sprintf("Routing(%d)", int(r))
	}

	return routingNames[r]
}

// Valid reports whether r is a known routing.
func (r Routing) Valid() bool { return r >= 0 && r < numRoutings }

// ParseRouting converts a routing name. "mid-side" is accepted as an
// alias of "midside".
func ParseRouting(s string) (Routing, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "")
	for i, n := range routingNames {
		if n == name {
			return Routing(i), nil
		}
	}

	return RoutingSerial, fmt.Errorf("effectchain: unknown routing %q", s)
}

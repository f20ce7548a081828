// Package stats forwards endpoint hits to the external statistics service.
package stats

import (
	"context"
	"net/netip"
	"time"
)

// TimeLayout is the wire format of hit timestamps.
const TimeLayout = "2006-01-02 15:04:05"

type Hit struct {
	App       string
	URI       string
	IP        string
	Timestamp time.Time
}

// Recorder accepts hits for delivery. Implementations must not block the caller on network I/O.
type Recorder interface {
	Record(ctx context.Context, hit Hit) error
}

// AnonymizeIP zeroes the host part of an address: IPv4 keeps its /24, IPv6 its /48.
// Anything that does not parse as an address becomes "unknown".
func AnonymizeIP(raw string) string {
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		if ap, apErr := netip.ParseAddrPort(raw); apErr == nil {
			addr = ap.Addr()
		} else {
			return "unknown"
		}
	}
	addr = addr.Unmap()

	bits := 48
	if addr.Is4() {
		bits = 24
	}
	prefix, err := addr.WithZone("").Prefix(bits)
	if err != nil {
		return "unknown"
	}
	return prefix.Addr().String()
}

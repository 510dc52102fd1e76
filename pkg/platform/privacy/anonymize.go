// Package privacy masks client identifiers before they reach logs.
package privacy

import (
	"net/netip"
)

// AnonymizeIP truncates a client key to its network so logs never carry the
// full address of a requester. IPv4 keeps the /24, IPv6 keeps the /48.
//
// Returns "unknown" for empty or unresolved keys and "invalid" for values
// that do not parse as an address.
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}

	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "invalid"
	}
	addr = addr.Unmap()

	bits := 48
	if addr.Is4() {
		bits = 24
	}
	prefix, err := addr.Prefix(bits)
	if err != nil {
		return "invalid"
	}
	return prefix.Addr().String()
}

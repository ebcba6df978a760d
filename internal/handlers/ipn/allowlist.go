package ipn

import (
	"net"
	"net/http"
	"strings"
)

// BlueSnap publishes the source ranges its IPN callbacks originate from. Any
// notification from outside these ranges is rejected before parsing.
var (
	productionRanges = []string{
		"62.216.234.216/29",
		"209.128.93.232/29",
		"141.226.140.0/24",
		"141.226.141.0/24",
		"141.226.142.0/24",
		"141.226.143.0/24",
	}
	sandboxRanges = []string{
		"62.216.234.222/32",
		"209.128.93.254/32",
		"141.226.140.0/24",
		"141.226.141.0/24",
		"141.226.142.0/24",
		"141.226.143.0/24",
	}
)

// Allowlist validates notification source IPs against trusted CIDR ranges
type Allowlist struct {
	networks []*net.IPNet
}

// NewAllowlist builds the allowlist for an environment. Anything that is not
// explicitly production uses the sandbox ranges.
func NewAllowlist(production bool) *Allowlist {
	ranges := sandboxRanges
	if production {
		ranges = productionRanges
	}

	list := &Allowlist{}
	for _, cidr := range ranges {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		list.networks = append(list.networks, network)
	}
	return list
}

// Contains reports whether the IP belongs to a trusted range
func (a *Allowlist) Contains(ip net.IP) bool {
	if ip == nil {
		return false
	}
	for _, network := range a.networks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// clientIP extracts the remote address of a request, ignoring forwarding
// headers. The service sits behind infrastructure that preserves the source
// address; trusting X-Forwarded-For here would let anyone spoof the allowlist.
func clientIP(r *http.Request) net.IP {
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		host = h
	}
	return net.ParseIP(strings.TrimSpace(host))
}

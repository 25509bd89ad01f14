package cache

import (
	"net"
	"slices"
)

const valkeyPort = "6379"

// ResolveValkeyAddrs picks the Valkey node list. Explicit nodes win, then the
// addresses behind service, then localhost.
func ResolveValkeyAddrs(nodes []string, service string) []string {
	if len(nodes) > 0 {
		return slices.Clone(nodes)
	}

	if service != "" {
		addrs, err := net.LookupHost(service)
		if err != nil || len(addrs) == 0 {
			return []string{net.JoinHostPort(service, valkeyPort)}
		}
		out := make([]string, 0, len(addrs))
		for _, ip := range addrs {
			out = append(out, net.JoinHostPort(ip, valkeyPort))
		}
		return out
	}

	return []string{net.JoinHostPort("localhost", valkeyPort)}
}

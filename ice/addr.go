package ice

import (
	"fmt"
	"net"
)

func parseTransportAddr(address string, port int) (*net.UDPAddr, error) {
	ip := net.ParseIP(address)
	if ip == nil {
		return nil, fmt.Errorf("%w: unparseable address %q", ErrBadCandidate, address)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("%w: invalid port %d", ErrBadCandidate, port)
	}
	if ip.IsUnspecified() || ip.IsMulticast() {
		return nil, fmt.Errorf("%w: %s is not a unicast address", ErrBadCandidate, ip)
	}
	return &net.UDPAddr{IP: ip, Port: port}, nil
}

func addrEqual(a, b *net.UDPAddr) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Port == b.Port && a.IP.Equal(b.IP)
}

func copyAddr(a *net.UDPAddr) *net.UDPAddr {
	if a == nil {
		return nil
	}
	ip := make(net.IP, len(a.IP))
	copy(ip, a.IP)
	return &net.UDPAddr{IP: ip, Port: a.Port, Zone: a.Zone}
}

func isIPv6(ip net.IP) bool {
	return ip.To4() == nil
}

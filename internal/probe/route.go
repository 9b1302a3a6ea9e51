package probe

import (
	"fmt"
	"net"

	"github.com/vishvananda/netlink"
)

// DefaultGateway returns the gateway of the IPv4 default route.
func DefaultGateway() (net.IP, error) {
	routes, err := netlink.RouteList(nil, netlink.FAMILY_V4)
	if err != nil {
		return nil, fmt.Errorf("%w: list routes: %w", ErrProbeUnavailable, err)
	}

	for _, r := range routes {
		if !isDefault(r) || r.Gw == nil {
			continue
		}
		return r.Gw, nil
	}
	return nil, ErrNoDefaultRoute
}

// isDefault matches 0.0.0.0/0, which netlink reports either as a nil Dst or
// as an explicit zero-length prefix.
func isDefault(r netlink.Route) bool {
	if r.Dst == nil {
		return true
	}
	ones, _ := r.Dst.Mask.Size()
	return ones == 0 && r.Dst.IP.IsUnspecified()
}

// InterfaceAddrs returns the IPv4 addresses currently assigned to iface.
func InterfaceAddrs(iface string) ([]net.IP, error) {
	link, err := netlink.LinkByName(iface)
	if err != nil {
		return nil, fmt.Errorf("%w: link %s: %w", ErrProbeUnavailable, iface, err)
	}

	addrs, err := netlink.AddrList(link, netlink.FAMILY_V4)
	if err != nil {
		return nil, fmt.Errorf("%w: addresses of %s: %w", ErrProbeUnavailable, iface, err)
	}

	ips := make([]net.IP, 0, len(addrs))
	for _, a := range addrs {
		if a.IPNet != nil {
			ips = append(ips, a.IP)
		}
	}
	return ips, nil
}

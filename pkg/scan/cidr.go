// Package scan pkg/scan/cidr.go
package scan

import (
	"fmt"
	"net"
)

var (
	errNotIPv4 = fmt.Errorf("not an IPv4 network")
)

// ExpandCIDR expands a CIDR notation into a slice of usable host addresses.
// Skips network and broadcast addresses for non-/32 networks.
func ExpandCIDR(cidr string) ([]string, error) {
	baseIP, ipnet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, err
	}

	if baseIP.To4() == nil {
		return nil, fmt.Errorf("%w: %s", errNotIPv4, cidr)
	}

	var ips []string

	for currentIP := baseIP.Mask(ipnet.Mask); ipnet.Contains(currentIP); incIP(currentIP) {
		ones, _ := ipnet.Mask.Size()
		if ones != 32 {
			if currentIP.Equal(ipnet.IP) || isBroadcast(currentIP, ipnet) {
				continue
			}
		}

		ips = append(ips, currentIP.String())
	}

	return ips, nil
}

// UsableHostCount returns how many host addresses ExpandCIDR would yield
// for the network, without materializing them.
func UsableHostCount(cidr string) (int, error) {
	ip, ipnet, err := net.ParseCIDR(cidr)
	if err != nil {
		return 0, err
	}

	if ip.To4() == nil {
		return 0, fmt.Errorf("%w: %s", errNotIPv4, cidr)
	}

	ones, bits := ipnet.Mask.Size()

	switch {
	case ones == 32:
		return 1, nil
	case ones == 31:
		return 0, nil
	default:
		return (1 << uint(bits-ones)) - 2, nil
	}
}

// incIP increments an IP address in place.
func incIP(ip net.IP) {
	for i := len(ip) - 1; i >= 0; i-- {
		ip[i]++
		if ip[i] != 0 {
			break
		}
	}
}

// isBroadcast checks if an IP is the broadcast address of a network.
func isBroadcast(ip net.IP, ipnet *net.IPNet) bool {
	broadcast := make(net.IP, len(ip))
	for i := range ip {
		broadcast[i] = ipnet.IP[i] | ^ipnet.Mask[i]
	}

	return ip.Equal(broadcast)
}

package discovery

import (
	"net"
	"strconv"
	"strings"
)

// DefaultPort is the controller's TCP command port.
const DefaultPort = 20400

// FormatAddr renders host and port as a single address string. The port is
// omitted when it is the default, matching how the vendor app stores
// controller addresses.
func FormatAddr(host string, port int) string {
	if port != 0 && port != DefaultPort {
		return net.JoinHostPort(host, strconv.Itoa(port))
	}
	return host
}

// SplitAddr parses an address string with an optional ":port" suffix.
// Bare IPv6 literals, with or without brackets, keep the default port.
// Missing, empty or out-of-range ports fall back to the default.
func SplitAddr(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		// no port suffix, or a bare IPv6 literal
		return strings.Trim(addr, "[]"), DefaultPort
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		port = DefaultPort
	}
	return host, port
}

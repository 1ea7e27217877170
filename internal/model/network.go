package model

import (
	"net/netip"
	"strings"
)

// Network represents a compose network declaration.
type Network struct {
	Name   string
	Driver string
}

// Connection represents a link between two services.
type Connection struct {
	From  string
	To    string
	Label string
	Style string
}

// DefaultSubnet is the bridge range assumed when detection fails.
const DefaultSubnet = "172.17.0.0/16"

// ValidSubnet reports whether s is an IPv4 CIDR such as "172.17.0.0/16".
// The address part need not be the network address; it is not checked
// against the container engine's real bridge range.
func ValidSubnet(s string) bool {
	prefix, err := netip.ParsePrefix(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return prefix.Addr().Is4()
}

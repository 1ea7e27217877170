package model

import (
	"fmt"
	"strconv"
	"strings"
)

// PortMapping represents a port binding.
type PortMapping struct {
	HostIP        string
	HostPort      int
	ContainerPort int
	Protocol      string // tcp or udp
}

// String returns a human-readable port mapping.
func (p PortMapping) String() string {
	proto := p.Protocol
	if proto == "" || proto == "tcp" {
		proto = ""
	} else {
		proto = "/" + proto
	}
	if p.HostPort == p.ContainerPort {
		return fmt.Sprintf("%d%s", p.HostPort, proto)
	}
	return fmt.Sprintf("%d→%d%s", p.HostPort, p.ContainerPort, proto)
}

// ComposeString renders the mapping in compose short syntax, e.g. "8080:8080"
// or "6881:6881/udp". TCP is the compose default and is left implicit.
func (p PortMapping) ComposeString() string {
	var b strings.Builder
	if p.HostIP != "" {
		b.WriteString(p.HostIP)
		b.WriteByte(':')
	}
	fmt.Fprintf(&b, "%d:%d", p.HostPort, p.ContainerPort)
	if p.Protocol != "" && p.Protocol != "tcp" {
		b.WriteString("/" + p.Protocol)
	}
	return b.String()
}

// ParsePortMapping parses a Docker port string like "8080:80" or "127.0.0.1:8080:80/tcp".
func ParsePortMapping(s string) PortMapping {
	pm := PortMapping{Protocol: "tcp"}

	// Split protocol
	if idx := strings.Index(s, "/"); idx != -1 {
		pm.Protocol = s[idx+1:]
		s = s[:idx]
	}

	parts := strings.Split(s, ":")
	switch len(parts) {
	case 1:
		port, _ := strconv.Atoi(parts[0])
		pm.HostPort = port
		pm.ContainerPort = port
	case 2:
		pm.HostPort, _ = strconv.Atoi(parts[0])
		pm.ContainerPort, _ = strconv.Atoi(parts[1])
	case 3:
		pm.HostIP = parts[0]
		pm.HostPort, _ = strconv.Atoi(parts[1])
		pm.ContainerPort, _ = strconv.Atoi(parts[2])
	}
	return pm
}

// ParsePortMappingStrict is ParsePortMapping with range and protocol checks,
// used where a malformed port must be rejected instead of zeroed.
func ParsePortMappingStrict(s string) (PortMapping, error) {
	pm := ParsePortMapping(strings.TrimSpace(s))
	if !validPort(pm.HostPort) || !validPort(pm.ContainerPort) {
		return PortMapping{}, fmt.Errorf("invalid port mapping %q", s)
	}
	if pm.Protocol != "tcp" && pm.Protocol != "udp" {
		return PortMapping{}, fmt.Errorf("invalid protocol %q in port mapping %q", pm.Protocol, s)
	}
	return pm, nil
}

// SamePort maps a port onto itself with the given protocol.
func SamePort(port int, protocol string) PortMapping {
	return PortMapping{HostPort: port, ContainerPort: port, Protocol: protocol}
}

func validPort(p int) bool {
	return p > 0 && p <= 65535
}

// PortBinding is a port mapping as it appears in a manifest, with an
// optional trailing comment.
type PortBinding struct {
	Mapping PortMapping
	Comment string
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePortMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected PortMapping
	}{
		{
			"8080",
			PortMapping{HostPort: 8080, ContainerPort: 8080, Protocol: "tcp"},
		},
		{
			"8080:80",
			PortMapping{HostPort: 8080, ContainerPort: 80, Protocol: "tcp"},
		},
		{
			"127.0.0.1:8080:80",
			PortMapping{HostIP: "127.0.0.1", HostPort: 8080, ContainerPort: 80, Protocol: "tcp"},
		},
		{
			"8388:8388/udp",
			PortMapping{HostPort: 8388, ContainerPort: 8388, Protocol: "udp"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParsePortMapping(tt.input)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParsePortMappingStrict(t *testing.T) {
	pm, err := ParsePortMappingStrict("8388:8388/udp")
	require.NoError(t, err)
	assert.Equal(t, SamePort(8388, "udp"), pm)

	for _, bad := range []string{"", "abc", "0:80", "70000:80", "8080:80/sctp"} {
		t.Run(bad, func(t *testing.T) {
			_, err := ParsePortMappingStrict(bad)
			assert.Error(t, err)
		})
	}
}

func TestPortMappingString(t *testing.T) {
	tests := []struct {
		pm       PortMapping
		expected string
	}{
		{PortMapping{HostPort: 8080, ContainerPort: 8080, Protocol: "tcp"}, "8080"},
		{PortMapping{HostPort: 8080, ContainerPort: 80, Protocol: "tcp"}, "8080→80"},
		{PortMapping{HostPort: 8080, ContainerPort: 80, Protocol: "udp"}, "8080→80/udp"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.pm.String())
		})
	}
}

func TestPortMappingComposeString(t *testing.T) {
	tests := []struct {
		pm       PortMapping
		expected string
	}{
		{SamePort(8096, "tcp"), "8096:8096"},
		{SamePort(6881, "udp"), "6881:6881/udp"},
		{PortMapping{HostIP: "127.0.0.1", HostPort: 8080, ContainerPort: 80}, "127.0.0.1:8080:80"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.pm.ComposeString())
		})
	}
}

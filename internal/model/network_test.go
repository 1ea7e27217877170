package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidSubnet(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"192.168.1.0/24", true},
		{"172.17.0.0/16", true},
		{"10.0.0.0/8", true},
		{"0.0.0.0/0", true},
		{"192.168.1.0/32", true},
		{"192.168.1.0/33", false},
		{"192.168.1.0/-1", false},
		{"256.1.1.0/24", false},
		{"192.168.1/24", false},
		{"192.168.1.0", false},
		{"invalid", false},
		{"", false},
		{"fd00::/64", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidSubnet(tt.input))
		})
	}
}

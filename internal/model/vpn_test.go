package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nordOpenVPN() VPNOptions {
	return VPNOptions{
		Enabled:  true,
		Provider: "nordvpn",
		Protocol: ProtocolOpenVPN,
		Credentials: map[CredentialField]string{
			FieldOpenVPNUser:     "testuser",
			FieldOpenVPNPassword: "testpass",
		},
		ServerCountries:     "Netherlands,Germany",
		RouteDownloadClient: true,
		OutboundSubnet:      "172.17.0.0/16",
	}
}

func TestNewVPNConfigDisabled(t *testing.T) {
	opts := nordOpenVPN()
	opts.Enabled = false

	cfg, err := NewVPNConfig(opts)
	require.NoError(t, err)
	assert.False(t, cfg.Enabled())
	assert.False(t, cfg.RouteDownloadClient())
	assert.Empty(t, cfg.EnvironmentVars())
}

func TestNewVPNConfigEnvironmentVars(t *testing.T) {
	cfg, err := NewVPNConfig(nordOpenVPN())
	require.NoError(t, err)

	assert.True(t, cfg.Enabled())
	assert.True(t, cfg.RouteDownloadClient())
	assert.Equal(t, "NordVPN", cfg.ProviderName())
	assert.Equal(t, []EnvVar{
		{Key: "VPN_SERVICE_PROVIDER", Value: "nordvpn"},
		{Key: "VPN_TYPE", Value: "openvpn"},
		{Key: "OPENVPN_USER", Value: "testuser"},
		{Key: "OPENVPN_PASSWORD", Value: "testpass"},
		{Key: "SERVER_COUNTRIES", Value: "Netherlands,Germany"},
		{Key: "FIREWALL_OUTBOUND_SUBNETS", Value: "172.17.0.0/16"},
	}, cfg.EnvironmentVars())
}

func TestNewVPNConfigSkipsEmptyOptionalCredential(t *testing.T) {
	opts := nordOpenVPN()
	opts.Credentials[FieldOpenVPNPassword] = ""
	opts.ServerCountries = ""

	cfg, err := NewVPNConfig(opts)
	require.NoError(t, err)

	for _, env := range cfg.EnvironmentVars() {
		assert.NotEqual(t, "OPENVPN_PASSWORD", env.Key)
		assert.NotEqual(t, "SERVER_COUNTRIES", env.Key)
	}
}

func TestNewVPNConfigDefaultsProtocol(t *testing.T) {
	cfg, err := NewVPNConfig(VPNOptions{
		Enabled:     true,
		Provider:    "mullvad",
		Credentials: map[CredentialField]string{FieldWireGuardPrivateKey: "key", FieldWireGuardAddresses: "10.64.0.1/32"},
	})
	require.NoError(t, err)
	assert.Equal(t, ProtocolWireGuard, cfg.Protocol())

	cfg, err = NewVPNConfig(VPNOptions{
		Enabled:     true,
		Provider:    "expressvpn",
		Credentials: map[CredentialField]string{FieldOpenVPNUser: "u"},
	})
	require.NoError(t, err)
	assert.Equal(t, ProtocolOpenVPN, cfg.Protocol())
}

func TestNewVPNConfigCustomCollectsNothing(t *testing.T) {
	cfg, err := NewVPNConfig(VPNOptions{
		Enabled:             true,
		Provider:            ProviderCustom,
		Protocol:            ProtocolWireGuard,
		Credentials:         map[CredentialField]string{FieldOpenVPNUser: "ignored"},
		RouteDownloadClient: true,
	})
	require.NoError(t, err)

	assert.True(t, cfg.IsCustom())
	assert.Empty(t, cfg.Protocol())
	assert.Empty(t, cfg.Credential(FieldOpenVPNUser))
	assert.Empty(t, cfg.EnvironmentVars())
	assert.Equal(t, "Custom", cfg.ProviderName())
}

func TestNewVPNConfigRejects(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(*VPNOptions)
		field string
	}{
		{"unknown provider", func(o *VPNOptions) { o.Provider = "acmevpn" }, "provider"},
		{"unknown protocol", func(o *VPNOptions) { o.Protocol = "ipsec" }, "protocol"},
		{"unsupported protocol", func(o *VPNOptions) { o.Provider = "expressvpn"; o.Protocol = ProtocolWireGuard }, "protocol"},
		{"missing required", func(o *VPNOptions) { delete(o.Credentials, FieldOpenVPNUser) }, "OPENVPN_USER"},
		{"foreign field", func(o *VPNOptions) { o.Credentials[FieldWireGuardPrivateKey] = "k" }, "WIREGUARD_PRIVATE_KEY"},
		{"bad subnet", func(o *VPNOptions) { o.OutboundSubnet = "192.168.1.0/33" }, "outbound_subnet"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := nordOpenVPN()
			tt.mod(&opts)

			_, err := NewVPNConfig(opts)
			require.Error(t, err)

			var verr *VPNConfigError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestCredentialField(t *testing.T) {
	assert.True(t, FieldOpenVPNPassword.Optional())
	assert.True(t, FieldWireGuardPresharedKey.Optional())
	assert.False(t, FieldOpenVPNUser.Optional())

	assert.True(t, FieldWireGuardPrivateKey.Sensitive())
	assert.True(t, FieldOpenVPNPassword.Sensitive())
	assert.False(t, FieldOpenVPNUser.Sensitive())

	assert.Equal(t, "Openvpn User", FieldOpenVPNUser.Label())
}

func TestProvidersSorted(t *testing.T) {
	list := Providers()
	require.Len(t, list, 7)
	assert.Equal(t, Provider("expressvpn"), list[0])
	for _, p := range list {
		_, ok := LookupProvider(p)
		assert.True(t, ok, p)
	}
}

package model

import (
	"fmt"
	"sort"
	"strings"
)

// Protocol is the tunnel protocol the VPN sidecar uses.
type Protocol string

const (
	ProtocolOpenVPN   Protocol = "openvpn"
	ProtocolWireGuard Protocol = "wireguard"
)

// Valid reports whether p is a known protocol.
func (p Protocol) Valid() bool {
	return p == ProtocolOpenVPN || p == ProtocolWireGuard
}

// CredentialField names a secret passed to the VPN sidecar.
type CredentialField string

const (
	FieldOpenVPNUser           CredentialField = "OPENVPN_USER"
	FieldOpenVPNPassword       CredentialField = "OPENVPN_PASSWORD"
	FieldWireGuardPrivateKey   CredentialField = "WIREGUARD_PRIVATE_KEY"
	FieldWireGuardAddresses    CredentialField = "WIREGUARD_ADDRESSES"
	FieldWireGuardPresharedKey CredentialField = "WIREGUARD_PRESHARED_KEY"
)

// Optional reports whether the field may be left empty.
func (f CredentialField) Optional() bool {
	return f == FieldOpenVPNPassword || f == FieldWireGuardPresharedKey
}

// Sensitive reports whether the field should be prompted without echo.
func (f CredentialField) Sensitive() bool {
	lower := strings.ToLower(string(f))
	return strings.Contains(lower, "password") || strings.Contains(lower, "key") || strings.Contains(lower, "secret")
}

// Label is the prompt label, e.g. "Openvpn User".
func (f CredentialField) Label() string {
	return Category(strings.ToLower(string(f))).Title()
}

// Provider identifies a VPN service supported by the sidecar image.
type Provider string

// ProviderCustom means credentials are configured by hand after generation.
const ProviderCustom Provider = "custom"

// ProviderInfo describes what a provider supports and where its
// credentials come from.
type ProviderInfo struct {
	Name            string
	GluetunName     string
	OpenVPNFields   []CredentialField
	WireGuardFields []CredentialField
	CredentialsURL  string
	WireGuardURL    string
	CredentialsNote string
}

// Supports reports whether the provider offers protocol p.
func (pi ProviderInfo) Supports(p Protocol) bool {
	switch p {
	case ProtocolOpenVPN:
		return len(pi.OpenVPNFields) > 0
	case ProtocolWireGuard:
		return len(pi.WireGuardFields) > 0
	}
	return false
}

// Fields returns the credential fields collected for protocol p.
func (pi ProviderInfo) Fields(p Protocol) []CredentialField {
	if p == ProtocolWireGuard {
		return pi.WireGuardFields
	}
	return pi.OpenVPNFields
}

// DefaultProtocol is WireGuard when supported, OpenVPN otherwise.
func (pi ProviderInfo) DefaultProtocol() Protocol {
	if pi.Supports(ProtocolWireGuard) {
		return ProtocolWireGuard
	}
	return ProtocolOpenVPN
}

var providers = map[Provider]ProviderInfo{
	"nordvpn": {
		Name:            "NordVPN",
		GluetunName:     "nordvpn",
		OpenVPNFields:   []CredentialField{FieldOpenVPNUser, FieldOpenVPNPassword},
		WireGuardFields: []CredentialField{FieldWireGuardPrivateKey},
		CredentialsURL:  "https://my.nordaccount.com/dashboard/nordvpn/manual-configuration/service-credentials/",
		CredentialsNote: "Use your SERVICE CREDENTIALS (not your email/password). Get them from your NordVPN account dashboard.",
	},
	"mullvad": {
		Name:            "Mullvad",
		GluetunName:     "mullvad",
		OpenVPNFields:   []CredentialField{FieldOpenVPNUser},
		WireGuardFields: []CredentialField{FieldWireGuardPrivateKey, FieldWireGuardAddresses},
		CredentialsURL:  "https://mullvad.net/en/account/#/wireguard-config",
		CredentialsNote: "For OpenVPN, use your account number. For WireGuard, generate a config file to get your private key and address.",
	},
	"protonvpn": {
		Name:            "ProtonVPN",
		GluetunName:     "protonvpn",
		OpenVPNFields:   []CredentialField{FieldOpenVPNUser, FieldOpenVPNPassword},
		WireGuardFields: []CredentialField{FieldWireGuardPrivateKey},
		CredentialsURL:  "https://account.proton.me/u/0/vpn/OpenVpnIKEv2",
		WireGuardURL:    "https://account.proton.me/u/0/vpn/WireGuard",
		CredentialsNote: "Use your OpenVPN/IKEv2 credentials (NOT your Proton account password).",
	},
	"surfshark": {
		Name:            "Surfshark",
		GluetunName:     "surfshark",
		OpenVPNFields:   []CredentialField{FieldOpenVPNUser, FieldOpenVPNPassword},
		WireGuardFields: []CredentialField{FieldWireGuardPrivateKey, FieldWireGuardAddresses},
		CredentialsURL:  "https://my.surfshark.com/vpn/manual-setup/main",
		CredentialsNote: "Find credentials in: VPN > Manual setup > Credentials (OpenVPN) or generate a WireGuard keypair.",
	},
	"private internet access": {
		Name:            "Private Internet Access (PIA)",
		GluetunName:     "private internet access",
		OpenVPNFields:   []CredentialField{FieldOpenVPNUser, FieldOpenVPNPassword},
		CredentialsURL:  "https://www.privateinternetaccess.com/account/client-control-panel",
		CredentialsNote: "Use your PIA username and password.",
	},
	"expressvpn": {
		Name:            "ExpressVPN",
		GluetunName:     "expressvpn",
		OpenVPNFields:   []CredentialField{FieldOpenVPNUser, FieldOpenVPNPassword},
		CredentialsURL:  "https://www.expressvpn.com/setup",
		CredentialsNote: "Get your manual configuration credentials from the ExpressVPN setup page.",
	},
	"ivpn": {
		Name:            "IVPN",
		GluetunName:     "ivpn",
		OpenVPNFields:   []CredentialField{FieldOpenVPNUser, FieldOpenVPNPassword},
		WireGuardFields: []CredentialField{FieldWireGuardPrivateKey},
		CredentialsURL:  "https://www.ivpn.net/account/login",
		CredentialsNote: "Use your IVPN account credentials.",
	},
}

// LookupProvider returns the provider description.
func LookupProvider(p Provider) (ProviderInfo, bool) {
	info, ok := providers[p]
	return info, ok
}

// Providers returns every known provider id, sorted by display name.
func Providers() []Provider {
	out := make([]Provider, 0, len(providers))
	for p := range providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(providers[out[i]].Name) < strings.ToLower(providers[out[j]].Name)
	})
	return out
}

// VPNConfigError reports an inconsistent VPN configuration.
type VPNConfigError struct {
	Field   string
	Message string
}

func (e *VPNConfigError) Error() string {
	return fmt.Sprintf("vpn %s: %s", e.Field, e.Message)
}

// VPNOptions is the raw, unvalidated VPN input gathered from a wizard or
// config file.
type VPNOptions struct {
	Enabled             bool
	Provider            Provider
	Protocol            Protocol
	Credentials         map[CredentialField]string
	ServerCountries     string
	RouteDownloadClient bool
	OutboundSubnet      string
}

// VPNConfig is a validated VPN configuration. It is built once by
// NewVPNConfig and only read afterwards; the zero value is a disabled VPN.
type VPNConfig struct {
	enabled             bool
	provider            Provider
	protocol            Protocol
	credentials         map[CredentialField]string
	serverCountries     string
	routeDownloadClient bool
	outboundSubnet      string
}

// NewVPNConfig validates opts and freezes them into a VPNConfig.
func NewVPNConfig(opts VPNOptions) (VPNConfig, error) {
	if !opts.Enabled {
		return VPNConfig{}, nil
	}

	cfg := VPNConfig{
		enabled:             true,
		provider:            opts.Provider,
		routeDownloadClient: opts.RouteDownloadClient,
		outboundSubnet:      strings.TrimSpace(opts.OutboundSubnet),
	}

	if cfg.outboundSubnet != "" && !ValidSubnet(cfg.outboundSubnet) {
		return VPNConfig{}, &VPNConfigError{Field: "outbound_subnet", Message: fmt.Sprintf("%q is not an IPv4 CIDR", cfg.outboundSubnet)}
	}

	// Custom providers are wired by hand: nothing else is collected.
	if opts.Provider == ProviderCustom {
		return cfg, nil
	}

	info, ok := LookupProvider(opts.Provider)
	if !ok {
		return VPNConfig{}, &VPNConfigError{Field: "provider", Message: fmt.Sprintf("unknown provider %q", opts.Provider)}
	}

	cfg.protocol = opts.Protocol
	if cfg.protocol == "" {
		cfg.protocol = info.DefaultProtocol()
	}
	if !cfg.protocol.Valid() {
		return VPNConfig{}, &VPNConfigError{Field: "protocol", Message: fmt.Sprintf("unknown protocol %q", opts.Protocol)}
	}
	if !info.Supports(cfg.protocol) {
		return VPNConfig{}, &VPNConfigError{Field: "protocol", Message: fmt.Sprintf("%s does not support %s", info.Name, cfg.protocol)}
	}

	allowed := info.Fields(cfg.protocol)
	cfg.credentials = make(map[CredentialField]string, len(allowed))
	for field, value := range opts.Credentials {
		if !containsField(allowed, field) {
			return VPNConfig{}, &VPNConfigError{Field: string(field), Message: fmt.Sprintf("not used by %s over %s", info.Name, cfg.protocol)}
		}
		cfg.credentials[field] = value
	}
	for _, field := range allowed {
		if cfg.credentials[field] == "" && !field.Optional() {
			return VPNConfig{}, &VPNConfigError{Field: string(field), Message: "is required"}
		}
	}

	cfg.serverCountries = strings.TrimSpace(opts.ServerCountries)
	return cfg, nil
}

func containsField(fields []CredentialField, f CredentialField) bool {
	for _, item := range fields {
		if item == f {
			return true
		}
	}
	return false
}

func (c VPNConfig) Enabled() bool             { return c.enabled }
func (c VPNConfig) Provider() Provider        { return c.provider }
func (c VPNConfig) Protocol() Protocol        { return c.protocol }
func (c VPNConfig) ServerCountries() string   { return c.serverCountries }
func (c VPNConfig) RouteDownloadClient() bool { return c.enabled && c.routeDownloadClient }
func (c VPNConfig) OutboundSubnet() string    { return c.outboundSubnet }
func (c VPNConfig) IsCustom() bool            { return c.provider == ProviderCustom }

// Credential returns the value collected for field.
func (c VPNConfig) Credential(field CredentialField) string {
	return c.credentials[field]
}

// ProviderName is the provider's display name, or "Custom".
func (c VPNConfig) ProviderName() string {
	if info, ok := LookupProvider(c.provider); ok {
		return info.Name
	}
	return "Custom"
}

// EnvVar is one KEY=value entry.
type EnvVar struct {
	Key   string
	Value string
}

// EnvironmentVars returns the sidecar environment in a fixed order:
// provider, protocol, credentials in the provider's field order (empty
// values skipped), server countries, outbound subnet. Disabled and custom
// configurations contribute nothing.
func (c VPNConfig) EnvironmentVars() []EnvVar {
	if !c.enabled || c.provider == ProviderCustom {
		return nil
	}
	info, ok := LookupProvider(c.provider)
	if !ok {
		return nil
	}

	env := []EnvVar{
		{Key: "VPN_SERVICE_PROVIDER", Value: info.GluetunName},
		{Key: "VPN_TYPE", Value: string(c.protocol)},
	}
	for _, field := range info.Fields(c.protocol) {
		if v := c.credentials[field]; v != "" {
			env = append(env, EnvVar{Key: string(field), Value: v})
		}
	}
	if c.serverCountries != "" {
		env = append(env, EnvVar{Key: "SERVER_COUNTRIES", Value: c.serverCountries})
	}
	if c.outboundSubnet != "" {
		env = append(env, EnvVar{Key: "FIREWALL_OUTBOUND_SUBNETS", Value: c.outboundSubnet})
	}
	return env
}

// Package config loads mediastack.yml through viper.
package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/ThomasCrouzet/mediastack/internal/environment"
	"github.com/ThomasCrouzet/mediastack/internal/model"
	"github.com/ThomasCrouzet/mediastack/internal/util"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// FileName is the default config file name, without extension.
const FileName = "mediastack"

// EnvPrefix prefixes environment overrides, e.g. MEDIASTACK_HOST_IP.
const EnvPrefix = "MEDIASTACK"

type Config struct {
	Services    []string `mapstructure:"services" validate:"dive,required"`
	User        User     `mapstructure:"user"`
	Timezone    string   `mapstructure:"timezone"`
	HostIP      string   `mapstructure:"host_ip" validate:"omitempty,ip|hostname"`
	Subnet      string   `mapstructure:"subnet" validate:"omitempty,cidrv4"`
	DockerDir   string   `mapstructure:"docker_dir"`
	MediaDir    string   `mapstructure:"media_dir"`
	OutputDir   string   `mapstructure:"output_dir"`
	ProjectName string   `mapstructure:"project_name" validate:"omitempty,hostname_rfc1123"`
	Catalog     string   `mapstructure:"catalog"`
	VPN         VPN      `mapstructure:"vpn"`
	Diagram     Diagram  `mapstructure:"diagram"`
}

type User struct {
	Name string `mapstructure:"name"`
	UID  int    `mapstructure:"uid" validate:"min=0"`
	GID  int    `mapstructure:"gid" validate:"min=0"`
}

type VPN struct {
	Enabled             bool              `mapstructure:"enabled"`
	Provider            string            `mapstructure:"provider" validate:"required_if=Enabled true"`
	Protocol            string            `mapstructure:"protocol" validate:"omitempty,oneof=openvpn wireguard"`
	Credentials         map[string]string `mapstructure:"credentials"`
	ServerCountries     string            `mapstructure:"server_countries"`
	RouteDownloadClient bool              `mapstructure:"route_download_client"`
	OutboundSubnet      string            `mapstructure:"outbound_subnet" validate:"omitempty,cidrv4"`
}

type Diagram struct {
	Enabled     bool   `mapstructure:"enabled"`
	Output      string `mapstructure:"output"`
	Layout      string `mapstructure:"layout" validate:"oneof=dagre elk"`
	Direction   string `mapstructure:"direction" validate:"oneof=up down left right"`
	Theme       string `mapstructure:"theme"`
	DetailLevel string `mapstructure:"detail_level" validate:"oneof=minimal standard detailed"`
	Render      bool   `mapstructure:"render"`
	Format      string `mapstructure:"format" validate:"oneof=svg png"`
}

// Defaults returns a Config with every documented default set.
func Defaults() *Config {
	return &Config{
		DockerDir:   "~/docker",
		MediaDir:    "~/media",
		ProjectName: environment.DefaultProjectName,
		Diagram: Diagram{
			Output:      "mediastack.d2",
			Layout:      "dagre",
			Direction:   "right",
			Theme:       "default",
			DetailLevel: "standard",
			Format:      "svg",
		},
	}
}

// Load unmarshals the global viper state over Defaults and validates it.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom is Load for an explicit viper instance.
func LoadFrom(v *viper.Viper) (*Config, error) {
	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.DockerDir = util.ExpandPath(cfg.DockerDir)
	cfg.MediaDir = util.ExpandPath(cfg.MediaDir)
	cfg.OutputDir = util.ExpandPath(cfg.OutputDir)
	cfg.Catalog = util.ExpandPath(cfg.Catalog)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var envKeys = []string{
	"services", "timezone", "host_ip", "subnet", "docker_dir", "media_dir", "output_dir",
	"project_name", "catalog", "user.name", "user.uid", "user.gid",
	"vpn.enabled", "vpn.provider", "vpn.protocol", "vpn.server_countries",
	"vpn.route_download_client", "vpn.outbound_subnet",
}

// Init points v at the config file and enables MEDIASTACK_* overrides.
// A missing default file is not an error; a missing explicit one is.
func Init(v *viper.Viper, file string) error {
	if file != "" {
		v.SetConfigFile(util.ExpandPath(file))
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yml")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Unmarshal only sees env values for keys viper already knows.
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && file == "" {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// Error lists every invalid field of a config.
type Error struct {
	Fields []FieldError
}

// FieldError is one invalid config field, named by its dotted yaml path.
type FieldError struct {
	Field string
	Rule  string
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s (%s)", f.Field, f.Rule)
	}
	return "invalid config: " + strings.Join(parts, ", ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks field formats. Cross-field VPN rules are checked by
// VPNConfig.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	out := &Error{}
	for _, fe := range verrs {
		// Namespace is "Config.vpn.provider"; drop the root type name.
		ns := fe.Namespace()
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:]
		}
		out.Fields = append(out.Fields, FieldError{Field: ns, Rule: fe.Tag()})
	}
	return out
}

// VPNConfig converts the vpn section into a validated model.VPNConfig.
// Credential keys are matched case-insensitively since viper lowercases
// map keys.
func (c *Config) VPNConfig() (model.VPNConfig, error) {
	creds := make(map[model.CredentialField]string, len(c.VPN.Credentials))
	for k, v := range c.VPN.Credentials {
		creds[model.CredentialField(strings.ToUpper(k))] = v
	}
	// The sidecar firewall needs the shared network's range even when only
	// the top-level subnet is set.
	subnet := c.VPN.OutboundSubnet
	if subnet == "" {
		subnet = c.Subnet
	}
	if subnet == "" {
		subnet = model.DefaultSubnet
	}
	return model.NewVPNConfig(model.VPNOptions{
		Enabled:             c.VPN.Enabled,
		Provider:            model.Provider(strings.ToLower(c.VPN.Provider)),
		Protocol:            model.Protocol(strings.ToLower(c.VPN.Protocol)),
		Credentials:         creds,
		ServerCountries:     c.VPN.ServerCountries,
		RouteDownloadClient: c.VPN.RouteDownloadClient,
		OutboundSubnet:      subnet,
	})
}

// Facts overlays configured values onto detected host facts.
func (c *Config) Facts(detected environment.Facts) environment.Facts {
	f := detected
	if c.User.Name != "" {
		f.Username = c.User.Name
	}
	if c.User.UID != 0 {
		f.UID = c.User.UID
	}
	if c.User.GID != 0 {
		f.GID = c.User.GID
	}
	overlay := []struct {
		dst *string
		src string
	}{
		{&f.Timezone, c.Timezone},
		{&f.HostIP, c.HostIP},
		{&f.Subnet, c.Subnet},
		{&f.DockerDir, c.DockerDir},
		{&f.MediaDir, c.MediaDir},
		{&f.OutputDir, c.OutputDir},
		{&f.ProjectName, c.ProjectName},
	}
	for _, o := range overlay {
		if o.src != "" {
			*o.dst = o.src
		}
	}
	if f.OutputDir == "" {
		f.OutputDir = f.DockerDir
	}
	return f.WithDefaults()
}

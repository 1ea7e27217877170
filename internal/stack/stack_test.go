package stack

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ThomasCrouzet/mediastack/internal/catalog"
	"github.com/ThomasCrouzet/mediastack/internal/environment"
	"github.com/ThomasCrouzet/mediastack/internal/model"
	"github.com/ThomasCrouzet/mediastack/internal/validate"
	"github.com/compose-spec/compose-go/v2/cli"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func facts() environment.Facts {
	return environment.Facts{
		Username:  "media",
		UID:       1000,
		GID:       1000,
		Timezone:  "Europe/Paris",
		HostIP:    "192.168.1.100",
		DockerDir: "/opt/docker",
		MediaDir:  "/srv/media",
		OutputDir: "/opt/docker/compose",
	}
}

func defaultCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	return cat
}

func TestGenerateWithoutVPN(t *testing.T) {
	logger, _ := test.NewNullLogger()
	res, err := Generate(defaultCatalog(t), Request{
		Services: []string{"jellyfin", "radarr", "qbittorrent"},
		Facts:    facts(),
	}, logger)
	require.NoError(t, err)

	assert.Empty(t, res.Issues)
	assert.False(t, res.Plan.VPNActive)
	assert.Equal(t, []string{"jellyfin", "radarr", "qbittorrent", "watchtower"}, res.Manifest.ServiceNames())
	assert.True(t, strings.HasPrefix(string(res.Compose), "---\n"))
	assert.Contains(t, string(res.Guide), "# Media Server Setup Guide")
	assert.Empty(t, res.Env.EncryptionKey)
}

func TestGenerateRoutedVPN(t *testing.T) {
	vpn, err := model.NewVPNConfig(model.VPNOptions{
		Enabled:  true,
		Provider: "mullvad",
		Credentials: map[model.CredentialField]string{
			model.FieldWireGuardPrivateKey: "key",
			model.FieldWireGuardAddresses:  "10.64.0.2/32",
		},
		RouteDownloadClient: true,
	})
	require.NoError(t, err)

	res, err := Generate(defaultCatalog(t), Request{
		Services: []string{"qbittorrent", "gluetun", "sonarr"},
		VPN:      vpn,
		Facts:    facts(),
	}, nil)
	require.NoError(t, err)

	assert.Empty(t, res.Issues)
	assert.True(t, res.Plan.DownloadClientDelegates)
	assert.Equal(t, "gluetun", res.Manifest.ServiceNames()[0])

	qb, ok := res.Manifest.Service("qbittorrent")
	require.True(t, ok)
	assert.Equal(t, "service:gluetun", qb.NetworkMode)
	assert.Empty(t, qb.Ports)
	assert.Contains(t, string(res.Guide), "## VPN Configuration")
}

func TestGenerateSharedEncryptionKey(t *testing.T) {
	res, err := Generate(defaultCatalog(t), Request{
		Services: []string{"homarr", "jellyfin"},
		Facts:    facts(),
	}, nil)
	require.NoError(t, err)

	env, err := godotenv.Unmarshal(string(res.EnvFile))
	require.NoError(t, err)
	key := env[environment.KeyEncryptionKey]
	require.Len(t, key, environment.SecretLength)

	distinct := map[rune]bool{}
	for _, r := range key {
		distinct[r] = true
	}
	assert.GreaterOrEqual(t, len(distinct), 16)

	var doc struct {
		Services map[string]struct {
			Environment []string `yaml:"environment"`
		} `yaml:"services"`
	}
	require.NoError(t, yaml.Unmarshal(res.Compose, &doc))
	assert.Contains(t, doc.Services["homarr"].Environment, environment.KeyEncryptionKey+"="+key)
}

func TestGenerateRejectsUnknownService(t *testing.T) {
	logger, hook := test.NewNullLogger()
	res, err := Generate(defaultCatalog(t), Request{
		Services: []string{"jellyfin", "notaservice"},
		Facts:    facts(),
	}, logger)
	require.Error(t, err)
	assert.Nil(t, res)

	var cerr *catalog.ConsistencyError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "notaservice", cerr.ID)
	assert.Empty(t, hook.AllEntries())
}

func TestGenerateWarnsWhenSidecarMissing(t *testing.T) {
	logger, hook := test.NewNullLogger()
	vpn, err := model.NewVPNConfig(model.VPNOptions{Enabled: true, Provider: model.ProviderCustom})
	require.NoError(t, err)

	_, err = Generate(defaultCatalog(t), Request{
		Services: []string{"jellyfin"},
		VPN:      vpn,
		Facts:    facts(),
	}, logger)
	require.NoError(t, err)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "gluetun", hook.LastEntry().Data["sidecar"])
}

func TestResultWrite(t *testing.T) {
	res, err := Generate(defaultCatalog(t), Request{
		Services: []string{"homarr", "radarr"},
		Facts:    facts(),
	}, nil)
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "out")
	written, err := res.Write(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, ComposeFile),
		filepath.Join(dir, EnvFile),
		filepath.Join(dir, GuideFile),
	}, written)

	info, err := os.Stat(filepath.Join(dir, EnvFile))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(filepath.Join(dir, ComposeFile))
	require.NoError(t, err)
	assert.Equal(t, res.Compose, data)

	issues, err := validate.ValidateFile(context.Background(), filepath.Join(dir, ComposeFile), res.Selection)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestResultWriteTightensExistingEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, EnvFile), []byte("OLD=1\n"), 0o644))

	res, err := Generate(defaultCatalog(t), Request{Services: []string{"jellyfin"}, Facts: facts()}, nil)
	require.NoError(t, err)
	_, err = res.Write(dir)
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, EnvFile))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestGenerateKeepsDollarValuesLiteral(t *testing.T) {
	vpn, err := model.NewVPNConfig(model.VPNOptions{
		Enabled:  true,
		Provider: "nordvpn",
		Protocol: model.ProtocolOpenVPN,
		Credentials: map[model.CredentialField]string{
			model.FieldOpenVPNUser:     "user",
			model.FieldOpenVPNPassword: "pa$word${x}",
		},
		RouteDownloadClient: true,
	})
	require.NoError(t, err)

	f := facts()
	f.DockerDir = "/opt/do$cker"
	res, err := Generate(defaultCatalog(t), Request{
		Services: []string{"gluetun", "qbittorrent"},
		VPN:      vpn,
		Facts:    f,
	}, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Issues)

	dir := t.TempDir()
	_, err = res.Write(dir)
	require.NoError(t, err)
	assert.Empty(t, validate.EngineCheck(context.Background(), res.Compose))

	opts, err := cli.NewProjectOptions([]string{filepath.Join(dir, ComposeFile)}, cli.WithName("mediastack"))
	require.NoError(t, err)
	project, err := cli.ProjectFromOptions(context.Background(), opts)
	require.NoError(t, err)

	gluetun, ok := project.Services["gluetun"]
	require.True(t, ok)
	password := gluetun.Environment["OPENVPN_PASSWORD"]
	require.NotNil(t, password)
	assert.Equal(t, "pa$word${x}", *password)
	require.NotEmpty(t, gluetun.Volumes)
	assert.Equal(t, "/opt/do$cker/gluetun/config", gluetun.Volumes[0].Source)
}

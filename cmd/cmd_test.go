package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ThomasCrouzet/mediastack/internal/catalog"
	"github.com/ThomasCrouzet/mediastack/internal/config"
	"github.com/ThomasCrouzet/mediastack/internal/environment"
	"github.com/ThomasCrouzet/mediastack/internal/model"
	"github.com/ThomasCrouzet/mediastack/internal/stack"
	"github.com/ThomasCrouzet/mediastack/internal/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessURLs(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
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

	res, err := stack.Generate(cat, stack.Request{
		Services: []string{"gluetun", "radarr", "qbittorrent"},
		VPN:      vpn,
		Facts:    environment.Facts{HostIP: "192.168.1.50", DockerDir: "/opt/docker", MediaDir: "/srv/media"},
	}, nil)
	require.NoError(t, err)
	dir := t.TempDir()
	_, err = res.Write(dir)
	require.NoError(t, err)

	urls, err := accessURLs(dir, cat)
	require.NoError(t, err)
	assert.Equal(t, []ui.ServiceURL{
		{Name: "Gluetun", URL: "http://192.168.1.50:8888"},
		{Name: "Radarr", URL: "http://192.168.1.50:7878"},
		{Name: "qBittorrent", URL: "http://192.168.1.50:8080", Note: "(via gluetun)"},
	}, urls)
}

func TestAccessURLsDefaultsToLocalhost(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, stack.EnvFile), []byte("PUID=1000\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, stack.ComposeFile), []byte("services:\n  sonarr:\n    image: x\n  custom:\n    image: y\n"), 0644))

	urls, err := accessURLs(dir, cat)
	require.NoError(t, err)
	assert.Equal(t, []ui.ServiceURL{{Name: "Sonarr", URL: "http://localhost:8989"}}, urls)
}

func TestAccessURLsMissingEnvFile(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	_, err = accessURLs(t.TempDir(), cat)
	assert.Error(t, err)
}

func TestApplyFlagOverrides(t *testing.T) {
	t.Cleanup(func() {
		outputDir, serviceIDs, autoRender, themeName, detailLevel = "", nil, false, "", ""
	})
	outputDir = "/tmp/stack"
	serviceIDs = []string{"plex", "tautulli"}
	autoRender = true
	themeName = "dark"
	detailLevel = "detailed"

	cfg := config.Defaults()
	applyFlagOverrides(cfg)

	assert.Equal(t, "/tmp/stack", cfg.OutputDir)
	assert.Equal(t, []string{"plex", "tautulli"}, cfg.Services)
	assert.True(t, cfg.Diagram.Enabled)
	assert.True(t, cfg.Diagram.Render)
	assert.Equal(t, "dark", cfg.Diagram.Theme)
	assert.Equal(t, "detailed", cfg.Diagram.DetailLevel)
	assert.Equal(t, "svg", cfg.Diagram.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoadCatalog(t *testing.T) {
	cat, err := loadCatalog("")
	require.NoError(t, err)
	assert.Equal(t, catalog.EmbeddedPath, cat.Source())

	_, err = loadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	var loadErr *catalog.CatalogLoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestValidateTargetExplicitFile(t *testing.T) {
	t.Cleanup(func() { validateFile = "" })
	validateFile = "/srv/stack/docker-compose.yml"

	path, expected, err := validateTarget()
	require.NoError(t, err)
	assert.Equal(t, "/srv/stack/docker-compose.yml", path)
	assert.Nil(t, expected)
}

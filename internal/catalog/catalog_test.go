package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ThomasCrouzet/mediastack/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `
categories:
  media_servers: "Media Servers"
  download_clients: "Download Clients"
  utility: "Utility Services"

services:
  jellyfin:
    name: Jellyfin
    description: Free media server
    category: media_servers
    image: jellyfin/jellyfin:latest
    port: 8096
    volumes:
      /config: config
    media_volumes:
      /media: "."
    env: [PUID, PGID, TZ]
  qbittorrent:
    name: qBittorrent
    description: Torrent client
    category: download_clients
    image: lscr.io/linuxserver/qbittorrent:latest
    port: 8080
    extra_ports: [6881]
    volumes:
      /config: config
    media_volumes:
      /downloads: downloads
    env: [PUID, PGID, TZ]
  gluetun:
    name: Gluetun
    description: VPN client container
    category: utility
    image: qmcgaw/gluetun:latest
    port: 8888
    extra_ports:
      - 8388
      - "9999:9999/udp": Debug
    volumes:
      /gluetun: config
    env: [TZ]
`

func TestParseSample(t *testing.T) {
	cat, err := Parse("sample.yaml", []byte(sampleCatalog))
	require.NoError(t, err)

	assert.Equal(t, 3, cat.Len())
	assert.Equal(t, []string{"gluetun", "jellyfin", "qbittorrent"}, cat.IDs())
	assert.True(t, cat.Has("jellyfin"))
	assert.False(t, cat.Has("plex"))

	d, ok := cat.Get("qbittorrent")
	require.True(t, ok)
	assert.Equal(t, "qbittorrent", d.ID)
	assert.Equal(t, "qBittorrent", d.DisplayName)
	assert.Equal(t, model.CategoryDownloadClients, d.Category)
	assert.Equal(t, ExtraPorts{{Port: 6881}}, d.ExtraPorts)
	assert.Equal(t, PathMap{{ContainerPath: "/config", Source: "config"}}, d.ConfigVolumes)
}

func TestDescriptorPorts(t *testing.T) {
	cat, err := Parse("sample.yaml", []byte(sampleCatalog))
	require.NoError(t, err)

	d, _ := cat.Get("gluetun")
	var got []string
	for _, p := range d.Ports() {
		got = append(got, p.Mapping.ComposeString()+"#"+p.Comment)
	}
	assert.Equal(t, []string{
		"8888:8888#",
		"8388:8388#",
		"8388:8388/udp#",
		"9999:9999/udp#Debug",
	}, got)
}

func TestPathMapKeepsDocumentOrder(t *testing.T) {
	data := `
categories: {utility: Utility}
services:
  app:
    name: App
    description: d
    category: utility
    image: app:latest
    volumes:
      /zeta: z
      /alpha: a
      /mid: m
`
	cat, err := Parse("order.yaml", []byte(data))
	require.NoError(t, err)

	d, _ := cat.Get("app")
	var paths []string
	for _, e := range d.ConfigVolumes {
		paths = append(paths, e.ContainerPath)
	}
	assert.Equal(t, []string{"/zeta", "/alpha", "/mid"}, paths)
}

func TestByCategoryAndCategories(t *testing.T) {
	cat, err := Parse("sample.yaml", []byte(sampleCatalog))
	require.NoError(t, err)

	groups := cat.ByCategory()
	assert.Equal(t, []string{"jellyfin"}, groups[model.CategoryMediaServers])
	assert.Equal(t, []string{"qbittorrent"}, groups[model.CategoryDownloadClients])
	assert.Equal(t, []string{"gluetun"}, groups[model.CategoryUtility])

	cats := cat.Categories()
	require.Len(t, cats, 3)
	assert.Equal(t, model.CategoryMediaServers, cats[0].ID)
	assert.Equal(t, "Media Servers", cats[0].Name)
	assert.Equal(t, model.CategoryUtility, cats[2].ID)
	assert.Equal(t, "Utility Services", cat.CategoryName(model.CategoryUtility))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		service string
		field   string
	}{
		{
			name:  "empty",
			data:  "   \n",
			field: "",
		},
		{
			name:  "no services",
			data:  "categories: {utility: Utility}\n",
			field: "services",
		},
		{
			name: "missing name",
			data: `
categories: {utility: Utility}
services:
  app:
    description: d
    category: utility
    image: app:latest
`,
			service: "app",
			field:   "name",
		},
		{
			name: "missing image",
			data: `
categories: {utility: Utility}
services:
  app:
    name: App
    description: d
    category: utility
`,
			service: "app",
			field:   "image",
		},
		{
			name: "undeclared category",
			data: `
categories: {utility: Utility}
services:
  app:
    name: App
    description: d
    category: games
    image: app:latest
`,
			service: "app",
			field:   "category",
		},
		{
			name: "duplicate container path",
			data: `
categories: {utility: Utility}
services:
  app:
    name: App
    description: d
    category: utility
    image: app:latest
    volumes:
      /data: data
    extra_volumes:
      /data: /srv/data
`,
			service: "app",
			field:   "extra_volumes",
		},
		{
			name: "reserved id",
			data: `
categories: {utility: Utility}
services:
  watchtower:
    name: Watchtower
    description: d
    category: utility
    image: containrrr/watchtower
`,
			service: "watchtower",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("bad.yaml", []byte(tt.data))
			require.Error(t, err)

			var lerr *CatalogLoadError
			require.True(t, errors.As(err, &lerr), "got %T", err)
			assert.Equal(t, "bad.yaml", lerr.Path)
			assert.Equal(t, tt.service, lerr.Service)
			assert.Equal(t, tt.field, lerr.Field)
		})
	}
}

func TestParseRejectsMalformedExtraPorts(t *testing.T) {
	for _, port := range []string{`"abc"`, `70000`, `{"1:2/sctp": nope}`} {
		t.Run(port, func(t *testing.T) {
			data := `
categories: {utility: Utility}
services:
  app:
    name: App
    description: d
    category: utility
    image: app:latest
    extra_ports: [` + port + `]
`
			_, err := Parse("ports.yaml", []byte(data))
			var lerr *CatalogLoadError
			require.True(t, errors.As(err, &lerr))
			assert.Equal(t, "app", lerr.Service)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	_, err := Load(path)

	var lerr *CatalogLoadError
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, path, lerr.Path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "services.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o644))

	cat, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cat.Source())
	assert.Equal(t, 3, cat.Len())
}

func TestDefaultCatalog(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)

	again, err := Default()
	require.NoError(t, err)
	assert.Same(t, cat, again)

	for _, id := range []string{"gluetun", "qbittorrent", "jellyfin", "radarr", "sonarr", "homarr"} {
		assert.True(t, cat.Has(id), id)
	}

	homarr, _ := cat.Get("homarr")
	assert.True(t, homarr.NeedsEncryptionKey)

	gluetun, _ := cat.Get("gluetun")
	assert.Equal(t, "HTTP proxy", gluetun.PortComment)
	for _, ep := range gluetun.ExtraPorts {
		assert.True(t, ep.Annotated())
	}
}

func TestResolveSelection(t *testing.T) {
	cat, err := Parse("sample.yaml", []byte(sampleCatalog))
	require.NoError(t, err)

	sel, err := cat.ResolveSelection([]string{"qbittorrent", "jellyfin"})
	require.NoError(t, err)
	assert.Equal(t, model.Selection{"qbittorrent", "jellyfin"}, sel)

	tests := []struct {
		name string
		ids  []string
		id   string
	}{
		{"empty", nil, ""},
		{"unknown", []string{"jellyfin", "nonexistent"}, "nonexistent"},
		{"duplicate", []string{"jellyfin", "jellyfin"}, "jellyfin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cat.ResolveSelection(tt.ids)
			var cerr *ConsistencyError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.id, cerr.ID)
		})
	}
}

// Package guide renders SETUP_GUIDE.md for a generated stack.
package guide

import (
	"bytes"
	"embed"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/ThomasCrouzet/mediastack/internal/catalog"
	"github.com/ThomasCrouzet/mediastack/internal/environment"
	"github.com/ThomasCrouzet/mediastack/internal/model"
	"github.com/ThomasCrouzet/mediastack/internal/topology"
)

//go:embed templates/guide.md.tmpl
var templateFS embed.FS

var guideTemplate = template.Must(template.New("guide").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).ParseFS(templateFS, "templates/guide.md.tmpl"))

// setupPriority is the order services are best configured in.
var setupPriority = []string{
	"gluetun", "qbittorrent", "radarr", "sonarr", "lidarr", "mylar3",
	"prowlarr", "jackett", "bazarr", "audiobookshelf", "jellyfin", "plex",
	"emby", "seerr", "tautulli", "nzbget", "sabnzbd", "homarr", "flaresolverr",
}

var arrApps = []string{"radarr", "sonarr", "lidarr"}

// Input is everything the guide is rendered from.
type Input struct {
	Catalog   *catalog.Catalog
	Selection model.Selection
	Plan      topology.Plan
	VPN       model.VPNConfig
	Env       environment.Context
}

// SetupOrder sorts ids by setup priority. Unknown ids go last and ties keep
// selection order.
func SetupOrder(ids []string) []string {
	rank := func(id string) int {
		for i, p := range setupPriority {
			if p == id {
				return i
			}
		}
		return len(setupPriority)
	}
	out := make([]string, len(ids))
	copy(out, ids)
	sort.SliceStable(out, func(i, j int) bool { return rank(out[i]) < rank(out[j]) })
	return out
}

type serviceURL struct {
	Name string
	URL  string
	Note string
}

type section struct {
	Number      int
	Name        string
	Description string
	URL         string
	Port        string
	Steps       []string
	Notes       []string
	Warnings    []string
}

type vpnData struct {
	Custom    bool
	Provider  string
	Protocol  string
	Countries string
	Subnet    string
	Routed    bool
	Sidecar   string
	Client    string
}

type troubleshootingData struct {
	DownloadClient bool
	Arr            bool
	VPN            bool
	Routed         bool
	Sidecar        string
	Client         string
	ClientHost     string
}

type headerData struct {
	GeneratedAt string
	Username    string
	UID         int
	GID         int
	Timezone    string
	HostIP      string
	DockerDir   string
	MediaDir    string
	OutputDir   string
	URLs        []serviceURL
}

type footerData struct {
	DockerDir  string
	MediaDir   string
	ConfigDirs []string
	MediaDirs  []string
}

// Generate renders the guide. Output only depends on in.
func Generate(in Input) ([]byte, error) {
	facts := in.Env.Facts
	ph := environment.NewPlaceholders(in.Env, in.Plan.DownloadClientHost())

	var buf bytes.Buffer
	render := func(name string, data any) error {
		if err := guideTemplate.ExecuteTemplate(&buf, name, data); err != nil {
			return fmt.Errorf("rendering guide %s: %w", name, err)
		}
		return nil
	}

	header := headerData{
		Username:  facts.Username,
		UID:       facts.UID,
		GID:       facts.GID,
		Timezone:  facts.Timezone,
		HostIP:    facts.HostIP,
		DockerDir: facts.DockerDir,
		MediaDir:  facts.MediaDir,
		OutputDir: facts.OutputDir,
		URLs:      accessURLs(in, ph),
	}
	if !facts.GeneratedAt.IsZero() {
		header.GeneratedAt = facts.GeneratedAt.UTC().Format(time.RFC1123)
	}
	if err := render("header", header); err != nil {
		return nil, err
	}

	buf.WriteString("\n## Service Configuration\n\nConfigure each service in the order shown below for best results.\n\n")
	for i, id := range SetupOrder(in.Selection) {
		d, ok := in.Catalog.Get(id)
		if !ok {
			continue
		}
		if err := render("section", buildSection(i+1, d, in.Plan, ph)); err != nil {
			return nil, err
		}
		buf.WriteString("\n")
	}

	if in.Plan.VPNActive {
		if err := render("vpn", buildVPN(in)); err != nil {
			return nil, err
		}
		buf.WriteString("\n")
	}

	if err := render("troubleshooting", troubleshootingData{
		DownloadClient: in.Selection.Contains(in.Plan.DownloadClientID),
		Arr:            containsAny(in.Selection, arrApps),
		VPN:            in.Selection.Contains(model.VPNSidecarID),
		Routed:         in.Plan.DownloadClientDelegates,
		Sidecar:        model.VPNSidecarID,
		Client:         in.Plan.DownloadClientID,
		ClientHost:     in.Plan.DownloadClientHost(),
	}); err != nil {
		return nil, err
	}
	buf.WriteString("\n")

	if err := render("footer", buildFooter(in)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildSection(n int, d catalog.Descriptor, plan topology.Plan, ph environment.Placeholders) section {
	s := section{
		Number:      n,
		Name:        d.DisplayName,
		Description: d.Description,
		URL:         serviceURLFor(d, ph),
		Port:        portInfo(d, plan),
	}
	for _, step := range d.SetupSteps {
		s.Steps = append(s.Steps, ph.Substitute(step))
	}
	for _, note := range d.ConfigNotes {
		s.Notes = append(s.Notes, ph.Substitute(note))
	}
	for _, w := range d.Warnings {
		s.Warnings = append(s.Warnings, ph.Substitute(w))
	}
	return s
}

func portInfo(d catalog.Descriptor, plan topology.Plan) string {
	if !d.HasPrimaryPort() {
		return "none"
	}
	port := strconv.Itoa(d.PrimaryPort)
	if plan.Delegated(d.ID) {
		return fmt.Sprintf("%s (via %s)", port, plan.VPNServiceID)
	}
	return port
}

func serviceURLFor(d catalog.Descriptor, ph environment.Placeholders) string {
	if d.SetupURL != "" {
		return ph.Substitute(d.SetupURL)
	}
	if !d.HasPrimaryPort() {
		return ""
	}
	return fmt.Sprintf("http://%s:%d", ph.Value(environment.PlaceholderHostIP), d.PrimaryPort)
}

func accessURLs(in Input, ph environment.Placeholders) []serviceURL {
	var out []serviceURL
	for _, id := range in.Selection {
		d, ok := in.Catalog.Get(id)
		if !ok {
			continue
		}
		u := serviceURL{Name: d.DisplayName, URL: serviceURLFor(d, ph)}
		if in.Plan.Delegated(id) {
			u.Note = "via " + in.Plan.VPNServiceID
		}
		out = append(out, u)
	}
	return append(out, serviceURL{Name: "Watchtower", Note: "updates containers daily at 05:00"})
}

func buildVPN(in Input) vpnData {
	v := vpnData{
		Custom:    in.VPN.IsCustom(),
		Provider:  in.VPN.ProviderName(),
		Protocol:  strings.ToUpper(string(in.VPN.Protocol())),
		Countries: in.VPN.ServerCountries(),
		Subnet:    in.VPN.OutboundSubnet(),
		Routed:    in.Plan.DownloadClientDelegates,
		Sidecar:   in.Plan.VPNServiceID,
		Client:    in.Plan.DownloadClientID,
	}
	return v
}

func buildFooter(in Input) footerData {
	f := footerData{DockerDir: in.Env.Facts.DockerDir, MediaDir: in.Env.Facts.MediaDir}
	media := map[string]bool{}
	for _, id := range in.Selection {
		d, ok := in.Catalog.Get(id)
		if !ok {
			continue
		}
		if len(d.ConfigVolumes) > 0 {
			f.ConfigDirs = append(f.ConfigDirs, id)
		}
		for _, v := range d.MediaVolumes {
			if v.Source != "." && v.Source != "" {
				media[v.Source] = true
			}
		}
	}
	sort.Strings(f.ConfigDirs)
	for dir := range media {
		f.MediaDirs = append(f.MediaDirs, dir)
	}
	sort.Strings(f.MediaDirs)
	return f
}

func containsAny(sel model.Selection, ids []string) bool {
	for _, id := range ids {
		if sel.Contains(id) {
			return true
		}
	}
	return false
}

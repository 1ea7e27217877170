package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ThomasCrouzet/mediastack/internal/catalog"
	"github.com/ThomasCrouzet/mediastack/internal/manifest"
	"github.com/ThomasCrouzet/mediastack/internal/model"
	"github.com/ThomasCrouzet/mediastack/internal/topology"
	"github.com/ThomasCrouzet/mediastack/internal/util"
)

// Detail levels.
const (
	DetailMinimal  = "minimal"
	DetailStandard = "standard"
	DetailDetailed = "detailed"
)

const (
	hostID     = "host"
	internetID = "internet"
	tunnelID   = "vpn-provider"
)

// Options controls diagram layout and density.
type Options struct {
	Direction   string
	DetailLevel string
	Theme       string
}

// Input is the generated stack a diagram is drawn from.
type Input struct {
	Manifest *manifest.Manifest
	Catalog  *catalog.Catalog
	Plan     topology.Plan
	VPN      model.VPNConfig
	HostIP   string
}

// integration is a link the setup guide asks the user to configure.
type integration struct {
	from, to []string
	label    string
}

var integrations = []integration{
	{[]string{"prowlarr", "jackett"}, []string{"radarr", "sonarr", "lidarr", "mylar3"}, "indexers"},
	{[]string{"prowlarr"}, []string{"flaresolverr"}, "captcha"},
	{[]string{"radarr", "sonarr", "lidarr", "mylar3"}, []string{"qbittorrent", "sabnzbd", "nzbget"}, "downloads"},
	{[]string{"bazarr"}, []string{"radarr", "sonarr"}, "subtitles"},
	{[]string{"seerr"}, []string{"radarr", "sonarr"}, "requests"},
	{[]string{"tautulli"}, []string{"plex"}, "stats"},
}

// D2Renderer generates D2 diagram text.
type D2Renderer struct {
	Options Options
	theme   *Theme
	paths   map[string]string
}

func (r *D2Renderer) detail() string {
	if r.Options.DetailLevel == "" {
		return DetailStandard
	}
	return r.Options.DetailLevel
}

func (r *D2Renderer) Render(in Input) string {
	r.theme = GetTheme(r.Options.Theme)
	r.paths = Paths(in)
	var b strings.Builder

	direction := r.Options.Direction
	if direction == "" {
		direction = "right"
	}
	fmt.Fprintf(&b, "direction: %s\n\n", direction)

	hostLabel := "Docker host"
	if in.HostIP != "" {
		hostLabel = fmt.Sprintf("Docker host - %s", in.HostIP)
	}
	fmt.Fprintf(&b, "%s: %s {\n", hostID, util.Quote(hostLabel))
	if r.detail() != DetailMinimal {
		fmt.Fprintf(&b, "  icon: %s\n", iconRegistry["docker"])
	}

	for _, n := range in.Manifest.Networks {
		r.renderNetwork(&b, in, n)
	}

	if wt, ok := in.Manifest.Service(model.MaintenanceID); ok {
		color := r.theme.ColorForElement("maintenance")
		fmt.Fprintf(&b, "  %s: %s {\n", util.SanitizeID(wt.Name), util.Quote("Watchtower"))
		fmt.Fprintf(&b, "    style.fill: %q\n", color.Fill)
		fmt.Fprintf(&b, "    style.stroke: %q\n", color.Stroke)
		if r.detail() != DetailMinimal {
			fmt.Fprintf(&b, "    icon: %s\n", LookupIcon(wt.Name, wt.Image))
		}
		b.WriteString("  }\n")
	}
	b.WriteString("}\n\n")

	r.renderExternal(&b, in)
	for _, c := range Connections(in, r.detail()) {
		r.renderConnection(&b, c)
	}
	return b.String()
}

func (r *D2Renderer) renderNetwork(b *strings.Builder, in Input, n model.Network) {
	color := r.theme.ColorForElement("network")
	label := n.Name
	if n.Driver != "" && r.detail() != DetailMinimal {
		label = fmt.Sprintf("%s (%s)", n.Name, n.Driver)
	}
	fmt.Fprintf(b, "  %s: %s {\n", util.SanitizeID(n.Name), util.Quote(label))
	fmt.Fprintf(b, "    style.fill: %q\n", color.Fill)
	fmt.Fprintf(b, "    style.stroke: %q\n", color.Stroke)
	b.WriteString("    style.stroke-dash: 3\n")

	groups := map[model.Category][]*manifest.ServiceBlock{}
	for i := range in.Manifest.Services {
		svc := &in.Manifest.Services[i]
		if svc.Name == model.MaintenanceID || in.Plan.Delegated(svc.Name) {
			continue
		}
		if !attachedTo(svc, n.Name) {
			continue
		}
		cat := categoryOf(in.Catalog, svc.Name)
		groups[cat] = append(groups[cat], svc)
	}

	for _, cat := range sortedCategories(groups) {
		color := r.theme.ColorForCategory(cat)
		fmt.Fprintf(b, "\n    %s: %s {\n", util.SanitizeID(string(cat)), util.Quote(categoryName(in.Catalog, cat)))
		fmt.Fprintf(b, "      style.fill: %q\n", color.Fill)
		fmt.Fprintf(b, "      style.stroke: %q\n", color.Stroke)
		for _, svc := range groups[cat] {
			r.renderService(b, in, svc, "      ")
		}
		b.WriteString("    }\n")
	}
	b.WriteString("  }\n")
}

func (r *D2Renderer) renderService(b *strings.Builder, in Input, svc *manifest.ServiceBlock, indent string) {
	fmt.Fprintf(b, "%s%s: %s", indent, util.SanitizeID(svc.Name), util.Quote(r.serviceLabel(in, svc)))

	props := r.serviceProperties(svc)
	var delegates []*manifest.ServiceBlock
	if svc.Name == in.Plan.VPNServiceID && in.Plan.DownloadClientDelegates {
		if client, ok := in.Manifest.Service(in.Plan.DownloadClientID); ok {
			delegates = append(delegates, client)
		}
	}

	if len(props) == 0 && len(delegates) == 0 {
		b.WriteString("\n")
		return
	}
	b.WriteString(" {\n")
	for _, prop := range props {
		fmt.Fprintf(b, "%s  %s\n", indent, prop)
	}
	for _, d := range delegates {
		r.renderService(b, in, d, indent+"  ")
	}
	fmt.Fprintf(b, "%s}\n", indent)
}

// serviceLabel builds a human-readable label for a service.
func (r *D2Renderer) serviceLabel(in Input, svc *manifest.ServiceBlock) string {
	name := svc.Name
	if d, ok := in.Catalog.Get(svc.Name); ok {
		name = d.DisplayName
	}
	if r.detail() == DetailMinimal {
		return name
	}

	var ports []string
	for _, p := range svc.Ports {
		if p.Mapping.HostPort > 0 {
			ports = append(ports, ":"+p.Mapping.String())
		}
		if r.detail() != DetailDetailed {
			break
		}
	}
	if len(ports) == 0 && in.Plan.Delegated(svc.Name) {
		return fmt.Sprintf("%s (via %s)", name, in.Plan.VPNServiceID)
	}
	if len(ports) == 0 {
		return name
	}
	return fmt.Sprintf("%s %s", name, strings.Join(ports, " "))
}

func (r *D2Renderer) serviceProperties(svc *manifest.ServiceBlock) []string {
	var props []string
	if r.detail() != DetailMinimal {
		if icon := LookupIcon(svc.Name, svc.Image); icon != "" {
			props = append(props, fmt.Sprintf("icon: %s", icon))
		}
	}
	if r.detail() == DetailDetailed {
		if svc.NetworkMode != "" {
			props = append(props, fmt.Sprintf("tooltip: %q", "network_mode: "+svc.NetworkMode))
		} else if svc.Image != "" {
			props = append(props, fmt.Sprintf("tooltip: %q", svc.Image))
		}
	}
	return props
}

func (r *D2Renderer) renderExternal(b *strings.Builder, in Input) {
	cloud := r.theme.ColorForElement("cloud")
	fmt.Fprintf(b, "%s: \"Internet\" {\n  shape: cloud\n  style.fill: %q\n  style.stroke: %q\n}\n", internetID, cloud.Fill, cloud.Stroke)

	if in.Plan.VPNActive {
		vpn := r.theme.ColorForElement("vpn")
		fmt.Fprintf(b, "%s: %s {\n  shape: cloud\n  style.fill: %q\n  style.stroke: %q\n}\n",
			tunnelID, util.Quote(in.VPN.ProviderName()+" VPN"), vpn.Fill, vpn.Stroke)
	}
	b.WriteString("\n")
}

func (r *D2Renderer) renderConnection(b *strings.Builder, c model.Connection) {
	from, to := r.path(c.From), r.path(c.To)
	var props []string
	if c.Style == "dashed" {
		props = append(props, "style.stroke-dash: 3")
	}
	label := ""
	if c.Label != "" {
		label = ": " + util.Quote(c.Label)
	}
	if len(props) > 0 {
		fmt.Fprintf(b, "%s -> %s%s { %s }\n", from, to, label, strings.Join(props, "; "))
		return
	}
	fmt.Fprintf(b, "%s -> %s%s\n", from, to, label)
}

func (r *D2Renderer) path(id string) string {
	if p, ok := r.paths[id]; ok {
		return p
	}
	return util.SanitizeID(id)
}

// Paths maps every diagram node id to its fully qualified D2 path.
func Paths(in Input) map[string]string {
	paths := map[string]string{
		internetID: internetID,
		tunnelID:   tunnelID,
		hostID:     hostID,
	}
	network := ""
	if len(in.Manifest.Networks) > 0 {
		network = util.SanitizeID(in.Manifest.Networks[0].Name)
		paths[in.Manifest.Networks[0].Name] = hostID + "." + network
	}
	for _, svc := range in.Manifest.Services {
		id := util.SanitizeID(svc.Name)
		switch {
		case svc.Name == model.MaintenanceID || network == "":
			paths[svc.Name] = hostID + "." + id
		case in.Plan.Delegated(svc.Name):
			continue
		default:
			cat := util.SanitizeID(string(categoryOf(in.Catalog, svc.Name)))
			paths[svc.Name] = strings.Join([]string{hostID, network, cat, id}, ".")
		}
	}
	if in.Plan.DownloadClientDelegates {
		if parent, ok := paths[in.Plan.VPNServiceID]; ok {
			paths[in.Plan.DownloadClientID] = parent + "." + util.SanitizeID(in.Plan.DownloadClientID)
		}
	}
	return paths
}

// Connections lists the edges drawn for a stack at a detail level.
func Connections(in Input, detail string) []model.Connection {
	var conns []model.Connection
	present := func(id string) bool {
		_, ok := in.Manifest.Service(id)
		return ok
	}

	if in.Plan.VPNActive {
		proto := strings.ToUpper(string(in.VPN.Protocol()))
		label := "tunnel"
		if proto != "" {
			label = proto + " tunnel"
		}
		conns = append(conns,
			model.Connection{From: in.Plan.VPNServiceID, To: tunnelID, Label: label},
			model.Connection{From: tunnelID, To: internetID},
		)
	}
	if detail == DetailMinimal {
		return conns
	}

	if present(model.MaintenanceID) && len(in.Manifest.Networks) > 0 {
		conns = append(conns, model.Connection{
			From: model.MaintenanceID, To: in.Manifest.Networks[0].Name, Label: "updates", Style: "dashed",
		})
	}

	for _, ig := range integrations {
		for _, from := range ig.from {
			if !present(from) {
				continue
			}
			for _, to := range ig.to {
				if present(to) {
					conns = append(conns, model.Connection{From: from, To: to, Label: ig.label})
				}
			}
		}
	}

	if detail == DetailDetailed {
		for _, svc := range in.Manifest.Services {
			for _, dep := range svc.DependsOn {
				conns = append(conns, model.Connection{From: svc.Name, To: dep, Label: "depends_on", Style: "dashed"})
			}
		}
	}
	return conns
}

func attachedTo(svc *manifest.ServiceBlock, network string) bool {
	for _, n := range svc.Networks {
		if n == network {
			return true
		}
	}
	return false
}

func categoryOf(cat *catalog.Catalog, id string) model.Category {
	if d, ok := cat.Get(id); ok {
		return d.Category
	}
	return model.CategoryUtility
}

func categoryName(cat *catalog.Catalog, c model.Category) string {
	if name := cat.CategoryName(c); name != "" {
		return name
	}
	return c.Title()
}

func sortedCategories(groups map[model.Category][]*manifest.ServiceBlock) []model.Category {
	out := make([]model.Category, 0, len(groups))
	for c := range groups {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

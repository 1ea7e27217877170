package wizard

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ThomasCrouzet/mediastack/internal/catalog"
	"github.com/ThomasCrouzet/mediastack/internal/environment"
	"github.com/ThomasCrouzet/mediastack/internal/model"
	"github.com/charmbracelet/huh"
)

// ExclusiveGroup is a set of services the user picks at most one of.
type ExclusiveGroup struct {
	Name    string
	Options []string
}

var exclusiveGroups = []ExclusiveGroup{
	{Name: "Media Server", Options: []string{"jellyfin", "plex", "emby"}},
	{Name: "Indexer Manager", Options: []string{"prowlarr", "jackett"}},
	{Name: "Download Client (Usenet)", Options: []string{"sabnzbd", "nzbget"}},
}

var defaultServices = []string{"sonarr", "radarr", "qbittorrent", "seerr"}

const none = ""

// ServiceChoices describes the selection step for a catalog.
type ServiceChoices struct {
	Exclusive []ExclusiveGroup
	// ByCategory lists the remaining services per category, in display order.
	ByCategory []CategoryChoice
}

// CategoryChoice is one multi-select of the selection step.
type CategoryChoice struct {
	Category catalog.CategoryInfo
	Services []string
}

// Choices splits cat into exclusive picks and per-category multi-selects.
// The VPN sidecar is never offered directly; it comes with the VPN step.
func Choices(cat *catalog.Catalog) ServiceChoices {
	var out ServiceChoices
	handled := map[string]bool{model.VPNSidecarID: true}

	for _, g := range exclusiveGroups {
		var available []string
		for _, id := range g.Options {
			handled[id] = true
			if cat.Has(id) {
				available = append(available, id)
			}
		}
		if len(available) > 0 {
			out.Exclusive = append(out.Exclusive, ExclusiveGroup{Name: g.Name, Options: available})
		}
	}

	byCategory := cat.ByCategory()
	for _, info := range cat.Categories() {
		var ids []string
		for _, id := range byCategory[info.ID] {
			if !handled[id] {
				ids = append(ids, id)
			}
		}
		if len(ids) > 0 {
			out.ByCategory = append(out.ByCategory, CategoryChoice{Category: info, Services: ids})
		}
	}
	return out
}

// AssembleSelection orders the picks the way they are generated: exclusive
// picks, then category picks, with the VPN sidecar first when enabled.
func AssembleSelection(exclusive []string, picked []string, vpnEnabled bool) model.Selection {
	var sel model.Selection
	for _, id := range append(append([]string(nil), exclusive...), picked...) {
		if id == none || sel.Contains(id) {
			continue
		}
		sel = append(sel, id)
	}
	if vpnEnabled {
		sel = sel.WithFirst(model.VPNSidecarID)
	}
	return sel
}

// Run executes the interactive wizard and returns the user's answers.
func Run(cat *catalog.Catalog, detection DetectionResult, d Detector) (*WizardAnswers, error) {
	if d == nil {
		d = OSDetector{}
	}
	answers := &WizardAnswers{
		Username:  detection.Username,
		UID:       detection.UID,
		GID:       detection.GID,
		Timezone:  detection.Timezone,
		HostIP:    detection.HostIP(),
		Subnet:    detection.Subnet,
		Direction: "right",
	}
	home := ""
	if u, err := d.LookupUser(detection.Username); err == nil {
		home = u.HomeDir
	}
	answers.DockerDir, answers.MediaDir = DefaultDirs(home)

	if err := runHostForm(answers, detection, d); err != nil {
		return nil, err
	}
	answers.OutputDir = filepath.Join(answers.DockerDir, "compose")

	exclusive, picked, err := runServiceForm(cat)
	if err != nil {
		return nil, err
	}
	answers.Services = AssembleSelection(exclusive, picked, false)
	if len(answers.Services) == 0 {
		return nil, errors.New("no services selected")
	}

	if model.Selection(answers.Services).Contains(model.DownloadClientID) {
		if err := runVPNForm(&answers.VPN); err != nil {
			return nil, err
		}
	}
	answers.Services = AssembleSelection(exclusive, picked, answers.VPN.Enabled)

	if err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title("Also write a D2 diagram of the stack?").
			Value(&answers.Diagram),
	)).Run(); err != nil {
		return nil, err
	}

	return answers, nil
}

func runHostForm(answers *WizardAnswers, detection DetectionResult, d Detector) error {
	remote := detection.Remote
	accessDesc := "Service URLs use localhost for a local session."
	if detection.NetworkIP != "" {
		accessDesc = fmt.Sprintf("Detected network address: %s", detection.NetworkIP)
	}

	if err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title("Are you accessing this machine remotely (SSH, VNC)?").
			Description(accessDesc).
			Value(&remote),
	)).Run(); err != nil {
		return err
	}
	if remote {
		answers.HostIP = detection.NetworkIP
	} else {
		answers.HostIP = environment.DefaultHostIP
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("This machine's address for service URLs").
				Value(&answers.HostIP).
				Validate(notEmpty("address")),
			huh.NewInput().
				Title("User that owns the containers' files").
				Value(&answers.Username).
				Validate(func(name string) error {
					uid, gid, err := LookupIDs(d, name)
					if err != nil {
						return fmt.Errorf("user %q not found", name)
					}
					answers.UID, answers.GID = uid, gid
					return nil
				}),
			huh.NewInput().
				Title("Timezone").
				Value(&answers.Timezone),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Docker configuration directory").
				Description("Container configs live here. This is NOT where media goes.").
				Value(&answers.DockerDir).
				Validate(notEmpty("directory")),
			huh.NewInput().
				Title("Media storage directory").
				Value(&answers.MediaDir).
				Validate(notEmpty("directory")),
			huh.NewInput().
				Title("Container network subnet").
				Description("Used for the VPN's outbound firewall rule.").
				Value(&answers.Subnet).
				Validate(func(s string) error {
					if !environment.ValidateSubnet(s) {
						return fmt.Errorf("%q is not an IPv4 CIDR", s)
					}
					return nil
				}),
		),
	).Run()
}

func runServiceForm(cat *catalog.Catalog) ([]string, []string, error) {
	choices := Choices(cat)
	exclusive := make([]string, len(choices.Exclusive))
	var groups []*huh.Group

	for i, g := range choices.Exclusive {
		opts := make([]huh.Option[string], 0, len(g.Options)+1)
		for _, id := range g.Options {
			opts = append(opts, huh.NewOption(optionLabel(cat, id), id))
		}
		opts = append(opts, huh.NewOption("None", none))
		exclusive[i] = g.Options[0]
		groups = append(groups, huh.NewGroup(
			huh.NewSelect[string]().
				Title(g.Name).
				Options(opts...).
				Value(&exclusive[i]),
		))
	}

	picks := make([][]string, len(choices.ByCategory))
	for i, c := range choices.ByCategory {
		opts := make([]huh.Option[string], 0, len(c.Services))
		for _, id := range c.Services {
			opts = append(opts, huh.NewOption(optionLabel(cat, id), id).
				Selected(contains(defaultServices, id)))
		}
		groups = append(groups, huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title(c.Category.Name).
				Options(opts...).
				Value(&picks[i]),
		))
	}

	if err := huh.NewForm(groups...).Run(); err != nil {
		return nil, nil, err
	}

	var picked []string
	for _, p := range picks {
		picked = append(picked, p...)
	}
	return exclusive, picked, nil
}

func runVPNForm(vpn *VPNAnswers) error {
	if err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title("Route downloads through a VPN (Gluetun)?").
			Description("Optional but recommended for torrent downloads.").
			Value(&vpn.Enabled),
	)).Run(); err != nil || !vpn.Enabled {
		return err
	}

	providerOpts := []huh.Option[string]{}
	for _, p := range model.Providers() {
		info, _ := model.LookupProvider(p)
		providerOpts = append(providerOpts, huh.NewOption(info.Name, string(p)))
	}
	providerOpts = append(providerOpts, huh.NewOption("Custom (configure later)", string(model.ProviderCustom)))

	if err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("VPN provider").
			Options(providerOpts...).
			Value(&vpn.Provider),
	)).Run(); err != nil {
		return err
	}

	vpn.RouteDownloadClient = true
	info, known := model.LookupProvider(model.Provider(vpn.Provider))
	if !known {
		return huh.NewForm(huh.NewGroup(routeConfirm(vpn))).Run()
	}

	vpn.Protocol = string(info.DefaultProtocol())
	if info.Supports(model.ProtocolOpenVPN) && info.Supports(model.ProtocolWireGuard) {
		if err := huh.NewForm(huh.NewGroup(
			huh.NewSelect[string]().
				Title("VPN protocol").
				Options(
					huh.NewOption("WireGuard (faster, recommended)", string(model.ProtocolWireGuard)),
					huh.NewOption("OpenVPN", string(model.ProtocolOpenVPN)),
				).
				Value(&vpn.Protocol),
		)).Run(); err != nil {
			return err
		}
	}

	fields := info.Fields(model.Protocol(vpn.Protocol))
	values := make([]string, len(fields))
	credDesc := info.CredentialsNote
	if info.CredentialsURL != "" {
		credDesc = strings.TrimSpace(credDesc + "\n" + info.CredentialsURL)
	}
	var inputs []huh.Field
	for i, f := range fields {
		in := huh.NewInput().Title(f.Label()).Value(&values[i])
		if i == 0 {
			in = in.Description(credDesc)
		}
		if f.Sensitive() {
			in = in.EchoMode(huh.EchoModePassword)
		}
		if !f.Optional() {
			in = in.Validate(notEmpty(f.Label()))
		}
		inputs = append(inputs, in)
	}
	inputs = append(inputs,
		huh.NewInput().
			Title("Server countries (optional)").
			Description("Comma-separated, e.g. Netherlands,Germany").
			Value(&vpn.ServerCountries),
		routeConfirm(vpn),
	)

	if err := huh.NewForm(huh.NewGroup(inputs...)).Run(); err != nil {
		return err
	}

	vpn.Credentials = map[string]string{}
	for i, f := range fields {
		if v := strings.TrimSpace(values[i]); v != "" {
			vpn.Credentials[string(f)] = v
		}
	}
	vpn.ServerCountries = strings.TrimSpace(vpn.ServerCountries)
	return nil
}

func routeConfirm(vpn *VPNAnswers) *huh.Confirm {
	return huh.NewConfirm().
		Title("Route qBittorrent through the VPN?").
		Description("Its web UI is then reached through Gluetun's ports.").
		Value(&vpn.RouteDownloadClient)
}

func optionLabel(cat *catalog.Catalog, id string) string {
	d, ok := cat.Get(id)
	if !ok {
		return id
	}
	if d.HasPrimaryPort() {
		return fmt.Sprintf("%s (port %d) - %s", d.DisplayName, d.PrimaryPort, d.Description)
	}
	return fmt.Sprintf("%s - %s", d.DisplayName, d.Description)
}

func notEmpty(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", what)
		}
		return nil
	}
}

func contains(s []string, v string) bool {
	for _, item := range s {
		if item == v {
			return true
		}
	}
	return false
}

// Package manifest builds the compose manifest for a stack as a typed tree
// and serializes it.
package manifest

import (
	"path"
	"strings"

	"github.com/ThomasCrouzet/mediastack/internal/catalog"
	"github.com/ThomasCrouzet/mediastack/internal/environment"
	"github.com/ThomasCrouzet/mediastack/internal/model"
	"github.com/ThomasCrouzet/mediastack/internal/topology"
)

// RestartPolicy is applied to every service.
const RestartPolicy = "unless-stopped"

// Maintenance service settings.
const (
	WatchtowerImage    = "containrrr/watchtower:latest"
	WatchtowerSchedule = "0 0 5 * * *"
	DockerSocket       = "/var/run/docker.sock"
)

// Manifest is an ordered compose document.
type Manifest struct {
	Services []ServiceBlock
	Networks []model.Network
}

// ServiceBlock is one entry under services.
type ServiceBlock struct {
	Name          string
	Image         string
	ContainerName string
	Restart       string
	CapAdd        []string
	Devices       []string
	NetworkMode   string
	DependsOn     []string
	Environment   []EnvEntry
	Volumes       []Mount
	Ports         []model.PortBinding
	Networks      []string
}

// EnvEntry is one environment list item. Entries without a value are
// passed through so the runtime can supply them.
type EnvEntry struct {
	Name     string
	Value    string
	HasValue bool
}

func (e EnvEntry) String() string {
	if !e.HasValue {
		return e.Name
	}
	return e.Name + "=" + e.Value
}

// Mount is a bind mount.
type Mount struct {
	Source string
	Target string
}

func (m Mount) String() string {
	return m.Source + ":" + m.Target
}

// Service returns the block named name.
func (m *Manifest) Service(name string) (*ServiceBlock, bool) {
	for i := range m.Services {
		if m.Services[i].Name == name {
			return &m.Services[i], true
		}
	}
	return nil, false
}

// ServiceNames lists service names in document order.
func (m *Manifest) ServiceNames() []string {
	out := make([]string, len(m.Services))
	for i, s := range m.Services {
		out[i] = s.Name
	}
	return out
}

// Generate builds and serializes the manifest. It performs no I/O.
func Generate(cat *catalog.Catalog, selection model.Selection, plan topology.Plan, env environment.Context) ([]byte, error) {
	m, err := Build(cat, selection, plan, env)
	if err != nil {
		return nil, err
	}
	return Marshal(m)
}

// Build assembles the manifest: the VPN sidecar first when active, then the
// rest of the selection in order, then the update service and the shared
// network.
func Build(cat *catalog.Catalog, selection model.Selection, plan topology.Plan, env environment.Context) (*Manifest, error) {
	b := &builder{cat: cat, plan: plan, env: env}
	m := &Manifest{}

	if plan.VPNActive {
		if !selection.Contains(plan.VPNServiceID) {
			return nil, &catalog.ConsistencyError{ID: plan.VPNServiceID, Reason: "active VPN sidecar is not selected"}
		}
		sidecar, err := b.sidecarBlock()
		if err != nil {
			return nil, err
		}
		m.Services = append(m.Services, sidecar)
	}

	for _, id := range selection {
		if plan.VPNActive && id == plan.VPNServiceID {
			continue
		}
		block, err := b.serviceBlock(id)
		if err != nil {
			return nil, err
		}
		m.Services = append(m.Services, block)
	}

	m.Services = append(m.Services, watchtowerBlock(env.Facts.Timezone))
	m.Networks = []model.Network{{Name: model.SharedNetwork, Driver: "bridge"}}
	return m, nil
}

type builder struct {
	cat  *catalog.Catalog
	plan topology.Plan
	env  environment.Context
}

func (b *builder) descriptor(id string) (catalog.Descriptor, error) {
	d, ok := b.cat.Get(id)
	if !ok {
		return catalog.Descriptor{}, &catalog.ConsistencyError{ID: id, Reason: "not in the service catalog"}
	}
	return d, nil
}

func (b *builder) base(d catalog.Descriptor) ServiceBlock {
	return ServiceBlock{
		Name:          d.ID,
		Image:         d.Image,
		ContainerName: d.ID,
		Restart:       RestartPolicy,
		Environment:   b.environment(d),
		Volumes:       b.volumes(d),
	}
}

func (b *builder) sidecarBlock() (ServiceBlock, error) {
	d, err := b.descriptor(b.plan.VPNServiceID)
	if err != nil {
		return ServiceBlock{}, err
	}
	block := b.base(d)
	block.CapAdd = []string{"NET_ADMIN"}
	block.Devices = []string{"/dev/net/tun:/dev/net/tun"}
	for _, v := range b.plan.VPNEnvironment {
		block.Environment = append(block.Environment, EnvEntry{Name: v.Key, Value: v.Value, HasValue: true})
	}
	block.Ports = append(d.Ports(), b.plan.PortsTransferredToVPN...)
	block.Networks = []string{model.SharedNetwork}
	return block, nil
}

func (b *builder) serviceBlock(id string) (ServiceBlock, error) {
	d, err := b.descriptor(id)
	if err != nil {
		return ServiceBlock{}, err
	}
	block := b.base(d)
	if b.plan.Delegated(id) {
		block.NetworkMode = "service:" + b.plan.VPNServiceID
		block.DependsOn = []string{b.plan.VPNServiceID}
		return block, nil
	}
	block.Ports = d.Ports()
	block.Networks = []string{model.SharedNetwork}
	return block, nil
}

func (b *builder) environment(d catalog.Descriptor) []EnvEntry {
	out := make([]EnvEntry, 0, len(d.EnvironmentKeys))
	for _, key := range d.EnvironmentKeys {
		if name, value, ok := strings.Cut(key, "="); ok {
			out = append(out, EnvEntry{Name: name, Value: value, HasValue: true})
			continue
		}
		if value, ok := b.env.Lookup(key); ok {
			out = append(out, EnvEntry{Name: key, Value: value, HasValue: true})
			continue
		}
		out = append(out, EnvEntry{Name: key})
	}
	return out
}

func (b *builder) volumes(d catalog.Descriptor) []Mount {
	var out []Mount
	for _, v := range d.ConfigVolumes {
		out = append(out, Mount{Source: path.Join(b.env.Facts.DockerDir, d.ID, v.Source), Target: v.ContainerPath})
	}
	for _, v := range d.MediaVolumes {
		out = append(out, Mount{Source: path.Join(b.env.Facts.MediaDir, v.Source), Target: v.ContainerPath})
	}
	for _, v := range d.ExtraVolumes {
		out = append(out, Mount{Source: v.Source, Target: v.ContainerPath})
	}
	return out
}

func watchtowerBlock(timezone string) ServiceBlock {
	return ServiceBlock{
		Name:          model.MaintenanceID,
		Image:         WatchtowerImage,
		ContainerName: model.MaintenanceID,
		Restart:       RestartPolicy,
		Environment: []EnvEntry{
			{Name: environment.KeyTZ, Value: timezone, HasValue: true},
			{Name: "WATCHTOWER_CLEANUP", Value: "true", HasValue: true},
			{Name: "WATCHTOWER_SCHEDULE", Value: WatchtowerSchedule, HasValue: true},
		},
		Volumes:  []Mount{{Source: DockerSocket, Target: DockerSocket}},
		Networks: []string{model.SharedNetwork},
	}
}

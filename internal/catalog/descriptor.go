package catalog

import (
	"fmt"

	"github.com/ThomasCrouzet/mediastack/internal/model"
	"gopkg.in/yaml.v3"
)

// Descriptor is the definition of one deployable service.
type Descriptor struct {
	ID                 string         `yaml:"-"`
	DisplayName        string         `yaml:"name" validate:"required"`
	Description        string         `yaml:"description" validate:"required"`
	Category           model.Category `yaml:"category" validate:"required"`
	Image              string         `yaml:"image" validate:"required"`
	PrimaryPort        int            `yaml:"port" validate:"omitempty,min=1,max=65535"`
	PortComment        string         `yaml:"port_comment"`
	ExtraPorts         ExtraPorts     `yaml:"extra_ports"`
	ConfigVolumes      PathMap        `yaml:"volumes"`
	MediaVolumes       PathMap        `yaml:"media_volumes"`
	ExtraVolumes       PathMap        `yaml:"extra_volumes"`
	EnvironmentKeys    []string       `yaml:"env" validate:"dive,required"`
	SetupURL           string         `yaml:"setup_url"`
	SetupSteps         []string       `yaml:"setup_steps"`
	ConfigNotes        []string       `yaml:"config_notes"`
	Warnings           []string       `yaml:"warnings"`
	NeedsEncryptionKey bool           `yaml:"needs_encryption_key"`
}

// HasPrimaryPort reports whether the service exposes a web UI port.
func (d Descriptor) HasPrimaryPort() bool {
	return d.PrimaryPort > 0
}

// Ports returns every port binding the service declares, in manifest order:
// primary port, then extra ports. A bare extra port yields a TCP and a UDP
// mapping; an annotated one yields exactly the declared mapping.
func (d Descriptor) Ports() []model.PortBinding {
	var out []model.PortBinding
	if d.HasPrimaryPort() {
		out = append(out, model.PortBinding{
			Mapping: model.SamePort(d.PrimaryPort, "tcp"),
			Comment: d.PortComment,
		})
	}
	for _, ep := range d.ExtraPorts {
		if ep.Annotated() {
			out = append(out, model.PortBinding{Mapping: ep.Mapping, Comment: ep.Comment})
			continue
		}
		out = append(out,
			model.PortBinding{Mapping: model.SamePort(ep.Port, "tcp")},
			model.PortBinding{Mapping: model.SamePort(ep.Port, "udp")},
		)
	}
	return out
}

// PathEntry maps a container path to a host-side value.
type PathEntry struct {
	ContainerPath string
	Source        string
}

// PathMap is a mapping decoded in document order.
type PathMap []PathEntry

// UnmarshalYAML keeps keys in the order they were written.
func (pm *PathMap) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping of container path to value", node.Line)
	}
	out := make(PathMap, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if key.Kind != yaml.ScalarNode || value.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: volume entries must be scalar", key.Line)
		}
		out = append(out, PathEntry{ContainerPath: key.Value, Source: value.Value})
	}
	*pm = out
	return nil
}

// ExtraPort is either a bare port number published as TCP and UDP, or an
// annotated mapping published exactly as written with a trailing comment.
type ExtraPort struct {
	Port    int
	Mapping model.PortMapping
	Comment string
}

// Annotated reports whether the port was declared as a "mapping: comment" pair.
func (ep ExtraPort) Annotated() bool {
	return ep.Port == 0
}

// ExtraPorts is the ordered extra_ports list.
type ExtraPorts []ExtraPort

// UnmarshalYAML accepts `- 6881` and `- "8388:8388/udp": Shadowsocks UDP`.
func (eps *ExtraPorts) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: extra_ports must be a list", node.Line)
	}
	out := make(ExtraPorts, 0, len(node.Content))
	for _, item := range node.Content {
		switch item.Kind {
		case yaml.ScalarNode:
			var port int
			if err := item.Decode(&port); err != nil {
				return fmt.Errorf("line %d: extra port %q is not a number", item.Line, item.Value)
			}
			if port < 1 || port > 65535 {
				return fmt.Errorf("line %d: extra port %d out of range", item.Line, port)
			}
			out = append(out, ExtraPort{Port: port})
		case yaml.MappingNode:
			if len(item.Content) != 2 {
				return fmt.Errorf("line %d: annotated extra port must have exactly one entry", item.Line)
			}
			pm, err := model.ParsePortMappingStrict(item.Content[0].Value)
			if err != nil {
				return fmt.Errorf("line %d: %w", item.Line, err)
			}
			out = append(out, ExtraPort{Mapping: pm, Comment: item.Content[1].Value})
		default:
			return fmt.Errorf("line %d: unsupported extra port entry", item.Line)
		}
	}
	*eps = out
	return nil
}

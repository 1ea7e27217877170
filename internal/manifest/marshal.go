package manifest

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// DocumentMarker opens every generated manifest.
const DocumentMarker = "---\n"

// Marshal is the only serializer for manifests. Keys keep compose order,
// port mappings are single-quoted and annotated ports carry a trailing
// comment. Environment values and mount sources are escaped for compose
// interpolation.
func Marshal(m *Manifest) ([]byte, error) {
	services := mapping()
	for _, s := range m.Services {
		services.Content = append(services.Content, str(s.Name), serviceNode(s))
	}

	networks := mapping()
	for _, n := range m.Networks {
		def := mapping()
		if n.Driver != "" {
			def.Content = append(def.Content, str("driver"), str(n.Driver))
		}
		networks.Content = append(networks.Content, str(n.Name), def)
	}

	root := mapping()
	root.Content = append(root.Content, str("services"), services)
	if len(m.Networks) > 0 {
		root.Content = append(root.Content, str("networks"), networks)
	}

	var buf bytes.Buffer
	buf.WriteString(DocumentMarker)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}); err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	return buf.Bytes(), nil
}

func serviceNode(s ServiceBlock) *yaml.Node {
	n := mapping()
	add := func(key string, value *yaml.Node) {
		n.Content = append(n.Content, str(key), value)
	}

	add("image", str(s.Image))
	add("container_name", str(s.ContainerName))
	add("restart", str(s.Restart))
	if len(s.CapAdd) > 0 {
		add("cap_add", strSeq(s.CapAdd))
	}
	if len(s.Devices) > 0 {
		add("devices", strSeq(s.Devices))
	}
	if s.NetworkMode != "" {
		add("network_mode", str(s.NetworkMode))
	}
	if len(s.DependsOn) > 0 {
		add("depends_on", strSeq(s.DependsOn))
	}
	if len(s.Environment) > 0 {
		env := sequence()
		for _, e := range s.Environment {
			env.Content = append(env.Content, str(escapeInterpolation(e.String())))
		}
		add("environment", env)
	}
	if len(s.Volumes) > 0 {
		vols := sequence()
		for _, v := range s.Volumes {
			vols.Content = append(vols.Content, str(escapeInterpolation(v.String())))
		}
		add("volumes", vols)
	}
	if len(s.Ports) > 0 {
		ports := sequence()
		for _, p := range s.Ports {
			node := str(p.Mapping.ComposeString())
			node.Style = yaml.SingleQuotedStyle
			if p.Comment != "" {
				node.LineComment = "# " + p.Comment
			}
			ports.Content = append(ports.Content, node)
		}
		add("ports", ports)
	}
	if len(s.Networks) > 0 {
		add("networks", strSeq(s.Networks))
	}
	return n
}

// escapeInterpolation doubles every "$" so compose keeps materialized
// values literal instead of substituting variables into them.
func escapeInterpolation(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}

func mapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode}
}

func sequence() *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode}
}

// str tags every scalar as a string so values such as "true" or "8080"
// are quoted instead of changing type on the way back in.
func str(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func strSeq(items []string) *yaml.Node {
	n := sequence()
	for _, item := range items {
		n.Content = append(n.Content, str(item))
	}
	return n
}

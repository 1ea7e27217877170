// Package validate checks generated manifests: a structural pass with
// yaml.v3 and an engine pass that loads the file the way docker compose
// would.
package validate

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/compose-spec/compose-go/v2/cli"
	"gopkg.in/yaml.v3"
)

// Kind classifies a validation issue.
type Kind string

const (
	KindEmpty           Kind = "empty"
	KindParse           Kind = "parse"
	KindMissingService  Kind = "missing-service"
	KindMissingNetworks Kind = "missing-networks"
	KindSchema          Kind = "schema"
)

// Issue is a non-fatal problem found in a manifest.
type Issue struct {
	Kind    Kind
	Service string
	Message string
}

func (i Issue) String() string {
	if i.Service != "" {
		return fmt.Sprintf("%s: %s: %s", i.Kind, i.Service, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.Kind, i.Message)
}

type document struct {
	Services map[string]yaml.Node `yaml:"services"`
	Networks map[string]yaml.Node `yaml:"networks"`
}

// Validate parses text and reports an issue when it is empty, does not
// parse, lacks a block for one of expected, or declares no networks.
func Validate(text []byte, expected []string) []Issue {
	if len(bytes.TrimSpace(text)) == 0 {
		return []Issue{{Kind: KindEmpty, Message: "manifest is empty"}}
	}

	var doc document
	if err := yaml.Unmarshal(text, &doc); err != nil {
		return []Issue{{Kind: KindParse, Message: err.Error()}}
	}
	if doc.Services == nil && doc.Networks == nil {
		return []Issue{{Kind: KindEmpty, Message: "manifest has no services or networks"}}
	}

	var issues []Issue
	for _, id := range expected {
		block, ok := doc.Services[id]
		if !ok {
			issues = append(issues, Issue{Kind: KindMissingService, Service: id, Message: "no service block"})
			continue
		}
		if block.Kind != yaml.MappingNode {
			issues = append(issues, Issue{Kind: KindMissingService, Service: id, Message: "service block is not a mapping"})
		}
	}
	if len(doc.Networks) == 0 {
		issues = append(issues, Issue{Kind: KindMissingNetworks, Message: "no networks declared"})
	}
	return issues
}

// EngineCheck loads text with the compose loader, which applies the
// compose schema and cross-service checks such as depends_on and
// network_mode references. Interpolation runs against an empty
// environment, so a stray "$" or a malformed "${" in a value is reported
// the way docker compose would report it.
func EngineCheck(ctx context.Context, text []byte) []Issue {
	dir, err := os.MkdirTemp("", "mediastack-validate-*")
	if err != nil {
		return []Issue{{Kind: KindSchema, Message: fmt.Sprintf("creating temp dir: %v", err)}}
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "docker-compose.yml")
	if err := os.WriteFile(path, text, 0o600); err != nil {
		return []Issue{{Kind: KindSchema, Message: fmt.Sprintf("writing temp file: %v", err)}}
	}

	opts, err := cli.NewProjectOptions(
		[]string{path},
		cli.WithName("mediastack"),
	)
	if err != nil {
		return []Issue{{Kind: KindSchema, Message: fmt.Sprintf("project options: %v", err)}}
	}
	if _, err := cli.ProjectFromOptions(ctx, opts); err != nil {
		return []Issue{{Kind: KindSchema, Message: err.Error()}}
	}
	return nil
}

// ValidateFile runs both passes on an existing manifest file.
func ValidateFile(ctx context.Context, path string, expected []string) ([]Issue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	issues := Validate(data, expected)
	for _, i := range issues {
		if i.Kind == KindEmpty || i.Kind == KindParse {
			return issues, nil
		}
	}
	return append(issues, EngineCheck(ctx, data)...), nil
}

// ServiceNames lists the service keys of a manifest, for callers that
// validate a file they did not generate.
func ServiceNames(text []byte) ([]string, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(text, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, nil
	}
	top := root.Content[0]
	for i := 0; i+1 < len(top.Content); i += 2 {
		if top.Content[i].Value != "services" {
			continue
		}
		services := top.Content[i+1]
		var names []string
		for j := 0; j+1 < len(services.Content); j += 2 {
			names = append(names, services.Content[j].Value)
		}
		return names, nil
	}
	return nil, nil
}

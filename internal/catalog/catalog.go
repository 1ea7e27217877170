// Package catalog loads the service catalog: the validated set of service
// descriptors the generator can emit, grouped into categories.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/ThomasCrouzet/mediastack/internal/model"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed docker-services.yaml
var embeddedCatalog []byte

// EmbeddedPath is the name reported for the built-in catalog in errors.
const EmbeddedPath = "<embedded>/docker-services.yaml"

var descriptorValidate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// CategoryInfo is a category id with its display name.
type CategoryInfo struct {
	ID   model.Category
	Name string
}

// Catalog is an immutable set of service descriptors.
type Catalog struct {
	source     string
	order      []string
	services   map[string]Descriptor
	categories map[model.Category]string
}

type rawCatalog struct {
	Categories yaml.Node `yaml:"categories"`
	Services   yaml.Node `yaml:"services"`
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the built-in catalog. It is parsed on first use and the
// result, including any error, is cached for the life of the process.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(EmbeddedPath, embeddedCatalog)
	})
	return defaultCatalog, defaultErr
}

// Load reads and validates a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &CatalogLoadError{Path: path, Err: err}
	}
	return Parse(path, data)
}

// Parse validates catalog content in a single pass. source is only used
// in error messages.
func Parse(source string, data []byte) (*Catalog, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &CatalogLoadError{Path: source, Err: errors.New("catalog is empty")}
	}

	var raw rawCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &CatalogLoadError{Path: source, Err: err}
	}
	if raw.Services.Kind != yaml.MappingNode || len(raw.Services.Content) == 0 {
		return nil, &CatalogLoadError{Path: source, Field: "services", Err: errors.New("missing or empty services mapping")}
	}
	if raw.Categories.Kind != yaml.MappingNode {
		return nil, &CatalogLoadError{Path: source, Field: "categories", Err: errors.New("missing categories mapping")}
	}

	c := &Catalog{
		source:     source,
		services:   make(map[string]Descriptor),
		categories: make(map[model.Category]string),
	}

	for i := 0; i+1 < len(raw.Categories.Content); i += 2 {
		id := model.Category(raw.Categories.Content[i].Value)
		c.categories[id] = raw.Categories.Content[i+1].Value
	}

	for i := 0; i+1 < len(raw.Services.Content); i += 2 {
		id := raw.Services.Content[i].Value
		if _, dup := c.services[id]; dup {
			return nil, &CatalogLoadError{Path: source, Service: id, Err: errors.New("service defined twice")}
		}
		d, err := c.decodeDescriptor(id, raw.Services.Content[i+1])
		if err != nil {
			return nil, err
		}
		c.services[id] = d
		c.order = append(c.order, id)
	}

	return c, nil
}

func (c *Catalog) decodeDescriptor(id string, node *yaml.Node) (Descriptor, error) {
	fail := func(field string, err error) (Descriptor, error) {
		return Descriptor{}, &CatalogLoadError{Path: c.source, Service: id, Field: field, Err: err}
	}

	if id == model.MaintenanceID {
		return fail("", fmt.Errorf("%q is reserved for the built-in update service", id))
	}

	var d Descriptor
	if err := node.Decode(&d); err != nil {
		return fail("", err)
	}
	d.ID = id

	if err := descriptorValidate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fail(fe.Field(), fmt.Errorf("failed %q check", fe.Tag()))
		}
		return fail("", err)
	}

	if _, ok := c.categories[d.Category]; !ok {
		return fail("category", fmt.Errorf("category %q is not declared under categories", d.Category))
	}

	seen := make(map[string]string)
	for _, group := range []struct {
		field string
		paths PathMap
	}{
		{"volumes", d.ConfigVolumes},
		{"media_volumes", d.MediaVolumes},
		{"extra_volumes", d.ExtraVolumes},
	} {
		for _, entry := range group.paths {
			if prev, ok := seen[entry.ContainerPath]; ok {
				return fail(group.field, fmt.Errorf("container path %s already mounted by %s", entry.ContainerPath, prev))
			}
			seen[entry.ContainerPath] = group.field
		}
	}

	return d, nil
}

// Source is the path the catalog was loaded from.
func (c *Catalog) Source() string {
	return c.source
}

// Get returns the descriptor for id.
func (c *Catalog) Get(id string) (Descriptor, bool) {
	d, ok := c.services[id]
	return d, ok
}

// Has reports whether id is in the catalog.
func (c *Catalog) Has(id string) bool {
	_, ok := c.services[id]
	return ok
}

// IDs returns every service id, sorted.
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	sort.Strings(out)
	return out
}

// Len returns the number of services.
func (c *Catalog) Len() int {
	return len(c.order)
}

// ByCategory groups service ids by category, each list in catalog order.
// It is derived from the descriptors on every call.
func (c *Catalog) ByCategory() map[model.Category][]string {
	out := make(map[model.Category][]string)
	for _, id := range c.order {
		cat := c.services[id].Category
		out[cat] = append(out[cat], id)
	}
	return out
}

// Categories returns the declared categories in display order.
func (c *Catalog) Categories() []CategoryInfo {
	out := make([]CategoryInfo, 0, len(c.categories))
	for id, name := range c.categories {
		if name == "" {
			name = id.Title()
		}
		out = append(out, CategoryInfo{ID: id, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Less(out[j].ID) })
	return out
}

// CategoryName returns the display name of a category.
func (c *Catalog) CategoryName(id model.Category) string {
	if name := c.categories[id]; name != "" {
		return name
	}
	return id.Title()
}

// ResolveSelection checks ids against the catalog and returns them as a
// Selection. Unknown and repeated ids are a ConsistencyError.
func (c *Catalog) ResolveSelection(ids []string) (model.Selection, error) {
	if len(ids) == 0 {
		return nil, &ConsistencyError{Reason: "no services selected"}
	}
	seen := make(map[string]bool, len(ids))
	out := make(model.Selection, 0, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if !c.Has(id) {
			return nil, &ConsistencyError{ID: id, Reason: "not in the service catalog"}
		}
		if seen[id] {
			return nil, &ConsistencyError{ID: id, Reason: "selected more than once"}
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

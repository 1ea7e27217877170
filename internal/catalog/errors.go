package catalog

import (
	"fmt"
	"strings"
)

// CatalogLoadError reports a catalog source that is missing, unreadable or
// structurally invalid. Service and Field are empty when the failure is not
// tied to one entry.
type CatalogLoadError struct {
	Path    string
	Service string
	Field   string
	Err     error
}

func (e *CatalogLoadError) Error() string {
	var b strings.Builder
	b.WriteString("loading catalog")
	if e.Path != "" {
		fmt.Fprintf(&b, " %s", e.Path)
	}
	if e.Service != "" {
		fmt.Fprintf(&b, ": service %q", e.Service)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ": field %q", e.Field)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *CatalogLoadError) Unwrap() error {
	return e.Err
}

// ConsistencyError means a caller handed the generator a selection that
// does not agree with the catalog or the VPN configuration. It signals an
// integration defect, not a runtime condition to recover from.
type ConsistencyError struct {
	ID     string
	Reason string
}

func (e *ConsistencyError) Error() string {
	if e.ID == "" {
		return "inconsistent selection: " + e.Reason
	}
	return fmt.Sprintf("inconsistent selection: %s: %s", e.ID, e.Reason)
}

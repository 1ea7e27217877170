// Package preflight checks that the host can run a generated stack.
package preflight

import (
	"context"
	"fmt"
)

// Check is one prerequisite probe.
type Check interface {
	Metadata() CheckMetadata
	Run(ctx context.Context, r Runner) (detail string, failure *Failure)
}

// CheckMetadata describes a check for listings and dependency ordering.
type CheckMetadata struct {
	Name        string // internal key, e.g. "engine"
	DisplayName string // human-readable, e.g. "Docker engine"
	Requires    string // check that must pass first, empty if none
}

// Failure reports a failed prerequisite with a suggested fix.
type Failure struct {
	Check      string
	Message    string
	Suggestion string
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Check, f.Message)
}

// Outcome is the result of one check.
type Outcome struct {
	Check   CheckMetadata
	Detail  string
	Failure *Failure
	Skipped bool
}

// Passed reports whether the check ran and succeeded.
func (o Outcome) Passed() bool {
	return !o.Skipped && o.Failure == nil
}

var registry []func() Check

// Register adds a check factory. Checks run in registration order.
func Register(factory func() Check) {
	registry = append(registry, factory)
}

// All returns fresh instances of every registered check.
func All() []Check {
	out := make([]Check, len(registry))
	for i, f := range registry {
		out[i] = f()
	}
	return out
}

// Run executes checks in order. A check whose prerequisite did not pass
// is skipped.
func Run(ctx context.Context, r Runner, checks []Check) []Outcome {
	if r == nil {
		r = OSRunner{}
	}
	passed := map[string]bool{}
	outcomes := make([]Outcome, 0, len(checks))
	for _, c := range checks {
		meta := c.Metadata()
		if meta.Requires != "" && !passed[meta.Requires] {
			outcomes = append(outcomes, Outcome{Check: meta, Skipped: true})
			continue
		}
		detail, failure := c.Run(ctx, r)
		o := Outcome{Check: meta, Detail: detail, Failure: failure}
		passed[meta.Name] = o.Passed()
		outcomes = append(outcomes, o)
	}
	return outcomes
}

// OK reports whether every outcome passed.
func OK(outcomes []Outcome) bool {
	for _, o := range outcomes {
		if !o.Passed() {
			return false
		}
	}
	return true
}

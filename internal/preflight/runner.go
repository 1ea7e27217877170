package preflight

import (
	"context"
	"os/exec"
)

// Runner abstracts binary lookup and command execution for testing.
type Runner interface {
	LookPath(name string) (string, error)
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// OSRunner runs real commands.
type OSRunner struct{}

func (OSRunner) LookPath(name string) (string, error) { return exec.LookPath(name) }

// Output returns combined stdout and stderr so that failures carry the
// engine's own message.
func (OSRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

package cmd

import (
	"context"
	"os/exec"
)

// findExecutable wraps exec.LookPath for testability.
func findExecutable(name string) (string, error) {
	return exec.LookPath(name)
}

// execCommand wraps exec.CommandContext for testability.
var execCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}

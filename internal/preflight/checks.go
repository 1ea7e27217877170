package preflight

import (
	"context"
	"strings"
)

// Engine is the container engine CLI every check shells out to.
const Engine = "docker"

func init() {
	Register(func() Check { return engineCheck{} })
	Register(func() Check { return composeCheck{} })
	Register(func() Check { return accessCheck{} })
}

type engineCheck struct{}

func (engineCheck) Metadata() CheckMetadata {
	return CheckMetadata{Name: "engine", DisplayName: "Docker engine"}
}

func (engineCheck) Run(ctx context.Context, r Runner) (string, *Failure) {
	if _, err := r.LookPath(Engine); err != nil {
		return "", &Failure{
			Check:      "engine",
			Message:    "docker is not installed or not on PATH",
			Suggestion: "install Docker from https://docs.docker.com/engine/install/",
		}
	}
	out, err := r.Output(ctx, Engine, "--version")
	if err != nil {
		return "", &Failure{
			Check:      "engine",
			Message:    "docker --version failed: " + firstLine(out, err),
			Suggestion: "reinstall Docker",
		}
	}
	return firstLine(out, nil), nil
}

type composeCheck struct{}

func (composeCheck) Metadata() CheckMetadata {
	return CheckMetadata{Name: "compose", DisplayName: "Docker Compose v2", Requires: "engine"}
}

func (composeCheck) Run(ctx context.Context, r Runner) (string, *Failure) {
	out, err := r.Output(ctx, Engine, "compose", "version")
	if err != nil {
		return "", &Failure{
			Check:      "compose",
			Message:    "docker compose plugin is not available",
			Suggestion: "install the Compose v2 plugin (docker-compose-plugin); the legacy docker-compose binary is not supported",
		}
	}
	return firstLine(out, nil), nil
}

type accessCheck struct{}

func (accessCheck) Metadata() CheckMetadata {
	return CheckMetadata{Name: "access", DisplayName: "Docker permissions", Requires: "engine"}
}

func (accessCheck) Run(ctx context.Context, r Runner) (string, *Failure) {
	out, err := r.Output(ctx, Engine, "ps", "--quiet")
	if err == nil {
		return "current user can reach the Docker daemon", nil
	}
	msg := firstLine(out, err)
	if strings.Contains(strings.ToLower(string(out)), "permission denied") {
		return "", &Failure{
			Check:      "access",
			Message:    "permission denied on the Docker socket",
			Suggestion: "run: sudo usermod -aG docker $USER, then log out and back in",
		}
	}
	return "", &Failure{
		Check:      "access",
		Message:    "cannot reach the Docker daemon: " + msg,
		Suggestion: "start the daemon, e.g. sudo systemctl start docker",
	}
}

func firstLine(out []byte, err error) string {
	s := strings.TrimSpace(string(out))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if s == "" && err != nil {
		return err.Error()
	}
	return s
}

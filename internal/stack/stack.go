// Package stack runs the generation pipeline: selection, network plan,
// environment, manifest, validation, guide.
package stack

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ThomasCrouzet/mediastack/internal/catalog"
	"github.com/ThomasCrouzet/mediastack/internal/environment"
	"github.com/ThomasCrouzet/mediastack/internal/guide"
	"github.com/ThomasCrouzet/mediastack/internal/manifest"
	"github.com/ThomasCrouzet/mediastack/internal/model"
	"github.com/ThomasCrouzet/mediastack/internal/topology"
	"github.com/ThomasCrouzet/mediastack/internal/validate"
	"github.com/sirupsen/logrus"
)

// Output file names.
const (
	ComposeFile = "docker-compose.yml"
	EnvFile     = ".env"
	GuideFile   = "SETUP_GUIDE.md"
)

// Request describes one generation run.
type Request struct {
	Services         []string
	VPN              model.VPNConfig
	Facts            environment.Facts
	DownloadClientID string
	// Rand overrides the secret source; nil means crypto/rand.
	Rand io.Reader
}

// Result holds every generated artifact. Nothing is written until Write.
type Result struct {
	Selection model.Selection
	Plan      topology.Plan
	Env       environment.Context
	Manifest  *manifest.Manifest
	Compose   []byte
	EnvFile   []byte
	Guide     []byte
	Issues    []validate.Issue
}

// Generate runs the pipeline. Catalog and consistency errors abort it;
// validation issues are returned on the Result.
func Generate(cat *catalog.Catalog, req Request, log logrus.FieldLogger) (*Result, error) {
	if log == nil {
		log = logrus.New()
	}
	clientID := req.DownloadClientID
	if clientID == "" {
		clientID = model.DownloadClientID
	}

	selection, err := cat.ResolveSelection(req.Services)
	if err != nil {
		return nil, err
	}
	log.WithField("services", len(selection)).Debug("selection resolved")

	plan, err := topology.Resolve(cat, selection, req.VPN, clientID)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"vpn_active":        plan.VPNActive,
		"client_delegates":  plan.DownloadClientDelegates,
		"ports_transferred": len(plan.PortsTransferredToVPN),
	}).Debug("network plan resolved")
	if req.VPN.Enabled() && !plan.VPNActive {
		log.WithField("sidecar", model.VPNSidecarID).Warn("VPN enabled but its sidecar is not selected; VPN settings ignored")
	}
	if req.VPN.RouteDownloadClient() && !selection.Contains(clientID) {
		log.WithField("client", clientID).Info("download client routing requested but client not selected; nothing to route")
	}

	env, err := environment.Materialize(cat, selection, req.Facts, req.Rand)
	if err != nil {
		return nil, fmt.Errorf("materializing environment: %w", err)
	}
	if env.EncryptionKey != "" {
		log.Debug("generated shared encryption key")
	}

	m, err := manifest.Build(cat, selection, plan, env)
	if err != nil {
		return nil, err
	}
	compose, err := manifest.Marshal(m)
	if err != nil {
		return nil, err
	}

	issues := validate.Validate(compose, selection)
	for _, issue := range issues {
		log.WithFields(logrus.Fields{"kind": issue.Kind, "service": issue.Service}).Warn(issue.Message)
	}

	guideText, err := guide.Generate(guide.Input{
		Catalog:   cat,
		Selection: selection,
		Plan:      plan,
		VPN:       req.VPN,
		Env:       env,
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Selection: selection,
		Plan:      plan,
		Env:       env,
		Manifest:  m,
		Compose:   compose,
		EnvFile:   environment.EnvFile(env),
		Guide:     guideText,
		Issues:    issues,
	}, nil
}

// Write stores the artifacts in dir and returns the paths written.
func (r *Result) Write(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	files := []struct {
		name string
		data []byte
		mode os.FileMode
	}{
		{ComposeFile, r.Compose, 0o644},
		{EnvFile, r.EnvFile, environment.EnvFileMode},
		{GuideFile, r.Guide, 0o644},
	}

	var written []string
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, f.data, f.mode); err != nil {
			return written, fmt.Errorf("writing %s: %w", f.name, err)
		}
		// WriteFile keeps the mode of an existing file.
		if err := os.Chmod(path, f.mode); err != nil {
			return written, fmt.Errorf("setting mode on %s: %w", f.name, err)
		}
		written = append(written, path)
	}
	return written, nil
}

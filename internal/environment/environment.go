// Package environment turns host facts into the concrete values the
// generator substitutes into manifests, env files and guides.
package environment

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ThomasCrouzet/mediastack/internal/catalog"
	"github.com/ThomasCrouzet/mediastack/internal/model"
)

// Well-known environment keys resolved at generation time.
const (
	KeyPUID          = "PUID"
	KeyPGID          = "PGID"
	KeyTZ            = "TZ"
	KeyEncryptionKey = "SECRET_ENCRYPTION_KEY"
)

// Fallbacks for facts that could not be detected.
const (
	DefaultTimezone    = "UTC"
	DefaultHostIP      = "localhost"
	DefaultProjectName = "mediastack"
)

// Facts describes the host the stack is generated for.
type Facts struct {
	Username    string
	UID         int
	GID         int
	Timezone    string
	HostIP      string
	Subnet      string
	DockerDir   string
	MediaDir    string
	OutputDir   string
	ProjectName string
	GeneratedAt time.Time
}

// WithDefaults fills unset facts with their documented fallbacks.
func (f Facts) WithDefaults() Facts {
	if strings.TrimSpace(f.Timezone) == "" {
		f.Timezone = DefaultTimezone
	}
	if strings.TrimSpace(f.HostIP) == "" {
		f.HostIP = DefaultHostIP
	}
	if strings.TrimSpace(f.Subnet) == "" {
		f.Subnet = model.DefaultSubnet
	}
	if f.ProjectName == "" {
		f.ProjectName = DefaultProjectName
	}
	return f
}

// Context holds every materialized value for one generation run. It is
// fixed before the manifest is built so that building stays deterministic.
type Context struct {
	Facts         Facts
	EncryptionKey string
}

// Materialize resolves facts for selection and generates the shared
// encryption key when a selected service needs one. rand may be nil.
func Materialize(cat *catalog.Catalog, selection model.Selection, facts Facts, rand io.Reader) (Context, error) {
	ctx := Context{Facts: facts.WithDefaults()}

	if !NeedsEncryptionKey(cat, selection) {
		return ctx, nil
	}
	key, err := GenerateSecret(rand, SecretLength)
	if err != nil {
		return Context{}, err
	}
	ctx.EncryptionKey = key
	return ctx, nil
}

// NeedsEncryptionKey reports whether any selected service uses the shared key.
func NeedsEncryptionKey(cat *catalog.Catalog, selection model.Selection) bool {
	for _, id := range selection {
		d, ok := cat.Get(id)
		if !ok {
			continue
		}
		if d.NeedsEncryptionKey {
			return true
		}
		for _, key := range d.EnvironmentKeys {
			if key == KeyEncryptionKey {
				return true
			}
		}
	}
	return false
}

// Lookup resolves a well-known environment key. ok is false for keys the
// runtime is expected to supply.
func (c Context) Lookup(key string) (string, bool) {
	switch key {
	case KeyPUID:
		return strconv.Itoa(c.Facts.UID), true
	case KeyPGID:
		return strconv.Itoa(c.Facts.GID), true
	case KeyTZ:
		return c.Facts.Timezone, true
	case KeyEncryptionKey:
		if c.EncryptionKey == "" {
			return "", false
		}
		return c.EncryptionKey, true
	}
	return "", false
}

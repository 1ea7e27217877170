package environment

import (
	"strings"

	"github.com/ThomasCrouzet/mediastack/internal/model"
)

// Placeholder names recognized in setup URLs, steps and guide text.
const (
	PlaceholderHostIP         = "host_ip"
	PlaceholderDownloadClient = "qbittorrent_host"
	PlaceholderDockerDir      = "docker_dir"
	PlaceholderMediaDir       = "media_dir"
)

// Placeholders performs literal {name} substitution. Unknown placeholders
// are left in place.
type Placeholders struct {
	replacer *strings.Replacer
	values   map[string]string
}

// NewPlaceholders binds placeholder values for one run. downloadClientHost
// is the hostname other containers use to reach the download client.
func NewPlaceholders(ctx Context, downloadClientHost string) Placeholders {
	values := map[string]string{
		PlaceholderHostIP:         ctx.Facts.HostIP,
		PlaceholderDownloadClient: downloadClientHost,
		PlaceholderDockerDir:      ctx.Facts.DockerDir,
		PlaceholderMediaDir:       ctx.Facts.MediaDir,
	}
	var pairs []string
	for _, name := range []string{PlaceholderHostIP, PlaceholderDownloadClient, PlaceholderDockerDir, PlaceholderMediaDir} {
		if values[name] == "" {
			continue
		}
		pairs = append(pairs, "{"+name+"}", values[name])
	}
	return Placeholders{replacer: strings.NewReplacer(pairs...), values: values}
}

// Substitute replaces every known placeholder in text.
func (p Placeholders) Substitute(text string) string {
	if p.replacer == nil {
		return text
	}
	return p.replacer.Replace(text)
}

// Value returns the bound value of a placeholder.
func (p Placeholders) Value(name string) string {
	return p.values[name]
}

// ValidateSubnet reports whether s is an IPv4 CIDR with a 0..32 prefix.
func ValidateSubnet(s string) bool {
	return model.ValidSubnet(s)
}

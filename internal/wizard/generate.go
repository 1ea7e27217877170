package wizard

import (
	"bytes"
	"strings"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"
)

// WizardAnswers holds all user responses from the wizard.
type WizardAnswers struct {
	// Host
	Username  string
	UID       int
	GID       int
	Timezone  string
	HostIP    string
	Subnet    string
	DockerDir string
	MediaDir  string
	OutputDir string

	// Services in selection order
	Services []string

	VPN VPNAnswers

	// Diagram
	Diagram   bool
	Direction string

	GeneratedAt time.Time
}

// VPNAnswers is the raw VPN section before validation by model.NewVPNConfig.
type VPNAnswers struct {
	Enabled             bool
	Provider            string
	Protocol            string
	Credentials         map[string]string
	ServerCountries     string
	RouteDownloadClient bool
}

const configTemplate = `# mediastack configuration
{{- if not .GeneratedAt.IsZero }}
# Generated {{ .GeneratedAt.UTC.Format "2006-01-02 15:04:05 MST" }}
{{- end }}
# Regenerate the stack with: mediastack generate

services:
{{- range .Services }}
  - {{ . }}
{{- end }}

user:
  name: {{ yaml .Username }}
  uid: {{ .UID }}
  gid: {{ .GID }}

timezone: {{ yaml .Timezone }}
host_ip: {{ yaml .HostIP }}
{{- if .Subnet }}
subnet: {{ yaml .Subnet }}
{{- end }}
docker_dir: {{ yaml .DockerDir }}
media_dir: {{ yaml .MediaDir }}
{{- if .OutputDir }}
output_dir: {{ yaml .OutputDir }}
{{- end }}

vpn:
  enabled: {{ .VPN.Enabled }}
{{- if .VPN.Enabled }}
  provider: {{ yaml .VPN.Provider }}
{{- if .VPN.Protocol }}
  protocol: {{ .VPN.Protocol }}
{{- end }}
{{- if .VPN.Credentials }}
  credentials:
{{- range $key, $value := .VPN.Credentials }}
    {{ $key }}: {{ yaml $value }}
{{- end }}
{{- end }}
{{- if .VPN.ServerCountries }}
  server_countries: {{ yaml .VPN.ServerCountries }}
{{- end }}
  route_download_client: {{ .VPN.RouteDownloadClient }}
{{- if .Subnet }}
  outbound_subnet: {{ yaml .Subnet }}
{{- end }}
{{- end }}

diagram:
  enabled: {{ .Diagram }}
  direction: {{ .Direction }}
`

var funcs = template.FuncMap{
	"yaml": yamlScalar,
}

// yamlScalar renders s as a YAML scalar, quoting when needed.
func yamlScalar(s string) (string, error) {
	out, err := yaml.Marshal(s)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(string(out), "\n"), nil
}

// GenerateConfig renders mediastack.yml from wizard answers.
func GenerateConfig(answers WizardAnswers) (string, error) {
	if answers.Direction == "" {
		answers.Direction = "right"
	}

	tmpl, err := template.New("config").Funcs(funcs).Parse(configTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, answers); err != nil {
		return "", err
	}

	return buf.String(), nil
}

package wizard

import (
	"context"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ThomasCrouzet/mediastack/internal/environment"
	"github.com/ThomasCrouzet/mediastack/internal/model"
)

// DetectionResult holds what was auto-detected on the system.
type DetectionResult struct {
	Username        string
	UID             int
	GID             int
	Timezone        string
	Remote          bool   // session arrived over SSH
	NetworkIP       string // LAN address, empty if not found
	Subnet          string
	DockerAvailable bool
	ExistingConfig  string // path of an existing mediastack.yml
}

// Detector abstracts the host for testing.
type Detector interface {
	LookPath(name string) (string, error)
	Stat(path string) (os.FileInfo, error)
	ReadFile(path string) ([]byte, error)
	Getenv(key string) string
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
	LookupUser(name string) (*user.User, error)
	CurrentUser() (*user.User, error)
}

// OSDetector uses the real OS for detection.
type OSDetector struct{}

func (OSDetector) LookPath(name string) (string, error) { return exec.LookPath(name) }
func (OSDetector) Stat(path string) (os.FileInfo, error) { return os.Stat(path) }
func (OSDetector) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }
func (OSDetector) Getenv(key string) string { return os.Getenv(key) }
func (OSDetector) LookupUser(name string) (*user.User, error) { return user.Lookup(name) }
func (OSDetector) CurrentUser() (*user.User, error) { return user.Current() }
func (OSDetector) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Detect inspects the host. Every probe is best effort.
func Detect(ctx context.Context, d Detector) DetectionResult {
	if d == nil {
		d = OSDetector{}
	}

	result := DetectionResult{
		Timezone: detectTimezone(ctx, d),
		Remote:   d.Getenv("SSH_CONNECTION") != "" || d.Getenv("SSH_CLIENT") != "" || d.Getenv("SSH_TTY") != "",
		Subnet:   model.DefaultSubnet,
	}
	result.Username, result.UID, result.GID = detectUser(d)
	result.NetworkIP = detectNetworkIP(ctx, d)

	if _, err := d.LookPath("docker"); err == nil {
		result.DockerAvailable = true
		if subnet := detectBridgeSubnet(ctx, d); subnet != "" {
			result.Subnet = subnet
		}
	}

	for _, name := range []string{"mediastack.yml", "mediastack.yaml"} {
		if _, err := d.Stat(name); err == nil {
			result.ExistingConfig = name
			break
		}
	}

	return result
}

// HostIP is the address service URLs should use: the LAN address for a
// remote session, localhost otherwise.
func (r DetectionResult) HostIP() string {
	if r.Remote && r.NetworkIP != "" {
		return r.NetworkIP
	}
	return environment.DefaultHostIP
}

// Facts converts the detection into environment facts.
func (r DetectionResult) Facts() environment.Facts {
	return environment.Facts{
		Username: r.Username,
		UID:      r.UID,
		GID:      r.GID,
		Timezone: r.Timezone,
		HostIP:   r.HostIP(),
		Subnet:   r.Subnet,
	}.WithDefaults()
}

// LookupIDs resolves a username to its uid and gid.
func LookupIDs(d Detector, name string) (int, int, error) {
	if d == nil {
		d = OSDetector{}
	}
	u, err := d.LookupUser(name)
	if err != nil {
		return 0, 0, err
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return 0, 0, err
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return 0, 0, err
	}
	return uid, gid, nil
}

func detectTimezone(ctx context.Context, d Detector) string {
	if tz := strings.TrimSpace(d.Getenv("TZ")); tz != "" {
		return strings.TrimPrefix(tz, ":")
	}
	if data, err := d.ReadFile("/etc/timezone"); err == nil {
		if tz := strings.TrimSpace(string(data)); tz != "" {
			return tz
		}
	}
	if out, err := d.Output(ctx, "timedatectl", "show", "--property=Timezone", "--value"); err == nil {
		if tz := strings.TrimSpace(string(out)); tz != "" {
			return tz
		}
	}
	return environment.DefaultTimezone
}

// detectUser prefers the user behind sudo so that files are owned by the
// person running the wizard.
func detectUser(d Detector) (string, int, int) {
	if name := d.Getenv("SUDO_USER"); name != "" && name != "root" {
		if uid, gid, err := LookupIDs(d, name); err == nil {
			return name, uid, gid
		}
	}
	u, err := d.CurrentUser()
	if err != nil {
		return "", 0, 0
	}
	uid, _ := strconv.Atoi(u.Uid)
	gid, _ := strconv.Atoi(u.Gid)
	return u.Username, uid, gid
}

func detectNetworkIP(ctx context.Context, d Detector) string {
	if out, err := d.Output(ctx, "ip", "route", "get", "1"); err == nil {
		fields := strings.Fields(string(out))
		for i := 0; i+1 < len(fields); i++ {
			if fields[i] == "src" && usableIPv4(fields[i+1]) {
				return fields[i+1]
			}
		}
	}
	if out, err := d.Output(ctx, "hostname", "-I"); err == nil {
		for _, ip := range strings.Fields(string(out)) {
			if usableIPv4(ip) {
				return ip
			}
		}
	}
	return ""
}

func detectBridgeSubnet(ctx context.Context, d Detector) string {
	out, err := d.Output(ctx, "docker", "network", "inspect", "bridge",
		"--format", "{{range .IPAM.Config}}{{.Subnet}} {{end}}")
	if err != nil {
		return ""
	}
	for _, s := range strings.Fields(string(out)) {
		if environment.ValidateSubnet(s) {
			return s
		}
	}
	return ""
}

func usableIPv4(ip string) bool {
	return ip != "" && !strings.Contains(ip, ":") && !strings.HasPrefix(ip, "127.")
}

// DefaultDirs returns the suggested docker and media directories for a
// user's home.
func DefaultDirs(home string) (dockerDir, mediaDir string) {
	if home == "" {
		home = "/srv"
	}
	return filepath.Join(home, "docker"), filepath.Join(home, "media")
}

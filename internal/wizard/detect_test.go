package wizard

import (
	"context"
	"errors"
	"os"
	"os/user"
	"strings"
	"testing"
	"time"

	"github.com/ThomasCrouzet/mediastack/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDetector implements Detector for testing.
type mockDetector struct {
	binaries map[string]bool
	files    map[string]string
	env      map[string]string
	outputs  map[string]string
	users    map[string]*user.User
	current  *user.User
}

func (m *mockDetector) LookPath(name string) (string, error) {
	if m.binaries[name] {
		return "/usr/bin/" + name, nil
	}
	return "", &os.PathError{Op: "lookpath", Path: name, Err: os.ErrNotExist}
}

type fakeFileInfo struct {
	name string
}

func (f fakeFileInfo) Name() string       { return f.name }
func (f fakeFileInfo) Size() int64        { return 0 }
func (f fakeFileInfo) Mode() os.FileMode  { return 0644 }
func (f fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (f fakeFileInfo) IsDir() bool        { return false }
func (f fakeFileInfo) Sys() interface{}   { return nil }

func (m *mockDetector) Stat(path string) (os.FileInfo, error) {
	if _, ok := m.files[path]; ok {
		return fakeFileInfo{name: path}, nil
	}
	return nil, os.ErrNotExist
}

func (m *mockDetector) ReadFile(path string) ([]byte, error) {
	if content, ok := m.files[path]; ok {
		return []byte(content), nil
	}
	return nil, os.ErrNotExist
}

func (m *mockDetector) Getenv(key string) string { return m.env[key] }

func (m *mockDetector) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	key := strings.Join(append([]string{name}, args...), " ")
	if out, ok := m.outputs[key]; ok {
		return []byte(out), nil
	}
	return nil, errors.New("exit status 1")
}

func (m *mockDetector) LookupUser(name string) (*user.User, error) {
	if u, ok := m.users[name]; ok {
		return u, nil
	}
	return nil, user.UnknownUserError(name)
}

func (m *mockDetector) CurrentUser() (*user.User, error) {
	if m.current == nil {
		return nil, errors.New("no current user")
	}
	return m.current, nil
}

const bridgeInspect = "docker network inspect bridge --format {{range .IPAM.Config}}{{.Subnet}} {{end}}"

func TestDetectTimezone(t *testing.T) {
	tests := []struct {
		name string
		d    *mockDetector
		want string
	}{
		{"env", &mockDetector{env: map[string]string{"TZ": ":Europe/Paris"}}, "Europe/Paris"},
		{"etc file", &mockDetector{files: map[string]string{"/etc/timezone": "America/New_York\n"}}, "America/New_York"},
		{
			"timedatectl",
			&mockDetector{outputs: map[string]string{"timedatectl show --property=Timezone --value": "Asia/Tokyo\n"}},
			"Asia/Tokyo",
		},
		{"fallback", &mockDetector{}, "UTC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(context.Background(), tt.d).Timezone)
		})
	}
}

func TestDetectLocalSession(t *testing.T) {
	d := &mockDetector{
		outputs: map[string]string{"ip route get 1": "1.0.0.0 via 192.168.1.1 dev eth0 src 192.168.1.100 uid 1000\n"},
		current: &user.User{Username: "media", Uid: "1000", Gid: "1000"},
	}
	result := Detect(context.Background(), d)

	assert.False(t, result.Remote)
	assert.Equal(t, "192.168.1.100", result.NetworkIP)
	assert.Equal(t, "localhost", result.HostIP())
	assert.Equal(t, "media", result.Username)
	assert.Equal(t, 1000, result.UID)
	assert.False(t, result.DockerAvailable)
	assert.Equal(t, model.DefaultSubnet, result.Subnet)
}

func TestDetectRemoteSession(t *testing.T) {
	d := &mockDetector{
		env: map[string]string{"SSH_CONNECTION": "10.0.0.2 51000 10.0.0.5 22"},
		outputs: map[string]string{
			"hostname -I": "127.0.1.1 fe80::1 10.0.0.5 172.17.0.1\n",
		},
	}
	result := Detect(context.Background(), d)

	assert.True(t, result.Remote)
	assert.Equal(t, "10.0.0.5", result.HostIP())
	assert.Equal(t, "10.0.0.5", result.Facts().HostIP)
}

func TestDetectSudoUser(t *testing.T) {
	d := &mockDetector{
		env:     map[string]string{"SUDO_USER": "alice"},
		users:   map[string]*user.User{"alice": {Username: "alice", Uid: "1001", Gid: "1002"}},
		current: &user.User{Username: "root", Uid: "0", Gid: "0"},
	}
	result := Detect(context.Background(), d)
	assert.Equal(t, "alice", result.Username)
	assert.Equal(t, 1001, result.UID)
	assert.Equal(t, 1002, result.GID)
}

func TestDetectBridgeSubnet(t *testing.T) {
	d := &mockDetector{
		binaries: map[string]bool{"docker": true},
		outputs:  map[string]string{bridgeInspect: "fd00::/64 172.18.0.0/16 \n"},
	}
	result := Detect(context.Background(), d)
	assert.True(t, result.DockerAvailable)
	assert.Equal(t, "172.18.0.0/16", result.Subnet)

	d.outputs[bridgeInspect] = "garbage\n"
	assert.Equal(t, model.DefaultSubnet, Detect(context.Background(), d).Subnet)
}

func TestDetectExistingConfig(t *testing.T) {
	d := &mockDetector{files: map[string]string{"mediastack.yaml": ""}}
	assert.Equal(t, "mediastack.yaml", Detect(context.Background(), d).ExistingConfig)
}

func TestLookupIDs(t *testing.T) {
	d := &mockDetector{users: map[string]*user.User{
		"media": {Uid: "1000", Gid: "1000"},
		"weird": {Uid: "S-1-5-21", Gid: "1000"},
	}}

	uid, gid, err := LookupIDs(d, "media")
	require.NoError(t, err)
	assert.Equal(t, 1000, uid)
	assert.Equal(t, 1000, gid)

	_, _, err = LookupIDs(d, "weird")
	assert.Error(t, err)

	_, _, err = LookupIDs(d, "ghost")
	assert.Error(t, err)
}

func TestDefaultDirs(t *testing.T) {
	docker, media := DefaultDirs("/home/media")
	assert.Equal(t, "/home/media/docker", docker)
	assert.Equal(t, "/home/media/media", media)

	docker, _ = DefaultDirs("")
	assert.Equal(t, "/srv/docker", docker)
}

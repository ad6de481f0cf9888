package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/hoc/internal/executor"
	"github.com/imamik/hoc/internal/resolve"
)

const bootstrapYAML = `
name: bootstrap
target:
  type: remote
  host: node-1
params:
  - name: region
    choices: [fsn1, nbg1]
steps:
  - name: install
    command: apt-get install -y {package}
    inputs:
      - name: package
        cache: true
    sudo: true
  - name: token
    command: cat /etc/token
    outputs: [token]
    success_codes: [0, 2]
  - name: render
    target:
      type: container
      image: alpine:3.20
      mounts:
        - source: /tmp
          target: /work
    template: render-config
    revert: rm -f /work/config
    stdin: "{token}"
`

func TestParseProcedure(t *testing.T) {
	t.Setenv("NODE_PASSWORD", "pw")

	cfg := Default()
	cfg.SSH.PasswordEnv = "NODE_PASSWORD"
	cfg.Container.Mounts = []MountConfig{{Source: "/etc/hoc", Target: "/config", ReadOnly: true}}
	cfg.Hosts = map[string]HostConfig{"node-1": {Address: "10.0.0.1", User: "admin", Port: 2222}}

	proc, err := ParseProcedure([]byte(bootstrapYAML), cfg)
	require.NoError(t, err)

	assert.Equal(t, "bootstrap", proc.Name)
	remote, ok := proc.Target.(executor.RemoteTarget)
	require.True(t, ok)
	assert.Equal(t, "node-1", remote.Host)
	assert.Equal(t, 2222, remote.Port)
	assert.Equal(t, "admin", remote.Credentials.User)
	assert.Equal(t, "pw", remote.Credentials.Password)
	assert.Equal(t, "remote/admin@node-1:2222", remote.Identity())

	assert.Equal(t, []resolve.Input{{Name: "region", Choices: []string{"fsn1", "nbg1"}}}, proc.Params)
	require.Len(t, proc.Steps, 3)
	assert.True(t, proc.Steps[0].Sudo)
	assert.True(t, proc.Steps[0].Inputs[0].Cache)
	assert.Equal(t, []int{0, 2}, proc.Steps[1].SuccessCodes)

	render := proc.Steps[2]
	assert.Equal(t, "render-config", render.Template)
	assert.Equal(t, executor.Containerized("alpine:3.20",
		executor.Mount{Source: "/etc/hoc", Target: "/config", ReadOnly: true},
		executor.Mount{Source: "/tmp", Target: "/work"},
	), render.Target)
}

func TestParseProcedure_DefaultsToLocal(t *testing.T) {
	t.Parallel()

	proc, err := ParseProcedure([]byte("name: p\nsteps:\n  - name: a\n    command: uptime\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, executor.Local(), proc.Target)
}

func TestParseProcedure_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"unknown field", "name: p\nstep: []", "failed to unmarshal procedure"},
		{"unknown target", "name: p\ntarget:\n  type: vm\nsteps:\n  - name: a\n    command: x", `unknown target type "vm"`},
		{"remote without host", "name: p\ntarget:\n  type: remote\nsteps:\n  - name: a\n    command: x", "requires a host"},
		{"no steps", "name: p", "has no steps"},
		{"empty", "", "procedure name is required"},
		{"step target", "name: p\nsteps:\n  - name: a\n    command: x\n    target:\n      type: ftp", `step "a" target`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseProcedure([]byte(tt.data), Default())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadProcedure_ReadsKey(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	keyPath := filepath.Join(dir, "id")
	require.NoError(t, os.WriteFile(keyPath, []byte("PEM"), 0o600))

	path := filepath.Join(dir, "p.yaml")
	data := "name: p\ntarget:\n  type: remote\n  host: 10.0.0.2\n  key_path: " + keyPath + "\nsteps:\n  - name: a\n    command: uptime\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	proc, err := LoadProcedure(path, Default())
	require.NoError(t, err)
	remote := proc.Target.(executor.RemoteTarget)
	assert.Equal(t, []byte("PEM"), remote.Credentials.PrivateKey)
	assert.Equal(t, 22, remote.Port)
	assert.Equal(t, "root", remote.Credentials.User)

	missing := "name: p\ntarget:\n  type: remote\n  host: h\n  key_path: " + filepath.Join(dir, "nope") + "\nsteps:\n  - name: a\n    command: x\n"
	require.NoError(t, os.WriteFile(path, []byte(missing), 0o600))
	_, err = LoadProcedure(path, Default())
	assert.ErrorContains(t, err, "failed to read SSH key")
}

package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/imamik/hoc/internal/platform/s3"
	"github.com/imamik/hoc/internal/procedure"
	"github.com/imamik/hoc/internal/resolve"
	hoctest "github.com/imamik/hoc/internal/testing"
	"github.com/imamik/hoc/internal/util/prerequisites"
)

const deployYAML = `
name: deploy
steps:
  - name: alloc
    command: alloc-ip
    outputs: [ip]
    revert: release-ip {ip}
  - name: configure
    command: configure {ip}
  - name: join
    command: join {ip} {token}
    inputs:
      - name: token
        secret: true
`

func saveAndRestoreFactories(t *testing.T) {
	t.Helper()
	origLoadConfig := loadConfig
	origLoadProcedure := loadProcedure
	origNewExecutor := newExecutor
	origNewArchiveClient := newArchiveClient
	origNewKubeClient := newKubeClient
	origNewTerminal := newTerminal
	origNewPrompter := newPrompter
	origNewRunID := newRunID
	origCheckTools := checkTools
	origGenerateKey := generateKey
	origStdout := stdout
	origStderr := stderr

	t.Cleanup(func() {
		loadConfig = origLoadConfig
		loadProcedure = origLoadProcedure
		newExecutor = origNewExecutor
		newArchiveClient = origNewArchiveClient
		newKubeClient = origNewKubeClient
		newTerminal = origNewTerminal
		newPrompter = origNewPrompter
		newRunID = origNewRunID
		checkTools = origCheckTools
		generateKey = origGenerateKey
		stdout = origStdout
		stderr = origStderr
	})
}

// workspace is a temp directory holding hoc.yaml and deploy.yaml, with the
// executor replaced by a scripted one.
type workspace struct {
	dir       string
	config    string
	procedure string
	exec      *hoctest.ScriptedExecutor
	out       *bytes.Buffer
}

func newWorkspace(t *testing.T, extraConfig string) *workspace {
	t.Helper()
	saveAndRestoreFactories(t)

	dir := t.TempDir()
	w := &workspace{
		dir:       dir,
		config:    filepath.Join(dir, "hoc.yaml"),
		procedure: filepath.Join(dir, "deploy.yaml"),
		exec:      hoctest.NewScriptedExecutor(),
		out:       &bytes.Buffer{},
	}

	cfg := fmt.Sprintf("state_dir: %s\nlog:\n  level: error\n%s", filepath.Join(dir, "state"), extraConfig)
	require.NoError(t, os.WriteFile(w.config, []byte(cfg), 0o600))
	require.NoError(t, os.WriteFile(w.procedure, []byte(deployYAML), 0o600))

	w.exec.Reply("alloc-ip", "[hoc]:out:ip=10.0.0.9\n")

	var mu sync.Mutex
	n := 0
	newRunID = func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("run-%d", n)
	}
	newExecutor = func(*environment) procedure.Executor { return w.exec }
	newTerminal = func() resolve.Terminal { return resolve.Unattended }
	checkTools = func([]prerequisites.Tool) *prerequisites.CheckResults { return &prerequisites.CheckResults{} }
	stdout = w.out
	stderr = io.Discard
	return w
}

func (w *workspace) run(t *testing.T, opts RunOptions) error {
	t.Helper()
	opts.ConfigPath = w.config
	return Run(context.Background(), w.procedure, opts)
}

// memArchive is an in-memory archive bucket.
type memArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
	opts    s3.Options
}

func (m *memArchive) PutObject(_ context.Context, key string, body []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), body...)
	return nil
}

func (m *memArchive) GetObject(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return data, nil
}

func (m *memArchive) ListObjects(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func useMemArchive(t *testing.T) *memArchive {
	t.Helper()
	archive := &memArchive{objects: make(map[string][]byte)}
	newArchiveClient = func(_ context.Context, opts s3.Options) (archiveClient, error) {
		archive.opts = opts
		return archive, nil
	}
	return archive
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michaelbrown/conceptloop/internal/sandbox"
)

// chdir moves into an empty directory so no stray conceptloop.yaml or .env
// is picked up.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdir(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "goja", cfg.Sandbox.Backend)
	assert.Equal(t, 2*time.Second, cfg.Sandbox.Timeout)
	assert.Equal(t, 1024, cfg.Sandbox.MaxCallStack)
	assert.Equal(t, 100, cfg.Sandbox.MaxLogLines)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ":8080", cfg.Addr())

	cat, err := cfg.LoadCatalog()
	require.NoError(t, err)
	assert.NotEmpty(t, cat.Challenges)

	sb, err := cfg.NewSandbox()
	require.NoError(t, err)
	assert.IsType(t, &sandbox.GojaSandbox{}, sb)
}

func TestLoadFile(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "conceptloop.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sandbox:
  timeout: 5s
  max_log_lines: 10
  docker:
    memory: 128m
server:
  port: 9000
log:
  level: debug
`), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Sandbox.Timeout)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)

	p := cfg.Policy()
	assert.Equal(t, 5*time.Second, p.Timeout)
	assert.Equal(t, 10, p.MaxLogLines)
	assert.Equal(t, "128m", p.MaxMemory)
	assert.Equal(t, "node:22-slim", p.Image)
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CONCEPTLOOP_SERVER_PORT=7000\n"), 0o644))
	t.Setenv("CONCEPTLOOP_SANDBOX_TIMEOUT", "750ms")
	t.Cleanup(func() { os.Unsetenv("CONCEPTLOOP_SERVER_PORT") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 750*time.Millisecond, cfg.Sandbox.Timeout)
	assert.Equal(t, 7000, cfg.Server.Port)
}

func TestLoadErrors(t *testing.T) {
	dir := chdir(t)

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("sandbox:\n  backend: wasm\n"), 0o644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "unknown sandbox backend")

	neg := filepath.Join(dir, "neg.yaml")
	require.NoError(t, os.WriteFile(neg, []byte("sandbox:\n  timeout: -1s\n"), 0o644))
	_, err = Load(neg)
	assert.ErrorContains(t, err, "timeout must be positive")
}

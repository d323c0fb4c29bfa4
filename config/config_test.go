package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xdao.co/xsdhash/digest"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, Default().HTTPAddr, cfg.HTTPAddr)
	assert.Equal(t, digest.SHA1, cfg.DigestAlgorithm())
	require.Len(t, cfg.Storage.Backends, 1)
	assert.Equal(t, "memory", cfg.Storage.Backends[0].Name)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, "xsdhash.yaml", `
http_addr: ":9000"
algorithm: sha256
log_level: debug
storage:
  write_policy: all
  algorithm: sha256
  backends:
    - name: localfs
      config:
        localfs-dir: /tmp/x
        localfs-alg: sha256
    - name: memory
      config:
        memory-alg: sha256
`)
	cfg, err := Load(path, filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, Default().GRPCAddr, cfg.GRPCAddr)
	assert.Equal(t, digest.SHA256, cfg.DigestAlgorithm())
	assert.Equal(t, "all", cfg.Storage.WritePolicy)
	assert.Len(t, cfg.Storage.Backends, 2)
}

func TestLoad_EnvOverrides(t *testing.T) {
	env := writeFile(t, ".env", "XSDHASH_GRPC_ADDR=:7001\n")
	t.Cleanup(func() { os.Unsetenv("XSDHASH_GRPC_ADDR") })
	t.Setenv("XSDHASH_HTTP_ADDR", ":8001")
	t.Setenv("XSDHASH_STORAGE_DIR", "/srv/schemas")

	cfg, err := Load("", env)
	require.NoError(t, err)
	assert.Equal(t, ":8001", cfg.HTTPAddr)
	assert.Equal(t, ":7001", cfg.GRPCAddr)
	require.Len(t, cfg.Storage.Backends, 1)
	assert.Equal(t, "localfs", cfg.Storage.Backends[0].Name)
	assert.Equal(t, "/srv/schemas", cfg.Storage.Backends[0].Config["localfs-dir"])
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(writeFile(t, "a.yaml", "algorithm: md5\n"))
	assert.Error(t, err)
	_, err = Load(writeFile(t, "b.yaml", "log_level: loud\n"))
	assert.Error(t, err)
	_, err = Load(writeFile(t, "c.yaml", "http_addr: [\n"))
	assert.Error(t, err)
	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.LogLevel = "warn"
	log := cfg.NewLogger(&buf)
	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultPopulatesSaneValues(t *testing.T) {
	cfg := Default()
	require.Equal(t, "local", cfg.Mode)
	require.NotEmpty(t, cfg.Storage.WorkspaceRoot)
	require.Greater(t, cfg.Seed.LockTimeout.Seconds(), 0.0)
	require.Greater(t, cfg.Seed.StaleLockAge.Seconds(), cfg.Seed.LockTimeout.Seconds())
	require.Equal(t, 4, cfg.QueryEngine.ConnectionPoolSize)
	require.Equal(t, int64(512), cfg.QueryEngine.MemoryLimitMB)
	require.Equal(t, 300, cfg.Hub.CacheTTLDefault)
}

func TestLoadWithoutConfigFileFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, "local", cfg.Mode)
}

func TestApplyEnvOverridesWorkspaceRoot(t *testing.T) {
	t.Setenv("DEVAC_WORKSPACE_ROOT", "/tmp/devac-workspace")
	cfg := Default()
	applyEnvOverrides(cfg)
	require.Equal(t, "/tmp/devac-workspace", cfg.Storage.WorkspaceRoot)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := Default()
	cfg.Hub.DBPath = filepath.Join(dir, "central.duckdb")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.Hub.DBPath, loaded.Hub.DBPath)
}

func TestExpandPathTilde(t *testing.T) {
	require.NotContains(t, expandPath("~/devac"), "~")
	require.Equal(t, "/abs/path", expandPath("/abs/path"))
}

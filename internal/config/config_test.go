package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_PopulatesEveryMajorSection(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "bolt://localhost:7687", cfg.GraphStore.URI)
	assert.Equal(t, 768, cfg.VectorStore.Dimension)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
	assert.NotEmpty(t, cfg.Broker.URL)
	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, 20, cfg.Query.DefaultSearchTopK)
	assert.Equal(t, "file", cfg.Visualization.ViewModeDefault)
	assert.True(t, cfg.Analyzer.ExecutionEnabled)
	assert.Contains(t, cfg.Analyzer.ImportWhitelist, "math")
}

func TestLoad_NoPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().GraphStore.URI, cfg.GraphStore.URI)
}

func TestLoad_YAMLFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
graph_store:
  uri: bolt://custom-host:7687
query:
  default_search_top_k: 42
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "bolt://custom-host:7687", cfg.GraphStore.URI)
	assert.Equal(t, 42, cfg.Query.DefaultSearchTopK)
	// Unset fields still carry their defaults.
	assert.Equal(t, "neo4j", cfg.GraphStore.Username)
}

func TestLoad_MissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverridesTakePrecedenceOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("graph_store:\n  uri: bolt://from-file:7687\n"), 0o644))

	t.Setenv("NEO4J_URI", "bolt://from-env:7687")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "bolt://from-env:7687", cfg.GraphStore.URI)
}

func TestExpandPath_ExpandsLeadingTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "sessions"), expandPath("~/sessions"))
}

func TestExpandPath_LeavesAbsolutePathUntouched(t *testing.T) {
	assert.Equal(t, "/var/lib/sessions", expandPath("/var/lib/sessions"))
}

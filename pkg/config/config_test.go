package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/datamap/pkg/cache"
	"github.com/coolbeans/datamap/pkg/label"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("HOME", filepath.Join(dir, "home"))
	t.Chdir(dir)
	return dir
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	endpoint, err := cfg.SelectedEndpoint()
	require.NoError(t, err)
	assert.Equal(t, "https://triplestore.lavbic.net/pz", endpoint)
	assert.Equal(t, label.Slovenian, cfg.LabelLanguage())
	assert.True(t, cfg.DisplaySchema)
	assert.Len(t, cfg.HiddenURIs(), 12)
	assert.NotContains(t, cfg.HiddenURIs(), "http://www.w3.org/ns/csvw#Column")
}

func TestInitializeAndLoad(t *testing.T) {
	dir := isolate(t)

	created, err := Initialize(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName), created.Path())

	_, err = Initialize(dir)
	assert.Error(t, err, "existing file is not overwritten")

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, created.Endpoints, loaded.Endpoints)
	assert.Equal(t, created.HiddenConcepts, loaded.HiddenConcepts)
	assert.Equal(t, created.Client, loaded.Client)
	assert.Equal(t, created.Cache, loaded.Cache)
}

func TestFind_WalksParents(t *testing.T) {
	dir := isolate(t)
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	_, err := Initialize(dir)
	require.NoError(t, err)

	t.Chdir(nested)
	path, err := Find()
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(filepath.Join(dir, FileName))
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFind_UserConfigDir(t *testing.T) {
	dir := isolate(t)
	userConfig, err := os.UserConfigDir()
	require.NoError(t, err)
	target := filepath.Join(userConfig, UserDir)
	require.NoError(t, os.MkdirAll(target, 0755))
	_, err = Initialize(target)
	require.NoError(t, err)

	t.Chdir(dir)
	path, err := Find()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(target, FileName), path)
}

func TestLoad_NoConfig(t *testing.T) {
	isolate(t)

	_, err := Load()
	assert.ErrorIs(t, err, ErrNoConfig)
}

func TestLoadFile_OverridesDefaults(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, FileName)
	content := `
language = "en"
instance_graph = "http://example.org/graph/a"

[endpoints]
selected = "local"

[client]
timeout = "15s"
rate_limit = "250ms"

[cache]
kind = "sqlite"
path = "cache/responses.db"
ttl = "1h"

[[hidden_concepts]]
uri = "http://example.org/onto#Secret"
hidden = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, label.English, cfg.LabelLanguage())
	assert.Equal(t, "http://example.org/graph/a", cfg.InstanceGraph)
	assert.True(t, cfg.DisplaySchema, "unset keys keep their defaults")

	endpoint, err := cfg.SelectedEndpoint()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3030/pz", endpoint)

	assert.Equal(t, []string{"http://example.org/onto#Secret"}, cfg.HiddenURIs())
	assert.Len(t, cfg.HighlightConcepts, 4, "lists missing from the file keep their defaults")

	clientConfig, err := cfg.ClientConfig()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, clientConfig.Timeout)
	assert.Equal(t, 250*time.Millisecond, clientConfig.RateLimit)
	assert.Equal(t, "http://localhost:3030/pz", clientConfig.Endpoint)

	cacheConfig := cfg.CacheConfig()
	assert.Equal(t, cache.KindSQLite, cacheConfig.Kind)
	assert.Equal(t, filepath.Join(dir, "cache", "responses.db"), cacheConfig.Path)
	assert.Equal(t, time.Hour, cacheConfig.TTL)
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[client]\ntimeout = \"soon\"\n"), 0644))
	_, err = LoadFile(bad)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unsupported language", func(c *Config) { c.Language = "de" }},
		{"unknown endpoint", func(c *Config) { c.Endpoints.Selected = "staging" }},
		{"invalid endpoint url", func(c *Config) { c.Endpoints.URLs["remote"] = "not a url" }},
		{"unknown cache kind", func(c *Config) { c.Cache.Kind = "redis" }},
		{"bolt without path", func(c *Config) { c.Cache.Kind = "bolt" }},
		{"negative rate limit", func(c *Config) { c.Client.RateLimit = Duration(-time.Second) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestOverrideEndpoint(t *testing.T) {
	cfg := Default()
	cfg.Endpoints.Selected = "local"
	cfg.OverrideEndpoint("http://example.org/sparql")

	endpoint, err := cfg.SelectedEndpoint()
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/sparql", endpoint)
}

func TestSetHidden(t *testing.T) {
	cfg := Default()
	cfg.SetHidden("http://www.w3.org/ns/csvw#Column", true)
	cfg.SetHidden("http://www.w3.org/ns/prov#Agent", false)
	cfg.SetHidden("http://example.org/onto#New", true)

	hidden := cfg.HiddenURIs()
	assert.Contains(t, hidden, "http://www.w3.org/ns/csvw#Column")
	assert.NotContains(t, hidden, "http://www.w3.org/ns/prov#Agent")
	assert.Contains(t, hidden, "http://example.org/onto#New")
	assert.Len(t, cfg.HiddenConcepts, 14)
}

func TestSave_RequiresPath(t *testing.T) {
	assert.Error(t, Default().Save())
}

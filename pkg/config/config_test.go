package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestDecodeOverlaysDefaults(t *testing.T) {
	cfg, err := Decode(strings.NewReader(`
version: "1"
api:
  base_url: http://localhost:9000/v1
  token: secret
listing:
  page_size: 50
preview:
  resize_debounce: 100ms
`))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/v1", cfg.API.BaseURL)
	assert.Equal(t, "secret", cfg.API.Token)
	assert.Equal(t, "rw", cfg.API.Application)
	assert.Equal(t, 50, cfg.Listing.PageSize)
	assert.Equal(t, 30*time.Second, cfg.Listing.CacheTTL)
	assert.Equal(t, 100*time.Millisecond, cfg.Preview.ResizeDebounce)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestDecodeRejectsUnknownKeysAndVersions(t *testing.T) {
	_, err := Decode(strings.NewReader("version: \"1\"\nserver:\n  port: 80\n"))
	require.Error(t, err)

	_, err = Decode(strings.NewReader("version: \"2\"\n"))
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(env(map[string]string{
		"RWADMIN_API_TOKEN":       " abc ",
		"RWADMIN_PAGE_SIZE":       "10",
		"RWADMIN_SEARCH_DEBOUNCE": "1s",
		"RWADMIN_DRAFTS_PATH":     "/tmp/drafts.db",
		"RWADMIN_PROMPT_TTL":      "30s",
	}))
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.API.Token)
	assert.Equal(t, 10, cfg.Listing.PageSize)
	assert.Equal(t, time.Second, cfg.Listing.SearchDebounce)
	assert.Equal(t, "/tmp/drafts.db", cfg.Drafts.Path)
	assert.Equal(t, 30*time.Second, cfg.Server.PromptTTL)

	err = cfg.ApplyEnv(env(map[string]string{"RWADMIN_PAGE_SIZE": "ten"}))
	assert.ErrorContains(t, err, "RWADMIN_PAGE_SIZE")
	err = cfg.ApplyEnv(env(map[string]string{"RWADMIN_API_TIMEOUT": "soon"}))
	assert.ErrorContains(t, err, "RWADMIN_API_TIMEOUT")
}

func TestValidate(t *testing.T) {
	require.NoError(t, Default().Validate())

	cfg := Default()
	cfg.Listing.PageSize = 0
	cfg.API.BaseURL = ""
	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalid)
	assert.ErrorContains(t, err, "listing.page_size")
	assert.ErrorContains(t, err, "api.base_url")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rwadmin.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"1\"\nserver:\n  addr: \":9090\"\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, path, cfg.Source)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

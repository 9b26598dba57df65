package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadClient(t *testing.T) {
	t.Setenv("TRACKER_HOST", "tracker.example.com")
	path := filepath.Join(t.TempDir(), "trackerctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_url: https://${TRACKER_HOST}
redis_addr: redis:6379
redis_db: 2
session_file: /tmp/session.yaml
`), 0o644))

	cfg, err := LoadClient(path)
	require.NoError(t, err)
	assert.Equal(t, "https://tracker.example.com", cfg.APIURL)
	assert.Equal(t, 2, cfg.RedisDB)

	assert.Equal(t, "https://tracker.example.com", cfg.GetAPIURL(nil))
	assert.Equal(t, "http://override", cfg.GetAPIURL(&ClientFlags{APIURL: "http://override"}))
	assert.Equal(t, "redis:6379", cfg.GetRedisAddr(&ClientFlags{}))
	assert.Equal(t, "/tmp/session.yaml", cfg.GetSessionFile(nil))
}

func TestClientConfigDefaults(t *testing.T) {
	cfg := &ClientConfig{}
	assert.Equal(t, "http://localhost:5000", cfg.GetAPIURL(nil))
	assert.Equal(t, "localhost:6379", cfg.GetRedisAddr(nil))
	assert.NotEmpty(t, cfg.GetSessionFile(nil))
}

func TestLoadClientErrors(t *testing.T) {
	_, err := LoadClient(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: [unclosed"), 0o644))
	_, err = LoadClient(path)
	assert.Error(t, err)
}

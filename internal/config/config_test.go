package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("HOME", dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Poll.Interval)
	assert.Equal(t, 19*time.Minute, cfg.Poll.Window)
	assert.EqualValues(t, 100, cfg.Import.StartingID)
	assert.EqualValues(t, 3, cfg.Contacts.DeleteStartID)
	assert.Equal(t, filepath.Join(cfg.DataDir, "wavechat.log"), cfg.Log.File)
	assert.Equal(t, filepath.Join(cfg.DataDir, "storage.db"), cfg.StoragePath())
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("HOME", dir)

	yml := "api:\n  base_url: http://chat.example.com/\npoll:\n  interval: 5s\nuser_id: 12\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yml), 0644))
	t.Setenv("WAVECHAT_USER_ID", "42")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://chat.example.com", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Poll.Interval)
	assert.EqualValues(t, 42, cfg.UserID)
}

func TestValidate(t *testing.T) {
	cfg := Config{
		API:  APIConfig{BaseURL: "http://x", Timeout: time.Second},
		Poll: PollConfig{Interval: time.Minute, Window: time.Second},
	}
	assert.Error(t, cfg.Validate())

	cfg.Poll.Window = time.Hour
	assert.NoError(t, cfg.Validate())

	cfg.Poll.Interval = 0
	assert.Error(t, cfg.Validate())
}

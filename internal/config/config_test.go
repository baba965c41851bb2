package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "trznica.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 3*time.Second, cfg.ConfirmWindow)
	assert.Equal(t, 7*24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 800, cfg.Images.MaxWidth)
	assert.Equal(t, 5, cfg.Images.MaxImages)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
addr: ":9000"
timezone: UTC
confirm_window: 5s
site:
  title: Tržnica
session:
  ttl: 24h
  redis_addr: localhost:6379
images:
  quality: 80
mirror:
  url: https://mirror.example.com
  serve: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 5*time.Second, cfg.ConfirmWindow)
	assert.Equal(t, "Tržnica", cfg.Site.Title)
	assert.Equal(t, "+ Add listing", cfg.Site.AddButton, "unset keys keep defaults")
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "localhost:6379", cfg.Session.RedisAddr)
	assert.Equal(t, 80, cfg.Images.Quality)
	assert.Equal(t, 30, cfg.Images.MinQuality)
	assert.True(t, cfg.Mirror.Serve)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "addr: [unclosed"},
		{"bad timezone", "timezone: Mars/Olympus"},
		{"bad driver", "mirror:\n  driver: oracle"},
		{"mysql without dsn", "mirror:\n  driver: mysql"},
		{"bad quality", "images:\n  quality: 20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, t.TempDir(), tt.content))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLiveSite(t *testing.T) {
	live := NewLiveSite(Site{Title: "a"})
	assert.Equal(t, "a", live.Get().Title)
	live.Set(Site{Title: "b"})
	assert.Equal(t, "b", live.Get().Title)
}

func TestWatchReloadsSite(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "site:\n  title: Before\n")

	live := NewLiveSite(Site{Title: "Before"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, path, live) }()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("site:\n  title: After\n"), 0o644))

	assert.Eventually(t, func() bool { return live.Get().Title == "After" }, 5*time.Second, 20*time.Millisecond)

	// A broken file keeps the previous texts.
	require.NoError(t, os.WriteFile(path, []byte("site: [broken"), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, "After", live.Get().Title)

	cancel()
	assert.NoError(t, <-done)
}

func TestLoadEmptyFile(t *testing.T) {
	_, err := Load(writeConfig(t, t.TempDir(), "  \n"))
	assert.Error(t, err)
}

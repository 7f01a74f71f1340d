package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the state directory at a temp dir so the user's own
// config never leaks into a test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CRMDASH_HOME", dir)
	return dir
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
}

func TestLoadDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, SourceSQLite, cfg.Source)
	assert.Equal(t, filepath.Join(home, "crmdash.db"), cfg.DB.Path)
	assert.Equal(t, []int{10, 25, 50}, cfg.UI.PageSizes)
	assert.Equal(t, "admin", cfg.UI.Role)
	assert.Equal(t, 60000, cfg.UI.RefreshIntervalMs)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, "/webhook/crm/quick-stats", cfg.API.Endpoints.Stats)
	assert.Empty(t, cfg.File)
}

func TestLoadPrecedence(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "config.yaml")
	writeFile(t, path, `
source: api
api:
  base_url: https://n8n.example.com/
  timeout: 5s
ui:
  role: marketing
  page_sizes: [20, 40]
log:
  level: debug
`)

	t.Run("file over defaults", func(t *testing.T) {
		cfg, err := Load("", nil)
		require.NoError(t, err)
		assert.Equal(t, path, cfg.File)
		assert.Equal(t, SourceAPI, cfg.Source)
		assert.Equal(t, "https://n8n.example.com", cfg.API.BaseURL)
		assert.Equal(t, 5*time.Second, cfg.API.Timeout)
		assert.Equal(t, []int{20, 40}, cfg.UI.PageSizes)
		assert.Equal(t, 120000, cfg.UI.RefreshIntervalMs, "marketing role default")
	})

	t.Run("env over file", func(t *testing.T) {
		t.Setenv("CRMDASH_LOG__LEVEL", "warn")
		t.Setenv("CRMDASH_UI__PAGE_SIZES", "5,15")
		t.Setenv("CRMDASH_UI__REFRESH_INTERVAL_MS", "15000")
		cfg, err := Load("", nil)
		require.NoError(t, err)
		assert.Equal(t, "warn", cfg.Log.Level)
		assert.Equal(t, []int{5, 15}, cfg.UI.PageSizes)
		assert.Equal(t, 15000, cfg.UI.RefreshIntervalMs)
	})

	t.Run("flags over env", func(t *testing.T) {
		t.Setenv("CRMDASH_LOG__LEVEL", "warn")
		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.String("log-level", "info", "")
		flags.String("role", "admin", "")
		flags.Bool("unrelated", false, "")
		require.NoError(t, flags.Parse([]string{"--log-level=error", "--unrelated"}))

		cfg, err := Load("", flags)
		require.NoError(t, err)
		assert.Equal(t, "error", cfg.Log.Level)
		assert.Equal(t, "marketing", cfg.UI.Role, "unchanged flags do not override")
	})
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown source", env: map[string]string{"CRMDASH_SOURCE": "mysql"}},
		{name: "api without base url", env: map[string]string{"CRMDASH_SOURCE": "api"}},
		{name: "postgres without url", env: map[string]string{"CRMDASH_SOURCE": "postgres"}},
		{name: "negative interval", env: map[string]string{"CRMDASH_UI__REFRESH_INTERVAL_MS": "-1"}},
		{name: "zero page size", env: map[string]string{"CRMDASH_UI__PAGE_SIZES": "10,0"}},
		{name: "bucket without region", env: map[string]string{"CRMDASH_EXPORT__S3__BUCKET": "exports"}},
		{name: "unknown role", env: map[string]string{"CRMDASH_UI__ROLE": "intern"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("", nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	home := isolate(t)
	_, err := Load(filepath.Join(home, "nope.yaml"), nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalid)
}

func TestSaveFileRoundTrip(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "nested", "config.yaml")

	require.NoError(t, SaveFile(path, map[string]any{
		"source":       SourceAPI,
		"api.base_url": "https://n8n.example.com",
		"api.token":    "secret",
	}))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, SourceAPI, cfg.Source)
	assert.Equal(t, "secret", cfg.API.Token)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestWatchReloads(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "config.yaml")
	writeFile(t, path, "ui:\n  refresh_interval_ms: 30000\n")

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu   sync.Mutex
		seen []int
	)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, cfg, nil, zerolog.Nop(), func(next *Config) {
			mu.Lock()
			seen = append(seen, next.UI.RefreshIntervalMs)
			mu.Unlock()
		})
	}()

	// Give the watcher time to register before editing.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, path, "ui:\n  refresh_interval_ms: 15000\n")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0 && seen[len(seen)-1] == 15000
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

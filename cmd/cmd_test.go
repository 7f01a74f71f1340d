package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crmdash/internal/config"
	"crmdash/internal/source"
	"crmdash/internal/table"
)

// runCmd executes the root command with an isolated home directory.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgFile = ""
	root := NewRootCmd("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func sqliteEnv(t *testing.T) []string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("CRMDASH_HOME", home)
	t.Chdir(t.TempDir())
	return []string{"--source", "sqlite", "--db", filepath.Join(home, "test.db"), "--log-level", "error"}
}

func TestSeedListAndExport(t *testing.T) {
	base := sqliteEnv(t)

	out, err := runCmd(t, append(base, "seed", "--count", "6")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 6 customers, 6 leads, 3 escalations")

	out, err = runCmd(t, append(base, "list", "customers", "--page-size", "5")...)
	require.NoError(t, err)
	assert.Contains(t, out, "NAMA")
	assert.Contains(t, out, "1-5 of 6  ·  page 1/2")

	out, err = runCmd(t, append(base, "list", "customers", "--format", "csv")...)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 7)
	assert.True(t, strings.HasPrefix(lines[0], `"Nama"`))

	dir := t.TempDir()
	out, err = runCmd(t, append(base, "--export-dir", dir, "export", "customers")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 6 rows to "+dir)
	files, err := filepath.Glob(filepath.Join(dir, "customers-*.csv"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestListRejectsBadArguments(t *testing.T) {
	base := sqliteEnv(t)

	_, err := runCmd(t, append(base, "list", "visits")...)
	assert.Error(t, err)

	_, err = runCmd(t, append(base, "list", "leads", "--filter", "bogus")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown filter")

	_, err = runCmd(t, append(base, "list", "leads", "--sort", "score:sideways")...)
	assert.Error(t, err)

	_, err = runCmd(t, append(base, "list", "leads", "--format", "xml")...)
	assert.Error(t, err)
}

func TestMigrateReportsVersion(t *testing.T) {
	base := sqliteEnv(t)
	out, err := runCmd(t, append(base, "migrate")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Database is at version 2")
}

func TestSeedNeedsDatabaseSource(t *testing.T) {
	sqliteEnv(t)
	_, err := runCmd(t, "--source", "api", "--api-url", "https://n8n.example.com", "seed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no database")
}

func TestParseSort(t *testing.T) {
	key, dir, err := parseSort("score:desc")
	require.NoError(t, err)
	assert.Equal(t, "score", key)
	assert.Equal(t, table.Desc, dir)

	key, dir, err = parseSort("name")
	require.NoError(t, err)
	assert.Equal(t, "name", key)
	assert.Equal(t, table.Asc, dir)

	_, _, err = parseSort("name:up")
	assert.Error(t, err)
}

func TestCheckSource(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"total_customers": 3}`))
	}))
	defer srv.Close()

	client := source.NewClient(config.APIConfig{
		BaseURL: srv.URL,
		Timeout: time.Second,
		Endpoints: config.Endpoints{
			Customers:   "/customers",
			Leads:       "/leads",
			Stats:       "/stats",
			Escalations: "/escalations",
			Campaigns:   "/campaigns",
		},
	}, zerolog.Nop())

	assert.NoError(t, checkSource(context.Background(), client, zerolog.Nop()))
	healthy.Store(false)
	assert.Error(t, checkSource(context.Background(), client, zerolog.Nop()))
}

func press(t *testing.T, m onboardingModel, keys ...string) (onboardingModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, c := m.Update(msg)
		m, cmd = next.(onboardingModel), c
	}
	return m, cmd
}

func TestOnboardingSQLiteFlow(t *testing.T) {
	m, _ := press(t, newOnboardingModel(), "enter")
	assert.Equal(t, stepRole, m.step)

	m, cmd := press(t, m, "j", "enter")
	assert.Equal(t, stepDone, m.step)
	assert.NotNil(t, cmd)
	assert.False(t, m.canceled)

	values := m.values()
	assert.Equal(t, config.SourceSQLite, values["source"])
	assert.Equal(t, "customer_service", values["ui.role"])
	assert.Equal(t, 30000, values["ui.refresh_interval_ms"])
	assert.NotContains(t, values, "api.base_url")
}

func TestOnboardingAPIFlowValidatesURL(t *testing.T) {
	m, _ := press(t, newOnboardingModel(), "down", "enter")
	require.Equal(t, stepURL, m.step)

	m, _ = press(t, m, "n", "o", "p", "e", "enter")
	assert.Equal(t, stepURL, m.step)
	assert.NotEmpty(t, m.err)

	m.urlInput.SetValue("https://n8n.example.com/")
	m, _ = press(t, m, "enter")
	assert.Equal(t, stepRole, m.step)
	assert.Empty(t, m.err)

	m, _ = press(t, m, "esc")
	assert.Equal(t, stepURL, m.step, "back from role returns to the URL")

	m, _ = press(t, m, "enter", "enter")
	values := m.values()
	assert.Equal(t, config.SourceAPI, values["source"])
	assert.Equal(t, "https://n8n.example.com", values["api.base_url"])
	assert.Equal(t, "admin", values["ui.role"])
}

func TestOnboardingCancel(t *testing.T) {
	m, cmd := press(t, newOnboardingModel(), "q")
	assert.True(t, m.canceled)
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Setup canceled")
}

func TestFinishOnboardingWritesConfigAndSeeds(t *testing.T) {
	home := t.TempDir()
	t.Setenv("CRMDASH_HOME", home)

	path, err := finishOnboarding(context.Background(), home, map[string]any{
		"source":  config.SourceSQLite,
		"ui.role": "marketing",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "config.yaml"), path)

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "marketing", cfg.UI.Role)
	assert.Equal(t, 120000, cfg.UI.RefreshIntervalMs)

	_, err = os.Stat(filepath.Join(home, "crmdash.db"))
	assert.NoError(t, err)

	settings, err := loadOnboardingSettings(home)
	require.NoError(t, err)
	assert.True(t, settings.Completed)
	assert.False(t, shouldRunOnboarding())
}

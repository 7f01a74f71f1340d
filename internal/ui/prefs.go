package ui

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"crmdash/internal/config"
)

// TablePrefs stores per-table UI preferences.
type TablePrefs struct {
	SortKey       string   `json:"sort_key,omitempty"`
	SortDesc      bool     `json:"sort_desc,omitempty"`
	PageSize      int      `json:"page_size,omitempty"`
	HiddenColumns []string `json:"hidden_columns,omitempty"`
	ActiveColumn  string   `json:"active_column,omitempty"`
}

// UIPreferences stores persisted app preferences, keyed by table ID.
type UIPreferences struct {
	Tables            map[string]TablePrefs `json:"tables"`
	RefreshIntervalMs *int                  `json:"refresh_interval_ms,omitempty"`
}

func defaultUIPreferences() UIPreferences {
	return UIPreferences{Tables: map[string]TablePrefs{}}
}

// DefaultPrefsPath returns the preferences file inside the crmdash home.
func DefaultPrefsPath() (string, error) {
	home, err := config.HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "ui_prefs.json"), nil
}

// loadUIPreferences reads path. Missing or unreadable files yield defaults.
func loadUIPreferences(path string) UIPreferences {
	if path == "" {
		return defaultUIPreferences()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return defaultUIPreferences()
	}

	var prefs UIPreferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		return defaultUIPreferences()
	}
	if prefs.Tables == nil {
		prefs.Tables = map[string]TablePrefs{}
	}
	return prefs
}

func saveUIPreferences(path string, prefs UIPreferences) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create prefs dir: %w", err)
	}

	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal prefs: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write prefs: %w", err)
	}
	return nil
}

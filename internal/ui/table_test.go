package ui

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crmdash/internal/model"
	"crmdash/internal/table"
)

func loadedTable(t *testing.T) (*testEnv, *TableModel) {
	t.Helper()
	env := newEnv(t)
	env.dash.RefreshAll(context.Background())
	env.dash.SyncAll()
	return env, NewTableModel(env.dash.Customers)
}

func TestTableHideAndShowColumns(t *testing.T) {
	_, tm := loadedTable(t)

	require.True(t, tm.HideActiveColumn())
	assert.Equal(t, []string{"name"}, tm.Prefs().HiddenColumns)
	assert.Equal(t, "phone", tm.Prefs().ActiveColumn, "active column moves off the hidden one")

	tm.ShowAllColumns()
	assert.Empty(t, tm.Prefs().HiddenColumns)
}

func TestTableKeepsOneVisibleColumn(t *testing.T) {
	_, tm := loadedTable(t)
	cols := tm.Grid().Columns()
	for range cols[1:] {
		require.True(t, tm.HideActiveColumn())
	}
	assert.False(t, tm.HideActiveColumn())
	assert.Len(t, tm.Prefs().HiddenColumns, len(cols)-1)
}

func TestTableApplyPrefs(t *testing.T) {
	_, tm := loadedTable(t)
	tm.ApplyPrefs(TablePrefs{
		SortKey:       "name",
		SortDesc:      true,
		PageSize:      5,
		HiddenColumns: []string{"email"},
		ActiveColumn:  "email",
	})

	key, dir := tm.Grid().Sort()
	assert.Equal(t, "name", key)
	assert.Equal(t, table.Desc, dir)
	assert.Equal(t, 5, tm.Grid().PageSize())
	assert.Equal(t, "name", tm.Prefs().ActiveColumn, "hidden active column falls back to the first visible one")
	assert.Equal(t, "Siti Rahma", tm.Grid().Rows()[0][0])
}

func TestTableColumnNavigation(t *testing.T) {
	_, tm := loadedTable(t)
	tm.ApplyPrefs(TablePrefs{HiddenColumns: []string{"phone"}})

	tm.NextColumn()
	assert.Equal(t, "email", tm.Prefs().ActiveColumn)
	tm.PrevColumn()
	assert.Equal(t, "name", tm.Prefs().ActiveColumn)
	tm.PrevColumn()
	assert.Equal(t, "response_time", tm.Prefs().ActiveColumn)

	assert.False(t, tm.JumpToColumn(2), "hidden")
	assert.False(t, tm.JumpToColumn(42))
	assert.True(t, tm.JumpToColumn(3))
	assert.Equal(t, "email", tm.Prefs().ActiveColumn)
}

func TestTableEmptyStates(t *testing.T) {
	env := newEnv(t)
	tm := NewTableModel(env.dash.Leads)
	assert.Contains(t, tm.View(100, 10), "Belum ada data.")

	env.dash.RefreshAll(context.Background())
	env.dash.SyncAll()
	tm.Grid().SetSearch("zzz")
	assert.Contains(t, tm.View(100, 10), "Tidak ada data yang cocok.")
}

func TestTableViewMarksSortAndStatus(t *testing.T) {
	_, tm := loadedTable(t)
	tm.SortActiveColumn(true)

	view := tm.View(160, 12)
	assert.Contains(t, view, "▸NAMA ↓")
	assert.Contains(t, view, "1-2 dari 3")
	assert.Contains(t, view, "page 1/2")
}

func TestPrefsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ui_prefs.json")
	interval := 60000
	prefs := UIPreferences{
		Tables:            map[string]TablePrefs{string(model.ResourceLeads): {SortKey: "score", SortDesc: true, PageSize: 25}},
		RefreshIntervalMs: &interval,
	}
	require.NoError(t, saveUIPreferences(path, prefs))
	assert.Equal(t, prefs, loadUIPreferences(path))
}

func TestPrefsFallBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, defaultUIPreferences(), loadUIPreferences(filepath.Join(dir, "missing.json")))

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte("{not json"), 0644))
	assert.Equal(t, defaultUIPreferences(), loadUIPreferences(broken))

	assert.NoError(t, saveUIPreferences("", defaultUIPreferences()), "empty path disables persistence")
}

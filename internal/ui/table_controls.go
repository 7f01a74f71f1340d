package ui

import "crmdash/internal/dashboard"

type tableController interface {
	Grid() dashboard.Grid
	NextColumn()
	PrevColumn()
	JumpToColumn(number int) bool
	ToggleSortActiveColumn() string
	SortActiveColumn(desc bool) string
	HideActiveColumn() bool
	ShowAllColumns()
	TableMeta() string
	Prefs() TablePrefs
	Reset()
	Refreshed()
	MoveUp()
	MoveDown()
	JumpToTop()
	JumpToBottom()
	Cursor() int
	View(width, height int) string
}

var _ tableController = (*TableModel)(nil)

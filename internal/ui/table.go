package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"crmdash/internal/dashboard"
	"crmdash/internal/table"
	"crmdash/internal/util"
)

// TableModel renders one dashboard grid and keeps the cursor, active column
// and hidden columns. Filtering, sorting and paging live in the grid.
type TableModel struct {
	grid dashboard.Grid

	cursor int
	offset int

	viewportHeight int

	hidden       map[string]bool
	activeColumn int
}

// NewTableModel wraps grid.
func NewTableModel(grid dashboard.Grid) *TableModel {
	return &TableModel{grid: grid, hidden: map[string]bool{}}
}

// Grid returns the wrapped grid.
func (m *TableModel) Grid() dashboard.Grid { return m.grid }

// Cursor returns the row index within the current page.
func (m *TableModel) Cursor() int { return m.cursor }

// ApplyPrefs restores sort, page size, hidden and active columns.
func (m *TableModel) ApplyPrefs(prefs TablePrefs) {
	if prefs.SortKey != "" {
		dir := table.Asc
		if prefs.SortDesc {
			dir = table.Desc
		}
		m.grid.SetSort(prefs.SortKey, dir)
	}
	if prefs.PageSize > 0 {
		m.grid.SetPageSize(prefs.PageSize)
	}
	m.hidden = make(map[string]bool, len(prefs.HiddenColumns))
	for _, key := range prefs.HiddenColumns {
		m.hidden[key] = true
	}
	if prefs.ActiveColumn != "" {
		for i, c := range m.grid.Columns() {
			if c.Key == prefs.ActiveColumn {
				m.activeColumn = i
				break
			}
		}
	}
	m.ensureVisibleActiveColumn()
	m.clampCursor()
}

// Prefs captures the current table preferences.
func (m *TableModel) Prefs() TablePrefs {
	var hidden []string
	for _, c := range m.grid.Columns() {
		if m.hidden[c.Key] {
			hidden = append(hidden, c.Key)
		}
	}
	key, dir := m.grid.Sort()
	return TablePrefs{
		SortKey:       key,
		SortDesc:      key != "" && dir == table.Desc,
		PageSize:      m.grid.PageSize(),
		HiddenColumns: hidden,
		ActiveColumn:  m.activeKey(),
	}
}

func (m *TableModel) activeKey() string {
	cols := m.grid.Columns()
	if m.activeColumn < len(cols) {
		return cols[m.activeColumn].Key
	}
	return ""
}

func (m *TableModel) visibleColumnIndexes() []int {
	var idxs []int
	for i, c := range m.grid.Columns() {
		if !m.hidden[c.Key] {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

func (m *TableModel) ensureVisibleActiveColumn() {
	cols := m.grid.Columns()
	if len(cols) == 0 {
		return
	}
	if m.activeColumn >= len(cols) {
		m.activeColumn = 0
	}
	if !m.hidden[cols[m.activeColumn].Key] {
		return
	}
	for i, c := range cols {
		if !m.hidden[c.Key] {
			m.activeColumn = i
			return
		}
	}
	delete(m.hidden, cols[0].Key)
	m.activeColumn = 0
}

func (m *TableModel) NextColumn() {
	cols := m.grid.Columns()
	start := m.activeColumn
	for {
		m.activeColumn = (m.activeColumn + 1) % len(cols)
		if !m.hidden[cols[m.activeColumn].Key] || m.activeColumn == start {
			return
		}
	}
}

func (m *TableModel) PrevColumn() {
	cols := m.grid.Columns()
	start := m.activeColumn
	for {
		m.activeColumn--
		if m.activeColumn < 0 {
			m.activeColumn = len(cols) - 1
		}
		if !m.hidden[cols[m.activeColumn].Key] || m.activeColumn == start {
			return
		}
	}
}

func (m *TableModel) JumpToColumn(number int) bool {
	cols := m.grid.Columns()
	if number < 1 || number > len(cols) {
		return false
	}
	idx := number - 1
	if m.hidden[cols[idx].Key] {
		return false
	}
	m.activeColumn = idx
	return true
}

// ToggleSortActiveColumn sorts by the active column, flipping direction when
// it is already the sort key.
func (m *TableModel) ToggleSortActiveColumn() string {
	col := m.grid.Columns()[m.activeColumn]
	if !m.grid.ToggleSort(col.Key) {
		return fmt.Sprintf("%s cannot be sorted", col.Label)
	}
	m.clampCursor()
	_, dir := m.grid.Sort()
	return fmt.Sprintf("Sorted %s %s", strings.ToUpper(col.Label), dir)
}

func (m *TableModel) SortActiveColumn(desc bool) string {
	col := m.grid.Columns()[m.activeColumn]
	dir := table.Asc
	if desc {
		dir = table.Desc
	}
	if !m.grid.SetSort(col.Key, dir) {
		return fmt.Sprintf("%s cannot be sorted", col.Label)
	}
	m.clampCursor()
	return fmt.Sprintf("Sorted %s %s", strings.ToUpper(col.Label), dir)
}

func (m *TableModel) HideActiveColumn() bool {
	if len(m.visibleColumnIndexes()) <= 1 {
		return false
	}
	m.hidden[m.activeKey()] = true
	m.ensureVisibleActiveColumn()
	return true
}

func (m *TableModel) ShowAllColumns() {
	m.hidden = map[string]bool{}
}

// TableMeta summarizes the active column, sort, filter and search.
func (m *TableModel) TableMeta() string {
	cols := m.grid.Columns()
	parts := []string{fmt.Sprintf("col %s", strings.ToUpper(cols[m.activeColumn].Label))}
	if key, dir := m.grid.Sort(); key != "" {
		parts = append(parts, fmt.Sprintf("sort %s %s", strings.ToUpper(key), dir))
	}
	if v := m.grid.FilterValue(); v != "" && v != dashboard.FilterAll {
		parts = append(parts, fmt.Sprintf("filter %s", v))
	}
	if s := m.grid.Search(); s != "" {
		parts = append(parts, fmt.Sprintf("search %q", s))
	}
	return strings.Join(parts, "  ·  ")
}

// Reset puts the cursor back on the first row, used after the page changed.
func (m *TableModel) Reset() {
	m.cursor = 0
	m.offset = 0
}

func (m *TableModel) clampCursor() {
	n := len(m.grid.Rows())
	if n == 0 {
		m.cursor = 0
		m.offset = 0
		return
	}
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.offset > m.cursor {
		m.offset = m.cursor
	}
}

// Refreshed is called after the grid's data changed.
func (m *TableModel) Refreshed() {
	m.ensureVisibleActiveColumn()
	m.clampCursor()
}

// View renders the current page.
func (m *TableModel) View(width, height int) string {
	rows := m.grid.Rows()
	meta := m.grid.Meta()
	status := m.renderStatus(meta)

	if len(rows) == 0 {
		msg := "    Belum ada data."
		switch {
		case m.grid.Search() != "" || (m.grid.FilterValue() != "" && m.grid.FilterValue() != dashboard.FilterAll):
			msg = "    Tidak ada data yang cocok.\n    Press  /  to change the search or  f  to change the filter."
		case m.grid.Err() != nil:
			msg = "    Gagal memuat data.\n    Press  r  to retry."
		}
		empty := EmptyStateStyle.Width(width).Height(max(0, height-1)).Render(msg)
		return lipgloss.JoinVertical(lipgloss.Left, empty, status)
	}

	visible := m.visibleColumnIndexes()
	if len(visible) == 0 {
		return EmptyStateStyle.Width(width).Height(height).Render("No visible columns. Press C to show all columns.")
	}

	cols := m.grid.Columns()
	sortKey, sortDir := m.grid.Sort()
	widths := make([]int, 0, len(visible))
	headers := make([]string, 0, len(visible))
	totalFixed := 0
	for _, idx := range visible {
		col := cols[idx]
		label := formatHeaderLabel(col.Label)
		if idx == m.activeColumn {
			label = renderActiveHeaderLabel(label)
		}
		if sortKey == col.Key {
			if sortDir == table.Desc {
				label += " ↓"
			} else {
				label += " ↑"
			}
		}
		cellWidth := max(col.Width+2, lipgloss.Width(label)+4)
		totalFixed += cellWidth
		widths = append(widths, cellWidth)
		headers = append(headers, label)
	}
	sepTotal := (len(widths) - 1) * tableSeparatorWidth()
	if extra := width - totalFixed - sepTotal - 2; extra > 0 {
		widths[len(widths)-1] += extra
	}

	header := renderTableRow(headers, widths, TableHeaderStyle)
	divider := renderTableDivider(widths)

	visibleHeight := max(1, height-3)
	m.viewportHeight = visibleHeight
	m.clampCursor()
	if m.cursor >= m.offset+visibleHeight {
		m.offset = m.cursor - visibleHeight + 1
	}

	var lines []string
	for i := m.offset; i < len(rows) && i < m.offset+visibleHeight; i++ {
		style := NormalRowStyle
		if i == m.cursor {
			style = SelectedRowStyle
		}
		cells := make([]string, 0, len(visible))
		for _, idx := range visible {
			cells = append(cells, m.renderCell(cols[idx], rows[i][idx], i == m.cursor))
		}
		lines = append(lines, renderTableRow(cells, widths, style))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, header, divider, strings.Join(lines, "\n"))
	spacerHeight := max(0, height-lipgloss.Height(content)-lipgloss.Height(status))
	spacer := lipgloss.NewStyle().Height(spacerHeight).Render("")
	return lipgloss.JoinVertical(lipgloss.Left, content, spacer, status)
}

func (m *TableModel) renderCell(col dashboard.ColumnInfo, value string, selected bool) string {
	value = util.TruncateString(value, max(col.Width, 4))
	if selected || col.Key != "priority" {
		return value
	}
	return ToneStyle(util.PriorityTone(value)).Render(value)
}

func (m *TableModel) renderStatus(meta table.PageMeta) string {
	parts := []string{fmt.Sprintf("%d-%d dari %d", meta.Start, meta.End, meta.TotalMatched)}
	if meta.TotalMatched != m.grid.Len() {
		parts = append(parts, fmt.Sprintf("filtered %d/%d", meta.TotalMatched, m.grid.Len()))
	}
	parts = append(parts,
		fmt.Sprintf("page %d/%d", meta.CurrentPage, meta.TotalPages),
		fmt.Sprintf("%d/page", meta.PageSize),
	)
	if len(m.grid.Rows()) > 0 {
		parts = append(parts, fmt.Sprintf("row %d", meta.Start+m.cursor))
	}
	if tm := m.TableMeta(); tm != "" {
		parts = append(parts, tm)
	}
	return StatusBarStyle.Render(strings.Join(parts, "  ·  "))
}

// MoveDown moves the cursor down.
func (m *TableModel) MoveDown() {
	if m.cursor < len(m.grid.Rows())-1 {
		m.cursor++
		vh := m.viewportHeight
		if vh == 0 {
			vh = 10
		}
		if m.cursor >= m.offset+vh {
			m.offset++
		}
	}
}

// MoveUp moves the cursor up.
func (m *TableModel) MoveUp() {
	if m.cursor > 0 {
		m.cursor--
		if m.cursor < m.offset {
			m.offset--
		}
	}
}

// JumpToTop jumps to the first row of the page.
func (m *TableModel) JumpToTop() {
	m.cursor = 0
	m.offset = 0
}

// JumpToBottom jumps to the last row of the page.
func (m *TableModel) JumpToBottom() {
	n := len(m.grid.Rows())
	if n > 0 {
		m.cursor = n - 1
		vh := m.viewportHeight
		if vh == 0 {
			vh = 10
		}
		if m.cursor >= vh {
			m.offset = m.cursor - vh + 1
		}
	}
}

// renderTableRow renders cells padded to widths and joined by the separator.
func renderTableRow(cells []string, widths []int, style lipgloss.Style) string {
	var parts []string
	for i, cell := range cells {
		if i >= len(widths) {
			continue
		}
		parts = append(parts, style.Width(widths[i]).MaxWidth(widths[i]).Render(cell))
	}
	return strings.Join(parts, tableSeparator())
}

func tableSeparator() string { return BreadcrumbStyle.Render("│") }

func tableSeparatorWidth() int { return lipgloss.Width(tableSeparator()) }

func renderTableDivider(widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("─", w)
	}
	return BreadcrumbStyle.Render(strings.Join(parts, "┼"))
}

func formatHeaderLabel(label string) string {
	return strings.ToUpper(label)
}

func renderActiveHeaderLabel(label string) string {
	return "▸" + label
}

package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"crmdash/internal/dashboard"
	"crmdash/internal/export"
	"crmdash/internal/metrics"
	"crmdash/internal/model"
	"crmdash/internal/refresh"
	"crmdash/internal/table"
	"crmdash/internal/util"
)

// overviewLimit caps each list of the overview panel.
const overviewLimit = 5

// Options configures the root model.
type Options struct {
	Dashboard         *dashboard.Dashboard
	Sink              export.Sink
	Logger            zerolog.Logger
	Metrics           *metrics.Recorder
	RefreshIntervalMs int
	// PrefsPath is the UI preferences file. Empty disables persistence.
	PrefsPath string
	Now       func() time.Time
}

// Model is the root Bubble Tea model.
type Model struct {
	ctx       context.Context
	dash      *dashboard.Dashboard
	sched     *refresh.Scheduler
	sink      export.Sink
	logger    zerolog.Logger
	now       func() time.Time
	prefsPath string
	bus       *msgBus

	screen model.Screen
	mode   model.Mode
	gState GState

	width  int
	height int

	error       string
	info        string
	showingHelp bool
	showPanel   bool
	columnJump  bool

	intervalMs int
	gen        uint64

	tables map[model.Screen]*TableModel
	detail *CustomerDetailModel

	search  textinput.Model
	spinner spinner.Model

	keys       KeyMap
	searchKeys SearchKeyMap
	prefs      UIPreferences
}

// New creates a new root model. The refresh countdown starts right away.
func New(ctx context.Context, opts Options) Model {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "cari nama, telepon, status..."
	search.CharLimit = 120

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorAccent)

	prefs := loadUIPreferences(opts.PrefsPath)
	m := Model{
		ctx:        ctx,
		dash:       opts.Dashboard,
		sink:       opts.Sink,
		logger:     opts.Logger,
		now:        now,
		prefsPath:  opts.PrefsPath,
		bus:        &msgBus{},
		screen:     model.ScreenCustomers,
		mode:       model.ModeNav,
		gState:     GStateIdle,
		tables:     make(map[model.Screen]*TableModel, len(model.Tabs)),
		search:     search,
		spinner:    sp,
		keys:       DefaultKeyMap(),
		searchKeys: DefaultSearchKeyMap(),
		prefs:      prefs,
	}
	for i, g := range m.dash.Grids() {
		t := NewTableModel(g)
		t.ApplyPrefs(prefs.Tables[g.ID()])
		m.tables[model.Tabs[i]] = t
	}

	dash, rec := opts.Dashboard, opts.Metrics
	m.sched = refresh.New(func() {
		if rec != nil {
			rec.RefreshTriggered()
		}
		dash.RefreshAll(ctx)
	}, refresh.WithLogger(opts.Logger))

	m.intervalMs = opts.RefreshIntervalMs
	if prefs.RefreshIntervalMs != nil {
		m.intervalMs = *prefs.RefreshIntervalMs
	}
	m.gen = m.sched.Configure(m.intervalMs)
	return m
}

// Init loads every resource and starts the countdown.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, refreshAllCmd(m.ctx, m.dash)}
	if m.intervalMs > 0 {
		cmds = append(cmds, tickCmd(m.gen))
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		// Handle ctrl+c globally
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.mode == model.ModeSearch {
			return m.handleSearchMode(msg)
		}

		if m.columnJump {
			if msg.String() == "esc" {
				m.columnJump = false
				m.info = ""
				return m, nil
			}
			if n, err := strconv.Atoi(msg.String()); err == nil {
				t := m.currentTable()
				if t != nil && t.JumpToColumn(n) {
					m.columnJump = false
					m.info = fmt.Sprintf("Jumped to column %d", n)
					m.persistCurrentTablePrefs()
					return m, nil
				}
				m.info = fmt.Sprintf("Column %d unavailable", n)
				return m, nil
			}
			m.columnJump = false
		}

		if key.Matches(msg, m.keys.Help) {
			m.showingHelp = !m.showingHelp
			return m, nil
		}

		if m.showingHelp {
			if msg.String() == "esc" {
				m.showingHelp = false
			}
			return m, nil
		}

		return m.handleNavMode(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case model.TickMsg:
		if m.sched.Tick(msg.Gen) {
			return m, tickCmd(msg.Gen)
		}
		return m, nil

	case model.StoreChangedMsg:
		m.syncResource(msg.Resource)
		return m, nil

	case model.RefreshDoneMsg:
		for _, res := range model.Resources {
			m.syncResource(res)
		}
		return m, nil

	case model.RelatedChangedMsg:
		return m, nil

	case model.ExportDoneMsg:
		if msg.Err != nil {
			m.error = "Export failed: " + msg.Err.Error()
			m.info = ""
			return m, nil
		}
		m.error = ""
		m.info = fmt.Sprintf("Exported %d rows to %s", msg.Rows, msg.Location)
		return m, nil

	case model.ConfigReloadedMsg:
		m.dash.SetPageSizes(msg.PageSizes)
		for _, t := range m.tables {
			t.Refreshed()
		}
		m.info = "Config reloaded"
		return m, m.setInterval(msg.RefreshIntervalMs)

	case model.ErrorMsg:
		m.error = msg.Err.Error()
		return m, nil
	}

	return m, nil
}

// syncResource copies a store state into its view and keeps the cursor in
// range.
func (m *Model) syncResource(res model.Resource) {
	m.dash.Sync(res)
	for _, t := range m.tables {
		if t.Grid().Resource() == res {
			t.Refreshed()
		}
	}
}

func (m *Model) setInterval(ms int) tea.Cmd {
	m.intervalMs = max(0, ms)
	m.gen = m.sched.Configure(m.intervalMs)
	if m.intervalMs == 0 {
		return nil
	}
	return tickCmd(m.gen)
}

func (m Model) handleSearchMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t := m.currentTable()
	switch {
	case key.Matches(msg, m.searchKeys.Cancel):
		m.search.SetValue("")
		m.search.Blur()
		m.mode = model.ModeNav
		if t != nil {
			t.Grid().SetSearch("")
			t.Reset()
		}
		return m, nil
	case key.Matches(msg, m.searchKeys.Apply):
		m.search.Blur()
		m.mode = model.ModeNav
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if t != nil && t.Grid().Search() != m.search.Value() {
		t.Grid().SetSearch(m.search.Value())
		t.Reset()
	}
	return m, cmd
}

// handleNavMode handles navigation mode input.
func (m Model) handleNavMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle "gg" state machine
	if key.Matches(msg, m.keys.Top) {
		if m.gState == GStateFirstG {
			m.gState = GStateIdle
			if t := m.currentTable(); t != nil {
				t.JumpToTop()
			}
			return m, nil
		}
		m.gState = GStateFirstG
		return m, nil
	}
	m.gState = GStateIdle

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Refresh):
		m.info = "Refreshing..."
		return m, refreshAllCmd(m.ctx, m.dash)
	case key.Matches(msg, m.keys.Interval):
		next := refresh.NextInterval(m.intervalMs)
		cmd := m.setInterval(next)
		m.prefs.RefreshIntervalMs = &next
		m.savePrefs()
		m.info = "Auto refresh: " + refresh.FormatIntervalLabel(next)
		return m, cmd
	case key.Matches(msg, m.keys.Panel):
		m.showPanel = !m.showPanel
		return m, nil
	}

	if m.screen == model.ScreenCustomerDetail {
		if key.Matches(msg, m.keys.Back) {
			m.closeDetail()
		}
		return m, nil
	}

	if s, ok := tabForKey(msg.String()); ok {
		m.switchTab(s)
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.PrevTab):
		m.switchTab(m.adjacentTab(-1))
		return m, nil
	case key.Matches(msg, m.keys.NextTab):
		m.switchTab(m.adjacentTab(1))
		return m, nil
	}

	t := m.currentTable()
	if t == nil {
		return m, nil
	}
	g := t.Grid()

	switch {
	case key.Matches(msg, m.keys.Down):
		t.MoveDown()
	case key.Matches(msg, m.keys.Up):
		t.MoveUp()
	case key.Matches(msg, m.keys.Bottom):
		t.JumpToBottom()
	case key.Matches(msg, m.keys.NextColumn):
		t.NextColumn()
		m.persistCurrentTablePrefs()
	case key.Matches(msg, m.keys.PrevColumn):
		t.PrevColumn()
		m.persistCurrentTablePrefs()
	case key.Matches(msg, m.keys.ColumnJump):
		m.columnJump = true
		m.info = "Jump to column: press 1-9 (esc to cancel)"
	case key.Matches(msg, m.keys.Sort):
		m.info = t.ToggleSortActiveColumn()
		m.persistCurrentTablePrefs()
	case key.Matches(msg, m.keys.SortDesc):
		m.info = t.SortActiveColumn(true)
		m.persistCurrentTablePrefs()
	case key.Matches(msg, m.keys.HideColumn):
		if t.HideActiveColumn() {
			m.info = "Column hidden"
			m.persistCurrentTablePrefs()
		} else {
			m.info = "Cannot hide last visible column"
		}
	case key.Matches(msg, m.keys.ShowColumns):
		t.ShowAllColumns()
		m.info = "All columns shown"
		m.persistCurrentTablePrefs()
	case key.Matches(msg, m.keys.Search):
		m.mode = model.ModeSearch
		m.search.SetValue(g.Search())
		m.search.CursorEnd()
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.Back):
		if g.Search() != "" {
			g.SetSearch("")
			t.Reset()
			m.info = "Search cleared"
		}
	case key.Matches(msg, m.keys.Filter):
		m.info = "Filter: " + g.CycleFilter()
		t.Reset()
	case key.Matches(msg, m.keys.NextPage):
		g.NextPage()
		t.Reset()
	case key.Matches(msg, m.keys.PrevPage):
		g.PrevPage()
		t.Reset()
	case key.Matches(msg, m.keys.PageSize):
		m.info = fmt.Sprintf("%d rows per page", g.CyclePageSize())
		t.Reset()
		m.persistCurrentTablePrefs()
	case key.Matches(msg, m.keys.Export):
		return m, m.exportCurrent(g)
	case key.Matches(msg, m.keys.Select):
		if m.screen == model.ScreenCustomers {
			m.openDetail(t.Cursor())
		}
	}
	return m, nil
}

func tabForKey(s string) (model.Screen, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > len(model.Tabs) {
		return 0, false
	}
	return model.Tabs[n-1], true
}

func (m *Model) adjacentTab(step int) model.Screen {
	for i, s := range model.Tabs {
		if s == m.screen {
			return model.Tabs[(i+step+len(model.Tabs))%len(model.Tabs)]
		}
	}
	return model.Tabs[0]
}

func (m *Model) switchTab(s model.Screen) {
	if s == m.screen {
		return
	}
	m.screen = s
	m.info = ""
	m.error = ""
}

func (m *Model) exportCurrent(g dashboard.Grid) tea.Cmd {
	if m.sink == nil {
		m.error = "Export is not configured"
		return nil
	}
	exp, err := g.ExportCSV(m.now())
	if err != nil {
		m.error = "Export failed: " + err.Error()
		return nil
	}
	m.info = "Exporting " + exp.Filename + "..."
	return exportCmd(m.ctx, m.sink, exp, g.Meta().TotalMatched)
}

func (m *Model) openDetail(cursor int) {
	records := m.dash.Customers.Records()
	if cursor < 0 || cursor >= len(records) {
		return
	}
	bus := m.bus
	dt := m.dash.OpenDetail(records[cursor], func() { bus.Send(model.RelatedChangedMsg{}) })
	m.detail = NewCustomerDetailModel(dt)
	m.screen = model.ScreenCustomerDetail
	m.info = ""
}

func (m *Model) closeDetail() {
	if m.detail != nil {
		m.detail.Close()
		m.detail = nil
	}
	m.screen = model.ScreenCustomers
}

func (m *Model) currentTable() tableController {
	if t, ok := m.tables[m.screen]; ok {
		return t
	}
	return nil
}

func (m *Model) persistCurrentTablePrefs() {
	t := m.currentTable()
	if t == nil {
		return
	}
	m.prefs.Tables[t.Grid().ID()] = t.Prefs()
	m.savePrefs()
}

func (m *Model) savePrefs() {
	if err := saveUIPreferences(m.prefsPath, m.prefs); err != nil {
		m.logger.Warn().Err(err).Msg("failed to save ui preferences")
	}
}

// View renders the model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	if m.showingHelp {
		return RenderFullHelp(m.width, m.height)
	}

	header := m.renderHeader()
	stats := m.renderStats()
	footer := RenderHelp(m.screen, m.mode, m.width)

	parts := []string{header, stats}
	if m.screen != model.ScreenCustomerDetail {
		parts = append(parts, renderTabs(m.screen, m.dash, m.width))
	}
	if banner := m.renderBanners(); banner != "" {
		parts = append(parts, banner)
	}
	if m.mode == model.ModeSearch {
		parts = append(parts, InputStyle.Width(m.width).Render(m.search.View()))
	}

	used := lipgloss.Height(footer)
	for _, p := range parts {
		used += lipgloss.Height(p)
	}
	contentHeight := max(3, m.height-used)

	content := m.renderContent(m.width, contentHeight)
	content = lipgloss.NewStyle().Width(m.width).Height(contentHeight).MaxHeight(contentHeight).Render(content)

	parts = append(parts, content, footer)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderContent(width, height int) string {
	var main string
	panelWidth := 0
	if m.showPanel {
		panelWidth = min(44, width/2)
	}
	mainWidth := width - panelWidth

	switch {
	case m.screen == model.ScreenCustomerDetail && m.detail != nil:
		main = m.detail.View(mainWidth, height)
	default:
		if t := m.currentTable(); t != nil {
			main = t.View(mainWidth, height)
		}
	}
	if panelWidth == 0 {
		return main
	}
	panel := m.renderOverview(panelWidth, height)
	return lipgloss.JoinHorizontal(lipgloss.Top, lipgloss.NewStyle().Width(mainWidth).Render(main), panel)
}

func (m Model) renderBanners() string {
	var lines []string
	if t := m.currentTable(); t != nil && m.screen != model.ScreenCustomerDetail {
		g := t.Grid()
		if err := g.Err(); err != nil {
			if g.Stale() {
				lines = append(lines, ErrorStyle.Width(m.width).Render(fmt.Sprintf(
					"Gagal memperbarui %s: %v (data terakhir %s)",
					strings.ToLower(g.Title()), err, g.LastUpdated().Format("15:04:05"))))
			} else {
				lines = append(lines, ErrorStyle.Width(m.width).Render(fmt.Sprintf("Gagal memuat %s: %v", strings.ToLower(g.Title()), err)))
			}
		}
	}
	if m.error != "" {
		lines = append(lines, ErrorStyle.Width(m.width).Render("Error: "+m.error))
	}
	if m.info != "" {
		lines = append(lines, SuccessStyle.Width(m.width).Render(m.info))
	}
	return strings.Join(lines, "\n")
}

func renderTabs(screen model.Screen, dash *dashboard.Dashboard, width int) string {
	grids := dash.Grids()
	var tabStrings []string
	for i, s := range model.Tabs {
		tabStyle := lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(ColorMuted)

		if screen == s {
			tabStyle = tabStyle.
				Foreground(ColorText).
				Bold(true).
				Underline(true)
		}

		label := fmt.Sprintf("%d %s", i+1, s)
		if i < len(grids) {
			label += fmt.Sprintf(" (%d)", grids[i].Len())
		}
		tabStrings = append(tabStrings, tabStyle.Render(label))
	}

	tabBar := lipgloss.JoinHorizontal(lipgloss.Left, tabStrings...)
	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 2).
		BorderBottom(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		Render(tabBar)
}

func (m Model) renderHeader() string {
	title := HeaderStyle.Render("crmdash")

	breadcrumbParts := []string{m.screen.String()}
	if m.screen == model.ScreenCustomerDetail && m.detail != nil {
		breadcrumbParts = []string{model.ScreenCustomers.String(), m.detail.detail.Customer.Name}
	}
	separator := BreadcrumbStyle.Render(" › ")
	parts := make([]string, len(breadcrumbParts))
	for i, part := range breadcrumbParts {
		if i == len(breadcrumbParts)-1 {
			parts[i] = BreadcrumbActiveStyle.Render(part)
		} else {
			parts[i] = BreadcrumbStyle.Render(part)
		}
	}
	left := "  " + title + separator + strings.Join(parts, separator)

	var right []string
	if m.dash.Loading() {
		right = append(right, m.spinner.View()+BreadcrumbStyle.Render(" memuat"))
	}
	if open := dashboard.OpenEscalations(m.dash.Escalations.All()); open > 0 {
		right = append(right, ToneStyle(util.ToneDanger).Render(fmt.Sprintf("● %d eskalasi", open)))
	}
	snap := m.sched.Snapshot()
	auto := "Auto " + refresh.FormatIntervalLabel(snap.IntervalMs)
	if snap.State == refresh.Counting {
		auto += fmt.Sprintf(" · %ds", snap.Remaining)
	}
	right = append(right, BreadcrumbStyle.Render(auto), BreadcrumbStyle.Render(m.now().Format("Mon 02 Jan 15:04")))
	rightStr := strings.Join(right, "  ") + "  "

	padding := max(0, m.width-2-lipgloss.Width(left)-lipgloss.Width(rightStr))
	return TitleStyle.Width(m.width).Render(left + strings.Repeat(" ", padding) + rightStr)
}

func (m Model) renderStats() string {
	stats, ok := m.dash.QuickStats()
	if !ok {
		msg := "Statistik belum tersedia"
		if err := m.dash.StatsErr(); err != nil {
			msg = "Statistik gagal dimuat: " + err.Error()
		}
		return StatusBarStyle.Render(msg)
	}
	rate := stats.ResponseRate
	cards := []string{
		statCard("Pelanggan", util.FormatNumber(stats.TotalCustomers), stats.CustomersDelta, false, stats.CustomersPeriod),
		statCard("Leads", util.FormatNumber(stats.TotalLeads), stats.LeadsDelta, false, stats.LeadsPeriod),
		statCard("Eskalasi", util.FormatNumber(stats.TotalEscalations), stats.EscalationsDelta, true, stats.EscalationsPeriod),
		statCard("Respon", util.FormatPercent(&rate), stats.ResponseDelta, false, stats.ResponsePeriod),
	}
	return StatusBarStyle.Render(strings.Join(cards, "   "))
}

func statCard(label, value string, delta *float64, inverted bool, period string) string {
	badge, tone := util.DeltaBadge(delta, inverted)
	s := HelpDescStyle.Render(label+" ") + CardValueStyle.Render(value) + " " + ToneStyle(tone).Render(badge)
	if period != "" {
		s += HelpDescStyle.Render(" " + period)
	}
	return s
}

func (m Model) renderOverview(width, height int) string {
	now := m.now()
	var sections []string

	var notes []string
	for _, n := range m.dash.Notifications(overviewLimit) {
		notes = append(notes, ToneStyle(util.PriorityTone(n.Priority)).Render("● ")+n.Title,
			HelpDescStyle.Render("  "+n.Detail))
	}
	sections = append(sections, overviewSection("Notifikasi", notes, "Tidak ada eskalasi terbuka"))

	var acts []string
	for _, a := range m.dash.Activities(overviewLimit) {
		acts = append(acts, a.Title, HelpDescStyle.Render("  "+a.Detail+" · "+util.FormatRelative(a.Time, now)))
	}
	sections = append(sections, overviewSection("Aktivitas", acts, "Belum ada aktivitas"))

	var team []string
	for _, tm := range m.dash.Team(overviewLimit) {
		sla := tm.AvgSLA
		team = append(team, fmt.Sprintf("%-12s %3d  %s", util.TruncateString(tm.Name, 12), tm.Handled, util.FormatMinutes(&sla)))
	}
	sections = append(sections, overviewSection("Tim", team, "Belum ada data tim"))

	sum := m.dash.CampaignSummary()
	var camp []string
	if sum.Count > 0 {
		camp = []string{
			fmt.Sprintf("%d kampanye · %s leads", sum.Count, util.FormatNumber(sum.TotalLeads)),
			"Biaya " + util.FormatCurrency(&sum.TotalSpend),
			"Konversi " + util.FormatPercent(&sum.AvgConversion) + " · ROI " + util.FormatPercent(&sum.AvgROI),
		}
	}
	sections = append(sections, overviewSection("Kampanye", camp, "Belum ada kampanye"))

	return PanelStyle.
		Width(max(0, width-2)).
		MaxHeight(height).
		Render(strings.Join(sections, "\n\n"))
}

func overviewSection(title string, lines []string, empty string) string {
	if len(lines) == 0 {
		return LabelStyle.Render(title) + "\n" + HelpDescStyle.Render(empty)
	}
	return LabelStyle.Render(title) + "\n" + strings.Join(lines, "\n")
}

func tickCmd(gen uint64) tea.Cmd {
	return tea.Tick(refresh.TickInterval, func(t time.Time) tea.Msg {
		return model.TickMsg{Gen: gen, At: t}
	})
}

func refreshAllCmd(ctx context.Context, dash *dashboard.Dashboard) tea.Cmd {
	return func() tea.Msg {
		dash.RefreshAll(ctx)
		return model.RefreshDoneMsg{}
	}
}

func exportCmd(ctx context.Context, sink export.Sink, exp table.Export, rows int) tea.Cmd {
	return func() tea.Msg {
		location, err := sink.Write(ctx, exp)
		return model.ExportDoneMsg{Location: location, Rows: rows, Err: err}
	}
}

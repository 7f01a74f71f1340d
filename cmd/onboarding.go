package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"crmdash/internal/config"
	"crmdash/internal/db"
	"crmdash/internal/refresh"
	"crmdash/internal/ui"
)

type onboardingSettings struct {
	Completed bool   `json:"completed"`
	Source    string `json:"source,omitempty"`
}

func onboardingPath(home string) string {
	return filepath.Join(home, "onboarding.json")
}

func loadOnboardingSettings(home string) (onboardingSettings, error) {
	data, err := os.ReadFile(onboardingPath(home))
	if err != nil {
		if os.IsNotExist(err) {
			return onboardingSettings{}, nil
		}
		return onboardingSettings{}, err
	}
	var settings onboardingSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return onboardingSettings{}, err
	}
	return settings, nil
}

func saveOnboardingSettings(home string, settings onboardingSettings) error {
	if err := os.MkdirAll(home, 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(onboardingPath(home), data, 0644)
}

// shouldRunOnboarding reports whether the first-run wizard should open:
// stdin is a terminal and setup never finished or got canceled.
func shouldRunOnboarding() bool {
	home, err := config.HomeDir()
	if err != nil {
		return false
	}
	settings, err := loadOnboardingSettings(home)
	if err != nil || settings.Completed {
		return false
	}
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

type onboardingStep int

const (
	stepSource onboardingStep = iota
	stepURL
	stepRole
	stepDone
)

type choice struct {
	value string
	label string
}

var (
	sourceChoices = []choice{
		{config.SourceSQLite, "SQLite demo database"},
		{config.SourceAPI, "n8n webhook API"},
	}
	roleChoices = []choice{
		{"admin", "Admin"},
		{"customer_service", "Customer service"},
		{"marketing", "Marketing"},
	}
)

type onboardingModel struct {
	step      onboardingStep
	sourceIdx int
	roleIdx   int
	urlInput  textinput.Model
	err       string
	canceled  bool
	width     int
	height    int
}

func newOnboardingModel() onboardingModel {
	in := textinput.New()
	in.Placeholder = "https://n8n.example.com"
	in.CharLimit = 300
	in.Prompt = "url> "
	in.TextStyle = lipgloss.NewStyle().Foreground(ui.ColorText)
	in.PlaceholderStyle = lipgloss.NewStyle().Foreground(ui.ColorMuted)
	return onboardingModel{step: stepSource, urlInput: in}
}

func (m onboardingModel) Init() tea.Cmd { return nil }

func (m onboardingModel) source() string { return sourceChoices[m.sourceIdx].value }
func (m onboardingModel) role() string   { return roleChoices[m.roleIdx].value }

func (m onboardingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.cancel()
		}
		switch m.step {
		case stepSource:
			return m.updateChoice(msg)
		case stepRole:
			return m.updateChoice(msg)
		case stepURL:
			switch msg.String() {
			case "enter":
				raw := strings.TrimSpace(m.urlInput.Value())
				if u, err := url.Parse(raw); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
					m.err = "Enter an http(s) URL, e.g. https://n8n.example.com"
					return m, nil
				}
				m.err = ""
				m.urlInput.Blur()
				m.step = stepRole
				return m, nil
			case "esc":
				m.err = ""
				m.urlInput.Blur()
				m.step = stepSource
				return m, nil
			}
			var cmd tea.Cmd
			m.urlInput, cmd = m.urlInput.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m onboardingModel) updateChoice(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	idx, n := &m.sourceIdx, len(sourceChoices)
	if m.step == stepRole {
		idx, n = &m.roleIdx, len(roleChoices)
	}
	switch msg.String() {
	case "up", "k":
		*idx = (*idx - 1 + n) % n
	case "down", "j":
		*idx = (*idx + 1) % n
	case "q":
		return m.cancel()
	case "esc":
		if m.step == stepRole {
			m.step = m.roleBack()
			if m.step == stepURL {
				return m, m.urlInput.Focus()
			}
		}
	case "enter":
		return m.nextStep()
	}
	return m, nil
}

func (m onboardingModel) roleBack() onboardingStep {
	if m.source() == config.SourceAPI {
		return stepURL
	}
	return stepSource
}

func (m onboardingModel) nextStep() (tea.Model, tea.Cmd) {
	switch m.step {
	case stepSource:
		if m.source() == config.SourceAPI {
			m.step = stepURL
			return m, m.urlInput.Focus()
		}
		m.step = stepRole
		return m, nil
	case stepRole:
		m.step = stepDone
		return m, tea.Quit
	}
	return m, nil
}

func (m onboardingModel) cancel() (tea.Model, tea.Cmd) {
	m.canceled = true
	m.step = stepDone
	return m, tea.Quit
}

// values returns the config keys the wizard collected.
func (m onboardingModel) values() map[string]any {
	values := map[string]any{
		"source":                 m.source(),
		"ui.role":                m.role(),
		"ui.refresh_interval_ms": refresh.DefaultInterval(m.role()),
	}
	if m.source() == config.SourceAPI {
		values["api.base_url"] = strings.TrimRight(strings.TrimSpace(m.urlInput.Value()), "/")
	}
	return values
}

func (m onboardingModel) View() string {
	width := m.width
	height := m.height
	if width <= 0 {
		width = 100
	}
	if height <= 0 {
		height = 28
	}

	left := "  " + ui.TitleStyle.Render("crmdash") + " " + ui.BreadcrumbStyle.Render("› Setup")
	right := ui.BreadcrumbStyle.Render(time.Now().Format("Mon 02 Jan")) + "  "
	padding := max(0, width-lipgloss.Width(left)-lipgloss.Width(right))
	header := ui.HeaderStyle.Width(width).Render(left + strings.Repeat(" ", padding) + right)

	var help string
	switch m.step {
	case stepURL:
		help = "enter next  esc back  ctrl+c cancel"
	case stepRole:
		help = "↑↓/jk choose  enter finish  esc back  q cancel"
	default:
		help = "↑↓/jk choose  enter next  q cancel"
	}
	footer := ui.FooterStyle.Width(width).Render(help)

	content := m.renderContent(width, max(8, height-4))
	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (m onboardingModel) renderContent(width, height int) string {
	cardWidth := min(80, width-6)
	if cardWidth < 40 {
		cardWidth = width - 2
	}

	var body string
	switch m.step {
	case stepSource:
		body = lipgloss.JoinVertical(lipgloss.Left,
			ui.LabelStyle.Render("Where does your CRM data live?"),
			"",
			renderChoices(sourceChoices, m.sourceIdx, nil),
			"",
			ui.HelpDescStyle.Render("The demo database is filled with sample customers on first start."),
		)
	case stepURL:
		lines := []string{
			ui.LabelStyle.Render("n8n base URL"),
			"",
			ui.InputStyle.Width(max(30, cardWidth-10)).Render(m.urlInput.View()),
		}
		if m.err != "" {
			lines = append(lines, "", ui.ErrorStyle.Render(m.err))
		}
		lines = append(lines, "", ui.HelpDescStyle.Render("Set api.token or CRMDASH_API_TOKEN if the webhooks need a bearer token."))
		body = lipgloss.JoinVertical(lipgloss.Left, lines...)
	case stepRole:
		body = lipgloss.JoinVertical(lipgloss.Left,
			ui.LabelStyle.Render("Which role are you?"),
			"",
			renderChoices(roleChoices, m.roleIdx, func(c choice) string {
				return "auto refresh " + refresh.FormatIntervalLabel(refresh.DefaultInterval(c.value))
			}),
		)
	default:
		msg := ui.SuccessStyle.Render("Setup complete")
		if m.canceled {
			msg = ui.ErrorStyle.Render("Setup canceled. Using defaults.")
		}
		body = msg
	}

	card := ui.PanelStyle.Width(cardWidth).Render(body)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top, card)
}

func renderChoices(choices []choice, selected int, hint func(choice) string) string {
	lines := make([]string, len(choices))
	for i, c := range choices {
		line := "    " + ui.NormalRowStyle.Render(c.label)
		if i == selected {
			line = "  " + ui.SelectedRowStyle.Render("→ "+c.label)
		}
		if hint != nil {
			line += "  " + ui.HelpDescStyle.Render(hint(c))
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

// runOnboarding runs the setup wizard and writes the per-user config file.
// It returns the written path, or "" when the user canceled.
func runOnboarding(ctx context.Context) (string, error) {
	home, err := config.HomeDir()
	if err != nil {
		return "", err
	}

	prog := tea.NewProgram(newOnboardingModel(), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := prog.Run()
	if err != nil {
		return "", fmt.Errorf("onboarding tui failed: %w", err)
	}
	m, ok := final.(onboardingModel)
	if !ok {
		return "", errors.New("unexpected onboarding model type")
	}
	if m.canceled {
		return "", saveOnboardingSettings(home, onboardingSettings{Completed: true})
	}
	return finishOnboarding(ctx, home, m.values())
}

// finishOnboarding writes values as the per-user config, seeds an empty
// demo database and marks setup as done.
func finishOnboarding(ctx context.Context, home string, values map[string]any) (string, error) {
	path, err := config.DefaultFile()
	if err != nil {
		return "", err
	}
	if err := config.SaveFile(path, values); err != nil {
		return "", err
	}

	source, _ := values["source"].(string)
	if source == config.SourceSQLite {
		if err := seedDemo(ctx, filepath.Join(home, "crmdash.db")); err != nil {
			return "", err
		}
	}

	if err := saveOnboardingSettings(home, onboardingSettings{Completed: true, Source: source}); err != nil {
		return "", err
	}
	return path, nil
}

func seedDemo(ctx context.Context, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	database, err := db.Open(ctx, db.SQLite, path)
	if err != nil {
		return err
	}
	defer database.Close()

	var n int
	if err := database.QueryRowContext(ctx, "SELECT COUNT(*) FROM customers").Scan(&n); err != nil {
		return fmt.Errorf("failed to count customers: %w", err)
	}
	if n > 0 {
		return nil
	}
	_, err = db.Seed(ctx, database, db.SQLite, db.SeedOptions{Seed: uint64(time.Now().UnixNano())})
	return err
}

func newOnboardingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "onboarding",
		Short: "Run the setup wizard and write ~/.crmdash/config.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := runOnboarding(cmd.Context())
			if err != nil {
				return err
			}
			if path == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Setup canceled")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
}

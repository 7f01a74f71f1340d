package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"crmdash/internal/dashboard"
	"crmdash/internal/util"
)

// relatedLimit caps the rows listed per related section.
const relatedLimit = 8

// CustomerDetailModel represents the customer detail screen.
type CustomerDetailModel struct {
	detail *dashboard.Detail
}

// NewCustomerDetailModel creates a new customer detail model.
func NewCustomerDetailModel(detail *dashboard.Detail) *CustomerDetailModel {
	return &CustomerDetailModel{detail: detail}
}

// Close detaches the related lists from their stores.
func (m *CustomerDetailModel) Close() {
	if m.detail != nil {
		m.detail.Close()
	}
}

// View renders the customer detail.
func (m *CustomerDetailModel) View(width, height int) string {
	c := m.detail.Customer
	var sections []string

	shortcuts := HelpDescStyle.Render("b back  r refresh")

	priority := util.Capitalize(c.Priority)
	var fields []string
	fields = append(fields, renderField("Nama", c.Name))
	fields = append(fields, renderField("Telepon", c.Phone))
	fields = append(fields, renderField("Email", c.Email))
	fields = append(fields, renderField("Status", util.Capitalize(c.Status)))
	fields = append(fields, LabelStyle.Render("Prioritas:")+" "+ToneStyle(util.PriorityTone(priority)).Render(priority))
	fields = append(fields, renderField("PIC", c.Owner))
	fields = append(fields, renderField("Kontak Terakhir", util.FormatDate(c.LastContact)))
	fields = append(fields, renderField("Respon", util.FormatMinutes(c.ResponseTime)))
	sections = append(sections, strings.Join(fields, "\n"))

	divider := lipgloss.NewStyle().
		Foreground(ColorMuted).
		Render(strings.Repeat("─", max(0, width-8)))
	sections = append(sections, divider)

	leads := m.detail.Leads.Items()
	var leadLines []string
	for i, l := range leads {
		if i == relatedLimit {
			leadLines = append(leadLines, HelpDescStyle.Render(fmt.Sprintf("  +%d more", len(leads)-relatedLimit)))
			break
		}
		leadLines = append(leadLines, fmt.Sprintf("  %s  %s  %s  skor %s",
			l.Name, util.Capitalize(l.Status), l.Source, util.FormatScore(l.Score)))
	}
	sections = append(sections, relatedSection(fmt.Sprintf("Leads (%d)", len(leads)), leadLines, "Tidak ada lead terkait"))

	escalations := m.detail.Escalations.Items()
	var escLines []string
	for i, e := range escalations {
		if i == relatedLimit {
			escLines = append(escLines, HelpDescStyle.Render(fmt.Sprintf("  +%d more", len(escalations)-relatedLimit)))
			break
		}
		p := util.Capitalize(e.Priority)
		escLines = append(escLines, fmt.Sprintf("  %s  %s  %s  %s",
			ToneStyle(util.PriorityTone(p)).Render(p), e.Issue, util.Capitalize(e.Status), util.FormatDate(e.CreatedAt)))
	}
	sections = append(sections, relatedSection(fmt.Sprintf("Eskalasi (%d)", len(escalations)), escLines, "Tidak ada eskalasi terkait"))

	content := PanelStyle.
		Width(max(0, width-4)).
		MaxHeight(max(1, height-1)).
		Render(strings.Join(sections, "\n\n"))

	header := lipgloss.NewStyle().
		Width(max(0, width-4)).
		Align(lipgloss.Right).
		Render(shortcuts)

	return lipgloss.JoinVertical(lipgloss.Left, header, content)
}

func relatedSection(title string, lines []string, empty string) string {
	if len(lines) == 0 {
		return LabelStyle.Render(title) + "\n" + HelpDescStyle.Render("  "+empty)
	}
	return LabelStyle.Render(title) + "\n" + strings.Join(lines, "\n")
}

func renderField(label, value string) string {
	if value == "" {
		value = util.Placeholder
	}
	return LabelStyle.Render(label+":") + " " + NormalRowStyle.Render(value)
}

package util

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Placeholder is shown for missing values.
const Placeholder = "—"

var printer = message.NewPrinter(language.Indonesian)

// SetLocale switches the locale used for number formatting.
func SetLocale(tag language.Tag) {
	printer = message.NewPrinter(tag)
}

// FormatNumber formats a count with locale grouping, e.g. "1.204.337".
func FormatNumber(v float64) string {
	return printer.Sprintf("%d", int64(math.Round(v)))
}

// FormatNumberPtr formats an optional count.
func FormatNumberPtr(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return FormatNumber(*v)
}

// FormatCurrency formats rupiah without decimals: "Rp 1.500.000".
func FormatCurrency(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return "Rp " + FormatNumber(*v)
}

// FormatPercent formats an already-scaled percentage with one decimal.
func FormatPercent(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return printer.Sprintf("%.1f%%", *v)
}

// FormatMinutes formats a response time, e.g. "12 mnt".
func FormatMinutes(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return printer.Sprintf("%d mnt", int64(math.Round(*v)))
}

// FormatScore formats a lead score.
func FormatScore(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return fmt.Sprintf("%d", int64(math.Round(*v)))
}

// FormatDate formats a timestamp for display.
func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return Placeholder
	}
	return t.Local().Format("02 Jan 2006 15:04")
}

// FormatRelative formats a timestamp relative to now in Indonesian:
// "baru saja", "5 menit lalu", "3 jam lalu", "2 hari lalu", then the date.
func FormatRelative(t *time.Time, now time.Time) string {
	if t == nil || t.IsZero() {
		return Placeholder
	}
	diff := now.Sub(*t)
	switch {
	case diff < 0:
		return t.Local().Format("02 Jan 2006")
	case diff < time.Minute:
		return "baru saja"
	case diff < time.Hour:
		return fmt.Sprintf("%d menit lalu", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%d jam lalu", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%d hari lalu", int(diff.Hours()/24))
	case t.Year() == now.Year():
		return t.Local().Format("02 Jan")
	default:
		return t.Local().Format("02 Jan 2006")
	}
}

// Capitalize upper-cases the first letter and lower-cases the rest.
func Capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// Tone is the color class of a badge.
type Tone int

const (
	ToneInfo Tone = iota
	ToneSuccess
	ToneWarning
	ToneDanger
)

func (t Tone) String() string {
	switch t {
	case ToneSuccess:
		return "success"
	case ToneWarning:
		return "warning"
	case ToneDanger:
		return "danger"
	}
	return "info"
}

// DeltaBadge labels a period-over-period change. For inverted metrics such
// as escalations a drop is good news.
func DeltaBadge(delta *float64, inverted bool) (string, Tone) {
	v := 0.0
	if delta != nil && !math.IsNaN(*delta) {
		v = *delta
	}
	sign := ""
	if v > 0 {
		sign = "+"
	}
	label := fmt.Sprintf("%s%.1f%%", sign, v)

	switch {
	case v == 0:
		return label, ToneInfo
	case (v > 0 && !inverted) || (v < 0 && inverted):
		return label, ToneSuccess
	case math.Abs(v) > 10:
		return label, ToneDanger
	default:
		return label, ToneWarning
	}
}

// PriorityTone maps a priority label onto a badge tone.
func PriorityTone(priority string) Tone {
	switch strings.ToLower(priority) {
	case "high", "urgent", "critical":
		return ToneDanger
	case "medium":
		return ToneWarning
	case "low":
		return ToneSuccess
	}
	return ToneInfo
}

// TruncateString truncates a string to maxLen and adds "..." if needed.
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

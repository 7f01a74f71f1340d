package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "1.204.337", FormatNumber(1204337))
	assert.Equal(t, "42", FormatNumber(41.6))
	assert.Equal(t, "Rp 1.500.000", FormatCurrency(ptr(1500000)))
	assert.Equal(t, Placeholder, FormatCurrency(nil))
	assert.Equal(t, Placeholder, FormatPercent(nil))
	assert.Equal(t, "12 mnt", FormatMinutes(ptr(12.2)))
	assert.Equal(t, "82", FormatScore(ptr(82)))
}

func TestFormatRelative(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		v := now.Add(-d)
		return &v
	}

	assert.Equal(t, "baru saja", FormatRelative(at(20*time.Second), now))
	assert.Equal(t, "5 menit lalu", FormatRelative(at(5*time.Minute), now))
	assert.Equal(t, "3 jam lalu", FormatRelative(at(3*time.Hour), now))
	assert.Equal(t, "2 hari lalu", FormatRelative(at(49*time.Hour), now))
	assert.Equal(t, Placeholder, FormatRelative(nil, now))
}

func TestDeltaBadge(t *testing.T) {
	tests := []struct {
		name     string
		delta    *float64
		inverted bool
		label    string
		tone     Tone
	}{
		{name: "missing", delta: nil, label: "0.0%", tone: ToneInfo},
		{name: "growth", delta: ptr(4.3), label: "+4.3%", tone: ToneSuccess},
		{name: "small drop", delta: ptr(-3), label: "-3.0%", tone: ToneWarning},
		{name: "large drop", delta: ptr(-12.5), label: "-12.5%", tone: ToneDanger},
		{name: "inverted drop", delta: ptr(-12.5), inverted: true, label: "-12.5%", tone: ToneSuccess},
		{name: "inverted rise", delta: ptr(15), inverted: true, label: "+15.0%", tone: ToneDanger},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, tone := DeltaBadge(tt.delta, tt.inverted)
			assert.Equal(t, tt.label, label)
			assert.Equal(t, tt.tone, tone)
		})
	}
}

func TestCapitalizeAndTruncate(t *testing.T) {
	assert.Equal(t, "High", Capitalize("HIGH"))
	assert.Equal(t, "", Capitalize("  "))
	assert.Equal(t, "Budi S...", TruncateString("Budi Santoso", 9))
	assert.Equal(t, "Budi", TruncateString("Budi", 9))
	assert.Equal(t, ToneDanger, PriorityTone("High"))
	assert.Equal(t, "warning", ToneWarning.String())
}

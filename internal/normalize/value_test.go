package normalize

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
		ok   bool
	}{
		{name: "float", in: 12.5, want: 12.5, ok: true},
		{name: "int", in: 7, want: 7, ok: true},
		{name: "json number", in: json.Number("3.25"), want: 3.25, ok: true},
		{name: "plain string", in: "42", want: 42, ok: true},
		{name: "percent sign", in: "42%", want: 42, ok: true},
		{name: "comma decimal", in: "12,5", want: 12.5, ok: true},
		{name: "id thousands", in: "1.250.000", want: 1250000, ok: true},
		{name: "id thousands with decimal", in: "1.234,56", want: 1234.56, ok: true},
		{name: "en thousands with decimal", in: "1,234.56", want: 1234.56, ok: true},
		{name: "en thousands", in: "1,234,567", want: 1234567, ok: true},
		{name: "spaces", in: " 15 % ", want: 15, ok: true},
		{name: "empty", in: "", ok: false},
		{name: "words", in: "n/a", ok: false},
		{name: "nan", in: math.NaN(), ok: false},
		{name: "inf", in: math.Inf(1), ok: false},
		{name: "bool", in: true, ok: false},
		{name: "nil", in: nil, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumber(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestResolveNumeric(t *testing.T) {
	rec := Record{
		"total_customers": "n/a",
		"totalCustomers":  "1.204.337",
		"customers_delta": nil,
		"customersDelta":  "3,5%",
	}

	assert.Equal(t, 1204337.0, ResolveNumeric(rec, []string{"total_customers", "totalCustomers"}, 0))
	assert.Equal(t, 3.5, ResolveNumeric(rec, []string{"customers_delta", "customersDelta"}, 0))
	assert.Equal(t, -1.0, ResolveNumeric(rec, []string{"missing"}, -1))
	assert.Equal(t, 9.0, ResolveNumeric(nil, []string{"anything"}, 9))
}

func TestResolveNumericPriorityOrder(t *testing.T) {
	rec := Record{"spend": 100.0, "cost": 250.0}
	assert.Equal(t, 100.0, ResolveNumeric(rec, []string{"spend", "total_spend", "cost"}, 0))
	assert.Equal(t, 250.0, ResolveNumeric(rec, []string{"cost", "spend"}, 0))
}

func TestResolvePercentage(t *testing.T) {
	assert.InDelta(t, 42.0, ResolvePercentage(0.42), 1e-9)
	assert.InDelta(t, 42.0, ResolvePercentage(42), 1e-9)
	assert.InDelta(t, 100.0, ResolvePercentage(1), 1e-9)
	assert.InDelta(t, 0.0, ResolvePercentage(0), 1e-9)
}

func TestResolveString(t *testing.T) {
	rec := Record{"priority": "  ", "customer_priority": "High", "score": 12.0}
	assert.Equal(t, "High", ResolveString(rec, []string{"priority", "customer_priority"}, "medium"))
	assert.Equal(t, "medium", ResolveString(rec, []string{"priority_level"}, "medium"))
	assert.Equal(t, "12", ResolveString(rec, []string{"score"}, ""))
}

func TestResolveTime(t *testing.T) {
	rec := Record{
		"bad":      "yesterday",
		"iso":      "2024-03-05T10:11:12Z",
		"date":     "2024-03-05",
		"unix":     1709633472.0,
		"unixMsec": 1709633472000.0,
	}

	got, ok := ResolveTime(rec, "bad", "iso")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 5, 10, 11, 12, 0, time.UTC), got)

	got, ok = ResolveTime(rec, "date")
	require.True(t, ok)
	assert.Equal(t, 5, got.Day())

	sec, ok := ResolveTime(rec, "unix")
	require.True(t, ok)
	msec, ok := ResolveTime(rec, "unixMsec")
	require.True(t, ok)
	assert.True(t, sec.Equal(msec))

	_, ok = ResolveTime(rec, "bad")
	assert.False(t, ok)
}

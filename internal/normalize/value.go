// Package normalize turns loosely typed webhook payloads into values the
// rest of the dashboard can rely on. Nothing in here returns an error: a
// value that cannot be read yields the caller's fallback.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Record is one decoded JSON object.
type Record = map[string]any

// ParseNumber reads v as a finite float64. Strings may carry thousands
// separators, a percent sign, or a comma decimal ("12,5").
func ParseNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, ok := parseNumericString(n)
		if !ok {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseNumericString(s string) (float64, bool) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\t', '%', '_':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return 0, false
	}

	dots := strings.Count(s, ".")
	commas := strings.Count(s, ",")
	switch {
	case dots > 0 && commas > 0:
		// The separator that appears last is the decimal one.
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case commas == 1:
		s = strings.Replace(s, ",", ".", 1)
	case commas > 1:
		s = strings.ReplaceAll(s, ",", "")
	case dots > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ResolveNumeric returns the first key in keys whose value parses as a
// finite number, or fallback.
func ResolveNumeric(rec Record, keys []string, fallback float64) float64 {
	if f, ok := LookupNumeric(rec, keys...); ok {
		return f
	}
	return fallback
}

// LookupNumeric is ResolveNumeric without a fallback.
func LookupNumeric(rec Record, keys ...string) (float64, bool) {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok {
			continue
		}
		if f, ok := ParseNumber(v); ok {
			return f, true
		}
	}
	return 0, false
}

// ResolvePercentage treats values up to 1 as fractions.
// Apply it once; 0.42 and 42 both come back as 42.
func ResolvePercentage(v float64) float64 {
	if v <= 1 {
		return v * 100
	}
	return v
}

// ResolveString returns the first non-blank string-like value among keys.
func ResolveString(rec Record, keys []string, fallback string) string {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case json.Number:
			s = t.String()
		case float64:
			s = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			s = strconv.FormatBool(t)
		default:
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return fallback
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07",
	"2006-01-02",
}

// ResolveTime parses the first key holding a timestamp. Numbers are read as
// unix seconds, or milliseconds when they are too large to be seconds.
func ResolveTime(rec Record, keys ...string) (time.Time, bool) {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok || v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			s = strings.TrimSpace(s)
			for _, layout := range timeLayouts {
				if t, err := time.Parse(layout, s); err == nil {
					return t, true
				}
			}
			continue
		}
		if f, ok := ParseNumber(v); ok && f > 0 {
			if f > 1e12 {
				return time.UnixMilli(int64(f)).UTC(), true
			}
			return time.Unix(int64(f), 0).UTC(), true
		}
	}
	return time.Time{}, false
}

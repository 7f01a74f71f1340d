package refresh

import (
	"fmt"
	"time"
)

// IntervalOptions are the selectable auto refresh intervals in
// milliseconds. Zero turns auto refresh off.
var IntervalOptions = []int{0, 15000, 30000, 60000, 120000, 300000}

// DefaultInterval returns the interval for a user role.
func DefaultInterval(role string) int {
	switch role {
	case "customer_service":
		return 30000
	case "marketing":
		return 120000
	default:
		return 60000
	}
}

// NextInterval returns the option after current, wrapping around. Values
// that are not an option jump to the first one.
func NextInterval(current int) int {
	for i, v := range IntervalOptions {
		if v == current {
			return IntervalOptions[(i+1)%len(IntervalOptions)]
		}
	}
	return IntervalOptions[0]
}

// FormatIntervalLabel renders an interval for the status bar.
func FormatIntervalLabel(ms int) string {
	if ms <= 0 {
		return "Mati"
	}
	total := int((time.Duration(ms)*time.Millisecond + time.Second/2) / time.Second)
	if total < 60 {
		return fmt.Sprintf("%d detik", total)
	}
	minutes, seconds := total/60, total%60
	if seconds == 0 {
		return fmt.Sprintf("%d menit", minutes)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}

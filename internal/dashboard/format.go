// Package dashboard provides the pure view components of the advisor TUI:
// prediction table, chart merge, sentiment gauge, recommendation card,
// history list, and portfolio panel. Every renderer is a function of the
// data it is handed; state lives in the page shell.
package dashboard

import (
	"fmt"
	"time"
)

// FormatRupee formats a price as ₹X.XX.
func FormatRupee(p float64) string {
	return fmt.Sprintf("₹%.2f", p)
}

// FormatFraction renders a [0,1] fraction as a percentage with one decimal,
// e.g. 0.532 -> "53.2%". No normalization is applied.
func FormatFraction(x float64) string {
	return fmt.Sprintf("%.1f%%", x*100)
}

// FormatSignedPct formats a signed percentage change, e.g. "+2.4%".
func FormatSignedPct(pct float64) string {
	return fmt.Sprintf("%+.1f%%", pct)
}

// FormatClock renders a timestamp as a local time-of-day string.
func FormatClock(t time.Time) string {
	return t.Local().Format("15:04:05")
}

// FormatStamp renders a timestamp as a local date-and-time string.
func FormatStamp(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}

// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/obligo/internal/model"
)

// Currency is the symbol appended by FormatMoney. Set once at startup from config.
var Currency = "₫"

// FormatMoney rounds to whole units and adds comma separators.
// e.g., 1234567.6 -> "1,234,568 ₫"
func FormatMoney(v decimal.Decimal) string {
	s := FormatAmount(v)
	if Currency == "" {
		return s
	}
	return s + " " + Currency
}

// FormatAmount is FormatMoney without the currency symbol.
func FormatAmount(v decimal.Decimal) string {
	return humanize.Comma(v.Round(0).IntPart())
}

// FormatCompact abbreviates large amounts for narrow columns.
// e.g., 1234 -> "1.2K", 12500000 -> "12.5M"
func FormatCompact(v decimal.Decimal) string {
	f := v.InexactFloat64()
	abs := f
	if abs < 0 {
		abs = -abs
	}

	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", f/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", f/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fK", f/1_000)
	default:
		return FormatAmount(v)
	}
}

// FormatDays describes a day offset relative to today.
func FormatDays(days int) string {
	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	case days == -1:
		return "1 day overdue"
	case days < 0:
		return fmt.Sprintf("%d days overdue", -days)
	default:
		return fmt.Sprintf("in %d days", days)
	}
}

// FormatDate renders a date, or a dash when it is absent.
func FormatDate(d model.Date) string {
	if d.IsZero() {
		return "-"
	}
	return d.String()
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatRate formats an annual rate given in percent.
func FormatRate(r decimal.Decimal) string {
	return r.StringFixed(2) + "%"
}

// FormatCount pluralizes a noun.
// e.g., (1, "item") -> "1 item", (3, "item") -> "3 items"
func FormatCount(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%s %ss", humanize.Comma(int64(n)), noun)
}

// Truncate shortens s to width runes, marking the cut with an ellipsis.
func Truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return strings.TrimRight(string(r[:width-1]), " ") + "…"
}

// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatCurrency formats a USD amount, shortening large values.
// e.g., 1234567.89 -> "$1,234,568", 42.5 -> "$42.50"
func FormatCurrency(v float64) string {
	neg := v < 0
	abs := math.Abs(v)

	var s string
	switch {
	case abs >= 1000:
		s = "$" + FormatNumber(int64(math.Round(abs)))
	case abs >= 100:
		s = fmt.Sprintf("$%.0f", abs)
	default:
		s = fmt.Sprintf("$%.2f", abs)
	}
	if neg {
		return "-" + s
	}
	return s
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatMargin formats a margin already on the 0-100 scale.
// e.g., 42.345 -> "42.3%"
func FormatMargin(m float64) string {
	return fmt.Sprintf("%.1f%%", m)
}

// FormatPercent formats a 0-1 fraction as a percentage string. Only the
// KPI summary reports utilization as a fraction.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatUtilization formats a row-level utilization, which the backend
// reports on the 0-100 scale. e.g., 82.5 -> "82.5%"
func FormatUtilization(u float64) string {
	return fmt.Sprintf("%.1f%%", u)
}

// FormatDelta formats a value change with an explicit sign.
func FormatDelta(current, previous float64) string {
	delta := current - previous
	if delta >= 0 {
		return "+" + FormatCurrency(delta)
	}
	return "-" + FormatCurrency(-delta)
}

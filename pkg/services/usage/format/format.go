// Package format holds the human-readable number and duration helpers
// shared by the terminal and web renderers.
package format

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// FormattedNumber renders a dollar amount with comma grouping and two
// decimals: 1234.5 -> "$1,234.50".
func FormattedNumber(amount float64) string {
	return "$" + humanize.FormatFloat("#,###.##", amount)
}

// PrettyDuration renders seconds as the largest whole unit plus one
// secondary unit, truncating rather than rounding: 3661 -> "1 hours
// and 1 minutes".
func PrettyDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}

	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%d days and %d hours", days, hours)
	case hours > 0:
		return fmt.Sprintf("%d hours and %d minutes", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%d minutes and %d seconds", minutes, secs)
	default:
		return fmt.Sprintf("%d seconds", secs)
	}
}

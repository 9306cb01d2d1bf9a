package usage

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/de-tools/usage-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
)

var dateRe = regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}$`)

// ResolveWindow turns the optional --start/--end strings into a
// concrete UTC window. Defaults: start = first instant of the current
// month, end = now. Dates resolving to the future are clamped to now.
func ResolveWindow(ctx context.Context, startStr, endStr string, now time.Time) (domain.Window, error) {
	logger := zerolog.Ctx(ctx)
	now = now.UTC()

	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := now

	if startStr != "" {
		t, err := parseDate(startStr)
		if err != nil {
			return domain.Window{}, NewExitError(ExitUsage, fmt.Sprintf("invalid start date %q: %v", startStr, err))
		}
		start = t
	}
	if endStr != "" {
		t, err := parseDate(endStr)
		if err != nil {
			return domain.Window{}, NewExitError(ExitUsage, fmt.Sprintf("invalid end date %q: %v", endStr, err))
		}
		end = t
	}

	if start.After(now) {
		logger.Warn().Time("start", start).Msg("start date is in the future, clamping to now")
		start = now
	}
	if end.After(now) {
		logger.Warn().Time("end", end).Msg("end date is in the future, clamping to now")
		end = now
	}

	if start.After(end) {
		return domain.Window{}, NewExitError(ExitUsage,
			fmt.Sprintf("start date %s is after end date %s",
				start.Format("2006-01-02"), end.Format("2006-01-02")))
	}

	return domain.Window{Start: start, End: end}, nil
}

func parseDate(s string) (time.Time, error) {
	if !dateRe.MatchString(s) {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD")
	}

	parts := strings.Split(s, "-")
	year, _ := strconv.Atoi(parts[0])
	month, _ := strconv.Atoi(parts[1])
	day, _ := strconv.Atoi(parts[2])

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, fmt.Errorf("no such date")
	}
	return t, nil
}

package usage

import "github.com/de-tools/usage-atlas/pkg/models/domain"

const (
	secondsPerHour  = 3600
	secondsPerDay   = 86400
	secondsPerMonth = 2592000
)

func unitSeconds(d domain.BillingDuration) int64 {
	switch d {
	case domain.DurationHour:
		return secondsPerHour
	case domain.DurationDay:
		return secondsPerDay
	case domain.DurationMonth:
		return secondsPerMonth
	}
	return 0
}

// EstimateCost charges whole billing units only. The division
// truncates on purpose: a partial unit costs nothing, which keeps the
// estimate conservative.
func EstimateCost(rate domain.UsageRate, elapsedSeconds int64) *domain.Cost {
	unit := unitSeconds(rate.Duration)
	if unit == 0 {
		return nil
	}

	units := elapsedSeconds / unit
	return &domain.Cost{
		USD:   float64(units) * rate.USD,
		Rate:  rate,
		Units: units,
	}
}

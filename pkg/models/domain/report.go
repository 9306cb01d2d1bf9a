package domain

import "time"

// Window is the resolved query window, always UTC.
type Window struct {
	Start time.Time
	End   time.Time
}

// MonthAligned reports whether the window covers whole calendar months.
// Monthly-rate discounting assumes whole-month granularity, so the
// renderers print a caveat when this is false.
func (w Window) MonthAligned() bool {
	return isMonthStart(w.Start) && isMonthStart(w.End)
}

func isMonthStart(t time.Time) bool {
	t = t.UTC()
	return t.Day() == 1 && t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

// Cost is the estimated charge for one usage line. Units is the whole
// number of billing units consumed; partial units are never charged.
type Cost struct {
	USD   float64
	Rate  UsageRate
	Units int64
}

// UsageLine is one rendered record in the single-user report.
type UsageLine struct {
	Record  UsageRecord
	Elapsed time.Duration
	Cost    *Cost
}

// UserUsageReport lists every matching record for one account.
type UserUsageReport struct {
	Account UserAccount
	Window  Window
	Lines   []UsageLine
}

// PlanUsageSummary aggregates usage across every user on one plan.
// An empty PlanID groups all users when no plan catalog is available.
type PlanUsageSummary struct {
	PlanID         string
	Users          int
	GearHours      map[string]int64
	CartHours      map[string]int64
	StorageGBHours int64
	CostUSD        float64
}

// UsageSummary is the aggregate-mode report over all matching users.
type UsageSummary struct {
	Window Window
	Plans  []PlanUsageSummary
}

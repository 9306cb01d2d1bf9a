package usage

import (
	"time"

	"github.com/de-tools/usage-atlas/pkg/models/domain"
)

// MonthlySeconds is an elapsed-seconds table indexed by [year][month].
type MonthlySeconds map[int]map[time.Month]int64

func (m MonthlySeconds) ensureYear(year int) {
	if _, ok := m[year]; ok {
		return
	}
	months := make(map[time.Month]int64, 12)
	for mo := time.January; mo <= time.December; mo++ {
		months[mo] = 0
	}
	m[year] = months
}

// Total sums every bucket in the table.
func (m MonthlySeconds) Total() int64 {
	var total int64
	for _, months := range m {
		for _, secs := range months {
			total += secs
		}
	}
	return total
}

// Accumulator collects one user's elapsed time per usage category for
// a single invocation. Gear and cart time is bucketed per calendar
// month; additional storage is a running gigabyte-second total.
type Accumulator struct {
	GearSeconds      map[string]MonthlySeconds
	CartSeconds      map[string]MonthlySeconds
	StorageGBSeconds int64
}

func NewAccumulator() *Accumulator {
	return &Accumulator{
		GearSeconds: make(map[string]MonthlySeconds),
		CartSeconds: make(map[string]MonthlySeconds),
	}
}

// Record folds one usage record into the accumulator. The record's
// active interval is first clipped to the query window; open-ended
// records are capped at now inside addElapsedTime.
func (a *Accumulator) Record(rec domain.UsageRecord, window domain.Window, now time.Time) {
	begin := rec.BeginTime.UTC()
	if window.Start.After(begin) {
		begin = window.Start
	}

	end := now.UTC()
	if rec.EndTime != nil {
		end = rec.EndTime.UTC()
	}
	if end.After(window.End) {
		end = window.End
	}

	if !begin.Before(end) {
		return
	}

	switch rec.UsageType {
	case domain.UsageTypeGear:
		buckets := a.GearSeconds[rec.GearSize]
		if buckets == nil {
			buckets = make(MonthlySeconds)
			a.GearSeconds[rec.GearSize] = buckets
		}
		addElapsedTime(begin, end, now, buckets)
	case domain.UsageTypePremiumCart:
		buckets := a.CartSeconds[rec.CartName]
		if buckets == nil {
			buckets = make(MonthlySeconds)
			a.CartSeconds[rec.CartName] = buckets
		}
		addElapsedTime(begin, end, now, buckets)
	case domain.UsageTypeAddtlFsGB:
		elapsed := clippedSeconds(begin, end, now)
		a.StorageGBSeconds += int64(rec.AddtlFsGB) * elapsed
	}
}

// addElapsedTime distributes the [begin, end) interval over the
// calendar months it spans, capping open intervals at now. Buckets
// only gain positive overlaps, so month boundaries are never counted
// twice.
func addElapsedTime(begin, end, now time.Time, buckets MonthlySeconds) {
	for year := begin.Year(); year <= end.Year(); year++ {
		buckets.ensureYear(year)

		for month := time.January; month <= time.December; month++ {
			monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
			monthEnd := monthStart.AddDate(0, 1, 0)

			overlapStart := begin
			if monthStart.After(overlapStart) {
				overlapStart = monthStart
			}

			overlapEnd := end
			if monthEnd.Before(overlapEnd) {
				overlapEnd = monthEnd
			}
			if now.Before(overlapEnd) {
				overlapEnd = now
			}

			if overlapEnd.After(overlapStart) {
				buckets[year][month] += int64(overlapEnd.Sub(overlapStart).Seconds())
			}
		}
	}
}

func clippedSeconds(begin, end, now time.Time) int64 {
	if now.Before(end) {
		end = now
	}
	if !end.After(begin) {
		return 0
	}
	return int64(end.Sub(begin).Seconds())
}

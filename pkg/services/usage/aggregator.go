package usage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/de-tools/usage-atlas/pkg/models/domain"
)

// AccountResolver is the account-lookup side of the record store.
type AccountResolver interface {
	GetAccounts(ctx context.Context, filter domain.AccountFilter) ([]domain.UserAccount, error)
}

// RecordResolver is the usage-record side of the record store.
type RecordResolver interface {
	GetRecords(ctx context.Context, filter domain.RecordFilter) ([]domain.UsageRecord, error)
}

// Billing is the rate/plan collaborator. ApplyDiscounts mutates the
// per-user accumulator map before totals are taken.
type Billing interface {
	GetRate(planID string, usageType domain.UsageType, qualifier string) (domain.UsageRate, bool)
	ListPlans() []string
	ApplyDiscounts(planID string, accs map[string]*Accumulator)
}

// Filters are the optional CLI filters beyond the login itself.
type Filters struct {
	AppName string
	GearID  string
	PlanID  string
}

// Aggregator runs the reporting pipeline: resolve accounts, resolve
// records, accumulate per category, estimate cost.
type Aggregator struct {
	accounts AccountResolver
	records  RecordResolver
	billing  Billing
	now      func() time.Time
}

func NewAggregator(accounts AccountResolver, records RecordResolver, billing Billing) *Aggregator {
	return &Aggregator{
		accounts: accounts,
		records:  records,
		billing:  billing,
		now:      time.Now,
	}
}

// WithClock overrides the reference "current time", used to cap
// open-ended records. Tests rely on it.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// UserReport builds the single-user, per-record report.
func (a *Aggregator) UserReport(
	ctx context.Context,
	login string,
	filters Filters,
	window domain.Window,
) (*domain.UserUsageReport, error) {
	accounts, err := a.accounts.GetAccounts(ctx, domain.AccountFilter{Login: login, PlanID: filters.PlanID})
	if err != nil {
		return nil, fmt.Errorf("resolve account: %w", err)
	}
	if len(accounts) == 0 {
		if filters.PlanID != "" {
			return nil, NewExitError(ExitUserNotFound,
				fmt.Sprintf("user %q not found under plan %q", login, filters.PlanID))
		}
		return nil, NewExitError(ExitUserNotFound, fmt.Sprintf("user %q not found", login))
	}
	account := accounts[0]

	records, err := a.records.GetRecords(ctx, domain.RecordFilter{
		UserIDs: []string{account.ID},
		AppName: filters.AppName,
		GearID:  filters.GearID,
		Start:   window.Start,
		End:     window.End,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve usage records: %w", err)
	}

	now := a.now().UTC()
	report := &domain.UserUsageReport{Account: account, Window: window}
	for _, rec := range records {
		end := now
		if rec.EndTime != nil {
			end = rec.EndTime.UTC()
		}
		elapsed := end.Sub(rec.BeginTime.UTC())
		if elapsed < 0 {
			elapsed = 0
		}

		line := domain.UsageLine{Record: rec, Elapsed: elapsed}
		if rate, ok := a.billing.GetRate(account.PlanID, rec.UsageType, rec.Qualifier()); ok {
			line.Cost = EstimateCost(rate, int64(elapsed.Seconds()))
		}
		report.Lines = append(report.Lines, line)
	}

	return report, nil
}

// Summary builds the aggregate-mode report: per billing plan, or one
// group across all users when the billing catalog lists no plans.
func (a *Aggregator) Summary(
	ctx context.Context,
	filters Filters,
	window domain.Window,
) (*domain.UsageSummary, error) {
	var plans []string
	if filters.PlanID != "" {
		plans = []string{filters.PlanID}
	} else {
		plans = a.billing.ListPlans()
	}

	summary := &domain.UsageSummary{Window: window}

	if len(plans) == 0 {
		group, err := a.summarizePlan(ctx, "", filters, window)
		if err != nil {
			return nil, err
		}
		summary.Plans = append(summary.Plans, *group)
		return summary, nil
	}

	sort.Strings(plans)
	for _, plan := range plans {
		group, err := a.summarizePlan(ctx, plan, filters, window)
		if err != nil {
			return nil, err
		}
		summary.Plans = append(summary.Plans, *group)
	}

	return summary, nil
}

func (a *Aggregator) summarizePlan(
	ctx context.Context,
	planID string,
	filters Filters,
	window domain.Window,
) (*domain.PlanUsageSummary, error) {
	accounts, err := a.accounts.GetAccounts(ctx, domain.AccountFilter{PlanID: planID})
	if err != nil {
		return nil, fmt.Errorf("resolve accounts for plan %q: %w", planID, err)
	}

	group := &domain.PlanUsageSummary{
		PlanID:    planID,
		Users:     len(accounts),
		GearHours: make(map[string]int64),
		CartHours: make(map[string]int64),
	}
	if len(accounts) == 0 {
		return group, nil
	}

	userIDs := make([]string, 0, len(accounts))
	for _, acc := range accounts {
		userIDs = append(userIDs, acc.ID)
	}

	records, err := a.records.GetRecords(ctx, domain.RecordFilter{
		UserIDs: userIDs,
		AppName: filters.AppName,
		GearID:  filters.GearID,
		Start:   window.Start,
		End:     window.End,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve usage records for plan %q: %w", planID, err)
	}

	now := a.now().UTC()
	accs := make(map[string]*Accumulator)
	for _, rec := range records {
		acc := accs[rec.UserID]
		if acc == nil {
			acc = NewAccumulator()
			accs[rec.UserID] = acc
		}
		acc.Record(rec, window, now)
	}

	a.billing.ApplyDiscounts(planID, accs)

	gearSeconds := make(map[string]int64)
	cartSeconds := make(map[string]int64)
	for _, acc := range accs {
		for size, buckets := range acc.GearSeconds {
			gearSeconds[size] += buckets.Total()
		}
		for cart, buckets := range acc.CartSeconds {
			cartSeconds[cart] += buckets.Total()
		}
		group.StorageGBHours += acc.StorageGBSeconds / secondsPerHour
	}

	for size, secs := range gearSeconds {
		group.GearHours[size] = secs / secondsPerHour
		if rate, ok := a.billing.GetRate(planID, domain.UsageTypeGear, size); ok {
			if cost := EstimateCost(rate, secs); cost != nil {
				group.CostUSD += cost.USD
			}
		}
	}
	for cart, secs := range cartSeconds {
		group.CartHours[cart] = secs / secondsPerHour
		if rate, ok := a.billing.GetRate(planID, domain.UsageTypePremiumCart, cart); ok {
			if cost := EstimateCost(rate, secs); cost != nil {
				group.CostUSD += cost.USD
			}
		}
	}

	return group, nil
}

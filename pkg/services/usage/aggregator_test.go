package usage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/de-tools/usage-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAccounts struct {
	mock.Mock
}

func (m *mockAccounts) GetAccounts(ctx context.Context, filter domain.AccountFilter) ([]domain.UserAccount, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UserAccount), args.Error(1)
}

type mockRecords struct {
	mock.Mock
}

func (m *mockRecords) GetRecords(ctx context.Context, filter domain.RecordFilter) ([]domain.UsageRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UsageRecord), args.Error(1)
}

type mockBilling struct {
	mock.Mock
}

func (m *mockBilling) GetRate(planID string, usageType domain.UsageType, qualifier string) (domain.UsageRate, bool) {
	args := m.Called(planID, usageType, qualifier)
	return args.Get(0).(domain.UsageRate), args.Bool(1)
}

func (m *mockBilling) ListPlans() []string {
	return m.Called().Get(0).([]string)
}

func (m *mockBilling) ApplyDiscounts(planID string, accs map[string]*Accumulator) {
	m.Called(planID, accs)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestAggregator_UserReport(t *testing.T) {
	ctx := context.Background()
	now := utc(2024, time.June, 20, 0)
	window := domain.Window{Start: utc(2024, time.June, 1, 0), End: utc(2024, time.July, 1, 0)}

	t.Run("per-record lines with cost", func(t *testing.T) {
		accounts := &mockAccounts{}
		records := &mockRecords{}
		billing := &mockBilling{}

		account := domain.UserAccount{ID: "u1", Login: "alice", PlanID: "silver"}
		accounts.On("GetAccounts", ctx, domain.AccountFilter{Login: "alice"}).
			Return([]domain.UserAccount{account}, nil)

		end := utc(2024, time.June, 10, 10)
		records.On("GetRecords", ctx, domain.RecordFilter{
			UserIDs: []string{"u1"},
			Start:   window.Start,
			End:     window.End,
		}).Return([]domain.UsageRecord{
			{
				UserID: "u1", UsageType: domain.UsageTypeGear, GearSize: "small",
				GearID: "53443dc5e659c5a5f90001a1", AppName: "blog",
				BeginTime: utc(2024, time.June, 10, 0), EndTime: &end,
			},
			{
				UserID: "u1", UsageType: domain.UsageTypePremiumCart, CartName: "jenkins",
				BeginTime: utc(2024, time.June, 19, 0), // still open
			},
		}, nil)

		billing.On("GetRate", "silver", domain.UsageTypeGear, "small").
			Return(domain.UsageRate{USD: 0.05, Duration: domain.DurationHour}, true)
		billing.On("GetRate", "silver", domain.UsageTypePremiumCart, "jenkins").
			Return(domain.UsageRate{}, false)

		agg := NewAggregator(accounts, records, billing).WithClock(fixedClock(now))

		report, err := agg.UserReport(ctx, "alice", Filters{}, window)
		require.NoError(t, err)
		require.Len(t, report.Lines, 2)

		gear := report.Lines[0]
		assert.Equal(t, 10*time.Hour, gear.Elapsed)
		require.NotNil(t, gear.Cost)
		assert.Equal(t, int64(10), gear.Cost.Units)
		assert.InDelta(t, 0.50, gear.Cost.USD, 1e-9)

		cart := report.Lines[1]
		assert.Equal(t, 24*time.Hour, cart.Elapsed) // capped at now
		assert.Nil(t, cart.Cost)                    // no rate, no cost line
	})

	t.Run("user not found", func(t *testing.T) {
		accounts := &mockAccounts{}
		accounts.On("GetAccounts", ctx, domain.AccountFilter{Login: "ghost"}).
			Return([]domain.UserAccount{}, nil)

		agg := NewAggregator(accounts, &mockRecords{}, &mockBilling{})

		_, err := agg.UserReport(ctx, "ghost", Filters{}, window)
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, ExitUserNotFound, exitErr.Code)
		assert.Contains(t, exitErr.Message, "not found")
		assert.NotContains(t, exitErr.Message, "under plan")
	})

	t.Run("user not found under plan", func(t *testing.T) {
		accounts := &mockAccounts{}
		accounts.On("GetAccounts", ctx, domain.AccountFilter{Login: "alice", PlanID: "gold"}).
			Return([]domain.UserAccount{}, nil)

		agg := NewAggregator(accounts, &mockRecords{}, &mockBilling{})

		_, err := agg.UserReport(ctx, "alice", Filters{PlanID: "gold"}, window)
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, ExitUserNotFound, exitErr.Code)
		assert.Contains(t, exitErr.Message, `under plan "gold"`)
	})

	t.Run("store failure is wrapped", func(t *testing.T) {
		accounts := &mockAccounts{}
		accounts.On("GetAccounts", ctx, mock.Anything).
			Return(nil, errors.New("disk on fire"))

		agg := NewAggregator(accounts, &mockRecords{}, &mockBilling{})

		_, err := agg.UserReport(ctx, "alice", Filters{}, window)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "resolve account")
	})
}

func TestAggregator_Summary(t *testing.T) {
	ctx := context.Background()
	now := utc(2024, time.August, 1, 0)
	window := domain.Window{Start: utc(2024, time.June, 1, 0), End: utc(2024, time.July, 1, 0)}

	t.Run("per-plan totals with discounts applied", func(t *testing.T) {
		accounts := &mockAccounts{}
		records := &mockRecords{}
		billing := &mockBilling{}

		billing.On("ListPlans").Return([]string{"free"})
		accounts.On("GetAccounts", ctx, domain.AccountFilter{PlanID: "free"}).
			Return([]domain.UserAccount{
				{ID: "u1", Login: "alice", PlanID: "free"},
				{ID: "u2", Login: "bob", PlanID: "free"},
			}, nil)

		end1 := utc(2024, time.June, 1, 3)
		end2 := utc(2024, time.June, 2, 2)
		endFs := utc(2024, time.June, 1, 2)
		records.On("GetRecords", ctx, domain.RecordFilter{
			UserIDs: []string{"u1", "u2"},
			Start:   window.Start,
			End:     window.End,
		}).Return([]domain.UsageRecord{
			{
				UserID: "u1", UsageType: domain.UsageTypeGear, GearSize: "small",
				BeginTime: utc(2024, time.June, 1, 0), EndTime: &end1,
			},
			{
				UserID: "u2", UsageType: domain.UsageTypeGear, GearSize: "small",
				BeginTime: utc(2024, time.June, 2, 0), EndTime: &end2,
			},
			{
				UserID: "u1", UsageType: domain.UsageTypeAddtlFsGB, AddtlFsGB: 2,
				BeginTime: utc(2024, time.June, 1, 0), EndTime: &endFs,
			},
		}, nil)

		billing.On("ApplyDiscounts", "free", mock.Anything).Return()
		billing.On("GetRate", "free", domain.UsageTypeGear, "small").
			Return(domain.UsageRate{USD: 0.10, Duration: domain.DurationHour}, true)

		agg := NewAggregator(accounts, records, billing).WithClock(fixedClock(now))

		summary, err := agg.Summary(ctx, Filters{}, window)
		require.NoError(t, err)
		require.Len(t, summary.Plans, 1)

		plan := summary.Plans[0]
		assert.Equal(t, "free", plan.PlanID)
		assert.Equal(t, 2, plan.Users)
		assert.Equal(t, int64(5), plan.GearHours["small"]) // 3h + 2h
		assert.Equal(t, int64(4), plan.StorageGBHours)     // 2 GB for 2h
		assert.InDelta(t, 0.50, plan.CostUSD, 1e-9)

		billing.AssertCalled(t, "ApplyDiscounts", "free", mock.Anything)
	})

	t.Run("no plan catalog - one group across all users", func(t *testing.T) {
		accounts := &mockAccounts{}
		records := &mockRecords{}
		billing := &mockBilling{}

		billing.On("ListPlans").Return([]string{})
		accounts.On("GetAccounts", ctx, domain.AccountFilter{}).
			Return([]domain.UserAccount{{ID: "u1", Login: "alice"}}, nil)
		records.On("GetRecords", ctx, mock.Anything).Return([]domain.UsageRecord{}, nil)
		billing.On("ApplyDiscounts", "", mock.Anything).Return()

		agg := NewAggregator(accounts, records, billing).WithClock(fixedClock(now))

		summary, err := agg.Summary(ctx, Filters{}, window)
		require.NoError(t, err)
		require.Len(t, summary.Plans, 1)
		assert.Empty(t, summary.Plans[0].PlanID)
		assert.Equal(t, 1, summary.Plans[0].Users)
	})

	t.Run("plan filter restricts to one plan", func(t *testing.T) {
		accounts := &mockAccounts{}
		records := &mockRecords{}
		billing := &mockBilling{}

		accounts.On("GetAccounts", ctx, domain.AccountFilter{PlanID: "gold"}).
			Return([]domain.UserAccount{}, nil)

		agg := NewAggregator(accounts, records, billing).WithClock(fixedClock(now))

		summary, err := agg.Summary(ctx, Filters{PlanID: "gold"}, window)
		require.NoError(t, err)
		require.Len(t, summary.Plans, 1)
		assert.Equal(t, "gold", summary.Plans[0].PlanID)
		assert.Zero(t, summary.Plans[0].Users)
		billing.AssertNotCalled(t, "ListPlans")
	})
}

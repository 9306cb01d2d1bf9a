package usage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/de-tools/usage-atlas/pkg/models/api"
	"github.com/de-tools/usage-atlas/pkg/models/domain"
	usagesvc "github.com/de-tools/usage-atlas/pkg/services/usage"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockReportService struct {
	mock.Mock
}

func (m *mockReportService) UserReport(
	ctx context.Context,
	login string,
	filters usagesvc.Filters,
	window domain.Window,
) (*domain.UserUsageReport, error) {
	args := m.Called(ctx, login, filters, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserUsageReport), args.Error(1)
}

func (m *mockReportService) Summary(
	ctx context.Context,
	filters usagesvc.Filters,
	window domain.Window,
) (*domain.UsageSummary, error) {
	args := m.Called(ctx, filters, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UsageSummary), args.Error(1)
}

type mockPlanCatalog struct {
	mock.Mock
}

func (m *mockPlanCatalog) ListPlans() []string {
	return m.Called().Get(0).([]string)
}

func (m *mockPlanCatalog) ValidatePlanID(planID string) error {
	return m.Called(planID).Error(0)
}

func newTestRouter(reports ReportService, plans PlanCatalog) *chi.Mux {
	handler := NewHandler(reports, plans)
	router := chi.NewRouter()
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/plans", handler.ListPlans)
		r.Get("/users/{login}/usage", handler.GetUserUsage)
		r.Get("/usage/summary", handler.GetUsageSummary)
	})
	return router
}

func TestHandler_ListPlans(t *testing.T) {
	plans := &mockPlanCatalog{}
	plans.On("ListPlans").Return([]string{"free", "silver"})

	router := newTestRouter(&mockReportService{}, plans)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var got []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []string{"free", "silver"}, got)
}

func TestHandler_GetUserUsage(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		reports := &mockReportService{}
		end := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
		reports.On("UserReport", mock.Anything, "alice", usagesvc.Filters{}, mock.Anything).
			Return(&domain.UserUsageReport{
				Account: domain.UserAccount{ID: "u1", Login: "alice", PlanID: "free"},
				Lines: []domain.UsageLine{
					{
						Record: domain.UsageRecord{
							UsageType: domain.UsageTypeGear,
							GearSize:  "small",
							BeginTime: end.Add(-10 * time.Hour),
							EndTime:   &end,
						},
						Elapsed: 10 * time.Hour,
					},
				},
			}, nil)

		router := newTestRouter(reports, &mockPlanCatalog{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/alice/usage", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var got api.UserUsageReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "alice", got.Login)
		require.Len(t, got.Lines, 1)
		assert.Equal(t, "gear_usage", got.Lines[0].UsageType)
		assert.Equal(t, "10 hours and 0 minutes", got.Lines[0].Duration)
	})

	t.Run("unknown user maps to 404", func(t *testing.T) {
		reports := &mockReportService{}
		reports.On("UserReport", mock.Anything, "ghost", usagesvc.Filters{}, mock.Anything).
			Return(nil, usagesvc.NewExitError(usagesvc.ExitUserNotFound, `user "ghost" not found`))

		router := newTestRouter(reports, &mockPlanCatalog{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/ghost/usage", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad date maps to 400 without calling the service", func(t *testing.T) {
		reports := &mockReportService{}
		router := newTestRouter(reports, &mockPlanCatalog{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/alice/usage?start=junk", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		reports.AssertNotCalled(t, "UserReport", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("bad gear id maps to 400", func(t *testing.T) {
		router := newTestRouter(&mockReportService{}, &mockPlanCatalog{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/alice/usage?gear=short", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_GetUsageSummary(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		reports := &mockReportService{}
		plans := &mockPlanCatalog{}

		plans.On("ValidatePlanID", "free").Return(nil)
		reports.On("Summary", mock.Anything, usagesvc.Filters{PlanID: "free"}, mock.Anything).
			Return(&domain.UsageSummary{
				Plans: []domain.PlanUsageSummary{
					{PlanID: "free", Users: 3, GearHours: map[string]int64{"small": 12}},
				},
			}, nil)

		router := newTestRouter(reports, plans)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/usage/summary?plan=free", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var got api.UsageSummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got.Plans, 1)
		assert.Equal(t, int64(12), got.Plans[0].GearHours["small"])
	})

	t.Run("invalid plan maps to 400", func(t *testing.T) {
		plans := &mockPlanCatalog{}
		plans.On("ValidatePlanID", "gold").
			Return(usagesvc.NewExitError(usagesvc.ExitInvalidPlanID, `invalid plan id "gold"`))

		router := newTestRouter(&mockReportService{}, plans)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/usage/summary?plan=gold", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

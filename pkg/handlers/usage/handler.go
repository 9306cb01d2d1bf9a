package usage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/de-tools/usage-atlas/pkg/adapters"
	"github.com/de-tools/usage-atlas/pkg/models/domain"
	usagesvc "github.com/de-tools/usage-atlas/pkg/services/usage"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// ReportService is the slice of the aggregator the handlers need.
type ReportService interface {
	UserReport(ctx context.Context, login string, filters usagesvc.Filters, window domain.Window) (*domain.UserUsageReport, error)
	Summary(ctx context.Context, filters usagesvc.Filters, window domain.Window) (*domain.UsageSummary, error)
}

// PlanCatalog is the slice of the billing catalog the handlers need.
type PlanCatalog interface {
	ListPlans() []string
	ValidatePlanID(planID string) error
}

type Handler struct {
	reports ReportService
	plans   PlanCatalog
}

func NewHandler(reports ReportService, plans PlanCatalog) *Handler {
	return &Handler{
		reports: reports,
		plans:   plans,
	}
}

func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	writeJSON(w, logger, h.plans.ListPlans())
}

func (h *Handler) GetUserUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)
	login := chi.URLParam(r, "login")

	filters := usagesvc.Filters{
		AppName: r.URL.Query().Get("app"),
		GearID:  r.URL.Query().Get("gear"),
	}
	if err := usagesvc.ValidateGearID(filters.GearID); err != nil {
		writeError(w, logger, err)
		return
	}

	window, err := usagesvc.ResolveWindow(ctx, r.URL.Query().Get("start"), r.URL.Query().Get("end"), time.Now())
	if err != nil {
		writeError(w, logger, err)
		return
	}

	report, err := h.reports.UserReport(ctx, login, filters, window)
	if err != nil {
		writeError(w, logger, err)
		return
	}

	writeJSON(w, logger, adapters.MapUserReportDomainToApi(*report))
}

func (h *Handler) GetUsageSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	filters := usagesvc.Filters{PlanID: r.URL.Query().Get("plan")}
	if err := h.plans.ValidatePlanID(filters.PlanID); err != nil {
		writeError(w, logger, err)
		return
	}

	window, err := usagesvc.ResolveWindow(ctx, r.URL.Query().Get("start"), r.URL.Query().Get("end"), time.Now())
	if err != nil {
		writeError(w, logger, err)
		return
	}

	summary, err := h.reports.Summary(ctx, filters, window)
	if err != nil {
		writeError(w, logger, err)
		return
	}

	writeJSON(w, logger, adapters.MapSummaryDomainToApi(*summary))
}

func writeJSON(w http.ResponseWriter, logger *zerolog.Logger, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, logger *zerolog.Logger, err error) {
	status := http.StatusInternalServerError

	var exitErr *usagesvc.ExitError
	if errors.As(err, &exitErr) {
		switch exitErr.Code {
		case usagesvc.ExitUserNotFound:
			status = http.StatusNotFound
		default:
			status = http.StatusBadRequest
		}
	}

	logger.Error().Err(err).Int("status", status).Msg("request failed")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

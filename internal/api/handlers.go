package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"taxdesk/internal/forecast"
	"taxdesk/internal/period"
	"taxdesk/internal/store"
	"taxdesk/internal/vatreturn"
)

// VATReturns generates VAT returns.
type VATReturns interface {
	Generate(ctx context.Context, tenantID string, year, quarter int, opts vatreturn.Options) (*vatreturn.QuarterlyVATReturn, error)
}

// Forecasts generates cash-flow forecasts.
type Forecasts interface {
	Forecast(ctx context.Context, tenantID string, days int, today time.Time) (*forecast.Forecast, error)
}

// Reports lists archived snapshots.
type Reports interface {
	ListReports(ctx context.Context, tenantID string) ([]store.Snapshot, error)
	GetReport(ctx context.Context, tenantID, id string) (*store.Snapshot, error)
}

// Handler serves the tenant endpoints.
type Handler struct {
	vatReturns VATReturns
	forecasts  Forecasts
	reports    Reports
}

// NewHandler creates a Handler.
func NewHandler(vatReturns VATReturns, forecasts Forecasts, reports Reports) *Handler {
	return &Handler{vatReturns: vatReturns, forecasts: forecasts, reports: reports}
}

// VATReturn handles GET /api/v1/tenants/{tenantID}/vat-returns/{year}/{quarter}.
func (h *Handler) VATReturn(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")

	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid year")
		return
	}
	quarter, err := strconv.Atoi(chi.URLParam(r, "quarter"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid quarter")
		return
	}

	opts := vatreturn.DefaultOptions()
	if opts.IncludeRevenue, err = queryBool(r, "include_revenue", true); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid include_revenue")
		return
	}
	if opts.IncludeExpenses, err = queryBool(r, "include_expenses", true); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid include_expenses")
		return
	}

	ret, err := h.vatReturns.Generate(r.Context(), tenantID, year, quarter, opts)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ret)
}

// CashFlow handles GET /api/v1/tenants/{tenantID}/cash-flow.
func (h *Handler) CashFlow(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")

	days := 0
	if s := r.URL.Query().Get("days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid days")
			return
		}
		days = n
		if days <= 0 {
			writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "days must be positive")
			return
		}
	}

	var today time.Time
	if s := r.URL.Query().Get("today"); s != "" {
		t, err := period.ParseDate(s)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid today, expected YYYY-MM-DD")
			return
		}
		today = t
	}

	f, err := h.forecasts.Forecast(r.Context(), tenantID, days, today)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, f)
}

// ListReports handles GET /api/v1/tenants/{tenantID}/reports.
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")

	reports, err := h.reports.ListReports(r.Context(), tenantID)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	if reports == nil {
		reports = []store.Snapshot{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
	})
}

// GetReport handles GET /api/v1/tenants/{tenantID}/reports/{reportID} and
// returns the archived document unchanged.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	reportID := chi.URLParam(r, "reportID")

	snap, err := h.reports.GetReport(r.Context(), tenantID, reportID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "not_found", "Report not found")
			return
		}
		writeInternalError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Report-Checksum", snap.Checksum)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(snap.Payload)
}

// writeServiceError maps validation failures to 400 and everything else to 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *period.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", ve.Error())
	case errors.Is(err, vatreturn.ErrMissingTenant),
		errors.Is(err, vatreturn.ErrNothingSelected),
		errors.Is(err, forecast.ErrMissingTenant):
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
	default:
		writeInternalError(w, r, err)
	}
}

func queryBool(r *http.Request, key string, def bool) (bool, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}
	return strconv.ParseBool(s)
}

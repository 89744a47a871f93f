// Package forecast projects a tenant's cash position day by day from
// outstanding invoices, expected expenses and scheduled VAT payments.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"taxdesk/internal/fetch"
	"taxdesk/internal/logger"
	"taxdesk/internal/period"
	"taxdesk/pkg/models"
)

// ErrMissingTenant is returned when no tenant identifier is given.
var ErrMissingTenant = errors.New("tenant ID is required")

// Repository reads the records a forecast is built from.
type Repository interface {
	OutstandingInvoices(ctx context.Context, tenantID string) ([]models.Invoice, error)
	ExpensesBetween(ctx context.Context, tenantID string, from, to time.Time) ([]models.Expense, error)
	ActiveRecurringExpenses(ctx context.Context, tenantID string) ([]models.RecurringExpense, error)
	UnbilledTimeEntries(ctx context.Context, tenantID string) ([]models.TimeEntry, error)
	DashboardMetrics(ctx context.Context, tenantID string, asOf time.Time) (models.DashboardMetrics, error)
}

// VATEstimator computes the net VAT of a filing period.
type VATEstimator interface {
	NetVATPayable(ctx context.Context, tenantID string, p period.Period) (decimal.Decimal, error)
}

// Service produces cash-flow forecasts.
type Service struct {
	repo   Repository
	vat    VATEstimator
	cfg    Config
	policy fetch.Policy
	now    func() time.Time
	log    zerolog.Logger
}

// NewService creates a Service. vat may be nil, in which case no VAT
// payments are projected.
func NewService(repo Repository, vat VATEstimator, cfg Config, policy fetch.Policy) *Service {
	return &Service{
		repo:   repo,
		vat:    vat,
		cfg:    cfg,
		policy: policy,
		now:    time.Now,
		log:    logger.WithComponent("forecast"),
	}
}

// Forecast projects days ahead from today. A zero today means the current
// date and zero days means the configured default. Every source is read
// independently; one that fails contributes nothing and is reported in
// DataQuality instead of failing the forecast.
func (s *Service) Forecast(ctx context.Context, tenantID string, days int, today time.Time) (*Forecast, error) {
	const op = "Forecast"

	if tenantID == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingTenant)
	}
	if days == 0 {
		days = s.cfg.DefaultDays
	}
	if s.cfg.MaxDays > 0 && days > s.cfg.MaxDays {
		return nil, fmt.Errorf("%s: %w", op, &period.ValidationError{
			Field:   "days",
			Value:   days,
			Message: fmt.Sprintf("days must not exceed %d", s.cfg.MaxDays),
			Err:     period.ErrInvalidHorizon,
		})
	}
	if today.IsZero() {
		today = s.now()
	}
	today = period.Normalize(today)
	if _, err := period.ForecastWindow(today, days); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log := logger.WithTenant(s.log, tenantID)
	log.Info().Int("days", days).Str("today", today.Format(period.DateLayout)).Msg("Generating cash-flow forecast")

	in, err := s.load(ctx, log, tenantID, today, days)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	f, err := Project(in, s.cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	f.TenantID = tenantID
	f.GeneratedAt = s.now().UTC()

	log.Info().
		Float64("ending_balance", f.Totals.EndingBalance).
		Int("runway_days", f.Scenarios.Realistic.RunwayDays).
		Strs("failed_sources", f.DataQuality.FailedSources).
		Msg("Cash-flow forecast generated")

	return f, nil
}

func (s *Service) load(ctx context.Context, log zerolog.Logger, tenantID string, today time.Time, days int) (Input, error) {
	in := Input{Today: today, Days: days}
	failures := &fetch.Failures{}
	histFrom := today.AddDate(0, 0, -s.cfg.HistoricalWindowDays)
	histTo := today.AddDate(0, 0, -1)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		in.Invoices, err = fetch.OrEmpty(gctx, s.policy, log, failures, "invoices",
			func(ctx context.Context) ([]models.Invoice, error) {
				return s.repo.OutstandingInvoices(ctx, tenantID)
			})
		return err
	})
	g.Go(func() error {
		var err error
		in.HistoricalExpenses, err = fetch.OrEmpty(gctx, s.policy, log, failures, "expenses",
			func(ctx context.Context) ([]models.Expense, error) {
				return s.repo.ExpensesBetween(ctx, tenantID, histFrom, histTo)
			})
		return err
	})
	g.Go(func() error {
		var err error
		in.Recurring, err = fetch.OrEmpty(gctx, s.policy, log, failures, "recurring_expenses",
			func(ctx context.Context) ([]models.RecurringExpense, error) {
				return s.repo.ActiveRecurringExpenses(ctx, tenantID)
			})
		return err
	})
	g.Go(func() error {
		var err error
		in.UnbilledTime, err = fetch.OrEmpty(gctx, s.policy, log, failures, "time_entries",
			func(ctx context.Context) ([]models.TimeEntry, error) {
				return s.repo.UnbilledTimeEntries(ctx, tenantID)
			})
		return err
	})
	g.Go(func() error {
		metrics, err := fetch.OrEmpty(gctx, s.policy, log, failures, "dashboard_metrics",
			func(ctx context.Context) (models.DashboardMetrics, error) {
				return s.repo.DashboardMetrics(ctx, tenantID, today)
			})
		in.StartingBalance = metrics.CurrentBalance
		return err
	})
	if s.vat != nil {
		settled := period.SettledPeriod(period.NextPaymentDate(today, s.cfg.FilingFrequency), s.cfg.FilingFrequency)
		// the estimator retries its own reads
		once := s.policy
		once.Retries = 0
		g.Go(func() error {
			var err error
			in.NetVATOwed, err = fetch.OrEmpty(gctx, once, log, failures, "vat",
				func(ctx context.Context) (decimal.Decimal, error) {
					return s.vat.NetVATPayable(ctx, tenantID, settled)
				})
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return Input{}, err
	}
	in.FailedSources = failures.Sources()
	return in, nil
}

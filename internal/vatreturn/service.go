// Package vatreturn builds quarterly Dutch VAT returns from a tenant's
// invoices and expenses.
package vatreturn

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"taxdesk/internal/fetch"
	"taxdesk/internal/logger"
	"taxdesk/internal/period"
	"taxdesk/internal/store"
	"taxdesk/internal/vat"
	"taxdesk/pkg/models"
)

// Repository reads the transactions a return is built from.
type Repository interface {
	InvoicesIssuedBetween(ctx context.Context, tenantID string, from, to time.Time, statuses []models.InvoiceStatus) ([]models.Invoice, error)
	ExpensesBetween(ctx context.Context, tenantID string, from, to time.Time) ([]models.Expense, error)
}

// Archive stores write-once audit snapshots.
type Archive interface {
	SaveReport(ctx context.Context, tenantID string, reportType store.ReportType, periodKey string, payload []byte) (*store.Snapshot, error)
}

// Options select which sides of the return are included.
type Options struct {
	IncludeRevenue  bool
	IncludeExpenses bool
}

// DefaultOptions includes both revenue and expenses.
func DefaultOptions() Options {
	return Options{IncludeRevenue: true, IncludeExpenses: true}
}

// Config holds the rules a Service applies.
type Config struct {
	Classifier *vat.Classifier
	Limits     Limits
	Bounds     period.Bounds
	Fetch      fetch.Policy
}

// DefaultConfig returns the Dutch defaults.
func DefaultConfig() Config {
	return Config{
		Classifier: vat.NewClassifier(vat.HomeCountry, vat.DefaultRates),
		Limits:     DefaultLimits(),
		Bounds:     period.DefaultBounds,
		Fetch:      fetch.DefaultPolicy(),
	}
}

// Service generates VAT returns.
type Service struct {
	repo    Repository
	archive Archive
	cfg     Config
	now     func() time.Time
	log     zerolog.Logger
}

// NewService creates a Service. archive may be nil, in which case no
// snapshots are written.
func NewService(repo Repository, archive Archive, cfg Config) *Service {
	if cfg.Classifier == nil {
		cfg.Classifier = vat.NewClassifier(vat.HomeCountry, vat.DefaultRates)
	}
	return &Service{
		repo:    repo,
		archive: archive,
		cfg:     cfg,
		now:     time.Now,
		log:     logger.WithComponent("vat-return"),
	}
}

// Generate builds the return for year and quarter. A source that cannot be
// read contributes nothing and is listed in DataQuality. The return is
// archived as a snapshot when complete; archiving failures are only logged.
func (s *Service) Generate(ctx context.Context, tenantID string, year, quarter int, opts Options) (*QuarterlyVATReturn, error) {
	const op = "Generate"

	if tenantID == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingTenant)
	}
	if !opts.IncludeRevenue && !opts.IncludeExpenses {
		return nil, fmt.Errorf("%s: %w", op, ErrNothingSelected)
	}

	p, err := s.cfg.Bounds.ResolveQuarter(year, quarter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log := logger.WithTenant(s.log, tenantID)
	log.Info().Str("period", p.Key()).Msg("Generating VAT return")

	failures := &fetch.Failures{}
	in, err := s.load(ctx, tenantID, p, opts, failures)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := Aggregate(in)
	ret := &QuarterlyVATReturn{
		TenantID:         tenantID,
		Period:           newPeriodInfo(p),
		Revenue:          result.Revenue,
		Expenses:         result.Expenses,
		Summary:          result.Summary,
		ComplianceChecks: Check(result, s.cfg.Limits),
		EUTransactions:   result.EU,
		DataQuality:      newDataQuality(failures.Sources()),
	}

	s.archiveReturn(ctx, log, ret, p)
	ret.GeneratedAt = s.now().UTC()

	log.Info().
		Str("period", p.Key()).
		Str("net_vat_payable", ret.Summary.NetVATPayable.StringFixed(2)).
		Bool("ready_for_submission", ret.ComplianceChecks.ReadyForSubmission).
		Msg("VAT return generated")

	return ret, nil
}

// NetVATPayable aggregates any period, such as a monthly filing period, and
// returns only the net amount. It is what the cash-flow forecast uses to
// schedule VAT payments.
func (s *Service) NetVATPayable(ctx context.Context, tenantID string, p period.Period) (decimal.Decimal, error) {
	const op = "NetVATPayable"

	if tenantID == "" {
		return decimal.Zero, fmt.Errorf("%s: %w", op, ErrMissingTenant)
	}

	in, err := s.load(ctx, tenantID, p, DefaultOptions(), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}
	return Aggregate(in).Summary.NetVATPayable, nil
}

// load reads the period's invoices and expenses concurrently. With failures
// set, a failed source is recorded there and contributes an empty list;
// with nil failures any read error is returned.
func (s *Service) load(ctx context.Context, tenantID string, p period.Period, opts Options, failures *fetch.Failures) (Input, error) {
	in := Input{Period: p, Classifier: s.cfg.Classifier}
	log := logger.WithTenant(s.log, tenantID)

	g, gctx := errgroup.WithContext(ctx)
	if opts.IncludeRevenue {
		g.Go(func() error {
			var err error
			in.Invoices, err = read(gctx, s.cfg.Fetch, log, failures, "invoices",
				func(ctx context.Context) ([]models.Invoice, error) {
					return s.repo.InvoicesIssuedBetween(ctx, tenantID, p.Start, p.End, models.RevenueStatuses)
				})
			return err
		})
	}
	if opts.IncludeExpenses {
		g.Go(func() error {
			var err error
			in.Expenses, err = read(gctx, s.cfg.Fetch, log, failures, "expenses",
				func(ctx context.Context) ([]models.Expense, error) {
					return s.repo.ExpensesBetween(ctx, tenantID, p.Start, p.End)
				})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Input{}, err
	}
	return in, nil
}

func read[T any](ctx context.Context, p fetch.Policy, log zerolog.Logger, failures *fetch.Failures, source string, fn func(ctx context.Context) (T, error)) (T, error) {
	if failures == nil {
		return fetch.Do(ctx, p, fn)
	}
	return fetch.OrEmpty(ctx, p, log, failures, source, fn)
}

func (s *Service) archiveReturn(ctx context.Context, log zerolog.Logger, ret *QuarterlyVATReturn, p period.Period) {
	if s.archive == nil {
		return
	}
	if !ret.DataQuality.Complete {
		log.Warn().
			Strs("failed_sources", ret.DataQuality.FailedSources).
			Msg("Skipping snapshot of incomplete VAT return")
		return
	}

	payload, err := json.Marshal(ret)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode VAT return snapshot")
		return
	}

	snap, err := s.archive.SaveReport(ctx, ret.TenantID, store.ReportVATReturn, p.Key(), payload)
	if err != nil {
		log.Warn().Err(err).Str("period", p.Key()).Msg("Failed to store VAT return snapshot")
		return
	}
	ret.SnapshotID = snap.ID
}

func newDataQuality(failed []string) DataQuality {
	if failed == nil {
		failed = []string{}
	}
	sort.Strings(failed)
	return DataQuality{FailedSources: failed, Complete: len(failed) == 0}
}

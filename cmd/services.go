package cmd

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"taxdesk/internal/config"
	"taxdesk/internal/forecast"
	"taxdesk/internal/sheets"
	"taxdesk/internal/store"
	"taxdesk/internal/vat"
	"taxdesk/internal/vatreturn"
)

// services bundles the store and the report services built on it.
type services struct {
	store     *store.Store
	vatReturn *vatreturn.Service
	forecast  *forecast.Service
}

func openServices(c *config.Config) (*services, error) {
	st, err := store.Open(c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", c.DBPath, err)
	}

	vatSvc := vatreturn.NewService(st, st, vatReturnConfig(c))
	return &services{
		store:     st,
		vatReturn: vatSvc,
		forecast:  forecast.NewService(st, vatSvc, forecastConfig(c.Rules), c.FetchPolicy()),
	}, nil
}

func (s *services) Close() error {
	return s.store.Close()
}

func vatReturnConfig(c *config.Config) vatreturn.Config {
	return vatreturn.Config{
		Classifier: vat.NewClassifier(c.Rules.HomeCountry, c.Rules.VATRates()),
		Limits: vatreturn.Limits{
			RepresentatieLimit: c.Rules.RepresentatieLimit(),
			InputOutputRatio:   decimal.NewFromFloat(c.Rules.Compliance.InputOutputRatio),
		},
		Bounds: c.Rules.YearBounds(),
		Fetch:  c.FetchPolicy(),
	}
}

func forecastConfig(r config.Rules) forecast.Config {
	f := r.Forecast
	return forecast.Config{
		DefaultDays:           f.DefaultDays,
		MaxDays:               f.MaxDays,
		BaselineDailyExpense:  f.BaselineDailyExpense,
		ProbabilitySent:       f.ProbabilitySent,
		ProbabilityOverdue:    f.ProbabilityOverdue,
		CollectionRate:        f.CollectionRate,
		UnbilledSpreadWeeks:   f.UnbilledSpreadWeeks,
		HistoricalWindowDays:  f.HistoricalWindowDays,
		MinHistoricalRecords:  f.MinHistoricalRecords,
		OverdueCollectionDays: f.OverdueCollectionDays,
		FutureVATFactor:       f.FutureVATFactor,
		FilingFrequency:       r.FilingFrequency(),
		OptimisticMultiplier:  f.Scenarios.Optimistic,
		RealisticMultiplier:   f.Scenarios.Realistic,
		PessimisticMultiplier: f.Scenarios.Pessimistic,
	}
}

func newExporter(ctx context.Context, c *config.Config) (*sheets.Exporter, error) {
	if c.GoogleSheetURL == "" {
		return nil, fmt.Errorf("GOOGLE_SHEET_URL environment variable is required for --sheet")
	}
	return sheets.NewExporter(ctx, c.GoogleSheetURL)
}

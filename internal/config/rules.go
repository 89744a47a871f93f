package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
	"taxdesk/internal/period"
	"taxdesk/internal/vat"
)

// Rules are the business thresholds and rates. Every field has a built-in
// default, so a rules file only needs to list what it overrides.
type Rules struct {
	HomeCountry string          `yaml:"home_country"`
	VAT         VATRules        `yaml:"vat"`
	Years       YearRules       `yaml:"years"`
	Compliance  ComplianceRules `yaml:"compliance"`
	Forecast    ForecastRules   `yaml:"forecast"`
}

type VATRules struct {
	StandardRate    float64 `yaml:"standard_rate"`
	ReducedRate     float64 `yaml:"reduced_rate"`
	FilingFrequency string  `yaml:"filing_frequency"`
}

type YearRules struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

type ComplianceRules struct {
	RepresentatieLimit float64 `yaml:"representatie_limit"`
	InputOutputRatio   float64 `yaml:"input_output_ratio"`
}

type ForecastRules struct {
	DefaultDays           int           `yaml:"default_days"`
	MaxDays               int           `yaml:"max_days"`
	BaselineDailyExpense  float64       `yaml:"baseline_daily_expense"`
	ProbabilitySent       float64       `yaml:"probability_sent"`
	ProbabilityOverdue    float64       `yaml:"probability_overdue"`
	CollectionRate        float64       `yaml:"collection_rate"`
	UnbilledSpreadWeeks   int           `yaml:"unbilled_spread_weeks"`
	HistoricalWindowDays  int           `yaml:"historical_window_days"`
	MinHistoricalRecords  int           `yaml:"min_historical_records"`
	OverdueCollectionDays int           `yaml:"overdue_collection_days"`
	FutureVATFactor       float64       `yaml:"future_vat_factor"`
	Scenarios             ScenarioRules `yaml:"scenarios"`
}

type ScenarioRules struct {
	Optimistic  float64 `yaml:"optimistic"`
	Realistic   float64 `yaml:"realistic"`
	Pessimistic float64 `yaml:"pessimistic"`
}

// DefaultRules returns the rules the product ships with.
func DefaultRules() Rules {
	return Rules{
		HomeCountry: vat.HomeCountry,
		VAT: VATRules{
			StandardRate:    0.21,
			ReducedRate:     0.09,
			FilingFrequency: string(period.Quarterly),
		},
		Years: YearRules{Min: period.DefaultBounds.MinYear, Max: period.DefaultBounds.MaxYear},
		Compliance: ComplianceRules{
			RepresentatieLimit: 5000,
			InputOutputRatio:   2,
		},
		Forecast: ForecastRules{
			DefaultDays:           90,
			MaxDays:               365,
			BaselineDailyExpense:  50,
			ProbabilitySent:       0.85,
			ProbabilityOverdue:    0.6,
			CollectionRate:        0.8,
			UnbilledSpreadWeeks:   12,
			HistoricalWindowDays:  90,
			MinHistoricalRecords:  10,
			OverdueCollectionDays: 14,
			FutureVATFactor:       0.9,
			Scenarios: ScenarioRules{
				Optimistic:  1.2,
				Realistic:   1.0,
				Pessimistic: 0.7,
			},
		},
	}
}

// LoadRules reads a YAML rules file over the defaults. An empty path returns
// the defaults unchanged.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}
	return rules, nil
}

// Validate checks that the rules are internally consistent.
func (r Rules) Validate() error {
	var errs []error

	if r.HomeCountry == "" {
		errs = append(errs, errors.New("home_country is required"))
	}
	if r.VAT.StandardRate < 0 || r.VAT.StandardRate >= 1 || r.VAT.ReducedRate < 0 || r.VAT.ReducedRate >= 1 {
		errs = append(errs, errors.New("vat rates must be fractions in [0, 1)"))
	}
	if _, err := period.ParseFrequency(r.VAT.FilingFrequency); err != nil {
		errs = append(errs, err)
	}
	if r.Years.Min > r.Years.Max {
		errs = append(errs, fmt.Errorf("years.min %d is after years.max %d", r.Years.Min, r.Years.Max))
	}
	if r.Compliance.RepresentatieLimit < 0 {
		errs = append(errs, errors.New("compliance.representatie_limit must not be negative"))
	}

	f := r.Forecast
	if f.DefaultDays <= 0 || f.MaxDays < f.DefaultDays {
		errs = append(errs, errors.New("forecast.default_days must be positive and not above max_days"))
	}
	for name, p := range map[string]float64{
		"probability_sent":    f.ProbabilitySent,
		"probability_overdue": f.ProbabilityOverdue,
		"collection_rate":     f.CollectionRate,
		"future_vat_factor":   f.FutureVATFactor,
	} {
		if p < 0 || p > 1 {
			errs = append(errs, fmt.Errorf("forecast.%s must be within [0, 1]", name))
		}
	}
	if f.UnbilledSpreadWeeks <= 0 {
		errs = append(errs, errors.New("forecast.unbilled_spread_weeks must be positive"))
	}
	if f.HistoricalWindowDays <= 0 {
		errs = append(errs, errors.New("forecast.historical_window_days must be positive"))
	}
	s := f.Scenarios
	if !(s.Pessimistic <= s.Realistic && s.Realistic <= s.Optimistic) || s.Pessimistic < 0 {
		errs = append(errs, errors.New("forecast.scenarios must satisfy 0 <= pessimistic <= realistic <= optimistic"))
	}

	return errors.Join(errs...)
}

// VATRates converts the configured rates.
func (r Rules) VATRates() vat.Rates {
	return vat.Rates{
		Standard: decimal.NewFromFloat(r.VAT.StandardRate),
		Reduced:  decimal.NewFromFloat(r.VAT.ReducedRate),
	}
}

// YearBounds returns the supported filing years.
func (r Rules) YearBounds() period.Bounds {
	return period.Bounds{MinYear: r.Years.Min, MaxYear: r.Years.Max}
}

// FilingFrequency returns the VAT filing frequency, defaulting to quarterly.
func (r Rules) FilingFrequency() period.Frequency {
	f, err := period.ParseFrequency(r.VAT.FilingFrequency)
	if err != nil {
		return period.Quarterly
	}
	return f
}

// RepresentatieLimit returns the entertainment expense limit in EUR.
func (r Rules) RepresentatieLimit() decimal.Decimal {
	return decimal.NewFromFloat(r.Compliance.RepresentatieLimit)
}

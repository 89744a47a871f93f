package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"taxdesk/internal/period"
)

func TestDefaultRulesAreValid(t *testing.T) {
	r := DefaultRules()
	require.NoError(t, r.Validate())
	assert.True(t, decimal.RequireFromString("0.21").Equal(r.VATRates().Standard))
	assert.True(t, decimal.RequireFromString("0.09").Equal(r.VATRates().Reduced))
	assert.Equal(t, period.Bounds{MinYear: 2020, MaxYear: 2030}, r.YearBounds())
	assert.True(t, decimal.NewFromInt(5000).Equal(r.RepresentatieLimit()))
	assert.Equal(t, period.Quarterly, r.FilingFrequency())
}

func TestLoadRulesOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `
vat:
  filing_frequency: monthly
compliance:
  representatie_limit: 7500
forecast:
  baseline_daily_expense: 35
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	r, err := LoadRules(path)
	require.NoError(t, err)
	require.NoError(t, r.Validate())

	assert.Equal(t, period.Monthly, r.FilingFrequency())
	assert.Equal(t, 7500.0, r.Compliance.RepresentatieLimit)
	assert.Equal(t, 35.0, r.Forecast.BaselineDailyExpense)
	// untouched values keep their defaults
	assert.Equal(t, 0.21, r.VAT.StandardRate)
	assert.Equal(t, 0.85, r.Forecast.ProbabilitySent)
}

func TestRulesValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *Rules)
	}{
		{"missing home country", func(r *Rules) { r.HomeCountry = "" }},
		{"rate above one", func(r *Rules) { r.VAT.StandardRate = 21 }},
		{"unknown frequency", func(r *Rules) { r.VAT.FilingFrequency = "yearly" }},
		{"inverted years", func(r *Rules) { r.Years.Min = 2031 }},
		{"probability out of range", func(r *Rules) { r.Forecast.ProbabilitySent = 1.5 }},
		{"scenarios out of order", func(r *Rules) { r.Forecast.Scenarios.Pessimistic = 1.3 }},
		{"zero horizon", func(r *Rules) { r.Forecast.DefaultDays = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := DefaultRules()
			tt.mutate(&r)
			assert.Error(t, r.Validate())
		})
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("TAXDESK_DB_PATH", "/tmp/test.db")
	t.Setenv("TAXDESK_FETCH_TIMEOUT", "3s")
	t.Setenv("TAXDESK_FETCH_RETRIES", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, 3*time.Second, cfg.FetchPolicy().Timeout)
	assert.Equal(t, uint64(5), cfg.FetchPolicy().Retries)
	assert.Equal(t, "info", cfg.GetLoggerConfig().Level)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("TAXDESK_FETCH_TIMEOUT", "soon")
	_, err := Load()
	assert.Error(t, err)
}

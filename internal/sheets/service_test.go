package sheets

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"taxdesk/internal/forecast"
	"taxdesk/internal/vatreturn"
)

func TestExtractSpreadsheetID(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{"edit url", "https://docs.google.com/spreadsheets/d/1AbC-d_E2/edit#gid=0", "1AbC-d_E2", false},
		{"bare url", "https://docs.google.com/spreadsheets/d/xyz123", "xyz123", false},
		{"not a sheet", "https://example.com/file", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractSpreadsheetID(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestColumnLetter(t *testing.T) {
	assert.Equal(t, "A", columnLetter(1))
	assert.Equal(t, "I", columnLetter(len(ForecastHeaders)))
	assert.Equal(t, "O", columnLetter(len(VATReturnHeaders)))
	assert.Equal(t, "Z", columnLetter(26))
	assert.Equal(t, "AA", columnLetter(27))
}

func TestVATReturnRow(t *testing.T) {
	ret := &vatreturn.QuarterlyVATReturn{
		TenantID: "t1",
		Period:   vatreturn.PeriodInfo{Year: 2024, Quarter: 1, Label: "Q1 2024"},
	}
	ret.Revenue.StandardRate.Amount = decimal.NewFromInt(3000)
	ret.Revenue.StandardRate.VAT = decimal.NewFromInt(630)
	ret.Summary.NetVATPayable = decimal.NewFromInt(630)
	ret.ComplianceChecks.ReadyForSubmission = true
	ret.ComplianceChecks.Issues = []string{}

	row := vatReturnRow(ret)
	require.Len(t, row, len(VATReturnHeaders))
	assert.Equal(t, "Q1 2024", row[1])
	assert.Equal(t, 3000.0, row[2])
	assert.Equal(t, 630.0, row[10])
	assert.Equal(t, "ja", row[11])
	assert.Equal(t, "", row[14])
}

func TestForecastRows(t *testing.T) {
	f := &forecast.Forecast{
		TenantID: "t1",
		Forecasts: []forecast.Point{
			{Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Day: 0, RunningBalance: 5000, Confidence: 0.5},
			{Date: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), Day: 1, Inflow: 850, NetFlow: 850, RunningBalance: 5850, Confidence: 0.85},
		},
		GeneratedAt: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
	}

	rows := forecastRows(f)
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], len(ForecastHeaders))
	assert.Equal(t, "02-03-2024", rows[1][1])
	assert.Equal(t, 5850.0, rows[1][6])
	assert.Equal(t, "01-03-2024 08:00:00", rows[1][8])
}

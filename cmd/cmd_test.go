package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"taxdesk/internal/config"
	"taxdesk/internal/forecast"
	"taxdesk/internal/period"
	"taxdesk/internal/store"
	"taxdesk/internal/vatreturn"
)

func TestForecastConfigFromDefaultRules(t *testing.T) {
	assert.Equal(t, forecast.DefaultConfig(), forecastConfig(config.DefaultRules()))
}

func TestVATReturnConfigFromRules(t *testing.T) {
	rules := config.DefaultRules()
	rules.Compliance.RepresentatieLimit = 7500
	rules.Years.Max = 2035

	got := vatReturnConfig(&config.Config{Rules: rules, FetchTimeout: time.Second, FetchRetries: 1})

	assert.True(t, got.Limits.RepresentatieLimit.Equal(decimal.NewFromInt(7500)))
	assert.True(t, got.Limits.InputOutputRatio.Equal(vatreturn.DefaultLimits().InputOutputRatio))
	assert.Equal(t, period.Bounds{MinYear: 2020, MaxYear: 2035}, got.Bounds)
	assert.Equal(t, "NL", got.Classifier.HomeCountry)
	assert.Equal(t, time.Second, got.Fetch.Timeout)
	assert.Equal(t, uint64(1), got.Fetch.Retries)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

const importJSON = `{
  "balance": "12500.00",
  "invoices": [
    {"invoice_number": "2024-001", "status": "sent", "issue_date": "2024-02-01T00:00:00Z",
     "due_date": "2024-03-02T00:00:00Z", "subtotal": "3000", "vat_amount": "630", "total": "3630",
     "vat_type": "standard", "customer": {"name": "Acme BV", "country": "NL", "is_business": true}}
  ],
  "expenses": [
    {"id": "exp-1", "category": "software", "date": "2024-02-10T00:00:00Z", "amount": 50,
     "vat_amount": 10.5, "vat_type": "standard", "business_percentage": 100, "is_deductible": true}
  ],
  "recurring_expenses": [
    {"description": "Office rent", "category": "rent", "amount": "800", "frequency": "monthly",
     "start_date": "2024-01-01T00:00:00Z", "is_active": true}
  ],
  "time_entries": [
    {"date": "2024-02-20T00:00:00Z", "hours": "6", "hourly_rate": "95", "billable": true}
  ]
}`

func TestImportRecords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "export.json")
	require.NoError(t, os.WriteFile(path, []byte(importJSON), 0o644))

	doc, err := readImportDocument(path)
	require.NoError(t, err)

	st, err := store.Open(filepath.Join(dir, "taxdesk.db"))
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	require.NoError(t, importRecords(ctx, st, "acme", doc))

	invoices, err := st.OutstandingInvoices(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.NotEmpty(t, invoices[0].ID)
	assert.Equal(t, "acme", invoices[0].TenantID)

	expenses, err := st.ExpensesBetween(ctx, "acme", date(2024, 1, 1), date(2024, 3, 31))
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, "exp-1", expenses[0].ID)

	recurring, err := st.ActiveRecurringExpenses(ctx, "acme")
	require.NoError(t, err)
	assert.Len(t, recurring, 1)

	entries, err := st.UnbilledTimeEntries(ctx, "acme")
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	metrics, err := st.DashboardMetrics(ctx, "acme", date(2024, 3, 1))
	require.NoError(t, err)
	assert.Equal(t, "12500", metrics.CurrentBalance.String())

	// importing again updates records that carry an id
	require.NoError(t, importRecords(ctx, st, "acme", &importDocument{Expenses: doc.Expenses}))
	expenses, err = st.ExpensesBetween(ctx, "acme", date(2024, 1, 1), date(2024, 3, 31))
	require.NoError(t, err)
	assert.Len(t, expenses, 1)
}

func TestReadImportDocumentRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"invoices": [`), 0o644))

	_, err := readImportDocument(path)
	assert.Error(t, err)
}

func TestImportRecordsIsAllOrNothing(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "taxdesk.db"))
	require.NoError(t, err)
	defer st.Close()

	path := filepath.Join(dir, "export.json")
	require.NoError(t, os.WriteFile(path, []byte(importJSON), 0o644))
	doc, err := readImportDocument(path)
	require.NoError(t, err)
	doc.RecurringExpenses[0].Frequency = "fortnightly"

	ctx := context.Background()
	err = importRecords(ctx, st, "acme", doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fortnightly")

	invoices, err := st.OutstandingInvoices(ctx, "acme")
	require.NoError(t, err)
	assert.Empty(t, invoices)
	expenses, err := st.ExpensesBetween(ctx, "acme", date(2024, 1, 1), date(2024, 3, 31))
	require.NoError(t, err)
	assert.Empty(t, expenses)
	metrics, err := st.DashboardMetrics(ctx, "acme", date(2024, 3, 1))
	require.NoError(t, err)
	assert.True(t, metrics.CurrentBalance.IsZero())
}

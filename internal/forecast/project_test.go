package forecast

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"taxdesk/internal/period"
	"taxdesk/pkg/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func quietConfig() Config {
	cfg := DefaultConfig()
	cfg.BaselineDailyExpense = 0
	return cfg
}

func TestProjectSingleInvoice(t *testing.T) {
	today := date(2024, 3, 1)
	f, err := Project(Input{
		Today:           today,
		Days:            90,
		StartingBalance: dec("5000"),
		Invoices: []models.Invoice{{
			ID: "inv-1", Status: models.InvoiceSent, DueDate: today.AddDate(0, 0, 10), Total: dec("1000"),
		}},
	}, quietConfig())
	require.NoError(t, err)
	require.Len(t, f.Forecasts, 90)

	assert.InDelta(t, 5000, f.Forecasts[9].RunningBalance, 0.001)
	assert.InDelta(t, 5850, f.Forecasts[10].RunningBalance, 0.001)
	assert.InDelta(t, 850, f.Forecasts[10].Inflow, 0.001)
	assert.LessOrEqual(t, f.Forecasts[10].Confidence, 0.85)
	assert.Equal(t, today.AddDate(0, 0, 10), f.Forecasts[10].Date)
	assert.InDelta(t, 5850, f.Totals.EndingBalance, 0.001)
}

func TestProjectZeroFlowKeepsSeed(t *testing.T) {
	for _, seed := range []string{"0", "1234.56", "-300"} {
		t.Run(seed, func(t *testing.T) {
			f, err := Project(Input{Today: date(2024, 6, 15), Days: 45, StartingBalance: dec(seed)}, quietConfig())
			require.NoError(t, err)

			want := dec(seed).InexactFloat64()
			for _, p := range f.Forecasts {
				assert.Equal(t, want, p.RunningBalance, "day %d", p.Day)
				assert.Zero(t, p.Inflow)
				assert.Zero(t, p.Outflow)
			}
		})
	}
}

func TestProjectConfidenceBounds(t *testing.T) {
	f, err := Project(randomInput(rand.New(rand.NewSource(1)), date(2024, 1, 10)), DefaultConfig())
	require.NoError(t, err)
	for _, p := range f.Forecasts {
		assert.GreaterOrEqual(t, p.Confidence, 0.1)
		assert.LessOrEqual(t, p.Confidence, 1.0)
	}
}

func TestProjectScenarioOrdering(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		in := randomInput(rng, date(2024, 1, 1).AddDate(0, 0, rng.Intn(365)))
		f, err := Project(in, DefaultConfig())
		require.NoError(t, err)

		s := f.Scenarios
		assert.LessOrEqual(t, s.Pessimistic.MinBalance, s.Realistic.MinBalance)
		assert.LessOrEqual(t, s.Realistic.MinBalance, s.Optimistic.MinBalance)
		assert.LessOrEqual(t, s.Pessimistic.RunwayDays, s.Realistic.RunwayDays)
		assert.LessOrEqual(t, s.Realistic.RunwayDays, s.Optimistic.RunwayDays)
		assert.InDelta(t, f.Totals.EndingBalance, s.Realistic.EndingBalance, 0.01)
		assert.LessOrEqual(t, len(f.Insights), 3)
		assert.LessOrEqual(t, len(f.NextMilestones), 5)
	}
}

func TestProjectExpenseBasis(t *testing.T) {
	today := date(2024, 3, 1)

	var history []models.Expense
	for i := 1; i <= 10; i++ {
		history = append(history, models.Expense{ID: "h", Date: today.AddDate(0, 0, -i*5), Amount: dec("90")})
	}
	// outside the trailing window
	history = append(history, models.Expense{ID: "old", Date: today.AddDate(0, 0, -120), Amount: dec("10000")})

	monthly := []models.RecurringExpense{{
		ID: "rent", Description: "Office rent", Category: "housing", Amount: dec("100"), VATAmount: dec("21"),
		Frequency: models.Monthly, StartDate: date(2024, 1, 5), Active: true,
	}}

	tests := []struct {
		name      string
		input     Input
		basis     ExpenseBasis
		daily     float64
		plainConf float64
	}{
		{"historical", Input{HistoricalExpenses: history}, BasisHistorical, 10, 0.85},
		{"recurring only", Input{Recurring: monthly}, BasisRecurring, 0, 0.70},
		{"baseline", Input{HistoricalExpenses: history[:9]}, BasisBaseline, 50, 0.50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.input
			in.Today, in.Days, in.StartingBalance = today, 30, dec("10000")

			f, err := Project(in, DefaultConfig())
			require.NoError(t, err)

			assert.Equal(t, tt.basis, f.ExpenseBreakdown.Basis)
			assert.Equal(t, tt.basis, f.DataQuality.ExpenseBasis)
			assert.InDelta(t, tt.daily, f.ExpenseBreakdown.DailyAverage, 0.001)
			assert.InDelta(t, tt.daily, f.Forecasts[1].Outflow, 0.001)
			assert.InDelta(t, tt.plainConf, f.Forecasts[1].Confidence, 0.001)
		})
	}
}

func TestProjectRecurringOccurrences(t *testing.T) {
	today := date(2024, 3, 1)
	f, err := Project(Input{
		Today: today, Days: 30, StartingBalance: dec("1000"),
		Recurring: []models.RecurringExpense{{
			ID: "rent", Description: "Office rent", Category: "housing", Amount: dec("100"), VATAmount: dec("21"),
			Frequency: models.Monthly, StartDate: date(2024, 1, 5), Active: true,
		}},
	}, DefaultConfig())
	require.NoError(t, err)

	assert.InDelta(t, 121, f.Forecasts[4].Outflow, 0.001)
	assert.InDelta(t, 0.95, f.Forecasts[4].Confidence, 0.001)
	assert.InDelta(t, 879, f.Forecasts[29].RunningBalance, 0.001)
	assert.InDelta(t, 121, f.ExpenseBreakdown.Recurring, 0.001)
	require.Len(t, f.ExpenseBreakdown.RecurringByCategory, 1)
	assert.Equal(t, "housing", f.ExpenseBreakdown.RecurringByCategory[0].Category)
}

func TestProjectVATPayments(t *testing.T) {
	today := date(2024, 4, 10)
	f, err := Project(Input{
		Today: today, Days: 120, StartingBalance: dec("10000"), NetVATOwed: dec("1000"),
	}, quietConfig())
	require.NoError(t, err)

	next := f.Forecasts[20]
	assert.Equal(t, date(2024, 4, 30), next.Date)
	assert.InDelta(t, 1000, next.Outflow, 0.001)
	assert.Equal(t, 1.0, next.Confidence)

	later := f.Forecasts[112]
	assert.Equal(t, date(2024, 7, 31), later.Date)
	assert.InDelta(t, 900, later.Outflow, 0.001)
	assert.LessOrEqual(t, later.Confidence, 0.7)

	assert.Equal(t, "2024-Q1", f.TaxBreakdown.SettledPeriod)
	assert.True(t, f.TaxBreakdown.NextPaymentInHorizon)
	assert.Equal(t, []string{"2024-07-31"}, f.TaxBreakdown.FuturePaymentDates)
	assert.InDelta(t, 1900, f.TaxBreakdown.Total, 0.001)
	assert.InDelta(t, 8100, f.Totals.EndingBalance, 0.001)

	require.NotEmpty(t, f.NextMilestones)
	assert.Equal(t, MilestoneVATPayment, f.NextMilestones[0].Type)
	assert.Equal(t, date(2024, 4, 30), f.NextMilestones[0].Date)
}

func TestProjectNoVATWhenRefundDue(t *testing.T) {
	f, err := Project(Input{
		Today: date(2024, 4, 10), Days: 30, StartingBalance: dec("100"), NetVATOwed: dec("-250"),
	}, quietConfig())
	require.NoError(t, err)
	assert.Zero(t, f.Forecasts[20].Outflow)
	assert.Zero(t, f.TaxBreakdown.Total)
}

func TestProjectOverdueInvoices(t *testing.T) {
	today := date(2024, 5, 1)
	cfg := quietConfig()

	f, err := Project(Input{
		Today: today, Days: 30,
		Invoices: []models.Invoice{
			{ID: "late", Status: models.InvoiceOverdue, DueDate: date(2024, 3, 1), Total: dec("1000")},
			{ID: "sent-late", Status: models.InvoiceSent, DueDate: date(2024, 4, 20), Total: dec("500"), AmountPaid: dec("100")},
			{ID: "paid-off", Status: models.InvoicePartial, DueDate: date(2024, 5, 3), Total: dec("200"), AmountPaid: dec("200")},
		},
	}, cfg)
	require.NoError(t, err)

	day := f.Forecasts[cfg.OverdueCollectionDays]
	assert.InDelta(t, (1000+400)*0.6, day.Inflow, 0.001)
	assert.InDelta(t, 0.6, day.Confidence, 0.001)
	assert.Zero(t, f.Forecasts[2].Inflow)
	assert.InDelta(t, 1400, f.Totals.OverdueAmount, 0.001)
	assert.InDelta(t, 1400, f.Totals.OutstandingAmount, 0.001)

	found := false
	for _, in := range f.Insights {
		if in.Severity == SeverityWarning {
			found = true
		}
	}
	assert.True(t, found, "overdue share should produce a warning: %v", f.Insights)
}

func TestProjectUnbilledTime(t *testing.T) {
	f, err := Project(Input{
		Today: date(2024, 1, 1), Days: 15,
		UnbilledTime: []models.TimeEntry{
			{ID: "a", Hours: dec("10"), HourlyRate: dec("120"), Billable: true},
			{ID: "b", Hours: dec("5"), HourlyRate: dec("100"), Billable: false},
			{ID: "c", Hours: dec("5"), HourlyRate: dec("100"), Billable: true, Invoiced: true},
		},
	}, quietConfig())
	require.NoError(t, err)

	assert.Zero(t, f.Forecasts[0].Inflow)
	assert.InDelta(t, 80, f.Forecasts[7].Inflow, 0.001)
	assert.InDelta(t, 80, f.Forecasts[14].Inflow, 0.001)
	assert.Zero(t, f.Forecasts[8].Inflow)
	assert.True(t, f.DataQuality.HasUnbilledTime)
}

func TestProjectNegativeRunway(t *testing.T) {
	f, err := Project(Input{Today: date(2024, 1, 1), Days: 60, StartingBalance: dec("500")}, DefaultConfig())
	require.NoError(t, err)

	// 50 per day baseline
	assert.Equal(t, 9, f.Scenarios.Realistic.RunwayDays)
	require.NotEmpty(t, f.Insights)
	assert.Equal(t, SeverityCritical, f.Insights[0].Severity)

	var negative *Milestone
	for i := range f.NextMilestones {
		if f.NextMilestones[i].Type == MilestoneNegativeCash {
			negative = &f.NextMilestones[i]
		}
	}
	require.NotNil(t, negative)
	assert.Equal(t, date(2024, 1, 10), negative.Date)
}

func TestProjectRecordsFailedSources(t *testing.T) {
	f, err := Project(Input{Today: date(2024, 1, 1), Days: 5, FailedSources: []string{"invoices", "expenses"}}, quietConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"expenses", "invoices"}, f.DataQuality.FailedSources)
	assert.False(t, f.DataQuality.Complete)
}

func TestProjectRejectsEmptyHorizon(t *testing.T) {
	_, err := Project(Input{Today: date(2024, 1, 1), Days: 0}, DefaultConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, period.ErrInvalidHorizon)
}

func randomInput(rng *rand.Rand, today time.Time) Input {
	in := Input{
		Today:           today,
		Days:            30 + rng.Intn(120),
		StartingBalance: decimal.NewFromInt(int64(rng.Intn(20000))),
		NetVATOwed:      decimal.NewFromInt(int64(rng.Intn(5000) - 1000)),
	}
	statuses := []models.InvoiceStatus{models.InvoiceSent, models.InvoicePartial, models.InvoiceOverdue}
	for i := 0; i < rng.Intn(15); i++ {
		in.Invoices = append(in.Invoices, models.Invoice{
			ID:      "inv",
			Status:  statuses[rng.Intn(len(statuses))],
			DueDate: today.AddDate(0, 0, rng.Intn(150)-30),
			Total:   decimal.NewFromInt(int64(100 + rng.Intn(5000))),
		})
	}
	freqs := []models.Frequency{models.Weekly, models.Monthly, models.Quarterly, models.Yearly}
	for i := 0; i < rng.Intn(4); i++ {
		in.Recurring = append(in.Recurring, models.RecurringExpense{
			ID:        "rec",
			Amount:    decimal.NewFromInt(int64(10 + rng.Intn(800))),
			Frequency: freqs[rng.Intn(len(freqs))],
			StartDate: today.AddDate(0, 0, -rng.Intn(60)),
			Active:    true,
		})
	}
	for i := 0; i < rng.Intn(20); i++ {
		in.HistoricalExpenses = append(in.HistoricalExpenses, models.Expense{
			ID:     "exp",
			Date:   today.AddDate(0, 0, -1-rng.Intn(89)),
			Amount: decimal.NewFromInt(int64(rng.Intn(300))),
		})
	}
	return in
}

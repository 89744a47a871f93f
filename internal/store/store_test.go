package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"taxdesk/internal/vat"
	"taxdesk/pkg/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "taxdesk.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestInvoicesIssuedBetween(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	invoices := []models.Invoice{
		{ID: "inv-1", TenantID: "t1", Status: models.InvoiceSent, IssueDate: date(2024, 1, 15), DueDate: date(2024, 2, 14),
			Subtotal: dec("3000"), VATAmount: dec("630"), Total: dec("3630"), VATType: vat.Standard,
			Customer: vat.Counterparty{Name: "Acme BV", Country: "NL", IsBusiness: true}},
		{ID: "inv-2", TenantID: "t1", Status: models.InvoiceDraft, IssueDate: date(2024, 2, 1), DueDate: date(2024, 3, 1),
			Subtotal: dec("100"), Total: dec("121")},
		{ID: "inv-3", TenantID: "t1", Status: models.InvoicePaid, IssueDate: date(2024, 4, 1), DueDate: date(2024, 5, 1),
			Subtotal: dec("100"), Total: dec("121")},
		{ID: "inv-4", TenantID: "t2", Status: models.InvoiceSent, IssueDate: date(2024, 1, 20), DueDate: date(2024, 2, 20),
			Subtotal: dec("100"), Total: dec("121")},
	}
	for _, inv := range invoices {
		require.NoError(t, s.SaveInvoice(ctx, inv))
	}

	got, err := s.InvoicesIssuedBetween(ctx, "t1", date(2024, 1, 1), date(2024, 3, 31), models.RevenueStatuses)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "inv-1", got[0].ID)
	assert.Equal(t, vat.Standard, got[0].VATType)
	assert.True(t, dec("630").Equal(got[0].VATAmount))
	assert.Equal(t, date(2024, 1, 15), got[0].IssueDate)
	assert.True(t, got[0].Customer.IsBusiness)

	all, err := s.InvoicesIssuedBetween(ctx, "t1", date(2024, 1, 1), date(2024, 12, 31), nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestOutstandingInvoices(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.SaveInvoice(ctx, models.Invoice{ID: "a", TenantID: "t1", Status: models.InvoiceOverdue,
		IssueDate: date(2024, 1, 1), DueDate: date(2024, 1, 31), Total: dec("500")}))
	require.NoError(t, s.SaveInvoice(ctx, models.Invoice{ID: "b", TenantID: "t1", Status: models.InvoicePaid,
		IssueDate: date(2024, 1, 1), DueDate: date(2024, 1, 31), Total: dec("500")}))

	got, err := s.OutstandingInvoices(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func TestExpensesRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	withPct := models.Expense{ID: "e1", TenantID: "t1", Description: "Laptop", Category: "hardware",
		Date: date(2024, 2, 3), Amount: dec("100"), VATAmount: dec("21"), VATType: vat.Standard,
		BusinessPercentage: decimal.NewNullDecimal(dec("50")), Deductible: true}
	withoutPct := models.Expense{ID: "e2", TenantID: "t1", Description: "Dinner", Category: "representatie",
		Date: date(2024, 2, 4), Amount: dec("80"), VATType: vat.ReverseCharge,
		Supplier: vat.Counterparty{Country: "DE", VATNumber: "DE123456789", IsBusiness: true}}

	require.NoError(t, s.SaveExpense(ctx, withPct))
	require.NoError(t, s.SaveExpense(ctx, withoutPct))

	got, err := s.ExpensesBetween(ctx, "t1", date(2024, 2, 1), date(2024, 2, 29))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.True(t, got[0].BusinessPercentage.Valid)
	assert.True(t, dec("50").Equal(got[0].BusinessPercentage.Decimal))
	assert.True(t, got[0].Deductible)
	assert.False(t, got[1].BusinessPercentage.Valid)
	assert.Equal(t, vat.ReverseCharge, got[1].VATType)
	assert.Equal(t, "DE123456789", got[1].Supplier.VATNumber)
}

func TestRecurringAndTimeEntries(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	end := date(2024, 12, 31)
	require.NoError(t, s.SaveRecurringExpense(ctx, models.RecurringExpense{ID: "r1", TenantID: "t1",
		Description: "Rent", Amount: dec("1000"), VATAmount: dec("210"), Frequency: models.Monthly,
		StartDate: date(2024, 1, 1), EndDate: &end, Active: true}))
	require.NoError(t, s.SaveRecurringExpense(ctx, models.RecurringExpense{ID: "r2", TenantID: "t1",
		Frequency: models.Weekly, StartDate: date(2024, 1, 1), Active: false}))

	templates, err := s.ActiveRecurringExpenses(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, templates, 1)
	require.NotNil(t, templates[0].EndDate)
	assert.Equal(t, end, *templates[0].EndDate)
	assert.Equal(t, models.Monthly, templates[0].Frequency)

	require.NoError(t, s.SaveTimeEntry(ctx, models.TimeEntry{ID: "te1", TenantID: "t1", Date: date(2024, 3, 1),
		Hours: dec("8"), HourlyRate: dec("95"), Billable: true}))
	require.NoError(t, s.SaveTimeEntry(ctx, models.TimeEntry{ID: "te2", TenantID: "t1", Date: date(2024, 3, 2),
		Hours: dec("8"), HourlyRate: dec("95"), Billable: true, Invoiced: true}))

	entries, err := s.UnbilledTimeEntries(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, dec("760").Equal(entries[0].Value()))
}

func TestDashboardMetrics(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	m, err := s.DashboardMetrics(ctx, "t1", date(2024, 6, 1))
	require.NoError(t, err)
	assert.True(t, m.CurrentBalance.IsZero())

	require.NoError(t, s.SetBalance(ctx, "t1", dec("5000")))
	require.NoError(t, s.SaveInvoice(ctx, models.Invoice{ID: "p1", TenantID: "t1", Status: models.InvoicePaid,
		IssueDate: date(2024, 5, 20), DueDate: date(2024, 6, 20), Total: dec("1210")}))
	require.NoError(t, s.SaveInvoice(ctx, models.Invoice{ID: "p2", TenantID: "t1", Status: models.InvoicePaid,
		IssueDate: date(2024, 3, 20), DueDate: date(2024, 4, 20), Total: dec("605")}))
	require.NoError(t, s.SaveInvoice(ctx, models.Invoice{ID: "o1", TenantID: "t1", Status: models.InvoiceSent,
		IssueDate: date(2024, 5, 25), DueDate: date(2024, 6, 25), Total: dec("300")}))

	m, err = s.DashboardMetrics(ctx, "t1", date(2024, 6, 1))
	require.NoError(t, err)
	assert.True(t, dec("5000").Equal(m.CurrentBalance))
	assert.True(t, dec("1210").Equal(m.RevenueLast30Days), m.RevenueLast30Days.String())
	assert.True(t, dec("1815").Equal(m.RevenueLast90Days), m.RevenueLast90Days.String())
	assert.True(t, dec("300").Equal(m.OutstandingTotal))
}

func TestSaveReportIsWriteOnce(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	first, err := s.SaveReport(ctx, "t1", ReportVATReturn, "2024-Q1", []byte(`{"net_vat_payable":630}`))
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	again, err := s.SaveReport(ctx, "t1", ReportVATReturn, "2024-Q1", []byte(`{"net_vat_payable":630}`))
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	changed, err := s.SaveReport(ctx, "t1", ReportVATReturn, "2024-Q1", []byte(`{"net_vat_payable":700}`))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, changed.ID)

	list, err := s.ListReports(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = s.db.ExecContext(ctx, `UPDATE financial_reports SET payload = '{}' WHERE id = ?`, first.ID)
	assert.Error(t, err)

	_, err = s.GetReport(ctx, "t2", first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransactionRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	inv := models.Invoice{ID: "inv-1", TenantID: "t1", Status: models.InvoiceSent,
		IssueDate: date(2024, 1, 10), DueDate: date(2024, 2, 9), Subtotal: dec("100"), Total: dec("121")}

	err := s.Transaction(ctx, func(tx *Tx) error {
		if err := tx.SaveInvoice(ctx, inv); err != nil {
			return err
		}
		if err := tx.SetBalance(ctx, "t1", dec("500")); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.EqualError(t, err, "abort")

	outstanding, err := s.OutstandingInvoices(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, outstanding)
	m, err := s.DashboardMetrics(ctx, "t1", date(2024, 3, 1))
	require.NoError(t, err)
	assert.True(t, m.CurrentBalance.IsZero())

	require.NoError(t, s.Transaction(ctx, func(tx *Tx) error {
		return tx.SaveInvoice(ctx, inv)
	}))
	outstanding, err = s.OutstandingInvoices(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, outstanding, 1)
}

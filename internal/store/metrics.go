package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"taxdesk/pkg/models"
)

// SetBalance records the tenant's current bank balance.
func (s *Store) SetBalance(ctx context.Context, tenantID string, balance decimal.Decimal) error {
	return setBalance(ctx, s.db, tenantID, balance)
}

func setBalance(ctx context.Context, ex execer, tenantID string, balance decimal.Decimal) error {
	query := `
		INSERT INTO account_balances (tenant_id, balance)
		VALUES (?, ?)
		ON CONFLICT(tenant_id) DO UPDATE SET
			balance = excluded.balance,
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := ex.ExecContext(ctx, query, tenantID, balance.String()); err != nil {
		return fmt.Errorf("failed to set balance for %s: %w", tenantID, err)
	}
	return nil
}

// DashboardMetrics returns the current balance and rolling revenue figures
// as of asOf. A tenant without a recorded balance starts at zero.
func (s *Store) DashboardMetrics(ctx context.Context, tenantID string, asOf time.Time) (models.DashboardMetrics, error) {
	const op = "DashboardMetrics"

	var m models.DashboardMetrics

	err := s.db.QueryRowContext(ctx,
		`SELECT balance, updated_at FROM account_balances WHERE tenant_id = ?`, tenantID,
	).Scan(&m.CurrentBalance, &m.BalanceUpdatedAt)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return models.DashboardMetrics{}, fmt.Errorf("%s: failed to read balance: %w", op, err)
	}

	paid, err := s.InvoicesIssuedBetween(ctx, tenantID, asOf.AddDate(0, 0, -90), asOf,
		[]models.InvoiceStatus{models.InvoicePaid, models.InvoicePartial})
	if err != nil {
		return models.DashboardMetrics{}, fmt.Errorf("%s: %w", op, err)
	}

	cutoff30 := formatDate(asOf.AddDate(0, 0, -30))
	for i := range paid {
		received := paid[i].AmountPaid
		if paid[i].Status == models.InvoicePaid {
			received = paid[i].Total
		}
		m.RevenueLast90Days = m.RevenueLast90Days.Add(received)
		if formatDate(paid[i].IssueDate) >= cutoff30 {
			m.RevenueLast30Days = m.RevenueLast30Days.Add(received)
		}
	}

	outstanding, err := s.OutstandingInvoices(ctx, tenantID)
	if err != nil {
		return models.DashboardMetrics{}, fmt.Errorf("%s: %w", op, err)
	}
	for i := range outstanding {
		m.OutstandingTotal = m.OutstandingTotal.Add(outstanding[i].Outstanding())
	}

	return m, nil
}

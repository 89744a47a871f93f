package store

import (
	"context"
	"database/sql"
	"fmt"

	"taxdesk/pkg/models"
)

// SaveRecurringExpense inserts or replaces a recurring-expense template.
func (s *Store) SaveRecurringExpense(ctx context.Context, r models.RecurringExpense) error {
	return saveRecurringExpense(ctx, s.db, r)
}

func saveRecurringExpense(ctx context.Context, ex execer, r models.RecurringExpense) error {
	query := `
		INSERT INTO recurring_expenses (id, tenant_id, description, category, amount, vat_amount,
			frequency, start_date, end_date, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tenant_id = excluded.tenant_id,
			description = excluded.description,
			category = excluded.category,
			amount = excluded.amount,
			vat_amount = excluded.vat_amount,
			frequency = excluded.frequency,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			is_active = excluded.is_active
	`

	_, err := ex.ExecContext(ctx, query,
		r.ID,
		r.TenantID,
		r.Description,
		r.Category,
		r.Amount.String(),
		r.VATAmount.String(),
		string(r.Frequency),
		formatDate(r.StartDate),
		nullDate(r.EndDate),
		boolInt(r.Active),
	)
	if err != nil {
		return fmt.Errorf("failed to save recurring expense %s: %w", r.ID, err)
	}
	return nil
}

// ActiveRecurringExpenses returns the tenant's active templates.
func (s *Store) ActiveRecurringExpenses(ctx context.Context, tenantID string) ([]models.RecurringExpense, error) {
	const op = "ActiveRecurringExpenses"

	query := `
		SELECT id, tenant_id, description, category, amount, vat_amount,
			frequency, start_date, end_date, is_active
		FROM recurring_expenses
		WHERE tenant_id = ? AND is_active = 1
		ORDER BY start_date, id
	`

	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to query recurring expenses: %w", op, err)
	}
	defer rows.Close()

	var templates []models.RecurringExpense
	for rows.Next() {
		var (
			r                  models.RecurringExpense
			frequency, started string
			ended              sql.NullString
			active             int
		)
		if err := rows.Scan(&r.ID, &r.TenantID, &r.Description, &r.Category, &r.Amount, &r.VATAmount,
			&frequency, &started, &ended, &active); err != nil {
			return nil, fmt.Errorf("%s: failed to scan recurring expense: %w", op, err)
		}

		r.Frequency = models.Frequency(frequency)
		r.Active = active != 0
		if r.StartDate, err = parseDate(started); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if r.EndDate, err = parseNullDate(ended); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		templates = append(templates, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: error iterating recurring expenses: %w", op, err)
	}
	return templates, nil
}

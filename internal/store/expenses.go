package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"taxdesk/pkg/models"
)

const expenseColumns = `id, tenant_id, description, category, expense_date, status,
	amount, vat_amount, vat_type,
	supplier_name, supplier_country, supplier_vat_number, supplier_is_business,
	business_percentage, is_deductible, is_representation`

// SaveExpense inserts or replaces an expense.
func (s *Store) SaveExpense(ctx context.Context, e models.Expense) error {
	return saveExpense(ctx, s.db, e)
}

func saveExpense(ctx context.Context, ex execer, e models.Expense) error {
	query := `
		INSERT INTO expenses (` + expenseColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tenant_id = excluded.tenant_id,
			description = excluded.description,
			category = excluded.category,
			expense_date = excluded.expense_date,
			status = excluded.status,
			amount = excluded.amount,
			vat_amount = excluded.vat_amount,
			vat_type = excluded.vat_type,
			supplier_name = excluded.supplier_name,
			supplier_country = excluded.supplier_country,
			supplier_vat_number = excluded.supplier_vat_number,
			supplier_is_business = excluded.supplier_is_business,
			business_percentage = excluded.business_percentage,
			is_deductible = excluded.is_deductible,
			is_representation = excluded.is_representation
	`

	var pct sql.NullString
	if e.BusinessPercentage.Valid {
		pct = sql.NullString{String: e.BusinessPercentage.Decimal.String(), Valid: true}
	}

	_, err := ex.ExecContext(ctx, query,
		e.ID,
		e.TenantID,
		e.Description,
		e.Category,
		formatDate(e.Date),
		e.Status,
		e.Amount.String(),
		e.VATAmount.String(),
		categoryText(e.VATType),
		e.Supplier.Name,
		e.Supplier.Country,
		e.Supplier.VATNumber,
		boolInt(e.Supplier.IsBusiness),
		pct,
		boolInt(e.Deductible),
		boolInt(e.Representation),
	)
	if err != nil {
		return fmt.Errorf("failed to save expense %s: %w", e.ID, err)
	}
	return nil
}

// ExpensesBetween returns every expense of tenantID dated in [from, to],
// regardless of status.
func (s *Store) ExpensesBetween(ctx context.Context, tenantID string, from, to time.Time) ([]models.Expense, error) {
	const op = "ExpensesBetween"

	query := `SELECT ` + expenseColumns + ` FROM expenses
		WHERE tenant_id = ? AND expense_date BETWEEN ? AND ?
		ORDER BY expense_date, id`

	rows, err := s.db.QueryContext(ctx, query, tenantID, formatDate(from), formatDate(to))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to query expenses: %w", op, err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: error iterating expenses: %w", op, err)
	}
	return expenses, nil
}

func scanExpense(row rowScanner) (models.Expense, error) {
	var (
		e                            models.Expense
		date, vatType                string
		isBusiness, deductible, repr int
	)

	err := row.Scan(
		&e.ID,
		&e.TenantID,
		&e.Description,
		&e.Category,
		&date,
		&e.Status,
		&e.Amount,
		&e.VATAmount,
		&vatType,
		&e.Supplier.Name,
		&e.Supplier.Country,
		&e.Supplier.VATNumber,
		&isBusiness,
		&e.BusinessPercentage,
		&deductible,
		&repr,
	)
	if err != nil {
		return models.Expense{}, fmt.Errorf("failed to scan expense: %w", err)
	}

	e.VATType = parseStoredCategory(vatType)
	e.Supplier.IsBusiness = isBusiness != 0
	e.Deductible = deductible != 0
	e.Representation = repr != 0
	if e.Date, err = parseDate(date); err != nil {
		return models.Expense{}, err
	}
	return e, nil
}

package store

import (
	"context"
	"fmt"
	"time"

	"taxdesk/pkg/models"
)

const invoiceColumns = `id, tenant_id, invoice_number, status, issue_date, due_date,
	subtotal, vat_amount, total, amount_paid, vat_type,
	customer_name, customer_country, customer_vat_number, customer_is_business`

// SaveInvoice inserts or replaces an invoice.
func (s *Store) SaveInvoice(ctx context.Context, inv models.Invoice) error {
	return saveInvoice(ctx, s.db, inv)
}

func saveInvoice(ctx context.Context, ex execer, inv models.Invoice) error {
	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tenant_id = excluded.tenant_id,
			invoice_number = excluded.invoice_number,
			status = excluded.status,
			issue_date = excluded.issue_date,
			due_date = excluded.due_date,
			subtotal = excluded.subtotal,
			vat_amount = excluded.vat_amount,
			total = excluded.total,
			amount_paid = excluded.amount_paid,
			vat_type = excluded.vat_type,
			customer_name = excluded.customer_name,
			customer_country = excluded.customer_country,
			customer_vat_number = excluded.customer_vat_number,
			customer_is_business = excluded.customer_is_business
	`

	_, err := ex.ExecContext(ctx, query,
		inv.ID,
		inv.TenantID,
		inv.Number,
		string(inv.Status),
		formatDate(inv.IssueDate),
		formatDate(inv.DueDate),
		inv.Subtotal.String(),
		inv.VATAmount.String(),
		inv.Total.String(),
		inv.AmountPaid.String(),
		categoryText(inv.VATType),
		inv.Customer.Name,
		inv.Customer.Country,
		inv.Customer.VATNumber,
		boolInt(inv.Customer.IsBusiness),
	)
	if err != nil {
		return fmt.Errorf("failed to save invoice %s: %w", inv.ID, err)
	}
	return nil
}

// InvoicesIssuedBetween returns invoices of tenantID issued in [from, to] with
// one of statuses, ordered by issue date and ID.
func (s *Store) InvoicesIssuedBetween(ctx context.Context, tenantID string, from, to time.Time, statuses []models.InvoiceStatus) ([]models.Invoice, error) {
	const op = "InvoicesIssuedBetween"

	args := []interface{}{tenantID, formatDate(from), formatDate(to)}
	query := `SELECT ` + invoiceColumns + ` FROM invoices
		WHERE tenant_id = ? AND issue_date BETWEEN ? AND ?`
	if len(statuses) > 0 {
		query += ` AND status IN (` + inPlaceholders(len(statuses)) + `)`
		for _, st := range statuses {
			args = append(args, string(st))
		}
	}
	query += ` ORDER BY issue_date, id`

	invoices, err := s.queryInvoices(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return invoices, nil
}

// OutstandingInvoices returns the tenant's invoices that may still be paid.
func (s *Store) OutstandingInvoices(ctx context.Context, tenantID string) ([]models.Invoice, error) {
	const op = "OutstandingInvoices"

	args := []interface{}{tenantID}
	for _, st := range models.OutstandingStatuses {
		args = append(args, string(st))
	}
	query := `SELECT ` + invoiceColumns + ` FROM invoices
		WHERE tenant_id = ? AND status IN (` + inPlaceholders(len(models.OutstandingStatuses)) + `)
		ORDER BY due_date, id`

	invoices, err := s.queryInvoices(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return invoices, nil
}

func (s *Store) queryInvoices(ctx context.Context, query string, args ...interface{}) ([]models.Invoice, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	var invoices []models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoices: %w", err)
	}
	return invoices, nil
}

func scanInvoice(row rowScanner) (models.Invoice, error) {
	var (
		inv                models.Invoice
		status, vatType    string
		issueDate, dueDate string
		isBusiness         int
	)

	err := row.Scan(
		&inv.ID,
		&inv.TenantID,
		&inv.Number,
		&status,
		&issueDate,
		&dueDate,
		&inv.Subtotal,
		&inv.VATAmount,
		&inv.Total,
		&inv.AmountPaid,
		&vatType,
		&inv.Customer.Name,
		&inv.Customer.Country,
		&inv.Customer.VATNumber,
		&isBusiness,
	)
	if err != nil {
		return models.Invoice{}, fmt.Errorf("failed to scan invoice: %w", err)
	}

	inv.Status = models.InvoiceStatus(status)
	inv.VATType = parseStoredCategory(vatType)
	inv.Customer.IsBusiness = isBusiness != 0
	if inv.IssueDate, err = parseDate(issueDate); err != nil {
		return models.Invoice{}, err
	}
	if inv.DueDate, err = parseDate(dueDate); err != nil {
		return models.Invoice{}, err
	}
	return inv, nil
}

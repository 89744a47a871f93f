package store

import (
	"context"
	"fmt"

	"taxdesk/pkg/models"
)

// SaveTimeEntry inserts or replaces a time entry.
func (s *Store) SaveTimeEntry(ctx context.Context, te models.TimeEntry) error {
	return saveTimeEntry(ctx, s.db, te)
}

func saveTimeEntry(ctx context.Context, ex execer, te models.TimeEntry) error {
	query := `
		INSERT INTO time_entries (id, tenant_id, entry_date, description, hours, hourly_rate, billable, invoiced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tenant_id = excluded.tenant_id,
			entry_date = excluded.entry_date,
			description = excluded.description,
			hours = excluded.hours,
			hourly_rate = excluded.hourly_rate,
			billable = excluded.billable,
			invoiced = excluded.invoiced
	`

	_, err := ex.ExecContext(ctx, query,
		te.ID,
		te.TenantID,
		formatDate(te.Date),
		te.Description,
		te.Hours.String(),
		te.HourlyRate.String(),
		boolInt(te.Billable),
		boolInt(te.Invoiced),
	)
	if err != nil {
		return fmt.Errorf("failed to save time entry %s: %w", te.ID, err)
	}
	return nil
}

// UnbilledTimeEntries returns billable entries that have not been invoiced yet.
func (s *Store) UnbilledTimeEntries(ctx context.Context, tenantID string) ([]models.TimeEntry, error) {
	const op = "UnbilledTimeEntries"

	query := `
		SELECT id, tenant_id, entry_date, description, hours, hourly_rate, billable, invoiced
		FROM time_entries
		WHERE tenant_id = ? AND billable = 1 AND invoiced = 0
		ORDER BY entry_date, id
	`

	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to query time entries: %w", op, err)
	}
	defer rows.Close()

	var entries []models.TimeEntry
	for rows.Next() {
		var (
			te                 models.TimeEntry
			date               string
			billable, invoiced int
		)
		if err := rows.Scan(&te.ID, &te.TenantID, &date, &te.Description, &te.Hours, &te.HourlyRate,
			&billable, &invoiced); err != nil {
			return nil, fmt.Errorf("%s: failed to scan time entry: %w", op, err)
		}
		te.Billable = billable != 0
		te.Invoiced = invoiced != 0
		if te.Date, err = parseDate(date); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		entries = append(entries, te)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: error iterating time entries: %w", op, err)
	}
	return entries, nil
}

package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReportType names the kind of snapshot stored in financial_reports.
type ReportType string

const ReportVATReturn ReportType = "vat_return"

// Snapshot is an immutable copy of a generated report.
type Snapshot struct {
	ID         string     `json:"id"`
	TenantID   string     `json:"tenant_id"`
	ReportType ReportType `json:"report_type"`
	PeriodKey  string     `json:"period_key"`
	Checksum   string     `json:"checksum"`
	Payload    []byte     `json:"-"`
	CreatedAt  time.Time  `json:"created_at"`
}

// SaveReport stores a write-once snapshot of payload. Saving a payload
// identical to an existing snapshot for the same tenant, type and period is a
// no-op that returns the existing snapshot.
func (s *Store) SaveReport(ctx context.Context, tenantID string, reportType ReportType, periodKey string, payload []byte) (*Snapshot, error) {
	const op = "SaveReport"

	sum := sha256.Sum256(payload)
	snap := &Snapshot{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		ReportType: reportType,
		PeriodKey:  periodKey,
		Checksum:   hex.EncodeToString(sum[:]),
		Payload:    payload,
	}

	query := `
		INSERT INTO financial_reports (id, tenant_id, report_type, period_key, checksum, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, report_type, period_key, checksum) DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query,
		snap.ID, snap.TenantID, string(snap.ReportType), snap.PeriodKey, snap.Checksum, string(payload))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to insert snapshot: %w", op, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		s.log.Debug().
			Str("tenant_id", tenantID).
			Str("period", periodKey).
			Msg("Identical snapshot already stored")
		return s.findReport(ctx, tenantID, reportType, periodKey, snap.Checksum)
	}

	return s.GetReport(ctx, tenantID, snap.ID)
}

// GetReport returns a snapshot including its payload.
func (s *Store) GetReport(ctx context.Context, tenantID, id string) (*Snapshot, error) {
	query := `
		SELECT id, tenant_id, report_type, period_key, checksum, payload, created_at
		FROM financial_reports
		WHERE tenant_id = ? AND id = ?
	`
	return s.scanReport(s.db.QueryRowContext(ctx, query, tenantID, id))
}

func (s *Store) findReport(ctx context.Context, tenantID string, reportType ReportType, periodKey, checksum string) (*Snapshot, error) {
	query := `
		SELECT id, tenant_id, report_type, period_key, checksum, payload, created_at
		FROM financial_reports
		WHERE tenant_id = ? AND report_type = ? AND period_key = ? AND checksum = ?
	`
	return s.scanReport(s.db.QueryRowContext(ctx, query, tenantID, string(reportType), periodKey, checksum))
}

func (s *Store) scanReport(row *sql.Row) (*Snapshot, error) {
	var (
		snap       Snapshot
		reportType string
		payload    string
	)
	err := row.Scan(&snap.ID, &snap.TenantID, &reportType, &snap.PeriodKey, &snap.Checksum, &payload, &snap.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}
	snap.ReportType = ReportType(reportType)
	snap.Payload = []byte(payload)
	return &snap, nil
}

// ListReports returns snapshot metadata for a tenant, newest first.
func (s *Store) ListReports(ctx context.Context, tenantID string) ([]Snapshot, error) {
	const op = "ListReports"

	query := `
		SELECT id, tenant_id, report_type, period_key, checksum, created_at
		FROM financial_reports
		WHERE tenant_id = ?
		ORDER BY created_at DESC, period_key DESC
	`
	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to query snapshots: %w", op, err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var (
			snap       Snapshot
			reportType string
		)
		if err := rows.Scan(&snap.ID, &snap.TenantID, &reportType, &snap.PeriodKey, &snap.Checksum, &snap.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: failed to scan snapshot: %w", op, err)
		}
		snap.ReportType = ReportType(reportType)
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: error iterating snapshots: %w", op, err)
	}
	return snaps, nil
}

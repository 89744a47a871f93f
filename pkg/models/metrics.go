package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimeEntry is tracked work that may later be invoiced.
type TimeEntry struct {
	ID          string          `json:"id"`
	TenantID    string          `json:"tenant_id"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description,omitempty"`
	Hours       decimal.Decimal `json:"hours"`
	HourlyRate  decimal.Decimal `json:"hourly_rate"`
	Billable    bool            `json:"billable"`
	Invoiced    bool            `json:"invoiced"`
}

// Value is the billable value of the entry.
func (t *TimeEntry) Value() decimal.Decimal {
	return t.Hours.Mul(t.HourlyRate)
}

// DashboardMetrics is the summary the dashboard shows for a tenant.
type DashboardMetrics struct {
	CurrentBalance    decimal.Decimal `json:"current_balance"`
	RevenueLast30Days decimal.Decimal `json:"revenue_last_30_days"`
	RevenueLast90Days decimal.Decimal `json:"revenue_last_90_days"`
	OutstandingTotal  decimal.Decimal `json:"outstanding_total"`
	BalanceUpdatedAt  time.Time       `json:"balance_updated_at"`
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Frequency is the schedule of a recurring expense.
type Frequency string

const (
	Weekly    Frequency = "weekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

// Valid reports whether f is a known schedule.
func (f Frequency) Valid() bool {
	switch f {
	case Weekly, Monthly, Quarterly, Yearly:
		return true
	}
	return false
}

// RecurringExpense is a template expanded into dated occurrences.
type RecurringExpense struct {
	ID          string          `json:"id"`
	TenantID    string          `json:"tenant_id"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	VATAmount   decimal.Decimal `json:"vat_amount"`
	Frequency   Frequency       `json:"frequency"`
	StartDate   time.Time       `json:"start_date"`
	EndDate     *time.Time      `json:"end_date,omitempty"`
	Active      bool            `json:"is_active"`
}

// Gross is the amount paid per occurrence.
func (r *RecurringExpense) Gross() decimal.Decimal {
	return r.Amount.Add(r.VATAmount)
}

// Occurrence is one dated instance of a recurring expense.
type Occurrence struct {
	TemplateID  string          `json:"template_id"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Date        time.Time       `json:"date"`
	Gross       decimal.Decimal `json:"gross"`
}

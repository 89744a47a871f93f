package models

import (
	"time"

	"github.com/shopspring/decimal"
	"taxdesk/internal/vat"
)

// InvoiceStatus is the lifecycle state of an outgoing invoice.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceSent      InvoiceStatus = "sent"
	InvoicePaid      InvoiceStatus = "paid"
	InvoicePartial   InvoiceStatus = "partial"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// RevenueStatuses are the invoice states that count as revenue for a VAT return.
var RevenueStatuses = []InvoiceStatus{InvoiceSent, InvoicePaid, InvoicePartial}

// OutstandingStatuses are the invoice states that can still produce an inflow.
var OutstandingStatuses = []InvoiceStatus{InvoiceSent, InvoicePartial, InvoiceOverdue}

type Invoice struct {
	// Core identifiers
	ID       string        `json:"id"`
	TenantID string        `json:"tenant_id"`
	Number   string        `json:"invoice_number"`
	Status   InvoiceStatus `json:"status"`

	// Dates
	IssueDate time.Time `json:"issue_date"`
	DueDate   time.Time `json:"due_date"`

	// Amounts in EUR
	Subtotal   decimal.Decimal `json:"subtotal"`
	VATAmount  decimal.Decimal `json:"vat_amount"`
	Total      decimal.Decimal `json:"total"`
	AmountPaid decimal.Decimal `json:"amount_paid"`

	// VATType as stored by the invoicing flow; zero when unknown
	VATType vat.Category `json:"vat_type"`

	Customer vat.Counterparty `json:"customer"`
}

// Outstanding returns the amount still to be received.
func (i *Invoice) Outstanding() decimal.Decimal {
	total := i.Total
	if total.IsZero() {
		total = i.Subtotal.Add(i.VATAmount)
	}
	out := total.Sub(i.AmountPaid)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// HasStatus reports whether the invoice is in one of statuses.
func (i *Invoice) HasStatus(statuses ...InvoiceStatus) bool {
	for _, s := range statuses {
		if i.Status == s {
			return true
		}
	}
	return false
}

// Package models holds the tenant records read by the VAT and cash-flow
// engines: invoices, expenses, recurring-expense templates, time entries and
// dashboard metrics.
package models

import "github.com/shopspring/decimal"

func init() {
	// Money is exchanged as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"taxdesk/internal/vat"
)

// RepresentatieCategory is the expense category used for entertainment costs.
const RepresentatieCategory = "representatie"

var hundred = decimal.NewFromInt(100)

type Expense struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
	Status      string    `json:"status,omitempty"`

	// Amount is net of VAT
	Amount    decimal.Decimal `json:"amount"`
	VATAmount decimal.Decimal `json:"vat_amount"`
	VATType   vat.Category    `json:"vat_type"`

	Supplier vat.Counterparty `json:"supplier"`

	// BusinessPercentage is 0-100; invalid means not recorded
	BusinessPercentage decimal.NullDecimal `json:"business_percentage"`
	Deductible         bool                `json:"is_deductible"`
	Representation     bool                `json:"is_representation"`
}

// BusinessShare returns the business fraction in [0, 1]. A missing
// percentage counts as fully business use.
func (e *Expense) BusinessShare() decimal.Decimal {
	if !e.BusinessPercentage.Valid {
		return decimal.NewFromInt(1)
	}
	pct := e.BusinessPercentage.Decimal
	if pct.IsNegative() {
		pct = decimal.Zero
	}
	if pct.GreaterThan(hundred) {
		pct = hundred
	}
	return pct.Div(hundred)
}

// MissingBusinessPercentage reports whether the percentage is absent or zero.
func (e *Expense) MissingBusinessPercentage() bool {
	return !e.BusinessPercentage.Valid || e.BusinessPercentage.Decimal.IsZero()
}

// EffectiveAmount is the business share of the net amount.
func (e *Expense) EffectiveAmount() decimal.Decimal {
	return e.Amount.Mul(e.BusinessShare())
}

// EffectiveVAT is the business share of the VAT amount.
func (e *Expense) EffectiveVAT() decimal.Decimal {
	return e.VATAmount.Mul(e.BusinessShare())
}

// Gross is the amount paid out including VAT.
func (e *Expense) Gross() decimal.Decimal {
	return e.Amount.Add(e.VATAmount)
}

// IsRepresentatie reports whether the expense is entertainment, either by
// category name or by metadata flag.
func (e *Expense) IsRepresentatie() bool {
	return e.Representation || strings.Contains(strings.ToLower(e.Category), RepresentatieCategory)
}

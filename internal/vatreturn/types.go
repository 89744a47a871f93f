package vatreturn

import (
	"time"

	"github.com/shopspring/decimal"
	"taxdesk/internal/period"
	"taxdesk/internal/vat"
)

// Bucket accumulates the transactions of one VAT category.
type Bucket struct {
	Amount           decimal.Decimal `json:"amount"`
	VAT              decimal.Decimal `json:"vat"`
	TransactionCount int             `json:"transaction_count"`
}

func (b *Bucket) add(amount, vatAmount decimal.Decimal) {
	b.Amount = b.Amount.Add(amount)
	b.VAT = b.VAT.Add(vatAmount)
	b.TransactionCount++
}

// VATBuckets splits transactions by VAT treatment.
type VATBuckets struct {
	StandardRate    Bucket `json:"standard_rate"`
	ReducedRate     Bucket `json:"reduced_rate"`
	ZeroRate        Bucket `json:"zero_rate"`
	Exempt          Bucket `json:"exempt"`
	ReverseChargeEU Bucket `json:"reverse_charge_eu"`
}

// Bucket returns the bucket for category c, or nil for an invalid category.
func (v *VATBuckets) Bucket(c vat.Category) *Bucket {
	switch c {
	case vat.Standard:
		return &v.StandardRate
	case vat.Reduced:
		return &v.ReducedRate
	case vat.Zero:
		return &v.ZeroRate
	case vat.Exempt:
		return &v.Exempt
	case vat.ReverseCharge:
		return &v.ReverseChargeEU
	default:
		return nil
	}
}

// Total sums every bucket.
func (v VATBuckets) Total() Bucket {
	var t Bucket
	for _, b := range []Bucket{v.StandardRate, v.ReducedRate, v.ZeroRate, v.Exempt, v.ReverseChargeEU} {
		t.Amount = t.Amount.Add(b.Amount)
		t.VAT = t.VAT.Add(b.VAT)
		t.TransactionCount += b.TransactionCount
	}
	return t
}

// CategoryBreakdown totals the expenses booked under one category name.
type CategoryBreakdown struct {
	Category                  string          `json:"category"`
	NetAmount                 decimal.Decimal `json:"net_amount"`
	VATAmount                 decimal.Decimal `json:"vat_amount"`
	BusinessAmount            decimal.Decimal `json:"business_amount"`
	TransactionCount          int             `json:"transaction_count"`
	AverageBusinessPercentage decimal.Decimal `json:"average_business_percentage"`

	percentageSum decimal.Decimal
}

// EUCounterparty rolls up reverse-charge transactions with one EU business,
// identified by VAT number and country.
type EUCounterparty struct {
	VATNumber        string          `json:"vat_number"`
	Country          string          `json:"country"`
	Name             string          `json:"name,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	TransactionCount int             `json:"transaction_count"`
}

// EUTransactions lists cross-border counterparties for the ICP declaration.
type EUTransactions struct {
	RevenueServices []EUCounterparty `json:"revenue_services"`
	ExpenseServices []EUCounterparty `json:"expense_services"`
}

// Empty reports whether there were no EU reverse-charge transactions.
func (e EUTransactions) Empty() bool {
	return len(e.RevenueServices) == 0 && len(e.ExpenseServices) == 0
}

// Summary holds the figures declared on the return.
type Summary struct {
	OutputVAT               decimal.Decimal `json:"output_vat"`
	InputVAT                decimal.Decimal `json:"input_vat"`
	NetVATPayable           decimal.Decimal `json:"net_vat_payable"`
	ReverseChargeVATNeutral decimal.Decimal `json:"reverse_charge_vat_neutral"`
	NonDeductibleVAT        decimal.Decimal `json:"non_deductible_vat"`
	TotalRevenue            decimal.Decimal `json:"total_revenue"`
	TotalExpenses           decimal.Decimal `json:"total_expenses"`
}

// ExpenseBreakdown groups the period's expenses two ways.
type ExpenseBreakdown struct {
	ByVATType  VATBuckets          `json:"by_vat_type"`
	ByCategory []CategoryBreakdown `json:"by_category"`
}

// Compliance is the outcome of the pre-submission checks.
type Compliance struct {
	Issues                 []string        `json:"issues"`
	Warnings               []string        `json:"warnings"`
	ReadyForSubmission     bool            `json:"ready_for_submission"`
	MissingVATNumbers      int             `json:"missing_vat_numbers"`
	RepresentatieTotal     decimal.Decimal `json:"representatie_total"`
	OverRepresentatieLimit bool            `json:"over_representatie_limit"`
}

// PeriodInfo echoes the requested filing period.
type PeriodInfo struct {
	Year      int       `json:"year"`
	Quarter   int       `json:"quarter"`
	Label     string    `json:"label"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

func newPeriodInfo(p period.Period) PeriodInfo {
	return PeriodInfo{
		Year:      p.Year,
		Quarter:   p.Quarter,
		Label:     p.Label(),
		StartDate: p.Start,
		EndDate:   p.End,
	}
}

// DataQuality reports which sources could not be read.
type DataQuality struct {
	FailedSources []string `json:"failed_sources"`
	Complete      bool     `json:"complete"`
}

// QuarterlyVATReturn is the document returned to callers and archived as an
// audit snapshot.
type QuarterlyVATReturn struct {
	TenantID         string           `json:"tenant_id"`
	Period           PeriodInfo       `json:"period"`
	Revenue          VATBuckets       `json:"revenue"`
	Expenses         ExpenseBreakdown `json:"expenses"`
	Summary          Summary          `json:"summary"`
	ComplianceChecks Compliance       `json:"compliance_checks"`
	EUTransactions   EUTransactions   `json:"eu_transactions"`
	DataQuality      DataQuality      `json:"data_quality"`

	// Set after generation; excluded from the snapshot checksum.
	SnapshotID  string    `json:"snapshot_id,omitempty"`
	GeneratedAt time.Time `json:"generated_at,omitzero"`
}

package vatreturn

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Limits are the thresholds the compliance checks compare against.
type Limits struct {
	// RepresentatieLimit is the entertainment spend above which a warning is raised.
	RepresentatieLimit decimal.Decimal

	// InputOutputRatio flags returns whose input VAT exceeds this multiple of output VAT.
	InputOutputRatio decimal.Decimal
}

// DefaultLimits returns the standard thresholds.
func DefaultLimits() Limits {
	return Limits{
		RepresentatieLimit: decimal.NewFromInt(5000),
		InputOutputRatio:   decimal.NewFromInt(2),
	}
}

// Check runs the pre-submission rules over an aggregate. Issues block
// submission; warnings only ask for attention.
func Check(r Result, l Limits) Compliance {
	c := Compliance{
		Issues:             []string{},
		Warnings:           []string{},
		MissingVATNumbers:  len(r.Findings.MissingVATNumber),
		RepresentatieTotal: r.Findings.RepresentatieTotal,
	}

	if r.Summary.TotalRevenue.IsZero() && r.Summary.TotalExpenses.IsZero() {
		c.Warnings = append(c.Warnings, "No revenue or expenses recorded for this period")
	}

	if r.Summary.InputVAT.GreaterThan(r.Summary.OutputVAT.Mul(l.InputOutputRatio)) {
		c.Warnings = append(c.Warnings, fmt.Sprintf(
			"Input VAT (%s) exceeds %s times output VAT (%s), unusual pattern",
			r.Summary.InputVAT.StringFixed(2), l.InputOutputRatio.String(), r.Summary.OutputVAT.StringFixed(2)))
	}

	if !r.EU.Empty() {
		c.Warnings = append(c.Warnings, "EU transactions present, an ICP declaration may be required")
	}

	for _, ref := range r.Findings.InvalidVATNumbers {
		c.Warnings = append(c.Warnings, "Invalid VAT number on reverse-charge "+ref)
	}

	for _, m := range r.Findings.ClassificationMismatches {
		c.Warnings = append(c.Warnings, "Classification mismatch: "+m)
	}

	for _, desc := range r.Findings.MissingBusinessPercentage {
		c.Issues = append(c.Issues, fmt.Sprintf("Expense %q has no business percentage", desc))
	}

	for _, desc := range r.Findings.MissingVATNumber {
		c.Issues = append(c.Issues, fmt.Sprintf("Reverse-charge expense %q from a foreign supplier has no VAT number", desc))
	}

	if c.RepresentatieTotal.GreaterThan(l.RepresentatieLimit) {
		c.OverRepresentatieLimit = true
		c.Warnings = append(c.Warnings, fmt.Sprintf(
			"Representatie expenses (%s) exceed the %s limit, part may not be deductible",
			c.RepresentatieTotal.StringFixed(2), l.RepresentatieLimit.StringFixed(2)))
	}

	c.ReadyForSubmission = len(c.Issues) == 0 && c.MissingVATNumbers == 0
	return c
}

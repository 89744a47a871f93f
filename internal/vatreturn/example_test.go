package vatreturn_test

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"taxdesk/internal/period"
	"taxdesk/internal/vat"
	"taxdesk/internal/vatreturn"
	"taxdesk/pkg/models"
)

// ExampleAggregate shows a quarter with one domestic invoice and one
// half-private expense.
func ExampleAggregate() {
	q, _ := period.ResolveQuarter(2024, 1)

	r := vatreturn.Aggregate(vatreturn.Input{
		Period: q,
		Invoices: []models.Invoice{{
			ID:        "inv-1",
			Status:    models.InvoiceSent,
			IssueDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			Subtotal:  decimal.RequireFromString("3000"),
			VATAmount: decimal.RequireFromString("630"),
			VATType:   vat.Standard,
		}},
		Expenses: []models.Expense{{
			ID:                 "exp-1",
			Description:        "Phone",
			Date:               time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC),
			Amount:             decimal.RequireFromString("100"),
			VATAmount:          decimal.RequireFromString("21"),
			VATType:            vat.Standard,
			BusinessPercentage: decimal.NewNullDecimal(decimal.NewFromInt(50)),
			Deductible:         true,
		}},
	})

	c := vatreturn.Check(r, vatreturn.DefaultLimits())

	fmt.Println("output VAT:", r.Summary.OutputVAT.StringFixed(2))
	fmt.Println("input VAT:", r.Summary.InputVAT.StringFixed(2))
	fmt.Println("net payable:", r.Summary.NetVATPayable.StringFixed(2))
	fmt.Println("ready:", c.ReadyForSubmission)
	// Output:
	// output VAT: 630.00
	// input VAT: 10.50
	// net payable: 619.50
	// ready: true
}

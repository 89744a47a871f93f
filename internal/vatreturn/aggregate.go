package vatreturn

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"taxdesk/internal/period"
	"taxdesk/internal/vat"
	"taxdesk/pkg/models"
)

const uncategorized = "uncategorized"

// Input is the transaction set of one tenant and period.
type Input struct {
	Period   period.Period
	Invoices []models.Invoice
	Expenses []models.Expense

	// Classifier fills in missing categories and detects mismatches. Nil
	// uses the Dutch defaults.
	Classifier *vat.Classifier
}

// Findings are per-transaction observations the compliance checks report on.
type Findings struct {
	MissingBusinessPercentage []string
	MissingVATNumber          []string
	InvalidVATNumbers         []string
	ClassificationMismatches  []string
	RepresentatieTotal        decimal.Decimal
}

// Result is the outcome of a single pass over the period's transactions.
// It depends only on its input: the same transactions in any order give an
// identical Result.
type Result struct {
	Period   period.Period
	Revenue  VATBuckets
	Expenses ExpenseBreakdown
	Summary  Summary
	EU       EUTransactions
	Findings Findings
}

type euKey struct {
	vatNumber string
	country   string
}

type aggregator struct {
	classifier *vat.Classifier
	result     Result

	categories   map[string]*CategoryBreakdown
	euRevenue    map[euKey]*EUCounterparty
	euExpenses   map[euKey]*EUCounterparty
	totalExpense decimal.Decimal
	neutral      decimal.Decimal
}

// Aggregate buckets the period's revenue and expenses by VAT treatment and
// derives the declared totals.
//
// Invoices count as revenue when issued in the period with status sent, paid
// or partial. Expenses count when dated in the period, whatever their
// status, weighted by their business percentage. The category stored on a
// transaction is trusted; a missing one is derived from the counterparty.
// Reverse-charge and exempt transactions never carry VAT.
func Aggregate(in Input) Result {
	c := in.Classifier
	if c == nil {
		c = vat.NewClassifier(vat.HomeCountry, vat.DefaultRates)
	}

	a := &aggregator{
		classifier: c,
		result:     Result{Period: in.Period},
		categories: make(map[string]*CategoryBreakdown),
		euRevenue:  make(map[euKey]*EUCounterparty),
		euExpenses: make(map[euKey]*EUCounterparty),
	}

	for i := range in.Invoices {
		inv := &in.Invoices[i]
		if !inv.HasStatus(models.RevenueStatuses...) || !in.Period.Contains(inv.IssueDate) {
			continue
		}
		a.addInvoice(inv)
	}
	for i := range in.Expenses {
		e := &in.Expenses[i]
		if !in.Period.Contains(e.Date) {
			continue
		}
		a.addExpense(e)
	}

	return a.finish()
}

func (a *aggregator) category(cp vat.Counterparty, stored vat.Category, ref string) vat.Category {
	derived := a.classifier.Resolve(cp, stored)
	if !stored.Valid() {
		return derived.Category
	}
	if derived.Category != stored && !(derived.Export && stored == vat.Zero) {
		a.result.Findings.ClassificationMismatches = append(a.result.Findings.ClassificationMismatches,
			fmt.Sprintf("%s is booked as %s but its counterparty suggests %s (%s)", ref, stored, derived.Category, derived.Reason))
	}
	return stored
}

func (a *aggregator) addInvoice(inv *models.Invoice) {
	ref := "invoice " + firstNonEmpty(inv.Number, inv.ID)
	cat := a.category(inv.Customer, inv.VATType, ref)

	amount := inv.Subtotal
	vatAmount := inv.VATAmount
	if cat.ZeroVAT() {
		vatAmount = decimal.Zero
	}
	a.result.Revenue.Bucket(cat).add(amount, vatAmount)

	if cat == vat.ReverseCharge {
		a.neutral = a.neutral.Add(amount.Mul(a.classifier.Rates.Standard))
		a.checkVATNumber(inv.Customer, ref)
		if inv.Customer.HasVATNumber() {
			addEU(a.euRevenue, inv.Customer, amount)
		}
	}
}

func (a *aggregator) addExpense(e *models.Expense) {
	label := firstNonEmpty(e.Description, e.ID)
	cat := a.category(e.Supplier, e.VATType, "expense "+label)

	amount := e.EffectiveAmount()
	vatAmount := e.EffectiveVAT()
	rawVAT := e.VATAmount
	if cat.ZeroVAT() {
		vatAmount = decimal.Zero
		rawVAT = decimal.Zero
	}

	a.result.Expenses.ByVATType.Bucket(cat).add(amount, vatAmount)
	a.totalExpense = a.totalExpense.Add(amount)
	if e.Deductible {
		a.result.Summary.InputVAT = a.result.Summary.InputVAT.Add(vatAmount)
	} else {
		a.result.Summary.NonDeductibleVAT = a.result.Summary.NonDeductibleVAT.Add(vatAmount)
	}

	name := strings.TrimSpace(e.Category)
	if name == "" {
		name = uncategorized
	}
	cb, ok := a.categories[name]
	if !ok {
		cb = &CategoryBreakdown{Category: name}
		a.categories[name] = cb
	}
	cb.NetAmount = cb.NetAmount.Add(e.Amount)
	cb.VATAmount = cb.VATAmount.Add(rawVAT)
	cb.BusinessAmount = cb.BusinessAmount.Add(amount)
	cb.TransactionCount++
	cb.percentageSum = cb.percentageSum.Add(e.BusinessShare().Mul(decimal.NewFromInt(100)))

	f := &a.result.Findings
	if e.MissingBusinessPercentage() {
		f.MissingBusinessPercentage = append(f.MissingBusinessPercentage, label)
	}
	if e.IsRepresentatie() {
		f.RepresentatieTotal = f.RepresentatieTotal.Add(e.Amount)
	}

	if cat == vat.ReverseCharge {
		a.neutral = a.neutral.Add(amount.Mul(a.classifier.Rates.Standard))
		a.checkVATNumber(e.Supplier, "expense "+label)
		if !a.classifier.IsDomestic(e.Supplier) {
			if e.Supplier.HasVATNumber() {
				addEU(a.euExpenses, e.Supplier, amount)
			} else {
				f.MissingVATNumber = append(f.MissingVATNumber, label)
			}
		}
	}
}

// checkVATNumber records a VAT number that is present but syntactically invalid.
func (a *aggregator) checkVATNumber(cp vat.Counterparty, ref string) {
	if cp.HasVATNumber() && !vat.ValidVATNumber(cp.VATNumber) {
		a.result.Findings.InvalidVATNumbers = append(a.result.Findings.InvalidVATNumbers,
			fmt.Sprintf("%s (%s)", ref, vat.NormalizeVATNumber(cp.VATNumber)))
	}
}

func addEU(m map[euKey]*EUCounterparty, cp vat.Counterparty, amount decimal.Decimal) {
	key := euKey{vatNumber: vat.NormalizeVATNumber(cp.VATNumber), country: vat.NormalizeCountry(cp.Country)}
	entry, ok := m[key]
	if !ok {
		entry = &EUCounterparty{VATNumber: key.vatNumber, Country: key.country}
		m[key] = entry
	}
	// keep the smallest name so the result does not depend on input order
	if name := strings.TrimSpace(cp.Name); name != "" && (entry.Name == "" || name < entry.Name) {
		entry.Name = name
	}
	entry.Amount = entry.Amount.Add(amount)
	entry.TransactionCount++
}

func (a *aggregator) finish() Result {
	r := a.result
	s := &r.Summary

	s.OutputVAT = r.Revenue.StandardRate.VAT.
		Add(r.Revenue.ReducedRate.VAT).
		Add(r.Revenue.ZeroRate.VAT).
		Add(r.Revenue.Exempt.VAT)
	s.NetVATPayable = s.OutputVAT.Sub(s.InputVAT)
	s.ReverseChargeVATNeutral = a.neutral
	s.TotalRevenue = r.Revenue.Total().Amount
	s.TotalExpenses = a.totalExpense

	r.Expenses.ByCategory = make([]CategoryBreakdown, 0, len(a.categories))
	for _, cb := range a.categories {
		if cb.TransactionCount > 0 {
			cb.AverageBusinessPercentage = cb.percentageSum.Div(decimal.NewFromInt(int64(cb.TransactionCount))).Round(2)
		}
		r.Expenses.ByCategory = append(r.Expenses.ByCategory, *cb)
	}
	sort.Slice(r.Expenses.ByCategory, func(i, j int) bool {
		return r.Expenses.ByCategory[i].Category < r.Expenses.ByCategory[j].Category
	})

	r.EU.RevenueServices = sortedEU(a.euRevenue)
	r.EU.ExpenseServices = sortedEU(a.euExpenses)

	sort.Strings(r.Findings.MissingBusinessPercentage)
	sort.Strings(r.Findings.MissingVATNumber)
	sort.Strings(r.Findings.InvalidVATNumbers)
	sort.Strings(r.Findings.ClassificationMismatches)

	return r
}

func sortedEU(m map[euKey]*EUCounterparty) []EUCounterparty {
	out := make([]EUCounterparty, 0, len(m))
	for _, e := range m {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Country != out[j].Country {
			return out[i].Country < out[j].Country
		}
		return out[i].VATNumber < out[j].VATNumber
	})
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// Package vat classifies transactions into Dutch VAT (BTW) treatments.
package vat

import (
	"github.com/shopspring/decimal"
)

// HomeCountry is the default tenant home country.
const HomeCountry = "NL"

// Rates holds the percentage rates applied to rate-bearing categories.
type Rates struct {
	Standard decimal.Decimal
	Reduced  decimal.Decimal
}

// DefaultRates are the Dutch rates in force since 2019.
var DefaultRates = Rates{
	Standard: decimal.RequireFromString("0.21"),
	Reduced:  decimal.RequireFromString("0.09"),
}

// For returns the rate applied to category c.
func (r Rates) For(c Category) decimal.Decimal {
	switch c {
	case Standard:
		return r.Standard
	case Reduced:
		return r.Reduced
	default:
		return decimal.Zero
	}
}

// Counterparty is the customer or supplier on a transaction.
type Counterparty struct {
	Name       string `json:"name,omitempty"`
	Country    string `json:"country,omitempty"`
	VATNumber  string `json:"vat_number,omitempty"`
	IsBusiness bool   `json:"is_business"`
}

// HasVATNumber reports whether a VAT identifier was supplied.
func (c Counterparty) HasVATNumber() bool {
	return NormalizeVATNumber(c.VATNumber) != ""
}

// Classification is the outcome of classifying a counterparty.
type Classification struct {
	Category Category
	Rate     decimal.Decimal
	Export   bool
	Reason   string
}

// Classifier assigns VAT categories relative to the tenant's home country.
type Classifier struct {
	HomeCountry string
	Rates       Rates
}

// NewClassifier returns a Classifier for home with the given rates.
func NewClassifier(home string, rates Rates) *Classifier {
	if home == "" {
		home = HomeCountry
	}
	return &Classifier{HomeCountry: NormalizeCountry(home), Rates: rates}
}

// IsDomestic reports whether the counterparty is in the home country. A
// missing country is treated as domestic.
func (c *Classifier) IsDomestic(cp Counterparty) bool {
	country := NormalizeCountry(cp.Country)
	return country == "" || country == c.HomeCountry
}

// Classify derives the category from the counterparty alone.
func (c *Classifier) Classify(cp Counterparty) Classification {
	return c.Resolve(cp, Standard)
}

// Resolve combines counterparty attributes with the category stored on the
// transaction. Domestic transactions keep an upstream reduced, zero or exempt
// flag; cross-border transactions are re-derived from the counterparty.
func (c *Classifier) Resolve(cp Counterparty, stored Category) Classification {
	country := NormalizeCountry(cp.Country)

	switch {
	case c.IsDomestic(cp):
		cat := Standard
		switch stored {
		case Reduced, Zero, Exempt:
			cat = stored
		}
		return c.result(cat, false, "domestic supply")

	case IsEU(country) && cp.IsBusiness && cp.HasVATNumber():
		return c.result(ReverseCharge, false, "intra-EU B2B supply, VAT reverse charged")

	case !IsEU(country):
		return c.result(Exempt, true, "export outside the EU")

	default:
		return c.result(Standard, false, "intra-EU supply without business VAT number, home rate applies")
	}
}

func (c *Classifier) result(cat Category, export bool, reason string) Classification {
	return Classification{
		Category: cat,
		Rate:     c.Rates.For(cat),
		Export:   export,
		Reason:   reason,
	}
}

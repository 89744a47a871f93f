package vat

import (
	"regexp"
	"strings"
)

var euMembers = map[string]bool{
	"AT": true, "BE": true, "BG": true, "HR": true, "CY": true, "CZ": true,
	"DK": true, "EE": true, "FI": true, "FR": true, "DE": true, "GR": true,
	"HU": true, "IE": true, "IT": true, "LV": true, "LT": true, "LU": true,
	"MT": true, "NL": true, "PL": true, "PT": true, "RO": true, "SK": true,
	"SI": true, "ES": true, "SE": true,
}

// NormalizeCountry upper-cases a country code and maps the VIES prefix EL to GR.
func NormalizeCountry(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "EL" {
		return "GR"
	}
	return code
}

// IsEU reports whether code is an EU member state.
func IsEU(code string) bool {
	return euMembers[NormalizeCountry(code)]
}

var vatNumberPattern = regexp.MustCompile(`^[A-Z]{2}[0-9A-Z+*.]{2,13}$`)

// NormalizeVATNumber strips separators and upper-cases a VAT identifier.
func NormalizeVATNumber(s string) string {
	s = strings.ToUpper(s)
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.', '\t':
			return -1
		}
		return r
	}, s)
}

// ValidVATNumber performs a syntactic check of a VAT identifier.
func ValidVATNumber(s string) bool {
	return vatNumberPattern.MatchString(NormalizeVATNumber(s))
}

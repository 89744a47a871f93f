package vat

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCategory is returned when a stored VAT type does not name a known category.
var ErrUnknownCategory = errors.New("unknown VAT category")

// Category is the VAT treatment of a transaction.
type Category int

const (
	Standard Category = iota + 1
	Reduced
	Zero
	Exempt
	ReverseCharge
)

// Categories lists every category in report order.
var Categories = []Category{Standard, Reduced, Zero, Exempt, ReverseCharge}

var categoryNames = map[Category]string{
	Standard:      "standard",
	Reduced:       "reduced",
	Zero:          "zero",
	Exempt:        "exempt",
	ReverseCharge: "reverse_charge",
}

// String returns the stored name of the category.
func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// Valid reports whether c is one of the defined categories.
func (c Category) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

// ZeroVAT reports whether transactions in this category never carry VAT on
// the tenant's own books.
func (c Category) ZeroVAT() bool {
	return c == Exempt || c == ReverseCharge
}

// ParseCategory maps a stored vat_type to a Category. Legacy aliases written
// by older invoice flows ("high", "low", "21", "9", "0", "reverse-charge") are accepted.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "standard", "high", "21":
		return Standard, nil
	case "reduced", "low", "9":
		return Reduced, nil
	case "zero", "0":
		return Zero, nil
	case "exempt", "export":
		return Exempt, nil
	case "reverse_charge", "reverse-charge", "reversecharge", "eu_reverse_charge":
		return ReverseCharge, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
}

// MarshalText implements encoding.TextMarshaler. The zero Category, meaning
// "not recorded", marshals to an empty string.
func (c Category) MarshalText() ([]byte, error) {
	if c == 0 {
		return []byte{}, nil
	}
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCategory, int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*c = 0
		return nil
	}
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

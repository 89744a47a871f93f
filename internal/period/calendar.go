package period

import (
	"fmt"
	"strings"
	"time"
)

// Frequency is how often a tenant files VAT returns.
type Frequency string

const (
	Quarterly Frequency = "quarterly"
	Monthly   Frequency = "monthly"
)

// ParseFrequency accepts "quarterly" or "monthly" (case-insensitive).
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(strings.ToLower(strings.TrimSpace(s))) {
	case Quarterly, "":
		return Quarterly, nil
	case Monthly:
		return Monthly, nil
	default:
		return "", fmt.Errorf("unknown VAT filing frequency %q", s)
	}
}

// PaymentDue is the last day of the month after the period ends, the
// Belastingdienst deadline for both filing and payment.
func PaymentDue(p Period) time.Time {
	firstOfSecondMonth := time.Date(p.End.Year(), p.End.Month()+2, 1, 0, 0, 0, 0, time.UTC)
	return firstOfSecondMonth.AddDate(0, 0, -1)
}

func filingPeriodOf(t time.Time, freq Frequency) Period {
	if freq == Monthly {
		return MonthOf(t)
	}
	return QuarterOf(t)
}

func nextFilingPeriod(p Period, freq Frequency) Period {
	return filingPeriodOf(p.End.AddDate(0, 0, 1), freq)
}

// SettledPeriod returns the filing period whose payment falls due on due.
func SettledPeriod(due time.Time, freq Frequency) Period {
	due = Normalize(due)
	prev := time.Date(due.Year(), due.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	return filingPeriodOf(prev, freq)
}

// NextPaymentDate returns the earliest VAT payment date on or after today.
func NextPaymentDate(today time.Time, freq Frequency) time.Time {
	today = Normalize(today)
	current := filingPeriodOf(today, freq)
	prev := filingPeriodOf(current.Start.AddDate(0, 0, -1), freq)
	if due := PaymentDue(prev); !due.Before(today) {
		return due
	}
	return PaymentDue(current)
}

// PaymentDatesBetween lists VAT payment dates d with from <= d < to.
func PaymentDatesBetween(from, to time.Time, freq Frequency) []time.Time {
	from, to = Normalize(from), Normalize(to)
	var dates []time.Time

	p := filingPeriodOf(from, freq)
	p = filingPeriodOf(p.Start.AddDate(0, 0, -1), freq)
	for {
		due := PaymentDue(p)
		if !due.Before(to) {
			break
		}
		if !due.Before(from) {
			dates = append(dates, due)
		}
		p = nextFilingPeriod(p, freq)
	}
	return dates
}

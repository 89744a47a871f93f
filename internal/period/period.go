// Package period resolves reporting periods and forecast windows.
//
// Every date produced here is normalized to midnight UTC. Aggregation and
// forecasting compare dates only through Normalize so that a transaction
// booked late in the evening in Europe/Amsterdam never slips into the
// neighbouring day or quarter.
package period

import (
	"fmt"
	"time"
)

// DateLayout is the canonical wire format for dates.
const DateLayout = "2006-01-02"

// Bounds limits which years may be resolved.
type Bounds struct {
	MinYear int
	MaxYear int
}

// DefaultBounds covers the years the product supports filing for.
var DefaultBounds = Bounds{MinYear: 2020, MaxYear: 2030}

// Period is a closed date interval [Start, End].
type Period struct {
	Start time.Time
	End   time.Time

	// Year and Quarter are zero for explicit from/to periods.
	Year    int
	Quarter int
}

// Normalize returns the calendar date of t at midnight UTC.
func Normalize(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date into its normalized form.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, newValidationError("date", s, err, "expected format YYYY-MM-DD")
	}
	return Normalize(t), nil
}

// ResolveQuarter resolves a quarter using DefaultBounds.
func ResolveQuarter(year, quarter int) (Period, error) {
	return DefaultBounds.ResolveQuarter(year, quarter)
}

// ResolveQuarter returns the calendar quarter of year with inclusive boundaries.
func (b Bounds) ResolveQuarter(year, quarter int) (Period, error) {
	if quarter < 1 || quarter > 4 {
		return Period{}, newValidationError("quarter", quarter, ErrInvalidQuarter, "quarter must be between 1 and 4")
	}
	if year < b.MinYear || year > b.MaxYear {
		return Period{}, newValidationError("year", year, ErrYearOutOfRange, "year must be between %d and %d", b.MinYear, b.MaxYear)
	}

	startMonth := time.Month(3*(quarter-1) + 1)
	start := time.Date(year, startMonth, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 3, -1)

	return Period{Start: start, End: end, Year: year, Quarter: quarter}, nil
}

// QuarterOf returns the quarter containing t.
func QuarterOf(t time.Time) Period {
	t = Normalize(t)
	q := (int(t.Month())-1)/3 + 1
	start := time.Date(t.Year(), time.Month(3*(q-1)+1), 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 3, -1), Year: t.Year(), Quarter: q}
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) Period {
	t = Normalize(t)
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, -1), Year: t.Year()}
}

// Between builds an explicit period from two dates.
func Between(from, to time.Time) (Period, error) {
	from, to = Normalize(from), Normalize(to)
	if from.After(to) {
		return Period{}, newValidationError("from", from.Format(DateLayout), ErrInvalidRange, "from must not be after %s", to.Format(DateLayout))
	}
	return Period{Start: from, End: to}, nil
}

// Contains reports whether t falls on or between the period boundaries.
func (p Period) Contains(t time.Time) bool {
	d := Normalize(t)
	return !d.Before(p.Start) && !d.After(p.End)
}

// Key identifies the period in storage, e.g. "2024-Q1" or "2024-01-01_2024-02-15".
func (p Period) Key() string {
	if p.Quarter != 0 {
		return fmt.Sprintf("%d-Q%d", p.Year, p.Quarter)
	}
	return p.Start.Format(DateLayout) + "_" + p.End.Format(DateLayout)
}

// Label is the human readable form used in reports.
func (p Period) Label() string {
	if p.Quarter != 0 {
		return fmt.Sprintf("Q%d %d", p.Quarter, p.Year)
	}
	return p.Start.Format(DateLayout) + " - " + p.End.Format(DateLayout)
}

// Window is the half-open forecast interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
	Days  int
}

// ForecastWindow returns [today, today+days).
func ForecastWindow(today time.Time, days int) (Window, error) {
	if days <= 0 {
		return Window{}, newValidationError("days", days, ErrInvalidHorizon, "days must be positive")
	}
	start := Normalize(today)
	return Window{Start: start, End: start.AddDate(0, 0, days), Days: days}, nil
}

// Day returns the date at index i of the window.
func (w Window) Day(i int) time.Time {
	return w.Start.AddDate(0, 0, i)
}

// Index returns the day index of t within the window, or -1 when outside.
func (w Window) Index(t time.Time) int {
	d := Normalize(t)
	if d.Before(w.Start) || !d.Before(w.End) {
		return -1
	}
	return int(d.Sub(w.Start).Hours() / 24)
}

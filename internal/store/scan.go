package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"taxdesk/internal/period"
	"taxdesk/internal/vat"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = errors.New("record not found")

func formatDate(t time.Time) string {
	return period.Normalize(t).Format(period.DateLayout)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(period.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored date %q: %w", s, err)
	}
	return t, nil
}

func parseNullDate(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseDate(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatDate(*t), Valid: true}
}

// parseStoredCategory maps a stored vat_type to a category. Unknown or empty
// values become the zero Category so that callers can re-derive them.
func parseStoredCategory(s string) vat.Category {
	if s == "" {
		return 0
	}
	c, err := vat.ParseCategory(s)
	if err != nil {
		return 0
	}
	return c
}

func categoryText(c vat.Category) string {
	if !c.Valid() {
		return ""
	}
	return c.String()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// inPlaceholders returns "?, ?, ?" for n arguments.
func inPlaceholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// Package recurring expands recurring-expense templates into dated occurrences.
package recurring

import (
	"sort"
	"time"

	"taxdesk/internal/period"
	"taxdesk/pkg/models"
)

// maxOccurrences bounds expansion of a single template within one window.
const maxOccurrences = 1000

// Expand returns the occurrences of active templates dated in [from, to),
// ordered by date and then template ID.
func Expand(templates []models.RecurringExpense, from, to time.Time) []models.Occurrence {
	from, to = period.Normalize(from), period.Normalize(to)

	var out []models.Occurrence
	for _, tpl := range templates {
		if !tpl.Active {
			continue
		}
		start := period.Normalize(tpl.StartDate)
		var end time.Time
		if tpl.EndDate != nil {
			end = period.Normalize(*tpl.EndDate)
		}

		first := firstIndex(start, tpl.Frequency, from)
		for n := first; n < first+maxOccurrences; n++ {
			date, ok := nth(start, tpl.Frequency, n)
			if !ok || !date.Before(to) {
				break
			}
			if !end.IsZero() && date.After(end) {
				break
			}
			if date.Before(from) {
				continue
			}
			out = append(out, models.Occurrence{
				TemplateID:  tpl.ID,
				Description: tpl.Description,
				Category:    tpl.Category,
				Date:        date,
				Gross:       tpl.Gross(),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].TemplateID < out[j].TemplateID
	})
	return out
}

// HasActive reports whether any template is active and not ended before from.
func HasActive(templates []models.RecurringExpense, from time.Time) bool {
	from = period.Normalize(from)
	for _, tpl := range templates {
		if !tpl.Active {
			continue
		}
		if tpl.EndDate != nil && period.Normalize(*tpl.EndDate).Before(from) {
			continue
		}
		return true
	}
	return false
}

// firstIndex returns the largest n whose schedule step cannot fall on or
// after from, so expansion of old templates starts near the window.
func firstIndex(start time.Time, freq models.Frequency, from time.Time) int {
	if !from.After(start) {
		return 0
	}
	switch freq {
	case models.Weekly:
		return int(from.Sub(start).Hours()/24) / 7
	case models.Monthly, models.Quarterly, models.Yearly:
		months := (from.Year()-start.Year())*12 + int(from.Month()) - int(start.Month())
		return months / monthsPerStep[freq]
	default:
		return 0
	}
}

var monthsPerStep = map[models.Frequency]int{
	models.Monthly:   1,
	models.Quarterly: 3,
	models.Yearly:    12,
}

// nth returns the n-th scheduled date of a template.
func nth(start time.Time, freq models.Frequency, n int) (time.Time, bool) {
	switch freq {
	case models.Weekly:
		return start.AddDate(0, 0, 7*n), true
	case models.Monthly:
		return addMonths(start, n), true
	case models.Quarterly:
		return addMonths(start, 3*n), true
	case models.Yearly:
		return addMonths(start, 12*n), true
	default:
		return time.Time{}, false
	}
}

// addMonths adds months to t, clamping the day to the end of the target month
// so that a template starting on the 31st recurs on the last day of shorter months.
func addMonths(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	last := first.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

package recurring

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"taxdesk/pkg/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExpandMonthly(t *testing.T) {
	tpl := models.RecurringExpense{
		ID:          "rent",
		Description: "Office rent",
		Amount:      decimal.NewFromInt(1000),
		VATAmount:   decimal.NewFromInt(210),
		Frequency:   models.Monthly,
		StartDate:   date(2024, 1, 31),
		Active:      true,
	}

	got := Expand([]models.RecurringExpense{tpl}, date(2024, 2, 1), date(2024, 5, 1))
	require.Len(t, got, 3)
	assert.Equal(t, date(2024, 2, 29), got[0].Date)
	assert.Equal(t, date(2024, 3, 31), got[1].Date)
	assert.Equal(t, date(2024, 4, 30), got[2].Date)
	assert.True(t, decimal.NewFromInt(1210).Equal(got[0].Gross))
}

func TestExpandRespectsEndDateAndActive(t *testing.T) {
	end := date(2024, 1, 22)
	templates := []models.RecurringExpense{
		{ID: "a", Frequency: models.Weekly, StartDate: date(2024, 1, 1), EndDate: &end, Active: true},
		{ID: "b", Frequency: models.Weekly, StartDate: date(2024, 1, 1), Active: false},
	}

	got := Expand(templates, date(2024, 1, 1), date(2024, 3, 1))
	require.Len(t, got, 4)
	assert.Equal(t, date(2024, 1, 22), got[3].Date)
}

func TestExpandOrdersAcrossTemplates(t *testing.T) {
	templates := []models.RecurringExpense{
		{ID: "z", Frequency: models.Quarterly, StartDate: date(2024, 1, 10), Active: true},
		{ID: "y", Frequency: models.Yearly, StartDate: date(2023, 1, 10), Active: true},
		{ID: "x", Frequency: "fortnightly", StartDate: date(2024, 1, 1), Active: true},
	}

	got := Expand(templates, date(2024, 1, 1), date(2024, 12, 31))
	require.Len(t, got, 5)
	assert.Equal(t, "y", got[0].TemplateID)
	assert.Equal(t, "z", got[1].TemplateID)
	assert.Equal(t, date(2024, 10, 10), got[4].Date)
}

func TestHasActive(t *testing.T) {
	ended := date(2023, 12, 31)
	assert.False(t, HasActive([]models.RecurringExpense{{Active: true, EndDate: &ended}}, date(2024, 1, 1)))
	assert.True(t, HasActive([]models.RecurringExpense{{Active: true}}, date(2024, 1, 1)))
	assert.False(t, HasActive(nil, date(2024, 1, 1)))
}

func TestExpandLongRunningTemplates(t *testing.T) {
	templates := []models.RecurringExpense{
		{ID: "cleaning", Frequency: models.Weekly, StartDate: date(2004, 1, 5), Active: true, Amount: decimal.NewFromInt(40)},
		{ID: "insurance", Frequency: models.Yearly, StartDate: date(1990, 3, 15), Active: true, Amount: decimal.NewFromInt(600)},
		{ID: "hosting", Frequency: models.Monthly, StartDate: date(1999, 12, 31), Active: true, Amount: decimal.NewFromInt(20)},
	}
	from := date(2024, 6, 1)
	to := from.AddDate(0, 0, 90)

	require.True(t, HasActive(templates, from))
	got := Expand(templates, from, to)

	var weekly, monthly []time.Time
	for _, o := range got {
		switch o.TemplateID {
		case "cleaning":
			weekly = append(weekly, o.Date)
		case "hosting":
			monthly = append(monthly, o.Date)
		case "insurance":
			t.Fatalf("yearly occurrence outside the window: %s", o.Date)
		}
	}

	require.Len(t, weekly, 13)
	assert.Equal(t, date(2024, 6, 3), weekly[0])
	assert.Equal(t, date(2024, 8, 26), weekly[12])
	for _, d := range weekly {
		assert.Equal(t, time.Monday, d.Weekday())
	}

	assert.Equal(t, []time.Time{date(2024, 6, 30), date(2024, 7, 31)}, monthly)

	yearly := Expand(templates[1:2], date(2024, 1, 1), date(2025, 1, 1))
	require.Len(t, yearly, 1)
	assert.Equal(t, date(2024, 3, 15), yearly[0].Date)
}

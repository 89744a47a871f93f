package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPaymentDue(t *testing.T) {
	tests := []struct {
		quarter int
		want    time.Time
	}{
		{1, date(2024, 4, 30)},
		{2, date(2024, 7, 31)},
		{3, date(2024, 10, 31)},
		{4, date(2025, 1, 31)},
	}
	for _, tt := range tests {
		p, _ := ResolveQuarter(2024, tt.quarter)
		assert.Equal(t, tt.want, PaymentDue(p), "Q%d", tt.quarter)
	}
}

func TestNextPaymentDate(t *testing.T) {
	tests := []struct {
		name  string
		today time.Time
		freq  Frequency
		want  time.Time
	}{
		{"before previous quarter deadline", date(2024, 4, 15), Quarterly, date(2024, 4, 30)},
		{"on deadline", date(2024, 4, 30), Quarterly, date(2024, 4, 30)},
		{"after deadline", date(2024, 5, 1), Quarterly, date(2024, 7, 31)},
		{"year boundary", date(2024, 12, 20), Quarterly, date(2025, 1, 31)},
		{"monthly filer", date(2024, 5, 10), Monthly, date(2024, 5, 31)},
		{"monthly february", date(2024, 2, 10), Monthly, date(2024, 2, 29)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextPaymentDate(tt.today, tt.freq))
		})
	}
}

func TestPaymentDatesBetween(t *testing.T) {
	got := PaymentDatesBetween(date(2024, 4, 1), date(2025, 2, 1), Quarterly)
	assert.Equal(t, []time.Time{
		date(2024, 4, 30),
		date(2024, 7, 31),
		date(2024, 10, 31),
		date(2025, 1, 31),
	}, got)

	got = PaymentDatesBetween(date(2024, 5, 1), date(2024, 8, 1), Monthly)
	assert.Equal(t, []time.Time{date(2024, 5, 31), date(2024, 6, 30), date(2024, 7, 31)}, got)
}

func TestSettledPeriod(t *testing.T) {
	p := SettledPeriod(date(2024, 4, 30), Quarterly)
	assert.Equal(t, "2024-Q1", p.Key())

	p = SettledPeriod(date(2025, 1, 31), Quarterly)
	assert.Equal(t, "2024-Q4", p.Key())

	p = SettledPeriod(date(2024, 6, 30), Monthly)
	assert.Equal(t, date(2024, 5, 1), p.Start)
	assert.Equal(t, date(2024, 5, 31), p.End)
}

func TestParseFrequency(t *testing.T) {
	f, err := ParseFrequency("Monthly")
	assert.NoError(t, err)
	assert.Equal(t, Monthly, f)

	f, err = ParseFrequency("")
	assert.NoError(t, err)
	assert.Equal(t, Quarterly, f)

	_, err = ParseFrequency("yearly")
	assert.Error(t, err)
}

package forecast

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"taxdesk/internal/period"
	"taxdesk/internal/recurring"
	"taxdesk/pkg/models"
)

// Confidence levels assigned to a day by what drives its flows.
const (
	confidenceHistorical = 0.85
	confidenceRecurring  = 0.70
	confidenceBaseline   = 0.50
	confidenceScheduled  = 0.95
	confidenceVATDue     = 1.0
	confidenceFutureVAT  = 0.7

	minConfidence = 0.1
	maxConfidence = 1.0
)

// Insight thresholds.
const (
	criticalRunwayDays = 30
	overdueRatioAlert  = 0.3
	maxInsights        = 3
	maxMilestones      = 5
)

// Config holds the projection heuristics.
type Config struct {
	DefaultDays int
	MaxDays     int

	// BaselineDailyExpense is used when there is neither enough expense
	// history nor any recurring template.
	BaselineDailyExpense float64

	ProbabilitySent    float64
	ProbabilityOverdue float64

	// CollectionRate discounts the weekly share of unbilled time.
	CollectionRate      float64
	UnbilledSpreadWeeks int

	HistoricalWindowDays int
	MinHistoricalRecords int

	// OverdueCollectionDays is how long after today an overdue invoice is
	// expected to be paid.
	OverdueCollectionDays int

	// FutureVATFactor scales the current net VAT for later payment dates.
	FutureVATFactor float64
	FilingFrequency period.Frequency

	OptimisticMultiplier  float64
	RealisticMultiplier   float64
	PessimisticMultiplier float64
}

// DefaultConfig returns the standard heuristics.
func DefaultConfig() Config {
	return Config{
		DefaultDays:           90,
		MaxDays:               365,
		BaselineDailyExpense:  50,
		ProbabilitySent:       0.85,
		ProbabilityOverdue:    0.6,
		CollectionRate:        0.8,
		UnbilledSpreadWeeks:   12,
		HistoricalWindowDays:  90,
		MinHistoricalRecords:  10,
		OverdueCollectionDays: 14,
		FutureVATFactor:       0.9,
		FilingFrequency:       period.Quarterly,
		OptimisticMultiplier:  1.2,
		RealisticMultiplier:   1.0,
		PessimisticMultiplier: 0.7,
	}
}

// Input is the data a projection is computed from.
type Input struct {
	Today time.Time
	Days  int

	StartingBalance decimal.Decimal

	// Invoices that may still be paid, whatever their due date.
	Invoices []models.Invoice

	// HistoricalExpenses covers at least the trailing history window.
	HistoricalExpenses []models.Expense

	Recurring    []models.RecurringExpense
	UnbilledTime []models.TimeEntry

	// NetVATOwed is the net VAT of the period settled on the next payment date.
	NetVATOwed decimal.Decimal

	FailedSources []string
}

type dayFlows struct {
	invoiceIn    float64
	invoiceConf  float64
	hasInvoice   bool
	recurring    float64
	hasRecurring bool
	futureVAT    bool
}

// Project walks forward one day at a time from today and returns the
// running balance with a confidence per day. It reads nothing but its input.
func Project(in Input, cfg Config) (*Forecast, error) {
	const op = "Project"

	w, err := period.ForecastWindow(in.Today, in.Days)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	today := w.Start
	n := w.Days
	days := make([]dayFlows, n)

	f := &Forecast{
		StartDate: today,
		Days:      n,
		Forecasts: make([]Point, n),
	}

	// Daily expense estimate.
	histFrom := today.AddDate(0, 0, -cfg.HistoricalWindowDays)
	var histTotal float64
	histCount := 0
	for i := range in.HistoricalExpenses {
		e := &in.HistoricalExpenses[i]
		d := period.Normalize(e.Date)
		if d.Before(histFrom) || !d.Before(today) {
			continue
		}
		histTotal += e.Gross().InexactFloat64()
		histCount++
	}
	hasRecurring := recurring.HasActive(in.Recurring, today)

	basis, daily, base := BasisBaseline, cfg.BaselineDailyExpense, confidenceBaseline
	switch {
	case histCount >= cfg.MinHistoricalRecords && cfg.HistoricalWindowDays > 0:
		basis, daily, base = BasisHistorical, histTotal/float64(cfg.HistoricalWindowDays), confidenceHistorical
	case hasRecurring:
		// occurrences are added explicitly below
		basis, daily, base = BasisRecurring, 0, confidenceRecurring
	}

	var milestones []Milestone

	// Expected invoice payments.
	var overdueAmount, outstandingAmount float64
	for i := range in.Invoices {
		inv := &in.Invoices[i]
		amount := inv.Outstanding().InexactFloat64()
		if amount <= 0 {
			continue
		}
		outstandingAmount += amount

		due := period.Normalize(inv.DueDate)
		date, prob := due, cfg.ProbabilitySent
		if inv.Status == models.InvoiceOverdue || due.Before(today) {
			overdueAmount += amount
			prob = cfg.ProbabilityOverdue
			if due.Before(today) {
				date = today.AddDate(0, 0, cfg.OverdueCollectionDays)
			}
		}

		idx := w.Index(date)
		if idx < 0 {
			continue
		}
		d := &days[idx]
		d.invoiceIn += amount * prob
		if !d.hasInvoice || prob < d.invoiceConf {
			d.invoiceConf = prob
		}
		d.hasInvoice = true

		milestones = append(milestones, Milestone{
			Date:        date,
			Type:        MilestoneInvoicePayment,
			Description: "Expected payment of invoice " + invoiceRef(inv),
			Amount:      round2(amount * prob),
		})
	}

	// Weekly share of unbilled time.
	var unbilled float64
	for i := range in.UnbilledTime {
		te := &in.UnbilledTime[i]
		if te.Billable && !te.Invoiced {
			unbilled += te.Value().InexactFloat64()
		}
	}
	var weeklyUnbilled float64
	if cfg.UnbilledSpreadWeeks > 0 {
		weeklyUnbilled = unbilled / float64(cfg.UnbilledSpreadWeeks) * cfg.CollectionRate
	}

	// Recurring occurrences.
	var recurringTotal float64
	byCategory := make(map[string]float64)
	for _, occ := range recurring.Expand(in.Recurring, w.Start, w.End) {
		idx := w.Index(occ.Date)
		if idx < 0 {
			continue
		}
		gross := occ.Gross.InexactFloat64()
		days[idx].recurring += gross
		days[idx].hasRecurring = true
		recurringTotal += gross
		byCategory[categoryName(occ.Category)] += gross

		milestones = append(milestones, Milestone{
			Date:        occ.Date,
			Type:        MilestoneRecurring,
			Description: occ.Description,
			Amount:      round2(gross),
		})
	}

	// VAT payments.
	netOwed := in.NetVATOwed.InexactFloat64()
	nextVAT := period.NextPaymentDate(today, cfg.FilingFrequency)
	nextIdx := w.Index(nextVAT)
	future := period.PaymentDatesBetween(nextVAT.AddDate(0, 0, 1), w.End, cfg.FilingFrequency)
	futureDates := make([]string, 0, len(future))
	for _, d := range future {
		futureDates = append(futureDates, d.Format(period.DateLayout))
		if idx := w.Index(d); idx >= 0 {
			days[idx].futureVAT = true
		}
	}

	// The fold.
	inflows := make([]float64, n)
	outflows := make([]float64, n)
	balance := in.StartingBalance.InexactFloat64()
	seed := balance
	var vatNext, vatFuture, totalIn, totalOut float64

	for i := 0; i < n; i++ {
		d := &days[i]
		conf := base
		inflow, outflow := 0.0, daily

		if d.hasInvoice {
			inflow += d.invoiceIn
			conf = d.invoiceConf
		}
		if i > 0 && i%7 == 0 {
			inflow += weeklyUnbilled
		}
		if d.hasRecurring {
			outflow += d.recurring
			if d.hasInvoice {
				conf = math.Min(conf, confidenceScheduled)
			} else {
				conf = confidenceScheduled
			}
		}
		if i == nextIdx && netOwed > 0 {
			outflow += netOwed
			vatNext += netOwed
			conf = confidenceVATDue
			milestones = append(milestones, Milestone{
				Date:        w.Day(i),
				Type:        MilestoneVATPayment,
				Description: "VAT payment for " + period.SettledPeriod(w.Day(i), cfg.FilingFrequency).Label(),
				Amount:      round2(netOwed),
			})
		}
		if d.futureVAT && i > 30 && netOwed > 0 {
			estimate := cfg.FutureVATFactor * netOwed
			outflow += estimate
			vatFuture += estimate
			conf = math.Min(conf, confidenceFutureVAT)
			milestones = append(milestones, Milestone{
				Date:        w.Day(i),
				Type:        MilestoneVATPayment,
				Description: "Estimated VAT payment for " + period.SettledPeriod(w.Day(i), cfg.FilingFrequency).Label(),
				Amount:      round2(estimate),
			})
		}

		conf = clamp(conf, minConfidence, maxConfidence)
		balance += inflow - outflow
		inflows[i], outflows[i] = inflow, outflow
		totalIn += inflow
		totalOut += outflow

		f.Forecasts[i] = Point{
			Date:           w.Day(i),
			Day:            i,
			Inflow:         round2(inflow),
			Outflow:        round2(outflow),
			NetFlow:        round2(inflow - outflow),
			RunningBalance: round2(balance),
			Confidence:     round2(conf),
		}
	}

	f.Scenarios = Scenarios{
		Optimistic:  scenario("optimistic", cfg.OptimisticMultiplier, seed, inflows, outflows),
		Realistic:   scenario("realistic", cfg.RealisticMultiplier, seed, inflows, outflows),
		Pessimistic: scenario("pessimistic", cfg.PessimisticMultiplier, seed, inflows, outflows),
	}

	if r := f.Scenarios.Realistic; r.RunwayDays < n {
		milestones = append(milestones, Milestone{
			Date:        w.Day(r.RunwayDays),
			Type:        MilestoneNegativeCash,
			Description: "Balance drops to zero or below",
			Amount:      f.Forecasts[r.RunwayDays].RunningBalance,
		})
	}

	f.ExpenseBreakdown = ExpenseBreakdown{
		Basis:               basis,
		DailyAverage:        round2(daily),
		AverageTotal:        round2(daily * float64(n)),
		Recurring:           round2(recurringTotal),
		RecurringByCategory: sortedCategories(byCategory),
		VATPayments:         round2(vatNext + vatFuture),
		Total:               round2(totalOut),
	}

	f.TaxBreakdown = TaxBreakdown{
		SettledPeriod:           period.SettledPeriod(nextVAT, cfg.FilingFrequency).Key(),
		NextPaymentDate:         nextVAT,
		NextPaymentInHorizon:    nextIdx >= 0,
		NetVATOwed:              round2(netOwed),
		FuturePaymentDates:      futureDates,
		EstimatedFuturePayments: round2(vatFuture),
		Total:                   round2(vatNext + vatFuture),
	}

	failed := append([]string{}, in.FailedSources...)
	sort.Strings(failed)
	f.DataQuality = DataQuality{
		ExpenseBasis:      basis,
		HistoricalRecords: histCount,
		HasRecurring:      hasRecurring,
		HasUnbilledTime:   unbilled > 0,
		BaseConfidence:    base,
		FailedSources:     failed,
		Complete:          len(failed) == 0,
	}

	f.Totals = Totals{
		StartingBalance:   round2(seed),
		TotalInflow:       round2(totalIn),
		TotalOutflow:      round2(totalOut),
		NetChange:         round2(totalIn - totalOut),
		EndingBalance:     round2(balance),
		OverdueAmount:     round2(overdueAmount),
		OutstandingAmount: round2(outstandingAmount),
	}

	f.NextMilestones = firstMilestones(milestones)
	f.Insights = insights(f, cfg, nextIdx >= 0 && netOwed > 0)

	return f, nil
}

// scenario replays the series with inflows scaled by multiplier. Runway is
// the first day the balance is at or below zero, or the horizon if never.
func scenario(name string, multiplier, seed float64, inflows, outflows []float64) Scenario {
	n := len(inflows)
	balance := seed
	minBalance := math.Inf(1)
	runway := n
	for i := 0; i < n; i++ {
		balance += multiplier*inflows[i] - outflows[i]
		if balance < minBalance {
			minBalance = balance
		}
		if runway == n && balance <= 0 {
			runway = i
		}
	}
	if n == 0 {
		minBalance = seed
	}
	return Scenario{
		Name:          name,
		Multiplier:    multiplier,
		RunwayDays:    runway,
		MinBalance:    round2(minBalance),
		EndingBalance: round2(balance),
	}
}

func insights(f *Forecast, cfg Config, vatDue bool) []Insight {
	var out []Insight
	realistic := f.Scenarios.Realistic

	switch {
	case realistic.RunwayDays < f.Days:
		sev := SeverityWarning
		if realistic.RunwayDays < criticalRunwayDays {
			sev = SeverityCritical
		}
		out = append(out, Insight{
			Severity: sev,
			Message: fmt.Sprintf("Cash balance is projected to reach zero in %d days (%s)",
				realistic.RunwayDays, f.StartDate.AddDate(0, 0, realistic.RunwayDays).Format(period.DateLayout)),
		})
	case f.Scenarios.Pessimistic.RunwayDays < f.Days:
		out = append(out, Insight{
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("If fewer invoices are paid, cash runs out in %d days", f.Scenarios.Pessimistic.RunwayDays),
		})
	}

	if t := f.Totals; t.OutstandingAmount > 0 && t.OverdueAmount/t.OutstandingAmount > overdueRatioAlert {
		out = append(out, Insight{
			Severity: SeverityWarning,
			Message: fmt.Sprintf("%.0f%% of outstanding invoices (EUR %.2f) are overdue, consider following up",
				100*t.OverdueAmount/t.OutstandingAmount, t.OverdueAmount),
		})
	}

	if vatDue {
		out = append(out, Insight{
			Severity: SeverityInfo,
			Message: fmt.Sprintf("VAT payment of EUR %.2f due on %s",
				f.TaxBreakdown.NetVATOwed, f.TaxBreakdown.NextPaymentDate.Format(period.DateLayout)),
		})
	}

	if f.DataQuality.ExpenseBasis == BasisBaseline {
		out = append(out, Insight{
			Severity: SeverityInfo,
			Message:  fmt.Sprintf("Not enough expense history, assuming EUR %.2f per day", cfg.BaselineDailyExpense),
		})
	}

	if realistic.RunwayDays == f.Days && realistic.MinBalance > 0 {
		out = append(out, Insight{
			Severity: SeverityInfo,
			Message:  fmt.Sprintf("Cash stays positive for the next %d days, lowest balance EUR %.2f", f.Days, realistic.MinBalance),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity.rank() < out[j].Severity.rank()
	})
	if len(out) > maxInsights {
		out = out[:maxInsights]
	}
	if out == nil {
		out = []Insight{}
	}
	return out
}

func firstMilestones(ms []Milestone) []Milestone {
	sort.SliceStable(ms, func(i, j int) bool {
		if !ms[i].Date.Equal(ms[j].Date) {
			return ms[i].Date.Before(ms[j].Date)
		}
		if ms[i].Amount != ms[j].Amount {
			return ms[i].Amount > ms[j].Amount
		}
		return ms[i].Description < ms[j].Description
	})
	if len(ms) > maxMilestones {
		ms = ms[:maxMilestones]
	}
	if ms == nil {
		ms = []Milestone{}
	}
	return ms
}

func sortedCategories(m map[string]float64) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(m))
	for name, amount := range m {
		out = append(out, CategoryAmount{Category: name, Amount: round2(amount)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func categoryName(c string) string {
	if c == "" {
		return "uncategorized"
	}
	return c
}

func invoiceRef(inv *models.Invoice) string {
	if inv.Number != "" {
		return inv.Number
	}
	return inv.ID
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

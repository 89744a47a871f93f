package forecast

import (
	"time"
)

// Point is the projection for one day.
type Point struct {
	Date           time.Time `json:"date"`
	Day            int       `json:"day"`
	Inflow         float64   `json:"inflow"`
	Outflow        float64   `json:"outflow"`
	NetFlow        float64   `json:"net_flow"`
	RunningBalance float64   `json:"running_balance"`
	Confidence     float64   `json:"confidence"`
}

// Scenario summarises the series under an inflow multiplier.
type Scenario struct {
	Name          string  `json:"name"`
	Multiplier    float64 `json:"multiplier"`
	RunwayDays    int     `json:"runway_days"`
	MinBalance    float64 `json:"min_balance"`
	EndingBalance float64 `json:"ending_balance"`
}

// Scenarios are the three standard outlooks.
type Scenarios struct {
	Optimistic  Scenario `json:"optimistic"`
	Realistic   Scenario `json:"realistic"`
	Pessimistic Scenario `json:"pessimistic"`
}

// Severity ranks insights.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	default:
		return 2
	}
}

// Insight is a short message derived from the forecast.
type Insight struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// MilestoneType names what happens on a milestone date.
type MilestoneType string

const (
	MilestoneVATPayment     MilestoneType = "vat_payment"
	MilestoneInvoicePayment MilestoneType = "invoice_payment"
	MilestoneRecurring      MilestoneType = "recurring_expense"
	MilestoneNegativeCash   MilestoneType = "negative_balance"
)

// Milestone is a dated event within the horizon.
type Milestone struct {
	Date        time.Time     `json:"date"`
	Type        MilestoneType `json:"type"`
	Description string        `json:"description"`
	Amount      float64       `json:"amount"`
}

// ExpenseBasis is how the daily expense estimate was derived.
type ExpenseBasis string

const (
	BasisHistorical ExpenseBasis = "historical"
	BasisRecurring  ExpenseBasis = "recurring"
	BasisBaseline   ExpenseBasis = "baseline"
)

// CategoryAmount is an outflow total for one expense category.
type CategoryAmount struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// ExpenseBreakdown splits projected outflows by source.
type ExpenseBreakdown struct {
	Basis               ExpenseBasis     `json:"basis"`
	DailyAverage        float64          `json:"daily_average"`
	AverageTotal        float64          `json:"average_total"`
	Recurring           float64          `json:"recurring"`
	RecurringByCategory []CategoryAmount `json:"recurring_by_category"`
	VATPayments         float64          `json:"vat_payments"`
	Total               float64          `json:"total"`
}

// TaxBreakdown describes the scheduled VAT payments.
type TaxBreakdown struct {
	SettledPeriod           string    `json:"settled_period"`
	NextPaymentDate         time.Time `json:"next_payment_date"`
	NextPaymentInHorizon    bool      `json:"next_payment_in_horizon"`
	NetVATOwed              float64   `json:"net_vat_owed"`
	FuturePaymentDates      []string  `json:"future_payment_dates"`
	EstimatedFuturePayments float64   `json:"estimated_future_payments"`
	Total                   float64   `json:"total"`
}

// DataQuality reports how much the forecast could rely on.
type DataQuality struct {
	ExpenseBasis      ExpenseBasis `json:"expense_basis"`
	HistoricalRecords int          `json:"historical_records"`
	HasRecurring      bool         `json:"has_recurring"`
	HasUnbilledTime   bool         `json:"has_unbilled_time"`
	BaseConfidence    float64      `json:"base_confidence"`
	FailedSources     []string     `json:"failed_sources"`
	Complete          bool         `json:"complete"`
}

// Totals summarise the whole horizon.
type Totals struct {
	StartingBalance   float64 `json:"starting_balance"`
	TotalInflow       float64 `json:"total_inflow"`
	TotalOutflow      float64 `json:"total_outflow"`
	NetChange         float64 `json:"net_change"`
	EndingBalance     float64 `json:"ending_balance"`
	OverdueAmount     float64 `json:"overdue_amount"`
	OutstandingAmount float64 `json:"outstanding_amount"`
}

// Forecast is the cash-flow projection returned to callers.
type Forecast struct {
	TenantID         string           `json:"tenant_id,omitempty"`
	StartDate        time.Time        `json:"start_date"`
	Days             int              `json:"days"`
	Forecasts        []Point          `json:"forecasts"`
	Scenarios        Scenarios        `json:"scenarios"`
	Insights         []Insight        `json:"insights"`
	NextMilestones   []Milestone      `json:"nextMilestones"`
	ExpenseBreakdown ExpenseBreakdown `json:"expenseBreakdown"`
	TaxBreakdown     TaxBreakdown     `json:"taxBreakdown"`
	DataQuality      DataQuality      `json:"dataQuality"`
	Totals           Totals           `json:"totals"`
	GeneratedAt      time.Time        `json:"generated_at,omitzero"`
}

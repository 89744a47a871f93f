package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"taxdesk/internal/forecast"
	"taxdesk/internal/logger"
	"taxdesk/internal/period"
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Project a tenant's cash position day by day",
	Long: `Project the cash balance for the coming days from outstanding invoices,
historical and recurring expenses, unbilled time and scheduled VAT payments.

The forecast includes optimistic, realistic and pessimistic scenarios, the
next milestones and insights such as a short runway or a high share of
overdue invoices. A data source that cannot be read is left out and listed
under data quality instead of failing the forecast.`,
	Example: `  # 90-day forecast from today
  taxdesk forecast --tenant acme

  # 30 days from a fixed date, as JSON
  taxdesk forecast --tenant acme --days 30 --today 2024-03-01 --json

  # Write the daily points to the "Liquiditeit" sheet
  taxdesk forecast --tenant acme --sheet Liquiditeit`,
	Args: cobra.NoArgs,
	RunE: runForecast,
}

func init() {
	rootCmd.AddCommand(forecastCmd)

	forecastCmd.Flags().String("tenant", "", "Tenant ID [REQUIRED]")
	forecastCmd.Flags().Int("days", 0, "Horizon in days (default from rules)")
	forecastCmd.Flags().String("today", "", "Start date YYYY-MM-DD (default: today)")
	forecastCmd.Flags().Bool("json", false, "Output as JSON format")
	forecastCmd.Flags().String("sheet", "", "Also write the forecast to this Google Sheets tab")

	forecastCmd.MarkFlagRequired("tenant")
}

func runForecast(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("forecast")

	tenantID, _ := cmd.Flags().GetString("tenant")
	days, _ := cmd.Flags().GetInt("days")
	todayFlag, _ := cmd.Flags().GetString("today")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	sheetName, _ := cmd.Flags().GetString("sheet")

	if days < 0 {
		return fmt.Errorf("--days must be positive, got %d", days)
	}

	var today time.Time
	if todayFlag != "" {
		var err error
		today, err = period.ParseDate(todayFlag)
		if err != nil {
			return fmt.Errorf("invalid --today: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	svc, err := openServices(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	f, err := svc.forecast.Forecast(ctx, tenantID, days, today)
	if err != nil {
		return fmt.Errorf("forecast failed: %w", err)
	}

	if sheetName != "" {
		exporter, err := newExporter(ctx, cfg)
		if err != nil {
			return err
		}
		if err := exporter.ExportForecast(ctx, f, sheetName); err != nil {
			return fmt.Errorf("failed to export forecast: %w", err)
		}
		log.Info().Str("sheet", sheetName).Int("rows", len(f.Forecasts)).Msg("Forecast exported to Google Sheets")
	}

	if jsonOutput {
		return printJSON(f)
	}
	outputForecastConsole(f)
	return nil
}

func outputForecastConsole(f *forecast.Forecast) {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("           LIQUIDITEITSPROGNOSE %s, %d dagen\n", f.StartDate.Format(period.DateLayout), f.Days)
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	t := f.Totals
	fmt.Printf("Beginsaldo:   %12.2f EUR\n", t.StartingBalance)
	fmt.Printf("Ontvangsten:  %12.2f EUR\n", t.TotalInflow)
	fmt.Printf("Uitgaven:     %12.2f EUR\n", t.TotalOutflow)
	fmt.Printf("Eindsaldo:    %12.2f EUR\n", t.EndingBalance)
	fmt.Println()

	fmt.Println("=== SCENARIO'S ===")
	for _, s := range []forecast.Scenario{f.Scenarios.Optimistic, f.Scenarios.Realistic, f.Scenarios.Pessimistic} {
		runway := "volledige periode"
		if s.RunwayDays < f.Days {
			runway = fmt.Sprintf("%d dagen", s.RunwayDays)
		}
		fmt.Printf("  %-12s eind %12.2f  min %12.2f  runway %s\n", s.Name, s.EndingBalance, s.MinBalance, runway)
	}
	fmt.Println()

	if len(f.NextMilestones) > 0 {
		fmt.Println("=== MIJLPALEN ===")
		for _, m := range f.NextMilestones {
			fmt.Printf("  %s  %-40s %12.2f EUR\n", m.Date.Format(period.DateLayout), m.Description, m.Amount)
		}
		fmt.Println()
	}

	tax := f.TaxBreakdown
	fmt.Println("=== BTW ===")
	fmt.Printf("Periode %s, te betalen %.2f EUR op %s\n",
		tax.SettledPeriod, tax.NetVATOwed, tax.NextPaymentDate.Format(period.DateLayout))
	if len(tax.FuturePaymentDates) > 0 {
		fmt.Printf("Geschat later: %.2f EUR (%s)\n", tax.EstimatedFuturePayments, strings.Join(tax.FuturePaymentDates, ", "))
	}
	fmt.Println()

	for _, in := range f.Insights {
		fmt.Printf("[%s] %s\n", strings.ToUpper(string(in.Severity)), in.Message)
	}
	if !f.DataQuality.Complete {
		fmt.Printf("Onvolledig, niet gelezen: %s\n", strings.Join(f.DataQuality.FailedSources, ", "))
	}
	fmt.Println(strings.Repeat("=", 80))
}

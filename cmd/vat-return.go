package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"taxdesk/internal/logger"
	"taxdesk/internal/vatreturn"
)

var vatReturnCmd = &cobra.Command{
	Use:   "vat-return",
	Short: "Generate the quarterly VAT return (BTW-aangifte) for a tenant",
	Long: `Aggregate a tenant's invoices and expenses for one quarter into a VAT return.

Revenue and expenses are bucketed by VAT category (standard, reduced, zero,
exempt, EU reverse charge). The return lists the net VAT payable, EU
counterparties for the ICP declaration and compliance issues that block
submission. Complete returns are archived as write-once snapshots.`,
	Example: `  # Q1 2024 on the console
  taxdesk vat-return --tenant acme --year 2024 --quarter 1

  # Revenue side only, as JSON
  taxdesk vat-return --tenant acme --year 2024 --quarter 1 --no-expenses --json

  # Append the return to the "BTW" sheet
  taxdesk vat-return --tenant acme --year 2024 --quarter 1 --sheet BTW`,
	Args: cobra.NoArgs,
	RunE: runVATReturn,
}

func init() {
	rootCmd.AddCommand(vatReturnCmd)

	vatReturnCmd.Flags().String("tenant", "", "Tenant ID [REQUIRED]")
	vatReturnCmd.Flags().Int("year", time.Now().Year(), "Tax year")
	vatReturnCmd.Flags().Int("quarter", 0, "Quarter 1-4 [REQUIRED]")
	vatReturnCmd.Flags().Bool("no-revenue", false, "Leave revenue out of the return")
	vatReturnCmd.Flags().Bool("no-expenses", false, "Leave expenses out of the return")
	vatReturnCmd.Flags().Bool("json", false, "Output as JSON format")
	vatReturnCmd.Flags().String("sheet", "", "Also append the return to this Google Sheets tab")

	vatReturnCmd.MarkFlagRequired("tenant")
	vatReturnCmd.MarkFlagRequired("quarter")
}

func runVATReturn(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("vat-return")

	tenantID, _ := cmd.Flags().GetString("tenant")
	year, _ := cmd.Flags().GetInt("year")
	quarter, _ := cmd.Flags().GetInt("quarter")
	noRevenue, _ := cmd.Flags().GetBool("no-revenue")
	noExpenses, _ := cmd.Flags().GetBool("no-expenses")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	sheetName, _ := cmd.Flags().GetString("sheet")

	log.Info().
		Str("tenant_id", tenantID).
		Int("year", year).
		Int("quarter", quarter).
		Msg("Starting VAT return generation")

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	svc, err := openServices(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	opts := vatreturn.Options{IncludeRevenue: !noRevenue, IncludeExpenses: !noExpenses}
	ret, err := svc.vatReturn.Generate(ctx, tenantID, year, quarter, opts)
	if err != nil {
		return fmt.Errorf("VAT return generation failed: %w", err)
	}

	if sheetName != "" {
		exporter, err := newExporter(ctx, cfg)
		if err != nil {
			return err
		}
		if err := exporter.ExportVATReturn(ctx, ret, sheetName); err != nil {
			return fmt.Errorf("failed to export VAT return: %w", err)
		}
		log.Info().Str("sheet", sheetName).Msg("VAT return exported to Google Sheets")
	}

	if jsonOutput {
		return printJSON(ret)
	}
	outputVATReturnConsole(ret)
	return nil
}

func printJSON(v interface{}) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to create JSON output: %w", err)
	}
	fmt.Println(string(jsonData))
	return nil
}

func outputVATReturnConsole(ret *vatreturn.QuarterlyVATReturn) {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("                      BTW-AANGIFTE %s\n", ret.Period.Label)
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	fmt.Println("=== OMZET ===")
	printBuckets(ret.Revenue)
	fmt.Println()

	fmt.Println("=== KOSTEN ===")
	printBuckets(ret.Expenses.ByVATType)
	for _, c := range ret.Expenses.ByCategory {
		fmt.Printf("  %-24s netto %12s  btw %10s  zakelijk %12s\n",
			c.Category, c.NetAmount.StringFixed(2), c.VATAmount.StringFixed(2), c.BusinessAmount.StringFixed(2))
	}
	fmt.Println()

	s := ret.Summary
	fmt.Println("=== SAMENVATTING ===")
	fmt.Printf("Verschuldigde btw:      %12s EUR\n", s.OutputVAT.StringFixed(2))
	fmt.Printf("Voorbelasting:          %12s EUR\n", s.InputVAT.StringFixed(2))
	fmt.Printf("Te betalen:             %12s EUR\n", s.NetVATPayable.StringFixed(2))
	if !s.ReverseChargeVATNeutral.IsZero() {
		fmt.Printf("Verlegd (neutraal):     %12s EUR\n", s.ReverseChargeVATNeutral.StringFixed(2))
	}
	if !s.NonDeductibleVAT.IsZero() {
		fmt.Printf("Niet aftrekbaar:        %12s EUR\n", s.NonDeductibleVAT.StringFixed(2))
	}
	fmt.Println()

	if !ret.EUTransactions.Empty() {
		fmt.Println("=== ICP-OPGAAF ===")
		for _, eu := range ret.EUTransactions.RevenueServices {
			fmt.Printf("  %-16s %-3s %12s EUR  %s\n", eu.VATNumber, eu.Country, eu.Amount.StringFixed(2), eu.Name)
		}
		fmt.Println()
	}

	c := ret.ComplianceChecks
	fmt.Println("=== CONTROLE ===")
	for _, issue := range c.Issues {
		fmt.Printf("  FOUT:   %s\n", issue)
	}
	for _, warning := range c.Warnings {
		fmt.Printf("  LET OP: %s\n", warning)
	}
	if !ret.DataQuality.Complete {
		fmt.Printf("  Onvolledig, niet gelezen: %s\n", strings.Join(ret.DataQuality.FailedSources, ", "))
	}
	fmt.Printf("Klaar voor indiening: %s\n", yesNo(c.ReadyForSubmission))
	if ret.SnapshotID != "" {
		fmt.Printf("Archief: %s\n", ret.SnapshotID)
	}
	fmt.Println(strings.Repeat("=", 80))
}

func printBuckets(b vatreturn.VATBuckets) {
	rows := []struct {
		label  string
		bucket vatreturn.Bucket
	}{
		{"Hoog tarief", b.StandardRate},
		{"Laag tarief", b.ReducedRate},
		{"Nultarief", b.ZeroRate},
		{"Vrijgesteld", b.Exempt},
		{"Verlegd (EU)", b.ReverseChargeEU},
	}
	for _, r := range rows {
		if r.bucket.TransactionCount == 0 {
			continue
		}
		fmt.Printf("  %-16s %12s EUR  btw %10s EUR  (%d)\n",
			r.label, r.bucket.Amount.StringFixed(2), r.bucket.VAT.StringFixed(2), r.bucket.TransactionCount)
	}
}

func yesNo(b bool) string {
	if b {
		return "ja"
	}
	return "nee"
}

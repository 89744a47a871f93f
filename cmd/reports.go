package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List archived VAT return snapshots",
	Long: `List the write-once snapshots stored for a tenant, newest first.

Every complete VAT return is archived. Generating a return again with
unchanged data reuses the existing snapshot.`,
	Example: `  taxdesk reports --tenant acme
  taxdesk reports --tenant acme --show 3f0c...`,
	Args: cobra.NoArgs,
	RunE: runReports,
}

func init() {
	rootCmd.AddCommand(reportsCmd)

	reportsCmd.Flags().String("tenant", "", "Tenant ID [REQUIRED]")
	reportsCmd.Flags().String("show", "", "Print the archived payload of this snapshot ID")
	reportsCmd.Flags().Bool("json", false, "Output as JSON format")

	reportsCmd.MarkFlagRequired("tenant")
}

func runReports(cmd *cobra.Command, args []string) error {
	tenantID, _ := cmd.Flags().GetString("tenant")
	showID, _ := cmd.Flags().GetString("show")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	svc, err := openServices(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	if showID != "" {
		snap, err := svc.store.GetReport(cmd.Context(), tenantID, showID)
		if err != nil {
			return fmt.Errorf("failed to load snapshot %s: %w", showID, err)
		}
		fmt.Println(string(snap.Payload))
		return nil
	}

	snaps, err := svc.store.ListReports(cmd.Context(), tenantID)
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}

	if jsonOutput {
		return printJSON(snaps)
	}

	if len(snaps) == 0 {
		fmt.Printf("No snapshots for tenant %s\n", tenantID)
		return nil
	}
	fmt.Printf("%-36s  %-10s  %-12s  %-19s  %s\n", "ID", "PERIOD", "TYPE", "CREATED", "CHECKSUM")
	fmt.Println(strings.Repeat("-", 100))
	for _, s := range snaps {
		fmt.Printf("%-36s  %-10s  %-12s  %-19s  %s\n",
			s.ID, s.PeriodKey, s.ReportType, s.CreatedAt.Format("2006-01-02 15:04:05"), s.Checksum[:12])
	}
	return nil
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"taxdesk/internal/config"
	"taxdesk/internal/logger"
)

var version = "1.0.0"

// cfg is populated before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "taxdesk",
	Short: "Quarterly VAT returns and cash-flow forecasts for freelancers",
	Long: `taxdesk prepares Dutch quarterly VAT returns (BTW-aangifte) and projects
cash flow from invoices, expenses and recurring costs stored per tenant.

Data lives in a local SQLite database. Business rules such as VAT rates,
the representatie limit and forecast probabilities can be overridden with a
YAML rules file.

Environment variables:
  TAXDESK_DB_PATH        - SQLite database path (default: ./data/taxdesk.db)
  TAXDESK_RULES_FILE     - YAML rules file overriding the built-in defaults
  TAXDESK_HTTP_ADDR      - Listen address for 'serve' (default: :8080)
  TAXDESK_FETCH_TIMEOUT  - Timeout per database read (default: 10s)
  TAXDESK_FETCH_RETRIES  - Retries per database read (default: 2)
  GOOGLE_SHEET_URL       - Spreadsheet used by --sheet exports
  LOG_LEVEL, LOG_FORMAT  - Logging configuration`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "SQLite database path (overrides TAXDESK_DB_PATH)")
	rootCmd.PersistentFlags().String("rules", "", "YAML rules file (overrides TAXDESK_RULES_FILE)")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
		c.DBPath = dbPath
	}
	if rulesFile, _ := cmd.Flags().GetString("rules"); rulesFile != "" {
		rules, err := config.LoadRules(rulesFile)
		if err != nil {
			return err
		}
		if err := rules.Validate(); err != nil {
			return fmt.Errorf("invalid rules in %s: %w", rulesFile, err)
		}
		c.RulesFile = rulesFile
		c.Rules = rules
	}

	cfg = c
	return nil
}

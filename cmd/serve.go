package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"taxdesk/internal/api"
	"taxdesk/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve VAT returns and forecasts over HTTP",
	Long: `Start the HTTP API.

Routes:
  GET /healthz
  GET /api/v1/tenants/{tenantID}/vat-returns/{year}/{quarter}
  GET /api/v1/tenants/{tenantID}/cash-flow?days=90&today=2024-03-01
  GET /api/v1/tenants/{tenantID}/reports
  GET /api/v1/tenants/{tenantID}/reports/{reportID}

The server shuts down gracefully on SIGINT or SIGTERM.`,
	Example: `  taxdesk serve
  taxdesk serve --addr 127.0.0.1:9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (overrides TAXDESK_HTTP_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.HTTPAddr
	}

	svc, err := openServices(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("addr", addr).
		Str("db", cfg.DBPath).
		Msg("Starting HTTP server")

	handler := api.NewHandler(svc.vatReturn, svc.forecast, svc.store)
	return api.NewServer(addr, handler).Run(ctx)
}

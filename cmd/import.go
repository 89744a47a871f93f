package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"taxdesk/internal/logger"
	"taxdesk/internal/store"
	"taxdesk/pkg/models"
)

var importCmd = &cobra.Command{
	Use:   "import [json-file]",
	Short: "Load invoices, expenses and time entries for a tenant",
	Long: `Import a JSON document into the database for one tenant.

Records without an "id" get a generated one; records with an existing id are
updated in place. Dates use RFC 3339 ("2024-01-15T00:00:00Z").

Document layout:
  {
    "balance": "12500.00",
    "invoices": [ { "invoice_number": "2024-001", "status": "sent", ... } ],
    "expenses": [ { "category": "software", "vat_type": "standard", ... } ],
    "recurring_expenses": [ { "frequency": "monthly", "is_active": true, ... } ],
    "time_entries": [ { "hours": "6", "hourly_rate": "95", "billable": true, ... } ]
  }`,
	Example: `  taxdesk import --tenant acme ./export.json`,
	Args:    cobra.ExactArgs(1),
	RunE:    runImport,
}

// importDocument is the file layout read by the import command.
type importDocument struct {
	Balance           *decimal.Decimal          `json:"balance"`
	Invoices          []models.Invoice          `json:"invoices"`
	Expenses          []models.Expense          `json:"expenses"`
	RecurringExpenses []models.RecurringExpense `json:"recurring_expenses"`
	TimeEntries       []models.TimeEntry        `json:"time_entries"`
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("tenant", "", "Tenant ID [REQUIRED]")
	importCmd.MarkFlagRequired("tenant")
}

func runImport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("import")

	tenantID, _ := cmd.Flags().GetString("tenant")
	path := args[0]

	doc, err := readImportDocument(path)
	if err != nil {
		return err
	}

	svc, err := openServices(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	start := time.Now()
	if err := importRecords(ctx, svc.store, tenantID, doc); err != nil {
		return err
	}

	logImportSummary(log, tenantID, doc, time.Since(start))
	fmt.Printf("Imported %d invoices, %d expenses, %d recurring expenses and %d time entries for %s\n",
		len(doc.Invoices), len(doc.Expenses), len(doc.RecurringExpenses), len(doc.TimeEntries), tenantID)
	return nil
}

func readImportDocument(path string) (*importDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}
	var doc importDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse import file %s: %w", path, err)
	}
	return &doc, nil
}

// importRecords stamps every record with tenantID and saves the document in
// one transaction. Missing IDs are generated.
func importRecords(ctx context.Context, st *store.Store, tenantID string, doc *importDocument) error {
	return st.Transaction(ctx, func(tx *store.Tx) error {
		if doc.Balance != nil {
			if err := tx.SetBalance(ctx, tenantID, *doc.Balance); err != nil {
				return err
			}
		}
		for _, inv := range doc.Invoices {
			inv.TenantID = tenantID
			inv.ID = idOrNew(inv.ID)
			if err := tx.SaveInvoice(ctx, inv); err != nil {
				return err
			}
		}
		for _, e := range doc.Expenses {
			e.TenantID = tenantID
			e.ID = idOrNew(e.ID)
			if err := tx.SaveExpense(ctx, e); err != nil {
				return err
			}
		}
		for _, r := range doc.RecurringExpenses {
			if !r.Frequency.Valid() {
				return fmt.Errorf("recurring expense %q: unknown frequency %q", firstNonBlank(r.Description, r.ID), r.Frequency)
			}
			r.TenantID = tenantID
			r.ID = idOrNew(r.ID)
			if err := tx.SaveRecurringExpense(ctx, r); err != nil {
				return err
			}
		}
		for _, te := range doc.TimeEntries {
			te.TenantID = tenantID
			te.ID = idOrNew(te.ID)
			if err := tx.SaveTimeEntry(ctx, te); err != nil {
				return err
			}
		}
		return nil
	})
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func idOrNew(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func logImportSummary(log zerolog.Logger, tenantID string, doc *importDocument, d time.Duration) {
	log.Info().
		Str("tenant_id", tenantID).
		Int("invoices", len(doc.Invoices)).
		Int("expenses", len(doc.Expenses)).
		Int("recurring_expenses", len(doc.RecurringExpenses)).
		Int("time_entries", len(doc.TimeEntries)).
		Bool("balance", doc.Balance != nil).
		Dur("duration", d).
		Msg("Import completed")
}

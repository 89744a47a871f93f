// Package sheets appends VAT returns and cash-flow forecasts to a Google
// Sheet so they can be shared with an accountant.
//
// Credentials are read from GOOGLE_APPLICATION_CREDENTIALS (path to a service
// account JSON file) or GOOGLE_CREDENTIALS (inline JSON).
package sheets

import (
	"context"
	"fmt"
	"os"
	"regexp"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
	"taxdesk/internal/forecast"
	"taxdesk/internal/logger"
	"taxdesk/internal/vatreturn"
)

const sheetDateLayout = "02-01-2006"

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// VATReturnHeaders are the columns of the VAT return sheet, one row per return.
var VATReturnHeaders = []string{
	"Tenant", "Periode", "Omzet hoog", "BTW hoog", "Omzet laag", "BTW laag",
	"Omzet 0%", "Vrijgesteld", "Verlegd EU", "Voorbelasting", "Af te dragen",
	"Klaar voor aangifte", "Problemen", "Snapshot", "Gegenereerd",
}

// ForecastHeaders are the columns of the forecast sheet, one row per day.
var ForecastHeaders = []string{
	"Tenant", "Datum", "Dag", "Inkomend", "Uitgaand", "Netto", "Saldo", "Betrouwbaarheid", "Gegenereerd",
}

// Exporter writes reports to one spreadsheet.
type Exporter struct {
	sheetsService *sheets.Service
	spreadsheetID string
	log           zerolog.Logger
}

// NewExporter connects to the spreadsheet at sheetURL.
func NewExporter(ctx context.Context, sheetURL string) (*Exporter, error) {
	const op = "NewExporter"

	log := logger.WithComponent("sheets")

	spreadsheetID, err := extractSpreadsheetID(sheetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to extract spreadsheet ID: %w", op, err)
	}

	log.Debug().Str("spreadsheet_id", spreadsheetID).Msg("Extracted spreadsheet ID")

	var creds []byte
	if credsFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credsFile != "" {
		creds, err = os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read credentials file: %w", op, err)
		}
	} else if credsJSON := os.Getenv("GOOGLE_CREDENTIALS"); credsJSON != "" {
		creds = []byte(credsJSON)
	} else {
		return nil, fmt.Errorf("%s: neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is set", op)
	}

	config, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse credentials: %w", op, err)
	}

	sheetsService, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create sheets service: %w", op, err)
	}

	return &Exporter{
		sheetsService: sheetsService,
		spreadsheetID: spreadsheetID,
		log:           log,
	}, nil
}

func extractSpreadsheetID(url string) (string, error) {
	matches := spreadsheetIDPattern.FindStringSubmatch(url)
	if len(matches) < 2 {
		return "", fmt.Errorf("invalid Google Sheets URL format")
	}
	return matches[1], nil
}

// ExportVATReturn appends ret as a single row.
func (e *Exporter) ExportVATReturn(ctx context.Context, ret *vatreturn.QuarterlyVATReturn, sheetName string) error {
	const op = "ExportVATReturn"

	if err := e.appendRows(ctx, sheetName, VATReturnHeaders, [][]interface{}{vatReturnRow(ret)}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ExportForecast appends one row per forecast day.
func (e *Exporter) ExportForecast(ctx context.Context, f *forecast.Forecast, sheetName string) error {
	const op = "ExportForecast"

	if err := e.appendRows(ctx, sheetName, ForecastHeaders, forecastRows(f)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (e *Exporter) appendRows(ctx context.Context, sheetName string, headers []string, values [][]interface{}) error {
	e.log.Info().
		Str("sheet", sheetName).
		Int("rows", len(values)).
		Msg("Writing rows to Google Sheet")

	if err := e.ensureSheetWithHeaders(ctx, sheetName, headers); err != nil {
		return fmt.Errorf("failed to ensure sheet exists: %w", err)
	}

	_, err := e.sheetsService.Spreadsheets.Values.Append(
		e.spreadsheetID,
		fmt.Sprintf("%s!A:%s", sheetName, columnLetter(len(headers))),
		&sheets.ValueRange{Values: values},
	).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append values to sheet: %w", err)
	}

	e.log.Info().
		Int("rows_written", len(values)).
		Msg("Successfully wrote rows to Google Sheet")

	return nil
}

func vatReturnRow(ret *vatreturn.QuarterlyVATReturn) []interface{} {
	rev := ret.Revenue
	generated := ""
	if !ret.GeneratedAt.IsZero() {
		generated = ret.GeneratedAt.Format("02-01-2006 15:04:05")
	}
	return []interface{}{
		ret.TenantID,
		ret.Period.Label,
		rev.StandardRate.Amount.InexactFloat64(),
		rev.StandardRate.VAT.InexactFloat64(),
		rev.ReducedRate.Amount.InexactFloat64(),
		rev.ReducedRate.VAT.InexactFloat64(),
		rev.ZeroRate.Amount.InexactFloat64(),
		rev.Exempt.Amount.InexactFloat64(),
		rev.ReverseChargeEU.Amount.InexactFloat64(),
		ret.Summary.InputVAT.InexactFloat64(),
		ret.Summary.NetVATPayable.InexactFloat64(),
		yesNo(ret.ComplianceChecks.ReadyForSubmission),
		len(ret.ComplianceChecks.Issues),
		ret.SnapshotID,
		generated,
	}
}

func forecastRows(f *forecast.Forecast) [][]interface{} {
	generated := ""
	if !f.GeneratedAt.IsZero() {
		generated = f.GeneratedAt.Format("02-01-2006 15:04:05")
	}
	rows := make([][]interface{}, 0, len(f.Forecasts))
	for _, p := range f.Forecasts {
		rows = append(rows, []interface{}{
			f.TenantID,
			p.Date.Format(sheetDateLayout),
			p.Day,
			p.Inflow,
			p.Outflow,
			p.NetFlow,
			p.RunningBalance,
			p.Confidence,
			generated,
		})
	}
	return rows
}

func yesNo(b bool) string {
	if b {
		return "ja"
	}
	return "nee"
}

// columnLetter returns the A1 column name of the n-th column (1-based).
func columnLetter(n int) string {
	name := ""
	for n > 0 {
		n--
		name = string(rune('A'+n%26)) + name
		n /= 26
	}
	return name
}

func (e *Exporter) ensureSheetWithHeaders(ctx context.Context, sheetName string, headers []string) error {
	const op = "ensureSheetWithHeaders"

	spreadsheet, err := e.sheetsService.Spreadsheets.Get(e.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to get spreadsheet: %w", op, err)
	}

	var sheetExists bool
	var sheetID int64
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title == sheetName {
			sheetExists = true
			sheetID = sheet.Properties.SheetId
			break
		}
	}

	if !sheetExists {
		e.log.Info().Str("sheet", sheetName).Msg("Creating new sheet")

		batchUpdateReq := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{
				{AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: sheetName}}},
			},
		}
		resp, err := e.sheetsService.Spreadsheets.BatchUpdate(e.spreadsheetID, batchUpdateReq).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("%s: failed to create sheet: %w", op, err)
		}
		sheetID = resp.Replies[0].AddSheet.Properties.SheetId
	}

	headerRange := fmt.Sprintf("%s!A1:%s1", sheetName, columnLetter(len(headers)))
	resp, err := e.sheetsService.Spreadsheets.Values.Get(e.spreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to get headers: %w", op, err)
	}

	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		e.log.Info().Str("sheet", sheetName).Msg("Adding headers to sheet")

		row := make([]interface{}, len(headers))
		for i, h := range headers {
			row[i] = h
		}
		_, err = e.sheetsService.Spreadsheets.Values.Update(
			e.spreadsheetID,
			headerRange,
			&sheets.ValueRange{Values: [][]interface{}{row}},
		).ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("%s: failed to add headers: %w", op, err)
		}

		if err := e.formatHeaders(ctx, sheetID, int64(len(headers))); err != nil {
			e.log.Warn().Err(err).Msg("Failed to format headers, continuing anyway")
		}
	}

	return nil
}

// formatHeaders makes the header row bold and resizes the columns.
func (e *Exporter) formatHeaders(ctx context.Context, sheetID, columns int64) error {
	const op = "formatHeaders"

	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   columns,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat:      &sheets.TextFormat{Bold: true},
						BackgroundColor: &sheets.Color{Red: 0.9, Green: 0.9, Blue: 0.9},
					},
				},
				Fields: "userEnteredFormat(textFormat,backgroundColor)",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   columns,
				},
			},
		},
	}

	_, err := e.sheetsService.Spreadsheets.BatchUpdate(e.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to format headers: %w", op, err)
	}
	return nil
}

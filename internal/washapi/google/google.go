package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"washlog/internal/core"
	"washlog/internal/washapi"
)

// Ensure interface conformance
var _ washapi.Backend = (*Client)(nil)

// Client stores washes directly in a Google spreadsheet, one row per wash
// with columns Date, Time, Month, Note and a header in row 1.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	now           func() time.Time
}

// Config selects the spreadsheet and the service account used to reach it.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Washes"
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheetName,
		now:           time.Now,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		slog.InfoContext(ctx, "Using inline service account credentials")
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		slog.InfoContext(ctx, "Reading service account credentials", "path", cfg.CredentialsFile)
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Register appends a row for a wash done now and returns the number of data rows.
func (c *Client) Register(ctx context.Context, note string) (int, error) {
	now := c.now
	if now == nil {
		now = time.Now
	}
	t := now()
	return c.AppendRecord(ctx, core.WashRecord{
		Date:  t.Format("2006-01-02"),
		Time:  t.Format("15:04:05"),
		Month: core.MonthKey(t),
		Note:  note,
	})
}

// AppendRecord appends rec as a new row and returns the number of data rows.
func (c *Client) AppendRecord(ctx context.Context, rec core.WashRecord) (int, error) {
	if c.svc == nil {
		return 0, errors.New("sheets service not initialized")
	}
	row := []any{rec.Date, rec.Time, rec.Month, rec.Note}
	rng := fmt.Sprintf("%s!A:D", c.sheetName)

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{row}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return 0, &washapi.TransportError{Op: "register", Err: fmt.Errorf("append to %s: %w", rng, err)}
	}
	if resp.Updates != nil {
		if n, ok := rowFromRange(resp.Updates.UpdatedRange); ok {
			// Row 1 is the header.
			return n - 1, nil
		}
	}

	records, err := c.History(ctx)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// History reads every wash row from the sheet.
func (c *Client) History(ctx context.Context) ([]core.WashRecord, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:D", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, &washapi.TransportError{Op: "history", Err: fmt.Errorf("read %s: %w", rng, err)}
	}
	return parseRows(resp.Values), nil
}

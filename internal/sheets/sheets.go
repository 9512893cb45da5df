// Package sheets mirrors the delivery log into a Google Sheets
// spreadsheet so non-engineering operators can watch campaign results.
// The sheet is a read model only; tracking storage stays authoritative
// and a failed push is reported, not retried.
package sheets

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/breakoutai/automail/internal/dataset"
	"github.com/breakoutai/automail/internal/tracking"
)

var header = []string{
	"id", "recipient_email", "company_name", "subject", "sent_time",
	"status", "delivery_status", "opened", "clicked", "bounced",
	"spam_score", "error_message",
}

// valuesAPI is the slice of the Sheets values API the reconciler uses.
type valuesAPI interface {
	Get(ctx context.Context, readRange string) ([][]any, error)
	Clear(ctx context.Context, clearRange string) error
	Update(ctx context.Context, updateRange string, values [][]any) error
}

type googleValues struct {
	svc           *sheetsapi.Service
	spreadsheetID string
}

func (g *googleValues) Get(ctx context.Context, readRange string) ([][]any, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (g *googleValues) Clear(ctx context.Context, clearRange string) error {
	_, err := g.svc.Spreadsheets.Values.Clear(g.spreadsheetID, clearRange, &sheetsapi.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (g *googleValues) Update(ctx context.Context, updateRange string, values [][]any) error {
	_, err := g.svc.Spreadsheets.Values.
		Update(g.spreadsheetID, updateRange, &sheetsapi.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

// Reconciler reads campaign input rows from a sheet and pushes the
// delivery log back to another sheet in the same spreadsheet.
type Reconciler struct {
	values    valuesAPI
	sheetName string
	logger    *slog.Logger
}

// NewReconciler builds a reconciler backed by the Google Sheets API
// using a service account credentials file.
func NewReconciler(ctx context.Context, credentialsFile, spreadsheetID, sheetName string, logger *slog.Logger) (*Reconciler, error) {
	svc, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheetsapi.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Reconciler{
		values:    &googleValues{svc: svc, spreadsheetID: spreadsheetID},
		sheetName: sheetName,
		logger:    logger.With("component", "sheets"),
	}, nil
}

// Read fetches the campaign input rows. The first sheet row is the
// header; short rows are padded so every record has a value per column.
func (r *Reconciler) Read(ctx context.Context) (*dataset.Dataset, error) {
	raw, err := r.values.Get(ctx, r.sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", r.sheetName, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", r.sheetName)
	}

	records := make([][]string, 0, len(raw))
	width := len(raw[0])
	for _, row := range raw {
		rec := make([]string, width)
		for i := 0; i < width && i < len(row); i++ {
			rec[i] = fmt.Sprint(row[i])
		}
		records = append(records, rec)
	}

	ds, err := dataset.FromRecords(records)
	if err != nil {
		return nil, err
	}

	r.logger.Info("sheet loaded", "sheet", r.sheetName, "rows", len(ds.Rows))
	return ds, nil
}

// Push replaces the results sheet with the given records, header row
// first. Zero records still writes the header so the sheet never shows
// stale data.
func (r *Reconciler) Push(ctx context.Context, sheetName string, records []*tracking.Record) error {
	values := make([][]any, 0, len(records)+1)

	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	values = append(values, headerRow)

	for _, rec := range records {
		spamScore := ""
		if rec.SpamScore != nil {
			spamScore = fmt.Sprint(*rec.SpamScore)
		}
		values = append(values, []any{
			rec.ID,
			rec.Recipient,
			rec.Company,
			rec.Subject,
			rec.SentAt.Format("2006-01-02 15:04:05"),
			string(rec.Status),
			rec.DeliveryStatus,
			rec.Opened,
			rec.Clicked,
			rec.Bounced,
			spamScore,
			rec.ErrorMessage,
		})
	}

	if err := r.values.Clear(ctx, sheetName); err != nil {
		return fmt.Errorf("failed to clear sheet %s: %w", sheetName, err)
	}
	if err := r.values.Update(ctx, sheetName, values); err != nil {
		return fmt.Errorf("failed to update sheet %s: %w", sheetName, err)
	}

	r.logger.Info("delivery log pushed", "sheet", sheetName, "records", len(records))
	return nil
}

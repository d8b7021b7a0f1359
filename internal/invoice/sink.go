package invoice

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Sink is the ordered, append-only row store the pipeline writes to.
//
// Consistency note: duplicate suppression relies on ReadFingerprints seeing
// every fingerprint a previous AppendRow committed. Two documents processed
// concurrently can both snapshot the column before either appends, and both
// will pass the dedup check. That window is a known gap and is deliberately
// not closed here; submissions are expected to arrive one at a time.
type Sink interface {
	// ReadFingerprints returns every value currently stored in the
	// fingerprint column.
	ReadFingerprints(ctx context.Context) ([]string, error)

	// AppendRow appends one row of string fields. Failures are surfaced to
	// the caller per row and are not retried.
	AppendRow(ctx context.Context, fields []string) error
}

// SheetSink writes rows to a single Google Sheets tab using a service
// account. Construct it once at process start and pass it into the pipeline;
// it holds no mutable state beyond the API client.
type SheetSink struct {
	svc            *sheets.Service
	spreadsheetID  string
	sheetName      string
	fingerprintCol string
}

// NewSheetSink authenticates against the Sheets API with the given service
// account credentials file. fingerprintCol is the column letter holding row
// fingerprints, e.g. "G".
func NewSheetSink(ctx context.Context, credentialsFile, spreadsheetID, sheetName, fingerprintCol string) (*SheetSink, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sheets client: %w", err)
	}

	return &SheetSink{
		svc:            svc,
		spreadsheetID:  spreadsheetID,
		sheetName:      sheetName,
		fingerprintCol: fingerprintCol,
	}, nil
}

// ReadFingerprints fetches the fingerprint column below the header row.
func (s *SheetSink) ReadFingerprints(ctx context.Context) ([]string, error) {
	readRange := fmt.Sprintf("%s!%s2:%s", s.sheetName, s.fingerprintCol, s.fingerprintCol)
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("reading fingerprint column: %w", err)
	}

	fingerprints := make([]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if v, ok := row[0].(string); ok && v != "" {
			fingerprints = append(fingerprints, v)
		}
	}
	return fingerprints, nil
}

// AppendRow appends one row after the last non-empty row of the tab.
// RAW input keeps the field strings exactly as produced by the pipeline.
func (s *SheetSink) AppendRow(ctx context.Context, fields []string) error {
	values := make([]any, len(fields))
	for i, f := range fields {
		values[i] = f
	}

	_, err := s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, s.sheetName, &sheets.ValueRange{Values: [][]any{values}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("appending row: %w", err)
	}
	return nil
}

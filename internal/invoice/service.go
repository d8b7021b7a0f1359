package invoice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avolkov/tg2sheet/internal/parsing"
)

// CaptureMode selects the record shape written to the sink.
type CaptureMode int

const (
	// CaptureItems writes one row per extracted line item:
	// [date, description, quantity, unit, unitPrice, total, fingerprint].
	CaptureItems CaptureMode = iota

	// CaptureText writes one row per document: [senderName, fullText].
	CaptureText
)

// maxCellChars caps whole-text payloads at the Sheets per-cell limit.
const maxCellChars = 50000

var pdfMagic = []byte("%PDF-")

// Outcome summarizes one document's pipeline run. It stays meaningful when
// processing failed partway: Added counts rows committed before the failure.
type Outcome struct {
	Added      int `json:"added"`
	Duplicates int `json:"duplicates"`
}

// Service runs the parse-normalize-dedup-append pipeline. It holds no
// state between documents; the fingerprint set is re-read from the sink on
// every run.
type Service struct {
	extractor parsing.TextExtractor
	sink      Sink
	archive   Archive
	mode      CaptureMode
	markers   []string
}

// NewService creates a Service with the default summary markers.
// archive may be nil to disable document archiving.
func NewService(extractor parsing.TextExtractor, sink Sink, archive Archive, mode CaptureMode) *Service {
	return NewServiceWithMarkers(extractor, sink, archive, mode, parsing.DefaultSummaryMarkers)
}

// NewServiceWithMarkers creates a Service with custom summary-line markers.
func NewServiceWithMarkers(extractor parsing.TextExtractor, sink Sink, archive Archive, mode CaptureMode, markers []string) *Service {
	return &Service{
		extractor: extractor,
		sink:      sink,
		archive:   archive,
		mode:      mode,
		markers:   markers,
	}
}

// ProcessDocument runs the whole pipeline for one inbound PDF and reports
// how many rows were appended and how many duplicates were suppressed.
//
// The run is strictly sequential: parse, normalize, fingerprint, filter,
// then append row by row. A sink failure aborts the remaining rows without
// retrying; the returned Report still counts everything appended before the
// failure, so callers must read it even when err is non-nil. Already
// committed rows are never rolled back; resubmitting the document is safe
// because their fingerprints now suppress them.
func (s *Service) ProcessDocument(ctx context.Context, sender, filename string, data []byte) (Outcome, error) {
	var report Outcome

	if len(data) == 0 {
		return report, errors.New("empty document")
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		return report, errors.New("not a PDF document")
	}

	if s.archive != nil {
		name := fmt.Sprintf("%d_%s", time.Now().UnixNano(), filename)
		if _, err := s.archive.Save(name, data); err != nil {
			slog.Warn("Failed to archive document", "filename", filename, "error", err)
		}
	}

	pages, err := s.extractor.ExtractPages(data)
	if err != nil {
		return report, fmt.Errorf("extracting text: %w", err)
	}

	if s.mode == CaptureText {
		return s.appendFullText(ctx, sender, pages)
	}

	var rows []parsing.Row
	for line := range parsing.CandidateLines(pages, s.markers) {
		row, ok := parsing.ExtractRow(line.Text)
		if !ok {
			continue
		}
		rows = append(rows, parsing.NormalizeRow(row))
	}

	existing, err := s.sink.ReadFingerprints(ctx)
	if err != nil {
		return report, fmt.Errorf("reading fingerprints: %w", err)
	}
	seen := make(map[string]struct{}, len(existing))
	for _, fp := range existing {
		seen[fp] = struct{}{}
	}

	accepted, fingerprints, duplicates := FilterDuplicates(seen, rows)
	report.Duplicates = duplicates

	for i, row := range accepted {
		fields := []string{row.Date, row.Description, row.Quantity, row.Unit, row.UnitPrice, row.Total, fingerprints[i]}
		if err := s.sink.AppendRow(ctx, fields); err != nil {
			return report, fmt.Errorf("appending row: %w", err)
		}
		report.Added++
	}

	slog.Info("Document processed", "sender", sender, "filename", filename,
		"added", report.Added, "duplicates", report.Duplicates)
	return report, nil
}

// appendFullText writes the whole extracted text as a single
// [sender, text] row, capped at the cell size limit.
func (s *Service) appendFullText(ctx context.Context, sender string, pages []string) (Outcome, error) {
	var report Outcome

	text := strings.Join(pages, "\n")
	if runes := []rune(text); len(runes) > maxCellChars {
		text = string(runes[:maxCellChars])
	}

	if err := s.sink.AppendRow(ctx, []string{sender, text}); err != nil {
		return report, fmt.Errorf("appending document text: %w", err)
	}
	report.Added = 1
	return report, nil
}

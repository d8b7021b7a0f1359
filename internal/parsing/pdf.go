package parsing

import (
	"fmt"
	"log/slog"

	"github.com/gen2brain/go-fitz"
)

// TextExtractor turns a raw PDF payload into per-page text.
type TextExtractor interface {
	// ExtractPages returns one string per page, in document order.
	// Pages with no extractable text contribute an empty string.
	ExtractPages(data []byte) ([]string, error)
}

// FitzExtractor implements TextExtractor on top of MuPDF.
type FitzExtractor struct{}

// ExtractPages extracts the text layer of every page. A page that cannot
// be read is skipped rather than failing the whole document.
func (FitzExtractor) ExtractPages(data []byte) ([]string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	pages := make([]string, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			slog.Warn("No text extracted from page", "page", i+1, "error", err)
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

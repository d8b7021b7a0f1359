package parsing

import (
	"iter"
	"strings"
)

// DefaultSummaryMarkers are the substrings that mark a summary/total line.
// Lines containing any of them are never extracted, matching the invoice
// layouts this system was built against (Russian with occasional English).
var DefaultSummaryMarkers = []string{"итого", "total"}

// CandidateLine is a filtered text line eligible for field extraction,
// with its position in the source document.
type CandidateLine struct {
	Page int // 1-based
	Line int // 1-based within the page
	Text string
}

// CandidateLines yields the non-empty, non-summary lines of the given pages
// in document order. The sequence is finite and one-shot; re-parsing a
// document means tokenizing again from the page text.
//
// A line is dropped if it trims to nothing or if it contains one of the
// summary markers (case-insensitive substring match). Nothing else is
// filtered here; structural validation belongs to the field extractor.
func CandidateLines(pages []string, markers []string) iter.Seq[CandidateLine] {
	if len(markers) == 0 {
		markers = DefaultSummaryMarkers
	}
	lowered := make([]string, len(markers))
	for i, m := range markers {
		lowered[i] = strings.ToLower(m)
	}

	return func(yield func(CandidateLine) bool) {
		for pi, page := range pages {
			for li, line := range strings.Split(page, "\n") {
				text := strings.TrimSpace(line)
				if text == "" || isSummaryLine(text, lowered) {
					continue
				}
				if !yield(CandidateLine{Page: pi + 1, Line: li + 1, Text: text}) {
					return
				}
			}
		}
	}
}

func isSummaryLine(text string, loweredMarkers []string) bool {
	folded := strings.ToLower(text)
	for _, m := range loweredMarkers {
		if strings.Contains(folded, m) {
			return true
		}
	}
	return false
}

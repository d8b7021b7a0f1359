package parsing

import (
	"regexp"
	"strings"
)

// Row is one extracted invoice line item. Every field stays a string:
// numeric canonicalization happens in NormalizeRow, and malformed values
// flow through to the sink rather than failing the pipeline.
type Row struct {
	Seq         string // optional leading index from the source line
	Date        string // DD.MM.YYYY as written, empty when absent
	Description string
	Quantity    string
	Unit        string // short unit label, empty if unrecognized
	UnitPrice   string
	Total       string
}

var (
	// Parenthesized date anywhere in the line, e.g. "(17.12.2025)".
	dateRe = regexp.MustCompile(`\((\d{2}\.\d{2}\.\d{4})\)`)

	// Structured line: <index> <description> <quantity><unit> <price> <total>.
	// The description span may contain the parenthesized date; the unit is a
	// token that does not start with a digit (кг, шт, pcs, ...).
	structuredRe = regexp.MustCompile(`^(\d+)[.)]?\s+(.+?)\s+(\d+(?:[.,]\d+)?)\s*([^\d\s.,]\S*)?\s+(\d+(?:[.,]\d+)*)\s+(\d+(?:[.,]\d+)*)$`)

	numericTokenRe = regexp.MustCompile(`^\d+(?:[.,]\d+)*$`)
)

// ExtractRow parses one candidate line into a Row. It tries the structured
// pattern first and falls back to a plain whitespace split. Lines with fewer
// than three tokens produce no row; that is not an error, the line is simply
// not an item.
//
// Whichever strategy wins, price and total are the last two whitespace
// separated tokens of the line. Descriptions with trailing numbers will
// confuse this; the behavior is kept because the true invoice format never
// guarantees anything better. Tokens that do not look numeric become "0".
func ExtractRow(line string) (Row, bool) {
	line = strings.TrimSpace(line)
	if len(strings.Fields(line)) < 3 {
		return Row{}, false
	}

	var date string
	if m := dateRe.FindStringSubmatch(line); m != nil {
		date = m[1]
	}

	row, ok := extractStructured(line)
	if !ok {
		row = extractFallback(line)
	}

	row.Date = date
	row.Description = strings.Join(strings.Fields(dateRe.ReplaceAllString(row.Description, "")), " ")
	if !numericTokenRe.MatchString(row.UnitPrice) {
		row.UnitPrice = "0"
	}
	if !numericTokenRe.MatchString(row.Total) {
		row.Total = "0"
	}
	return row, true
}

func extractStructured(line string) (Row, bool) {
	m := structuredRe.FindStringSubmatch(line)
	if m == nil {
		return Row{}, false
	}
	return Row{
		Seq:         m[1],
		Description: m[2],
		Quantity:    m[3],
		Unit:        m[4],
		UnitPrice:   m[5],
		Total:       m[6],
	}, true
}

// extractFallback splits on whitespace: first token is the index, the last
// two are price and total, and when the tail before them reads as a
// <quantity> <unit> pair it is consumed too. Whatever remains in the middle
// is the description; a 3-token line has no middle, so it yields a row with
// an empty description.
func extractFallback(line string) Row {
	tokens := strings.Fields(line)
	n := len(tokens) // >= 3, checked by ExtractRow

	row := Row{
		Seq:       tokens[0],
		UnitPrice: tokens[n-2],
		Total:     tokens[n-1],
	}

	descEnd := n - 2
	if n >= 5 && numericTokenRe.MatchString(tokens[n-4]) && !numericTokenRe.MatchString(tokens[n-3]) {
		row.Quantity = tokens[n-4]
		row.Unit = tokens[n-3]
		descEnd = n - 4
	}
	if descEnd > 1 {
		row.Description = strings.Join(tokens[1:descEnd], " ")
	}
	return row
}

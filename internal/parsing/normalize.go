package parsing

import "strings"

// NormalizeRow canonicalizes a freshly extracted row: decimal commas become
// periods in the numeric fields, description and unit are trimmed, and the
// date is passed through exactly as written (no calendar validation).
//
// Normalization never fails. An invalid numeric string comes out as a
// malformed string, not an error; the sink receives whatever resulted.
func NormalizeRow(r Row) Row {
	r.Description = strings.TrimSpace(r.Description)
	r.Unit = strings.TrimSpace(r.Unit)
	r.Quantity = NormalizeNumber(r.Quantity)
	r.UnitPrice = NormalizeNumber(r.UnitPrice)
	r.Total = NormalizeNumber(r.Total)
	return r
}

// NormalizeNumber rewrites European decimal notation into the canonical
// form: "28,2" -> "28.2", "1.974,00" -> "1974.00". Strings without a comma
// are returned unchanged.
func NormalizeNumber(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, ",") {
		return s
	}
	// With a decimal comma present, periods can only be thousands separators.
	s = strings.ReplaceAll(s, ".", "")
	return strings.ReplaceAll(s, ",", ".")
}

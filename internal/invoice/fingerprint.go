package invoice

import (
	"crypto/md5"
	"encoding/hex"

	"github.com/avolkov/tg2sheet/internal/parsing"
)

// Fingerprint returns the dedup hash for a row: the hex MD5 digest of the
// concatenated date, description and total. Two rows with the same triple
// are the same logical entry no matter how quantity, unit or price were
// formatted in the source document.
func Fingerprint(r parsing.Row) string {
	sum := md5.Sum([]byte(r.Date + r.Description + r.Total))
	return hex.EncodeToString(sum[:])
}

// FilterDuplicates drops every row whose fingerprint is already in existing,
// and rows repeated within the batch itself. The existing set is not
// mutated; a working copy accumulates the batch's own fingerprints.
//
// Accepted rows keep their relative input order, and fingerprints is
// index-aligned with accepted. Detection is exact-match only.
func FilterDuplicates(existing map[string]struct{}, rows []parsing.Row) (accepted []parsing.Row, fingerprints []string, duplicates int) {
	seen := make(map[string]struct{}, len(existing)+len(rows))
	for fp := range existing {
		seen[fp] = struct{}{}
	}

	for _, r := range rows {
		fp := Fingerprint(r)
		if _, dup := seen[fp]; dup {
			duplicates++
			continue
		}
		seen[fp] = struct{}{}
		accepted = append(accepted, r)
		fingerprints = append(fingerprints, fp)
	}
	return accepted, fingerprints, duplicates
}

package invoice

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const rowsBucket = "rows"

// fingerprintField is the 0-based position of the fingerprint in an
// itemized row, the 7th column of the sheet.
const fingerprintField = 6

// BoltSink is a local Sink backed by BoltDB, for offline operation and
// tests. Rows are keyed by a monotonically increasing sequence so that
// iteration order is append order.
type BoltSink struct {
	db *bbolt.DB
}

type storedRow struct {
	Fields []string `json:"fields"`
}

// NewBoltSink opens (or creates) the sink database at path.
func NewBoltSink(path string) (*BoltSink, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(rowsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &BoltSink{db: db}, nil
}

// ReadFingerprints scans all rows and returns the fingerprint field of
// every row that carries one. Whole-text rows have no fingerprint and are
// skipped.
func (b *BoltSink) ReadFingerprints(ctx context.Context) ([]string, error) {
	fingerprints := make([]string, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(rowsBucket))
		return bucket.ForEach(func(k, v []byte) error {
			var row storedRow
			if err := json.Unmarshal(v, &row); err != nil {
				return fmt.Errorf("unmarshaling row: %w", err)
			}
			if len(row.Fields) > fingerprintField && row.Fields[fingerprintField] != "" {
				fingerprints = append(fingerprints, row.Fields[fingerprintField])
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return fingerprints, nil
}

// AppendRow stores one row under the next sequence number.
func (b *BoltSink) AppendRow(ctx context.Context, fields []string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(rowsBucket))
		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("allocating sequence: %w", err)
		}

		data, err := json.Marshal(storedRow{Fields: fields})
		if err != nil {
			return fmt.Errorf("marshaling row: %w", err)
		}

		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		return bucket.Put(key, data)
	})
}

// Rows returns all stored rows in append order.
func (b *BoltSink) Rows() ([][]string, error) {
	rows := make([][]string, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(rowsBucket))
		return bucket.ForEach(func(k, v []byte) error {
			var row storedRow
			if err := json.Unmarshal(v, &row); err != nil {
				return fmt.Errorf("unmarshaling row: %w", err)
			}
			rows = append(rows, row.Fields)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Close closes the underlying database.
func (b *BoltSink) Close() error {
	return b.db.Close()
}

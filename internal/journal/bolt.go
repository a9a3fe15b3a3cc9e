package journal

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"sort"
	"time"

	"github.com/boltdb/bolt"
	"github.com/google/uuid"

	"fjacquet/receipt-ledger/internal/logging"
	"fjacquet/receipt-ledger/internal/models"
)

var entriesBucket = []byte("entries")

// BoltRepository stores entries in a single-file Bolt database, gob-encoded
// and keyed by entry id.
type BoltRepository struct {
	db     *bolt.DB
	logger logging.Logger
}

// OpenBolt opens (creating if needed) the database at path.
func OpenBolt(path string, logger logging.Logger) (*BoltRepository, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	db, err := bolt.Open(path, models.PermissionConfigFile, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(entriesBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}
	logger.Debug("Journal opened", logging.F(logging.FieldFile, path))
	return &BoltRepository{db: db, logger: logger}, nil
}

// Save stores the entry. Bolt transactions are atomic, so either the entry
// with all postings is written or nothing is.
func (r *BoltRepository) Save(_ context.Context, e models.LedgerEntry) error {
	var val bytes.Buffer
	if err := gob.NewEncoder(&val).Encode(e); err != nil {
		return fmt.Errorf("unable to encode entry %s: %w", e.ID, err)
	}
	return r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(entriesBucket).Put(e.ID[:], val.Bytes())
	})
}

// Get returns one entry.
func (r *BoltRepository) Get(_ context.Context, id uuid.UUID) (*models.LedgerEntry, error) {
	var e *models.LedgerEntry
	err := r.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(entriesBucket).Get(id[:])
		if v == nil {
			return ErrNotFound
		}
		decoded, err := decodeEntry(v)
		if err != nil {
			return err
		}
		e = &decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListRows returns the posting rows of all entries ordered by date and
// creation time.
func (r *BoltRepository) ListRows(_ context.Context) ([]models.PostingRow, error) {
	var entries []models.LedgerEntry
	if err := r.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(entriesBucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			e, err := decodeEntry(v)
			if err != nil {
				return err
			}
			entries = append(entries, e)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})

	var rows []models.PostingRow
	for _, e := range entries {
		rows = append(rows, e.Rows()...)
	}
	return rows, nil
}

// Close closes the database file.
func (r *BoltRepository) Close() error {
	return r.db.Close()
}

func decodeEntry(v []byte) (models.LedgerEntry, error) {
	var e models.LedgerEntry
	if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&e); err != nil {
		return e, fmt.Errorf("unable to decode entry of length %d: %w", len(v), err)
	}
	return e, nil
}

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"section-indexer/pkg/models"
	"section-indexer/pkg/utils"
)

const (
	docKeyPrefix    = "doc:"       // Prefix for document status keys in DB
	recordKeyPrefix = "rec:"       // Prefix for flattened record keys in DB
	recordsDBDir    = "records_db" // Subdirectory name within stateDir for Badger DB files
)

// BadgerStore implements the Store interface using BadgerDB
type BadgerStore struct {
	db          *badger.DB
	log         *logrus.Entry
	ctx         context.Context // Parent context
	recordCount atomic.Int64    // Cached record count for O(1) GetRecordCount
}

// NewBadgerStore initializes and returns a new BadgerStore.
// When fresh is true any existing database under stateDir is removed first.
func NewBadgerStore(ctx context.Context, stateDir string, fresh bool, logger *logrus.Entry) (*BadgerStore, error) {
	store := &BadgerStore{
		log: logger,
		ctx: ctx,
	}

	dbPath := filepath.Join(stateDir, recordsDBDir)

	if fresh {
		logger.Warnf("Fresh flag is set. REMOVING existing state directory: %s", dbPath)
		if err := os.RemoveAll(dbPath); err != nil {
			// Log error but attempt to continue; Badger might recover or create new files
			logger.Errorf("Failed to remove existing state directory %s: %v", dbPath, err)
		}
	}

	logger.Infof("Initializing record database at: %s (Fresh: %v)", dbPath, fresh)

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("cannot create state directory %s: %w", dbPath, err)
	}

	// Configure Badger options
	badgerLogger := newBadgerLogrusAdapter(logger.WithField("component", "badgerdb"))
	opts := badger.DefaultOptions(dbPath).
		WithLogger(badgerLogger). // Use custom logrus adapter
		WithNumVersionsToKeep(1)  // Only keep the latest record state

	// Open the database
	var err error
	store.db, err = badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", dbPath, err)
	}

	// Initialize record count from existing data
	count, err := store.countRecordKeys()
	if err != nil {
		logger.Warnf("Failed to count existing record keys: %v", err)
	} else {
		store.recordCount.Store(int64(count))
	}

	logger.Info("Record database initialized successfully.")
	return store, nil
}

// countRecordKeys performs a one-time full key scan (used only during initialization).
func (s *BadgerStore) countRecordKeys() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(recordKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

const maxConflictRetries = 10

// dbUpdate wraps db.Update with a retry loop for BadgerDB transaction conflicts.
// Concurrent MVCC transactions on overlapping keys can return badger.ErrConflict;
// these resolve in microseconds, so a tight retry loop is sufficient.
func (s *BadgerStore) dbUpdate(fn func(txn *badger.Txn) error) error {
	for i := range maxConflictRetries {
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		s.log.Debugf("BadgerDB transaction conflict (attempt %d/%d), retrying", i+1, maxConflictRetries)
	}
	return fmt.Errorf("%w: transaction conflict not resolved after %d retries", utils.ErrDatabase, maxConflictRetries)
}

// recordKey builds the key for one record. The sequence number preserves the
// flattener's pre-order when iterating the document prefix.
func recordKey(docID string, seq int, sectionID string) []byte {
	return []byte(fmt.Sprintf("%s%s:%05d:%s", recordKeyPrefix, docID, seq, sectionID))
}

// PutRecords implements the RecordStore interface
func (s *BadgerStore) PutRecords(docID string, records []models.FlattenedRecord) error {
	if s.db == nil {
		return errors.New("record DB not initialized")
	}
	docPrefix := []byte(recordKeyPrefix + docID + ":")

	// Marshal everything up front so a bad record cannot leave a partial batch
	encoded := make([][]byte, len(records))
	for i, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("%w: failed to marshal record '%s' of doc '%s': %w", utils.ErrParsing, rec.SectionID, docID, err)
		}
		encoded[i] = data
	}

	removed := 0
	err := s.dbUpdate(func(txn *badger.Txn) error {
		removed = 0
		// Drop any previous batch for this document
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = docPrefix
		it := txn.NewIterator(opts)
		var stale [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			stale = append(stale, it.Item().KeyCopy(nil))
		}
		it.Close()
		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return err
			}
			removed++
		}

		for i, rec := range records {
			if err := txn.Set(recordKey(docID, i, rec.SectionID), encoded[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.log.WithField("doc_id", docID).Errorf("DB Update error in PutRecords: %v", err)
		return fmt.Errorf("%w: storing %d records for doc '%s': %w", utils.ErrDatabase, len(records), docID, err)
	}

	s.recordCount.Add(int64(len(records) - removed))
	s.log.Debugf("Stored %d records for doc '%s' (replaced %d)", len(records), docID, removed)
	return nil
}

// GetRecord implements the RecordStore interface
func (s *BadgerStore) GetRecord(docID, sectionID string) (*models.FlattenedRecord, error) {
	var found *models.FlattenedRecord
	docPrefix := []byte(recordKeyPrefix + docID + ":")
	suffix := ":" + sectionID

	errView := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = docPrefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			if !strings.HasSuffix(string(item.Key()), suffix) {
				continue
			}
			return item.Value(func(val []byte) error {
				var rec models.FlattenedRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return fmt.Errorf("%w: failed to unmarshal record '%s': %w", utils.ErrParsing, sectionID, err)
				}
				found = &rec
				return nil
			})
		}
		return nil
	})
	if errView != nil {
		s.log.Errorf("DB View error in GetRecord for doc '%s' section '%s': %v", docID, sectionID, errView)
		return nil, errView
	}
	return found, nil
}

// ListRecords implements the RecordStore interface
func (s *BadgerStore) ListRecords(docID string) ([]models.FlattenedRecord, error) {
	var records []models.FlattenedRecord
	docPrefix := []byte(recordKeyPrefix + docID + ":")

	errView := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = docPrefix
		it := txn.NewIterator(opts)
		defer it.Close()
		// Keys sort by zero-padded sequence, so iteration order is pre-order
		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec models.FlattenedRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return fmt.Errorf("%w: failed to unmarshal record at key '%s': %w", utils.ErrParsing, string(it.Item().Key()), err)
				}
				records = append(records, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if errView != nil {
		s.log.Errorf("DB View error in ListRecords for doc '%s': %v", docID, errView)
		return nil, fmt.Errorf("%w: listing records for doc '%s': %w", utils.ErrDatabase, docID, errView)
	}
	return records, nil
}

// CheckDocStatus implements the RecordStore interface
func (s *BadgerStore) CheckDocStatus(docID string) (models.DocStatus, *models.DocDBEntry, error) {
	status := models.DocStatusNotFound
	var entry *models.DocDBEntry = nil
	key := []byte(docKeyPrefix + docID)

	errView := s.db.View(func(txn *badger.Txn) error {
		item, errGet := txn.Get(key)
		if errors.Is(errGet, badger.ErrKeyNotFound) {
			status = models.DocStatusNotFound // Explicitly set status
			return nil                        // Key not found is not an error for this function's purpose
		}
		if errGet != nil {
			return fmt.Errorf("%w: failed getting doc key '%s': %w", utils.ErrDatabase, string(key), errGet)
		}

		// Key found, now get the value
		return item.Value(func(val []byte) error {
			if len(val) == 0 {
				status = models.DocStatusPending // Key exists but has no data yet
				return nil
			}

			// Value is not empty, try to decode
			var decodedEntry models.DocDBEntry
			if errJson := json.Unmarshal(val, &decodedEntry); errJson != nil {
				s.log.Warnf("Failed to unmarshal DocDBEntry for key '%s': %v. Treating as 'pending'.", string(key), errJson)
				status = models.DocStatusPending // Treat unmarshal error as pending state
				return nil                       // Return nil to continue View, status is set
			}

			// Successfully decoded
			entry = &decodedEntry
			status = decodedEntry.Status
			s.log.Debugf("Doc key '%s' found, decoded status: %s", string(key), status)
			return nil
		})
	})

	if errView != nil {
		s.log.Errorf("DB View error in CheckDocStatus for key '%s': %v", string(key), errView)
		status = models.DocStatusDBError // Set status to indicate DB error
		return status, nil, errView      // Return the DB error
	}

	// No DB error occurred during View/Get/Value
	return status, entry, nil
}

// UpdateDocStatus implements the RecordStore interface
func (s *BadgerStore) UpdateDocStatus(docID string, entry *models.DocDBEntry) error {
	if s.db == nil {
		return errors.New("record DB not initialized")
	}
	key := []byte(docKeyPrefix + docID)

	entryBytes, errJson := json.Marshal(entry)
	if errJson != nil {
		wrappedErr := fmt.Errorf("%w: failed to marshal DocDBEntry for key '%s': %w", utils.ErrParsing, string(key), errJson)
		s.log.Error(wrappedErr)
		return wrappedErr
	}

	err := s.dbUpdate(func(txn *badger.Txn) error {
		return txn.Set(key, entryBytes)
	})
	if err != nil {
		s.log.WithField("key", string(key)).Errorf("DB Update error in UpdateDocStatus: %v", err)
		return fmt.Errorf("%w: updating doc key '%s': %w", utils.ErrDatabase, string(key), err)
	}
	return nil
}

// ListDocs implements the RecordStore interface
func (s *BadgerStore) ListDocs() (map[string]models.DocDBEntry, error) {
	docs := make(map[string]models.DocDBEntry)

	errView := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(docKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			docID := strings.TrimPrefix(string(item.Key()), docKeyPrefix)
			err := item.Value(func(val []byte) error {
				if len(val) == 0 {
					docs[docID] = models.DocDBEntry{Status: models.DocStatusPending}
					return nil
				}
				var entry models.DocDBEntry
				if errJson := json.Unmarshal(val, &entry); errJson != nil {
					s.log.Warnf("Skipping undecodable DocDBEntry for doc '%s': %v", docID, errJson)
					return nil
				}
				docs[docID] = entry
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if errView != nil {
		return nil, fmt.Errorf("%w: listing documents: %w", utils.ErrDatabase, errView)
	}
	return docs, nil
}

// GetRecordCount implements the StoreAdmin interface
func (s *BadgerStore) GetRecordCount() (int, error) {
	if s.db == nil {
		return 0, errors.New("record DB not initialized")
	}
	return int(s.recordCount.Load()), nil
}

// RunGC implements the StoreAdmin interface. Runs Badger value log GC
// periodically until the context is cancelled. Should be run in a goroutine.
func (s *BadgerStore) RunGC(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	s.log.Debugf("Starting Badger GC loop (interval: %v)", interval)

	for {
		select {
		case <-ctx.Done():
			s.log.Debug("Stopping Badger GC loop (context cancelled)")
			return
		case <-ticker.C:
			// Repeat GC while it keeps reclaiming value log files
			for {
				err := s.db.RunValueLogGC(0.5)
				if err != nil {
					if !errors.Is(err, badger.ErrNoRewrite) {
						s.log.Warnf("Badger value log GC error: %v", err)
					}
					break
				}
				s.log.Debug("Badger value log GC reclaimed a file")
			}
		}
	}
}

// Close implements the StoreAdmin interface
func (s *BadgerStore) Close() error {
	if s.db == nil {
		return nil
	}
	s.log.Info("Closing record database...")
	return s.db.Close()
}

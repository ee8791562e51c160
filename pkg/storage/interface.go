package storage

import (
	"context"
	"time"

	"section-indexer/pkg/models"
)

// RecordStore persists flattened section records and per-document status
type RecordStore interface {
	// PutRecords atomically replaces the stored record batch for a document.
	// The write is all-or-nothing: either every record in the batch lands or
	// none do, matching the flattener's batch semantics
	PutRecords(docID string, records []models.FlattenedRecord) error

	// GetRecord retrieves one record of a document by its section id
	// Returns nil without error when the record does not exist
	GetRecord(docID, sectionID string) (*models.FlattenedRecord, error)

	// ListRecords returns a document's records in stored (pre-order) sequence
	ListRecords(docID string) ([]models.FlattenedRecord, error)

	// CheckDocStatus retrieves the status and details of a document
	// Returns status (DocStatusSuccess, DocStatusFailure, DocStatusPending,
	// DocStatusNotFound, DocStatusDBError), the DocDBEntry if found and
	// parsed, and any error
	CheckDocStatus(docID string) (status models.DocStatus, entry *models.DocDBEntry, err error)

	// UpdateDocStatus updates the status and details for a document
	UpdateDocStatus(docID string, entry *models.DocDBEntry) error

	// ListDocs returns the status entries of all known documents keyed by id
	ListDocs() (map[string]models.DocDBEntry, error)
}

// StoreAdmin handles lifecycle and administrative operations
type StoreAdmin interface {
	// GetRecordCount returns an approximate count of stored records
	GetRecordCount() (int, error)

	// RunGC runs periodic garbage collection. Should be run in a goroutine
	RunGC(ctx context.Context, interval time.Duration)

	// Close cleanly closes the database connection
	Close() error
}

// Store combines all store interfaces for components that need full access
type Store interface {
	RecordStore
	StoreAdmin
}

package ingest

import (
	"context"
	"time"

	"github.com/vendaflow/ragcore/rag/canonical"
	"github.com/vendaflow/ragcore/rag/document"
	"github.com/vendaflow/ragcore/rag/score"
)

// Record is the durable trace of one ingested document: what was uploaded,
// how it canonicalized and how it scored. The record is what lets a tenant
// audit why an answer cited (or failed to cite) a given document.
type Record struct {
	Document  document.Document
	Canonical canonical.Result
	Score     score.Result
	ChunkIDs  []string
	CreatedAt time.Time
}

// DocumentStore persists ingestion records per tenant.
type DocumentStore interface {
	// SaveRecord upserts the record keyed by tenant and document ID.
	SaveRecord(ctx context.Context, record *Record) error

	// GetRecord returns the record for one document, or ErrNotFound.
	GetRecord(ctx context.Context, tenantID, documentID string) (*Record, error)

	// ListRecords returns every record for a tenant, newest first.
	ListRecords(ctx context.Context, tenantID string) ([]*Record, error)

	// DeleteRecord removes the record for one document.
	DeleteRecord(ctx context.Context, tenantID, documentID string) error
}

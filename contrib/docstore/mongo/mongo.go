// Package mongo persists ingestion records in MongoDB, one document per
// uploaded file per tenant.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vendaflow/ragcore/config"
	ragerrors "github.com/vendaflow/ragcore/errors"
	"github.com/vendaflow/ragcore/ingest"
	"github.com/vendaflow/ragcore/rag/canonical"
	"github.com/vendaflow/ragcore/rag/document"
	"github.com/vendaflow/ragcore/rag/score"
)

// Config holds MongoDB connection configuration.
type Config struct {
	URI        string
	Database   string
	Collection string
}

// DefaultConfig returns defaults suitable for local development.
func DefaultConfig() *Config {
	return &Config{
		URI:        "mongodb://localhost:27017",
		Database:   "ragcore",
		Collection: "ingestion_records",
	}
}

// Store implements ingest.DocumentStore on MongoDB.
type Store struct {
	client     *mongo.Client
	db         *mongo.Database
	collection *mongo.Collection
}

var _ ingest.DocumentStore = (*Store)(nil)

// mongoRecord is the internal representation for MongoDB.
type mongoRecord struct {
	ID         string            `bson:"_id"`
	TenantID   string            `bson:"tenant_id"`
	DocumentID string            `bson:"document_id"`
	Document   document.Document `bson:"document"`
	Canonical  canonical.Result  `bson:"canonical"`
	Score      score.Result      `bson:"score"`
	ChunkIDs   []string          `bson:"chunk_ids"`
	CreatedAt  time.Time         `bson:"created_at"`
}

// New connects to MongoDB and prepares the record collection.
func New(cfg *Config) (*Store, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := config.ValidateMongoDBConfig(cfg.URI, cfg.Database, cfg.Collection); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(cfg.Database)
	store := &Store{
		client:     client,
		db:         db,
		collection: db.Collection(cfg.Collection),
	}

	if err := store.createIndexes(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}
	return store, nil
}

func (s *Store) createIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "document_id", Value: 1}}},
	}
	_, err := s.collection.Indexes().CreateMany(ctx, models)
	return err
}

func recordKey(tenantID, documentID string) string {
	return tenantID + "|" + documentID
}

// SaveRecord upserts the record keyed by tenant and document ID.
func (s *Store) SaveRecord(ctx context.Context, record *ingest.Record) error {
	if record == nil {
		return fmt.Errorf("%w: record cannot be nil", ragerrors.ErrInvalidInput)
	}
	if record.Document.TenantID == "" || record.Document.ID == "" {
		return fmt.Errorf("%w: record needs tenant and document ids", ragerrors.ErrInvalidInput)
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	doc := mongoRecord{
		ID:         recordKey(record.Document.TenantID, record.Document.ID),
		TenantID:   record.Document.TenantID,
		DocumentID: record.Document.ID,
		Document:   record.Document,
		Canonical:  record.Canonical,
		Score:      record.Score,
		ChunkIDs:   record.ChunkIDs,
		CreatedAt:  record.CreatedAt,
	}

	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"_id": doc.ID}
	if _, err := s.collection.ReplaceOne(ctx, filter, doc, opts); err != nil {
		return fmt.Errorf("failed to save ingestion record: %w", err)
	}
	return nil
}

// GetRecord returns the record for one document.
func (s *Store) GetRecord(ctx context.Context, tenantID, documentID string) (*ingest.Record, error) {
	var doc mongoRecord
	err := s.collection.FindOne(ctx, bson.M{"_id": recordKey(tenantID, documentID)}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%w: record %s/%s", ragerrors.ErrNotFound, tenantID, documentID)
		}
		return nil, fmt.Errorf("failed to get ingestion record: %w", err)
	}
	return doc.toRecord(), nil
}

// ListRecords returns every record for a tenant, newest first.
func (s *Store) ListRecords(ctx context.Context, tenantID string) ([]*ingest.Record, error) {
	cursor, err := s.collection.Find(ctx, bson.M{"tenant_id": tenantID},
		options.Find().SetSort(bson.M{"created_at": -1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list ingestion records: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoRecord
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode ingestion records: %w", err)
	}

	records := make([]*ingest.Record, len(docs))
	for i, d := range docs {
		records[i] = d.toRecord()
	}
	return records, nil
}

// DeleteRecord removes the record for one document.
func (s *Store) DeleteRecord(ctx context.Context, tenantID, documentID string) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": recordKey(tenantID, documentID)})
	if err != nil {
		return fmt.Errorf("failed to delete ingestion record: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: record %s/%s", ragerrors.ErrNotFound, tenantID, documentID)
	}
	return nil
}

// Ping checks if the MongoDB connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close closes the MongoDB connection.
func (s *Store) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.client.Disconnect(ctx)
}

func (d mongoRecord) toRecord() *ingest.Record {
	return &ingest.Record{
		Document:  d.Document,
		Canonical: d.Canonical,
		Score:     d.Score,
		ChunkIDs:  d.ChunkIDs,
		CreatedAt: d.CreatedAt,
	}
}

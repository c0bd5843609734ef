// Package ingest runs the document intake flow: preprocess, canonicalize,
// score, chunk, embed and index. Re-uploading a document replaces its old
// embeddings so the index never serves stale knowledge.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	ragerrors "github.com/vendaflow/ragcore/errors"
	"github.com/vendaflow/ragcore/pkg/logging"
	"github.com/vendaflow/ragcore/pkg/telemetry"
	"github.com/vendaflow/ragcore/rag/canonical"
	"github.com/vendaflow/ragcore/rag/chunking"
	"github.com/vendaflow/ragcore/rag/document"
	"github.com/vendaflow/ragcore/rag/preprocess"
	"github.com/vendaflow/ragcore/rag/score"
	"github.com/vendaflow/ragcore/vector"
)

// Pipeline wires the intake stages together. Scoring informs the report but
// never blocks indexing: a weak document still reaches the index, and the
// tenant sees why it scored low.
type Pipeline struct {
	embedder vector.Embedder
	store    vector.VectorStore
	chunker  chunking.Chunker
	docs     DocumentStore
	tracer   trace.Tracer
}

// Option customizes the pipeline.
type Option func(*Pipeline)

// WithChunker replaces the default sliding chunker.
func WithChunker(c chunking.Chunker) Option {
	return func(p *Pipeline) {
		if c != nil {
			p.chunker = c
		}
	}
}

// WithDocumentStore enables persistence of ingestion records.
func WithDocumentStore(store DocumentStore) Option {
	return func(p *Pipeline) { p.docs = store }
}

// New builds an ingestion pipeline. Embedder and vector store are required.
func New(embedder vector.Embedder, store vector.VectorStore, opts ...Option) (*Pipeline, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", ragerrors.ErrInvalidInput)
	}
	if store == nil {
		return nil, fmt.Errorf("%w: vector store is required", ragerrors.ErrInvalidInput)
	}
	p := &Pipeline{
		embedder: embedder,
		store:    store,
		chunker:  chunking.NewSlidingChunker(),
		tracer:   otel.Tracer("github.com/vendaflow/ragcore/ingest"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Report summarizes one ingestion run.
type Report struct {
	DocumentID    string
	Canonical     canonical.Result
	Score         score.Result
	ChunksIndexed int
}

// IngestDocument runs the full intake flow for one document. When doc.ID is
// empty and a filename is present, the ID is derived deterministically from
// tenant and filename so a re-upload supersedes the previous version.
func (p *Pipeline) IngestDocument(ctx context.Context, doc *document.Document) (rep *Report, err error) {
	if doc == nil || strings.TrimSpace(doc.Content) == "" {
		return nil, fmt.Errorf("%w: document content is empty", ragerrors.ErrInvalidInput)
	}
	if strings.TrimSpace(doc.TenantID) == "" {
		return nil, fmt.Errorf("%w: tenant id is required", ragerrors.ErrInvalidInput)
	}
	if doc.ID == "" {
		if doc.Filename != "" {
			doc.ID = StableDocumentID(doc.TenantID, doc.Filename)
		} else {
			document.EnsureDocumentID(doc)
		}
	}

	ctx, span := p.tracer.Start(ctx, "ingest.IngestDocument",
		trace.WithAttributes(
			attribute.String("tenant.id", doc.TenantID),
			attribute.String("document.id", doc.ID),
		))
	defer func() { telemetry.End(span, err) }()

	log := logging.WithComponent("ingest").With("tenant_id", doc.TenantID, "document_id", doc.ID)

	content := doc.Content
	if isHTML(doc.Filename, content) {
		text, herr := preprocess.HTMLToText(content)
		if herr != nil {
			log.Warn("html extraction failed, using raw content", "error", herr)
		} else {
			content = text
		}
	}
	content = preprocess.Preprocess(content)

	canon := canonical.Canonicalize(content, doc.Filename)
	sc := score.Evaluate(canon)
	if sc.Status == score.StatusRejected {
		log.Warn("document scored as rejected, indexing anyway",
			"score", sc.Score, "flags", sc.Flags)
	}
	if len(canon.MissingFields) > 0 {
		log.Info("canonical fields missing", "fields", canon.MissingFields)
	}

	// Supersede any previous version of this document.
	if derr := p.store.DeleteByDocument(ctx, doc.ID); derr != nil {
		return nil, fmt.Errorf("supersede previous embeddings: %w", derr)
	}

	chunkDoc := *doc
	chunkDoc.Content = canon.CanonicalText
	chunks, cerr := p.chunker.Chunk(ctx, chunkDoc)
	if cerr != nil {
		return nil, fmt.Errorf("chunk document: %w", cerr)
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Content
	}
	vectors, eerr := p.embedder.EmbedBatch(ctx, texts)
	if eerr != nil {
		return nil, fmt.Errorf("embed chunks: %w", eerr)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: embedder returned %d vectors for %d chunks",
			ragerrors.ErrMalformedResponse, len(vectors), len(chunks))
	}

	chunkIDs := make([]string, 0, len(chunks))
	for i, ch := range chunks {
		emb := &vector.Embedding{
			ID:         ch.ID,
			DocumentID: doc.ID,
			TenantID:   doc.TenantID,
			Vector:     vectors[i],
			Text:       ch.Content,
			Metadata:   ch.Metadata,
		}
		if aerr := p.store.AddEmbedding(ctx, emb); aerr != nil {
			return nil, fmt.Errorf("index chunk %s: %w", ch.ID, aerr)
		}
		chunkIDs = append(chunkIDs, ch.ID)
	}

	if p.docs != nil {
		record := &Record{
			Document:  *doc,
			Canonical: canon,
			Score:     sc,
			ChunkIDs:  chunkIDs,
			CreatedAt: time.Now().UTC(),
		}
		if serr := p.docs.SaveRecord(ctx, record); serr != nil {
			log.Warn("failed to persist ingestion record", "error", serr)
		}
	}

	log.Info("document ingested",
		"chunks", len(chunkIDs), "score", sc.Score, "status", sc.Status)
	span.SetAttributes(attribute.Int("ingest.chunks", len(chunkIDs)))

	return &Report{
		DocumentID:    doc.ID,
		Canonical:     canon,
		Score:         sc,
		ChunksIndexed: len(chunkIDs),
	}, nil
}

// StableDocumentID derives a deterministic document ID from tenant and
// filename, so uploading the same file twice targets the same index slot.
func StableDocumentID(tenantID, filename string) string {
	sum := sha256.Sum256([]byte(tenantID + "/" + strings.ToLower(strings.TrimSpace(filename))))
	return "doc-" + hex.EncodeToString(sum[:8])
}

func isHTML(filename, content string) bool {
	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm") {
		return true
	}
	trimmed := strings.TrimSpace(content)
	return strings.HasPrefix(trimmed, "<!DOCTYPE") || strings.HasPrefix(trimmed, "<html")
}

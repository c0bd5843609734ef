// Package retriever turns a user question into the context window the
// response router consumes: embed the question, search the vector store and
// concatenate the best chunks for the requesting tenant.
package retriever

import (
	"context"
	"fmt"
	"strings"

	ragerrors "github.com/vendaflow/ragcore/errors"
	"github.com/vendaflow/ragcore/vector"
)

// Config controls retrieval behaviour.
type Config struct {
	// TopK is how many chunks end up in the context window.
	TopK int
	// SearchTopK is how many neighbors are fetched before tenant
	// filtering. Kept above TopK because the store searches across
	// tenants.
	SearchTopK int
	// Separator joins chunk texts into the context window.
	Separator string
	// Counter and MaxTokens bound the context window in model tokens.
	Counter   TokenCounter
	MaxTokens int
}

// TokenCounter measures text in model tokens, the unit providers bill and
// truncate by.
type TokenCounter interface {
	CountTokens(text string) int
}

// Option customizes retriever config.
type Option func(*Config)

// WithTopK sets how many chunks survive into the context window.
func WithTopK(k int) Option {
	return func(cfg *Config) {
		if k > 0 {
			cfg.TopK = k
		}
	}
}

// WithSearchTopK sets the number of neighbors fetched from the vector store.
func WithSearchTopK(k int) Option {
	return func(cfg *Config) {
		if k > 0 {
			cfg.SearchTopK = k
		}
	}
}

// WithSeparator sets the string joining chunks in the context window.
func WithSeparator(sep string) Option {
	return func(cfg *Config) {
		if sep != "" {
			cfg.Separator = sep
		}
	}
}

// WithTokenBudget caps the context window at maxTokens, dropping the least
// similar chunks first. Without a counter the window is only bounded by
// TopK.
func WithTokenBudget(counter TokenCounter, maxTokens int) Option {
	return func(cfg *Config) {
		if counter != nil && maxTokens > 0 {
			cfg.Counter = counter
			cfg.MaxTokens = maxTokens
		}
	}
}

// Retriever coordinates question embedding and tenant-scoped search.
type Retriever struct {
	store    vector.VectorStore
	embedder vector.Embedder
	cfg      Config
}

// New creates a retriever over the given store and embedder.
func New(store vector.VectorStore, emb vector.Embedder, opts ...Option) (*Retriever, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: vector store is required", ragerrors.ErrInvalidInput)
	}
	if emb == nil {
		return nil, fmt.Errorf("%w: embedder is required", ragerrors.ErrInvalidInput)
	}
	cfg := Config{
		TopK:       4,
		SearchTopK: 16,
		Separator:  "\n\n",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.SearchTopK < cfg.TopK {
		cfg.SearchTopK = cfg.TopK
	}
	return &Retriever{store: store, embedder: emb, cfg: cfg}, nil
}

// Retrieve returns the top chunks for the tenant's question, most similar
// first. An empty result is not an error; the router treats a thin context
// as "no supported answer" territory.
func (r *Retriever) Retrieve(ctx context.Context, tenantID, question string) ([]*vector.Embedding, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: empty question", ragerrors.ErrInvalidInput)
	}

	queryVec, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	neighbors, err := r.store.Search(ctx, queryVec, r.cfg.SearchTopK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	out := make([]*vector.Embedding, 0, r.cfg.TopK)
	for _, emb := range neighbors {
		if tenantID != "" && emb.TenantID != tenantID {
			continue
		}
		out = append(out, emb)
		if len(out) >= r.cfg.TopK {
			break
		}
	}
	return out, nil
}

// ContextText runs Retrieve and joins the chunk texts into the context
// window handed to the router.
func (r *Retriever) ContextText(ctx context.Context, tenantID, question string) (string, error) {
	chunks, err := r.Retrieve(ctx, tenantID, question)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(chunks))
	budget := r.cfg.MaxTokens
	for _, ch := range chunks {
		text := strings.TrimSpace(ch.Text)
		if text == "" {
			continue
		}
		if r.cfg.Counter != nil {
			cost := r.cfg.Counter.CountTokens(text)
			if cost > budget && len(parts) > 0 {
				break
			}
			budget -= cost
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, r.cfg.Separator), nil
}

package chunking

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/vendaflow/ragcore/rag/document"
)

// Chunker splits documents into chunks that can be embedded and indexed.
type Chunker interface {
	Chunk(ctx context.Context, doc document.Document) ([]document.Chunk, error)
}

type Options struct {
	ChunkSize   int
	Overlap     int
	Separator   string
	IncludeMeta bool
}

// SlidingChunker splits canonical text by separator first and then windows
// oversized parts with a fixed overlap.
type SlidingChunker struct {
	size    int
	overlap int
	sep     string
	addMeta bool
}

// Option customizes the sliding chunker.
type Option func(*Options)

// WithChunkSize overrides the default chunk size (characters).
func WithChunkSize(size int) Option {
	return func(o *Options) {
		if size > 0 {
			o.ChunkSize = size
		}
	}
}

// WithOverlap configures overlap (characters) between consecutive chunks.
func WithOverlap(overlap int) Option {
	return func(o *Options) {
		if overlap >= 0 {
			o.Overlap = overlap
		}
	}
}

// WithSeparator sets the logical separator used before windowing.
func WithSeparator(sep string) Option {
	return func(o *Options) {
		if sep != "" {
			o.Separator = sep
		}
	}
}

// WithMetadataCopy toggles whether document metadata should be copied to chunks.
func WithMetadataCopy(enabled bool) Option {
	return func(o *Options) {
		o.IncludeMeta = enabled
	}
}

// NewSlidingChunker constructs a chunker with sane defaults for canonical
// knowledge text.
func NewSlidingChunker(opts ...Option) *SlidingChunker {
	cfg := &Options{
		ChunkSize:   800,
		Overlap:     120,
		Separator:   "\n\n",
		IncludeMeta: true,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Overlap >= cfg.ChunkSize {
		cfg.Overlap = 0
	}
	return &SlidingChunker{
		size:    cfg.ChunkSize,
		overlap: cfg.Overlap,
		sep:     cfg.Separator,
		addMeta: cfg.IncludeMeta,
	}
}

// Chunk splits the document into bounded pieces.
func (c *SlidingChunker) Chunk(ctx context.Context, doc document.Document) ([]document.Chunk, error) {
	document.EnsureDocumentID(&doc)

	parts := strings.Split(doc.Content, c.sep)
	chunks := make([]document.Chunk, 0, len(parts))
	currentOrdinal := 0

	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		for len(part) > c.size {
			cut := runeStart(part, c.size)
			if cut == 0 {
				cut = c.size
			}
			currentOrdinal++
			chunks = append(chunks, c.newChunk(doc, currentOrdinal, part[:cut]))
			adv := runeStart(part, cut-c.overlap)
			if adv <= 0 {
				adv = cut
			}
			part = part[adv:]
		}
		currentOrdinal++
		chunks = append(chunks, c.newChunk(doc, currentOrdinal, part))
	}

	if len(chunks) == 0 {
		currentOrdinal++
		chunks = append(chunks, c.newChunk(doc, currentOrdinal, doc.Content))
	}

	return chunks, nil
}

func (c *SlidingChunker) newChunk(doc document.Document, ordinal int, content string) document.Chunk {
	chunk := document.Chunk{
		ID:         document.NextChunkID(doc.ID),
		DocumentID: doc.ID,
		Content:    strings.TrimSpace(content),
		Ordinal:    ordinal,
	}
	if c.addMeta && doc.Metadata != nil {
		chunk.Metadata = make(map[string]any, len(doc.Metadata))
		for k, v := range doc.Metadata {
			chunk.Metadata[k] = v
		}
	}
	return chunk
}

// runeStart backs i off to the nearest rune boundary at or before it, so
// window cuts never bisect a multibyte character.
func runeStart(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// Split is the plain-function façade over the sliding window: it breaks text
// into roughly chunkSize pieces with the given overlap and no document
// bookkeeping. Callers that only need strings (embedding pipelines) use this.
func Split(text string, chunkSize, overlap int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = 800
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}

	var out []string
	for _, part := range strings.Split(text, "\n\n") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		for len(part) > chunkSize {
			cut := runeStart(part, chunkSize)
			if cut == 0 {
				cut = chunkSize
			}
			out = append(out, strings.TrimSpace(part[:cut]))
			adv := runeStart(part, cut-overlap)
			if adv <= 0 {
				adv = cut
			}
			part = part[adv:]
		}
		out = append(out, strings.TrimSpace(part))
	}
	return out
}

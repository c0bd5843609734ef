package chunking

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/vendaflow/ragcore/rag/document"
)

func TestSlidingChunkerWindowsLongParts(t *testing.T) {
	ch := NewSlidingChunker(
		WithChunkSize(50),
		WithOverlap(10),
		WithSeparator("\n\n"),
	)

	long := strings.Repeat("atendimento de segunda a sexta ", 5)
	doc := document.Document{
		ID:      "d1",
		Content: "bloco curto\n\n" + long,
	}

	chunks, err := ch.Chunk(context.Background(), doc)
	if err != nil {
		t.Fatalf("chunk error: %v", err)
	}
	if len(chunks) < 3 {
		t.Fatalf("expected windowed chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if c.DocumentID != "d1" {
			t.Fatalf("chunk not tagged with document ID: %#v", c)
		}
		if len(c.Content) > 50 {
			t.Fatalf("chunk exceeds size limit: %d chars", len(c.Content))
		}
	}
}

func TestSlidingChunkerCopiesMetadata(t *testing.T) {
	ch := NewSlidingChunker(WithMetadataCopy(true))
	doc := document.Document{
		ID:       "d2",
		Content:  "conteúdo único",
		Metadata: map[string]any{"tenant": "t1"},
	}

	chunks, err := ch.Chunk(context.Background(), doc)
	if err != nil {
		t.Fatalf("chunk error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Metadata["tenant"] != "t1" {
		t.Fatalf("expected tenant metadata copied, got %#v", chunks[0].Metadata)
	}
}

func TestSlidingChunkerClampsOversizeOverlap(t *testing.T) {
	// Only the size is overridden here, so the default overlap (120) would
	// exceed the window without the clamp.
	ch := NewSlidingChunker(WithChunkSize(100))

	doc := document.Document{
		ID:      "d3",
		Content: strings.Repeat("atendimento de segunda a sexta ", 20),
	}

	chunks, err := ch.Chunk(context.Background(), doc)
	if err != nil {
		t.Fatalf("chunk error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected windowed chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if len(c.Content) > 100 {
			t.Fatalf("chunk exceeds size limit: %d chars", len(c.Content))
		}
	}
}

func TestSlidingChunkerKeepsRuneBoundaries(t *testing.T) {
	ch := NewSlidingChunker(WithChunkSize(20), WithOverlap(5))

	doc := document.Document{
		ID:      "d4",
		Content: strings.Repeat("sábado às 9h, atenção à hidratação ", 4),
	}

	chunks, err := ch.Chunk(context.Background(), doc)
	if err != nil {
		t.Fatalf("chunk error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected windowed chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if !utf8.ValidString(c.Content) {
			t.Fatalf("chunk holds invalid UTF-8: %q", c.Content)
		}
	}

	for _, part := range Split(doc.Content, 20, 5) {
		if !utf8.ValidString(part) {
			t.Fatalf("split part holds invalid UTF-8: %q", part)
		}
	}
}

func TestSplitFacade(t *testing.T) {
	if got := Split("   ", 100, 10); got != nil {
		t.Fatalf("blank text should yield nil, got %#v", got)
	}

	text := "primeiro parágrafo\n\n" + strings.Repeat("x", 120)
	parts := Split(text, 50, 10)
	if len(parts) < 3 {
		t.Fatalf("expected windowing, got %d parts", len(parts))
	}
	if parts[0] != "primeiro parágrafo" {
		t.Fatalf("expected first paragraph preserved, got %q", parts[0])
	}

	// consecutive windows share the overlap region
	if !strings.HasPrefix(parts[2], parts[1][len(parts[1])-10:]) {
		t.Fatalf("expected 10-char overlap between windows: %q / %q", parts[1], parts[2])
	}
}

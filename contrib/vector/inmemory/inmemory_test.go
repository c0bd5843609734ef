package inmemory

import (
	"context"
	"math"
	"testing"

	"github.com/vendaflow/ragcore/vector"
)

func TestInMemoryVectorStore(t *testing.T) {
	store := NewInMemoryVectorStore()
	ctx := context.Background()

	t.Run("add and retrieve embedding", func(t *testing.T) {
		emb := &vector.Embedding{
			ID:         "emb1",
			DocumentID: "doc1",
			Text:       "[RESPOSTA] Atendemos das 9h às 18h.",
			Vector:     []float32{0.1, 0.2, 0.3},
		}

		if err := store.AddEmbedding(ctx, emb); err != nil {
			t.Errorf("AddEmbedding failed: %v", err)
		}

		retrieved, err := store.GetEmbedding(ctx, "emb1")
		if err != nil {
			t.Errorf("GetEmbedding failed: %v", err)
		}
		if retrieved.Text != emb.Text {
			t.Errorf("Expected text %q, got %q", emb.Text, retrieved.Text)
		}
	})

	t.Run("search embeddings", func(t *testing.T) {
		store.Clear(ctx)

		embeddings := []*vector.Embedding{
			{ID: "emb1", Text: "horários", Vector: []float32{1.0, 0.0, 0.0}},
			{ID: "emb2", Text: "preços", Vector: []float32{0.0, 1.0, 0.0}},
			{ID: "emb3", Text: "endereço", Vector: []float32{0.0, 0.0, 1.0}},
		}
		for _, emb := range embeddings {
			store.AddEmbedding(ctx, emb)
		}

		results, err := store.Search(ctx, []float32{1.0, 0.0, 0.0}, 2)
		if err != nil {
			t.Errorf("Search failed: %v", err)
		}
		if len(results) != 2 {
			t.Errorf("Expected 2 results, got %d", len(results))
		}
		if results[0].ID != "emb1" {
			t.Errorf("Expected first result to be emb1, got %s", results[0].ID)
		}
	})

	t.Run("delete by document supersedes old upload", func(t *testing.T) {
		store.Clear(ctx)

		store.AddEmbedding(ctx, &vector.Embedding{ID: "a1", DocumentID: "docA", Vector: []float32{1, 0, 0}})
		store.AddEmbedding(ctx, &vector.Embedding{ID: "a2", DocumentID: "docA", Vector: []float32{0, 1, 0}})
		store.AddEmbedding(ctx, &vector.Embedding{ID: "b1", DocumentID: "docB", Vector: []float32{0, 0, 1}})

		if err := store.DeleteByDocument(ctx, "docA"); err != nil {
			t.Fatalf("DeleteByDocument failed: %v", err)
		}

		count, _ := store.Count(ctx)
		if count != 1 {
			t.Errorf("Expected 1 embedding left, got %d", count)
		}
		if _, err := store.GetEmbedding(ctx, "b1"); err != nil {
			t.Errorf("unrelated document must survive: %v", err)
		}
	})

	t.Run("delete embedding", func(t *testing.T) {
		store.Clear(ctx)

		store.AddEmbedding(ctx, &vector.Embedding{ID: "del1", Vector: []float32{0.5, 0.5, 0.5}})
		if err := store.DeleteEmbedding(ctx, "del1"); err != nil {
			t.Errorf("DeleteEmbedding failed: %v", err)
		}
		if _, err := store.GetEmbedding(ctx, "del1"); err == nil {
			t.Error("Expected error when retrieving deleted embedding")
		}
	})
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1.0, 0.0, 0.0}
	b := []float32{1.0, 0.0, 0.0}
	c := []float32{0.0, 1.0, 0.0}

	if sim := vector.CosineSimilarity(a, b); math.Abs(float64(sim)-1.0) > 1e-6 {
		t.Errorf("Expected similarity ~1.0 for identical vectors, got %f", sim)
	}
	if sim := vector.CosineSimilarity(a, c); sim != 0.0 {
		t.Errorf("Expected similarity 0.0 for orthogonal vectors, got %f", sim)
	}
}

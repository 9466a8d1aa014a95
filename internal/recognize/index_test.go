package recognize

import (
	"testing"
)

func TestIndexMatchReturnsNearestUser(t *testing.T) {
	ix := NewIndex()

	if err := ix.Add("jiri.novak", []float32{1, 0, 0, 0}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := ix.Add("eva.svobodova", []float32{0, 1, 0, 0}); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	userID, confidence, ok := ix.Match([]float32{0.99, 0.01, 0, 0})
	if !ok {
		t.Fatal("expected a match")
	}
	if userID != "jiri.novak" {
		t.Errorf("expected jiri.novak, got %q", userID)
	}
	if confidence < 0.9 {
		t.Errorf("expected high confidence, got %f", confidence)
	}
}

func TestIndexMatchEmptyIndex(t *testing.T) {
	ix := NewIndex()

	_, _, ok := ix.Match([]float32{1, 0, 0, 0})
	if ok {
		t.Error("expected no match on empty index")
	}
}

func TestIndexAddRejectsEmptyEmbedding(t *testing.T) {
	ix := NewIndex()

	if err := ix.Add("jiri.novak", nil); err == nil {
		t.Error("expected error for empty embedding")
	}
	if ix.Len() != 0 {
		t.Errorf("expected empty index, got %d entries", ix.Len())
	}
}

func TestIndexMultipleEmbeddingsPerUser(t *testing.T) {
	ix := NewIndex()

	if err := ix.Add("jiri.novak", []float32{1, 0, 0, 0}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := ix.Add("jiri.novak", []float32{0.9, 0.1, 0, 0}); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	if ix.Len() != 2 {
		t.Errorf("expected 2 embeddings, got %d", ix.Len())
	}

	users := ix.Users()
	if len(users) != 1 || users[0] != "jiri.novak" {
		t.Errorf("expected single user jiri.novak, got %v", users)
	}
}

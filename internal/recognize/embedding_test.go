package recognize

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestComputeEmbedding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed/image" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Fatalf("failed to parse multipart form: %v", err)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file part: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"dim":4,"embedding":[0.1,0.2,0.3,0.4],"model":"arcface"}`))
	}))
	defer server.Close()

	client := NewEmbeddingClient(server.URL, "")
	embedding, err := client.ComputeEmbedding(context.Background(), []byte("fake image data"))
	if err != nil {
		t.Fatalf("ComputeEmbedding failed: %v", err)
	}
	if len(embedding) != 4 {
		t.Errorf("expected 4 dimensions, got %d", len(embedding))
	}
}

func TestComputeEmbeddingServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewEmbeddingClient(server.URL, "")
	if _, err := client.ComputeEmbedding(context.Background(), []byte("data")); err == nil {
		t.Error("expected error on server failure")
	}
}

func TestComputeFaceEmbeddingPicksBestDetection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed/face" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"faces_count": 2,
			"faces": [
				{"face_index": 0, "dim": 2, "embedding": [0.1, 0.2], "det_score": 0.4},
				{"face_index": 1, "dim": 2, "embedding": [0.9, 0.8], "det_score": 0.95}
			],
			"model": "arcface"
		}`))
	}))
	defer server.Close()

	client := NewEmbeddingClient(server.URL, "")
	embedding, err := client.ComputeFaceEmbedding(context.Background(), []byte("fake image data"))
	if err != nil {
		t.Fatalf("ComputeFaceEmbedding failed: %v", err)
	}
	if embedding == nil {
		t.Fatal("expected an embedding")
	}
	if embedding[0] != 0.9 {
		t.Errorf("expected the highest scoring face, got %v", embedding)
	}
}

func TestComputeFaceEmbeddingNoFace(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"faces_count":0,"faces":[],"model":"arcface"}`))
	}))
	defer server.Close()

	client := NewEmbeddingClient(server.URL, "")
	embedding, err := client.ComputeFaceEmbedding(context.Background(), []byte("fake image data"))
	if err != nil {
		t.Fatalf("ComputeFaceEmbedding failed: %v", err)
	}
	if embedding != nil {
		t.Errorf("expected no embedding, got %v", embedding)
	}
}

func TestMatcherNoFaceMeansNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"faces_count":0,"faces":[],"model":"arcface"}`))
	}))
	defer server.Close()

	ix := NewIndex()
	if err := ix.Add("jiri.novak", []float32{1, 0}); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	matcher := NewMatcher(NewEmbeddingClient(server.URL, ""), ix)
	match, err := matcher.Recognize(context.Background(), []byte("fake image data"))
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if match != nil {
		t.Errorf("expected no match, got %+v", match)
	}
}

func TestMatcherRecognizesEnrolledUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"faces_count": 1,
			"faces": [{"face_index": 0, "dim": 2, "embedding": [1, 0], "det_score": 0.9}],
			"model": "arcface"
		}`))
	}))
	defer server.Close()

	ix := NewIndex()
	if err := ix.Add("jiri.novak", []float32{1, 0}); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	matcher := NewMatcher(NewEmbeddingClient(server.URL, ""), ix)
	match, err := matcher.Recognize(context.Background(), []byte("fake image data"))
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if match == nil {
		t.Fatal("expected a match")
	}
	if match.UserID != "jiri.novak" {
		t.Errorf("expected jiri.novak, got %q", match.UserID)
	}
	if match.Confidence < 0.99 {
		t.Errorf("expected confidence near 1, got %f", match.Confidence)
	}
}

package recognize

import (
	"context"
	"fmt"
)

// Matcher recognizes snapshots by computing a face embedding and searching
// the enrollment index for the nearest user.
type Matcher struct {
	embeddings *EmbeddingClient
	index      *Index
}

// NewMatcher creates a matcher over the given embedding server and index.
func NewMatcher(embeddings *EmbeddingClient, index *Index) *Matcher {
	return &Matcher{
		embeddings: embeddings,
		index:      index,
	}
}

// Index exposes the enrollment index so new users can be added at runtime.
func (m *Matcher) Index() *Index {
	return m.index
}

func (m *Matcher) Recognize(ctx context.Context, jpeg []byte) (*Match, error) {
	embedding, err := m.embeddings.ComputeFaceEmbedding(ctx, jpeg)
	if err != nil {
		return nil, fmt.Errorf("failed to compute embedding: %w", err)
	}
	if embedding == nil {
		return nil, nil
	}

	userID, confidence, ok := m.index.Match(embedding)
	if !ok {
		return nil, nil
	}

	return &Match{UserID: userID, Confidence: confidence}, nil
}

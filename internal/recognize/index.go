package recognize

import (
	"errors"
	"sync"

	"github.com/coder/hnsw"
)

const (
	indexMaxNeighbors = 16
	indexSearchK      = 4
)

// Index holds face embeddings of enrolled users and answers nearest-neighbor
// queries. Several embeddings may be enrolled for the same user.
type Index struct {
	graph    *hnsw.Graph[int64]
	idToUser map[int64]string
	nextID   int64
	mu       sync.RWMutex
}

// NewIndex creates a new empty index.
func NewIndex() *Index {
	g := hnsw.NewGraph[int64]()
	g.M = indexMaxNeighbors
	g.Ml = 1.0 / float64(indexMaxNeighbors) // Standard HNSW formula
	g.Distance = hnsw.CosineDistance

	return &Index{
		graph:    g,
		idToUser: make(map[int64]string),
	}
}

// Add enrolls an embedding for the given user.
func (ix *Index) Add(userID string, embedding []float32) error {
	if len(embedding) == 0 {
		return errors.New("empty embedding")
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	id := ix.nextID
	ix.nextID++

	ix.graph.Add(hnsw.MakeNode(id, embedding))
	ix.idToUser[id] = userID
	return nil
}

// Match finds the enrolled user closest to the query embedding. The returned
// confidence is cosine similarity in the 0-1 range. ok is false when the
// index is empty.
func (ix *Index) Match(query []float32) (userID string, confidence float64, ok bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.idToUser) == 0 {
		return "", 0, false
	}

	neighbors := ix.graph.Search(query, indexSearchK)
	if len(neighbors) == 0 {
		return "", 0, false
	}

	best := neighbors[0]
	similarity := 1.0 - float64(hnsw.CosineDistance(query, best.Value))
	if similarity < 0 {
		similarity = 0
	}
	if similarity > 1 {
		similarity = 1
	}

	return ix.idToUser[best.Key], similarity, true
}

// Len returns the number of enrolled embeddings.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.idToUser)
}

// Users returns the distinct user IDs with at least one enrolled embedding.
func (ix *Index) Users() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	seen := make(map[string]struct{}, len(ix.idToUser))
	users := make([]string, 0, len(ix.idToUser))
	for _, u := range ix.idToUser {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		users = append(users, u)
	}
	return users
}

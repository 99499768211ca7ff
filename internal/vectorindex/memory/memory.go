// Package memory implements an in-process vector index using brute-force cosine similarity.
package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/formbricks/feedback-pulse/internal/models"
	"github.com/formbricks/feedback-pulse/pkg/embeddings"
)

// ErrDimensionMismatch is returned when a vector does not match the index dimension.
var ErrDimensionMismatch = errors.New("memory index: vector dimension mismatch")

type entry struct {
	values   []float32
	metadata models.VectorMetadata
}

// Index is a process-local vector index. Safe for concurrent use.
type Index struct {
	mu        sync.RWMutex
	dimension int
	entries   map[string]entry
}

// NewIndex creates an empty index for vectors of the given dimension.
func NewIndex(dimension int) *Index {
	return &Index{
		dimension: dimension,
		entries:   make(map[string]entry),
	}
}

// Upsert stores or replaces the vector for id.
func (s *Index) Upsert(_ context.Context, id string, values []float32, metadata models.VectorMetadata) error {
	if len(values) != s.dimension {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(values), s.dimension)
	}

	stored := make([]float32, len(values))
	copy(stored, values)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[id] = entry{values: stored, metadata: metadata}

	return nil
}

// Query returns up to opts.TopK matches ordered by descending cosine similarity.
// Ties are broken by id so results are deterministic.
func (s *Index) Query(
	_ context.Context, values []float32, opts models.VectorQueryOptions,
) ([]models.VectorMatch, error) {
	if len(values) != s.dimension {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(values), s.dimension)
	}

	if opts.TopK <= 0 {
		return []models.VectorMatch{}, nil
	}

	s.mu.RLock()
	matches := make([]models.VectorMatch, 0, len(s.entries))
	for id, e := range s.entries {
		m := models.VectorMatch{
			ID:    id,
			Score: embeddings.CosineSimilarity(e.values, values),
		}

		if opts.ReturnMetadata {
			md := e.metadata
			m.Metadata = &md
		}

		matches = append(matches, m)
	}
	s.mu.RUnlock()

	slices.SortFunc(matches, func(a, b models.VectorMatch) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return strings.Compare(a.ID, b.ID)
		}
	})

	if len(matches) > opts.TopK {
		matches = matches[:opts.TopK]
	}

	return matches, nil
}

// Len returns the number of stored vectors.
func (s *Index) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

package service

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/formbricks/feedback-pulse/internal/models"
	"github.com/formbricks/feedback-pulse/internal/observability"
	"github.com/formbricks/feedback-pulse/pkg/cache"
)

// EmbeddingClient generates embedding vectors for text.
// Implemented by provider-specific clients (e.g. OpenAI, Google Gemini).
type EmbeddingClient interface {
	CreateEmbedding(ctx context.Context, input string) ([]float32, error)
}

// CompletionClient sends role-tagged messages to a chat model and returns the text reply.
type CompletionClient interface {
	Complete(ctx context.Context, messages []models.ChatMessage) (string, error)
}

// VectorIndex stores embeddings by feedback id and answers nearest-neighbour queries.
// Implemented by repository.EmbeddingsRepository (pgvector), qdrant.Client and memory.Index.
type VectorIndex interface {
	Upsert(ctx context.Context, id string, values []float32, metadata models.VectorMetadata) error
	Query(ctx context.Context, values []float32, opts models.VectorQueryOptions) ([]models.VectorMatch, error)
}

// CachingEmbeddingClient memoizes embeddings by exact input text. Identical text always yields the
// same vector, so a hit is equivalent to re-embedding.
type CachingEmbeddingClient struct {
	inner   EmbeddingClient
	cache   *cache.LoaderCache[string, []float32]
	metrics observability.CacheMetrics
}

// NewCachingEmbeddingClient wraps inner with an LRU of the given size. metrics may be nil.
func NewCachingEmbeddingClient(
	inner EmbeddingClient, size int, metrics observability.CacheMetrics,
) (*CachingEmbeddingClient, error) {
	c, err := cache.NewLoaderCache[string, []float32](size, cache.HashKey)
	if err != nil {
		return nil, fmt.Errorf("embedding cache: %w", err)
	}

	return &CachingEmbeddingClient{inner: inner, cache: c, metrics: metrics}, nil
}

// CreateEmbedding implements EmbeddingClient.
func (c *CachingEmbeddingClient) CreateEmbedding(ctx context.Context, input string) ([]float32, error) {
	vec, hit, err := c.cache.Get(ctx, input, c.inner.CreateEmbedding)
	if err != nil {
		//nolint:wrapcheck // keep the provider's EmbeddingError as the outermost error
		return nil, err
	}

	if c.metrics != nil {
		c.metrics.RecordLookup(ctx, observability.CacheNameEmbedding, hit)
	}

	// Callers must not be able to mutate the cached slice.
	out := make([]float32, len(vec))
	copy(out, vec)

	return out, nil
}

// RateLimitedEmbeddingClient blocks each call until the limiter admits it.
type RateLimitedEmbeddingClient struct {
	inner   EmbeddingClient
	limiter *rate.Limiter
}

// NewRateLimitedEmbeddingClient allows perSecond calls per second with a burst of one second's worth.
func NewRateLimitedEmbeddingClient(inner EmbeddingClient, perSecond float64) *RateLimitedEmbeddingClient {
	burst := max(int(perSecond), 1)

	return &RateLimitedEmbeddingClient{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// CreateEmbedding implements EmbeddingClient.
func (c *RateLimitedEmbeddingClient) CreateEmbedding(ctx context.Context, input string) ([]float32, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embedding rate limit: %w", err)
	}

	//nolint:wrapcheck // pass-through decorator
	return c.inner.CreateEmbedding(ctx, input)
}

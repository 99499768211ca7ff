// Package providers builds the AI and vector index clients selected by configuration.
package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/formbricks/feedback-pulse/internal/config"
	"github.com/formbricks/feedback-pulse/internal/googleai"
	"github.com/formbricks/feedback-pulse/internal/observability"
	"github.com/formbricks/feedback-pulse/internal/openai"
	"github.com/formbricks/feedback-pulse/internal/repository"
	"github.com/formbricks/feedback-pulse/internal/service"
	"github.com/formbricks/feedback-pulse/internal/vectorindex/memory"
	"github.com/formbricks/feedback-pulse/internal/vectorindex/qdrant"
)

var (
	// ErrUnsupportedProvider is returned for an AI provider other than openai or google.
	ErrUnsupportedProvider = errors.New("unsupported AI provider")
	// ErrUnsupportedVectorIndex is returned for an unknown VECTOR_INDEX_PROVIDER.
	ErrUnsupportedVectorIndex = errors.New("unsupported vector index provider")
)

// AIClient is implemented by both provider clients: embeddings plus chat completion.
type AIClient interface {
	service.EmbeddingClient
	service.CompletionClient
}

// AIClients holds the clients resolved from configuration. Completion is nil when its provider has
// no API key, in which case the classifier falls back to defaults.
type AIClients struct {
	Completion service.CompletionClient
	Embedder   service.EmbeddingClient
}

// NewAIClients resolves the completion and embedding clients. When both use the same provider they
// share one client. The embedder is wrapped with the rate limiter and cache when configured.
func NewAIClients(ctx context.Context, cfg *config.Config, cacheMetrics observability.CacheMetrics) (*AIClients, error) {
	clients := make(map[string]AIClient, 2)

	get := func(provider string) (AIClient, error) {
		if c, ok := clients[provider]; ok {
			return c, nil
		}

		c, err := NewAIClient(ctx, cfg, provider)
		if err != nil {
			return nil, err
		}

		clients[provider] = c

		return c, nil
	}

	out := &AIClients{}

	if cfg.APIKeyFor(cfg.AIProvider) == "" {
		slog.Warn("classification disabled: no API key for AI_PROVIDER; sentiment defaults to neutral",
			"provider", cfg.AIProvider)
	} else {
		c, err := get(cfg.AIProvider)
		if err != nil {
			return nil, err
		}

		out.Completion = c
	}

	if cfg.APIKeyFor(cfg.EmbeddingProvider) == "" {
		slog.Warn("no API key for EMBEDDING_PROVIDER; indexing and similarity requests will fail",
			"provider", cfg.EmbeddingProvider)
	}

	base, err := get(cfg.EmbeddingProvider)
	if err != nil {
		return nil, err
	}

	var embedder service.EmbeddingClient = base

	if cfg.EmbeddingRateLimit > 0 {
		embedder = service.NewRateLimitedEmbeddingClient(embedder, cfg.EmbeddingRateLimit)
	}

	// Cache outside the limiter so hits never wait for a token.
	if cfg.EmbeddingCacheSize > 0 {
		cached, err := service.NewCachingEmbeddingClient(embedder, cfg.EmbeddingCacheSize, cacheMetrics)
		if err != nil {
			return nil, fmt.Errorf("create embedding cache: %w", err)
		}

		embedder = cached
	}

	out.Embedder = embedder

	slog.Info("AI providers configured",
		"completion_provider", cfg.AIProvider, "embedding_provider", cfg.EmbeddingProvider,
		"embedding_dimensions", cfg.EmbeddingDimensions,
		"embedding_rate_limit", cfg.EmbeddingRateLimit, "embedding_cache_size", cfg.EmbeddingCacheSize)

	return out, nil
}

// NewAIClient creates the client for one provider with the configured models, dimensions and timeout.
func NewAIClient(ctx context.Context, cfg *config.Config, provider string) (AIClient, error) {
	apiKey := cfg.APIKeyFor(provider)

	switch provider {
	case config.ProviderOpenAI:
		return openai.NewClient(apiKey,
			openai.WithEmbeddingModel(cfg.EmbeddingModel),
			openai.WithChatModel(cfg.ChatModel),
			openai.WithDimensions(cfg.EmbeddingDimensions),
			openai.WithTimeout(cfg.UpstreamTimeout),
		), nil
	case config.ProviderGoogle:
		client, err := googleai.NewClient(ctx, apiKey,
			googleai.WithEmbeddingModel(cfg.EmbeddingModel),
			googleai.WithChatModel(cfg.ChatModel),
			googleai.WithDimensions(cfg.EmbeddingDimensions),
			googleai.WithTimeout(cfg.UpstreamTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("create google client: %w", err)
		}

		return client, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}
}

// NewVectorIndex returns the configured vector index. For qdrant the collection is created when
// missing; the memory index is empty on every start.
func NewVectorIndex(ctx context.Context, cfg *config.Config, db *pgxpool.Pool) (service.VectorIndex, error) {
	switch cfg.VectorIndexProvider {
	case config.VectorIndexPgvector:
		return repository.NewEmbeddingsRepository(db), nil
	case config.VectorIndexQdrant:
		client := qdrant.NewClient(qdrant.ClientOptions{
			BaseURL:    cfg.QdrantURL,
			APIKey:     cfg.QdrantAPIKey,
			Collection: cfg.QdrantCollection,
			Dimension:  cfg.EmbeddingDimensions,
			Timeout:    cfg.UpstreamTimeout,
		})

		if err := client.EnsureCollection(ctx); err != nil {
			return nil, fmt.Errorf("ensure qdrant collection: %w", err)
		}

		return client, nil
	case config.VectorIndexMemory:
		slog.Warn("using in-memory vector index; run a backfill after every restart")

		return memory.NewIndex(cfg.EmbeddingDimensions), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVectorIndex, cfg.VectorIndexProvider)
	}
}

// Package googleai provides a thin wrapper around the Google Gen AI SDK (Gemini API) for embeddings and text generation.
package googleai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/formbricks/feedback-pulse/internal/huberrors"
	"github.com/formbricks/feedback-pulse/internal/models"
	"github.com/formbricks/feedback-pulse/pkg/embeddings"
)

var (
	// ErrEmptyInput is returned when CreateEmbedding is called with empty input.
	ErrEmptyInput = errors.New("googleai: input text is empty")
	// ErrInvalidDims is returned when dimensions is not positive.
	ErrInvalidDims = errors.New("googleai: embedding dimensions must be positive")
	// ErrNoEmbeddingInResponse is returned when the API response contains no embedding data.
	ErrNoEmbeddingInResponse = errors.New("googleai: no embedding in response")
	// ErrDimensionMismatch is returned when the response embedding length does not match configured dimensions.
	ErrDimensionMismatch = errors.New("googleai: embedding dimension mismatch")
	// ErrEmptyCompletion is returned when generation yields no text.
	ErrEmptyCompletion = errors.New("googleai: empty completion")
)

const (
	providerName          = "google"
	defaultDimension      = 768
	defaultEmbeddingModel = "gemini-embedding-001"
	defaultChatModel      = "gemini-2.5-flash"
)

// Client calls the Gemini embeddings and generation APIs via the Google Gen AI SDK.
type Client struct {
	client         *genai.Client
	embeddingModel string
	chatModel      string
	dimensions     int
	timeout        time.Duration
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithDimensions sets the requested embedding dimension (must match the vector index).
func WithDimensions(dim int) ClientOption {
	return func(c *Client) {
		c.dimensions = dim
	}
}

// WithEmbeddingModel sets the embedding model name (e.g. gemini-embedding-001). Empty uses default.
func WithEmbeddingModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.embeddingModel = model
		}
	}
}

// WithChatModel sets the generation model name. Empty uses default.
func WithChatModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.chatModel = model
		}
	}
}

// WithTimeout bounds every request made by the client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// NewClient creates a Gemini client.
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	client := &Client{
		embeddingModel: defaultEmbeddingModel,
		chatModel:      defaultChatModel,
		dimensions:     defaultDimension,
	}
	for _, opt := range opts {
		opt(client)
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if client.timeout > 0 {
		cfg.HTTPOptions = genai.HTTPOptions{Timeout: &client.timeout}
	}

	genaiClient, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("googleai client: %w", err)
	}

	client.client = genaiClient

	return client, nil
}

// CreateEmbedding returns the embedding vector for the given text using the configured model.
// Gemini only normalizes full-size vectors, so truncated outputs are L2-normalized here.
func (c *Client) CreateEmbedding(ctx context.Context, input string) ([]float32, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyInput
	}

	if c.dimensions <= 0 || c.dimensions > math.MaxInt32 {
		return nil, ErrInvalidDims
	}

	contents := []*genai.Content{genai.NewContentFromText(input, genai.RoleUser)}
	//nolint:gosec // G115: c.dimensions is bounded above by math.MaxInt32
	dimInt32 := int32(c.dimensions)

	resp, err := c.client.Models.EmbedContent(ctx, c.embeddingModel, contents, &genai.EmbedContentConfig{
		TaskType:             "SEMANTIC_SIMILARITY",
		OutputDimensionality: &dimInt32,
	})
	if err != nil {
		return nil, huberrors.NewEmbeddingError(providerName, err)
	}

	if len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, huberrors.NewEmbeddingError(providerName, ErrNoEmbeddingInResponse)
	}

	emb := resp.Embeddings[0].Values
	if len(emb) != c.dimensions {
		return nil, huberrors.NewEmbeddingError(providerName,
			fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(emb), c.dimensions))
	}

	out := make([]float32, len(emb))
	copy(out, emb)
	embeddings.NormalizeL2(out)

	return out, nil
}

// Complete generates text from role-tagged messages. System messages become the system instruction.
func (c *Client) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	var (
		system []string
		user   []*genai.Content
	)

	for _, m := range messages {
		if m.Role == models.ChatRoleSystem {
			system = append(system, m.Content)

			continue
		}

		user = append(user, genai.NewContentFromText(m.Content, genai.RoleUser))
	}

	cfg := &genai.GenerateContentConfig{}
	if len(system) > 0 {
		cfg.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.chatModel, user, cfg)
	if err != nil {
		return "", huberrors.NewUpstreamError(providerName, err)
	}

	text := resp.Text()
	if text == "" {
		return "", huberrors.NewUpstreamError(providerName, ErrEmptyCompletion)
	}

	return text, nil
}

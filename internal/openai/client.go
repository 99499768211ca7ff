// Package openai provides a thin wrapper around the official OpenAI Go SDK for embeddings and chat completions.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"

	"github.com/formbricks/feedback-pulse/internal/huberrors"
	"github.com/formbricks/feedback-pulse/internal/models"
)

var (
	// ErrEmptyInput is returned when CreateEmbedding is called with empty input.
	ErrEmptyInput = errors.New("openai: input text is empty")
	// ErrInvalidDims is returned when dimensions is not positive.
	ErrInvalidDims = errors.New("openai: embedding dimensions must be positive")
	// ErrNoEmbeddingInResponse is returned when the API response contains no embedding data.
	ErrNoEmbeddingInResponse = errors.New("openai: no embedding in response")
	// ErrDimensionMismatch is returned when the response embedding length does not match configured dimensions.
	ErrDimensionMismatch = errors.New("openai: embedding dimension mismatch")
	// ErrNoChoices is returned when a chat completion has no choices.
	ErrNoChoices = errors.New("openai: no choices in completion response")
)

const (
	providerName          = "openai"
	defaultDimension      = 768
	defaultEmbeddingModel = openaisdk.EmbeddingModelTextEmbedding3Small
	defaultChatModel      = "gpt-4o-mini"
)

// Client calls the OpenAI embeddings and chat completions APIs via the official SDK.
type Client struct {
	sdk            openaisdk.Client
	dimensions     int
	embeddingModel string
	chatModel      string
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

// WithEmbeddingModel overrides the embedding model. Empty keeps the default.
func WithEmbeddingModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.embeddingModel = model
		}
	}
}

// WithChatModel overrides the chat model. Empty keeps the default.
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

// NewClient creates an OpenAI client using the official SDK.
// SDK retries are disabled; callers decide whether and how to retry.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	client := &Client{
		dimensions:     defaultDimension,
		embeddingModel: defaultEmbeddingModel,
		chatModel:      defaultChatModel,
	}

	for _, opt := range opts {
		opt(client)
	}

	sdkOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if client.timeout > 0 {
		sdkOpts = append(sdkOpts, option.WithRequestTimeout(client.timeout))
	}

	client.sdk = openaisdk.NewClient(sdkOpts...)

	return client
}

// CreateEmbedding returns the embedding vector for the given text.
// The returned slice length equals the configured dimensions.
// Upstream and payload failures are returned as *huberrors.EmbeddingError.
func (c *Client) CreateEmbedding(ctx context.Context, input string) ([]float32, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyInput
	}

	if c.dimensions <= 0 {
		return nil, ErrInvalidDims
	}

	resp, err := c.sdk.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfString: param.NewOpt(input),
		},
		Model:      c.embeddingModel,
		Dimensions: param.NewOpt(int64(c.dimensions)),
	})
	if err != nil {
		return nil, huberrors.NewEmbeddingError(providerName, err)
	}

	if len(resp.Data) == 0 {
		return nil, huberrors.NewEmbeddingError(providerName, ErrNoEmbeddingInResponse)
	}

	emb := resp.Data[0].Embedding
	if len(emb) != c.dimensions {
		return nil, huberrors.NewEmbeddingError(providerName,
			fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(emb), c.dimensions))
	}

	out := make([]float32, len(emb))
	for i := range emb {
		out[i] = float32(emb[i])
	}

	return out, nil
}

// Complete sends role-tagged messages to the chat model and returns the first choice's text.
func (c *Client) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	params := openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(c.chatModel),
		Messages: make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(messages)),
	}

	for _, m := range messages {
		switch m.Role {
		case models.ChatRoleSystem:
			params.Messages = append(params.Messages, openaisdk.SystemMessage(m.Content))
		default:
			params.Messages = append(params.Messages, openaisdk.UserMessage(m.Content))
		}
	}

	resp, err := c.sdk.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", huberrors.NewUpstreamError(providerName, err)
	}

	if len(resp.Choices) == 0 {
		return "", huberrors.NewUpstreamError(providerName, ErrNoChoices)
	}

	return resp.Choices[0].Message.Content, nil
}

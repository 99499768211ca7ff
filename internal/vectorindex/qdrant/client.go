// Package qdrant implements the vector index on top of the Qdrant REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/formbricks/feedback-pulse/internal/huberrors"
	"github.com/formbricks/feedback-pulse/internal/models"
)

const serviceName = "qdrant"

var (
	// ErrInvalidPointID is returned when an id cannot be used as a Qdrant point id.
	ErrInvalidPointID = errors.New("qdrant: point id must be a positive integer")
	// ErrDimensionMismatch is returned when a vector does not match the collection dimension.
	ErrDimensionMismatch = errors.New("qdrant: vector dimension mismatch")
)

// ClientOptions configures the Qdrant client.
type ClientOptions struct {
	// BaseURL is the Qdrant HTTP endpoint, e.g. http://localhost:6333.
	BaseURL string
	// APIKey is sent as the api-key header when set.
	APIKey     string
	Collection string
	Dimension  int
	// RetryMax is the maximum number of retries (default: 2).
	RetryMax int
	// Timeout is the HTTP client timeout (default: 15 seconds).
	Timeout time.Duration
}

// Client is a vector index backed by a single Qdrant collection using cosine distance.
type Client struct {
	baseURL    string
	apiKey     string
	collection string
	dimension  int
	httpClient *retryablehttp.Client
}

// NewClient creates a Qdrant client.
func NewClient(opts ClientOptions) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}

	if opts.RetryMax == 0 {
		opts.RetryMax = 2
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.HTTPClient.Timeout = opts.Timeout
	retryClient.Logger = nil

	return &Client{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		collection: opts.Collection,
		dimension:  opts.Dimension,
		httpClient: retryClient,
	}
}

type vectorParams struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

type point struct {
	ID      uint64       `json:"id"`
	Vector  []float32    `json:"vector"`
	Payload pointPayload `json:"payload"`
}

type pointPayload struct {
	Source     string `json:"source"`
	Sentiment  string `json:"sentiment"`
	EmbeddedAt string `json:"embedded_at"`
}

type searchRequest struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
}

type searchResponse struct {
	Result []struct {
		ID      json.RawMessage `json:"id"`
		Score   float64         `json:"score"`
		Payload *pointPayload   `json:"payload"`
	} `json:"result"`
}

// EnsureCollection creates the collection with cosine distance when it does not exist yet.
func (c *Client) EnsureCollection(ctx context.Context) error {
	status, err := c.do(ctx, http.MethodGet, c.collectionURL(), nil, nil)
	if err == nil {
		return nil
	}

	if status != http.StatusNotFound {
		return err
	}

	body := map[string]any{
		"vectors": vectorParams{Size: c.dimension, Distance: "Cosine"},
	}

	if _, err := c.do(ctx, http.MethodPut, c.collectionURL(), body, nil); err != nil {
		return err
	}

	slog.InfoContext(ctx, "qdrant collection created", "collection", c.collection, "dimension", c.dimension)

	return nil
}

// Upsert stores or replaces the vector for id. Feedback ids are used directly as point ids.
func (c *Client) Upsert(ctx context.Context, id string, values []float32, metadata models.VectorMetadata) error {
	pointID, err := strconv.ParseUint(id, 10, 64)
	if err != nil || pointID == 0 {
		return fmt.Errorf("%w: %q", ErrInvalidPointID, id)
	}

	if c.dimension > 0 && len(values) != c.dimension {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(values), c.dimension)
	}

	body := map[string]any{
		"points": []point{{
			ID:     pointID,
			Vector: values,
			Payload: pointPayload{
				Source:     metadata.Source,
				Sentiment:  string(metadata.Sentiment),
				EmbeddedAt: metadata.EmbeddedAt.UTC().Format(time.RFC3339Nano),
			},
		}},
	}

	if _, err := c.do(ctx, http.MethodPut, c.collectionURL()+"/points?wait=true", body, nil); err != nil {
		return err
	}

	return nil
}

// Query returns up to opts.TopK nearest points ordered by descending cosine similarity.
func (c *Client) Query(
	ctx context.Context, values []float32, opts models.VectorQueryOptions,
) ([]models.VectorMatch, error) {
	if opts.TopK <= 0 {
		return []models.VectorMatch{}, nil
	}

	req := searchRequest{
		Vector:      values,
		Limit:       opts.TopK,
		WithPayload: opts.ReturnMetadata,
	}

	var resp searchResponse
	if _, err := c.do(ctx, http.MethodPost, c.collectionURL()+"/points/search", req, &resp); err != nil {
		return nil, err
	}

	matches := make([]models.VectorMatch, 0, len(resp.Result))
	for _, r := range resp.Result {
		m := models.VectorMatch{
			ID:    strings.Trim(string(r.ID), `"`),
			Score: r.Score,
		}

		if opts.ReturnMetadata && r.Payload != nil {
			m.Metadata = payloadToMetadata(r.Payload)
		}

		matches = append(matches, m)
	}

	return matches, nil
}

func payloadToMetadata(p *pointPayload) *models.VectorMetadata {
	md := &models.VectorMetadata{
		Source:    p.Source,
		Sentiment: models.Sentiment(p.Sentiment),
	}

	if ts, err := time.Parse(time.RFC3339Nano, p.EmbeddedAt); err == nil {
		md.EmbeddedAt = ts
	}

	return md
}

func (c *Client) collectionURL() string {
	return fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
}

// do sends a JSON request and decodes the JSON response into out when non-nil.
// It returns the HTTP status code (0 on transport failure).
func (c *Client) do(ctx context.Context, method, url string, body, out any) (int, error) {
	var payload []byte
	if body != nil {
		var err error

		payload, err = json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal qdrant request: %w", err)
		}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, huberrors.NewUpstreamError(serviceName, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.ErrorContext(ctx, "Failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

		return resp.StatusCode, huberrors.NewUpstreamError(serviceName,
			fmt.Errorf("%s %s returned %d: %s", method, url, resp.StatusCode, strings.TrimSpace(string(msg))))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, huberrors.NewUpstreamError(serviceName,
				fmt.Errorf("failed to decode response: %w", err))
		}
	}

	return resp.StatusCode, nil
}

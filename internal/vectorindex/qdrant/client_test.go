package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbricks/feedback-pulse/internal/huberrors"
	"github.com/formbricks/feedback-pulse/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(ClientOptions{
		BaseURL:    srv.URL,
		APIKey:     "secret",
		Collection: "feedback",
		Dimension:  3,
		RetryMax:   -1,
	})
}

func TestClient_Upsert(t *testing.T) {
	var got map[string][]map[string]any

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/collections/feedback/points", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("wait"))
		assert.Equal(t, "secret", r.Header.Get("api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	md := models.VectorMetadata{
		Source:     "email",
		Sentiment:  models.SentimentNegative,
		EmbeddedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	err := client.Upsert(context.Background(), "42", []float32{0.1, 0.2, 0.3}, md)
	require.NoError(t, err)

	require.Len(t, got["points"], 1)
	p := got["points"][0]
	assert.InDelta(t, 42, p["id"], 0)
	payload := p["payload"].(map[string]any)
	assert.Equal(t, "email", payload["source"])
	assert.Equal(t, "negative", payload["sentiment"])
	assert.Equal(t, "2025-01-02T03:04:05Z", payload["embedded_at"])
}

func TestClient_UpsertRejectsBadInput(t *testing.T) {
	client := newTestClient(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatal("no request expected")
	})

	err := client.Upsert(context.Background(), "abc", []float32{1, 2, 3}, models.VectorMetadata{})
	require.ErrorIs(t, err, ErrInvalidPointID)

	err = client.Upsert(context.Background(), "1", []float32{1, 2}, models.VectorMetadata{})
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestClient_Query(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/collections/feedback/points/search", r.URL.Path)

		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 6, req.Limit)
		assert.True(t, req.WithPayload)

		_, _ = w.Write([]byte(`{"result":[
			{"id":7,"score":0.93,"payload":{"source":"chat","sentiment":"negative","embedded_at":"2025-01-02T03:04:05Z"}},
			{"id":3,"score":0.71,"payload":{"source":"email","sentiment":"neutral","embedded_at":""}}
		]}`))
	})

	got, err := client.Query(context.Background(), []float32{1, 0, 0}, models.VectorQueryOptions{TopK: 6, ReturnMetadata: true})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "7", got[0].ID)
	assert.InDelta(t, 0.93, got[0].Score, 1e-9)
	require.NotNil(t, got[0].Metadata)
	assert.Equal(t, "chat", got[0].Metadata.Source)
	assert.Equal(t, models.SentimentNegative, got[0].Metadata.Sentiment)
	assert.Equal(t, "3", got[1].ID)
	assert.True(t, got[1].Metadata.EmbeddedAt.IsZero())
}

func TestClient_QueryUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad vector", http.StatusBadRequest)
	})

	_, err := client.Query(context.Background(), []float32{1, 0, 0}, models.VectorQueryOptions{TopK: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, huberrors.ErrUpstream)
}

func TestClient_EnsureCollection(t *testing.T) {
	t.Run("creates missing collection", func(t *testing.T) {
		var created map[string]vectorParams

		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				http.Error(w, "not found", http.StatusNotFound)
			case http.MethodPut:
				require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
				_, _ = w.Write([]byte(`{"result":true}`))
			}
		})

		require.NoError(t, client.EnsureCollection(context.Background()))
		assert.Equal(t, vectorParams{Size: 3, Distance: "Cosine"}, created["vectors"])
	})

	t.Run("existing collection is left alone", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			_, _ = w.Write([]byte(`{"result":{}}`))
		})

		require.NoError(t, client.EnsureCollection(context.Background()))
	})
}

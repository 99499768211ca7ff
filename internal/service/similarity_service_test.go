package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbricks/feedback-pulse/internal/huberrors"
	"github.com/formbricks/feedback-pulse/internal/models"
	"github.com/formbricks/feedback-pulse/internal/vectorindex/memory"
)

func seedRecords(n int) []models.FeedbackRecord {
	out := make([]models.FeedbackRecord, n)
	for i := range out {
		out[i] = models.FeedbackRecord{
			ID: int64(i + 1), Source: "email", Message: fmt.Sprintf("message %d", i+1),
			Sentiment: models.SentimentNeutral,
		}
	}

	return out
}

func constEmbedder() *mockEmbedder {
	return &mockEmbedder{fn: func(string) ([]float32, error) { return []float32{1, 0, 0}, nil }}
}

func matchesFor(scores map[string]float64, order ...string) func(models.VectorQueryOptions) ([]models.VectorMatch, error) {
	return func(opts models.VectorQueryOptions) ([]models.VectorMatch, error) {
		out := []models.VectorMatch{}
		for _, id := range order {
			if len(out) == opts.TopK {
				break
			}

			out = append(out, models.VectorMatch{ID: id, Score: scores[id]})
		}

		return out, nil
	}
}

func TestFindSimilar_ExcludesSelfAndAppliesThreshold(t *testing.T) {
	repo := &mockFeedbackRepo{records: seedRecords(6)}
	index := &mockIndex{queryFn: matchesFor(
		map[string]float64{"1": 1.0, "2": 0.91, "3": 0.75, "4": 0.6, "5": 0.59, "6": 0.1},
		"1", "2", "3", "4", "5", "6",
	)}

	svc := NewSimilarityService(SimilarityServiceParams{Repo: repo, Embedder: constEmbedder(), Index: index})

	got, err := svc.FindSimilar(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, int64(1), got.Original.ID)
	assert.Equal(t, []models.SimilarityScore{{ID: "2", Score: 0.91}, {ID: "3", Score: 0.75}, {ID: "4", Score: 0.6}}, got.Scores)
	require.Len(t, got.Similar, 3)
	assert.Equal(t, []int64{2, 3, 4}, []int64{got.Similar[0].ID, got.Similar[1].ID, got.Similar[2].ID})

	for _, s := range got.Scores {
		assert.GreaterOrEqual(t, s.Score, DefaultMinSimilarityScore)
		assert.NotEqual(t, "1", s.ID)
	}
}

func TestFindSimilar_BoundedAndParallel(t *testing.T) {
	repo := &mockFeedbackRepo{records: seedRecords(12)}

	var requestedTopK int

	order := []string{"3", "4", "5", "6", "7", "8", "9", "10", "11", "12"}
	scores := map[string]float64{}

	for i, id := range order {
		scores[id] = 0.99 - float64(i)*0.01
	}

	index := &mockIndex{queryFn: func(opts models.VectorQueryOptions) ([]models.VectorMatch, error) {
		requestedTopK = opts.TopK
		assert.True(t, opts.ReturnMetadata)

		return matchesFor(scores, order...)(opts)
	}}

	svc := NewSimilarityService(SimilarityServiceParams{Repo: repo, Embedder: constEmbedder(), Index: index})

	got, err := svc.FindSimilar(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, DefaultSimilarLimit+1, requestedTopK)
	assert.Len(t, got.Similar, DefaultSimilarLimit)
	assert.Len(t, got.Scores, len(got.Similar))

	for i := range got.Similar {
		assert.Equal(t, VectorID(got.Similar[i].ID), got.Scores[i].ID)
	}
}

func TestFindSimilar_CustomLimitAndThreshold(t *testing.T) {
	repo := &mockFeedbackRepo{records: seedRecords(5)}
	index := &mockIndex{queryFn: matchesFor(
		map[string]float64{"2": 0.95, "3": 0.85, "4": 0.82, "5": 0.5}, "2", "3", "4", "5",
	)}

	svc := NewSimilarityService(SimilarityServiceParams{
		Repo: repo, Embedder: constEmbedder(), Index: index, Limit: 2, MinScore: floatPtr(0.8),
	})

	got, err := svc.FindSimilar(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []models.SimilarityScore{{ID: "2", Score: 0.95}, {ID: "3", Score: 0.85}}, got.Scores)
}

func TestFindSimilar_ExplicitThresholdsBelowDefault(t *testing.T) {
	scores := map[string]float64{"2": 0.4, "3": 0, "4": -0.3}

	tests := []struct {
		name     string
		minScore *float64
		want     []string
	}{
		{name: "nil uses default", minScore: nil, want: []string{}},
		{name: "zero keeps non-negative", minScore: floatPtr(0), want: []string{"2", "3"}},
		{name: "negative keeps anti-correlated", minScore: floatPtr(-0.5), want: []string{"2", "3", "4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockFeedbackRepo{records: seedRecords(4)}
			index := &mockIndex{queryFn: matchesFor(scores, "2", "3", "4")}

			svc := NewSimilarityService(SimilarityServiceParams{
				Repo: repo, Embedder: constEmbedder(), Index: index, MinScore: tt.minScore,
			})

			got, err := svc.FindSimilar(context.Background(), 1)
			require.NoError(t, err)

			ids := make([]string, 0, len(got.Scores))
			for _, s := range got.Scores {
				ids = append(ids, s.ID)
			}

			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestFindSimilar_NoMatchesSkipsHydration(t *testing.T) {
	repo := &mockFeedbackRepo{records: seedRecords(2)}
	index := &mockIndex{queryFn: matchesFor(map[string]float64{"1": 1, "2": 0.2}, "1", "2")}

	svc := NewSimilarityService(SimilarityServiceParams{Repo: repo, Embedder: constEmbedder(), Index: index})

	got, err := svc.FindSimilar(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, got.Similar)
	assert.NotNil(t, got.Scores)
	assert.Empty(t, got.Similar)
	assert.Empty(t, got.Scores)
	assert.Empty(t, repo.getByIDsSeen)
}

func TestFindSimilar_DropsStaleIndexEntries(t *testing.T) {
	repo := &mockFeedbackRepo{records: seedRecords(3)}
	index := &mockIndex{queryFn: matchesFor(
		map[string]float64{"99": 0.97, "3": 0.9, "2": 0.8}, "99", "3", "2",
	)}

	svc := NewSimilarityService(SimilarityServiceParams{Repo: repo, Embedder: constEmbedder(), Index: index})

	got, err := svc.FindSimilar(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, repo.getByIDsSeen, 1)
	assert.Equal(t, []int64{99, 3, 2}, repo.getByIDsSeen[0])
	assert.Equal(t, []models.SimilarityScore{{ID: "3", Score: 0.9}, {ID: "2", Score: 0.8}}, got.Scores)
	assert.Equal(t, int64(3), got.Similar[0].ID)
	assert.Equal(t, int64(2), got.Similar[1].ID)
}

func TestFindSimilar_NotFound(t *testing.T) {
	embedder := constEmbedder()
	svc := NewSimilarityService(SimilarityServiceParams{
		Repo: &mockFeedbackRepo{}, Embedder: embedder, Index: &mockIndex{},
	})

	_, err := svc.FindSimilar(context.Background(), 42)
	require.ErrorIs(t, err, huberrors.ErrNotFound)
	assert.Empty(t, embedder.calls)
}

func TestFindSimilar_UpstreamFailures(t *testing.T) {
	t.Run("embedding", func(t *testing.T) {
		embedder := &mockEmbedder{fn: func(string) ([]float32, error) {
			return nil, huberrors.NewEmbeddingError("openai", errors.New("429"))
		}}
		svc := NewSimilarityService(SimilarityServiceParams{
			Repo: &mockFeedbackRepo{records: seedRecords(1)}, Embedder: embedder, Index: &mockIndex{},
		})

		_, err := svc.FindSimilar(context.Background(), 1)
		require.ErrorIs(t, err, huberrors.ErrEmbedding)
	})

	t.Run("index", func(t *testing.T) {
		index := &mockIndex{queryFn: func(models.VectorQueryOptions) ([]models.VectorMatch, error) {
			return nil, huberrors.NewUpstreamError("qdrant", errors.New("connection refused"))
		}}
		svc := NewSimilarityService(SimilarityServiceParams{
			Repo: &mockFeedbackRepo{records: seedRecords(1)}, Embedder: constEmbedder(), Index: index,
		})

		_, err := svc.FindSimilar(context.Background(), 1)
		require.ErrorIs(t, err, huberrors.ErrUpstream)
	})

	t.Run("hydration", func(t *testing.T) {
		repo := &mockFeedbackRepo{records: seedRecords(2), getByIDsErr: errors.New("db gone")}
		index := &mockIndex{queryFn: matchesFor(map[string]float64{"2": 0.9}, "2")}
		svc := NewSimilarityService(SimilarityServiceParams{Repo: repo, Embedder: constEmbedder(), Index: index})

		_, err := svc.FindSimilar(context.Background(), 1)
		require.Error(t, err)
	})
}

func TestFindSimilar_ReembedsCurrentMessage(t *testing.T) {
	repo := &mockFeedbackRepo{records: seedRecords(1)}
	embedder := constEmbedder()
	index := &mockIndex{queryFn: matchesFor(nil)}

	svc := NewSimilarityService(SimilarityServiceParams{Repo: repo, Embedder: embedder, Index: index})

	_, err := svc.FindSimilar(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"message 1"}, embedder.calls)
}

func TestFindSimilar_CrashThemedRanking(t *testing.T) {
	vectors := map[string][]float32{
		"App crashes on login":                    {1, 0, 0},
		"The app crashed when I uploaded a photo": {0.95, 0.31, 0},
		"Crash after update, lost my data":        {0.8, 0.6, 0},
		"Love the new dark mode":                  {0, 0, 1},
		"Pricing is too high":                     {0.3, 0, 0.95},
	}

	records := []models.FeedbackRecord{}
	for i, msg := range []string{
		"App crashes on login",
		"The app crashed when I uploaded a photo",
		"Crash after update, lost my data",
		"Love the new dark mode",
		"Pricing is too high",
	} {
		records = append(records, models.FeedbackRecord{ID: int64(i + 1), Source: "app-store", Message: msg})
	}

	repo := &mockFeedbackRepo{records: records}
	embedder := &mockEmbedder{fn: func(text string) ([]float32, error) { return vectors[text], nil }}
	index := memory.NewIndex(3)
	indexer := NewFeedbackIndexer(embedder, index)

	for i := range records {
		require.NoError(t, indexer.Index(context.Background(), &records[i]))
	}

	svc := NewSimilarityService(SimilarityServiceParams{Repo: repo, Embedder: embedder, Index: index})

	got, err := svc.FindSimilar(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, got.Similar, 2)
	assert.Equal(t, int64(2), got.Similar[0].ID)
	assert.Equal(t, int64(3), got.Similar[1].ID)
	assert.Greater(t, got.Scores[0].Score, got.Scores[1].Score)
}

func TestFilterMatches(t *testing.T) {
	in := []models.VectorMatch{{ID: "7", Score: 0.99}, {ID: "1", Score: 0.9}, {ID: "2", Score: 0.7}, {ID: "3", Score: 0.65}}

	assert.Equal(t, []models.VectorMatch{{ID: "1", Score: 0.9}, {ID: "2", Score: 0.7}}, FilterMatches(in, "7", 0.6, 2))
	assert.Empty(t, FilterMatches(in, "7", 0.995, 5))
	assert.Empty(t, FilterMatches(nil, "7", 0.6, 5))
}

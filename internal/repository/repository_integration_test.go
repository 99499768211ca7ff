package repository

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/formbricks/feedback-pulse/internal/huberrors"
	"github.com/formbricks/feedback-pulse/internal/models"
	"github.com/formbricks/feedback-pulse/pkg/database"
)

const testDimensions = 3

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx, "pgvector/pgvector:pg16",
		postgres.WithDatabase("feedback"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(container)
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// The extension must exist before pgxvec can look up the vector type.
	bootstrap, err := database.NewPostgresPool(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, database.EnsureSchema(ctx, bootstrap))
	require.NoError(t, database.EnsureVectorSchema(ctx, bootstrap, testDimensions))
	bootstrap.Close()

	db, err := database.NewPostgresPool(ctx, dsn, database.WithAfterConnect(func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}))
	require.NoError(t, err)
	t.Cleanup(db.Close)

	return db
}

func strPtr(s string) *string { return &s }

func TestFeedbackRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFeedbackRepository(db)
	ctx := context.Background()

	first, err := repo.Insert(ctx, &models.CreateFeedbackRequest{
		Source: "email", Message: "The app crashes on login", Author: strPtr("ana"),
	}, models.SentimentNegative)
	require.NoError(t, err)
	assert.Positive(t, first.ID)
	assert.False(t, first.Timestamp.IsZero())
	assert.Equal(t, "ana", *first.Author)
	assert.Nil(t, first.Category)

	second, err := repo.Insert(ctx, &models.CreateFeedbackRequest{
		Source: "chat", Message: "Love the new dashboard", Category: strPtr("ui"),
	}, models.SentimentPositive)
	require.NoError(t, err)

	third, err := repo.Insert(ctx, &models.CreateFeedbackRequest{
		Source: "email", Message: "Crash when exporting",
	}, models.SentimentNegative)
	require.NoError(t, err)

	t.Run("get by id", func(t *testing.T) {
		got, err := repo.GetByID(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, "Love the new dashboard", got.Message)
		assert.Equal(t, models.SentimentPositive, got.Sentiment)
		assert.Equal(t, "ui", *got.Category)
	})

	t.Run("get by id not found", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 999999)
		require.ErrorIs(t, err, huberrors.ErrNotFound)
	})

	t.Run("list all newest first", func(t *testing.T) {
		got, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, third.ID, got[0].ID)
		assert.Equal(t, first.ID, got[2].ID)
	})

	t.Run("list all by id", func(t *testing.T) {
		got, err := repo.ListAllByID(ctx)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, []int64{first.ID, second.ID, third.ID}, []int64{got[0].ID, got[1].ID, got[2].ID})
	})

	t.Run("get by ids skips missing", func(t *testing.T) {
		got, err := repo.GetByIDs(ctx, []int64{first.ID, third.ID, 424242})
		require.NoError(t, err)
		assert.Len(t, got, 2)

		empty, err := repo.GetByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("count", func(t *testing.T) {
		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("stats", func(t *testing.T) {
		stats, err := repo.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), stats.Total)
		assert.Equal(t, []models.SourceCount{{Source: "email", Count: 2}, {Source: "chat", Count: 1}}, stats.BySource)
		assert.Equal(t, []models.SentimentCount{
			{Sentiment: models.SentimentNegative, Count: 2},
			{Sentiment: models.SentimentPositive, Count: 1},
		}, stats.BySentiment)
	})

	t.Run("rejects unknown sentiment", func(t *testing.T) {
		_, err := repo.Insert(ctx, &models.CreateFeedbackRequest{Source: "x", Message: "y"}, models.Sentiment("angry"))
		require.Error(t, err)
	})
}

func TestEmbeddingsRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEmbeddingsRepository(db)
	ctx := context.Background()
	md := models.VectorMetadata{Source: "email", Sentiment: models.SentimentNegative, EmbeddedAt: time.Now()}

	require.NoError(t, repo.Upsert(ctx, "1", []float32{1, 0, 0}, md))
	require.NoError(t, repo.Upsert(ctx, "2", []float32{0.8, 0.2, 0}, md))
	require.NoError(t, repo.Upsert(ctx, "3", []float32{0, 1, 0}, md))

	t.Run("orders by cosine similarity", func(t *testing.T) {
		got, err := repo.Query(ctx, []float32{1, 0, 0}, models.VectorQueryOptions{TopK: 2, ReturnMetadata: true})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "1", got[0].ID)
		assert.InDelta(t, 1.0, got[0].Score, 1e-5)
		assert.Equal(t, "2", got[1].ID)
		require.NotNil(t, got[0].Metadata)
		assert.Equal(t, "email", got[0].Metadata.Source)
	})

	t.Run("upsert overwrites", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, "3", []float32{1, 0, 0}, md))

		got, err := repo.Query(ctx, []float32{0, 1, 0}, models.VectorQueryOptions{TopK: 3})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Nil(t, got[0].Metadata)

		for _, m := range got {
			_, err := strconv.ParseInt(m.ID, 10, 64)
			require.NoError(t, err)
		}
	})
}

func TestWorkflowCheckpointsRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewWorkflowCheckpointsRepository(db)
	ctx := context.Background()

	_, found, err := repo.Load(ctx, "notify", "1", "analyze-urgency")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.Save(ctx, "notify", "1", "analyze-urgency", json.RawMessage(`{"level":"HIGH"}`)))
	require.NoError(t, repo.Save(ctx, "notify", "1", "analyze-urgency", json.RawMessage(`{"level":"NORMAL"}`)))

	got, found, err := repo.Load(ctx, "notify", "1", "analyze-urgency")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"level":"HIGH"}`, string(got))
}

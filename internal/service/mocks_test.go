package service

import (
	"context"
	"sync"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"

	"github.com/formbricks/feedback-pulse/internal/huberrors"
	"github.com/formbricks/feedback-pulse/internal/models"
)

// mockFeedbackRepo serves records from memory; func fields override individual methods.
type mockFeedbackRepo struct {
	records      []models.FeedbackRecord
	insertFn     func(req *models.CreateFeedbackRequest, s models.Sentiment) (*models.FeedbackRecord, error)
	listAllErr   error
	listByIDErr  error
	getByIDsErr  error
	getByIDsSeen [][]int64
}

func (m *mockFeedbackRepo) Insert(
	_ context.Context, req *models.CreateFeedbackRequest, s models.Sentiment,
) (*models.FeedbackRecord, error) {
	if m.insertFn != nil {
		return m.insertFn(req, s)
	}

	r := models.FeedbackRecord{
		ID: int64(len(m.records) + 1), Source: req.Source, Message: req.Message, Sentiment: s,
		Category: req.Category, Author: req.Author,
	}
	m.records = append(m.records, r)

	return &r, nil
}

func (m *mockFeedbackRepo) GetByID(_ context.Context, id int64) (*models.FeedbackRecord, error) {
	for i := range m.records {
		if m.records[i].ID == id {
			r := m.records[i]

			return &r, nil
		}
	}

	return nil, huberrors.NewNotFoundError("feedback", "feedback not found")
}

func (m *mockFeedbackRepo) GetByIDs(_ context.Context, ids []int64) ([]models.FeedbackRecord, error) {
	m.getByIDsSeen = append(m.getByIDsSeen, ids)
	if m.getByIDsErr != nil {
		return nil, m.getByIDsErr
	}

	want := map[int64]bool{}
	for _, id := range ids {
		want[id] = true
	}

	out := []models.FeedbackRecord{}

	// Reverse order so callers cannot rely on the repository preserving match order.
	for i := len(m.records) - 1; i >= 0; i-- {
		if want[m.records[i].ID] {
			out = append(out, m.records[i])
		}
	}

	return out, nil
}

func (m *mockFeedbackRepo) ListAll(context.Context) ([]models.FeedbackRecord, error) {
	if m.listAllErr != nil {
		return nil, m.listAllErr
	}

	return append([]models.FeedbackRecord(nil), m.records...), nil
}

func (m *mockFeedbackRepo) ListAllByID(context.Context) ([]models.FeedbackRecord, error) {
	if m.listByIDErr != nil {
		return nil, m.listByIDErr
	}

	return append([]models.FeedbackRecord(nil), m.records...), nil
}

func (m *mockFeedbackRepo) Stats(context.Context) (*models.FeedbackStats, error) {
	return &models.FeedbackStats{Total: int64(len(m.records))}, nil
}

type mockEmbedder struct {
	mu    sync.Mutex
	calls []string
	fn    func(text string) ([]float32, error)
}

func (m *mockEmbedder) CreateEmbedding(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.mu.Unlock()

	return m.fn(text)
}

type mockIndex struct {
	mu       sync.Mutex
	upserts  map[string]models.VectorMetadata
	upsertFn func(id string) error
	queryFn  func(opts models.VectorQueryOptions) ([]models.VectorMatch, error)
}

func (m *mockIndex) Upsert(_ context.Context, id string, _ []float32, md models.VectorMetadata) error {
	if m.upsertFn != nil {
		if err := m.upsertFn(id); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.upserts == nil {
		m.upserts = map[string]models.VectorMetadata{}
	}

	m.upserts[id] = md

	return nil
}

func (m *mockIndex) Query(_ context.Context, _ []float32, opts models.VectorQueryOptions) ([]models.VectorMatch, error) {
	return m.queryFn(opts)
}

type mockCompletion struct {
	mu       sync.Mutex
	reply    string
	err      error
	messages [][]models.ChatMessage
}

func (m *mockCompletion) Complete(_ context.Context, msgs []models.ChatMessage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages = append(m.messages, msgs)

	return m.reply, m.err
}

type mockInserter struct {
	calls []river.JobArgs
	opts  []*river.InsertOpts
	err   error
}

func (m *mockInserter) Insert(
	_ context.Context, args river.JobArgs, opts *river.InsertOpts,
) (*rivertype.JobInsertResult, error) {
	m.calls = append(m.calls, args)
	m.opts = append(m.opts, opts)

	if m.err != nil {
		return nil, m.err
	}

	return &rivertype.JobInsertResult{Job: &rivertype.JobRow{ID: int64(len(m.calls))}}, nil
}

type mockSender struct {
	sent []*AlertPayload
	err  error
}

func (m *mockSender) Send(_ context.Context, p *AlertPayload) error {
	if m.err != nil {
		return m.err
	}

	m.sent = append(m.sent, p)

	return nil
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbricks/feedback-pulse/internal/models"
	"github.com/formbricks/feedback-pulse/internal/observability"
)

func TestNormalizeSentiment(t *testing.T) {
	tests := []struct {
		reply string
		want  models.Sentiment
	}{
		{"positive", models.SentimentPositive},
		{"Positive.", models.SentimentPositive},
		{"NEGATIVE", models.SentimentNegative},
		{"The sentiment is negative", models.SentimentNegative},
		{"neutral", models.SentimentNeutral},
		{"mixed", models.SentimentNeutral},
		{"", models.SentimentNeutral},
		{"not positive, rather negative", models.SentimentPositive},
	}

	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSentiment(tt.reply))
		})
	}
}

func TestClassifySentiment_AlwaysInClosedSet(t *testing.T) {
	replies := []string{"positive", "negative", "neutral", "🤷", "{\"sentiment\": 1}", "Positively negative"}

	for _, reply := range replies {
		c := NewClassifier(&mockCompletion{reply: reply}, nil)
		got := c.ClassifySentiment(context.Background(), "text")
		assert.True(t, got.IsValid(), "reply %q gave %q", reply, got)
	}
}

func TestClassifySentiment_UpstreamErrorIsNeutral(t *testing.T) {
	c := NewClassifier(&mockCompletion{err: errors.New("timeout")}, nil)
	assert.Equal(t, models.SentimentNeutral, c.ClassifySentiment(context.Background(), "I hate it"))
}

func TestClassifySentiment_SendsRoleTaggedMessages(t *testing.T) {
	llm := &mockCompletion{reply: "negative"}
	c := NewClassifier(llm, nil)

	assert.Equal(t, models.SentimentNegative, c.ClassifySentiment(context.Background(), "App crashes"))
	require.Len(t, llm.messages, 1)
	require.Len(t, llm.messages[0], 2)
	assert.Equal(t, models.ChatRoleSystem, llm.messages[0][0].Role)
	assert.Equal(t, models.ChatMessage{Role: models.ChatRoleUser, Content: "App crashes"}, llm.messages[0][1])
}

func TestClassifyUrgency_ParsesReply(t *testing.T) {
	llm := &mockCompletion{reply: "```json\n" +
		`{"level": "critical", "confidence": 0.92, "reason": "payment failing", "category": "billing"}` +
		"\n```"}
	c := NewClassifier(llm, nil)

	got := c.ClassifyUrgency(context.Background(), "I was charged twice", models.SentimentNegative)

	assert.Equal(t, models.UrgencyAssessment{
		Level: models.UrgencyCritical, Confidence: 0.92, Reason: "payment failing", Category: "billing",
	}, got)
}

func TestClassifyUrgency_SingleLineFence(t *testing.T) {
	llm := &mockCompletion{reply: "```json " +
		`{"level":"CRITICAL","confidence":0.9,"reason":"data loss","category":"bug"}` + " ```"}
	c := NewClassifier(llm, nil)

	got := c.ClassifyUrgency(context.Background(), "All my projects vanished", models.SentimentPositive)

	assert.Equal(t, models.UrgencyCritical, got.Level)
	assert.InDelta(t, 0.9, got.Confidence, 1e-9)
	assert.True(t, got.Level.RequiresNotification())
}

func TestClassifyUrgency_EmptyCategoryDefaults(t *testing.T) {
	c := NewClassifier(&mockCompletion{reply: `{"level":"NORMAL","confidence":0.7,"reason":"fine"}`}, nil)

	got := c.ClassifyUrgency(context.Background(), "ok", models.SentimentNeutral)
	assert.Equal(t, models.UrgencyNormal, got.Level)
	assert.Equal(t, "general", got.Category)
}

func TestClassifyUrgency_Fallback(t *testing.T) {
	replies := []string{
		"not json",
		`{"level": "SEVERE", "confidence": 0.9, "reason": "x", "category": "y"}`,
		`{"level": "HIGH", "confidence": 1.5, "reason": "x", "category": "y"}`,
		`{"level": "HIGH", "confidence": -0.1, "reason": "x", "category": "y"}`,
		`{"level": "HIGH", "reason": "missing confidence", "category": "y"}`,
		`{"level": "HIGH", "confidence": 0.9} {"level": "LOW"}`,
		`[]`,
	}

	for _, sentiment := range []models.Sentiment{
		models.SentimentPositive, models.SentimentNegative, models.SentimentNeutral,
	} {
		want := models.UrgencyNormal
		if sentiment == models.SentimentNegative {
			want = models.UrgencyHigh
		}

		for i, reply := range replies {
			t.Run(fmt.Sprintf("%s/%d", sentiment, i), func(t *testing.T) {
				c := NewClassifier(&mockCompletion{reply: reply}, nil)
				got := c.ClassifyUrgency(context.Background(), "text", sentiment)

				assert.Equal(t, want, got.Level)
				assert.InDelta(t, 0.5, got.Confidence, 1e-9)
				assert.Equal(t, "general", got.Category)
			})
		}
	}
}

func TestClassifyUrgency_UpstreamErrorFallsBack(t *testing.T) {
	c := NewClassifier(&mockCompletion{err: errors.New("503")}, nil)
	assert.Equal(t, FallbackUrgency(models.SentimentNegative),
		c.ClassifyUrgency(context.Background(), "broken", models.SentimentNegative))
}

func TestClassifier_NilModelUsesFallbacks(t *testing.T) {
	c := NewClassifier(nil, nil)
	ctx := context.Background()

	assert.Equal(t, models.SentimentNeutral, c.ClassifySentiment(ctx, "great"))
	assert.Equal(t, models.UrgencyNormal, c.ClassifyUrgency(ctx, "meh", models.SentimentNeutral).Level)
	assert.Equal(t, []models.FeatureMention{{Feature: "export", Mentions: 2}},
		c.ExtractFeatures(ctx, []string{"export", "export"}, models.SentimentPositive))
}

func TestExtractFeatures_UsesModelReply(t *testing.T) {
	llm := &mockCompletion{reply: `[{"feature":"search","mentions":4},{"feature":"export","mentions":3},` +
		`{"feature":"sso","mentions":2},{"feature":"themes","mentions":1}]`}
	c := NewClassifier(llm, nil)

	got := c.ExtractFeatures(context.Background(), []string{"a", "b"}, models.SentimentPositive)

	assert.Equal(t, []models.FeatureMention{
		{Feature: "search", Mentions: 4},
		{Feature: "export", Mentions: 3},
		{Feature: "sso", Mentions: 2},
	}, got)
}

func TestExtractFeatures_SingleLineFence(t *testing.T) {
	llm := &mockCompletion{reply: "```json [{\"feature\":\"search\",\"mentions\":4}] ```"}
	c := NewClassifier(llm, nil)

	got := c.ExtractFeatures(context.Background(), []string{"search is slow"}, models.SentimentNegative)

	assert.Equal(t, []models.FeatureMention{{Feature: "search", Mentions: 4}}, got)
}

func TestExtractFeatures_BatchesAtMost20(t *testing.T) {
	llm := &mockCompletion{reply: `[{"feature":"x","mentions":1}]`}
	c := NewClassifier(llm, nil)

	msgs := make([]string, 30)
	for i := range msgs {
		msgs[i] = fmt.Sprintf("message%d", i)
	}

	c.ExtractFeatures(context.Background(), msgs, models.SentimentNegative)

	require.Len(t, llm.messages, 1)
	user := llm.messages[0][1].Content
	assert.Contains(t, user, "message19")
	assert.NotContains(t, user, "message20")
}

func TestExtractFeatures_FallsBackToKeywords(t *testing.T) {
	msgs := []string{"export is broken", "export fails", "login slow"}

	for _, llm := range []*mockCompletion{
		{reply: "Here are the features: export"},
		{reply: `[]`},
		{reply: `[{"feature":"","mentions":2}]`},
		{err: errors.New("boom")},
	} {
		c := NewClassifier(llm, nil)
		got := c.ExtractFeatures(context.Background(), msgs, models.SentimentNegative)
		assert.Equal(t, TopKeywords(msgs, 3), got)
	}
}

func TestExtractFeatures_NoMessages(t *testing.T) {
	llm := &mockCompletion{reply: "unused"}
	c := NewClassifier(llm, nil)

	assert.Empty(t, c.ExtractFeatures(context.Background(), nil, models.SentimentPositive))
	assert.Empty(t, llm.messages)
}

func TestClassifier_FallbackWarningCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(observability.NewTraceContextHandler(slog.NewJSONHandler(&buf, nil)))
	c := NewClassifier(&mockCompletion{err: errors.New("timeout")}, logger)

	ctx := context.WithValue(context.Background(), observability.RequestIDKey, "req-42")
	assert.Equal(t, models.SentimentNeutral, c.ClassifySentiment(ctx, "text"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "req-42", entry["request_id"])
}

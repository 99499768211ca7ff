package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/formbricks/feedback-pulse/internal/models"
)

func TestTopKeywords(t *testing.T) {
	messages := []string{
		"The checkout keeps crashing",
		"Checkout crashing again, and search is slow",
		"Search results are great",
		"checkout!!",
	}

	got := TopKeywords(messages, 3)

	assert.Equal(t, []models.FeatureMention{
		{Feature: "checkout", Mentions: 3},
		{Feature: "crashing", Mentions: 2},
		{Feature: "search", Mentions: 2},
	}, got)
}

func TestTopKeywords_TiesKeepFirstSeenOrder(t *testing.T) {
	got := TopKeywords([]string{"zebra apple mango", "mango apple zebra"}, 3)

	assert.Equal(t, []models.FeatureMention{
		{Feature: "zebra", Mentions: 2},
		{Feature: "apple", Mentions: 2},
		{Feature: "mango", Mentions: 2},
	}, got)
}

func TestTopKeywords_DropsShortAndStopWords(t *testing.T) {
	got := TopKeywords([]string{"it is so on the and with UI ok"}, 3)
	assert.Empty(t, got)
}

func TestTopKeywords_Deterministic(t *testing.T) {
	msgs := []string{"login login export", "export dashboard login"}
	assert.Equal(t, TopKeywords(msgs, 3), TopKeywords(msgs, 3))
}

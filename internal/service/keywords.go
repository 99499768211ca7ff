package service

import (
	"regexp"
	"slices"
	"strings"

	"github.com/formbricks/feedback-pulse/internal/models"
)

var wordPattern = regexp.MustCompile(`[a-z]{3,}`)

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {}, "you": {}, "all": {}, "any": {},
	"can": {}, "had": {}, "her": {}, "was": {}, "one": {}, "our": {}, "out": {}, "has": {}, "have": {},
	"this": {}, "that": {}, "with": {}, "from": {}, "they": {}, "been": {}, "were": {}, "said": {},
	"each": {}, "which": {}, "their": {}, "will": {}, "would": {}, "there": {}, "what": {}, "about": {},
	"when": {}, "your": {}, "just": {}, "very": {}, "really": {}, "its": {}, "too": {},
	"than": {}, "then": {}, "them": {}, "these": {}, "some": {}, "could": {}, "into": {}, "only": {},
	"also": {}, "more": {}, "most": {}, "much": {}, "such": {}, "like": {}, "get": {}, "got": {},
	"use": {}, "using": {}, "does": {}, "did": {}, "doesn": {}, "don": {}, "isn": {},
}

// TopKeywords counts non-stop-word tokens of three or more letters across messages and returns the n
// most frequent. Ties keep first-seen order.
func TopKeywords(messages []string, n int) []models.FeatureMention {
	counts := map[string]int{}
	order := []string{}

	for _, msg := range messages {
		for _, word := range wordPattern.FindAllString(strings.ToLower(msg), -1) {
			if _, stop := stopWords[word]; stop {
				continue
			}

			if counts[word] == 0 {
				order = append(order, word)
			}

			counts[word]++
		}
	}

	slices.SortStableFunc(order, func(a, b string) int {
		return counts[b] - counts[a]
	})

	if len(order) > n {
		order = order[:n]
	}

	out := make([]models.FeatureMention, 0, len(order))
	for _, word := range order {
		out = append(out, models.FeatureMention{Feature: word, Mentions: counts[word]})
	}

	return out
}

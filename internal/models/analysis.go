package models

import "strings"

// UrgencyLevel is the closed set of urgency levels.
type UrgencyLevel string

const (
	UrgencyCritical UrgencyLevel = "CRITICAL"
	UrgencyHigh     UrgencyLevel = "HIGH"
	UrgencyNormal   UrgencyLevel = "NORMAL"
)

// ParseUrgencyLevel parses a level case-insensitively.
func ParseUrgencyLevel(s string) (UrgencyLevel, bool) {
	switch UrgencyLevel(strings.ToUpper(strings.TrimSpace(s))) {
	case UrgencyCritical:
		return UrgencyCritical, true
	case UrgencyHigh:
		return UrgencyHigh, true
	case UrgencyNormal:
		return UrgencyNormal, true
	default:
		return "", false
	}
}

// RequiresNotification reports whether the level warrants an alert.
func (l UrgencyLevel) RequiresNotification() bool {
	return l == UrgencyCritical || l == UrgencyHigh
}

// UrgencyAssessment is the classifier verdict for a single message.
type UrgencyAssessment struct {
	Level      UrgencyLevel `json:"level"`
	Confidence float64      `json:"confidence"`
	Reason     string       `json:"reason"`
	Category   string       `json:"category"`
}

// FeatureMention is a product feature and how often it came up.
type FeatureMention struct {
	Feature  string `json:"feature"`
	Mentions int    `json:"mentions"`
}

// FeatureAnalysis is the body of GET /api/analyze-features.
type FeatureAnalysis struct {
	BestFeatures  []FeatureMention `json:"bestFeatures"`
	WorstFeatures []FeatureMention `json:"worstFeatures"`
	AnalyzedCount int              `json:"analyzedCount"`
	PositiveCount int              `json:"positiveCount"`
	NegativeCount int              `json:"negativeCount"`
}

// ChatRole tags a completion message.
type ChatRole string

const (
	ChatRoleSystem ChatRole = "system"
	ChatRoleUser   ChatRole = "user"
)

// ChatMessage is a single role-tagged message sent to a completion model.
type ChatMessage struct {
	Role    ChatRole
	Content string
}

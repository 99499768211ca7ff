package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	standardwebhooks "github.com/standard-webhooks/standard-webhooks/libraries/go"

	"github.com/formbricks/feedback-pulse/internal/models"
)

const defaultAlertTimeout = 15 * time.Second

// AlertSender delivers one urgency alert.
type AlertSender interface {
	Send(ctx context.Context, payload *AlertPayload) error
}

// AlertPayload is the JSON body posted to the notification webhook. Text and Blocks follow the Slack
// incoming-webhook format; the remaining fields let other receivers act on the alert.
type AlertPayload struct {
	ID       uuid.UUID                `json:"id"`
	Text     string                   `json:"text"`
	Blocks   []alertBlock             `json:"blocks"`
	Feedback models.FeedbackRecord    `json:"feedback"`
	Urgency  models.UrgencyAssessment `json:"urgency"`
}

type alertBlock struct {
	Type string    `json:"type"`
	Text alertText `json:"text"`
}

type alertText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

var urgencyEmoji = map[models.UrgencyLevel]string{
	models.UrgencyCritical: ":rotating_light:",
	models.UrgencyHigh:     ":warning:",
}

// NewAlertPayload formats an alert for record at the given urgency.
func NewAlertPayload(record *models.FeedbackRecord, urgency models.UrgencyAssessment) *AlertPayload {
	headline := fmt.Sprintf("%s %s feedback from %s (%s)",
		urgencyEmoji[urgency.Level], urgency.Level, record.Source, urgency.Category)

	detail := fmt.Sprintf("*Message:* %s\n*Sentiment:* %s\n*Reason:* %s\n*Confidence:* %.2f\n*Feedback ID:* %d",
		record.Message, record.Sentiment, urgency.Reason, urgency.Confidence, record.ID)

	if record.Author != nil && *record.Author != "" {
		detail += "\n*Author:* " + *record.Author
	}

	return &AlertPayload{
		ID:   uuid.Must(uuid.NewV7()),
		Text: headline,
		Blocks: []alertBlock{
			{Type: "section", Text: alertText{Type: "mrkdwn", Text: "*" + headline + "*"}},
			{Type: "section", Text: alertText{Type: "mrkdwn", Text: detail}},
		},
		Feedback: *record,
		Urgency:  urgency,
	}
}

// WebhookAlertSender POSTs alerts to a single webhook URL. When a signing secret is configured,
// requests carry Standard Webhooks headers (webhook-id, webhook-timestamp, webhook-signature).
type WebhookAlertSender struct {
	url        string
	signer     *standardwebhooks.Webhook
	httpClient *http.Client
}

// NewWebhookAlertSender creates a sender for url. signingSecret may be empty (unsigned requests);
// timeout <= 0 uses 15s. Redirects are not followed.
func NewWebhookAlertSender(url, signingSecret string, timeout time.Duration) (*WebhookAlertSender, error) {
	if timeout <= 0 {
		timeout = defaultAlertTimeout
	}

	s := &WebhookAlertSender{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}

	if signingSecret != "" {
		signer, err := standardwebhooks.NewWebhook(signingSecret)
		if err != nil {
			return nil, fmt.Errorf("create webhook signer: %w", err)
		}

		s.signer = signer
	}

	return s, nil
}

// Send implements AlertSender. Transport errors and non-2xx responses are returned as errors so the
// job is retried.
func (s *WebhookAlertSender) Send(ctx context.Context, payload *AlertPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal alert payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if s.signer != nil {
		msgID := payload.ID.String()
		now := time.Now()

		signature, err := s.signer.Sign(msgID, now, body)
		if err != nil {
			return fmt.Errorf("sign alert: %w", err)
		}

		req.Header.Set(standardwebhooks.HeaderWebhookID, msgID)
		req.Header.Set(standardwebhooks.HeaderWebhookSignature, signature)
		req.Header.Set(standardwebhooks.HeaderWebhookTimestamp, strconv.FormatInt(now.Unix(), 10))
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send alert: %w", err)
	}

	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)

		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.WarnContext(ctx, "failed to close alert response body", "error", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("alert webhook returned non-2xx status: %d", resp.StatusCode)
	}

	return nil
}

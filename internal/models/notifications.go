package models

// NotificationState tracks progress of the notification workflow.
type NotificationState string

const (
	NotificationStart           NotificationState = "START"
	NotificationUrgencyAnalyzed NotificationState = "URGENCY_ANALYZED"
	NotificationSent            NotificationState = "NOTIFY_SENT"
	NotificationSkipped         NotificationState = "SKIPPED"
	NotificationDone            NotificationState = "DONE"
)

// DeliveryResult is the checkpointed result of the alert step.
type DeliveryResult struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

// NotificationOutcome is the terminal result of one workflow run. Branch is NOTIFY_SENT or SKIPPED,
// the state passed through on the way to State (DONE).
type NotificationOutcome struct {
	State    NotificationState `json:"state"`
	Branch   NotificationState `json:"branch"`
	Urgency  UrgencyAssessment `json:"urgency"`
	Notified bool              `json:"notified"`
	Delivery *DeliveryResult   `json:"delivery,omitempty"`
}

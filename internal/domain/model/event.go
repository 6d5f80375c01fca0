package model

import "time"

const (
	EventContestCreated       = "contest.created"
	EventContestStatusChanged = "contest.status_changed"
	EventContestDeleted       = "contest.deleted"
	EventPaymentConfirmed     = "payment.confirmed"
	EventPaymentDuplicate     = "payment.duplicate"
	EventSubmissionCreated    = "submission.created"
	EventWinnerDeclared       = "winner.declared"
)

// Event is a domain fact published after its transaction commits.
type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	ContestID  string         `json:"contest_id"`
	UserID     string         `json:"user_id,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

package model

import "time"

type SubmissionStatus string

const (
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionWinner    SubmissionStatus = "winner"
)

type Submission struct {
	ID             string           `json:"id"`
	ContestID      string           `json:"contest_id"`
	UserID         string           `json:"user_id"`
	UserName       string           `json:"user_name,omitempty"`
	SubmissionText string           `json:"submission_text"`
	SubmissionImg  string           `json:"submission_img,omitempty"`
	Status         SubmissionStatus `json:"status"`
	CreatedAt      time.Time        `json:"created_at"`
}

// Participation is a contest a user has entered, with the outcome of their entry.
// Participation is one of a user's entries. PaymentStatus and TransactionID
// come from the latest payment for the entry and are empty for free contests.
type Participation struct {
	Contest       Contest          `json:"contest"`
	SubmissionID  string           `json:"submission_id"`
	Status        SubmissionStatus `json:"status"`
	SubmittedAt   time.Time        `json:"submitted_at"`
	PaymentStatus PaymentStatus    `json:"payment_status,omitempty"`
	TransactionID string           `json:"transaction_id,omitempty"`
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentInitiated PaymentStatus = "initiated"
	PaymentSuccess   PaymentStatus = "success"
	PaymentFailed    PaymentStatus = "failed"
)

// Terminal reports whether the payment can no longer change.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentSuccess || s == PaymentFailed
}

type Payment struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	ContestID     string          `json:"contest_id"`
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Status        PaymentStatus   `json:"status"`
	RedirectURL   string          `json:"redirect_url,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	ConfirmedAt   *time.Time      `json:"confirmed_at,omitempty"`
}

// CheckoutSession is what the payment gateway needs to start a hosted checkout.
type CheckoutSession struct {
	TransactionID string
	Amount        decimal.Decimal
	ContestID     string
	ContestName   string
	CustomerName  string
	CustomerEmail string
}

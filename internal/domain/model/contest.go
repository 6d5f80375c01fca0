package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ContestStatus string

const (
	ContestPending   ContestStatus = "pending"
	ContestApproved  ContestStatus = "approved"
	ContestRejected  ContestStatus = "rejected"
	ContestCompleted ContestStatus = "completed"
)

func (s ContestStatus) Valid() bool {
	switch s {
	case ContestPending, ContestApproved, ContestRejected, ContestCompleted:
		return true
	}
	return false
}

// ContestPhase is the read-time view of a contest. It is never stored.
type ContestPhase string

const (
	PhasePending        ContestPhase = "pending"
	PhaseRejected       ContestPhase = "rejected"
	PhaseOpen           ContestPhase = "open"
	PhaseAwaitingWinner ContestPhase = "awaiting_winner"
	PhaseCompleted      ContestPhase = "completed"
)

type Winner struct {
	SubmissionID string    `json:"submission_id"`
	UserID       string    `json:"user_id"`
	UserName     string    `json:"user_name"`
	PhotoURL     string    `json:"photo_url,omitempty"`
	DeclaredAt   time.Time `json:"declared_at"`
}

type Contest struct {
	ID                string          `json:"id"`
	Slug              string          `json:"slug"`
	CreatorID         string          `json:"creator_id"`
	CreatorName       string          `json:"creator_name,omitempty"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	TaskInstruction   string          `json:"task_instruction"`
	Image             string          `json:"image,omitempty"`
	EntryFee          decimal.Decimal `json:"entry_fee"`
	PrizeMoney        decimal.Decimal `json:"prize_money"`
	Category          string          `json:"category"`
	Deadline          time.Time       `json:"deadline"`
	Status            ContestStatus   `json:"status"`
	Phase             ContestPhase    `json:"phase,omitempty"`
	ParticipantsCount int             `json:"participants_count"`
	Winner            *Winner         `json:"winner,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// DeadlinePassed reports whether entries are closed at now.
func (c *Contest) DeadlinePassed(now time.Time) bool {
	return !now.Before(c.Deadline)
}

func (c *Contest) RequiresPayment() bool {
	return c.EntryFee.IsPositive()
}

func (c *Contest) ComputePhase(now time.Time) ContestPhase {
	switch c.Status {
	case ContestPending:
		return PhasePending
	case ContestRejected:
		return PhaseRejected
	case ContestCompleted:
		return PhaseCompleted
	}
	if c.DeadlinePassed(now) {
		return PhaseAwaitingWinner
	}
	return PhaseOpen
}

// CanModerate reports whether an admin may move a contest from one status to another.
// Completion is reserved for winner declaration.
func CanModerate(from, to ContestStatus) bool {
	return from == ContestPending && (to == ContestApproved || to == ContestRejected)
}

// ContestUpdate carries the optional fields of an edit. Nil fields are left unchanged.
type ContestUpdate struct {
	Name            *string          `json:"name,omitempty"`
	Description     *string          `json:"description,omitempty"`
	TaskInstruction *string          `json:"task_instruction,omitempty"`
	Image           *string          `json:"image,omitempty"`
	EntryFee        *decimal.Decimal `json:"entry_fee,omitempty"`
	PrizeMoney      *decimal.Decimal `json:"prize_money,omitempty"`
	Category        *string          `json:"category,omitempty"`
	Deadline        *time.Time       `json:"deadline,omitempty"`
	Status          *ContestStatus   `json:"status,omitempty"`
}

// Apply copies the set fields into c.
func (u ContestUpdate) Apply(c *Contest) {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Description != nil {
		c.Description = *u.Description
	}
	if u.TaskInstruction != nil {
		c.TaskInstruction = *u.TaskInstruction
	}
	if u.Image != nil {
		c.Image = *u.Image
	}
	if u.EntryFee != nil {
		c.EntryFee = *u.EntryFee
	}
	if u.PrizeMoney != nil {
		c.PrizeMoney = *u.PrizeMoney
	}
	if u.Category != nil {
		c.Category = *u.Category
	}
	if u.Deadline != nil {
		c.Deadline = *u.Deadline
	}
	if u.Status != nil {
		c.Status = *u.Status
	}
}

// HasContentChanges reports whether any field other than status is set.
func (u ContestUpdate) HasContentChanges() bool {
	return u.Name != nil || u.Description != nil || u.TaskInstruction != nil || u.Image != nil ||
		u.EntryFee != nil || u.PrizeMoney != nil || u.Category != nil || u.Deadline != nil
}

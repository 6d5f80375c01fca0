package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"creativerse/internal/common"
	"creativerse/internal/domain/model"
	"creativerse/internal/domain/repository"
	"creativerse/internal/platform/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type SubmissionService struct {
	submissionRepo repository.SubmissionRepository
	contestRepo    repository.ContestRepository
	paymentRepo    repository.PaymentRepository
	tx             repository.Transactor
	events         EventPublisher
	metrics        *metrics.Metrics
}

func NewSubmissionService(
	subRepo repository.SubmissionRepository,
	contestRepo repository.ContestRepository,
	paymentRepo repository.PaymentRepository,
	tx repository.Transactor,
	events EventPublisher,
	m *metrics.Metrics,
) *SubmissionService {
	return &SubmissionService{
		submissionRepo: subRepo,
		contestRepo:    contestRepo,
		paymentRepo:    paymentRepo,
		tx:             tx,
		events:         orNop(events),
		metrics:        m,
	}
}

type CreateSubmissionRequest struct {
	SubmissionText string `json:"submission_text" validate:"required,max=20000"`
	SubmissionImg  string `json:"submission_img" validate:"omitempty,url"`
}

// CreateSubmission enters the caller into a contest. The contest row is locked and the
// payment re-checked inside the same transaction, so a submission never outruns its payment.
func (s *SubmissionService) CreateSubmission(ctx context.Context, p model.Principal, contestID string, req CreateSubmissionRequest) (*model.Submission, error) {
	if err := requireCap(p, CapParticipate); err != nil {
		return nil, err
	}
	req.SubmissionText = strings.TrimSpace(req.SubmissionText)
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}

	submission := &model.Submission{
		ID:             uuid.NewString(),
		ContestID:      contestID,
		UserID:         p.UserID,
		SubmissionText: req.SubmissionText,
		SubmissionImg:  req.SubmissionImg,
		Status:         model.SubmissionSubmitted,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.contestRepo.FindByIDForUpdate(ctx, contestID)
		if err != nil {
			return err
		}
		switch c.Status {
		case model.ContestCompleted, model.ContestRejected:
			return fmt.Errorf("contest is %s: %w", c.Status, common.ErrExpired)
		case model.ContestPending:
			return fmt.Errorf("contest is not open yet: %w", common.ErrConflict)
		}
		if c.DeadlinePassed(now()) {
			return fmt.Errorf("deadline passed at %s: %w", c.Deadline.Format("2006-01-02 15:04 MST"), common.ErrExpired)
		}
		if c.RequiresPayment() {
			paid, err := s.paymentRepo.HasSuccess(ctx, p.UserID, contestID)
			if err != nil {
				return err
			}
			if !paid {
				return common.ErrPaymentRequired
			}
		}
		return s.submissionRepo.Create(ctx, submission)
	})
	if err != nil {
		if !errors.Is(err, common.ErrAlreadyEntered) && !errors.Is(err, common.ErrPaymentRequired) {
			return nil, err
		}
		return nil, fmt.Errorf("contest %s: %w", contestID, err)
	}

	s.metrics.IncSubmissions()
	s.events.Publish(ctx, newEvent(model.EventSubmissionCreated, contestID, p.UserID, map[string]any{
		"submission_id": submission.ID,
	}))
	log.Info().Str("submission_id", submission.ID).Str("contest_id", contestID).Str("user_id", p.UserID).Msg("submission created")
	return submission, nil
}

// ListSubmissions shows every entry to the contest's creator and admins, and a participant
// only their own entry.
func (s *SubmissionService) ListSubmissions(ctx context.Context, p model.Principal, contestID string) ([]model.Submission, error) {
	c, err := s.contestRepo.FindByID(ctx, contestID)
	if err != nil {
		return nil, err
	}
	if canManageContest(p, c) {
		return s.submissionRepo.ListByContest(ctx, contestID)
	}
	if !Can(p, CapParticipate) {
		return nil, fmt.Errorf("not allowed to view these submissions: %w", common.ErrForbidden)
	}
	own, err := s.submissionRepo.FindByUserAndContest(ctx, p.UserID, contestID)
	if errors.Is(err, common.ErrNotFound) {
		return []model.Submission{}, nil
	}
	if err != nil {
		return nil, err
	}
	return []model.Submission{*own}, nil
}

// ListUserParticipations lists contests a user entered. Visible to that user and admins.
func (s *SubmissionService) ListUserParticipations(ctx context.Context, p model.Principal, userID string) ([]model.Participation, error) {
	if p.UserID != userID && !Can(p, CapManageUsers) {
		return nil, fmt.Errorf("participations are private: %w", common.ErrForbidden)
	}
	out, err := s.submissionRepo.ListParticipations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participations: %w", err)
	}
	t := now()
	for i := range out {
		out[i].Contest.Phase = out[i].Contest.ComputePhase(t)
	}
	return out, nil
}

// ListUserWins lists contests a user has won. Wins are public.
func (s *SubmissionService) ListUserWins(ctx context.Context, userID string) ([]model.Contest, error) {
	contests, err := s.contestRepo.ListWonByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wins: %w", err)
	}
	withPhase(contests)
	return contests, nil
}

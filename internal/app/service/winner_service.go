package service

import (
	"context"
	"fmt"

	"creativerse/internal/common"
	"creativerse/internal/domain/model"
	"creativerse/internal/domain/repository"
	"creativerse/internal/platform/metrics"

	"github.com/rs/zerolog/log"
)

type WinnerService struct {
	contestRepo    repository.ContestRepository
	submissionRepo repository.SubmissionRepository
	tx             repository.Transactor
	events         EventPublisher
	metrics        *metrics.Metrics
}

func NewWinnerService(
	contestRepo repository.ContestRepository,
	submissionRepo repository.SubmissionRepository,
	tx repository.Transactor,
	events EventPublisher,
	m *metrics.Metrics,
) *WinnerService {
	return &WinnerService{
		contestRepo:    contestRepo,
		submissionRepo: submissionRepo,
		tx:             tx,
		events:         orNop(events),
		metrics:        m,
	}
}

type DeclareWinnerRequest struct {
	UserID       string `json:"user_id" validate:"required"`
	SubmissionID string `json:"submission_id" validate:"required"`
}

// DeclareWinner completes a contest. It is irreversible; a second declaration fails with
// common.ErrWinnerAlreadyDeclared.
func (s *WinnerService) DeclareWinner(ctx context.Context, p model.Principal, contestID string, req DeclareWinnerRequest) (*model.Contest, error) {
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}

	var completed *model.Contest
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.contestRepo.FindByIDForUpdate(ctx, contestID)
		if err != nil {
			return err
		}
		if !Can(p, CapDeclareWinner) || !canManageContest(p, c) {
			return fmt.Errorf("not allowed to declare a winner for this contest: %w", common.ErrForbidden)
		}
		if c.Winner != nil {
			return common.ErrWinnerAlreadyDeclared
		}
		if c.Status != model.ContestApproved {
			return fmt.Errorf("contest is %s, not approved: %w", c.Status, common.ErrConflict)
		}

		sub, err := s.submissionRepo.FindByID(ctx, req.SubmissionID)
		if err != nil {
			return fmt.Errorf("submission %s: %w", req.SubmissionID, err)
		}
		if sub.ContestID != contestID || sub.UserID != req.UserID {
			return fmt.Errorf("submission %s does not belong to this contest and user: %w", req.SubmissionID, common.ErrNotFound)
		}

		winner := model.Winner{UserID: sub.UserID, SubmissionID: sub.ID, DeclaredAt: now()}
		if err := s.contestRepo.SetWinner(ctx, contestID, winner); err != nil {
			return err
		}
		if err := s.submissionRepo.MarkWinner(ctx, sub.ID); err != nil {
			return err
		}
		completed, err = s.contestRepo.FindByID(ctx, contestID)
		return err
	})
	if err != nil {
		return nil, err
	}

	completed.Phase = completed.ComputePhase(now())
	s.metrics.IncWinners()
	s.metrics.IncStatusChange(string(model.ContestCompleted))
	s.events.Publish(ctx, newEvent(model.EventWinnerDeclared, contestID, req.UserID, map[string]any{
		"submission_id": req.SubmissionID,
		"prize_money":   completed.PrizeMoney.String(),
	}))
	log.Info().Str("contest_id", contestID).Str("winner_id", req.UserID).Str("by", p.UserID).Msg("winner declared")
	return completed, nil
}

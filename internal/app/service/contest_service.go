package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"creativerse/internal/common"
	"creativerse/internal/domain/model"
	"creativerse/internal/domain/repository"
	"creativerse/internal/platform/metrics"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type ContestService struct {
	contestRepo repository.ContestRepository
	tx          repository.Transactor
	events      EventPublisher
	metrics     *metrics.Metrics
}

func NewContestService(
	contestRepo repository.ContestRepository,
	tx repository.Transactor,
	events EventPublisher,
	m *metrics.Metrics,
) *ContestService {
	return &ContestService{
		contestRepo: contestRepo,
		tx:          tx,
		events:      orNop(events),
		metrics:     m,
	}
}

// Contests that anyone may browse.
var publicStatuses = []model.ContestStatus{model.ContestApproved, model.ContestCompleted}

type CreateContestRequest struct {
	Name            string          `json:"name" validate:"required,max=200"`
	Description     string          `json:"description" validate:"required"`
	TaskInstruction string          `json:"task_instruction" validate:"required"`
	Image           string          `json:"image" validate:"omitempty,url"`
	EntryFee        decimal.Decimal `json:"entry_fee"`
	PrizeMoney      decimal.Decimal `json:"prize_money"`
	Category        string          `json:"category" validate:"required"`
	Deadline        time.Time       `json:"deadline" validate:"required"`
}

func validateMoney(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return fmt.Errorf("%s must not be negative: %w", field, common.ErrValidation)
	}
	return nil
}

func validateCategory(category string) error {
	if model.ValidCategory(category) {
		return nil
	}
	if suggestion := model.SuggestCategory(category); suggestion != "" {
		return fmt.Errorf("unknown category %q, did you mean %q: %w", category, suggestion, common.ErrValidation)
	}
	return fmt.Errorf("unknown category %q: %w", category, common.ErrValidation)
}

func validateDeadline(deadline time.Time) error {
	if !deadline.After(now()) {
		return fmt.Errorf("deadline must be in the future: %w", common.ErrValidation)
	}
	return nil
}

func (s *ContestService) CreateContest(ctx context.Context, p model.Principal, req CreateContestRequest) (*model.Contest, error) {
	if err := requireCap(p, CapCreateContest); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	req.TaskInstruction = strings.TrimSpace(req.TaskInstruction)
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := validateMoney("entry_fee", req.EntryFee); err != nil {
		return nil, err
	}
	if err := validateMoney("prize_money", req.PrizeMoney); err != nil {
		return nil, err
	}
	if err := validateCategory(req.Category); err != nil {
		return nil, err
	}
	if err := validateDeadline(req.Deadline); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	contest := &model.Contest{
		ID:              id,
		Slug:            slug.Make(req.Name) + "-" + id[:8],
		CreatorID:       p.UserID,
		Name:            req.Name,
		Description:     req.Description,
		TaskInstruction: req.TaskInstruction,
		Image:           req.Image,
		EntryFee:        req.EntryFee,
		PrizeMoney:      req.PrizeMoney,
		Category:        req.Category,
		Deadline:        req.Deadline.UTC(),
		Status:          model.ContestPending,
	}
	if err := s.contestRepo.Create(ctx, contest); err != nil {
		return nil, fmt.Errorf("failed to create contest: %w", err)
	}
	contest.Phase = contest.ComputePhase(now())

	s.metrics.IncContestsCreated()
	s.events.Publish(ctx, newEvent(model.EventContestCreated, contest.ID, p.UserID, map[string]any{
		"name":     contest.Name,
		"category": contest.Category,
	}))
	log.Info().Str("contest_id", contest.ID).Str("creator_id", p.UserID).Msg("contest created")
	return contest, nil
}

// UpdateContest applies an edit. Creators edit their own contests while pending; admins edit
// anything and moderate pending contests. Completion happens only through winner declaration.
func (s *ContestService) UpdateContest(ctx context.Context, p model.Principal, contestID string, upd model.ContestUpdate) (*model.Contest, error) {
	var (
		updated   *model.Contest
		oldStatus model.ContestStatus
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.contestRepo.FindByIDForUpdate(ctx, contestID)
		if err != nil {
			return err
		}
		if !canManageContest(p, c) {
			return fmt.Errorf("not allowed to edit this contest: %w", common.ErrForbidden)
		}
		oldStatus = c.Status

		if upd.Status != nil && *upd.Status == c.Status {
			upd.Status = nil
		}
		if upd.Status != nil {
			if !Can(p, CapModerateContest) {
				return fmt.Errorf("only admins can change contest status: %w", common.ErrForbidden)
			}
			if !upd.Status.Valid() {
				return fmt.Errorf("unknown status %q: %w", *upd.Status, common.ErrValidation)
			}
			if !model.CanModerate(c.Status, *upd.Status) {
				return fmt.Errorf("%s -> %s: %w", c.Status, *upd.Status, common.ErrInvalidTransition)
			}
		}
		if upd.HasContentChanges() {
			if !Can(p, CapManageAnyContest) && c.Status != model.ContestPending {
				return fmt.Errorf("contest can only be edited while pending: %w", common.ErrForbidden)
			}
			if err := validateUpdate(c, upd); err != nil {
				return err
			}
		}

		upd.Apply(c)
		if err := s.contestRepo.Update(ctx, c); err != nil {
			return fmt.Errorf("failed to update contest: %w", err)
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated.Phase = updated.ComputePhase(now())
	if updated.Status != oldStatus {
		s.metrics.IncStatusChange(string(updated.Status))
		s.events.Publish(ctx, newEvent(model.EventContestStatusChanged, updated.ID, p.UserID, map[string]any{
			"from": oldStatus,
			"to":   updated.Status,
		}))
		log.Info().Str("contest_id", updated.ID).Str("from", string(oldStatus)).Str("to", string(updated.Status)).Msg("contest status changed")
	}
	return updated, nil
}

func validateUpdate(c *model.Contest, upd model.ContestUpdate) error {
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return fmt.Errorf("name is required: %w", common.ErrValidation)
	}
	if upd.Description != nil && strings.TrimSpace(*upd.Description) == "" {
		return fmt.Errorf("description is required: %w", common.ErrValidation)
	}
	if upd.TaskInstruction != nil && strings.TrimSpace(*upd.TaskInstruction) == "" {
		return fmt.Errorf("task_instruction is required: %w", common.ErrValidation)
	}
	if upd.EntryFee != nil {
		if err := validateMoney("entry_fee", *upd.EntryFee); err != nil {
			return err
		}
		// Entrants already paid (or entered for free) at the old price.
		if !upd.EntryFee.Equal(c.EntryFee) && (c.Status != model.ContestPending || c.ParticipantsCount > 0) {
			return fmt.Errorf("entry_fee is fixed once a contest is open: %w", common.ErrConflict)
		}
	}
	if upd.PrizeMoney != nil {
		if err := validateMoney("prize_money", *upd.PrizeMoney); err != nil {
			return err
		}
		if !upd.PrizeMoney.Equal(c.PrizeMoney) && c.Status == model.ContestCompleted {
			return fmt.Errorf("prize_money is fixed once a winner is declared: %w", common.ErrConflict)
		}
	}
	if upd.Category != nil {
		if err := validateCategory(*upd.Category); err != nil {
			return err
		}
	}
	if upd.Deadline != nil && !upd.Deadline.Equal(c.Deadline) {
		if err := validateDeadline(*upd.Deadline); err != nil {
			return err
		}
	}
	return nil
}

func (s *ContestService) DeleteContest(ctx context.Context, p model.Principal, contestID string) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.contestRepo.FindByIDForUpdate(ctx, contestID)
		if err != nil {
			return err
		}
		if !Can(p, CapManageAnyContest) && !(canManageContest(p, c) && c.Status == model.ContestPending) {
			return fmt.Errorf("not allowed to delete this contest: %w", common.ErrForbidden)
		}
		return s.contestRepo.Delete(ctx, contestID)
	})
	if err != nil {
		return err
	}
	s.events.Publish(ctx, newEvent(model.EventContestDeleted, contestID, p.UserID, nil))
	log.Info().Str("contest_id", contestID).Str("by", p.UserID).Msg("contest deleted")
	return nil
}

type ListContestsQuery struct {
	Search   string
	Category string
	Sort     string
	Status   string
	Page     int
	Limit    int
}

func normalizePaging(page, limit int) (int, int, error) {
	if page < 0 || limit < 0 {
		return 0, 0, fmt.Errorf("page and limit must not be negative: %w", common.ErrValidation)
	}
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = model.DefaultPageSize
	}
	if limit > model.MaxPageSize {
		return 0, 0, fmt.Errorf("limit must be at most %d: %w", model.MaxPageSize, common.ErrValidation)
	}
	if page > model.MaxPage {
		return 0, 0, fmt.Errorf("page must be at most %d: %w", model.MaxPage, common.ErrValidation)
	}
	return page, limit, nil
}

func (s *ContestService) ListContests(ctx context.Context, p model.Principal, q ListContestsQuery) (*model.ContestPage, error) {
	page, limit, err := normalizePaging(q.Page, q.Limit)
	if err != nil {
		return nil, err
	}
	filter := model.ContestFilter{Page: page, Limit: limit, Sort: model.SortNewest}

	if q.Sort != "" {
		filter.Sort = model.ContestSort(q.Sort)
		if !filter.Sort.Valid() {
			return nil, fmt.Errorf("unknown sort %q: %w", q.Sort, common.ErrValidation)
		}
	}
	if q.Category != "" {
		if err := validateCategory(q.Category); err != nil {
			return nil, err
		}
		filter.Category = q.Category
	}

	switch {
	case q.Status == "" && Can(p, CapModerateContest):
		// admins see every status by default
	case q.Status == "":
		filter.Statuses = publicStatuses
	default:
		status := model.ContestStatus(q.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("unknown status %q: %w", q.Status, common.ErrValidation)
		}
		if !Can(p, CapModerateContest) && status != model.ContestApproved && status != model.ContestCompleted {
			return nil, fmt.Errorf("only admins can list %s contests: %w", status, common.ErrForbidden)
		}
		filter.Statuses = []model.ContestStatus{status}
	}

	terms, err := model.SearchTerms(q.Search)
	if err != nil {
		return nil, fmt.Errorf("invalid search %q: %v: %w", q.Search, err, common.ErrValidation)
	}
	filter.Terms = terms

	contests, total, err := s.contestRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list contests: %w", err)
	}
	withPhase(contests)
	return &model.ContestPage{Contests: contests, Total: total, Page: page, Limit: limit}, nil
}

// ListMyContests returns the caller's own contests in every status.
func (s *ContestService) ListMyContests(ctx context.Context, p model.Principal, page, limit int) (*model.ContestPage, error) {
	if err := requireCap(p, CapCreateContest); err != nil {
		return nil, err
	}
	page, limit, err := normalizePaging(page, limit)
	if err != nil {
		return nil, err
	}
	filter := model.ContestFilter{CreatorID: p.UserID, Sort: model.SortNewest, Page: page, Limit: limit}
	contests, total, err := s.contestRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list contests: %w", err)
	}
	withPhase(contests)
	return &model.ContestPage{Contests: contests, Total: total, Page: page, Limit: limit}, nil
}

// GetContest hides pending and rejected contests from everyone but their creator and admins.
func (s *ContestService) GetContest(ctx context.Context, p model.Principal, contestID string) (*model.Contest, error) {
	c, err := s.contestRepo.FindByID(ctx, contestID)
	if err != nil {
		return nil, err
	}
	if c.Status == model.ContestPending || c.Status == model.ContestRejected {
		if !Can(p, CapManageAnyContest) && c.CreatorID != p.UserID {
			return nil, common.ErrNotFound
		}
	}
	c.Phase = c.ComputePhase(now())
	return c, nil
}

func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > model.MaxPageSize {
		return model.MaxPageSize
	}
	return limit
}

func (s *ContestService) PopularContests(ctx context.Context, limit int) ([]model.Contest, error) {
	contests, err := s.contestRepo.Popular(ctx, clampLimit(limit, 6))
	if err != nil {
		return nil, fmt.Errorf("failed to load popular contests: %w", err)
	}
	withPhase(contests)
	return contests, nil
}

func (s *ContestService) RecentWinners(ctx context.Context, limit int) ([]model.Contest, error) {
	contests, err := s.contestRepo.RecentWinners(ctx, clampLimit(limit, 6))
	if err != nil {
		return nil, fmt.Errorf("failed to load recent winners: %w", err)
	}
	withPhase(contests)
	return contests, nil
}

func withPhase(contests []model.Contest) {
	t := now()
	for i := range contests {
		contests[i].Phase = contests[i].ComputePhase(t)
	}
}

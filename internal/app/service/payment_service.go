package service

import (
	"context"
	"errors"
	"fmt"

	"creativerse/internal/common"
	"creativerse/internal/domain/model"
	"creativerse/internal/domain/repository"
	"creativerse/internal/platform/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PaymentGateway starts a hosted checkout and returns where to send the payer.
type PaymentGateway interface {
	CreateSession(ctx context.Context, session model.CheckoutSession) (redirectURL string, err error)
}

type PaymentService struct {
	paymentRepo repository.PaymentRepository
	contestRepo repository.ContestRepository
	userRepo    repository.UserRepository
	archive     repository.CallbackArchive
	gateway     PaymentGateway
	tx          repository.Transactor
	events      EventPublisher
	metrics     *metrics.Metrics
}

func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	contestRepo repository.ContestRepository,
	userRepo repository.UserRepository,
	archive repository.CallbackArchive,
	gateway PaymentGateway,
	tx repository.Transactor,
	events EventPublisher,
	m *metrics.Metrics,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		contestRepo: contestRepo,
		userRepo:    userRepo,
		archive:     archive,
		gateway:     gateway,
		tx:          tx,
		events:      orNop(events),
		metrics:     m,
	}
}

// InitiatePayment records a new attempt to pay a contest's entry fee and returns it with
// the gateway redirect. A failed or abandoned attempt may be followed by another one.
func (s *PaymentService) InitiatePayment(ctx context.Context, p model.Principal, contestID string) (*model.Payment, error) {
	if err := requireCap(p, CapParticipate); err != nil {
		return nil, err
	}
	c, err := s.contestRepo.FindByID(ctx, contestID)
	if err != nil {
		return nil, err
	}
	if c.Status != model.ContestApproved {
		return nil, fmt.Errorf("contest is %s, not open for entries: %w", c.Status, common.ErrConflict)
	}
	if c.DeadlinePassed(now()) {
		return nil, fmt.Errorf("contest deadline has passed: %w", common.ErrConflict)
	}
	if !c.RequiresPayment() {
		return nil, fmt.Errorf("contest has no entry fee: %w", common.ErrValidation)
	}
	paid, err := s.paymentRepo.HasSuccess(ctx, p.UserID, contestID)
	if err != nil {
		return nil, err
	}
	if paid {
		return nil, fmt.Errorf("entry fee already paid: %w", common.ErrConflict)
	}
	user, err := s.userRepo.FindByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	payment := &model.Payment{
		ID:            uuid.NewString(),
		UserID:        p.UserID,
		ContestID:     contestID,
		TransactionID: uuid.NewString(),
		Amount:        c.EntryFee,
		Status:        model.PaymentInitiated,
	}
	redirect, err := s.gateway.CreateSession(ctx, model.CheckoutSession{
		TransactionID: payment.TransactionID,
		Amount:        payment.Amount,
		ContestID:     c.ID,
		ContestName:   c.Name,
		CustomerName:  user.Name,
		CustomerEmail: user.Email,
	})
	if err != nil {
		log.Error().Err(err).Str("transaction_id", payment.TransactionID).Msg("payment gateway session failed")
		if errors.Is(err, common.ErrServiceUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("payment gateway: %v: %w", err, common.ErrServiceUnavailable)
	}
	payment.RedirectURL = redirect

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}
	s.metrics.IncPayment(string(model.PaymentInitiated))
	log.Info().Str("transaction_id", payment.TransactionID).Str("contest_id", contestID).Str("user_id", p.UserID).Msg("payment initiated")
	return payment, nil
}

// ConfirmPayment records the gateway's final outcome. It is idempotent: a payment that is
// already terminal is returned unchanged. A success for an entry that is already paid is
// stored as failed and flagged for refund.
func (s *PaymentService) ConfirmPayment(ctx context.Context, transactionID, outcome string) (*model.Payment, error) {
	status := model.PaymentStatus(outcome)
	if status != model.PaymentSuccess && status != model.PaymentFailed {
		return nil, fmt.Errorf("unknown payment outcome %q: %w", outcome, common.ErrValidation)
	}

	payment, changed, duplicate, err := s.finalize(ctx, transactionID, status, false)
	if err != nil && errors.Is(err, common.ErrConflict) && status == model.PaymentSuccess {
		// Another success for the same entry committed while this one was in flight.
		payment, changed, duplicate, err = s.finalize(ctx, transactionID, status, true)
	}
	if err != nil {
		return nil, err
	}
	if !changed {
		return payment, nil
	}

	if duplicate {
		log.Warn().Str("transaction_id", transactionID).Str("user_id", payment.UserID).Str("contest_id", payment.ContestID).
			Str("amount", payment.Amount.String()).Msg("duplicate successful payment recorded as failed, refund required")
		s.metrics.IncPayment("duplicate")
		s.events.Publish(ctx, newEvent(model.EventPaymentDuplicate, payment.ContestID, payment.UserID, map[string]any{
			"transaction_id": transactionID,
			"amount":         payment.Amount.String(),
		}))
		return payment, nil
	}

	s.metrics.IncPayment(string(payment.Status))
	log.Info().Str("transaction_id", transactionID).Str("status", string(payment.Status)).Msg("payment confirmed")
	if payment.Status == model.PaymentSuccess {
		s.events.Publish(ctx, newEvent(model.EventPaymentConfirmed, payment.ContestID, payment.UserID, map[string]any{
			"transaction_id": transactionID,
		}))
	}
	return payment, nil
}

func (s *PaymentService) finalize(ctx context.Context, transactionID string, status model.PaymentStatus, forceFailed bool) (*model.Payment, bool, bool, error) {
	var (
		result    *model.Payment
		changed   bool
		duplicate bool
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.paymentRepo.FindByTransactionID(ctx, transactionID)
		if err != nil {
			return err
		}
		if p.Status.Terminal() {
			result = p
			return nil
		}

		target := status
		if target == model.PaymentSuccess {
			paid, err := s.paymentRepo.HasSuccess(ctx, p.UserID, p.ContestID)
			if err != nil {
				return err
			}
			if paid || forceFailed {
				target = model.PaymentFailed
				duplicate = true
			}
		}

		changed, err = s.paymentRepo.Finalize(ctx, transactionID, target, now())
		if err != nil {
			return err
		}
		result, err = s.paymentRepo.FindByTransactionID(ctx, transactionID)
		return err
	})
	if err != nil {
		return nil, false, false, err
	}
	return result, changed, duplicate && changed, nil
}

// HandleGatewayCallback archives the raw notification and then confirms the payment.
// Archive failures are logged and never block confirmation.
func (s *PaymentService) HandleGatewayCallback(ctx context.Context, cb model.GatewayCallback) (*model.Payment, error) {
	if cb.TransactionID == "" {
		return nil, fmt.Errorf("transaction id is required: %w", common.ErrValidation)
	}
	if s.archive != nil {
		if cb.ReceivedAt.IsZero() {
			cb.ReceivedAt = now()
		}
		if err := s.archive.Save(ctx, cb); err != nil {
			log.Error().Err(err).Str("transaction_id", cb.TransactionID).Msg("failed to archive gateway callback")
		}
	}
	return s.ConfirmPayment(ctx, cb.TransactionID, cb.Outcome)
}

// GetPaymentStatus returns the caller's most recent payment for a contest.
func (s *PaymentService) GetPaymentStatus(ctx context.Context, p model.Principal, contestID string) (*model.Payment, error) {
	if p.IsAnonymous() {
		return nil, common.ErrUnauthorized
	}
	return s.paymentRepo.LatestForEntry(ctx, p.UserID, contestID)
}

// GetPaymentByTransaction is the receipt lookup. Other users' payments read as not found.
func (s *PaymentService) GetPaymentByTransaction(ctx context.Context, p model.Principal, transactionID string) (*model.Payment, error) {
	payment, err := s.paymentRepo.FindByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if payment.UserID != p.UserID && !Can(p, CapManageUsers) {
		return nil, common.ErrNotFound
	}
	return payment, nil
}

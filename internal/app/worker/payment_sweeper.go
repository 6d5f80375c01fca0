package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"creativerse/internal/common"
	"creativerse/internal/domain/repository"
	"creativerse/internal/platform/kv"
	"creativerse/internal/platform/logger"
	"creativerse/internal/platform/metrics"

	"github.com/rs/zerolog"
)

// Locker hands out a lease so only one API instance sweeps at a time.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (kv.Lock, error)
}

type SweeperOptions struct {
	StaleAfter time.Duration
	Interval   time.Duration
	LockKey    string
	LockTTL    time.Duration
}

// PaymentSweeper fails payments whose checkout was abandoned, so the ledger does not keep
// them in initiated forever.
type PaymentSweeper struct {
	payments repository.PaymentRepository
	locker   Locker
	metrics  *metrics.Metrics
	opts     SweeperOptions
	now      func() time.Time
	logger   zerolog.Logger
}

func NewPaymentSweeper(payments repository.PaymentRepository, locker Locker, m *metrics.Metrics, opts SweeperOptions) *PaymentSweeper {
	return &PaymentSweeper{
		payments: payments,
		locker:   locker,
		metrics:  m,
		opts:     opts,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger.Component("payment-sweeper"),
	}
}

func (w *PaymentSweeper) Start(ctx context.Context) {
	w.logger.Info().Dur("interval", w.opts.Interval).Dur("staleAfter", w.opts.StaleAfter).Msg("Payment sweeper started")
	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Payment sweeper stopping")
			return
		case <-ticker.C:
			if _, err := w.SweepOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Error().Err(err).Msg("Payment sweep failed")
			}
		}
	}
}

// SweepOnce runs a single pass. It returns 0 without error when another instance holds the lock.
func (w *PaymentSweeper) SweepOnce(ctx context.Context) (int, error) {
	lock, err := w.locker.Acquire(ctx, w.opts.LockKey, w.opts.LockTTL)
	if errors.Is(err, common.ErrLockHeld) {
		w.logger.Debug().Str("key", w.opts.LockKey).Msg("Sweep lock held elsewhere, skipping")
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			w.logger.Error().Err(err).Str("key", w.opts.LockKey).Msg("Failed to release sweep lock")
		}
	}()

	cutoff := w.now().Add(-w.opts.StaleAfter)
	n, err := w.payments.FailStaleInitiated(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("fail stale payments: %w", err)
	}
	w.metrics.AddSwept(n)
	if n > 0 {
		w.logger.Info().Int("count", n).Time("cutoff", cutoff).Msg("Marked abandoned payments as failed")
	}
	return n, nil
}

package memory

import (
	"context"
	"fmt"
	"time"

	"creativerse/internal/common"
	"creativerse/internal/domain/model"
)

type paymentRepo struct{ s *Store }

func (r *paymentRepo) Create(ctx context.Context, p *model.Payment) error {
	var err error
	r.s.write(ctx, func(d *state) {
		for _, existing := range d.payments {
			if existing.TransactionID == p.TransactionID {
				err = fmt.Errorf("payment transaction already exists: %w", common.ErrConflict)
				return
			}
		}
		now := r.s.tick()
		p.CreatedAt, p.UpdatedAt = now, now
		d.payments[p.ID] = *p
	})
	return err
}

func (r *paymentRepo) FindByTransactionID(ctx context.Context, transactionID string) (*model.Payment, error) {
	var out *model.Payment
	r.s.read(ctx, func(d *state) {
		for _, p := range d.payments {
			if p.TransactionID == transactionID {
				p := p
				out = &p
				return
			}
		}
	})
	if out == nil {
		return nil, common.ErrNotFound
	}
	return out, nil
}

func (r *paymentRepo) LatestForEntry(ctx context.Context, userID, contestID string) (*model.Payment, error) {
	var out *model.Payment
	r.s.read(ctx, func(d *state) { out = latestPayment(d, userID, contestID) })
	if out == nil {
		return nil, common.ErrNotFound
	}
	return out, nil
}

func latestPayment(d *state, userID, contestID string) *model.Payment {
	var out *model.Payment
	for _, p := range d.payments {
		if p.UserID != userID || p.ContestID != contestID {
			continue
		}
		if out == nil || p.CreatedAt.After(out.CreatedAt) {
			p := p
			out = &p
		}
	}
	return out
}

func hasSuccess(d *state, userID, contestID string) bool {
	for _, p := range d.payments {
		if p.UserID == userID && p.ContestID == contestID && p.Status == model.PaymentSuccess {
			return true
		}
	}
	return false
}

func (r *paymentRepo) HasSuccess(ctx context.Context, userID, contestID string) (bool, error) {
	var ok bool
	r.s.read(ctx, func(d *state) { ok = hasSuccess(d, userID, contestID) })
	return ok, nil
}

func (r *paymentRepo) Finalize(ctx context.Context, transactionID string, status model.PaymentStatus, at time.Time) (bool, error) {
	var (
		updated bool
		err     error
	)
	r.s.write(ctx, func(d *state) {
		for id, p := range d.payments {
			if p.TransactionID != transactionID || p.Status != model.PaymentInitiated {
				continue
			}
			if status == model.PaymentSuccess && hasSuccess(d, p.UserID, p.ContestID) {
				err = fmt.Errorf("entry already has a successful payment: %w", common.ErrConflict)
				return
			}
			t := at
			p.Status = status
			p.ConfirmedAt = &t
			p.UpdatedAt = r.s.tick()
			d.payments[id] = p
			updated = true
			return
		}
	})
	return updated, err
}

func (r *paymentRepo) FailStaleInitiated(ctx context.Context, cutoff time.Time) (int, error) {
	n := 0
	r.s.write(ctx, func(d *state) {
		for id, p := range d.payments {
			if p.Status == model.PaymentInitiated && p.CreatedAt.Before(cutoff) {
				p.Status = model.PaymentFailed
				p.UpdatedAt = r.s.tick()
				d.payments[id] = p
				n++
			}
		}
	})
	return n, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"creativerse/internal/common"
	"creativerse/internal/domain/model"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	FindByTransactionID(ctx context.Context, transactionID string) (*model.Payment, error)
	// LatestForEntry returns the most recent payment a user made for a contest.
	LatestForEntry(ctx context.Context, userID, contestID string) (*model.Payment, error)
	HasSuccess(ctx context.Context, userID, contestID string) (bool, error)
	// Finalize moves an initiated payment to a terminal status. It reports false when the
	// payment was already terminal. A second success for the same entry fails with common.ErrConflict.
	Finalize(ctx context.Context, transactionID string, status model.PaymentStatus, at time.Time) (bool, error)
	// FailStaleInitiated marks every payment still initiated before cutoff as failed.
	FailStaleInitiated(ctx context.Context, cutoff time.Time) (int, error)
}

type pgPaymentRepository struct {
	db *sql.DB
}

func NewPgPaymentRepository(db *sql.DB) PaymentRepository {
	return &pgPaymentRepository{db: db}
}

const paymentColumns = `id, user_id, contest_id, transaction_id, amount, status, redirect_url, created_at, updated_at, confirmed_at`

func scanPayment(row rowScanner, p *model.Payment) error {
	var confirmedAt sql.NullTime
	if err := row.Scan(&p.ID, &p.UserID, &p.ContestID, &p.TransactionID, &p.Amount, &p.Status,
		&p.RedirectURL, &p.CreatedAt, &p.UpdatedAt, &confirmedAt); err != nil {
		return err
	}
	p.ConfirmedAt = nil
	if confirmedAt.Valid {
		t := confirmedAt.Time
		p.ConfirmedAt = &t
	}
	return nil
}

func (r *pgPaymentRepository) Create(ctx context.Context, p *model.Payment) error {
	query := `INSERT INTO payments (id, user_id, contest_id, transaction_id, amount, status, redirect_url)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING created_at, updated_at`
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		p.ID, p.UserID, p.ContestID, p.TransactionID, p.Amount, p.Status, p.RedirectURL,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("payment transaction already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgPaymentRepository.Create: %w", err)
	}
	return nil
}

func (r *pgPaymentRepository) FindByTransactionID(ctx context.Context, transactionID string) (*model.Payment, error) {
	p := &model.Payment{}
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE transaction_id = $1`, transactionID)
	if err := scanPayment(row, p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgPaymentRepository.FindByTransactionID: %w", err)
	}
	return p, nil
}

func (r *pgPaymentRepository) LatestForEntry(ctx context.Context, userID, contestID string) (*model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments
	          WHERE user_id = $1 AND contest_id = $2
	          ORDER BY created_at DESC LIMIT 1`
	p := &model.Payment{}
	if err := scanPayment(conn(ctx, r.db).QueryRowContext(ctx, query, userID, contestID), p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgPaymentRepository.LatestForEntry: %w", err)
	}
	return p, nil
}

func (r *pgPaymentRepository) HasSuccess(ctx context.Context, userID, contestID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM payments WHERE user_id = $1 AND contest_id = $2 AND status = $3)`
	var exists bool
	if err := conn(ctx, r.db).QueryRowContext(ctx, query, userID, contestID, model.PaymentSuccess).Scan(&exists); err != nil {
		return false, fmt.Errorf("pgPaymentRepository.HasSuccess: %w", err)
	}
	return exists, nil
}

func (r *pgPaymentRepository) Finalize(ctx context.Context, transactionID string, status model.PaymentStatus, at time.Time) (bool, error) {
	query := `UPDATE payments SET status = $1, confirmed_at = $2, updated_at = CURRENT_TIMESTAMP
	          WHERE transaction_id = $3 AND status = $4`
	res, err := conn(ctx, r.db).ExecContext(ctx, query, status, at, transactionID, model.PaymentInitiated)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return false, fmt.Errorf("entry already has a successful payment: %w", common.ErrConflict)
		}
		return false, fmt.Errorf("pgPaymentRepository.Finalize: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("pgPaymentRepository.Finalize rows affected: %w", err)
	}
	return n == 1, nil
}

func (r *pgPaymentRepository) FailStaleInitiated(ctx context.Context, cutoff time.Time) (int, error) {
	query := `UPDATE payments SET status = $1, updated_at = CURRENT_TIMESTAMP
	          WHERE status = $2 AND created_at < $3`
	res, err := conn(ctx, r.db).ExecContext(ctx, query, model.PaymentFailed, model.PaymentInitiated, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pgPaymentRepository.FailStaleInitiated: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pgPaymentRepository.FailStaleInitiated rows affected: %w", err)
	}
	return int(n), nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"creativerse/internal/common"
	"creativerse/internal/domain/model"
)

type SubmissionRepository interface {
	// Create returns common.ErrAlreadyEntered when the user already has a submission for the contest.
	Create(ctx context.Context, sub *model.Submission) error
	FindByID(ctx context.Context, id string) (*model.Submission, error)
	FindByUserAndContest(ctx context.Context, userID, contestID string) (*model.Submission, error)
	ListByContest(ctx context.Context, contestID string) ([]model.Submission, error)
	MarkWinner(ctx context.Context, submissionID string) error
	ListParticipations(ctx context.Context, userID string) ([]model.Participation, error)
}

type pgSubmissionRepository struct {
	db *sql.DB
}

func NewPgSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &pgSubmissionRepository{db: db}
}

const submissionSelect = `
        SELECT s.id, s.contest_id, s.user_id, COALESCE(u.name, ''), s.submission_text, s.submission_img, s.status, s.created_at
        FROM submissions s
        LEFT JOIN users u ON u.id = s.user_id`

func scanSubmission(row rowScanner, s *model.Submission) error {
	return row.Scan(&s.ID, &s.ContestID, &s.UserID, &s.UserName, &s.SubmissionText, &s.SubmissionImg, &s.Status, &s.CreatedAt)
}

func (r *pgSubmissionRepository) Create(ctx context.Context, sub *model.Submission) error {
	query := `INSERT INTO submissions (id, contest_id, user_id, submission_text, submission_img, status)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING created_at`
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		sub.ID, sub.ContestID, sub.UserID, sub.SubmissionText, sub.SubmissionImg, sub.Status,
	).Scan(&sub.CreatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return common.ErrAlreadyEntered
		}
		return fmt.Errorf("pgSubmissionRepository.Create: %w", err)
	}
	return nil
}

func (r *pgSubmissionRepository) findOne(ctx context.Context, where string, op string, args ...interface{}) (*model.Submission, error) {
	s := &model.Submission{}
	if err := scanSubmission(conn(ctx, r.db).QueryRowContext(ctx, submissionSelect+" WHERE "+where, args...), s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSubmissionRepository.%s: %w", op, err)
	}
	return s, nil
}

func (r *pgSubmissionRepository) FindByID(ctx context.Context, id string) (*model.Submission, error) {
	return r.findOne(ctx, "s.id = $1", "FindByID", id)
}

func (r *pgSubmissionRepository) FindByUserAndContest(ctx context.Context, userID, contestID string) (*model.Submission, error) {
	return r.findOne(ctx, "s.user_id = $1 AND s.contest_id = $2", "FindByUserAndContest", userID, contestID)
}

func (r *pgSubmissionRepository) ListByContest(ctx context.Context, contestID string) ([]model.Submission, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, submissionSelect+` WHERE s.contest_id = $1 ORDER BY s.created_at ASC, s.id`, contestID)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListByContest query: %w", err)
	}
	defer rows.Close()

	subs := []model.Submission{}
	for rows.Next() {
		var s model.Submission
		if err := scanSubmission(rows, &s); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.ListByContest scan: %w", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListByContest rows.Err: %w", err)
	}
	return subs, nil
}

func (r *pgSubmissionRepository) MarkWinner(ctx context.Context, submissionID string) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `UPDATE submissions SET status = $1 WHERE id = $2`, model.SubmissionWinner, submissionID)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.MarkWinner: %w", err)
	}
	return expectAffected(res, "pgSubmissionRepository.MarkWinner")
}

func (r *pgSubmissionRepository) ListParticipations(ctx context.Context, userID string) ([]model.Participation, error) {
	query := `SELECT` + contestColumns + `, sub.id, sub.status, sub.created_at, pay.status, pay.transaction_id` + contestFrom + `
        JOIN submissions sub ON sub.contest_id = c.id
        LEFT JOIN LATERAL (
            SELECT p.status, p.transaction_id FROM payments p
            WHERE p.user_id = sub.user_id AND p.contest_id = sub.contest_id
            ORDER BY p.created_at DESC LIMIT 1
        ) pay ON true
        WHERE sub.user_id = $1
        ORDER BY sub.created_at DESC`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListParticipations query: %w", err)
	}
	defer rows.Close()

	out := []model.Participation{}
	for rows.Next() {
		var (
			p                     model.Participation
			payStatus, payTransID sql.NullString
		)
		if err := scanContest(rows, &p.Contest, &p.SubmissionID, &p.Status, &p.SubmittedAt, &payStatus, &payTransID); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.ListParticipations scan: %w", err)
		}
		p.PaymentStatus = model.PaymentStatus(payStatus.String)
		p.TransactionID = payTransID.String
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListParticipations rows.Err: %w", err)
	}
	return out, nil
}

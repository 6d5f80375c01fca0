package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"creativerse/internal/common"
	"creativerse/internal/domain/model"
)

type ContestRepository interface {
	Create(ctx context.Context, contest *model.Contest) error
	FindByID(ctx context.Context, id string) (*model.Contest, error)
	// FindByIDForUpdate locks the contest row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id string) (*model.Contest, error)
	Update(ctx context.Context, contest *model.Contest) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter model.ContestFilter) ([]model.Contest, int, error)
	Popular(ctx context.Context, limit int) ([]model.Contest, error)
	RecentWinners(ctx context.Context, limit int) ([]model.Contest, error)
	ListWonByUser(ctx context.Context, userID string) ([]model.Contest, error)
	// SetWinner completes an approved contest that has no winner yet.
	// It returns common.ErrWinnerAlreadyDeclared when another winner got there first.
	SetWinner(ctx context.Context, contestID string, winner model.Winner) error
}

type pgContestRepository struct {
	db *sql.DB
}

func NewPgContestRepository(db *sql.DB) ContestRepository {
	return &pgContestRepository{db: db}
}

const contestColumns = `
               c.id, c.slug, c.creator_id, COALESCE(cu.name, ''), c.name, c.description, c.task_instruction,
               c.image, c.entry_fee, c.prize_money, c.category, c.deadline, c.status,
               (SELECT COUNT(*) FROM submissions s WHERE s.contest_id = c.id) AS participants_count,
               c.winner_user_id, c.winner_submission_id, c.winner_declared_at,
               COALESCE(wu.name, ''), COALESCE(wu.photo_url, ''),
               c.created_at, c.updated_at`

const contestFrom = `
        FROM contests c
        LEFT JOIN users cu ON cu.id = c.creator_id
        LEFT JOIN users wu ON wu.id = c.winner_user_id`

const contestSelect = `SELECT` + contestColumns + contestFrom

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanContest(row rowScanner, c *model.Contest, extra ...interface{}) error {
	var (
		winnerUserID, winnerSubmissionID sql.NullString
		declaredAt                       sql.NullTime
		winnerName, winnerPhoto          string
	)
	dest := []interface{}{
		&c.ID, &c.Slug, &c.CreatorID, &c.CreatorName, &c.Name, &c.Description, &c.TaskInstruction,
		&c.Image, &c.EntryFee, &c.PrizeMoney, &c.Category, &c.Deadline, &c.Status,
		&c.ParticipantsCount,
		&winnerUserID, &winnerSubmissionID, &declaredAt,
		&winnerName, &winnerPhoto,
		&c.CreatedAt, &c.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	c.Winner = nil
	if winnerUserID.Valid {
		c.Winner = &model.Winner{
			UserID:       winnerUserID.String,
			SubmissionID: winnerSubmissionID.String,
			UserName:     winnerName,
			PhotoURL:     winnerPhoto,
			DeclaredAt:   declaredAt.Time,
		}
	}
	return nil
}

func (r *pgContestRepository) Create(ctx context.Context, c *model.Contest) error {
	query := `INSERT INTO contests (id, slug, creator_id, name, description, task_instruction, image,
	                                entry_fee, prize_money, category, deadline, status)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	          RETURNING created_at, updated_at`
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		c.ID, c.Slug, c.CreatorID, c.Name, c.Description, c.TaskInstruction, c.Image,
		c.EntryFee, c.PrizeMoney, c.Category, c.Deadline, c.Status,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("contest with this slug already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgContestRepository.Create: %w", err)
	}
	return nil
}

func (r *pgContestRepository) findByID(ctx context.Context, id, suffix, op string) (*model.Contest, error) {
	c := &model.Contest{}
	row := conn(ctx, r.db).QueryRowContext(ctx, contestSelect+` WHERE c.id = $1`+suffix, id)
	if err := scanContest(row, c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgContestRepository.%s: %w", op, err)
	}
	return c, nil
}

func (r *pgContestRepository) FindByID(ctx context.Context, id string) (*model.Contest, error) {
	return r.findByID(ctx, id, "", "FindByID")
}

func (r *pgContestRepository) FindByIDForUpdate(ctx context.Context, id string) (*model.Contest, error) {
	return r.findByID(ctx, id, " FOR UPDATE OF c", "FindByIDForUpdate")
}

func (r *pgContestRepository) Update(ctx context.Context, c *model.Contest) error {
	query := `UPDATE contests SET
                name = $1, description = $2, task_instruction = $3, image = $4, entry_fee = $5,
                prize_money = $6, category = $7, deadline = $8, status = $9, updated_at = CURRENT_TIMESTAMP
              WHERE id = $10
              RETURNING updated_at`
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		c.Name, c.Description, c.TaskInstruction, c.Image, c.EntryFee,
		c.PrizeMoney, c.Category, c.Deadline, c.Status, c.ID,
	).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		return fmt.Errorf("pgContestRepository.Update: %w", err)
	}
	return nil
}

// Delete cascades to the contest's payments and submissions.
func (r *pgContestRepository) Delete(ctx context.Context, id string) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM contests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgContestRepository.Delete: %w", err)
	}
	return expectAffected(res, "pgContestRepository.Delete")
}

var contestOrderBy = map[model.ContestSort]string{
	model.SortNewest:       "c.created_at DESC, c.id",
	model.SortDeadlineAsc:  "c.deadline ASC, c.id",
	model.SortDeadlineDesc: "c.deadline DESC, c.id",
	model.SortPrizeAsc:     "c.prize_money ASC, c.id",
	model.SortPrizeDesc:    "c.prize_money DESC, c.id",
}

func (r *pgContestRepository) List(ctx context.Context, filter model.ContestFilter) ([]model.Contest, int, error) {
	var conditions []string
	var args []interface{}
	argID := 1

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("c.category = $%d", argID))
		args = append(args, filter.Category)
		argID++
	}
	if filter.CreatorID != "" {
		conditions = append(conditions, fmt.Sprintf("c.creator_id = $%d", argID))
		args = append(args, filter.CreatorID)
		argID++
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			placeholders[i] = fmt.Sprintf("$%d", argID)
			args = append(args, s)
			argID++
		}
		conditions = append(conditions, fmt.Sprintf("c.status IN (%s)", strings.Join(placeholders, ",")))
	}
	for _, term := range filter.Terms {
		conditions = append(conditions, fmt.Sprintf("(c.name ILIKE $%d OR c.description ILIKE $%d)", argID, argID))
		args = append(args, "%"+escapeLike(term)+"%")
		argID++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := conn(ctx, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM contests c`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgContestRepository.List count: %w", err)
	}

	orderBy, ok := contestOrderBy[filter.Sort]
	if !ok {
		orderBy = contestOrderBy[model.SortNewest]
	}
	query := contestSelect + where + fmt.Sprintf(" ORDER BY %s LIMIT $%d OFFSET $%d", orderBy, argID, argID+1)
	args = append(args, filter.Limit, filter.Offset())

	contests, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgContestRepository.List: %w", err)
	}
	return contests, total, nil
}

func (r *pgContestRepository) Popular(ctx context.Context, limit int) ([]model.Contest, error) {
	query := contestSelect + ` WHERE c.status = $1 ORDER BY participants_count DESC, c.created_at DESC LIMIT $2`
	contests, err := r.query(ctx, query, model.ContestApproved, limit)
	if err != nil {
		return nil, fmt.Errorf("pgContestRepository.Popular: %w", err)
	}
	return contests, nil
}

func (r *pgContestRepository) RecentWinners(ctx context.Context, limit int) ([]model.Contest, error) {
	query := contestSelect + ` WHERE c.status = $1 ORDER BY c.winner_declared_at DESC LIMIT $2`
	contests, err := r.query(ctx, query, model.ContestCompleted, limit)
	if err != nil {
		return nil, fmt.Errorf("pgContestRepository.RecentWinners: %w", err)
	}
	return contests, nil
}

func (r *pgContestRepository) ListWonByUser(ctx context.Context, userID string) ([]model.Contest, error) {
	query := contestSelect + ` WHERE c.winner_user_id = $1 ORDER BY c.winner_declared_at DESC`
	contests, err := r.query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pgContestRepository.ListWonByUser: %w", err)
	}
	return contests, nil
}

func (r *pgContestRepository) SetWinner(ctx context.Context, contestID string, w model.Winner) error {
	query := `UPDATE contests SET
                winner_user_id = $1, winner_submission_id = $2, winner_declared_at = $3,
                status = $4, updated_at = CURRENT_TIMESTAMP
              WHERE id = $5 AND status = $6 AND winner_user_id IS NULL`
	res, err := conn(ctx, r.db).ExecContext(ctx, query,
		w.UserID, w.SubmissionID, w.DeclaredAt, model.ContestCompleted, contestID, model.ContestApproved)
	if err != nil {
		return fmt.Errorf("pgContestRepository.SetWinner: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("pgContestRepository.SetWinner rows affected: %w", err)
	} else if n == 0 {
		return common.ErrWinnerAlreadyDeclared
	}
	return nil
}

func (r *pgContestRepository) query(ctx context.Context, query string, args ...interface{}) ([]model.Contest, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contests := []model.Contest{}
	for rows.Next() {
		var c model.Contest
		if err := scanContest(rows, &c); err != nil {
			return nil, err
		}
		contests = append(contests, c)
	}
	return contests, rows.Err()
}

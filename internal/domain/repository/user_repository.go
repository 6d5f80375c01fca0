package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"creativerse/internal/common"
	"creativerse/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context, filter model.UserFilter) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

const userColumns = `id, name, email, photo_url, hashed_password, role, is_verified, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }, u *model.User) error {
	return row.Scan(&u.ID, &u.Name, &u.Email, &u.PhotoURL, &u.HashedPassword, &u.Role, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt)
}

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, name, email, photo_url, hashed_password, role, is_verified)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING created_at, updated_at`
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		user.ID, user.Name, user.Email, user.PhotoURL, user.HashedPassword, user.Role, user.IsVerified,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("user with given email already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return nil
}

func (r *pgUserRepository) findOne(ctx context.Context, where string, arg interface{}, op string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	user := &model.User{}
	if err := scanUser(conn(ctx, r.db).QueryRowContext(ctx, query, arg), user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.%s: %w", op, err)
	}
	return user, nil
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "LOWER(email) = LOWER($1)", email, "FindByEmail")
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, "id = $1", id, "FindByID")
}

func (r *pgUserRepository) List(ctx context.Context, filter model.UserFilter) ([]model.User, error) {
	var query strings.Builder
	query.WriteString(`SELECT ` + userColumns + ` FROM users`)

	var conditions []string
	var args []interface{}
	argID := 1

	if filter.Role != "" {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argID))
		args = append(args, filter.Role)
		argID++
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", argID, argID))
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		argID++
	}
	if len(conditions) > 0 {
		query.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	query.WriteString(" ORDER BY created_at DESC")

	rows, err := conn(ctx, r.db).QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("pgUserRepository.List query: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("pgUserRepository.List scan: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgUserRepository.List rows.Err: %w", err)
	}
	return users, nil
}

func (r *pgUserRepository) Update(ctx context.Context, user *model.User) error {
	query := `UPDATE users SET name = $1, photo_url = $2, role = $3, is_verified = $4, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $5 RETURNING updated_at`
	err := conn(ctx, r.db).QueryRowContext(ctx, query, user.Name, user.PhotoURL, user.Role, user.IsVerified, user.ID).Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		return fmt.Errorf("pgUserRepository.Update: %w", err)
	}
	return nil
}

func (r *pgUserRepository) Delete(ctx context.Context, id string) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // still referenced as a contest winner
			return fmt.Errorf("user is a declared contest winner: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgUserRepository.Delete: %w", err)
	}
	return expectAffected(res, "pgUserRepository.Delete")
}

func expectAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

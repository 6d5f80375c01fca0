package repository

import (
	"context"
	"database/sql"
	"fmt"

	"creativerse/internal/domain/model"
)

// LeaderboardRepository aggregates per-user participation and winnings. Ranks are left unset.
type LeaderboardRepository interface {
	Aggregate(ctx context.Context) ([]model.LeaderboardEntry, error)
	AggregateForUser(ctx context.Context, userID string) (*model.LeaderboardEntry, error)
}

type pgLeaderboardRepository struct {
	db *sql.DB
}

func NewPgLeaderboardRepository(db *sql.DB) LeaderboardRepository {
	return &pgLeaderboardRepository{db: db}
}

// One submission per (user, contest), so each won contest joins exactly once.
const leaderboardQuery = `
        SELECT u.id, u.name, u.photo_url,
               COUNT(s.id) AS participant_count,
               COUNT(c.id) AS win_count,
               COALESCE(SUM(c.prize_money), 0) AS total_prize_earning
        FROM submissions s
        JOIN users u ON u.id = s.user_id
        LEFT JOIN contests c ON c.id = s.contest_id AND c.winner_user_id = s.user_id`

func (r *pgLeaderboardRepository) Aggregate(ctx context.Context) ([]model.LeaderboardEntry, error) {
	query := leaderboardQuery + `
        GROUP BY u.id, u.name, u.photo_url
        ORDER BY total_prize_earning DESC, win_count DESC, participant_count DESC, u.id ASC`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgLeaderboardRepository.Aggregate query: %w", err)
	}
	defer rows.Close()

	entries := []model.LeaderboardEntry{}
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.UserName, &e.PhotoURL, &e.ParticipantCount, &e.WinCount, &e.TotalPrizeEarning); err != nil {
			return nil, fmt.Errorf("pgLeaderboardRepository.Aggregate scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgLeaderboardRepository.Aggregate rows.Err: %w", err)
	}
	return entries, nil
}

// AggregateForUser returns zero counts for a user without submissions.
func (r *pgLeaderboardRepository) AggregateForUser(ctx context.Context, userID string) (*model.LeaderboardEntry, error) {
	entries, err := r.Aggregate(ctx)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].UserID == userID {
			e := entries[i]
			e.Rank = i + 1
			return &e, nil
		}
	}
	return &model.LeaderboardEntry{UserID: userID}, nil
}

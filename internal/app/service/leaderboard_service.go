package service

import (
	"context"
	"fmt"
	"sort"

	"creativerse/internal/domain/model"
	"creativerse/internal/domain/repository"
)

// LeaderboardService derives rankings on every read. Nothing is cached.
type LeaderboardService struct {
	leaderboardRepo repository.LeaderboardRepository
	userRepo        repository.UserRepository
}

func NewLeaderboardService(leaderboardRepo repository.LeaderboardRepository, userRepo repository.UserRepository) *LeaderboardService {
	return &LeaderboardService{leaderboardRepo: leaderboardRepo, userRepo: userRepo}
}

// ComputeLeaderboard ranks every user with at least one submission. limit <= 0 returns all.
func (s *LeaderboardService) ComputeLeaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	entries, err := s.leaderboardRepo.Aggregate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate leaderboard: %w", err)
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Less(entries[j]) })
	for i := range entries {
		entries[i].Rank = i + 1
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// UserStats returns one user's leaderboard entry; users without submissions get zero counts and no rank.
func (s *LeaderboardService) UserStats(ctx context.Context, userID string) (*model.LeaderboardEntry, error) {
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	entry, err := s.leaderboardRepo.AggregateForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate user stats: %w", err)
	}
	entry.UserName = u.Name
	entry.PhotoURL = u.PhotoURL
	return entry, nil
}

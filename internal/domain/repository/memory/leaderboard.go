package memory

import (
	"context"
	"sort"

	"creativerse/internal/domain/model"
)

type leaderboardRepo struct{ s *Store }

func (r *leaderboardRepo) Aggregate(ctx context.Context) ([]model.LeaderboardEntry, error) {
	byUser := map[string]*model.LeaderboardEntry{}
	r.s.read(ctx, func(d *state) {
		for _, s := range d.submissions {
			e, ok := byUser[s.UserID]
			if !ok {
				e = &model.LeaderboardEntry{UserID: s.UserID}
				if u, found := d.users[s.UserID]; found {
					e.UserName = u.Name
					e.PhotoURL = u.PhotoURL
				}
				byUser[s.UserID] = e
			}
			e.ParticipantCount++
			if c, found := d.contests[s.ContestID]; found && c.Winner != nil && c.Winner.UserID == s.UserID {
				e.WinCount++
				e.TotalPrizeEarning = e.TotalPrizeEarning.Add(c.PrizeMoney)
			}
		}
	})

	out := make([]model.LeaderboardEntry, 0, len(byUser))
	for _, e := range byUser {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out, nil
}

func (r *leaderboardRepo) AggregateForUser(ctx context.Context, userID string) (*model.LeaderboardEntry, error) {
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

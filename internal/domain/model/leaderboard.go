package model

import "github.com/shopspring/decimal"

type LeaderboardEntry struct {
	Rank              int             `json:"rank"`
	UserID            string          `json:"user_id"`
	UserName          string          `json:"user_name"`
	PhotoURL          string          `json:"photo_url,omitempty"`
	ParticipantCount  int             `json:"participant_count"`
	WinCount          int             `json:"win_count"`
	TotalPrizeEarning decimal.Decimal `json:"total_prize_earning"`
}

// Less orders entries by earnings, then wins, then participations, all descending.
// Ties fall back to user id so the ranking is stable across reads.
func (e LeaderboardEntry) Less(o LeaderboardEntry) bool {
	if c := e.TotalPrizeEarning.Cmp(o.TotalPrizeEarning); c != 0 {
		return c > 0
	}
	if e.WinCount != o.WinCount {
		return e.WinCount > o.WinCount
	}
	if e.ParticipantCount != o.ParticipantCount {
		return e.ParticipantCount > o.ParticipantCount
	}
	return e.UserID < o.UserID
}

package memory

import (
	"context"
	"fmt"
	"sort"

	"creativerse/internal/common"
	"creativerse/internal/domain/model"
)

type contestRepo struct{ s *Store }

// hydrate fills the read-side fields the Postgres queries compute with joins.
func hydrate(d *state, c model.Contest) model.Contest {
	if u, ok := d.users[c.CreatorID]; ok {
		c.CreatorName = u.Name
	}
	c.ParticipantsCount = 0
	for _, s := range d.submissions {
		if s.ContestID == c.ID {
			c.ParticipantsCount++
		}
	}
	if c.Winner != nil {
		w := *c.Winner
		if u, ok := d.users[w.UserID]; ok {
			w.UserName = u.Name
			w.PhotoURL = u.PhotoURL
		}
		c.Winner = &w
	}
	return c
}

func deleteContest(d *state, id string) {
	delete(d.contests, id)
	for pid, p := range d.payments {
		if p.ContestID == id {
			delete(d.payments, pid)
		}
	}
	for sid, s := range d.submissions {
		if s.ContestID == id {
			delete(d.submissions, sid)
		}
	}
}

func (r *contestRepo) Create(ctx context.Context, c *model.Contest) error {
	var err error
	r.s.write(ctx, func(d *state) {
		for _, existing := range d.contests {
			if existing.Slug == c.Slug {
				err = fmt.Errorf("contest with this slug already exists: %w", common.ErrConflict)
				return
			}
		}
		now := r.s.tick()
		c.CreatedAt, c.UpdatedAt = now, now
		stored := *c
		stored.Winner = nil
		d.contests[c.ID] = stored
	})
	return err
}

func (r *contestRepo) FindByID(ctx context.Context, id string) (*model.Contest, error) {
	var out *model.Contest
	r.s.read(ctx, func(d *state) {
		if c, ok := d.contests[id]; ok {
			h := hydrate(d, c)
			out = &h
		}
	})
	if out == nil {
		return nil, common.ErrNotFound
	}
	return out, nil
}

// FindByIDForUpdate relies on the transaction lock for exclusivity.
func (r *contestRepo) FindByIDForUpdate(ctx context.Context, id string) (*model.Contest, error) {
	return r.FindByID(ctx, id)
}

func (r *contestRepo) Update(ctx context.Context, c *model.Contest) error {
	var err error
	r.s.write(ctx, func(d *state) {
		cur, ok := d.contests[c.ID]
		if !ok {
			err = common.ErrNotFound
			return
		}
		cur.Name = c.Name
		cur.Description = c.Description
		cur.TaskInstruction = c.TaskInstruction
		cur.Image = c.Image
		cur.EntryFee = c.EntryFee
		cur.PrizeMoney = c.PrizeMoney
		cur.Category = c.Category
		cur.Deadline = c.Deadline
		cur.Status = c.Status
		cur.UpdatedAt = r.s.tick()
		d.contests[c.ID] = cur
		c.UpdatedAt = cur.UpdatedAt
	})
	return err
}

func (r *contestRepo) Delete(ctx context.Context, id string) error {
	var err error
	r.s.write(ctx, func(d *state) {
		if _, ok := d.contests[id]; !ok {
			err = common.ErrNotFound
			return
		}
		deleteContest(d, id)
	})
	return err
}

func (r *contestRepo) collect(ctx context.Context, keep func(c *model.Contest) bool) []model.Contest {
	out := []model.Contest{}
	r.s.read(ctx, func(d *state) {
		for _, c := range d.contests {
			h := hydrate(d, c)
			if keep(&h) {
				out = append(out, h)
			}
		}
	})
	return out
}

func sortContests(contests []model.Contest, by model.ContestSort) {
	sort.SliceStable(contests, func(i, j int) bool {
		a, b := contests[i], contests[j]
		switch by {
		case model.SortDeadlineAsc:
			if !a.Deadline.Equal(b.Deadline) {
				return a.Deadline.Before(b.Deadline)
			}
		case model.SortDeadlineDesc:
			if !a.Deadline.Equal(b.Deadline) {
				return a.Deadline.After(b.Deadline)
			}
		case model.SortPrizeAsc:
			if c := a.PrizeMoney.Cmp(b.PrizeMoney); c != 0 {
				return c < 0
			}
		case model.SortPrizeDesc:
			if c := a.PrizeMoney.Cmp(b.PrizeMoney); c != 0 {
				return c > 0
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		}
		return a.ID < b.ID
	})
}

func (r *contestRepo) List(ctx context.Context, filter model.ContestFilter) ([]model.Contest, int, error) {
	all := r.collect(ctx, filter.Matches)
	sortContests(all, filter.Sort)

	total := len(all)
	start := filter.Offset()
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func limitContests(contests []model.Contest, limit int) []model.Contest {
	if limit > 0 && len(contests) > limit {
		return contests[:limit]
	}
	return contests
}

func (r *contestRepo) Popular(ctx context.Context, limit int) ([]model.Contest, error) {
	out := r.collect(ctx, func(c *model.Contest) bool { return c.Status == model.ContestApproved })
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ParticipantsCount != out[j].ParticipantsCount {
			return out[i].ParticipantsCount > out[j].ParticipantsCount
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return limitContests(out, limit), nil
}

func byDeclaredAtDesc(out []model.Contest) {
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Winner.DeclaredAt.After(out[j].Winner.DeclaredAt)
	})
}

func (r *contestRepo) RecentWinners(ctx context.Context, limit int) ([]model.Contest, error) {
	out := r.collect(ctx, func(c *model.Contest) bool { return c.Status == model.ContestCompleted && c.Winner != nil })
	byDeclaredAtDesc(out)
	return limitContests(out, limit), nil
}

func (r *contestRepo) ListWonByUser(ctx context.Context, userID string) ([]model.Contest, error) {
	out := r.collect(ctx, func(c *model.Contest) bool { return c.Winner != nil && c.Winner.UserID == userID })
	byDeclaredAtDesc(out)
	return out, nil
}

func (r *contestRepo) SetWinner(ctx context.Context, contestID string, w model.Winner) error {
	var err error
	r.s.write(ctx, func(d *state) {
		c, ok := d.contests[contestID]
		if !ok {
			err = common.ErrNotFound
			return
		}
		if c.Winner != nil || c.Status != model.ContestApproved {
			err = common.ErrWinnerAlreadyDeclared
			return
		}
		c.Winner = &model.Winner{UserID: w.UserID, SubmissionID: w.SubmissionID, DeclaredAt: w.DeclaredAt}
		c.Status = model.ContestCompleted
		c.UpdatedAt = r.s.tick()
		d.contests[contestID] = c
	})
	return err
}

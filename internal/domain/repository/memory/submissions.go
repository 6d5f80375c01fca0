package memory

import (
	"context"
	"sort"

	"creativerse/internal/common"
	"creativerse/internal/domain/model"
)

type submissionRepo struct{ s *Store }

func withUserName(d *state, s model.Submission) model.Submission {
	if u, ok := d.users[s.UserID]; ok {
		s.UserName = u.Name
	}
	return s
}

func (r *submissionRepo) Create(ctx context.Context, sub *model.Submission) error {
	var err error
	r.s.write(ctx, func(d *state) {
		for _, existing := range d.submissions {
			if existing.UserID == sub.UserID && existing.ContestID == sub.ContestID {
				err = common.ErrAlreadyEntered
				return
			}
		}
		sub.CreatedAt = r.s.tick()
		d.submissions[sub.ID] = *sub
	})
	return err
}

func (r *submissionRepo) FindByID(ctx context.Context, id string) (*model.Submission, error) {
	var out *model.Submission
	r.s.read(ctx, func(d *state) {
		if s, ok := d.submissions[id]; ok {
			s = withUserName(d, s)
			out = &s
		}
	})
	if out == nil {
		return nil, common.ErrNotFound
	}
	return out, nil
}

func (r *submissionRepo) FindByUserAndContest(ctx context.Context, userID, contestID string) (*model.Submission, error) {
	var out *model.Submission
	r.s.read(ctx, func(d *state) {
		for _, s := range d.submissions {
			if s.UserID == userID && s.ContestID == contestID {
				s = withUserName(d, s)
				out = &s
				return
			}
		}
	})
	if out == nil {
		return nil, common.ErrNotFound
	}
	return out, nil
}

func (r *submissionRepo) ListByContest(ctx context.Context, contestID string) ([]model.Submission, error) {
	out := []model.Submission{}
	r.s.read(ctx, func(d *state) {
		for _, s := range d.submissions {
			if s.ContestID == contestID {
				out = append(out, withUserName(d, s))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *submissionRepo) MarkWinner(ctx context.Context, submissionID string) error {
	var err error
	r.s.write(ctx, func(d *state) {
		s, ok := d.submissions[submissionID]
		if !ok {
			err = common.ErrNotFound
			return
		}
		s.Status = model.SubmissionWinner
		d.submissions[submissionID] = s
	})
	return err
}

func (r *submissionRepo) ListParticipations(ctx context.Context, userID string) ([]model.Participation, error) {
	out := []model.Participation{}
	r.s.read(ctx, func(d *state) {
		for _, s := range d.submissions {
			if s.UserID != userID {
				continue
			}
			c, ok := d.contests[s.ContestID]
			if !ok {
				continue
			}
			part := model.Participation{
				Contest:      hydrate(d, c),
				SubmissionID: s.ID,
				Status:       s.Status,
				SubmittedAt:  s.CreatedAt,
			}
			if pay := latestPayment(d, s.UserID, s.ContestID); pay != nil {
				part.PaymentStatus = pay.Status
				part.TransactionID = pay.TransactionID
			}
			out = append(out, part)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

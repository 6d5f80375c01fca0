package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"creativerse/internal/common"
	"creativerse/internal/domain/model"
)

type userRepo struct{ s *Store }

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	var err error
	r.s.write(ctx, func(d *state) {
		for _, u := range d.users {
			if strings.EqualFold(u.Email, user.Email) {
				err = fmt.Errorf("user with given email already exists: %w", common.ErrConflict)
				return
			}
		}
		now := r.s.tick()
		user.CreatedAt, user.UpdatedAt = now, now
		d.users[user.ID] = *user
	})
	return err
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var out *model.User
	r.s.read(ctx, func(d *state) {
		for _, u := range d.users {
			if strings.EqualFold(u.Email, email) {
				u := u
				out = &u
				return
			}
		}
	})
	if out == nil {
		return nil, common.ErrNotFound
	}
	return out, nil
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	var out *model.User
	r.s.read(ctx, func(d *state) {
		if u, ok := d.users[id]; ok {
			out = &u
		}
	})
	if out == nil {
		return nil, common.ErrNotFound
	}
	return out, nil
}

func (r *userRepo) List(ctx context.Context, filter model.UserFilter) ([]model.User, error) {
	out := []model.User{}
	search := strings.ToLower(filter.Search)
	r.s.read(ctx, func(d *state) {
		for _, u := range d.users {
			if filter.Role != "" && u.Role != filter.Role {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(u.Name), search) &&
				!strings.Contains(strings.ToLower(u.Email), search) {
				continue
			}
			out = append(out, u)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	var err error
	r.s.write(ctx, func(d *state) {
		cur, ok := d.users[user.ID]
		if !ok {
			err = common.ErrNotFound
			return
		}
		cur.Name = user.Name
		cur.PhotoURL = user.PhotoURL
		cur.Role = user.Role
		cur.IsVerified = user.IsVerified
		cur.UpdatedAt = r.s.tick()
		d.users[user.ID] = cur
		user.UpdatedAt = cur.UpdatedAt
	})
	return err
}

// Delete mirrors the foreign keys: a user's contests, payments and submissions go with them,
// but a declared winner of someone else's contest cannot be removed.
func (r *userRepo) Delete(ctx context.Context, id string) error {
	var err error
	r.s.write(ctx, func(d *state) {
		if _, ok := d.users[id]; !ok {
			err = common.ErrNotFound
			return
		}
		for _, c := range d.contests {
			if c.Winner != nil && c.Winner.UserID == id && c.CreatorID != id {
				err = fmt.Errorf("user is a declared contest winner: %w", common.ErrConflict)
				return
			}
		}
		for cid, c := range d.contests {
			if c.CreatorID == id {
				deleteContest(d, cid)
			}
		}
		for pid, p := range d.payments {
			if p.UserID == id {
				delete(d.payments, pid)
			}
		}
		for sid, s := range d.submissions {
			if s.UserID == id {
				delete(d.submissions, sid)
			}
		}
		delete(d.users, id)
	})
	return err
}

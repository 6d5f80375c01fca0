// Package memory is an in-process implementation of the repositories, used for local
// development (STORAGE_DRIVER=memory) and tests. It enforces the same uniqueness and
// compare-and-set rules as the Postgres schema.
package memory

import (
	"context"
	"sync"
	"time"

	"creativerse/internal/domain/model"
	"creativerse/internal/domain/repository"
)

type state struct {
	users       map[string]model.User
	contests    map[string]model.Contest
	payments    map[string]model.Payment
	submissions map[string]model.Submission
}

func (s *state) clone() *state {
	c := &state{
		users:       make(map[string]model.User, len(s.users)),
		contests:    make(map[string]model.Contest, len(s.contests)),
		payments:    make(map[string]model.Payment, len(s.payments)),
		submissions: make(map[string]model.Submission, len(s.submissions)),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.contests {
		c.contests[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.submissions {
		c.submissions[k] = v
	}
	return c
}

// Store holds every table. A transaction holds the write lock for its whole duration,
// so transactions are serialized and a failed one is rolled back from a snapshot.
type Store struct {
	mu    sync.RWMutex
	data  *state
	now   func() time.Time
	clock sync.Mutex
	last  time.Time
}

func NewStore() *Store {
	return &Store{
		data: &state{
			users:       map[string]model.User{},
			contests:    map[string]model.Contest{},
			payments:    map[string]model.Payment{},
			submissions: map[string]model.Submission{},
		},
		now: time.Now,
	}
}

// tick returns a strictly increasing timestamp so insertion order is preserved in sorts.
func (s *Store) tick() time.Time {
	s.clock.Lock()
	defer s.clock.Unlock()
	t := s.now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

type txKey struct{}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(bool)
	return ok
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// read runs fn under the read lock unless ctx already holds the transaction lock.
func (s *Store) read(ctx context.Context, fn func(d *state)) {
	if !inTx(ctx) {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	fn(s.data)
}

func (s *Store) write(ctx context.Context, fn func(d *state)) {
	if !inTx(ctx) {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	fn(s.data)
}

func (s *Store) Transactor() repository.Transactor           { return s }
func (s *Store) Users() repository.UserRepository             { return &userRepo{s} }
func (s *Store) Contests() repository.ContestRepository       { return &contestRepo{s} }
func (s *Store) Payments() repository.PaymentRepository       { return &paymentRepo{s} }
func (s *Store) Submissions() repository.SubmissionRepository { return &submissionRepo{s} }
func (s *Store) Leaderboard() repository.LeaderboardRepository {
	return &leaderboardRepo{s}
}

var _ repository.Transactor = (*Store)(nil)

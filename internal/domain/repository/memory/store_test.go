package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"creativerse/internal/common"
	"creativerse/internal/domain/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, s *Store) (model.User, model.Contest) {
	t.Helper()
	ctx := context.Background()
	u := model.User{ID: "u1", Name: "Ada", Email: "ada@example.com", Role: model.RoleUser}
	require.NoError(t, s.Users().Create(ctx, &u))
	c := model.Contest{
		ID: "c1", Slug: "c1", CreatorID: "creator", Name: "Poster", Status: model.ContestApproved,
		EntryFee: decimal.NewFromInt(10), PrizeMoney: decimal.NewFromInt(100), Deadline: time.Now().Add(time.Hour),
	}
	require.NoError(t, s.Contests().Create(ctx, &c))
	return u, c
}

// region transactions

func TestWithinTxRollsBackOnError(t *testing.T) {
	s := NewStore()
	_, c := seed(t, s)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, s.Submissions().Create(ctx, &model.Submission{ID: "s1", ContestID: c.ID, UserID: "u1", Status: model.SubmissionSubmitted}))
		got, err := s.Contests().FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.ParticipantsCount)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Contests().FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.ParticipantsCount)
	_, err = s.Submissions().FindByID(ctx, "s1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestWithinTxNested(t *testing.T) {
	s := NewStore()
	seed(t, s)
	ctx := context.Background()

	err := s.WithinTx(ctx, func(ctx context.Context) error {
		return s.WithinTx(ctx, func(ctx context.Context) error {
			_, err := s.Users().FindByID(ctx, "u1")
			return err
		})
	})
	assert.NoError(t, err)
}

// endregion

// region constraints

func TestSubmissionUniquePerEntry(t *testing.T) {
	s := NewStore()
	_, c := seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.Submissions().Create(ctx, &model.Submission{ID: "s1", ContestID: c.ID, UserID: "u1"}))
	err := s.Submissions().Create(ctx, &model.Submission{ID: "s2", ContestID: c.ID, UserID: "u1"})
	assert.ErrorIs(t, err, common.ErrAlreadyEntered)
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestFinalizeOneSuccessPerEntry(t *testing.T) {
	s := NewStore()
	_, c := seed(t, s)
	ctx := context.Background()
	now := time.Now()

	for _, tran := range []string{"t1", "t2"} {
		require.NoError(t, s.Payments().Create(ctx, &model.Payment{ID: tran, TransactionID: tran, UserID: "u1", ContestID: c.ID, Status: model.PaymentInitiated}))
	}

	ok, err := s.Payments().Finalize(ctx, "t1", model.PaymentSuccess, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Payments().Finalize(ctx, "t1", model.PaymentFailed, now)
	require.NoError(t, err)
	assert.False(t, ok, "terminal payments do not change")

	_, err = s.Payments().Finalize(ctx, "t2", model.PaymentSuccess, now)
	assert.ErrorIs(t, err, common.ErrConflict)

	has, err := s.Payments().HasSuccess(ctx, "u1", c.ID)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestSetWinnerCompareAndSet(t *testing.T) {
	s := NewStore()
	_, c := seed(t, s)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Contests().SetWinner(ctx, c.ID, model.Winner{UserID: "u1", SubmissionID: "s1", DeclaredAt: time.Now()})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, common.ErrWinnerAlreadyDeclared)
	}
	assert.Equal(t, 1, wins)

	got, err := s.Contests().FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ContestCompleted, got.Status)
	require.NotNil(t, got.Winner)
	assert.Equal(t, "Ada", got.Winner.UserName)
}

func TestDeleteContestCascades(t *testing.T) {
	s := NewStore()
	_, c := seed(t, s)
	ctx := context.Background()
	require.NoError(t, s.Payments().Create(ctx, &model.Payment{ID: "p1", TransactionID: "t1", UserID: "u1", ContestID: c.ID, Status: model.PaymentSuccess}))
	require.NoError(t, s.Submissions().Create(ctx, &model.Submission{ID: "s1", ContestID: c.ID, UserID: "u1"}))

	require.NoError(t, s.Contests().Delete(ctx, c.ID))

	_, err := s.Payments().FindByTransactionID(ctx, "t1")
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = s.Submissions().FindByID(ctx, "s1")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, s.Contests().Delete(ctx, c.ID), common.ErrNotFound)
}

func TestDeleteUserBlockedWhileWinner(t *testing.T) {
	s := NewStore()
	_, c := seed(t, s)
	ctx := context.Background()
	require.NoError(t, s.Contests().SetWinner(ctx, c.ID, model.Winner{UserID: "u1", SubmissionID: "s1", DeclaredAt: time.Now()}))

	assert.ErrorIs(t, s.Users().Delete(ctx, "u1"), common.ErrConflict)
}

// endregion

// region queries

func TestContestListPagingAndSort(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	for i, prize := range []int64{50, 300, 100} {
		c := model.Contest{
			ID: string(rune('a' + i)), Slug: string(rune('a' + i)), Name: "Contest", Status: model.ContestApproved,
			PrizeMoney: decimal.NewFromInt(prize), Deadline: time.Now().Add(time.Duration(i+1) * time.Hour),
		}
		require.NoError(t, s.Contests().Create(ctx, &c))
	}

	got, total, err := s.Contests().List(ctx, model.ContestFilter{Sort: model.SortPrizeDesc, Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "c", got[1].ID)

	got, _, err = s.Contests().List(ctx, model.ContestFilter{Sort: model.SortNewest, Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)

	got, _, err = s.Contests().List(ctx, model.ContestFilter{Page: 5, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLeaderboardAggregate(t *testing.T) {
	s := NewStore()
	_, c := seed(t, s)
	ctx := context.Background()
	other := model.User{ID: "u2", Name: "Bo", Email: "bo@example.com", Role: model.RoleUser}
	require.NoError(t, s.Users().Create(ctx, &other))
	require.NoError(t, s.Submissions().Create(ctx, &model.Submission{ID: "s1", ContestID: c.ID, UserID: "u1"}))
	require.NoError(t, s.Submissions().Create(ctx, &model.Submission{ID: "s2", ContestID: c.ID, UserID: "u2"}))
	require.NoError(t, s.Contests().SetWinner(ctx, c.ID, model.Winner{UserID: "u2", SubmissionID: "s2", DeclaredAt: time.Now()}))

	entries, err := s.Leaderboard().Aggregate(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "u2", entries[0].UserID)
	assert.Equal(t, 1, entries[0].WinCount)
	assert.True(t, entries[0].TotalPrizeEarning.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "u1", entries[1].UserID)
	assert.True(t, entries[1].TotalPrizeEarning.IsZero())

	mine, err := s.Leaderboard().AggregateForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, mine.Rank)

	nobody, err := s.Leaderboard().AggregateForUser(ctx, "ghost")
	require.NoError(t, err)
	assert.Equal(t, 0, nobody.ParticipantCount)
}

// endregion

package service

import (
	"context"
	"math"
	"testing"
	"time"

	"creativerse/internal/common"
	"creativerse/internal/domain/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusPtr(s model.ContestStatus) *model.ContestStatus { return &s }
func strPtr(s string) *string                             { return &s }

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestCreateContest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.contests.CreateContest(ctx, f.creator, contestRequest(50, 1000))
	require.NoError(t, err)
	assert.Equal(t, model.ContestPending, c.Status)
	assert.Equal(t, model.PhasePending, c.Phase)
	assert.Equal(t, f.creator.UserID, c.CreatorID)
	assert.Contains(t, c.Slug, "golden-hour-photography-")
	assert.Contains(t, f.events.types(), model.EventContestCreated)

	_, err = f.contests.CreateContest(ctx, f.alice, contestRequest(50, 1000))
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = f.contests.CreateContest(ctx, model.Principal{}, contestRequest(50, 1000))
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestCreateContest_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := map[string]func(r *CreateContestRequest){
		"blank name":       func(r *CreateContestRequest) { r.Name = "   " },
		"negative fee":     func(r *CreateContestRequest) { r.EntryFee = decimal.NewFromInt(-1) },
		"negative prize":   func(r *CreateContestRequest) { r.PrizeMoney = decimal.NewFromInt(-5) },
		"unknown category": func(r *CreateContestRequest) { r.Category = "sculpture" },
		"past deadline":    func(r *CreateContestRequest) { r.Deadline = time.Now().Add(-time.Hour) },
		"bad image url":    func(r *CreateContestRequest) { r.Image = "not a url" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := contestRequest(10, 100)
			mutate(&req)
			_, err := f.contests.CreateContest(ctx, f.creator, req)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestCreateContest_CategorySuggestion(t *testing.T) {
	f := newFixture(t)
	req := contestRequest(10, 100)
	req.Category = "photograpy"
	_, err := f.contests.CreateContest(context.Background(), f.creator, req)
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Contains(t, err.Error(), `did you mean "photography"`)
}

func TestUpdateContest_Moderation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.contests.CreateContest(ctx, f.creator, contestRequest(10, 100))
	require.NoError(t, err)

	_, err = f.contests.UpdateContest(ctx, f.creator, c.ID, model.ContestUpdate{Status: statusPtr(model.ContestApproved)})
	assert.ErrorIs(t, err, common.ErrForbidden, "creators cannot approve their own contests")

	_, err = f.contests.UpdateContest(ctx, f.admin, c.ID, model.ContestUpdate{Status: statusPtr(model.ContestCompleted)})
	assert.ErrorIs(t, err, common.ErrInvalidTransition, "completion only happens through a winner")

	approved, err := f.contests.UpdateContest(ctx, f.admin, c.ID, model.ContestUpdate{Status: statusPtr(model.ContestApproved)})
	require.NoError(t, err)
	assert.Equal(t, model.ContestApproved, approved.Status)
	assert.Equal(t, model.PhaseOpen, approved.Phase)
	assert.Contains(t, f.events.types(), model.EventContestStatusChanged)

	_, err = f.contests.UpdateContest(ctx, f.admin, c.ID, model.ContestUpdate{Status: statusPtr(model.ContestRejected)})
	assert.ErrorIs(t, err, common.ErrInvalidTransition, "approved contests cannot be rejected")
	assert.ErrorIs(t, err, common.ErrConflict)

	_, err = f.contests.UpdateContest(ctx, f.admin, c.ID, model.ContestUpdate{Status: statusPtr("archived")})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestUpdateContest_Rejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.contests.CreateContest(ctx, f.creator, contestRequest(10, 100))
	require.NoError(t, err)

	rejected, err := f.contests.UpdateContest(ctx, f.admin, c.ID, model.ContestUpdate{Status: statusPtr(model.ContestRejected)})
	require.NoError(t, err)
	assert.Equal(t, model.PhaseRejected, rejected.Phase)

	_, err = f.contests.UpdateContest(ctx, f.admin, c.ID, model.ContestUpdate{Status: statusPtr(model.ContestApproved)})
	assert.ErrorIs(t, err, common.ErrInvalidTransition)
}

func TestUpdateContest_ContentEdits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.contests.CreateContest(ctx, f.creator, contestRequest(10, 100))
	require.NoError(t, err)

	edited, err := f.contests.UpdateContest(ctx, f.creator, c.ID, model.ContestUpdate{Name: strPtr("Blue Hour Photography")})
	require.NoError(t, err)
	assert.Equal(t, "Blue Hour Photography", edited.Name)

	_, err = f.contests.UpdateContest(ctx, f.otherCreator, c.ID, model.ContestUpdate{Name: strPtr("Mine now")})
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = f.contests.UpdateContest(ctx, f.creator, c.ID, model.ContestUpdate{Category: strPtr("pottery")})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = f.contests.UpdateContest(ctx, f.admin, c.ID, model.ContestUpdate{Status: statusPtr(model.ContestApproved)})
	require.NoError(t, err)

	_, err = f.contests.UpdateContest(ctx, f.creator, c.ID, model.ContestUpdate{Name: strPtr("Too late")})
	assert.ErrorIs(t, err, common.ErrForbidden, "creators edit only while pending")

	byAdmin, err := f.contests.UpdateContest(ctx, f.admin, c.ID, model.ContestUpdate{Description: strPtr("Fixed typo")})
	require.NoError(t, err)
	assert.Equal(t, "Fixed typo", byAdmin.Description)
	assert.Equal(t, model.ContestApproved, byAdmin.Status)

	_, err = f.contests.UpdateContest(ctx, f.admin, "missing", model.ContestUpdate{Name: strPtr("x")})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdateContest_MoneyFrozen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending, err := f.contests.CreateContest(ctx, f.creator, contestRequest(0, 100))
	require.NoError(t, err)
	repriced, err := f.contests.UpdateContest(ctx, f.creator, pending.ID, model.ContestUpdate{EntryFee: decPtr(15)})
	require.NoError(t, err)
	assert.True(t, repriced.EntryFee.Equal(decimal.NewFromInt(15)))

	c := f.approvedContest(t, 0, 100)
	sub := f.enter(t, f.alice, c.ID)

	_, err = f.contests.UpdateContest(ctx, f.admin, c.ID, model.ContestUpdate{EntryFee: decPtr(50)})
	assert.ErrorIs(t, err, common.ErrConflict, "free entrants would skip the new fee")

	same, err := f.contests.UpdateContest(ctx, f.admin, c.ID, model.ContestUpdate{EntryFee: decPtr(0), Description: strPtr("Same price")})
	require.NoError(t, err)
	assert.Equal(t, "Same price", same.Description)

	bumped, err := f.contests.UpdateContest(ctx, f.admin, c.ID, model.ContestUpdate{PrizeMoney: decPtr(150)})
	require.NoError(t, err)
	assert.True(t, bumped.PrizeMoney.Equal(decimal.NewFromInt(150)))

	_, err = f.winners.DeclareWinner(ctx, f.creator, c.ID, DeclareWinnerRequest{UserID: f.alice.UserID, SubmissionID: sub.ID})
	require.NoError(t, err)

	_, err = f.contests.UpdateContest(ctx, f.admin, c.ID, model.ContestUpdate{PrizeMoney: decPtr(1000)})
	assert.ErrorIs(t, err, common.ErrConflict)

	got, err := f.contests.GetContest(ctx, f.admin, c.ID)
	require.NoError(t, err)
	assert.True(t, got.PrizeMoney.Equal(decimal.NewFromInt(150)))
	assert.True(t, got.EntryFee.IsZero())
}

func TestDeleteContest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending, err := f.contests.CreateContest(ctx, f.creator, contestRequest(10, 100))
	require.NoError(t, err)
	assert.ErrorIs(t, f.contests.DeleteContest(ctx, f.otherCreator, pending.ID), common.ErrForbidden)
	require.NoError(t, f.contests.DeleteContest(ctx, f.creator, pending.ID))

	_, err = f.contests.GetContest(ctx, f.admin, pending.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	approved := f.approvedContest(t, 10, 100)
	assert.ErrorIs(t, f.contests.DeleteContest(ctx, f.creator, approved.ID), common.ErrForbidden)
	require.NoError(t, f.contests.DeleteContest(ctx, f.admin, approved.ID))
	assert.ErrorIs(t, f.contests.DeleteContest(ctx, f.admin, approved.ID), common.ErrNotFound)
}

func TestGetContest_Visibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.contests.CreateContest(ctx, f.creator, contestRequest(10, 100))
	require.NoError(t, err)

	_, err = f.contests.GetContest(ctx, f.alice, c.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = f.contests.GetContest(ctx, model.Principal{}, c.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = f.contests.GetContest(ctx, f.creator, c.ID)
	assert.NoError(t, err)
	_, err = f.contests.GetContest(ctx, f.admin, c.ID)
	assert.NoError(t, err)

	approved := f.approvedContest(t, 10, 100)
	got, err := f.contests.GetContest(ctx, model.Principal{}, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cleo Creator", got.CreatorName)
}

func TestListContests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.contests.CreateContest(ctx, f.creator, contestRequest(10, 100))
	require.NoError(t, err)
	f.approvedContest(t, 10, 100)

	poetry := contestRequest(0, 300)
	poetry.Name = "Midnight Poetry Slam"
	poetry.Description = "Verses about the moon"
	poetry.Category = "poetry"
	pc, err := f.contests.CreateContest(ctx, f.otherCreator, poetry)
	require.NoError(t, err)
	_, err = f.contests.UpdateContest(ctx, f.admin, pc.ID, model.ContestUpdate{Status: statusPtr(model.ContestApproved)})
	require.NoError(t, err)

	public, err := f.contests.ListContests(ctx, model.Principal{}, ListContestsQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, public.Total)
	assert.Equal(t, 1, public.Page)
	assert.Equal(t, model.DefaultPageSize, public.Limit)
	for _, c := range public.Contests {
		assert.Equal(t, model.ContestApproved, c.Status)
	}

	all, err := f.contests.ListContests(ctx, f.admin, ListContestsQuery{})
	require.NoError(t, err)
	assert.Equal(t, 3, all.Total)

	pending, err := f.contests.ListContests(ctx, f.admin, ListContestsQuery{Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, 1, pending.Total)

	_, err = f.contests.ListContests(ctx, f.alice, ListContestsQuery{Status: "pending"})
	assert.ErrorIs(t, err, common.ErrForbidden)

	found, err := f.contests.ListContests(ctx, model.Principal{}, ListContestsQuery{Search: `"poetry slam" moon`})
	require.NoError(t, err)
	require.Len(t, found.Contests, 1)
	assert.Equal(t, pc.ID, found.Contests[0].ID)

	byCategory, err := f.contests.ListContests(ctx, model.Principal{}, ListContestsQuery{Category: "poetry"})
	require.NoError(t, err)
	assert.Equal(t, 1, byCategory.Total)

	byPrize, err := f.contests.ListContests(ctx, model.Principal{}, ListContestsQuery{Sort: "prize-desc"})
	require.NoError(t, err)
	require.Len(t, byPrize.Contests, 2)
	assert.Equal(t, pc.ID, byPrize.Contests[0].ID)

	paged, err := f.contests.ListContests(ctx, f.admin, ListContestsQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, paged.Total)
	assert.Len(t, paged.Contests, 1)
}

func TestListContests_InvalidQuery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for name, q := range map[string]ListContestsQuery{
		"unknown sort":     {Sort: "random"},
		"unknown status":   {Status: "archived"},
		"unknown category": {Category: "sculpture"},
		"negative page":    {Page: -1},
		"limit too large":  {Limit: model.MaxPageSize + 1},
		"page too large":   {Page: model.MaxPage + 1, Limit: model.MaxPageSize},
		"page overflows":   {Page: math.MaxInt/model.MaxPageSize + 2, Limit: model.MaxPageSize},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.contests.ListContests(ctx, f.admin, q)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}

	_, err := f.contests.ListMyContests(ctx, f.creator, math.MaxInt, model.MaxPageSize)
	assert.ErrorIs(t, err, common.ErrValidation)

	last, err := f.contests.ListContests(ctx, f.admin, ListContestsQuery{Page: model.MaxPage, Limit: model.MaxPageSize})
	require.NoError(t, err)
	assert.Empty(t, last.Contests)
}

func TestListMyContests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.contests.CreateContest(ctx, f.creator, contestRequest(10, 100))
	require.NoError(t, err)
	f.approvedContest(t, 10, 100)
	_, err = f.contests.CreateContest(ctx, f.otherCreator, contestRequest(10, 100))
	require.NoError(t, err)

	mine, err := f.contests.ListMyContests(ctx, f.creator, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, mine.Total)
	for _, c := range mine.Contests {
		assert.Equal(t, f.creator.UserID, c.CreatorID)
	}

	_, err = f.contests.ListMyContests(ctx, f.alice, 0, 0)
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestPopularContests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	quiet := f.approvedContest(t, 0, 100)
	busy := f.approvedContest(t, 0, 100)
	f.enter(t, f.alice, busy.ID)
	f.enter(t, f.bob, busy.ID)
	f.enter(t, f.alice, quiet.ID)

	popular, err := f.contests.PopularContests(ctx, 0)
	require.NoError(t, err)
	require.Len(t, popular, 2)
	assert.Equal(t, busy.ID, popular[0].ID)
	assert.Equal(t, 2, popular[0].ParticipantsCount)

	top, err := f.contests.PopularContests(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}

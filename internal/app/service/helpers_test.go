package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"creativerse/internal/common/security"
	"creativerse/internal/domain/model"
	"creativerse/internal/domain/repository/memory"
	"creativerse/internal/platform/config"
	"creativerse/internal/platform/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	err      error
	sessions []model.CheckoutSession
}

func (g *fakeGateway) CreateSession(_ context.Context, s model.CheckoutSession) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	g.sessions = append(g.sessions, s)
	return "https://sandbox.gateway.test/pay/" + s.TransactionID, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt model.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeArchive struct {
	err   error
	saved []model.GatewayCallback
}

func (a *fakeArchive) Save(_ context.Context, cb model.GatewayCallback) error {
	if a.err != nil {
		return a.err
	}
	a.saved = append(a.saved, cb)
	return nil
}

func (a *fakeArchive) ListByTransaction(context.Context, string) ([]model.GatewayCallback, error) {
	return a.saved, nil
}

type fixture struct {
	store       *memory.Store
	gateway     *fakeGateway
	archive     *fakeArchive
	events      *recordingPublisher
	auth        *AuthService
	users       *UserService
	contests    *ContestService
	payments    *PaymentService
	submissions *SubmissionService
	winners     *WinnerService
	leaderboard *LeaderboardService

	admin, creator, otherCreator, alice, bob model.Principal
}

var errGatewayDown = errors.New("gateway: connection refused")

func newFixture(t *testing.T) *fixture {
	t.Helper()
	config.AppConfig = &config.Config{JWTKey: []byte("test-secret"), JWTExp: time.Hour}
	security.InitJWT()

	store := memory.NewStore()
	m := metrics.New(prometheus.NewRegistry())
	f := &fixture{
		store:   store,
		gateway: &fakeGateway{},
		archive: &fakeArchive{},
		events:  &recordingPublisher{},
	}
	f.auth = NewAuthService(store.Users())
	f.users = NewUserService(store.Users())
	f.contests = NewContestService(store.Contests(), store.Transactor(), f.events, m)
	f.payments = NewPaymentService(store.Payments(), store.Contests(), store.Users(), f.archive, f.gateway, store.Transactor(), f.events, m)
	f.submissions = NewSubmissionService(store.Submissions(), store.Contests(), store.Payments(), store.Transactor(), f.events, m)
	f.winners = NewWinnerService(store.Contests(), store.Submissions(), store.Transactor(), f.events, m)
	f.leaderboard = NewLeaderboardService(store.Leaderboard(), store.Users())

	f.admin = f.addUser(t, "admin", "Admin", model.RoleAdmin)
	f.creator = f.addUser(t, "creator", "Cleo Creator", model.RoleCreator)
	f.otherCreator = f.addUser(t, "creator-2", "Omar Other", model.RoleCreator)
	f.alice = f.addUser(t, "alice", "Alice", model.RoleUser)
	f.bob = f.addUser(t, "bob", "Bob", model.RoleUser)
	return f
}

func (f *fixture) addUser(t *testing.T, id, name, role string) model.Principal {
	t.Helper()
	u := &model.User{ID: id, Name: name, Email: id + "@example.com", Role: role, IsVerified: true}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u.Principal()
}

// setNow pins the service clock for the rest of the test.
func setNow(t *testing.T, at time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}

func contestRequest(fee, prize int64) CreateContestRequest {
	return CreateContestRequest{
		Name:            "Golden Hour Photography",
		Description:     "Capture the city at dusk",
		TaskInstruction: "Upload one unedited photo",
		EntryFee:        decimal.NewFromInt(fee),
		PrizeMoney:      decimal.NewFromInt(prize),
		Category:        "photography",
		Deadline:        now().Add(48 * time.Hour),
	}
}

func (f *fixture) approvedContest(t *testing.T, fee, prize int64) *model.Contest {
	t.Helper()
	ctx := context.Background()
	c, err := f.contests.CreateContest(ctx, f.creator, contestRequest(fee, prize))
	require.NoError(t, err)
	approved := model.ContestApproved
	c, err = f.contests.UpdateContest(ctx, f.admin, c.ID, model.ContestUpdate{Status: &approved})
	require.NoError(t, err)
	return c
}

func (f *fixture) pay(t *testing.T, p model.Principal, contestID string) *model.Payment {
	t.Helper()
	ctx := context.Background()
	payment, err := f.payments.InitiatePayment(ctx, p, contestID)
	require.NoError(t, err)
	payment, err = f.payments.ConfirmPayment(ctx, payment.TransactionID, "success")
	require.NoError(t, err)
	require.Equal(t, model.PaymentSuccess, payment.Status)
	return payment
}

func (f *fixture) enter(t *testing.T, p model.Principal, contestID string) *model.Submission {
	t.Helper()
	sub, err := f.submissions.CreateSubmission(context.Background(), p, contestID, CreateSubmissionRequest{
		SubmissionText: "my entry by " + p.UserID,
	})
	require.NoError(t, err)
	return sub
}

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"creativerse/internal/common"
	"creativerse/internal/common/security"
	"creativerse/internal/domain/model"
	"creativerse/internal/platform/config"
	"creativerse/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLoader map[string]string

func (s stubLoader) LoadPrincipal(_ context.Context, userID string) (model.Principal, error) {
	role, ok := s[userID]
	if !ok {
		return model.Principal{}, common.ErrUnauthorized
	}
	return model.Principal{UserID: userID, Role: role}, nil
}

func newAuthRouter(t *testing.T) http.Handler {
	t.Helper()
	config.AppConfig = &config.Config{JWTKey: []byte("mw-secret"), JWTExp: time.Hour}
	security.InitJWT()

	auth := NewAuth(stubLoader{"u1": model.RoleUser, "a1": model.RoleAdmin})
	whoami := func(w http.ResponseWriter, r *http.Request) {
		p := PrincipalFromContext(r.Context())
		common.RespondWithJSON(w, http.StatusOK, map[string]string{"user": p.UserID, "role": p.Role})
	}

	r := chi.NewRouter()
	r.Use(jwtauth.Verifier(security.TokenAuth))
	r.With(auth.Identify).Get("/open", whoami)
	r.With(auth.Authenticator).Get("/closed", whoami)
	r.With(auth.Authenticator, AdminOnly).Get("/admin", whoami)
	return r
}

func get(t *testing.T, h http.Handler, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	h := newAuthRouter(t)
	userToken, err := security.GenerateToken("u1", model.RoleUser)
	require.NoError(t, err)
	adminToken, err := security.GenerateToken("a1", model.RoleAdmin)
	require.NoError(t, err)
	ghostToken, err := security.GenerateToken("ghost", model.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		token  string
		status int
	}{
		{"anonymous on open route", "/open", "", http.StatusOK},
		{"bad token on open route", "/open", "abc.def.ghi", http.StatusUnauthorized},
		{"anonymous on closed route", "/closed", "", http.StatusUnauthorized},
		{"user on closed route", "/closed", userToken, http.StatusOK},
		{"deleted user", "/closed", ghostToken, http.StatusUnauthorized},
		{"user on admin route", "/admin", userToken, http.StatusForbidden},
		{"admin on admin route", "/admin", adminToken, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, get(t, h, tc.path, tc.token).Code)
		})
	}

	rec := get(t, h, "/closed", userToken)
	assert.JSONEq(t, `{"user":"u1","role":"user"}`, rec.Body.String())
}

func TestPrincipalFromEmptyContext(t *testing.T) {
	assert.True(t, PrincipalFromContext(context.Background()).IsAnonymous())
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, call("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, call("10.0.0.2"), "buckets are per ip")

	rl.idle = 0
	rl.Cleanup()
	rl.mu.Lock()
	assert.Empty(t, rl.visitors)
	rl.mu.Unlock()
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(RequestLogger(zerolog.Nop()))
	r.Use(Metrics(m))
	r.Get("/contests/{contestID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/contests/"+id, nil))
		assert.Equal(t, http.StatusTeapot, rec.Code)
	}
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestDuration))
}

package middleware

import (
	"context"
	"errors"
	"net/http"

	"creativerse/internal/common"
	"creativerse/internal/common/security"
	"creativerse/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

type contextKey string

const principalCtxKey contextKey = "principal"

// PrincipalLoader resolves the current role of a token's subject. Roles are read per request,
// so promotions and demotions apply without re-login.
type PrincipalLoader interface {
	LoadPrincipal(ctx context.Context, userID string) (model.Principal, error)
}

type Auth struct {
	loader PrincipalLoader
}

func NewAuth(loader PrincipalLoader) *Auth {
	return &Auth{loader: loader}
}

// Authenticator rejects requests without a valid token.
func (a *Auth) Authenticator(next http.Handler) http.Handler {
	return a.handle(next, true)
}

// Identify attaches the principal when a token is present and lets anonymous requests through.
// A token that is present but invalid is still rejected.
func (a *Auth) Identify(next http.Handler) http.Handler {
	return a.handle(next, false)
}

func (a *Auth) handle(next http.Handler, required bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context()) // set by jwtauth.Verifier

		if errors.Is(err, jwtauth.ErrNoTokenFound) || (err == nil && token == nil) {
			if required {
				common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
				return
			}
			next.ServeHTTP(w, r)
			return
		}
		if err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token: "+err.Error())
			return
		}

		userID, err := security.GetUserIDFromClaims(claims)
		if err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
			return
		}
		p, err := a.loader.LoadPrincipal(r.Context(), userID)
		if err != nil {
			if !errors.Is(err, common.ErrUnauthorized) {
				hlog.FromRequest(r).Error().Err(err).Str("user_id", userID).Msg("failed to load principal")
			}
			common.RespondWithDomainError(w, err)
			return
		}

		hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("user_id", p.UserID)
		})
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// AdminOnly must run after Authenticator.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !PrincipalFromContext(r.Context()).IsAdmin() {
			common.RespondWithError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithPrincipal(ctx context.Context, p model.Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey, p)
}

// PrincipalFromContext returns the anonymous principal when none was attached.
func PrincipalFromContext(ctx context.Context) model.Principal {
	p, _ := ctx.Value(principalCtxKey).(model.Principal)
	return p
}

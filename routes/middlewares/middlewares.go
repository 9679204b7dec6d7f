package middlewares

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/oauth"
	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/database"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/model"
)

type ctxKey struct{}

var sessionKey ctxKey

// SessionFrom returns the session of an authenticated request.
func SessionFrom(ctx context.Context) (model.Session, bool) {
	s, ok := ctx.Value(sessionKey).(model.Session)
	return s, ok
}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s model.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// Authenticated middleware verifies the bearer token and resolves it to the
// session of an existing user.
func Authenticated(app app.App) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return chi.Chain(oauth.Authorize(app.TokenSecret, nil), session(app)).Handler(next)
	}
}

// Optional middleware authenticates requests that carry an Authorization
// header and lets anonymous ones through.
func Optional(app app.App) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		authenticated := Authenticated(app)(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			authenticated.ServeHTTP(w, r)
		})
	}
}

func session(app app.App) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, _ := r.Context().Value(oauth.ClaimsContext).(map[string]string)
			userID := claims["user_id"]
			if userID == "" {
				httpx.LogStatus(w, r, http.StatusUnauthorized, log.DebugLevel, "auth.claims.user_id")
				return
			}

			// tokens outlive deleted accounts
			user, err := database.GetUser(r.Context(), app.DB, userID)
			if errors.Is(err, database.ErrNotFound) {
				httpx.LogStatus(w, r, http.StatusUnauthorized, log.DebugLevel, "auth.user.not_found")
				return
			}
			if err != nil {
				httpx.LogInternalError(w, r, "db.get_user", err)
				return
			}

			ctx := WithSession(r.Context(), model.Session{UserID: user.ID, Email: user.Email})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

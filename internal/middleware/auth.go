package middleware

import (
	"context"
	"net/http"

	"github.com/propfeed/propfeed/internal/entity"
)

// UserResolver turns the access_token cookie into a user record. Satisfied
// by usecase.AuthUsecase.
type UserResolver interface {
	DecodeAccessToken(token string) (string, error)
	GetUser(ctx context.Context, userID string) (*entity.User, error)
}

// CookieAuth authenticates requests off the access_token cookie and stores
// the user in the request context. The cookie is the only credential
// transport; there is no Authorization-header flow.
func CookieAuth(resolver UserResolver) func(http.Handler) http.Handler {
	return authMiddleware(resolver, true)
}

// OptionalCookieAuth resolves the user when a valid cookie is present and
// lets anonymous requests through.
func OptionalCookieAuth(resolver UserResolver) func(http.Handler) http.Handler {
	return authMiddleware(resolver, false)
}

func authMiddleware(resolver UserResolver, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie("access_token")
			if err != nil || cookie.Value == "" {
				if required {
					unauthenticated(w)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			userID, err := resolver.DecodeAccessToken(cookie.Value)
			if err != nil {
				if required {
					unauthenticated(w)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			user, err := resolver.GetUser(r.Context(), userID)
			if err != nil {
				if required {
					unauthenticated(w)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), UserCtxKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the authenticated user, or nil for anonymous
// requests on optional-auth routes.
func UserFromContext(ctx context.Context) *entity.User {
	user, _ := ctx.Value(UserCtxKey).(*entity.User)
	return user
}

func unauthenticated(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"could not validate credentials"}`))
}

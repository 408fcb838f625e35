package middleware

import (
	"context"
	"net/http"

	"github.com/gatherly/server/internal/api/problem"
	"github.com/gatherly/server/internal/auth"
	"github.com/gatherly/server/internal/domain/users"
)

type contextKeyCaller string

const callerKey contextKeyCaller = "caller"

// UserResolver loads the user a verified token belongs to.
type UserResolver interface {
	GetByID(ctx context.Context, id string) (*users.User, error)
}

// Auth is the access guard for protected routes: it extracts the bearer
// token, verifies it, resolves the user, and attaches the caller identity to
// the request context. A token whose user no longer exists is rejected.
func Auth(tokens *auth.JWTManager, resolver UserResolver, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeAuth, "Unauthorized", err, env,
					problem.WithDetail("no token"))
				return
			}

			claims, err := tokens.Validate(token)
			if err != nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeAuth, "Unauthorized", err, env,
					problem.WithDetail("invalid or expired token"))
				return
			}

			caller, err := resolver.GetByID(r.Context(), claims.UserID)
			if err != nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeAuth, "Unauthorized", err, env,
					problem.WithDetail("user not found"))
				return
			}

			ctx := ContextWithCaller(r.Context(), caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ContextWithCaller attaches the caller identity to a context.
func ContextWithCaller(ctx context.Context, caller *users.User) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// CallerFromContext returns the resolved caller, or nil for unauthenticated
// requests.
func CallerFromContext(ctx context.Context) *users.User {
	if ctx == nil {
		return nil
	}
	if caller, ok := ctx.Value(callerKey).(*users.User); ok {
		return caller
	}
	return nil
}

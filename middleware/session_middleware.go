package middleware

import (
	"context"
	"net/http"
	"strings"

	"go-social/models"
	"go-social/utils/errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionCookie is the cookie carrying the session token.
const SessionCookie = "session"

type SessionResolver interface {
	Resolve(ctx context.Context, token string) (primitive.ObjectID, error)
}

type UserLookup interface {
	GetUserByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
}

// SessionMiddleware attaches the session user to the request context when the
// request carries a live session. Requests without one pass through untouched.
func SessionMiddleware(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			userID, err := sessions.Resolve(r.Context(), token)
			if err != nil {
				if !errors.IsUnauthenticated(err) {
					WriteError(w, err)
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), userID, token)))
		})
	}
}

// RequireSession rejects requests without a session user.
func RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserID(r.Context()); !ok {
			WriteError(w, errors.Unauthenticated("Must be logged in!"))
			return
		}
		next(w, r)
	}
}

// RequireLoggedOut rejects requests made from within a session.
func RequireLoggedOut(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserID(r.Context()); ok {
			WriteError(w, errors.NotAllowed("Must be logged out!"))
			return
		}
		next(w, r)
	}
}

// RequireRole admits only session users holding role.
func RequireRole(users UserLookup, role models.Role, next http.HandlerFunc) http.HandlerFunc {
	return RequireSession(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := UserID(r.Context())
		user, err := users.GetUserByID(r.Context(), userID)
		if err != nil {
			WriteError(w, err)
			return
		}
		if user.Role != role {
			WriteError(w, errors.ErrForbidden)
			return
		}
		next(w, r)
	})
}

func tokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

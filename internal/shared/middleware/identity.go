package middleware

import (
	"context"
	"net/http"
)

type contextKey string

// UserIDKey is the context key carrying the caller's user id.
const UserIDKey contextKey = "userID"

// Identity extracts the caller's identity from the X-User-ID header and
// stores it on the request context. The service sits behind a gateway that
// authenticates users, so the header is trusted as-is.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

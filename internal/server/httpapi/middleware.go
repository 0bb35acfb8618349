package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dsmolkin/mediakeeper/internal/common"
	"github.com/dsmolkin/mediakeeper/internal/server/auth"
)

type contextKey string

const userIDKey contextKey = "userID"

// UserID returns the authenticated user id stored by authMiddleware.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// authMiddleware rejects requests without a valid bearer token and
// stores the token's user id in the request context.
func authMiddleware(secretKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(common.AuthHeaderName)
			token := strings.TrimPrefix(header, "Bearer ")
			if header == "" || token == header {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			userID, err := auth.GetUserIDFromToken(token, secretKey)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

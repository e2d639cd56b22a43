package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/devang-458/HealthIQ/internal/models"
)

type ctxKey int

const userIDKey ctxKey = iota

// requireAuth verifies the Bearer token on the request and injects the
// authenticated user ID into the request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeJSON(w, http.StatusUnauthorized, models.Error("No token provided"))
			return
		}

		userID, err := s.verifier.Verify(token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, models.Error("Invalid token"))
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userIDFrom returns the authenticated user ID stored by requireAuth.
func userIDFrom(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

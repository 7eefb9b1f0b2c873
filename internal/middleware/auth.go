package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/reelmates/backend/internal/auth"
	"github.com/reelmates/backend/internal/logging"
)

// Authenticator resolves a bearer access token to a user identifier.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (string, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// resolved user id on the request context for downstream handlers.
func RequireAuth(sessions Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token := bearerToken(r)
			if token == "" {
				unauthorized(ctx, w, "missing bearer token")
				return
			}

			userID, err := sessions.Authenticate(ctx, token)
			if err != nil {
				logging.FromContext(ctx).Warn("token authentication failed", "error", err)
				unauthorized(ctx, w, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUserID(ctx, userID)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(ctx context.Context, w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		logging.FromContext(ctx).Error("encode unauthorized response", "error", err)
	}
}

package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"staticfund-api/internal/auth"
	"staticfund-api/pkg/logging/logging"
)

// TokenVerifier is satisfied by *auth.Tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// RequireAuth accepts "Authorization: Bearer <jwt>" and stores the claims
// in the request context. A missing token is 401, a bad one 403.
func RequireAuth(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			scheme, token, ok := strings.Cut(header, " ")
			token = strings.TrimSpace(token)
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				writeError(w, http.StatusUnauthorized, "Access token required")
				return
			}

			claims, err := v.Verify(token)
			if err != nil {
				logging.L(r.Context()).Info("rejected token", zap.Error(err))
				writeError(w, http.StatusForbidden, "Invalid or expired token")
				return
			}

			ctx := auth.WithClaims(r.Context(), claims)
			ctx = logging.WithFields(ctx, zap.String("user_id", claims.Subject))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/farmlinkgh/wallet-backend/internal/api/httpx"
	"github.com/farmlinkgh/wallet-backend/internal/auth"
)

type ctxKey string

const ctxUserIDKey ctxKey = "uid"

func UserID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxUserIDKey).(string)
	return v, ok
}

type AuthMiddleware struct {
	Verifier *auth.Verifier
	AppEnv   string
}

func NewAuthMiddleware(v *auth.Verifier, appEnv string) *AuthMiddleware {
	return &AuthMiddleware{Verifier: v, AppEnv: appEnv}
}

// DEV: Bearer dev-<uuid> | otherwise: Bearer <JWT from the identity service>
func (m *AuthMiddleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ah := r.Header.Get("Authorization")
		if ah == "" || !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token", nil)
			return
		}
		token := strings.TrimSpace(ah[len("Bearer "):])

		if m.AppEnv == "dev" && strings.HasPrefix(token, "dev-") {
			uid := strings.TrimPrefix(token, "dev-")
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUserIDKey, uid)))
			return
		}

		claims, err := m.Verifier.Verify(token)
		if err != nil {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid access token", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUserIDKey, claims.UserID)))
	})
}

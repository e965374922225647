package middleware

import (
	"context"
	"net/http"

	"github.com/farmlinkgh/wallet-backend/internal/api/httpx"
	"github.com/farmlinkgh/wallet-backend/internal/auth"
)

const ctxOperatorKey ctxKey = "operator"

func Operator(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxOperatorKey).(string)
	return v, ok
}

// OperatorKey guards the reconciliation console with X-API-Key checked against
// the configured bcrypt hashes.
func OperatorKey(hashes []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" || !auth.CheckOperatorKey(key, hashes) {
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid operator key", nil)
				return
			}
			op := r.Header.Get("X-Operator-Id")
			if op == "" {
				op = "operator"
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxOperatorKey, op)))
		})
	}
}

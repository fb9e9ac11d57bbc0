package httpmw

import (
	"context"
	"net/http"
	"strings"

	"github.com/cwrk-planet/watch-service/internal/domain"
)

type ctxKey string

const ctxKeyIdentity ctxKey = "identity"

type TokenValidator interface {
	Validate(ctx context.Context, token string) (*domain.Identity, error)
}

// AuthMiddleware: Bearer-токен сессии резолвится в личность пользователя.
// Невалидный токен — 401, дальше запрос не идёт.
func AuthMiddleware(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || len(auth) <= 7 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"missing bearer token"}`))
				return
			}

			ident, err := tokens.Validate(r.Context(), strings.TrimSpace(auth[7:]))
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"invalid or expired token"}`))
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyIdentity, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func IdentityFromCtx(ctx context.Context) *domain.Identity {
	if v := ctx.Value(ctxKeyIdentity); v != nil {
		if id, ok := v.(*domain.Identity); ok {
			return id
		}
	}
	return nil
}

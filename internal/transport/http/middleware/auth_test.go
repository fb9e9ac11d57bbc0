package httpmw

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwrk-planet/watch-service/internal/domain"
)

type fakeValidator struct {
	tokens map[string]*domain.Identity
}

func (f *fakeValidator) Validate(_ context.Context, token string) (*domain.Identity, error) {
	if id, ok := f.tokens[token]; ok {
		return id, nil
	}
	return nil, domain.ErrInvalidToken
}

func TestAuthMiddleware(t *testing.T) {
	tokens := &fakeValidator{tokens: map[string]*domain.Identity{
		"good-token": {UserID: 7, Username: "alice", DisplayName: "Alice"},
	}}

	var gotIdent *domain.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIdent = IdentityFromCtx(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	h := AuthMiddleware(tokens)(next)

	t.Run("валидный токен", func(t *testing.T) {
		gotIdent = nil
		req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, gotIdent)
		assert.Equal(t, int64(7), gotIdent.UserID)
	})

	t.Run("без заголовка", func(t *testing.T) {
		gotIdent = nil
		req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, gotIdent)
	})

	t.Run("не bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
		req.Header.Set("Authorization", "Basic abc")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("протухший токен", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
		req.Header.Set("Authorization", "Bearer stale")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestIdentityFromCtxEmpty(t *testing.T) {
	assert.Nil(t, IdentityFromCtx(context.Background()))
}

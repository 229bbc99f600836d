package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintVerifyRoundtrip(t *testing.T) {
	v := NewVerifier("test-secret")
	id := Identity{UserID: "u-1", Role: RoleCourier}

	got, err := v.Verify(v.Mint(id))
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestVerifyRejects(t *testing.T) {
	v := NewVerifier("test-secret")

	t.Run("tampered payload", func(t *testing.T) {
		token := v.Mint(Identity{UserID: "u-1", Role: RoleCustomer})
		_, err := v.Verify("u-2|customer." + token[len("u-1|customer."):])
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("foreign secret", func(t *testing.T) {
		other := NewVerifier("other-secret")
		_, err := v.Verify(other.Mint(Identity{UserID: "u-1", Role: RoleAdmin}))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unknown role", func(t *testing.T) {
		payload := "u-1|superuser"
		_, err := v.Verify(payload + "." + v.sign(payload))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := v.Verify("nope")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestMiddleware(t *testing.T) {
	v := NewVerifier("test-secret")
	var seen Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	t.Run("valid bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		req.Header.Set("Authorization", "Bearer "+v.Mint(Identity{UserID: "u-9", Role: RoleCustomer}))
		rec := httptest.NewRecorder()

		v.Middleware(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "u-9", seen.UserID)
		assert.Equal(t, RoleCustomer, seen.Role)
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		rec := httptest.NewRecorder()

		v.Middleware(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bad token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		req.Header.Set("Authorization", "Bearer bogus")
		rec := httptest.NewRecorder()

		v.Middleware(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

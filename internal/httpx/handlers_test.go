package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-food-delivery.git/internal/auth"
	"github.com/ariefcatur/go-food-delivery.git/internal/metrics"
	"github.com/ariefcatur/go-food-delivery.git/internal/notify"
	"github.com/ariefcatur/go-food-delivery.git/internal/orders"
)

func TestWriteErrStatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{orders.ErrValidation, http.StatusBadRequest},
		{fmt.Errorf("%w: empty cart", orders.ErrValidation), http.StatusBadRequest},
		{orders.ErrNotFound, http.StatusNotFound},
		{orders.ErrForbidden, http.StatusForbidden},
		{orders.ErrConflict, http.StatusConflict},
		{orders.ErrInvalidTransition, http.StatusUnprocessableEntity},
		{errors.New("pg is down"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		rec := httptest.NewRecorder()
		writeErr(rec, zap.NewNop(), tc.err)
		assert.Equal(t, tc.code, rec.Code, "%v", tc.err)

		var resp response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.NotEmpty(t, resp.Message)
	}

	// infrastructure details stay out of the body
	rec := httptest.NewRecorder()
	writeErr(rec, zap.NewNop(), errors.New("pg is down"))
	assert.NotContains(t, rec.Body.String(), "pg is down")
}

func TestWriteDataEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeData(rec, http.StatusOK, map[string]string{"status": "PENDING"})

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "PENDING", resp.Data["status"])
}

func TestRoutesRequireAuth(t *testing.T) {
	verifier := auth.NewVerifier("test-secret")
	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(verifier.Middleware)
		(&OrdersHandler{Log: zap.NewNop()}).Register(r)
	})

	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader("{}"))
	req.Header.Set("Authorization", "Bearer bogus")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateRejectsInvalidJSON(t *testing.T) {
	verifier := auth.NewVerifier("test-secret")
	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(verifier.Middleware)
		(&OrdersHandler{Log: zap.NewNop()}).Register(r)
	})

	token := verifier.Mint(auth.Identity{UserID: "cust-1", Role: auth.RoleCustomer})
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "invalid json", resp.Message)
}

type memPending struct {
	stored map[string][][]byte
}

func (m *memPending) Append(_ context.Context, userID, _ string, payload []byte) error {
	if m.stored == nil {
		m.stored = map[string][][]byte{}
	}
	m.stored[userID] = append(m.stored[userID], payload)
	return nil
}

func (m *memPending) Check(_ context.Context, userID string) (bool, error) {
	return len(m.stored[userID]) > 0, nil
}

func (m *memPending) Recent(_ context.Context, userID string) ([]json.RawMessage, error) {
	var out []json.RawMessage
	for _, p := range m.stored[userID] {
		out = append(out, p)
	}
	return out, nil
}

func (m *memPending) Clear(_ context.Context, userID string) error {
	delete(m.stored, userID)
	return nil
}

type noPush struct{}

func (noPush) Push(string, []byte) int { return 0 }

func notificationsRouter(pending *memPending) (*chi.Mux, string) {
	verifier := auth.NewVerifier("test-secret")
	svc := &notify.Service{
		Pending: pending,
		Live:    noPush{},
		Metrics: metrics.New("test", prometheus.NewRegistry()),
		Log:     zap.NewNop(),
	}
	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(verifier.Middleware)
		(&NotificationsHandler{Notify: svc, Log: zap.NewNop()}).Register(r)
	})
	return router, verifier.Mint(auth.Identity{UserID: "cust-1", Role: auth.RoleCustomer})
}

func TestNotificationsPendingAndClear(t *testing.T) {
	pending := &memPending{}
	router, token := notificationsRouter(pending)

	do := func(method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodGet, "/notifications/pending")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Pending bool              `json:"pending"`
			Events  []json.RawMessage `json:"events"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.False(t, resp.Data.Pending)
	assert.Empty(t, resp.Data.Events)

	require.NoError(t, pending.Append(context.Background(), "cust-1", "env-1:cust-1",
		[]byte(`{"event_id":"env-1:cust-1","order_id":"o-1","status":"CONFIRMED","kind":"status_update"}`)))

	rec = do(http.MethodGet, "/notifications/pending")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Pending)
	require.Len(t, resp.Data.Events, 1)

	rec = do(http.MethodDelete, "/notifications/clear")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(http.MethodGet, "/notifications/pending")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Data.Pending)
}

func TestHealthz(t *testing.T) {
	router := NewRouter()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

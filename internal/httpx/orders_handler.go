package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-food-delivery.git/internal/auth"
	"github.com/ariefcatur/go-food-delivery.git/internal/delivery"
	"github.com/ariefcatur/go-food-delivery.git/internal/orders"
	"github.com/ariefcatur/go-food-delivery.git/internal/redisx"
)

type OrdersHandler struct {
	Orders   *orders.Service
	Delivery *delivery.Service
	Redis    *redis.Client
	Log      *zap.Logger
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders", h.create)
	r.Get("/orders", h.listMine)
	r.Get("/orders/delivery/available", h.available)
	r.Get("/orders/delivery/me", h.assignedToMe)
	r.Get("/orders/delivery/history", h.history)
	r.Get("/orders/{id}", h.get)
	r.Get("/orders/{id}/status", h.status)
	r.Put("/orders/{id}/cancel", h.cancel)
	r.Post("/orders/{id}/assign", h.assign)
	r.Put("/orders/{id}/status", h.updateStatus)
}

func identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeFail(w, http.StatusUnauthorized, "unauthorized")
	}
	return id, ok
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var in orders.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.Create(ctx, id, in)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	h.cacheStatus(ctx, o.ID, o.Status)
	writeData(w, http.StatusCreated, o)
}

func (h *OrdersHandler) listMine(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var status *orders.Status
	if s := r.URL.Query().Get("status"); s != "" {
		st := orders.Status(s)
		status = &st
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Orders.ListMine(ctx, id, status, page, size)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, list)
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Orders.Get(ctx, id, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, o)
}

// status is the cheap polling endpoint: Redis first, DB as fallback. Order
// ids are unguessable uuids, so the cached status is served without a
// per-order ownership lookup.
func (h *OrdersHandler) status(w http.ResponseWriter, r *http.Request) {
	if _, ok := identity(w, r); !ok {
		return
	}
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		writeData(w, http.StatusOK, map[string]string{"status": s})
		return
	}

	id, _ := auth.FromContext(r.Context())
	o, err := h.Orders.Get(ctx, id, orderID)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	h.cacheStatus(ctx, o.ID, o.Status)
	writeData(w, http.StatusOK, map[string]string{"status": string(o.Status)})
}

func (h *OrdersHandler) cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.Cancel(ctx, id, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	h.cacheStatus(ctx, o.ID, o.Status)
	writeData(w, http.StatusOK, o)
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var body struct {
		Status orders.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.Transition(ctx, id, chi.URLParam(r, "id"), body.Status)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	h.cacheStatus(ctx, o.ID, o.Status)
	writeData(w, http.StatusOK, o)
}

func (h *OrdersHandler) available(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Delivery.Available(ctx, id)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, list)
}

func (h *OrdersHandler) assign(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Delivery.Claim(ctx, id, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, o)
}

func (h *OrdersHandler) assignedToMe(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Delivery.Active(ctx, id)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, list)
}

func (h *OrdersHandler) history(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Delivery.History(ctx, id)
	if err != nil {
		writeErr(w, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, list)
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, orderID string, status orders.Status) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if err := h.Redis.Set(ctx, key, string(status), redisx.TTLStatusCache).Err(); err != nil {
		h.Log.Debug("status cache set failed", zap.String("order_id", orderID), zap.Error(err))
	}
}

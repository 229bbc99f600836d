package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-food-delivery.git/internal/notify"
)

type NotificationsHandler struct {
	Notify *notify.Service
	Log    *zap.Logger
}

func (h *NotificationsHandler) Register(r chi.Router) {
	r.Get("/notifications/pending", h.pending)
	r.Delete("/notifications/clear", h.clear)
}

// pending answers "did I miss anything" for polling clients and includes the
// recent event payloads so the app can render them without another call.
func (h *NotificationsHandler) pending(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	has, err := h.Notify.CheckPending(ctx, id.UserID)
	if err != nil {
		h.Log.Error("check pending", zap.String("user_id", id.UserID), zap.Error(err))
		writeFail(w, http.StatusInternalServerError, "internal error")
		return
	}
	out := map[string]any{"pending": has}
	if has {
		events, err := h.Notify.RecentPending(ctx, id.UserID)
		if err == nil {
			out["events"] = events
		}
	}
	writeData(w, http.StatusOK, out)
}

func (h *NotificationsHandler) clear(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Notify.ClearPending(ctx, id.UserID); err != nil {
		h.Log.Error("clear pending", zap.String("user_id", id.UserID), zap.Error(err))
		writeFail(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeData(w, http.StatusOK, map[string]bool{"cleared": true})
}

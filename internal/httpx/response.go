package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ariefcatur/go-food-delivery.git/internal/orders"
)

// All JSON responses share the {success, message?, data?} envelope.
type response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeData(w http.ResponseWriter, code int, data any) {
	writeJSON(w, code, response{Success: true, Data: data})
}

func writeFail(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, response{Success: false, Message: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps the service error kinds onto status codes. Infrastructure
// errors fail closed as 500 without leaking details.
func writeErr(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, orders.ErrValidation):
		writeFail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, orders.ErrNotFound):
		writeFail(w, http.StatusNotFound, "order not found")
	case errors.Is(err, orders.ErrForbidden):
		writeFail(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, orders.ErrConflict):
		writeFail(w, http.StatusConflict, err.Error())
	case errors.Is(err, orders.ErrInvalidTransition):
		writeFail(w, http.StatusUnprocessableEntity, err.Error())
	default:
		log.Error("request failed", zap.Error(err))
		writeFail(w, http.StatusInternalServerError, "internal error")
	}
}

package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/farmlinkgh/wallet-backend/internal/api/httpx"
	"github.com/farmlinkgh/wallet-backend/internal/metrics"
	"github.com/farmlinkgh/wallet-backend/internal/models"
	"github.com/farmlinkgh/wallet-backend/internal/services"
)

type WebhookHandler struct {
	Settlements *services.SettlementService
	Log         *slog.Logger
}

func NewWebhookHandler(st *services.SettlementService, log *slog.Logger) *WebhookHandler {
	return &WebhookHandler{Settlements: st, Log: log}
}

// Settlement receives confirmation events from the payment network. Delivery
// is at-least-once and unordered; any payload that parses gets a 200 so the
// provider stops retrying, including failures, orphans and already-terminal
// no-ops. Only a payload with no extractable reference is a 400.
func (h *WebhookHandler) Settlement(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "unreadable body", nil)
		return
	}

	ev, err := models.ParseSettlementEvent(body)
	if err != nil {
		metrics.WebhookMalformed.Inc()
		h.Log.Warn("malformed settlement payload", "err", err)
		httpx.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "missing reference"})
		return
	}

	res, err := h.Settlements.Apply(r.Context(), ev)
	if errors.Is(err, services.ErrOrphanReference) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{
			"message": "unknown reference",
			"status":  "rejected",
		})
		return
	}
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal error", nil)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "settlement processed",
		"status":  string(res.Outcome),
	})
}

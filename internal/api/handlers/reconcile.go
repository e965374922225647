package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/farmlinkgh/wallet-backend/internal/api/httpx"
	"github.com/farmlinkgh/wallet-backend/internal/middleware"
	"github.com/farmlinkgh/wallet-backend/internal/services"
)

type ReconcileHandler struct {
	Svc         *services.ReconcileService
	Settlements *services.SettlementService
}

func NewReconcileHandler(svc *services.ReconcileService, st *services.SettlementService) *ReconcileHandler {
	return &ReconcileHandler{Svc: svc, Settlements: st}
}

func (h *ReconcileHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
		return
	}

	analysis, err := h.Svc.Analyze(r.Context(), req.Text)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, analysis)
}

func (h *ReconcileHandler) Execute(w http.ResponseWriter, r *http.Request) {
	operator, _ := middleware.Operator(r.Context())

	var req struct {
		Reference string `json:"reference"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
		return
	}

	res, err := h.Svc.Execute(r.Context(), operator, req.Reference)
	if errors.Is(err, services.ErrOrphanReference) {
		httpx.WriteError(w, http.StatusNotFound, "not_found", "no transaction for reference", nil)
		return
	}
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

func (h *ReconcileHandler) Refund(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TransactionID string `json:"transaction_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TransactionID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
		return
	}

	res, err := h.Settlements.Refund(r.Context(), req.TransactionID)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

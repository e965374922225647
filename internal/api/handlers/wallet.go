package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/farmlinkgh/wallet-backend/internal/api/httpx"
	"github.com/farmlinkgh/wallet-backend/internal/middleware"
	"github.com/farmlinkgh/wallet-backend/internal/models"
	"github.com/farmlinkgh/wallet-backend/internal/notify"
	repo "github.com/farmlinkgh/wallet-backend/internal/repository"
	"github.com/farmlinkgh/wallet-backend/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type WalletHandler struct {
	Svc *services.WalletService
	Hub *notify.Hub
}

func NewWalletHandler(svc *services.WalletService, hub *notify.Hub) *WalletHandler {
	return &WalletHandler{Svc: svc, Hub: hub}
}

func writeServiceErr(w http.ResponseWriter, err error) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		var details any
		if len(ve.Fields) > 0 {
			details = ve.Fields
		}
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", ve.Msg, details)
	case errors.Is(err, repo.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "not found", nil)
	default:
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal error", nil)
	}
}

func (h *WalletHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())

	var in services.InitiateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
		return
	}
	in.RequestID = r.Header.Get("Idempotency-Key")

	tx, err := h.Svc.Initiate(r.Context(), uid, in)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusAccepted, tx)
}

func (h *WalletHandler) Balance(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())
	b, err := h.Svc.Balance(r.Context(), uid)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"user_id":  uid,
		"balance":  b,
		"currency": "GHS",
	})
}

func (h *WalletHandler) History(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())

	limit, offset := 50, 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	txs, err := h.Svc.History(r.Context(), uid, limit, offset)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	httpx.WriteJSON(w, http.StatusOK, txs)
}

func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())
	tx, err := h.Svc.GetTransaction(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tx)
}

func (h *WalletHandler) Quote(w http.ResponseWriter, r *http.Request) {
	amount, err := decimal.NewFromString(r.URL.Query().Get("amount"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", "invalid amount", nil)
		return
	}
	q, err := h.Svc.Quote(amount)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, q)
}

func (h *WalletHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())

	var a models.LinkedAccount
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
		return
	}
	created, err := h.Svc.AddAccount(r.Context(), uid, a)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, created)
}

func (h *WalletHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())
	accts, err := h.Svc.Accounts(r.Context(), uid)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	if accts == nil {
		accts = []models.LinkedAccount{}
	}
	httpx.WriteJSON(w, http.StatusOK, accts)
}

// Events streams one SSE "change" event per ledger transition for the
// authenticated user. The event body is deliberately empty: clients re-fetch
// balance and history instead of trusting a pushed delta.
func (h *WalletHandler) Events(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "streaming unsupported", nil)
		return
	}

	ch, cancel := h.Hub.Subscribe(uid)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case _, open := <-ch:
			if !open {
				return
			}
			_, _ = w.Write([]byte("event: change\ndata: {}\n\n"))
			flusher.Flush()
		}
	}
}

package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"tillpos-backend/internal/api"
	"tillpos-backend/internal/domain"
	"tillpos-backend/internal/server/authctx"
)

type TransactionHandler struct {
	Service Sales
	// Now defaults to time.Now.
	Now func() time.Time
}

func (h TransactionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/transactions", h.create)
	r.Get("/transactions", h.list)
	r.Get("/transactions/export", h.export)
	r.Post("/receipts/print", h.printReceipt)
}

func (h TransactionHandler) create(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeDomainError(w, r, domain.ErrUnauthorized)
		return
	}
	var req api.CreateTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	tx, err := h.Service.Create(r.Context(), user.ID, req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, api.CreateTransactionResponse{ID: tx.ID, Transaction: *tx})
}

func (h TransactionHandler) list(w http.ResponseWriter, r *http.Request) {
	txs, err := h.Service.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (h TransactionHandler) export(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	out, err := h.Service.Export(r.Context(), r.URL.Query().Get("format"), now)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(out.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Data)
}

func (h TransactionHandler) printReceipt(w http.ResponseWriter, r *http.Request) {
	var req api.PrintReceiptRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.Service.PrintReceipt(r.Context(), req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

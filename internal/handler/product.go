package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tillpos-backend/internal/domain"
	"tillpos-backend/internal/ports"
)

// ProductHandler serves the catalog to every signed-in role.
type ProductHandler struct {
	Repo ports.ProductStore
}

func (h ProductHandler) RegisterRoutes(r chi.Router) {
	r.Get("/products", h.listProducts)
	r.Get("/products/barcode/{barcode}", h.byBarcode)
}

func (h ProductHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	items, err := h.Repo.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// byBarcode answers with null data when nothing matches.
func (h ProductHandler) byBarcode(w http.ResponseWriter, r *http.Request) {
	p, err := h.Repo.GetByBarcode(r.Context(), chi.URLParam(r, "barcode"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusOK, nil)
			return
		}
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

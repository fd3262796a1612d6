package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tillpos-backend/internal/api"
	"tillpos-backend/internal/domain"
	"tillpos-backend/internal/ports"
)

// ProductAdminHandler serves inventory changes for admins and managers.
type ProductAdminHandler struct {
	Repo ports.ProductStore
}

func (h ProductAdminHandler) RegisterRoutes(r chi.Router) {
	r.Put("/products/{id}/stock", h.updateStock)
	r.Post("/products", h.save)
	r.Delete("/products/{id}", h.delete)
}

func (h ProductAdminHandler) updateStock(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateProductStockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	id, err := productPathID(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if req.ProductID != "" && req.ProductID != id {
		writeDomainError(w, r, fmt.Errorf("%w: productId does not match the path", api.ErrInvalidRequest))
		return
	}
	req.ProductID = id
	if err := req.Validate(); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.Repo.UpdateStock(r.Context(), req.ProductID, req.NewStock); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (h ProductAdminHandler) save(w http.ResponseWriter, r *http.Request) {
	var req api.SaveProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeDomainError(w, r, err)
		return
	}
	p, err := h.Repo.Save(r.Context(), domain.Product{
		ID:       req.ID,
		Name:     req.Name,
		Barcode:  req.Barcode,
		Price:    req.Price,
		Stock:    req.Stock,
		Category: req.Category,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h ProductAdminHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := productPathID(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.Repo.Delete(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// productPathID returns the {id} path parameter. Ids that are not UUIDs name
// no product.
func productPathID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if !api.ValidID(id) {
		return "", fmt.Errorf("product %q: %w", id, domain.ErrNotFound)
	}
	return id, nil
}

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"tillpos-backend/internal/api"
)

type AuthHandler struct {
	Service Authenticator
}

func (h AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.login)
}

func (h AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req api.AuthenticateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	res, err := h.Service.Login(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

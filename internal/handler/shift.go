package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tillpos-backend/internal/api"
	"tillpos-backend/internal/domain"
	"tillpos-backend/internal/server/authctx"
)

// ShiftHandler serves the cash drawer ledger. Cashiers may only act on their
// own shifts; admins and managers on any.
type ShiftHandler struct {
	Service Shifts
}

func (h ShiftHandler) RegisterRoutes(r chi.Router) {
	r.Get("/shifts/current", h.current)
	r.Post("/shifts", h.open)
	r.Post("/shifts/{id}/close", h.close)
	r.Post("/shifts/{id}/movements", h.addMovement)
	r.Get("/shifts/{id}/movements", h.movements)
	r.Post("/shifts/{id}/report/print", h.printReport)
}

// actingFor resolves the user a request acts for, defaulting to the caller.
func actingFor(user *authctx.CurrentUser, userID string) (string, error) {
	if user == nil {
		return "", domain.ErrUnauthorized
	}
	if userID == "" || userID == user.ID {
		return user.ID, nil
	}
	if !user.CanManage() {
		return "", domain.ErrForbidden
	}
	return userID, nil
}

// ownShift loads the path's shift and checks the caller may touch it. An id
// that is not a UUID names no shift.
func (h ShiftHandler) ownShift(r *http.Request) (*domain.Shift, error) {
	id := chi.URLParam(r, "id")
	if !api.ValidID(id) {
		return nil, fmt.Errorf("shift %q: %w", id, domain.ErrNotFound)
	}
	shift, err := h.Service.Shift(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if _, err := actingFor(authctx.FromContext(r.Context()), shift.UserID); err != nil {
		return nil, err
	}
	return shift, nil
}

func (h ShiftHandler) current(w http.ResponseWriter, r *http.Request) {
	userID, err := actingFor(authctx.FromContext(r.Context()), r.URL.Query().Get("userId"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	shift, err := h.Service.Current(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shift)
}

func (h ShiftHandler) open(w http.ResponseWriter, r *http.Request) {
	var req api.OpenCashShiftRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	userID, err := actingFor(authctx.FromContext(r.Context()), req.UserID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	req.UserID = userID
	id, err := h.Service.Open(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, api.OpenCashShiftResponse{ShiftID: id})
}

func (h ShiftHandler) close(w http.ResponseWriter, r *http.Request) {
	var req api.CloseCashShiftRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	shift, err := h.ownShift(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	req.ShiftID = shift.ID
	req.UserID = authctx.FromContext(r.Context()).ID
	report, err := h.Service.Close(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.CloseCashShiftResponse{ShiftID: shift.ID, Report: *report})
}

func (h ShiftHandler) addMovement(w http.ResponseWriter, r *http.Request) {
	var req api.AddCashMovementRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	shift, err := h.ownShift(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	req.ShiftID = shift.ID
	id, err := h.Service.AddMovement(r.Context(), authctx.FromContext(r.Context()).ID, req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, api.AddCashMovementResponse{MovementID: id})
}

func (h ShiftHandler) movements(w http.ResponseWriter, r *http.Request) {
	shift, err := h.ownShift(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	items, err := h.Service.Movements(r.Context(), shift.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h ShiftHandler) printReport(w http.ResponseWriter, r *http.Request) {
	var req api.PrintShiftReportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	shift, err := h.ownShift(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	req.ShiftID = shift.ID
	if err := h.Service.PrintReport(r.Context(), req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// ReportHandler lists stored shift reports for managers.
type ReportHandler struct {
	Service Shifts
}

func (h ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/shift-reports", h.list)
}

func (h ReportHandler) list(w http.ResponseWriter, r *http.Request) {
	reports, err := h.Service.ListReports(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

package api

import (
	"errors"
	"net/http"

	"tillpos-backend/internal/domain"
)

// Reason codes travel in the error envelope so clients can recover the
// sentinel without matching message text.
const (
	ReasonInvalidRequest     = "invalid_request"
	ReasonNotFound           = "not_found"
	ReasonInsufficientStock  = "insufficient_stock"
	ReasonShiftAlreadyOpen   = "shift_already_open"
	ReasonShiftClosed        = "shift_closed"
	ReasonDuplicate          = "duplicate"
	ReasonInUse              = "in_use"
	ReasonInvalidCredentials = "invalid_credentials"
	ReasonUnauthorized       = "unauthorized"
	ReasonForbidden          = "forbidden"
)

var reasons = []struct {
	reason string
	err    error
	status int
}{
	{ReasonInvalidRequest, ErrInvalidRequest, http.StatusBadRequest},
	{ReasonNotFound, domain.ErrNotFound, http.StatusNotFound},
	{ReasonInsufficientStock, domain.ErrInsufficientStock, http.StatusConflict},
	{ReasonShiftAlreadyOpen, domain.ErrShiftAlreadyOpen, http.StatusConflict},
	{ReasonShiftClosed, domain.ErrShiftClosed, http.StatusConflict},
	{ReasonDuplicate, domain.ErrDuplicate, http.StatusConflict},
	{ReasonInUse, domain.ErrInUse, http.StatusConflict},
	{ReasonInvalidCredentials, domain.ErrInvalidCredentials, http.StatusUnauthorized},
	{ReasonUnauthorized, domain.ErrUnauthorized, http.StatusUnauthorized},
	{ReasonForbidden, domain.ErrForbidden, http.StatusForbidden},
}

// Classify returns the HTTP status and reason code for err. Unknown errors
// map to 500 with no reason.
func Classify(err error) (int, string) {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.status, r.reason
		}
	}
	return http.StatusInternalServerError, ""
}

// ErrorForReason returns the sentinel a reason code stands for, or nil.
func ErrorForReason(reason string) error {
	for _, r := range reasons {
		if r.reason == reason {
			return r.err
		}
	}
	return nil
}

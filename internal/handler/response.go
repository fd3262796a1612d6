package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"tillpos-backend/internal/api"
	"tillpos-backend/internal/server/logctx"
)

func writeRawJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	writeRawJSON(w, status, api.Envelope[any]{
		Status:  "ok",
		Message: "",
		Data:    payload,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeErrorReason(w, status, "", message)
}

func writeErrorReason(w http.ResponseWriter, status int, reason, message string) {
	if status < 400 {
		status = http.StatusInternalServerError
	}
	writeRawJSON(w, status, api.Envelope[any]{
		Status:  "error",
		Message: message,
		Data:    nil,
		Error: &api.APIError{
			Code:   status,
			Status: http.StatusText(status),
			Reason: reason,
		},
	})
}

// internalErrorMessage replaces the cause of unclassified failures.
const internalErrorMessage = "internal server error"

// writeDomainError maps err to its status and reason code. Unclassified
// errors are logged and answered with a generic message.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, reason := api.Classify(err)
	if status >= http.StatusInternalServerError {
		logctx.FromContext(r.Context()).Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"err", err,
		)
		writeErrorReason(w, status, reason, internalErrorMessage)
		return
	}
	writeErrorReason(w, status, reason, err.Error())
}

// decodeJSON reads a JSON body into dst. Failures are invalid requests.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", api.ErrInvalidRequest)
		}
		return fmt.Errorf("%w: invalid payload: %v", api.ErrInvalidRequest, err)
	}
	return nil
}

package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"trust-multisig/internal/model"
	"trust-multisig/internal/ports/http/middleware/requestid"

	"go.uber.org/zap"
)

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestID,omitempty"`
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrNotTrusted):
		return http.StatusForbidden
	case errors.Is(err, model.ErrOwnerNotFound),
		errors.Is(err, model.ErrTransactionNotFound),
		errors.Is(err, model.ErrNoEventLog):
		return http.StatusNotFound
	case errors.Is(err, model.ErrAlreadyOwner),
		errors.Is(err, model.ErrAlreadySupporting),
		errors.Is(err, model.ErrNotSupporter),
		errors.Is(err, model.ErrAlreadyExecuted),
		errors.Is(err, model.ErrAlreadyRevoked),
		errors.Is(err, model.ErrAlreadyConfirmed):
		return http.StatusConflict
	case errors.Is(err, model.ErrInsufficientTrustedOwners),
		errors.Is(err, model.ErrQuorumNotReached),
		errors.Is(err, model.ErrInvalidPrincipal),
		errors.Is(err, model.ErrIneligiblePrincipal):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrExecutionFailed):
		return http.StatusBadGateway
	case errors.Is(err, model.ErrPersistence):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (ser *server) engineError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		ser.serverError(w, r, err.Error())
		return
	}
	ser.logger.Info("request rejected: "+err.Error(), zap.Int("status", status), zap.String("requestID", requestid.FromContext(r.Context())))
	ser.writeError(w, r, status, err.Error())
}

func (ser *server) badRequest(w http.ResponseWriter, r *http.Request, message string) {
	ser.logger.Warn(message, zap.String("requestID", requestid.FromContext(r.Context())))
	ser.writeError(w, r, http.StatusBadRequest, message)
}

func (ser *server) serverError(w http.ResponseWriter, r *http.Request, message string) {
	ser.logger.Error(message, zap.String("requestID", requestid.FromContext(r.Context())))
	ser.writeError(w, r, http.StatusInternalServerError, message)
}

func (ser *server) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	ser.writeJSON(w, status, errorResponse{Error: message, RequestID: requestid.FromContext(r.Context())})
}

func (ser *server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	response, err := json.Marshal(body)
	if err != nil {
		ser.logger.Error("marshalling the response failed: " + err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(response); err != nil {
		ser.logger.Error("failed to write the response: " + err.Error())
	}
}

func normalize(param string) string {
	return strings.TrimSpace(param)
}

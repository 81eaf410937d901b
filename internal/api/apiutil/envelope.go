package apiutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/kgrigsby59/courtly/internal/api/authz"
)

// Envelope is the uniform response body: {success, message, reason?, data}.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Reason  string      `json:"reason,omitempty"`
	Data    interface{} `json:"data"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(payload); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

func RespondOK(w http.ResponseWriter, message string, data any) {
	respond(w, http.StatusOK, message, data)
}

func RespondCreated(w http.ResponseWriter, message string, data any) {
	respond(w, http.StatusCreated, message, data)
}

func respond(w http.ResponseWriter, status int, message string, data any) {
	if err := WriteJSON(w, status, Envelope{Success: true, Message: message, Data: data}); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}

// RespondError maps an error to the envelope. Expected business outcomes pass
// through with their reason; everything else is logged and surfaced as a
// generic internal error.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.Ctx(r.Context())

	var reqErr RequestError
	switch {
	case errors.As(err, &reqErr):
		if reqErr.Status == http.StatusInternalServerError {
			logger.Error().Err(reqErr.Err).Msg(reqErr.Message)
		}
		writeFailure(w, reqErr.Status, reqErr.Reason, reqErr.Message)
	case isFieldError(err):
		writeFailure(w, http.StatusBadRequest, ReasonValidation, err.Error())
	case errors.Is(err, authz.ErrUnauthenticated):
		writeFailure(w, http.StatusUnauthorized, ReasonForbidden, "Authentication required")
	case errors.Is(err, authz.ErrForbidden):
		writeFailure(w, http.StatusForbidden, ReasonForbidden, "Access denied")
	default:
		logger.Error().Err(err).Msg("Unhandled request error")
		writeFailure(w, http.StatusInternalServerError, ReasonInternal, "Internal server error")
	}
}

func isFieldError(err error) bool {
	var fieldErr FieldError
	return errors.As(err, &fieldErr)
}

func writeFailure(w http.ResponseWriter, status int, reason, message string) {
	if err := WriteJSON(w, status, Envelope{Message: message, Reason: reason}); err != nil {
		log.Error().Err(err).Msg("Failed to write error response")
	}
}

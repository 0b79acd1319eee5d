// Package respond writes the gateway's JSON error envelope (spec §7:
// {error: {message, type, details?}}). Split out of internal/httpapi so
// internal/middleware can report 401/429 responses without importing
// httpapi and creating a cycle with httpapi's routes.go, which must import
// middleware to assemble the chain — the same split internal/reqctx uses
// for the logger/middleware relationship.
//
// Grounded on the teacher's utils/http.go WriteJSON/WriteError family,
// retargeted from its {error, message, details} bad_request/unauthorized/...
// shape to this gateway's single {error:{message,type,details}} envelope.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/riftgate/llm-gateway/internal/errors"
)

// errorBody is the inner "error" object of the envelope.
type errorBody struct {
	Message string                 `json:"message"`
	Type    string                 `json:"type"`
	Details map[string]interface{} `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes the taxonomy error envelope directly, for call sites that
// haven't built a *errors.DomainError (e.g. the chat handler's request
// validation failures and the 404 handler).
func Error(w http.ResponseWriter, status int, errType, message string, details map[string]interface{}) {
	JSON(w, status, errorEnvelope{Error: errorBody{Message: message, Type: errType, Details: details}})
}

// DomainError writes err's taxonomy kind, message, and details, deriving
// the HTTP status from errors.ErrorType.HTTPStatus. Non-DomainError values
// are written as an internal_error.
func DomainError(w http.ResponseWriter, err error) {
	errType := errors.GetErrorType(err)
	if errType == "" {
		Error(w, http.StatusInternalServerError, string(errors.ErrorTypeInternal), "internal server error", nil)
		return
	}
	Error(w, errType.HTTPStatus(), string(errType), errors.GetErrorMessage(err), errors.GetErrorDetails(err))
}

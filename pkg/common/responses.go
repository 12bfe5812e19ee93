package common

import (
	"encoding/json"
	"net/http"
)

// Envelope is the shape every JSON endpoint responds with. Data and Error
// are mutually exclusive.
type Envelope struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorBody  `json:"error,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// ErrorBody carries a machine-readable code alongside the human message.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// RespondJSON writes data wrapped in the standard envelope.
func RespondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	writeEnvelope(w, r, status, Envelope{
		Success: status < http.StatusBadRequest,
		Data:    data,
	})
}

// RespondError writes an error envelope with the given code and message.
func RespondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeEnvelope(w, r, status, Envelope{
		Error: &ErrorBody{Code: code, Message: message},
	})
}

// RespondViolations writes a 422 envelope carrying structured validation
// results so clients can map them back onto form fields.
func RespondViolations(w http.ResponseWriter, r *http.Request, violations interface{}) {
	writeEnvelope(w, r, http.StatusUnprocessableEntity, Envelope{
		Error: &ErrorBody{
			Code:    "VALIDATION_FAILED",
			Message: "one or more fields were rejected",
			Details: violations,
		},
	})
}

// ErrorCode maps an HTTP status to the machine-readable code used when a
// caller has nothing more specific to report.
func ErrorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusUnprocessableEntity:
		return "VALIDATION_FAILED"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	default:
		return "INTERNAL_ERROR"
	}
}

func writeEnvelope(w http.ResponseWriter, r *http.Request, status int, env Envelope) {
	if id, ok := GetRequestID(r.Context()); ok {
		env.RequestID = id
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}

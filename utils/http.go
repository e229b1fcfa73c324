package utils

import (
	"encoding/json"
	"net/http"
)

// Error codes carried in ErrorResponse.Error
const (
	CodeBadRequest    = "bad_request"
	CodeNotFound      = "not_found"
	CodeConflict      = "conflict"
	CodeInternalError = "internal_error"
)

// ErrorResponse is the body of every failed API call
type ErrorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// SuccessResponse wraps the payload of a successful API call
type SuccessResponse struct {
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes data with the given status. HTML characters are not escaped
// so messages read the same as in the structured records.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return nil
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(data)
}

// WriteOK writes a 200 with data wrapped in a SuccessResponse
func WriteOK(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Data: data})
}

// WriteCreated writes a 201 with the created resource
func WriteCreated(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusCreated, SuccessResponse{Data: data})
}

// WriteNoContent writes a 204
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteError writes an ErrorResponse. An empty message falls back to the status text.
func WriteError(w http.ResponseWriter, status int, code, message string, details map[string]any) error {
	if message == "" {
		message = http.StatusText(status)
	}
	return WriteJSON(w, status, ErrorResponse{
		Error:   code,
		Message: message,
		Details: details,
	})
}

// WriteBadRequest writes a 400, with per-field messages in details when available
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]any) error {
	return WriteError(w, http.StatusBadRequest, CodeBadRequest, message, details)
}

// WriteNotFound writes a 404; details identify the missing resource
func WriteNotFound(w http.ResponseWriter, message string, details map[string]any) error {
	return WriteError(w, http.StatusNotFound, CodeNotFound, message, details)
}

// WriteConflict writes a 409
func WriteConflict(w http.ResponseWriter, message string, details map[string]any) error {
	return WriteError(w, http.StatusConflict, CodeConflict, message, details)
}

// WriteInternalServerError writes a 500 without any detail of the cause
func WriteInternalServerError(w http.ResponseWriter, message string) error {
	return WriteError(w, http.StatusInternalServerError, CodeInternalError, message, nil)
}

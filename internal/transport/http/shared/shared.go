// Package shared centralizes JSON envelope helpers so every handler returns
// the same error shape.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "custodia/pkg/domain-errors"
)

// WriteJSON writes a JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError translates a domain error into the JSON error envelope.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	WriteJSON(w, dErrors.ToHTTPStatus(code), map[string]string{
		"error":   string(code),
		"message": err.Error(),
	})
}

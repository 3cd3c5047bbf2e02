// Package respond writes JSON responses and the shared error body.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/example/fairway-commerce/internal/apperr"
)

type errorBody struct {
	Error  errorDetail `json:"error"`
	Status int         `json:"status"`
}

type errorDetail struct {
	Kind    apperr.Kind    `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// JSON writes data with the given status.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Error renders err as the structured error body. Unclassified errors are
// rendered as STORAGE_ERROR with a generic message; the cause never leaves
// the process.
func Error(w http.ResponseWriter, err error) {
	ae := apperr.From(err)
	status := ae.Status()
	JSON(w, status, errorBody{
		Error: errorDetail{
			Kind:    ae.Kind,
			Message: ae.Message,
			Details: ae.Details,
		},
		Status: status,
	})
}

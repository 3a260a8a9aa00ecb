package httptransport

import (
	"encoding/json"
	"net/http"

	dErrors "pointsd/pkg/domain-errors"
)

type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError translates a domain error to an HTTP response. Internal errors
// omit the description so store details never leak to callers.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)

	var (
		status      int
		description string
	)
	switch code {
	case dErrors.CodeBadRequest:
		status = http.StatusBadRequest
		description = err.Error()
	case dErrors.CodeNotFound:
		status = http.StatusNotFound
		description = err.Error()
	default:
		status = http.StatusInternalServerError
	}

	writeJSON(w, status, errorResponse{
		Error:       string(code),
		Description: description,
	})
}

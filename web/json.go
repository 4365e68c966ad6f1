package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type jsonResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to write json response", "error", err)
	}
}

// writeJSONError reports err as {"success": false} with the mapped status. Unlike
// handleError it never redirects, so scripts can read the 401.
func (h *Handler) writeJSONError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), msg, "error", err)
	}

	h.writeJSON(w, r, status, jsonResult{Success: false, Error: errorMessage(err, status)})
}

package server

import (
	"encoding/json"
	"net/http"
)

// errorBody is the envelope for every non-2xx response.
type errorBody struct {
	Error string `json:"error"`
}

// writeJSON writes data as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error envelope with the given status code.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Error: detail})
}

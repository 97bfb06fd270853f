package handlers

import (
	"encoding/json"
	"net/http"
)

// StatusResponse is the minimal acknowledgement body
type StatusResponse struct {
	Success bool   `json:"success"`
	Changed *bool  `json:"changed,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

// Slides with embedded images can be large.
const maxBodyBytes = 32 << 20

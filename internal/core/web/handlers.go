package web

import (
	"encoding/json"
	"log"
	"net/http"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// requireMethod checks if the request method matches the expected method.
// Returns true if the method matches, false otherwise (and sends 405 response).
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return false
	}
	return true
}

// rejectWhileBusy answers 409 while a download run is in flight.
// The list must not change under a running pipeline.
func (ws *Server) rejectWhileBusy(w http.ResponseWriter) bool {
	if ws.pipeline.Busy() {
		writeError(w, http.StatusConflict, "a download run is in progress")
		return true
	}
	return false
}

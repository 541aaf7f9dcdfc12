package api

import (
	"encoding/json"
	"net/http"
)

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondMessage writes the `{"message": ...}` envelope used by every
// non-entity response.
func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

// respondFieldErrors writes per-field validation errors as
// `{field: [errors]}` with a 400.
func respondFieldErrors(w http.ResponseWriter, errs map[string][]string) {
	respondJSON(w, http.StatusBadRequest, errs)
}

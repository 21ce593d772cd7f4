package api

import (
	"encoding/json"
	"net/http"
)

type errorBody struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
	Detail  any      `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Message: message})
}

func writeErrorDetail(w http.ResponseWriter, status int, message string, detail any) {
	writeJSON(w, status, errorBody{Message: message, Detail: detail})
}

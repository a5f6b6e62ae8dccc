package api

import (
	"encoding/json"
	"net/http"

	"example.com/aggregator/internal/domain"
)

// aggregationResponse is the envelope for metric queries.
type aggregationResponse struct {
	ID     int                   `json:"id"`
	Result []domain.MetricRecord `json:"result"`
}

// registryResponse is the envelope shared by all registry routes. Error is
// a pointer so success renders it as JSON null.
type registryResponse struct {
	Success         bool    `json:"success"`
	Error           *string `json:"error"`
	Token           string  `json:"token,omitempty"`
	UpdatedCallback string  `json:"updatedCallback,omitempty"`
	Callback        string  `json:"callback,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "encoding failure", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeFailure renders the registry envelope with success=false.
func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, registryResponse{Success: false, Error: &message})
}

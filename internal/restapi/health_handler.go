package restapi

import (
	"encoding/json"
	"net/http"
)

// HealthResponse represents the JSON response from the health endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Detail    string `json:"detail,omitempty"`
	Platforms int    `json:"platforms,omitempty"`
	Services  int    `json:"services,omitempty"`
}

// healthHandler verifies the dataset is loaded and ready for traffic.
// It returns 503 Service Unavailable until the network snapshot is in place.
func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if api.Application == nil || api.Dataset == nil || api.Resolver == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(HealthResponse{
			Status: "unavailable",
			Detail: "dataset not loaded",
		})
		return
	}

	if len(api.Dataset.Platforms()) == 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(HealthResponse{
			Status: "starting",
			Detail: "dataset is empty",
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(HealthResponse{
		Status:    "ok",
		Platforms: len(api.Dataset.Platforms()),
		Services:  len(api.Dataset.Services()),
	})
}

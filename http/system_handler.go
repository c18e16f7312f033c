package http

import (
	"log/slog"
	"net/http"
)

const serviceName = "Contract Feature Engineering API"

type SystemHandler struct {
	version     string
	environment string
	logger      *slog.Logger
}

func NewSystemHandler(version, environment string, logger *slog.Logger) *SystemHandler {
	return &SystemHandler{version: version, environment: environment, logger: logger}
}

type healthResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type infoResponse struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Version     string            `json:"version"`
	Endpoints   map[string]string `json:"endpoints"`
}

func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, h.logger, http.StatusOK, healthResponse{
		Status:      "healthy",
		Version:     h.version,
		Environment: h.environment,
	})
}

func (h *SystemHandler) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, h.logger, http.StatusOK, infoResponse{
		Name:        serviceName,
		Description: "API for calculating features from contract data",
		Version:     h.version,
		Endpoints: map[string]string{
			"/calculate-features":       "Calculate features for a single application",
			"/batch-calculate-features": "Calculate features for multiple applications",
			"/health":                   "Health check endpoint",
		},
	})
}

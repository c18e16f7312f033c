package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/TrashScientist/contract-features/domain"
	"github.com/TrashScientist/contract-features/service"
)

const maxBodyBytes = 10 << 20

type FeatureHandler struct {
	service *service.FeatureService
	logger  *slog.Logger
}

func NewFeatureHandler(service *service.FeatureService, logger *slog.Logger) *FeatureHandler {
	return &FeatureHandler{service: service, logger: logger}
}

// acceptJSON rejects non-POST and non-JSON requests.
func acceptJSON(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
		return false
	}
	return true
}

func (h *FeatureHandler) CalculateFeatures(w http.ResponseWriter, r *http.Request) {
	if !acceptJSON(w, r) {
		return
	}

	var payload domain.ApplicationPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&payload); err != nil {
		h.logger.Info("error decoding request body", "request_id", RequestIDFrom(r.Context()), "error", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	req, err := payload.Request()
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	h.logger.Info("processing single application", "id", req.ID, "request_id", RequestIDFrom(r.Context()))
	result := h.service.CalculateFeatures(r.Context(), req)

	writeJSON(w, r, h.logger, http.StatusOK, result)
}

func (h *FeatureHandler) BatchCalculateFeatures(w http.ResponseWriter, r *http.Request) {
	if !acceptJSON(w, r) {
		return
	}

	var payloads []domain.ApplicationPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&payloads); err != nil {
		h.logger.Info("error decoding request body", "request_id", RequestIDFrom(r.Context()), "error", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	reqs := make([]domain.ApplicationRequest, 0, len(payloads))
	for i, p := range payloads {
		req, err := p.Request()
		if err != nil {
			http.Error(w, fmt.Sprintf("item %d: %v", i, err), http.StatusUnprocessableEntity)
			return
		}
		reqs = append(reqs, req)
	}

	h.logger.Info("processing batch of applications", "count", len(reqs), "request_id", RequestIDFrom(r.Context()))
	results, err := h.service.CalculateBatch(r.Context(), reqs)
	if err != nil {
		if errors.Is(err, service.ErrBatchTooLarge) {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		h.logger.Error("batch processing failed", "request_id", RequestIDFrom(r.Context()), "error", err)
		http.Error(w, "batch processing failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, r, h.logger, http.StatusOK, results)
}

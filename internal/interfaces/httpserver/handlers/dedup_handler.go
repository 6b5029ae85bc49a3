package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/campusconnect/chatbot-service/internal/domain/dedup"
	"github.com/campusconnect/chatbot-service/internal/interfaces/httpserver/responses"
)

type DedupHandler struct {
	service *dedup.Service
}

func NewDedupHandler(service *dedup.Service) *DedupHandler {
	return &DedupHandler{service: service}
}

// HandleRun handles POST /v1/chatbot/dedup/run. The cron job runs the
// same batch on a schedule; this endpoint triggers one on demand.
func (h *DedupHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if r.Method != http.MethodPost {
		responses.Error(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	processed, err := h.service.ProcessBatch(r.Context())
	if err != nil {
		logger.Error().Err(err).Msg("Dedup batch failed")
		responses.Error(w, r, http.StatusInternalServerError, "failed to run dedup batch")
		return
	}

	responses.JSON(w, r, http.StatusOK, map[string]interface{}{
		"status":    "success",
		"processed": processed,
	})
}

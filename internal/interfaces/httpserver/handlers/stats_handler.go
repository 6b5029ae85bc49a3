package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/campusconnect/chatbot-service/internal/domain/stats"
	"github.com/campusconnect/chatbot-service/internal/interfaces/httpserver/responses"
)

type StatsHandler struct {
	service *stats.Service
}

func NewStatsHandler(service *stats.Service) *StatsHandler {
	return &StatsHandler{service: service}
}

// HandleStats handles GET /v1/chatbot/stats
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if r.Method != http.MethodGet {
		responses.Error(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	startDate := r.URL.Query().Get("start_date")
	endDate := r.URL.Query().Get("end_date")

	overview, err := h.service.Overview(r.Context(), startDate, endDate)
	if err != nil {
		var verr *stats.ValidationError
		if errors.As(err, &verr) {
			responses.Error(w, r, http.StatusBadRequest, verr.Error())
			return
		}

		logger.Error().Err(err).Msg("Failed to build stats overview")
		responses.Error(w, r, http.StatusInternalServerError, "failed to build statistics")
		return
	}

	responses.JSON(w, r, http.StatusOK, overview)
}

package handlers

import (
	"net/http"

	"github.com/campusconnect/chatbot-service/internal/interfaces/httpserver/responses"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// HandleHealth handles GET /healthz
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	responses.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

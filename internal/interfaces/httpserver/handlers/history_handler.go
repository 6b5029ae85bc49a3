package handlers

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/campusconnect/chatbot-service/internal/domain/conversation"
	"github.com/campusconnect/chatbot-service/internal/interfaces/httpserver/responses"
)

const defaultHistoryLimit = 50

type HistoryHandler struct {
	repo conversation.Repository
}

func NewHistoryHandler(repo conversation.Repository) *HistoryHandler {
	return &HistoryHandler{repo: repo}
}

type historyResponse struct {
	UserID         string                 `json:"user_id"`
	ConversationID string                 `json:"conversation_id"`
	Messages       []conversation.Message `json:"messages"`
}

// HandleHistory handles GET /v1/chatbot/history
func (h *HistoryHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if r.Method != http.MethodGet {
		responses.Error(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID := r.URL.Query().Get("user_id")
	conversationID := r.URL.Query().Get("conversation_id")
	if userID == "" {
		responses.Error(w, r, http.StatusBadRequest, "user_id is required")
		return
	}
	if conversationID == "" {
		responses.Error(w, r, http.StatusBadRequest, "conversation_id is required")
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			responses.Error(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	transcript, err := h.repo.GetTranscript(r.Context(), userID, conversationID, limit)
	if err != nil {
		logger.Error().Err(err).
			Str("user_id", userID).
			Str("conversation_id", conversationID).
			Msg("Failed to load transcript")
		responses.Error(w, r, http.StatusInternalServerError, "failed to load history")
		return
	}

	resp := historyResponse{
		UserID:         userID,
		ConversationID: conversationID,
		Messages:       []conversation.Message{},
	}
	if transcript != nil {
		resp.Messages = transcript.Messages
	}

	responses.JSON(w, r, http.StatusOK, resp)
}

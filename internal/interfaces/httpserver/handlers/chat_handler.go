package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/campusconnect/chatbot-service/internal/domain/chat"
	"github.com/campusconnect/chatbot-service/internal/interfaces/httpserver/responses"
)

type ChatHandler struct {
	service *chat.Service
}

func NewChatHandler(service *chat.Service) *ChatHandler {
	return &ChatHandler{service: service}
}

// sseSink writes stream events as server-sent event frames, flushing
// after each one so tokens reach the client as they are generated.
type sseSink struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func (s *sseSink) Send(event chat.StreamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal stream event: %w", err)
	}

	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// HandleChat handles POST /v1/chatbot/chat
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if r.Method != http.MethodPost {
		responses.Error(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req chat.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error().Err(err).Msg("Failed to decode chat request")
		responses.Error(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Question == "" {
		responses.Error(w, r, http.StatusBadRequest, "question is required")
		return
	}
	if req.UserID == "" {
		responses.Error(w, r, http.StatusBadRequest, "user_id is required")
		return
	}
	if req.ConversationID == "" {
		responses.Error(w, r, http.StatusBadRequest, "conversation_id is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		responses.Error(w, r, http.StatusInternalServerError, "streaming not supported")
		return
	}

	logger.Info().
		Str("user_id", req.UserID).
		Str("conversation_id", req.ConversationID).
		Msg("Chat request received")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sink := &sseSink{w: w, flusher: flusher}
	if err := h.service.Answer(r.Context(), req, sink); err != nil {
		logger.Error().Err(err).Msg("Chat pipeline failed")
		// Headers are committed; the error travels as a terminal frame.
		if sendErr := sink.Send(chat.StreamEvent{Error: "failed to generate answer"}); sendErr != nil {
			logger.Warn().Err(sendErr).Msg("Failed to deliver error frame")
		}
	}
}

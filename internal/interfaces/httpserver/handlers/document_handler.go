package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/campusconnect/chatbot-service/internal/domain/chat"
	"github.com/campusconnect/chatbot-service/internal/domain/document"
	"github.com/campusconnect/chatbot-service/internal/interfaces/httpserver/responses"
)

type DocumentHandler struct {
	service *document.Service
}

func NewDocumentHandler(service *document.Service) *DocumentHandler {
	return &DocumentHandler{service: service}
}

type ingestRequest struct {
	Source  string `json:"source"`
	Content string `json:"content"`
}

type searchRequest struct {
	Query string `json:"query"`
}

type searchResponse struct {
	Results []chat.RetrievedChunk `json:"results"`
}

// HandleIngest handles POST /v1/chatbot/documents
func (h *DocumentHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if r.Method != http.MethodPost {
		responses.Error(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error().Err(err).Msg("Failed to decode ingest request")
		responses.Error(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Source == "" {
		responses.Error(w, r, http.StatusBadRequest, "source is required")
		return
	}
	if req.Content == "" {
		responses.Error(w, r, http.StatusBadRequest, "content is required")
		return
	}

	chunks, err := h.service.Ingest(r.Context(), req.Source, req.Content)
	if err != nil {
		logger.Error().Err(err).Str("source", req.Source).Msg("Failed to ingest document")
		responses.Error(w, r, http.StatusInternalServerError, "failed to ingest document")
		return
	}

	responses.JSON(w, r, http.StatusOK, map[string]interface{}{
		"status": "success",
		"source": req.Source,
		"chunks": chunks,
	})
}

// HandleSearch handles POST /v1/chatbot/search
func (h *DocumentHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if r.Method != http.MethodPost {
		responses.Error(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error().Err(err).Msg("Failed to decode search request")
		responses.Error(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Query == "" {
		responses.Error(w, r, http.StatusBadRequest, "query is required")
		return
	}

	results, err := h.service.Search(r.Context(), req.Query)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to search documents")
		responses.Error(w, r, http.StatusInternalServerError, "failed to search documents")
		return
	}
	if results == nil {
		results = []chat.RetrievedChunk{}
	}

	responses.JSON(w, r, http.StatusOK, searchResponse{Results: results})
}

package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/campusconnect/chatbot-service/internal/domain/conversation"
	"github.com/campusconnect/chatbot-service/internal/domain/runlog"
	"github.com/campusconnect/chatbot-service/internal/metrics"
)

// Config bounds the retrieval and context-assembly stages.
type Config struct {
	RetrievalK          int
	RetrievalCandidates int
	RetrievalMinScore   float32
	ContextBudget       int
}

func (c Config) withDefaults() Config {
	if c.RetrievalK == 0 {
		c.RetrievalK = 5
	}
	if c.RetrievalCandidates == 0 {
		c.RetrievalCandidates = 100
	}
	if c.ContextBudget == 0 {
		c.ContextBudget = 1500
	}
	return c
}

// Service runs the answer pipeline: retrieval, context assembly, streamed
// generation, persistence, distillation.
type Service struct {
	embedder  Embedder
	documents DocumentSearcher
	memories  MemorySearcher
	generator Generator
	convs     conversation.Repository
	distiller Distiller
	tracker   *runlog.Tracker
	cfg       Config
}

// NewService creates a new chat service
func NewService(
	embedder Embedder,
	documents DocumentSearcher,
	memories MemorySearcher,
	generator Generator,
	convs conversation.Repository,
	distiller Distiller,
	tracker *runlog.Tracker,
	cfg Config,
) *Service {
	return &Service{
		embedder:  embedder,
		documents: documents,
		memories:  memories,
		generator: generator,
		convs:     convs,
		distiller: distiller,
		tracker:   tracker,
		cfg:       cfg.withDefaults(),
	}
}

// streamWriter forwards frames to the sink until the first write failure,
// after which the caller is considered gone and frames are dropped.
type streamWriter struct {
	sink Sink
	gone bool
}

func (w *streamWriter) send(event StreamEvent) {
	if w.gone {
		return
	}
	if err := w.sink.Send(event); err != nil {
		w.gone = true
		log.Warn().Err(err).Msg("Client disconnected mid-stream, continuing without writes")
	}
}

// Answer processes one question and streams the generated answer to sink.
// On success the terminal done frame has been sent. On error nothing is
// sent: the caller's error handler owns the terminal error frame. Tokens
// already delivered before a late failure stay delivered.
func (s *Service) Answer(ctx context.Context, req AskRequest, sink Sink) error {
	start := time.Now()

	rootID := s.tracker.StartRun(ctx, runlog.RunConversation, runlog.Meta{
		UserID:         req.UserID,
		ConversationID: req.ConversationID,
		Question:       req.Question,
	})

	writer := &streamWriter{sink: sink}
	answer, err := s.answer(ctx, req, writer, rootID)
	s.tracker.EndRun(ctx, rootID, answer, err)

	if err != nil {
		metrics.RecordTurn("error", time.Since(start).Seconds())
		return err
	}

	writer.send(StreamEvent{Done: true})

	metrics.RecordTurn("success", time.Since(start).Seconds())
	return nil
}

func (s *Service) answer(ctx context.Context, req AskRequest, writer *streamWriter, rootID string) (string, error) {
	logger := log.Ctx(ctx)

	// Embed the question once; both retrievals share the vector.
	queryVector, err := s.embedder.EmbedSingle(ctx, req.Question)
	if err != nil {
		return "", fmt.Errorf("embed question: %w", err)
	}

	opts := SearchOptions{
		Limit:         s.cfg.RetrievalK,
		NumCandidates: s.cfg.RetrievalCandidates,
		MinScore:      s.cfg.RetrievalMinScore,
	}

	// The two retrievals are independent; context assembly waits for both.
	// Either failing fails the turn before any token is sent.
	var documents, memories []RetrievedChunk
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		runID := s.tracker.StartRun(groupCtx, runlog.RunDocumentSearch, runlog.Meta{ParentID: rootID, Question: req.Question})
		searchStart := time.Now()

		results, err := s.documents.SearchDocuments(groupCtx, queryVector, opts)
		metrics.RecordVectorSearch("documents", time.Since(searchStart).Seconds())
		s.tracker.EndRun(groupCtx, runID, fmt.Sprintf("%d chunks", len(results)), err)
		if err != nil {
			return fmt.Errorf("search documents: %w", err)
		}

		documents = results
		return nil
	})

	group.Go(func() error {
		runID := s.tracker.StartRun(groupCtx, runlog.RunMemorySearch, runlog.Meta{ParentID: rootID, UserID: req.UserID, ConversationID: req.ConversationID})
		searchStart := time.Now()

		results, err := s.memories.SearchMemories(groupCtx, req.UserID, req.ConversationID, queryVector, opts)
		metrics.RecordVectorSearch("memories", time.Since(searchStart).Seconds())
		s.tracker.EndRun(groupCtx, runID, fmt.Sprintf("%d memories", len(results)), err)
		if err != nil {
			return fmt.Errorf("search memories: %w", err)
		}

		memories = results
		return nil
	})

	if err := group.Wait(); err != nil {
		return "", err
	}

	contextWindow := BuildContext(memories, documents, s.cfg.ContextBudget)

	logger.Debug().
		Int("documents", len(documents)).
		Int("memories", len(memories)).
		Int("context_chars", len(contextWindow)).
		Msg("Context assembled")

	// Stream generation, forwarding each chunk as it arrives. The full
	// response accumulates regardless of whether the caller is still there.
	var full strings.Builder

	modelRunID := s.tracker.StartRun(ctx, runlog.RunModelResponse, runlog.Meta{ParentID: rootID, Question: req.Question})
	genStart := time.Now()

	err = s.generator.Stream(ctx, systemPrompt, userPrompt(req.Question, contextWindow), func(token string) error {
		full.WriteString(token)
		writer.send(StreamEvent{Token: token})
		return nil
	})

	metrics.RecordGeneration(time.Since(genStart).Seconds())
	answer := full.String()
	s.tracker.EndRun(ctx, modelRunID, answer, err)

	if err != nil {
		return answer, fmt.Errorf("stream generation: %w", err)
	}

	// Persistence runs on a detached context: a caller disconnect must not
	// abort the transcript write.
	persistCtx := context.WithoutCancel(ctx)

	saveRunID := s.tracker.StartRun(persistCtx, runlog.RunSaveConversation, runlog.Meta{ParentID: rootID, UserID: req.UserID, ConversationID: req.ConversationID})
	saveErr := s.persistTurn(persistCtx, req, answer)
	s.tracker.EndRun(persistCtx, saveRunID, "", saveErr)
	if saveErr != nil {
		// The answer already streamed; a failed transcript write is not fatal.
		logger.Error().Err(saveErr).
			Str("user_id", req.UserID).
			Str("conversation_id", req.ConversationID).
			Msg("Failed to persist turn")
	}

	if s.distiller.ShouldDistill(answer) {
		if _, err := s.distiller.SaveMemory(persistCtx, req.UserID, req.ConversationID, req.Question, answer); err != nil {
			logger.Error().Err(err).
				Str("user_id", req.UserID).
				Str("conversation_id", req.ConversationID).
				Msg("Failed to distill memory")
		}
	}

	return answer, nil
}

func (s *Service) persistTurn(ctx context.Context, req AskRequest, answer string) error {
	now := time.Now()
	userMsg := conversation.Message{
		Role:      conversation.RoleUser,
		Content:   req.Question,
		CreatedAt: now,
	}
	assistantMsg := conversation.Message{
		Role:      conversation.RoleAssistant,
		Content:   answer,
		CreatedAt: time.Now(),
	}

	return s.convs.AppendTurn(ctx, req.UserID, req.ConversationID, userMsg, assistantMsg)
}

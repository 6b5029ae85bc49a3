package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/campusconnect/chatbot-service/internal/domain/conversation"
	"github.com/campusconnect/chatbot-service/internal/domain/memory"
	"github.com/campusconnect/chatbot-service/internal/domain/runlog"
)

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return f.vector, f.err
}

type fakeDocSearcher struct {
	results []RetrievedChunk
	err     error
}

func (f *fakeDocSearcher) SearchDocuments(ctx context.Context, queryVector []float32, opts SearchOptions) ([]RetrievedChunk, error) {
	return f.results, f.err
}

type fakeMemSearcher struct {
	results          []RetrievedChunk
	err              error
	gotUser, gotConv string
}

func (f *fakeMemSearcher) SearchMemories(ctx context.Context, userID, conversationID string, queryVector []float32, opts SearchOptions) ([]RetrievedChunk, error) {
	f.gotUser = userID
	f.gotConv = conversationID
	return f.results, f.err
}

type fakeGenerator struct {
	tokens  []string
	err     error // returned after emitting tokens
	gotUser string
}

func (f *fakeGenerator) Stream(ctx context.Context, system, user string, fn func(string) error) error {
	f.gotUser = user
	for _, tok := range f.tokens {
		if err := fn(tok); err != nil {
			return err
		}
	}
	return f.err
}

type appendedTurn struct {
	userID, convID string
	user, bot      conversation.Message
}

type fakeConvRepo struct {
	turns []appendedTurn
	err   error
}

func (f *fakeConvRepo) AppendTurn(ctx context.Context, userID, conversationID string, userMsg, assistantMsg conversation.Message) error {
	if f.err != nil {
		return f.err
	}
	f.turns = append(f.turns, appendedTurn{userID, conversationID, userMsg, assistantMsg})
	return nil
}

func (f *fakeConvRepo) GetTranscript(ctx context.Context, userID, conversationID string, limit int) (*conversation.Transcript, error) {
	return nil, nil
}

type fakeDistiller struct {
	threshold int
	saved     []string
	err       error
}

func (f *fakeDistiller) ShouldDistill(answer string) bool {
	return len(answer) > f.threshold
}

func (f *fakeDistiller) SaveMemory(ctx context.Context, userID, conversationID, question, answer string) (*memory.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.saved = append(f.saved, answer)
	return &memory.Record{UserID: userID, ConversationID: conversationID, Content: answer}, nil
}

type fakeSink struct {
	events    []StreamEvent
	failAfter int // fail sends after this many successes; 0 means never fail
}

func (f *fakeSink) Send(event StreamEvent) error {
	if f.failAfter > 0 && len(f.events) >= f.failAfter {
		return errors.New("broken pipe")
	}
	f.events = append(f.events, event)
	return nil
}

func newTestService(emb *fakeEmbedder, docs *fakeDocSearcher, mems *fakeMemSearcher, gen *fakeGenerator, convs *fakeConvRepo, dist *fakeDistiller) *Service {
	return NewService(emb, docs, mems, gen, convs, dist, runlog.NewTracker(nil, false), Config{
		RetrievalK:          5,
		RetrievalCandidates: 100,
		ContextBudget:       1500,
	})
}

func TestAnswer_StreamsTokensThenDone(t *testing.T) {
	tokens := []string{"Học ", "phí ", "là ", "15 ", "triệu."}
	gen := &fakeGenerator{tokens: tokens}
	convs := &fakeConvRepo{}
	dist := &fakeDistiller{threshold: 1000}
	sink := &fakeSink{}

	svc := newTestService(
		&fakeEmbedder{vector: []float32{1, 0}},
		&fakeDocSearcher{results: chunks("doc chunk")},
		&fakeMemSearcher{},
		gen, convs, dist,
	)

	req := AskRequest{Question: "Học phí ngành CNTT là bao nhiêu?", UserID: "u1", ConversationID: "c1"}
	if err := svc.Answer(context.Background(), req, sink); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	if len(sink.events) != len(tokens)+1 {
		t.Fatalf("Expected %d frames, got %d", len(tokens)+1, len(sink.events))
	}
	for i, tok := range tokens {
		if sink.events[i].Token != tok {
			t.Errorf("Frame %d = %q, want %q", i, sink.events[i].Token, tok)
		}
	}
	last := sink.events[len(sink.events)-1]
	if !last.Done {
		t.Error("Last frame must be the done marker")
	}

	// The persisted assistant message equals the concatenated tokens.
	if len(convs.turns) != 1 {
		t.Fatalf("Expected 1 persisted turn, got %d", len(convs.turns))
	}
	turn := convs.turns[0]
	if turn.userID != "u1" || turn.convID != "c1" {
		t.Errorf("Turn persisted for (%s, %s), want (u1, c1)", turn.userID, turn.convID)
	}
	if turn.user.Role != conversation.RoleUser || turn.user.Content != req.Question {
		t.Errorf("User message = %+v, want the question", turn.user)
	}
	if turn.bot.Role != conversation.RoleAssistant || turn.bot.Content != strings.Join(tokens, "") {
		t.Errorf("Assistant message = %q, want %q", turn.bot.Content, strings.Join(tokens, ""))
	}
}

func TestAnswer_ContextReachesGenerator(t *testing.T) {
	gen := &fakeGenerator{tokens: []string{"ok"}}

	svc := newTestService(
		&fakeEmbedder{vector: []float32{1, 0}},
		&fakeDocSearcher{results: chunks("tuition chunk")},
		&fakeMemSearcher{results: chunks("remembered fact")},
		gen, &fakeConvRepo{}, &fakeDistiller{threshold: 1000},
	)

	req := AskRequest{Question: "q", UserID: "u1", ConversationID: "c1"}
	if err := svc.Answer(context.Background(), req, &fakeSink{}); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	// Memories come before documents in the assembled context.
	memIdx := strings.Index(gen.gotUser, "remembered fact")
	docIdx := strings.Index(gen.gotUser, "tuition chunk")
	if memIdx < 0 || docIdx < 0 {
		t.Fatalf("Prompt missing context contents: %q", gen.gotUser)
	}
	if memIdx > docIdx {
		t.Error("Memory content must precede document content in the prompt")
	}
}

func TestAnswer_MemorySearchScopedToRequest(t *testing.T) {
	mems := &fakeMemSearcher{}
	svc := newTestService(
		&fakeEmbedder{vector: []float32{1}},
		&fakeDocSearcher{},
		mems,
		&fakeGenerator{tokens: []string{"a"}},
		&fakeConvRepo{}, &fakeDistiller{threshold: 1000},
	)

	req := AskRequest{Question: "q", UserID: "u1", ConversationID: "c1"}
	if err := svc.Answer(context.Background(), req, &fakeSink{}); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	if mems.gotUser != "u1" || mems.gotConv != "c1" {
		t.Errorf("Memory search filtered by (%s, %s), want (u1, c1)", mems.gotUser, mems.gotConv)
	}
}

func TestAnswer_RetrievalFailureAbortsBeforeStreaming(t *testing.T) {
	sink := &fakeSink{}
	convs := &fakeConvRepo{}

	svc := newTestService(
		&fakeEmbedder{vector: []float32{1}},
		&fakeDocSearcher{err: errors.New("index unavailable")},
		&fakeMemSearcher{results: chunks("mem")},
		&fakeGenerator{tokens: []string{"never"}},
		convs, &fakeDistiller{threshold: 1000},
	)

	err := svc.Answer(context.Background(), AskRequest{Question: "q", UserID: "u", ConversationID: "c"}, sink)
	if err == nil {
		t.Fatal("Expected error when document retrieval fails")
	}
	if len(sink.events) != 0 {
		t.Errorf("No frames may be sent when retrieval fails, got %d", len(sink.events))
	}
	if len(convs.turns) != 0 {
		t.Errorf("No turn may be persisted when retrieval fails, got %d", len(convs.turns))
	}
}

func TestAnswer_EmbeddingFailureAborts(t *testing.T) {
	sink := &fakeSink{}
	svc := newTestService(
		&fakeEmbedder{err: errors.New("embedding down")},
		&fakeDocSearcher{}, &fakeMemSearcher{},
		&fakeGenerator{}, &fakeConvRepo{}, &fakeDistiller{threshold: 1000},
	)

	if err := svc.Answer(context.Background(), AskRequest{Question: "q"}, sink); err == nil {
		t.Fatal("Expected error when embedding fails")
	}
	if len(sink.events) != 0 {
		t.Errorf("No frames may be sent when embedding fails, got %d", len(sink.events))
	}
}

func TestAnswer_GenerationFailureAfterTokens(t *testing.T) {
	sink := &fakeSink{}
	convs := &fakeConvRepo{}

	svc := newTestService(
		&fakeEmbedder{vector: []float32{1}},
		&fakeDocSearcher{}, &fakeMemSearcher{},
		&fakeGenerator{tokens: []string{"partial ", "answer"}, err: errors.New("model timeout")},
		convs, &fakeDistiller{threshold: 1000},
	)

	err := svc.Answer(context.Background(), AskRequest{Question: "q", UserID: "u", ConversationID: "c"}, sink)
	if err == nil {
		t.Fatal("Expected error from mid-stream generation failure")
	}

	// Delivered tokens stay delivered; no done frame follows.
	if len(sink.events) != 2 {
		t.Fatalf("Expected the 2 delivered token frames, got %d", len(sink.events))
	}
	for _, ev := range sink.events {
		if ev.Done {
			t.Error("No done frame may follow a failed generation")
		}
	}
	if len(convs.turns) != 0 {
		t.Errorf("Failed turn must not be persisted, got %d turns", len(convs.turns))
	}
}

func TestAnswer_DistillsLongAnswers(t *testing.T) {
	dist := &fakeDistiller{threshold: 5}

	svc := newTestService(
		&fakeEmbedder{vector: []float32{1}},
		&fakeDocSearcher{}, &fakeMemSearcher{},
		&fakeGenerator{tokens: []string{"a long enough answer"}},
		&fakeConvRepo{}, dist,
	)

	if err := svc.Answer(context.Background(), AskRequest{Question: "q", UserID: "u", ConversationID: "c"}, &fakeSink{}); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	if len(dist.saved) != 1 {
		t.Fatalf("Expected exactly 1 distilled memory, got %d", len(dist.saved))
	}
}

func TestAnswer_SkipsDistillationForShortAnswers(t *testing.T) {
	dist := &fakeDistiller{threshold: 50}

	svc := newTestService(
		&fakeEmbedder{vector: []float32{1}},
		&fakeDocSearcher{}, &fakeMemSearcher{},
		&fakeGenerator{tokens: []string{"ok"}},
		&fakeConvRepo{}, dist,
	)

	if err := svc.Answer(context.Background(), AskRequest{Question: "q", UserID: "u", ConversationID: "c"}, &fakeSink{}); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	if len(dist.saved) != 0 {
		t.Errorf("Short answer must not be distilled, got %d records", len(dist.saved))
	}
}

func TestAnswer_DistillationFailureIsNonFatal(t *testing.T) {
	dist := &fakeDistiller{threshold: 1, err: errors.New("summarizer down")}
	convs := &fakeConvRepo{}

	svc := newTestService(
		&fakeEmbedder{vector: []float32{1}},
		&fakeDocSearcher{}, &fakeMemSearcher{},
		&fakeGenerator{tokens: []string{"answer text"}},
		convs, dist,
	)

	if err := svc.Answer(context.Background(), AskRequest{Question: "q", UserID: "u", ConversationID: "c"}, &fakeSink{}); err != nil {
		t.Fatalf("Distillation failure must not fail the turn: %v", err)
	}
	if len(convs.turns) != 1 {
		t.Errorf("Transcript must still be persisted, got %d turns", len(convs.turns))
	}
}

func TestAnswer_ClientDisconnectDoesNotAbortPersistence(t *testing.T) {
	convs := &fakeConvRepo{}
	sink := &fakeSink{failAfter: 1} // connection dies after the first token

	svc := newTestService(
		&fakeEmbedder{vector: []float32{1}},
		&fakeDocSearcher{}, &fakeMemSearcher{},
		&fakeGenerator{tokens: []string{"tok1", "tok2", "tok3"}},
		convs, &fakeDistiller{threshold: 1000},
	)

	if err := svc.Answer(context.Background(), AskRequest{Question: "q", UserID: "u", ConversationID: "c"}, sink); err != nil {
		t.Fatalf("Disconnect must not fail the turn: %v", err)
	}

	// Persistence completed for the record with the full answer.
	if len(convs.turns) != 1 {
		t.Fatalf("Expected the turn to be persisted, got %d", len(convs.turns))
	}
	if convs.turns[0].bot.Content != "tok1tok2tok3" {
		t.Errorf("Persisted answer = %q, want the full accumulation", convs.turns[0].bot.Content)
	}
}

func TestAnswer_TranscriptWriteFailureIsNonFatal(t *testing.T) {
	convs := &fakeConvRepo{err: errors.New("db down")}
	sink := &fakeSink{}

	svc := newTestService(
		&fakeEmbedder{vector: []float32{1}},
		&fakeDocSearcher{}, &fakeMemSearcher{},
		&fakeGenerator{tokens: []string{"answer"}},
		convs, &fakeDistiller{threshold: 1000},
	)

	if err := svc.Answer(context.Background(), AskRequest{Question: "q", UserID: "u", ConversationID: "c"}, sink); err != nil {
		t.Fatalf("Transcript write failure must not fail the streamed turn: %v", err)
	}
	if !sink.events[len(sink.events)-1].Done {
		t.Error("Done frame must still terminate the stream")
	}
}

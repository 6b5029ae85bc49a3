package memory

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeRepo struct {
	records []*Record
	err     error
}

func (f *fakeRepo) CreateRecord(ctx context.Context, record *Record) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, record)
	return nil
}

type fakeLLM struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeLLM) Complete(ctx context.Context, system, user string) (string, error) {
	f.prompts = append(f.prompts, user)
	return f.response, f.err
}

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return f.vector, f.err
}

func TestDistiller_ShouldDistill(t *testing.T) {
	d := NewDistiller(&fakeRepo{}, &fakeLLM{}, &fakeEmbedder{}, 50)

	if d.ShouldDistill(strings.Repeat("a", 50)) {
		t.Error("Answer at the threshold should not be distilled")
	}
	if !d.ShouldDistill(strings.Repeat("a", 51)) {
		t.Error("Answer above the threshold should be distilled")
	}
	if d.ShouldDistill("") {
		t.Error("Empty answer should not be distilled")
	}
}

func TestDistiller_SaveMemory(t *testing.T) {
	repo := &fakeRepo{}
	llm := &fakeLLM{response: "The user asked about tuition and was told the per-credit fee."}
	embedder := &fakeEmbedder{vector: []float32{0.1, 0.2, 0.3}}

	d := NewDistiller(repo, llm, embedder, 50)

	record, err := d.SaveMemory(context.Background(), "u1", "c1", "How much is tuition?", "Tuition is 15 million VND per semester for the IT program.")
	if err != nil {
		t.Fatalf("SaveMemory failed: %v", err)
	}

	if len(repo.records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(repo.records))
	}
	if record.UserID != "u1" || record.ConversationID != "c1" {
		t.Errorf("Record scoped to (%s, %s), want (u1, c1)", record.UserID, record.ConversationID)
	}
	if record.Content != llm.response {
		t.Errorf("Record content = %q, want summary", record.Content)
	}
	if len(record.Embedding) != 3 {
		t.Errorf("Record embedding length = %d, want 3", len(record.Embedding))
	}

	if len(llm.prompts) != 1 || !strings.Contains(llm.prompts[0], "How much is tuition?") {
		t.Errorf("Summarization prompt missing the question: %v", llm.prompts)
	}
}

func TestDistiller_SaveMemory_LLMError(t *testing.T) {
	repo := &fakeRepo{}
	llm := &fakeLLM{err: errors.New("model unavailable")}

	d := NewDistiller(repo, llm, &fakeEmbedder{}, 50)

	if _, err := d.SaveMemory(context.Background(), "u1", "c1", "q", "a"); err == nil {
		t.Fatal("Expected error from failing LLM")
	}
	if len(repo.records) != 0 {
		t.Errorf("No record should be created on summarization failure, got %d", len(repo.records))
	}
}

func TestDistiller_SaveMemory_EmbedError(t *testing.T) {
	repo := &fakeRepo{}
	llm := &fakeLLM{response: "summary"}
	embedder := &fakeEmbedder{err: errors.New("embedding service down")}

	d := NewDistiller(repo, llm, embedder, 50)

	if _, err := d.SaveMemory(context.Background(), "u1", "c1", "q", "a"); err == nil {
		t.Fatal("Expected error from failing embedder")
	}
	if len(repo.records) != 0 {
		t.Errorf("No record should be created on embed failure, got %d", len(repo.records))
	}
}

func TestDistiller_SaveMemory_EmptySummary(t *testing.T) {
	d := NewDistiller(&fakeRepo{}, &fakeLLM{response: "   "}, &fakeEmbedder{}, 50)

	if _, err := d.SaveMemory(context.Background(), "u1", "c1", "q", "a"); err == nil {
		t.Fatal("Expected error for empty summary")
	}
}

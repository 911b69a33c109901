package rag

import (
	"context"
	"strings"
	"testing"

	"github.com/yungbote/coursecraft-backend/internal/logger"
	"github.com/yungbote/coursecraft-backend/internal/platform/qdrant"
)

func newTestDiscussion(t *testing.T, ai *fakeAI, vectors *fakeSearch) Discussion {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewDiscussion(log, ai, vectors)
}

func TestDiscussReturnsAnswerAndSourcePreviews(t *testing.T) {
	longChunk := strings.Repeat("photosynthesis ", 30) // > 200 chars
	vectors := &fakeSearch{
		exists: true,
		count:  5,
		matches: []qdrant.Match{
			{ID: "chunk-0", Score: 0.9, Payload: map[string]any{"text": longChunk}},
			{ID: "chunk-1", Score: 0.8, Payload: map[string]any{"text": "short chunk"}},
		},
	}
	ai := &fakeAI{answers: map[string]string{
		"Question: what is photosynthesis": "It converts light into chemical energy.",
	}}
	d := newTestDiscussion(t, ai, vectors)

	got, err := d.Discuss(context.Background(), "curriculum_x", "what is photosynthesis", nil)
	if err != nil {
		t.Fatalf("discuss: %v", err)
	}
	if got.Answer != "It converts light into chemical energy." {
		t.Fatalf("answer: %q", got.Answer)
	}
	if len(got.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(got.Sources))
	}
	if len([]rune(got.Sources[0])) != 200 {
		t.Fatalf("long source should be trimmed to 200 chars, got %d", len([]rune(got.Sources[0])))
	}
	if got.Sources[1] != "short chunk" {
		t.Fatalf("short source should pass through: %q", got.Sources[1])
	}
}

func TestDiscussIncludesChatHistory(t *testing.T) {
	vectors := populatedSearch()
	var captured string
	ai := &fakeAI{}
	d := newTestDiscussion(t, ai, vectors)

	// fakeAI returns the default answer; capture via a history marker
	// that must appear in the rendered prompt.
	ai.answers = map[string]string{
		"teacher: what about week two": "Covered in the second unit.",
	}
	got, err := d.Discuss(context.Background(), "curriculum_x", "and after that?", []ChatTurn{
		{Role: "teacher", Content: "what about week two"},
	})
	if err != nil {
		t.Fatalf("discuss: %v", err)
	}
	captured = got.Answer
	if captured != "Covered in the second unit." {
		t.Fatalf("history not rendered into prompt, answer: %q", captured)
	}
}

func TestDiscussMissingCollection(t *testing.T) {
	vectors := &fakeSearch{searchErr: &qdrant.OperationError{
		Code:      qdrant.OperationErrorNotFound,
		Operation: "search",
	}}
	d := newTestDiscussion(t, &fakeAI{}, vectors)

	_, err := d.Discuss(context.Background(), "gone", "anything", nil)
	if CodeOf(err) != ErrorCollectionNotFound {
		t.Fatalf("expected collection_not_found, got %v", err)
	}
}

func TestDiscussEmptyQueryRejected(t *testing.T) {
	d := newTestDiscussion(t, &fakeAI{}, populatedSearch())
	if _, err := d.Discuss(context.Background(), "curriculum_x", "  ", nil); err == nil {
		t.Fatal("expected empty query to fail")
	}
}

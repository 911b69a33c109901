package rag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yungbote/coursecraft-backend/internal/logger"
	"github.com/yungbote/coursecraft-backend/internal/platform/qdrant"
)

type fakeAI struct {
	answers     map[string]string
	genCalls    int
	embedCalls  int
	generateErr error
}

func (f *fakeAI) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	f.embedCalls++
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (f *fakeAI) GenerateText(ctx context.Context, system, user string) (string, error) {
	f.genCalls++
	if f.generateErr != nil {
		return "", f.generateErr
	}
	for needle, answer := range f.answers {
		if strings.Contains(user, needle) {
			return answer, nil
		}
	}
	return "- default item", nil
}

func (f *fakeAI) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	return nil, fmt.Errorf("not implemented")
}

type fakeSearch struct {
	exists    bool
	count     int
	matches   []qdrant.Match
	searchErr error
}

func (f *fakeSearch) EnsureCollection(ctx context.Context, collection string) error { return nil }

func (f *fakeSearch) CollectionExists(ctx context.Context, collection string) (bool, error) {
	return f.exists, nil
}

func (f *fakeSearch) DeleteCollection(ctx context.Context, collection string) error { return nil }

func (f *fakeSearch) Upsert(ctx context.Context, collection string, points []qdrant.Point) error {
	return nil
}

func (f *fakeSearch) Search(ctx context.Context, collection string, vector []float32, topK int) ([]qdrant.Match, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if topK < len(f.matches) {
		return f.matches[:topK], nil
	}
	return f.matches, nil
}

func (f *fakeSearch) Count(ctx context.Context, collection string) (int, error) {
	return f.count, nil
}

func newTestExtractor(t *testing.T, ai *fakeAI, vectors *fakeSearch) Extractor {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewExtractor(log, ai, vectors)
}

func populatedSearch() *fakeSearch {
	return &fakeSearch{
		exists: true,
		count:  10,
		matches: []qdrant.Match{
			{ID: "chunk-0", Score: 0.9, Payload: map[string]any{"text": "cells are the unit of life"}},
			{ID: "chunk-1", Score: 0.8, Payload: map[string]any{"text": "photosynthesis converts light"}},
		},
	}
}

func TestExtractContextBuildsRecord(t *testing.T) {
	ai := &fakeAI{answers: map[string]string{
		"learning objectives": "- understand cells\n- describe photosynthesis",
		"skill level":         "introductory high school",
		"concise summary":     "A survey of introductory biology.",
	}}
	e := newTestExtractor(t, ai, populatedSearch())

	record, err := e.ExtractContext(context.Background(), "curriculum_x", GranularityCourse, "")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(record.LearningObjectives) != 2 || record.LearningObjectives[0] != "understand cells" {
		t.Fatalf("objectives not parsed: %v", record.LearningObjectives)
	}
	if record.SkillLevel != "introductory high school" {
		t.Fatalf("skill level: %q", record.SkillLevel)
	}
	if record.GeneralSummary != "A survey of introductory biology." {
		t.Fatalf("general summary: %q", record.GeneralSummary)
	}
	if record.FocusSummary != "" {
		t.Fatal("focus summary should be empty without a focus")
	}
}

func TestExtractContextFocusReplacesGeneralSummary(t *testing.T) {
	ai := &fakeAI{answers: map[string]string{
		"about: genetics": "Genetics is covered in unit three.",
	}}
	e := newTestExtractor(t, ai, populatedSearch())

	record, err := e.ExtractContext(context.Background(), "curriculum_x", GranularityModule, "genetics")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if record.FocusSummary != "Genetics is covered in unit three." {
		t.Fatalf("focus summary: %q", record.FocusSummary)
	}
	if record.GeneralSummary != "" {
		t.Fatal("general summary should be empty when focus is set")
	}
}

func TestExtractContextMissingCollection(t *testing.T) {
	e := newTestExtractor(t, &fakeAI{}, &fakeSearch{exists: false})

	_, err := e.ExtractContext(context.Background(), "curriculum_x", GranularityCourse, "")
	if CodeOf(err) != ErrorCollectionNotFound {
		t.Fatalf("expected collection_not_found, got %v", err)
	}
}

func TestExtractContextEmptyCollection(t *testing.T) {
	e := newTestExtractor(t, &fakeAI{}, &fakeSearch{exists: true, count: 0})

	_, err := e.ExtractContext(context.Background(), "curriculum_x", GranularityCourse, "")
	if CodeOf(err) != ErrorCollectionEmpty {
		t.Fatalf("expected collection_empty, got %v", err)
	}
}

func TestExtractContextServiceFailure(t *testing.T) {
	ai := &fakeAI{generateErr: fmt.Errorf("backend down")}
	e := newTestExtractor(t, ai, populatedSearch())

	_, err := e.ExtractContext(context.Background(), "curriculum_x", GranularityCourse, "")
	if CodeOf(err) != ErrorService {
		t.Fatalf("expected service_failed, got %v", err)
	}
}

func TestExtractContextMemoizesRepeatedQueries(t *testing.T) {
	// Override the battery so two slots share the same query text.
	dir := t.TempDir()
	path := filepath.Join(dir, "queries.yaml")
	if err := os.WriteFile(path, []byte("objectives: same question\nconcepts: same question\n"), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}
	t.Setenv("EXTRACTION_QUERIES_PATH", path)

	ai := &fakeAI{}
	e := newTestExtractor(t, ai, populatedSearch())

	if _, err := e.ExtractContext(context.Background(), "curriculum_x", GranularityCourse, ""); err != nil {
		t.Fatalf("extract: %v", err)
	}
	// Battery has 8 slots here (7 fixed + general); two share a query,
	// so only 7 generations should run.
	if ai.genCalls != 7 {
		t.Fatalf("expected 7 generation calls with memoization, got %d", ai.genCalls)
	}
}

func TestParseBulletList(t *testing.T) {
	answer := "- first item\n* second item\n• third item\n1. fourth item\n2) fifth item\n\n  \nplain line"
	got := ParseBulletList(answer)
	want := []string{"first item", "second item", "third item", "fourth item", "fifth item", "plain line"}
	if len(got) != len(want) {
		t.Fatalf("expected %d items, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("item %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

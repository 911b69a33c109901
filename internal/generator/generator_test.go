package generator

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/yungbote/coursecraft-backend/internal/apierr"
	"github.com/yungbote/coursecraft-backend/internal/logger"
	"github.com/yungbote/coursecraft-backend/internal/rag"
)

type fakeJSONClient struct {
	payloads map[string]map[string]any
	err      error
	lastUser string
}

func (f *fakeJSONClient) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeJSONClient) GenerateText(ctx context.Context, system, user string) (string, error) {
	return "", fmt.Errorf("not implemented")
}

func (f *fakeJSONClient) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	f.lastUser = user
	if f.err != nil {
		return nil, f.err
	}
	payload, ok := f.payloads[schemaName]
	if !ok {
		return nil, fmt.Errorf("unexpected schema %q", schemaName)
	}
	return payload, nil
}

func newTestGenerator(t *testing.T, ai *fakeJSONClient) Generator {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewGenerator(log, ai)
}

func testRecord() *rag.ContextRecord {
	return &rag.ContextRecord{
		Granularity:        rag.GranularityCourse,
		LearningObjectives: []string{"understand cells"},
		SkillLevel:         "introductory",
	}
}

func TestGenerateModuleOutline(t *testing.T) {
	ai := &fakeJSONClient{payloads: map[string]map[string]any{
		"module_outline": {
			"name":               "Cell Biology",
			"description":        "Structure and function of cells.",
			"learning_outcomes":  []any{"identify organelles"},
			"prerequisites":      []any{"none"},
			"estimated_duration": "2 weeks",
		},
	}}
	g := newTestGenerator(t, ai)

	outline, err := g.GenerateModuleOutline(context.Background(), testRecord(), 2, 5)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if outline.Name != "Cell Biology" || outline.EstimatedDuration != "2 weeks" {
		t.Fatalf("unexpected outline: %+v", outline)
	}
	if len(outline.LearningOutcomes) != 1 || outline.LearningOutcomes[0] != "identify organelles" {
		t.Fatalf("outcomes: %v", outline.LearningOutcomes)
	}
}

func TestGenerateModuleOutlinePassesPositionInPrompt(t *testing.T) {
	ai := &fakeJSONClient{payloads: map[string]map[string]any{
		"module_outline": {
			"name":               "M",
			"description":        "d",
			"learning_outcomes":  []any{},
			"prerequisites":      []any{},
			"estimated_duration": "1 week",
		},
	}}
	g := newTestGenerator(t, ai)

	if _, err := g.GenerateModuleOutline(context.Background(), testRecord(), 3, 7); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if wanted := "module 3 of 7"; !strings.Contains(ai.lastUser, wanted) {
		t.Fatalf("prompt missing %q: %s", wanted, ai.lastUser)
	}
}

func TestGenerateModuleOutlineMalformedIsContentParse(t *testing.T) {
	ai := &fakeJSONClient{payloads: map[string]map[string]any{
		"module_outline": {
			"name":        "Cell Biology",
			"description": "x",
			// learning_outcomes has the wrong element type
			"learning_outcomes":  []any{map[string]any{"oops": true}},
			"prerequisites":      []any{},
			"estimated_duration": "1 week",
		},
	}}
	g := newTestGenerator(t, ai)

	_, err := g.GenerateModuleOutline(context.Background(), testRecord(), 1, 3)
	if apierr.CodeOf(err) != apierr.CodeContentParse {
		t.Fatalf("expected content_parse, got %v", err)
	}
}

func TestGenerateModuleOutlineServiceFailure(t *testing.T) {
	ai := &fakeJSONClient{err: fmt.Errorf("llm down")}
	g := newTestGenerator(t, ai)

	_, err := g.GenerateModuleOutline(context.Background(), testRecord(), 1, 3)
	if apierr.CodeOf(err) != apierr.CodeExternalService {
		t.Fatalf("expected external_service, got %v", err)
	}
}

func TestGenerateLessonOutline(t *testing.T) {
	ai := &fakeJSONClient{payloads: map[string]map[string]any{
		"lesson_outline": {
			"name":             "Organelles",
			"description":      "Tour of the cell.",
			"key_points":       []any{"nucleus stores DNA"},
			"activities":       []any{"label a diagram"},
			"resources":        []any{"microscope"},
			"assessment_ideas": []any{"quiz"},
		},
	}}
	g := newTestGenerator(t, ai)

	outline, err := g.GenerateLessonOutline(context.Background(), testRecord(), "Cell Biology", 1, 4)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if outline.Name != "Organelles" || len(outline.KeyPoints) != 1 {
		t.Fatalf("unexpected outline: %+v", outline)
	}
}

func TestGenerateContentSectionsEmptyIsContentParse(t *testing.T) {
	ai := &fakeJSONClient{payloads: map[string]map[string]any{
		"lesson_content": {"sections": []any{}},
	}}
	g := newTestGenerator(t, ai)

	_, err := g.GenerateContentSections(context.Background(), testRecord(), "M", "L")
	if apierr.CodeOf(err) != apierr.CodeContentParse {
		t.Fatalf("expected content_parse, got %v", err)
	}
}

func TestRenderLessonContentAndFlatten(t *testing.T) {
	sections := []ContentSection{
		{Title: "Intro", Body: "Welcome.", Examples: []string{"e1"}, Exercises: []string{"x1"}},
		{Title: "Deep Dive", Body: "Details.", Examples: []string{"e2", "e3"}, Exercises: nil},
	}

	content := RenderLessonContent(sections)
	want := "# Intro\n\nWelcome.\n\n# Deep Dive\n\nDetails."
	if content != want {
		t.Fatalf("content:\n%q\nwant:\n%q", content, want)
	}

	examples, exercises := FlattenSectionLists(sections)
	if len(examples) != 3 || examples[2] != "e3" {
		t.Fatalf("examples: %v", examples)
	}
	if len(exercises) != 1 || exercises[0] != "x1" {
		t.Fatalf("exercises: %v", exercises)
	}
}

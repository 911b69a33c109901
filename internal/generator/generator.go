package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yungbote/coursecraft-backend/internal/apierr"
	"github.com/yungbote/coursecraft-backend/internal/logger"
	"github.com/yungbote/coursecraft-backend/internal/platform/openai"
	"github.com/yungbote/coursecraft-backend/internal/rag"
)

type ModuleOutline struct {
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	LearningOutcomes  []string `json:"learning_outcomes"`
	Prerequisites     []string `json:"prerequisites"`
	EstimatedDuration string   `json:"estimated_duration"`
}

type LessonOutline struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	KeyPoints       []string `json:"key_points"`
	Activities      []string `json:"activities"`
	Resources       []string `json:"resources"`
	AssessmentIdeas []string `json:"assessment_ideas"`
}

type ContentSection struct {
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Examples  []string `json:"examples"`
	Exercises []string `json:"exercises"`
}

// Generator produces structured course material from a context record.
// Positional numbers are prompt context only; callers own ordering.
type Generator interface {
	GenerateModuleOutline(ctx context.Context, record *rag.ContextRecord, moduleNumber, totalModules int) (*ModuleOutline, error)
	GenerateLessonOutline(ctx context.Context, record *rag.ContextRecord, moduleName string, lessonNumber, totalLessons int) (*LessonOutline, error)
	GenerateContentSections(ctx context.Context, record *rag.ContextRecord, moduleName, lessonName string) ([]ContentSection, error)
}

type generator struct {
	log *logger.Logger
	ai  openai.Client
}

func NewGenerator(log *logger.Logger, ai openai.Client) Generator {
	return &generator{
		log: log.With("service", "ContentGenerator"),
		ai:  ai,
	}
}

func stringListSchema() map[string]any {
	return map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}
}

func moduleOutlineSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":               map[string]any{"type": "string"},
			"description":        map[string]any{"type": "string"},
			"learning_outcomes":  stringListSchema(),
			"prerequisites":      stringListSchema(),
			"estimated_duration": map[string]any{"type": "string"},
		},
		"required":             []string{"name", "description", "learning_outcomes", "prerequisites", "estimated_duration"},
		"additionalProperties": false,
	}
}

func lessonOutlineSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":             map[string]any{"type": "string"},
			"description":      map[string]any{"type": "string"},
			"key_points":       stringListSchema(),
			"activities":       stringListSchema(),
			"resources":        stringListSchema(),
			"assessment_ideas": stringListSchema(),
		},
		"required":             []string{"name", "description", "key_points", "activities", "resources", "assessment_ideas"},
		"additionalProperties": false,
	}
}

func contentSectionsSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"sections": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title":     map[string]any{"type": "string"},
						"body":      map[string]any{"type": "string"},
						"examples":  stringListSchema(),
						"exercises": stringListSchema(),
					},
					"required":             []string{"title", "body", "examples", "exercises"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"sections"},
		"additionalProperties": false,
	}
}

func renderRecord(record *rag.ContextRecord) string {
	if record == nil {
		return "No curriculum context available."
	}
	b, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "No curriculum context available."
	}
	return string(b)
}

const generatorSystemPrompt = "You are a curriculum designer producing structured course material. " +
	"Stay consistent with the provided curriculum context."

// decodeInto round-trips the model's map through JSON into the typed
// shape. Any mismatch is a content parse failure, never a default.
func decodeInto(obj map[string]any, out any) error {
	raw, err := json.Marshal(obj)
	if err != nil {
		return apierr.ContentParse(fmt.Errorf("re-encode model output: %w", err))
	}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return apierr.ContentParse(fmt.Errorf("model output does not match expected shape: %w", err))
	}
	return nil
}

func (g *generator) GenerateModuleOutline(ctx context.Context, record *rag.ContextRecord, moduleNumber, totalModules int) (*ModuleOutline, error) {
	user := fmt.Sprintf(
		"Curriculum context:\n%s\n\nDesign module %d of %d for this course. Provide its name, description, ordered learning outcomes, ordered prerequisites, and an estimated duration.",
		renderRecord(record), moduleNumber, totalModules,
	)

	obj, err := g.ai.GenerateJSON(ctx, generatorSystemPrompt, user, "module_outline", moduleOutlineSchema())
	if err != nil {
		return nil, apierr.ExternalService(err)
	}

	var outline ModuleOutline
	if err := decodeInto(obj, &outline); err != nil {
		return nil, err
	}
	if strings.TrimSpace(outline.Name) == "" {
		return nil, apierr.ContentParse(fmt.Errorf("module outline missing name"))
	}
	return &outline, nil
}

func (g *generator) GenerateLessonOutline(ctx context.Context, record *rag.ContextRecord, moduleName string, lessonNumber, totalLessons int) (*LessonOutline, error) {
	user := fmt.Sprintf(
		"Curriculum context:\n%s\n\nDesign lesson %d of %d within the module %q. Provide its name, description, ordered key points, activities, resources, and assessment ideas.",
		renderRecord(record), lessonNumber, totalLessons, moduleName,
	)

	obj, err := g.ai.GenerateJSON(ctx, generatorSystemPrompt, user, "lesson_outline", lessonOutlineSchema())
	if err != nil {
		return nil, apierr.ExternalService(err)
	}

	var outline LessonOutline
	if err := decodeInto(obj, &outline); err != nil {
		return nil, err
	}
	if strings.TrimSpace(outline.Name) == "" {
		return nil, apierr.ContentParse(fmt.Errorf("lesson outline missing name"))
	}
	return &outline, nil
}

func (g *generator) GenerateContentSections(ctx context.Context, record *rag.ContextRecord, moduleName, lessonName string) ([]ContentSection, error) {
	user := fmt.Sprintf(
		"Curriculum context:\n%s\n\nWrite the teaching content for lesson %q in module %q as a sequence of sections. Each section needs a title, body text, worked examples, and practice exercises.",
		renderRecord(record), lessonName, moduleName,
	)

	obj, err := g.ai.GenerateJSON(ctx, generatorSystemPrompt, user, "lesson_content", contentSectionsSchema())
	if err != nil {
		return nil, apierr.ExternalService(err)
	}

	var payload struct {
		Sections []ContentSection `json:"sections"`
	}
	if err := decodeInto(obj, &payload); err != nil {
		return nil, err
	}
	if len(payload.Sections) == 0 {
		return nil, apierr.ContentParse(fmt.Errorf("lesson content has no sections"))
	}
	for i, section := range payload.Sections {
		if strings.TrimSpace(section.Title) == "" {
			return nil, apierr.ContentParse(fmt.Errorf("section %d missing title", i+1))
		}
	}
	return payload.Sections, nil
}

// RenderLessonContent concatenates sections into the stored lesson
// body.
func RenderLessonContent(sections []ContentSection) string {
	var b strings.Builder
	for i, section := range sections {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("# ")
		b.WriteString(strings.TrimSpace(section.Title))
		b.WriteString("\n\n")
		b.WriteString(strings.TrimSpace(section.Body))
	}
	return b.String()
}

// FlattenSectionLists merges the per-section example and exercise
// lists into per-lesson lists, preserving section order.
func FlattenSectionLists(sections []ContentSection) (examples []string, exercises []string) {
	for _, section := range sections {
		examples = append(examples, section.Examples...)
		exercises = append(exercises, section.Exercises...)
	}
	return examples, exercises
}

package rag

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/coursecraft-backend/internal/logger"
	"github.com/yungbote/coursecraft-backend/internal/platform/openai"
	"github.com/yungbote/coursecraft-backend/internal/platform/qdrant"
)

const retrievalTopK = 8

type Granularity string

const (
	GranularityCourse Granularity = "course"
	GranularityModule Granularity = "module"
	GranularityLesson Granularity = "lesson"
)

type ErrorCode string

const (
	ErrorCollectionNotFound ErrorCode = "collection_not_found"
	ErrorCollectionEmpty    ErrorCode = "collection_empty"
	ErrorService            ErrorCode = "service_failed"
)

// Error lets the workflow tell "ingest this curriculum first" apart
// from a backend outage.
type Error struct {
	Code       ErrorCode
	Collection string
	Cause      error
}

func (e *Error) Error() string {
	if e == nil {
		return "context extraction failed"
	}
	switch e.Code {
	case ErrorCollectionNotFound:
		return fmt.Sprintf("vector collection %q does not exist", e.Collection)
	case ErrorCollectionEmpty:
		return fmt.Sprintf("vector collection %q has no stored vectors; curriculum not yet processed", e.Collection)
	default:
		if e.Cause != nil {
			return fmt.Sprintf("context extraction against %q failed: %v", e.Collection, e.Cause)
		}
		return fmt.Sprintf("context extraction against %q failed", e.Collection)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func CodeOf(err error) ErrorCode {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Code
	}
	return ""
}

// ContextRecord is the structured synthesis of one curriculum at one
// granularity. List fields keep the order the model produced.
type ContextRecord struct {
	Granularity        Granularity `json:"granularity"`
	Focus              string      `json:"focus,omitempty"`
	LearningObjectives []string    `json:"learning_objectives"`
	KeyConcepts        []string    `json:"key_concepts"`
	SkillLevel         string      `json:"skill_level"`
	Themes             []string    `json:"themes"`
	ProgressionPath    []string    `json:"progression_path"`
	TeachingApproach   []string    `json:"teaching_approach"`
	CoreCompetencies   []string    `json:"core_competencies"`
	FocusSummary       string      `json:"focus_summary,omitempty"`
	GeneralSummary     string      `json:"general_summary,omitempty"`
}

// queryBattery is the fixed question set. A YAML file named by
// EXTRACTION_QUERIES_PATH may override individual entries.
type queryBattery struct {
	Objectives   string `yaml:"objectives"`
	Concepts     string `yaml:"concepts"`
	SkillLevel   string `yaml:"skill_level"`
	Themes       string `yaml:"themes"`
	Progression  string `yaml:"progression"`
	Approach     string `yaml:"approach"`
	Competencies string `yaml:"competencies"`
	Focus        string `yaml:"focus"`
	General      string `yaml:"general"`
}

func defaultBattery() queryBattery {
	return queryBattery{
		Objectives:   "What are the learning objectives of this curriculum? List them as bullet points.",
		Concepts:     "What are the key concepts covered in this curriculum? List them as bullet points.",
		SkillLevel:   "What skill level is this curriculum designed for? Answer in one short phrase.",
		Themes:       "What are the main themes of this curriculum? List them as bullet points.",
		Progression:  "How does this curriculum progress from start to finish? List the stages in order as bullet points.",
		Approach:     "What teaching approaches does this curriculum recommend? List them as bullet points.",
		Competencies: "What core competencies should learners gain from this curriculum? List them as bullet points.",
		Focus:        "Summarize what this curriculum says about: %s",
		General:      "Give a concise summary of this curriculum.",
	}
}

func loadBattery(log *logger.Logger) queryBattery {
	battery := defaultBattery()
	path := strings.TrimSpace(os.Getenv("EXTRACTION_QUERIES_PATH"))
	if path == "" {
		return battery
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Warn("Extraction query override unreadable; using defaults", "path", path, "error", err)
		return battery
	}
	var override queryBattery
	if err := yaml.Unmarshal(raw, &override); err != nil {
		log.Warn("Extraction query override invalid; using defaults", "path", path, "error", err)
		return battery
	}
	merge := func(dst *string, src string) {
		if strings.TrimSpace(src) != "" {
			*dst = src
		}
	}
	merge(&battery.Objectives, override.Objectives)
	merge(&battery.Concepts, override.Concepts)
	merge(&battery.SkillLevel, override.SkillLevel)
	merge(&battery.Themes, override.Themes)
	merge(&battery.Progression, override.Progression)
	merge(&battery.Approach, override.Approach)
	merge(&battery.Competencies, override.Competencies)
	merge(&battery.Focus, override.Focus)
	merge(&battery.General, override.General)
	log.Info("Extraction query battery loaded from override", "path", path)
	return battery
}

// Extractor runs the retrieval-augmented query battery against one
// curriculum collection.
type Extractor interface {
	ExtractContext(ctx context.Context, collection string, granularity Granularity, focus string) (*ContextRecord, error)
}

type extractor struct {
	log     *logger.Logger
	ai      openai.Client
	vectors qdrant.VectorStore
	battery queryBattery
}

func NewExtractor(log *logger.Logger, ai openai.Client, vectors qdrant.VectorStore) Extractor {
	serviceLog := log.With("service", "ContextExtractor")
	return &extractor{
		log:     serviceLog,
		ai:      ai,
		vectors: vectors,
		battery: loadBattery(serviceLog),
	}
}

func (e *extractor) ExtractContext(ctx context.Context, collection string, granularity Granularity, focus string) (*ContextRecord, error) {
	collection = strings.TrimSpace(collection)
	if collection == "" {
		return nil, &Error{Code: ErrorCollectionNotFound, Collection: collection}
	}

	exists, err := e.vectors.CollectionExists(ctx, collection)
	if err != nil {
		return nil, &Error{Code: ErrorService, Collection: collection, Cause: err}
	}
	if !exists {
		return nil, &Error{Code: ErrorCollectionNotFound, Collection: collection}
	}
	count, err := e.vectors.Count(ctx, collection)
	if err != nil {
		return nil, &Error{Code: ErrorService, Collection: collection, Cause: err}
	}
	if count == 0 {
		return nil, &Error{Code: ErrorCollectionEmpty, Collection: collection}
	}

	// Memoize per extraction call so repeated battery questions hit the
	// backends once.
	run := newQueryRunner(e, collection)

	record := &ContextRecord{Granularity: granularity, Focus: strings.TrimSpace(focus)}

	objectives, err := run.ask(ctx, e.battery.Objectives)
	if err != nil {
		return nil, err
	}
	record.LearningObjectives = ParseBulletList(objectives)

	concepts, err := run.ask(ctx, e.battery.Concepts)
	if err != nil {
		return nil, err
	}
	record.KeyConcepts = ParseBulletList(concepts)

	skill, err := run.ask(ctx, e.battery.SkillLevel)
	if err != nil {
		return nil, err
	}
	record.SkillLevel = strings.TrimSpace(skill)

	themes, err := run.ask(ctx, e.battery.Themes)
	if err != nil {
		return nil, err
	}
	record.Themes = ParseBulletList(themes)

	progression, err := run.ask(ctx, e.battery.Progression)
	if err != nil {
		return nil, err
	}
	record.ProgressionPath = ParseBulletList(progression)

	approach, err := run.ask(ctx, e.battery.Approach)
	if err != nil {
		return nil, err
	}
	record.TeachingApproach = ParseBulletList(approach)

	competencies, err := run.ask(ctx, e.battery.Competencies)
	if err != nil {
		return nil, err
	}
	record.CoreCompetencies = ParseBulletList(competencies)

	if record.Focus != "" {
		summary, err := run.ask(ctx, fmt.Sprintf(e.battery.Focus, record.Focus))
		if err != nil {
			return nil, err
		}
		record.FocusSummary = strings.TrimSpace(summary)
	} else {
		summary, err := run.ask(ctx, e.battery.General)
		if err != nil {
			return nil, err
		}
		record.GeneralSummary = strings.TrimSpace(summary)
	}

	return record, nil
}

type queryRunner struct {
	parent     *extractor
	collection string
	cache      map[string]string
}

func newQueryRunner(parent *extractor, collection string) *queryRunner {
	return &queryRunner{
		parent:     parent,
		collection: collection,
		cache:      map[string]string{},
	}
}

func (r *queryRunner) ask(ctx context.Context, query string) (string, error) {
	if cached, ok := r.cache[query]; ok {
		return cached, nil
	}

	answer, err := r.parent.answerFromCollection(ctx, r.collection, query, retrievalTopK)
	if err != nil {
		return "", err
	}
	r.cache[query] = answer
	return answer, nil
}

const answerSystemPrompt = "You are an assistant answering questions about a curriculum document. " +
	"Answer using only the provided context. If the context does not contain the answer, say so briefly."

func (e *extractor) answerFromCollection(ctx context.Context, collection, query string, topK int) (string, error) {
	embeddings, err := e.ai.Embed(ctx, []string{query})
	if err != nil {
		return "", &Error{Code: ErrorService, Collection: collection, Cause: err}
	}

	matches, err := e.vectors.Search(ctx, collection, embeddings[0], topK)
	if err != nil {
		var opError *qdrant.OperationError
		if errors.As(err, &opError) && opError.Code == qdrant.OperationErrorNotFound {
			return "", &Error{Code: ErrorCollectionNotFound, Collection: collection, Cause: err}
		}
		return "", &Error{Code: ErrorService, Collection: collection, Cause: err}
	}

	contextText := renderMatchContext(matches)
	user := fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextText, query)
	answer, err := e.ai.GenerateText(ctx, answerSystemPrompt, user)
	if err != nil {
		return "", &Error{Code: ErrorService, Collection: collection, Cause: err}
	}
	return answer, nil
}

func renderMatchContext(matches []qdrant.Match) string {
	var b strings.Builder
	for _, m := range matches {
		text, _ := m.Payload["text"].(string)
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(text)
	}
	return b.String()
}

// ParseBulletList splits a bullet-style answer into ordered items,
// stripping leading markers like "-", "*", "•" and "1.".
func ParseBulletList(answer string) []string {
	out := []string{}
	for _, line := range strings.Split(answer, "\n") {
		item := strings.TrimSpace(line)
		if item == "" {
			continue
		}
		item = strings.TrimLeft(item, "-*•")
		item = trimOrdinalPrefix(item)
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func trimOrdinalPrefix(s string) string {
	trimmed := strings.TrimSpace(s)
	i := 0
	for i < len(trimmed) && trimmed[i] >= '0' && trimmed[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(trimmed) {
		return s
	}
	if trimmed[i] == '.' || trimmed[i] == ')' {
		return trimmed[i+1:]
	}
	return s
}

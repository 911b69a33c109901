package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/coursecraft-backend/internal/apierr"
	"github.com/yungbote/coursecraft-backend/internal/generator"
	"github.com/yungbote/coursecraft-backend/internal/logger"
	"github.com/yungbote/coursecraft-backend/internal/rag"
	"github.com/yungbote/coursecraft-backend/internal/repos"
	"github.com/yungbote/coursecraft-backend/internal/types"
)

const (
	lessonsPerModule     = 4
	minCurriculumModules = 3

	placeholderModuleName    = "Module_%d"
	placeholderLessonName    = "Lesson_%d"
	placeholderLessonContent = "Default content for Lesson_%d"
)

// ProgressSink receives every event the engine records, in order, as
// it happens. Used to fan events out to live subscribers.
type ProgressSink interface {
	Publish(courseID uuid.UUID, entry Envelope)
}

type StartCourseInput struct {
	// CourseID may be pre-assigned so callers can claim a registry
	// slot before the run starts. Zero means generate one.
	CourseID      uuid.UUID
	SchoolID      uuid.UUID
	Title         string
	DurationWeeks int
	CurriculumID  *uuid.UUID
}

// Engine runs the course creation steps. Model and retrieval calls
// happen outside database transactions; row writes for each step are
// batched into one transaction after generation completes.
type Engine struct {
	db          *gorm.DB
	log         *logger.Logger
	courses     repos.CourseRepo
	modules     repos.ModuleRepo
	lessons     repos.LessonRepo
	assessments repos.AssessmentRepo
	curricula   repos.CurriculumRepo
	extractor   rag.Extractor
	gen         generator.Generator
	sink        ProgressSink
}

func NewEngine(
	db *gorm.DB,
	baseLog *logger.Logger,
	courses repos.CourseRepo,
	modules repos.ModuleRepo,
	lessons repos.LessonRepo,
	assessments repos.AssessmentRepo,
	curricula repos.CurriculumRepo,
	extractor rag.Extractor,
	gen generator.Generator,
	sink ProgressSink,
) *Engine {
	return &Engine{
		db:          db,
		log:         baseLog.With("component", "CourseWorkflow"),
		courses:     courses,
		modules:     modules,
		lessons:     lessons,
		assessments: assessments,
		curricula:   curricula,
		extractor:   extractor,
		gen:         gen,
		sink:        sink,
	}
}

// StartCourse creates the course row and its module skeleton. Without
// a curriculum it creates DurationWeeks placeholder modules; with one
// it extracts curriculum context and generates a module outline per
// position.
func (e *Engine) StartCourse(ctx context.Context, in StartCourseInput, elog *EventLog) (*types.Course, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, apierr.InvalidArgument("course title is required")
	}
	if in.DurationWeeks < 1 {
		return nil, apierr.InvalidArgument("duration_weeks must be at least 1")
	}

	var curriculum *types.Curriculum
	if in.CurriculumID != nil {
		found, err := e.curricula.GetByIDs(ctx, nil, []uuid.UUID{*in.CurriculumID})
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return nil, apierr.NotFound("curriculum not found")
		}
		curriculum = found[0]
		if !curriculum.Processed() {
			return nil, apierr.PreconditionFailed("curriculum has not been ingested")
		}
	}

	courseID := in.CourseID
	if courseID == uuid.Nil {
		courseID = uuid.New()
	}
	course := &types.Course{
		ID:               courseID,
		Title:            in.Title,
		DurationWeeks:    in.DurationWeeks,
		SchoolID:         in.SchoolID,
		CurriculumID:     in.CurriculumID,
		GenerationStatus: types.GenerationGenerating,
	}
	if _, err := e.courses.Create(ctx, nil, []*types.Course{course}); err != nil {
		return nil, err
	}
	e.emit(elog, course.ID, CourseStarted{
		CourseID:      course.ID,
		Title:         course.Title,
		DurationWeeks: course.DurationWeeks,
		HasCurriculum: curriculum != nil,
	})

	if curriculum == nil {
		modules, err := e.createPlaceholderModules(ctx, course)
		if err != nil {
			e.markFailed(ctx, elog, course.ID, "start_course", err)
			return nil, err
		}
		e.emitModules(elog, course.ID, modules)
		course.Modules = modules
		return course, nil
	}

	modules, err := e.generateModules(ctx, elog, course, curriculum)
	if err != nil {
		e.markFailed(ctx, elog, course.ID, "start_course", err)
		return nil, err
	}
	e.emitModules(elog, course.ID, modules)
	course.Modules = modules
	return course, nil
}

func (e *Engine) createPlaceholderModules(ctx context.Context, course *types.Course) ([]*types.Module, error) {
	modules := make([]*types.Module, 0, course.DurationWeeks)
	for i := 1; i <= course.DurationWeeks; i++ {
		modules = append(modules, &types.Module{
			ID:       uuid.New(),
			CourseID: course.ID,
			Position: i,
			Name:     fmt.Sprintf(placeholderModuleName, i),
		})
	}
	if _, err := e.modules.Create(ctx, nil, modules); err != nil {
		return nil, err
	}
	return modules, nil
}

func (e *Engine) generateModules(ctx context.Context, elog *EventLog, course *types.Course, curriculum *types.Curriculum) ([]*types.Module, error) {
	collection := curriculum.VectorKey

	record, err := e.extractor.ExtractContext(ctx, collection, rag.GranularityCourse, "")
	if err != nil {
		return nil, mapContextError(err)
	}
	e.emit(elog, course.ID, ContextExtracted{
		CourseID:   course.ID,
		Collection: collection,
		SkillLevel: record.SkillLevel,
	})

	total := course.DurationWeeks
	if total < minCurriculumModules {
		total = minCurriculumModules
	}

	modules := make([]*types.Module, 0, total)
	for i := 1; i <= total; i++ {
		// Anchor each module on the matching progression stage when
		// the curriculum named one.
		focus := ""
		if i-1 < len(record.ProgressionPath) {
			focus = record.ProgressionPath[i-1]
		}
		moduleRecord, err := e.extractor.ExtractContext(ctx, collection, rag.GranularityModule, focus)
		if err != nil {
			return nil, mapContextError(err)
		}
		outline, err := e.gen.GenerateModuleOutline(ctx, moduleRecord, i, total)
		if err != nil {
			return nil, err
		}
		modules = append(modules, &types.Module{
			ID:                uuid.New(),
			CourseID:          course.ID,
			Position:          i,
			Name:              outline.Name,
			Description:       outline.Description,
			LearningOutcomes:  jsonList(outline.LearningOutcomes),
			Prerequisites:     jsonList(outline.Prerequisites),
			EstimatedDuration: outline.EstimatedDuration,
			ThemeContext:      jsonList(moduleRecord.Themes),
			ContextCache:      jsonRecord(moduleRecord),
		})
	}

	now := time.Now().UTC()
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := e.courses.UpdateFields(ctx, tx, course.ID, map[string]any{
			"learning_objectives": jsonList(record.LearningObjectives),
			"key_concepts":        jsonList(record.KeyConcepts),
			"skill_level":         record.SkillLevel,
			"themes":              jsonList(record.Themes),
			"progression_path":    jsonList(record.ProgressionPath),
			"teaching_approach":   jsonList(record.TeachingApproach),
			"core_competencies":   jsonList(record.CoreCompetencies),
			"context_cache":       jsonRecord(record),
			"last_context_update": now,
		}); err != nil {
			return err
		}
		_, err := e.modules.Create(ctx, tx, modules)
		return err
	})
	if err != nil {
		return nil, err
	}

	course.LearningObjectives = jsonList(record.LearningObjectives)
	course.KeyConcepts = jsonList(record.KeyConcepts)
	course.SkillLevel = record.SkillLevel
	course.Themes = jsonList(record.Themes)
	course.ProgressionPath = jsonList(record.ProgressionPath)
	course.TeachingApproach = jsonList(record.TeachingApproach)
	course.CoreCompetencies = jsonList(record.CoreCompetencies)
	course.ContextCache = jsonRecord(record)
	course.LastContextUpdate = &now
	return modules, nil
}

// CreateLessons fills the named modules with exactly four lessons
// each. An empty moduleIDs list means every module of the course.
func (e *Engine) CreateLessons(ctx context.Context, courseID uuid.UUID, moduleIDs []uuid.UUID, elog *EventLog) ([]*types.Lesson, error) {
	found, err := e.courses.GetByIDs(ctx, nil, []uuid.UUID{courseID})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, apierr.NotFound("course not found")
	}
	course := found[0]

	var modules []*types.Module
	if len(moduleIDs) == 0 {
		modules, err = e.modules.ListByCourse(ctx, nil, courseID)
	} else {
		modules, err = e.modules.GetByIDs(ctx, nil, moduleIDs)
	}
	if err != nil {
		return nil, err
	}
	if len(moduleIDs) > 0 && len(modules) != len(moduleIDs) {
		return nil, apierr.NotFound("module not found")
	}
	for _, module := range modules {
		if module.CourseID != courseID {
			return nil, apierr.InvalidArgument("module does not belong to this course")
		}
	}
	if len(modules) == 0 {
		return nil, apierr.PreconditionFailed("course has no modules")
	}

	var curriculum *types.Curriculum
	if course.CurriculumID != nil {
		currs, err := e.curricula.GetByIDs(ctx, nil, []uuid.UUID{*course.CurriculumID})
		if err != nil {
			return nil, err
		}
		if len(currs) == 0 {
			return nil, apierr.NotFound("curriculum not found")
		}
		curriculum = currs[0]
		if !curriculum.Processed() {
			return nil, apierr.PreconditionFailed("curriculum has not been ingested")
		}
	}

	all := make([]*types.Lesson, 0, len(modules)*lessonsPerModule)
	for _, module := range modules {
		var lessons []*types.Lesson
		if curriculum == nil {
			lessons = placeholderLessons(module)
		} else {
			lessons, err = e.generateLessons(ctx, curriculum.VectorKey, module)
			if err != nil {
				e.markFailed(ctx, elog, courseID, "create_lessons", err)
				return nil, err
			}
		}
		all = append(all, lessons...)
	}

	if _, err := e.lessons.Create(ctx, nil, all); err != nil {
		e.markFailed(ctx, elog, courseID, "create_lessons", err)
		return nil, err
	}
	assessments := make([]*types.Assessment, 0, len(all))
	for _, lesson := range all {
		if lesson.AssessmentIdeas == nil {
			continue
		}
		assessments = append(assessments, &types.Assessment{
			ID:        uuid.New(),
			LessonID:  lesson.ID,
			Questions: lesson.AssessmentIdeas,
		})
	}
	if len(assessments) > 0 {
		if _, err := e.assessments.Create(ctx, nil, assessments); err != nil {
			e.markFailed(ctx, elog, courseID, "create_lessons", err)
			return nil, err
		}
	}
	for _, lesson := range all {
		e.emit(elog, courseID, LessonCreated{
			CourseID: courseID,
			ModuleID: lesson.ModuleID,
			LessonID: lesson.ID,
			Position: lesson.Position,
			Name:     lesson.Name,
		})
	}
	return all, nil
}

func placeholderLessons(module *types.Module) []*types.Lesson {
	lessons := make([]*types.Lesson, 0, lessonsPerModule)
	for i := 1; i <= lessonsPerModule; i++ {
		lessons = append(lessons, &types.Lesson{
			ID:       uuid.New(),
			ModuleID: module.ID,
			Position: i,
			Name:     fmt.Sprintf(placeholderLessonName, i),
			Content:  fmt.Sprintf(placeholderLessonContent, i),
		})
	}
	return lessons
}

// generateLessons extracts one lesson-granularity record for the
// module, then builds the four lessons concurrently from it.
func (e *Engine) generateLessons(ctx context.Context, collection string, module *types.Module) ([]*types.Lesson, error) {
	record, err := e.extractor.ExtractContext(ctx, collection, rag.GranularityLesson, module.Name)
	if err != nil {
		return nil, mapContextError(err)
	}

	lessons := make([]*types.Lesson, lessonsPerModule)
	group, groupCtx := errgroup.WithContext(ctx)
	for i := 1; i <= lessonsPerModule; i++ {
		position := i
		group.Go(func() error {
			outline, err := e.gen.GenerateLessonOutline(groupCtx, record, module.Name, position, lessonsPerModule)
			if err != nil {
				return err
			}
			sections, err := e.gen.GenerateContentSections(groupCtx, record, module.Name, outline.Name)
			if err != nil {
				return err
			}
			examples, exercises := generator.FlattenSectionLists(sections)
			lessons[position-1] = &types.Lesson{
				ID:              uuid.New(),
				ModuleID:        module.ID,
				Position:        position,
				Name:            outline.Name,
				Description:     outline.Description,
				Content:         generator.RenderLessonContent(sections),
				KeyPoints:       jsonList(outline.KeyPoints),
				Activities:      jsonList(outline.Activities),
				Resources:       jsonList(outline.Resources),
				AssessmentIdeas: jsonList(outline.AssessmentIdeas),
				Examples:        jsonList(examples),
				Exercises:       jsonList(exercises),
				TopicContext:    jsonText(record.FocusSummary),
				ContextCache:    jsonRecord(record),
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return lessons, nil
}

// FinalizeCourse marks the course finished. Calling it again on an
// already finalized course is a no-op.
func (e *Engine) FinalizeCourse(ctx context.Context, courseID uuid.UUID, elog *EventLog) (*types.Course, error) {
	found, err := e.courses.GetByIDs(ctx, nil, []uuid.UUID{courseID})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, apierr.NotFound("course not found")
	}
	course := found[0]

	if !course.IsFinalized || course.GenerationStatus != types.GenerationReady {
		if err := e.courses.UpdateFields(ctx, nil, courseID, map[string]any{
			"is_finalized":      true,
			"generation_status": types.GenerationReady,
		}); err != nil {
			return nil, err
		}
	}
	course.IsFinalized = true
	course.GenerationStatus = types.GenerationReady
	e.emit(elog, courseID, CourseFinalized{CourseID: courseID})
	return course, nil
}

func (e *Engine) emitModules(elog *EventLog, courseID uuid.UUID, modules []*types.Module) {
	for _, module := range modules {
		e.emit(elog, courseID, ModuleCreated{
			CourseID: courseID,
			ModuleID: module.ID,
			Position: module.Position,
			Name:     module.Name,
		})
	}
}

func (e *Engine) emit(elog *EventLog, courseID uuid.UUID, ev Event) {
	entry := Envelope{At: time.Now().UTC(), Ev: ev}
	if elog != nil {
		entry = elog.Append(ev)
	}
	if e.sink != nil {
		e.sink.Publish(courseID, entry)
	}
}

func (e *Engine) markFailed(ctx context.Context, elog *EventLog, courseID uuid.UUID, step string, cause error) {
	if err := e.courses.UpdateFields(ctx, nil, courseID, map[string]any{
		"generation_status": types.GenerationFailed,
	}); err != nil {
		e.log.Error("Failed to record generation failure", "course_id", courseID, "error", err)
	}
	e.emit(elog, courseID, WorkflowFailed{CourseID: courseID, Step: step, Message: cause.Error()})
}

// mapContextError turns retrieval errors into API errors: missing or
// empty collections are caller-fixable preconditions, everything else
// is a backend failure.
func mapContextError(err error) error {
	switch rag.CodeOf(err) {
	case rag.ErrorCollectionNotFound, rag.ErrorCollectionEmpty:
		return apierr.PreconditionFailed(err.Error())
	case rag.ErrorService:
		return apierr.ExternalService(err)
	}
	return err
}

func jsonList(values []string) datatypes.JSON {
	if len(values) == 0 {
		return nil
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

func jsonText(value string) datatypes.JSON {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

func jsonRecord(record *rag.ContextRecord) datatypes.JSON {
	if record == nil {
		return nil
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursecraft-backend/internal/apierr"
	"github.com/yungbote/coursecraft-backend/internal/logger"
	"github.com/yungbote/coursecraft-backend/internal/repos"
	"github.com/yungbote/coursecraft-backend/internal/requestdata"
	"github.com/yungbote/coursecraft-backend/internal/sse"
	"github.com/yungbote/coursecraft-backend/internal/types"
	"github.com/yungbote/coursecraft-backend/internal/workflow"
)

const backgroundRunTimeout = 30 * time.Minute

type CreateCourseInput struct {
	SchoolID      uuid.UUID
	Title         string
	DurationWeeks int
	CurriculumID  *uuid.UUID
}

// CourseProgress is the polling view of a background run. Status comes
// from the live registry while the run is in flight and from the
// stored course afterwards.
type CourseProgress struct {
	CourseID uuid.UUID           `json:"course_id"`
	Status   string              `json:"status"`
	Events   []workflow.Envelope `json:"events"`
}

type CourseService interface {
	CreateCourse(ctx context.Context, in CreateCourseInput) (*types.Course, error)
	CreateLessons(ctx context.Context, courseID uuid.UUID, moduleIDs []uuid.UUID) ([]*types.Lesson, error)
	FinalizeCourse(ctx context.Context, courseID uuid.UUID) (*types.Course, error)
	GetCourse(ctx context.Context, courseID uuid.UUID) (*types.Course, error)
	CreateCourseAsync(ctx context.Context, in CreateCourseInput) (uuid.UUID, error)
	Progress(ctx context.Context, courseID uuid.UUID) (*CourseProgress, error)
}

type courseService struct {
	db       *gorm.DB
	log      *logger.Logger
	courses  repos.CourseRepo
	engine   *workflow.Engine
	registry *workflow.Registry
}

func NewCourseService(
	db *gorm.DB,
	baseLog *logger.Logger,
	courses repos.CourseRepo,
	engine *workflow.Engine,
	registry *workflow.Registry,
) CourseService {
	return &courseService{
		db:       db,
		log:      baseLog.With("service", "CourseService"),
		courses:  courses,
		engine:   engine,
		registry: registry,
	}
}

func (cs *courseService) CreateCourse(ctx context.Context, in CreateCourseInput) (*types.Course, error) {
	if !requestdata.GetRequestData(ctx).CanAccessSchool(in.SchoolID) {
		return nil, apierr.Forbidden("course belongs to another school")
	}
	return cs.engine.StartCourse(ctx, workflow.StartCourseInput{
		SchoolID:      in.SchoolID,
		Title:         in.Title,
		DurationWeeks: in.DurationWeeks,
		CurriculumID:  in.CurriculumID,
	}, nil)
}

func (cs *courseService) CreateLessons(ctx context.Context, courseID uuid.UUID, moduleIDs []uuid.UUID) ([]*types.Lesson, error) {
	if _, err := cs.ownedCourse(ctx, courseID); err != nil {
		return nil, err
	}
	return cs.engine.CreateLessons(ctx, courseID, moduleIDs, nil)
}

func (cs *courseService) FinalizeCourse(ctx context.Context, courseID uuid.UUID) (*types.Course, error) {
	if _, err := cs.ownedCourse(ctx, courseID); err != nil {
		return nil, err
	}
	return cs.engine.FinalizeCourse(ctx, courseID, nil)
}

func (cs *courseService) GetCourse(ctx context.Context, courseID uuid.UUID) (*types.Course, error) {
	course, err := cs.courses.GetWithOutline(ctx, nil, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, apierr.NotFound("course not found")
	}
	if !requestdata.GetRequestData(ctx).CanAccessSchool(course.SchoolID) {
		return nil, apierr.Forbidden("course belongs to another school")
	}
	return course, nil
}

// CreateCourseAsync claims a course id in the registry and runs the
// full workflow (start, lessons, finalize) in the background. The
// caller polls Progress or subscribes to the SSE channel.
func (cs *courseService) CreateCourseAsync(ctx context.Context, in CreateCourseInput) (uuid.UUID, error) {
	if !requestdata.GetRequestData(ctx).CanAccessSchool(in.SchoolID) {
		return uuid.Nil, apierr.Forbidden("course belongs to another school")
	}
	courseID := uuid.New()
	run, err := cs.registry.Begin(courseID)
	if err != nil {
		return uuid.Nil, err
	}

	go func() {
		runCtx, cancel := context.WithTimeout(context.Background(), backgroundRunTimeout)
		defer cancel()

		status := workflow.RunStatusComplete
		defer func() {
			cs.registry.Finish(courseID, status)
		}()

		if _, err := cs.engine.StartCourse(runCtx, workflow.StartCourseInput{
			CourseID:      courseID,
			SchoolID:      in.SchoolID,
			Title:         in.Title,
			DurationWeeks: in.DurationWeeks,
			CurriculumID:  in.CurriculumID,
		}, run.Log); err != nil {
			cs.log.Error("Background course start failed", "course_id", courseID, "error", err)
			status = workflow.RunStatusFailed
			return
		}
		if _, err := cs.engine.CreateLessons(runCtx, courseID, nil, run.Log); err != nil {
			cs.log.Error("Background lesson creation failed", "course_id", courseID, "error", err)
			status = workflow.RunStatusFailed
			return
		}
		if _, err := cs.engine.FinalizeCourse(runCtx, courseID, run.Log); err != nil {
			cs.log.Error("Background finalize failed", "course_id", courseID, "error", err)
			status = workflow.RunStatusFailed
			return
		}
	}()

	return courseID, nil
}

func (cs *courseService) Progress(ctx context.Context, courseID uuid.UUID) (*CourseProgress, error) {
	if run, ok := cs.registry.Get(courseID); ok {
		return &CourseProgress{
			CourseID: courseID,
			Status:   string(run.Status()),
			Events:   run.Log.Snapshot(),
		}, nil
	}
	course, err := cs.ownedCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	status := string(workflow.RunStatusComplete)
	if course.GenerationStatus == types.GenerationFailed {
		status = string(workflow.RunStatusFailed)
	}
	return &CourseProgress{CourseID: courseID, Status: status, Events: []workflow.Envelope{}}, nil
}

func (cs *courseService) ownedCourse(ctx context.Context, courseID uuid.UUID) (*types.Course, error) {
	found, err := cs.courses.GetByIDs(ctx, nil, []uuid.UUID{courseID})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, apierr.NotFound("course not found")
	}
	course := found[0]
	if !requestdata.GetRequestData(ctx).CanAccessSchool(course.SchoolID) {
		return nil, apierr.Forbidden("course belongs to another school")
	}
	return course, nil
}

// HubSink forwards workflow events onto the SSE hub so connected
// clients see progress as it happens.
type HubSink struct {
	hub *sse.Hub
}

func NewHubSink(hub *sse.Hub) *HubSink {
	return &HubSink{hub: hub}
}

func (s *HubSink) Publish(courseID uuid.UUID, entry workflow.Envelope) {
	s.hub.Broadcast(sse.Message{
		Channel: sse.CourseChannel(courseID),
		Event:   string(entry.Ev.EventType()),
		Data:    entry,
	})
}

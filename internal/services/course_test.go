package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursecraft-backend/internal/apierr"
	"github.com/yungbote/coursecraft-backend/internal/logger"
	"github.com/yungbote/coursecraft-backend/internal/repos"
	"github.com/yungbote/coursecraft-backend/internal/requestdata"
	"github.com/yungbote/coursecraft-backend/internal/types"
	"github.com/yungbote/coursecraft-backend/internal/workflow"
)

type courseFixture struct {
	gdb      *gorm.DB
	log      *logger.Logger
	service  CourseService
	registry *workflow.Registry
	courses  repos.CourseRepo
	schoolID uuid.UUID
}

// Placeholder courses never touch the extractor or generator, so the
// engine runs with neither wired.
func newCourseFixture(t *testing.T) *courseFixture {
	t.Helper()
	gdb := openTestDB(t)
	log := testLogger(t)

	schoolRepo := repos.NewSchoolRepo(gdb, log)
	school, err := schoolRepo.Create(context.Background(), nil, []*types.School{{ID: uuid.New(), Name: "Course School " + uuid.NewString()}})
	if err != nil {
		t.Fatalf("seed school: %v", err)
	}

	courseRepo := repos.NewCourseRepo(gdb, log)
	registry := workflow.NewRegistry()
	engine := workflow.NewEngine(
		gdb, log,
		courseRepo,
		repos.NewModuleRepo(gdb, log),
		repos.NewLessonRepo(gdb, log),
		repos.NewAssessmentRepo(gdb, log),
		repos.NewCurriculumRepo(gdb, log),
		nil, nil, nil,
	)

	return &courseFixture{
		gdb:      gdb,
		log:      log,
		service:  NewCourseService(gdb, log, courseRepo, engine, registry),
		registry: registry,
		courses:  courseRepo,
		schoolID: school[0].ID,
	}
}

func (fx *courseFixture) teacherCtx() context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
		UserID:   uuid.New(),
		Role:     types.RoleTeacher,
		SchoolID: &fx.schoolID,
	})
}

func TestCourseServiceScoping(t *testing.T) {
	fx := newCourseFixture(t)
	ctx := fx.teacherCtx()

	course, err := fx.service.CreateCourse(ctx, CreateCourseInput{
		SchoolID:      fx.schoolID,
		Title:         "Scoped Course",
		DurationWeeks: 1,
	})
	if err != nil {
		t.Fatalf("create course: %v", err)
	}

	otherSchool := uuid.New()
	if _, err := fx.service.CreateCourse(ctx, CreateCourseInput{
		SchoolID:      otherSchool,
		Title:         "Foreign Course",
		DurationWeeks: 1,
	}); apierr.CodeOf(err) != apierr.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	foreignCtx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
		UserID:   uuid.New(),
		Role:     types.RoleTeacher,
		SchoolID: &otherSchool,
	})
	if _, err := fx.service.GetCourse(foreignCtx, course.ID); apierr.CodeOf(err) != apierr.CodeForbidden {
		t.Fatalf("expected forbidden get, got %v", err)
	}

	got, err := fx.service.GetCourse(ctx, course.ID)
	if err != nil {
		t.Fatalf("get course: %v", err)
	}
	if len(got.Modules) != 1 {
		t.Fatalf("expected 1 module in outline, got %d", len(got.Modules))
	}
}

func TestCourseServiceAsyncRunCompletes(t *testing.T) {
	fx := newCourseFixture(t)
	ctx := fx.teacherCtx()

	courseID, err := fx.service.CreateCourseAsync(ctx, CreateCourseInput{
		SchoolID:      fx.schoolID,
		Title:         "Background Course",
		DurationWeeks: 2,
	})
	if err != nil {
		t.Fatalf("create async: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, running := fx.registry.Get(courseID); !running {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("background run did not finish")
		}
		time.Sleep(10 * time.Millisecond)
	}

	found, err := fx.courses.GetByIDs(context.Background(), nil, []uuid.UUID{courseID})
	if err != nil || len(found) != 1 {
		t.Fatalf("reload course: %v", err)
	}
	if !found[0].IsFinalized || found[0].GenerationStatus != types.GenerationReady {
		t.Fatalf("run did not finalize: finalized=%v status=%s", found[0].IsFinalized, found[0].GenerationStatus)
	}

	progress, err := fx.service.Progress(ctx, courseID)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if progress.Status != string(workflow.RunStatusComplete) {
		t.Fatalf("expected complete, got %s", progress.Status)
	}
}

func TestCourseServiceProgressUnknownCourse(t *testing.T) {
	fx := newCourseFixture(t)
	if _, err := fx.service.Progress(fx.teacherCtx(), uuid.New()); apierr.CodeOf(err) != apierr.CodeNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestCourseServiceGetUnknownCourse(t *testing.T) {
	fx := newCourseFixture(t)
	_, err := fx.service.GetCourse(fx.teacherCtx(), uuid.New())
	if apierr.CodeOf(err) != apierr.CodeNotFound {
		t.Fatalf("expected not_found for unknown course, got %v", err)
	}
}

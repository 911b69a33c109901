package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yungbote/coursecraft-backend/internal/apierr"
	"github.com/yungbote/coursecraft-backend/internal/db"
	"github.com/yungbote/coursecraft-backend/internal/logger"
	"github.com/yungbote/coursecraft-backend/internal/types"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, _ := gdb.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func seedSchool(t *testing.T, gdb *gorm.DB, log *logger.Logger, name string) *types.School {
	t.Helper()
	sr := NewSchoolRepo(gdb, log)
	created, err := sr.Create(context.Background(), nil, []*types.School{{ID: uuid.New(), Name: name}})
	if err != nil {
		t.Fatalf("seed school: %v", err)
	}
	return created[0]
}

func TestSchoolRepoCreateDuplicateName(t *testing.T) {
	gdb := openTestDB(t)
	log := testLogger(t)
	sr := NewSchoolRepo(gdb, log)
	ctx := context.Background()

	if _, err := sr.Create(ctx, nil, []*types.School{{ID: uuid.New(), Name: "Northlake"}}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := sr.Create(ctx, nil, []*types.School{{ID: uuid.New(), Name: "Northlake"}})
	if err == nil {
		t.Fatal("expected duplicate name to fail")
	}
	if apierr.CodeOf(err) != apierr.CodeConflict {
		t.Fatalf("expected conflict code, got %q (%v)", apierr.CodeOf(err), err)
	}
}

func TestUserRepoGetByUsername(t *testing.T) {
	gdb := openTestDB(t)
	log := testLogger(t)
	school := seedSchool(t, gdb, log, "Eastfield")
	ur := NewUserRepo(gdb, log)
	ctx := context.Background()

	users := []*types.User{{
		ID:           uuid.New(),
		Username:     "ms.rivera",
		PasswordHash: "x",
		Role:         types.RoleTeacher,
		SchoolID:     &school.ID,
	}}
	if _, err := ur.Create(ctx, nil, users); err != nil {
		t.Fatalf("create user: %v", err)
	}

	got, err := ur.GetByUsername(ctx, nil, "ms.rivera")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if got.ID != users[0].ID {
		t.Fatalf("expected user %s, got %s", users[0].ID, got.ID)
	}
	if got.SchoolID == nil || *got.SchoolID != school.ID {
		t.Fatal("school id not persisted")
	}

	// A missing row is a nil result, not an error; services map it onto
	// 401/404 themselves.
	missing, err := ur.GetByUsername(ctx, nil, "nobody")
	if err != nil {
		t.Fatalf("missing username should not error: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil user for missing username, got %v", missing.ID)
	}
}

func TestUserTokenRepoDeleteExpired(t *testing.T) {
	gdb := openTestDB(t)
	log := testLogger(t)
	school := seedSchool(t, gdb, log, "Westbrook")
	ur := NewUserRepo(gdb, log)
	tr := NewUserTokenRepo(gdb, log)
	ctx := context.Background()

	users, err := ur.Create(ctx, nil, []*types.User{{
		ID:           uuid.New(),
		Username:     "mr.okafor",
		PasswordHash: "x",
		Role:         types.RoleTeacher,
		SchoolID:     &school.ID,
	}})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	now := time.Now()
	_, err = tr.Create(ctx, nil, []*types.UserToken{
		{ID: uuid.New(), UserID: users[0].ID, AccessToken: "stale", ExpiresAt: now.Add(-time.Hour)},
		{ID: uuid.New(), UserID: users[0].ID, AccessToken: "fresh", ExpiresAt: now.Add(time.Hour)},
	})
	if err != nil {
		t.Fatalf("create tokens: %v", err)
	}

	removed, err := tr.DeleteExpired(ctx, nil, now)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	fresh, err := tr.GetByAccessToken(ctx, nil, "fresh")
	if err != nil {
		t.Fatalf("fresh token should survive: %v", err)
	}
	if fresh == nil {
		t.Fatal("fresh token should survive")
	}
	gone, err := tr.GetByAccessToken(ctx, nil, "stale")
	if err != nil {
		t.Fatalf("purged token lookup should not error: %v", err)
	}
	if gone != nil {
		t.Fatal("expected nil token after purge")
	}
}

func TestCurriculumRepoVectorKeyLifecycle(t *testing.T) {
	gdb := openTestDB(t)
	log := testLogger(t)
	school := seedSchool(t, gdb, log, "Southgate")
	cr := NewCurriculumRepo(gdb, log)
	ctx := context.Background()

	created, err := cr.Create(ctx, nil, []*types.Curriculum{{
		ID:       uuid.New(),
		Name:     "Biology 9",
		FilePath: "/files/bio9.pdf",
		SchoolID: school.ID,
	}})
	if err != nil {
		t.Fatalf("create curriculum: %v", err)
	}
	if created[0].Processed() {
		t.Fatal("new curriculum should not report processed")
	}

	if err := cr.SetVectorKey(ctx, nil, created[0].ID, "curriculum_"+created[0].ID.String()); err != nil {
		t.Fatalf("set vector key: %v", err)
	}
	got, err := cr.GetByIDs(ctx, nil, []uuid.UUID{created[0].ID})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 1 || !got[0].Processed() {
		t.Fatal("curriculum should report processed after vector key set")
	}
}

func TestCourseRepoGetWithOutlineOrdersByPosition(t *testing.T) {
	gdb := openTestDB(t)
	log := testLogger(t)
	school := seedSchool(t, gdb, log, "Lakeview")
	courseRepo := NewCourseRepo(gdb, log)
	moduleRepo := NewModuleRepo(gdb, log)
	lessonRepo := NewLessonRepo(gdb, log)
	ctx := context.Background()

	courses, err := courseRepo.Create(ctx, nil, []*types.Course{{
		ID:               uuid.New(),
		Title:            "Intro to Chemistry",
		DurationWeeks:    4,
		SchoolID:         school.ID,
		GenerationStatus: types.GenerationPending,
	}})
	if err != nil {
		t.Fatalf("create course: %v", err)
	}
	course := courses[0]

	// Insert modules out of order to exercise the position ordering.
	modules := []*types.Module{
		{ID: uuid.New(), CourseID: course.ID, Position: 2, Name: "Module_2"},
		{ID: uuid.New(), CourseID: course.ID, Position: 1, Name: "Module_1"},
	}
	if _, err := moduleRepo.Create(ctx, nil, modules); err != nil {
		t.Fatalf("create modules: %v", err)
	}
	lessons := []*types.Lesson{
		{ID: uuid.New(), ModuleID: modules[1].ID, Position: 2, Name: "Lesson_2"},
		{ID: uuid.New(), ModuleID: modules[1].ID, Position: 1, Name: "Lesson_1"},
	}
	if _, err := lessonRepo.Create(ctx, nil, lessons); err != nil {
		t.Fatalf("create lessons: %v", err)
	}

	got, err := courseRepo.GetWithOutline(ctx, nil, course.ID)
	if err != nil {
		t.Fatalf("get with outline: %v", err)
	}
	if len(got.Modules) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(got.Modules))
	}
	if got.Modules[0].Name != "Module_1" || got.Modules[1].Name != "Module_2" {
		t.Fatalf("modules out of order: %s, %s", got.Modules[0].Name, got.Modules[1].Name)
	}
	if len(got.Modules[0].Lessons) != 2 {
		t.Fatalf("expected 2 lessons, got %d", len(got.Modules[0].Lessons))
	}
	if got.Modules[0].Lessons[0].Name != "Lesson_1" {
		t.Fatalf("lessons out of order: %s", got.Modules[0].Lessons[0].Name)
	}

	none, err := courseRepo.GetWithOutline(ctx, nil, uuid.New())
	if err != nil {
		t.Fatalf("missing course should not error: %v", err)
	}
	if none != nil {
		t.Fatal("expected nil course for unknown id")
	}
}

func TestCourseRepoUpdateFields(t *testing.T) {
	gdb := openTestDB(t)
	log := testLogger(t)
	school := seedSchool(t, gdb, log, "Hillcrest")
	courseRepo := NewCourseRepo(gdb, log)
	ctx := context.Background()

	courses, err := courseRepo.Create(ctx, nil, []*types.Course{{
		ID:               uuid.New(),
		Title:            "World History",
		DurationWeeks:    6,
		SchoolID:         school.ID,
		GenerationStatus: types.GenerationPending,
	}})
	if err != nil {
		t.Fatalf("create course: %v", err)
	}

	err = courseRepo.UpdateFields(ctx, nil, courses[0].ID, map[string]any{
		"is_finalized":      true,
		"generation_status": types.GenerationReady,
	})
	if err != nil {
		t.Fatalf("update fields: %v", err)
	}

	got, err := courseRepo.GetByIDs(ctx, nil, []uuid.UUID{courses[0].ID})
	if err != nil || len(got) != 1 {
		t.Fatalf("get course: %v", err)
	}
	if !got[0].IsFinalized || got[0].GenerationStatus != types.GenerationReady {
		t.Fatalf("fields not updated: finalized=%v status=%s", got[0].IsFinalized, got[0].GenerationStatus)
	}
}

package services

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
	"github.com/yungbote/coursecraft-backend/internal/repos"
	"github.com/yungbote/coursecraft-backend/internal/sessions"
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

func newAuthFixture(t *testing.T) (AuthService, *types.School) {
	t.Helper()
	gdb := openTestDB(t)
	log := testLogger(t)

	schoolRepo := repos.NewSchoolRepo(gdb, log)
	created, err := schoolRepo.Create(context.Background(), nil, []*types.School{{ID: uuid.New(), Name: "Auth School " + uuid.NewString()}})
	if err != nil {
		t.Fatalf("seed school: %v", err)
	}

	auth := NewAuthService(
		gdb, log,
		repos.NewUserRepo(gdb, log),
		repos.NewUserTokenRepo(gdb, log),
		schoolRepo,
		sessions.NewMemoryStore(),
		"test-secret",
		time.Hour,
	)
	return auth, created[0]
}

func TestAuthRegisterLoginLogout(t *testing.T) {
	auth, school := newAuthFixture(t)
	ctx := context.Background()
	username := "teacher-" + uuid.NewString()

	user, err := auth.RegisterUser(ctx, RegisterInput{
		Username: username,
		Password: "long-enough-password",
		SchoolID: &school.ID,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != types.RoleTeacher {
		t.Fatalf("expected default teacher role, got %q", user.Role)
	}
	if user.PasswordHash == "long-enough-password" {
		t.Fatal("password stored in clear")
	}

	result, err := auth.LoginUser(ctx, username, "long-enough-password")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Token == "" || result.SchoolID == nil || *result.SchoolID != school.ID {
		t.Fatalf("unexpected login result: %+v", result)
	}

	authed, err := auth.Authenticate(ctx, result.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if authed.ID != user.ID {
		t.Fatalf("authenticated wrong user: %s", authed.ID)
	}

	if err := auth.LogoutUser(ctx, result.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := auth.Authenticate(ctx, result.Token); apierr.CodeOf(err) != apierr.CodeUnauthenticated {
		t.Fatalf("expected unauthenticated after logout, got %v", err)
	}
}

func TestAuthLoginWrongPassword(t *testing.T) {
	auth, school := newAuthFixture(t)
	ctx := context.Background()
	username := "teacher-" + uuid.NewString()

	if _, err := auth.RegisterUser(ctx, RegisterInput{
		Username: username,
		Password: "correct-password",
		SchoolID: &school.ID,
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := auth.LoginUser(ctx, username, "wrong-password"); apierr.CodeOf(err) != apierr.CodeUnauthenticated {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	if _, err := auth.LoginUser(ctx, "nobody-"+uuid.NewString(), "whatever-password"); apierr.CodeOf(err) != apierr.CodeUnauthenticated {
		t.Fatalf("expected unauthenticated for unknown user, got %v", err)
	}
}

func TestAuthRegisterValidation(t *testing.T) {
	auth, school := newAuthFixture(t)
	ctx := context.Background()

	if _, err := auth.RegisterUser(ctx, RegisterInput{Username: "x", Password: "short", SchoolID: &school.ID}); apierr.CodeOf(err) != apierr.CodeInvalidArgument {
		t.Fatalf("expected invalid_argument for short password, got %v", err)
	}
	if _, err := auth.RegisterUser(ctx, RegisterInput{Username: "x", Password: "long-enough-password"}); apierr.CodeOf(err) != apierr.CodeInvalidArgument {
		t.Fatalf("expected invalid_argument for teacher without school, got %v", err)
	}

	username := "dup-" + uuid.NewString()
	if _, err := auth.RegisterUser(ctx, RegisterInput{Username: username, Password: "long-enough-password", SchoolID: &school.ID}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := auth.RegisterUser(ctx, RegisterInput{Username: username, Password: "long-enough-password", SchoolID: &school.ID}); apierr.CodeOf(err) != apierr.CodeConflict {
		t.Fatalf("expected conflict for duplicate username, got %v", err)
	}
}

func TestAuthRejectsForgedToken(t *testing.T) {
	auth, _ := newAuthFixture(t)
	if _, err := auth.Authenticate(context.Background(), "not-a-jwt"); apierr.CodeOf(err) != apierr.CodeUnauthenticated {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

package workflow

import (
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/coursecraft-backend/internal/apierr"
)

func TestRegistryBeginRejectsSecondRun(t *testing.T) {
	registry := NewRegistry()
	courseID := uuid.New()

	run, err := registry.Begin(courseID)
	if err != nil {
		t.Fatalf("first begin: %v", err)
	}
	if run.Status() != RunStatusRunning {
		t.Fatalf("expected running status, got %s", run.Status())
	}

	if _, err := registry.Begin(courseID); apierr.CodeOf(err) != apierr.CodeConflict {
		t.Fatalf("expected conflict on second begin, got %v", err)
	}
}

func TestRegistryFinishReleasesCourse(t *testing.T) {
	registry := NewRegistry()
	courseID := uuid.New()

	run, err := registry.Begin(courseID)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	registry.Finish(courseID, RunStatusComplete)

	if run.Status() != RunStatusComplete {
		t.Fatalf("expected complete status on held run, got %s", run.Status())
	}
	if _, ok := registry.Get(courseID); ok {
		t.Fatal("finished run still visible in registry")
	}
	if _, err := registry.Begin(courseID); err != nil {
		t.Fatalf("begin after finish: %v", err)
	}
}

func TestRegistryFinishUnknownCourseIsNoop(t *testing.T) {
	registry := NewRegistry()
	registry.Finish(uuid.New(), RunStatusFailed)
}

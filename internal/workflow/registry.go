package workflow

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/coursecraft-backend/internal/apierr"
)

type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run tracks one in-flight background workflow for progress polling.
type Run struct {
	CourseID  uuid.UUID
	StartedAt time.Time
	Log       *EventLog

	mu     sync.RWMutex
	status RunStatus
}

func (r *Run) Status() RunStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

func (r *Run) setStatus(s RunStatus) {
	r.mu.Lock()
	r.status = s
	r.mu.Unlock()
}

// Registry holds at most one active run per course id. It is valid
// only within a single process.
type Registry struct {
	mu   sync.Mutex
	runs map[uuid.UUID]*Run
}

func NewRegistry() *Registry {
	return &Registry{runs: make(map[uuid.UUID]*Run)}
}

// Begin claims the course id for a new run. A second concurrent run
// for the same course is rejected with a conflict.
func (r *Registry) Begin(courseID uuid.UUID) (*Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.runs[courseID]; exists {
		return nil, apierr.Conflict("course generation already in progress")
	}
	run := &Run{
		CourseID:  courseID,
		StartedAt: time.Now().UTC(),
		Log:       NewEventLog(),
		status:    RunStatusRunning,
	}
	r.runs[courseID] = run
	return run, nil
}

// Finish marks the run's outcome and releases the course id. The run
// itself stays valid for callers already holding it, but new polls
// will no longer find it.
func (r *Registry) Finish(courseID uuid.UUID, status RunStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if run, ok := r.runs[courseID]; ok {
		run.setStatus(status)
		delete(r.runs, courseID)
	}
}

func (r *Registry) Get(courseID uuid.UUID) (*Run, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[courseID]
	return run, ok
}

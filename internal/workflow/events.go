package workflow

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventCourseStarted    EventType = "course_started"
	EventContextExtracted EventType = "context_extracted"
	EventModuleCreated    EventType = "module_created"
	EventLessonCreated    EventType = "lesson_created"
	EventCourseFinalized  EventType = "course_finalized"
	EventWorkflowFailed   EventType = "workflow_failed"
)

// Event is one progress record. The set of variants is closed; each
// carries only the fields that step produced.
type Event interface {
	EventType() EventType
}

type CourseStarted struct {
	CourseID      uuid.UUID `json:"course_id"`
	Title         string    `json:"title"`
	DurationWeeks int       `json:"duration_weeks"`
	HasCurriculum bool      `json:"has_curriculum"`
}

func (CourseStarted) EventType() EventType { return EventCourseStarted }

type ContextExtracted struct {
	CourseID   uuid.UUID `json:"course_id"`
	Collection string    `json:"collection"`
	SkillLevel string    `json:"skill_level,omitempty"`
}

func (ContextExtracted) EventType() EventType { return EventContextExtracted }

type ModuleCreated struct {
	CourseID uuid.UUID `json:"course_id"`
	ModuleID uuid.UUID `json:"module_id"`
	Position int       `json:"position"`
	Name     string    `json:"name"`
}

func (ModuleCreated) EventType() EventType { return EventModuleCreated }

type LessonCreated struct {
	CourseID uuid.UUID `json:"course_id"`
	ModuleID uuid.UUID `json:"module_id"`
	LessonID uuid.UUID `json:"lesson_id"`
	Position int       `json:"position"`
	Name     string    `json:"name"`
}

func (LessonCreated) EventType() EventType { return EventLessonCreated }

type CourseFinalized struct {
	CourseID uuid.UUID `json:"course_id"`
}

func (CourseFinalized) EventType() EventType { return EventCourseFinalized }

type WorkflowFailed struct {
	CourseID uuid.UUID `json:"course_id"`
	Step     string    `json:"step"`
	Message  string    `json:"message"`
}

func (WorkflowFailed) EventType() EventType { return EventWorkflowFailed }

// Envelope wraps an event with its position and timestamp in the log.
type Envelope struct {
	Seq int       `json:"seq"`
	At  time.Time `json:"at"`
	Ev  Event     `json:"-"`
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Seq  int       `json:"seq"`
		At   time.Time `json:"at"`
		Type EventType `json:"type"`
		Data Event     `json:"data"`
	}{
		Seq:  e.Seq,
		At:   e.At,
		Type: e.Ev.EventType(),
		Data: e.Ev,
	})
}

// EventLog is an append-only, in-memory, ordered record of one
// workflow run. It is not durable.
type EventLog struct {
	mu      sync.RWMutex
	entries []Envelope
}

func NewEventLog() *EventLog {
	return &EventLog{}
}

func (l *EventLog) Append(ev Event) Envelope {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := Envelope{
		Seq: len(l.entries),
		At:  time.Now().UTC(),
		Ev:  ev,
	}
	l.entries = append(l.entries, entry)
	return entry
}

func (l *EventLog) Snapshot() []Envelope {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Envelope, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *EventLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

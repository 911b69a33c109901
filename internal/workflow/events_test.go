package workflow

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestEventLogSequencing(t *testing.T) {
	elog := NewEventLog()
	courseID := uuid.New()

	elog.Append(CourseStarted{CourseID: courseID, Title: "Algebra", DurationWeeks: 4})
	elog.Append(ModuleCreated{CourseID: courseID, ModuleID: uuid.New(), Position: 1, Name: "Module_1"})
	elog.Append(CourseFinalized{CourseID: courseID})

	entries := elog.Snapshot()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, entry := range entries {
		if entry.Seq != i {
			t.Fatalf("entry %d has seq %d", i, entry.Seq)
		}
		if entry.At.IsZero() {
			t.Fatalf("entry %d has zero timestamp", i)
		}
	}
	if entries[0].Ev.EventType() != EventCourseStarted {
		t.Fatalf("unexpected first event: %s", entries[0].Ev.EventType())
	}
	if entries[2].Ev.EventType() != EventCourseFinalized {
		t.Fatalf("unexpected last event: %s", entries[2].Ev.EventType())
	}
}

func TestEventLogSnapshotIsCopy(t *testing.T) {
	elog := NewEventLog()
	elog.Append(CourseFinalized{CourseID: uuid.New()})

	first := elog.Snapshot()
	elog.Append(CourseFinalized{CourseID: uuid.New()})
	if len(first) != 1 {
		t.Fatalf("snapshot grew after append: %d entries", len(first))
	}
	if elog.Len() != 2 {
		t.Fatalf("expected log length 2, got %d", elog.Len())
	}
}

func TestEnvelopeJSONShape(t *testing.T) {
	elog := NewEventLog()
	courseID := uuid.New()
	entry := elog.Append(WorkflowFailed{CourseID: courseID, Step: "start_course", Message: "boom"})

	raw, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	var decoded struct {
		Seq  int            `json:"seq"`
		At   string         `json:"at"`
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if decoded.Type != string(EventWorkflowFailed) {
		t.Fatalf("unexpected type %q", decoded.Type)
	}
	if decoded.At == "" {
		t.Fatal("missing timestamp")
	}
	if decoded.Data["step"] != "start_course" || decoded.Data["message"] != "boom" {
		t.Fatalf("unexpected data payload: %v", decoded.Data)
	}
}

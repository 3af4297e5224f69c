package wizard

import (
	"context"
	"errors"
	"strings"
	"testing"

	"campus-portal/backend/internal/model"
)

func completeEventDraft() *EventDraft {
	d := NewEventDraft()
	d.Title = "Robotics Workshop"
	d.EventType = model.EventTypeWorkshop
	d.Description = "Two days of line followers"
	d.StartDate = "2026-11-02"
	d.EndDate = "2026-11-03"
	d.Venue = "Main Auditorium"
	d.Organizer = "Robotics Club"
	d.CoordinatorName = "R. Iyer"
	d.CoordinatorEmail = "iyer@college.edu"
	return d
}

func TestEventCanAdvance(t *testing.T) {
	d := completeEventDraft()
	for step := 1; step <= EventSteps; step++ {
		if !d.CanAdvance(step) {
			t.Fatalf("complete draft blocked at step %d", step)
		}
	}

	d.EndDate = "2026-11-01"
	if d.CanAdvance(EventStepSchedule) {
		t.Error("end date before start must block the schedule step")
	}
	d.EndDate = d.StartDate
	if !d.CanAdvance(EventStepSchedule) {
		t.Error("single day events are allowed")
	}
	d.StartDate = "next tuesday"
	if d.CanAdvance(EventStepSchedule) {
		t.Error("unparseable dates block the schedule step")
	}

	d = completeEventDraft()
	d.AgendaTimes[0] = "10:00"
	if d.CanAdvance(EventStepAgenda) {
		t.Error("an agenda row with a time needs an activity")
	}
	d.AgendaActivities[0] = "Opening"
	if !d.CanAdvance(EventStepAgenda) {
		t.Error("filled agenda row should pass")
	}
}

func TestEventAgendaGroup(t *testing.T) {
	d := NewEventDraft()
	if err := d.AddEntry(GroupTools); !errors.Is(err, ErrUnknownGroup) {
		t.Errorf("events have no tools group, got %v", err)
	}
	_ = d.AddEntry(GroupAgenda)
	if d.EntryCount(GroupAgenda) != 2 || len(d.AgendaActivities) != 2 {
		t.Fatalf("expected two rows, got %d/%d", len(d.AgendaTimes), len(d.AgendaActivities))
	}
	_ = d.RemoveEntry(GroupAgenda, 0)
	if err := d.RemoveEntry(GroupAgenda, 0); !errors.Is(err, ErrLastEntry) {
		t.Errorf("expected ErrLastEntry, got %v", err)
	}
}

func TestEventSubmit(t *testing.T) {
	d := completeEventDraft()
	_ = d.AddEntry(GroupAgenda)
	d.AgendaTimes = []string{"09:30", ""}
	d.AgendaActivities = []string{"Registration", ""}
	d.Images = []File{textFile("p.png", "1")}
	d.Brochures = []File{textFile("b.pdf", "2")}

	up := &recordingUploader{}
	var got *model.Event
	_, err := Submit[*model.Event](context.Background(), d, up, InserterFunc[*model.Event](
		func(_ context.Context, e *model.Event) (RecordID, error) {
			got = e
			return "evt-1", nil
		}))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if strings.Join(up.calls, ",") != "images/p.png,brochures/b.pdf" {
		t.Errorf("unexpected upload order %v", up.calls)
	}
	if len(got.Schedule) != 1 || got.Schedule[0].Activity != "Registration" {
		t.Errorf("blank agenda rows must be dropped: %+v", got.Schedule)
	}
	if got.StartDate.Format(DateLayout) != "2026-11-02" || got.Status != model.EventStatusUpcoming {
		t.Errorf("unexpected event %+v", got)
	}
	if len(got.BrochureURLs) != 1 || len(got.ImageURLs) != 1 {
		t.Errorf("media urls missing: %v %v", got.ImageURLs, got.BrochureURLs)
	}
}

func TestEventProblems(t *testing.T) {
	if p := completeEventDraft().Problems(); p != nil {
		t.Fatalf("unexpected problems %v", p)
	}
	d := completeEventDraft()
	d.StartTime = "25:00"
	d.EventType = "party"
	d.EndDate = "2026-10-01"
	p := d.Problems()
	for _, key := range []string{"start_time", "event_type", "end_date"} {
		if p[key] == "" {
			t.Errorf("expected a problem for %s, got %v", key, p)
		}
	}
}

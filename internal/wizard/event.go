package wizard

import (
	"regexp"
	"slices"
	"strings"
	"time"

	"campus-portal/backend/internal/model"
)

// Event wizard steps.
const (
	EventStepBasic = iota + 1
	EventStepSchedule
	EventStepOrganizer
	EventStepAgenda

	EventSteps = EventStepAgenda
)

var eventStepTitles = map[int]string{
	EventStepBasic:     "Basic Details",
	EventStepSchedule:  "Date & Venue",
	EventStepOrganizer: "Organizer",
	EventStepAgenda:    "Agenda & Media",
}

// DateLayout is the wire format of event dates.
const DateLayout = "2006-01-02"

var (
	eventTypes = []string{
		model.EventTypeWorkshop, model.EventTypeSeminar, model.EventTypeConference, model.EventTypeCultural,
		model.EventTypeSports, model.EventTypeHackathon, model.EventTypeOther,
	}
	clockRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// EventDraft is the in-memory state of the event upload wizard. The agenda is a repeatable
// group of parallel time / activity columns.
type EventDraft struct {
	Title       string `json:"title"       yaml:"title"`
	EventType   string `json:"event_type"  yaml:"event_type"`
	Description string `json:"description" yaml:"description"`

	StartDate string `json:"start_date" yaml:"start_date"`
	EndDate   string `json:"end_date"   yaml:"end_date"`
	StartTime string `json:"start_time" yaml:"start_time"`
	EndTime   string `json:"end_time"   yaml:"end_time"`
	Venue     string `json:"venue"      yaml:"venue"`

	Organizer        string `json:"organizer"         yaml:"organizer"`
	CoordinatorName  string `json:"coordinator_name"  yaml:"coordinator_name"`
	CoordinatorEmail string `json:"coordinator_email" yaml:"coordinator_email"`
	CoordinatorPhone string `json:"coordinator_phone" yaml:"coordinator_phone"`

	AgendaTimes      []string `json:"agenda_times"      yaml:"agenda_times"`
	AgendaActivities []string `json:"agenda_activities" yaml:"agenda_activities"`

	IsPublished bool `json:"is_published" yaml:"is_published"`

	Images    []File `json:"-" yaml:"-"`
	Brochures []File `json:"-" yaml:"-"`

	CreatedBy string `json:"-" yaml:"-"`
}

// NewEventDraft returns an empty draft with one agenda row.
func NewEventDraft() *EventDraft {
	d := &EventDraft{}
	d.Normalize()
	return d
}

// Normalize keeps the agenda columns of equal length with at least one row.
func (d *EventDraft) Normalize() {
	equalize(&d.AgendaTimes, &d.AgendaActivities)
}

func (d *EventDraft) Steps() int { return EventSteps }

// StepTitle names a step for display.
func (d *EventDraft) StepTitle(step int) string { return eventStepTitles[step] }

// CanAdvance reports whether every required field of step is filled.
func (d *EventDraft) CanAdvance(step int) bool {
	switch step {
	case EventStepBasic:
		return !blank(d.Title) && !blank(d.EventType) && !blank(d.Description)
	case EventStepSchedule:
		start, end, ok := d.dates()
		return ok && !end.Before(start) && !blank(d.Venue)
	case EventStepOrganizer:
		return !blank(d.Organizer) && !blank(d.CoordinatorName) && !blank(d.CoordinatorEmail)
	case EventStepAgenda:
		for i := range d.AgendaTimes {
			if !blank(d.AgendaTimes[i]) && blank(at(d.AgendaActivities, i)) {
				return false
			}
		}
		return true
	}
	return false
}

// Problems lists field-level errors keyed by JSON field name, nil when there are none.
func (d *EventDraft) Problems() map[string]string {
	p := make(map[string]string)
	for field, v := range map[string]string{
		"title":            d.Title,
		"description":      d.Description,
		"venue":            d.Venue,
		"organizer":        d.Organizer,
		"coordinator_name": d.CoordinatorName,
	} {
		if blank(v) {
			p[field] = field + " must not be blank"
		}
	}
	if blank(d.EventType) {
		p["event_type"] = "event_type is required"
	} else if !slices.Contains(eventTypes, strings.TrimSpace(d.EventType)) {
		p["event_type"] = "event_type must be one of " + strings.Join(eventTypes, ", ")
	}
	start, errStart := parseDate(d.StartDate)
	end, errEnd := parseDate(d.EndDate)
	if errStart != nil {
		p["start_date"] = "start_date must be a date in YYYY-MM-DD form"
	}
	if errEnd != nil {
		p["end_date"] = "end_date must be a date in YYYY-MM-DD form"
	}
	if errStart == nil && errEnd == nil && end.Before(start) {
		p["end_date"] = "end_date must not be before start_date"
	}
	for field, v := range map[string]string{"start_time": d.StartTime, "end_time": d.EndTime} {
		if !blank(v) && !clockRe.MatchString(strings.TrimSpace(v)) {
			p[field] = field + " must be HH:MM"
		}
	}
	if !validEmail(d.CoordinatorEmail) {
		p["coordinator_email"] = "coordinator_email must be a valid email address"
	}
	for i := range d.AgendaTimes {
		if !blank(d.AgendaTimes[i]) && blank(at(d.AgendaActivities, i)) {
			p[indexed("agenda_activities", i)] = "activity is required when a time is given"
		}
	}
	if len(p) == 0 {
		return nil
	}
	return p
}

// AddEntry appends an agenda row.
func (d *EventDraft) AddEntry(g Group) error {
	if g != GroupAgenda {
		return ErrUnknownGroup
	}
	addEntry(&d.AgendaTimes, &d.AgendaActivities)
	return nil
}

// RemoveEntry drops agenda row index. The last row cannot be removed.
func (d *EventDraft) RemoveEntry(g Group, index int) error {
	if g != GroupAgenda {
		return ErrUnknownGroup
	}
	return removeEntry(index, &d.AgendaTimes, &d.AgendaActivities)
}

// EntryCount is the number of agenda rows.
func (d *EventDraft) EntryCount(g Group) int {
	if g != GroupAgenda {
		return 0
	}
	return len(d.AgendaTimes)
}

// Stages uploads images before brochures.
func (d *EventDraft) Stages() []Stage {
	return []Stage{
		{Name: StageImages, Folder: "images", Kind: "image", Files: d.Images},
		{Name: StageBrochures, Folder: "brochures", Kind: "document", Files: d.Brochures},
	}
}

// Payload builds the event record.
func (d *EventDraft) Payload(urls map[string][]string) (*model.Event, error) {
	start, err := parseDate(d.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(d.EndDate)
	if err != nil {
		return nil, err
	}

	schedule := []model.ScheduleItem{}
	for i, activity := range d.AgendaActivities {
		if blank(activity) {
			continue
		}
		schedule = append(schedule, model.ScheduleItem{Time: at(d.AgendaTimes, i), Activity: strings.TrimSpace(activity)})
	}

	e := &model.Event{
		Title:            strings.TrimSpace(d.Title),
		Description:      strings.TrimSpace(d.Description),
		EventType:        strings.TrimSpace(d.EventType),
		Status:           model.EventStatusUpcoming,
		StartDate:        start,
		EndDate:          end,
		StartTime:        strings.TrimSpace(d.StartTime),
		EndTime:          strings.TrimSpace(d.EndTime),
		Venue:            strings.TrimSpace(d.Venue),
		Organizer:        strings.TrimSpace(d.Organizer),
		CoordinatorName:  strings.TrimSpace(d.CoordinatorName),
		CoordinatorEmail: strings.TrimSpace(d.CoordinatorEmail),
		CoordinatorPhone: strings.TrimSpace(d.CoordinatorPhone),
		Schedule:         schedule,
		ImageURLs:        append([]string{}, urls[StageImages]...),
		BrochureURLs:     append([]string{}, urls[StageBrochures]...),
		IsPublished:      d.IsPublished,
	}
	if d.CreatedBy != "" {
		e.CreatedBy = &d.CreatedBy
		e.UpdatedBy = &d.CreatedBy
	}
	return e, nil
}

func (d *EventDraft) dates() (start, end time.Time, ok bool) {
	start, err := parseDate(d.StartDate)
	if err != nil {
		return start, end, false
	}
	end, err = parseDate(d.EndDate)
	if err != nil {
		return start, end, false
	}
	return start, end, true
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

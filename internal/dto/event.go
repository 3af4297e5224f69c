package dto

import (
	"encoding/json"

	"campus-portal/backend/internal/model"
	"campus-portal/backend/internal/wizard"
)

// ── events ──

// EventListRequest GET /events.
type EventListRequest struct {
	PaginationRequest
	Type               string `form:"type"                binding:"omitempty,oneof=workshop seminar conference cultural sports hackathon other"`
	Status             string `form:"status"              binding:"omitempty,oneof=upcoming ongoing completed cancelled"`
	From               string `form:"from"                binding:"omitempty,datetime=2006-01-02"`
	To                 string `form:"to"                  binding:"omitempty,datetime=2006-01-02"`
	Q                  string `form:"q"                   binding:"omitempty,max=100"`
	IncludeUnpublished bool   `form:"include_unpublished"`
}

// UpdateEventRequest PUT /events/:id. Nil fields are left unchanged; schedule and the URL
// lists replace the stored lists when present.
type UpdateEventRequest struct {
	Title            *string         `json:"title"             binding:"omitempty,notblank,max=200"`
	Description      *string         `json:"description"       binding:"omitempty,notblank"`
	EventType        *string         `json:"event_type"        binding:"omitempty,oneof=workshop seminar conference cultural sports hackathon other"`
	Status           *string         `json:"status"            binding:"omitempty,oneof=upcoming ongoing completed cancelled"`
	StartDate        *string         `json:"start_date"        binding:"omitempty,datetime=2006-01-02"`
	EndDate          *string         `json:"end_date"          binding:"omitempty,datetime=2006-01-02"`
	StartTime        *string         `json:"start_time"        binding:"omitempty,datetime=15:04"`
	EndTime          *string         `json:"end_time"          binding:"omitempty,datetime=15:04"`
	Venue            *string         `json:"venue"             binding:"omitempty,notblank,max=200"`
	Organizer        *string         `json:"organizer"         binding:"omitempty,notblank,max=200"`
	CoordinatorName  *string         `json:"coordinator_name"  binding:"omitempty,notblank,max=100"`
	CoordinatorEmail *string         `json:"coordinator_email" binding:"omitempty,email"`
	CoordinatorPhone *string         `json:"coordinator_phone" binding:"omitempty,max=30"`
	Schedule         json.RawMessage `json:"schedule"`
	ImageURLs        json.RawMessage `json:"image_urls"`
	BrochureURLs     json.RawMessage `json:"brochure_urls"`
	IsPublished      *bool           `json:"is_published"`
	Version          int             `json:"version"           binding:"required,min=1"`
}

// EventResponse an event plus the management actions the caller may take.
type EventResponse struct {
	*model.Event
	Actions []string `json:"actions,omitempty"`
}

// EventMediaResponse POST /events/:id/media.
type EventMediaResponse struct {
	ImageURLs    []string `json:"image_urls"`
	BrochureURLs []string `json:"brochure_urls"`
}

// EventCreateRequest the "payload" part of POST /events. The agenda may come either as the
// parallel agenda_times/agenda_activities columns or as a schedule list.
type EventCreateRequest struct {
	wizard.EventDraft
	Schedule json.RawMessage `json:"schedule,omitempty"`
}

// DecodeEventCreate strictly decodes raw into a normalized draft.
func DecodeEventCreate(raw []byte) (*wizard.EventDraft, error) {
	var req EventCreateRequest
	if err := DecodeStrict(raw, &req); err != nil {
		return nil, FieldErrors{"payload": err.Error()}
	}
	d := req.EventDraft
	if !isNull(req.Schedule) {
		items, err := ParseSchedule("schedule", req.Schedule)
		if err != nil {
			return nil, err
		}
		d.AgendaTimes, d.AgendaActivities = nil, nil
		for _, it := range items {
			d.AgendaTimes = append(d.AgendaTimes, it.Time)
			d.AgendaActivities = append(d.AgendaActivities, it.Activity)
		}
	}
	d.Normalize()
	return &d, nil
}

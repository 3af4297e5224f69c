package model

import (
	"time"

	"gorm.io/datatypes"
)

// Event types and statuses accepted by the events table.
const (
	EventTypeWorkshop   = "workshop"
	EventTypeSeminar    = "seminar"
	EventTypeConference = "conference"
	EventTypeCultural   = "cultural"
	EventTypeSports     = "sports"
	EventTypeHackathon  = "hackathon"
	EventTypeOther      = "other"

	EventStatusUpcoming  = "upcoming"
	EventStatusOngoing   = "ongoing"
	EventStatusCompleted = "completed"
	EventStatusCancelled = "cancelled"
)

// ScheduleItem one agenda row of an event.
type ScheduleItem struct {
	Time     string `json:"time"`
	Activity string `json:"activity"`
}

// Event is stored in table events.
type Event struct {
	EventID          string                               `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"event_id"`
	Title            string                               `gorm:"type:varchar(200);not null"                     json:"title"`
	Description      string                               `gorm:"type:text;not null"                             json:"description"`
	EventType        string                               `gorm:"type:varchar(20);not null"                      json:"event_type"`
	Status           string                               `gorm:"type:varchar(20);not null;default:'upcoming'"   json:"status"`
	StartDate        time.Time                            `gorm:"type:date;not null"                             json:"start_date"`
	EndDate          time.Time                            `gorm:"type:date;not null"                             json:"end_date"`
	StartTime        string                               `gorm:"type:varchar(5)"                                json:"start_time,omitempty"`
	EndTime          string                               `gorm:"type:varchar(5)"                                json:"end_time,omitempty"`
	Venue            string                               `gorm:"type:varchar(200);not null"                     json:"venue"`
	Organizer        string                               `gorm:"type:varchar(200);not null"                     json:"organizer"`
	CoordinatorName  string                               `gorm:"type:varchar(100);not null"                     json:"coordinator_name"`
	CoordinatorEmail string                               `gorm:"type:varchar(255);not null"                     json:"coordinator_email"`
	CoordinatorPhone string                               `gorm:"type:varchar(30)"                               json:"coordinator_phone,omitempty"`
	Schedule         datatypes.JSONSlice[ScheduleItem]    `gorm:"type:jsonb;not null;default:'[]'"               json:"schedule"`
	ImageURLs        datatypes.JSONSlice[string]          `gorm:"column:image_urls;type:jsonb;not null;default:'[]'"    json:"image_urls"`
	BrochureURLs     datatypes.JSONSlice[string]          `gorm:"column:brochure_urls;type:jsonb;not null;default:'[]'" json:"brochure_urls"`
	IsPublished      bool                                 `gorm:"not null;default:false"                         json:"is_published"`
	VersionedModel
}

// TableName table name.
func (Event) TableName() string { return "events" }

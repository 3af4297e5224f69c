package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"campus-portal/backend/internal/model"
	pkgerrors "campus-portal/backend/pkg/errors"
)

// EventListFilters filters of EventRepository.List.
type EventListFilters struct {
	Type               string
	Status             string
	From               *time.Time
	To                 *time.Time
	Query              string
	IncludeUnpublished bool
}

// EventRepository event data access. Soft-deleted rows are hidden unless a method says
// otherwise.
type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	// GetByIDUnscoped also finds soft-deleted rows.
	GetByIDUnscoped(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context, filters *EventListFilters, offset, limit int) ([]model.Event, int64, error)
	ListDeleted(ctx context.Context, offset, limit int) ([]model.Event, int64, error)
	Update(ctx context.Context, event *model.Event) error
	SoftDelete(ctx context.Context, id string, deletedBy string) error
	Restore(ctx context.Context, id string, restoredBy string) error
	Purge(ctx context.Context, id string) error
	// MediaURLs lists every image and brochure URL, soft-deleted rows included.
	MediaURLs(ctx context.Context) ([]string, error)
}

type eventRepo struct {
	db *gorm.DB
}

// NewEventRepo creates an EventRepository.
func NewEventRepo(db *gorm.DB) EventRepository {
	return &eventRepo{db: db}
}

func (r *eventRepo) Create(ctx context.Context, event *model.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepo) GetByID(ctx context.Context, id string) (*model.Event, error) {
	var event model.Event
	err := r.db.WithContext(ctx).
		Where("event_id = ?", id).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepo) GetByIDUnscoped(ctx context.Context, id string) (*model.Event, error) {
	var event model.Event
	err := r.db.WithContext(ctx).Unscoped().
		Where("event_id = ?", id).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepo) List(ctx context.Context, filters *EventListFilters, offset, limit int) ([]model.Event, int64, error) {
	var events []model.Event
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Event{})
	if filters == nil {
		filters = &EventListFilters{}
	}
	if !filters.IncludeUnpublished {
		db = db.Where("is_published = ?", true)
	}
	if filters.Type != "" {
		db = db.Where("event_type = ?", filters.Type)
	}
	if filters.Status != "" {
		db = db.Where("status = ?", filters.Status)
	}
	// an event matches a date range when the two overlap
	if filters.From != nil {
		db = db.Where("end_date >= ?", *filters.From)
	}
	if filters.To != nil {
		db = db.Where("start_date <= ?", *filters.To)
	}
	if filters.Query != "" {
		like := "%" + filters.Query + "%"
		db = db.Where("(title ILIKE ? OR venue ILIKE ? OR organizer ILIKE ?)", like, like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("start_date ASC, start_time ASC").
		Offset(offset).Limit(limit).
		Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *eventRepo) ListDeleted(ctx context.Context, offset, limit int) ([]model.Event, int64, error) {
	var events []model.Event
	var total int64

	db := r.db.WithContext(ctx).Unscoped().Model(&model.Event{}).Where("deleted_at IS NOT NULL")
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("deleted_at DESC").Offset(offset).Limit(limit).Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *eventRepo) Update(ctx context.Context, event *model.Event) error {
	oldVersion := event.Version
	result := r.db.WithContext(ctx).
		Model(&model.Event{}).
		Where("event_id = ? AND version = ?", event.EventID, oldVersion).
		Updates(map[string]interface{}{
			"title":             event.Title,
			"description":       event.Description,
			"event_type":        event.EventType,
			"status":            event.Status,
			"start_date":        event.StartDate,
			"end_date":          event.EndDate,
			"start_time":        event.StartTime,
			"end_time":          event.EndTime,
			"venue":             event.Venue,
			"organizer":         event.Organizer,
			"coordinator_name":  event.CoordinatorName,
			"coordinator_email": event.CoordinatorEmail,
			"coordinator_phone": event.CoordinatorPhone,
			"schedule":          event.Schedule,
			"image_urls":        event.ImageURLs,
			"brochure_urls":     event.BrochureURLs,
			"is_published":      event.IsPublished,
			"updated_by":        event.UpdatedBy,
			"updated_at":        gorm.Expr("NOW()"),
			"version":           oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	event.Version = oldVersion + 1
	return nil
}

// SoftDelete only touches live rows, so deleting twice keeps the first deleted_at/deleted_by.
func (r *eventRepo) SoftDelete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Event{}).
		Where("event_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *eventRepo) Restore(ctx context.Context, id string, restoredBy string) error {
	return r.db.WithContext(ctx).Unscoped().
		Model(&model.Event{}).
		Where("event_id = ? AND deleted_at IS NOT NULL", id).
		Updates(map[string]interface{}{
			"deleted_at": nil,
			"deleted_by": nil,
			"updated_by": restoredBy,
		}).Error
}

func (r *eventRepo) Purge(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Unscoped().
		Where("event_id = ?", id).
		Delete(&model.Event{}).Error
}

func (r *eventRepo) MediaURLs(ctx context.Context) ([]string, error) {
	var rows []struct {
		ImageURLs    datatypes.JSONSlice[string] `gorm:"column:image_urls"`
		BrochureURLs datatypes.JSONSlice[string] `gorm:"column:brochure_urls"`
	}
	err := r.db.WithContext(ctx).Unscoped().
		Model(&model.Event{}).
		Select("image_urls, brochure_urls").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	var urls []string
	for _, row := range rows {
		urls = append(urls, row.ImageURLs...)
		urls = append(urls, row.BrochureURLs...)
	}
	return urls, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"campus-portal/backend/config"
	"campus-portal/backend/internal/access"
	"campus-portal/backend/internal/dto"
	"campus-portal/backend/internal/model"
	"campus-portal/backend/internal/repository"
	"campus-portal/backend/internal/wizard"
	"campus-portal/backend/pkg/storage"
)

// ── event module errors ──

var (
	ErrEventNotFound   = errors.New("event not found")
	ErrEventDateOrder  = errors.New("end date must not be before start date")
	ErrNoMediaFiles    = errors.New("no files were attached")
	ErrNotDeleted      = errors.New("record must be deleted before it can be purged")
	ErrPurgeNotAllowed = errors.New("only super admins may purge records")
)

// Management actions attached to list and detail responses.
const (
	ActionEdit        = "edit"
	ActionDelete      = "delete"
	ActionUploadMedia = "upload_media"
	ActionReview      = "review"
)

var (
	eventStaffActions    = []string{ActionEdit, ActionUploadMedia, ActionDelete}
	researchStaffActions = []string{ActionReview, ActionDelete}
)

// EventService events calendar.
type EventService interface {
	List(ctx context.Context, req *dto.EventListRequest, caller Caller) ([]dto.EventResponse, int64, error)
	Get(ctx context.Context, id string, caller Caller) (*dto.EventResponse, error)
	// Create runs the event wizard submit: images, then brochures, then the insert.
	Create(ctx context.Context, draft *wizard.EventDraft, caller Caller) (*dto.EventResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateEventRequest, caller Caller) (*dto.EventResponse, error)
	UploadMedia(ctx context.Context, id string, images, brochures []wizard.File, caller Caller) (*dto.EventMediaResponse, error)
	SoftDelete(ctx context.Context, id string, caller Caller) error
	Restore(ctx context.Context, id string, caller Caller) error
	Purge(ctx context.Context, id string, caller Caller) error
	ListDeleted(ctx context.Context, page *dto.PaginationRequest) ([]model.Event, int64, error)
}

type eventService struct {
	auth   *config.AuthConfig
	repo   *repository.Repository
	bucket *storage.Bucket
	logger *zap.Logger
}

// NewEventService creates an EventService storing media in bucket.
func NewEventService(auth *config.AuthConfig, repo *repository.Repository, bucket *storage.Bucket, logger *zap.Logger) EventService {
	return &eventService{auth: auth, repo: repo, bucket: bucket, logger: logger}
}

// ────────────────────── Read ──────────────────────

func (s *eventService) List(ctx context.Context, req *dto.EventListRequest, caller Caller) ([]dto.EventResponse, int64, error) {
	filters := &repository.EventListFilters{
		Type:               req.Type,
		Status:             req.Status,
		Query:              strings.TrimSpace(req.Q),
		IncludeUnpublished: req.IncludeUnpublished && caller.Staff(),
	}
	var err error
	if filters.From, err = optionalDate("from", req.From); err != nil {
		return nil, 0, err
	}
	if filters.To, err = optionalDate("to", req.To); err != nil {
		return nil, 0, err
	}

	events, total, err := s.repo.Event.List(ctx, filters, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("list events failed", zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		list = append(list, eventView(&events[i], caller))
	}
	return list, total, nil
}

func (s *eventService) Get(ctx context.Context, id string, caller Caller) (*dto.EventResponse, error) {
	event, err := s.repo.Event.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if !event.IsPublished && !caller.Staff() {
		return nil, ErrEventNotFound
	}
	resp := eventView(event, caller)
	return &resp, nil
}

// ────────────────────── Create ──────────────────────

func (s *eventService) Create(ctx context.Context, draft *wizard.EventDraft, caller Caller) (*dto.EventResponse, error) {
	draft.Normalize()
	if problems := draft.Problems(); len(problems) > 0 {
		return nil, &ValidationError{Fields: problems}
	}
	draft.CreatedBy = caller.UserID

	var created *model.Event
	insert := wizard.InserterFunc[*model.Event](func(ctx context.Context, e *model.Event) (wizard.RecordID, error) {
		if err := s.repo.Event.Create(ctx, e); err != nil {
			return "", err
		}
		created = e
		return wizard.RecordID(e.EventID), nil
	})

	if _, err := wizard.Submit[*model.Event](ctx, draft, bucketUploader{bucket: s.bucket}, insert); err != nil {
		logSubmissionFailure(s.logger, "event", err)
		return nil, err
	}

	s.logger.Info("event created", zap.String("event_id", created.EventID), zap.String("created_by", caller.UserID))
	resp := eventView(created, caller)
	return &resp, nil
}

// ────────────────────── Update ──────────────────────

func (s *eventService) Update(ctx context.Context, id string, req *dto.UpdateEventRequest, caller Caller) (*dto.EventResponse, error) {
	event, err := s.repo.Event.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	setTrimmed(&event.Title, req.Title)
	setTrimmed(&event.Description, req.Description)
	setTrimmed(&event.EventType, req.EventType)
	setTrimmed(&event.Status, req.Status)
	setTrimmed(&event.StartTime, req.StartTime)
	setTrimmed(&event.EndTime, req.EndTime)
	setTrimmed(&event.Venue, req.Venue)
	setTrimmed(&event.Organizer, req.Organizer)
	setTrimmed(&event.CoordinatorName, req.CoordinatorName)
	setTrimmed(&event.CoordinatorEmail, req.CoordinatorEmail)
	setTrimmed(&event.CoordinatorPhone, req.CoordinatorPhone)
	if req.IsPublished != nil {
		event.IsPublished = *req.IsPublished
	}

	if req.StartDate != nil {
		d, err := requiredDate("start_date", *req.StartDate)
		if err != nil {
			return nil, err
		}
		event.StartDate = d
	}
	if req.EndDate != nil {
		d, err := requiredDate("end_date", *req.EndDate)
		if err != nil {
			return nil, err
		}
		event.EndDate = d
	}
	if event.EndDate.Before(event.StartDate) {
		return nil, &ValidationError{Fields: map[string]string{"end_date": ErrEventDateOrder.Error()}}
	}

	if req.Schedule != nil {
		items, err := dto.ParseSchedule("schedule", req.Schedule)
		if err != nil {
			return nil, fieldErrors(err)
		}
		event.Schedule = items
	}
	if req.ImageURLs != nil {
		urls, err := s.ownURLs("image_urls", req.ImageURLs)
		if err != nil {
			return nil, err
		}
		event.ImageURLs = urls
	}
	if req.BrochureURLs != nil {
		urls, err := s.ownURLs("brochure_urls", req.BrochureURLs)
		if err != nil {
			return nil, err
		}
		event.BrochureURLs = urls
	}

	event.Version = req.Version
	event.UpdatedBy = strPtr(caller.UserID)
	if err := s.repo.Event.Update(ctx, event); err != nil {
		return nil, err
	}
	resp := eventView(event, caller)
	return &resp, nil
}

// UploadMedia appends images and brochures to an existing event. Files are stored one at a
// time; a failure keeps what was already stored for the sweep and leaves the event unchanged.
func (s *eventService) UploadMedia(ctx context.Context, id string, images, brochures []wizard.File, caller Caller) (*dto.EventMediaResponse, error) {
	if len(images)+len(brochures) == 0 {
		return nil, ErrNoMediaFiles
	}
	event, err := s.repo.Event.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	draft := &wizard.EventDraft{Images: images, Brochures: brochures}
	urls, _, err := wizard.UploadStages(ctx, bucketUploader{bucket: s.bucket}, draft.Stages())
	if err != nil {
		logSubmissionFailure(s.logger, "event_media", err)
		return nil, err
	}

	event.ImageURLs = append(event.ImageURLs, urls[wizard.StageImages]...)
	event.BrochureURLs = append(event.BrochureURLs, urls[wizard.StageBrochures]...)
	event.UpdatedBy = strPtr(caller.UserID)
	if err := s.repo.Event.Update(ctx, event); err != nil {
		s.logger.Warn("attach event media failed",
			zap.String("event_id", id),
			zap.Strings("orphaned_urls", append(urls[wizard.StageImages], urls[wizard.StageBrochures]...)),
			zap.Error(err),
		)
		return nil, err
	}
	return &dto.EventMediaResponse{ImageURLs: event.ImageURLs, BrochureURLs: event.BrochureURLs}, nil
}

// ────────────────────── Soft delete ──────────────────────

func (s *eventService) SoftDelete(ctx context.Context, id string, caller Caller) error {
	event, err := s.repo.Event.GetByIDUnscoped(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return ErrEventNotFound
		}
		return err
	}
	if event.IsDeleted() {
		return nil
	}
	if err := s.repo.Event.SoftDelete(ctx, id, caller.UserID); err != nil {
		s.logger.Error("delete event failed", zap.String("event_id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *eventService) Restore(ctx context.Context, id string, caller Caller) error {
	event, err := s.repo.Event.GetByIDUnscoped(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return ErrEventNotFound
		}
		return err
	}
	if !event.IsDeleted() {
		return nil
	}
	return s.repo.Event.Restore(ctx, id, caller.UserID)
}

// Purge removes a deleted event and its media for good.
func (s *eventService) Purge(ctx context.Context, id string, caller Caller) error {
	if !canPurge(s.auth, caller) {
		return ErrPurgeNotAllowed
	}
	event, err := s.repo.Event.GetByIDUnscoped(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return ErrEventNotFound
		}
		return err
	}
	if !event.IsDeleted() {
		return ErrNotDeleted
	}
	if err := s.repo.Event.Purge(ctx, id); err != nil {
		s.logger.Error("purge event failed", zap.String("event_id", id), zap.Error(err))
		return err
	}
	removeObjects(ctx, s.bucket, append(append([]string{}, event.ImageURLs...), event.BrochureURLs...), s.logger)
	s.logger.Info("event purged", zap.String("event_id", id), zap.String("purged_by", caller.Email))
	return nil
}

func (s *eventService) ListDeleted(ctx context.Context, page *dto.PaginationRequest) ([]model.Event, int64, error) {
	return s.repo.Event.ListDeleted(ctx, page.GetOffset(), page.GetPageSize())
}

// ── helpers ──

// ownURLs accepts only URLs this service issued, so clients can drop or reorder media but not
// point at arbitrary hosts.
func (s *eventService) ownURLs(field string, raw []byte) ([]string, error) {
	urls, err := dto.ParseURLList(field, raw)
	if err != nil {
		return nil, fieldErrors(err)
	}
	fe := map[string]string{}
	for i, u := range urls {
		if _, ok := s.bucket.ObjectName(u); !ok {
			fe[fmt.Sprintf("%s[%d]", field, i)] = "must be a file uploaded to this site"
		}
	}
	if len(fe) > 0 {
		return nil, &ValidationError{Fields: fe}
	}
	return urls, nil
}

func eventView(e *model.Event, caller Caller) dto.EventResponse {
	return dto.EventResponse{
		Event:   e,
		Actions: access.Conditional(caller.Role, access.Staff, eventStaffActions),
	}
}

func canPurge(auth *config.AuthConfig, caller Caller) bool {
	return access.Passes(caller.Role, access.AdminOnly) && auth.IsSuperAdmin(caller.Email)
}

func setTrimmed(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func optionalDate(field, s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := requiredDate(field, s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func requiredDate(field, s string) (time.Time, error) {
	d, err := time.Parse(wizard.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, &ValidationError{Fields: map[string]string{field: "must be a date in YYYY-MM-DD form"}}
	}
	return d, nil
}

package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"campus-portal/backend/internal/dto"
	"campus-portal/backend/internal/model"
	"campus-portal/backend/internal/repository"
)

// ── timetable module errors ──

var (
	ErrTimetableICSParseFailed = errors.New("the calendar file could not be read")
	ErrTimetableICSEmpty       = errors.New("the calendar contains no classes inside the term")
	ErrTimetableICSFetchFailed = errors.New("the calendar could not be downloaded")
	ErrTimetableTermOrder      = errors.New("term end must be after term start")
	ErrTimetableNoSource       = errors.New("attach an ICS file or give a calendar URL")
)

// TimetableService weekly class timetables per section.
type TimetableService interface {
	// ImportICS replaces the section's timetable with the classes found in the calendar. The
	// calendar comes from r, or from req.URL when r is nil.
	ImportICS(ctx context.Context, r io.Reader, req *dto.ImportTimetableRequest) (*dto.ImportTimetableResponse, error)
	List(ctx context.Context, req *dto.TimetableListRequest) ([]dto.TimetableEntryResponse, error)
}

type timetableService struct {
	repo   *repository.Repository
	loc    *time.Location
	client *resty.Client
	logger *zap.Logger
}

// NewTimetableService creates a TimetableService. Calendar times are read in loc.
func NewTimetableService(repo *repository.Repository, loc *time.Location, logger *zap.Logger) TimetableService {
	return &timetableService{
		repo:   repo,
		loc:    loc,
		client: resty.New().SetTimeout(icsFetchTimeout).SetRedirectPolicy(resty.FlexibleRedirectPolicy(5)),
		logger: logger,
	}
}

func timetableLocation(name string, logger *zap.Logger) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		logger.Warn("unknown timezone, timetables use UTC", zap.String("timezone", name), zap.Error(err))
		return time.UTC
	}
	return loc
}

// ────────────────────── ImportICS ──────────────────────

func (s *timetableService) ImportICS(ctx context.Context, r io.Reader, req *dto.ImportTimetableRequest) (*dto.ImportTimetableResponse, error) {
	start, err := requiredDate("term_start", req.TermStart)
	if err != nil {
		return nil, err
	}
	end, err := requiredDate("term_end", req.TermEnd)
	if err != nil {
		return nil, err
	}
	if !end.After(start) {
		return nil, ErrTimetableTermOrder
	}

	if r == nil {
		if strings.TrimSpace(req.URL) == "" {
			return nil, ErrTimetableNoSource
		}
		body, err := FetchICS(ctx, s.client, req.URL)
		if err != nil {
			s.logger.Warn("fetch calendar failed", zap.String("url", req.URL), zap.Error(err))
			return nil, ErrTimetableICSFetchFailed
		}
		r = bytes.NewReader(body)
	}

	section := repository.Section{
		Branch:   strings.TrimSpace(req.Branch),
		Semester: req.Semester,
		Section:  strings.ToUpper(strings.TrimSpace(req.Section)),
	}
	entries, err := ParseTimetableICS(r, section, TermWindow{Start: start, End: end}, s.loc)
	if err != nil {
		s.logger.Warn("parse calendar failed", zap.Error(err))
		return nil, ErrTimetableICSParseFailed
	}
	if len(entries) == 0 {
		return nil, ErrTimetableICSEmpty
	}

	if err := s.repo.Timetable.ReplaceBySection(ctx, section, entries); err != nil {
		s.logger.Error("replace timetable failed",
			zap.String("branch", section.Branch),
			zap.Int("semester", section.Semester),
			zap.String("section", section.Section),
			zap.Error(err),
		)
		return nil, err
	}

	return &dto.ImportTimetableResponse{
		ImportedCount: len(entries),
		Entries:       toTimetableResponses(entries),
	}, nil
}

func (s *timetableService) List(ctx context.Context, req *dto.TimetableListRequest) ([]dto.TimetableEntryResponse, error) {
	entries, err := s.repo.Timetable.ListBySection(ctx, repository.Section{
		Branch:   strings.TrimSpace(req.Branch),
		Semester: req.Semester,
		Section:  strings.ToUpper(strings.TrimSpace(req.Section)),
	})
	if err != nil {
		s.logger.Error("list timetable failed", zap.Error(err))
		return nil, err
	}
	return toTimetableResponses(entries), nil
}

func toTimetableResponses(entries []model.TimetableEntry) []dto.TimetableEntryResponse {
	out := make([]dto.TimetableEntryResponse, 0, len(entries))
	for _, e := range entries {
		weeks := []int(e.Weeks)
		if weeks == nil {
			weeks = []int{}
		}
		out = append(out, dto.TimetableEntryResponse{
			ID:         e.EntryID,
			CourseName: e.CourseName,
			DayOfWeek:  e.DayOfWeek,
			StartTime:  e.StartTime,
			EndTime:    e.EndTime,
			Weeks:      weeks,
			WeekType:   e.WeekType,
			Room:       e.Room,
			Source:     e.Source,
		})
	}
	return out
}

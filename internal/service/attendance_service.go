package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"campus-portal/backend/internal/dto"
	"campus-portal/backend/internal/model"
	"campus-portal/backend/internal/repository"
	"campus-portal/backend/internal/wizard"
)

var ErrNoRollNumber = errors.New("your account has no roll number, ask an admin to add it")

// AttendanceService class attendance marks.
type AttendanceService interface {
	// Record stores one class worth of marks. Re-marking a student overwrites the status.
	Record(ctx context.Context, req *dto.RecordAttendanceRequest, caller Caller) (*dto.RecordAttendanceResponse, error)
	// List pages through marks. Callers other than staff only see their own.
	List(ctx context.Context, req *dto.AttendanceListRequest, caller Caller) ([]model.AttendanceRecord, int64, error)
	Summary(ctx context.Context, req *dto.AttendanceListRequest, caller Caller) ([]model.AttendanceSummary, error)
	Export(ctx context.Context, req *dto.AttendanceListRequest) (*bytes.Buffer, string, error)
}

type attendanceService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewAttendanceService creates an AttendanceService.
func NewAttendanceService(repo *repository.Repository, logger *zap.Logger) AttendanceService {
	return &attendanceService{repo: repo, logger: logger, now: time.Now}
}

func (s *attendanceService) Record(ctx context.Context, req *dto.RecordAttendanceRequest, caller Caller) (*dto.RecordAttendanceResponse, error) {
	classDate, err := requiredDate("class_date", req.ClassDate)
	if err != nil {
		return nil, err
	}

	// one statement cannot upsert the same key twice, the last mark of a roll wins
	index := make(map[string]int, len(req.Entries))
	records := make([]model.AttendanceRecord, 0, len(req.Entries))
	for _, e := range req.Entries {
		roll := strings.ToUpper(strings.TrimSpace(e.StudentRoll))
		rec := model.AttendanceRecord{
			StudentRoll: roll,
			StudentName: strings.TrimSpace(e.StudentName),
			CourseCode:  normalizeCode(req.CourseCode),
			CourseName:  strings.TrimSpace(req.CourseName),
			Branch:      strings.TrimSpace(req.Branch),
			Semester:    req.Semester,
			Section:     strings.ToUpper(strings.TrimSpace(req.Section)),
			ClassDate:   classDate,
			Status:      e.Status,
			RecordedBy:  caller.UserID,
		}
		rec.CreatedBy = strPtr(caller.UserID)
		if i, dup := index[roll]; dup {
			records[i] = rec
			continue
		}
		index[roll] = len(records)
		records = append(records, rec)
	}

	if err := s.repo.Attendance.BatchUpsert(ctx, records); err != nil {
		s.logger.Error("record attendance failed", zap.String("course_code", req.CourseCode), zap.Error(err))
		return nil, err
	}
	return &dto.RecordAttendanceResponse{Recorded: len(records)}, nil
}

func (s *attendanceService) List(ctx context.Context, req *dto.AttendanceListRequest, caller Caller) ([]model.AttendanceRecord, int64, error) {
	filters, err := s.filters(ctx, req, caller)
	if err != nil {
		return nil, 0, err
	}
	records, total, err := s.repo.Attendance.List(ctx, filters, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("list attendance failed", zap.Error(err))
		return nil, 0, err
	}
	return records, total, nil
}

func (s *attendanceService) Summary(ctx context.Context, req *dto.AttendanceListRequest, caller Caller) ([]model.AttendanceSummary, error) {
	filters, err := s.filters(ctx, req, caller)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.Attendance.Summary(ctx, filters)
	if err != nil {
		s.logger.Error("summarise attendance failed", zap.Error(err))
		return nil, err
	}
	return rows, nil
}

func (s *attendanceService) Export(ctx context.Context, req *dto.AttendanceListRequest) (*bytes.Buffer, string, error) {
	filters, err := attendanceFilters(req)
	if err != nil {
		return nil, "", err
	}
	records, _, err := s.repo.Attendance.List(ctx, filters, 0, 0)
	if err != nil {
		return nil, "", err
	}
	summary, err := s.repo.Attendance.Summary(ctx, filters)
	if err != nil {
		return nil, "", err
	}

	marks := sheet{
		name:    "Marks",
		title:   "Attendance " + scopeLabel(req.Branch, req.Semester, req.Section),
		headers: []string{"Date", "Course", "Course name", "Roll number", "Student", "Branch", "Semester", "Section", "Status"},
		widths:  []float64{12, 12, 28, 16, 24, 16, 10, 10, 10},
	}
	for _, r := range records {
		marks.rows = append(marks.rows, []interface{}{
			r.ClassDate.Format(wizard.DateLayout), r.CourseCode, r.CourseName, r.StudentRoll, r.StudentName,
			r.Branch, r.Semester, r.Section, r.Status,
		})
	}

	totals := sheet{
		name:    "Summary",
		title:   "Attendance per student and course (late counts as attended)",
		headers: []string{"Roll number", "Student", "Course", "Classes", "Present", "Late", "Absent", "Attendance %"},
		widths:  []float64{16, 24, 12, 10, 10, 8, 10, 14},
	}
	for _, r := range summary {
		totals.rows = append(totals.rows, []interface{}{
			r.StudentRoll, r.StudentName, r.CourseCode, r.Total, r.Present, r.Late, r.Absent, r.Percentage,
		})
	}

	buf, err := renderWorkbook(marks, totals)
	if err != nil {
		s.logger.Error("render attendance export failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, fmt.Sprintf("attendance_%s.xlsx", s.now().Format("20060102")), nil
}

// filters pins non-staff callers to their own roll number.
func (s *attendanceService) filters(ctx context.Context, req *dto.AttendanceListRequest, caller Caller) (*repository.AttendanceFilters, error) {
	f, err := attendanceFilters(req)
	if err != nil {
		return nil, err
	}
	if !caller.Staff() {
		user, err := s.repo.User.GetByID(ctx, caller.UserID)
		if err != nil {
			if isNotFound(err) {
				return nil, ErrUserNotFound
			}
			return nil, err
		}
		if user.RollNumber == nil || strings.TrimSpace(*user.RollNumber) == "" {
			return nil, ErrNoRollNumber
		}
		f.StudentRoll = strings.ToUpper(strings.TrimSpace(*user.RollNumber))
	}
	return f, nil
}

func attendanceFilters(req *dto.AttendanceListRequest) (*repository.AttendanceFilters, error) {
	f := &repository.AttendanceFilters{
		CourseCode: normalizeCode(req.CourseCode),
		Branch:     strings.TrimSpace(req.Branch),
		Semester:   req.Semester,
		Section:    strings.ToUpper(strings.TrimSpace(req.Section)),
		Status:     req.Status,
		Query:      strings.TrimSpace(req.Q),
	}
	var err error
	if f.From, err = optionalDate("from", req.From); err != nil {
		return nil, err
	}
	if f.To, err = optionalDate("to", req.To); err != nil {
		return nil, err
	}
	return f, nil
}

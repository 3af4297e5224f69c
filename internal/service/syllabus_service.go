package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"campus-portal/backend/internal/dto"
	"campus-portal/backend/internal/model"
	"campus-portal/backend/internal/repository"
)

// SyllabusService syllabus coverage feedback.
type SyllabusService interface {
	Submit(ctx context.Context, req *dto.SubmitSyllabusReviewRequest, caller Caller) (*model.SyllabusReview, error)
	List(ctx context.Context, req *dto.SyllabusReviewFilter) ([]model.SyllabusReview, int64, error)
	Summary(ctx context.Context, req *dto.SyllabusReviewFilter) ([]model.SyllabusReviewSummary, error)
	// Export renders the matching reviews and their summary as an xlsx workbook.
	Export(ctx context.Context, req *dto.SyllabusReviewFilter) (*bytes.Buffer, string, error)
}

type syllabusService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewSyllabusService creates a SyllabusService.
func NewSyllabusService(repo *repository.Repository, logger *zap.Logger) SyllabusService {
	return &syllabusService{repo: repo, logger: logger, now: time.Now}
}

func (s *syllabusService) Submit(ctx context.Context, req *dto.SubmitSyllabusReviewRequest, caller Caller) (*model.SyllabusReview, error) {
	review := &model.SyllabusReview{
		Branch:      strings.TrimSpace(req.Branch),
		Semester:    req.Semester,
		Section:     strings.ToUpper(strings.TrimSpace(req.Section)),
		TeacherName: strings.TrimSpace(req.TeacherName),
		Subject:     strings.TrimSpace(req.Subject),
		Coverage:    req.Coverage,
		Pace:        req.Pace,
		Clarity:     req.Clarity,
		Resources:   req.Resources,
		Overall:     req.Overall,
		Comments:    strings.TrimSpace(req.Comments),
		SubmittedBy: caller.UserID,
	}
	review.CreatedBy = strPtr(caller.UserID)
	if err := s.repo.SyllabusReview.Create(ctx, review); err != nil {
		s.logger.Error("create syllabus review failed", zap.Error(err))
		return nil, err
	}
	return review, nil
}

func (s *syllabusService) List(ctx context.Context, req *dto.SyllabusReviewFilter) ([]model.SyllabusReview, int64, error) {
	reviews, total, err := s.repo.SyllabusReview.List(ctx, syllabusFilters(req), req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("list syllabus reviews failed", zap.Error(err))
		return nil, 0, err
	}
	return reviews, total, nil
}

func (s *syllabusService) Summary(ctx context.Context, req *dto.SyllabusReviewFilter) ([]model.SyllabusReviewSummary, error) {
	rows, err := s.repo.SyllabusReview.Summary(ctx, syllabusFilters(req))
	if err != nil {
		s.logger.Error("summarise syllabus reviews failed", zap.Error(err))
		return nil, err
	}
	return rows, nil
}

func (s *syllabusService) Export(ctx context.Context, req *dto.SyllabusReviewFilter) (*bytes.Buffer, string, error) {
	filters := syllabusFilters(req)
	reviews, _, err := s.repo.SyllabusReview.List(ctx, filters, 0, 0)
	if err != nil {
		return nil, "", err
	}
	summary, err := s.repo.SyllabusReview.Summary(ctx, filters)
	if err != nil {
		return nil, "", err
	}

	responses := sheet{
		name:    "Responses",
		title:   "Syllabus reviews " + scopeLabel(req.Branch, req.Semester, req.Section),
		headers: []string{"Submitted", "Branch", "Semester", "Section", "Teacher", "Subject", "Coverage", "Pace", "Clarity", "Resources", "Overall", "Comments"},
		widths:  []float64{18, 16, 10, 10, 22, 26, 10, 8, 10, 11, 10, 48},
	}
	for _, r := range reviews {
		responses.rows = append(responses.rows, []interface{}{
			r.CreatedAt.Format("2006-01-02 15:04"), r.Branch, r.Semester, r.Section, r.TeacherName, r.Subject,
			r.Coverage, r.Pace, r.Clarity, r.Resources, r.Overall, r.Comments,
		})
	}

	averages := sheet{
		name:    "Summary",
		title:   "Average ratings per teacher and subject",
		headers: []string{"Teacher", "Subject", "Responses", "Coverage", "Pace", "Clarity", "Resources", "Overall"},
		widths:  []float64{22, 26, 11, 10, 8, 10, 11, 10},
	}
	for _, r := range summary {
		averages.rows = append(averages.rows, []interface{}{
			r.TeacherName, r.Subject, r.Responses,
			round2(r.AvgCoverage), round2(r.AvgPace), round2(r.AvgClarity), round2(r.AvgResources), round2(r.AvgOverall),
		})
	}

	buf, err := renderWorkbook(responses, averages)
	if err != nil {
		s.logger.Error("render syllabus export failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, fmt.Sprintf("syllabus-reviews_%s.xlsx", s.now().Format("20060102")), nil
}

func syllabusFilters(req *dto.SyllabusReviewFilter) *repository.SyllabusReviewFilters {
	return &repository.SyllabusReviewFilters{
		Branch:   strings.TrimSpace(req.Branch),
		Semester: req.Semester,
		Section:  strings.ToUpper(strings.TrimSpace(req.Section)),
		Teacher:  strings.TrimSpace(req.Teacher),
	}
}

func scopeLabel(branch string, semester int, section string) string {
	var parts []string
	if b := strings.TrimSpace(branch); b != "" {
		parts = append(parts, b)
	}
	if semester > 0 {
		parts = append(parts, fmt.Sprintf("sem %d", semester))
	}
	if sec := strings.TrimSpace(section); sec != "" {
		parts = append(parts, "section "+strings.ToUpper(sec))
	}
	if len(parts) == 0 {
		return "(all)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}

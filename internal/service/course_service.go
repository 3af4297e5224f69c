package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"campus-portal/backend/internal/dto"
	"campus-portal/backend/internal/model"
	"campus-portal/backend/internal/repository"
)

var (
	ErrCourseNotFound   = errors.New("course not found")
	ErrCourseCodeExists = errors.New("course code already exists in this department")
)

// CourseService courses offered by departments.
type CourseService interface {
	Create(ctx context.Context, req *dto.CreateCourseRequest, callerID string) (*dto.CourseResponse, error)
	GetByID(ctx context.Context, id string) (*dto.CourseResponse, error)
	List(ctx context.Context, req *dto.CourseListRequest) ([]dto.CourseResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateCourseRequest, callerID string) (*dto.CourseResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
}

type courseService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCourseService creates a CourseService.
func NewCourseService(repo *repository.Repository, logger *zap.Logger) CourseService {
	return &courseService{repo: repo, logger: logger}
}

func (s *courseService) Create(ctx context.Context, req *dto.CreateCourseRequest, callerID string) (*dto.CourseResponse, error) {
	if _, err := s.repo.Department.GetByID(ctx, req.DepartmentID); err != nil {
		if isNotFound(err) {
			return nil, ErrDepartmentNotFound
		}
		return nil, err
	}
	code := normalizeCode(req.Code)
	if err := s.ensureCodeFree(ctx, req.DepartmentID, code, ""); err != nil {
		return nil, err
	}

	course := &model.Course{
		DepartmentID: req.DepartmentID,
		Code:         code,
		Title:        strings.TrimSpace(req.Title),
		Credits:      req.Credits,
		Semester:     req.Semester,
		Description:  req.Description,
	}
	course.CreatedBy = strPtr(callerID)
	if err := s.repo.Course.Create(ctx, course); err != nil {
		s.logger.Error("create course failed", zap.Error(err))
		return nil, err
	}
	return s.GetByID(ctx, course.CourseID)
}

func (s *courseService) GetByID(ctx context.Context, id string) (*dto.CourseResponse, error) {
	course, err := s.repo.Course.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	resp := toCourseResponse(course)
	return &resp, nil
}

func (s *courseService) List(ctx context.Context, req *dto.CourseListRequest) ([]dto.CourseResponse, error) {
	courses, err := s.repo.Course.List(ctx, &repository.CourseListFilters{
		DepartmentID: req.DepartmentID,
		Semester:     req.Semester,
	})
	if err != nil {
		s.logger.Error("list courses failed", zap.Error(err))
		return nil, err
	}
	list := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		list = append(list, toCourseResponse(&courses[i]))
	}
	return list, nil
}

func (s *courseService) Update(ctx context.Context, id string, req *dto.UpdateCourseRequest, callerID string) (*dto.CourseResponse, error) {
	course, err := s.repo.Course.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	if req.Code != nil {
		code := normalizeCode(*req.Code)
		if code != course.Code {
			if err := s.ensureCodeFree(ctx, course.DepartmentID, code, id); err != nil {
				return nil, err
			}
			course.Code = code
		}
	}
	if req.Title != nil {
		course.Title = strings.TrimSpace(*req.Title)
	}
	if req.Credits != nil {
		course.Credits = *req.Credits
	}
	if req.Semester != nil {
		course.Semester = *req.Semester
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	course.UpdatedBy = strPtr(callerID)
	// the preloaded department must not be written back
	course.Department = nil

	if err := s.repo.Course.Update(ctx, course); err != nil {
		s.logger.Error("update course failed", zap.String("course_id", id), zap.Error(err))
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *courseService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.repo.Course.GetByID(ctx, id); err != nil {
		if isNotFound(err) {
			return ErrCourseNotFound
		}
		return err
	}
	return s.repo.Course.Delete(ctx, id, callerID)
}

func (s *courseService) ensureCodeFree(ctx context.Context, departmentID, code, selfID string) error {
	existing, err := s.repo.Course.GetByCode(ctx, departmentID, code)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}
	if existing.CourseID != selfID {
		return ErrCourseCodeExists
	}
	return nil
}

func toCourseResponse(c *model.Course) dto.CourseResponse {
	resp := dto.CourseResponse{
		ID:           c.CourseID,
		DepartmentID: c.DepartmentID,
		Code:         c.Code,
		Title:        c.Title,
		Credits:      c.Credits,
		Semester:     c.Semester,
		Description:  c.Description,
	}
	if c.Department != nil {
		resp.DepartmentName = c.Department.Name
	}
	return resp
}

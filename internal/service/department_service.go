package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"campus-portal/backend/internal/dto"
	"campus-portal/backend/internal/model"
	"campus-portal/backend/internal/repository"
)

// ── department module errors ──

var (
	ErrDepartmentNotFound   = errors.New("department not found")
	ErrDepartmentCodeExists = errors.New("department code already exists")
	ErrDepartmentHasCourses = errors.New("department still has courses")
)

// DepartmentService department catalogue.
type DepartmentService interface {
	Create(ctx context.Context, req *dto.CreateDepartmentRequest, callerID string) (*dto.DepartmentDetailResponse, error)
	GetByID(ctx context.Context, id string) (*dto.DepartmentDetailResponse, error)
	List(ctx context.Context) ([]dto.DepartmentDetailResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateDepartmentRequest, callerID string) (*dto.DepartmentDetailResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
}

type departmentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDepartmentService creates a DepartmentService.
func NewDepartmentService(repo *repository.Repository, logger *zap.Logger) DepartmentService {
	return &departmentService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *departmentService) Create(ctx context.Context, req *dto.CreateDepartmentRequest, callerID string) (*dto.DepartmentDetailResponse, error) {
	code := normalizeCode(req.Code)
	if err := s.ensureCodeFree(ctx, code, ""); err != nil {
		return nil, err
	}

	dept := &model.Department{
		Code:        code,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		HeadName:    strings.TrimSpace(req.HeadName),
	}
	dept.CreatedBy = strPtr(callerID)

	if err := s.repo.Department.Create(ctx, dept); err != nil {
		s.logger.Error("create department failed", zap.Error(err))
		return nil, err
	}
	resp := toDepartmentResponse(dept, 0)
	return &resp, nil
}

// ────────────────────── Read ──────────────────────

func (s *departmentService) GetByID(ctx context.Context, id string) (*dto.DepartmentDetailResponse, error) {
	dept, err := s.repo.Department.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrDepartmentNotFound
		}
		return nil, err
	}
	count, err := s.repo.Department.CountCourses(ctx, id)
	if err != nil {
		s.logger.Error("count courses failed", zap.String("department_id", id), zap.Error(err))
		return nil, err
	}
	resp := toDepartmentResponse(dept, count)
	return &resp, nil
}

func (s *departmentService) List(ctx context.Context) ([]dto.DepartmentDetailResponse, error) {
	depts, err := s.repo.Department.List(ctx)
	if err != nil {
		s.logger.Error("list departments failed", zap.Error(err))
		return nil, err
	}

	ids := make([]string, len(depts))
	for i := range depts {
		ids[i] = depts[i].DepartmentID
	}
	counts, err := s.repo.Department.BatchCountCourses(ctx, ids)
	if err != nil {
		s.logger.Error("count courses failed", zap.Error(err))
		return nil, err
	}

	list := make([]dto.DepartmentDetailResponse, 0, len(depts))
	for i := range depts {
		list = append(list, toDepartmentResponse(&depts[i], counts[depts[i].DepartmentID]))
	}
	return list, nil
}

// ────────────────────── Update ──────────────────────

func (s *departmentService) Update(ctx context.Context, id string, req *dto.UpdateDepartmentRequest, callerID string) (*dto.DepartmentDetailResponse, error) {
	dept, err := s.repo.Department.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrDepartmentNotFound
		}
		return nil, err
	}

	if req.Code != nil {
		code := normalizeCode(*req.Code)
		if code != dept.Code {
			if err := s.ensureCodeFree(ctx, code, id); err != nil {
				return nil, err
			}
			dept.Code = code
		}
	}
	if req.Name != nil {
		dept.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		dept.Description = *req.Description
	}
	if req.HeadName != nil {
		dept.HeadName = strings.TrimSpace(*req.HeadName)
	}
	dept.Version = req.Version
	dept.UpdatedBy = strPtr(callerID)

	// ErrOptimisticLock passes through to the handler
	if err := s.repo.Department.Update(ctx, dept); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// ────────────────────── Delete ──────────────────────

func (s *departmentService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.repo.Department.GetByID(ctx, id); err != nil {
		if isNotFound(err) {
			return ErrDepartmentNotFound
		}
		return err
	}
	count, err := s.repo.Department.CountCourses(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrDepartmentHasCourses
	}
	return s.repo.Department.Delete(ctx, id, callerID)
}

func (s *departmentService) ensureCodeFree(ctx context.Context, code, selfID string) error {
	existing, err := s.repo.Department.GetByCode(ctx, code)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		s.logger.Error("check department code failed", zap.Error(err))
		return err
	}
	if existing.DepartmentID != selfID {
		return ErrDepartmentCodeExists
	}
	return nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func toDepartmentResponse(d *model.Department, courses int64) dto.DepartmentDetailResponse {
	return dto.DepartmentDetailResponse{
		ID:          d.DepartmentID,
		Code:        d.Code,
		Name:        d.Name,
		Description: d.Description,
		HeadName:    d.HeadName,
		CourseCount: courses,
		Version:     d.Version,
		CreatedAt:   d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   d.UpdatedAt.Format(time.RFC3339),
	}
}

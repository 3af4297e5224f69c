package repository

import (
	"context"

	"gorm.io/gorm"

	"campus-portal/backend/internal/model"
)

// CourseListFilters filters of CourseRepository.List.
type CourseListFilters struct {
	DepartmentID string
	Semester     int
}

// CourseRepository course data access.
type CourseRepository interface {
	Create(ctx context.Context, course *model.Course) error
	GetByID(ctx context.Context, id string) (*model.Course, error)
	GetByCode(ctx context.Context, departmentID, code string) (*model.Course, error)
	List(ctx context.Context, filters *CourseListFilters) ([]model.Course, error)
	Update(ctx context.Context, course *model.Course) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo creates a CourseRepository.
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) Create(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepo) GetByID(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Preload("Department").
		Where("course_id = ?", id).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) GetByCode(ctx context.Context, departmentID, code string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Where("department_id = ? AND UPPER(code) = UPPER(?)", departmentID, code).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) List(ctx context.Context, filters *CourseListFilters) ([]model.Course, error) {
	var courses []model.Course
	db := r.db.WithContext(ctx).Preload("Department")
	if filters != nil {
		if filters.DepartmentID != "" {
			db = db.Where("department_id = ?", filters.DepartmentID)
		}
		if filters.Semester > 0 {
			db = db.Where("semester = ?", filters.Semester)
		}
	}
	err := db.Order("semester ASC, code ASC").Find(&courses).Error
	return courses, err
}

func (r *courseRepo) Update(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Omit("Department").Save(course).Error
}

func (r *courseRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("course_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

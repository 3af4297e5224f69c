package repository

import (
	"context"

	"gorm.io/gorm"

	"campus-portal/backend/internal/model"
	pkgerrors "campus-portal/backend/pkg/errors"
)

// DepartmentRepository department data access.
type DepartmentRepository interface {
	Create(ctx context.Context, dept *model.Department) error
	GetByID(ctx context.Context, id string) (*model.Department, error)
	GetByCode(ctx context.Context, code string) (*model.Department, error)
	List(ctx context.Context) ([]model.Department, error)
	Update(ctx context.Context, dept *model.Department) error
	Delete(ctx context.Context, id string, deletedBy string) error
	CountCourses(ctx context.Context, departmentID string) (int64, error)
	BatchCountCourses(ctx context.Context, departmentIDs []string) (map[string]int64, error)
}

type departmentRepo struct {
	db *gorm.DB
}

// NewDepartmentRepo creates a DepartmentRepository.
func NewDepartmentRepo(db *gorm.DB) DepartmentRepository {
	return &departmentRepo{db: db}
}

func (r *departmentRepo) Create(ctx context.Context, dept *model.Department) error {
	return r.db.WithContext(ctx).Create(dept).Error
}

func (r *departmentRepo) GetByID(ctx context.Context, id string) (*model.Department, error) {
	var dept model.Department
	err := r.db.WithContext(ctx).
		Where("department_id = ?", id).
		First(&dept).Error
	if err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepo) GetByCode(ctx context.Context, code string) (*model.Department, error) {
	var dept model.Department
	err := r.db.WithContext(ctx).
		Where("UPPER(code) = UPPER(?)", code).
		First(&dept).Error
	if err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepo) List(ctx context.Context) ([]model.Department, error) {
	var depts []model.Department
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&depts).Error
	return depts, err
}

// Update writes the editable columns when the stored version still matches.
func (r *departmentRepo) Update(ctx context.Context, dept *model.Department) error {
	oldVersion := dept.Version
	result := r.db.WithContext(ctx).
		Model(&model.Department{}).
		Where("department_id = ? AND version = ?", dept.DepartmentID, oldVersion).
		Updates(map[string]interface{}{
			"code":        dept.Code,
			"name":        dept.Name,
			"description": dept.Description,
			"head_name":   dept.HeadName,
			"updated_by":  dept.UpdatedBy,
			"updated_at":  gorm.Expr("NOW()"),
			"version":     oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	dept.Version = oldVersion + 1
	return nil
}

func (r *departmentRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Department{}).
		Where("department_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *departmentRepo) CountCourses(ctx context.Context, departmentID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("department_id = ?", departmentID).
		Count(&count).Error
	return count, err
}

func (r *departmentRepo) BatchCountCourses(ctx context.Context, departmentIDs []string) (map[string]int64, error) {
	result := make(map[string]int64, len(departmentIDs))
	if len(departmentIDs) == 0 {
		return result, nil
	}
	var rows []struct {
		DepartmentID string
		Count        int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Course{}).
		Select("department_id, COUNT(*) AS count").
		Where("department_id IN ?", departmentIDs).
		Group("department_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.DepartmentID] = row.Count
	}
	return result, nil
}

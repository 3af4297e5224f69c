package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campus-portal/backend/internal/model"
)

// RoleRepository role assignment data access.
type RoleRepository interface {
	// GetByUserID returns gorm.ErrRecordNotFound when the user has no role.
	GetByUserID(ctx context.Context, userID string) (*model.UserRole, error)
	Upsert(ctx context.Context, role *model.UserRole) error
	Delete(ctx context.Context, userID string) error
}

type roleRepo struct {
	db *gorm.DB
}

// NewRoleRepo creates a RoleRepository.
func NewRoleRepo(db *gorm.DB) RoleRepository {
	return &roleRepo{db: db}
}

func (r *roleRepo) GetByUserID(ctx context.Context, userID string) (*model.UserRole, error) {
	var role model.UserRole
	// a soft-deleted account has no role even if its row is still there
	err := r.db.WithContext(ctx).
		Joins("JOIN users ON users.user_id = user_roles.user_id AND users.deleted_at IS NULL").
		Where("user_roles.user_id = ?", userID).
		First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepo) Upsert(ctx context.Context, role *model.UserRole) error {
	role.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role", "assigned_by", "updated_at", "updated_by"}),
		}).
		Create(role).Error
}

func (r *roleRepo) Delete(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.UserRole{}).Error
}

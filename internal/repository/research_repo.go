package repository

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"campus-portal/backend/internal/model"
)

// ResearchListFilters filters of ResearchRepository.List. An empty Statuses admits all.
type ResearchListFilters struct {
	Statuses    []string
	Category    string
	Branch      string
	Department  string
	Query       string
	SubmittedBy string
}

// ResearchRepository research submission data access.
type ResearchRepository interface {
	Create(ctx context.Context, sub *model.ResearchSubmission) error
	GetByID(ctx context.Context, id string) (*model.ResearchSubmission, error)
	GetByIDUnscoped(ctx context.Context, id string) (*model.ResearchSubmission, error)
	List(ctx context.Context, filters *ResearchListFilters, offset, limit int) ([]model.ResearchSubmission, int64, error)
	UpdateReview(ctx context.Context, id, status, note, reviewerID string) error
	SoftDelete(ctx context.Context, id string, deletedBy string) error
	Restore(ctx context.Context, id string, restoredBy string) error
	Purge(ctx context.Context, id string) error
	// MediaURLs lists every document and image URL, soft-deleted rows included.
	MediaURLs(ctx context.Context) ([]string, error)
}

type researchRepo struct {
	db *gorm.DB
}

// NewResearchRepo creates a ResearchRepository.
func NewResearchRepo(db *gorm.DB) ResearchRepository {
	return &researchRepo{db: db}
}

func (r *researchRepo) Create(ctx context.Context, sub *model.ResearchSubmission) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *researchRepo) GetByID(ctx context.Context, id string) (*model.ResearchSubmission, error) {
	var sub model.ResearchSubmission
	err := r.db.WithContext(ctx).
		Where("research_id = ?", id).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *researchRepo) GetByIDUnscoped(ctx context.Context, id string) (*model.ResearchSubmission, error) {
	var sub model.ResearchSubmission
	err := r.db.WithContext(ctx).Unscoped().
		Where("research_id = ?", id).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *researchRepo) List(ctx context.Context, filters *ResearchListFilters, offset, limit int) ([]model.ResearchSubmission, int64, error) {
	var subs []model.ResearchSubmission
	var total int64

	db := r.db.WithContext(ctx).Model(&model.ResearchSubmission{})
	if filters != nil {
		if len(filters.Statuses) > 0 {
			db = db.Where("approval_status IN ?", filters.Statuses)
		}
		if filters.Category != "" {
			db = db.Where("category = ?", filters.Category)
		}
		if filters.Branch != "" {
			db = db.Where("branch = ?", filters.Branch)
		}
		if filters.Department != "" {
			db = db.Where("department = ?", filters.Department)
		}
		if filters.SubmittedBy != "" {
			db = db.Where("submitted_by = ?", filters.SubmittedBy)
		}
		if filters.Query != "" {
			like := "%" + filters.Query + "%"
			db = db.Where("(title ILIKE ? OR summary ILIKE ?)", like, like)
		}
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&subs).Error; err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}

func (r *researchRepo) UpdateReview(ctx context.Context, id, status, note, reviewerID string) error {
	result := r.db.WithContext(ctx).
		Model(&model.ResearchSubmission{}).
		Where("research_id = ?", id).
		Updates(map[string]interface{}{
			"approval_status": status,
			"review_note":     note,
			"reviewed_by":     reviewerID,
			"updated_by":      reviewerID,
			"updated_at":      gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *researchRepo) SoftDelete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.ResearchSubmission{}).
		Where("research_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *researchRepo) Restore(ctx context.Context, id string, restoredBy string) error {
	return r.db.WithContext(ctx).Unscoped().
		Model(&model.ResearchSubmission{}).
		Where("research_id = ? AND deleted_at IS NOT NULL", id).
		Updates(map[string]interface{}{
			"deleted_at": nil,
			"deleted_by": nil,
			"updated_by": restoredBy,
		}).Error
}

func (r *researchRepo) Purge(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Unscoped().
		Where("research_id = ?", id).
		Delete(&model.ResearchSubmission{}).Error
}

func (r *researchRepo) MediaURLs(ctx context.Context) ([]string, error) {
	var rows []struct {
		DocumentURLs datatypes.JSONSlice[string] `gorm:"column:document_urls"`
		ImageURLs    datatypes.JSONSlice[string] `gorm:"column:image_urls"`
	}
	err := r.db.WithContext(ctx).Unscoped().
		Model(&model.ResearchSubmission{}).
		Select("document_urls, image_urls").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	var urls []string
	for _, row := range rows {
		urls = append(urls, row.DocumentURLs...)
		urls = append(urls, row.ImageURLs...)
	}
	return urls, nil
}

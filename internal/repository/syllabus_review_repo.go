package repository

import (
	"context"

	"gorm.io/gorm"

	"campus-portal/backend/internal/model"
)

// SyllabusReviewFilters filters shared by list, summary and export.
type SyllabusReviewFilters struct {
	Branch   string
	Semester int
	Section  string
	Teacher  string
}

// SyllabusReviewRepository syllabus feedback data access.
type SyllabusReviewRepository interface {
	Create(ctx context.Context, review *model.SyllabusReview) error
	// List pages through matching reviews; limit <= 0 returns all of them.
	List(ctx context.Context, filters *SyllabusReviewFilters, offset, limit int) ([]model.SyllabusReview, int64, error)
	Summary(ctx context.Context, filters *SyllabusReviewFilters) ([]model.SyllabusReviewSummary, error)
}

type syllabusReviewRepo struct {
	db *gorm.DB
}

// NewSyllabusReviewRepo creates a SyllabusReviewRepository.
func NewSyllabusReviewRepo(db *gorm.DB) SyllabusReviewRepository {
	return &syllabusReviewRepo{db: db}
}

func (r *syllabusReviewRepo) Create(ctx context.Context, review *model.SyllabusReview) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *syllabusReviewRepo) scope(db *gorm.DB, f *SyllabusReviewFilters) *gorm.DB {
	if f == nil {
		return db
	}
	if f.Branch != "" {
		db = db.Where("branch = ?", f.Branch)
	}
	if f.Semester > 0 {
		db = db.Where("semester = ?", f.Semester)
	}
	if f.Section != "" {
		db = db.Where("section = ?", f.Section)
	}
	if f.Teacher != "" {
		db = db.Where("teacher_name ILIKE ?", "%"+f.Teacher+"%")
	}
	return db
}

func (r *syllabusReviewRepo) List(ctx context.Context, filters *SyllabusReviewFilters, offset, limit int) ([]model.SyllabusReview, int64, error) {
	var reviews []model.SyllabusReview
	var total int64

	db := r.scope(r.db.WithContext(ctx).Model(&model.SyllabusReview{}), filters)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	db = db.Order("created_at DESC")
	if limit > 0 {
		db = db.Offset(offset).Limit(limit)
	}
	if err := db.Find(&reviews).Error; err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (r *syllabusReviewRepo) Summary(ctx context.Context, filters *SyllabusReviewFilters) ([]model.SyllabusReviewSummary, error) {
	var rows []model.SyllabusReviewSummary
	err := r.scope(r.db.WithContext(ctx).Model(&model.SyllabusReview{}), filters).
		Select(`teacher_name, subject, COUNT(*) AS responses,
			AVG(coverage) AS avg_coverage, AVG(pace) AS avg_pace, AVG(clarity) AS avg_clarity,
			AVG(resources) AS avg_resources, AVG(overall) AS avg_overall`).
		Group("teacher_name, subject").
		Order("teacher_name ASC, subject ASC").
		Scan(&rows).Error
	return rows, err
}

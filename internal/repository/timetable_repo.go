package repository

import (
	"context"

	"gorm.io/gorm"

	"campus-portal/backend/internal/model"
)

// Section identifies one class group.
type Section struct {
	Branch   string
	Semester int
	Section  string
}

// TimetableRepository timetable data access.
type TimetableRepository interface {
	ListBySection(ctx context.Context, s Section) ([]model.TimetableEntry, error)
	// ReplaceBySection swaps the section's entries for entries in one transaction.
	ReplaceBySection(ctx context.Context, s Section, entries []model.TimetableEntry) error
}

type timetableRepo struct {
	db *gorm.DB
}

// NewTimetableRepo creates a TimetableRepository.
func NewTimetableRepo(db *gorm.DB) TimetableRepository {
	return &timetableRepo{db: db}
}

func (r *timetableRepo) ListBySection(ctx context.Context, s Section) ([]model.TimetableEntry, error) {
	var entries []model.TimetableEntry
	err := r.db.WithContext(ctx).
		Where("branch = ? AND semester = ? AND section = ?", s.Branch, s.Semester, s.Section).
		Order("day_of_week ASC, start_time ASC").
		Find(&entries).Error
	return entries, err
}

func (r *timetableRepo) ReplaceBySection(ctx context.Context, s Section, entries []model.TimetableEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// entries are derived data, a hard delete is enough
		if err := tx.Where("branch = ? AND semester = ? AND section = ?", s.Branch, s.Semester, s.Section).
			Delete(&model.TimetableEntry{}).Error; err != nil {
			return err
		}
		if len(entries) > 0 {
			if err := tx.Create(&entries).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository aggregates every repository.
type Repository struct {
	db *gorm.DB

	User           UserRepository
	Role           RoleRepository
	Department     DepartmentRepository
	Course         CourseRepository
	Event          EventRepository
	Research       ResearchRepository
	SyllabusReview SyllabusReviewRepository
	Attendance     AttendanceRepository
	Timetable      TimetableRepository
}

// NewRepository builds the aggregate on db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:             db,
		User:           NewUserRepo(db),
		Role:           NewRoleRepo(db),
		Department:     NewDepartmentRepo(db),
		Course:         NewCourseRepo(db),
		Event:          NewEventRepo(db),
		Research:       NewResearchRepo(db),
		SyllabusReview: NewSyllabusReviewRepo(db),
		Attendance:     NewAttendanceRepo(db),
		Timetable:      NewTimetableRepo(db),
	}
}

// BeginTx opens a transaction. The caller commits or rolls back.
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx returns an aggregate whose repositories run inside tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Transaction runs fn inside a transaction, committing when it returns nil.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

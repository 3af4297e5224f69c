package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campus-portal/backend/internal/model"
)

// AttendanceFilters filters shared by list, summary and export. StudentRoll pins the query to
// one student.
type AttendanceFilters struct {
	CourseCode  string
	Branch      string
	Semester    int
	Section     string
	Status      string
	StudentRoll string
	From        *time.Time
	To          *time.Time
	Query       string
}

// AttendanceRepository attendance data access.
type AttendanceRepository interface {
	// BatchUpsert inserts the marks, overwriting the status of a student already marked for
	// the same course and date.
	BatchUpsert(ctx context.Context, records []model.AttendanceRecord) error
	List(ctx context.Context, filters *AttendanceFilters, offset, limit int) ([]model.AttendanceRecord, int64, error)
	Summary(ctx context.Context, filters *AttendanceFilters) ([]model.AttendanceSummary, error)
}

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo creates an AttendanceRepository.
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) BatchUpsert(ctx context.Context, records []model.AttendanceRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_roll"}, {Name: "course_code"}, {Name: "class_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "student_name", "recorded_by", "updated_at", "updated_by"}),
		}).
		CreateInBatches(&records, 200).Error
}

func (r *attendanceRepo) scope(db *gorm.DB, f *AttendanceFilters) *gorm.DB {
	if f == nil {
		return db
	}
	if f.CourseCode != "" {
		db = db.Where("course_code = ?", f.CourseCode)
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
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.StudentRoll != "" {
		db = db.Where("student_roll = ?", f.StudentRoll)
	}
	if f.From != nil {
		db = db.Where("class_date >= ?", *f.From)
	}
	if f.To != nil {
		db = db.Where("class_date <= ?", *f.To)
	}
	if f.Query != "" {
		like := "%" + f.Query + "%"
		db = db.Where("(student_roll ILIKE ? OR student_name ILIKE ?)", like, like)
	}
	return db
}

func (r *attendanceRepo) List(ctx context.Context, filters *AttendanceFilters, offset, limit int) ([]model.AttendanceRecord, int64, error) {
	var records []model.AttendanceRecord
	var total int64

	db := r.scope(r.db.WithContext(ctx).Model(&model.AttendanceRecord{}), filters)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	db = db.Order("class_date DESC, student_roll ASC")
	if limit > 0 {
		db = db.Offset(offset).Limit(limit)
	}
	if err := db.Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// Summary counts late marks as attended.
func (r *attendanceRepo) Summary(ctx context.Context, filters *AttendanceFilters) ([]model.AttendanceSummary, error) {
	var rows []model.AttendanceSummary
	err := r.scope(r.db.WithContext(ctx).Model(&model.AttendanceRecord{}), filters).
		Select(`student_roll, MAX(student_name) AS student_name, course_code,
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'present') AS present,
			COUNT(*) FILTER (WHERE status = 'late') AS late,
			COUNT(*) FILTER (WHERE status = 'absent') AS absent,
			ROUND(100.0 * COUNT(*) FILTER (WHERE status <> 'absent') / COUNT(*), 2) AS percentage`).
		Group("student_roll, course_code").
		Order("student_roll ASC, course_code ASC").
		Scan(&rows).Error
	return rows, err
}

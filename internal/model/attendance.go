package model

import "time"

// Attendance statuses.
const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceLate    = "late"
)

// AttendanceRecord one student's mark for one class, table attendance_records.
type AttendanceRecord struct {
	RecordID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"record_id"`
	StudentRoll string    `gorm:"type:varchar(30);not null;index"                json:"student_roll"`
	StudentName string    `gorm:"type:varchar(100);not null"                     json:"student_name"`
	CourseCode  string    `gorm:"type:varchar(20);not null;index"                json:"course_code"`
	CourseName  string    `gorm:"type:varchar(150);not null"                     json:"course_name"`
	Branch      string    `gorm:"type:varchar(100);not null"                     json:"branch"`
	Semester    int       `gorm:"not null"                                       json:"semester"`
	Section     string    `gorm:"type:varchar(10);not null"                      json:"section"`
	ClassDate   time.Time `gorm:"type:date;not null"                             json:"class_date"`
	Status      string    `gorm:"type:varchar(10);not null"                      json:"status"`
	RecordedBy  string    `gorm:"type:uuid;not null"                             json:"recorded_by"`
	BaseModel
}

// TableName table name.
func (AttendanceRecord) TableName() string { return "attendance_records" }

// AttendanceSummary per student and course.
type AttendanceSummary struct {
	StudentRoll string  `json:"student_roll"`
	StudentName string  `json:"student_name"`
	CourseCode  string  `json:"course_code"`
	Total       int64   `json:"total"`
	Present     int64   `json:"present"`
	Late        int64   `json:"late"`
	Absent      int64   `json:"absent"`
	Percentage  float64 `json:"percentage"`
}

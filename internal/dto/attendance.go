package dto

// ── attendance ──

// AttendanceEntry one student's mark.
type AttendanceEntry struct {
	StudentRoll string `json:"student_roll" binding:"required,notblank,max=30"`
	StudentName string `json:"student_name" binding:"required,notblank,max=100"`
	Status      string `json:"status"       binding:"required,oneof=present absent late"`
}

// RecordAttendanceRequest POST /attendance: one class, many students.
type RecordAttendanceRequest struct {
	CourseCode string            `json:"course_code" binding:"required,notblank,max=20"`
	CourseName string            `json:"course_name" binding:"required,notblank,max=150"`
	Branch     string            `json:"branch"      binding:"required,notblank,max=100"`
	Semester   int               `json:"semester"    binding:"required,min=1,max=8"`
	Section    string            `json:"section"     binding:"required,notblank,max=10"`
	ClassDate  string            `json:"class_date"  binding:"required,datetime=2006-01-02"`
	Entries    []AttendanceEntry `json:"entries"     binding:"required,min=1,max=500,dive"`
}

// RecordAttendanceResponse result of a batch.
type RecordAttendanceResponse struct {
	Recorded int `json:"recorded"`
}

// AttendanceListRequest GET /attendance, also the filter of summary and export.
type AttendanceListRequest struct {
	PaginationRequest
	CourseCode string `form:"course_code" binding:"omitempty,max=20"`
	Branch     string `form:"branch"      binding:"omitempty,max=100"`
	Semester   int    `form:"semester"    binding:"omitempty,min=1,max=8"`
	Section    string `form:"section"     binding:"omitempty,max=10"`
	Status     string `form:"status"      binding:"omitempty,oneof=present absent late"`
	From       string `form:"from"        binding:"omitempty,datetime=2006-01-02"`
	To         string `form:"to"          binding:"omitempty,datetime=2006-01-02"`
	Q          string `form:"q"           binding:"omitempty,max=100"`
}

package dto

// ── timetables ──

// ImportTimetableRequest form fields of POST /timetables/import. The ICS file is the "file"
// part; without one the calendar is downloaded from URL.
type ImportTimetableRequest struct {
	Branch    string `form:"branch"     binding:"required,notblank,max=100"`
	Semester  int    `form:"semester"   binding:"required,min=1,max=8"`
	Section   string `form:"section"    binding:"required,notblank,max=10"`
	TermStart string `form:"term_start" binding:"required,datetime=2006-01-02"`
	TermEnd   string `form:"term_end"   binding:"required,datetime=2006-01-02"`
	URL       string `form:"url"        binding:"omitempty,max=2000"`
}

// ImportTimetableResponse result of an import.
type ImportTimetableResponse struct {
	ImportedCount int                      `json:"imported_count"`
	Entries       []TimetableEntryResponse `json:"entries"`
}

// TimetableListRequest GET /timetables.
type TimetableListRequest struct {
	Branch   string `form:"branch"   binding:"required,max=100"`
	Semester int    `form:"semester" binding:"required,min=1,max=8"`
	Section  string `form:"section"  binding:"required,max=10"`
}

// TimetableEntryResponse one weekly slot.
type TimetableEntryResponse struct {
	ID         string `json:"id,omitempty"`
	CourseName string `json:"course_name"`
	DayOfWeek  int    `json:"day_of_week"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Weeks      []int  `json:"weeks"`
	WeekType   string `json:"week_type"`
	Room       string `json:"room,omitempty"`
	Source     string `json:"source"`
}

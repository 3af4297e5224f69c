package dto

// ── syllabus reviews ──

// SubmitSyllabusReviewRequest POST /syllabus-reviews. Ratings are 1-5.
type SubmitSyllabusReviewRequest struct {
	Branch      string `json:"branch"       binding:"required,notblank,max=100"`
	Semester    int    `json:"semester"     binding:"required,min=1,max=8"`
	Section     string `json:"section"      binding:"required,notblank,max=10"`
	TeacherName string `json:"teacher_name" binding:"required,notblank,max=100"`
	Subject     string `json:"subject"      binding:"required,notblank,max=150"`
	Coverage    int    `json:"coverage"     binding:"required,min=1,max=5"`
	Pace        int    `json:"pace"         binding:"required,min=1,max=5"`
	Clarity     int    `json:"clarity"      binding:"required,min=1,max=5"`
	Resources   int    `json:"resources"    binding:"required,min=1,max=5"`
	Overall     int    `json:"overall"      binding:"required,min=1,max=5"`
	Comments    string `json:"comments"     binding:"omitempty,max=2000"`
}

// SyllabusReviewFilter query of list, summary and export.
type SyllabusReviewFilter struct {
	PaginationRequest
	Branch   string `form:"branch"   binding:"omitempty,max=100"`
	Semester int    `form:"semester" binding:"omitempty,min=1,max=8"`
	Section  string `form:"section"  binding:"omitempty,max=10"`
	Teacher  string `form:"teacher"  binding:"omitempty,max=100"`
}

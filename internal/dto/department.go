package dto

// ── departments ──

// CreateDepartmentRequest POST /departments.
type CreateDepartmentRequest struct {
	Code        string `json:"code"        binding:"required,notblank,max=20"`
	Name        string `json:"name"        binding:"required,notblank,min=2,max=100"`
	Description string `json:"description" binding:"omitempty,max=2000"`
	HeadName    string `json:"head_name"   binding:"omitempty,max=100"`
}

// UpdateDepartmentRequest PUT /departments/:id. Version guards concurrent edits.
type UpdateDepartmentRequest struct {
	Code        *string `json:"code"        binding:"omitempty,notblank,max=20"`
	Name        *string `json:"name"        binding:"omitempty,notblank,min=2,max=100"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	HeadName    *string `json:"head_name"   binding:"omitempty,max=100"`
	Version     int     `json:"version"     binding:"required,min=1"`
}

// DepartmentDetailResponse department view.
type DepartmentDetailResponse struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	HeadName    string `json:"head_name,omitempty"`
	CourseCount int64  `json:"course_count"`
	Version     int    `json:"version"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// ── courses ──

// CreateCourseRequest POST /courses.
type CreateCourseRequest struct {
	DepartmentID string `json:"department_id" binding:"required,uuid"`
	Code         string `json:"code"          binding:"required,notblank,max=20"`
	Title        string `json:"title"         binding:"required,notblank,max=150"`
	Credits      int    `json:"credits"       binding:"omitempty,min=0,max=30"`
	Semester     int    `json:"semester"      binding:"required,min=1,max=8"`
	Description  string `json:"description"   binding:"omitempty,max=2000"`
}

// UpdateCourseRequest PUT /courses/:id.
type UpdateCourseRequest struct {
	Code        *string `json:"code"        binding:"omitempty,notblank,max=20"`
	Title       *string `json:"title"       binding:"omitempty,notblank,max=150"`
	Credits     *int    `json:"credits"     binding:"omitempty,min=0,max=30"`
	Semester    *int    `json:"semester"    binding:"omitempty,min=1,max=8"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
}

// CourseListRequest GET /courses.
type CourseListRequest struct {
	DepartmentID string `form:"department_id" binding:"omitempty,uuid"`
	Semester     int    `form:"semester"      binding:"omitempty,min=1,max=8"`
}

// CourseResponse course view.
type CourseResponse struct {
	ID             string `json:"id"`
	DepartmentID   string `json:"department_id"`
	DepartmentName string `json:"department_name,omitempty"`
	Code           string `json:"code"`
	Title          string `json:"title"`
	Credits        int    `json:"credits"`
	Semester       int    `json:"semester"`
	Description    string `json:"description,omitempty"`
}

package model

// SyllabusReview one feedback form response, table syllabus_reviews.
type SyllabusReview struct {
	ReviewID    string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"review_id"`
	Branch      string `gorm:"type:varchar(100);not null;index:idx_syllabus_scope" json:"branch"`
	Semester    int    `gorm:"not null;index:idx_syllabus_scope"              json:"semester"`
	Section     string `gorm:"type:varchar(10);not null;index:idx_syllabus_scope" json:"section"`
	TeacherName string `gorm:"type:varchar(100);not null"                     json:"teacher_name"`
	Subject     string `gorm:"type:varchar(150);not null"                     json:"subject"`
	Coverage    int    `gorm:"not null"                                       json:"coverage"`
	Pace        int    `gorm:"not null"                                       json:"pace"`
	Clarity     int    `gorm:"not null"                                       json:"clarity"`
	Resources   int    `gorm:"not null"                                       json:"resources"`
	Overall     int    `gorm:"not null"                                       json:"overall"`
	Comments    string `gorm:"type:text"                                      json:"comments,omitempty"`
	SubmittedBy string `gorm:"type:uuid;not null"                             json:"submitted_by"`
	BaseModel
}

// TableName table name.
func (SyllabusReview) TableName() string { return "syllabus_reviews" }

// SyllabusReviewSummary averages for one teacher and subject.
type SyllabusReviewSummary struct {
	TeacherName  string  `json:"teacher_name"`
	Subject      string  `json:"subject"`
	Responses    int64   `json:"responses"`
	AvgCoverage  float64 `json:"avg_coverage"`
	AvgPace      float64 `json:"avg_pace"`
	AvgClarity   float64 `json:"avg_clarity"`
	AvgResources float64 `json:"avg_resources"`
	AvgOverall   float64 `json:"avg_overall"`
}

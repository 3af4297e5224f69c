package model

// Department academic department, table departments.
type Department struct {
	DepartmentID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"department_id"`
	Code         string `gorm:"type:varchar(20);not null;uniqueIndex"          json:"code"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	Description  string `gorm:"type:text"                                      json:"description,omitempty"`
	HeadName     string `gorm:"type:varchar(100)"                              json:"head_name,omitempty"`
	VersionedModel

	Courses []Course `gorm:"foreignKey:DepartmentID;references:DepartmentID" json:"courses,omitempty"`
}

// TableName table name.
func (Department) TableName() string { return "departments" }

// Course is stored in table courses.
type Course struct {
	CourseID     string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_id"`
	DepartmentID string `gorm:"type:uuid;not null;index"                       json:"department_id"`
	Code         string `gorm:"type:varchar(20);not null"                      json:"code"`
	Title        string `gorm:"type:varchar(150);not null"                     json:"title"`
	Credits      int    `gorm:"not null;default:0"                             json:"credits"`
	Semester     int    `gorm:"not null"                                       json:"semester"`
	Description  string `gorm:"type:text"                                      json:"description,omitempty"`
	SoftDeleteModel

	Department *Department `gorm:"foreignKey:DepartmentID;references:DepartmentID" json:"department,omitempty"`
}

// TableName table name.
func (Course) TableName() string { return "courses" }

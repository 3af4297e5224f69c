package model

// TimetableEntry one weekly class slot of a section, table timetable_entries.
type TimetableEntry struct {
	EntryID    string   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"entry_id"`
	Branch     string   `gorm:"type:varchar(100);not null;index:idx_timetable_section" json:"branch"`
	Semester   int      `gorm:"not null;index:idx_timetable_section"           json:"semester"`
	Section    string   `gorm:"type:varchar(10);not null;index:idx_timetable_section" json:"section"`
	CourseName string   `gorm:"type:varchar(150);not null"                     json:"course_name"`
	DayOfWeek  int      `gorm:"not null"                                       json:"day_of_week"`
	StartTime  string   `gorm:"type:varchar(5);not null"                       json:"start_time"`
	EndTime    string   `gorm:"type:varchar(5);not null"                       json:"end_time"`
	Weeks      IntArray `gorm:"type:int[]"                                     json:"weeks"`
	WeekType   string   `gorm:"type:varchar(10);not null;default:'all'"        json:"week_type"`
	Room       string   `gorm:"type:varchar(50)"                               json:"room,omitempty"`
	Source     string   `gorm:"type:varchar(10);not null;default:'manual'"     json:"source"`
	BaseModel
}

// TableName table name.
func (TimetableEntry) TableName() string { return "timetable_entries" }

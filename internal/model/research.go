package model

import "gorm.io/datatypes"

// Research categories and approval states.
const (
	ResearchCategoryProject    = "project"
	ResearchCategoryPaper      = "paper"
	ResearchCategoryThesis     = "thesis"
	ResearchCategoryPatent     = "patent"
	ResearchCategoryInnovation = "innovation"
	ResearchCategoryOther      = "other"

	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"

	SubmitterStudent = "student"
	SubmitterFaculty = "faculty"
)

// Contributor one person credited on a submission. Students carry a roll number, faculty a
// designation.
type Contributor struct {
	Name        string `json:"name"`
	RollNumber  string `json:"roll_number,omitempty"`
	Designation string `json:"designation,omitempty"`
}

// ExternalLink a titled link to material hosted elsewhere.
type ExternalLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ResearchSubmission is stored in table research_submissions.
type ResearchSubmission struct {
	ResearchID     string                            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"          json:"research_id"`
	Title          string                            `gorm:"type:varchar(250);not null"                              json:"title"`
	Category       string                            `gorm:"type:varchar(20);not null"                               json:"category"`
	Summary        string                            `gorm:"type:text;not null"                                      json:"summary"`
	Description    string                            `gorm:"type:text;not null"                                      json:"description"`
	Methodology    string                            `gorm:"type:text"                                               json:"methodology,omitempty"`
	SubmitterType  string                            `gorm:"type:varchar(20);not null"                               json:"submitter_type"`
	Branch         string                            `gorm:"type:varchar(100);not null"                              json:"branch"`
	Department     string                            `gorm:"type:varchar(100);not null"                              json:"department"`
	ContactEmail   string                            `gorm:"type:varchar(255);not null"                              json:"contact_email"`
	Contributors   datatypes.JSONSlice[Contributor]  `gorm:"type:jsonb;not null;default:'[]'"                        json:"contributors"`
	Tools          datatypes.JSONSlice[string]       `gorm:"type:jsonb;not null;default:'[]'"                        json:"tools"`
	DocumentURLs   datatypes.JSONSlice[string]       `gorm:"column:document_urls;type:jsonb;not null;default:'[]'"   json:"document_urls"`
	ImageURLs      datatypes.JSONSlice[string]       `gorm:"column:image_urls;type:jsonb;not null;default:'[]'"      json:"image_urls"`
	ExternalLinks  datatypes.JSONSlice[ExternalLink] `gorm:"type:jsonb;not null;default:'[]'"                        json:"external_links"`
	ApprovalStatus string                            `gorm:"type:varchar(20);not null;default:'pending'"             json:"approval_status"`
	ReviewNote     string                            `gorm:"type:text"                                               json:"review_note,omitempty"`
	ReviewedBy     *string                           `gorm:"type:uuid"                                               json:"reviewed_by,omitempty"`
	SubmittedBy    string                            `gorm:"type:uuid;not null;index"                                json:"submitted_by"`
	SoftDeleteModel
}

// TableName table name.
func (ResearchSubmission) TableName() string { return "research_submissions" }

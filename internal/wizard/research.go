package wizard

import (
	"slices"
	"strings"

	"campus-portal/backend/internal/model"
)

// Research wizard steps.
const (
	ResearchStepGettingStarted = iota + 1
	ResearchStepBasicInfo
	ResearchStepDetails
	ResearchStepMedia
	ResearchStepReview

	ResearchSteps = ResearchStepReview
)

var researchStepTitles = map[int]string{
	ResearchStepGettingStarted: "Getting Started",
	ResearchStepBasicInfo:      "Basic Information",
	ResearchStepDetails:        "Research Details",
	ResearchStepMedia:          "Media & Documents",
	ResearchStepReview:         "Review",
}

// Upload stage names of a research submission.
const (
	StageDocuments = "documents"
	StageImages    = "images"
	StageBrochures = "brochures"
)

var (
	researchCategories = []string{
		model.ResearchCategoryProject, model.ResearchCategoryPaper, model.ResearchCategoryThesis,
		model.ResearchCategoryPatent, model.ResearchCategoryInnovation, model.ResearchCategoryOther,
	}
	submitterTypes = []string{model.SubmitterStudent, model.SubmitterFaculty}
)

// ResearchDraft is the in-memory state of the research upload wizard. Contributor columns,
// tools and link columns are repeatable groups.
type ResearchDraft struct {
	SubmitterType string `json:"submitter_type" yaml:"submitter_type"`

	Title        string `json:"title"         yaml:"title"`
	Category     string `json:"category"      yaml:"category"`
	Summary      string `json:"summary"       yaml:"summary"`
	Branch       string `json:"branch"        yaml:"branch"`
	Department   string `json:"department"    yaml:"department"`
	ContactEmail string `json:"contact_email" yaml:"contact_email"`

	ContributorNames        []string `json:"contributor_names"        yaml:"contributor_names"`
	ContributorRolls        []string `json:"contributor_rolls"        yaml:"contributor_rolls"`
	ContributorDesignations []string `json:"contributor_designations" yaml:"contributor_designations"`

	Description string   `json:"description" yaml:"description"`
	Methodology string   `json:"methodology" yaml:"methodology"`
	Tools       []string `json:"tools"       yaml:"tools"`

	LinkTitles []string `json:"link_titles" yaml:"link_titles"`
	LinkURLs   []string `json:"link_urls"   yaml:"link_urls"`

	DeclarationAccepted bool `json:"declaration_accepted" yaml:"declaration_accepted"`

	Documents []File `json:"-" yaml:"-"`
	Images    []File `json:"-" yaml:"-"`

	// SubmittedBy is set by the server from the authenticated caller.
	SubmittedBy string `json:"-" yaml:"-"`
}

// NewResearchDraft returns an empty draft with one slot in every group.
func NewResearchDraft() *ResearchDraft {
	d := &ResearchDraft{}
	d.Normalize()
	return d
}

// Normalize restores the group invariants on a draft decoded from outside: parallel columns
// of equal length, never fewer than one slot.
func (d *ResearchDraft) Normalize() {
	equalize(&d.ContributorNames, &d.ContributorRolls, &d.ContributorDesignations)
	equalize(&d.Tools)
	equalize(&d.LinkTitles, &d.LinkURLs)
}

func (d *ResearchDraft) Steps() int { return ResearchSteps }

// StepTitle names a step for display.
func (d *ResearchDraft) StepTitle(step int) string { return researchStepTitles[step] }

// CanAdvance reports whether every required field of step is filled.
func (d *ResearchDraft) CanAdvance(step int) bool {
	switch step {
	case ResearchStepGettingStarted:
		return !blank(d.SubmitterType)
	case ResearchStepBasicInfo:
		return !blank(d.Title) && !blank(d.Category) && !blank(d.Summary) &&
			!blank(d.Branch) && !blank(d.Department) && !blank(d.ContactEmail) &&
			anyFilled(d.ContributorNames)
	case ResearchStepDetails:
		return !blank(d.Description) && !blank(d.Methodology) && anyFilled(d.Tools)
	case ResearchStepMedia:
		return true
	case ResearchStepReview:
		if !d.DeclarationAccepted {
			return false
		}
		for i := range d.LinkTitles {
			if !blank(d.LinkTitles[i]) && blank(at(d.LinkURLs, i)) {
				return false
			}
		}
		return true
	}
	return false
}

// Problems lists field-level errors, the stricter check the server applies: required
// fields plus enum membership and address formats. Keys use the JSON field names.
func (d *ResearchDraft) Problems() map[string]string {
	p := make(map[string]string)
	if blank(d.SubmitterType) {
		p["submitter_type"] = "submitter_type is required"
	} else if !slices.Contains(submitterTypes, strings.TrimSpace(d.SubmitterType)) {
		p["submitter_type"] = "submitter_type must be one of student, faculty"
	}

	required := map[string]string{
		"title":       d.Title,
		"summary":     d.Summary,
		"branch":      d.Branch,
		"department":  d.Department,
		"description": d.Description,
		"methodology": d.Methodology,
	}
	for field, v := range required {
		if blank(v) {
			p[field] = field + " must not be blank"
		}
	}
	if blank(d.Category) {
		p["category"] = "category is required"
	} else if !slices.Contains(researchCategories, strings.TrimSpace(d.Category)) {
		p["category"] = "category must be one of " + strings.Join(researchCategories, ", ")
	}
	if !validEmail(d.ContactEmail) {
		p["contact_email"] = "contact_email must be a valid email address"
	}
	if !anyFilled(d.ContributorNames) {
		p["contributor_names"] = "at least one contributor name is required"
	}
	if !anyFilled(d.Tools) {
		p["tools"] = "at least one tool is required"
	}
	for i := range d.LinkTitles {
		u := at(d.LinkURLs, i)
		switch {
		case !blank(d.LinkTitles[i]) && blank(u):
			p[indexed("link_urls", i)] = "url is required when a title is given"
		case !blank(u) && !validURL(u):
			p[indexed("link_urls", i)] = "url must be a valid URL"
		}
	}
	if !d.DeclarationAccepted {
		p["declaration_accepted"] = "the declaration must be accepted"
	}
	if len(p) == 0 {
		return nil
	}
	return p
}

// AddEntry appends an empty slot to every column of g.
func (d *ResearchDraft) AddEntry(g Group) error {
	switch g {
	case GroupContributors:
		addEntry(&d.ContributorNames, &d.ContributorRolls, &d.ContributorDesignations)
	case GroupTools:
		addEntry(&d.Tools)
	case GroupLinks:
		addEntry(&d.LinkTitles, &d.LinkURLs)
	default:
		return ErrUnknownGroup
	}
	return nil
}

// RemoveEntry drops slot index from every column of g. The last slot cannot be removed.
func (d *ResearchDraft) RemoveEntry(g Group, index int) error {
	switch g {
	case GroupContributors:
		return removeEntry(index, &d.ContributorNames, &d.ContributorRolls, &d.ContributorDesignations)
	case GroupTools:
		return removeEntry(index, &d.Tools)
	case GroupLinks:
		return removeEntry(index, &d.LinkTitles, &d.LinkURLs)
	}
	return ErrUnknownGroup
}

// EntryCount is the number of slots in g.
func (d *ResearchDraft) EntryCount(g Group) int {
	switch g {
	case GroupContributors:
		return len(d.ContributorNames)
	case GroupTools:
		return len(d.Tools)
	case GroupLinks:
		return len(d.LinkTitles)
	}
	return 0
}

// Stages uploads documents before images, each in selection order.
func (d *ResearchDraft) Stages() []Stage {
	return []Stage{
		{Name: StageDocuments, Folder: "documents", Kind: "document", Files: d.Documents},
		{Name: StageImages, Folder: "images", Kind: "image", Files: d.Images},
	}
}

// Payload builds the record from the scalars, the non-blank entries and the uploaded URLs.
func (d *ResearchDraft) Payload(urls map[string][]string) (*model.ResearchSubmission, error) {
	contributors := []model.Contributor{}
	for i, name := range d.ContributorNames {
		if blank(name) {
			continue
		}
		c := model.Contributor{Name: strings.TrimSpace(name)}
		if strings.TrimSpace(d.SubmitterType) == model.SubmitterFaculty {
			c.Designation = at(d.ContributorDesignations, i)
		} else {
			c.RollNumber = at(d.ContributorRolls, i)
		}
		contributors = append(contributors, c)
	}

	links := []model.ExternalLink{}
	for i, u := range d.LinkURLs {
		if blank(u) {
			continue
		}
		links = append(links, model.ExternalLink{Title: at(d.LinkTitles, i), URL: strings.TrimSpace(u)})
	}

	return &model.ResearchSubmission{
		Title:          strings.TrimSpace(d.Title),
		Category:       strings.TrimSpace(d.Category),
		Summary:        strings.TrimSpace(d.Summary),
		Description:    strings.TrimSpace(d.Description),
		Methodology:    strings.TrimSpace(d.Methodology),
		SubmitterType:  strings.TrimSpace(d.SubmitterType),
		Branch:         strings.TrimSpace(d.Branch),
		Department:     strings.TrimSpace(d.Department),
		ContactEmail:   strings.TrimSpace(d.ContactEmail),
		Contributors:   contributors,
		Tools:          nonBlank(d.Tools),
		DocumentURLs:   append([]string{}, urls[StageDocuments]...),
		ImageURLs:      append([]string{}, urls[StageImages]...),
		ExternalLinks:  links,
		ApprovalStatus: model.ApprovalPending,
		SubmittedBy:    d.SubmittedBy,
	}, nil
}

package dto

import (
	"encoding/json"

	"campus-portal/backend/internal/model"
	"campus-portal/backend/internal/wizard"
)

// ── research submissions ──

// ResearchSubmitRequest the "payload" part of POST /research. It is the wizard draft; links
// may come either as the parallel link_titles/link_urls columns or as external_links.
type ResearchSubmitRequest struct {
	wizard.ResearchDraft
	ExternalLinks json.RawMessage `json:"external_links,omitempty"`
}

// DecodeResearchSubmit strictly decodes raw into a normalized draft.
func DecodeResearchSubmit(raw []byte) (*wizard.ResearchDraft, error) {
	var req ResearchSubmitRequest
	if err := DecodeStrict(raw, &req); err != nil {
		return nil, FieldErrors{"payload": err.Error()}
	}
	d := req.ResearchDraft
	if !isNull(req.ExternalLinks) {
		links, err := ParseExternalLinks("external_links", req.ExternalLinks)
		if err != nil {
			return nil, err
		}
		d.LinkTitles, d.LinkURLs = nil, nil
		for _, l := range links {
			d.LinkTitles = append(d.LinkTitles, l.Title)
			d.LinkURLs = append(d.LinkURLs, l.URL)
		}
	}
	d.Normalize()
	return &d, nil
}

// ResearchListRequest GET /research.
type ResearchListRequest struct {
	PaginationRequest
	Status     string `form:"status"     binding:"omitempty,oneof=pending approved rejected"`
	Category   string `form:"category"   binding:"omitempty,oneof=project paper thesis patent innovation other"`
	Branch     string `form:"branch"     binding:"omitempty,max=100"`
	Department string `form:"department" binding:"omitempty,max=100"`
	Q          string `form:"q"          binding:"omitempty,max=100"`
}

// ReviewResearchRequest PUT /research/:id/review.
type ReviewResearchRequest struct {
	Status string `json:"status" binding:"required,oneof=pending approved rejected"`
	Note   string `json:"note"   binding:"omitempty,max=2000"`
}

// ResearchResponse a submission plus the caller's management actions.
type ResearchResponse struct {
	*model.ResearchSubmission
	Actions []string `json:"actions,omitempty"`
}

// SubmitResponse id of a created record.
type SubmitResponse struct {
	ID string `json:"id"`
}

package service

import (
	"context"
	"errors"
	"testing"

	"campus-portal/backend/config"
	"campus-portal/backend/internal/dto"
	"campus-portal/backend/internal/model"
	"campus-portal/backend/internal/wizard"
)

func validResearchDraft() *wizard.ResearchDraft {
	d := wizard.NewResearchDraft()
	d.SubmitterType = model.SubmitterStudent
	d.Title = "Low-cost soil moisture sensing"
	d.Category = model.ResearchCategoryProject
	d.Summary = "Capacitive sensors read over LoRa"
	d.Branch = "CSE"
	d.Department = "Computer Science"
	d.ContactEmail = "asha@college.edu"
	d.ContributorNames[0] = "Asha"
	d.Description = "A field deployment across three farms"
	d.Methodology = "Calibrated against gravimetric samples"
	d.Tools[0] = "Arduino"
	d.DeclarationAccepted = true
	return d
}

func newResearchFixture() (ResearchService, *mocks) {
	repo, m := newMockRepository()
	auth := &config.AuthConfig{SuperAdmins: []string{"root@college.edu"}}
	return NewResearchService(auth, repo, newTestStore().Research(), nopLogger()), m
}

func TestResearchSubmit(t *testing.T) {
	svc, m := newResearchFixture()

	d := validResearchDraft()
	d.Documents = []wizard.File{memFile("paper.pdf", pdfBytes)}
	d.Images = []wizard.File{memFile("rig.png", pngBytes)}

	resp, err := svc.Submit(context.Background(), d, studentCaller)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	sub := m.research.subs[resp.ID]
	if sub == nil {
		t.Fatal("submission not stored")
	}
	if sub.ApprovalStatus != model.ApprovalPending || sub.SubmittedBy != "stu-1" || *sub.CreatedBy != "stu-1" {
		t.Errorf("unexpected stored submission %+v", sub)
	}
	if len(sub.DocumentURLs) != 1 || len(sub.ImageURLs) != 1 {
		t.Errorf("expected one document and one image, got %v %v", sub.DocumentURLs, sub.ImageURLs)
	}
}

func TestResearchSubmit_Problems(t *testing.T) {
	svc, m := newResearchFixture()

	d := validResearchDraft()
	d.Category = "poetry"
	_, err := svc.Submit(context.Background(), d, studentCaller)

	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Fields["category"] == "" {
		t.Fatalf("expected category validation error, got %v", err)
	}
	if len(m.research.subs) != 0 {
		t.Error("nothing should be stored")
	}
}

func TestResearchVisibility(t *testing.T) {
	svc, m := newResearchFixture()
	ctx := context.Background()

	resp, err := svc.Submit(ctx, validResearchDraft(), studentCaller)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Get(ctx, resp.ID, Caller{}); !errors.Is(err, ErrResearchNotFound) {
		t.Errorf("pending submission hidden from visitors, got %v", err)
	}
	if _, err := svc.Get(ctx, resp.ID, Caller{UserID: "stu-2", Role: studentCaller.Role}); !errors.Is(err, ErrResearchNotFound) {
		t.Errorf("pending submission hidden from other students, got %v", err)
	}
	if _, err := svc.Get(ctx, resp.ID, studentCaller); err != nil {
		t.Errorf("submitter sees own pending submission, got %v", err)
	}
	if _, err := svc.Get(ctx, resp.ID, facultyCaller); err != nil {
		t.Errorf("staff see pending submissions, got %v", err)
	}

	if _, _, err := svc.List(ctx, &dto.ResearchListRequest{Status: model.ApprovalPending}, studentCaller); err != nil {
		t.Fatal(err)
	}
	if got := m.research.lastList.Statuses; len(got) != 1 || got[0] != model.ApprovalApproved {
		t.Errorf("students may only list approved work, filter was %v", got)
	}

	mine, total, _ := svc.Mine(ctx, &dto.PaginationRequest{}, studentCaller)
	if total != 1 || mine[0].ResearchID != resp.ID {
		t.Errorf("Mine should include the pending submission, got %d", total)
	}

	reviewed, err := svc.Review(ctx, resp.ID, &dto.ReviewResearchRequest{Status: model.ApprovalApproved, Note: " nice "}, facultyCaller)
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	if reviewed.ApprovalStatus != model.ApprovalApproved || reviewed.ReviewNote != "nice" {
		t.Errorf("unexpected review result %+v", reviewed.ResearchSubmission)
	}
	if _, err := svc.Get(ctx, resp.ID, Caller{}); err != nil {
		t.Errorf("approved work is public, got %v", err)
	}
	if _, err := svc.Review(ctx, "missing", &dto.ReviewResearchRequest{Status: model.ApprovalRejected}, facultyCaller); !errors.Is(err, ErrResearchNotFound) {
		t.Errorf("expected ErrResearchNotFound, got %v", err)
	}
}

func TestResearchPurge(t *testing.T) {
	svc, m := newResearchFixture()
	ctx := context.Background()

	d := validResearchDraft()
	d.Documents = []wizard.File{memFile("paper.pdf", pdfBytes)}
	resp, _ := svc.Submit(ctx, d, studentCaller)

	if err := svc.Purge(ctx, resp.ID, adminCaller); !errors.Is(err, ErrNotDeleted) {
		t.Errorf("expected ErrNotDeleted, got %v", err)
	}
	if err := svc.SoftDelete(ctx, resp.ID, adminCaller); err != nil {
		t.Fatal(err)
	}
	if err := svc.Purge(ctx, resp.ID, otherAdmin); !errors.Is(err, ErrPurgeNotAllowed) {
		t.Errorf("expected ErrPurgeNotAllowed, got %v", err)
	}
	if err := svc.Purge(ctx, resp.ID, adminCaller); err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if len(m.research.subs) != 0 {
		t.Error("submission should be gone")
	}
}

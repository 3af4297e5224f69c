package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"campus-portal/backend/config"
	"campus-portal/backend/internal/access"
	"campus-portal/backend/internal/dto"
	"campus-portal/backend/internal/model"
	"campus-portal/backend/internal/repository"
	"campus-portal/backend/internal/wizard"
	"campus-portal/backend/pkg/storage"
)

var ErrResearchNotFound = errors.New("research submission not found")

// ResearchService research showcase submissions.
type ResearchService interface {
	// Submit re-checks every wizard step, uploads documents then images and inserts the record.
	Submit(ctx context.Context, draft *wizard.ResearchDraft, caller Caller) (*dto.SubmitResponse, error)
	List(ctx context.Context, req *dto.ResearchListRequest, caller Caller) ([]dto.ResearchResponse, int64, error)
	Mine(ctx context.Context, page *dto.PaginationRequest, caller Caller) ([]dto.ResearchResponse, int64, error)
	Get(ctx context.Context, id string, caller Caller) (*dto.ResearchResponse, error)
	Review(ctx context.Context, id string, req *dto.ReviewResearchRequest, caller Caller) (*dto.ResearchResponse, error)
	SoftDelete(ctx context.Context, id string, caller Caller) error
	Restore(ctx context.Context, id string, caller Caller) error
	Purge(ctx context.Context, id string, caller Caller) error
}

type researchService struct {
	auth   *config.AuthConfig
	repo   *repository.Repository
	bucket *storage.Bucket
	logger *zap.Logger
}

// NewResearchService creates a ResearchService storing files in bucket.
func NewResearchService(auth *config.AuthConfig, repo *repository.Repository, bucket *storage.Bucket, logger *zap.Logger) ResearchService {
	return &researchService{auth: auth, repo: repo, bucket: bucket, logger: logger}
}

// ────────────────────── Submit ──────────────────────

func (s *researchService) Submit(ctx context.Context, draft *wizard.ResearchDraft, caller Caller) (*dto.SubmitResponse, error) {
	draft.Normalize()
	// the client only gates navigation, the full check happens here
	if problems := draft.Problems(); len(problems) > 0 {
		return nil, &ValidationError{Fields: problems}
	}
	draft.SubmittedBy = caller.UserID

	insert := wizard.InserterFunc[*model.ResearchSubmission](func(ctx context.Context, sub *model.ResearchSubmission) (wizard.RecordID, error) {
		sub.CreatedBy = strPtr(caller.UserID)
		if err := s.repo.Research.Create(ctx, sub); err != nil {
			return "", err
		}
		return wizard.RecordID(sub.ResearchID), nil
	})

	id, err := wizard.Submit[*model.ResearchSubmission](ctx, draft, bucketUploader{bucket: s.bucket}, insert)
	if err != nil {
		logSubmissionFailure(s.logger, "research", err)
		return nil, err
	}

	s.logger.Info("research submitted", zap.String("research_id", string(id)), zap.String("submitted_by", caller.UserID))
	return &dto.SubmitResponse{ID: string(id)}, nil
}

// ────────────────────── Read ──────────────────────

func (s *researchService) List(ctx context.Context, req *dto.ResearchListRequest, caller Caller) ([]dto.ResearchResponse, int64, error) {
	filters := &repository.ResearchListFilters{
		Category:   req.Category,
		Branch:     req.Branch,
		Department: req.Department,
		Query:      strings.TrimSpace(req.Q),
	}
	switch {
	case !caller.Staff():
		filters.Statuses = []string{model.ApprovalApproved}
	case req.Status != "":
		filters.Statuses = []string{req.Status}
	}
	return s.list(ctx, filters, &req.PaginationRequest, caller)
}

func (s *researchService) Mine(ctx context.Context, page *dto.PaginationRequest, caller Caller) ([]dto.ResearchResponse, int64, error) {
	return s.list(ctx, &repository.ResearchListFilters{SubmittedBy: caller.UserID}, page, caller)
}

func (s *researchService) list(ctx context.Context, filters *repository.ResearchListFilters, page *dto.PaginationRequest, caller Caller) ([]dto.ResearchResponse, int64, error) {
	subs, total, err := s.repo.Research.List(ctx, filters, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("list research failed", zap.Error(err))
		return nil, 0, err
	}
	list := make([]dto.ResearchResponse, 0, len(subs))
	for i := range subs {
		list = append(list, researchView(&subs[i], caller))
	}
	return list, total, nil
}

// Get hides submissions that are not approved from everyone but staff and the submitter.
func (s *researchService) Get(ctx context.Context, id string, caller Caller) (*dto.ResearchResponse, error) {
	sub, err := s.repo.Research.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrResearchNotFound
		}
		return nil, err
	}
	if sub.ApprovalStatus != model.ApprovalApproved && !caller.Staff() &&
		(caller.Anonymous() || sub.SubmittedBy != caller.UserID) {
		return nil, ErrResearchNotFound
	}
	resp := researchView(sub, caller)
	return &resp, nil
}

// ────────────────────── Review ──────────────────────

func (s *researchService) Review(ctx context.Context, id string, req *dto.ReviewResearchRequest, caller Caller) (*dto.ResearchResponse, error) {
	err := s.repo.Research.UpdateReview(ctx, id, req.Status, strings.TrimSpace(req.Note), caller.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrResearchNotFound
		}
		s.logger.Error("review research failed", zap.String("research_id", id), zap.Error(err))
		return nil, err
	}
	s.logger.Info("research reviewed",
		zap.String("research_id", id),
		zap.String("status", req.Status),
		zap.String("reviewed_by", caller.UserID),
	)
	return s.Get(ctx, id, caller)
}

// ────────────────────── Soft delete ──────────────────────

func (s *researchService) SoftDelete(ctx context.Context, id string, caller Caller) error {
	sub, err := s.repo.Research.GetByIDUnscoped(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return ErrResearchNotFound
		}
		return err
	}
	if sub.IsDeleted() {
		return nil
	}
	return s.repo.Research.SoftDelete(ctx, id, caller.UserID)
}

func (s *researchService) Restore(ctx context.Context, id string, caller Caller) error {
	sub, err := s.repo.Research.GetByIDUnscoped(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return ErrResearchNotFound
		}
		return err
	}
	if !sub.IsDeleted() {
		return nil
	}
	return s.repo.Research.Restore(ctx, id, caller.UserID)
}

func (s *researchService) Purge(ctx context.Context, id string, caller Caller) error {
	if !canPurge(s.auth, caller) {
		return ErrPurgeNotAllowed
	}
	sub, err := s.repo.Research.GetByIDUnscoped(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return ErrResearchNotFound
		}
		return err
	}
	if !sub.IsDeleted() {
		return ErrNotDeleted
	}
	if err := s.repo.Research.Purge(ctx, id); err != nil {
		s.logger.Error("purge research failed", zap.String("research_id", id), zap.Error(err))
		return err
	}
	removeObjects(ctx, s.bucket, append(append([]string{}, sub.DocumentURLs...), sub.ImageURLs...), s.logger)
	s.logger.Info("research purged", zap.String("research_id", id), zap.String("purged_by", caller.Email))
	return nil
}

func researchView(sub *model.ResearchSubmission, caller Caller) dto.ResearchResponse {
	return dto.ResearchResponse{
		ResearchSubmission: sub,
		Actions:            access.Conditional(caller.Role, access.Staff, researchStaffActions),
	}
}

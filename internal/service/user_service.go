package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"campus-portal/backend/internal/access"
	"campus-portal/backend/internal/dto"
	"campus-portal/backend/internal/model"
	"campus-portal/backend/internal/repository"
)

// ── user module errors ──

var (
	ErrUserSelfRoleChange = errors.New("you cannot change your own role")
	ErrUserSelfDelete     = errors.New("you cannot delete your own account")
	ErrInvalidRole        = errors.New("role must be admin, faculty or student")
)

// UserService admin user management.
type UserService interface {
	List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserDetailResponse, int64, error)
	Get(ctx context.Context, id string) (*dto.UserDetailResponse, error)
	AssignRole(ctx context.Context, id string, req *dto.AssignRoleRequest, caller Caller) (*dto.UserDetailResponse, error)
	Delete(ctx context.Context, id string, caller Caller) error
}

type userService struct {
	repo   *repository.Repository
	roles  RoleResolver
	logger *zap.Logger
}

// NewUserService creates a UserService.
func NewUserService(repo *repository.Repository, roles RoleResolver, logger *zap.Logger) UserService {
	return &userService{repo: repo, roles: roles, logger: logger}
}

func (s *userService) List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserDetailResponse, int64, error) {
	users, total, err := s.repo.User.ListWithFilters(ctx, &repository.UserListFilters{
		Role:    req.Role,
		Keyword: req.Keyword,
	}, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("list users failed", zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.UserDetailResponse, 0, len(users))
	for i := range users {
		list = append(list, toUserDetail(&users[i]))
	}
	return list, total, nil
}

func (s *userService) Get(ctx context.Context, id string) (*dto.UserDetailResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	resp := toUserDetail(user)
	return &resp, nil
}

// AssignRole replaces the user's role. The cached role is dropped so the next request of that
// user sees the new one.
func (s *userService) AssignRole(ctx context.Context, id string, req *dto.AssignRoleRequest, caller Caller) (*dto.UserDetailResponse, error) {
	role, ok := access.ParseRole(req.Role)
	if !ok {
		return nil, ErrInvalidRole
	}
	if id == caller.UserID {
		return nil, ErrUserSelfRoleChange
	}

	if _, err := s.repo.User.GetByID(ctx, id); err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err := s.repo.Role.Upsert(ctx, &model.UserRole{
		UserID:     id,
		Role:       role.String(),
		AssignedBy: strPtr(caller.UserID),
	}); err != nil {
		s.logger.Error("assign role failed", zap.String("user_id", id), zap.Error(err))
		return nil, err
	}
	s.roles.Invalidate(id)

	s.logger.Info("role assigned",
		zap.String("user_id", id),
		zap.String("role", role.String()),
		zap.String("assigned_by", caller.UserID),
	)
	return s.Get(ctx, id)
}

func (s *userService) Delete(ctx context.Context, id string, caller Caller) error {
	if id == caller.UserID {
		return ErrUserSelfDelete
	}
	if _, err := s.repo.User.GetByID(ctx, id); err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		return err
	}
	if err := s.repo.User.Delete(ctx, id, caller.UserID); err != nil {
		s.logger.Error("delete user failed", zap.String("user_id", id), zap.Error(err))
		return err
	}
	// user_roles cascades only on a hard delete
	if err := s.repo.Role.Delete(ctx, id); err != nil {
		s.logger.Error("drop role of deleted user failed", zap.String("user_id", id), zap.Error(err))
	}
	s.roles.Invalidate(id)
	return nil
}

func toUserDetail(u *model.User) dto.UserDetailResponse {
	resp := dto.UserDetailResponse{
		UserResponse: toUserResponse(u),
		CreatedAt:    u.CreatedAt.Format(time.RFC3339),
	}
	if u.RoleAssignment != nil {
		resp.Role = u.RoleAssignment.Role
	}
	if u.LastSignInAt != nil {
		resp.LastSignInAt = u.LastSignInAt.Format(time.RFC3339)
	}
	return resp
}

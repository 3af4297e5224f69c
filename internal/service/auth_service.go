package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"campus-portal/backend/config"
	"campus-portal/backend/internal/dto"
	"campus-portal/backend/internal/model"
	"campus-portal/backend/internal/repository"
	"campus-portal/backend/pkg/jwt"
)

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailNotVerified    = errors.New("email address is not verified")
	ErrEmailTaken          = errors.New("email address is already registered")
	ErrInvalidToken        = errors.New("token is invalid")
	ErrTokenRevoked        = errors.New("token has been revoked")
	ErrVerificationExpired = errors.New("verification link has expired")
	ErrUserNotFound        = errors.New("user not found")
)

// TokenBlacklist revokes token ids until they would have expired anyway.
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	// ClaimToken atomically blacklists jti, reporting false when it already was.
	ClaimToken(ctx context.Context, jti string, ttl time.Duration) (bool, error)
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// AuthService sign-in, sign-up and session lifecycle.
type AuthService interface {
	SignIn(ctx context.Context, req *dto.SignInRequest) (*dto.TokenResponse, error)
	SignUp(ctx context.Context, req *dto.SignUpRequest) (*dto.SignUpResponse, error)
	VerifyEmail(ctx context.Context, token string) error
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	// SignOut revokes the access token and, when given, the refresh token. It succeeds even when
	// revocation is unavailable.
	SignOut(ctx context.Context, claims *jwt.Claims, refreshToken string) error
	Me(ctx context.Context, userID string) (*dto.MeResponse, error)
}

type authService struct {
	cfg       *config.AuthConfig
	mail      *config.MailConfig
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	roles     RoleResolver
	mailer    Mailer
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuthService creates an AuthService. blacklist may be nil.
func NewAuthService(
	cfg *config.AuthConfig,
	mail *config.MailConfig,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	roles RoleResolver,
	mailer Mailer,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:       cfg,
		mail:      mail,
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		roles:     roles,
		mailer:    mailer,
		logger:    logger,
		now:       time.Now,
	}
}

// ────────────────────── SignIn ──────────────────────

func (s *authService) SignIn(ctx context.Context, req *dto.SignInRequest) (*dto.TokenResponse, error) {
	user, err := s.repo.User.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("load user for sign-in failed", zap.Error(err))
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if s.cfg.RequireEmailVerification && !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	resp, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	if err := s.repo.User.TouchSignIn(ctx, user.UserID, s.now()); err != nil {
		s.logger.Warn("record sign-in time failed", zap.String("user_id", user.UserID), zap.Error(err))
	}
	return resp, nil
}

// ────────────────────── SignUp ──────────────────────

func (s *authService) SignUp(ctx context.Context, req *dto.SignUpRequest) (*dto.SignUpResponse, error) {
	email := normalizeEmail(req.Email)
	if _, err := s.repo.User.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !isNotFound(err) {
		s.logger.Error("check email failed", zap.Error(err))
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("hash password failed", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Email:         email,
		FullName:      strings.TrimSpace(req.FullName),
		Department:    strings.TrimSpace(req.Department),
		RollNumber:    strPtr(strings.TrimSpace(req.RollNumber)),
		PasswordHash:  string(hash),
		EmailVerified: !s.cfg.RequireEmailVerification,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		s.logger.Error("create user failed", zap.Error(err))
		return nil, err
	}

	if s.cfg.RequireEmailVerification {
		token, err := s.jwtMgr.GenerateVerificationToken(user.UserID, user.Email)
		if err != nil {
			s.logger.Error("issue verification token failed", zap.Error(err))
			return nil, err
		}
		// the account exists either way; a lost mail is not a failed sign-up
		if err := s.mailer.SendVerification(ctx, user.Email, verificationLink(s.mail.VerifyURL, token)); err != nil {
			s.logger.Warn("send verification mail failed", zap.String("user_id", user.UserID), zap.Error(err))
		}
	}

	return &dto.SignUpResponse{
		ID:                   user.UserID,
		Email:                user.Email,
		VerificationRequired: s.cfg.RequireEmailVerification,
	}, nil
}

// ────────────────────── VerifyEmail ──────────────────────

func (s *authService) VerifyEmail(ctx context.Context, token string) error {
	claims, err := s.jwtMgr.ParseTokenOfType(token, jwt.TokenTypeVerification)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrVerificationExpired
		}
		return ErrInvalidToken
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if isNotFound(err) {
			return ErrInvalidToken
		}
		return err
	}
	if user.EmailVerified {
		return nil
	}
	if err := s.repo.User.MarkVerified(ctx, user.UserID, s.now()); err != nil {
		s.logger.Error("mark email verified failed", zap.String("user_id", user.UserID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Refresh ──────────────────────

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseTokenOfType(refreshToken, jwt.TokenTypeRefresh)
	if err != nil {
		return nil, ErrInvalidToken
	}
	// rotate: the presented refresh token is single use, claimed before anything is issued
	if !s.claim(ctx, claims) {
		return nil, ErrTokenRevoked
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	return s.issue(user)
}

// ────────────────────── SignOut ──────────────────────

func (s *authService) SignOut(ctx context.Context, claims *jwt.Claims, refreshToken string) error {
	if claims != nil {
		s.revoke(ctx, claims)
	}
	if refreshToken != "" {
		if rc, err := s.jwtMgr.ParseTokenOfType(refreshToken, jwt.TokenTypeRefresh); err == nil {
			s.revoke(ctx, rc)
		}
	}
	return nil
}

// ────────────────────── Me ──────────────────────

func (s *authService) Me(ctx context.Context, userID string) (*dto.MeResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &dto.MeResponse{
		User:         toUserResponse(user),
		RoleResponse: dto.NewRoleResponse(s.roles.Resolve(ctx, userID)),
	}, nil
}

// ── helpers ──

func (s *authService) issue(user *model.User) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Email)
	if err != nil {
		s.logger.Error("issue access token failed", zap.Error(err))
		return nil, err
	}
	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.UserID, user.Email)
	if err != nil {
		s.logger.Error("issue refresh token failed", zap.Error(err))
		return nil, err
	}
	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User:         toUserResponse(user),
	}, nil
}

// claim consumes a single-use token. Without redis, or when it fails, rotation is not enforced.
func (s *authService) claim(ctx context.Context, claims *jwt.Claims) bool {
	if s.blacklist == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return true
	}
	ok, err := s.blacklist.ClaimToken(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
	if err != nil {
		s.logger.Warn("claim refresh token failed", zap.String("user_id", claims.UserID), zap.Error(err))
		return true
	}
	return ok
}

func (s *authService) revoke(ctx context.Context, claims *jwt.Claims) {
	if s.blacklist == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return
	}
	if err := s.blacklist.BlacklistToken(ctx, claims.ID, ttl); err != nil {
		s.logger.Warn("revoke token failed", zap.String("user_id", claims.UserID), zap.Error(err))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toUserResponse(u *model.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:            u.UserID,
		Email:         u.Email,
		FullName:      u.FullName,
		Department:    u.Department,
		EmailVerified: u.EmailVerified,
	}
	if u.RollNumber != nil {
		resp.RollNumber = *u.RollNumber
	}
	return resp
}

package service

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"campus-portal/backend/config"
	"campus-portal/backend/internal/access"
	"campus-portal/backend/internal/repository"
)

const (
	defaultRoleCacheSize = 1024
	defaultRoleCacheTTL  = 5 * time.Minute
)

// RoleResolver maps a user id to its role. Tokens never carry the role, so every request asks
// the resolver and an assignment takes effect once the cache entry is gone.
type RoleResolver interface {
	// Resolve returns the cached or stored role. Lookup failures yield access.RoleUnresolved.
	Resolve(ctx context.Context, userID string) access.Role
	// Refresh drops the cached entry and resolves again.
	Refresh(ctx context.Context, userID string) access.Role
	Invalidate(userID string)
}

type roleResolver struct {
	roles  repository.RoleRepository
	cache  *expirable.LRU[string, access.Role]
	logger *zap.Logger
}

// NewRoleResolver creates a RoleResolver backed by an expirable LRU.
func NewRoleResolver(roles repository.RoleRepository, cfg *config.AuthConfig, logger *zap.Logger) RoleResolver {
	size, ttl := cfg.RoleCacheSize, cfg.RoleCacheTTL
	if size <= 0 {
		size = defaultRoleCacheSize
	}
	if ttl <= 0 {
		ttl = defaultRoleCacheTTL
	}
	return &roleResolver{
		roles:  roles,
		cache:  expirable.NewLRU[string, access.Role](size, nil, ttl),
		logger: logger,
	}
}

func (r *roleResolver) Resolve(ctx context.Context, userID string) access.Role {
	if userID == "" {
		return access.RoleUnresolved
	}
	if role, ok := r.cache.Get(userID); ok {
		return role
	}

	row, err := r.roles.GetByUserID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			// no assignment is an answer, keep it
			r.cache.Add(userID, access.RoleUnresolved)
			return access.RoleUnresolved
		}
		// failed lookups are not cached so the next request retries
		r.logger.Warn("role lookup failed", zap.String("user_id", userID), zap.Error(err))
		return access.RoleUnresolved
	}

	role, ok := access.ParseRole(row.Role)
	if !ok {
		r.logger.Warn("stored role is not recognised", zap.String("user_id", userID), zap.String("role", row.Role))
	}
	r.cache.Add(userID, role)
	return role
}

func (r *roleResolver) Refresh(ctx context.Context, userID string) access.Role {
	r.Invalidate(userID)
	return r.Resolve(ctx, userID)
}

func (r *roleResolver) Invalidate(userID string) {
	r.cache.Remove(userID)
}

package auth

import (
	"context"

	"github.com/bidwatch/bid-api/internal/domain"
)

// UserContext holds the identity of the caller for the current request.
// Identity is asserted by the trusted gateway in front of this service;
// the middleware in this package extracts it from request headers.
type UserContext struct {
	UserID   int64
	Username string
	Role     domain.UserRole
}

type contextKey string

const userContextKey contextKey = "userContext"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}

// MustFromContext extracts user context or panics
func MustFromContext(ctx context.Context) *UserContext {
	user, ok := FromContext(ctx)
	if !ok {
		panic("user context not found in context")
	}
	return user
}

// HasRole checks if user has a specific role
func (u *UserContext) HasRole(role domain.UserRole) bool {
	return u.Role == role
}

// HasAnyRole checks if user has any of the specified roles
func (u *UserContext) HasAnyRole(roles ...domain.UserRole) bool {
	for _, role := range roles {
		if u.Role == role {
			return true
		}
	}
	return false
}

// IsAdmin checks if user is an administrator
func (u *UserContext) IsAdmin() bool {
	return u.Role == domain.RoleAdmin
}

// CanManageUsers checks if user may create users or change roles
func (u *UserContext) CanManageUsers() bool {
	return u.HasAnyRole(domain.RoleAdmin, domain.RoleManager)
}

// ActorName returns the name recorded in audit entries for this caller
func ActorName(ctx context.Context) string {
	if user, ok := FromContext(ctx); ok && user.Username != "" {
		return user.Username
	}
	return "system"
}

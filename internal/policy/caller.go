package policy

import (
	"context"
	"strings"
)

// Role is the caller's role inside its tenant
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole maps a claim value to a Role. Anything that is not "admin"
// is treated as a plain user.
func ParseRole(s string) Role {
	if strings.EqualFold(strings.TrimSpace(s), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleUser
}

// Caller is the identity extracted from a validated session token
type Caller struct {
	UserID   string
	Email    string
	TenantID string
	Role     Role
}

// IsAdmin reports whether the caller administers its tenant
func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// HasTenant reports whether the token carried a tenant claim
func (c Caller) HasTenant() bool {
	return c.TenantID != ""
}

type callerKey struct{}

// WithCaller attaches the caller to ctx
func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFromContext returns the caller attached by the auth middleware
func CallerFromContext(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(callerKey{}).(Caller)
	return caller, ok
}

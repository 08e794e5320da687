// Package policy holds the single authorization decision used by every
// resource service. It has no side effects and touches no storage.
package policy

import "errors"

// ErrNoTenant is returned when a tenant-scoped operation is attempted by a
// caller whose token carried no tenant.
var ErrNoTenant = errors.New("policy: caller has no tenant")

// ErrNoSubject is returned when a plain user's scope would need an owner
// filter but the caller has no user id.
var ErrNoSubject = errors.New("policy: caller has no user id")

// Operation is the kind of access being requested
type Operation string

const (
	OpRead  Operation = "read"
	OpList  Operation = "list"
	OpWrite Operation = "write"
)

// Decision is the outcome of Decide
type Decision int

const (
	// DenyCrossTenant: the resource lives in another tenant, or the caller has none.
	DenyCrossTenant Decision = iota
	// DenyNotOwner: same tenant, but a plain user touching someone else's row.
	DenyNotOwner
	// Allow grants the full request.
	Allow
	// AllowOwnedOnly grants a listing narrowed to rows the caller owns.
	AllowOwnedOnly
)

// Allowed reports whether the decision grants any access
func (d Decision) Allowed() bool {
	return d == Allow || d == AllowOwnedOnly
}

func (d Decision) String() string {
	switch d {
	case DenyCrossTenant:
		return "deny_cross_tenant"
	case DenyNotOwner:
		return "deny_not_owner"
	case Allow:
		return "allow"
	case AllowOwnedOnly:
		return "allow_owned_only"
	default:
		return "unknown"
	}
}

// Request describes one access attempt. ResourceOwnerID is nil for
// tenant-level resources such as a listing.
type Request struct {
	Caller           Caller
	ResourceTenantID string
	ResourceOwnerID  *string
	Operation        Operation
}

// Decide evaluates a request. Tenant isolation is checked first and cannot be
// bypassed by any role.
func Decide(r Request) Decision {
	if !r.Caller.HasTenant() || r.ResourceTenantID != r.Caller.TenantID {
		return DenyCrossTenant
	}
	if r.Caller.IsAdmin() {
		return Allow
	}
	if r.ResourceOwnerID == nil {
		return AllowOwnedOnly
	}
	if r.Caller.UserID != "" && *r.ResourceOwnerID == r.Caller.UserID {
		return Allow
	}
	return DenyNotOwner
}

// Scope is the row filter a service must apply for a caller. An empty
// OwnerID means every owner in the tenant is visible.
type Scope struct {
	TenantID string
	OwnerID  string
}

// ScopeFor derives the query scope for a caller from Decide, so that services
// filter rows exactly as the decision function would judge them one by one.
func ScopeFor(caller Caller, op Operation) (Scope, error) {
	d := Decide(Request{Caller: caller, ResourceTenantID: caller.TenantID, Operation: op})
	switch d {
	case Allow:
		return Scope{TenantID: caller.TenantID}, nil
	case AllowOwnedOnly:
		if caller.UserID == "" {
			return Scope{}, ErrNoSubject
		}
		return Scope{TenantID: caller.TenantID, OwnerID: caller.UserID}, nil
	default:
		return Scope{}, ErrNoTenant
	}
}

// Permits reports whether a concrete row is inside the scope
func (s Scope) Permits(tenantID, ownerID string) bool {
	if s.TenantID == "" || tenantID != s.TenantID {
		return false
	}
	return s.OwnerID == "" || ownerID == s.OwnerID
}

package service

import (
	"context"
	"errors"

	"template-service/internal/policy"
	"template-service/pkg/logger"
	"template-service/prometheus"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// scopeFor derives the row filter for caller. A caller without a tenant
// never reaches the database.
func scopeFor(ctx context.Context, caller policy.Caller, resource string, op policy.Operation) (policy.Scope, error) {
	scope, err := policy.ScopeFor(caller, op)
	if err != nil {
		decision := policy.DenyCrossTenant.String()
		if errors.Is(err, policy.ErrNoSubject) {
			decision = "deny_no_subject"
		}
		prometheus.RecordPolicyDecision(resource, decision)
		logger.FromContext(ctx).Warn("Request rejected by tenant policy",
			zap.String("resource", resource),
			zap.String("operation", string(op)),
			zap.Error(err))
		return policy.Scope{}, newError(ErrAuthentication, "Tenant ID is required", err)
	}
	if scope.OwnerID != "" {
		prometheus.RecordPolicyDecision(resource, policy.AllowOwnedOnly.String())
	} else {
		prometheus.RecordPolicyDecision(resource, policy.Allow.String())
	}
	return scope, nil
}

// scoped turns a policy scope into WHERE clauses. ownerColumn is the column
// compared against the scope's owner.
func scoped(scope policy.Scope, ownerColumn string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where(clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: "tenant_id"}, Value: scope.TenantID})
		if scope.OwnerID != "" {
			db = db.Where(clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: ownerColumn}, Value: scope.OwnerID})
		}
		return db
	}
}

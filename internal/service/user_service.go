package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"template-service/internal/model"
	"template-service/internal/policy"
	"template-service/pkg/logger"
	"template-service/prometheus"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const resourceUsers = "users"

// UserView is a user as exposed to other users of the tenant
type UserView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	TenantID  string    `json:"tenantId"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func newUserView(u model.User) UserView {
	return UserView{
		ID:        u.ID,
		Email:     u.Email,
		Name:      model.DisplayName(u.Email),
		TenantID:  u.TenantID,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// UserService exposes tenant users according to the caller's role
type UserService struct {
	db *gorm.DB
}

// NewUserService creates a user service backed by db
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// List returns every user of the caller's tenant for admins, and only the
// caller for plain users.
func (s *UserService) List(ctx context.Context, caller policy.Caller) ([]UserView, error) {
	scope, err := scopeFor(ctx, caller, resourceUsers, policy.OpList)
	if err != nil {
		return nil, err
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var users []model.User
	err = s.db.WithContext(ctx).
		Scopes(scoped(scope, "id")).
		Order("created_at DESC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, newUserView(u))
	}
	logger.FromContext(ctx).Debug("Users listed",
		zap.String("tenant_id", scope.TenantID),
		zap.Bool("owned_only", scope.OwnerID != ""),
		zap.Int("count", len(views)))
	return views, nil
}

// Get returns one user of the caller's tenant. Plain users may only fetch
// themselves.
func (s *UserService) Get(ctx context.Context, caller policy.Caller, id string) (*UserView, error) {
	scope, err := scopeFor(ctx, caller, resourceUsers, policy.OpRead)
	if err != nil {
		return nil, err
	}

	decision := policy.Decide(policy.Request{
		Caller:           caller,
		ResourceTenantID: caller.TenantID,
		ResourceOwnerID:  &id,
		Operation:        policy.OpRead,
	})
	if !decision.Allowed() {
		prometheus.RecordPolicyDecision(resourceUsers, decision.String())
		return nil, newError(ErrForbidden, "Access denied. You can only view your own data.", nil)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	err = s.db.WithContext(ctx).
		Scopes(scoped(scope, "id")).
		Where("id = ?", id).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrForbidden, "User not found or access denied", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	view := newUserView(user)
	return &view, nil
}

// Me returns the caller's own record
func (s *UserService) Me(ctx context.Context, caller policy.Caller) (*UserView, error) {
	return s.Get(ctx, caller, caller.UserID)
}

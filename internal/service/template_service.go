package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"template-service/internal/model"
	"template-service/internal/policy"
	"template-service/pkg/logger"
	"template-service/prometheus"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const resourceTemplates = "templates"

const (
	msgTemplateNotFound = "Template not found or access denied"
	msgInvalidTenant    = "Invalid tenant ID. Tenant does not exist."
)

// CreateTemplateInput holds the fields of a new template
type CreateTemplateInput struct {
	Title string
	Items string
}

// UpdateTemplateInput holds a partial update. Nil fields are left unchanged.
type UpdateTemplateInput struct {
	Title *string
	Items *string
}

// TemplateService manages templates inside the caller's tenant. Admins see
// every template of the tenant, plain users only their own.
type TemplateService struct {
	db *gorm.DB
}

// NewTemplateService creates a template service backed by db
func NewTemplateService(db *gorm.DB) *TemplateService {
	return &TemplateService{db: db}
}

// Create stores a template owned by the caller in the caller's tenant
func (s *TemplateService) Create(ctx context.Context, caller policy.Caller, in CreateTemplateInput) (*model.Template, error) {
	log := logger.FromContext(ctx)

	if _, err := scopeFor(ctx, caller, resourceTemplates, policy.OpWrite); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, newError(ErrValidation, "title is required", nil)
	}

	if err := s.checkOwner(ctx, caller); err != nil {
		return nil, err
	}

	tpl := model.Template{
		Title:    title,
		Items:    in.Items,
		TenantID: caller.TenantID,
		UserID:   caller.UserID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := s.db.WithContext(ctx).Create(&tpl).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, newError(ErrDependency, msgInvalidTenant, err)
		}
		return nil, fmt.Errorf("create template: %w", err)
	}

	prometheus.RecordTemplateOperation("create")
	log.Info("Template created",
		zap.String("template_id", tpl.ID),
		zap.String("tenant_id", tpl.TenantID))
	return &tpl, nil
}

// checkOwner verifies the caller's tenant exists and the caller belongs to it
func (s *TemplateService) checkOwner(ctx context.Context, caller policy.Caller) error {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var tenants int64
	if err := s.db.WithContext(ctx).Model(&model.Tenant{}).Where("id = ?", caller.TenantID).Count(&tenants).Error; err != nil {
		return fmt.Errorf("check tenant: %w", err)
	}
	if tenants == 0 {
		return newError(ErrDependency, msgInvalidTenant, nil)
	}

	var owners int64
	err := s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND tenant_id = ?", caller.UserID, caller.TenantID).
		Count(&owners).Error
	if err != nil {
		return fmt.Errorf("check owner: %w", err)
	}
	if owners == 0 {
		logger.FromContext(ctx).Warn("Template owner not found in tenant",
			zap.String("user_id", caller.UserID),
			zap.String("tenant_id", caller.TenantID))
		return newError(ErrDependency, msgInvalidTenant, nil)
	}
	return nil
}

// List returns the visible, non-deleted templates, newest first
func (s *TemplateService) List(ctx context.Context, caller policy.Caller) ([]model.Template, error) {
	scope, err := scopeFor(ctx, caller, resourceTemplates, policy.OpList)
	if err != nil {
		return nil, err
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	templates := []model.Template{}
	err = s.db.WithContext(ctx).
		Scopes(scoped(scope, "user_id")).
		Order("created_at DESC").
		Find(&templates).Error
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	prometheus.RecordTemplateOperation("list")
	return templates, nil
}

// Get returns one visible template
func (s *TemplateService) Get(ctx context.Context, caller policy.Caller, id string) (*model.Template, error) {
	scope, err := scopeFor(ctx, caller, resourceTemplates, policy.OpRead)
	if err != nil {
		return nil, err
	}

	tpl, err := s.find(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	prometheus.RecordTemplateOperation("get")
	return tpl, nil
}

func (s *TemplateService) find(ctx context.Context, scope policy.Scope, id string) (*model.Template, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var tpl model.Template
	err := s.db.WithContext(ctx).
		Scopes(scoped(scope, "user_id")).
		Where("id = ?", id).
		First(&tpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, msgTemplateNotFound, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return &tpl, nil
}

// Update applies the provided fields to a visible template
func (s *TemplateService) Update(ctx context.Context, caller policy.Caller, id string, in UpdateTemplateInput) (*model.Template, error) {
	scope, err := scopeFor(ctx, caller, resourceTemplates, policy.OpWrite)
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, newError(ErrValidation, "title must not be empty", nil)
		}
		changes["title"] = title
	}
	if in.Items != nil {
		changes["items"] = *in.Items
	}
	if len(changes) == 0 {
		return s.find(ctx, scope, id)
	}

	start := time.Now()
	result := s.db.WithContext(ctx).
		Model(&model.Template{}).
		Scopes(scoped(scope, "user_id")).
		Where("id = ?", id).
		Updates(changes)
	prometheus.TrackDBOperation("update")(start)
	if result.Error != nil {
		return nil, fmt.Errorf("update template: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, newError(ErrNotFound, msgTemplateNotFound, nil)
	}

	prometheus.RecordTemplateOperation("update")
	logger.FromContext(ctx).Info("Template updated", zap.String("template_id", id))
	return s.find(ctx, scope, id)
}

// Delete soft-deletes a visible template and returns it with its deletion
// time set. A deleted template is invisible to every later call.
func (s *TemplateService) Delete(ctx context.Context, caller policy.Caller, id string) (*model.Template, error) {
	scope, err := scopeFor(ctx, caller, resourceTemplates, policy.OpWrite)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result := s.db.WithContext(ctx).
		Scopes(scoped(scope, "user_id")).
		Where("id = ?", id).
		Delete(&model.Template{})
	prometheus.TrackDBOperation("delete")(start)
	if result.Error != nil {
		return nil, fmt.Errorf("delete template: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, newError(ErrNotFound, msgTemplateNotFound, nil)
	}

	var tpl model.Template
	if err := s.db.WithContext(ctx).Unscoped().Where("id = ?", id).First(&tpl).Error; err != nil {
		return nil, fmt.Errorf("reload deleted template: %w", err)
	}

	prometheus.RecordTemplateOperation("delete")
	logger.FromContext(ctx).Info("Template soft-deleted", zap.String("template_id", id))
	return &tpl, nil
}

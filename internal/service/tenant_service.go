package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"template-service/internal/model"
	"template-service/pkg/logger"
	"template-service/prometheus"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultTenants are created by the seed command
var DefaultTenants = []model.Tenant{
	{ID: "tenant-a-id", Name: "Tenant A"},
	{ID: "tenant-b-id", Name: "Tenant B"},
}

// TenantService is the tenant directory
type TenantService struct {
	db *gorm.DB
}

// NewTenantService creates a tenant directory backed by db
func NewTenantService(db *gorm.DB) *TenantService {
	return &TenantService{db: db}
}

// List returns all tenants, newest first. A store without a tenants table
// yields an empty list.
func (s *TenantService) List(ctx context.Context) ([]model.Tenant, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	tenants := []model.Tenant{}
	if !s.db.WithContext(ctx).Migrator().HasTable(&model.Tenant{}) {
		logger.FromContext(ctx).Warn("Tenants table does not exist, returning empty list")
		return tenants, nil
	}
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&tenants).Error; err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	return tenants, nil
}

// FindByID looks a tenant up by its exact id
func (s *TenantService) FindByID(ctx context.Context, id string) (*model.Tenant, error) {
	var tenant model.Tenant
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&tenant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, fmt.Sprintf("Tenant with ID %s not found", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("find tenant by id: %w", err)
	}
	return &tenant, nil
}

// FindByName looks a tenant up by case-insensitive name
func (s *TenantService) FindByName(ctx context.Context, name string) (*model.Tenant, error) {
	var tenant model.Tenant
	err := s.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).Order("created_at ASC").First(&tenant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, fmt.Sprintf("Tenant %q not found", name), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("find tenant by name: %w", err)
	}
	return &tenant, nil
}

// Resolve accepts either a tenant id or a tenant name. The id wins when both
// could match. An unknown identifier produces a validation error listing the
// tenants that do exist.
func (s *TenantService) Resolve(ctx context.Context, identifier string) (*model.Tenant, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, newError(ErrValidation, "Tenant ID is required. Please select a tenant.", nil)
	}

	tenant, err := s.FindByID(ctx, identifier)
	if err == nil {
		return tenant, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	tenant, err = s.FindByName(ctx, identifier)
	if err == nil {
		logger.FromContext(ctx).Debug("Tenant resolved by name",
			zap.String("identifier", identifier),
			zap.String("tenant_id", tenant.ID))
		return tenant, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	options := "No tenants available"
	if len(all) > 0 {
		names := make([]string, 0, len(all))
		for _, t := range all {
			names = append(names, fmt.Sprintf("%q", t.Name))
		}
		options = strings.Join(names, ", ")
	}
	return nil, newError(ErrValidation,
		fmt.Sprintf("Tenant %q does not exist. Available tenants: %s", identifier, options),
		ErrNotFound)
}

// Seed inserts the given tenants, leaving existing rows untouched
func (s *TenantService) Seed(ctx context.Context, tenants ...model.Tenant) error {
	for i := range tenants {
		t := tenants[i]
		err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&t).Error
		if err != nil {
			return fmt.Errorf("seed tenant %q: %w", t.Name, err)
		}
		logger.FromContext(ctx).Info("Tenant seeded", zap.String("id", t.ID), zap.String("name", t.Name))
	}
	return nil
}

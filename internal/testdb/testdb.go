// Package testdb opens throwaway in-memory databases for tests.
package testdb

import (
	"fmt"
	"testing"

	"template-service/internal/model"
	"template-service/pkg/database"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New returns a migrated in-memory sqlite database private to t. It is
// closed when the test finishes.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get test database handle: %v", err)
	}
	// one connection keeps the shared-cache database alive and serializes writers
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

// Tenant inserts a tenant row
func Tenant(t testing.TB, db *gorm.DB, id, name string) model.Tenant {
	t.Helper()
	tenant := model.Tenant{ID: id, Name: name}
	if err := db.Create(&tenant).Error; err != nil {
		t.Fatalf("create tenant %q: %v", name, err)
	}
	return tenant
}

// User inserts a user row with an already hashed password
func User(t testing.TB, db *gorm.DB, email, passwordHash, tenantID, role string) model.User {
	t.Helper()
	user := model.User{Email: email, Password: passwordHash, TenantID: tenantID, Role: role}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user %q: %v", email, err)
	}
	return user
}

// Template inserts a template row owned by userID
func Template(t testing.TB, db *gorm.DB, title, tenantID, userID string) model.Template {
	t.Helper()
	tpl := model.Template{Title: title, Items: "[]", TenantID: tenantID, UserID: userID}
	if err := db.Create(&tpl).Error; err != nil {
		t.Fatalf("create template %q: %v", title, err)
	}
	return tpl
}

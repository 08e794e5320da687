package service

import (
	"context"
	"sync"
	"testing"

	"template-service/internal/model"
	"template-service/internal/policy"
	"template-service/internal/testdb"
	"template-service/pkg/config"
	"template-service/pkg/jwtutil"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	tenantA = "tenant-a-id"
	tenantB = "tenant-b-id"
)

type fakeNotifier struct {
	mu   sync.Mutex
	err  error
	sent map[string]string
}

func (f *fakeNotifier) SendPasswordReset(_ context.Context, to, tempPassword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.sent == nil {
		f.sent = map[string]string{}
	}
	f.sent[to] = tempPassword
	return nil
}

// fixture is a database with two tenants, an admin and two users in tenant
// A, and one user in tenant B.
type fixture struct {
	db     *gorm.DB
	admin  model.User
	u1     model.User
	u2     model.User
	userB  model.User
	hashed string
}

const fixturePassword = "secret123"

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.New(t)

	hash, err := bcrypt.GenerateFromPassword([]byte(fixturePassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	testdb.Tenant(t, db, tenantA, "Tenant A")
	testdb.Tenant(t, db, tenantB, "Tenant B")

	return &fixture{
		db:     db,
		admin:  testdb.User(t, db, "admin@tenant-a.test", string(hash), tenantA, model.RoleAdmin),
		u1:     testdb.User(t, db, "u1@tenant-a.test", string(hash), tenantA, model.RoleUser),
		u2:     testdb.User(t, db, "u2@tenant-a.test", string(hash), tenantA, model.RoleUser),
		userB:  testdb.User(t, db, "b1@tenant-b.test", string(hash), tenantB, model.RoleUser),
		hashed: string(hash),
	}
}

func callerOf(u model.User) policy.Caller {
	return policy.Caller{UserID: u.ID, Email: u.Email, TenantID: u.TenantID, Role: policy.ParseRole(u.Role)}
}

func newAuthService(db *gorm.DB, n *fakeNotifier, reveal bool) *AuthService {
	jwt := jwtutil.NewJWTUtil(jwtutil.JWTConfig{SigningKey: "test-key", ExpirationHours: 1})
	return NewAuthService(db, NewTenantService(db), jwt, n, config.AuthConfig{
		BcryptCost:         bcrypt.MinCost,
		RevealTempPassword: reveal,
	})
}

package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"template-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestValidateCredentials(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(f.db, &fakeNotifier{}, true)
	ctx := context.Background()

	user, err := svc.ValidateCredentials(ctx, "U1@Tenant-A.test ", fixturePassword)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, f.u1.ID, user.ID)

	user, err = svc.ValidateCredentials(ctx, f.u1.Email, "wrong")
	require.NoError(t, err)
	assert.Nil(t, user)

	user, err = svc.ValidateCredentials(ctx, "nobody@x.test", fixturePassword)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestIssueSessionDefaultsRole(t *testing.T) {
	svc := newAuthService(newFixture(t).db, &fakeNotifier{}, true)

	session, err := svc.IssueSession(&model.User{ID: "u9", Email: "x@y.test", TenantID: tenantA})
	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)
	assert.Equal(t, "u9", session.Claims.UserID())
	assert.Equal(t, tenantA, session.Claims.TenantID)
	assert.Equal(t, model.RoleUser, session.Claims.Role)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(f.db, &fakeNotifier{}, true)
	ctx := context.Background()

	session, err := svc.Login(ctx, f.admin.Email, fixturePassword)
	require.NoError(t, err)
	assert.Equal(t, f.admin.ID, session.Claims.UserID())
	assert.Equal(t, model.RoleAdmin, session.Claims.Role)

	_, err = svc.Login(ctx, f.admin.Email, "nope")
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestSignup(t *testing.T) {
	ctx := context.Background()

	t.Run("by tenant name", func(t *testing.T) {
		f := newFixture(t)
		svc := newAuthService(f.db, &fakeNotifier{}, true)

		session, err := svc.Signup(ctx, SignupInput{Email: " New@Tenant-A.test", Password: "pw123456", Tenant: "tenant a"})
		require.NoError(t, err)
		assert.Equal(t, tenantA, session.Claims.TenantID)
		assert.Equal(t, model.RoleUser, session.Claims.Role)
		assert.Equal(t, "new@tenant-a.test", session.Claims.Email)

		var stored model.User
		require.NoError(t, f.db.Where("email = ?", "new@tenant-a.test").First(&stored).Error)
		assert.NotEqual(t, "pw123456", stored.Password)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("pw123456")))
	})

	t.Run("unknown tenant lists options", func(t *testing.T) {
		f := newFixture(t)
		svc := newAuthService(f.db, &fakeNotifier{}, true)

		_, err := svc.Signup(ctx, SignupInput{Email: "x@x.test", Password: "pw", Tenant: "Tenant Z"})
		require.ErrorIs(t, err, ErrValidation)
		msg, _ := PublicMessage(err)
		assert.Contains(t, msg, `"Tenant A"`)
		assert.Contains(t, msg, `"Tenant B"`)
	})

	t.Run("missing tenant", func(t *testing.T) {
		f := newFixture(t)
		svc := newAuthService(f.db, &fakeNotifier{}, true)

		_, err := svc.Signup(ctx, SignupInput{Email: "x@x.test", Password: "pw"})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("missing fields", func(t *testing.T) {
		f := newFixture(t)
		svc := newAuthService(f.db, &fakeNotifier{}, true)

		_, err := svc.Signup(ctx, SignupInput{Email: "x@x.test", Tenant: tenantA})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := newFixture(t)
		svc := newAuthService(f.db, &fakeNotifier{}, true)

		_, err := svc.Signup(ctx, SignupInput{Email: f.u1.Email, Password: "other", Tenant: tenantB})
		require.ErrorIs(t, err, ErrConflict)

		var count int64
		require.NoError(t, f.db.Model(&model.User{}).Where("email = ?", f.u1.Email).Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})
}

func TestResetPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email", func(t *testing.T) {
		f := newFixture(t)
		svc := newAuthService(f.db, &fakeNotifier{}, true)

		_, err := svc.ResetPassword(ctx, "ghost@x.test")
		require.ErrorIs(t, err, ErrNotFound)
		msg, _ := PublicMessage(err)
		assert.True(t, strings.HasPrefix(msg, "No account found"))
	})

	t.Run("emailed", func(t *testing.T) {
		f := newFixture(t)
		n := &fakeNotifier{}
		svc := newAuthService(f.db, n, true)

		reset, err := svc.ResetPassword(ctx, f.u1.Email)
		require.NoError(t, err)
		assert.True(t, reset.EmailSent)
		assert.Empty(t, reset.TempPassword)

		temp := n.sent[f.u1.Email]
		require.Len(t, temp, tempPasswordLength)

		user, err := svc.ValidateCredentials(ctx, f.u1.Email, temp)
		require.NoError(t, err)
		require.NotNil(t, user)

		user, err = svc.ValidateCredentials(ctx, f.u1.Email, fixturePassword)
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("delivery failure reveals password", func(t *testing.T) {
		f := newFixture(t)
		svc := newAuthService(f.db, &fakeNotifier{err: errors.New("smtp down")}, true)

		reset, err := svc.ResetPassword(ctx, f.u2.Email)
		require.NoError(t, err)
		assert.False(t, reset.EmailSent)
		require.Len(t, reset.TempPassword, tempPasswordLength)

		user, err := svc.ValidateCredentials(ctx, f.u2.Email, reset.TempPassword)
		require.NoError(t, err)
		assert.NotNil(t, user)
	})

	t.Run("delivery failure without reveal", func(t *testing.T) {
		f := newFixture(t)
		svc := newAuthService(f.db, &fakeNotifier{err: errors.New("smtp down")}, false)

		_, err := svc.ResetPassword(ctx, f.u2.Email)
		assert.ErrorIs(t, err, ErrDependency)
	})
}

func TestGenerateTempPassword(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		p, err := generateTempPassword()
		require.NoError(t, err)
		require.Len(t, p, tempPasswordLength)
		for _, r := range p {
			assert.True(t, strings.ContainsRune(tempPasswordAlphabet, r), "unexpected rune %q", r)
		}
		seen[p] = true
	}
	assert.Greater(t, len(seen), 45)
}

package service

import (
	"context"
	"testing"

	"template-service/internal/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserList(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.db)
	ctx := context.Background()

	t.Run("admin sees tenant", func(t *testing.T) {
		users, err := svc.List(ctx, callerOf(f.admin))
		require.NoError(t, err)
		ids := make([]string, 0, len(users))
		for _, u := range users {
			assert.Equal(t, tenantA, u.TenantID)
			ids = append(ids, u.ID)
		}
		assert.ElementsMatch(t, []string{f.admin.ID, f.u1.ID, f.u2.ID}, ids)
	})

	t.Run("user sees self", func(t *testing.T) {
		users, err := svc.List(ctx, callerOf(f.u1))
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, f.u1.ID, users[0].ID)
		assert.Equal(t, "U1", users[0].Name)
	})

	t.Run("no tenant", func(t *testing.T) {
		caller := callerOf(f.admin)
		caller.TenantID = ""
		_, err := svc.List(ctx, caller)
		assert.ErrorIs(t, err, ErrAuthentication)
	})
}

func TestUserGet(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.db)
	ctx := context.Background()

	t.Run("admin reads tenant user", func(t *testing.T) {
		u, err := svc.Get(ctx, callerOf(f.admin), f.u2.ID)
		require.NoError(t, err)
		assert.Equal(t, f.u2.Email, u.Email)
	})

	t.Run("admin cross tenant", func(t *testing.T) {
		_, err := svc.Get(ctx, callerOf(f.admin), f.userB.ID)
		require.ErrorIs(t, err, ErrForbidden)
		msg, _ := PublicMessage(err)
		assert.Equal(t, "User not found or access denied", msg)
	})

	t.Run("user reads other", func(t *testing.T) {
		_, err := svc.Get(ctx, callerOf(f.u1), f.u2.ID)
		require.ErrorIs(t, err, ErrForbidden)
		msg, _ := PublicMessage(err)
		assert.Equal(t, "Access denied. You can only view your own data.", msg)
	})

	t.Run("forged tenant claim", func(t *testing.T) {
		caller := callerOf(f.userB)
		caller.TenantID = tenantA
		_, err := svc.Get(ctx, caller, f.userB.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("me", func(t *testing.T) {
		u, err := svc.Me(ctx, callerOf(f.u1))
		require.NoError(t, err)
		assert.Equal(t, f.u1.ID, u.ID)
	})

	t.Run("unknown role is user", func(t *testing.T) {
		caller := policy.Caller{UserID: f.u1.ID, TenantID: tenantA, Role: policy.ParseRole("superuser")}
		_, err := svc.Get(ctx, caller, f.u2.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

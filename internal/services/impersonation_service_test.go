package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/validator"
)

func TestImpersonation_ShadowRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	svc := NewImpersonationService(env.deps)
	ctx := context.Background()
	admin := env.seedAdmin(t, "ADM7")

	shadow, err := svc.CreateShadowAccount(ctx, admin, &validator.ShadowAccountRequest{FullName: "Test Driver"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(shadow.EmployeeID, "SHADOW-ADM7-"))
	assert.Equal(t, models.RoleBasic, shadow.Role)
	assert.True(t, shadow.Shadow)
	assert.True(t, shadow.Pending)

	assumed, err := svc.Impersonate(ctx, admin, shadow.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleBasic, assumed.Role)
	assert.Equal(t, shadow.EmployeeID, assumed.UserID)
	assert.Equal(t, "ADM7", assumed.OriginalAdminID)
	assert.Equal(t, models.RoleAdmin, assumed.OriginalAdminRole)
	assert.True(t, assumed.IsImpersonating())

	restored, err := svc.Exit(ctx, assumed)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, restored.Role)
	assert.Equal(t, "ADM7", restored.UserID)
	assert.Empty(t, restored.OriginalAdminID)
	assert.False(t, restored.IsImpersonating())

	assert.Equal(t, []string{
		string(models.AuditShadowCreated),
		string(models.AuditImpersonationStart),
		string(models.AuditImpersonationEnd),
	}, env.publisher.Actions())
	assert.Len(t, env.publisher.GetIdentityEvents(), 2)
}

func TestImpersonation_Refusals(t *testing.T) {
	env := newTestEnv(t)
	svc := NewImpersonationService(env.deps)
	ctx := context.Background()
	admin := env.seedAdmin(t, "ADM1")
	other := env.seedAdmin(t, "ADM2")
	driver := env.seedUser(t, "DRV1", models.RoleBasic, "secret1")

	othersShadow, err := svc.CreateShadowAccount(ctx, other, &validator.ShadowAccountRequest{FullName: "Not Yours"})
	require.NoError(t, err)

	t.Run("real driver account", func(t *testing.T) {
		_, err := svc.Impersonate(ctx, admin, driver.RecordID)
		assert.ErrorIs(t, err, ErrForbidden)
	})
	t.Run("another admin's shadow", func(t *testing.T) {
		_, err := svc.Impersonate(ctx, admin, othersShadow.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})
	t.Run("missing target", func(t *testing.T) {
		_, err := svc.Impersonate(ctx, admin, 9999)
		assert.ErrorIs(t, err, ErrForbidden)
	})
	t.Run("admin account", func(t *testing.T) {
		_, err := svc.Impersonate(ctx, admin, other.RecordID)
		assert.ErrorIs(t, err, ErrForbidden)
	})
	t.Run("driver cannot impersonate", func(t *testing.T) {
		_, err := svc.Impersonate(ctx, driver, othersShadow.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})
	t.Run("nested impersonation", func(t *testing.T) {
		mine, err := svc.CreateShadowAccount(ctx, admin, &validator.ShadowAccountRequest{FullName: "Mine"})
		require.NoError(t, err)
		assumed, err := svc.Impersonate(ctx, admin, mine.ID)
		require.NoError(t, err)

		_, err = svc.Impersonate(ctx, assumed, mine.ID)
		assert.ErrorIs(t, err, ErrAlreadyImpersonating)
	})
	t.Run("exit without impersonation", func(t *testing.T) {
		_, err := svc.Exit(ctx, admin)
		assert.ErrorIs(t, err, ErrNotImpersonating)
	})
}

func TestImpersonation_ExitAfterAdminRemoved(t *testing.T) {
	env := newTestEnv(t)
	svc := NewImpersonationService(env.deps)
	ctx := context.Background()
	admin := env.seedAdmin(t, "ADM9")

	shadow, err := svc.CreateShadowAccount(ctx, admin, &validator.ShadowAccountRequest{FullName: "Orphan"})
	require.NoError(t, err)
	assumed, err := svc.Impersonate(ctx, admin, shadow.ID)
	require.NoError(t, err)

	require.NoError(t, env.repo.User().Delete(ctx, admin.RecordID))

	_, err = svc.Exit(ctx, assumed)
	assert.ErrorIs(t, err, ErrRestoreFailed)
}

func TestImpersonation_ShadowIDCollisionRetries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.seedAdmin(t, "ADM3")
	env.seedUser(t, "SHADOW-ADM3-AAAAAA", models.RoleBasic, "")

	suffixes := []string{"AAAAAA", "BBBBBB"}
	svc := &impersonationService{Dependencies: env.deps, newSuffix: func() string {
		s := suffixes[0]
		suffixes = suffixes[1:]
		return s
	}}

	shadow, err := svc.CreateShadowAccount(ctx, admin, &validator.ShadowAccountRequest{FullName: "Retry"})
	require.NoError(t, err)
	assert.Equal(t, "SHADOW-ADM3-BBBBBB", shadow.EmployeeID)

	list, err := svc.ListShadowAccounts(ctx, admin)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, shadow.ID, list[0].ID)
}

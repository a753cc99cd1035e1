package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-kit/helpdesk/internal/config"
	"github.com/helpdesk-kit/helpdesk/internal/domain"
	"github.com/helpdesk-kit/helpdesk/internal/service"
)

func authConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 60,
			BcryptCost:            4,
		},
		Seed: config.SeedConfig{
			AdminCredentials:    map[string]string{"admin@corp.example": "admin-pass"},
			EmployeeCredentials: map[string]string{"lead@corp.example": "lead-pass"},
		},
	}
}

func TestLoginProvisionsSeedAdminOnFirstLogin(t *testing.T) {
	users := newFakeUserRepo()
	svc := service.NewAuthService(authConfig(), users)
	ctx := context.Background()

	user, token, _, err := svc.Login(ctx, "Admin@Corp.Example", "admin-pass")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleITAdmin, user.Role)
	assert.Equal(t, "admin@corp.example", user.Email)
	assert.NotNil(t, user.PasswordHash)
	assert.NotNil(t, user.LastLoginAt)
	assert.NotEmpty(t, token)

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, domain.RoleITAdmin, claims.Role)
}

func TestLoginRejectsBadSeedPasswordBeforeProvisioning(t *testing.T) {
	users := newFakeUserRepo()
	svc := service.NewAuthService(authConfig(), users)
	ctx := context.Background()

	_, _, _, err := svc.Login(ctx, "admin@corp.example", "wrong")
	assert.Equal(t, "UNAUTHORIZED", domainErrCode(t, err))

	// No account may exist after a failed seed login.
	assert.Empty(t, users.users)

	_, _, _, err = svc.Login(ctx, "admin@corp.example", "")
	assert.Equal(t, "VALIDATION_FAILED", domainErrCode(t, err))
	assert.Empty(t, users.users)
}

func TestLoginProvisionsPasswordlessEmployee(t *testing.T) {
	users := newFakeUserRepo()
	svc := service.NewAuthService(authConfig(), users)
	ctx := context.Background()

	user, _, _, err := svc.Login(ctx, "dana@corp.example", "")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEmployee, user.Role)
	assert.Nil(t, user.PasswordHash)
	assert.Equal(t, "Dana", user.Name)

	// Second login reuses the account.
	again, _, _, err := svc.Login(ctx, "dana@corp.example", "")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
	assert.Len(t, users.users, 1)
}

func TestLoginSeedEmployeeRequiresPassword(t *testing.T) {
	users := newFakeUserRepo()
	svc := service.NewAuthService(authConfig(), users)
	ctx := context.Background()

	user, _, _, err := svc.Login(ctx, "lead@corp.example", "lead-pass")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEmployee, user.Role)
	require.NotNil(t, user.PasswordHash)

	_, _, _, err = svc.Login(ctx, "lead@corp.example", "wrong")
	assert.Equal(t, "UNAUTHORIZED", domainErrCode(t, err))
}

func TestLoginDeactivatedAccount(t *testing.T) {
	users := newFakeUserRepo()
	svc := service.NewAuthService(authConfig(), users)
	ctx := context.Background()

	user, _, _, err := svc.Login(ctx, "dana@corp.example", "")
	require.NoError(t, err)

	stored := users.users[user.ID]
	stored.IsActive = false

	_, _, _, err = svc.Login(ctx, "dana@corp.example", "")
	assert.Equal(t, "UNAUTHORIZED", domainErrCode(t, err))
}

func TestLoginEmptyEmail(t *testing.T) {
	svc := service.NewAuthService(authConfig(), newFakeUserRepo())
	_, _, _, err := svc.Login(context.Background(), "   ", "x")
	assert.Equal(t, "VALIDATION_FAILED", domainErrCode(t, err))
}

func TestMe(t *testing.T) {
	users := newFakeUserRepo(employee("u1", "Dana"))
	svc := service.NewAuthService(authConfig(), users)
	ctx := context.Background()

	user, err := svc.Me(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Dana", user.Name)

	_, err = svc.Me(ctx, "missing")
	assert.Equal(t, "NOT_FOUND", domainErrCode(t, err))
}

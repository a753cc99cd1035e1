package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-kit/helpdesk/internal/auth"
	"github.com/helpdesk-kit/helpdesk/internal/domain"
)

func TestGenerateAndParseToken(t *testing.T) {
	manager := auth.NewTokenManager("secret", 60)
	user := &domain.User{ID: "u1", Email: "dana@corp.example", Role: domain.RoleEmployee}

	token, expiresAt, err := manager.GenerateToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := manager.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "dana@corp.example", claims.Email)
	assert.Equal(t, domain.RoleEmployee, claims.Role)
	assert.Equal(t, "u1", claims.Subject)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	issuer := auth.NewTokenManager("secret-a", 60)
	verifier := auth.NewTokenManager("secret-b", 60)

	token, _, err := issuer.GenerateToken(&domain.User{ID: "u1"})
	require.NoError(t, err)

	_, err = verifier.ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	manager := auth.NewTokenManager("secret", 60)
	_, err := manager.ParseToken("not.a.token")
	assert.Error(t, err)
}

func TestHashAndComparePassword(t *testing.T) {
	hash, err := auth.HashPassword("hunter2", 4)
	require.NoError(t, err)
	require.NoError(t, auth.ComparePassword(hash, "hunter2"))
	assert.Error(t, auth.ComparePassword(hash, "hunter3"))
}

func TestHashPasswordDefaultsInvalidCost(t *testing.T) {
	hash, err := auth.HashPassword("hunter2", 0)
	require.NoError(t, err)
	require.NoError(t, auth.ComparePassword(hash, "hunter2"))
}

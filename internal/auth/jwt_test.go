package auth

import (
	"testing"

	"taller-backend/internal/config"
	"taller-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	tok, err := BearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", tok)

	tok, err = BearerToken("bearer   xyz")
	require.NoError(t, err)
	assert.Equal(t, "xyz", tok)

	_, err = BearerToken("")
	assert.ErrorIs(t, err, ErrMissingToken)
	_, err = BearerToken("Basic abc")
	assert.ErrorIs(t, err, ErrBadScheme)
	_, err = BearerToken("Bearer")
	assert.ErrorIs(t, err, ErrBadScheme)
}

func TestTokenRoundTrip(t *testing.T) {
	cfg := &config.Config{JWTSecret: "secreto-de-prueba-con-largo-suficiente", JWTTTLHours: 1}
	org := uint(7)

	raw, err := GenerateToken(cfg, &models.User{ID: 3, Email: "a@b.com", Role: models.RoleOrgUser, OrganizationID: &org})
	require.NoError(t, err)

	claims, err := ParseToken(cfg.JWTSecret, raw)
	require.NoError(t, err)
	assert.Equal(t, uint(3), claims.UserID)
	assert.Equal(t, models.RoleOrgUser, claims.Role)
	require.NotNil(t, claims.OrganizationID)
	assert.Equal(t, org, *claims.OrganizationID)

	_, err = ParseToken("otro-secreto", raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenWithoutOrganization(t *testing.T) {
	cfg := &config.Config{JWTSecret: "secreto-de-prueba-con-largo-suficiente", JWTTTLHours: 1}

	raw, err := GenerateToken(cfg, &models.User{ID: 1, Role: models.RoleSuperAdmin})
	require.NoError(t, err)
	_, err = ParseToken(cfg.JWTSecret, raw)
	assert.NoError(t, err)

	raw, err = GenerateToken(cfg, &models.User{ID: 2, Role: models.RoleOrgAdmin})
	require.NoError(t, err)
	_, err = ParseToken(cfg.JWTSecret, raw)
	assert.ErrorIs(t, err, ErrNoTenant)
}

package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"taller-backend/internal/config"
	"taller-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("falta el header Authorization")
	ErrBadScheme    = errors.New("el formato de Authorization debe ser 'Bearer <token>'")
	ErrInvalidToken = errors.New("token inválido o vencido")
	ErrNoTenant     = errors.New("el usuario no pertenece a ningún taller")
)

// JWTCustomClaims: los usuarios de taller siempre llevan organization_id; el super admin no.
type JWTCustomClaims struct {
	UserID         uint            `json:"user_id"`
	Email          string          `json:"email"`
	Role           models.UserRole `json:"role"`
	OrganizationID *uint           `json:"organization_id"`
	jwt.RegisteredClaims
}

func GenerateToken(cfg *config.Config, user *models.User) (string, error) {
	ttl := time.Duration(cfg.JWTTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	now := time.Now()
	claims := &JWTCustomClaims{
		UserID:         user.ID,
		Email:          user.Email,
		Role:           user.Role,
		OrganizationID: user.OrganizationID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(user.ID),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
}

// BearerToken extrae el token del header Authorization.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", ErrBadScheme
	}
	return strings.TrimSpace(token), nil
}

// ParseToken valida firma y vencimiento y que el rol sea coherente con la organización.
func ParseToken(secret, raw string) (*JWTCustomClaims, error) {
	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Role != models.RoleSuperAdmin && claims.OrganizationID == nil {
		return nil, ErrNoTenant
	}
	return claims, nil
}

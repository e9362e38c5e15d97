// Package testutil arma una base SQLite en memoria y usuarios con token para los tests.
package testutil

import (
	"testing"

	"taller-backend/internal/auth"
	"taller-backend/internal/config"
	"taller-backend/internal/database"
	"taller-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const JWTSecret = "test-secret-0123456789-abcdefghijkl"

func Config() *config.Config {
	return &config.Config{
		HTTPPort:           "0",
		JWTSecret:          JWTSecret,
		JWTTTLHours:        1,
		CORSOrigins:        "*",
		LogLevel:           "error",
		LogFormat:          "json",
		LoginRatePerMinute: 1000,
		MetricsEnabled:     true,
	}
}

// SetupDB abre SQLite en memoria, migra y lo deja como database.DB durante el test.
// Una sola conexión: todo lo que corre dentro de una transacción debe usar el tx.
func SetupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	prev := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = prev
		_ = sqlDB.Close()
	})
	return db
}

func CreateOrganization(t *testing.T, db *gorm.DB, name string) models.Organization {
	t.Helper()
	org := models.Organization{
		Name:                   name,
		WorkPriceHour:          decimal.NewFromInt(10000),
		SaleDocumentNumberMode: models.NumberingAutomatic,
	}
	require.NoError(t, db.Create(&org).Error)
	return org
}

func CreateUser(t *testing.T, db *gorm.DB, email string, role models.UserRole, orgID *uint) models.User {
	t.Helper()
	user := models.User{
		Name:           "Usuario " + email,
		Email:          email,
		PasswordHash:   "x",
		Role:           role,
		OrganizationID: orgID,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func Token(t *testing.T, user models.User) string {
	t.Helper()
	token, err := auth.GenerateToken(Config(), &user)
	require.NoError(t, err)
	return token
}

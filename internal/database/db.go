package database

import (
	"errors"
	"strings"

	"taller-backend/internal/config"
	"taller-backend/internal/logger"
	"taller-backend/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Open conecta a Postgres sin migrar.
func Open(cfg *config.Config) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
}

func Init(cfg *config.Config) {
	db, err := Open(cfg)
	if err != nil {
		logger.Get().Fatalf("No se pudo conectar a la base de datos: %v", err)
	}

	if err := Migrate(db); err != nil {
		logger.Get().Fatalf("Error de AutoMigrate: %v", err)
	}

	DB = db
	logger.Get().Info("Conexión a la base de datos OK. Migración completa.")
}

// Migrate crea o actualiza todas las tablas.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Organization{},
		&models.User{},
		&models.Customer{},
		&models.Vehicle{},
		&models.Supplier{},
		&models.Employee{},
		&models.SaleProduct{},
		&models.PurchaseProduct{},
		&models.Sale{},
		&models.Purchase{},
		&models.Collection{},
		&models.Payment{},
		&models.Check{},
		&models.WorkOrder{},
		&models.AuditLog{},
	)
}

// IsUniqueViolation detecta violaciones de índice único en Postgres (23505) y SQLite.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

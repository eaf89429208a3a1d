package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ddionrails/config"
	"ddionrails/models"
)

// Open stellt die Verbindung zur konfigurierten Datenbank her und migriert das Schema.
func Open(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	log.Info("Datenbankverbindung hergestellt", zap.String("driver", cfg.DBDriver))

	if cfg.DBDriver == "sqlite" {
		// SQLite erlaubt nur einen Schreiber; Transaktionen laufen über dieselbe Verbindung.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("Auto-Migration abgeschlossen")
	return db, nil
}

// Migrate legt alle Tabellen des Katalogs an bzw. passt sie an.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}

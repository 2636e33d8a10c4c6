package database

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/camden-git/eventmealsbackend/logging"
	"github.com/camden-git/eventmealsbackend/models"
)

// sqliteDSN enables foreign keys (for cascade deletes) and WAL on the given path.
func sqliteDSN(dataSourceName string) string {
	if strings.Contains(dataSourceName, "?") {
		return dataSourceName + "&_foreign_keys=on"
	}
	return dataSourceName + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"
}

// InitGormDB initializes and returns a GORM database instance
func InitGormDB(dataSourceName string, logger *zap.Logger, level gormlogger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(sqliteDSN(dataSourceName)), &gorm.Config{
		Logger: logging.NewGormLogger(logger, level, time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database using GORM: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB from GORM: %w", err)
	}

	// sqlite allows a single writer; one connection keeps transactions serialized
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	logger.Info("GORM database initialized", zap.String("path", dataSourceName))
	return db, nil
}

// AutoMigrateModels can be called after InitGormDB to migrate schemas
func AutoMigrateModels(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Person{},
		&models.DrinkType{},
		&models.DrinkOrder{},
		&models.ConsumptionRecord{},
		&models.Conversation{},
		&models.Message{},
		&models.Admin{},
	)
	if err != nil {
		return fmt.Errorf("GORM AutoMigrate failed: %w", err)
	}
	for _, stmt := range identityIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create identity index: %w", err)
		}
	}
	return nil
}

// identityIndexes enforce the case-insensitive uniqueness struct tags cannot express.
var identityIndexes = []string{
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_drink_types_name_lower ON drink_types (LOWER(name))",
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_people_identity ON people (LOWER(first_name), LOWER(last_name), gender)",
}

package database

import (
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"blackmarket-trader/internal/models"
)

func Initialize(databaseURL string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		dialector = postgres.Open(databaseURL)
	} else {
		dialector = sqlite.Open(databaseURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// every new connection to an in-memory sqlite database opens an empty one
	if strings.Contains(databaseURL, "mode=memory") {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	// Auto migrate the schema
	err = db.AutoMigrate(
		&models.ItemTemplate{},
		&models.Profile{},
		&models.InventoryItem{},
		&models.TraderStanding{},
		&models.Trader{},
		&models.Locale{},
		&models.TraderLocale{},
		&models.TraderUpdateTime{},
	)
	if err != nil {
		return nil, err
	}

	logrus.WithField("component", "database").Info("Database initialized successfully")
	return db, nil
}

package db

import (
	"matka/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Market{},
		&models.Rating{},
		&models.Customer{},
		&models.Betting{},
		&models.Balance{},
		&models.SettlementRun{},
		&models.SystemSetting{},
	)
}

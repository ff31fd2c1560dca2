// Package db contains things related to SQLite
package db

import (
	"bitwise74/gallery-bot/internal/model"
	"fmt"

	"github.com/spf13/viper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func New() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(viper.GetString("database.path")))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite database, %w", err)
	}

	err = db.AutoMigrate(
		model.Media{},
		model.UserStats{},
		model.WeeklyStats{},
		model.ServerStats{},
		model.Watermark{},
		model.CommandPost{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return db, nil
}
